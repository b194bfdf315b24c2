// Package columns resolves spreadsheet headers to the canonical keys the
// engine reads, and exposes typed per-row accessors over the resolution.
package columns

import (
	"strings"
)

// Key is a canonical, lowercase-trimmed column key.
type Key string

// Keys read by categorization.
const (
	LifecycleStage Key = "lifecycle_stage"
	CSStage        Key = "cs_client_stage"
	Grade          Key = "onb grade"
)

// Keys read by scoring, scoping and the temporal helper.
const (
	Plan           Key = "plan"
	Tally          Key = "onb score"
	Owner          Key = "responsible"
	OnbStart       Key = "onb start (onboarding_at_cx)"
	TechnicalStart Key = "technical onb start (commercial from date)"
	Deadline       Key = "onb deadline"

	SecretarySeats     Key = "secretary_seats"
	CallCenter         Key = "call_center"
	PMSIntegration     Key = "pms_integration"
	MobileAppLogin     Key = "mobile_app_login"
	ImportedPatients   Key = "imported_patients_20"
	OnlineConsultation Key = "online_consultation"
	OnlinePayments     Key = "online_payments"
	ReviewRequest      Key = "review_request_notification"

	BookableHours       Key = "bookable_hours"
	BookableDays        Key = "bookable_days"
	Insurers            Key = "insurers_2"
	ProfileCompleteness Key = "profile_completeness"
	HasPricing          Key = "has_pricing"
	WhatsApp            Key = "whatsapp"
	WebsiteWidget       Key = "website_widget"
	GoogleBusiness      Key = "google_business"
	InstagramLink       Key = "instagram_link"
	FacebookLink        Key = "facebook_link"

	AdminBookings     Key = "admin_bookings"
	UserBookings      Key = "user_bookings"
	CampaignSent      Key = "campaign_sent"
	Opinions          Key = "opinions"
	AnsweredQuestions Key = "answered_questions"
)

// Spec describes one canonical key. Aliases are alternative normalized
// header spellings; matching is exact against the key or any alias.
type Spec struct {
	Key      Key
	Aliases  []string
	Required bool
}

var catalog = []Spec{
	{Key: LifecycleStage, Required: true},
	{Key: CSStage, Required: true},
	{Key: Grade, Aliases: []string{"onb_grade"}, Required: true},

	{Key: Plan, Aliases: []string{"plano"}},
	{Key: Tally, Aliases: []string{"onb_score", "score"}},
	{Key: Owner, Aliases: []string{"responsável", "responsavel", "owner"}},
	{Key: OnbStart},
	{Key: TechnicalStart},
	{Key: Deadline, Aliases: []string{"onb end", "onb_end_date"}},

	{Key: SecretarySeats},
	{Key: CallCenter},
	{Key: PMSIntegration},
	{Key: MobileAppLogin},
	{Key: ImportedPatients},
	{Key: OnlineConsultation},
	{Key: OnlinePayments},
	{Key: ReviewRequest},

	{Key: BookableHours},
	{Key: BookableDays},
	{Key: Insurers},
	{Key: ProfileCompleteness},
	{Key: HasPricing},
	{Key: WhatsApp, Aliases: []string{"autoresponder"}},
	{Key: WebsiteWidget},
	{Key: GoogleBusiness},
	{Key: InstagramLink},
	{Key: FacebookLink},

	{Key: AdminBookings},
	{Key: UserBookings},
	{Key: CampaignSent},
	{Key: Opinions},
	{Key: AnsweredQuestions},
}

// Catalog returns every canonical key in declaration order.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	for i, s := range catalog {
		s.Aliases = append([]string(nil), s.Aliases...)
		out[i] = s
	}
	return out
}

// RequiredKeys returns the keys without which categorization cannot run.
func RequiredKeys() []Key {
	var keys []Key
	for _, s := range catalog {
		if s.Required {
			keys = append(keys, s.Key)
		}
	}
	return keys
}

// Normalize lowercases and trims a header for matching.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Map is the resolution of canonical keys to a dataset's actual column names.
// The zero Map resolves nothing.
type Map struct {
	resolved map[Key]string
	found    []string
}

// Resolve matches header names against the catalog. When several headers
// normalize to the same string the first one wins. A missing required key
// yields a *MissingColumnsError together with the partial Map.
func Resolve(headers []string) (Map, error) {
	byNorm := make(map[string]string, len(headers))
	for _, h := range headers {
		n := Normalize(h)
		if _, exists := byNorm[n]; !exists {
			byNorm[n] = h
		}
	}

	m := Map{
		resolved: make(map[Key]string, len(catalog)),
		found:    append([]string(nil), headers...),
	}
	for _, s := range catalog {
		if actual, ok := byNorm[string(s.Key)]; ok {
			m.resolved[s.Key] = actual
			continue
		}
		for _, alias := range s.Aliases {
			if actual, ok := byNorm[alias]; ok {
				m.resolved[s.Key] = actual
				break
			}
		}
	}

	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}

// Validate reports every unresolved required key.
func (m Map) Validate() error {
	var missing []Key
	for _, k := range RequiredKeys() {
		if _, ok := m.resolved[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingColumnsError{Missing: missing, Found: append([]string(nil), m.found...)}
}

// Column returns the dataset column resolved for k.
func (m Map) Column(k Key) (string, bool) {
	c, ok := m.resolved[k]
	return c, ok
}

// Has reports whether k resolved.
func (m Map) Has(k Key) bool {
	_, ok := m.resolved[k]
	return ok
}

// Found returns the headers the resolution ran against, in source order.
func (m Map) Found() []string {
	return append([]string(nil), m.found...)
}

// Resolved returns a copy of the canonical key -> column mapping.
func (m Map) Resolved() map[Key]string {
	out := make(map[Key]string, len(m.resolved))
	for k, v := range m.resolved {
		out[k] = v
	}
	return out
}
