package scoring

import (
	"strings"

	"github.com/okian/onbscore/internal/domain/columns"
)

// Thresholds of the numeric criteria.
const (
	minBookableHours       = 60
	minBookableDays        = 10
	completeProfile        = 5
	bookingsWeight         = 2
	opinionsWeight         = 4
	userBookingsWeight     = 10
	answeredQuestionWeight = 5
)

var falsy = map[string]struct{}{
	"0": {}, "false": {}, "no": {}, "n": {}, "não": {}, "nao": {}, "-": {},
}

func award(points int, ok bool) int {
	if ok {
		return points
	}
	return 0
}

func flag(k columns.Key) func(columns.Record) bool {
	return func(r columns.Record) bool { return r.Flag(k) }
}

// linked holds for a truthy flag or any non-falsy content, such as a URL.
func linked(r columns.Record, k columns.Key) bool {
	if r.Flag(k) {
		return true
	}
	if !r.Present(k) {
		return false
	}
	if _, ok := r.NumberOK(k); ok {
		return false
	}
	_, no := falsy[strings.ToLower(r.Text(k))]
	return !no
}

func boolean(id, category, description string, points int, gated bool, met func(columns.Record) bool) Criterion {
	return Criterion{
		ID:          id,
		Category:    category,
		Description: description,
		Points:      points,
		PlanGated:   gated,
		Earned:      func(r columns.Record) int { return award(points, met(r)) },
	}
}

func capped(id, category, description string, points int, earned func(columns.Record) int) Criterion {
	return Criterion{
		ID:          id,
		Category:    category,
		Description: description,
		Points:      points,
		Earned:      earned,
	}
}

// DefaultCriteria returns the production table. Its order is the order of
// the missing-actions list.
func DefaultCriteria() []Criterion {
	return []Criterion{
		boolean("operations", Technical, "Enable secretary seats, call center or PMS integration", 25, false,
			func(r columns.Record) bool {
				return r.Number(columns.SecretarySeats) > 0 || r.Flag(columns.CallCenter) || r.Flag(columns.PMSIntegration)
			}),
		boolean("mobile_app", Technical, "Log in to the mobile app", 5, true, flag(columns.MobileAppLogin)),
		boolean("imported_patients", Technical, "Import at least 20 patients", 15, false, flag(columns.ImportedPatients)),
		boolean("online_consultation", Technical, "Enable online consultation", 15, true, flag(columns.OnlineConsultation)),
		boolean("online_payments", Technical, "Enable online payments", 5, false, flag(columns.OnlinePayments)),
		boolean("review_requests", Technical, "Turn on review request notifications", 15, false, flag(columns.ReviewRequest)),

		boolean("bookable_hours", Visibility, "Open at least 60 bookable hours", 15, false,
			func(r columns.Record) bool { return r.Number(columns.BookableHours) >= minBookableHours }),
		boolean("bookable_days", Visibility, "Open at least 10 bookable days", 15, false,
			func(r columns.Record) bool { return r.Number(columns.BookableDays) >= minBookableDays }),
		boolean("insurers", Visibility, "Link at least 2 insurers", 20, false, flag(columns.Insurers)),
		boolean("profile", Visibility, "Complete the profile", 5, false,
			func(r columns.Record) bool { return r.Number(columns.ProfileCompleteness) == completeProfile }),
		boolean("pricing", Visibility, "Publish service prices", 5, false, flag(columns.HasPricing)),
		boolean("whatsapp", Visibility, "Set up WhatsApp or the autoresponder", 5, false, flag(columns.WhatsApp)),
		boolean("website", Visibility, "Add the booking widget to the website", 10, false,
			func(r columns.Record) bool { return linked(r, columns.WebsiteWidget) }),
		boolean("social", Visibility, "Link Google Business, Instagram or Facebook", 10, false,
			func(r columns.Record) bool {
				return linked(r, columns.GoogleBusiness) || linked(r, columns.InstagramLink) || linked(r, columns.FacebookLink)
			}),

		capped("bookings", Adoption, "Grow admin and patient bookings", AdoptionMax,
			func(r columns.Record) int {
				return bookingsWeight * (r.Int(columns.AdminBookings) + r.Int(columns.UserBookings))
			}),

		boolean("campaign", Advanced, "Send a campaign in the period", 30, false, flag(columns.CampaignSent)),
		capped("opinions", Advanced, "Collect patient opinions and online bookings", 40,
			func(r columns.Record) int {
				return opinionsWeight*r.Int(columns.Opinions) + userBookingsWeight*r.Int(columns.UserBookings)
			}),
		capped("questions", Advanced, "Answer public patient questions", 20,
			func(r columns.Record) int {
				return answeredQuestionWeight * r.Int(columns.AnsweredQuestions)
			}),
	}
}
