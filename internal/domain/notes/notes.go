// Package notes turns free-text onboarding meeting notes into follow-up
// recommendations by scanning for "label: answer" lines.
package notes

import "strings"

// Fallback is returned when the notes carry none of the known answers.
const Fallback = "No specific recommendation could be derived from the notes."

// Check fires Recommendation when any of Phrases occurs in the lowercased
// notes. Checks sharing a non-empty Group are exclusive: the first match in
// the group wins.
type Check struct {
	Group          string
	Phrases        []string
	Recommendation string
}

// DefaultChecks returns the built-in checks in output order.
func DefaultChecks() []Check {
	return []Check{
		{
			Group:          "plan",
			Phrases:        []string{"plano: starter"},
			Recommendation: "Starter plan: medical records and scheduling integrations are not included. Focus on the other areas to raise the score.",
		},
		{
			Group:          "plan",
			Phrases:        []string{"plano:"},
			Recommendation: "Full plan: explore every feature, including medical records and scheduling integrations, to maximize the score.",
		},
		{
			Group:          "teleconsultation",
			Phrases:        []string{"atende por teleconsulta: não", "atende por teleconsulta: nao"},
			Recommendation: "Online consultation: the customer does not offer it. Evaluate enabling it for more points and visibility.",
		},
		{
			Group:          "teleconsultation",
			Phrases:        []string{"atende por teleconsulta: sim"},
			Recommendation: "Online consultation: already enabled. Check that the online calendar reflects the real hours.",
		},
		{
			Phrases:        []string{"mais de 8h semanais: não", "mais de 8h semanais: nao"},
			Recommendation: "Calendar: fewer than 8 weekly hours open. Encourage the customer to open more slots to improve ranking.",
		},
		{
			Phrases:        []string{"possui secretária: não", "possui secretaria: nao", "possui secretária: nao"},
			Recommendation: "Secretary: the customer has none. Highlight the mobile app for managing the calendar and messages on their own.",
		},
		{
			Phrases:        []string{"ciente do gmn: não", "ciente do gmn: nao"},
			Recommendation: "Reviews manager: the customer is not aware of it. Present the tool and how it collects and manages patient opinions.",
		},
	}
}

// Recommend scans text with DefaultChecks. Empty text yields nil; text that
// matches nothing yields the single Fallback entry.
func Recommend(text string) []string {
	return RecommendWith(text, DefaultChecks())
}

// RecommendWith scans text with checks.
func RecommendWith(text string, checks []Check) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)
	fired := map[string]bool{}
	var out []string
	for _, c := range checks {
		if c.Group != "" && fired[c.Group] {
			continue
		}
		if !containsAny(lower, c.Phrases) {
			continue
		}
		if c.Group != "" {
			fired[c.Group] = true
		}
		out = append(out, c.Recommendation)
	}
	if len(out) == 0 {
		return []string{Fallback}
	}
	return out
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
