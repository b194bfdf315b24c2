// Package scoring computes the onboarding readiness report of a single record:
// weighted criteria grouped in fixed categories, plan gating, and the ordered
// list of actions that would earn the missing points.
package scoring

import (
	"math"
	"strings"

	"github.com/okian/onbscore/internal/domain/columns"
)

// Category names.
const (
	Technical  = "Technical Setup"
	Visibility = "Visibility Setup"
	Adoption   = "Adoption"
	Advanced   = "Advanced Features"
)

// Fixed category maxima.
const (
	TechnicalMax  = 80
	VisibilityMax = 75
	AdoptionMax   = 80
	AdvancedMax   = 90

	// MaxTotal is the sum of the category maxima.
	MaxTotal = TechnicalMax + VisibilityMax + AdoptionMax + AdvancedMax
)

const defaultStarterPlan = "starter"

var categories = []struct {
	name string
	max  int
}{
	{Technical, TechnicalMax},
	{Visibility, VisibilityMax},
	{Adoption, AdoptionMax},
	{Advanced, AdvancedMax},
}

// Categories returns the category names in report order.
func Categories() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.name
	}
	return out
}

// CategoryMax returns the fixed maximum of a category, 0 if unknown.
func CategoryMax(name string) int {
	for _, c := range categories {
		if c.name == name {
			return c.max
		}
	}
	return 0
}

// Criterion is one line of the scoring table. Earned returns the points a
// record earns, between 0 and Points.
type Criterion struct {
	ID          string
	Category    string
	Description string
	Points      int
	PlanGated   bool
	Earned      func(columns.Record) int
}

// Action is a remediation item: what to do and how many points it is worth.
type Action struct {
	Criterion   string `json:"criterion" yaml:"criterion"`
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
	Points      int    `json:"points" yaml:"points"`
}

// CategoryScore is a {current, max} pair for one category. Capped is set
// when the earned points exceed Max, so the category reads full while some
// of its criteria may still be listed as missing.
type CategoryScore struct {
	Name    string `json:"name" yaml:"name"`
	Current int    `json:"current" yaml:"current"`
	Max     int    `json:"max" yaml:"max"`
	Capped  bool   `json:"capped" yaml:"capped"`
}

// Report is the gap analysis of one record. Current is the source tally when
// the record carries one, else Computed; Drift is Current minus Computed and
// stays zero without a tally. Max is the earnable maximum once plan-gated
// points are removed, FixedMax the sum of the category maxima.
type Report struct {
	Current       int             `json:"current" yaml:"current"`
	Computed      int             `json:"computed" yaml:"computed"`
	HasTally      bool            `json:"has_tally" yaml:"has_tally"`
	Drift         int             `json:"drift" yaml:"drift"`
	Max           int             `json:"max" yaml:"max"`
	FixedMax      int             `json:"fixed_max" yaml:"fixed_max"`
	Plan          string          `json:"plan" yaml:"plan"`
	Gated         bool            `json:"gated" yaml:"gated"`
	Categories    []CategoryScore `json:"categories" yaml:"categories"`
	Missing       []Action        `json:"missing" yaml:"missing"`
	NotApplicable []Action        `json:"not_applicable" yaml:"not_applicable"`
}

// Category returns the score of the named category.
func (r Report) Category(name string) (CategoryScore, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryScore{}, false
}

// MissingPoints sums the points of the missing actions.
func (r Report) MissingPoints() int {
	n := 0
	for _, a := range r.Missing {
		n += a.Points
	}
	return n
}

// Scorer produces a report for one record.
type Scorer interface {
	Score(rec columns.Record) Report
}

// Option configures an Engine.
type Option func(*Engine)

// WithStarterPlans sets the plan names that exclude plan-gated criteria.
// Names are matched case-insensitively after trimming.
func WithStarterPlans(plans ...string) Option {
	return func(e *Engine) {
		set := make(map[string]struct{}, len(plans))
		for _, p := range plans {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				set[p] = struct{}{}
			}
		}
		if len(set) > 0 {
			e.gatedPlans = set
		}
	}
}

// WithCriteria replaces the criterion table.
func WithCriteria(criteria []Criterion) Option {
	return func(e *Engine) {
		e.criteria = append([]Criterion(nil), criteria...)
	}
}

// Engine evaluates the criterion table. It is stateless per call and safe
// for concurrent use.
type Engine struct {
	criteria   []Criterion
	gatedPlans map[string]struct{}
}

var _ Scorer = (*Engine)(nil)

// New returns an Engine over DefaultCriteria.
func New(opts ...Option) *Engine {
	e := &Engine{
		criteria:   DefaultCriteria(),
		gatedPlans: map[string]struct{}{defaultStarterPlan: {}},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Criteria returns a copy of the table in evaluation order.
func (e *Engine) Criteria() []Criterion {
	return append([]Criterion(nil), e.criteria...)
}

// Gated reports whether plan excludes plan-gated criteria.
func (e *Engine) Gated(plan string) bool {
	_, ok := e.gatedPlans[strings.ToLower(strings.TrimSpace(plan))]
	return ok
}

// Score computes the report for rec.
func (e *Engine) Score(rec columns.Record) Report {
	plan := rec.Text(columns.Plan)
	gated := e.Gated(plan)

	raw := make(map[string]int, len(categories))
	gatedPoints := make(map[string]int, len(categories))
	rep := Report{
		FixedMax:      MaxTotal,
		Plan:          plan,
		Gated:         gated,
		Missing:       []Action{},
		NotApplicable: []Action{},
	}

	for _, c := range e.criteria {
		if gated && c.PlanGated {
			gatedPoints[c.Category] += c.Points
			rep.NotApplicable = append(rep.NotApplicable, Action{
				Criterion: c.ID, Category: c.Category, Description: c.Description, Points: c.Points,
			})
			continue
		}
		got := clamp(c.Earned(rec), 0, c.Points)
		raw[c.Category] += got
		if got < c.Points {
			rep.Missing = append(rep.Missing, Action{
				Criterion: c.ID, Category: c.Category, Description: c.Description, Points: c.Points - got,
			})
		}
	}

	for _, cat := range categories {
		limit := cat.max - gatedPoints[cat.name]
		cur := clamp(raw[cat.name], 0, limit)
		rep.Categories = append(rep.Categories, CategoryScore{
			Name: cat.name, Current: cur, Max: limit, Capped: raw[cat.name] > limit,
		})
		rep.Computed += cur
		rep.Max += limit
	}

	rep.Current = rep.Computed
	if tally, ok := rec.NumberOK(columns.Tally); ok && !math.IsNaN(tally) && !math.IsInf(tally, 0) {
		rep.HasTally = true
		rep.Current = int(math.Round(tally))
		rep.Drift = rep.Current - rep.Computed
	}
	return rep
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
