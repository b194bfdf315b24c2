// Package sampledata generates synthetic onboarding spreadsheets for demos,
// load checks and tests.
package sampledata

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/okian/onbscore/internal/domain/dataset"
)

// Column headers written by the generator, spelled the way exported CRM
// reports spell them.
const (
	ColLifecycle      = "Lifecycle_Stage"
	ColCSStage        = "CS_Client_Stage"
	ColGrade          = "ONB Grade"
	ColPlan           = "Plan"
	ColTally          = "ONB Score"
	ColOwner          = "Responsável"
	ColOnbStart       = "ONB Start (onboarding_at_cx)"
	ColTechnicalStart = "Technical ONB Start (commercial from date)"
	ColDeadline       = "ONB Deadline"
	ColClinic         = "Clinic"
)

var signalColumns = []string{
	"secretary_seats", "call_center", "pms_integration", "mobile_app_login",
	"imported_patients_20", "online_consultation", "online_payments",
	"review_request_notification", "bookable_hours", "bookable_days",
	"insurers_2", "profile_completeness", "has_pricing", "whatsapp",
	"website_widget", "google_business", "instagram_link", "facebook_link",
	"admin_bookings", "user_bookings", "campaign_sent", "opinions",
	"answered_questions",
}

var (
	lifecycleStages = []string{"Onboarding", "Onboarding", "Farming", "Customer", ""}
	csStages        = []string{
		"Waiting", "Back to Sales", "Re-Onboarding", "After First Call",
		"after first call", "Adoption", "Kickoff", "",
	}
	grades        = []string{"A", "A", "B", "C", "D", ""}
	plans         = []string{"starter", "Starter", "PLUS", "vip", ""}
	defaultOwners = []string{
		"ana@cs.example.com", "bruno@cs.example.com",
		"carla@cs.example.com", "diego@cs.example.com",
	}
	flagSpellings = []string{"1", "0", "sim", "não", "yes", "", "x"}
)

const (
	maxSeats        = 3
	maxHours        = 90
	maxDays         = 20
	maxBookings     = 50
	maxOpinions     = 12
	maxQuestions    = 6
	maxProfileLevel = 5
	tallyBlankRatio = 4
	windowDays      = 90
	startSpreadDays = 120
)

// Option configures Generate.
type Option func(*generator)

// WithOwners sets the pool of responsible emails.
func WithOwners(emails ...string) Option {
	return func(g *generator) {
		if len(emails) > 0 {
			g.owners = append([]string(nil), emails...)
		}
	}
}

// WithBaseDate anchors generated dates; defaults to 2024-01-01 UTC.
func WithBaseDate(t time.Time) Option {
	return func(g *generator) {
		if !t.IsZero() {
			g.base = t
		}
	}
}

type generator struct {
	rng    *rand.Rand
	owners []string
	base   time.Time
}

// Columns returns the generated header in order.
func Columns() []string {
	cols := []string{
		ColClinic, ColLifecycle, ColCSStage, ColGrade, ColPlan, ColTally, ColOwner,
		ColOnbStart, ColTechnicalStart, ColDeadline,
	}
	return append(cols, signalColumns...)
}

// Generate builds n rows deterministically from seed.
func Generate(n int, seed int64, opts ...Option) *dataset.Dataset {
	g := &generator{
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // reproducible fixtures
		owners: defaultOwners,
		base:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(g)
	}

	records := make([][]dataset.Value, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, g.row(i))
	}
	ds, err := dataset.New(Columns(), records)
	if err != nil {
		// Columns() is never empty.
		panic(err)
	}
	return ds
}

func (g *generator) pick(values []string) dataset.Value {
	return dataset.Text(values[g.rng.Intn(len(values))])
}

func (g *generator) num(upper int) dataset.Value {
	return dataset.Number(float64(g.rng.Intn(upper + 1)))
}

func (g *generator) row(i int) []dataset.Value {
	start := g.base.AddDate(0, 0, g.rng.Intn(startSpreadDays))
	technical := dataset.Empty()
	if g.rng.Intn(3) > 0 {
		technical = dataset.Date(start.AddDate(0, 0, -g.rng.Intn(30)))
	}
	tally := dataset.Empty()
	if g.rng.Intn(tallyBlankRatio) > 0 {
		tally = dataset.Number(float64(g.rng.Intn(326)))
	}

	row := []dataset.Value{
		dataset.Text("Clinic " + strconv.Itoa(i+1)),
		g.pick(lifecycleStages),
		g.pick(csStages),
		g.pick(grades),
		g.pick(plans),
		tally,
		g.pick(g.owners),
		dataset.Date(start),
		technical,
		dataset.Date(start.AddDate(0, 0, windowDays)),
	}

	for _, col := range signalColumns {
		switch col {
		case "secretary_seats":
			row = append(row, g.num(maxSeats))
		case "bookable_hours":
			row = append(row, g.num(maxHours))
		case "bookable_days":
			row = append(row, g.num(maxDays))
		case "profile_completeness":
			row = append(row, g.num(maxProfileLevel))
		case "admin_bookings", "user_bookings":
			row = append(row, g.num(maxBookings))
		case "opinions":
			row = append(row, g.num(maxOpinions))
		case "answered_questions":
			row = append(row, g.num(maxQuestions))
		default:
			row = append(row, g.pick(flagSpellings))
		}
	}
	return row
}
