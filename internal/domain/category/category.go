// Package category partitions a dataset into lifecycle buckets using an
// ordered, first-match-wins rule cascade.
package category

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/onbscore/internal/domain/columns"
	"github.com/okian/onbscore/internal/domain/dataset"
	"github.com/okian/onbscore/internal/domain/timeline"
)

// Bucket is one of the fixed lifecycle categories.
type Bucket string

const (
	Farming     Bucket = "farming"
	BackToSales Bucket = "back_to_sales"
	Waiting     Bucket = "waiting"
	Atuar       Bucket = "atuar"
	Avancar     Bucket = "avancar"
	Outros      Bucket = "outros"
)

var buckets = []Bucket{Farming, BackToSales, Waiting, Atuar, Avancar, Outros}

// Buckets returns every bucket in presentation order.
func Buckets() []Bucket {
	return append([]Bucket(nil), buckets...)
}

// ParseBucket validates a bucket name.
func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range buckets {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBucket, s)
}

// Rule routes a record to Bucket when Match holds. Route, when set, picks the
// bucket per record instead (used by the grade split).
type Rule struct {
	Name   string
	Bucket Bucket
	Match  func(columns.Record) bool
	Route  func(columns.Record) Bucket
}

func (r Rule) target(rec columns.Record) Bucket {
	if r.Route != nil {
		return r.Route(rec)
	}
	return r.Bucket
}

// Stage values that feed the grade split.
var gradedStages = map[string]struct{}{
	"re-onboarding":    {},
	"after first call": {},
}

func fold(rec columns.Record, k columns.Key) string {
	return strings.ToLower(rec.Text(k))
}

// DefaultRules returns the production cascade. Order is significant.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "farming",
			Bucket: Farming,
			Match: func(rec columns.Record) bool {
				return strings.Contains(fold(rec, columns.LifecycleStage), "farming") ||
					strings.Contains(fold(rec, columns.CSStage), "adoption")
			},
		},
		{
			Name:   "back_to_sales",
			Bucket: BackToSales,
			Match: func(rec columns.Record) bool {
				return strings.Contains(fold(rec, columns.CSStage), "back to sales")
			},
		},
		{
			Name:   "waiting",
			Bucket: Waiting,
			Match: func(rec columns.Record) bool {
				return strings.Contains(fold(rec, columns.CSStage), "waiting")
			},
		},
		{
			Name: "grade_split",
			Match: func(rec columns.Record) bool {
				_, ok := gradedStages[fold(rec, columns.CSStage)]
				return ok
			},
			Route: func(rec columns.Record) Bucket {
				// case-sensitive; Text trims surrounding blanks
				if rec.Text(columns.Grade) == "A" {
					return Avancar
				}
				return Atuar
			},
		},
	}
}

// Option configures a Categorizer.
type Option func(*Categorizer)

// WithRules replaces the rule cascade.
func WithRules(rules []Rule) Option {
	return func(c *Categorizer) {
		c.rules = append([]Rule(nil), rules...)
	}
}

// WithWaitingByTechnicalStart orders the waiting bucket by technical start
// date ascending, undated rows last.
func WithWaitingByTechnicalStart(enabled bool) Option {
	return func(c *Categorizer) {
		c.sortWaiting = enabled
	}
}

// Categorizer applies a rule cascade. It holds no per-run state and is safe
// for concurrent use.
type Categorizer struct {
	rules       []Rule
	sortWaiting bool
}

// New returns a Categorizer using DefaultRules unless overridden.
func New(opts ...Option) *Categorizer {
	c := &Categorizer{rules: DefaultRules()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the bucket for a single record.
func (c *Categorizer) Classify(rec columns.Record) Bucket {
	for _, r := range c.rules {
		if r.Match != nil && r.Match(rec) {
			return r.target(rec)
		}
	}
	return Outros
}

// Categorize partitions ds in one pass. The column map must carry every
// required key; otherwise nothing is categorized.
func (c *Categorizer) Categorize(ds *dataset.Dataset, m columns.Map) (*Result, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrNoDataset)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	rows := ds.Rows()
	parts := make(map[Bucket][]dataset.Row, len(buckets))
	for _, b := range buckets {
		parts[b] = make([]dataset.Row, 0, len(rows)/len(buckets)+1)
	}
	for _, row := range rows {
		b := c.Classify(m.Record(row))
		parts[b] = append(parts[b], row)
	}

	if c.sortWaiting {
		sortByDate(parts[Waiting], m, columns.TechnicalStart)
	}

	res := &Result{
		columns: ds.Columns(),
		sets:    make(map[Bucket]*dataset.Dataset, len(buckets)),
		total:   len(rows),
	}
	for _, b := range buckets {
		res.sets[b] = ds.Subset(parts[b])
	}
	return res, nil
}

// sortByDate stable-sorts rows by the date under k; rows without a usable
// date keep their relative order after the dated ones.
func sortByDate(rows []dataset.Row, m columns.Map, k columns.Key) {
	keys := make(map[int]time.Time, len(rows))
	for _, r := range rows {
		if t, err := timeline.Parse(m.Record(r).Date(k)); err == nil {
			keys[r.Index()] = t
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ti, iok := keys[rows[i].Index()]
		tj, jok := keys[rows[j].Index()]
		switch {
		case iok && jok:
			return ti.Before(tj)
		case iok:
			return true
		default:
			return false
		}
	})
}

// Result holds the six disjoint bucket datasets of one run.
type Result struct {
	columns []string
	sets    map[Bucket]*dataset.Dataset
	total   int
}

// Get returns the dataset for b. Unknown buckets yield nil.
func (r *Result) Get(b Bucket) *dataset.Dataset {
	return r.sets[b]
}

// Counts returns the row count per bucket.
func (r *Result) Counts() map[Bucket]int {
	out := make(map[Bucket]int, len(r.sets))
	for b, ds := range r.sets {
		out[b] = ds.Len()
	}
	return out
}

// Total is the number of rows partitioned.
func (r *Result) Total() int { return r.total }

// Columns returns the source column order shared by every bucket.
func (r *Result) Columns() []string {
	return append([]string(nil), r.columns...)
}

// BucketOf returns the bucket holding the row with the given source index.
func (r *Result) BucketOf(index int) (Bucket, bool) {
	for _, b := range buckets {
		if _, ok := r.sets[b].Row(index); ok {
			return b, true
		}
	}
	return "", false
}
