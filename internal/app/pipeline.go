package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/onbscore/internal/domain/access"
	"github.com/okian/onbscore/internal/domain/category"
	"github.com/okian/onbscore/internal/domain/columns"
	"github.com/okian/onbscore/internal/domain/dataset"
	"github.com/okian/onbscore/internal/domain/scoring"
	"github.com/okian/onbscore/internal/domain/timeline"
	"github.com/okian/onbscore/pkg/logger"
	"github.com/okian/onbscore/pkg/metrics"
)

// View is the outcome of one pipeline run: the viewer's scope and the
// categorized rows inside it.
type View struct {
	Scope   access.Scope
	Columns columns.Map
	Rows    *dataset.Dataset
	Result  *category.Result
}

// Lookup is a single-row answer. Found is false when the row does not exist
// or is outside the viewer's scope.
type Lookup struct {
	Found    bool
	Row      int
	Bucket   category.Bucket
	Report   scoring.Report
	Deadline timeline.Remaining
}

// Pipeline runs resolve -> scope -> categorize. It keeps no per-run state.
type Pipeline struct {
	categorizer *category.Categorizer
	scorer      scoring.Scorer
	logger      logger.Logger
}

// NewPipeline wires the engine components.
func NewPipeline(c *category.Categorizer, s scoring.Scorer, log logger.Logger) *Pipeline {
	if c == nil {
		c = category.New()
	}
	if s == nil {
		s = scoring.New()
	}
	if log == nil {
		log = logger.Named("pipeline")
	}
	return &Pipeline{categorizer: c, scorer: s, logger: log}
}

func since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// Resolve maps the dataset's headers onto the catalog.
func (p *Pipeline) Resolve(ctx context.Context, ds *dataset.Dataset) (columns.Map, error) {
	start := time.Now()
	m, err := columns.Resolve(ds.Columns())
	metrics.RecordPipelineLatency("resolve", since(start))
	if err != nil {
		var missing *columns.MissingColumnsError
		if errors.As(err, &missing) {
			p.logger.Warn(ctx, "required columns missing",
				logger.Strings("missing", missing.MissingNames()),
				logger.Strings("found", missing.Found),
			)
		}
		metrics.RecordLoadFailure("missing_columns")
		return m, err
	}
	return m, nil
}

// Run scopes ds to the viewer and partitions the visible rows.
func (p *Pipeline) Run(ctx context.Context, ds *dataset.Dataset, id access.Identity, member string) (*View, error) {
	m, err := p.Resolve(ctx, ds)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, ds, m, id, member)
}

func (p *Pipeline) run(ctx context.Context, ds *dataset.Dataset, m columns.Map, id access.Identity, member string) (*View, error) {
	start := time.Now()
	visible, scope, err := access.Filter(ds, m, id, member)
	metrics.RecordPipelineLatency("scope", since(start))
	if err != nil {
		return nil, err
	}
	if scope.Unscoped {
		p.logger.Warn(ctx, "owner column missing, showing all rows",
			logger.String("viewer", id.Email),
		)
	}

	start = time.Now()
	res, err := p.categorizer.Categorize(visible, m)
	metrics.RecordPipelineLatency("categorize", since(start))
	if err != nil {
		return nil, err
	}

	counts := res.Counts()
	fields := []logger.Field{
		logger.String("viewer", id.Email),
		logger.String("owner", scope.Owner),
		logger.Int("rows", res.Total()),
	}
	for _, b := range category.Buckets() {
		metrics.RecordRowsCategorized(string(b), counts[b])
		fields = append(fields, logger.Int(string(b), counts[b]))
	}
	p.logger.Debug(ctx, "categorized", fields...)

	return &View{Scope: scope, Columns: m, Rows: visible, Result: res}, nil
}

// Lookup scores and dates the row with source index row inside the viewer's scope.
func (p *Pipeline) Lookup(ctx context.Context, ds *dataset.Dataset, id access.Identity, member string, row int, today time.Time) (Lookup, error) {
	view, err := p.Run(ctx, ds, id, member)
	if err != nil {
		return Lookup{}, err
	}
	r, ok := view.Rows.Row(row)
	if !ok {
		return Lookup{Row: row}, nil
	}
	rec := view.Columns.Record(r)
	bucket, _ := view.Result.BucketOf(row)
	return Lookup{
		Found:    true,
		Row:      row,
		Bucket:   bucket,
		Report:   p.Score(rec),
		Deadline: timeline.RemainingDays(rec.Date(columns.Deadline), today),
	}, nil
}

// Score produces the gap analysis of one record.
func (p *Pipeline) Score(rec columns.Record) scoring.Report {
	start := time.Now()
	rep := p.scorer.Score(rec)
	metrics.RecordPipelineLatency("score", since(start))
	metrics.RecordScoringReport(rep.HasTally, rep.Drift)
	return rep
}
