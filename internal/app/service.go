// Package service provides the application service behind the HTTP API and
// the CLI: it loads spreadsheets into sessions and runs the engine on them.
package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/onbscore/internal/adapters/ingest"
	"github.com/okian/onbscore/internal/adapters/repository"
	"github.com/okian/onbscore/internal/domain/access"
	"github.com/okian/onbscore/internal/domain/category"
	"github.com/okian/onbscore/internal/domain/columns"
	"github.com/okian/onbscore/internal/domain/scoring"
	"github.com/okian/onbscore/pkg/logger"
	"github.com/okian/onbscore/pkg/metrics"
)

// Defaults applied by New.
const (
	DefaultMaxUploadBytes = 20 << 20
	DefaultSessionTTL     = repository.DefaultTTL
)

// Upload describes a freshly stored session.
type Upload struct {
	SessionID string
	FileName  string
	Format    string
	Rows      int
	BlankRows int
	Columns   []string
	Resolved  map[columns.Key]string
	ExpiresAt time.Time
}

// Service owns the session store and the engine pipeline.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	pipeline *Pipeline

	// Configuration
	maxRows        int
	maxUploadBytes int64
	sessionTTL     time.Duration
	sortWaiting    bool
	starterPlans   []string
	now            func() time.Time

	// State
	started bool
	opened  int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the session store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMaxRows caps the data rows of an upload.
func WithMaxRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// WithMaxUploadBytes caps the size of an upload.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithSessionTTL sets the lifetime of the default in-memory store's sessions.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithWaitingByTechnicalStart orders the waiting bucket by technical start date.
func WithWaitingByTechnicalStart(enabled bool) Option {
	return func(s *Service) {
		s.sortWaiting = enabled
	}
}

// WithStarterPlans overrides the plans that exclude gated criteria.
func WithStarterPlans(plans ...string) Option {
	return func(s *Service) {
		if len(plans) > 0 {
			s.starterPlans = plans
		}
	}
}

// WithClock replaces time.Now for deadlines and the default store.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxRows:        ingest.DefaultMaxRows,
		maxUploadBytes: DefaultMaxUploadBytes,
		sessionTTL:     DefaultSessionTTL,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the pipeline and, unless one was given, an in-memory store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore(
			repository.WithTTL(s.sessionTTL),
			repository.WithClock(s.now),
		)
		s.logger.Info(ctx, "using in-memory session store")
	}

	var scorerOpts []scoring.Option
	if len(s.starterPlans) > 0 {
		scorerOpts = append(scorerOpts, scoring.WithStarterPlans(s.starterPlans...))
	}
	s.pipeline = NewPipeline(
		category.New(category.WithWaitingByTechnicalStart(s.sortWaiting)),
		scoring.New(scorerOpts...),
		s.logger.Named("pipeline"),
	)

	s.started = true
	s.logger.Info(ctx, "onboarding service started",
		logger.Int("maxRows", s.maxRows),
		logger.Int("maxUploadBytes", int(s.maxUploadBytes)),
		logger.Bool("sortWaiting", s.sortWaiting),
	)
	return nil
}

// Stop closes the session store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing session store", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "onboarding service stopped")
}

func (s *Service) ready() (*Pipeline, repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.pipeline, s.store, nil
}

// Open reads an upload and stores it as a new session owned by id. Fatal
// input errors abort the upload and nothing is stored.
func (s *Service) Open(ctx context.Context, id access.Identity, name string, r io.Reader) (*Upload, error) {
	p, store, err := s.ready()
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxUploadBytes {
		metrics.RecordLoadFailure("too_large")
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, s.maxUploadBytes)
	}

	start := time.Now()
	res, err := ingest.ReadBytes(ctx, name, data, ingest.WithMaxRows(s.maxRows))
	metrics.RecordPipelineLatency("ingest", since(start))
	if err != nil {
		metrics.RecordLoadFailure(failureReason(err))
		s.logger.Warn(ctx, "upload rejected",
			logger.String("file", name),
			logger.String("viewer", id.Email),
			logger.Error(err),
		)
		return nil, err
	}

	m, err := p.Resolve(ctx, res.Dataset)
	if err != nil {
		return nil, err
	}

	sess := &repository.Session{
		ID:       uuid.NewString(),
		Owner:    id.Email,
		FileName: name,
		Format:   string(res.Format),
		Dataset:  res.Dataset,
	}
	if err := store.Put(ctx, sess); err != nil {
		return nil, err
	}
	metrics.RecordDatasetLoaded(string(res.Format), res.Dataset.Len())

	s.mu.Lock()
	s.opened++
	s.mu.Unlock()

	s.logger.Info(ctx, "session opened",
		logger.String("session", sess.ID),
		logger.String("file", name),
		logger.String("viewer", id.Email),
		logger.Int("rows", res.Dataset.Len()),
		logger.Int("blankRows", res.BlankRows),
	)

	return &Upload{
		SessionID: sess.ID,
		FileName:  name,
		Format:    sess.Format,
		Rows:      res.Dataset.Len(),
		BlankRows: res.BlankRows,
		Columns:   res.Dataset.Columns(),
		Resolved:  m.Resolved(),
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// session loads a session visible to id. Sessions of other viewers are
// reported as not found.
func (s *Service) session(ctx context.Context, id access.Identity, sessionID string) (*Pipeline, *repository.Session, error) {
	p, store, err := s.ready()
	if err != nil {
		return nil, nil, err
	}
	sess, err := store.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess.Owner != id.Email {
		return nil, nil, repository.ErrNotFound
	}
	return p, sess, nil
}

// Buckets categorizes the session's rows visible to id. member is the
// leader's selection, see access.Resolve.
func (s *Service) Buckets(ctx context.Context, id access.Identity, sessionID, member string) (*View, error) {
	p, sess, err := s.session(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, sess.Dataset, id, member)
}

// Lookup returns the scoring report and deadline of one row.
func (s *Service) Lookup(ctx context.Context, id access.Identity, sessionID, member string, row int) (Lookup, error) {
	p, sess, err := s.session(ctx, id, sessionID)
	if err != nil {
		return Lookup{}, err
	}
	return p.Lookup(ctx, sess.Dataset, id, member, row, s.now())
}

// Close drops a session.
func (s *Service) Close(ctx context.Context, id access.Identity, sessionID string) error {
	_, store, err := s.ready()
	if err != nil {
		return err
	}
	if _, _, err := s.session(ctx, id, sessionID); err != nil {
		return err
	}
	if err := store.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info(ctx, "session closed", logger.String("session", sessionID))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"maxRows":        s.maxRows,
		"maxUploadBytes": s.maxUploadBytes,
		"sessionTTL":     s.sessionTTL.String(),
		"sortWaiting":    s.sortWaiting,
		"starterPlans":   s.starterPlans,
		"sessionsOpened": s.opened,
	}
	if s.started {
		stats["activeSessions"] = s.store.Count(context.Background())
	}
	return stats
}
