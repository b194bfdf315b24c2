package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/onbscore/internal/domain/dataset"
	"github.com/okian/onbscore/pkg/metrics"
)

const redisBackend = "redis"

// RedisStore keeps sessions in redis under a key prefix, relying on key
// expiry for the TTL. The store owns the client and closes it on Close.
type RedisStore struct {
	client *redis.Client
	opts   options
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps client.
func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisStore{client: client, opts: o}
}

func (s *RedisStore) key(id string) string { return s.opts.keyPrefix + id }

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	defer observe(redisBackend, "put", time.Now())
	if err := sess.validate(); err != nil {
		return err
	}
	now := s.opts.now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = now.Add(s.opts.ttl)
	}
	ttl := sess.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return fmt.Errorf("%w: already expired", ErrInvalidSession)
	}

	payload, err := json.Marshal(toRecord(sess))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), payload, ttl).Err(); err != nil {
		metrics.RecordErrorByComponent("repository", "redis_set")
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	defer observe(redisBackend, "get", time.Now())
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.RecordErrorByComponent("repository", "redis_get")
		return nil, fmt.Errorf("load session: %w", err)
	}
	var rec sessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	sess, err := rec.toSession()
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.opts.now()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	defer observe(redisBackend, "delete", time.Now())
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		metrics.RecordErrorByComponent("repository", "redis_del")
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count implements Store by scanning the key prefix.
func (s *RedisStore) Count(ctx context.Context) int {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.opts.keyPrefix+"*", scanBatch).Result()
		if err != nil {
			metrics.RecordErrorByComponent("repository", "redis_scan")
			return total
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	metrics.UpdateActiveSessions(total)
	return total
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// sessionRecord is the JSON form of a session.
type sessionRecord struct {
	ID        string         `json:"id"`
	Owner     string         `json:"owner"`
	FileName  string         `json:"file_name"`
	Format    string         `json:"format"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	Columns   []string       `json:"columns"`
	Rows      [][]cellRecord `json:"rows"`
}

type cellRecord struct {
	Kind dataset.Kind `json:"k"`
	Text string       `json:"s,omitempty"`
	Num  float64      `json:"n,omitempty"`
	Date *time.Time   `json:"d,omitempty"`
}

func toRecord(s *Session) sessionRecord {
	rows := s.Dataset.Rows()
	rec := sessionRecord{
		ID:        s.ID,
		Owner:     s.Owner,
		FileName:  s.FileName,
		Format:    s.Format,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		Columns:   s.Dataset.Columns(),
		Rows:      make([][]cellRecord, len(rows)),
	}
	for i, r := range rows {
		cells := r.Cells()
		out := make([]cellRecord, len(cells))
		for j, v := range cells {
			c := cellRecord{Kind: v.Kind()}
			switch v.Kind() {
			case dataset.KindText:
				c.Text = v.String()
			case dataset.KindNumber:
				c.Num, _ = v.Float()
			case dataset.KindDate:
				t, _ := v.Time()
				c.Date = &t
			}
			out[j] = c
		}
		rec.Rows[i] = out
	}
	return rec
}

func (r sessionRecord) toSession() (*Session, error) {
	records := make([][]dataset.Value, len(r.Rows))
	for i, row := range r.Rows {
		values := make([]dataset.Value, len(row))
		for j, c := range row {
			switch c.Kind {
			case dataset.KindText:
				values[j] = dataset.Text(c.Text)
			case dataset.KindNumber:
				values[j] = dataset.Number(c.Num)
			case dataset.KindDate:
				if c.Date != nil {
					values[j] = dataset.Date(*c.Date)
				}
			}
		}
		records[i] = values
	}
	ds, err := dataset.New(r.Columns, records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	return &Session{
		ID:        r.ID,
		Owner:     r.Owner,
		FileName:  r.FileName,
		Format:    r.Format,
		Dataset:   ds,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}, nil
}
