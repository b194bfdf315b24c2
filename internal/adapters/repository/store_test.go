package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/onbscore/internal/adapters/repository"
	"github.com/okian/onbscore/internal/domain/dataset"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sampleDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(
		[]string{"lifecycle_stage", "cs_client_stage", "onb grade", "bookable_hours", "onb deadline"},
		[][]dataset.Value{
			{dataset.Text("Farming"), dataset.Text("Waiting"), dataset.Text("A"), dataset.Number(61.5), dataset.Date(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))},
			{dataset.Empty(), dataset.Text("After First Call"), dataset.Text("B")},
		},
	)
	require.NoError(t, err)
	return ds
}

// storeContract runs the behavior every Store must share.
func storeContract(t *testing.T, store repository.Store, expire func(time.Duration)) {
	ctx := context.Background()
	ds := sampleDataset(t)

	sess := &repository.Session{ID: "s-1", Owner: "ana@example.com", FileName: "q1.xlsx", Format: "xlsx", Dataset: ds}
	require.NoError(t, store.Put(ctx, sess))
	assert.False(t, sess.ExpiresAt.IsZero())
	assert.Equal(t, 1, store.Count(ctx))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Owner)
	assert.Equal(t, "q1.xlsx", got.FileName)
	assert.Equal(t, ds.Columns(), got.Dataset.Columns())
	require.Equal(t, ds.Len(), got.Dataset.Len())
	for i, r := range got.Dataset.Rows() {
		assert.Equal(t, ds.Rows()[i].Cells(), r.Cells())
	}

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, store.Put(ctx, &repository.Session{ID: "no-data"}), repository.ErrInvalidSession)

	require.NoError(t, store.Delete(ctx, "s-1"))
	assert.ErrorIs(t, store.Delete(ctx, "s-1"), repository.ErrNotFound)
	assert.Equal(t, 0, store.Count(ctx))

	require.NoError(t, store.Put(ctx, &repository.Session{ID: "s-2", Dataset: ds}))
	expire(3 * time.Hour)
	_, err = store.Get(ctx, "s-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 0, store.Count(ctx))
}

func TestMemoryStore(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := repository.NewMemoryStore(repository.WithTTL(2*time.Hour), repository.WithClock(clock.Now))
	defer func() { _ = store.Close() }()

	storeContract(t, store, clock.Advance)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	ds := sampleDataset(t)

	sess := &repository.Session{ID: "s-1", Owner: "ana@example.com", Dataset: ds}
	require.NoError(t, store.Put(ctx, sess))
	sess.Owner = "changed@example.com"

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Owner)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	ds := sampleDataset(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "s-" + string(rune('a'+i))
			assert.NoError(t, store.Put(ctx, &repository.Session{ID: id, Dataset: ds}))
			_, err := store.Get(ctx, id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, store.Count(ctx))
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := repository.NewRedisStore(client, repository.WithTTL(2*time.Hour))
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Ping(context.Background()))
	storeContract(t, store, mr.FastForward)
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := repository.NewRedisStore(client, repository.WithKeyPrefix("test:"))
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &repository.Session{ID: "abc", Dataset: sampleDataset(t)}))
	assert.True(t, mr.Exists("test:abc"))
	assert.Greater(t, mr.TTL("test:abc"), time.Duration(0))

	// unrelated keys are not counted
	require.NoError(t, mr.Set("other:key", "x"))
	assert.Equal(t, 1, store.Count(ctx))

	require.NoError(t, mr.Set("test:broken", "{not json"))
	_, err = store.Get(ctx, "broken")
	assert.ErrorIs(t, err, repository.ErrCorruptSession)
}
