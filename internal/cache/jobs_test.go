package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memKV mimics Cache with JSON round trips so stored values are copies.
type memKV struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string, dest interface{}) error {
	b, ok := m.data[key]
	if !ok {
		return fmt.Errorf("cache get %s: %w", key, ErrMiss)
	}
	return json.Unmarshal(b, dest)
}

func (m *memKV) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.ttls[key] = ttl
	return nil
}

func TestJobStore_Lifecycle(t *testing.T) {
	kv := newMemKV()
	store := NewJobStore(kv, 0)
	tick := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { tick = tick.Add(time.Second); return tick }
	ctx := context.Background()

	job, err := store.Create(ctx, "j1", "https://b.s3.amazonaws.com/a.m4a")
	require.NoError(t, err)
	assert.Equal(t, JobPending, job.Status)
	assert.Equal(t, DefaultJobTTL, kv.ttls["audiobrief:job:j1"])

	require.NoError(t, store.MarkProcessing(ctx, "j1"))
	got, err := store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, JobProcessing, got.Status)

	require.NoError(t, store.Complete(ctx, "j1", "NOTES\n- a", "a"))
	got, err = store.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, got.Status)
	assert.Equal(t, "NOTES\n- a", got.Summary)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestJobStore_Fail(t *testing.T) {
	store := NewJobStore(newMemKV(), time.Hour)
	ctx := context.Background()

	_, err := store.Create(ctx, "j2", "u")
	require.NoError(t, err)
	require.NoError(t, store.Fail(ctx, "j2", "fetch", errors.New("remote fetch failed")))

	got, err := store.Get(ctx, "j2")
	require.NoError(t, err)
	assert.Equal(t, JobFailed, got.Status)
	assert.Equal(t, "fetch", got.Stage)
	assert.Equal(t, "remote fetch failed", got.Error)
}

func TestJobStore_Missing(t *testing.T) {
	store := NewJobStore(newMemKV(), time.Hour)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMiss)
	assert.ErrorIs(t, store.MarkProcessing(context.Background(), "nope"), ErrMiss)
}
