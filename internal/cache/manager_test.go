package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/clinicalnotes/reportrepair/config"
)

type countingRecorder struct {
	hits, misses map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{hits: map[string]int{}, misses: map[string]int{}}
}

func (r *countingRecorder) RecordCacheHit(t string)  { r.hits[t]++ }
func (r *countingRecorder) RecordCacheMiss(t string) { r.misses[t]++ }

func setupManager(t *testing.T, opts ...Option) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	m, err := NewManager(context.Background(), config.RedisConfig{Addr: mr.Addr(), PoolSize: 2}, zaptest.NewLogger(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, mr
}

func TestNewManager_Unreachable(t *testing.T) {
	_, err := NewManager(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestManager_GetSet(t *testing.T) {
	rec := newCountingRecorder()
	m, mr := setupManager(t, WithKeyPrefix("rr:"), WithRecorder(rec))
	ctx := context.Background()

	_, err := m.Get(ctx, "rxnorm", "aspirin")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, m.Set(ctx, "aspirin", "1191", time.Minute))
	assert.True(t, mr.Exists("rr:aspirin"))

	val, err := m.Get(ctx, "rxnorm", "aspirin")
	require.NoError(t, err)
	assert.Equal(t, "1191", val)

	assert.Equal(t, 1, rec.hits["rxnorm"])
	assert.Equal(t, 1, rec.misses["rxnorm"])
}

func TestManager_DefaultTTL(t *testing.T) {
	m, mr := setupManager(t, WithDefaultTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	assert.Equal(t, time.Hour, mr.TTL("k"))

	mr.FastForward(2 * time.Hour)
	_, err := m.Get(ctx, "x", "k")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_JSON(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	type entry struct {
		Name       string  `json:"name"`
		Ingredient *string `json:"ingredient"`
	}
	ing := "acetylsalicylic acid"
	require.NoError(t, m.SetJSON(ctx, "e", entry{Name: "aspirin", Ingredient: &ing}, 0))

	var got entry
	require.NoError(t, m.GetJSON(ctx, "x", "e", &got))
	assert.Equal(t, "aspirin", got.Name)
	require.NotNil(t, got.Ingredient)
	assert.Equal(t, ing, *got.Ingredient)

	require.NoError(t, m.Set(ctx, "bad", "{", 0))
	assert.Error(t, m.GetJSON(ctx, "x", "bad", &got))
}

func TestManager_Delete(t *testing.T) {
	m, mr := setupManager(t, WithKeyPrefix("p:"))
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1", 0))
	require.NoError(t, m.Set(ctx, "b", "2", 0))
	require.NoError(t, m.Delete(ctx, "a", "b"))
	require.NoError(t, m.Delete(ctx))
	assert.False(t, mr.Exists("p:a"))
	assert.False(t, mr.Exists("p:b"))
}

func TestManager_Closed(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	require.NoError(t, m.Ping(ctx))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.Get(ctx, "x", "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Set(ctx, "k", "v", 0), ErrClosed)
	assert.ErrorIs(t, m.Delete(ctx, "k"), ErrClosed)
	assert.ErrorIs(t, m.Ping(ctx), ErrClosed)
}

func TestManager_RedisDown(t *testing.T) {
	m, mr := setupManager(t)
	mr.Close()

	_, err := m.Get(context.Background(), "x", "k")
	require.Error(t, err)
	assert.False(t, IsCacheMiss(err))
}
