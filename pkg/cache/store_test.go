package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore captures the TTLs the adapter passes through.
type recordingStore struct {
	*MemoryStore
	name    string
	lastTTL time.Duration
	failGet error
	failSet error
}

func newRecordingStore(name string) *recordingStore {
	return &recordingStore{MemoryStore: NewMemoryStore(), name: name}
}

func (s *recordingStore) Name() string { return s.name }

func (s *recordingStore) Get(ctx context.Context, key string) (Document, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *recordingStore) Set(ctx context.Context, key string, value Document, ttl time.Duration) error {
	if s.failSet != nil {
		return s.failSet
	}
	s.lastTTL = ttl
	return s.MemoryStore.Set(ctx, key, value, ttl)
}

func TestNewAdapter(t *testing.T) {
	a := NewAdapter(NewMemoryStore(), 0)
	assert.Equal(t, DefaultTTL, a.TTL())
	assert.Equal(t, 24*time.Hour, a.TTL())

	a = NewAdapter(NewMemoryStore(), time.Hour)
	assert.Equal(t, time.Hour, a.TTL())
}

func TestNewAdapter_Panic(t *testing.T) {
	assert.Panics(t, func() { NewAdapter(nil, 0) })
}

func TestAdapter_DefaultTTL(t *testing.T) {
	store := newRecordingStore("adapter-ttl")
	a := NewAdapter(store, 0)
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "k", sampleDocument()))
	assert.Equal(t, DefaultTTL, store.lastTTL)

	require.NoError(t, a.SetWithTTL(ctx, "k", sampleDocument(), 5*time.Minute))
	assert.Equal(t, 5*time.Minute, store.lastTTL)

	require.NoError(t, a.SetWithTTL(ctx, "k", sampleDocument(), -1))
	assert.Equal(t, DefaultTTL, store.lastTTL)
}

func TestAdapter_Metrics(t *testing.T) {
	store := newRecordingStore("adapter-metrics")
	a := NewAdapter(store, time.Hour)
	ctx := context.Background()

	_, err := a.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 1.0, testutil.ToFloat64(CacheMisses.WithLabelValues("adapter-metrics")))

	require.NoError(t, a.Set(ctx, "k", sampleDocument()))
	assert.Equal(t, 1.0, testutil.ToFloat64(CacheWrites.WithLabelValues("adapter-metrics")))

	_, err = a.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(CacheHits.WithLabelValues("adapter-metrics")))

	store.failGet = errors.New("backend down")
	_, err = a.Get(ctx, "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 1.0, testutil.ToFloat64(CacheErrors.WithLabelValues("adapter-metrics", "get")))

	store.failSet = errors.New("backend down")
	assert.Error(t, a.Set(ctx, "k", sampleDocument()))
	assert.Equal(t, 1.0, testutil.ToFloat64(CacheErrors.WithLabelValues("adapter-metrics", "set")))
}

func TestAdapter_SetNil(t *testing.T) {
	a := NewAdapter(NewMemoryStore(), 0)
	assert.Error(t, a.Set(context.Background(), "k", nil))
}

func TestAdapter_Clear(t *testing.T) {
	store := NewMemoryStore()
	a := NewAdapter(store, 0)
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "a", sampleDocument()))
	require.NoError(t, a.Set(ctx, "b", sampleDocument()))
	require.NoError(t, a.Delete(ctx, "a"))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, a.Clear(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_IsolatesValues(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	doc := sampleDocument()
	require.NoError(t, store.Set(ctx, "k", doc, time.Hour))
	doc["eur"] = json.RawMessage(`{"usd":0}`)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"usd":1.08854773}`, string(got["eur"]))
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", sampleDocument(), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, store.Len())
}

func TestDecodeDocument(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "rate object", body: `{"date":"2024-03-06","eur":{"usd":1.08854773}}`},
		{name: "currency list", body: `{"eur":"Euro","usd":"US Dollar"}`},
		{name: "leading whitespace", body: "\n  {\"a\":1}"},
		{name: "empty object", body: `{}`},
		{name: "array", body: `[1,2,3]`, wantErr: true},
		{name: "number", body: `42`, wantErr: true},
		{name: "string", body: `"hello"`, wantErr: true},
		{name: "null", body: `null`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
		{name: "truncated", body: `{"eur":{"usd":1.0`, wantErr: true},
		{name: "html error page", body: `<html>Not Found</html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeDocument([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, doc)
		})
	}
}
