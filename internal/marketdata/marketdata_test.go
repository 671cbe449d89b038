package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	msgs      []redis.XMessage
	streamErr error
	value     string
	keyErr    error
	calls     int
}

func (f *fakeRedis) XRevRangeN(_ context.Context, _, _, _ string, _ int64) *redis.XMessageSliceCmd {
	f.calls++
	return redis.NewXMessageSliceCmdResult(f.msgs, f.streamErr)
}

func (f *fakeRedis) Get(_ context.Context, _ string) *redis.StringCmd {
	return redis.NewStringResult(f.value, f.keyErr)
}

func newSource(f *fakeRedis) *RedisSource {
	s := NewRedisSource(f)
	s.Delay = 0
	return s
}

func TestReadLatest_Stream(t *testing.T) {
	f := &fakeRedis{msgs: []redis.XMessage{{
		ID: "1700000000000-0",
		Values: map[string]interface{}{
			"btc_price_usd":    "67000.5",
			"fng_value":        "72",
			"us_stock_indices": `{"spx":5000}`,
			"note":             "steady",
		},
	}}}

	e, err := newSource(f).ReadLatest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "1700000000000-0", e.ID)
	assert.Equal(t, 67000.5, e.Fields["btc_price_usd"])
	assert.Equal(t, int64(72), e.Fields["fng_value"])
	assert.Equal(t, map[string]any{"spx": float64(5000)}, e.Fields["us_stock_indices"])
	assert.Equal(t, "steady", e.Fields["note"])
	assert.Equal(t, "redis_stream", e.Fields["data_source"])
	assert.Equal(t, "1700000000000-0", e.Fields["stream_entry_id"])
}

func TestReadLatest_FallbackKey(t *testing.T) {
	f := &fakeRedis{value: `{"btc_price_usd": 65000, "fng_value": 40, "data_sources": ["a"], "junk": 1}`}

	e, err := newSource(f).ReadLatest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, float64(65000), e.Fields["btc_price"])
	assert.Equal(t, float64(40), e.Fields["fear_greed_index"])
	assert.Equal(t, []any{"a"}, e.Fields["data_sources"])
	assert.Equal(t, "redis_key", e.Fields["data_source"])
	assert.NotContains(t, e.Fields, "junk")
}

func TestReadLatest_NothingAvailable(t *testing.T) {
	f := &fakeRedis{keyErr: redis.Nil}
	e, err := newSource(f).ReadLatest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.Equal(t, "", e.JSON())
}

func TestReadLatest_RetriesThenFails(t *testing.T) {
	f := &fakeRedis{streamErr: errors.New("connection refused")}
	_, err := newSource(f).ReadLatest(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, f.calls)
}

func TestEntryJSON(t *testing.T) {
	e := &Entry{Fields: map[string]any{"btc_price": 1.5}}
	var back map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.JSON()), &back))
	assert.Equal(t, 1.5, back["btc_price"])
}

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"12", int64(12)},
		{"1.25", 1.25},
		{"1.2.3", "1.2.3"},
		{"[1,2]", []any{float64(1), float64(2)}},
		{"{broken", "{broken"},
		{"abc", "abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, decodeValue(tt.in), tt.in)
	}
}
