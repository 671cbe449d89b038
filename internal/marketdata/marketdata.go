// Package marketdata reads the newest real-time market snapshot that an
// upstream collector publishes to Redis. It is optional input to the
// research prompt; every failure here is non-fatal to a run.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DefaultStream = "market_data_stream"
	DefaultKey    = "latest_market_data"
)

// Entry is one market snapshot.
type Entry struct {
	ID     string
	Fields map[string]any
}

// JSON renders the entry as an indented JSON blob for prompt injection.
func (e *Entry) JSON() string {
	if e == nil {
		return ""
	}
	b, err := json.MarshalIndent(e.Fields, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// Source yields the latest snapshot, or nil when none is available.
type Source interface {
	ReadLatest(ctx context.Context) (*Entry, error)
}

// redisReader is the subset of *redis.Client used here.
type redisReader interface {
	XRevRangeN(ctx context.Context, stream, start, stop string, count int64) *redis.XMessageSliceCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisSource reads the newest stream entry and falls back to a plain key.
type RedisSource struct {
	client  redisReader
	Stream  string
	Key     string
	Retries int
	Delay   time.Duration
}

// NewRedisSource wraps an existing client with the default stream and key.
func NewRedisSource(client redisReader) *RedisSource {
	return &RedisSource{
		client:  client,
		Stream:  DefaultStream,
		Key:     DefaultKey,
		Retries: 3,
		Delay:   2 * time.Second,
	}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}

// ReadLatest implements Source.
func (s *RedisSource) ReadLatest(ctx context.Context) (*Entry, error) {
	attempts := s.Retries
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 && s.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.Delay):
			}
		}
		e, err := s.readOnce(ctx)
		if err == nil {
			return e, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", i+1).Msg("market data read failed")
	}
	return nil, lastErr
}

func (s *RedisSource) readOnce(ctx context.Context) (*Entry, error) {
	msgs, err := s.client.XRevRangeN(ctx, s.Stream, "+", "-", 1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reading stream %s: %w", s.Stream, err)
	}
	if len(msgs) > 0 {
		return fromStream(msgs[0]), nil
	}

	raw, err := s.client.Get(ctx, s.Key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading key %s: %w", s.Key, err)
	}
	return fromKey(raw)
}

func fromStream(msg redis.XMessage) *Entry {
	fields := make(map[string]any, len(msg.Values)+2)
	for k, v := range msg.Values {
		fields[k] = decodeValue(fmt.Sprint(v))
	}
	fields["data_source"] = "redis_stream"
	fields["stream_entry_id"] = msg.ID
	return &Entry{ID: msg.ID, Fields: fields}
}

// decodeValue parses nested JSON and numbers, keeping anything else as text.
func decodeValue(s string) any {
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
		return s
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

// keyAliases maps canonical field names to the names older collectors used.
var keyAliases = []struct {
	field string
	keys  []string
}{
	{"btc_price", []string{"btc_price", "btc_price_usd", "btc", "bitcoin"}},
	{"btc_change_24h", []string{"btc_change_24h", "btc_24h_change", "bitcoin_change_24h"}},
	{"btc_rsi_14", []string{"btc_rsi_14", "rsi_14", "btc_rsi", "rsi"}},
	{"eth_price", []string{"eth_price", "eth_price_usd", "eth", "ethereum"}},
	{"eth_change_24h", []string{"eth_change_24h", "eth_24h_change", "ethereum_change_24h"}},
	{"sol_price", []string{"sol_price", "sol_price_usd", "sol", "solana"}},
	{"sol_change_24h", []string{"sol_change_24h", "sol_24h_change", "solana_change_24h"}},
	{"xrp_price", []string{"xrp_price", "xrp_price_usd", "xrp"}},
	{"xrp_change_24h", []string{"xrp_change_24h", "xrp_24h_change"}},
	{"ada_price", []string{"ada_price", "ada_price_usd", "ada", "cardano"}},
	{"ada_change_24h", []string{"ada_change_24h", "ada_24h_change", "cardano_change_24h"}},
	{"link_price", []string{"link_price", "link_price_usd", "link", "chainlink"}},
	{"link_change_24h", []string{"link_change_24h", "link_24h_change", "chainlink_change_24h"}},
	{"bnb_price", []string{"bnb_price", "bnb_price_usd", "bnb", "binance_coin"}},
	{"bnb_change_24h", []string{"bnb_change_24h", "bnb_24h_change"}},
	{"market_cap", []string{"market_cap", "market_cap_usd", "total_market_cap"}},
	{"volume_24h", []string{"volume_24h", "volume_24h_usd", "total_volume_24h"}},
	{"market_cap_change_24h", []string{"market_cap_change_percentage_24h_usd", "market_cap_change_24h", "total_market_cap_change_24h"}},
	{"btc_dominance", []string{"btc_dominance", "btc_market_cap_percentage", "bitcoin_dominance"}},
	{"eth_dominance", []string{"eth_dominance", "eth_market_cap_percentage", "ethereum_dominance"}},
	{"fear_greed_index", []string{"fear_greed_index", "fng_value", "fear_and_greed_index"}},
	{"timestamp", []string{"timestamp", "last_updated", "updated_at"}},
	{"source", []string{"source", "data_source", "normalized_by"}},
}

func fromKey(raw string) (*Entry, error) {
	var full map[string]any
	if err := json.Unmarshal([]byte(raw), &full); err != nil {
		return nil, fmt.Errorf("decoding cached market data: %w", err)
	}
	fields := make(map[string]any)
	for _, a := range keyAliases {
		for _, k := range a.keys {
			if v, ok := full[k]; ok {
				fields[a.field] = v
				break
			}
		}
	}
	for _, k := range []string{"data_sources", "partial_failure"} {
		if v, ok := full[k]; ok {
			fields[k] = v
		}
	}
	fields["data_source"] = "redis_key"
	return &Entry{Fields: fields}, nil
}

// Static is a fixed Source, handy for CLI dry runs and tests.
type Static struct {
	Entry *Entry
	Err   error
}

func (s Static) ReadLatest(context.Context) (*Entry, error) {
	return s.Entry, s.Err
}
