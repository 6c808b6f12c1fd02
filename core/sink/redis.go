package sink

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/gaurav-prasanna/radiopipe/core"
)

// RedisOptions configures a RedisStream.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	// MaxLen caps the stream approximately; 0 leaves it unbounded.
	MaxLen int64
}

// RedisStream publishes every match to a Redis stream for downstream
// consumers such as a recorder or a notifier.
type RedisStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStream connects to Redis and verifies the connection.
func NewRedisStream(ctx context.Context, opts RedisOptions) (*RedisStream, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	stream := opts.Stream
	if stream == "" {
		stream = "radiopipe:matches"
	}
	return &RedisStream{client: client, stream: stream, maxLen: opts.MaxLen}, nil
}

// Put appends m to the stream.
func (r *RedisStream) Put(ctx context.Context, m core.Match) error {
	doc, err := json.Marshal(m.Program)
	if err != nil {
		return fmt.Errorf("encoding program: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"artist":       m.Artist,
			"station_id":   m.Program.Station.ID,
			"program_id":   strconv.FormatUint(m.Program.ID, 10),
			"deep_link":    m.Program.DeepLink(),
			"timefree_url": m.Program.TimeFreeURL(),
			"document":     string(doc),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publishing match to %s: %w", r.stream, err)
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisStream) Close() error {
	return r.client.Close()
}
