package routesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vyrodovalexey/gwcore/internal/config"
	"github.com/vyrodovalexey/gwcore/internal/observability"
	"github.com/vyrodovalexey/gwcore/internal/route"
	"github.com/vyrodovalexey/gwcore/internal/routedef"
)

const defaultRedisDialTimeout = 5 * time.Second

// RedisSource loads route definitions stored as JSON values in a Redis
// hash keyed by route id.
type RedisSource struct {
	client  redis.UniversalClient
	key     string
	builder *routedef.Builder
	logger  observability.Logger
}

// RedisOption is a functional option for configuring a RedisSource.
type RedisOption func(*RedisSource)

// WithRedisLogger sets the logger.
func WithRedisLogger(logger observability.Logger) RedisOption {
	return func(s *RedisSource) {
		s.logger = logger
	}
}

// NewRedisSource connects to the Redis instance described by cfg.
func NewRedisSource(cfg *config.RedisSourceConfig, builder *routedef.Builder, opts ...RedisOption) (*RedisSource, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}

	dialTimeout := cfg.DialTimeout.Duration()
	if dialTimeout <= 0 {
		dialTimeout = defaultRedisDialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	key := cfg.Key
	if key == "" {
		key = config.DefaultRedisKey
	}

	return NewRedisSourceFromClient(client, key, builder, opts...), nil
}

// NewRedisSourceFromClient creates a source on an existing client.
func NewRedisSourceFromClient(
	client redis.UniversalClient,
	key string,
	builder *routedef.Builder,
	opts ...RedisOption,
) *RedisSource {
	s := &RedisSource{
		client:  client,
		key:     key,
		builder: builder,
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAll reads every definition in the hash and compiles them in route
// id order. A missing hash yields an empty route list.
func (s *RedisSource) FetchAll(ctx context.Context) ([]*route.Route, error) {
	entries, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading routes from redis key %s: %w", s.key, err)
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	defs := make([]config.RouteDefinition, 0, len(ids))
	for _, id := range ids {
		var def config.RouteDefinition
		if err := json.Unmarshal([]byte(entries[id]), &def); err != nil {
			return nil, fmt.Errorf("decoding route %s: %w", id, err)
		}
		if def.ID == "" {
			def.ID = id
		}
		if def.ID != id {
			return nil, fmt.Errorf("route stored under %s has id %s", id, def.ID)
		}
		defs = append(defs, def)
	}

	s.logger.Debug("fetched route definitions from redis",
		observability.String("key", s.key),
		observability.Int("count", len(defs)),
	)

	return s.builder.BuildAll(defs)
}

// Put stores def under its id.
func (s *RedisSource) Put(ctx context.Context, def *config.RouteDefinition) error {
	if def.ID == "" {
		return errors.New("route id is required")
	}
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encoding route %s: %w", def.ID, err)
	}
	return s.client.HSet(ctx, s.key, def.ID, data).Err()
}

// Delete removes the definition stored under id.
func (s *RedisSource) Delete(ctx context.Context, id string) error {
	return s.client.HDel(ctx, s.key, id).Err()
}

// Ping checks connectivity.
func (s *RedisSource) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisSource) Close() error {
	return s.client.Close()
}

// Name returns the source name used in logs and errors.
func (s *RedisSource) Name() string {
	return "redis:" + s.key
}
