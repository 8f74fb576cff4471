package config

import (
	"time"
)

// API identity of the configuration document.
const (
	APIVersionPrefix  = "gateway.gwcore.io/"
	DefaultAPIVersion = APIVersionPrefix + "v1"
	Kind              = "Gateway"
)

// Route source types.
const (
	RouteSourceFile  = "file"
	RouteSourceRedis = "redis"
)

// Defaults.
const (
	DefaultListenPort       = 8080
	DefaultAdminPort        = 8081
	DefaultMetricsPath      = "/metrics"
	DefaultMaxBodySize      = 10 << 20
	DefaultRefreshTimeout   = 30 * time.Second
	DefaultDebounceDelay    = 100 * time.Millisecond
	DefaultRedisKey         = "gwcore:routes"
	DefaultBreakerThreshold = 5
	DefaultBreakerTimeout   = 30 * time.Second
	DefaultRefreshRateLimit = 1.0
	DefaultRefreshBurst     = 5
	DefaultReadTimeout      = 30 * time.Second
	DefaultWriteTimeout     = 30 * time.Second
	DefaultIdleTimeout      = 120 * time.Second

	DefaultRetryInitialBackoff = 100 * time.Millisecond
	DefaultRetryMaxBackoff     = 5 * time.Second
)

// GatewayConfig is the root configuration document.
type GatewayConfig struct {
	APIVersion string      `yaml:"apiVersion" json:"apiVersion"`
	Kind       string      `yaml:"kind" json:"kind"`
	Metadata   Metadata    `yaml:"metadata" json:"metadata"`
	Spec       GatewaySpec `yaml:"spec" json:"spec"`
}

// Metadata identifies a gateway instance.
type Metadata struct {
	Name   string            `yaml:"name" json:"name"`
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// GatewaySpec holds the gateway settings.
type GatewaySpec struct {
	Listener      ListenerConfig       `yaml:"listener" json:"listener"`
	Admin         *AdminConfig         `yaml:"admin,omitempty" json:"admin,omitempty"`
	Observability *ObservabilityConfig `yaml:"observability,omitempty" json:"observability,omitempty"`
	BodyCache     *BodyCacheConfig     `yaml:"bodyCache,omitempty" json:"bodyCache,omitempty"`
	Refresh       *RefreshConfig       `yaml:"refresh,omitempty" json:"refresh,omitempty"`
	RouteSource   *RouteSourceConfig   `yaml:"routeSource,omitempty" json:"routeSource,omitempty"`
	Routes        []RouteDefinition    `yaml:"routes,omitempty" json:"routes,omitempty"`
}

// ListenerConfig configures the proxy listener.
type ListenerConfig struct {
	Bind           string   `yaml:"bind,omitempty" json:"bind,omitempty"`
	Port           int      `yaml:"port" json:"port"`
	ReadTimeout    Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout   Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	IdleTimeout    Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`
	MaxHeaderBytes int      `yaml:"maxHeaderBytes,omitempty" json:"maxHeaderBytes,omitempty"`
}

// AdminConfig configures the administrative HTTP server.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Bind    string `yaml:"bind,omitempty" json:"bind,omitempty"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty"`
	// RefreshRateLimit is the sustained number of refresh requests per
	// second the admin endpoint accepts.
	RefreshRateLimit float64 `yaml:"refreshRateLimit,omitempty" json:"refreshRateLimit,omitempty"`
	RefreshBurst     int     `yaml:"refreshBurst,omitempty" json:"refreshBurst,omitempty"`
}

// ObservabilityConfig groups metrics, tracing and logging settings.
type ObservabilityConfig struct {
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Tracing *TracingConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// TracingConfig represents tracing configuration.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	SamplingRate float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`
	OTLPEndpoint string  `yaml:"otlpEndpoint,omitempty" json:"otlpEndpoint,omitempty"`
	ServiceName  string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// BodyCacheConfig configures request body buffering.
type BodyCacheConfig struct {
	// MaxBodySize is the largest body buffered, in bytes.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty" json:"maxBodySize,omitempty"`
	// Routes are enabled for body caching at startup.
	Routes []string `yaml:"routes,omitempty" json:"routes,omitempty"`
}

// RefreshConfig configures route table reloads.
type RefreshConfig struct {
	Timeout Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	// WatchConfig reloads routes when the configuration file changes.
	WatchConfig   bool     `yaml:"watchConfig,omitempty" json:"watchConfig,omitempty"`
	DebounceDelay Duration `yaml:"debounceDelay,omitempty" json:"debounceDelay,omitempty"`
}

// RouteSourceConfig selects where routes are loaded from.
type RouteSourceConfig struct {
	Type           string                `yaml:"type" json:"type"`
	Redis          *RedisSourceConfig    `yaml:"redis,omitempty" json:"redis,omitempty"`
	CircuitBreaker *CircuitBreakerConfig `yaml:"circuitBreaker,omitempty" json:"circuitBreaker,omitempty"`
	Retry          *RetryConfig          `yaml:"retry,omitempty" json:"retry,omitempty"`
}

// RedisSourceConfig locates route definitions in Redis.
type RedisSourceConfig struct {
	Address     string   `yaml:"address" json:"address"`
	Password    string   `yaml:"password,omitempty" json:"password,omitempty"`
	DB          int      `yaml:"db,omitempty" json:"db,omitempty"`
	Key         string   `yaml:"key,omitempty" json:"key,omitempty"`
	DialTimeout Duration `yaml:"dialTimeout,omitempty" json:"dialTimeout,omitempty"`
}

// CircuitBreakerConfig guards the route source.
type CircuitBreakerConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold        int      `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Timeout          Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	HalfOpenRequests int      `yaml:"halfOpenRequests,omitempty" json:"halfOpenRequests,omitempty"`
}

// RetryConfig retries failed route fetches with exponential backoff.
type RetryConfig struct {
	MaxRetries     int      `yaml:"maxRetries,omitempty" json:"maxRetries,omitempty"`
	InitialBackoff Duration `yaml:"initialBackoff,omitempty" json:"initialBackoff,omitempty"`
	MaxBackoff     Duration `yaml:"maxBackoff,omitempty" json:"maxBackoff,omitempty"`
}

// DefaultConfig returns a configuration with every default applied and
// no routes.
func DefaultConfig() *GatewayConfig {
	cfg := &GatewayConfig{
		APIVersion: DefaultAPIVersion,
		Kind:       Kind,
		Metadata:   Metadata{Name: "gateway"},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their defaults.
func (c *GatewayConfig) ApplyDefaults() {
	s := &c.Spec

	if s.Listener.Port == 0 {
		s.Listener.Port = DefaultListenPort
	}
	if s.Listener.ReadTimeout == 0 {
		s.Listener.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if s.Listener.WriteTimeout == 0 {
		s.Listener.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if s.Listener.IdleTimeout == 0 {
		s.Listener.IdleTimeout = Duration(DefaultIdleTimeout)
	}

	if s.Admin == nil {
		s.Admin = &AdminConfig{Enabled: true}
	}
	if s.Admin.Port == 0 {
		s.Admin.Port = DefaultAdminPort
	}
	if s.Admin.RefreshRateLimit == 0 {
		s.Admin.RefreshRateLimit = DefaultRefreshRateLimit
	}
	if s.Admin.RefreshBurst == 0 {
		s.Admin.RefreshBurst = DefaultRefreshBurst
	}

	if s.Observability == nil {
		s.Observability = &ObservabilityConfig{}
	}
	if s.Observability.Metrics == nil {
		s.Observability.Metrics = &MetricsConfig{Enabled: true}
	}
	if s.Observability.Metrics.Path == "" {
		s.Observability.Metrics.Path = DefaultMetricsPath
	}
	if s.Observability.Tracing == nil {
		s.Observability.Tracing = &TracingConfig{}
	}
	if s.Observability.Tracing.ServiceName == "" {
		s.Observability.Tracing.ServiceName = "gwcore"
	}
	if s.Observability.Logging == nil {
		s.Observability.Logging = &LoggingConfig{}
	}
	if s.Observability.Logging.Level == "" {
		s.Observability.Logging.Level = "info"
	}
	if s.Observability.Logging.Format == "" {
		s.Observability.Logging.Format = "json"
	}

	if s.BodyCache == nil {
		s.BodyCache = &BodyCacheConfig{}
	}
	if s.BodyCache.MaxBodySize == 0 {
		s.BodyCache.MaxBodySize = DefaultMaxBodySize
	}

	if s.Refresh == nil {
		s.Refresh = &RefreshConfig{}
	}
	if s.Refresh.Timeout == 0 {
		s.Refresh.Timeout = Duration(DefaultRefreshTimeout)
	}
	if s.Refresh.DebounceDelay == 0 {
		s.Refresh.DebounceDelay = Duration(DefaultDebounceDelay)
	}

	if s.RouteSource == nil {
		s.RouteSource = &RouteSourceConfig{}
	}
	if s.RouteSource.Type == "" {
		s.RouteSource.Type = RouteSourceFile
	}
	if r := s.RouteSource.Redis; r != nil && r.Key == "" {
		r.Key = DefaultRedisKey
	}
	if cb := s.RouteSource.CircuitBreaker; cb != nil {
		if cb.Threshold == 0 {
			cb.Threshold = DefaultBreakerThreshold
		}
		if cb.Timeout == 0 {
			cb.Timeout = Duration(DefaultBreakerTimeout)
		}
		if cb.HalfOpenRequests == 0 {
			cb.HalfOpenRequests = 1
		}
	}
	if r := s.RouteSource.Retry; r != nil {
		if r.InitialBackoff == 0 {
			r.InitialBackoff = Duration(DefaultRetryInitialBackoff)
		}
		if r.MaxBackoff == 0 {
			r.MaxBackoff = Duration(DefaultRetryMaxBackoff)
		}
	}
}
