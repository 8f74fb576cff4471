package config

import (
	"fmt"
	"strings"

	"github.com/vyrodovalexey/gwcore/internal/util"
)

// Validator checks the structure of a gateway configuration. Route
// predicate and filter arguments are checked when routes are built.
type Validator struct {
	err *util.ValidationError
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConfig validates a gateway configuration.
func ValidateConfig(cfg *GatewayConfig) error {
	return NewValidator().Validate(cfg)
}

// Validate returns a *util.ValidationError listing every problem found,
// or nil.
func (v *Validator) Validate(cfg *GatewayConfig) error {
	v.err = util.NewValidationError("invalid gateway configuration")

	if cfg == nil {
		v.addError("", "configuration is nil")
		return v.err
	}

	v.validateRoot(cfg)
	v.validateSpec(&cfg.Spec)

	if v.err.HasErrors() {
		return v.err
	}
	return nil
}

func (v *Validator) addError(path, message string) {
	if path == "" {
		path = "."
	}
	v.err.AddField(path, message)
}

// validateRoot validates root-level fields.
func (v *Validator) validateRoot(cfg *GatewayConfig) {
	switch {
	case cfg.APIVersion == "":
		v.addError("apiVersion", "apiVersion is required")
	case !strings.HasPrefix(cfg.APIVersion, APIVersionPrefix):
		v.addError("apiVersion", fmt.Sprintf("apiVersion must start with '%s'", APIVersionPrefix))
	}

	switch {
	case cfg.Kind == "":
		v.addError("kind", "kind is required")
	case cfg.Kind != Kind:
		v.addError("kind", fmt.Sprintf("kind must be '%s'", Kind))
	}

	if cfg.Metadata.Name == "" {
		v.addError("metadata.name", "name is required")
	}
}

// validateSpec validates the gateway spec.
func (v *Validator) validateSpec(spec *GatewaySpec) {
	if err := util.ValidateNonNegativePort(spec.Listener.Port); err != nil {
		v.addError("spec.listener.port", err.Error())
	}

	if spec.Admin != nil && spec.Admin.Enabled {
		v.validateAdmin(spec.Admin, spec.Listener.Port)
	}
	if spec.Observability != nil {
		v.validateObservability(spec.Observability)
	}
	if spec.BodyCache != nil && spec.BodyCache.MaxBodySize < 0 {
		v.addError("spec.bodyCache.maxBodySize", "maxBodySize must not be negative")
	}
	if spec.Refresh != nil {
		if spec.Refresh.Timeout < 0 {
			v.addError("spec.refresh.timeout", "timeout must not be negative")
		}
		if spec.Refresh.DebounceDelay < 0 {
			v.addError("spec.refresh.debounceDelay", "debounceDelay must not be negative")
		}
	}
	if spec.RouteSource != nil {
		v.validateRouteSource(spec.RouteSource)
	}

	v.validateRoutes(spec.Routes)
}

func (v *Validator) validateAdmin(admin *AdminConfig, listenerPort int) {
	if err := util.ValidateNonNegativePort(admin.Port); err != nil {
		v.addError("spec.admin.port", err.Error())
	} else if admin.Port != 0 && admin.Port == listenerPort {
		v.addError("spec.admin.port", fmt.Sprintf("port %d already used by the listener", admin.Port))
	}
	if admin.RefreshRateLimit < 0 {
		v.addError("spec.admin.refreshRateLimit", "refreshRateLimit must not be negative")
	}
	if admin.RefreshBurst < 0 {
		v.addError("spec.admin.refreshBurst", "refreshBurst must not be negative")
	}
}

func (v *Validator) validateObservability(obs *ObservabilityConfig) {
	if t := obs.Tracing; t != nil && (t.SamplingRate < 0 || t.SamplingRate > 1) {
		v.addError("spec.observability.tracing.samplingRate", "samplingRate must be between 0 and 1")
	}
	if m := obs.Metrics; m != nil && m.Enabled && !strings.HasPrefix(m.Path, "/") {
		v.addError("spec.observability.metrics.path", "path must start with '/'")
	}
	if l := obs.Logging; l != nil {
		switch strings.ToLower(l.Level) {
		case "", "debug", "info", "warn", "error":
		default:
			v.addError("spec.observability.logging.level", "level must be debug, info, warn or error")
		}
		switch l.Format {
		case "", "json", "console":
		default:
			v.addError("spec.observability.logging.format", "format must be json or console")
		}
	}
}

func (v *Validator) validateRouteSource(src *RouteSourceConfig) {
	switch src.Type {
	case RouteSourceFile:
	case RouteSourceRedis:
		if src.Redis == nil || src.Redis.Address == "" {
			v.addError("spec.routeSource.redis.address", "address is required for redis route source")
		}
	default:
		v.addError("spec.routeSource.type", fmt.Sprintf("unsupported route source type: %q", src.Type))
	}

	if cb := src.CircuitBreaker; cb != nil && cb.Enabled {
		if cb.Threshold < 1 {
			v.addError("spec.routeSource.circuitBreaker.threshold", "threshold must be at least 1")
		}
		if cb.Timeout < 0 {
			v.addError("spec.routeSource.circuitBreaker.timeout", "timeout must not be negative")
		}
	}

	if r := src.Retry; r != nil {
		if r.MaxRetries < 0 {
			v.addError("spec.routeSource.retry.maxRetries", "maxRetries must not be negative")
		}
		if r.MaxBackoff < r.InitialBackoff {
			v.addError("spec.routeSource.retry.maxBackoff", "maxBackoff must not be less than initialBackoff")
		}
	}
}

// validateRoutes validates route definitions.
func (v *Validator) validateRoutes(routes []RouteDefinition) {
	ids := make(map[string]bool, len(routes))
	for i := range routes {
		v.validateRoute(&routes[i], fmt.Sprintf("spec.routes[%d]", i), ids)
	}
}

// ValidateRouteDefinition checks a single route definition outside a
// gateway configuration.
func ValidateRouteDefinition(def *RouteDefinition) error {
	v := NewValidator()
	v.err = util.NewValidationError("invalid route definition")
	v.validateRoute(def, "route", map[string]bool{})
	if v.err.HasErrors() {
		return v.err
	}
	return nil
}

func (v *Validator) validateRoute(def *RouteDefinition, path string, ids map[string]bool) {
	if err := util.ValidateNonEmpty(def.ID, "route id"); err != nil {
		v.addError(path+".id", err.Error())
	} else if ids[def.ID] {
		v.addError(path+".id", fmt.Sprintf("duplicate route id: %s", def.ID))
	} else {
		ids[def.ID] = true
	}

	if err := util.ValidateURL(def.URI); err != nil {
		v.addError(path+".uri", err.Error())
	}

	for j, p := range def.Predicates {
		if err := util.ValidateNonEmpty(p.Name, "predicate name"); err != nil {
			v.addError(fmt.Sprintf("%s.predicates[%d].name", path, j), err.Error())
		}
	}
	for j, f := range def.Filters {
		if err := util.ValidateNonEmpty(f.Name, "filter name"); err != nil {
			v.addError(fmt.Sprintf("%s.filters[%d].name", path, j), err.Error())
		}
	}
}
