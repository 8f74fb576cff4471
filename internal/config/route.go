package config

// RouteDefinition declares a route. The same shape is used in the
// configuration file and in external route stores.
type RouteDefinition struct {
	ID         string                `yaml:"id" json:"id"`
	URI        string                `yaml:"uri" json:"uri"`
	Order      int                   `yaml:"order,omitempty" json:"order,omitempty"`
	Predicates []PredicateDefinition `yaml:"predicates,omitempty" json:"predicates,omitempty"`
	Filters    []FilterDefinition    `yaml:"filters,omitempty" json:"filters,omitempty"`
	// CacheBody enables request body caching for the route.
	CacheBody bool              `yaml:"cacheBody,omitempty" json:"cacheBody,omitempty"`
	Metadata  map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// PredicateDefinition names a predicate factory and its arguments.
type PredicateDefinition struct {
	Name string            `yaml:"name" json:"name"`
	Args map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
}

// FilterDefinition names a filter factory and its arguments. A nil
// Order places the filter by its position in the list.
type FilterDefinition struct {
	Name  string            `yaml:"name" json:"name"`
	Args  map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
	Order *int              `yaml:"order,omitempty" json:"order,omitempty"`
}
