package routesource

import (
	"context"
	"fmt"
	"strings"

	"github.com/vyrodovalexey/gwcore/internal/route"
)

// CompositeSource concatenates the routes of several sources in order.
// Any source failing fails the whole fetch so a partial route table is
// never published.
type CompositeSource struct {
	sources []route.Source
}

// NewCompositeSource creates a source over sources.
func NewCompositeSource(sources ...route.Source) *CompositeSource {
	return &CompositeSource{sources: sources}
}

// FetchAll fetches each source in turn.
func (s *CompositeSource) FetchAll(ctx context.Context) ([]*route.Route, error) {
	var routes []*route.Route
	for _, src := range s.sources {
		fetched, err := src.FetchAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", route.SourceName(src), err)
		}
		routes = append(routes, fetched...)
	}
	return routes, nil
}

// Name lists the names of the wrapped sources.
func (s *CompositeSource) Name() string {
	names := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		names = append(names, route.SourceName(src))
	}
	return "composite(" + strings.Join(names, ",") + ")"
}
