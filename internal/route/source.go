package route

import (
	"context"
	"fmt"
)

// Source is an upstream store of route definitions. FetchAll is called
// only while the route table is being reloaded.
type Source interface {
	FetchAll(ctx context.Context) ([]*Route, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]*Route, error)

// FetchAll calls f(ctx).
func (f SourceFunc) FetchAll(ctx context.Context) ([]*Route, error) {
	return f(ctx)
}

// SourceName returns the name a source reports about itself, or its
// type name.
func SourceName(s Source) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
