package routesource

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/vyrodovalexey/gwcore/internal/route"
)

var errUpstream = errors.New("upstream down")

// flakySource fails while fail is set and counts calls.
type flakySource struct {
	name   string
	routes []*route.Route
	fail   atomic.Bool
	calls  atomic.Int32
}

func (s *flakySource) FetchAll(ctx context.Context) ([]*route.Route, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.fail.Load() {
		return nil, errUpstream
	}
	return s.routes, nil
}

func (s *flakySource) Name() string { return s.name }
