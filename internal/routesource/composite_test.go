package routesource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/gwcore/internal/route"
)

func TestCompositeSource(t *testing.T) {
	t.Parallel()

	first := &flakySource{name: "first", routes: []*route.Route{{ID: "a"}, {ID: "b"}}}
	second := &flakySource{name: "second", routes: []*route.Route{{ID: "c"}}}
	src := NewCompositeSource(first, second)

	routes, err := src.FetchAll(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, "composite(first,second)", src.Name())

	second.fail.Store(true)
	_, err = src.FetchAll(context.Background())
	require.ErrorIs(t, err, errUpstream)
	assert.Contains(t, err.Error(), "second")
}
