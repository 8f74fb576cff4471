package bodycache

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/gwcore/internal/filter"
	"github.com/vyrodovalexey/gwcore/internal/route"
)

// countingBody counts how many bytes are read from the original stream.
type countingBody struct {
	io.Reader
	read   int
	closed bool
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.Reader.Read(p)
	b.read += n
	return n, err
}

func (b *countingBody) Close() error {
	b.closed = true
	return nil
}

type failingBody struct{ err error }

func (b failingBody) Read([]byte) (int, error) { return 0, b.err }
func (b failingBody) Close() error             { return nil }

func newExchange(body string) (*filter.Exchange, *countingBody) {
	cb := &countingBody{Reader: strings.NewReader(body)}
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Body = cb
	req.ContentLength = int64(len(body))
	return filter.NewExchange(httptest.NewRecorder(), req), cb
}

func withRoute(ex *filter.Exchange, id string) *filter.Exchange {
	ex.Attributes().Put(filter.RouteAttr, &route.Route{ID: id})
	return ex
}

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

// gatherValue sums every sample of the named metric family.
func gatherValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var sum float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				sum += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				sum += m.GetGauge().GetValue()
			}
		}
		return sum
	}
	require.Fail(t, fmt.Sprintf("metric %s not found", name))
	return 0
}
