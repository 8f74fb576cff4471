package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "http", url: "http://backend:8080"},
		{name: "https with path", url: "https://backend.internal/api"},
		{name: "empty", url: "", wantErr: true},
		{name: "no scheme", url: "backend:8080/api", wantErr: true},
		{name: "unsupported scheme", url: "lb://orders", wantErr: true},
		{name: "no host", url: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHeaderName(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateHeaderName("X-Request-ID"))
	assert.Error(t, ValidateHeaderName(""))
	assert.Error(t, ValidateHeaderName("X Request"))
}

func TestValidateNonNegativePort(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateNonNegativePort(0))
	assert.NoError(t, ValidateNonNegativePort(8080))
	assert.Error(t, ValidateNonNegativePort(-1))
	assert.Error(t, ValidateNonNegativePort(70000))
}

func TestValidateRegex(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateRegex(""))
	assert.NoError(t, ValidateRegex(`^/api/v[0-9]+/.*$`))
	assert.Error(t, ValidateRegex("[invalid"))
}

func TestValidateHTTPMethod(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateHTTPMethod("post"))
	assert.NoError(t, ValidateHTTPMethod("GET"))
	assert.Error(t, ValidateHTTPMethod("FETCH"))
}

func TestValidateNonEmpty(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateNonEmpty("orders", "id"))
	assert.EqualError(t, ValidateNonEmpty("  ", "id"), "id cannot be empty")
}
