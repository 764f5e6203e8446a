package endpoint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		date     string
		want     string
	}{
		{
			name:     "jsdelivr latest",
			endpoint: JSDelivr,
			date:     "latest",
			want:     "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1",
		},
		{
			name:     "jsdelivr dated",
			endpoint: JSDelivr,
			date:     "2024-03-06",
			want:     "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@2024-03-06/v1",
		},
		{
			name:     "cloudflare latest",
			endpoint: Cloudflare,
			date:     "latest",
			want:     "https://latest.currency-api.pages.dev/v1",
		},
		{
			name:     "cloudflare dated",
			endpoint: Cloudflare,
			date:     "2024-03-06",
			want:     "https://2024-03-06.currency-api.pages.dev/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.endpoint, tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_UnknownEndpoint(t *testing.T) {
	_, err := Resolve(Endpoint("fastly"), "latest")
	assert.True(t, errors.Is(err, ErrUnknownEndpoint))
}

func TestFallback(t *testing.T) {
	assert.Equal(t, Cloudflare, Fallback(JSDelivr))
	assert.Equal(t, JSDelivr, Fallback(Cloudflare))

	for _, e := range All() {
		assert.Equal(t, e, Fallback(Fallback(e)), "fallback of fallback must round-trip")
		assert.NotEqual(t, e, Fallback(e))
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Endpoint
		wantErr bool
	}{
		{input: "jsdelivr", want: JSDelivr},
		{input: "Cloudflare", want: Cloudflare},
		{input: "  JSDELIVR ", want: JSDelivr},
		{input: "invalid", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownEndpoint)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewResolver(t *testing.T) {
	t.Run("custom templates", func(t *testing.T) {
		r, err := NewResolver(map[Endpoint]string{
			JSDelivr:   "http://127.0.0.1:9000/primary/%s/v1",
			Cloudflare: "http://127.0.0.1:9000/secondary/%s/v1",
		})
		require.NoError(t, err)

		got, err := r.Resolve(Cloudflare, "2024-03-06")
		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:9000/secondary/2024-03-06/v1", got)
	})

	t.Run("missing mirror", func(t *testing.T) {
		_, err := NewResolver(map[Endpoint]string{JSDelivr: "http://x/%s"})
		assert.Error(t, err)
	})

	t.Run("template without date verb", func(t *testing.T) {
		_, err := NewResolver(map[Endpoint]string{
			JSDelivr:   "http://x/latest",
			Cloudflare: "http://y/%s",
		})
		assert.Error(t, err)
	})
}
