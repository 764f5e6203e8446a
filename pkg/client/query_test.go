package client

import (
	"testing"

	"github.com/Sternrassler/currency-api-client/pkg/endpoint"
	"github.com/stretchr/testify/assert"
)

func TestValidateDate(t *testing.T) {
	valid := []string{"latest", "2024-03-06", "1999-12-31"}
	invalid := []string{"", "LATEST", "2024-3-6", "24-03-06", "2024-03-6", "2024-03-06 ", "20240306", "２０２４-03-06"}

	for _, date := range valid {
		assert.NoError(t, ValidateDate(date), date)
	}
	for _, date := range invalid {
		assert.ErrorIs(t, ValidateDate(date), ErrInvalidInput, date)
	}
}

func TestQuery_Validate(t *testing.T) {
	assert.NoError(t, Query{Path: "/currencies"}.Validate(), "empty date means latest")
	assert.NoError(t, Query{Path: "/currencies/eur", Date: "2024-03-06", Endpoint: endpoint.Cloudflare}.Validate())
	assert.Error(t, Query{Path: "/currencies", Endpoint: "JSDELIVR"}.Validate(), "overrides must already be parsed")
}

func TestNormalizeCurrency(t *testing.T) {
	got, err := normalizeCurrency("base", " EUR ")
	assert.NoError(t, err)
	assert.Equal(t, "eur", got)

	got, err = normalizeCurrency("base", "1INCH")
	assert.NoError(t, err)
	assert.Equal(t, "1inch", got)

	for _, bad := range []string{"", "   ", "eur/usd", "eur.json", "e u r"} {
		_, err := normalizeCurrency("base", bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestBuildQuery(t *testing.T) {
	q := buildQuery(currencyPath("eur"), DateLatest, []Option{WithEndpoint(endpoint.Cloudflare)})
	assert.Equal(t, Query{Path: "/currencies/eur", Date: "latest", Endpoint: endpoint.Cloudflare}, q)
}
