package client

import (
	"context"
	"testing"

	"github.com/Sternrassler/currency-api-client/internal/testutil"
	"github.com/Sternrassler/currency-api-client/pkg/cache"
	"github.com/Sternrassler/currency-api-client/pkg/endpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDate         = "2024-03-06"
	knownEURUSDRate  = 1.08854773
	knownEURGBPRate  = 0.85602
	knownEURJPYRate  = 161.05
	testMissingQuote = "xyz"
)

func newRatesMock(t *testing.T) *testutil.MockCDN {
	t.Helper()
	mock := testutil.NewMockCDN()
	t.Cleanup(mock.Close)

	rates := map[string]float64{"usd": knownEURUSDRate, "gbp": knownEURGBPRate, "jpy": knownEURJPYRate}
	mock.SetRates(endpoint.JSDelivr, testDate, "eur", rates)
	mock.SetRates(endpoint.JSDelivr, "latest", "eur", rates)
	return mock
}

func TestHistoricalRate_EndToEnd(t *testing.T) {
	mock := testutil.NewMockCDN()
	defer mock.Close()
	mock.SetResponse(endpoint.JSDelivr, testDate, "/currencies/eur", testutil.MockResponse{
		StatusCode: 200,
		Body:       `{"date":"2024-03-06","eur":{"usd":1.08854773}}`,
	})

	c := newTestClient(t, mock, cache.NewMemoryStore())
	ctx := context.Background()

	rate, err := c.HistoricalRate(ctx, testDate, "eur", "usd")
	require.NoError(t, err)
	assert.Equal(t, knownEURUSDRate, rate)

	again, err := c.HistoricalRate(ctx, testDate, "eur", "usd")
	require.NoError(t, err)
	assert.Equal(t, rate, again)
	assert.Equal(t, 1, mock.RequestCount(), "second call must be served from cache")
}

func TestLatestRate_CaseInsensitive(t *testing.T) {
	c := newTestClient(t, newRatesMock(t), cache.NewMemoryStore())
	ctx := context.Background()

	upper, err := c.LatestRate(ctx, "EUR", "USD")
	require.NoError(t, err)
	lower, err := c.LatestRate(ctx, "eur", "usd")
	require.NoError(t, err)
	mixed, err := c.LatestRate(ctx, " Eur ", "uSd")
	require.NoError(t, err)

	assert.Equal(t, knownEURUSDRate, upper)
	assert.Equal(t, upper, lower)
	assert.Equal(t, upper, mixed)
}

func TestLatestRate_MissingPair(t *testing.T) {
	c := newTestClient(t, newRatesMock(t), cache.NewMemoryStore())

	rate, err := c.LatestRate(context.Background(), "eur", testMissingQuote)
	assert.ErrorIs(t, err, ErrNoData)
	assert.False(t, IsValidationError(err))
	assert.Zero(t, rate)
}

func TestHistoricalRate_MissingPair(t *testing.T) {
	c := newTestClient(t, newRatesMock(t), cache.NewMemoryStore())

	_, err := c.HistoricalRate(context.Background(), testDate, "eur", "nonexistent")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestHistoricalRate_FutureDate(t *testing.T) {
	mock := newRatesMock(t)
	c := newTestClient(t, mock, cache.NewMemoryStore())

	_, err := c.HistoricalRate(context.Background(), "2999-01-01", "eur", "usd")
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, 2, mock.RequestCount())
}

func TestHistoricalRates_DateValidation(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		wantErr bool
	}{
		{name: "valid", date: "2024-03-06"},
		{name: "single digit month and day", date: "2024-3-6", wantErr: true},
		{name: "invalid text", date: "invalid-date", wantErr: true},
		{name: "latest is not a historical date", date: "latest", wantErr: true},
		{name: "empty", date: "", wantErr: true},
		{name: "trailing characters", date: "2024-03-06T00:00", wantErr: true},
		{name: "slashes", date: "2024/03/06", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newRatesMock(t)
			c := newTestClient(t, mock, cache.NewMemoryStore())

			table, err := c.HistoricalRates(context.Background(), tt.date, "eur")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				assert.Nil(t, table)
				assert.Equal(t, 0, mock.RequestCount(), "validation must happen before any transport call")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testDate, table.Date)
		})
	}
}

func TestHistoricalRate_DateValidation(t *testing.T) {
	mock := newRatesMock(t)
	c := newTestClient(t, mock, cache.NewMemoryStore())

	_, err := c.HistoricalRate(context.Background(), "2024-3-6", "eur", "usd")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, mock.RequestCount())
}

func TestLatestRates(t *testing.T) {
	c := newTestClient(t, newRatesMock(t), cache.NewMemoryStore())

	table, err := c.LatestRates(context.Background(), "EUR")
	require.NoError(t, err)

	require.Contains(t, table.Rates, "eur")
	assert.Len(t, table.Rates["eur"], 3)
	assert.NotEmpty(t, table.Date)

	rate, ok := table.Rate("EUR", "GBP")
	assert.True(t, ok)
	assert.Equal(t, knownEURGBPRate, rate)
}

func TestHistoricalRates_ConsistentWithSingleRate(t *testing.T) {
	c := newTestClient(t, newRatesMock(t), cache.NewMemoryStore())
	ctx := context.Background()

	table, err := c.HistoricalRates(ctx, testDate, "eur")
	require.NoError(t, err)
	single, err := c.HistoricalRate(ctx, testDate, "eur", "usd")
	require.NoError(t, err)

	assert.Equal(t, table.Rates["eur"]["usd"], single)
}

func TestRates_InvalidCurrency(t *testing.T) {
	mock := newRatesMock(t)
	c := newTestClient(t, mock, cache.NewMemoryStore())
	ctx := context.Background()

	_, err := c.LatestRates(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.LatestRate(ctx, "eur", "../usd")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.HistoricalRates(ctx, testDate, "eur/usd")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, 0, mock.RequestCount())
}

func TestRates_EndpointOption(t *testing.T) {
	mock := testutil.NewMockCDN()
	defer mock.Close()
	mock.SetRates(endpoint.Cloudflare, "latest", "usd", map[string]float64{"eur": 0.92})

	c := newTestClient(t, mock, cache.NewMemoryStore())

	rate, err := c.LatestRate(context.Background(), "usd", "eur", WithEndpoint(endpoint.Cloudflare))
	require.NoError(t, err)
	assert.Equal(t, 0.92, rate)
	assert.Equal(t, 0, mock.RequestCountFor(endpoint.JSDelivr))
}

func TestCurrencies(t *testing.T) {
	mock := testutil.NewMockCDN()
	defer mock.Close()
	mock.SetResponse(endpoint.JSDelivr, "latest", "/currencies", testutil.NewCurrenciesResponse(map[string]string{
		"eur": "Euro",
		"usd": "US Dollar",
		"jpy": "Japanese Yen",
	}))

	c := newTestClient(t, mock, cache.NewMemoryStore())

	currencies, err := c.Currencies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Euro", currencies["eur"])
	assert.Len(t, currencies, 3)
}

func TestCurrencies_Unavailable(t *testing.T) {
	mock := testutil.NewMockCDN()
	defer mock.Close()

	c := newTestClient(t, mock, cache.NewMemoryStore())

	currencies, err := c.Currencies(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
	assert.Nil(t, currencies)
}

func TestRateTable_Rate(t *testing.T) {
	var nilTable *RateTable
	_, ok := nilTable.Rate("eur", "usd")
	assert.False(t, ok)

	table := &RateTable{Rates: map[string]map[string]float64{"eur": {"usd": 1.1}}}
	_, ok = table.Rate("usd", "eur")
	assert.False(t, ok)
	_, ok = table.Rate("eur", "gbp")
	assert.False(t, ok)
}

func TestNewRateTable_NonStringDate(t *testing.T) {
	table := newRateTable(cache.Document{
		"date": []byte(`20240306`),
		"eur":  []byte(`{"usd":1.1}`),
	})

	assert.Empty(t, table.Date)
	rate, ok := table.Rate("eur", "usd")
	assert.True(t, ok)
	assert.Equal(t, 1.1, rate)
}

func TestCurrencies_SkipsNonStringNames(t *testing.T) {
	mock := testutil.NewMockCDN()
	defer mock.Close()
	mock.SetResponse(endpoint.JSDelivr, "latest", "/currencies", testutil.MockResponse{
		StatusCode: 200,
		Body:       `{"eur":"Euro","usd":"US Dollar","bad":42}`,
	})

	c := newTestClient(t, mock, cache.NewMemoryStore())

	currencies, err := c.Currencies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"eur": "Euro", "usd": "US Dollar"}, currencies)

	doc, err := c.Fetch(context.Background(), Query{Path: "/currencies"})
	require.NoError(t, err)
	assert.Len(t, doc, 3, "the raw document keeps every entry")
}
