package owid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/internal/cache"
	"github.com/superdango/pv-carbon/internal/fetch"
)

const dataset = `country,year,iso_code,population,carbon_intensity_elec,electricity_generation
United Kingdom,2022,GBR,67000000,257.5,325.1
United Kingdom,2023,GBR,67500000,217.0,292.6
United Kingdom,2024,GBR,68000000,,280.1
France,2023,FRA,68000000,56.0,494.5
Europe,2023,,,281.2,4000
World,notayear,OWID_WRL,,400,
`

func TestParse(t *testing.T) {
	table, err := Parse(strings.NewReader(dataset))
	require.NoError(t, err)

	factor, err := table.Get("GBR", 2023)
	require.NoError(t, err)
	assert.InDelta(t, 0.217, factor.Value, 1e-12)
	assert.Equal(t, Source, factor.Source)
	assert.Equal(t, pvcarbon.KgCO2ePerKWh, factor.Unit)

	factor, err = table.Get("Europe", 2023)
	require.NoError(t, err)
	assert.InDelta(t, 0.2812, factor.Value, 1e-12)

	// empty intensity is skipped
	_, err = table.Get("GBR", 2024)
	assert.ErrorIs(t, err, pvcarbon.ErrNotFound)
}

func TestParseMissingColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("country,year,iso_code\nFrance,2023,FRA\n"))
	assert.ErrorIs(t, err, pvcarbon.ErrMissingData)

	_, err = Parse(strings.NewReader("country,year,iso_code,carbon_intensity_elec\nFrance,2023,FRA,\n"))
	assert.ErrorIs(t, err, pvcarbon.ErrMissingData)
}

func TestClientDownloadsOnce(t *testing.T) {
	calls := new(atomic.Int64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(dataset))
	}))
	defer server.Close()

	client := NewClient(WithURL(server.URL))

	wg := new(sync.WaitGroup)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			factor, err := client.GridFactor(t.Context(), "france", 2023)
			assert.NoError(t, err)
			assert.InDelta(t, 0.056, factor.Value, 1e-12)
		}()
	}
	wg.Wait()

	_, err := client.GridFactor(t.Context(), "GBR", 2022)
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestClientUpstreamUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(
		WithURL(server.URL),
		WithFetcher(fetch.NewClient(fetch.WithRetry(2, time.Millisecond, time.Millisecond))),
	)
	_, err := client.GridFactor(t.Context(), "GBR", 2023)
	assert.ErrorIs(t, err, pvcarbon.ErrUpstreamUnavailable)
}

func TestClientGridFactorLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(dataset))
	}))
	defer server.Close()

	client := NewClient(WithURL(server.URL))

	factor, err := client.GridFactor(t.Context(), "GBR", 2023)
	require.NoError(t, err)
	assert.InDelta(t, 0.217, factor.Value, 1e-12)
	assert.Equal(t, Source, factor.Source)
	assert.Equal(t, 2023, factor.Year)

	_, err = client.GridFactor(t.Context(), "GBR", 2024)
	assert.ErrorIs(t, err, pvcarbon.ErrNotFound)

	_, err = client.GridFactor(t.Context(), "Atlantis", 2023)
	assert.ErrorIs(t, err, pvcarbon.ErrNotFound)
}

func TestClientTablePinnedForProcessLifetime(t *testing.T) {
	calls := new(atomic.Int64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(dataset))
	}))
	defer server.Close()

	// the table is stored without expiry whatever the cache default
	client := NewClient(WithURL(server.URL), WithCache(cache.NewMemory(time.Millisecond)))

	_, err := client.GridFactor(t.Context(), "GBR", 2023)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = client.GridFactor(t.Context(), "FRA", 2023)
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load())
}
