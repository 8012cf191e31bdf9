package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdango/pv-carbon/internal/demo"
)

func testServer(t *testing.T) *httptest.Server {
	router := httprouter.New()
	NewHandler(testEngine(&flatIrradiance{whPerM2: 100}, demo.NewGridIntensity())).Register(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

const calculateBody = `{
	"postcode": "EH1 1YZ",
	"year": 2023,
	"area_m2": 10,
	"module_efficiency": 0.2,
	"surface_tilt": 35,
	"surface_azimuth": 180,
	"materials": {"aluminium_kg": 100, "steel_kg": 1000, "glass_kg": 50},
	"transport": [{"mode": "ship_container", "distance_km": 8000, "mass_tonnes": 50}],
	"construction": {"method": "simple", "percentage": 10},
	"storage": {"included": true, "capacity_kwh": 10}
}`

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	body := make(map[string]any)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHandlerCalculate(t *testing.T) {
	server := testServer(t)

	resp, err := http.Post(server.URL+"/calculate", "application/json", strings.NewReader(calculateBody))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	report := decodeBody(t, resp)
	for _, key := range []string{"id", "location", "operational", "embodied", "transport", "construction", "replacement", "storage", "summary", "assumptions"} {
		assert.Contains(t, report, key)
	}

	embodied := report["embodied"].(map[string]any)
	assert.Equal(t, 2950.0, embodied["total_kgCO2e"])
	breakdown := embodied["breakdown"].([]any)
	require.Len(t, breakdown, 3)

	construction := report["construction"].(map[string]any)
	assert.Equal(t, 295.0, construction["total_kgCO2e"])

	storage := report["storage"].(map[string]any)
	assert.Equal(t, 750.0, storage["total_kgCO2e"])

	operational := report["operational"].(map[string]any)
	assert.Equal(t, 1752.0, operational["annual_generation_kwh"])
}

func TestHandlerCalculateOpenMetrics(t *testing.T) {
	server := testServer(t)

	resp, err := http.Post(server.URL+"/calculate?format=openmetrics", "application/json", strings.NewReader(calculateBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/openmetrics-text")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "lifecycle_emissions_kgCO2e{")
	assert.True(t, strings.HasSuffix(string(body), "# EOF\n"))
}

func TestHandlerCalculateErrors(t *testing.T) {
	server := testServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		error  string
	}{
		{name: "malformed", body: `{"year":`, status: http.StatusBadRequest, error: "malformed request body"},
		{name: "no location", body: `{"year": 2023, "area_m2": 10, "module_efficiency": 0.2}`, status: http.StatusBadRequest, error: "postcode or latitude/longitude"},
		{name: "unknown postcode", body: `{"postcode": "ZZ1 1ZZ", "year": 2023}`, status: http.StatusBadRequest, error: "ZZ1 1ZZ"},
		{name: "unknown database", body: `{"latitude": 51.5, "longitude": -0.1, "year": 2023, "material_database": "nope"}`, status: http.StatusBadRequest, error: "unknown material database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/calculate", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, decodeBody(t, resp)["error"], tt.error)
		})
	}
}

func TestHandlerFactors(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/factors/materials")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	materials := decodeBody(t, resp)
	assert.Equal(t, "ice-v4.1-simplified", materials["database"])
	assert.Len(t, materials["factors"], 6)

	resp, err = http.Get(server.URL + "/factors/materials?database=generic-v3")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "generic-v3", decodeBody(t, resp)["database"])

	resp, err = http.Get(server.URL + "/factors/materials?database=unknown")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/factors/transport")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody(t, resp)["factors"], 7)

	resp, err = http.Get(server.URL + "/factors/equipment")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody(t, resp)["equipment"], 7)

	resp, err = http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, "ok", decodeBody(t, resp)["status"])
}
