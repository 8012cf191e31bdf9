package postcodes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pvcarbon "github.com/superdango/pv-carbon"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/postcodes/EH1 1YZ":
			_, _ = w.Write([]byte(`{"status": 200, "result": {"postcode": "EH1 1YZ", "latitude": 55.953, "longitude": -3.188, "country": "Scotland"}}`))
		case "/postcodes/JE2 3AB":
			_, _ = w.Write([]byte(`{"status": 200, "result": {"postcode": "JE2 3AB", "latitude": null, "longitude": null}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status": 404, "error": "Postcode not found"}`))
		}
	}))
}

func TestResolve(t *testing.T) {
	server := testServer(t)
	defer server.Close()

	client := NewClient(WithURL(server.URL + "/postcodes/"))
	location, err := client.Resolve(t.Context(), " EH1 1YZ ")
	require.NoError(t, err)
	assert.Equal(t, 55.953, location.Latitude)
	assert.Equal(t, -3.188, location.Longitude)
	assert.Equal(t, "EH1 1YZ", location.Postcode)
}

func TestResolveInvalid(t *testing.T) {
	server := testServer(t)
	defer server.Close()

	client := NewClient(WithURL(server.URL + "/postcodes"))

	_, err := client.Resolve(t.Context(), "ZZ99 9ZZ")
	assert.ErrorIs(t, err, pvcarbon.ErrInvalidLocation)

	_, err = client.Resolve(t.Context(), "JE2 3AB")
	assert.ErrorIs(t, err, pvcarbon.ErrInvalidLocation)

	_, err = client.Resolve(t.Context(), "  ")
	assert.ErrorIs(t, err, pvcarbon.ErrInvalidLocation)
}
