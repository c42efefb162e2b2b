package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchReturnsLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Rampur", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat":"28.8101","lon":"79.0250","display_name":"Rampur, Uttar Pradesh, India"}]`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	loc, err := client.Search(context.Background(), "Rampur")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.InDelta(t, 28.8101, loc.Latitude, 0.0001)
	assert.InDelta(t, 79.0250, loc.Longitude, 0.0001)
	assert.Equal(t, "Rampur, Uttar Pradesh, India", loc.Address)
	assert.Equal(t, "Rampur", loc.Text)
}

func TestSearchMissReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	loc, err := client.Search(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestSearchEmptyQueryShortCircuits(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})
	loc, err := client.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestReverseReturnsAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		w.Write([]byte(`{"display_name":"Rampur, Uttar Pradesh, India"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	loc, err := client.Reverse(context.Background(), 28.8101, 79.0250)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Rampur, Uttar Pradesh, India", loc.Address)
	assert.InDelta(t, 28.8101, loc.Latitude, 0.0001)
}

func TestSearchServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.Search(context.Background(), "Rampur")
	assert.Error(t, err)
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	for i := 0; i < 6; i++ {
		_, err := client.Search(context.Background(), "Rampur")
		assert.Error(t, err)
	}
}
