package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","lat":37.386,"lon":-122.0838}`))
	}))
	defer srv.Close()

	loc, err := NewIPLocator(srv.URL).Locate(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.InDelta(t, 37.386, loc.Latitude, 1e-9)
	assert.InDelta(t, -122.0838, loc.Longitude, 1e-9)
}

func TestLocateRejectedByService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
	}))
	defer srv.Close()

	_, err := NewIPLocator(srv.URL).Locate(context.Background(), "8.8.8.8")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved range")
}

func TestLocateBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewIPLocator(srv.URL).Locate(context.Background(), "8.8.8.8")
	assert.Error(t, err)
}

func TestLocateSkipsNonRoutableIPs(t *testing.T) {
	l := NewIPLocator("http://unused.invalid")
	for _, ip := range []string{"", "not-an-ip", "127.0.0.1", "10.1.2.3", "192.168.0.5", "::1"} {
		_, err := l.Locate(context.Background(), ip)
		assert.Error(t, err, "ip %q", ip)
	}
}
