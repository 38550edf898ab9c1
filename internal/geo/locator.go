// Package geo resolves an approximate latitude/longitude for a client IP.
// Lookups are strictly best-effort: the maps-scheme orchestration proceeds
// without location bias whenever a lookup fails, and failures are never
// surfaced to the user.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"
)

type LatLng struct {
	Latitude  float64
	Longitude float64
}

type Locator interface {
	Locate(ctx context.Context, ip string) (*LatLng, error)
}

// IPLocator queries a geo-IP HTTP endpoint (ip-api.com JSON shape).
type IPLocator struct {
	endpoint   string
	httpClient *http.Client
}

func NewIPLocator(endpoint string) *IPLocator {
	return &IPLocator{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (l *IPLocator) Locate(ctx context.Context, ip string) (*LatLng, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("geo: unparseable ip %q", ip)
	}
	if parsed.IsLoopback() || parsed.IsPrivate() {
		return nil, fmt.Errorf("geo: non-routable ip %s", ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint+"/"+ip, nil)
	if err != nil {
		return nil, fmt.Errorf("geo: build request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo: lookup failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo: unexpected status %d", resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geo: parse response: %w", err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("geo: lookup rejected: %s", body.Message)
	}
	return &LatLng{Latitude: body.Lat, Longitude: body.Lon}, nil
}
