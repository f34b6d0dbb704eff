package httputil

import (
	"context"
	"net/http"
	"time"
)

const (
	// DefaultTimeout caps any single upstream exchange. Per-fetch
	// deadlines are tighter and carried by the request context.
	DefaultTimeout = 30 * time.Second

	// UserAgent identifies us to the municipal and Waze endpoints.
	UserAgent = "floodwatch/1.0 (city flood monitor)"
)

// NewClient returns an HTTP client with standard timeout configuration.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
	}
}

// NewRequest builds a GET request carrying the shared User-Agent.
func NewRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	return req, nil
}
