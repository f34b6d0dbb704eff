// Package feeds contains the HTTP clients for the three flood
// upstreams: rain-gauge telemetry, risk-zone polygons, and the Waze
// hazard feed. The clients normalize the raw payloads into the engine's
// types and absorb the feeds' JSON quirks. Guard, fusion, and
// persistence are the orchestrator's business.
package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rafaelq/floodwatch/internal/httputil"
)

// fetchJSON GETs url and returns the body. Transient upstream failures
// (429 and 5xx, plus transport errors) are retried with capped
// exponential backoff; the caller's context deadline bounds the whole
// exchange. Any other non-200 status is permanent. Only the
// load-bearing feeds use this: a gauges or zones failure aborts the
// whole refresh cycle.
func fetchJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := httputil.NewRequest(ctx, url)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("unexpected status: %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// getJSON GETs url once, no retry.
func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := httputil.NewRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// flexString tolerates identifiers served as strings or numbers. The
// municipal endpoints switch between the two across deployments.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// pointJSON is a {lat, lng} pair as the municipal feeds serve it.
type pointJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
