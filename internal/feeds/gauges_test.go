package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const gaugesPayload = `{
	"stations": [
		{
			"name": "Tijuca",
			"location": {"lat": -22.9324, "lng": -43.2435},
			"rain": {"m05": 0.2, "m15": 0.8, "h01": 2.4, "h24": 10.1, "month": 142.6}
		},
		{
			"name": "Centro",
			"location": {"lat": -22.9068, "lng": -43.1729},
			"rain": {}
		}
	]
}`

func TestDecodeStations(t *testing.T) {
	stations, err := decodeStations([]byte(gaugesPayload))
	if err != nil {
		t.Fatalf("decodeStations() error = %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("len(stations) = %d, want 2", len(stations))
	}

	first := stations[0]
	if first.Name != "Tijuca" {
		t.Errorf("Name = %q, want %q", first.Name, "Tijuca")
	}
	if first.Location.Lat != -22.9324 || first.Location.Lng != -43.2435 {
		t.Errorf("Location = %+v, want lat -22.9324 lng -43.2435", first.Location)
	}
	if first.Rain.Hour1 != 2.4 {
		t.Errorf("Rain.Hour1 = %v, want 2.4", first.Rain.Hour1)
	}
	if first.Rain.Month != 142.6 {
		t.Errorf("Rain.Month = %v, want 142.6", first.Rain.Month)
	}

	// Absent accumulation fields read as zero.
	second := stations[1]
	if second.Rain.Hour1 != 0 || second.Rain.Hour24 != 0 {
		t.Errorf("missing rain fields = %+v, want zeros", second.Rain)
	}
}

func TestDecodeStations_BareArray(t *testing.T) {
	payload := `[{"name": "Urca", "location": {"lat": -22.95, "lng": -43.16}, "rain": {"h01": 1.0}}]`

	stations, err := decodeStations([]byte(payload))
	if err != nil {
		t.Fatalf("decodeStations() error = %v", err)
	}
	if len(stations) != 1 {
		t.Fatalf("len(stations) = %d, want 1", len(stations))
	}
	if stations[0].Name != "Urca" {
		t.Errorf("Name = %q, want %q", stations[0].Name, "Urca")
	}
}

func TestDecodeStations_MissingShape(t *testing.T) {
	// Valid JSON without the expected shape is an empty reading, not an
	// error.
	for _, payload := range []string{`{}`, `{"other": 1}`, `{"stations": null}`} {
		stations, err := decodeStations([]byte(payload))
		if err != nil {
			t.Errorf("decodeStations(%q) error = %v, want nil", payload, err)
		}
		if len(stations) != 0 {
			t.Errorf("decodeStations(%q) = %d stations, want 0", payload, len(stations))
		}
	}
}

func TestDecodeStations_InvalidJSON(t *testing.T) {
	if _, err := decodeStations([]byte(`<html>maintenance</html>`)); err == nil {
		t.Error("decodeStations() error = nil, want parse error")
	}
}

func TestDecodeStations_ClampsNegativeRain(t *testing.T) {
	payload := `[{"name": "Anchieta", "location": {"lat": -22.82, "lng": -43.4}, "rain": {"h01": -0.1, "h24": 3.2}}]`

	stations, err := decodeStations([]byte(payload))
	if err != nil {
		t.Fatalf("decodeStations() error = %v", err)
	}
	if got := stations[0].Rain.Hour1; got != 0 {
		t.Errorf("Rain.Hour1 = %v, want 0 after clamping", got)
	}
	if got := stations[0].Rain.Hour24; got != 3.2 {
		t.Errorf("Rain.Hour24 = %v, want 3.2", got)
	}
}

func TestGaugesClient_Stations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("request has no User-Agent header")
		}
		w.Write([]byte(gaugesPayload))
	}))
	defer srv.Close()

	client := NewGaugesClient(srv.URL)
	stations, err := client.Stations(context.Background())
	if err != nil {
		t.Fatalf("Stations() error = %v", err)
	}
	if len(stations) != 2 {
		t.Errorf("len(stations) = %d, want 2", len(stations))
	}
}

func TestGaugesClient_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(gaugesPayload))
	}))
	defer srv.Close()

	client := NewGaugesClient(srv.URL)
	stations, err := client.Stations(context.Background())
	if err != nil {
		t.Fatalf("Stations() error = %v", err)
	}
	if len(stations) != 2 {
		t.Errorf("len(stations) = %d, want 2", len(stations))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}
}

func TestGaugesClient_NoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewGaugesClient(srv.URL)
	if _, err := client.Stations(context.Background()); err == nil {
		t.Fatal("Stations() error = nil, want error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}
