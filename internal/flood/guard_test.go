package flood

import (
	"testing"
	"time"
)

func TestGuardEvaluate(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	publishedAgo := func(d time.Duration) Alert {
		return Alert{ID: "a", PublishedAt: now.Add(-d)}
	}

	tests := []struct {
		name       string
		guard      Guard
		alerts     []Alert
		wantOK     bool
		wantRecent int
	}{
		{
			name:       "no alerts",
			guard:      DefaultGuard,
			alerts:     nil,
			wantOK:     false,
			wantRecent: 0,
		},
		{
			name:  "two recent alerts are not enough",
			guard: DefaultGuard,
			alerts: []Alert{
				publishedAgo(10 * time.Minute),
				publishedAgo(2 * time.Hour),
			},
			wantOK:     false,
			wantRecent: 2,
		},
		{
			name:  "three recent alerts proceed",
			guard: DefaultGuard,
			alerts: []Alert{
				publishedAgo(10 * time.Minute),
				publishedAgo(2 * time.Hour),
				publishedAgo(5 * time.Hour),
			},
			wantOK:     true,
			wantRecent: 3,
		},
		{
			name:  "stale alerts fall outside the window",
			guard: DefaultGuard,
			alerts: []Alert{
				publishedAgo(10 * time.Minute),
				publishedAgo(7 * time.Hour),
				publishedAgo(26 * time.Hour),
			},
			wantOK:     false,
			wantRecent: 1,
		},
		{
			name:  "publication exactly at the window edge counts",
			guard: DefaultGuard,
			alerts: []Alert{
				publishedAgo(6 * time.Hour),
				publishedAgo(1 * time.Hour),
				publishedAgo(1 * time.Minute),
			},
			wantOK:     true,
			wantRecent: 3,
		},
		{
			name:  "alerts without timestamps are ignored",
			guard: DefaultGuard,
			alerts: []Alert{
				{ID: "untimed1"},
				{ID: "untimed2"},
				{ID: "untimed3"},
				publishedAgo(time.Hour),
			},
			wantOK:     false,
			wantRecent: 1,
		},
		{
			name:  "custom window and minimum",
			guard: Guard{Window: time.Hour, MinAlerts: 1},
			alerts: []Alert{
				publishedAgo(30 * time.Minute),
				publishedAgo(3 * time.Hour),
			},
			wantOK:     true,
			wantRecent: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, recent := tt.guard.Evaluate(tt.alerts, now)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if recent != tt.wantRecent {
				t.Errorf("recent = %d, want %d", recent, tt.wantRecent)
			}
		})
	}
}
