package flood

import (
	"time"
)

// Guard default parameters.
const (
	DefaultGuardWindow    = 6 * time.Hour
	DefaultGuardMinAlerts = 3
)

// Guard gates whether a cycle is recorded at all. A city with almost no
// recent flood reports has no credible flood signal, and recording such
// cycles would pollute the history with noise.
type Guard struct {
	// Window is the trailing period alert publications are counted in.
	Window time.Duration
	// MinAlerts is the minimum number of recently-published alerts for
	// a cycle to proceed.
	MinAlerts int
}

// DefaultGuard requires 3 flood alerts published in the trailing 6 hours.
var DefaultGuard = Guard{
	Window:    DefaultGuardWindow,
	MinAlerts: DefaultGuardMinAlerts,
}

// Evaluate counts alerts published within the trailing window ending at
// now and reports whether the cycle should be recorded. Alerts without
// a publication timestamp carry no evidence of recency and are not
// counted.
func (g Guard) Evaluate(alerts []Alert, now time.Time) (ok bool, recent int) {
	cutoff := now.Add(-g.Window)
	for _, a := range alerts {
		if a.PublishedAt.IsZero() {
			continue
		}
		if !a.PublishedAt.Before(cutoff) {
			recent++
		}
	}
	return recent >= g.MinAlerts, recent
}
