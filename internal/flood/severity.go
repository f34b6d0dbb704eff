package flood

// Thresholds are the named severity boundaries. The zero value is not
// usable; start from DefaultThresholds and override through config.
type Thresholds struct {
	// OverlapAlert: more than this many alerts inside affected areas
	// escalates to Alert.
	OverlapAlert int
	// AreasAlert: more than this many affected areas escalates to Alert.
	AreasAlert int
	// WazeAttention: more than this many flood alerts city-wide raises
	// Attention even with no affected areas.
	WazeAttention int
	// CriticalStatus: any polygon at or above this status code makes
	// the whole assessment Critical.
	CriticalStatus int
}

// DefaultThresholds match the operational values the city dashboards
// were tuned to.
var DefaultThresholds = Thresholds{
	OverlapAlert:   5,
	AreasAlert:     10,
	WazeAttention:  10,
	CriticalStatus: 3,
}

// Classify maps the polygon set and the cycle metrics to a severity.
// Rules are evaluated top to bottom, first match wins:
//
//  1. any polygon status >= CriticalStatus      -> Critical
//  2. overlap > OverlapAlert or areas > AreasAlert -> Alert
//  3. areas > 0 or alerts > WazeAttention       -> Attention
//  4. otherwise                                 -> Normal
//
// With zero polygons rule 1 simply never matches.
func Classify(polygons []Polygon, m Metrics, t Thresholds) Severity {
	level := LevelNormal

	critical := false
	for _, p := range polygons {
		if p.Status >= t.CriticalStatus {
			critical = true
			break
		}
	}

	switch {
	case critical:
		level = LevelCritical
	case m.AlertsInAreasCount > t.OverlapAlert || m.AffectedAreaCount > t.AreasAlert:
		level = LevelAlert
	case m.AffectedAreaCount > 0 || m.WazeFloodCount > t.WazeAttention:
		level = LevelAttention
	}

	return Severity{Level: level, Label: LabelFor(level)}
}
