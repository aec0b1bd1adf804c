package pipeline

import (
	"math"

	"github.com/asgard/deconflict/internal/risk"
)

type wirePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type wireConflict struct {
	Time               float64   `json:"time"`
	Location           wirePoint `json:"location"`
	ConflictingDrone   string    `json:"conflicting_drone"`
	Severity           string    `json:"severity"`
	RiskScore          float64   `json:"risk_score"`
	SeparationDistance float64   `json:"separation_distance"`
	RelativeVelocity   float64   `json:"relative_velocity"`
	TimeToCollision    *float64  `json:"time_to_collision"`
	ConflictDuration   float64   `json:"conflict_duration"`
	AltitudeRiskFactor float64   `json:"altitude_risk_factor"`
	Recommendation     string    `json:"recommendation"`
}

// Result is the persisted deconfliction-result JSON layout consumed by
// external visualization collaborators.
type Result struct {
	IsClear        bool           `json:"is_clear"`
	AnalysisTimeMS float64        `json:"analysis_time_ms"`
	Metrics        map[string]any `json:"metrics"`
	Conflicts      []wireConflict `json:"conflicts"`
}

// ToResult renders a Check outcome in the persisted wire layout. A +Inf
// time-to-collision serializes as null, since encoding/json cannot encode
// a literal Infinity.
func ToResult(isClear bool, conflicts []risk.Conflict, metrics Metrics) Result {
	wire := make([]wireConflict, len(conflicts))
	for i, c := range conflicts {
		var ttc *float64
		if !math.IsInf(c.TimeToCollision, 1) {
			v := c.TimeToCollision
			ttc = &v
		}

		wire[i] = wireConflict{
			Time:               c.Time,
			Location:           wirePoint{X: c.Location.X, Y: c.Location.Y, Z: c.Location.Z},
			ConflictingDrone:   c.OtherDroneID,
			Severity:           c.Severity.String(),
			RiskScore:          c.RiskScore,
			SeparationDistance: c.SeparationDistance,
			RelativeVelocity:   c.RelativeVelocity,
			TimeToCollision:    ttc,
			ConflictDuration:   c.ConflictDuration,
			AltitudeRiskFactor: c.AltitudeRiskFactor,
			Recommendation:     c.Recommendation,
		}
	}

	return Result{
		IsClear:        isClear,
		AnalysisTimeMS: metrics.TotalTimeMS,
		Metrics:        metrics.ToMap(),
		Conflicts:      wire,
	}
}
