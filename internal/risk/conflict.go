package risk

import "github.com/asgard/deconflict/internal/geometry"

// Conflict is an assessed, scored, severity-classified close approach
// between the primary mission and one other mission, collapsed to one
// representative per 10-second window.
type Conflict struct {
	Time               float64
	Location           geometry.Waypoint
	PrimaryDroneID     string
	OtherDroneID       string
	SeparationDistance float64
	RelativeVelocity   float64
	ConflictDuration   float64
	AltitudeRiskFactor float64
	RiskScore          float64
	Severity           Severity
	TimeToCollision    float64 // seconds; +Inf when relative velocity ~0
	Recommendation     string
}
