package mission

import "github.com/asgard/deconflict/internal/geometry"

// wireWaypoint is the persisted waypoint layout.
type wireWaypoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Wire is the bit-level stable JSON layout consumed/produced by external
// visualization collaborators.
type Wire struct {
	DroneID       string         `json:"drone_id"`
	StartTime     float64        `json:"start_time"`
	EndTime       float64        `json:"end_time"`
	CruiseSpeed   float64        `json:"cruise_speed"`
	Waypoints     []wireWaypoint `json:"waypoints"`
	TotalDistance float64        `json:"total_distance"`
	Duration      float64        `json:"duration"`
}

// ToWire renders the mission in the persisted JSON layout.
func (m *Mission) ToWire() Wire {
	wps := make([]wireWaypoint, len(m.Waypoints))
	for i, wp := range m.Waypoints {
		wps[i] = wireWaypoint{X: wp.X, Y: wp.Y, Z: wp.Z}
	}
	return Wire{
		DroneID:       m.DroneID,
		StartTime:     m.StartTime,
		EndTime:       m.EndTime,
		CruiseSpeed:   m.CruiseSpeed,
		Waypoints:     wps,
		TotalDistance: m.TotalDistance(),
		Duration:      m.Duration(),
	}
}

// FromWire constructs and validates a Mission from the persisted layout.
// CruiseSpeed is treated as explicit whenever it is non-zero in the wire
// payload; a zero value is ambiguous with "omitted", so callers wanting
// the speed derived from path length and window send 0.
func FromWire(w Wire) (*Mission, error) {
	waypoints := make([]geometry.Waypoint, len(w.Waypoints))
	for i, wp := range w.Waypoints {
		waypoints[i] = geometry.Waypoint{X: wp.X, Y: wp.Y, Z: wp.Z}
	}

	var speed *float64
	if w.CruiseSpeed != 0 {
		speed = &w.CruiseSpeed
	}

	return New(w.DroneID, waypoints, w.StartTime, w.EndTime, speed)
}
