// Package mission defines the Mission type, a time-windowed polyline
// flight plan flown at a single constant cruise speed, and the in-memory
// registry other missions are checked against.
package mission

import (
	"errors"
	"sort"
	"sync"

	"github.com/asgard/deconflict/internal/geometry"
)

var (
	// ErrTooFewWaypoints is returned when a mission has fewer than two
	// waypoints; there is no segment to fly.
	ErrTooFewWaypoints = errors.New("mission: at least two waypoints are required")
	// ErrBadWindow is returned when end-time does not exceed start-time.
	ErrBadWindow = errors.New("mission: end-time must be greater than start-time")
	// ErrNegativeSpeed is returned when an explicit cruise speed is negative.
	ErrNegativeSpeed = errors.New("mission: cruise speed must not be negative")
	// ErrNegativeTime is returned when start-time is negative.
	ErrNegativeTime = errors.New("mission: start-time must not be negative")
)

// Mission is an ordered sequence of waypoints flown at a constant cruise
// speed over [StartTime, EndTime]. Immutable once constructed.
type Mission struct {
	DroneID     string
	Waypoints   []geometry.Waypoint
	StartTime   float64
	EndTime     float64
	CruiseSpeed float64
}

// New constructs and validates a Mission. If cruiseSpeed is nil, it is
// derived as total polyline length divided by (end - start).
func New(droneID string, waypoints []geometry.Waypoint, startTime, endTime float64, cruiseSpeed *float64) (*Mission, error) {
	if len(waypoints) < 2 {
		return nil, ErrTooFewWaypoints
	}
	if endTime <= startTime {
		return nil, ErrBadWindow
	}
	if startTime < 0 {
		return nil, ErrNegativeTime
	}
	if cruiseSpeed != nil && *cruiseSpeed < 0 {
		return nil, ErrNegativeSpeed
	}

	m := &Mission{
		DroneID:   droneID,
		Waypoints: waypoints,
		StartTime: startTime,
		EndTime:   endTime,
	}

	if cruiseSpeed != nil {
		m.CruiseSpeed = *cruiseSpeed
	} else {
		duration := endTime - startTime
		if duration > 0 {
			m.CruiseSpeed = m.TotalDistance() / duration
		}
	}

	return m, nil
}

// Duration returns EndTime - StartTime.
func (m *Mission) Duration() float64 {
	return m.EndTime - m.StartTime
}

// TotalDistance returns the sum of segment lengths along the polyline.
func (m *Mission) TotalDistance() float64 {
	total := 0.0
	for i := 0; i < len(m.Waypoints)-1; i++ {
		total += m.Waypoints[i].Distance(m.Waypoints[i+1])
	}
	return total
}

// BoundingBox returns the AABB enclosing the mission's waypoints.
func (m *Mission) BoundingBox() geometry.AABB {
	return geometry.BoundingBox(m.Waypoints)
}

// Trajectory builds the derived position/velocity view over this mission.
func (m *Mission) Trajectory() *geometry.Trajectory {
	return geometry.NewTrajectory(m.Waypoints, m.StartTime, m.EndTime, m.CruiseSpeed)
}

// Registry is an append-only, concurrency-safe map of drone-id to Mission.
// Re-registering an existing drone ID is last-write-wins; Register reports
// the overwrite so the caller can log it.
type Registry struct {
	mu       sync.RWMutex
	missions map[string]*Mission
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{missions: make(map[string]*Mission)}
}

// Register inserts a mission, overwriting any existing mission with the
// same drone ID. It reports whether an existing mission was overwritten.
func (r *Registry) Register(m *Mission) (overwrote bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, overwrote = r.missions[m.DroneID]
	r.missions[m.DroneID] = m
	return overwrote
}

// Others returns every registered mission except the one matching
// excludeID, as a stable-ordered slice (sorted by drone ID) so downstream
// stages behave deterministically given a fixed registry snapshot.
func (r *Registry) Others(excludeID string) []*Mission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Mission, 0, len(r.missions))
	for id, m := range r.missions {
		if id != excludeID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DroneID < out[j].DroneID })
	return out
}

// Len returns the number of registered missions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.missions)
}
