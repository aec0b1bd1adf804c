// Package grid implements Stage 2 of the deconfliction pipeline: a sparse
// 4-D occupancy grid over candidate trajectories, queried against the
// primary trajectory through a 3×3×3×3 cell neighborhood.
package grid

import (
	"math"

	"github.com/asgard/deconflict/internal/geometry"
	"github.com/asgard/deconflict/internal/mission"
)

// Config holds the Stage-2 cell size and temporal resolution.
type Config struct {
	CellSize       float64 // meters, default 100
	TimeResolution float64 // seconds, default 1.0
}

// DefaultConfig returns the standard cell geometry.
func DefaultConfig() Config {
	return Config{CellSize: 100, TimeResolution: 1.0}
}

// cellKey packs the 4 grid indices into a single comparable map key.
type cellKey struct{ ix, iy, iz, it int64 }

type entry struct {
	DroneID  string
	Position geometry.Waypoint
}

// Grid is the transient, per-check sparse 4-D index. Build clears and
// repopulates it; callers should discard the Grid (or call Build again)
// between checks so steady-state memory stays proportional to the
// registry, not the check history.
type Grid struct {
	cfg     Config
	buckets map[cellKey][]entry
}

// New creates an empty grid with the given configuration.
func New(cfg Config) *Grid {
	return &Grid{cfg: cfg, buckets: make(map[cellKey][]entry)}
}

func (g *Grid) cell(pos geometry.Waypoint, t float64) cellKey {
	return cellKey{
		ix: int64(math.Floor(pos.X / g.cfg.CellSize)),
		iy: int64(math.Floor(pos.Y / g.cfg.CellSize)),
		iz: int64(math.Floor(pos.Z / g.cfg.CellSize)),
		it: int64(math.Floor(t / g.cfg.TimeResolution)),
	}
}

// Build samples every candidate's trajectory at TimeResolution across its
// own time window and buckets each sample by 4-D cell.
func (g *Grid) Build(candidates []*mission.Mission) {
	g.buckets = make(map[cellKey][]entry)

	for _, m := range candidates {
		traj := m.Trajectory()
		for t := m.StartTime; t < m.EndTime; t += g.cfg.TimeResolution {
			pos, ok := traj.Position(t)
			if !ok {
				continue
			}
			key := g.cell(pos, t)
			g.buckets[key] = append(g.buckets[key], entry{DroneID: m.DroneID, Position: pos})
		}
	}
}

// ProximityEvent is a raw Stage-2 hit: the primary was within the dynamic
// safety buffer of another mission at a sampled instant. Event emission
// order is a function of cell-iteration order and must be treated as
// unordered by Stage 3.
type ProximityEvent struct {
	Time         float64
	Position     geometry.Waypoint
	OtherDroneID string
	Separation   float64
}

// neighborOffsets is the 3×3×3×3 neighborhood searched per sample. Exact
// recall holds only while the safety buffer stays at or below CellSize:
// past that, events near cell boundaries can be under-reported. Operators
// running faster traffic should enlarge CellSize with the buffer.
var neighborOffsets = func() []cellKey {
	offsets := make([]cellKey, 0, 81)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for dt := int64(-1); dt <= 1; dt++ {
					offsets = append(offsets, cellKey{dx, dy, dz, dt})
				}
			}
		}
	}
	return offsets
}()

// Query sweeps the primary trajectory and emits a ProximityEvent for every
// grid entry within safetyBuffer of a sample.
func (g *Grid) Query(primary *mission.Mission, safetyBuffer float64) []ProximityEvent {
	traj := primary.Trajectory()

	dt := g.cfg.TimeResolution
	if traj.Speed > 0 {
		if adaptive := safetyBuffer / (2 * traj.Speed); adaptive < dt {
			dt = adaptive
		}
	}

	var events []ProximityEvent
	for t := primary.StartTime; t < primary.EndTime; t += dt {
		pos, ok := traj.Position(t)
		if !ok {
			continue
		}

		center := g.cell(pos, t)
		for _, off := range neighborOffsets {
			key := cellKey{center.ix + off.ix, center.iy + off.iy, center.iz + off.iz, center.it + off.it}
			for _, e := range g.buckets[key] {
				if sep := pos.Distance(e.Position); sep < safetyBuffer {
					events = append(events, ProximityEvent{
						Time:         t,
						Position:     pos,
						OtherDroneID: e.DroneID,
						Separation:   sep,
					})
				}
			}
		}
	}
	return events
}
