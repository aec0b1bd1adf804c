// Package filter implements Stage 1 of the deconfliction pipeline: three
// cascading cheap tests (temporal, bounding-box, coarse time-sampled
// proximity) that cut a large registry down to the handful of missions
// worth running through the occupancy grid.
package filter

import (
	"github.com/asgard/deconflict/internal/mission"
)

// Config holds the Stage-1 filter margins.
type Config struct {
	TimeMargin    float64 // seconds, default 30
	SpatialMargin float64 // meters, default 500
}

// DefaultConfig returns the standard margins.
func DefaultConfig() Config {
	return Config{TimeMargin: 30, SpatialMargin: 500}
}

const (
	coarseStride = 10.0  // seconds
	coarseBuffer = 200.0 // meters
)

// Report carries per-tier survivor counts for operator reporting; none of
// the counts affect the candidate list itself.
type Report struct {
	Initial, AfterTemporal, AfterBBox, AfterCoarse int
}

// Filter reduces allMissions to the candidates that might conflict with
// primary, running the three tiers in order (cheapest first).
func Filter(primary *mission.Mission, allMissions []*mission.Mission, cfg Config) ([]*mission.Mission, Report) {
	report := Report{Initial: len(allMissions)}

	temporal := temporalFilter(primary, allMissions, cfg.TimeMargin)
	report.AfterTemporal = len(temporal)

	bbox := bboxFilter(primary, temporal, cfg.SpatialMargin)
	report.AfterBBox = len(bbox)

	coarse := coarseFilter(primary, bbox)
	report.AfterCoarse = len(coarse)

	return coarse, report
}

// temporalFilter drops any mission whose time window is disjoint from the
// primary's window widened by ±timeMargin.
func temporalFilter(primary *mission.Mission, missions []*mission.Mission, timeMargin float64) []*mission.Mission {
	windowStart := primary.StartTime - timeMargin
	windowEnd := primary.EndTime + timeMargin

	out := make([]*mission.Mission, 0, len(missions))
	for _, m := range missions {
		if !(m.EndTime < windowStart || m.StartTime > windowEnd) {
			out = append(out, m)
		}
	}
	return out
}

// bboxFilter drops any candidate whose AABB does not intersect the
// primary's AABB widened by spatialMargin.
func bboxFilter(primary *mission.Mission, missions []*mission.Mission, spatialMargin float64) []*mission.Mission {
	widened := primary.BoundingBox().Widen(spatialMargin)

	out := make([]*mission.Mission, 0, len(missions))
	for _, m := range missions {
		if widened.Intersects(m.BoundingBox()) {
			out = append(out, m)
		}
	}
	return out
}

// coarseFilter samples both trajectories at a 10s stride across their
// overlapping window and keeps any mission that ever comes within
// coarseBuffer of the primary.
func coarseFilter(primary *mission.Mission, missions []*mission.Mission) []*mission.Mission {
	primaryTraj := primary.Trajectory()

	out := make([]*mission.Mission, 0, len(missions))
	for _, m := range missions {
		start := max(primary.StartTime, m.StartTime)
		end := min(primary.EndTime, m.EndTime)
		if start >= end {
			continue
		}

		traj := m.Trajectory()
		isCandidate := false
		for t := start; t < end; t += coarseStride {
			p1, ok1 := primaryTraj.Position(t)
			p2, ok2 := traj.Position(t)
			if ok1 && ok2 && p1.Distance(p2) < coarseBuffer {
				isCandidate = true
				break
			}
		}

		if isCandidate {
			out = append(out, m)
		}
	}
	return out
}
