// Package risk implements Stage 3 of the deconfliction pipeline: grouping
// raw proximity events per (other-mission, time-bucket), computing
// relative velocity / time-to-collision / duration / altitude factor, and
// combining them into a severity-graded, ranked, de-duplicated conflict
// list.
package risk

import (
	"math"
	"sort"

	"github.com/asgard/deconflict/internal/grid"
	"github.com/asgard/deconflict/internal/mission"
)

const bucketWidth = 10.0 // seconds

type groupKey struct {
	otherID string
	bucket  int64
}

// Assess groups rawEvents by (other-mission, 10s bucket), scores the
// representative (minimum-separation) event in each group, and returns
// the conflicts sorted by risk score descending, ties broken by
// (earlier time, lexicographic other-mission-id) so map iteration order
// never leaks into the output.
func Assess(primary *mission.Mission, rawEvents []grid.ProximityEvent, candidates map[string]*mission.Mission, cfg Config) []Conflict {
	primaryTraj := primary.Trajectory()
	primaryAltitude := meanAltitude(primary)

	groups := make(map[groupKey][]grid.ProximityEvent)
	for _, e := range rawEvents {
		key := groupKey{otherID: e.OtherDroneID, bucket: int64(math.Floor(e.Time / bucketWidth))}
		groups[key] = append(groups[key], e)
	}

	otherAltitudes := make(map[string]float64, len(candidates))

	conflicts := make([]Conflict, 0, len(groups))
	for key, events := range groups {
		other, ok := candidates[key.otherID]
		if !ok {
			continue
		}

		rep := events[0]
		minTime, maxTime := rep.Time, rep.Time
		for _, e := range events[1:] {
			if e.Separation < rep.Separation {
				rep = e
			}
			if e.Time < minTime {
				minTime = e.Time
			}
			if e.Time > maxTime {
				maxTime = e.Time
			}
		}

		otherTraj := other.Trajectory()
		primaryVel, okP := primaryTraj.Velocity(rep.Time)
		otherVel, okO := otherTraj.Velocity(rep.Time)
		if !okP || !okO {
			continue
		}

		relVel := primaryVel.Sub(otherVel).Length()

		ttc := math.Inf(1)
		if relVel > 0.1 {
			ttc = rep.Separation / relVel
		}

		duration := maxTime - minTime

		otherAltitude, cached := otherAltitudes[key.otherID]
		if !cached {
			otherAltitude = meanAltitude(other)
			otherAltitudes[key.otherID] = otherAltitude
		}
		altitudeRisk := altitudeRiskFactor(math.Abs(primaryAltitude - otherAltitude))

		score := computeRiskScore(rep.Separation, relVel, duration, altitudeRisk, ttc)
		severity := classify(score)

		conflicts = append(conflicts, Conflict{
			Time:               rep.Time,
			Location:           rep.Position,
			PrimaryDroneID:     primary.DroneID,
			OtherDroneID:       key.otherID,
			SeparationDistance: rep.Separation,
			RelativeVelocity:   relVel,
			ConflictDuration:   duration,
			AltitudeRiskFactor: altitudeRisk,
			RiskScore:          score,
			Severity:           severity,
			TimeToCollision:    ttc,
			Recommendation:     recommend(severity, ttc, relVel),
		})
	}

	sort.Slice(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.RiskScore != b.RiskScore {
			return a.RiskScore > b.RiskScore
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.OtherDroneID < b.OtherDroneID
	})

	return conflicts
}

func meanAltitude(m *mission.Mission) float64 {
	sum := 0.0
	for _, wp := range m.Waypoints {
		sum += wp.Z
	}
	return sum / float64(len(m.Waypoints))
}

// altitudeRiskFactor converts vertical separation between two missions'
// mean altitudes into the multiplier in {1.0, 1.2, 1.5, 2.0}.
func altitudeRiskFactor(verticalSeparation float64) float64 {
	switch {
	case verticalSeparation < 30:
		return 2.0
	case verticalSeparation < 50:
		return 1.5
	case verticalSeparation < 100:
		return 1.2
	default:
		return 1.0
	}
}

// computeRiskScore combines the four normalized factors into a [0,1]
// score. The ttc factor is clipped to 1.0 below 5s; from 5s on it follows
// the linear ramp 1 - (ttc-5)/20, which starts at 1.0, so the two pieces
// meet at ttc=5.
func computeRiskScore(separation, relVel, duration, altitudeRisk, ttc float64) float64 {
	sepFactor := math.Max(0, 1-separation/100.0)
	velFactor := math.Min(1, relVel/40.0)
	durFactor := math.Min(1, duration/30.0)

	var ttcFactor float64
	if ttc < 5.0 {
		ttcFactor = 1.0
	} else {
		ttcFactor = math.Max(0, 1-(ttc-5)/20.0)
	}

	score := (0.40*sepFactor + 0.25*velFactor + 0.15*durFactor + 0.20*ttcFactor) * altitudeRisk
	return math.Min(1, score)
}

// recommend maps severity plus the auxiliary ttc/velocity predicates to
// an operator-facing action string.
func recommend(severity Severity, ttc, relVel float64) string {
	switch severity {
	case Critical:
		if ttc < 5.0 {
			return "REJECT — imminent collision"
		}
		return "REJECT — critical separation violation"
	case High:
		if relVel > 30 {
			return "REJECT — high relative velocity, delay 60 s"
		}
		return "WARN — altitude +50 m or delay 30 s"
	case Warning:
		return "CAUTION — monitor or retime"
	case Low:
		return "ADVISORY — low risk"
	default:
		return "CLEAR"
	}
}
