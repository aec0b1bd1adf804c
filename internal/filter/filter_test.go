package filter

import (
	"math/rand"
	"testing"

	"github.com/asgard/deconflict/internal/geometry"
	"github.com/asgard/deconflict/internal/mission"
)

func straightPrimary(t *testing.T) *mission.Mission {
	t.Helper()
	m, err := mission.New("primary", []geometry.Waypoint{{X: 0, Y: 0, Z: 100}, {X: 1000, Y: 0, Z: 100}}, 0, 100, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

// TestFilterDropsDistantMission: a mission 5000m away on the Y axis is
// dropped at the bounding-box tier even though the time windows overlap.
func TestFilterDropsDistantMission(t *testing.T) {
	primary := straightPrimary(t)
	distant, err := mission.New("far", []geometry.Waypoint{{X: 0, Y: 5000, Z: 100}, {X: 1000, Y: 5000, Z: 100}}, 0, 100, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	candidates, report := Filter(primary, []*mission.Mission{distant}, DefaultConfig())
	if len(candidates) != 0 {
		t.Errorf("Filter() kept %d candidates, want 0", len(candidates))
	}
	if report.AfterTemporal != 1 {
		t.Errorf("temporal tier should not have dropped a time-overlapping mission, AfterTemporal = %d", report.AfterTemporal)
	}
	if report.AfterBBox != 0 {
		t.Errorf("bbox tier should have dropped the 5000m-distant mission, AfterBBox = %d", report.AfterBBox)
	}
}

// TestFilterKeepsTemporallyDisjointWithinMargin: a window ending exactly
// at primary.start - time_margin still touches the widened window.
func TestFilterKeepsTemporallyDisjointWithinMargin(t *testing.T) {
	// The primary starts late enough that primary.start - time_margin is
	// still a valid, non-negative mission time.
	primary, err := mission.New("primary", []geometry.Waypoint{{X: 0, Y: 0, Z: 100}, {X: 1000, Y: 0, Z: 100}}, 100, 200, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	cfg := DefaultConfig()

	touching, err := mission.New("touching", []geometry.Waypoint{{X: 0, Y: 0, Z: 100}, {X: 10, Y: 0, Z: 100}}, primary.StartTime-cfg.TimeMargin-10, primary.StartTime-cfg.TimeMargin, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, report := Filter(primary, []*mission.Mission{touching}, cfg)
	if report.AfterTemporal != 1 {
		t.Errorf("mission ending exactly at primary.start - time_margin should survive the temporal tier")
	}
}

func TestFilterDropsTemporallyDisjointMission(t *testing.T) {
	primary := straightPrimary(t)
	cfg := DefaultConfig()

	farInTime, err := mission.New("later", []geometry.Waypoint{{X: 0, Y: 0, Z: 100}, {X: 10, Y: 0, Z: 100}}, primary.EndTime+cfg.TimeMargin+100, primary.EndTime+cfg.TimeMargin+200, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	candidates, _ := Filter(primary, []*mission.Mission{farInTime}, cfg)
	if len(candidates) != 0 {
		t.Errorf("Filter() kept a mission whose window starts well past the widened primary window")
	}
}

// TestFilterKeepsAntiParallelCloseMission: an anti-parallel trajectory
// overlapping in both bbox and coarse sampling survives all three tiers.
func TestFilterKeepsAntiParallelCloseMission(t *testing.T) {
	primary := straightPrimary(t)
	antiParallel, err := mission.New("anti", []geometry.Waypoint{{X: 1000, Y: 0, Z: 100}, {X: 0, Y: 0, Z: 100}}, 0, 100, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	candidates, report := Filter(primary, []*mission.Mission{antiParallel}, DefaultConfig())
	if len(candidates) != 1 {
		t.Errorf("Filter() kept %d candidates, want 1 (anti-parallel mission should survive all tiers)", len(candidates))
	}
	if report.AfterCoarse != 1 {
		t.Errorf("AfterCoarse = %d, want 1", report.AfterCoarse)
	}
}

// TestFilterIsConservative drives random mission pairs through the filter
// and checks it never rejects a pair that actually comes close: whenever
// the two trajectories are within the coarse buffer at a shared sampling
// instant, the candidate must survive every tier.
func TestFilterIsConservative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := DefaultConfig()

	for trial := 0; trial < 200; trial++ {
		primary := randomMission(t, rng, "primary")
		other := randomMission(t, rng, "other")

		if !everComesClose(primary, other) {
			continue
		}

		candidates, _ := Filter(primary, []*mission.Mission{other}, cfg)
		if len(candidates) != 1 {
			t.Errorf("trial %d: filter rejected a mission that passes within %gm of the primary", trial, coarseBuffer)
		}
	}
}

func randomMission(t *testing.T, rng *rand.Rand, id string) *mission.Mission {
	t.Helper()
	waypoints := []geometry.Waypoint{
		{X: rng.Float64() * 2000, Y: rng.Float64() * 2000, Z: rng.Float64() * 200},
		{X: rng.Float64() * 2000, Y: rng.Float64() * 2000, Z: rng.Float64() * 200},
	}
	start := rng.Float64() * 50
	m, err := mission.New(id, waypoints, start, start+50+rng.Float64()*100, nil)
	if err != nil {
		t.Fatalf("random mission: %v", err)
	}
	return m
}

// everComesClose samples both trajectories on the same grid the coarse
// tier uses and reports whether any sample falls inside the coarse buffer.
func everComesClose(a, b *mission.Mission) bool {
	start := a.StartTime
	if b.StartTime > start {
		start = b.StartTime
	}
	end := a.EndTime
	if b.EndTime < end {
		end = b.EndTime
	}
	if start >= end {
		return false
	}

	trajA, trajB := a.Trajectory(), b.Trajectory()
	for t := start; t < end; t += coarseStride {
		pa, okA := trajA.Position(t)
		pb, okB := trajB.Position(t)
		if okA && okB && pa.Distance(pb) < coarseBuffer {
			return true
		}
	}
	return false
}
