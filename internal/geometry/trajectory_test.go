package geometry

import (
	"math"
	"testing"
)

func straightLine() []Waypoint {
	return []Waypoint{{X: 0, Y: 0, Z: 0}, {X: 100, Y: 0, Z: 0}}
}

func TestTrajectoryPositionMidpoint(t *testing.T) {
	traj := NewTrajectory(straightLine(), 0, 10, 10) // 100m at 10 m/s = 10s

	pos, ok := traj.Position(5)
	if !ok {
		t.Fatalf("Position(5) reported out of bounds")
	}
	if math.Abs(pos.X-50) > 1e-6 {
		t.Errorf("Position(5).X = %.4f, want 50", pos.X)
	}
}

func TestTrajectoryPositionBounds(t *testing.T) {
	traj := NewTrajectory(straightLine(), 0, 10, 10)

	if _, ok := traj.Position(-0.01); ok {
		t.Errorf("Position before start_time should be out of bounds")
	}
	if _, ok := traj.Position(10.01); ok {
		t.Errorf("Position after end_time should be out of bounds")
	}
	if _, ok := traj.Position(0); !ok {
		t.Errorf("Position at start_time should be in bounds")
	}
	if _, ok := traj.Position(10); !ok {
		t.Errorf("Position at end_time should be in bounds")
	}
}

func TestTrajectoryVelocityDirection(t *testing.T) {
	traj := NewTrajectory(straightLine(), 0, 10, 10)

	v, ok := traj.Velocity(5)
	if !ok {
		t.Fatalf("Velocity(5) reported out of bounds")
	}
	if math.Abs(v.X-10) > 1e-6 || v.Y != 0 || v.Z != 0 {
		t.Errorf("Velocity(5) = %+v, want {10 0 0}", v)
	}
}

// TestTrajectoryMissionWindowExceedsSegmentTable covers the case the
// mission's declared end_time runs past the point where the segment table
// reaches the final waypoint, i.e. an explicit, faster-than-derived cruise
// speed. Position holds at the last waypoint rather than reporting out of
// bounds.
func TestTrajectoryMissionWindowExceedsSegmentTable(t *testing.T) {
	traj := NewTrajectory(straightLine(), 0, 20, 10) // segment table ends at t=10, mission window ends at t=20

	pos, ok := traj.Position(15)
	if !ok {
		t.Fatalf("Position(15) reported out of bounds, want fallback to final waypoint")
	}
	if math.Abs(pos.X-100) > 1e-6 {
		t.Errorf("Position(15).X = %.4f, want 100 (held at final waypoint)", pos.X)
	}
}

func TestTrajectoryMultiSegment(t *testing.T) {
	waypoints := []Waypoint{
		{X: 0, Y: 0, Z: 0},
		{X: 100, Y: 0, Z: 0},
		{X: 100, Y: 100, Z: 0},
	}
	traj := NewTrajectory(waypoints, 0, 20, 10) // 100m + 100m at 10 m/s = 20s total

	atJoint, ok := traj.Position(10)
	if !ok {
		t.Fatalf("Position(10) reported out of bounds")
	}
	if math.Abs(atJoint.X-100) > 1e-6 || math.Abs(atJoint.Y) > 1e-6 {
		t.Errorf("Position(10) at segment joint = %+v, want {100 0 0}", atJoint)
	}

	onSecondLeg, ok := traj.Position(15)
	if !ok {
		t.Fatalf("Position(15) reported out of bounds")
	}
	if math.Abs(onSecondLeg.X-100) > 1e-6 || math.Abs(onSecondLeg.Y-50) > 1e-6 {
		t.Errorf("Position(15) on second leg = %+v, want {100 50 0}", onSecondLeg)
	}
}
