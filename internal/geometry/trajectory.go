package geometry

// Segment is one leg of a piecewise-linear trajectory flown at constant
// cruise speed.
type Segment struct {
	Start, End         Waypoint
	StartTime, EndTime float64
	Direction          Vec3 // unit vector, zero for a zero-length segment
	Length             float64
}

// Trajectory is a derived, read-only view over a mission's waypoints: a
// segment table that answers "where is the drone at time t" and "how fast
// is it moving at time t". It is built once and queried many times.
//
// Bounds for Position/Velocity are the mission's declared start/end time,
// not the time the segment table happens to reach; the two differ when
// cruise speed was supplied externally rather than derived.
type Trajectory struct {
	StartTime, EndTime float64
	Speed              float64
	Segments           []Segment
}

// NewTrajectory builds the segment table for a piecewise-linear path flown
// at the given constant cruise speed, starting at missionStart. The window
// [missionStart, missionEnd] is the authoritative bound for Position and
// Velocity queries regardless of where the segment table's own timing ends.
func NewTrajectory(waypoints []Waypoint, missionStart, missionEnd, cruiseSpeed float64) *Trajectory {
	t := &Trajectory{
		StartTime: missionStart,
		EndTime:   missionEnd,
		Speed:     cruiseSpeed,
		Segments:  make([]Segment, 0, len(waypoints)-1),
	}

	current := missionStart
	for i := 0; i < len(waypoints)-1; i++ {
		start, end := waypoints[i], waypoints[i+1]
		length := start.Distance(end)

		var duration float64
		if cruiseSpeed > 0 {
			duration = length / cruiseSpeed
		}

		direction := end.Sub(start).Unit()

		t.Segments = append(t.Segments, Segment{
			Start:     start,
			End:       end,
			StartTime: current,
			EndTime:   current + duration,
			Direction: direction,
			Length:    length,
		})
		current += duration
	}

	return t
}

// Position returns the interpolated position at time t, or false if t
// falls outside the mission's declared time window.
func (t *Trajectory) Position(at float64) (Waypoint, bool) {
	if at < t.StartTime || at > t.EndTime {
		return Waypoint{}, false
	}

	for _, seg := range t.Segments {
		if seg.StartTime <= at && at <= seg.EndTime {
			progress := 0.0
			if duration := seg.EndTime - seg.StartTime; duration > 0 {
				progress = (at - seg.StartTime) / duration
			}
			return seg.Start.Add(seg.End.Sub(seg.Start).Scale(progress)), true
		}
	}

	// No segment spans `at`: the segment table collapsed ahead of the
	// mission window (e.g. zero cruise speed). Hold at the final waypoint.
	if len(t.Segments) == 0 {
		return Waypoint{}, false
	}
	return t.Segments[len(t.Segments)-1].End, true
}

// Velocity returns the velocity vector at time t, the enclosing segment's
// unit direction scaled by cruise speed, or false if t falls outside the
// mission's declared time window.
func (t *Trajectory) Velocity(at float64) (Vec3, bool) {
	if at < t.StartTime || at > t.EndTime {
		return Vec3{}, false
	}

	for _, seg := range t.Segments {
		if seg.StartTime <= at && at <= seg.EndTime {
			return seg.Direction.Scale(t.Speed), true
		}
	}

	return Vec3{}, true
}
