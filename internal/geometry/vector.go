// Package geometry provides 3D points, vector arithmetic, and bounding
// boxes shared by every stage of the deconfliction pipeline.
package geometry

import "math"

// Waypoint is an immutable point in the shared Cartesian frame, meters.
type Waypoint struct {
	X, Y, Z float64
}

// Vec3 is a 3D vector. It shares Waypoint's representation since both are
// just three floats, but keeping the name distinct documents intent at
// call sites (position vs. direction/velocity).
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns a - b.
func (a Waypoint) Sub(b Waypoint) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Add returns the waypoint translated by v.
func (a Waypoint) Add(v Vec3) Waypoint {
	return Waypoint{a.X + v.X, a.Y + v.Y, a.Z + v.Z}
}

// Distance returns the Euclidean distance between two waypoints.
func (a Waypoint) Distance(b Waypoint) float64 {
	return a.Sub(b).Length()
}

// Length returns the Euclidean norm of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Sub returns a - b for two vectors.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Unit returns v normalized to unit length, or the zero vector if v is
// already zero-length (avoids division by zero for zero-length segments).
func (v Vec3) Unit() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Waypoint
}

// BoundingBox computes the AABB enclosing a set of waypoints. Callers must
// pass at least one waypoint.
func BoundingBox(points []Waypoint) AABB {
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min.X = math.Min(box.Min.X, p.X)
		box.Min.Y = math.Min(box.Min.Y, p.Y)
		box.Min.Z = math.Min(box.Min.Z, p.Z)
		box.Max.X = math.Max(box.Max.X, p.X)
		box.Max.Y = math.Max(box.Max.Y, p.Y)
		box.Max.Z = math.Max(box.Max.Z, p.Z)
	}
	return box
}

// Widen returns the box expanded on every face by margin.
func (b AABB) Widen(margin float64) AABB {
	return AABB{
		Min: Waypoint{b.Min.X - margin, b.Min.Y - margin, b.Min.Z - margin},
		Max: Waypoint{b.Max.X + margin, b.Max.Y + margin, b.Max.Z + margin},
	}
}

// Intersects reports whether b and o overlap on every axis.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}
