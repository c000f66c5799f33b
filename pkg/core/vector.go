package core

import "fmt"

// Vector3 is a position in an actor's local frame, in centimetres.
// X is longitudinal (+forward), Y is lateral (+right), Z is vertical (+up).
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v+o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v-o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// String formats the vector the same way hosts send it: "x,y,z".
func (v Vector3) String() string {
	return fmt.Sprintf("%g,%g,%g", v.X, v.Y, v.Z)
}
