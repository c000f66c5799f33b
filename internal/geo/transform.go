package geo

import (
	"math"

	"github.com/ProjectAether/navlink/pkg/core"
)

// Transform places a proxy in the world: a location in centimetres and a
// yaw in degrees (rotation about Z, +X towards +Y).
type Transform struct {
	Location core.Vector3
	Yaw      float64
}

// ToWorld converts a local-frame position to world space.
func (t Transform) ToWorld(local core.Vector3) core.Vector3 {
	rad := t.Yaw * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return core.Vector3{
		X: t.Location.X + local.X*cos - local.Y*sin,
		Y: t.Location.Y + local.X*sin + local.Y*cos,
		Z: t.Location.Z + local.Z,
	}
}

// LinkToWorld converts both endpoints of a link to world space.
func (t Transform) LinkToWorld(link core.LinkData) core.LinkData {
	return core.LinkData{
		Start:     t.ToWorld(link.Start),
		End:       t.ToWorld(link.End),
		Direction: link.Direction,
	}
}
