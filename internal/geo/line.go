package geo

import (
	"fmt"
	"math"

	"github.com/ProjectAether/navlink/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// LinkLineString builds an XYZ line string from a link's start to its end.
// Validation is disabled: Up and Down links share their XY position, which
// simplefeatures would reject as a degenerate line.
func LinkLineString(link core.LinkData) (geom.LineString, error) {
	seq := geom.NewSequence([]float64{
		link.Start.X, link.Start.Y, link.Start.Z,
		link.End.X, link.End.Y, link.End.Z,
	}, geom.DimXYZ)
	ls, err := geom.NewLineString(seq, geom.DisableAllValidations)
	if err != nil {
		return geom.LineString{}, fmt.Errorf("failed to build link geometry: %w", err)
	}
	return ls, nil
}

// LinkToWKB encodes a link as WKB for storage.
func LinkToWKB(link core.LinkData) ([]byte, error) {
	ls, err := LinkLineString(link)
	if err != nil {
		return nil, err
	}
	return ls.AsBinary(), nil
}

// LinkFromWKB decodes a two-point line string written by LinkToWKB. The
// direction is not part of the geometry and is returned as BothWays.
func LinkFromWKB(wkb []byte) (core.LinkData, error) {
	g, err := geom.UnmarshalWKB(wkb, geom.DisableAllValidations)
	if err != nil {
		return core.LinkData{}, fmt.Errorf("failed to decode link geometry: %w", err)
	}
	ls, ok := g.AsLineString()
	if !ok {
		return core.LinkData{}, fmt.Errorf("link geometry is %s, not a line string", g.Type())
	}
	seq := ls.Coordinates()
	if seq.Length() != 2 {
		return core.LinkData{}, fmt.Errorf("link geometry must have 2 points, got %d", seq.Length())
	}
	return core.LinkData{
		Start:     fromCoordinates(seq.Get(0)),
		End:       fromCoordinates(seq.Get(1)),
		Direction: core.BothWays,
	}, nil
}

// Length3D returns the straight-line length of a link in centimetres.
func Length3D(link core.LinkData) float64 {
	d := link.End.Sub(link.Start)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

func fromCoordinates(c geom.Coordinates) core.Vector3 {
	return core.Vector3{X: c.X, Y: c.Y, Z: c.Z}
}
