package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/ProjectAether/navlink/pkg/core"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Vector3FromString parses "x,y" or "x,y,z" (optionally wrapped in square
// brackets) into a core.Vector3. A missing z is 0. NaN and infinite
// components are rejected.
func Vector3FromString(coords string) (core.Vector3, error) {
	coords = strings.TrimSpace(coords)
	coords = strings.TrimSuffix(strings.TrimPrefix(coords, "["), "]")

	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 || len(coordsSplit) > 3 {
		return core.Vector3{}, ErrInvalidCoordinates
	}

	var out [3]float64
	for i, part := range coordsSplit {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return core.Vector3{}, ErrInvalidCoordinates
		}
		out[i] = v
	}
	return core.Vector3{X: out[0], Y: out[1], Z: out[2]}, nil
}
