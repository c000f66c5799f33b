package geo

import (
	"math"

	"github.com/ProjectAether/navlink/pkg/core"
	"github.com/wroge/wgs84"
)

// Georeference anchors a level's world origin to a WGS84 longitude and
// latitude. World +X points north and +Y points east.
type Georeference struct {
	OriginLon float64
	OriginLat float64
}

// LonLat converts a world position in centimetres to EPSG:4326 longitude,
// latitude and height in metres.
func (g Georeference) LonLat(world core.Vector3) (lon, lat, height float64) {
	epsg := wgs84.EPSG()
	to3857 := epsg.Transform(4326, 3857)
	to4326 := epsg.Transform(3857, 4326)

	ox, oy, _ := to3857(g.OriginLon, g.OriginLat, 0)

	// web mercator stretches ground distances by 1/cos(lat)
	scale := 1 / math.Cos(g.OriginLat*math.Pi/180)
	x := ox + world.Y/100*scale
	y := oy + world.X/100*scale

	lon, lat, _ = to4326(x, y, 0)
	return lon, lat, world.Z / 100
}
