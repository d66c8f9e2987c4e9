package domain

import (
	"fmt"
	"math"
)

// Immutable geographic coordinates (latitude, longitude) in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Validate reports whether the coordinates are finite and inside the WGS84 ranges.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("%w: coordinates must be finite", ErrInvalidArgument)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: invalid latitude: %f", ErrInvalidArgument, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: invalid longitude: %f", ErrInvalidArgument, c.Lon)
	}
	return nil
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Return coordinates as [lat, lon], the order map clients draw polylines in.
func (c Coordinates) LatLon() [2]float64 { return [2]float64{c.Lat, c.Lon} }
