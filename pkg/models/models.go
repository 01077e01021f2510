package models

import "github.com/twpayne/go-geom"

// SRIDWGS84 is the EPSG code every centroid dataset is tagged with
const SRIDWGS84 = 4326

// Location represents a geographic location with latitude and longitude
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox represents a rectangular area defined by two corners
type BoundingBox struct {
	BottomLeft Location
	TopRight   Location
}

// InputRecord is one gazetteer row with every field kept as text.
// Identifier is opaque: it is never parsed as a number.
type InputRecord struct {
	Identifier   string
	LatitudeRaw  string
	LongitudeRaw string
}

// Point is a record whose coordinates survived numeric coercion
type Point struct {
	ID       string    `json:"id"`
	Location *Location `json:"location"`
}

// Centroid pairs an identifier with its point geometry (X = lon, Y = lat)
type Centroid struct {
	ID       string
	Geometry *geom.Point
}

// Lat returns the latitude of the centroid geometry
func (c Centroid) Lat() float64 {
	return c.Geometry.Y()
}

// Lon returns the longitude of the centroid geometry
func (c Centroid) Lon() float64 {
	return c.Geometry.X()
}

// CentroidDataset is the ordered output of one extraction run
type CentroidDataset struct {
	SRID      int
	Centroids []Centroid
}

// Len returns the number of centroids in the dataset
func (d *CentroidDataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Centroids)
}

// NewCentroid builds a WGS84 point for the given identifier.
// Coordinates are laid out longitude first.
func NewCentroid(id string, lat, lon float64) Centroid {
	pt := geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(SRIDWGS84)
	return Centroid{ID: id, Geometry: pt}
}
