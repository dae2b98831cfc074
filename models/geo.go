package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeoPoint is a map marker for an approved, geocoded report
type GeoPoint struct {
	ReportID      primitive.ObjectID `bson:"_id" json:"reportId"`
	Latitude      float64            `bson:"latitude" json:"latitude"`
	Longitude     float64            `bson:"longitude" json:"longitude"`
	Kind          ReportKind         `bson:"kind" json:"kind"`
	ViolationType string             `bson:"violationType" json:"violationType"`
	IndexedAt     time.Time          `bson:"indexedAt" json:"indexedAt"`
}

// Bounds is a latitude/longitude rectangle
type Bounds struct {
	MinLat float64 `form:"minLat" json:"minLat"`
	MinLng float64 `form:"minLng" json:"minLng"`
	MaxLat float64 `form:"maxLat" json:"maxLat"`
	MaxLng float64 `form:"maxLng" json:"maxLng"`
}

// IsValid checks ordering and ranges
func (b Bounds) IsValid() bool {
	return b.MinLat <= b.MaxLat && b.MinLng <= b.MaxLng &&
		b.MinLat >= -90 && b.MaxLat <= 90 && b.MinLng >= -180 && b.MaxLng <= 180
}

// Contains reports whether the point is inside (edges inclusive)
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Pad grows the rectangle by d degrees on every side
func (b Bounds) Pad(d float64) Bounds {
	return Bounds{MinLat: b.MinLat - d, MinLng: b.MinLng - d, MaxLat: b.MaxLat + d, MaxLng: b.MaxLng + d}
}

// Street is a named polyline from the street catalog
type Street struct {
	Name   string       `yaml:"name" json:"name"`
	Points [][2]float64 `yaml:"points" json:"points"`
}

// BoundingBox of the street's points; Points are [lat, lng] pairs
func (s Street) BoundingBox() Bounds {
	if len(s.Points) == 0 {
		return Bounds{}
	}
	b := Bounds{MinLat: s.Points[0][0], MaxLat: s.Points[0][0], MinLng: s.Points[0][1], MaxLng: s.Points[0][1]}
	for _, p := range s.Points[1:] {
		b.MinLat = min(b.MinLat, p[0])
		b.MaxLat = max(b.MaxLat, p[0])
		b.MinLng = min(b.MinLng, p[1])
		b.MaxLng = max(b.MaxLng, p[1])
	}
	return b
}
