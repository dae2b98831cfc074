package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportKind discriminates plate-number reports from obstruction complaints
type ReportKind string

const (
	KindPlate       ReportKind = "plate"
	KindObstruction ReportKind = "obstruction"
)

// IsValid reports whether k is a known kind
func (k ReportKind) IsValid() bool {
	return k == KindPlate || k == KindObstruction
}

// RequiredImages is the exact number of evidence images a report of this kind carries
func (k ReportKind) RequiredImages() int {
	switch k {
	case KindPlate:
		return 3
	case KindObstruction:
		return 2
	default:
		return 0
	}
}

// Image is a stored evidence picture
type Image struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"public_id" json:"public_id"`
}

// GeoCode is a precise WGS84 position
type GeoCode struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// IsValid checks the coordinate ranges
func (g GeoCode) IsValid() bool {
	return g.Latitude >= -90 && g.Latitude <= 90 && g.Longitude >= -180 && g.Longitude <= 180
}

// Report represents a citizen submission
type Report struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Kind               ReportKind          `bson:"kind" json:"kind"`
	Original           string              `bson:"original" json:"original"`
	Location           string              `bson:"location" json:"location"`
	GeoCode            *GeoCode            `bson:"geocode,omitempty" json:"geocode,omitempty"`
	PlateNumber        string              `bson:"plateNumber,omitempty" json:"plateNumber,omitempty"`
	PlateKey           string              `bson:"plateKey,omitempty" json:"-"`
	Violations         []string            `bson:"violations" json:"violations"`
	PostIt             bool                `bson:"postIt" json:"postIt"`
	Images             []Image             `bson:"images" json:"images"`
	ConfirmationImages []Image             `bson:"confirmationImages" json:"confirmationImages"`
	Status             Status              `bson:"status" json:"status"`
	Reporter           primitive.ObjectID  `bson:"reporter" json:"reporter"`
	ApprovedBy         *primitive.ObjectID `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt         *time.Time          `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	ResolvedBy         *primitive.ObjectID `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
	ResolvedAt         *time.Time          `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate slices freely
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	c.Violations = append([]string(nil), r.Violations...)
	c.Images = append([]Image(nil), r.Images...)
	c.ConfirmationImages = append([]Image(nil), r.ConfirmationImages...)
	if r.GeoCode != nil {
		g := *r.GeoCode
		c.GeoCode = &g
	}
	if r.ApprovedBy != nil {
		v := *r.ApprovedBy
		c.ApprovedBy = &v
	}
	if r.ApprovedAt != nil {
		v := *r.ApprovedAt
		c.ApprovedAt = &v
	}
	if r.ResolvedBy != nil {
		v := *r.ResolvedBy
		c.ResolvedBy = &v
	}
	if r.ResolvedAt != nil {
		v := *r.ResolvedAt
		c.ResolvedAt = &v
	}
	return &c
}

// IsOwnedBy reports whether userID submitted the report
func (r *Report) IsOwnedBy(userID primitive.ObjectID) bool {
	return !userID.IsZero() && r.Reporter == userID
}
