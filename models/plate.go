package models

import (
	"strings"
	"time"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlateAggregate groups every report filed against one plate number
type PlateAggregate struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	PlateNumber  string               `bson:"plateNumber" json:"plateNumber"`
	DisplayPlate string               `bson:"displayPlate" json:"displayPlate"`
	Count        int                  `bson:"count" json:"count"`
	Violations   []string             `bson:"violations" json:"violations"`
	ReportIDs    []primitive.ObjectID `bson:"reportDetails" json:"reportIds"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Clone returns a deep copy
func (a *PlateAggregate) Clone() *PlateAggregate {
	if a == nil {
		return nil
	}
	c := *a
	c.Violations = append([]string(nil), a.Violations...)
	c.ReportIDs = append([]primitive.ObjectID(nil), a.ReportIDs...)
	return &c
}

// Contains reports whether the report is linked to this aggregate
func (a *PlateAggregate) Contains(reportID primitive.ObjectID) bool {
	for _, id := range a.ReportIDs {
		if id == reportID {
			return true
		}
	}
	return false
}

// PlateAggregateView is an aggregate with its constituent reports loaded
type PlateAggregateView struct {
	*PlateAggregate
	Status        Status    `json:"status"`
	ReportDetails []*Report `json:"reportDetails"`
}

// NormalizePlate is the merge key for plate numbers: upper case, no whitespace
func NormalizePlate(plate string) string {
	var b strings.Builder
	b.Grow(len(plate))
	for _, r := range plate {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// DerivedStatus is the least advanced status among the reports; an aggregate
// reads Resolved only once every constituent is resolved
func DerivedStatus(reports []*Report) Status {
	if len(reports) == 0 {
		return Pending
	}
	s := Resolved
	for _, r := range reports {
		if r.Status.Less(s) {
			s = r.Status
		}
	}
	return s
}
