package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ABC123", NormalizePlate("abc 123"))
	assert.Equal(t, "ABC123", NormalizePlate("  ABC\t123\n"))
	assert.Equal(t, NormalizePlate("Abc 123"), NormalizePlate("aBC123"))
	assert.Equal(t, "", NormalizePlate("   "))
}

func TestDerivedStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Pending, DerivedStatus(nil))
	assert.Equal(t, Approved, DerivedStatus([]*Report{{Status: Resolved}, {Status: Approved}}))
	assert.Equal(t, Pending, DerivedStatus([]*Report{{Status: Resolved}, {Status: Pending}}))
	assert.Equal(t, Resolved, DerivedStatus([]*Report{{Status: Resolved}, {Status: Resolved}}))
}

func TestReportKind_RequiredImages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, KindPlate.RequiredImages())
	assert.Equal(t, 2, KindObstruction.RequiredImages())
	assert.Equal(t, 0, ReportKind("other").RequiredImages())
}

func TestStreet_BoundingBox(t *testing.T) {
	t.Parallel()

	s := Street{Name: "Rizal Street", Points: [][2]float64{{14.60, 121.00}, {14.62, 120.98}, {14.61, 121.02}}}
	b := s.BoundingBox()
	assert.Equal(t, Bounds{MinLat: 14.60, MinLng: 120.98, MaxLat: 14.62, MaxLng: 121.02}, b)
	assert.True(t, b.Contains(14.61, 121.0))
	assert.False(t, b.Contains(14.63, 121.0))
}
