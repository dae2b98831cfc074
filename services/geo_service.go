package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"parkwatch-be/models"
	"parkwatch-be/rbac"
	"parkwatch-be/repository"
)

// GeoService maintains the map markers of approved reports
type GeoService struct {
	repo repository.GeoRepository
	l    *zap.Logger
}

func NewGeoService(repo repository.GeoRepository, l *zap.Logger) *GeoService {
	return &GeoService{repo: repo, l: l.Named("geo")}
}

// IndexApproved stores a marker for the report. Reports without a geocode are skipped.
func (s *GeoService) IndexApproved(ctx context.Context, r *models.Report) error {
	if r.GeoCode == nil || !r.GeoCode.IsValid() {
		return nil
	}
	violationType := string(r.Kind)
	if len(r.Violations) > 0 {
		violationType = r.Violations[0]
	}
	return s.repo.UpsertGeoPoint(ctx, &models.GeoPoint{
		ReportID:      r.ID,
		Latitude:      r.GeoCode.Latitude,
		Longitude:     r.GeoCode.Longitude,
		Kind:          r.Kind,
		ViolationType: violationType,
		IndexedAt:     time.Now(),
	})
}

// Remove drops the report's marker if it has one
func (s *GeoService) Remove(ctx context.Context, reportID primitive.ObjectID) error {
	err := s.repo.DeleteGeoPoint(ctx, reportID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// QueryRegion lists the markers inside bounds
func (s *GeoService) QueryRegion(ctx context.Context, actor Actor, bounds models.Bounds) ([]*models.GeoPoint, error) {
	if err := requirePermission(actor, rbac.ViewMap); err != nil {
		return nil, err
	}
	if !bounds.IsValid() {
		return nil, ValidationError("invalid bounds")
	}
	return s.repo.FindGeoPoints(ctx, bounds)
}

func (s *GeoService) count(ctx context.Context, bounds models.Bounds) (int, error) {
	points, err := s.repo.FindGeoPoints(ctx, bounds)
	if err != nil {
		return 0, err
	}
	return len(points), nil
}
