package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"parkwatch-be/locker"
	"parkwatch-be/metrics"
	"parkwatch-be/models"
	"parkwatch-be/rbac"
	"parkwatch-be/repository"
)

const linkAttempts = 3

// PlateService keeps exactly one aggregate per normalized plate number
type PlateService struct {
	repo   repository.Repository
	locker locker.Locker
	l      *zap.Logger
}

func NewPlateService(repo repository.Repository, lk locker.Locker, l *zap.Logger) *PlateService {
	return &PlateService{repo: repo, locker: lk, l: l.Named("plate")}
}

func (s *PlateService) lock(ctx context.Context, plate string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, "plate:"+plate)
	if err != nil {
		return nil, fmt.Errorf("failed to lock plate %s: %w", plate, err)
	}
	return unlock, nil
}

// LinkOrCreate appends the report to the aggregate of its plate, creating the
// aggregate on first sight. Linking an already linked report is a no-op.
func (s *PlateService) LinkOrCreate(ctx context.Context, r *models.Report) (*models.PlateAggregate, error) {
	plate := models.NormalizePlate(r.PlateNumber)
	if plate == "" {
		return nil, ValidationError("plate number is required")
	}

	unlock, err := s.lock(ctx, plate)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for attempt := range linkAttempts {
		if attempt > 0 {
			metrics.PlateLinkRetries.Inc()
			s.l.Debug("retrying plate link", zap.String("plate", plate), zap.Int("attempt", attempt+1))
		}

		agg, err := s.repo.GetPlate(ctx, plate)
		switch {
		case err == nil && agg.Contains(r.ID):
			return agg, nil
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}

		agg, err = s.repo.LinkReport(ctx, plate, r.PlateNumber, r.ID, r.Violations)
		if errors.Is(err, repository.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return agg, nil
	}
	return nil, ConflictError("plate %s is being updated concurrently, try again", r.PlateNumber)
}

// Unlink detaches the report from the plate's aggregate. The aggregate is
// deleted once empty, otherwise its violations are recomputed from the
// remaining reports.
func (s *PlateService) Unlink(ctx context.Context, plate string, reportID primitive.ObjectID) error {
	if plate == "" {
		return nil
	}
	unlock, err := s.lock(ctx, plate)
	if err != nil {
		return err
	}
	defer unlock()

	agg, err := s.repo.UnlinkReport(ctx, plate, reportID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if agg.Count <= 0 {
		if err := s.repo.DeletePlate(ctx, plate); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return nil
	}
	return s.refreshViolations(ctx, agg)
}

// Refresh recomputes the violation union of the plate's aggregate, used after
// a linked report changed its tags.
func (s *PlateService) Refresh(ctx context.Context, plate string) error {
	unlock, err := s.lock(ctx, plate)
	if err != nil {
		return err
	}
	defer unlock()

	agg, err := s.repo.GetPlate(ctx, plate)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.refreshViolations(ctx, agg)
}

func (s *PlateService) refreshViolations(ctx context.Context, agg *models.PlateAggregate) error {
	reports, err := s.repo.GetReportsByIDs(ctx, agg.ReportIDs)
	if err != nil {
		return err
	}
	violations := lo.Uniq(lo.FlatMap(reports, func(r *models.Report, _ int) []string { return r.Violations }))
	return s.repo.SetPlateViolations(ctx, agg.PlateNumber, violations)
}

// Relink moves a Pending report from the aggregate of prev to the aggregate of
// next. When the move fails the report is linked back under prev's plate.
func (s *PlateService) Relink(ctx context.Context, prev, next *models.Report) error {
	if prev.PlateKey == next.PlateKey {
		return s.Refresh(ctx, next.PlateKey)
	}
	err := s.Unlink(ctx, prev.PlateKey, next.ID)
	if err == nil {
		_, err = s.LinkOrCreate(ctx, next)
	}
	if err != nil {
		if _, rerr := s.LinkOrCreate(ctx, prev); rerr != nil {
			s.l.Error("failed to restore plate link",
				zap.String("report_id", prev.ID.Hex()),
				zap.String("plate", prev.PlateKey),
				zap.Error(rerr))
		}
		return err
	}
	return nil
}

// Get finds an aggregate by aggregate id or by plate number
func (s *PlateService) Get(ctx context.Context, actor Actor, plateOrID string) (*models.PlateAggregateView, error) {
	if err := requirePermission(actor, rbac.ViewAllReports); err != nil {
		return nil, err
	}
	agg, err := s.find(ctx, plateOrID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, agg)
}

func (s *PlateService) find(ctx context.Context, plateOrID string) (*models.PlateAggregate, error) {
	if id, err := primitive.ObjectIDFromHex(plateOrID); err == nil {
		agg, err := s.repo.GetPlateByID(ctx, id)
		if err == nil {
			return agg, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	agg, err := s.repo.GetPlate(ctx, models.NormalizePlate(plateOrID))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFoundError("no reports for plate %s", plateOrID)
	}
	return agg, err
}

// ForReport returns the aggregate the report is linked to, nil when it has none
func (s *PlateService) ForReport(ctx context.Context, r *models.Report) (*models.PlateAggregateView, error) {
	if r.Kind != models.KindPlate || r.PlateKey == "" {
		return nil, nil
	}
	agg, err := s.repo.GetPlate(ctx, r.PlateKey)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.view(ctx, agg)
}

func (s *PlateService) view(ctx context.Context, agg *models.PlateAggregate) (*models.PlateAggregateView, error) {
	reports, err := s.repo.GetReportsByIDs(ctx, agg.ReportIDs)
	if err != nil {
		return nil, err
	}
	return &models.PlateAggregateView{
		PlateAggregate: agg,
		Status:         models.DerivedStatus(reports),
		ReportDetails:  reports,
	}, nil
}

func (s *PlateService) views(ctx context.Context, aggs []*models.PlateAggregate) ([]*models.PlateAggregateView, error) {
	result := make([]*models.PlateAggregateView, 0, len(aggs))
	for _, agg := range aggs {
		v, err := s.view(ctx, agg)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}
