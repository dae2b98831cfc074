package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"parkwatch-be/events"
	"parkwatch-be/metrics"
	"parkwatch-be/models"
	"parkwatch-be/rbac"
	"parkwatch-be/repository"
)

// ModerationService drives reports through Pending -> Approved -> Resolved
type ModerationService struct {
	repo      repository.Repository
	plates    *PlateService
	geo       *GeoService
	media     *MediaService
	publisher events.Publisher
	l         *zap.Logger
}

func NewModerationService(
	repo repository.Repository,
	plates *PlateService,
	geo *GeoService,
	media *MediaService,
	publisher events.Publisher,
	l *zap.Logger,
) *ModerationService {
	return &ModerationService{
		repo:      repo,
		plates:    plates,
		geo:       geo,
		media:     media,
		publisher: publisher,
		l:         l.Named("moderation"),
	}
}

func permissionFor(to models.Status) rbac.Permission {
	if to == models.Resolved {
		return rbac.ResolveReport
	}
	return rbac.ApproveReport
}

// Approve moves a Pending report to Approved
func (s *ModerationService) Approve(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Report, error) {
	if err := requirePermission(actor, rbac.ApproveReport); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, models.Approved, nil)
}

// Resolve moves an Approved report to Resolved, attaching the confirmation images
func (s *ModerationService) Resolve(ctx context.Context, actor Actor, id primitive.ObjectID, confirmation []models.Image) (*models.Report, error) {
	if len(confirmation) == 0 {
		return nil, ValidationError("at least one confirmation image required")
	}
	if err := requirePermission(actor, rbac.ResolveReport); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, models.Resolved, confirmation)
}

func (s *ModerationService) transition(ctx context.Context, actor Actor, id primitive.ObjectID, to models.Status, confirmation []models.Image) (*models.Report, error) {
	r, err := s.repo.GetReport(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFoundError("report not found")
	}
	if err != nil {
		return nil, err
	}
	if err := models.Transition(r.Status, to); err != nil {
		return nil, InvalidStateError("%s", err.Error())
	}

	updated, err := s.repo.ChangeReportStatus(ctx, id, repository.StatusChange{
		From:               r.Status,
		To:                 to,
		Actor:              actor.ID,
		ConfirmationImages: confirmation,
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, NotFoundError("report not found")
	case errors.Is(err, repository.ErrStatusMismatch):
		return nil, InvalidStateError("report status changed concurrently, cannot change status from %s to %s", r.Status, to)
	case err != nil:
		return nil, fmt.Errorf("failed to change report status: %w", err)
	}

	s.afterTransition(ctx, actor, updated)
	return updated, nil
}

// afterTransition updates the map and notifies listeners. The transition is
// already committed so failures here are logged only.
func (s *ModerationService) afterTransition(ctx context.Context, actor Actor, r *models.Report) {
	metrics.ReportTransitions.WithLabelValues(string(r.Status)).Inc()

	var err error
	switch r.Status {
	case models.Approved:
		err = s.geo.IndexApproved(ctx, r)
	case models.Resolved:
		err = s.geo.Remove(ctx, r.ID)
	}
	if err != nil {
		s.l.Error("failed to update geo index", zap.Stringer("id", r.ID), zap.Error(err))
	}

	ev := events.StatusChanged{
		ReportID: r.ID,
		Kind:     r.Kind,
		Status:   r.Status,
		ActorID:  actor.ID,
		At:       time.Now(),
	}
	if err := s.publisher.PublishStatusChanged(ctx, ev); err != nil {
		s.l.Warn("failed to publish status change", zap.Stringer("id", r.ID), zap.Error(err))
	}
	s.l.Info("report status changed",
		zap.Stringer("id", r.ID),
		zap.String("status", string(r.Status)),
		zap.Stringer("actor", actor.ID),
	)
}

// UpdateStatusArgs is a status change request. With PlateID set the change
// applies to every constituent of that aggregate currently in the source
// status, optionally narrowed to ReportIDs.
type UpdateStatusArgs struct {
	ReportID     primitive.ObjectID
	Status       models.Status
	PlateID      string
	ReportIDs    []primitive.ObjectID
	Confirmation []Upload
}

type UpdateStatusResult struct {
	Reports   []*models.Report           `json:"reports"`
	Aggregate *models.PlateAggregateView `json:"aggregate,omitempty"`
}

// UpdateStatus approves or resolves a single report or a whole plate aggregate
func (s *ModerationService) UpdateStatus(ctx context.Context, actor Actor, args UpdateStatusArgs) (*UpdateStatusResult, error) {
	switch args.Status {
	case models.Approved, models.Resolved:
	case models.Pending:
		return nil, InvalidStateError("reports cannot be moved back to Pending")
	default:
		return nil, ValidationError("unknown status %q", args.Status)
	}
	if args.Status == models.Resolved && len(args.Confirmation) == 0 {
		return nil, ValidationError("at least one confirmation image required")
	}
	if err := requirePermission(actor, permissionFor(args.Status)); err != nil {
		return nil, err
	}

	var (
		agg     *models.PlateAggregate
		targets []primitive.ObjectID
		err     error
	)
	if args.PlateID != "" {
		agg, targets, err = s.aggregateTargets(ctx, args)
	} else {
		targets = []primitive.ObjectID{args.ReportID}
	}
	if err != nil {
		return nil, err
	}

	var confirmation []models.Image
	if args.Status == models.Resolved {
		if confirmation, err = s.media.UploadAll(ctx, FolderConfirmations, args.Confirmation); err != nil {
			return nil, err
		}
	}

	res := &UpdateStatusResult{Reports: []*models.Report{}}
	for _, id := range targets {
		r, err := s.transition(ctx, actor, id, args.Status, confirmation)
		if err != nil {
			// a constituent moved concurrently; the rest still apply
			if agg != nil && errors.Is(err, ErrInvalidState) {
				continue
			}
			if len(res.Reports) == 0 {
				s.media.DeleteAll(context.WithoutCancel(ctx), confirmation)
			}
			return nil, err
		}
		res.Reports = append(res.Reports, r)
	}
	if len(res.Reports) == 0 {
		s.media.DeleteAll(context.WithoutCancel(ctx), confirmation)
		return nil, InvalidStateError("no report in the aggregate can change status to %s", args.Status)
	}

	if agg != nil {
		if res.Aggregate, err = s.plates.view(ctx, agg); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// aggregateTargets picks the aggregate constituents one step before the target status
func (s *ModerationService) aggregateTargets(ctx context.Context, args UpdateStatusArgs) (*models.PlateAggregate, []primitive.ObjectID, error) {
	agg, err := s.plates.find(ctx, args.PlateID)
	if err != nil {
		return nil, nil, err
	}
	if !args.ReportID.IsZero() && !agg.Contains(args.ReportID) {
		return nil, nil, ValidationError("report does not belong to plate %s", agg.DisplayPlate)
	}
	for _, id := range args.ReportIDs {
		if !agg.Contains(id) {
			return nil, nil, ValidationError("report %s does not belong to plate %s", id.Hex(), agg.DisplayPlate)
		}
	}

	reports, err := s.repo.GetReportsByIDs(ctx, agg.ReportIDs)
	if err != nil {
		return nil, nil, err
	}
	from := models.Pending
	if args.Status == models.Resolved {
		from = models.Approved
	}
	var targets []primitive.ObjectID
	for _, r := range reports {
		if r.Status != from {
			continue
		}
		if len(args.ReportIDs) > 0 && !slices.Contains(args.ReportIDs, r.ID) {
			continue
		}
		targets = append(targets, r.ID)
	}
	if len(targets) == 0 {
		return nil, nil, InvalidStateError("no %s report in aggregate %s", from, agg.DisplayPlate)
	}
	return agg, targets, nil
}

// ApprovedList holds Approved items: plate reports grouped by aggregate,
// obstructions individually
type ApprovedList struct {
	Kind       models.ReportKind            `json:"kind"`
	Reports    []*models.Report             `json:"reports,omitempty"`
	Aggregates []*models.PlateAggregateView `json:"aggregates,omitempty"`
}

// ListApproved returns the Approved work queue of a kind
func (s *ModerationService) ListApproved(ctx context.Context, actor Actor, kind models.ReportKind) (*ApprovedList, error) {
	if err := requirePermission(actor, rbac.ViewAllReports); err != nil {
		return nil, err
	}
	filter := repository.ReportFilter{Kind: kind, Statuses: []models.Status{models.Approved}}

	switch kind {
	case models.KindObstruction:
		reports, _, err := s.repo.ListReports(ctx, filter)
		if err != nil {
			return nil, err
		}
		return &ApprovedList{Kind: kind, Reports: reports}, nil
	case models.KindPlate:
		plates, err := s.repo.DistinctPlates(ctx, filter)
		if err != nil {
			return nil, err
		}
		aggs, err := s.repo.GetPlates(ctx, plates)
		if err != nil {
			return nil, err
		}
		views, err := s.plates.views(ctx, aggs)
		if err != nil {
			return nil, err
		}
		return &ApprovedList{Kind: kind, Aggregates: views}, nil
	default:
		return nil, ValidationError("unknown report kind %q", kind)
	}
}
