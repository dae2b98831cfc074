package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"parkwatch-be/metrics"
	"parkwatch-be/models"
	"parkwatch-be/rbac"
	"parkwatch-be/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	maxPage         = 1_000_000
)

// ReportService persists and reads citizen reports
type ReportService struct {
	repo   repository.Repository
	plates *PlateService
	media  *MediaService
	l      *zap.Logger
}

func NewReportService(repo repository.Repository, plates *PlateService, media *MediaService, l *zap.Logger) *ReportService {
	return &ReportService{repo: repo, plates: plates, media: media, l: l.Named("report")}
}

type CreateReportArgs struct {
	Kind        models.ReportKind
	Description string
	Location    string
	GeoCode     *models.GeoCode
	PlateNumber string
	Violations  []string
	PostIt      bool
	Images      []Upload
}

// UpdateReportArgs is an owner edit. Nil fields are left unchanged.
type UpdateReportArgs struct {
	Description    *string
	Location       *string
	GeoCode        *models.GeoCode
	PlateNumber    *string
	Violations     []string
	SetViolations  bool
	PostIt         *bool
	ImagesToDelete []string
	NewImages      []Upload
}

type ListReportsArgs struct {
	Kind   models.ReportKind
	Status models.Status
	Page   int
	Limit  int
}

type ReportPage struct {
	Reports []*models.Report `json:"reports"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	HasMore bool             `json:"hasMore"`
}

func cleanViolations(v []string) []string {
	return lo.Uniq(lo.FilterMap(v, func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	}))
}

func folderFor(kind models.ReportKind) string {
	if kind == models.KindObstruction {
		return FolderObstructions
	}
	return FolderReports
}

func checkImageCount(kind models.ReportKind, n int) error {
	if want := kind.RequiredImages(); n != want {
		return ValidationError("%s report requires exactly %d images, got %d", kind, want, n)
	}
	return nil
}

func validateContent(r *models.Report) error {
	if strings.TrimSpace(r.Original) == "" {
		return ValidationError("description is required")
	}
	if strings.TrimSpace(r.Location) == "" {
		return ValidationError("location is required")
	}
	if r.GeoCode != nil && !r.GeoCode.IsValid() {
		return ValidationError("invalid geocode")
	}
	if r.Kind == models.KindPlate && r.PlateKey == "" {
		return ValidationError("plate number is required")
	}
	return nil
}

// Create stores a Pending report and links plate reports to their aggregate
func (s *ReportService) Create(ctx context.Context, actor Actor, args CreateReportArgs) (*models.Report, error) {
	if err := requirePermission(actor, rbac.CreateReport); err != nil {
		return nil, err
	}
	if !args.Kind.IsValid() {
		return nil, ValidationError("unknown report kind %q", args.Kind)
	}

	now := time.Now()
	r := &models.Report{
		ID:                 primitive.NewObjectID(),
		Kind:               args.Kind,
		Original:           args.Description,
		Location:           args.Location,
		GeoCode:            args.GeoCode,
		Violations:         []string{},
		Images:             []models.Image{},
		ConfirmationImages: []models.Image{},
		Status:             models.Pending,
		Reporter:           actor.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if args.Kind == models.KindPlate {
		r.PlateNumber = strings.TrimSpace(args.PlateNumber)
		r.PlateKey = models.NormalizePlate(args.PlateNumber)
		r.Violations = cleanViolations(args.Violations)
		r.PostIt = args.PostIt
	}
	if err := validateContent(r); err != nil {
		return nil, err
	}
	if err := checkImageCount(r.Kind, len(args.Images)); err != nil {
		return nil, err
	}

	images, err := s.media.UploadAll(ctx, folderFor(r.Kind), args.Images)
	if err != nil {
		return nil, err
	}
	r.Images = images

	if err := s.repo.CreateReport(ctx, r); err != nil {
		s.media.DeleteAll(context.WithoutCancel(ctx), images)
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	if r.Kind == models.KindPlate {
		if _, err := s.plates.LinkOrCreate(ctx, r); err != nil {
			s.rollbackCreate(context.WithoutCancel(ctx), r)
			return nil, err
		}
	}

	metrics.ReportsSubmitted.WithLabelValues(string(r.Kind)).Inc()
	s.l.Info("report submitted",
		zap.Stringer("id", r.ID),
		zap.String("kind", string(r.Kind)),
		zap.String("plate", r.PlateKey),
	)
	return r, nil
}

func (s *ReportService) rollbackCreate(ctx context.Context, r *models.Report) {
	if err := s.repo.DeleteReport(ctx, r.ID, models.Pending); err != nil {
		s.l.Error("failed to roll back report", zap.Stringer("id", r.ID), zap.Error(err))
		return
	}
	s.media.DeleteAll(ctx, r.Images)
}

// load fetches a report of the expected kind; kind "" accepts any
func (s *ReportService) load(ctx context.Context, id primitive.ObjectID, kind models.ReportKind) (*models.Report, error) {
	r, err := s.repo.GetReport(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFoundError("report not found")
	}
	if err != nil {
		return nil, err
	}
	if kind != "" && r.Kind != kind {
		return nil, NotFoundError("report not found")
	}
	return r, nil
}

// Get returns a report the actor may see
func (s *ReportService) Get(ctx context.Context, actor Actor, id primitive.ObjectID, kind models.ReportKind) (*models.Report, error) {
	r, err := s.load(ctx, id, kind)
	if err != nil {
		return nil, err
	}
	if !canView(actor, r) {
		return nil, NotFoundError("report not found")
	}
	return r, nil
}

// loadEditable enforces the owner-while-Pending rule shared by update and delete
func (s *ReportService) loadEditable(ctx context.Context, actor Actor, id primitive.ObjectID, kind models.ReportKind) (*models.Report, error) {
	if err := requirePermission(actor, rbac.EditOwnReport); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, id, kind)
	if err != nil {
		return nil, err
	}
	if !r.IsOwnedBy(actor.ID) {
		return nil, PermissionError("only the reporter can change this report")
	}
	if r.Status != models.Pending {
		return nil, PermissionError("report can no longer be changed once %s", r.Status)
	}
	return r, nil
}

// Update applies an owner edit to a Pending report
func (s *ReportService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, kind models.ReportKind, args UpdateReportArgs) (*models.Report, error) {
	cur, err := s.loadEditable(ctx, actor, id, kind)
	if err != nil {
		return nil, err
	}

	r := cur.Clone()
	if args.Description != nil {
		r.Original = *args.Description
	}
	if args.Location != nil {
		r.Location = *args.Location
	}
	if args.GeoCode != nil {
		g := *args.GeoCode
		r.GeoCode = &g
	}
	if r.Kind == models.KindPlate {
		if args.PlateNumber != nil {
			r.PlateNumber = strings.TrimSpace(*args.PlateNumber)
			r.PlateKey = models.NormalizePlate(*args.PlateNumber)
		}
		if args.SetViolations {
			r.Violations = cleanViolations(args.Violations)
		}
		if args.PostIt != nil {
			r.PostIt = *args.PostIt
		}
	}
	if err := validateContent(r); err != nil {
		return nil, err
	}

	for _, pid := range args.ImagesToDelete {
		if !slices.ContainsFunc(cur.Images, func(img models.Image) bool { return img.PublicID == pid }) {
			return nil, ValidationError("image %q does not belong to this report", pid)
		}
	}
	kept, removed := lo.FilterReject(cur.Images, func(img models.Image, _ int) bool {
		return !slices.Contains(args.ImagesToDelete, img.PublicID)
	})
	if err := checkImageCount(r.Kind, len(kept)+len(args.NewImages)); err != nil {
		return nil, err
	}

	added, err := s.media.UploadAll(ctx, folderFor(r.Kind), args.NewImages)
	if err != nil {
		return nil, err
	}
	r.Images = append(kept, added...)
	r.UpdatedAt = time.Now()

	if err := s.repo.ReplaceReport(ctx, r, models.Pending); err != nil {
		s.media.DeleteAll(context.WithoutCancel(ctx), added)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, NotFoundError("report not found")
		case errors.Is(err, repository.ErrStatusMismatch):
			return nil, PermissionError("report can no longer be changed")
		}
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	if r.Kind == models.KindPlate && (r.PlateKey != cur.PlateKey || !slices.Equal(r.Violations, cur.Violations)) {
		if err := s.relink(ctx, cur, r, added); err != nil {
			return nil, err
		}
	}
	s.media.DeleteAll(context.WithoutCancel(ctx), removed)
	return r, nil
}

// relink moves the edited report to its new aggregate. If that fails the
// stored report is put back to prev so it stays linked where it was.
func (s *ReportService) relink(ctx context.Context, prev, next *models.Report, added []models.Image) error {
	ctx = context.WithoutCancel(ctx)
	err := s.plates.Relink(ctx, prev, next)
	if err == nil {
		return nil
	}
	if rerr := s.repo.ReplaceReport(ctx, prev, models.Pending); rerr != nil {
		s.l.Error("failed to restore report after relink",
			zap.String("report_id", prev.ID.Hex()),
			zap.Error(rerr))
		return err
	}
	s.media.DeleteAll(ctx, added)
	return err
}

// Delete removes a Pending report of the owner
func (s *ReportService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID, kind models.ReportKind) error {
	r, err := s.loadEditable(ctx, actor, id, kind)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteReport(ctx, id, models.Pending); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NotFoundError("report not found")
		case errors.Is(err, repository.ErrStatusMismatch):
			return PermissionError("report can no longer be changed")
		}
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if r.Kind == models.KindPlate {
		if err := s.plates.Unlink(ctx, r.PlateKey, r.ID); err != nil {
			return err
		}
	}
	s.media.DeleteAll(context.WithoutCancel(ctx), r.Images)
	return nil
}

// paginate clamps page and limit so the skip they produce cannot overflow
func paginate(page, limit int) (int, int) {
	if limit < 1 {
		limit = defaultPageSize
	}
	return max(min(page, maxPage), 1), min(limit, maxPageSize)
}

func (s *ReportService) list(ctx context.Context, filter repository.ReportFilter, page, limit int) (*ReportPage, error) {
	page, limit = paginate(page, limit)
	filter.Skip = int64((page - 1) * limit)
	filter.Limit = int64(limit)
	reports, total, err := s.repo.ListReports(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ReportPage{
		Reports: reports,
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasMore: filter.Skip+int64(len(reports)) < total,
	}, nil
}

func validateListArgs(args ListReportsArgs) error {
	if args.Kind != "" && !args.Kind.IsValid() {
		return ValidationError("unknown report kind %q", args.Kind)
	}
	if args.Status != "" && !args.Status.IsValid() {
		return ValidationError("unknown status %q", args.Status)
	}
	return nil
}

// ListFeed is the paginated public feed, newest first. Citizens see moderated
// obstructions and plate reports posted publicly; moderators see everything.
func (s *ReportService) ListFeed(ctx context.Context, actor Actor, args ListReportsArgs) (*ReportPage, error) {
	if err := validateListArgs(args); err != nil {
		return nil, err
	}
	filter := repository.ReportFilter{Kind: args.Kind}
	if args.Status != "" {
		filter.Statuses = []models.Status{args.Status}
	}
	if !actor.Can(rbac.ViewAllReports) {
		filter.PublicOnly = true
		public := []models.Status{models.Approved, models.Resolved}
		if args.Status != "" && !slices.Contains(public, args.Status) {
			page, limit := paginate(args.Page, args.Limit)
			return &ReportPage{Reports: []*models.Report{}, Page: page, Limit: limit}, nil
		}
		if args.Status == "" {
			filter.Statuses = public
		}
	}
	return s.list(ctx, filter, args.Page, args.Limit)
}

// ListOwn lists the actor's own reports in every status
func (s *ReportService) ListOwn(ctx context.Context, actor Actor, args ListReportsArgs) (*ReportPage, error) {
	if err := validateListArgs(args); err != nil {
		return nil, err
	}
	if actor.ID.IsZero() {
		return nil, &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	}
	filter := repository.ReportFilter{Kind: args.Kind, Reporter: actor.ID}
	if args.Status != "" {
		filter.Statuses = []models.Status{args.Status}
	}
	return s.list(ctx, filter, args.Page, args.Limit)
}

// ListPending is the moderation queue
func (s *ReportService) ListPending(ctx context.Context, actor Actor, args ListReportsArgs) (*ReportPage, error) {
	if err := requirePermission(actor, rbac.ViewAllReports); err != nil {
		return nil, err
	}
	args.Status = models.Pending
	if err := validateListArgs(args); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ReportFilter{Kind: args.Kind, Statuses: []models.Status{models.Pending}}, args.Page, args.Limit)
}

// ReportDetail is a report with everything a detail screen shows
type ReportDetail struct {
	Report    *models.Report             `json:"report"`
	Aggregate *models.PlateAggregateView `json:"aggregate,omitempty"`
}

// GetDetail adds the plate aggregate for moderators
func (s *ReportService) GetDetail(ctx context.Context, actor Actor, id primitive.ObjectID, kind models.ReportKind) (*ReportDetail, error) {
	r, err := s.Get(ctx, actor, id, kind)
	if err != nil {
		return nil, err
	}
	d := &ReportDetail{Report: r}
	if actor.Can(rbac.ViewAllReports) {
		if d.Aggregate, err = s.plates.ForReport(ctx, r); err != nil {
			return nil, err
		}
	}
	return d, nil
}
