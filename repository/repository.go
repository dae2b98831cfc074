package repository

import (
	"context"

	"parkwatch-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository is the persistence boundary of the service
type Repository interface {
	ReportRepository
	PlateRepository
	CommentRepository
	GeoRepository
	UserRepository
	AnnouncementRepository
}

// ReportFilter narrows ListReports. Zero values mean no constraint.
type ReportFilter struct {
	Kind       models.ReportKind
	Statuses   []models.Status
	Reporter   primitive.ObjectID
	PublicOnly bool // obstructions, or plate reports posted with postIt
	Skip       int64
	Limit      int64
}

// StatusChange is a compare-and-set status update
type StatusChange struct {
	From               models.Status
	To                 models.Status
	Actor              primitive.ObjectID
	ConfirmationImages []models.Image
}

type ReportRepository interface {
	CreateReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	GetReportsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Report, error)
	// ReplaceReport overwrites the report only while its stored status equals expect
	ReplaceReport(ctx context.Context, r *models.Report, expect models.Status) error
	// ChangeReportStatus applies the change only while the stored status equals change.From
	ChangeReportStatus(ctx context.Context, id primitive.ObjectID, change StatusChange) (*models.Report, error)
	// DeleteReport removes the report only while its stored status equals expect
	DeleteReport(ctx context.Context, id primitive.ObjectID, expect models.Status) error
	// ListReports returns a page newest first together with the total match count
	ListReports(ctx context.Context, filter ReportFilter) ([]*models.Report, int64, error)
	// DistinctPlates lists normalized plates of reports matching the filter
	DistinctPlates(ctx context.Context, filter ReportFilter) ([]string, error)
}

type PlateRepository interface {
	// LinkReport appends the report to the plate's aggregate, creating it when absent.
	// ErrAlreadyExists signals a lost creation race; callers retry.
	LinkReport(ctx context.Context, plate, display string, reportID primitive.ObjectID, violations []string) (*models.PlateAggregate, error)
	UnlinkReport(ctx context.Context, plate string, reportID primitive.ObjectID) (*models.PlateAggregate, error)
	SetPlateViolations(ctx context.Context, plate string, violations []string) error
	DeletePlate(ctx context.Context, plate string) error
	GetPlate(ctx context.Context, plate string) (*models.PlateAggregate, error)
	GetPlateByID(ctx context.Context, id primitive.ObjectID) (*models.PlateAggregate, error)
	GetPlates(ctx context.Context, plates []string) ([]*models.PlateAggregate, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComments(ctx context.Context, reportID primitive.ObjectID) ([]*models.Comment, error)
}

type GeoRepository interface {
	UpsertGeoPoint(ctx context.Context, p *models.GeoPoint) error
	DeleteGeoPoint(ctx context.Context, reportID primitive.ObjectID) error
	FindGeoPoints(ctx context.Context, bounds models.Bounds) ([]*models.GeoPoint, error)
}

// UpdateUserArgs holds optional profile changes
type UpdateUserArgs struct {
	FirstName     *string
	LastName      *string
	PhoneNumber   *string
	Address       *string
	Avatar        *models.Image
	Role          *models.Role
	ExpoPushToken *string
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, args UpdateUserArgs) (*models.User, error)
}

type AnnouncementRepository interface {
	CreateAnnouncement(ctx context.Context, a *models.Announcement) error
	GetAnnouncements(ctx context.Context, skip, limit int64) ([]*models.Announcement, error)
}
