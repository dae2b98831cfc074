// Package repositorytest holds behaviour every repository.Repository must share
package repositorytest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parkwatch-be/models"
	"parkwatch-be/repository"
)

func newReport(kind models.ReportKind, reporter primitive.ObjectID, plate string) *models.Report {
	now := time.Now()
	r := &models.Report{
		ID:                 primitive.NewObjectID(),
		Kind:               kind,
		Original:           "parked on the sidewalk",
		Location:           "Rizal Avenue",
		Violations:         []string{},
		Images:             []models.Image{{URL: "https://cdn.test/a.png", PublicID: "reports/a.png"}},
		ConfirmationImages: []models.Image{},
		Status:             models.Pending,
		Reporter:           reporter,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if kind == models.KindPlate {
		r.PlateNumber = plate
		r.PlateKey = models.NormalizePlate(plate)
	}
	return r
}

// Run exercises repo against the contract the services rely on. newRepo must
// return an empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) repository.Repository) {
	t.Run("report status compare and set", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		r := newReport(models.KindObstruction, primitive.NewObjectID(), "")
		require.NoError(t, repo.CreateReport(ctx, r))

		_, err := repo.GetReport(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, repository.ErrNotFound)

		admin := primitive.NewObjectID()
		got, err := repo.ChangeReportStatus(ctx, r.ID, repository.StatusChange{From: models.Pending, To: models.Approved, Actor: admin})
		require.NoError(t, err)
		assert.Equal(t, models.Approved, got.Status)
		require.NotNil(t, got.ApprovedBy)
		assert.Equal(t, admin, *got.ApprovedBy)

		_, err = repo.ChangeReportStatus(ctx, r.ID, repository.StatusChange{From: models.Pending, To: models.Approved, Actor: admin})
		assert.ErrorIs(t, err, repository.ErrStatusMismatch)

		confirmation := []models.Image{{URL: "https://cdn.test/c.png", PublicID: "confirmations/c.png"}}
		got, err = repo.ChangeReportStatus(ctx, r.ID, repository.StatusChange{From: models.Approved, To: models.Resolved, Actor: admin, ConfirmationImages: confirmation})
		require.NoError(t, err)
		assert.Equal(t, models.Resolved, got.Status)
		assert.Equal(t, confirmation, got.ConfirmationImages)

		assert.ErrorIs(t, repo.DeleteReport(ctx, r.ID, models.Pending), repository.ErrStatusMismatch)
		assert.ErrorIs(t, repo.ReplaceReport(ctx, r, models.Pending), repository.ErrStatusMismatch)
	})

	t.Run("concurrent approvals have one winner", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		r := newReport(models.KindObstruction, primitive.NewObjectID(), "")
		require.NoError(t, repo.CreateReport(ctx, r))

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.ChangeReportStatus(ctx, r.ID, repository.StatusChange{From: models.Pending, To: models.Approved, Actor: primitive.NewObjectID()})
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})

	t.Run("list filters", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		me := primitive.NewObjectID()

		hidden := newReport(models.KindPlate, me, "ABC123")
		posted := newReport(models.KindPlate, primitive.NewObjectID(), "XYZ789")
		posted.PostIt = true
		obstruction := newReport(models.KindObstruction, primitive.NewObjectID(), "")
		for _, r := range []*models.Report{hidden, posted, obstruction} {
			r.Status = models.Approved
			require.NoError(t, repo.CreateReport(ctx, r))
		}

		public, total, err := repo.ListReports(ctx, repository.ReportFilter{PublicOnly: true, Statuses: []models.Status{models.Approved}})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, public, 2)
		assert.ElementsMatch(t, []primitive.ObjectID{posted.ID, obstruction.ID}, []primitive.ObjectID{public[0].ID, public[1].ID})

		mine, total, err := repo.ListReports(ctx, repository.ReportFilter{Reporter: me})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, mine, 1)
		assert.Equal(t, hidden.ID, mine[0].ID)

		page, total, err := repo.ListReports(ctx, repository.ReportFilter{Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, page, 2)

		page, _, err = repo.ListReports(ctx, repository.ReportFilter{Skip: 10, Limit: 2})
		require.NoError(t, err)
		assert.Empty(t, page)

		page, _, err = repo.ListReports(ctx, repository.ReportFilter{Skip: -8, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, page, 2, "a negative skip reads from the start")

		plates, err := repo.DistinctPlates(ctx, repository.ReportFilter{Kind: models.KindPlate, Statuses: []models.Status{models.Approved}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"ABC123", "XYZ789"}, plates)
	})

	t.Run("plate aggregate", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a, b := primitive.NewObjectID(), primitive.NewObjectID()

		_, err := repo.LinkReport(ctx, "ABC123", "ABC 123", a, []string{"no parking"})
		require.NoError(t, err)
		agg, err := repo.LinkReport(ctx, "ABC123", "abc123", b, []string{"no parking", "double parking"})
		require.NoError(t, err)
		assert.Equal(t, 2, agg.Count)
		assert.Equal(t, "ABC 123", agg.DisplayPlate)
		assert.ElementsMatch(t, []primitive.ObjectID{a, b}, agg.ReportIDs)
		assert.ElementsMatch(t, []string{"no parking", "double parking"}, agg.Violations)

		byID, err := repo.GetPlateByID(ctx, agg.ID)
		require.NoError(t, err)
		assert.Equal(t, "ABC123", byID.PlateNumber)

		agg, err = repo.UnlinkReport(ctx, "ABC123", a)
		require.NoError(t, err)
		assert.Equal(t, 1, agg.Count)
		assert.Equal(t, []primitive.ObjectID{b}, agg.ReportIDs)

		require.NoError(t, repo.SetPlateViolations(ctx, "ABC123", []string{"double parking"}))
		require.NoError(t, repo.DeletePlate(ctx, "ABC123"))
		_, err = repo.GetPlate(ctx, "ABC123")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("geo points", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		inside := &models.GeoPoint{ReportID: primitive.NewObjectID(), Latitude: 14.6, Longitude: 120.98, Kind: models.KindPlate, ViolationType: "no parking", IndexedAt: time.Now()}
		outside := &models.GeoPoint{ReportID: primitive.NewObjectID(), Latitude: 10.3, Longitude: 123.9, Kind: models.KindObstruction, ViolationType: "obstruction", IndexedAt: time.Now()}
		require.NoError(t, repo.UpsertGeoPoint(ctx, inside))
		require.NoError(t, repo.UpsertGeoPoint(ctx, outside))
		require.NoError(t, repo.UpsertGeoPoint(ctx, inside))

		bounds := models.Bounds{MinLat: 14, MinLng: 120, MaxLat: 15, MaxLng: 121}
		points, err := repo.FindGeoPoints(ctx, bounds)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Equal(t, inside.ReportID, points[0].ReportID)

		require.NoError(t, repo.DeleteGeoPoint(ctx, inside.ReportID))
		points, err = repo.FindGeoPoints(ctx, bounds)
		require.NoError(t, err)
		assert.Empty(t, points)
	})

	t.Run("users", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		u := &models.User{ID: primitive.NewObjectID(), FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com", Role: models.RoleUser}
		require.NoError(t, repo.CreateUser(ctx, u))
		dup := &models.User{ID: primitive.NewObjectID(), Email: "ana@example.com", Role: models.RoleUser}
		assert.ErrorIs(t, repo.CreateUser(ctx, dup), repository.ErrAlreadyExists)

		got, err := repo.GetUserByEmail(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		role := models.RoleAdmin
		got, err = repo.UpdateUser(ctx, u.ID, repository.UpdateUserArgs{Role: &role})
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, got.Role)
		assert.Equal(t, "Ana", got.FirstName)

		_, err = repo.UpdateUser(ctx, primitive.NewObjectID(), repository.UpdateUserArgs{Role: &role})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("comments and announcements", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		reportID := primitive.NewObjectID()
		for i, text := range []string{"first", "second"} {
			require.NoError(t, repo.CreateComment(ctx, &models.Comment{
				ID:         primitive.NewObjectID(),
				Report:     reportID,
				AuthorRole: models.RoleUser,
				Content:    text,
				CreatedAt:  time.Now().Add(time.Duration(i) * time.Second),
			}))
		}
		comments, err := repo.GetComments(ctx, reportID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "first", comments[0].Content)

		base := time.Now()
		for i, title := range []string{"old", "new"} {
			require.NoError(t, repo.CreateAnnouncement(ctx, &models.Announcement{
				ID:        primitive.NewObjectID(),
				Title:     title,
				Pictures:  []models.Image{},
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}))
		}
		list, err := repo.GetAnnouncements(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "new", list[0].Title)

		list, err = repo.GetAnnouncements(ctx, -4, 10)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}
