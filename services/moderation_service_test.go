package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parkwatch-be/models"
)

func TestModerationService_ObstructionLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	mod := admin()

	r, err := env.reports.Create(ctx, citizen(), obstructionArgs())
	require.NoError(t, err)
	assert.Equal(t, models.Pending, r.Status)
	assert.Equal(t, "Rizal Street", r.Location)
	assert.Len(t, r.Images, 2)

	approved, err := env.moderation.Approve(ctx, mod, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Approved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, mod.ID, *approved.ApprovedBy)

	points, err := env.geo.QueryRegion(ctx, mod, models.Bounds{MinLat: 14, MinLng: 120, MaxLat: 15, MaxLng: 121})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, r.ID, points[0].ReportID)
	assert.Equal(t, "obstruction", points[0].ViolationType)

	resolved, err := env.moderation.Resolve(ctx, mod, r.ID, confirmation())
	require.NoError(t, err)
	assert.Equal(t, models.Resolved, resolved.Status)
	assert.Equal(t, confirmation(), resolved.ConfirmationImages)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = env.moderation.Resolve(ctx, mod, r.ID, confirmation())
	assert.ErrorIs(t, err, ErrInvalidState)

	points, err = env.geo.QueryRegion(ctx, mod, models.Bounds{MinLat: 14, MinLng: 120, MaxLat: 15, MaxLng: 121})
	require.NoError(t, err)
	assert.Empty(t, points)

	evs := env.events.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, models.Approved, evs[0].Status)
	assert.Equal(t, models.Resolved, evs[1].Status)
	assert.Equal(t, r.ID, evs[1].ReportID)
	assert.Equal(t, mod.ID, evs[1].ActorID)
}

func TestModerationService_Approve(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	r, err := env.reports.Create(ctx, citizen(), obstructionArgs())
	require.NoError(t, err)

	_, err = env.moderation.Approve(ctx, citizen(), r.ID)
	assert.ErrorIs(t, err, ErrPermission)
	_, err = env.moderation.Approve(ctx, admin(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.moderation.Approve(ctx, superadmin(), r.ID)
	require.NoError(t, err)
	_, err = env.moderation.Approve(ctx, admin(), r.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	got, err := env.repo.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Approved, got.Status)
}

func TestModerationService_ConcurrentApprove(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	r, err := env.reports.Create(ctx, citizen(), obstructionArgs())
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.moderation.Approve(ctx, admin(), r.ID)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInvalidState)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
	assert.Len(t, env.events.Events(), 1)
}

func TestModerationService_Resolve(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	r, err := env.reports.Create(ctx, citizen(), obstructionArgs())
	require.NoError(t, err)

	for _, a := range []Actor{citizen(), admin(), superadmin(), {}} {
		_, err := env.moderation.Resolve(ctx, a, r.ID, nil)
		assert.ErrorIs(t, err, ErrValidation)
		_, err = env.moderation.Resolve(ctx, a, primitive.NewObjectID(), []models.Image{})
		assert.ErrorIs(t, err, ErrValidation)
	}

	_, err = env.moderation.Resolve(ctx, admin(), r.ID, confirmation())
	assert.ErrorIs(t, err, ErrInvalidState, "pending cannot skip approval")

	_, err = env.moderation.Approve(ctx, admin(), r.ID)
	require.NoError(t, err)
	_, err = env.moderation.Resolve(ctx, citizen(), r.ID, confirmation())
	assert.ErrorIs(t, err, ErrPermission)
}

func TestModerationService_UpdateStatus(t *testing.T) {
	t.Parallel()

	t.Run("single report", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		ctx := context.Background()
		mod := admin()

		r, err := env.reports.Create(ctx, citizen(), obstructionArgs())
		require.NoError(t, err)

		res, err := env.moderation.UpdateStatus(ctx, mod, UpdateStatusArgs{ReportID: r.ID, Status: models.Approved})
		require.NoError(t, err)
		require.Len(t, res.Reports, 1)
		assert.Nil(t, res.Aggregate)

		_, err = env.moderation.UpdateStatus(ctx, mod, UpdateStatusArgs{ReportID: r.ID, Status: models.Resolved})
		assert.ErrorIs(t, err, ErrValidation)

		res, err = env.moderation.UpdateStatus(ctx, mod, UpdateStatusArgs{
			ReportID:     r.ID,
			Status:       models.Resolved,
			Confirmation: images(2),
		})
		require.NoError(t, err)
		assert.Equal(t, models.Resolved, res.Reports[0].Status)
		assert.Len(t, res.Reports[0].ConfirmationImages, 2)

		_, err = env.moderation.UpdateStatus(ctx, mod, UpdateStatusArgs{ReportID: r.ID, Status: models.Pending})
		assert.ErrorIs(t, err, ErrInvalidState)
		_, err = env.moderation.UpdateStatus(ctx, mod, UpdateStatusArgs{ReportID: r.ID, Status: "Closed"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("failed transition removes uploaded confirmation", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		ctx := context.Background()

		r, err := env.reports.Create(ctx, citizen(), obstructionArgs())
		require.NoError(t, err)

		_, err = env.moderation.UpdateStatus(ctx, admin(), UpdateStatusArgs{
			ReportID:     r.ID,
			Status:       models.Resolved,
			Confirmation: images(1),
		})
		assert.ErrorIs(t, err, ErrInvalidState)
		deleted := env.deletedKeys()
		require.Len(t, deleted, 1)
		assert.Contains(t, deleted[0], FolderConfirmations+"/")
	})

	t.Run("aggregate resolves every approved constituent", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		ctx := context.Background()
		mod := admin()

		r1, err := env.reports.Create(ctx, citizen(), plateArgs("ABC123", "no parking"))
		require.NoError(t, err)
		r2, err := env.reports.Create(ctx, citizen(), plateArgs("ABC123", "double parking"))
		require.NoError(t, err)
		r3, err := env.reports.Create(ctx, citizen(), plateArgs("ABC123"))
		require.NoError(t, err)

		view, err := env.plates.Get(ctx, mod, "ABC123")
		require.NoError(t, err)

		// approve r1 and r2 through the aggregate, r3 stays pending
		res, err := env.moderation.UpdateStatus(ctx, mod, UpdateStatusArgs{
			ReportID:  r1.ID,
			Status:    models.Approved,
			PlateID:   view.ID.Hex(),
			ReportIDs: []primitive.ObjectID{r1.ID, r2.ID},
		})
		require.NoError(t, err)
		assert.Len(t, res.Reports, 2)
		assert.Equal(t, models.Pending, res.Aggregate.Status)

		list, err := env.moderation.ListApproved(ctx, mod, models.KindPlate)
		require.NoError(t, err)
		require.Len(t, list.Aggregates, 1)
		assert.Len(t, list.Aggregates[0].ReportDetails, 3)

		res, err = env.moderation.UpdateStatus(ctx, mod, UpdateStatusArgs{
			ReportID:     r1.ID,
			Status:       models.Resolved,
			PlateID:      "abc 123",
			Confirmation: images(1),
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []primitive.ObjectID{r1.ID, r2.ID}, ids(res.Reports))
		assert.Equal(t, models.Pending, res.Aggregate.Status, "r3 keeps the aggregate open")

		got, err := env.repo.GetReport(ctx, r3.ID)
		require.NoError(t, err)
		assert.Equal(t, models.Pending, got.Status)

		_, err = env.moderation.UpdateStatus(ctx, mod, UpdateStatusArgs{
			Status:       models.Resolved,
			PlateID:      view.ID.Hex(),
			Confirmation: images(1),
		})
		assert.ErrorIs(t, err, ErrInvalidState)

		_, err = env.moderation.Approve(ctx, mod, r3.ID)
		require.NoError(t, err)
		res, err = env.moderation.UpdateStatus(ctx, mod, UpdateStatusArgs{
			Status:       models.Resolved,
			PlateID:      view.ID.Hex(),
			Confirmation: images(1),
		})
		require.NoError(t, err)
		assert.Equal(t, models.Resolved, res.Aggregate.Status)
	})

	t.Run("foreign report ids are rejected", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		ctx := context.Background()

		_, err := env.reports.Create(ctx, citizen(), plateArgs("ABC123"))
		require.NoError(t, err)
		other, err := env.reports.Create(ctx, citizen(), plateArgs("XYZ987"))
		require.NoError(t, err)

		_, err = env.moderation.UpdateStatus(ctx, admin(), UpdateStatusArgs{
			Status:    models.Approved,
			PlateID:   "ABC123",
			ReportIDs: []primitive.ObjectID{other.ID},
		})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestModerationService_ListApproved(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	mod := admin()

	o1, err := env.reports.Create(ctx, citizen(), obstructionArgs())
	require.NoError(t, err)
	_, err = env.reports.Create(ctx, citizen(), obstructionArgs())
	require.NoError(t, err)
	p1, err := env.reports.Create(ctx, citizen(), plateArgs("ABC123"))
	require.NoError(t, err)
	_, err = env.reports.Create(ctx, citizen(), plateArgs("XYZ987"))
	require.NoError(t, err)

	for _, id := range []primitive.ObjectID{o1.ID, p1.ID} {
		_, err := env.moderation.Approve(ctx, mod, id)
		require.NoError(t, err)
	}

	list, err := env.moderation.ListApproved(ctx, mod, models.KindObstruction)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{o1.ID}, ids(list.Reports))

	list, err = env.moderation.ListApproved(ctx, mod, models.KindPlate)
	require.NoError(t, err)
	require.Len(t, list.Aggregates, 1)
	assert.Equal(t, "ABC123", list.Aggregates[0].PlateNumber)
	assert.Equal(t, models.Approved, list.Aggregates[0].Status)

	_, err = env.moderation.ListApproved(ctx, citizen(), models.KindPlate)
	assert.ErrorIs(t, err, ErrPermission)
	_, err = env.moderation.ListApproved(ctx, mod, "pothole")
	assert.ErrorIs(t, err, ErrValidation)
}
