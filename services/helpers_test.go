package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"parkwatch-be/events"
	"parkwatch-be/locker"
	"parkwatch-be/models"
	"parkwatch-be/repository/memory"
	"parkwatch-be/storage/mock_storage"
	authUtils "parkwatch-be/utils"
)

type testEnv struct {
	repo       *memory.Repository
	store      *mock_storage.MockImageStorage
	events     *events.Recorder
	media      *MediaService
	plates     *PlateService
	geo        *GeoService
	reports    *ReportService
	moderation *ModerationService
	comments   *CommentService
	users      *UserService
	announce   *AnnouncementService

	mu      sync.Mutex
	deleted []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	env := &testEnv{
		repo:   memory.New(),
		store:  mock_storage.NewMockImageStorage(ctrl),
		events: &events.Recorder{},
	}
	env.store.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key, _ string, _ []byte) (string, error) {
			return "https://cdn.test/" + key, nil
		}).
		AnyTimes()
	env.store.EXPECT().
		Delete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key string) error {
			env.mu.Lock()
			defer env.mu.Unlock()
			env.deleted = append(env.deleted, key)
			return nil
		}).
		AnyTimes()

	l := zap.NewNop()
	jwt, err := authUtils.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	env.media = NewMediaService(env.store, l)
	env.plates = NewPlateService(env.repo, locker.NewKeyMutex(16), l)
	env.geo = NewGeoService(env.repo, l)
	env.reports = NewReportService(env.repo, env.plates, env.media, l)
	env.moderation = NewModerationService(env.repo, env.plates, env.geo, env.media, env.events, l)
	env.comments = NewCommentService(env.repo, NewProfanityFilter(DefaultProfanity), l)
	env.users = NewUserService(env.repo, jwt, env.media, l)
	env.announce = NewAnnouncementService(env.repo, env.media, l)
	return env
}

func (e *testEnv) deletedKeys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.deleted...)
}

func citizen() Actor {
	return Actor{ID: primitive.NewObjectID(), Role: models.RoleUser}
}

func admin() Actor {
	return Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
}

func superadmin() Actor {
	return Actor{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func images(n int) []Upload {
	files := make([]Upload, n)
	for i := range files {
		files[i] = Upload{Filename: fmt.Sprintf("photo%d.png", i), ContentType: "image/png", Body: pngHeader}
	}
	return files
}

func plateArgs(plate string, violations ...string) CreateReportArgs {
	return CreateReportArgs{
		Kind:        models.KindPlate,
		Description: "double parked in front of the school",
		Location:    "Rizal Street",
		GeoCode:     &models.GeoCode{Latitude: 14.5995, Longitude: 120.9842},
		PlateNumber: plate,
		Violations:  violations,
		Images:      images(3),
	}
}

func obstructionArgs() CreateReportArgs {
	return CreateReportArgs{
		Kind:        models.KindObstruction,
		Description: "construction debris blocking the lane",
		Location:    "Rizal Street",
		GeoCode:     &models.GeoCode{Latitude: 14.6, Longitude: 120.98},
		Images:      images(2),
	}
}

func confirmation() []models.Image {
	return []models.Image{{URL: "https://cdn.test/confirmations/a.png", PublicID: "confirmations/a.png"}}
}
