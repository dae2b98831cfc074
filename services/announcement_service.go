package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"parkwatch-be/models"
	"parkwatch-be/rbac"
	"parkwatch-be/repository"
)

type AnnouncementService struct {
	repo  repository.AnnouncementRepository
	media *MediaService
	l     *zap.Logger
}

func NewAnnouncementService(repo repository.AnnouncementRepository, media *MediaService, l *zap.Logger) *AnnouncementService {
	return &AnnouncementService{repo: repo, media: media, l: l.Named("announcement")}
}

type CreateAnnouncementArgs struct {
	Title       string
	Description string
	Pictures    []Upload
}

func (s *AnnouncementService) Create(ctx context.Context, actor Actor, args CreateAnnouncementArgs) (*models.Announcement, error) {
	if err := requirePermission(actor, rbac.CreateAnnouncement); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Title) == "" || strings.TrimSpace(args.Description) == "" {
		return nil, ValidationError("title and description are required")
	}
	pictures, err := s.media.UploadAll(ctx, FolderAnnouncements, args.Pictures)
	if err != nil {
		return nil, err
	}
	a := &models.Announcement{
		ID:          primitive.NewObjectID(),
		Title:       args.Title,
		Description: args.Description,
		Pictures:    pictures,
		Author:      actor.ID,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateAnnouncement(ctx, a); err != nil {
		s.media.DeleteAll(context.WithoutCancel(ctx), pictures)
		return nil, err
	}
	return a, nil
}

// List returns announcements newest first
func (s *AnnouncementService) List(ctx context.Context, page, limit int) ([]*models.Announcement, error) {
	page, limit = paginate(page, limit)
	return s.repo.GetAnnouncements(ctx, int64((page-1)*limit), int64(limit))
}
