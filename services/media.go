package services

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"parkwatch-be/models"
	"parkwatch-be/storage"
)

// Upload is an image received with a request
type Upload struct {
	Filename    string
	ContentType string
	Body        []byte
}

const (
	FolderReports       = "reports"
	FolderObstructions  = "obstructions"
	FolderConfirmations = "confirmations"
	FolderAvatars       = "avatars"
	FolderAnnouncements = "announcements"
)

// MediaService stores uploaded images
type MediaService struct {
	storage storage.ImageStorage
	l       *zap.Logger
}

func NewMediaService(s storage.ImageStorage, l *zap.Logger) *MediaService {
	return &MediaService{storage: s, l: l.Named("media")}
}

func (u Upload) contentType() string {
	ct := u.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(u.Body)
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return ct
}

func (u Upload) extension(ct string) string {
	if ext := strings.ToLower(filepath.Ext(u.Filename)); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(ct); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// UploadAll stores files concurrently and returns them in input order.
// Either every file is stored or none is.
func (s *MediaService) UploadAll(ctx context.Context, folder string, files []Upload) ([]models.Image, error) {
	for i, f := range files {
		if len(f.Body) == 0 {
			return nil, ValidationError("image %d is empty", i+1)
		}
		if !strings.HasPrefix(f.contentType(), "image/") {
			return nil, ValidationError("file %q is not an image", f.Filename)
		}
	}

	images := make([]models.Image, len(files))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, f := range files {
		eg.Go(func() error {
			ct := f.contentType()
			key := path.Join(folder, uuid.NewString()+f.extension(ct))
			url, err := s.storage.Save(egCtx, key, ct, f.Body)
			if err != nil {
				return err
			}
			images[i] = models.Image{URL: url, PublicID: key}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		s.DeleteAll(context.WithoutCancel(ctx), images)
		return nil, err
	}
	return images, nil
}

// DeleteAll removes stored images, logging failures
func (s *MediaService) DeleteAll(ctx context.Context, images []models.Image) {
	for _, img := range images {
		if img.PublicID == "" {
			continue
		}
		if err := s.storage.Delete(ctx, img.PublicID); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			s.l.Warn("failed to delete image", zap.String("key", img.PublicID), zap.Error(err))
		}
	}
}
