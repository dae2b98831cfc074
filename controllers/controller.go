package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"parkwatch-be/middlewares"
	"parkwatch-be/models"
	"parkwatch-be/services"
)

const maxImageSize = 10 << 20

// Handlers holds the services behind the HTTP API
type Handlers struct {
	Reports       *services.ReportService
	Plates        *services.PlateService
	Moderation    *services.ModerationService
	Comments      *services.CommentService
	Geo           *services.GeoService
	Streets       *services.StreetService
	Users         *services.UserService
	Announcements *services.AnnouncementService

	SecureCookies bool
	TokenTTL      time.Duration
	Logger        *zap.Logger
}

// actor builds the caller from the claims set by AuthMiddleware
func actor(c *gin.Context) services.Actor {
	id, _ := primitive.ObjectIDFromHex(c.GetString(middlewares.ContextUserID))
	role, _ := c.Get(middlewares.ContextRole)
	r, _ := role.(models.Role)
	return services.Actor{ID: id, Role: r}
}

var statusByKind = map[services.Kind]int{
	services.KindValidation:      http.StatusBadRequest,
	services.KindPermission:      http.StatusForbidden,
	services.KindInvalidState:    http.StatusConflict,
	services.KindNotFound:        http.StatusNotFound,
	services.KindConflict:        http.StatusConflict,
	services.KindUnauthenticated: http.StatusUnauthorized,
}

// respondError writes the typed error as {"error": msg}. Untyped errors are
// logged and hidden behind a generic message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	if status, ok := statusByKind[services.KindOf(err)]; ok {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	h.Logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}

func badRequest(c *gin.Context, format string, args ...any) {
	c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(format, args...)})
}

func paramID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid %s", name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func readFile(fh *multipart.FileHeader) (services.Upload, error) {
	if fh.Size > maxImageSize {
		return services.Upload{}, services.ValidationError("image %q exceeds %d MB", fh.Filename, maxImageSize>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return services.Upload{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	body, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return services.Upload{}, fmt.Errorf("failed to read upload: %w", err)
	}
	return services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// formFiles reads every file sent under any of the given field names
func formFiles(c *gin.Context, fields ...string) ([]services.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, services.ValidationError("invalid multipart form")
	}
	var uploads []services.Upload
	for _, field := range fields {
		for _, fh := range form.File[field] {
			u, err := readFile(fh)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, u)
		}
	}
	return uploads, nil
}
