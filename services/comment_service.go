package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"parkwatch-be/metrics"
	"parkwatch-be/models"
	"parkwatch-be/rbac"
	"parkwatch-be/repository"
)

// CommentService appends and reads report comments. Stored content is never
// filtered; masking happens per viewer on read.
type CommentService struct {
	repo   repository.Repository
	filter *ProfanityFilter
	l      *zap.Logger
}

func NewCommentService(repo repository.Repository, filter *ProfanityFilter, l *zap.Logger) *CommentService {
	return &CommentService{repo: repo, filter: filter, l: l.Named("comment")}
}

func (s *CommentService) visibleReport(ctx context.Context, actor Actor, reportID primitive.ObjectID) error {
	r, err := s.repo.GetReport(ctx, reportID)
	if errors.Is(err, repository.ErrNotFound) {
		return NotFoundError("report not found")
	}
	if err != nil {
		return err
	}
	if !canView(actor, r) {
		return NotFoundError("report not found")
	}
	return nil
}

func (s *CommentService) Add(ctx context.Context, actor Actor, reportID primitive.ObjectID, text string) (*models.Comment, error) {
	if err := requirePermission(actor, rbac.PostComment); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ValidationError("comment text is required")
	}
	if err := s.visibleReport(ctx, actor, reportID); err != nil {
		return nil, err
	}

	author := actor.ID
	c := &models.Comment{
		ID:         primitive.NewObjectID(),
		Report:     reportID,
		Author:     &author,
		AuthorRole: actor.Role,
		Content:    text,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	metrics.CommentsPosted.Inc()
	return c, nil
}

// List returns the report's comments oldest first. Viewers without
// ViewRawComments get masked content and anonymous citizen authors.
func (s *CommentService) List(ctx context.Context, actor Actor, reportID primitive.ObjectID) ([]*models.Comment, error) {
	if err := s.visibleReport(ctx, actor, reportID); err != nil {
		return nil, err
	}
	comments, err := s.repo.GetComments(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if actor.Can(rbac.ViewRawComments) {
		return comments, nil
	}
	for _, c := range comments {
		c.Content = s.filter.Clean(c.Content)
		if c.AuthorRole == models.RoleUser && (c.Author == nil || *c.Author != actor.ID) {
			c.Author = nil
		}
	}
	return comments, nil
}
