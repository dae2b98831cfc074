package mongo

import (
	"context"
	"fmt"

	"parkwatch-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (repo *Repository) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Pictures == nil {
		a.Pictures = []models.Image{}
	}
	if _, err := repo.col(announcementCollection).InsertOne(ctx, a); err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

func (repo *Repository) GetAnnouncements(ctx context.Context, skip, limit int64) ([]*models.Announcement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	result := []*models.Announcement{}
	if err := findMany(ctx, repo.col(announcementCollection), bson.M{}, &result, opts); err != nil {
		return nil, fmt.Errorf("failed to get announcements: %w", err)
	}
	return result, nil
}
