package mongo

import (
	"context"
	"fmt"

	"parkwatch-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (repo *Repository) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := repo.col(commentCollection).InsertOne(ctx, c); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (repo *Repository) GetComments(ctx context.Context, reportID primitive.ObjectID) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if err := findMany(ctx, repo.col(commentCollection), bson.M{"report": reportID}, &comments, opts); err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	return comments, nil
}
