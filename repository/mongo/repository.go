package mongo

import (
	"context"
	"fmt"
	"time"

	"parkwatch-be/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	reportCollection       = "reports"
	plateCollection        = "plates"
	commentCollection      = "comments"
	geoCollection          = "geopoints"
	userCollection         = "users"
	announcementCollection = "announcements"
)

// Repository implements repository.Repository on MongoDB
type Repository struct {
	db *mongo.Database
}

var _ repository.Repository = (*Repository)(nil)

func New(db *mongo.Database) *Repository {
	return &Repository{db: db}
}

func (repo *Repository) col(name string) *mongo.Collection {
	return repo.db.Collection(name)
}

// EnsureIndexes creates the indexes the repository relies on. The unique
// plate index is what keeps one aggregate per plate across instances.
func (repo *Repository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		plateCollection: {
			{Keys: bson.D{{Key: "plateNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		reportCollection: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "reporter", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "plateKey", Value: 1}}},
		},
		commentCollection: {
			{Keys: bson.D{{Key: "report", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		geoCollection: {
			{Keys: bson.D{{Key: "coordinates", Value: "2d"}}},
		},
		userCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		announcementCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
	for name, indexes := range specs {
		if _, err := repo.col(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
