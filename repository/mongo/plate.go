package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkwatch-be/models"
	"parkwatch-be/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LinkReport is a single upsert against the unique plateNumber index. Two
// concurrent first inserts for one plate make one of them fail with a
// duplicate key error, reported as ErrAlreadyExists so the caller retries
// and lands on the update path.
func (repo *Repository) LinkReport(ctx context.Context, plate, display string, reportID primitive.ObjectID, violations []string) (*models.PlateAggregate, error) {
	if violations == nil {
		violations = []string{}
	}
	now := time.Now()
	update := newUpdateBuilder().
		SetOnInsert("_id", primitive.NewObjectID()).
		SetOnInsert("displayPlate", display).
		SetOnInsert("createdAt", now).
		Push("reportDetails", reportID).
		AddToSet("violations", violations).
		Inc("count", 1).
		Set("updatedAt", now).
		Build()

	var agg models.PlateAggregate
	err := repo.col(plateCollection).FindOneAndUpdate(
		ctx,
		bson.M{"plateNumber": plate},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&agg)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to link report to plate: %w", err)
	}
	return &agg, nil
}

func (repo *Repository) UnlinkReport(ctx context.Context, plate string, reportID primitive.ObjectID) (*models.PlateAggregate, error) {
	update := newUpdateBuilder().
		Pull("reportDetails", reportID).
		Inc("count", -1).
		Set("updatedAt", time.Now()).
		Build()

	var agg models.PlateAggregate
	err := repo.col(plateCollection).FindOneAndUpdate(
		ctx,
		bson.M{"plateNumber": plate, "reportDetails": reportID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&agg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to unlink report from plate: %w", err)
	}
	return &agg, nil
}

func (repo *Repository) SetPlateViolations(ctx context.Context, plate string, violations []string) error {
	if violations == nil {
		violations = []string{}
	}
	res, err := repo.col(plateCollection).UpdateOne(ctx,
		bson.M{"plateNumber": plate},
		newUpdateBuilder().Set("violations", violations).Set("updatedAt", time.Now()).Build(),
	)
	if err != nil {
		return fmt.Errorf("failed to update plate violations: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (repo *Repository) DeletePlate(ctx context.Context, plate string) error {
	res, err := repo.col(plateCollection).DeleteOne(ctx, bson.M{"plateNumber": plate})
	if err != nil {
		return fmt.Errorf("failed to delete plate: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (repo *Repository) GetPlate(ctx context.Context, plate string) (*models.PlateAggregate, error) {
	return repo.getPlate(ctx, bson.M{"plateNumber": plate})
}

func (repo *Repository) GetPlateByID(ctx context.Context, id primitive.ObjectID) (*models.PlateAggregate, error) {
	return repo.getPlate(ctx, bson.M{"_id": id})
}

func (repo *Repository) getPlate(ctx context.Context, filter bson.M) (*models.PlateAggregate, error) {
	var agg models.PlateAggregate
	if err := findOne(ctx, repo.col(plateCollection), filter, &agg); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get plate: %w", err)
	}
	return &agg, nil
}

func (repo *Repository) GetPlates(ctx context.Context, plates []string) ([]*models.PlateAggregate, error) {
	result := []*models.PlateAggregate{}
	if len(plates) == 0 {
		return result, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	if err := findMany(ctx, repo.col(plateCollection), bson.M{"plateNumber": bson.M{"$in": plates}}, &result, opts); err != nil {
		return nil, fmt.Errorf("failed to get plates: %w", err)
	}
	return result, nil
}
