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

// arrays must never be stored as null, $push and $addToSet reject it
func normalizeReport(r *models.Report) {
	if r.Violations == nil {
		r.Violations = []string{}
	}
	if r.Images == nil {
		r.Images = []models.Image{}
	}
	if r.ConfirmationImages == nil {
		r.ConfirmationImages = []models.Image{}
	}
}

func (repo *Repository) CreateReport(ctx context.Context, r *models.Report) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	normalizeReport(r)
	if _, err := repo.col(reportCollection).InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (repo *Repository) GetReport(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var r models.Report
	if err := findOne(ctx, repo.col(reportCollection), bson.M{"_id": id}, &r); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &r, nil
}

func (repo *Repository) GetReportsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Report, error) {
	if len(ids) == 0 {
		return []*models.Report{}, nil
	}
	var found []*models.Report
	if err := findMany(ctx, repo.col(reportCollection), bson.M{"_id": bson.M{"$in": ids}}, &found); err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}
	// keep the caller's order
	byID := make(map[primitive.ObjectID]*models.Report, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	result := make([]*models.Report, 0, len(found))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			result = append(result, r)
		}
	}
	return result, nil
}

// statusMiss tells a missing document apart from one in another status
func (repo *Repository) statusMiss(ctx context.Context, id primitive.ObjectID) error {
	ok, err := exists(ctx, repo.col(reportCollection), bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to check report: %w", err)
	}
	if !ok {
		return repository.ErrNotFound
	}
	return repository.ErrStatusMismatch
}

func (repo *Repository) ReplaceReport(ctx context.Context, r *models.Report, expect models.Status) error {
	normalizeReport(r)
	res, err := repo.col(reportCollection).ReplaceOne(ctx, bson.M{"_id": r.ID, "status": expect}, r)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if res.MatchedCount == 0 {
		return repo.statusMiss(ctx, r.ID)
	}
	return nil
}

func (repo *Repository) ChangeReportStatus(ctx context.Context, id primitive.ObjectID, change repository.StatusChange) (*models.Report, error) {
	now := time.Now()
	ub := newUpdateBuilder().
		Set("status", change.To).
		Set("updatedAt", now)
	switch change.To {
	case models.Approved:
		ub.Set("approvedBy", change.Actor).Set("approvedAt", now)
	case models.Resolved:
		ub.Set("resolvedBy", change.Actor).Set("resolvedAt", now)
	}
	if len(change.ConfirmationImages) > 0 {
		ub.Push("confirmationImages", bson.M{"$each": change.ConfirmationImages})
	}

	var r models.Report
	err := repo.col(reportCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "status": change.From},
		ub.Build(),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repo.statusMiss(ctx, id)
		}
		return nil, fmt.Errorf("failed to change report status: %w", err)
	}
	return &r, nil
}

func (repo *Repository) DeleteReport(ctx context.Context, id primitive.ObjectID, expect models.Status) error {
	res, err := repo.col(reportCollection).DeleteOne(ctx, bson.M{"_id": id, "status": expect})
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if res.DeletedCount == 0 {
		return repo.statusMiss(ctx, id)
	}
	return nil
}

func reportFilter(f repository.ReportFilter) bson.M {
	filter := bson.M{}
	if f.Kind != "" {
		filter["kind"] = f.Kind
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if !f.Reporter.IsZero() {
		filter["reporter"] = f.Reporter
	}
	if f.PublicOnly {
		filter["$or"] = []bson.M{
			{"kind": models.KindObstruction},
			{"postIt": true},
		}
	}
	return filter
}

func (repo *Repository) ListReports(ctx context.Context, f repository.ReportFilter) ([]*models.Report, int64, error) {
	collection := repo.col(reportCollection)
	filter := reportFilter(f)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	reports := []*models.Report{}
	if err := findMany(ctx, collection, filter, &reports, opts); err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, total, nil
}

func (repo *Repository) DistinctPlates(ctx context.Context, f repository.ReportFilter) ([]string, error) {
	filter := reportFilter(f)
	filter["plateKey"] = bson.M{"$exists": true, "$ne": ""}

	values, err := repo.col(reportCollection).Distinct(ctx, "plateKey", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list plates: %w", err)
	}
	plates := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			plates = append(plates, s)
		}
	}
	return plates, nil
}
