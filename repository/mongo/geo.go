package mongo

import (
	"context"
	"fmt"

	"parkwatch-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// geoDocument adds the legacy [lng, lat] pair the 2d index works on
type geoDocument struct {
	models.GeoPoint `bson:",inline"`
	Coordinates     [2]float64 `bson:"coordinates"`
}

func (repo *Repository) UpsertGeoPoint(ctx context.Context, p *models.GeoPoint) error {
	doc := geoDocument{GeoPoint: *p, Coordinates: [2]float64{p.Longitude, p.Latitude}}
	_, err := repo.col(geoCollection).ReplaceOne(ctx, bson.M{"_id": p.ReportID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to index geo point: %w", err)
	}
	return nil
}

func (repo *Repository) DeleteGeoPoint(ctx context.Context, reportID primitive.ObjectID) error {
	if _, err := repo.col(geoCollection).DeleteOne(ctx, bson.M{"_id": reportID}); err != nil {
		return fmt.Errorf("failed to delete geo point: %w", err)
	}
	return nil
}

func (repo *Repository) FindGeoPoints(ctx context.Context, b models.Bounds) ([]*models.GeoPoint, error) {
	filter := bson.M{
		"coordinates": bson.M{
			"$geoWithin": bson.M{
				"$box": bson.A{
					bson.A{b.MinLng, b.MinLat},
					bson.A{b.MaxLng, b.MaxLat},
				},
			},
		},
	}
	var docs []geoDocument
	opts := options.Find().SetSort(bson.D{{Key: "indexedAt", Value: -1}})
	if err := findMany(ctx, repo.col(geoCollection), filter, &docs, opts); err != nil {
		return nil, fmt.Errorf("failed to query geo points: %w", err)
	}
	points := make([]*models.GeoPoint, 0, len(docs))
	for i := range docs {
		points = append(points, &docs[i].GeoPoint)
	}
	return points, nil
}
