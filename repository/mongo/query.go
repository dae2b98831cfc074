package mongo

import (
	"context"
	"errors"

	"parkwatch-be/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func findOne[T any](ctx context.Context, collection *mongo.Collection, filter bson.M, result *T) error {
	err := collection.FindOne(ctx, filter).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}

func findMany[T any](ctx context.Context, collection *mongo.Collection, filter bson.M, results *[]T, opts ...*options.FindOptions) error {
	cursor, err := collection.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, results)
}

func exists(ctx context.Context, collection *mongo.Collection, filter bson.M) (bool, error) {
	count, err := collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type updateBuilder struct {
	update bson.M
}

func newUpdateBuilder() *updateBuilder {
	return &updateBuilder{update: bson.M{}}
}

func (u *updateBuilder) op(name, key string, value any) *updateBuilder {
	if u.update[name] == nil {
		u.update[name] = bson.M{}
	}
	u.update[name].(bson.M)[key] = value
	return u
}

func (u *updateBuilder) Set(key string, value any) *updateBuilder {
	return u.op("$set", key, value)
}

func (u *updateBuilder) SetOnInsert(key string, value any) *updateBuilder {
	return u.op("$setOnInsert", key, value)
}

func (u *updateBuilder) Inc(key string, value any) *updateBuilder {
	return u.op("$inc", key, value)
}

func (u *updateBuilder) Push(key string, value any) *updateBuilder {
	return u.op("$push", key, value)
}

func (u *updateBuilder) AddToSet(key string, values any) *updateBuilder {
	return u.op("$addToSet", key, bson.M{"$each": values})
}

func (u *updateBuilder) Pull(key string, value any) *updateBuilder {
	return u.op("$pull", key, value)
}

func (u *updateBuilder) Build() bson.M {
	return u.update
}
