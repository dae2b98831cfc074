package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parkwatch-be/models"
	"parkwatch-be/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (repo *Repository) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(u.Email)
	if _, err := repo.col(userCollection).InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (repo *Repository) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return repo.getUser(ctx, bson.M{"_id": id})
}

func (repo *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return repo.getUser(ctx, bson.M{"email": strings.ToLower(email)})
}

func (repo *Repository) getUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := findOne(ctx, repo.col(userCollection), filter, &u); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (repo *Repository) UpdateUser(ctx context.Context, id primitive.ObjectID, args repository.UpdateUserArgs) (*models.User, error) {
	ub := newUpdateBuilder().Set("updatedAt", time.Now())
	if args.FirstName != nil {
		ub.Set("firstName", *args.FirstName)
	}
	if args.LastName != nil {
		ub.Set("lastName", *args.LastName)
	}
	if args.PhoneNumber != nil {
		ub.Set("phoneNumber", *args.PhoneNumber)
	}
	if args.Address != nil {
		ub.Set("address", *args.Address)
	}
	if args.Avatar != nil {
		ub.Set("avatar", *args.Avatar)
	}
	if args.Role != nil {
		ub.Set("role", *args.Role)
	}
	if args.ExpoPushToken != nil {
		ub.Set("expoPushToken", *args.ExpoPushToken)
	}

	var u models.User
	err := repo.col(userCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		ub.Build(),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &u, nil
}
