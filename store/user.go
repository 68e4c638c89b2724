package store

import (
	"context"

	"github.com/assetdesk/backend/models"
	"github.com/assetdesk/backend/query"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, db.Users(), query.Spec{})
}

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by email")
	}
	return &u, nil
}

// RoleByEmail returns the stored role of the user with email. found is false
// when there is no such user; a user without a role has role "".
func (db *DB) RoleByEmail(ctx context.Context, email string) (string, bool, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.D{{Key: "email", Value: email}},
		options.FindOne().SetProjection(bson.D{{Key: "role", Value: 1}})).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "find user role")
	}
	return u.Role, true, nil
}

// CreateUser inserts u unless a user with the same email exists, in which
// case it returns ErrDuplicate. The unique index catches concurrent inserts.
func (db *DB) CreateUser(ctx context.Context, u *models.User) (InsertResult, error) {
	existing, err := db.UserByEmail(ctx, u.Email)
	if err != nil {
		return InsertResult{}, err
	}
	if existing != nil {
		return InsertResult{}, ErrDuplicate
	}
	return insertOne(ctx, db.Users(), u)
}

// PromoteToAdmin sets role=admin and returns the user as it was before the update.
func (db *DB) PromoteToAdmin(ctx context.Context, id primitive.ObjectID) (UpdateResult, *models.User, error) {
	var before models.User
	err := db.Users().FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "role", Value: models.RoleAdmin}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return UpdateResult{}, nil, ErrNotFound
	}
	if err != nil {
		return UpdateResult{}, nil, errors.Wrap(err, "promote user")
	}
	res := UpdateResult{Acknowledged: true, MatchedCount: 1}
	if !before.IsAdmin() {
		res.ModifiedCount = 1
	}
	return res, &before, nil
}

// DeleteUser removes the user and returns the deleted document.
func (db *DB) DeleteUser(ctx context.Context, id primitive.ObjectID) (DeleteResult, *models.User, error) {
	var deleted models.User
	err := db.Users().FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&deleted)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return DeleteResult{}, nil, ErrNotFound
	}
	if err != nil {
		return DeleteResult{}, nil, errors.Wrap(err, "delete user")
	}
	return DeleteResult{Acknowledged: true, DeletedCount: 1}, &deleted, nil
}
