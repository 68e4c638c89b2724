package store

import (
	"context"

	"github.com/assetdesk/backend/query"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type InsertResult struct {
	Acknowledged bool               `json:"acknowledged"`
	InsertedID   primitive.ObjectID `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, spec query.Spec) ([]T, error) {
	filter := spec.Filter
	if filter == nil {
		filter = bson.D{}
	}
	opts := options.Find()
	if len(spec.Sort) > 0 {
		opts.SetSort(spec.Sort)
	}
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "find %s", coll.Name())
	}
	defer cur.Close(ctx)
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrapf(err, "decode %s", coll.Name())
	}
	return out, nil
}

func findByID[T any](ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find %s by id", coll.Name())
	}
	return &doc, nil
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc interface{}) (InsertResult, error) {
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return InsertResult{}, ErrDuplicate
		}
		return InsertResult{}, errors.Wrapf(err, "insert %s", coll.Name())
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// setByID applies $set to one document. A patch with no fields only checks
// that the document exists.
func setByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, set bson.D) (UpdateResult, error) {
	if len(set) == 0 {
		n, err := coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
		if err != nil {
			return UpdateResult{}, errors.Wrapf(err, "count %s", coll.Name())
		}
		if n == 0 {
			return UpdateResult{}, ErrNotFound
		}
		return UpdateResult{Acknowledged: true, MatchedCount: n}, nil
	}
	res, err := coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return UpdateResult{}, errors.Wrapf(err, "update %s", coll.Name())
	}
	if res.MatchedCount == 0 {
		return UpdateResult{}, ErrNotFound
	}
	return UpdateResult{Acknowledged: true, MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) (DeleteResult, error) {
	res, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return DeleteResult{}, errors.Wrapf(err, "delete %s", coll.Name())
	}
	if res.DeletedCount == 0 {
		return DeleteResult{}, ErrNotFound
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

// setIf appends key to set when v is non-nil.
func setIf[T any](set bson.D, key string, v *T) bson.D {
	if v == nil {
		return set
	}
	return append(set, bson.E{Key: key, Value: *v})
}
