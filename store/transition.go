package store

import (
	"context"

	"github.com/assetdesk/backend/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// transition moves the document from one of t.From to t.To with a single
// conditional update, so concurrent callers cannot both succeed. A document
// with no status counts as pending.
func (db *DB) transition(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, t models.Transition, out interface{}) error {
	from := make(bson.A, 0, len(t.From)+2)
	for _, s := range t.From {
		from = append(from, s)
	}
	if t.Allows("") {
		from = append(from, "", nil)
	}
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "status", Value: bson.D{{Key: "$in", Value: from}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: t.To},
		{Key: t.Stamp, Value: db.clock()},
	}}}
	err := coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(out)
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return errors.Wrapf(err, "%s %s", t.Name, coll.Name())
	}
	n, err := coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return errors.Wrapf(err, "count %s", coll.Name())
	}
	if n == 0 {
		return ErrNotFound
	}
	return errors.Wrapf(ErrInvalidTransition, "cannot %s request", t.Name)
}
