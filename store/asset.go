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

func (db *DB) ListAssets(ctx context.Context, spec query.Spec) ([]models.Asset, error) {
	return findAll[models.Asset](ctx, db.Assets(), spec)
}

func (db *DB) AssetByID(ctx context.Context, id primitive.ObjectID) (*models.Asset, error) {
	return findByID[models.Asset](ctx, db.Assets(), id)
}

func (db *DB) InsertAsset(ctx context.Context, a *models.Asset) (InsertResult, error) {
	return insertOne(ctx, db.Assets(), a)
}

func (db *DB) UpdateAsset(ctx context.Context, id primitive.ObjectID, p models.AssetPatch) (UpdateResult, error) {
	return setByID(ctx, db.Assets(), id, assetSet(p))
}

func assetSet(p models.AssetPatch) bson.D {
	var set bson.D
	set = setIf(set, "product", p.Product)
	set = setIf(set, "type", p.Type)
	set = setIf(set, "quantity", p.Quantity)
	set = setIf(set, "date", p.Date)
	return set
}

func (db *DB) DeleteAsset(ctx context.Context, id primitive.ObjectID) (DeleteResult, error) {
	return deleteByID(ctx, db.Assets(), id)
}

// codeTypeMismatch is what the server answers for $inc on a non-numeric field.
const codeTypeMismatch = 14

// RestockAsset adds one unit to the asset named product and stamps
// quantity_Date in a single atomic update. It returns the updated document.
func (db *DB) RestockAsset(ctx context.Context, product string) (*models.Asset, error) {
	filter := bson.D{{Key: "product", Value: product}}
	now := db.clock()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Asset
	err := db.Assets().FindOneAndUpdate(ctx, filter,
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: "quantity", Value: 1}}},
			{Key: "$set", Value: bson.D{{Key: "quantity_Date", Value: now}}},
		},
		opts,
	).Decode(&updated)

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorCode(codeTypeMismatch) {
		// Legacy documents hold quantity as a string. Convert and increment in one pipeline update.
		err = db.Assets().FindOneAndUpdate(ctx, filter,
			mongo.Pipeline{{{Key: "$set", Value: bson.D{
				{Key: "quantity", Value: bson.D{{Key: "$add", Value: bson.A{
					bson.D{{Key: "$toInt", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$quantity", 0}}}}},
					1,
				}}}},
				{Key: "quantity_Date", Value: now},
			}}}},
			opts,
		).Decode(&updated)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "restock asset")
	}
	return &updated, nil
}
