package store

import (
	"context"

	"github.com/assetdesk/backend/models"
	"github.com/assetdesk/backend/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (db *DB) ListCustomRequests(ctx context.Context, spec query.Spec) ([]models.CustomRequest, error) {
	return findAll[models.CustomRequest](ctx, db.CustomRequests(), spec)
}

func (db *DB) CustomRequestByID(ctx context.Context, id primitive.ObjectID) (*models.CustomRequest, error) {
	return findByID[models.CustomRequest](ctx, db.CustomRequests(), id)
}

// InsertCustomRequest stores c as pending with no decision stamps.
func (db *DB) InsertCustomRequest(ctx context.Context, c *models.CustomRequest) (InsertResult, error) {
	c.Status = models.StatusPending
	c.ApprovalDate, c.RejectDate = nil, nil
	return insertOne(ctx, db.CustomRequests(), c)
}

func (db *DB) UpdateCustomRequest(ctx context.Context, id primitive.ObjectID, p models.CustomRequestPatch) (UpdateResult, error) {
	return setByID(ctx, db.CustomRequests(), id, customSet(p))
}

func customSet(p models.CustomRequestPatch) bson.D {
	var set bson.D
	set = setIf(set, "asset", p.Asset)
	set = setIf(set, "type", p.Type)
	set = setIf(set, "price", p.Price)
	set = setIf(set, "why", p.Why)
	set = setIf(set, "adinfo", p.AdInfo)
	set = setIf(set, "image", p.Image)
	set = setIf(set, "date", p.Date)
	return set
}

// TransitionCustomRequest applies t and returns the updated request.
func (db *DB) TransitionCustomRequest(ctx context.Context, id primitive.ObjectID, t models.Transition) (*models.CustomRequest, error) {
	var out models.CustomRequest
	if err := db.transition(ctx, db.CustomRequests(), id, t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
