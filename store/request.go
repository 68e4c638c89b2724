package store

import (
	"context"

	"github.com/assetdesk/backend/models"
	"github.com/assetdesk/backend/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (db *DB) ListBorrowRequests(ctx context.Context, spec query.Spec) ([]models.BorrowRequest, error) {
	return findAll[models.BorrowRequest](ctx, db.BorrowRequests(), spec)
}

// InsertBorrowRequest stores r as pending with no decision stamps.
func (db *DB) InsertBorrowRequest(ctx context.Context, r *models.BorrowRequest) (InsertResult, error) {
	r.Status = models.StatusPending
	r.ApprovalDate, r.RejectDate, r.ReturnDate = nil, nil, nil
	return insertOne(ctx, db.BorrowRequests(), r)
}

func (db *DB) DeleteBorrowRequest(ctx context.Context, id primitive.ObjectID) (DeleteResult, error) {
	return deleteByID(ctx, db.BorrowRequests(), id)
}

// TransitionBorrowRequest applies t and returns the updated request.
func (db *DB) TransitionBorrowRequest(ctx context.Context, id primitive.ObjectID, t models.Transition) (*models.BorrowRequest, error) {
	var out models.BorrowRequest
	if err := db.transition(ctx, db.BorrowRequests(), id, t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
