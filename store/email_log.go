package store

import (
	"context"

	"github.com/assetdesk/backend/models"
	"github.com/pkg/errors"
)

// InsertEmailLog records that a decision mail was sent or failed.
func (db *DB) InsertEmailLog(ctx context.Context, log *models.EmailLog) error {
	if log.SentAt.IsZero() {
		log.SentAt = db.clock()
	}
	_, err := db.EmailLogs().InsertOne(ctx, log)
	return errors.Wrap(err, "insert email log")
}
