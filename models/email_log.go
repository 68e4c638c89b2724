package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailLog records a decision mail sent (or attempted) to a requester.
type EmailLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	RequestID primitive.ObjectID `bson:"requestId" json:"requestId"`
	Kind      string             `bson:"kind" json:"kind"`
	Asset     string             `bson:"asset" json:"asset"`
	ToEmail   string             `bson:"toEmail" json:"toEmail"`
	Status    string             `bson:"status" json:"status"`
	Error     string             `bson:"error,omitempty" json:"error,omitempty"`
	SentAt    time.Time          `bson:"sentAt" json:"sentAt"`
}
