package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BorrowRequest asks to borrow an inventory asset. Stored in the "request" collection.
type BorrowRequest struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
	Asset        string             `bson:"asset" json:"asset"`
	Type         string             `bson:"type" json:"type"`
	RequestDate  string             `bson:"requestDate,omitempty" json:"requestDate,omitempty"`
	Note         string             `bson:"note,omitempty" json:"note,omitempty"`
	Status       string             `bson:"status" json:"status"`
	ApprovalDate *time.Time         `bson:"Approval_date,omitempty" json:"Approval_date,omitempty"`
	RejectDate   *time.Time         `bson:"reject_date,omitempty" json:"reject_date,omitempty"`
	ReturnDate   *time.Time         `bson:"Return_date,omitempty" json:"Return_date,omitempty"`
}
