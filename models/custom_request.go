package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomRequest asks for an asset that is not in the inventory.
type CustomRequest struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
	Asset        string             `bson:"asset" json:"asset"`
	Type         string             `bson:"type" json:"type"`
	Price        float64            `bson:"price" json:"price"`
	Why          string             `bson:"why" json:"why"`
	AdInfo       string             `bson:"adinfo" json:"adinfo"`
	Image        string             `bson:"image" json:"image"`
	Date         string             `bson:"date,omitempty" json:"date,omitempty"`
	Status       string             `bson:"status" json:"status"`
	ApprovalDate *time.Time         `bson:"Approval_date,omitempty" json:"Approval_date,omitempty"`
	RejectDate   *time.Time         `bson:"reject_date,omitempty" json:"reject_date,omitempty"`
}
