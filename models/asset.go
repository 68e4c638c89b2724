package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Asset struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Product  string             `bson:"product" json:"product"`
	Type     string             `bson:"type" json:"type"`
	Quantity Quantity           `bson:"quantity" json:"quantity"`
	Date     string             `bson:"date,omitempty" json:"date,omitempty"`
	// QuantityDate is stamped by every restock.
	QuantityDate *time.Time `bson:"quantity_Date,omitempty" json:"quantity_Date,omitempty"`
}
