package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names. They match the data already deployed.
const (
	usersCollection    = "user"
	assetsCollection   = "asset"
	customCollection   = "custom"
	requestsCollection = "request"
	emailLogCollection = "email_logs"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
	now      func() time.Time
}

func NewMongoDB(ctx context.Context, uri, dbName string, logger logrus.FieldLogger) (*DB, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "ping mongodb")
	}
	logger.WithField("database", dbName).Info("connected to MongoDB")
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection(usersCollection)
}

func (db *DB) Assets() *mongo.Collection {
	return db.Database.Collection(assetsCollection)
}

func (db *DB) CustomRequests() *mongo.Collection {
	return db.Database.Collection(customCollection)
}

func (db *DB) BorrowRequests() *mongo.Collection {
	return db.Database.Collection(requestsCollection)
}

func (db *DB) EmailLogs() *mongo.Collection {
	return db.Database.Collection(emailLogCollection)
}

// EnsureIndexes creates the unique email index on users. It fails when
// existing documents already violate it.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	_, err := db.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	return errors.Wrap(err, "create users email index")
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, readpref.Primary())
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}

func (db *DB) clock() time.Time {
	if db.now != nil {
		return db.now()
	}
	return time.Now()
}
