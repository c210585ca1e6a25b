package database

import (
	"context"
	"os"
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

var (
	dbClient *mongo.Client
	connect  sync.Once
)

// Connect dials MONGODB_URI once and keeps the client for the process
// lifetime. Startup fails hard when the database is unreachable.
func Connect() *mongo.Client {
	connect.Do(func() {
		serverAPI := options.ServerAPI(options.ServerAPIVersion1)
		uri := os.Getenv("MONGODB_URI")
		opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

		client, err := mongo.Connect(opts)
		if err != nil {
			zap.S().Fatalf("mongo connect: %v", err)
		}
		// Send a ping to confirm a successful connection
		if err := client.Ping(context.TODO(), readpref.Primary()); err != nil {
			zap.S().Fatalf("mongo ping: %v", err)
		}
		zap.S().Infow("connected to mongodb", "database", os.Getenv("DATABASE_NAME"))
		dbClient = client
	})
	return dbClient
}

func OpenCollection(collectionName string) *mongo.Collection {
	databaseName := os.Getenv("DATABASE_NAME")
	return Connect().Database(databaseName).Collection(collectionName)
}
