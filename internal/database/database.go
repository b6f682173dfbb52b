package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mckriel/omg-backend/internal/config"
	"github.com/mckriel/omg-backend/internal/constants"
)

// Collection names used by this service.
const (
	MembersCollection  = "members"
	ProgressCollection = "raid_progress"
)

// AllowedCollections is the allow-list for the raw dump endpoint.
func AllowedCollections() []string {
	return []string{MembersCollection, ProgressCollection}
}

func New(cfg *config.Config, logger zerolog.Logger) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()

	logger.Info().Str("database", cfg.MongoDatabase).Msg("connecting to mongodb")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to mongodb")
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		logger.Error().Err(err).Msg("failed to ping mongodb")
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)

	if err := ensureIndexes(ctx, db); err != nil {
		logger.Error().Err(err).Msg("failed to ensure indexes")
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	logger.Info().Str("database", cfg.MongoDatabase).Msg("mongodb connection established")
	return db, nil
}

// ensureIndexes creates the unique identity index and the query indexes the
// repositories rely on. Index creation is idempotent.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	memberIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}, {Key: "server", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "itemlevel.equiped", Value: -1}}},
	}
	if _, err := db.Collection(MembersCollection).Indexes().CreateMany(ctx, memberIndexes); err != nil {
		return fmt.Errorf("members indexes: %w", err)
	}

	progressIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "seasonId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection(ProgressCollection).Indexes().CreateMany(ctx, progressIndexes); err != nil {
		return fmt.Errorf("progress indexes: %w", err)
	}

	return nil
}
