package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mckriel/omg-backend/internal/database"
)

// RawRepository serves the administrative collection dump endpoint. Only
// allow-listed collections can be read.
type RawRepository struct {
	db     *mongo.Database
	logger zerolog.Logger
}

func NewRawRepository(db *mongo.Database, logger zerolog.Logger) *RawRepository {
	return &RawRepository{db: db, logger: logger}
}

// Dump returns every document in the named collection.
func (r *RawRepository) Dump(ctx context.Context, collection string) ([]bson.M, error) {
	if !allowed(collection) {
		return nil, fmt.Errorf("collection %q is not allowed", collection)
	}

	cursor, err := r.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var documents []bson.M
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("failed to decode collection %s: %w", collection, err)
	}

	r.logger.Debug().Str("collection", collection).Int("count", len(documents)).Msg("raw collection dump")
	return documents, nil
}

func allowed(collection string) bool {
	for _, c := range database.AllowedCollections() {
		if c == collection {
			return true
		}
	}
	return false
}
