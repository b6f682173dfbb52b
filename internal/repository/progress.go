package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mckriel/omg-backend/internal/database"
	"github.com/mckriel/omg-backend/internal/domain"
)

// ProgressRepository persists one aggregation snapshot per season. Snapshots
// are replaced whole, never patched.
type ProgressRepository struct {
	collection *mongo.Collection
	logger     zerolog.Logger
}

func NewProgressRepository(db *mongo.Database, logger zerolog.Logger) *ProgressRepository {
	return &ProgressRepository{
		collection: db.Collection(database.ProgressCollection),
		logger:     logger,
	}
}

// Save replaces the season's snapshot, inserting it when absent.
func (r *ProgressRepository) Save(ctx context.Context, snapshot *domain.SeasonSnapshot) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"seasonId": snapshot.SeasonID},
		snapshot,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("season", snapshot.SeasonID).Msg("failed to save progress snapshot")
		return fmt.Errorf("failed to save progress snapshot for %s: %w", snapshot.SeasonID, err)
	}

	r.logger.Debug().Str("season", snapshot.SeasonID).Msg("progress snapshot saved")
	return nil
}

// Get returns the season's snapshot, or (nil, nil) when none exists.
func (r *ProgressRepository) Get(ctx context.Context, seasonID string) (*domain.SeasonSnapshot, error) {
	var snapshot domain.SeasonSnapshot
	err := r.collection.FindOne(ctx, bson.M{"seasonId": seasonID}).Decode(&snapshot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress snapshot for %s: %w", seasonID, err)
	}
	return &snapshot, nil
}

// GetAll returns every stored season snapshot.
func (r *ProgressRepository) GetAll(ctx context.Context) ([]domain.SeasonSnapshot, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query progress snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	var snapshots []domain.SeasonSnapshot
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode progress snapshots: %w", err)
	}
	return snapshots, nil
}
