package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mckriel/omg-backend/internal/database"
	"github.com/mckriel/omg-backend/internal/domain"
)

// MemberRepository persists enriched character records in the members
// collection, keyed uniquely by (name, server).
type MemberRepository struct {
	collection *mongo.Collection
	logger     zerolog.Logger
}

func NewMemberRepository(db *mongo.Database, logger zerolog.Logger) *MemberRepository {
	return &MemberRepository{
		collection: db.Collection(database.MembersCollection),
		logger:     logger,
	}
}

// Upsert writes the record under its (name, server) key. The returned flag
// is true when a new document was inserted rather than an existing one
// replaced.
func (r *MemberRepository) Upsert(ctx context.Context, record *domain.CharacterRecord) (bool, error) {
	filter := bson.M{"name": record.Name, "server": record.Server}

	result, err := r.collection.UpdateOne(ctx, filter,
		bson.M{"$set": record},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("member", record.Key()).Msg("failed to upsert member")
		return false, fmt.Errorf("failed to upsert member %s: %w", record.Key(), err)
	}

	return result.UpsertedCount > 0, nil
}

// GetAllActive returns every active member, highest equipped item level
// first. Soft-deleted records are never returned.
func (r *MemberRepository) GetAllActive(ctx context.Context) ([]domain.CharacterRecord, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "itemlevel.equiped", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query active members: %w", err)
	}
	defer cursor.Close(ctx)

	var members []domain.CharacterRecord
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode active members: %w", err)
	}
	return members, nil
}

// DeactivateMissing soft-deletes every active record whose name is not in
// names, stamping the update time. Re-running with the same names is a no-op.
func (r *MemberRepository) DeactivateMissing(ctx context.Context, names []string) (int64, error) {
	if names == nil {
		names = []string{}
	}

	result, err := r.collection.UpdateMany(ctx,
		bson.M{"is_active": true, "name": bson.M{"$nin": names}},
		bson.M{"$set": bson.M{"is_active": false, "last_updated": time.Now()}},
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to deactivate missing members")
		return 0, fmt.Errorf("failed to deactivate missing members: %w", err)
	}

	return result.ModifiedCount, nil
}

// CountActive returns the active member count.
func (r *MemberRepository) CountActive(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"is_active": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count active members: %w", err)
	}
	return count, nil
}
