package service

import (
	"context"

	"github.com/mckriel/omg-backend/internal/api"
	"github.com/mckriel/omg-backend/internal/domain"
)

// GameDataClient is the external game-data API surface the coordinator
// needs. Every call can fail independently; the coordinator never assumes
// all succeed for a given member.
type GameDataClient interface {
	Authenticate(ctx context.Context) error
	GetGuildRoster(ctx context.Context, realm, guild string) (*api.RosterResponse, error)
	GetCharacterProfile(ctx context.Context, realm, name string) (*api.ProfileResponse, error)
	GetCharacterEquipment(ctx context.Context, realm, name string) (*api.EquipmentResponse, error)
	GetCharacterRaids(ctx context.Context, realm, name string) (*api.RaidsResponse, error)
	GetMythicKeystoneProfile(ctx context.Context, realm, name string) (*api.MythicKeystoneResponse, error)
	GetPvPSummary(ctx context.Context, realm, name string) (*api.PvPSummaryResponse, error)
	GetPvPBracket(ctx context.Context, realm, name, bracket string) (*api.PvPBracketResponse, error)
	GetCharacterMedia(ctx context.Context, realm, name string) (*api.MediaResponse, error)
}

// MemberStore is the character-record persistence surface.
type MemberStore interface {
	Upsert(ctx context.Context, record *domain.CharacterRecord) (created bool, err error)
	GetAllActive(ctx context.Context) ([]domain.CharacterRecord, error)
	DeactivateMissing(ctx context.Context, names []string) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

// SnapshotStore persists per-season aggregation snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot *domain.SeasonSnapshot) error
	Get(ctx context.Context, seasonID string) (*domain.SeasonSnapshot, error)
	GetAll(ctx context.Context) ([]domain.SeasonSnapshot, error)
}

// RunObserver receives the discrete progress events of an ingestion run.
// Observers are informational only; having none changes nothing.
type RunObserver interface {
	OnRunEvent(event domain.RunEvent)
}
