package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mckriel/omg-backend/internal/api"
	"github.com/mckriel/omg-backend/internal/config"
	"github.com/mckriel/omg-backend/internal/constants"
	"github.com/mckriel/omg-backend/internal/domain"
	"github.com/mckriel/omg-backend/internal/enrich"
)

// IngestionService drives one end-to-end roster ingestion run: authenticate,
// fetch the roster, enrich and persist each eligible member, reconcile the
// active-member view, then recompute the progress snapshots.
//
// Members are processed strictly one at a time. This is deliberate
// back-pressure against the external API's rate ceiling, not a correctness
// requirement of the enrichment itself.
type IngestionService struct {
	client      GameDataClient
	members     MemberStore
	progress    *ProgressService
	transformer *enrich.Transformer
	cfg         *config.Config
	logger      zerolog.Logger

	observerMu sync.RWMutex
	observers  []RunObserver
}

func NewIngestionService(
	client GameDataClient,
	members MemberStore,
	progress *ProgressService,
	transformer *enrich.Transformer,
	cfg *config.Config,
	logger zerolog.Logger,
) *IngestionService {
	return &IngestionService{
		client:      client,
		members:     members,
		progress:    progress,
		transformer: transformer,
		cfg:         cfg,
		logger:      logger,
	}
}

// AddObserver registers an observer for run progress events.
func (s *IngestionService) AddObserver(observer RunObserver) {
	s.observerMu.Lock()
	defer s.observerMu.Unlock()
	s.observers = append(s.observers, observer)
}

// Run executes one ingestion run. Authentication or roster failures abort
// the run with nothing persisted; a failure while processing one member is
// recorded in the result and processing continues with the next member.
func (s *IngestionService) Run(ctx context.Context, dataTypes []domain.DataType, runID string) (*domain.RunResult, error) {
	if runID == "" {
		runID = uuid.New().String()
	}
	if len(dataTypes) == 0 {
		dataTypes = domain.DefaultDataTypes()
	}

	result := &domain.RunResult{RunID: runID, Errors: []domain.MemberError{}}

	s.emit(runID, domain.RunEvent{Type: domain.EventStart, Message: "starting guild data update"})

	authCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	err := s.client.Authenticate(authCtx)
	cancel()
	if err != nil {
		s.emit(runID, domain.RunEvent{Type: domain.EventError, Message: "authentication failed: " + err.Error()})
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	s.emit(runID, domain.RunEvent{Type: domain.EventAuth, Message: "authentication successful"})

	rosterCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	roster, err := s.client.GetGuildRoster(rosterCtx, s.cfg.Guild.Realm, s.cfg.Guild.Name)
	cancel()
	if err != nil {
		s.emit(runID, domain.RunEvent{Type: domain.EventError, Message: "roster fetch failed: " + err.Error()})
		return nil, fmt.Errorf("roster fetch failed: %w", err)
	}

	eligible := make([]api.RosterMember, 0, len(roster.Members))
	for _, member := range roster.Members {
		if member.Character.Level >= s.cfg.Guild.LevelRequirement {
			eligible = append(eligible, member)
		}
	}
	s.emit(runID, domain.RunEvent{
		Type:    domain.EventRoster,
		Message: fmt.Sprintf("found %d eligible guild members", len(eligible)),
		Total:   len(eligible),
	})

	// Every level-eligible member counts as touched for reconciliation:
	// a member that fails mid-processing keeps its prior active record.
	touched := make([]string, 0, len(eligible))

	for i, member := range eligible {
		if err := ctx.Err(); err != nil {
			s.emit(runID, domain.RunEvent{Type: domain.EventError, Message: "run cancelled"})
			return result, err
		}

		name := member.Character.Name
		server := member.Character.Realm.Slug
		touched = append(touched, name)

		s.emit(runID, domain.RunEvent{
			Type:    domain.EventMember,
			Message: fmt.Sprintf("processing %s-%s", name, server),
			Member:  name + "-" + server,
			Current: i + 1,
			Total:   len(eligible),
		})

		persisted, created, err := s.processMember(ctx, member, dataTypes)
		if err != nil {
			s.emit(runID, domain.RunEvent{
				Type:    domain.EventMemberError,
				Message: fmt.Sprintf("error processing %s-%s: %s", name, server, err),
				Member:  name + "-" + server,
			})
			result.Errors = append(result.Errors, domain.MemberError{
				Member: name + "-" + server,
				Error:  err.Error(),
			})
			continue
		}
		if !persisted {
			// Below the item-level threshold: silently skipped, not an error.
			continue
		}

		result.Processed++
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.emit(runID, domain.RunEvent{Type: domain.EventCleanup, Message: "reconciling roster membership"})
	deactivated, err := s.Reconcile(ctx, touched)
	if err != nil {
		s.emit(runID, domain.RunEvent{Type: domain.EventError, Message: "reconciliation failed: " + err.Error()})
	} else {
		result.Deactivated = int(deactivated)
		s.emit(runID, domain.RunEvent{
			Type:    domain.EventCleanup,
			Message: fmt.Sprintf("deactivated %d members absent from the roster", deactivated),
		})
	}

	s.emit(runID, domain.RunEvent{Type: domain.EventAggregation, Message: "calculating guild raid progress"})
	if seasons, err := s.progress.RecomputeAll(ctx); err != nil {
		// Snapshot recomputation failing does not fail the run; reports
		// degrade to live calculation.
		s.emit(runID, domain.RunEvent{Type: domain.EventError, Message: "raid progress calculation failed: " + err.Error()})
	} else {
		s.emit(runID, domain.RunEvent{
			Type:    domain.EventAggregation,
			Message: fmt.Sprintf("saved raid progress for %d seasons", seasons),
		})
	}

	s.emit(runID, domain.RunEvent{
		Type: domain.EventComplete,
		Message: fmt.Sprintf("guild data update completed: %d processed, %d created, %d updated, %d errors",
			result.Processed, result.Created, result.Updated, len(result.Errors)),
	})

	return result, nil
}

// processMember fetches, enriches and persists a single member. The
// persisted flag is false when the member fell below the item-level
// threshold and was skipped.
func (s *IngestionService) processMember(ctx context.Context, member api.RosterMember, dataTypes []domain.DataType) (persisted, created bool, err error) {
	name := member.Character.Name
	server := member.Character.Realm.Slug

	profile, err := s.fetchProfile(ctx, server, name)
	if err != nil {
		return false, false, fmt.Errorf("profile fetch: %w", err)
	}
	if profile.EquippedItemLevel < s.cfg.Guild.ItemLevelRequirement {
		return false, false, nil
	}

	equipment, err := s.fetchEquipment(ctx, server, name)
	if err != nil {
		return false, false, fmt.Errorf("equipment fetch: %w", err)
	}

	input := enrich.Input{
		Name:      name,
		Server:    server,
		Rank:      member.Rank,
		Profile:   profile,
		Equipment: equipment,
	}

	if domain.HasDataType(dataTypes, domain.DataRaid) {
		raids, err := s.fetchRaids(ctx, server, name)
		if err != nil {
			return false, false, fmt.Errorf("raid fetch: %w", err)
		}
		input.Raids = raids
	}

	if domain.HasDataType(dataTypes, domain.DataMythicPlus) {
		mythic, err := s.fetchMythic(ctx, server, name)
		if err != nil {
			return false, false, fmt.Errorf("mythic-plus fetch: %w", err)
		}
		input.Mythic = mythic
	}

	if domain.HasDataType(dataTypes, domain.DataPvP) {
		// PvP is best-effort at the bracket level: a failed summary yields
		// a zero rating, a failed bracket is skipped and the rest kept.
		input.PvP = s.fetchPvP(ctx, server, name)
	}

	input.Media = s.fetchMedia(ctx, server, name)

	record := s.transformer.Transform(input)

	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	created, err = s.members.Upsert(dbCtx, &record)
	if err != nil {
		return false, false, fmt.Errorf("store upsert: %w", err)
	}

	s.logger.Debug().
		Str("member", record.Key()).
		Bool("created", created).
		Bool("ready", record.Ready).
		Int("item_level", record.ItemLevel.Equipped).
		Msg("member persisted")

	return true, created, nil
}

// Reconcile marks every active stored record whose name was not touched in
// this run as inactive. It runs once per completed run so a mid-run failure
// never spuriously deactivates a member still on the roster.
func (s *IngestionService) Reconcile(ctx context.Context, touched []string) (int64, error) {
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.members.DeactivateMissing(dbCtx, touched)
}

func (s *IngestionService) fetchProfile(ctx context.Context, server, name string) (*api.ProfileResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()
	return s.client.GetCharacterProfile(callCtx, server, name)
}

func (s *IngestionService) fetchEquipment(ctx context.Context, server, name string) (*api.EquipmentResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()
	return s.client.GetCharacterEquipment(callCtx, server, name)
}

func (s *IngestionService) fetchRaids(ctx context.Context, server, name string) (*api.RaidsResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()
	return s.client.GetCharacterRaids(callCtx, server, name)
}

func (s *IngestionService) fetchMythic(ctx context.Context, server, name string) (*api.MythicKeystoneResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()
	return s.client.GetMythicKeystoneProfile(callCtx, server, name)
}

// fetchPvP assembles the PvP summary plus per-bracket ratings. Failures
// degrade to explicit zero values instead of propagating.
func (s *IngestionService) fetchPvP(ctx context.Context, server, name string) *domain.PvP {
	callCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	summary, err := s.client.GetPvPSummary(callCtx, server, name)
	cancel()
	if err != nil {
		s.logger.Warn().Err(err).Str("member", name+"-"+server).Msg("pvp summary fetch failed")
		return &domain.PvP{Rating: 0}
	}

	pvp := &domain.PvP{
		HonorLevel: summary.HonorLevel,
		Brackets:   map[string]domain.PvPBracket{},
	}

	for _, bracket := range summary.Brackets {
		key := bracketKey(bracket.Href)
		if key == "" {
			continue
		}
		bracketCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		response, err := s.client.GetPvPBracket(bracketCtx, server, name, key)
		cancel()
		if err != nil {
			s.logger.Warn().Err(err).Str("member", name+"-"+server).Str("bracket", key).Msg("pvp bracket fetch failed")
			continue
		}
		pvp.Brackets[key] = domain.PvPBracket{Rating: response.Rating}
		if response.Rating > pvp.Rating {
			pvp.Rating = response.Rating
		}
	}

	return pvp
}

// fetchMedia is best-effort: failure records media as unavailable, never a
// processing error.
func (s *IngestionService) fetchMedia(ctx context.Context, server, name string) domain.Media {
	callCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	response, err := s.client.GetCharacterMedia(callCtx, server, name)
	if err != nil {
		s.logger.Warn().Err(err).Str("member", name+"-"+server).Msg("media fetch failed")
		return domain.Media{Available: false}
	}

	assets := make(map[string]string, len(response.Assets))
	for _, asset := range response.Assets {
		assets[asset.Key] = asset.Value
	}
	return domain.Media{Available: true, Assets: assets}
}

// bracketKey extracts the bracket identifier from a summary href, e.g.
// ".../pvp-bracket/3v3?namespace=..." -> "3v3".
func bracketKey(href string) string {
	_, after, found := strings.Cut(href, "pvp-bracket/")
	if !found {
		return ""
	}
	key, _, _ := strings.Cut(after, "?")
	return key
}

func (s *IngestionService) emit(runID string, event domain.RunEvent) {
	event.RunID = runID
	event.Timestamp = time.Now()

	logEvent := s.logger.Info()
	if event.Type == domain.EventError || event.Type == domain.EventMemberError {
		logEvent = s.logger.Warn()
	}
	logEvent.
		Str("run_id", runID).
		Str("event", string(event.Type)).
		Str("member", event.Member).
		Msg(event.Message)

	s.observerMu.RLock()
	observers := s.observers
	s.observerMu.RUnlock()
	for _, observer := range observers {
		observer.OnRunEvent(event)
	}
}
