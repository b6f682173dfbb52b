package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mckriel/omg-backend/internal/aggregate"
	"github.com/mckriel/omg-backend/internal/config"
	"github.com/mckriel/omg-backend/internal/constants"
	"github.com/mckriel/omg-backend/internal/domain"
)

// ProgressService serves guild raid-progress reports. Reports are cached as
// one snapshot per season; a cache miss, a corrupt entry or force=true falls
// back to a live aggregation over the active members.
type ProgressService struct {
	members   MemberStore
	snapshots SnapshotStore
	guild     config.GuildConfig
	logger    zerolog.Logger
	now       func() time.Time
}

func NewProgressService(members MemberStore, snapshots SnapshotStore, cfg *config.Config, logger zerolog.Logger) *ProgressService {
	return &ProgressService{
		members:   members,
		snapshots: snapshots,
		guild:     cfg.Guild,
		logger:    logger,
		now:       time.Now,
	}
}

// GetSeason returns the season's progress report. With force=false a stored
// snapshot is served as-is; otherwise (or when the cache read fails) the
// report is computed live from the active members and the snapshot replaced.
func (s *ProgressService) GetSeason(ctx context.Context, seasonID string, force bool) (*domain.SeasonReport, error) {
	season, ok := config.SeasonByID(seasonID)
	if !ok {
		return nil, fmt.Errorf("season %s not found", seasonID)
	}

	if !force {
		snapshot, err := s.cachedSnapshot(ctx, seasonID)
		if err != nil {
			// Degrade to live computation instead of failing the caller.
			s.logger.Warn().Err(err).Str("season", seasonID).Msg("cache read failed, computing live")
		} else if snapshot != nil {
			s.logger.Debug().Str("season", seasonID).Time("last_updated", snapshot.LastUpdated).Msg("serving cached raid progress")
			return &domain.SeasonReport{SeasonSnapshot: *snapshot, Cached: true}, nil
		}
	}

	return s.computeSeason(ctx, season)
}

// GetAllSeasons composes GetSeason per season; each season is independently
// cache-hit or freshly computed. Seasons aggregate concurrently: they share
// no mutable state.
func (s *ProgressService) GetAllSeasons(ctx context.Context, force bool) ([]domain.SeasonReport, error) {
	seasons := config.Seasons()
	reports := make([]domain.SeasonReport, len(seasons))

	g, gCtx := errgroup.WithContext(ctx)
	for i, season := range seasons {
		i, season := i, season
		g.Go(func() error {
			report, err := s.GetSeason(gCtx, season.ID, force)
			if err != nil {
				return err
			}
			reports[i] = *report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// GetCurrentSeason always computes the active season's progress live.
func (s *ProgressService) GetCurrentSeason(ctx context.Context) (*domain.SeasonReport, error) {
	return s.computeSeason(ctx, config.CurrentSeason())
}

// RecomputeAll recomputes and stores a snapshot for every season, returning
// the number of seasons written.
func (s *ProgressService) RecomputeAll(ctx context.Context) (int, error) {
	members, err := s.activeMembers(ctx)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, season := range config.Seasons() {
		snapshot := aggregate.Season(members, season, s.guild, s.now())
		if err := s.save(ctx, &snapshot); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// ProgressSummary is the condensed current-season view for the home page.
type ProgressSummary struct {
	CurrentSeason string        `json:"currentSeason"`
	TotalMembers  int           `json:"totalMembers"`
	Raids         []RaidSummary `json:"raids"`
}

type RaidSummary struct {
	Name   string            `json:"name"`
	Heroic CompletionSummary `json:"heroicProgress"`
	Mythic CompletionSummary `json:"mythicProgress"`
}

type CompletionSummary struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Summary reports, per current-season raid, how many members have fully
// cleared heroic and mythic.
func (s *ProgressService) Summary(ctx context.Context) (*ProgressSummary, error) {
	members, err := s.activeMembers(ctx)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("no guild members found")
	}

	season := config.CurrentSeason()
	summary := &ProgressSummary{
		CurrentSeason: season.Name,
		TotalMembers:  len(members),
	}

	for _, raid := range season.Raids {
		progress := aggregate.Raid(members, raid, s.guild)
		summary.Raids = append(summary.Raids, RaidSummary{
			Name:   raid.Name,
			Heroic: completionOf(progress, "Heroic", len(members)),
			Mythic: completionOf(progress, "Mythic", len(members)),
		})
	}
	return summary, nil
}

func completionOf(progress domain.RaidProgress, difficulty string, totalMembers int) CompletionSummary {
	completed := progress.Difficulties[difficulty].MembersCompleted
	pct := 0
	if totalMembers > 0 {
		pct = int(math.Round(float64(completed) / float64(totalMembers) * 100))
	}
	return CompletionSummary{Completed: completed, Total: totalMembers, Percentage: pct}
}

func (s *ProgressService) computeSeason(ctx context.Context, season config.Season) (*domain.SeasonReport, error) {
	members, err := s.activeMembers(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("season", season.ID).Int("members", len(members)).Msg("computing raid progress live")
	snapshot := aggregate.Season(members, season, s.guild, s.now())

	if err := s.save(ctx, &snapshot); err != nil {
		// Serving the freshly computed report matters more than caching it.
		s.logger.Warn().Err(err).Str("season", season.ID).Msg("failed to cache raid progress snapshot")
	}

	return &domain.SeasonReport{SeasonSnapshot: snapshot, Cached: false}, nil
}

func (s *ProgressService) cachedSnapshot(ctx context.Context, seasonID string) (*domain.SeasonSnapshot, error) {
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.snapshots.Get(dbCtx, seasonID)
}

func (s *ProgressService) save(ctx context.Context, snapshot *domain.SeasonSnapshot) error {
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.snapshots.Save(dbCtx, snapshot)
}

func (s *ProgressService) activeMembers(ctx context.Context) ([]domain.CharacterRecord, error) {
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	members, err := s.members.GetAllActive(dbCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active members: %w", err)
	}
	return members, nil
}
