package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mckriel/omg-backend/internal/config"
	"github.com/mckriel/omg-backend/internal/constants"
	"github.com/mckriel/omg-backend/internal/domain"
	"github.com/mckriel/omg-backend/internal/service"
)

// Server exposes the roster, progress and admin endpoints over HTTP.
type Server struct {
	ingestion *service.IngestionService
	progress  *service.ProgressService
	members   *service.MemberService
	raw       RawDumper
	logger    zerolog.Logger

	running atomic.Bool
}

// RawDumper dumps an allow-listed collection for debugging.
type RawDumper interface {
	Dump(ctx context.Context, collection string) ([]bson.M, error)
}

func New(ingestion *service.IngestionService, progress *service.ProgressService, members *service.MemberService, raw RawDumper, logger zerolog.Logger) *Server {
	return &Server{
		ingestion: ingestion,
		progress:  progress,
		members:   members,
		raw:       raw,
		logger:    logger,
	}
}

// Register mounts all routes on the app.
func (s *Server) Register(app *fiber.App) {
	app.Get("/health", s.handleHealth)

	app.Post("/admin/update", s.handleUpdate)
	app.Get("/admin/raw/:collection", s.handleRawDump)

	app.Get("/members", s.handleMembers)
	app.Get("/members/stats", s.handleMemberStats)
	app.Get("/stats/jewelry-gems", s.handleJewelryStats)

	app.Get("/raid-team", s.handleRaidTeam)
	app.Get("/raid-team/count", s.handleRaidTeamCount)

	app.Get("/guild-progress", s.handleProgressSummary)
	app.Get("/guild-progress/current", s.handleCurrentSeason)
	app.Get("/guild-progress/seasons", s.handleSeasonCatalogue)
	app.Get("/guild-progress/all-seasons", s.handleAllSeasons)
	app.Get("/guild-progress/season/:seasonId", s.handleSeason)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleUpdate kicks off a full roster ingestion in the background and
// returns immediately. Only one run may be in flight at a time.
func (s *Server) handleUpdate(c *fiber.Ctx) error {
	dataTypes, err := parseDataTypes(c.Query("data"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if !s.running.CompareAndSwap(false, true) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "update already in progress"})
	}

	runID := uuid.New().String()
	go func() {
		defer s.running.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), constants.IngestionTimeout)
		defer cancel()

		result, err := s.ingestion.Run(ctx, dataTypes, runID)
		if err != nil {
			s.logger.Error().Err(err).Str("run_id", runID).Msg("guild update failed")
			return
		}
		s.logger.Info().
			Str("run_id", runID).
			Int("processed", result.Processed).
			Int("created", result.Created).
			Int("updated", result.Updated).
			Int("deactivated", result.Deactivated).
			Int("errors", len(result.Errors)).
			Msg("guild update finished")
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "started",
		"runId":  runID,
	})
}

func parseDataTypes(raw string) ([]domain.DataType, error) {
	if raw == "" {
		return domain.DefaultDataTypes(), nil
	}
	var types []domain.DataType
	for _, part := range strings.Split(raw, ",") {
		dt := domain.DataType(strings.TrimSpace(part))
		if !domain.ValidDataType(dt) {
			return nil, fmt.Errorf("unknown data type %q", part)
		}
		types = append(types, dt)
	}
	return types, nil
}

func (s *Server) handleMembers(c *fiber.Ctx) error {
	filters := service.MemberFilters{
		Search:     c.Query("search"),
		Rank:       c.Query("rank"),
		Classes:    c.Query("classes"),
		RoleFilter: c.Query("role"),
		Predicate:  c.Query("filter"),
	}
	if raw := c.Query("minItemLevel"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "minItemLevel must be a number"})
		}
		filters.MinItemLevel = level
	}

	members, err := s.members.List(c.Context(), filters)
	if err != nil {
		return s.internalError(c, err, "list members")
	}
	return c.JSON(fiber.Map{"count": len(members), "members": members})
}

func (s *Server) handleMemberStats(c *fiber.Ctx) error {
	stats, err := s.members.Stats(c.Context())
	if err != nil {
		return s.internalError(c, err, "member stats")
	}
	return c.JSON(stats)
}

func (s *Server) handleJewelryStats(c *fiber.Ctx) error {
	stats, err := s.members.JewelryStats(c.Context())
	if err != nil {
		return s.internalError(c, err, "jewelry stats")
	}
	return c.JSON(stats)
}

func (s *Server) handleRaidTeam(c *fiber.Ctx) error {
	team, err := s.members.RaidTeam(c.Context())
	if err != nil {
		return s.internalError(c, err, "raid team")
	}
	return c.JSON(fiber.Map{"count": len(team), "members": team})
}

func (s *Server) handleRaidTeamCount(c *fiber.Ctx) error {
	count, err := s.members.RaidReadyCount(c.Context())
	if err != nil {
		return s.internalError(c, err, "raid team count")
	}
	return c.JSON(fiber.Map{"raidReady": count})
}

func (s *Server) handleProgressSummary(c *fiber.Ctx) error {
	summary, err := s.progress.Summary(c.Context())
	if err != nil {
		return s.internalError(c, err, "progress summary")
	}
	return c.JSON(summary)
}

func (s *Server) handleCurrentSeason(c *fiber.Ctx) error {
	report, err := s.progress.GetCurrentSeason(c.Context())
	if err != nil {
		return s.internalError(c, err, "current season progress")
	}
	return c.JSON(report)
}

func (s *Server) handleSeasonCatalogue(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"currentSeason": config.CurrentSeasonID,
		"seasons":       config.Seasons(),
	})
}

func (s *Server) handleSeason(c *fiber.Ctx) error {
	seasonID := c.Params("seasonId")
	force := c.QueryBool("force")

	report, err := s.progress.GetSeason(c.Context(), seasonID, force)
	if err != nil {
		if _, ok := config.SeasonByID(seasonID); !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": fmt.Sprintf("unknown season %q", seasonID)})
		}
		return s.internalError(c, err, "season progress")
	}
	return c.JSON(report)
}

func (s *Server) handleAllSeasons(c *fiber.Ctx) error {
	force := c.QueryBool("force")

	reports, err := s.progress.GetAllSeasons(c.Context(), force)
	if err != nil {
		return s.internalError(c, err, "all seasons progress")
	}
	return c.JSON(fiber.Map{"count": len(reports), "seasons": reports})
}

func (s *Server) handleRawDump(c *fiber.Ctx) error {
	collection := c.Params("collection")
	docs, err := s.raw.Dump(c.Context(), collection)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"collection": collection, "count": len(docs), "documents": docs})
}

func (s *Server) internalError(c *fiber.Ctx, err error, op string) error {
	s.logger.Error().Err(err).Str("op", op).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
