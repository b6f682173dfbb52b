package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mckriel/omg-backend/internal/api"
	"github.com/mckriel/omg-backend/internal/config"
	"github.com/mckriel/omg-backend/internal/domain"
	"github.com/mckriel/omg-backend/internal/enrich"
	"github.com/mckriel/omg-backend/internal/service"
)

type stubClient struct{}

func (stubClient) Authenticate(context.Context) error { return errors.New("offline") }
func (stubClient) GetGuildRoster(context.Context, string, string) (*api.RosterResponse, error) {
	return nil, errors.New("offline")
}
func (stubClient) GetCharacterProfile(context.Context, string, string) (*api.ProfileResponse, error) {
	return nil, errors.New("offline")
}
func (stubClient) GetCharacterEquipment(context.Context, string, string) (*api.EquipmentResponse, error) {
	return nil, errors.New("offline")
}
func (stubClient) GetCharacterRaids(context.Context, string, string) (*api.RaidsResponse, error) {
	return nil, errors.New("offline")
}
func (stubClient) GetMythicKeystoneProfile(context.Context, string, string) (*api.MythicKeystoneResponse, error) {
	return nil, errors.New("offline")
}
func (stubClient) GetPvPSummary(context.Context, string, string) (*api.PvPSummaryResponse, error) {
	return nil, errors.New("offline")
}
func (stubClient) GetPvPBracket(context.Context, string, string, string) (*api.PvPBracketResponse, error) {
	return nil, errors.New("offline")
}
func (stubClient) GetCharacterMedia(context.Context, string, string) (*api.MediaResponse, error) {
	return nil, errors.New("offline")
}

type stubMembers struct {
	records []domain.CharacterRecord
}

func (s *stubMembers) Upsert(context.Context, *domain.CharacterRecord) (bool, error) {
	return false, nil
}
func (s *stubMembers) GetAllActive(context.Context) ([]domain.CharacterRecord, error) {
	return s.records, nil
}
func (s *stubMembers) DeactivateMissing(context.Context, []string) (int64, error) { return 0, nil }
func (s *stubMembers) CountActive(context.Context) (int64, error) {
	return int64(len(s.records)), nil
}

type stubSnapshots struct{}

func (stubSnapshots) Save(context.Context, *domain.SeasonSnapshot) error { return nil }
func (stubSnapshots) Get(context.Context, string) (*domain.SeasonSnapshot, error) {
	return nil, nil
}
func (stubSnapshots) GetAll(context.Context) ([]domain.SeasonSnapshot, error) { return nil, nil }

type stubRaw struct{}

func (stubRaw) Dump(ctx context.Context, collection string) ([]bson.M, error) {
	if collection != "members" {
		return nil, errors.New("collection not allowed")
	}
	return []bson.M{{"name": "Aria"}}, nil
}

func testApp(records ...domain.CharacterRecord) *fiber.App {
	cfg := &config.Config{Guild: config.GuildConfig{
		Name:             "Test Guild",
		Realm:            "test-realm",
		LevelRequirement: 80,
		GuildRanks:       []string{"Guild Master"},
	}}
	logger := zerolog.Nop()

	members := &stubMembers{records: records}
	transformer := enrich.NewTransformerAt(cfg.Guild, config.CurrentSeason(), time.Now)

	progress := service.NewProgressService(members, stubSnapshots{}, cfg, logger)
	ingestion := service.NewIngestionService(stubClient{}, members, progress, transformer, cfg, logger)
	memberSvc := service.NewMemberService(members, transformer, cfg, logger)

	app := fiber.New()
	New(ingestion, progress, memberSvc, stubRaw{}, logger).Register(app)
	return app
}

func activeRecord(name string, itemLevel int) domain.CharacterRecord {
	return domain.CharacterRecord{
		Name:      name,
		Server:    "test-realm",
		ItemLevel: domain.ItemLevel{Equipped: itemLevel},
		IsActive:  true,
	}
}

func getJSON(t *testing.T, app *fiber.App, path string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", path, resp.StatusCode, wantStatus)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return body
}

func TestHealth(t *testing.T) {
	body := getJSON(t, testApp(), "/health", http.StatusOK)
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestMembersEndpoint(t *testing.T) {
	app := testApp(activeRecord("Aria", 700), activeRecord("Borin", 650))

	body := getJSON(t, app, "/members", http.StatusOK)
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}

	body = getJSON(t, app, "/members?minItemLevel=680", http.StatusOK)
	if body["count"] != float64(1) {
		t.Errorf("filtered count = %v, want 1", body["count"])
	}

	getJSON(t, app, "/members?minItemLevel=abc", http.StatusBadRequest)
}

func TestUpdateEndpointAccepts(t *testing.T) {
	app := testApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/admin/update", nil))
	if err != nil {
		t.Fatalf("POST /admin/update: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["runId"] == "" || body["runId"] == nil {
		t.Error("no runId in response")
	}
}

func TestUpdateEndpointRejectsUnknownDataType(t *testing.T) {
	app := testApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/admin/update?data=raid,bogus", nil))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSeasonEndpointUnknownSeason(t *testing.T) {
	getJSON(t, testApp(activeRecord("Aria", 700)), "/guild-progress/season/season-99", http.StatusNotFound)
}

func TestSeasonEndpointComputesLive(t *testing.T) {
	body := getJSON(t, testApp(activeRecord("Aria", 700)), "/guild-progress/season/season-3", http.StatusOK)
	if body["cached"] != false {
		t.Errorf("cached = %v, want false with an empty snapshot store", body["cached"])
	}
	if body["seasonId"] != "season-3" {
		t.Errorf("seasonId = %v", body["seasonId"])
	}
}

func TestSeasonCatalogueEndpoint(t *testing.T) {
	body := getJSON(t, testApp(), "/guild-progress/seasons", http.StatusOK)
	if body["currentSeason"] != config.CurrentSeasonID {
		t.Errorf("currentSeason = %v", body["currentSeason"])
	}
	seasons, ok := body["seasons"].([]any)
	if !ok || len(seasons) != len(config.Seasons()) {
		t.Errorf("seasons = %v", body["seasons"])
	}
}

func TestRawEndpoint(t *testing.T) {
	app := testApp()

	body := getJSON(t, app, "/admin/raw/members", http.StatusOK)
	if body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}

	getJSON(t, app, "/admin/raw/secrets", http.StatusBadRequest)
}

func TestRaidTeamCountEndpoint(t *testing.T) {
	body := getJSON(t, testApp(activeRecord("Aria", 700)), "/raid-team/count", http.StatusOK)
	if body["raidReady"] != float64(0) {
		t.Errorf("raidReady = %v, want 0 for a bare record", body["raidReady"])
	}
}
