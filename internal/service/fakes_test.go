package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mckriel/omg-backend/internal/api"
	"github.com/mckriel/omg-backend/internal/config"
	"github.com/mckriel/omg-backend/internal/domain"
	"github.com/mckriel/omg-backend/internal/enrich"
)

var testNow = time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)

func testGuildConfig() config.GuildConfig {
	return config.GuildConfig{
		Name:                 "Test Guild",
		Realm:                "test-realm",
		LevelRequirement:     80,
		ItemLevelRequirement: 440,
		RaidTeamItemLevel:    690,
		MinTierItemLevel:     640,
		MaxTierItemLevel:     740,
		EnchantableSlots:     []string{"WRIST", "LEGS", "FEET", "CHEST", "MAIN_HAND", "FINGER_1", "FINGER_2"},
		Tanks:                []string{"Blood", "Protection"},
		Healers:              []string{"Holy", "Restoration"},
		GuildRanks:           []string{"Guild Master", "Officer", "Raider", "Alt"},
		MainRanks:            []int{0, 1, 2},
		AltRanks:             []int{3},
		TierSetNames:         []string{"Herald of the Sun"},
		RaidReadyCloak:       "Reshii Wraps",
		ResetWeekday:         "Wednesday",
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Region: "eu",
		Guild:  testGuildConfig(),
	}
}

func testSeason() config.Season {
	return config.Season{
		ID:        "season-3",
		Name:      "Season 3",
		StartDate: time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC),
		Raids: []config.Raid{
			{
				ID:           "manaforge-omega",
				Name:         "Manaforge Omega",
				Difficulties: []string{"Normal", "Heroic", "Mythic"},
				Bosses:       []string{"Plexus Sentinel", "Loom'ithar", "Fractillus"},
			},
		},
	}
}

func testTransformer() *enrich.Transformer {
	return enrich.NewTransformerAt(testGuildConfig(), testSeason(), func() time.Time { return testNow })
}

// fakeClient serves canned payloads keyed by character name. Missing entries
// yield empty payloads; per-name error maps force failures.
type fakeClient struct {
	roster *api.RosterResponse

	profiles map[string]*api.ProfileResponse
	raids    map[string]*api.RaidsResponse
	mythic   map[string]*api.MythicKeystoneResponse
	summary  map[string]*api.PvPSummaryResponse
	brackets map[string]*api.PvPBracketResponse

	authErr    error
	rosterErr  error
	profileErr map[string]error
	equipErr   map[string]error
	raidsErr   map[string]error
	mythicErr  map[string]error
	summaryErr map[string]error
	bracketErr map[string]error
	mediaErr   map[string]error
}

func (f *fakeClient) Authenticate(ctx context.Context) error { return f.authErr }

func (f *fakeClient) GetGuildRoster(ctx context.Context, realm, guild string) (*api.RosterResponse, error) {
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	return f.roster, nil
}

func (f *fakeClient) GetCharacterProfile(ctx context.Context, realm, name string) (*api.ProfileResponse, error) {
	if err := f.profileErr[name]; err != nil {
		return nil, err
	}
	if p, ok := f.profiles[name]; ok {
		return p, nil
	}
	return &api.ProfileResponse{}, nil
}

func (f *fakeClient) GetCharacterEquipment(ctx context.Context, realm, name string) (*api.EquipmentResponse, error) {
	if err := f.equipErr[name]; err != nil {
		return nil, err
	}
	return &api.EquipmentResponse{}, nil
}

func (f *fakeClient) GetCharacterRaids(ctx context.Context, realm, name string) (*api.RaidsResponse, error) {
	if err := f.raidsErr[name]; err != nil {
		return nil, err
	}
	if r, ok := f.raids[name]; ok {
		return r, nil
	}
	return &api.RaidsResponse{}, nil
}

func (f *fakeClient) GetMythicKeystoneProfile(ctx context.Context, realm, name string) (*api.MythicKeystoneResponse, error) {
	if err := f.mythicErr[name]; err != nil {
		return nil, err
	}
	if m, ok := f.mythic[name]; ok {
		return m, nil
	}
	return &api.MythicKeystoneResponse{}, nil
}

func (f *fakeClient) GetPvPSummary(ctx context.Context, realm, name string) (*api.PvPSummaryResponse, error) {
	if err := f.summaryErr[name]; err != nil {
		return nil, err
	}
	if s, ok := f.summary[name]; ok {
		return s, nil
	}
	return &api.PvPSummaryResponse{}, nil
}

func (f *fakeClient) GetPvPBracket(ctx context.Context, realm, name, bracket string) (*api.PvPBracketResponse, error) {
	if err := f.bracketErr[name+"/"+bracket]; err != nil {
		return nil, err
	}
	if b, ok := f.brackets[name+"/"+bracket]; ok {
		return b, nil
	}
	return &api.PvPBracketResponse{}, nil
}

func (f *fakeClient) GetCharacterMedia(ctx context.Context, realm, name string) (*api.MediaResponse, error) {
	if err := f.mediaErr[name]; err != nil {
		return nil, err
	}
	return &api.MediaResponse{}, nil
}

// fakeMemberStore is an in-memory MemberStore keyed by record Key().
type fakeMemberStore struct {
	mu      sync.Mutex
	records map[string]domain.CharacterRecord

	upsertErr     error
	getAllErr     error
	deactivateErr error
}

func newFakeMemberStore(seed ...domain.CharacterRecord) *fakeMemberStore {
	store := &fakeMemberStore{records: map[string]domain.CharacterRecord{}}
	for _, record := range seed {
		store.records[record.Key()] = record
	}
	return store
}

func (f *fakeMemberStore) Upsert(ctx context.Context, record *domain.CharacterRecord) (bool, error) {
	if f.upsertErr != nil {
		return false, f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, exists := f.records[record.Key()]
	f.records[record.Key()] = *record
	return !exists, nil
}

func (f *fakeMemberStore) GetAllActive(ctx context.Context) ([]domain.CharacterRecord, error) {
	if f.getAllErr != nil {
		return nil, f.getAllErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []domain.CharacterRecord
	for _, record := range f.records {
		if record.IsActive {
			active = append(active, record)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].ItemLevel.Equipped != active[j].ItemLevel.Equipped {
			return active[i].ItemLevel.Equipped > active[j].ItemLevel.Equipped
		}
		return active[i].Key() < active[j].Key()
	})
	return active, nil
}

func (f *fakeMemberStore) DeactivateMissing(ctx context.Context, names []string) (int64, error) {
	if f.deactivateErr != nil {
		return 0, f.deactivateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	keep := map[string]bool{}
	for _, name := range names {
		keep[name] = true
	}
	var count int64
	for key, record := range f.records {
		if record.IsActive && !keep[record.Name] {
			record.IsActive = false
			f.records[key] = record
			count++
		}
	}
	return count, nil
}

func (f *fakeMemberStore) CountActive(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, record := range f.records {
		if record.IsActive {
			count++
		}
	}
	return count, nil
}

// fakeSnapshotStore is an in-memory SnapshotStore keyed by season ID.
type fakeSnapshotStore struct {
	mu        sync.Mutex
	snapshots map[string]domain.SeasonSnapshot
	saves     int

	saveErr error
	getErr  error
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{snapshots: map[string]domain.SeasonSnapshot{}}
}

func (f *fakeSnapshotStore) Save(ctx context.Context, snapshot *domain.SeasonSnapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[snapshot.SeasonID] = *snapshot
	f.saves++
	return nil
}

func (f *fakeSnapshotStore) Get(ctx context.Context, seasonID string) (*domain.SeasonSnapshot, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot, ok := f.snapshots[seasonID]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

func (f *fakeSnapshotStore) GetAll(ctx context.Context) ([]domain.SeasonSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []domain.SeasonSnapshot
	for _, snapshot := range f.snapshots {
		all = append(all, snapshot)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SeasonID < all[j].SeasonID })
	return all, nil
}

// eventRecorder captures run events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.RunEvent
}

func (r *eventRecorder) OnRunEvent(event domain.RunEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) typesSeen() map[domain.RunEventType]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[domain.RunEventType]int{}
	for _, event := range r.events {
		seen[event.Type]++
	}
	return seen
}

func newTestServices(client GameDataClient, members MemberStore, snapshots SnapshotStore) (*IngestionService, *ProgressService) {
	cfg := testConfig()
	logger := zerolog.Nop()

	progress := NewProgressService(members, snapshots, cfg, logger)
	progress.now = func() time.Time { return testNow }

	ingestion := NewIngestionService(client, members, progress, testTransformer(), cfg, logger)
	return ingestion, progress
}
