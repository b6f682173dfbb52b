package enrich

import (
	"testing"
	"time"

	"github.com/mckriel/omg-backend/internal/domain"
)

// last reset relative to fixedNow (Friday): Wednesday 2025-08-27 midnight UTC.
var resetInstant = time.Date(2025, 8, 27, 0, 0, 0, 0, time.UTC)

func currentSeasonRaids(killTimestamps map[string]int64) *domain.RaidExpansion {
	var encounters []domain.RaidEncounter
	for boss, ts := range killTimestamps {
		encounters = append(encounters, domain.RaidEncounter{
			Encounter:         domain.NamedRef{Name: boss},
			CompletedCount:    1,
			LastKillTimestamp: ts,
		})
	}
	return &domain.RaidExpansion{
		Expansion: domain.NamedRef{Name: "Current Season"},
		Instances: []domain.RaidInstance{
			{
				Instance: domain.NamedRef{Name: "Manaforge Omega"},
				Modes: []domain.RaidMode{
					{
						Difficulty: domain.NamedRef{Name: "Heroic"},
						Progress: domain.RaidModeProgress{
							CompletedCount: len(encounters),
							TotalCount:     3,
							Encounters:     encounters,
						},
					},
				},
			},
		},
	}
}

func TestLastReset(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"two days after reset", fixedNow, resetInstant},
		{"on reset day counts from its own midnight",
			time.Date(2025, 8, 27, 9, 0, 0, 0, time.UTC), resetInstant},
		{"day before reset goes back a full week",
			time.Date(2025, 8, 26, 23, 0, 0, 0, time.UTC),
			time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransformerAt(testGuild(), testSeason(), func() time.Time { return tt.now })
			if got := tr.lastReset(); !got.Equal(tt.want) {
				t.Errorf("lastReset() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLockStatusInclusiveBoundary(t *testing.T) {
	tr := testTransformer()

	tests := []struct {
		name   string
		kill   time.Time
		locked bool
	}{
		{"kill exactly at reset counts", resetInstant, true},
		{"kill after reset counts", resetInstant.Add(2 * time.Hour), true},
		{"kill one millisecond before reset does not", resetInstant.Add(-time.Millisecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			season := currentSeasonRaids(map[string]int64{
				"Plexus Sentinel": tt.kill.UnixMilli(),
			})
			status := tr.lockStatus(season)

			if status.IsLocked != tt.locked {
				t.Fatalf("IsLocked = %v, want %v", status.IsLocked, tt.locked)
			}
			if tt.locked {
				lock, ok := status.LockedTo["Heroic"]
				if !ok {
					t.Fatal("no Heroic lock recorded")
				}
				if lock.LastKill != tt.kill.UnixMilli() {
					t.Errorf("LastKill = %d, want %d", lock.LastKill, tt.kill.UnixMilli())
				}
				if len(lock.Encounters) != 1 || lock.Encounters[0] != "Plexus Sentinel" {
					t.Errorf("Encounters = %v", lock.Encounters)
				}
			}
		})
	}
}

func TestLockStatusIgnoresOtherRaids(t *testing.T) {
	tr := testTransformer()
	season := currentSeasonRaids(map[string]int64{
		"Plexus Sentinel": resetInstant.Add(time.Hour).UnixMilli(),
	})
	season.Instances[0].Instance.Name = "Nerub-ar Palace"

	status := tr.lockStatus(season)
	if status.IsLocked {
		t.Error("kills in another raid must not lock the current raid")
	}
}

func TestLockStatusNilSeason(t *testing.T) {
	status := testTransformer().lockStatus(nil)
	if status == nil {
		t.Fatal("lockStatus(nil) = nil, want empty status")
	}
	if status.IsLocked || len(status.LockedTo) != 0 {
		t.Errorf("status = %+v, want unlocked", status)
	}
}
