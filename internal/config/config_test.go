package config

import (
	"testing"
	"time"
)

func TestResetDay(t *testing.T) {
	tests := []struct {
		weekday string
		want    time.Weekday
	}{
		{"Wednesday", time.Wednesday},
		{"wednesday", time.Wednesday},
		{"Tuesday", time.Tuesday},
		{"", time.Wednesday},
		{"garbage", time.Wednesday},
	}
	for _, tt := range tests {
		g := GuildConfig{ResetWeekday: tt.weekday}
		if got := g.ResetDay(); got != tt.want {
			t.Errorf("ResetDay(%q) = %v, want %v", tt.weekday, got, tt.want)
		}
	}
}

func TestRankName(t *testing.T) {
	g := GuildConfig{GuildRanks: []string{"Guild Master", "Officer"}}

	if got := g.RankName(1); got != "Officer" {
		t.Errorf("RankName(1) = %q", got)
	}
	if got := g.RankName(5); got != "Unknown" {
		t.Errorf("RankName(5) = %q, want Unknown", got)
	}
	if got := g.RankName(-1); got != "Unknown" {
		t.Errorf("RankName(-1) = %q, want Unknown", got)
	}
}

func TestRankMembership(t *testing.T) {
	g := GuildConfig{MainRanks: []int{0, 1, 2}, AltRanks: []int{3}}

	if !g.IsMainRank(0) || g.IsMainRank(3) {
		t.Error("main rank classification wrong")
	}
	if !g.IsAltRank(3) || g.IsAltRank(1) {
		t.Error("alt rank classification wrong")
	}
	// A rank outside both lists is neither.
	if g.IsMainRank(9) || g.IsAltRank(9) {
		t.Error("unlisted rank must be neither main nor alt")
	}
}

func TestRole(t *testing.T) {
	g := GuildConfig{
		Tanks:   []string{"Blood", "Protection"},
		Healers: []string{"Holy", "Restoration"},
	}

	tests := []struct {
		spec string
		want string
	}{
		{"Blood", "tank"},
		{"Holy", "healer"},
		{"Retribution", "dps"},
		{"", "dps"},
	}
	for _, tt := range tests {
		if got := g.Role(tt.spec); got != tt.want {
			t.Errorf("Role(%q) = %q, want %q", tt.spec, got, tt.want)
		}
	}
}

func TestSeasonCatalogue(t *testing.T) {
	seasons := Seasons()
	if len(seasons) != 3 {
		t.Fatalf("len(Seasons()) = %d, want 3", len(seasons))
	}

	// Chronological, and only the last season is open-ended.
	for i := 1; i < len(seasons); i++ {
		if !seasons[i].StartDate.After(seasons[i-1].StartDate) {
			t.Errorf("seasons out of order at %d", i)
		}
	}
	for i, season := range seasons {
		last := i == len(seasons)-1
		if (season.EndDate == nil) != last {
			t.Errorf("%s EndDate nil = %v, want %v", season.ID, season.EndDate == nil, last)
		}
		if len(season.Raids) != 1 {
			t.Errorf("%s has %d raids, want 1", season.ID, len(season.Raids))
		}
	}
}

func TestSeasonByID(t *testing.T) {
	season, ok := SeasonByID("season-2")
	if !ok || season.Name != "Season 2" {
		t.Errorf("SeasonByID(season-2) = %+v, %v", season, ok)
	}
	if _, ok := SeasonByID("season-99"); ok {
		t.Error("SeasonByID(season-99) ok = true, want false")
	}
}

func TestCurrentSeason(t *testing.T) {
	season := CurrentSeason()
	if season.ID != CurrentSeasonID {
		t.Errorf("CurrentSeason().ID = %s, want %s", season.ID, CurrentSeasonID)
	}
	if raid := CurrentRaid(); raid.Name != "Manaforge Omega" {
		t.Errorf("CurrentRaid() = %s", raid.Name)
	}
	if CurrentRaid().BossCount() != 8 {
		t.Errorf("BossCount() = %d, want 8", CurrentRaid().BossCount())
	}
}
