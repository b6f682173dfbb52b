package config

import "time"

// Raid describes one raid instance within a season: its supported difficulty
// modes and the fixed boss roster used as the universe for kill tallying.
type Raid struct {
	ID           string   `json:"id" toml:"id"`
	Name         string   `json:"name" toml:"name"`
	Difficulties []string `json:"difficulties" toml:"difficulties"`
	Bosses       []string `json:"bosses" toml:"bosses"`
}

func (r Raid) BossCount() int { return len(r.Bosses) }

// Season is one ranked season of the expansion. EndDate is nil for the
// currently active season.
type Season struct {
	ID        string     `json:"id" toml:"id"`
	Name      string     `json:"name" toml:"name"`
	StartDate time.Time  `json:"start_date" toml:"start_date"`
	EndDate   *time.Time `json:"end_date" toml:"end_date"`
	Raids     []Raid     `json:"raids" toml:"raids"`
}

const CurrentSeasonID = "season-3"

var warWithinSeasons = []Season{
	{
		ID:        "season-1",
		Name:      "Season 1",
		StartDate: date(2024, 8, 26),
		EndDate:   datePtr(2025, 1, 7),
		Raids: []Raid{
			{
				ID:           "nerubar-palace",
				Name:         "Nerub-ar Palace",
				Difficulties: []string{"LFR", "Normal", "Heroic", "Mythic"},
				Bosses: []string{
					"Ulgrax the Devourer",
					"The Bloodbound Horror",
					"Sikran, Captain of the Sureki",
					"Rasha'nan",
					"Broodtwister Ovi'nax",
					"Nexus-Princess Ky'veza",
					"The Silken Court",
					"Queen Ansurek",
				},
			},
		},
	},
	{
		ID:        "season-2",
		Name:      "Season 2",
		StartDate: date(2025, 1, 7),
		EndDate:   datePtr(2025, 8, 12),
		Raids: []Raid{
			{
				ID:           "liberation-of-undermine",
				Name:         "Liberation of Undermine",
				Difficulties: []string{"LFR", "Normal", "Heroic", "Mythic"},
				Bosses: []string{
					"Vexie and the Geargrinders",
					"Cauldron of Carnage",
					"Rik Reverb",
					"Stix Bunkjunker",
					"Sprocketmonger Lockenstock",
					"The One-Armed Bandit",
					"Mug'Zee, Heads of Security",
					"Chrome King Gallywix",
				},
			},
		},
	},
	{
		ID:        "season-3",
		Name:      "Season 3",
		StartDate: date(2025, 8, 12),
		EndDate:   nil,
		Raids: []Raid{
			{
				ID:           "manaforge-omega",
				Name:         "Manaforge Omega",
				Difficulties: []string{"LFR", "Normal", "Heroic", "Mythic"},
				Bosses: []string{
					"Plexus Sentinel",
					"Loom'ithar",
					"Soulbinder Naazindhri",
					"Forgeweaver Araz",
					"The Soul Hunters",
					"Fractillus",
					"Nexus-King Salhadaar",
					"Dimensius, the All-Devouring",
				},
			},
		},
	},
}

// Seasons returns every configured season in chronological order.
func Seasons() []Season {
	return warWithinSeasons
}

// SeasonByID looks up a season; ok is false when the id is unknown.
func SeasonByID(id string) (Season, bool) {
	for _, s := range warWithinSeasons {
		if s.ID == id {
			return s, true
		}
	}
	return Season{}, false
}

// CurrentSeason returns the active season.
func CurrentSeason() Season {
	s, _ := SeasonByID(CurrentSeasonID)
	return s
}

// CurrentRaid returns the active season's raid. The catalogue always carries
// exactly one raid per season for this expansion.
func CurrentRaid() Raid {
	return CurrentSeason().Raids[0]
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}
