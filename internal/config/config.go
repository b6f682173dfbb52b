package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/mckriel/omg-backend/internal/constants"
)

type Config struct {
	BattleNetClientID     string
	BattleNetClientSecret string
	Region                string
	MongoURI              string
	MongoDatabase         string
	ServerPort            string

	Guild GuildConfig
}

// GuildConfig holds the guild-specific audit settings, loaded from config.toml
// with sensible defaults when the file or a field is absent.
type GuildConfig struct {
	Name  string `toml:"name"`
	Realm string `toml:"realm"`

	LevelRequirement     int `toml:"level_requirement"`
	ItemLevelRequirement int `toml:"item_level_requirement"`
	RaidTeamItemLevel    int `toml:"raid_team_item_level"`
	MinTierItemLevel     int `toml:"min_tier_item_level"`
	MaxTierItemLevel     int `toml:"max_tier_item_level"`

	EnchantableSlots []string `toml:"enchantable_slots"`
	Tanks            []string `toml:"tanks"`
	Healers          []string `toml:"healers"`
	GuildRanks       []string `toml:"guild_ranks"`
	MainRanks        []int    `toml:"main_ranks"`
	AltRanks         []int    `toml:"alt_ranks"`
	TierSetNames     []string `toml:"tier_set_names"`

	RaidReadyCloak string `toml:"raid_ready_cloak"`
	ResetWeekday   string `toml:"reset_weekday"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		BattleNetClientID:     getEnv("API_BATTLENET_KEY", ""),
		BattleNetClientSecret: getEnv("API_BATTLENET_SECRET", ""),
		Region:                getEnv("REGION", "eu"),
		MongoURI:              getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:         getEnv("DATABASE_NAME", "omg"),
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		Guild:                 defaultGuildConfig(),
	}

	if cfg.BattleNetClientID == "" || cfg.BattleNetClientSecret == "" {
		return nil, fmt.Errorf("API_BATTLENET_KEY and API_BATTLENET_SECRET are required")
	}

	path := getEnv("CONFIG_PATH", "config.toml")
	if err := loadGuildFile(path, &cfg.Guild); err != nil {
		return nil, fmt.Errorf("failed to load guild config: %w", err)
	}

	if cfg.Guild.Name == "" || cfg.Guild.Realm == "" {
		return nil, fmt.Errorf("guild name and realm are required (config.toml or GUILD_NAME/GUILD_REALM)")
	}

	logger.Info().
		Str("guild", cfg.Guild.Name).
		Str("realm", cfg.Guild.Realm).
		Str("region", cfg.Region).
		Str("server_port", cfg.ServerPort).
		Int("level_requirement", cfg.Guild.LevelRequirement).
		Int("item_level_requirement", cfg.Guild.ItemLevelRequirement).
		Msg("configuration loaded")

	return cfg, nil
}

func loadGuildFile(path string, guild *GuildConfig) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Fall back to env for the two required identity fields.
			guild.Name = getEnv("GUILD_NAME", guild.Name)
			guild.Realm = getEnv("GUILD_REALM", guild.Realm)
			return nil
		}
		return err
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(guild); err != nil {
		return err
	}
	return nil
}

func defaultGuildConfig() GuildConfig {
	return GuildConfig{
		Name:                 getEnv("GUILD_NAME", ""),
		Realm:                getEnv("GUILD_REALM", ""),
		LevelRequirement:     constants.DefaultLevelRequirement,
		ItemLevelRequirement: constants.DefaultItemLevelRequirement,
		RaidTeamItemLevel:    constants.DefaultRaidTeamItemLevel,
		MinTierItemLevel:     constants.DefaultMinTierItemLevel,
		MaxTierItemLevel:     constants.DefaultMaxTierItemLevel,
		EnchantableSlots:     []string{"WRIST", "LEGS", "FEET", "CHEST", "MAIN_HAND", "FINGER_1", "FINGER_2"},
		Tanks:                []string{"Blood", "Vengeance", "Guardian", "Brewmaster", "Protection"},
		Healers:              []string{"Preservation", "Mistweaver", "Holy", "Discipline", "Restoration"},
		GuildRanks: []string{
			"Guild Master",
			"Council Member",
			"Officer",
			"Officer Alt",
			"Mythic Raider",
			"Alt Raider",
			"Raider Trial",
			"Social Raider",
			"Alt",
			"Social",
		},
		MainRanks: []int{0, 1, 2, 3, 4, 5, 6, 7},
		AltRanks:  []int{8, 9, 10},
		TierSetNames: []string{
			"Deathbringer", "Rider of the Apocalypse", "San'layn",
			"Aldrachi Reaver", "Fel-Scarred",
			"Druid of the Claw", "Elune's Chosen", "Keeper of the Grove", "Wildstalker",
			"Chronowarden", "Flameshaper", "Scalecommander",
			"Dark Ranger", "Pack Leader", "Sentinel",
			"Frostfire", "Spellslinger", "Sunfury",
			"Conduit of the Celestials", "Master of Harmony", "Shado-Pan",
			"Herald of the Sun", "Lightsmith", "Templar",
			"Archon", "Oracle", "Voidweaver",
			"Deathstalker", "Fatebound", "Trickster",
			"Farseer", "Stormbringer", "Totemic",
			"Diabolist", "Hellcaller", "Soul Harvester",
			"Colossus", "Mountain Thane", "Slayer",
		},
		RaidReadyCloak: "Reshii Wraps",
		ResetWeekday:   "Wednesday",
	}
}

// ResetDay parses the configured weekly reset weekday, defaulting to Wednesday.
func (g GuildConfig) ResetDay() time.Weekday {
	switch strings.ToLower(g.ResetWeekday) {
	case "sunday":
		return time.Sunday
	case "monday":
		return time.Monday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "friday":
		return time.Friday
	case "saturday":
		return time.Saturday
	default:
		return time.Wednesday
	}
}

// RankName resolves a roster rank index to its display name.
func (g GuildConfig) RankName(rank int) string {
	if rank < 0 || rank >= len(g.GuildRanks) {
		return "Unknown"
	}
	return g.GuildRanks[rank]
}

func (g GuildConfig) IsMainRank(rank int) bool {
	for _, r := range g.MainRanks {
		if r == rank {
			return true
		}
	}
	return false
}

func (g GuildConfig) IsAltRank(rank int) bool {
	for _, r := range g.AltRanks {
		if r == rank {
			return true
		}
	}
	return false
}

// Role classifies an active spec into tank, healer or dps.
func (g GuildConfig) Role(spec string) string {
	for _, s := range g.Tanks {
		if s == spec {
			return "tank"
		}
	}
	for _, s := range g.Healers {
		if s == spec {
			return "healer"
		}
	}
	return "dps"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
