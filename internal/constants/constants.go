package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	IngestionTimeout   = 45 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

// Default eligibility thresholds, overridable via config.toml.
const (
	DefaultLevelRequirement     = 80
	DefaultItemLevelRequirement = 440
	DefaultRaidTeamItemLevel    = 690
	DefaultMinTierItemLevel     = 640
	DefaultMaxTierItemLevel     = 740
)

const (
	// Tier pieces needed before a character counts as having the set bonus.
	TierSetThreshold = 4

	// Strict raid-ready jewelry gate: total sockets and gemmed sockets.
	RaidReadySocketCount = 6
	RaidReadyGemmedCount = 6
)

const (
	TopProgressorLimit = 10
	TopRatingLimit     = 5
)
