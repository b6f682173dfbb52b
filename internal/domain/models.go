package domain

import (
	"time"
)

// CharacterRecord is the enriched, persisted view of one guild member,
// keyed uniquely by (Name, Server). Records are soft-deleted: the reconciler
// flips IsActive to false when a member drops off the roster, and inactive
// records are never returned by active-member queries.
type CharacterRecord struct {
	Name   string `bson:"name" json:"name"`
	Server string `bson:"server" json:"server"`

	ItemLevel ItemLevel `bson:"itemlevel" json:"itemLevel"`
	MetaData  MetaData  `bson:"metaData" json:"metaData"`
	GuildData GuildData `bson:"guildData" json:"guildData"`

	Equipment []EquipmentItem `bson:"equipement" json:"equipment"`

	RaidHistory *RaidHistory `bson:"raidHistory,omitempty" json:"raidHistory,omitempty"`
	MythicPlus  *MythicPlus  `bson:"mplus,omitempty" json:"mplus,omitempty"`
	PvP         *PvP         `bson:"pvp,omitempty" json:"pvp,omitempty"`

	// Derived facts, populated by the enrichment transformer.
	Ready            bool           `bson:"ready" json:"ready"`
	MissingEnchants  int            `bson:"missingEnchants" json:"missingEnchants"`
	TierSetCount     int            `bson:"tierSetCount" json:"tierSetCount"`
	HasTierSet       bool           `bson:"hasTierSet" json:"hasTierSet"`
	Jewelry          JewelrySummary `bson:"jewelry" json:"jewelry"`
	LockStatus       *LockStatus    `bson:"lockStatus,omitempty" json:"lockStatus,omitempty"`
	IsActiveInSeason bool           `bson:"isActiveInSeason" json:"isActiveInSeason"`
	ProcessedStats   ProcessedStats `bson:"processedStats" json:"processedStats"`

	Media Media `bson:"media" json:"media"`

	IsActive    bool      `bson:"is_active" json:"isActive"`
	LastUpdated time.Time `bson:"last_updated" json:"lastUpdated"`
}

func (c CharacterRecord) Key() string {
	return c.Name + "-" + c.Server
}

type ItemLevel struct {
	Equipped int `bson:"equiped" json:"equipped"`
	Average  int `bson:"average" json:"average"`
}

type MetaData struct {
	Class       string    `bson:"class" json:"class"`
	Spec        string    `bson:"spec" json:"spec"`
	Role        string    `bson:"role" json:"role"`
	LastUpdated time.Time `bson:"lastUpdated" json:"lastUpdated"`
}

type GuildData struct {
	// Rank is an ordinal index into the configured guild rank table.
	Rank int `bson:"rank" json:"rank"`
}

// EquipmentItem is one equipped piece. Raw retains the source payload for
// derived facts we do not compute yet.
type EquipmentItem struct {
	Slot         string         `bson:"type" json:"type"`
	Name         string         `bson:"name" json:"name"`
	Level        int            `bson:"level" json:"level"`
	NeedsEnchant bool           `bson:"needsEnchant" json:"needsEnchant"`
	HasEnchant   bool           `bson:"hasEnchant" json:"hasEnchant"`
	IsTierItem   bool           `bson:"isTierItem" json:"isTierItem"`
	SetName      string         `bson:"setName,omitempty" json:"setName,omitempty"`
	IsJewelry    bool           `bson:"isJewelry" json:"isJewelry"`
	Sockets      SocketSummary  `bson:"sockets" json:"sockets"`
	Raw          map[string]any `bson:"_raw,omitempty" json:"-"`
}

// SocketSummary describes the socket state of a single item. When HasSocket
// is false every count is zero and Details is empty; when true,
// GemmedSockets + EmptySockets always equals SocketCount.
type SocketSummary struct {
	HasSocket     bool           `bson:"hasSocket" json:"hasSocket"`
	SocketCount   int            `bson:"socketCount" json:"socketCount"`
	GemmedSockets int            `bson:"gemmedSockets" json:"gemmedSockets"`
	EmptySockets  int            `bson:"emptySocketCount" json:"emptySocketCount"`
	Details       []SocketDetail `bson:"socketDetails,omitempty" json:"socketDetails,omitempty"`
}

type SocketDetail struct {
	SocketType string `bson:"socketType" json:"socketType"`
	Gem        string `bson:"gem,omitempty" json:"gem,omitempty"`
}

// JewelrySummary accumulates socket state across all jewelry pieces
// (neck and rings, the only socketed slots in this domain).
type JewelrySummary struct {
	TotalPieces    int `bson:"total_jewelry_pieces" json:"totalJewelryPieces"`
	SocketedPieces int `bson:"socketed_jewelry_pieces" json:"socketedJewelryPieces"`
	TotalSockets   int `bson:"total_sockets" json:"totalSockets"`
	GemmedSockets  int `bson:"gemmed_sockets" json:"gemmedSockets"`
	EmptySockets   int `bson:"empty_sockets" json:"emptySockets"`
}

// RaidHistory keeps the source raid encounter payload verbatim so later
// aggregation passes can re-analyze it without refetching.
type RaidHistory struct {
	CurrentSeason *RaidExpansion  `bson:"currentSeason,omitempty" json:"currentSeason,omitempty"`
	AllExpansions []RaidExpansion `bson:"allExpansions,omitempty" json:"allExpansions,omitempty"`
}

type RaidExpansion struct {
	Expansion NamedRef       `bson:"expansion" json:"expansion"`
	Instances []RaidInstance `bson:"instances" json:"instances"`
}

type RaidInstance struct {
	Instance NamedRef   `bson:"instance" json:"instance"`
	Modes    []RaidMode `bson:"modes" json:"modes"`
}

type RaidMode struct {
	Difficulty NamedRef         `bson:"difficulty" json:"difficulty"`
	Status     NamedRef         `bson:"status" json:"status"`
	Progress   RaidModeProgress `bson:"progress" json:"progress"`
}

type RaidModeProgress struct {
	CompletedCount int             `bson:"completed_count" json:"completed_count"`
	TotalCount     int             `bson:"total_count" json:"total_count"`
	Encounters     []RaidEncounter `bson:"encounters" json:"encounters"`
}

type RaidEncounter struct {
	Encounter         NamedRef `bson:"encounter" json:"encounter"`
	CompletedCount    int      `bson:"completed_count" json:"completed_count"`
	LastKillTimestamp int64    `bson:"last_kill_timestamp" json:"last_kill_timestamp"`
}

type NamedRef struct {
	Name string `bson:"name" json:"name"`
	Type string `bson:"type,omitempty" json:"type,omitempty"`
}

type MythicPlus struct {
	CurrentRating MythicRating `bson:"current_mythic_rating" json:"current_mythic_rating"`
}

type MythicRating struct {
	Rating float64 `bson:"rating" json:"rating"`
}

// PvP holds the summary plus per-bracket ratings. Rating is the highest
// rating across all fetched brackets; brackets that failed to fetch are
// simply absent.
type PvP struct {
	Rating     int                   `bson:"rating" json:"rating"`
	HonorLevel int                   `bson:"honor_level" json:"honor_level"`
	Brackets   map[string]PvPBracket `bson:"brackets,omitempty" json:"brackets,omitempty"`
}

type PvPBracket struct {
	Rating int `bson:"rating" json:"rating"`
}

// LockStatus records per-difficulty weekly lockouts for the current raid.
type LockStatus struct {
	IsLocked bool                      `bson:"isLocked" json:"isLocked"`
	LockedTo map[string]DifficultyLock `bson:"lockedTo,omitempty" json:"lockedTo,omitempty"`
}

type DifficultyLock struct {
	Completed  int      `bson:"completed" json:"completed"`
	Total      int      `bson:"total" json:"total"`
	LastKill   int64    `bson:"lastKill" json:"lastKill"`
	Encounters []string `bson:"encounters" json:"encounters"`
}

// ProcessedStats is the flattened ranking summary used by report consumers.
type ProcessedStats struct {
	MythicPlusScore float64 `bson:"mythicPlusScore" json:"mythicPlusScore"`
	PvPRating       int     `bson:"pvpRating" json:"pvpRating"`
	ItemLevel       int     `bson:"itemLevel" json:"itemLevel"`
	Role            string  `bson:"role" json:"role"`
	Spec            string  `bson:"spec" json:"spec"`
	Class           string  `bson:"class" json:"class"`
}

// Media holds character render URLs. Available is false when the media
// fetch failed; the record is still persisted.
type Media struct {
	Available bool              `bson:"available" json:"available"`
	Assets    map[string]string `bson:"assets,omitempty" json:"assets,omitempty"`
}
