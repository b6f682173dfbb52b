package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mckriel/omg-backend/internal/config"
	"github.com/mckriel/omg-backend/internal/constants"
	"github.com/mckriel/omg-backend/internal/domain"
	"github.com/mckriel/omg-backend/internal/enrich"
)

// MemberService produces the read-side views over active members: the
// filtered audit listing, guild statistics, jewelry/gem statistics and the
// raid-team projection.
type MemberService struct {
	members     MemberStore
	transformer *enrich.Transformer
	guild       config.GuildConfig
	logger      zerolog.Logger
}

func NewMemberService(members MemberStore, transformer *enrich.Transformer, cfg *config.Config, logger zerolog.Logger) *MemberService {
	return &MemberService{
		members:     members,
		transformer: transformer,
		guild:       cfg.Guild,
		logger:      logger,
	}
}

// MemberView is the transformed listing entry for one active member.
type MemberView struct {
	Name                 string                 `json:"name"`
	Server               string                 `json:"server"`
	Class                string                 `json:"class"`
	Spec                 string                 `json:"spec"`
	Role                 string                 `json:"role"`
	ItemLevel            int                    `json:"itemLevel"`
	GuildRank            int                    `json:"guildRank"`
	GuildRankName        string                 `json:"guildRankName"`
	Ready                bool                   `json:"ready"`
	MissingEnchants      []string               `json:"missingEnchants"`
	MissingEnchantsCount int                    `json:"missingEnchantsCount"`
	MissingCloak         bool                   `json:"missingCloak"`
	TierSetCount         int                    `json:"tierSetCount"`
	HasTierSet           bool                   `json:"hasTierSet"`
	MythicPlus           float64                `json:"mplus"`
	PvP                  int                    `json:"pvp"`
	Jewelry              domain.JewelrySummary  `json:"jewelry"`
	IsActiveInSeason     bool                   `json:"isActiveInSeason"`
	LockStatus           *domain.LockStatus     `json:"lockStatus,omitempty"`
	Media                domain.Media           `json:"media"`
	Stats                domain.ProcessedStats  `json:"stats"`
}

// MemberFilters narrows the member listing. Zero values mean "no filter".
type MemberFilters struct {
	Search       string // substring match on name, case-insensitive
	Rank         string // "mains" | "alts" | "all"
	Classes      string // comma-separated class names
	RoleFilter   string // "tanks" | "healers" | "dps" | "all"
	MinItemLevel int
	Predicate    string // named predicate, e.g. "missing-enchants"
}

// List returns the filtered, transformed member listing sorted by item
// level descending.
func (s *MemberService) List(ctx context.Context, filters MemberFilters) ([]MemberView, error) {
	members, err := s.members.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]MemberView, 0, len(members))
	for _, member := range members {
		views = append(views, s.view(member))
	}

	views = s.applyFilters(views, filters)
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].ItemLevel > views[j].ItemLevel
	})
	return views, nil
}

func (s *MemberService) view(member domain.CharacterRecord) MemberView {
	var missing []string
	for _, item := range member.Equipment {
		if item.NeedsEnchant && !item.HasEnchant {
			missing = append(missing, item.Slot)
		}
	}

	missingCloak := true
	if cloak, ok := cloakOf(member.Equipment); ok {
		missingCloak = !strings.EqualFold(cloak.Name, s.guild.RaidReadyCloak)
	}

	return MemberView{
		Name:                 member.Name,
		Server:               member.Server,
		Class:                member.MetaData.Class,
		Spec:                 member.MetaData.Spec,
		Role:                 s.guild.Role(member.MetaData.Spec),
		ItemLevel:            member.ItemLevel.Equipped,
		GuildRank:            member.GuildData.Rank,
		GuildRankName:        s.guild.RankName(member.GuildData.Rank),
		Ready:                member.Ready,
		MissingEnchants:      missing,
		MissingEnchantsCount: len(missing),
		MissingCloak:         missingCloak,
		TierSetCount:         member.TierSetCount,
		HasTierSet:           member.HasTierSet,
		MythicPlus:           member.ProcessedStats.MythicPlusScore,
		PvP:                  member.ProcessedStats.PvPRating,
		Jewelry:              member.Jewelry,
		IsActiveInSeason:     member.IsActiveInSeason,
		LockStatus:           member.LockStatus,
		Media:                member.Media,
		Stats:                member.ProcessedStats,
	}
}

func (s *MemberService) applyFilters(views []MemberView, filters MemberFilters) []MemberView {
	filtered := views

	if filters.Search != "" {
		needle := strings.ToLower(filters.Search)
		filtered = keep(filtered, func(v MemberView) bool {
			return strings.Contains(strings.ToLower(v.Name), needle)
		})
	}

	switch filters.Rank {
	case "mains":
		filtered = keep(filtered, func(v MemberView) bool { return s.guild.IsMainRank(v.GuildRank) })
	case "alts":
		filtered = keep(filtered, func(v MemberView) bool { return s.guild.IsAltRank(v.GuildRank) })
	}

	if filters.Classes != "" {
		classes := map[string]bool{}
		for _, c := range strings.Split(filters.Classes, ",") {
			classes[strings.TrimSpace(c)] = true
		}
		filtered = keep(filtered, func(v MemberView) bool { return classes[v.Class] })
	}

	switch filters.RoleFilter {
	case "tanks":
		filtered = keep(filtered, func(v MemberView) bool { return v.Role == "tank" })
	case "healers":
		filtered = keep(filtered, func(v MemberView) bool { return v.Role == "healer" })
	case "dps":
		filtered = keep(filtered, func(v MemberView) bool { return v.Role == "dps" })
	}

	if filters.MinItemLevel > 0 {
		filtered = keep(filtered, func(v MemberView) bool { return v.ItemLevel >= filters.MinItemLevel })
	}

	switch filters.Predicate {
	case "missing-enchants":
		filtered = keep(filtered, func(v MemberView) bool { return v.MissingEnchantsCount > 0 })
	case "locked-normal":
		filtered = keep(filtered, func(v MemberView) bool { return lockedTo(v, "Normal") })
	case "locked-heroic":
		filtered = keep(filtered, func(v MemberView) bool { return lockedTo(v, "Heroic") })
	case "locked-mythic":
		filtered = keep(filtered, func(v MemberView) bool { return lockedTo(v, "Mythic") })
	case "missing-tier":
		filtered = keep(filtered, func(v MemberView) bool { return !v.HasTierSet })
	case "not-ready":
		filtered = keep(filtered, func(v MemberView) bool { return !v.Ready })
	case "active-season":
		filtered = keep(filtered, func(v MemberView) bool { return v.IsActiveInSeason })
	case "has-pvp-rating":
		filtered = keep(filtered, func(v MemberView) bool { return v.PvP > 0 })
	case "has-mplus-score":
		filtered = keep(filtered, func(v MemberView) bool { return v.MythicPlus > 0 })
	}

	return filtered
}

func lockedTo(v MemberView, difficulty string) bool {
	return v.LockStatus != nil && v.LockStatus.LockedTo != nil && hasKey(v.LockStatus.LockedTo, difficulty)
}

func hasKey(m map[string]domain.DifficultyLock, key string) bool {
	_, ok := m[key]
	return ok
}

func keep(views []MemberView, predicate func(MemberView) bool) []MemberView {
	out := views[:0:0]
	for _, v := range views {
		if predicate(v) {
			out = append(out, v)
		}
	}
	return out
}

// GuildStats is the aggregate statistics summary over the active roster.
type GuildStats struct {
	TotalMembers    int          `json:"totalMembers"`
	MissingEnchants int          `json:"missingEnchants"`
	RaidLocked      int          `json:"raidLocked"`
	AvgTopMythic    float64      `json:"avgTopMplus"`
	AvgTopPvP       float64      `json:"avgTopPvp"`
	RoleCounts      RoleCounts   `json:"roleCounts"`
	TopPvP          []MemberView `json:"topPvp"`
	TopMythic       []MemberView `json:"topPve"`
}

type RoleCounts struct {
	Tanks   int `json:"tanks"`
	Healers int `json:"healers"`
	DPS     int `json:"dps"`
}

// Stats computes the guild statistics summary over all active members.
func (s *MemberService) Stats(ctx context.Context) (*GuildStats, error) {
	views, err := s.List(ctx, MemberFilters{})
	if err != nil {
		return nil, err
	}

	stats := &GuildStats{TotalMembers: len(views)}
	for _, v := range views {
		if v.MissingEnchantsCount > 0 {
			stats.MissingEnchants++
		}
		if v.LockStatus != nil && v.LockStatus.IsLocked {
			stats.RaidLocked++
		}
		switch v.Role {
		case "tank":
			stats.RoleCounts.Tanks++
		case "healer":
			stats.RoleCounts.Healers++
		default:
			stats.RoleCounts.DPS++
		}
	}

	stats.TopPvP = topBy(views, constants.TopRatingLimit, func(v MemberView) float64 { return float64(v.PvP) })
	stats.TopMythic = topBy(views, constants.TopRatingLimit, func(v MemberView) float64 { return v.MythicPlus })
	stats.AvgTopPvP = averageOf(stats.TopPvP, func(v MemberView) float64 { return float64(v.PvP) })
	stats.AvgTopMythic = averageOf(stats.TopMythic, func(v MemberView) float64 { return v.MythicPlus })

	return stats, nil
}

func topBy(views []MemberView, limit int, score func(MemberView) float64) []MemberView {
	withScore := keep(views, func(v MemberView) bool { return score(v) > 0 })
	sorted := make([]MemberView, len(withScore))
	copy(sorted, withScore)
	sort.SliceStable(sorted, func(i, j int) bool { return score(sorted[i]) > score(sorted[j]) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func averageOf(views []MemberView, score func(MemberView) float64) float64 {
	if len(views) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range views {
		sum += score(v)
	}
	return sum / float64(len(views))
}

// JewelryStats summarizes socket and gem state across all active members.
type JewelryStats struct {
	TotalMembers int                 `json:"totalMembers"`
	Members      []MemberJewelry     `json:"jewelryData"`
	Summary      JewelryStatsSummary `json:"summary"`
}

type MemberJewelry struct {
	Name    string                `json:"name"`
	Server  string                `json:"server"`
	Class   string                `json:"class"`
	Spec    string                `json:"spec"`
	Jewelry domain.JewelrySummary `json:"jewelry"`
}

type JewelryStatsSummary struct {
	MembersWithSocketedJewelry int            `json:"membersWithSocketedJewelry"`
	TotalJewelryPieces         int            `json:"totalJewelryPieces"`
	TotalSockets               int            `json:"totalSockets"`
	GemmedSockets              int            `json:"gemmedSockets"`
	EmptySockets               int            `json:"emptySocketCount"`
	CommonGems                 map[string]int `json:"commonGems"`
}

// JewelryStats aggregates per-member jewelry summaries plus a gem tally.
func (s *MemberService) JewelryStats(ctx context.Context) (*JewelryStats, error) {
	members, err := s.members.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	stats := &JewelryStats{
		TotalMembers: len(members),
		Summary:      JewelryStatsSummary{CommonGems: map[string]int{}},
	}

	for _, member := range members {
		stats.Members = append(stats.Members, MemberJewelry{
			Name:    member.Name,
			Server:  member.Server,
			Class:   member.MetaData.Class,
			Spec:    member.MetaData.Spec,
			Jewelry: member.Jewelry,
		})

		if member.Jewelry.SocketedPieces > 0 {
			stats.Summary.MembersWithSocketedJewelry++
		}
		stats.Summary.TotalJewelryPieces += member.Jewelry.TotalPieces
		stats.Summary.TotalSockets += member.Jewelry.TotalSockets
		stats.Summary.GemmedSockets += member.Jewelry.GemmedSockets
		stats.Summary.EmptySockets += member.Jewelry.EmptySockets

		for _, item := range member.Equipment {
			if !item.IsJewelry {
				continue
			}
			for _, socket := range item.Sockets.Details {
				if socket.Gem != "" {
					stats.Summary.CommonGems[socket.Gem]++
				}
			}
		}
	}

	return stats, nil
}

// RaidTeamView is the strict raid-team projection of one member.
type RaidTeamView struct {
	Name                 string                `json:"name"`
	Server               string                `json:"server"`
	Class                string                `json:"class"`
	Spec                 string                `json:"spec"`
	Role                 string                `json:"role"`
	ItemLevel            int                   `json:"item_level"`
	GuildRank            int                   `json:"guild_rank"`
	RaidReady            bool                  `json:"raid_ready"`
	MissingEnchantsCount int                   `json:"missing_enchants_count"`
	MissingCloak         bool                  `json:"missing_cloak"`
	CloakItemLevel       int                   `json:"cloak_item_level"`
	TierSetCount         int                   `json:"tier_set_count"`
	HasTierSet           bool                  `json:"has_tier_set"`
	Jewelry              domain.JewelrySummary `json:"jewelry"`
	LastUpdated          time.Time             `json:"last_updated"`
}

// RaidTeam returns the raid-team projection of all active members, raid
// ready members first, then by item level descending.
func (s *MemberService) RaidTeam(ctx context.Context) ([]RaidTeamView, error) {
	members, err := s.members.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	team := make([]RaidTeamView, 0, len(members))
	for _, member := range members {
		cloakLevel := 0
		missingCloak := true
		if cloak, ok := cloakOf(member.Equipment); ok {
			cloakLevel = cloak.Level
			missingCloak = !strings.EqualFold(cloak.Name, s.guild.RaidReadyCloak)
		}

		team = append(team, RaidTeamView{
			Name:                 member.Name,
			Server:               member.Server,
			Class:                member.MetaData.Class,
			Spec:                 member.MetaData.Spec,
			Role:                 s.guild.Role(member.MetaData.Spec),
			ItemLevel:            member.ItemLevel.Equipped,
			GuildRank:            member.GuildData.Rank,
			RaidReady:            s.transformer.RaidReady(member),
			MissingEnchantsCount: member.MissingEnchants,
			MissingCloak:         missingCloak,
			CloakItemLevel:       cloakLevel,
			TierSetCount:         member.TierSetCount,
			HasTierSet:           member.HasTierSet,
			Jewelry:              member.Jewelry,
			LastUpdated:          member.LastUpdated,
		})
	}

	sort.SliceStable(team, func(i, j int) bool {
		if team[i].RaidReady != team[j].RaidReady {
			return team[i].RaidReady
		}
		return team[i].ItemLevel > team[j].ItemLevel
	})
	return team, nil
}

// RaidReadyCount counts active members passing the strict raid-ready gate.
func (s *MemberService) RaidReadyCount(ctx context.Context) (int, error) {
	team, err := s.RaidTeam(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, member := range team {
		if member.RaidReady {
			count++
		}
	}
	return count, nil
}

func cloakOf(items []domain.EquipmentItem) (domain.EquipmentItem, bool) {
	for _, item := range items {
		if item.Slot == "BACK" || item.Slot == "CLOAK" {
			return item, true
		}
	}
	return domain.EquipmentItem{}, false
}
