package enrich

import (
	"strings"
	"time"

	"github.com/mckriel/omg-backend/internal/api"
	"github.com/mckriel/omg-backend/internal/config"
	"github.com/mckriel/omg-backend/internal/constants"
	"github.com/mckriel/omg-backend/internal/domain"
)

// currentSeasonExpansion is the expansion bucket the encounter API uses for
// the running season's raids.
const currentSeasonExpansion = "Current Season"

var jewelrySlots = map[string]bool{
	"NECK":     true,
	"FINGER_1": true,
	"FINGER_2": true,
}

// Transformer turns raw character payloads into an enriched CharacterRecord.
// It is pure: all facts derive from the input payloads, the guild/season
// configuration and the injected clock.
type Transformer struct {
	guild       config.GuildConfig
	currentRaid config.Raid
	seasonStart time.Time
	now         func() time.Time
}

func NewTransformer(guild config.GuildConfig) *Transformer {
	season := config.CurrentSeason()
	return &Transformer{
		guild:       guild,
		currentRaid: season.Raids[0],
		seasonStart: season.StartDate,
		now:         time.Now,
	}
}

// NewTransformerAt is NewTransformer with a fixed clock, for deterministic
// lockout computation in tests.
func NewTransformerAt(guild config.GuildConfig, season config.Season, now func() time.Time) *Transformer {
	return &Transformer{
		guild:       guild,
		currentRaid: season.Raids[0],
		seasonStart: season.StartDate,
		now:         now,
	}
}

// Input carries one member's raw payloads. Every field besides Name, Server
// and Rank is optional; missing data yields safe zero-valued facts, never an
// error.
type Input struct {
	Name   string
	Server string
	Rank   int

	Profile   *api.ProfileResponse
	Equipment *api.EquipmentResponse
	Raids     *api.RaidsResponse
	Mythic    *api.MythicKeystoneResponse
	PvP       *domain.PvP
	Media     domain.Media
}

// Transform produces a fully enriched character record from raw payloads.
func (t *Transformer) Transform(in Input) domain.CharacterRecord {
	record := domain.CharacterRecord{
		Name:        in.Name,
		Server:      in.Server,
		GuildData:   domain.GuildData{Rank: in.Rank},
		Media:       in.Media,
		IsActive:    true,
		LastUpdated: t.now(),
	}

	if in.Profile != nil {
		record.ItemLevel = domain.ItemLevel{
			Equipped: in.Profile.EquippedItemLevel,
			Average:  in.Profile.AverageItemLevel,
		}
		record.MetaData = domain.MetaData{
			Class:       in.Profile.CharacterClass.Name,
			Spec:        in.Profile.ActiveSpec.Name,
			Role:        t.guild.Role(in.Profile.ActiveSpec.Name),
			LastUpdated: time.UnixMilli(in.Profile.LastLoginTimestamp).UTC(),
		}
	}

	record.Equipment = t.buildEquipment(in.Equipment)
	record.MissingEnchants = missingEnchantCount(record.Equipment)
	record.Ready = record.MissingEnchants == 0
	record.Jewelry = jewelrySummary(record.Equipment)
	record.TierSetCount = t.tierSetCount(record.Equipment)
	record.HasTierSet = record.TierSetCount >= constants.TierSetThreshold

	if in.Raids != nil {
		record.RaidHistory = t.buildRaidHistory(in.Raids)
		record.LockStatus = t.lockStatus(record.RaidHistory.CurrentSeason)
	}

	record.MythicPlus = buildMythicPlus(in.Mythic)
	record.PvP = in.PvP

	record.IsActiveInSeason = t.isActiveInSeason(record.MetaData.LastUpdated)
	if !record.IsActiveInSeason {
		// Stale scores from a previous season must not leak into rankings.
		resetSeasonScores(&record)
	}

	record.ProcessedStats = domain.ProcessedStats{
		MythicPlusScore: mythicScore(record.MythicPlus),
		PvPRating:       pvpRating(record.PvP),
		ItemLevel:       record.ItemLevel.Equipped,
		Role:            strings.ToUpper(record.MetaData.Role),
		Spec:            record.MetaData.Spec,
		Class:           record.MetaData.Class,
	}

	return record
}

func (t *Transformer) buildEquipment(equip *api.EquipmentResponse) []domain.EquipmentItem {
	if equip == nil {
		return []domain.EquipmentItem{}
	}

	items := make([]domain.EquipmentItem, 0, len(equip.EquippedItems))
	for _, item := range equip.EquippedItems {
		slot := item.Slot.Type
		setName := ""
		if item.Set != nil {
			setName = item.Set.ItemSet.Name
		}

		items = append(items, domain.EquipmentItem{
			Slot:         slot,
			Name:         item.Name,
			Level:        item.Level.Value,
			NeedsEnchant: t.needsEnchant(slot),
			HasEnchant:   len(item.Enchantments) > 0,
			IsTierItem:   item.Set != nil,
			SetName:      setName,
			IsJewelry:    jewelrySlots[slot],
			Sockets:      socketSummary(item.Sockets),
			Raw:          item.Raw(),
		})
	}
	return items
}

func (t *Transformer) needsEnchant(slot string) bool {
	for _, s := range t.guild.EnchantableSlots {
		if s == slot {
			return true
		}
	}
	return false
}

func socketSummary(sockets []api.ItemSocket) domain.SocketSummary {
	if len(sockets) == 0 {
		return domain.SocketSummary{}
	}

	summary := domain.SocketSummary{
		HasSocket:   true,
		SocketCount: len(sockets),
		Details:     make([]domain.SocketDetail, 0, len(sockets)),
	}
	for _, socket := range sockets {
		detail := domain.SocketDetail{SocketType: socket.SocketType.Name}
		if socket.Item != nil {
			summary.GemmedSockets++
			detail.Gem = socket.Item.Name
		} else {
			summary.EmptySockets++
		}
		summary.Details = append(summary.Details, detail)
	}
	return summary
}

func missingEnchantCount(items []domain.EquipmentItem) int {
	count := 0
	for _, item := range items {
		if item.NeedsEnchant && !item.HasEnchant {
			count++
		}
	}
	return count
}

func jewelrySummary(items []domain.EquipmentItem) domain.JewelrySummary {
	var summary domain.JewelrySummary
	for _, item := range items {
		if !item.IsJewelry && !jewelrySlots[item.Slot] {
			continue
		}
		summary.TotalPieces++
		if item.Sockets.HasSocket {
			summary.SocketedPieces++
			summary.TotalSockets += item.Sockets.SocketCount
			summary.GemmedSockets += item.Sockets.GemmedSockets
			summary.EmptySockets += item.Sockets.EmptySockets
		}
	}
	return summary
}

// tierSetCount counts equipped pieces that belong to the season's class set:
// flagged as a tier item, inside the configured item-level band, and carrying
// one of the season set-name fragments.
func (t *Transformer) tierSetCount(items []domain.EquipmentItem) int {
	count := 0
	for _, item := range items {
		if !item.IsTierItem {
			continue
		}
		if item.Level < t.guild.MinTierItemLevel || item.Level > t.guild.MaxTierItemLevel {
			continue
		}
		for _, fragment := range t.guild.TierSetNames {
			if strings.Contains(item.SetName, fragment) {
				count++
				break
			}
		}
	}
	return count
}

// RaidReady applies the strict raid-team gate. The result is intentionally
// binary: callers get no detail on which condition failed.
func (t *Transformer) RaidReady(record domain.CharacterRecord) bool {
	if record.ItemLevel.Equipped < t.guild.RaidTeamItemLevel {
		return false
	}
	if record.MissingEnchants > 0 {
		return false
	}
	if record.Jewelry.TotalSockets < constants.RaidReadySocketCount ||
		record.Jewelry.GemmedSockets < constants.RaidReadyGemmedCount {
		return false
	}
	cloak, ok := cloakItem(record.Equipment)
	if !ok {
		return false
	}
	return strings.EqualFold(cloak.Name, t.guild.RaidReadyCloak)
}

// cloakItem returns the equipped back-slot item, if any.
func cloakItem(items []domain.EquipmentItem) (domain.EquipmentItem, bool) {
	for _, item := range items {
		if item.Slot == "BACK" || item.Slot == "CLOAK" {
			return item, true
		}
	}
	return domain.EquipmentItem{}, false
}

func (t *Transformer) buildRaidHistory(raids *api.RaidsResponse) *domain.RaidHistory {
	history := &domain.RaidHistory{
		AllExpansions: raids.Expansions,
	}
	for i := range raids.Expansions {
		if raids.Expansions[i].Expansion.Name == currentSeasonExpansion {
			history.CurrentSeason = &raids.Expansions[i]
			break
		}
	}
	return history
}

func (t *Transformer) isActiveInSeason(lastUpdated time.Time) bool {
	return !lastUpdated.Before(t.seasonStart)
}

func resetSeasonScores(record *domain.CharacterRecord) {
	if record.MythicPlus != nil {
		record.MythicPlus.CurrentRating.Rating = 0
	}
	if record.PvP != nil {
		record.PvP.Rating = 0
		record.PvP.HonorLevel = 0
		record.PvP.Brackets = nil
	}
}

func buildMythicPlus(mythic *api.MythicKeystoneResponse) *domain.MythicPlus {
	if mythic == nil {
		return nil
	}
	return &domain.MythicPlus{
		CurrentRating: domain.MythicRating{Rating: mythic.CurrentMythicRating.Rating},
	}
}

func mythicScore(m *domain.MythicPlus) float64 {
	if m == nil {
		return 0
	}
	return m.CurrentRating.Rating
}

func pvpRating(p *domain.PvP) int {
	if p == nil {
		return 0
	}
	return p.Rating
}
