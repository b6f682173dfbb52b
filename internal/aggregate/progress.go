// Package aggregate rolls enriched member records into guild-wide raid
// progress reports. All functions are pure: output depends only on the
// member set and the season/guild configuration.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/mckriel/omg-backend/internal/config"
	"github.com/mckriel/omg-backend/internal/constants"
	"github.com/mckriel/omg-backend/internal/domain"
)

// memberProgress is one member's standing in a single raid, per difficulty.
type memberProgress struct {
	found        bool
	difficulties map[string]difficultyDetail
}

type difficultyDetail struct {
	completed  int
	total      int
	percentage int
	complete   bool
	encounters []encounterDetail
}

type encounterDetail struct {
	name   string
	killed bool
}

// analyzeRaid locates a member's progress for the named raid inside one
// expansion snapshot.
func analyzeRaid(expansion *domain.RaidExpansion, raidName string) memberProgress {
	result := memberProgress{difficulties: map[string]difficultyDetail{}}
	if expansion == nil {
		return result
	}

	var raid *domain.RaidInstance
	for i := range expansion.Instances {
		if expansion.Instances[i].Instance.Name == raidName {
			raid = &expansion.Instances[i]
			break
		}
	}
	if raid == nil {
		return result
	}

	result.found = true
	for _, mode := range raid.Modes {
		detail := difficultyDetail{
			completed:  mode.Progress.CompletedCount,
			total:      mode.Progress.TotalCount,
			percentage: percentage(mode.Progress.CompletedCount, mode.Progress.TotalCount),
			complete:   mode.Progress.CompletedCount == mode.Progress.TotalCount,
		}
		for _, encounter := range mode.Progress.Encounters {
			detail.encounters = append(detail.encounters, encounterDetail{
				name:   encounter.Encounter.Name,
				killed: encounter.LastKillTimestamp != 0,
			})
		}
		result.difficulties[mode.Difficulty.Name] = detail
	}
	return result
}

// findMemberProgress searches the current-season snapshot first, then falls
// back to scanning all retained expansion snapshots in stored order. First
// match wins; matches are never merged.
func findMemberProgress(member domain.CharacterRecord, raidName string) memberProgress {
	if member.RaidHistory == nil {
		return memberProgress{difficulties: map[string]difficultyDetail{}}
	}

	progress := analyzeRaid(member.RaidHistory.CurrentSeason, raidName)
	if progress.found {
		return progress
	}

	for i := range member.RaidHistory.AllExpansions {
		progress = analyzeRaid(&member.RaidHistory.AllExpansions[i], raidName)
		if progress.found {
			return progress
		}
	}
	return progress
}

// Raid aggregates guild-wide progress for one raid across the given members.
func Raid(members []domain.CharacterRecord, raid config.Raid, guild config.GuildConfig) domain.RaidProgress {
	result := domain.RaidProgress{
		RaidName:     raid.Name,
		TotalMembers: len(members),
		Difficulties: map[string]domain.DifficultyProgress{},
	}

	// Collect the full progressor list per difficulty; averages are taken
	// over everyone with progress before the list is truncated to the top N.
	progressors := map[string][]domain.Progressor{}

	for _, difficulty := range raid.Difficulties {
		kills := make(map[string]int, len(raid.Bosses))
		for _, boss := range raid.Bosses {
			kills[boss] = 0
		}
		result.Difficulties[difficulty] = domain.DifficultyProgress{BossKills: kills}
	}

	for _, member := range members {
		isMain := guild.IsMainRank(member.GuildData.Rank)
		isAlt := guild.IsAltRank(member.GuildData.Rank)
		if isMain {
			result.MemberBreakdown.Mains.Total++
		} else if isAlt {
			result.MemberBreakdown.Alts.Total++
		}

		progress := findMemberProgress(member, raid.Name)
		if !progress.found {
			continue
		}

		result.MembersWithProgress++
		if isMain {
			result.MemberBreakdown.Mains.WithProgress++
		} else if isAlt {
			result.MemberBreakdown.Alts.WithProgress++
		}

		for difficulty, detail := range progress.difficulties {
			diffData, ok := result.Difficulties[difficulty]
			if !ok {
				// Difficulty outside the raid's configured mode list.
				continue
			}

			if detail.completed > 0 {
				diffData.MembersWithProgress++
			}
			if detail.complete {
				diffData.MembersCompleted++
			}

			for _, encounter := range detail.encounters {
				// The configured boss roster is the tally universe; names
				// outside it are ignored to guard against source drift.
				if _, known := diffData.BossKills[encounter.name]; known && encounter.killed {
					diffData.BossKills[encounter.name]++
				}
			}

			result.Difficulties[difficulty] = diffData

			progressors[difficulty] = append(progressors[difficulty], domain.Progressor{
				Name:       member.Name,
				Server:     member.Server,
				Completed:  detail.completed,
				Total:      detail.total,
				Percentage: detail.percentage,
				GuildRank:  guild.RankName(member.GuildData.Rank),
				Class:      member.MetaData.Class,
				Spec:       member.MetaData.Spec,
			})
		}
	}

	for difficulty, list := range progressors {
		diffData := result.Difficulties[difficulty]
		diffData.AverageProgress = averagePercentage(list)
		diffData.TopProgressors = topProgressors(list)
		result.Difficulties[difficulty] = diffData
	}

	return result
}

// Season aggregates every raid in a season into a snapshot stamped at now.
func Season(members []domain.CharacterRecord, season config.Season, guild config.GuildConfig, now time.Time) domain.SeasonSnapshot {
	snapshot := domain.SeasonSnapshot{
		SeasonID:     season.ID,
		SeasonName:   season.Name,
		TotalMembers: len(members),
		LastUpdated:  now,
		Raids:        make([]domain.RaidProgress, 0, len(season.Raids)),
	}
	for _, raid := range season.Raids {
		snapshot.Raids = append(snapshot.Raids, Raid(members, raid, guild))
	}
	return snapshot
}

func averagePercentage(list []domain.Progressor) int {
	if len(list) == 0 {
		return 0
	}
	sum := 0
	for _, p := range list {
		sum += p.Percentage
	}
	return int(math.Round(float64(sum) / float64(len(list))))
}

// topProgressors sorts by percentage descending, ties broken by completed
// count descending, and truncates to the configured limit. The sort is
// stable so equal entries keep member order and output stays deterministic.
func topProgressors(list []domain.Progressor) []domain.Progressor {
	sorted := make([]domain.Progressor, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Percentage != sorted[j].Percentage {
			return sorted[i].Percentage > sorted[j].Percentage
		}
		return sorted[i].Completed > sorted[j].Completed
	})
	if len(sorted) > constants.TopProgressorLimit {
		sorted = sorted[:constants.TopProgressorLimit]
	}
	return sorted
}

func percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
