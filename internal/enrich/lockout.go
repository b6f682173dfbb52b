package enrich

import (
	"time"

	"github.com/mckriel/omg-backend/internal/domain"
)

// lastReset returns the most recent weekly reset instant: the latest
// occurrence of the configured reset weekday, truncated to midnight UTC.
// A reset day itself counts from its own midnight.
func (t *Transformer) lastReset() time.Time {
	now := t.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	daysSince := (int(now.Weekday()) - int(t.guild.ResetDay()) + 7) % 7
	return midnight.AddDate(0, 0, -daysSince)
}

// lockStatus computes per-difficulty lockouts for the current season's raid.
// A difficulty is locked when any encounter was killed on or after the last
// reset instant; the boundary is inclusive.
func (t *Transformer) lockStatus(currentSeason *domain.RaidExpansion) *domain.LockStatus {
	status := &domain.LockStatus{LockedTo: map[string]domain.DifficultyLock{}}

	if currentSeason == nil {
		return status
	}

	var raid *domain.RaidInstance
	for i := range currentSeason.Instances {
		if currentSeason.Instances[i].Instance.Name == t.currentRaid.Name {
			raid = &currentSeason.Instances[i]
			break
		}
	}
	if raid == nil {
		return status
	}

	resetMillis := t.lastReset().UnixMilli()

	for _, mode := range raid.Modes {
		var killed []string
		var lastKill int64
		for _, encounter := range mode.Progress.Encounters {
			if encounter.LastKillTimestamp >= resetMillis {
				killed = append(killed, encounter.Encounter.Name)
				if encounter.LastKillTimestamp > lastKill {
					lastKill = encounter.LastKillTimestamp
				}
			}
		}
		if len(killed) == 0 {
			continue
		}

		status.IsLocked = true
		status.LockedTo[mode.Difficulty.Name] = domain.DifficultyLock{
			Completed:  mode.Progress.CompletedCount,
			Total:      mode.Progress.TotalCount,
			LastKill:   lastKill,
			Encounters: killed,
		}
	}

	return status
}
