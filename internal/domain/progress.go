package domain

import "time"

// RaidProgress is the guild-wide aggregation result for one raid.
type RaidProgress struct {
	RaidName            string                        `bson:"raidName" json:"raidName"`
	TotalMembers        int                           `bson:"totalMembers" json:"totalMembers"`
	MembersWithProgress int                           `bson:"membersWithProgress" json:"membersWithProgress"`
	Difficulties        map[string]DifficultyProgress `bson:"difficulties" json:"difficulties"`
	MemberBreakdown     MemberBreakdown               `bson:"memberBreakdown" json:"memberBreakdown"`
}

type DifficultyProgress struct {
	MembersCompleted    int            `bson:"membersCompleted" json:"membersCompleted"`
	MembersWithProgress int            `bson:"membersWithProgress" json:"membersWithProgress"`
	AverageProgress     int            `bson:"averageProgress" json:"averageProgress"`
	BossKills           map[string]int `bson:"bossKills" json:"bossKills"`
	TopProgressors      []Progressor   `bson:"topProgressors" json:"topProgressors"`
}

// Progressor is one member's standing in a difficulty's top-progressors list.
type Progressor struct {
	Name       string `bson:"name" json:"name"`
	Server     string `bson:"server" json:"server"`
	Completed  int    `bson:"completed" json:"completed"`
	Total      int    `bson:"total" json:"total"`
	Percentage int    `bson:"percentage" json:"percentage"`
	GuildRank  string `bson:"guildRank" json:"guildRank"`
	Class      string `bson:"class" json:"class"`
	Spec       string `bson:"spec" json:"spec"`
}

// MemberBreakdown partitions participation by the main/alt rank split.
type MemberBreakdown struct {
	Mains BreakdownCounts `bson:"mains" json:"mains"`
	Alts  BreakdownCounts `bson:"alts" json:"alts"`
}

type BreakdownCounts struct {
	Total        int `bson:"total" json:"total"`
	WithProgress int `bson:"withProgress" json:"withProgress"`
}

// SeasonSnapshot is the persisted result of one aggregation pass for a
// season. It is always replaced whole, never patched.
type SeasonSnapshot struct {
	SeasonID     string         `bson:"seasonId" json:"seasonId"`
	SeasonName   string         `bson:"seasonName" json:"seasonName"`
	TotalMembers int            `bson:"totalMembers" json:"totalMembers"`
	LastUpdated  time.Time      `bson:"lastUpdated" json:"lastUpdated"`
	Raids        []RaidProgress `bson:"raids" json:"raids"`
}

// SeasonReport is a snapshot plus its provenance: whether it was served
// from the cache or computed live for this request.
type SeasonReport struct {
	SeasonSnapshot `bson:",inline"`
	Cached         bool `json:"cached"`
}

// RunResult summarizes one completed ingestion run.
type RunResult struct {
	RunID       string        `json:"runId"`
	Processed   int           `json:"processed"`
	Created     int           `json:"created"`
	Updated     int           `json:"updated"`
	Deactivated int           `json:"deactivated"`
	Errors      []MemberError `json:"errors"`
}

// MemberError records a single member's processing failure; it never aborts
// the run.
type MemberError struct {
	Member string `json:"member"`
	Error  string `json:"error"`
}

// RunEventType enumerates the discrete progress events emitted during an
// ingestion run.
type RunEventType string

const (
	EventStart       RunEventType = "start"
	EventAuth        RunEventType = "auth"
	EventRoster      RunEventType = "roster"
	EventMember      RunEventType = "member"
	EventMemberError RunEventType = "member-error"
	EventCleanup     RunEventType = "cleanup"
	EventAggregation RunEventType = "aggregation"
	EventComplete    RunEventType = "complete"
	EventError       RunEventType = "error"
)

type RunEvent struct {
	RunID     string       `json:"runId"`
	Type      RunEventType `json:"type"`
	Message   string       `json:"message"`
	Member    string       `json:"member,omitempty"`
	Current   int          `json:"current,omitempty"`
	Total     int          `json:"total,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// DataType selects which optional per-member payloads an ingestion run
// fetches in addition to profile and equipment.
type DataType string

const (
	DataRaid       DataType = "raid"
	DataMythicPlus DataType = "mplus"
	DataPvP        DataType = "pvp"
)

// DefaultDataTypes is the full fetch set.
func DefaultDataTypes() []DataType {
	return []DataType{DataRaid, DataMythicPlus, DataPvP}
}

// ValidDataType reports whether t names a known payload kind.
func ValidDataType(t DataType) bool {
	switch t {
	case DataRaid, DataMythicPlus, DataPvP:
		return true
	}
	return false
}

// HasDataType reports whether the requested set contains t.
func HasDataType(set []DataType, t DataType) bool {
	for _, d := range set {
		if d == t {
			return true
		}
	}
	return false
}
