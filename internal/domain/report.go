package domain

import "time"

// MatchType classifies the competition phase a report was scouted in.
type MatchType string

const (
	MatchTypePractice      MatchType = "PRACTICE"
	MatchTypeQualification MatchType = "QUALIFICATION"
	MatchTypePlayoff       MatchType = "PLAYOFF"
)

// TrenchOrBump records which field obstacle the robot traverses.
type TrenchOrBump string

const (
	Trench TrenchOrBump = "TRENCH"
	Bump   TrenchOrBump = "BUMP"
)

// Level is a tower climb level. Teleop and endgame climbs are optional, so
// the level is a pointer in the structures below; nil means no climb.
type Level string

const (
	Level1 Level = "LEVEL1"
	Level2 Level = "LEVEL2"
	Level3 Level = "LEVEL3"
)

// Auto holds the autonomous period observations of a match.
type Auto struct {
	Notes     string `json:"notes" validate:"max=400"`
	Movement  bool   `json:"movement"`
	HubScore  int    `json:"hubScore" validate:"gte=0"`
	HubMisses int    `json:"hubMisses" validate:"gte=0"`
	Level1    bool   `json:"level1"`
}

// Teleop holds the observations of a driver-controlled period. The same
// shape is used for both teleop and endgame.
type Teleop struct {
	Notes     string `json:"notes" validate:"max=400"`
	HubScore  int    `json:"hubScore" validate:"gte=0"`
	HubMisses int    `json:"hubMisses" validate:"gte=0"`
	Level     *Level `json:"level" validate:"omitempty,oneof=LEVEL1 LEVEL2 LEVEL3"`
}

// Report is a single match scouting observation of one team.
type Report struct {
	ID           int64        `json:"id"`
	User         *UserDisplay `json:"user"`
	CreatedAt    time.Time    `json:"createdAt"`
	EventCode    string       `json:"eventCode" validate:"len=5"`
	MatchType    MatchType    `json:"matchType" validate:"oneof=PRACTICE QUALIFICATION PLAYOFF"`
	MatchNumber  int          `json:"matchNumber" validate:"gte=1,lte=200"`
	TeamNumber   int          `json:"teamNumber" validate:"gte=1,lte=20000"`
	TrenchOrBump TrenchOrBump `json:"trenchOrBump" validate:"oneof=TRENCH BUMP"`
	Notes        string       `json:"notes" validate:"max=400"`
	MinorFouls   int          `json:"minorFouls" validate:"gte=0"`
	MajorFouls   int          `json:"majorFouls" validate:"gte=0"`
	Auto         Auto         `json:"auto"`
	Teleop       Teleop       `json:"teleop"`
	Endgame      Teleop       `json:"endgame"`
}

// ReportSummary is the compact list projection of a report.
type ReportSummary struct {
	ID         int64        `json:"id"`
	TeamNumber int          `json:"teamNumber"`
	User       *UserDisplay `json:"user"`
}

// ReportFilter narrows a report listing. Nil fields are not applied.
type ReportFilter struct {
	UserID              *string
	EventCode           *string
	MatchType           *MatchType
	MinMatchNumber      *int
	MaxMatchNumber      *int
	TeamNumber          *int
	TrenchOrBump        *TrenchOrBump
	MaxMinorFouls       *int
	MaxMajorFouls       *int
	AutoMovement        *bool
	AutoMinHubScore     *int
	AutoMaxHubMisses    *int
	AutoLevel1          *bool
	TeleopMinHubScore   *int
	TeleopMaxHubMisses  *int
	EndgameMinHubScore  *int
	EndgameMaxHubMisses *int
	Take                int
	Skip                int
}

// Ranking is an AI-generated evaluation of one team across all reports.
type Ranking struct {
	TeamNumber int     `json:"teamNumber"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Overview   string  `json:"overview"`
}
