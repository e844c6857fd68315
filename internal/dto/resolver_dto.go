package dto

// Payload shapes served to the external resolver tool. Field names and
// formats follow the contest API conventions the resolver replays:
// ISO-8601 timestamps, H:MM:SS.mmm relative times, ISO-8601 durations.

// ContestData is the resolver view of a contest.
type ContestData struct {
	ID                       string  `json:"id"`
	Name                     string  `json:"name"`
	FormalName               string  `json:"formal_name"`
	StartTime                string  `json:"start_time"`
	Duration                 string  `json:"duration"`
	ScoreboardFreezeDuration string  `json:"scoreboard_freeze_duration"`
	PenaltyTime              *int    `json:"penalty_time"`
	PenaltyType              *string `json:"penalty_type"`
	ScoreboardType           string  `json:"scoreboard_type"`
}

// ProblemData is the resolver view of a contest problem.
type ProblemData struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Name      string  `json:"name"`
	Ordinal   int     `json:"ordinal"`
	TimeLimit float64 `json:"time_limit"`
	Points    float64 `json:"points"`
}

// OrganizationData is the resolver view of an organization.
type OrganizationData struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FormalName string `json:"formal_name"`
}

// TeamMemberData identifies one member of a team.
type TeamMemberData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TeamData is the resolver view of a participation.
type TeamData struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	DisplayName    string           `json:"display_name"`
	OrganizationID *string          `json:"organization_id"`
	Members        []TeamMemberData `json:"members,omitempty"`
}

// LanguageData is the resolver view of a submission language.
type LanguageData struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Extensions []string `json:"extensions,omitempty"`
}

// JudgementTypeData catalogs one judgement result code.
type JudgementTypeData struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Penalty bool   `json:"penalty"`
	Solved  bool   `json:"solved"`
}

// ScoreboardProblemResult is one problem cell on a scoreboard row.
type ScoreboardProblemResult struct {
	ProblemID      string `json:"problem_id"`
	NumJudged      int    `json:"num_judged"`
	NumPending     int    `json:"num_pending"`
	Incorrect      int    `json:"incorrect"`
	Solved         bool   `json:"solved"`
	IsFirstToSolve bool   `json:"is_first_to_solve"`
	Time           string `json:"time,omitempty"`
}

// ScoreboardScore summarizes a row's solved count and total time.
type ScoreboardScore struct {
	NumSolved int   `json:"num_solved"`
	TotalTime int64 `json:"total_time"`
}

// ScoreboardRow is one ranked contestant.
type ScoreboardRow struct {
	Rank     int                       `json:"rank"`
	TeamID   string                    `json:"team_id"`
	Score    ScoreboardScore           `json:"score"`
	Problems []ScoreboardProblemResult `json:"problems"`
}

// ScoreboardState carries the freeze flags, derived purely from wall-clock
// time against the contest schedule.
type ScoreboardState struct {
	Started   bool `json:"started"`
	Ended     bool `json:"ended"`
	Frozen    bool `json:"frozen"`
	Finalized bool `json:"finalized"`
	Thawed    bool `json:"thawed"`
}

// ScoreboardData is the full scoreboard snapshot.
type ScoreboardData struct {
	Time        string          `json:"time"`
	ContestTime string          `json:"contest_time"`
	State       ScoreboardState `json:"state"`
	Rows        []ScoreboardRow `json:"rows"`
}

// SubmissionEventData is the payload of a submissions feed event.
type SubmissionEventData struct {
	ID          string   `json:"id"`
	ProblemID   string   `json:"problem_id"`
	TeamID      string   `json:"team_id"`
	LanguageID  *string  `json:"language_id"`
	Files       []string `json:"files"`
	ContestTime string   `json:"contest_time"`
	Time        string   `json:"time"`
}

// JudgementEventData is the payload of a judgements feed event.
type JudgementEventData struct {
	ID               string  `json:"id"`
	SubmissionID     string  `json:"submission_id"`
	JudgementTypeID  string  `json:"judgement_type_id"`
	MaxRunTime       float64 `json:"max_run_time"`
	StartTime        string  `json:"start_time"`
	StartContestTime string  `json:"start_contest_time"`
	EndTime          string  `json:"end_time"`
	EndContestTime   string  `json:"end_contest_time"`
}

// FeedEvent is one line of the NDJSON event feed. Every event is an
// immutable create; the feed is replayed one-shot by the resolver.
type FeedEvent struct {
	Type string      `json:"type"`
	ID   string      `json:"id"`
	Op   string      `json:"op"`
	Data interface{} `json:"data"`
}
