package models

import (
	"time"

	"gorm.io/datatypes"
)

// ViolationLockThreshold is the number of recorded integrity violations after
// which a participation is locked.
const ViolationLockThreshold = 5

// ContestParticipation is one contestant's attempt at a contest. The
// aggregate fields (Score, CumTime, Tiebreaker, FormatData) are always a
// deterministic function of the participation's submissions or exam
// responses and are fully overwritten on every recompute.
type ContestParticipation struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	ContestID      uint              `gorm:"not null;index:idx_participation_contest_user,unique" json:"contest_id"`
	UserID         uint              `gorm:"not null;index:idx_participation_contest_user,unique" json:"user_id"`
	StartTime      time.Time         `json:"start_time"`
	Score          float64           `gorm:"not null;default:0" json:"score"`
	CumTime        int64             `gorm:"not null;default:0" json:"cumtime"`
	Tiebreaker     float64           `gorm:"not null;default:0" json:"tiebreaker"`
	FormatData     datatypes.JSONMap `gorm:"type:json" json:"format_data"`
	ViolationCount int               `gorm:"not null;default:0" json:"violation_count"`
	Locked         bool              `gorm:"not null;default:false" json:"locked"`
	Finalized      bool              `gorm:"not null;default:false" json:"finalized"`
	PaperID        *uint             `json:"paper_id"`
	Contest        Contest           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"contest"`
	User           User              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Submission is a judged code submission.
type Submission struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	LanguageID *uint      `json:"language_id"`
	Language   *Language  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"language"`
	Result     string     `gorm:"size:8" json:"result"`
	Date       time.Time  `gorm:"not null;index" json:"date"`
	JudgedDate *time.Time `json:"judged_date"`
	RunTime    float64    `json:"run_time"`
}

// Judgement result codes mirrored on the resolver feed.
const (
	ResultAccepted            = "AC"
	ResultWrongAnswer         = "WA"
	ResultTimeLimitExceeded   = "TLE"
	ResultMemoryLimitExceeded = "MLE"
	ResultOutputLimitExceeded = "OLE"
	ResultInvalidReturn       = "IR"
	ResultRuntimeError        = "RTE"
	ResultCompileError        = "CE"
	ResultInternalError       = "IE"
)

// ResultNames lists every judgement code with its display name, in catalog
// order.
var ResultNames = []struct {
	Code string
	Name string
}{
	{ResultAccepted, "Accepted"},
	{ResultWrongAnswer, "Wrong Answer"},
	{ResultTimeLimitExceeded, "Time Limit Exceeded"},
	{ResultMemoryLimitExceeded, "Memory Limit Exceeded"},
	{ResultOutputLimitExceeded, "Output Limit Exceeded"},
	{ResultInvalidReturn, "Invalid Return"},
	{ResultRuntimeError, "Runtime Error"},
	{ResultCompileError, "Compilation Error"},
	{ResultInternalError, "Internal Error"},
}

// CountsAsWrong reports whether a judgement result adds a wrong attempt.
// Compile and internal errors never penalize.
func CountsAsWrong(result string) bool {
	if result == "" {
		return false
	}

	return result != ResultCompileError && result != ResultInternalError
}

// CarriesPenalty reports whether the result code is flagged as penalizing on
// the judgement-type catalog.
func CarriesPenalty(result string) bool {
	switch result {
	case ResultWrongAnswer, ResultTimeLimitExceeded, ResultMemoryLimitExceeded,
		ResultOutputLimitExceeded, ResultInvalidReturn, ResultRuntimeError:
		return true
	default:
		return false
	}
}

// ContestSubmission links a judged submission to a contest problem with the
// points cached at contest-scope scoring time.
type ContestSubmission struct {
	ID              uint                 `gorm:"primaryKey" json:"id"`
	ParticipationID uint                 `gorm:"not null;index" json:"participation_id"`
	ProblemID       uint                 `gorm:"not null;index" json:"problem_id"`
	SubmissionID    uint                 `gorm:"not null" json:"submission_id"`
	Points          *float64             `json:"points"`
	Participation   ContestParticipation `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"participation"`
	Problem         ContestProblem       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"problem"`
	Submission      Submission           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission"`
}
