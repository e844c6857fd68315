package format

import (
	"errors"
	"sort"
	"strconv"

	"github.com/clhstestify/online-judge/internal/models"
)

// FormatCodeforces identifies the competitive format with dynamic score
// decay and wrong-attempt penalties.
const FormatCodeforces = "codeforces"

func init() {
	Register(FormatCodeforces, NewCodeforces)
}

// ErrCodeforcesConfig rejects any non-empty configuration.
var ErrCodeforcesConfig = errors.New("codeforces contest expects no config or empty dict as config")

type codeforcesFormat struct{}

// NewCodeforces constructs the competitive format. It takes no configuration.
func NewCodeforces(config map[string]interface{}) (ContestFormat, error) {
	if len(config) != 0 {
		return nil, ErrCodeforcesConfig
	}

	return codeforcesFormat{}, nil
}

func (codeforcesFormat) Name() string { return FormatCodeforces }

type problemState struct {
	wrong       int
	solved      bool
	score       float64
	timeSeconds float64
	pending     int
}

// Score replays the participation's submission history in timestamp order.
// Submissions at or past the freeze cutoff are excluded from the live score
// but counted as pending so their existence survives into the breakdown.
func (codeforcesFormat) Score(in Input) Result {
	var cutoffSet bool
	var cutoff int64
	if in.FreezeAfter != nil {
		cutoffSet = true
		cutoff = in.Start.Add(*in.FreezeAfter).UnixNano()
	}

	problems := make(map[uint]ProblemSnapshot, len(in.Problems))
	stats := make(map[uint]*problemState, len(in.Problems))
	for _, problem := range in.Problems {
		problems[problem.ID] = problem
		stats[problem.ID] = &problemState{}
	}

	submissions := make([]SubmissionSnapshot, len(in.Submissions))
	copy(submissions, in.Submissions)
	sort.Slice(submissions, func(i, j int) bool {
		if !submissions[i].Date.Equal(submissions[j].Date) {
			return submissions[i].Date.Before(submissions[j].Date)
		}
		return submissions[i].ID < submissions[j].ID
	})

	for _, submission := range submissions {
		state, ok := stats[submission.ProblemID]
		if !ok {
			continue
		}

		if cutoffSet && submission.Date.UnixNano() >= cutoff {
			if !state.solved {
				state.pending++
			}
			continue
		}

		if state.solved {
			continue
		}

		problem := problems[submission.ProblemID]
		fullScore := submission.Result == models.ResultAccepted &&
			(submission.Points == nil || *submission.Points >= problem.Points)

		if fullScore {
			solveTime := submission.Date.Sub(in.Start).Seconds()
			minutes := int(solveTime / 60)
			base := problem.Points
			dynamic := base - base*float64(minutes)/250.0 - 50*float64(state.wrong)
			score := dynamic
			if floor := 0.3 * base; score < floor {
				score = floor
			}
			if score < 0 {
				score = 0
			}

			state.solved = true
			state.score = score
			state.timeSeconds = solveTime
		} else if models.CountsAsWrong(submission.Result) {
			state.wrong++
		}
	}

	var totalScore float64
	var penaltyMinutes int64
	var lastSolve float64
	breakdown := make(map[string]interface{}, len(stats))

	for problemID, state := range stats {
		problem := problems[problemID]
		cell := map[string]interface{}{
			"points": 0.0,
			"score":  0.0,
			"time":   nil,
			"wrong":  state.wrong,
			"solved": state.solved,
		}

		if state.solved {
			totalScore += state.score
			minutes := int64(state.timeSeconds / 60)
			penaltyMinutes += minutes + 20*int64(state.wrong)
			if state.timeSeconds > lastSolve {
				lastSolve = state.timeSeconds
			}
			cell["points"] = problem.Points
			cell["score"] = state.score
			cell["time"] = state.timeSeconds
		}

		if state.pending > 0 {
			cell["pending"] = state.pending
			cell["frozen"] = true
		}

		breakdown[strconv.FormatUint(uint64(problemID), 10)] = cell
	}

	cumtime := penaltyMinutes * 60
	if cumtime < 0 {
		cumtime = 0
	}

	return Result{
		Score:      roundTo(totalScore, in.Precision),
		CumTime:    cumtime,
		Tiebreaker: lastSolve,
		Breakdown:  breakdown,
	}
}

func (codeforcesFormat) ProblemCell(breakdown map[string]interface{}, problemID uint) (ProblemCell, bool) {
	raw, ok := breakdown[strconv.FormatUint(uint64(problemID), 10)]
	if !ok {
		return ProblemCell{}, false
	}

	data, ok := raw.(map[string]interface{})
	if !ok {
		return ProblemCell{}, false
	}

	cell := ProblemCell{
		Solved:  asBool(data["solved"]),
		Score:   asFloat(data["score"]),
		Points:  asFloat(data["points"]),
		Wrong:   int(asFloat(data["wrong"])),
		Pending: int(asFloat(data["pending"])),
		Frozen:  asBool(data["frozen"]),
	}
	if seconds, ok := data["time"].(float64); ok {
		cell.Time = &seconds
	}

	return cell, true
}

func asFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func asBool(value interface{}) bool {
	v, _ := value.(bool)
	return v
}
