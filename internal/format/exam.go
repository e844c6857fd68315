package format

import (
	"errors"
	"fmt"
	"sort"

	"github.com/clhstestify/online-judge/internal/models"
)

// FormatExam identifies the multi-part exam format. Scores are scaled to a
// fixed maximum; the format is untimed and unordered, so cumulative time and
// tiebreaker are always zero.
const FormatExam = "exam"

func init() {
	Register(FormatExam, NewExam)
}

const defaultExamMaxScore = 10.0

// Exam configuration errors, reported at configuration-save time.
var (
	ErrExamConfigKey     = errors.New("unsupported configuration key for exam contest")
	ErrExamMaxScoreType  = errors.New("max_score must be a number")
	ErrExamMaxScoreRange = errors.New("max_score must be positive")
	ErrExamPenaltyType   = errors.New("use_time_penalty must be a boolean")
)

// MetaKey is the reserved aggregate entry in the exam breakdown map.
const MetaKey = "_meta"

// EmptyKey marks an aggregate zeroed because no paper was assigned.
const EmptyKey = "_empty"

type examFormat struct {
	maxScore float64
}

// NewExam constructs the exam format, accepting only the max_score and
// use_time_penalty configuration keys.
func NewExam(config map[string]interface{}) (ContestFormat, error) {
	f := examFormat{maxScore: defaultExamMaxScore}
	if config == nil {
		return f, nil
	}

	keys := make([]string, 0, len(config))
	for key := range config {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		switch key {
		case "max_score", "use_time_penalty":
		default:
			return nil, fmt.Errorf("%w: %s", ErrExamConfigKey, key)
		}
	}

	if raw, ok := config["max_score"]; ok {
		maxScore, ok := toNumber(raw)
		if !ok {
			return nil, ErrExamMaxScoreType
		}
		if maxScore <= 0 {
			return nil, ErrExamMaxScoreRange
		}
		f.maxScore = maxScore
	}

	// use_time_penalty is accepted for compatibility but has no effect:
	// the exam format is untimed, so cumulative time stays zero.
	if raw, ok := config["use_time_penalty"]; ok {
		if _, ok := raw.(bool); !ok {
			return nil, ErrExamPenaltyType
		}
	}

	return f, nil
}

func (examFormat) Name() string { return FormatExam }

func partKey(part string) string {
	switch part {
	case models.PartTrueFalse:
		return "part2"
	case models.PartShortAnswer:
		return "part3"
	default:
		return "part1"
	}
}

type partTotals struct {
	points    float64
	maxPoints float64
	correct   int
	total     int
	questions int
}

// Score rolls the graded responses up into per-part totals and a global
// score scaled to maxScore. A participation with no assigned paper gets a
// zeroed aggregate carrying an explicit empty marker.
func (f examFormat) Score(in Input) Result {
	if in.Paper == nil {
		return Result{Breakdown: map[string]interface{}{EmptyKey: true}}
	}

	responses := make(map[uint]ResponseSnapshot, len(in.Responses))
	for _, response := range in.Responses {
		responses[response.QuestionID] = response
	}

	parts := map[string]*partTotals{}
	for _, question := range in.Paper.Questions {
		key := partKey(question.Part)
		totals := parts[key]
		if totals == nil {
			totals = &partTotals{}
			parts[key] = totals
		}
		totals.questions++
		totals.maxPoints += question.MaxPoints
		if response, ok := responses[question.ID]; ok {
			totals.points += response.Points
			totals.correct += response.CorrectCount
			totals.total += response.TotalCount
		} else {
			totals.total += question.TotalItems
		}
	}

	var rawTotal, maxTotal float64
	breakdown := make(map[string]interface{}, len(parts)+1)
	for key, totals := range parts {
		rawTotal += totals.points
		maxTotal += totals.maxPoints
		breakdown[key] = map[string]interface{}{
			"points":     totals.points,
			"max_points": totals.maxPoints,
			"correct":    totals.correct,
			"total":      totals.total,
			"questions":  totals.questions,
		}
	}

	var score float64
	if maxTotal > 0 {
		score = rawTotal / maxTotal * f.maxScore
	}

	breakdown[MetaKey] = map[string]interface{}{
		"raw_total": rawTotal,
		"max_total": maxTotal,
		"score":     score,
	}

	return Result{
		Score:     roundTo(score, in.Precision),
		Breakdown: breakdown,
	}
}

// ProblemCell is not applicable to the exam format; results are read from
// the per-part breakdown instead.
func (examFormat) ProblemCell(map[string]interface{}, uint) (ProblemCell, bool) {
	return ProblemCell{}, false
}

func toNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	default:
		return 0, false
	}
}
