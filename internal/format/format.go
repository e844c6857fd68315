// Package format implements the per-contest-format scoring strategies. Each
// format converts a snapshot of a participation's submissions or exam
// responses into aggregate ranking inputs. Scoring is a pure function of the
// snapshot: recomputing from identical inputs yields identical output.
package format

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrUnknownFormat is returned when no format is registered under a name.
var ErrUnknownFormat = errors.New("unknown contest format")

// ProblemSnapshot is the scoring view of a contest problem.
type ProblemSnapshot struct {
	ID     uint
	Points float64
}

// SubmissionSnapshot is the scoring view of one judged contest submission.
type SubmissionSnapshot struct {
	ID        uint
	ProblemID uint
	Result    string
	Points    *float64
	Date      time.Time
}

// QuestionSnapshot is the scoring view of one exam question.
type QuestionSnapshot struct {
	ID         uint
	Part       string
	MaxPoints  float64
	TotalItems int
}

// ResponseSnapshot carries the grading outputs of one exam response.
type ResponseSnapshot struct {
	QuestionID   uint
	Points       float64
	CorrectCount int
	TotalCount   int
}

// PaperSnapshot is the assigned exam paper with its questions. A nil paper on
// the input means the participation has no assigned paper.
type PaperSnapshot struct {
	Questions []QuestionSnapshot
}

// Input is the full snapshot a format scores against.
type Input struct {
	Start       time.Time
	FreezeAfter *time.Duration
	Precision   int
	Problems    []ProblemSnapshot
	Submissions []SubmissionSnapshot
	Paper       *PaperSnapshot
	Responses   []ResponseSnapshot
}

// Result is the aggregate produced by scoring one participation. Breakdown is
// the opaque per-problem (or per-part) map persisted as the participation's
// format data.
type Result struct {
	Score      float64
	CumTime    int64
	Tiebreaker float64
	Breakdown  map[string]interface{}
}

// ProblemCell is the display view of one problem on the scoreboard.
type ProblemCell struct {
	Solved  bool
	Score   float64
	Points  float64
	Wrong   int
	Pending int
	Frozen  bool
	Time    *float64
}

// ContestFormat scores participations for one contest format.
type ContestFormat interface {
	Name() string
	Score(in Input) Result
	// ProblemCell extracts a problem's display cell from a persisted
	// breakdown. The second return is false when the format has no
	// per-problem cells or the problem was never attempted.
	ProblemCell(breakdown map[string]interface{}, problemID uint) (ProblemCell, bool)
}

// Constructor builds a format from a contest's stored configuration,
// rejecting invalid configurations.
type Constructor func(config map[string]interface{}) (ContestFormat, error)

var registry = map[string]Constructor{}

// Register adds a format constructor under its identifier.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// New constructs the named format with the given configuration.
func New(name string, config map[string]interface{}) (ContestFormat, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}

	return ctor(config)
}

// Validate checks a configuration against the named format without keeping
// the constructed instance. Called at configuration-save time so invalid
// configs never reach scoring.
func Validate(name string, config map[string]interface{}) error {
	_, err := New(name, config)
	return err
}

// Names lists the registered format identifiers.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	return names
}

func roundTo(value float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	factor := math.Pow(10, float64(precision))

	return math.Round(value*factor) / factor
}
