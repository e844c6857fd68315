package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Exam paper subjects. Part III point values depend on the subject.
const (
	SubjectMath            = "math"
	SubjectPhysics         = "physics"
	SubjectChemistry       = "chemistry"
	SubjectBiology         = "biology"
	SubjectHistory         = "history"
	SubjectGeography       = "geography"
	SubjectCivicEducation  = "civic_education"
	SubjectEnglish         = "english"
	SubjectForeignLanguage = "foreign_language"
)

// Question part types.
const (
	PartMultipleChoice = "multiple_choice"
	PartTrueFalse      = "true_false"
	PartShortAnswer    = "short_answer"
)

// ExamPaper is a multi-part exam instance attached to a contest. A contest
// may carry several candidate papers; one is assigned to each participation.
type ExamPaper struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ContestID      uint           `gorm:"not null;index" json:"contest_id"`
	Code           string         `gorm:"size:32;not null" json:"code"`
	Subject        string         `gorm:"size:32;not null" json:"subject"`
	Part1Questions int            `gorm:"not null;default:40" json:"part1_questions"`
	Part2Questions int            `gorm:"not null;default:8" json:"part2_questions"`
	Part3Questions int            `gorm:"not null;default:6" json:"part3_questions"`
	Questions      []ExamQuestion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Part1PointValue is the fixed per-question value for multiple choice.
func (p ExamPaper) Part1PointValue() float64 { return 0.25 }

// Part2PointValue is the fixed per-question value for true/false.
func (p ExamPaper) Part2PointValue() float64 { return 1.0 }

// Part3PointValue depends on the subject: mathematics papers weight short
// answers at 0.5, everything else at 0.25.
func (p ExamPaper) Part3PointValue() float64 {
	if p.Subject == SubjectMath {
		return 0.5
	}

	return 0.25
}

// TrueFalseItems is the fixed number of statements per true/false question.
func (p ExamPaper) TrueFalseItems() int { return 4 }

// PointValueFor maps a part type to its per-question point value.
func (p ExamPaper) PointValueFor(part string) float64 {
	switch part {
	case PartTrueFalse:
		return p.Part2PointValue()
	case PartShortAnswer:
		return p.Part3PointValue()
	default:
		return p.Part1PointValue()
	}
}

// MaxPointsByPart returns the maximum obtainable points for each part.
func (p ExamPaper) MaxPointsByPart() map[string]float64 {
	return map[string]float64{
		"part1": float64(p.Part1Questions) * p.Part1PointValue(),
		"part2": float64(p.Part2Questions) * p.Part2PointValue(),
		"part3": float64(p.Part3Questions) * p.Part3PointValue(),
	}
}

// TotalMaxPoints sums the per-part maxima.
func (p ExamPaper) TotalMaxPoints() float64 {
	var total float64
	for _, value := range p.MaxPointsByPart() {
		total += value
	}

	return total
}

// ExamQuestion belongs to a paper (or directly to a contest-problem slot in
// legacy data) and carries the answer key for its part type.
type ExamQuestion struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	PaperID          *uint        `gorm:"index:idx_question_paper_part_number,unique" json:"paper_id"`
	ContestProblemID *uint        `json:"contest_problem_id"`
	Part             string       `gorm:"size:32;not null;index:idx_question_paper_part_number,unique" json:"part"`
	Number           int          `gorm:"not null;default:1;index:idx_question_paper_part_number,unique" json:"number"`
	Prompt           string       `gorm:"type:text" json:"prompt"`
	MaxPoints        float64      `gorm:"not null;default:0.25" json:"max_points"`
	ShortAnswer      string       `gorm:"size:64" json:"short_answer"`
	Choices          []ExamChoice `gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"choices"`
}

// TotalItems is the number of independently graded items on the question.
func (q ExamQuestion) TotalItems() int {
	if q.Part == PartTrueFalse {
		return len(q.Choices)
	}

	return 1
}

// DefaultMaxPoints is the fallback point value when none is stored.
func (q ExamQuestion) DefaultMaxPoints() float64 {
	switch q.Part {
	case PartTrueFalse:
		return 1.0
	case PartShortAnswer:
		if q.MaxPoints > 0 {
			return q.MaxPoints
		}
		return 0.25
	default:
		return 0.25
	}
}

// trueFalseScoreMap is the non-linear reward curve for true/false questions.
// This is exam policy, not a proportional scale.
var trueFalseScoreMap = map[int]float64{1: 0.1, 2: 0.25, 3: 0.5, 4: 1.0}

// TrueFalsePoints converts a correct-statement count into awarded points,
// scaled by the question's max points and rounded to 3 decimals.
func (q ExamQuestion) TrueFalsePoints(correct int) float64 {
	base := trueFalseScoreMap[correct]
	max := q.MaxPoints
	if max == 0 {
		max = 1.0
	}

	return round3(base * max)
}

// NormalizeShortAnswer lowers and trims an answer for comparison.
func NormalizeShortAnswer(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// ExamChoice is one option of a question. Multiple-choice questions flag
// exactly one choice correct; true/false statements are flagged independently.
type ExamChoice struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Key        string `gorm:"size:16;not null" json:"key"`
	Text       string `gorm:"type:text" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
}

// ExamResponse is the unique (question, participation) record of one
// contestant's answer, with grading outputs recomputed in full on every save.
type ExamResponse struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	QuestionID       uint              `gorm:"not null;index:idx_response_question_participation,unique" json:"question_id"`
	ParticipationID  uint              `gorm:"not null;index:idx_response_question_participation,unique" json:"participation_id"`
	SelectedChoiceID *uint             `json:"selected_choice_id"`
	SelectedChoice   *ExamChoice       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"selected_choice"`
	TrueFalseAnswers datatypes.JSONMap `gorm:"type:json" json:"true_false_answers"`
	ShortAnswerText  string            `gorm:"size:64" json:"short_answer_text"`
	SubmittedAt      time.Time         `json:"submitted_at"`
	Points           float64           `gorm:"not null;default:0" json:"points"`
	CorrectCount     int               `gorm:"not null;default:0" json:"correct_count"`
	TotalCount       int               `gorm:"not null;default:0" json:"total_count"`
	Question         ExamQuestion      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question"`
}

// Grade evaluates the response against the question's key. It is pure: the
// same response and question always produce the same outputs. The question
// must have its choices loaded.
func (r ExamResponse) Grade(question ExamQuestion) (correct, total int, points float64) {
	switch question.Part {
	case PartMultipleChoice:
		return r.gradeMultipleChoice(question)
	case PartTrueFalse:
		return r.gradeTrueFalse(question)
	case PartShortAnswer:
		return r.gradeShortAnswer(question)
	}

	return 0, 0, 0
}

func (r ExamResponse) gradeMultipleChoice(question ExamQuestion) (int, int, float64) {
	if r.SelectedChoice != nil && r.SelectedChoice.IsCorrect {
		return 1, 1, question.DefaultMaxPointsOrStored()
	}

	return 0, 1, 0
}

func (r ExamResponse) gradeTrueFalse(question ExamQuestion) (int, int, float64) {
	total := question.TotalItems()
	if total == 0 {
		total = 4
	}

	correct := 0
	for _, choice := range question.Choices {
		answer, answered := r.trueFalseAnswer(choice.ID)
		if !answered {
			// Unanswered statements are neither counted nor penalized.
			continue
		}
		if answer == choice.IsCorrect {
			correct++
		}
	}

	return correct, total, question.TrueFalsePoints(correct)
}

func (r ExamResponse) gradeShortAnswer(question ExamQuestion) (int, int, float64) {
	expected := NormalizeShortAnswer(question.ShortAnswer)
	given := NormalizeShortAnswer(r.ShortAnswerText)
	if expected != "" && given != "" && expected == given {
		return 1, 1, question.DefaultMaxPointsOrStored()
	}

	return 0, 1, 0
}

func (r ExamResponse) trueFalseAnswer(choiceID uint) (bool, bool) {
	if r.TrueFalseAnswers == nil {
		return false, false
	}

	raw, ok := r.TrueFalseAnswers[strconv.FormatUint(uint64(choiceID), 10)]
	if !ok || raw == nil {
		return false, false
	}

	value, ok := raw.(bool)
	if !ok {
		return false, false
	}

	return value, true
}

// ApplyGrade grades the response and stores the derived outputs.
func (r *ExamResponse) ApplyGrade(question ExamQuestion) {
	correct, total, points := r.Grade(question)
	r.CorrectCount = correct
	r.TotalCount = total
	r.Points = round3(points)
}

// DefaultMaxPointsOrStored returns the stored max points, falling back to the
// part default when unset.
func (q ExamQuestion) DefaultMaxPointsOrStored() float64 {
	if q.MaxPoints > 0 {
		return q.MaxPoints
	}

	return q.DefaultMaxPoints()
}

func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}
