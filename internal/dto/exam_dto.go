package dto

import (
	"time"

	"github.com/clhstestify/online-judge/internal/models"
)

// ExamAnswer is one question's answer in a sheet save. Exactly one payload
// field is meaningful depending on the question's part type.
type ExamAnswer struct {
	QuestionID uint            `json:"question_id" validate:"required,gt=0"`
	ChoiceID   *uint           `json:"choice_id"`
	TrueFalse  map[string]bool `json:"true_false"`
	Text       *string         `json:"text"`
}

// ExamSheetRequest is a batched save of one contestant's answers.
type ExamSheetRequest struct {
	Answers []ExamAnswer `json:"answers" validate:"required,min=1,dive"`
}

// AnswerKeyImportRequest carries either manual per-part answer text or the
// text extracted from an uploaded document. Supplying both is a validation
// error.
type AnswerKeyImportRequest struct {
	ManualPart1 string `json:"manual_part1"`
	ManualPart2 string `json:"manual_part2"`
	ManualPart3 string `json:"manual_part3"`
	Document    string `json:"document"`
}

// HasManual reports whether any manual part was supplied.
func (r AnswerKeyImportRequest) HasManual() bool {
	return r.ManualPart1 != "" || r.ManualPart2 != "" || r.ManualPart3 != ""
}

// AnswerKeyExportResponse is the round-trip view of a paper's answer key.
type AnswerKeyExportResponse struct {
	Part1 []string `json:"part1"`
	Part2 [][]bool `json:"part2"`
	Part3 []string `json:"part3"`
}

// ExamChoiceView is a choice shown to a contestant (correctness withheld).
type ExamChoiceView struct {
	ID   uint   `json:"id"`
	Key  string `json:"key"`
	Text string `json:"text"`
}

// ExamQuestionView is a question shown on the exam sheet.
type ExamQuestionView struct {
	ID        uint             `json:"id"`
	Part      string           `json:"part"`
	Number    int              `json:"number"`
	Prompt    string           `json:"prompt"`
	MaxPoints float64          `json:"max_points"`
	Choices   []ExamChoiceView `json:"choices,omitempty"`
}

// ExamResponseView is a contestant's saved answer with grading outputs.
type ExamResponseView struct {
	QuestionID   uint            `json:"question_id"`
	ChoiceID     *uint           `json:"choice_id,omitempty"`
	TrueFalse    map[string]bool `json:"true_false,omitempty"`
	Text         string          `json:"text,omitempty"`
	Points       float64         `json:"points"`
	CorrectCount int             `json:"correct_count"`
	TotalCount   int             `json:"total_count"`
	SubmittedAt  time.Time       `json:"submitted_at"`
}

// ExamSheetResponse is the full sheet state for one participation.
type ExamSheetResponse struct {
	PaperID   uint               `json:"paper_id"`
	PaperCode string             `json:"paper_code"`
	Subject   string             `json:"subject"`
	Questions []ExamQuestionView `json:"questions"`
	Responses []ExamResponseView `json:"responses"`
}

// ParticipationResultResponse exposes the recomputed aggregate.
type ParticipationResultResponse struct {
	ParticipationID uint                   `json:"participation_id"`
	Score           float64                `json:"score"`
	CumTime         int64                  `json:"cumtime"`
	Tiebreaker      float64                `json:"tiebreaker"`
	Breakdown       map[string]interface{} `json:"breakdown"`
}

// NewParticipationResultResponse converts a participation's aggregate fields.
func NewParticipationResultResponse(p models.ContestParticipation) ParticipationResultResponse {
	return ParticipationResultResponse{
		ParticipationID: p.ID,
		Score:           p.Score,
		CumTime:         p.CumTime,
		Tiebreaker:      p.Tiebreaker,
		Breakdown:       p.FormatData,
	}
}

// ViolationStatusResponse reports the participation's violation state.
type ViolationStatusResponse struct {
	ViolationCount int  `json:"violation_count"`
	Locked         bool `json:"locked"`
	Threshold      int  `json:"threshold"`
}

// NewExamQuestionView converts a question, hiding choice correctness.
func NewExamQuestionView(question models.ExamQuestion) ExamQuestionView {
	view := ExamQuestionView{
		ID:        question.ID,
		Part:      question.Part,
		Number:    question.Number,
		Prompt:    question.Prompt,
		MaxPoints: question.DefaultMaxPointsOrStored(),
	}
	if question.Part != models.PartShortAnswer {
		view.Choices = make([]ExamChoiceView, 0, len(question.Choices))
		for _, choice := range question.Choices {
			view.Choices = append(view.Choices, ExamChoiceView{
				ID:   choice.ID,
				Key:  choice.Key,
				Text: choice.Text,
			})
		}
	}

	return view
}

// NewExamResponseView converts a stored response.
func NewExamResponseView(response models.ExamResponse) ExamResponseView {
	view := ExamResponseView{
		QuestionID:   response.QuestionID,
		ChoiceID:     response.SelectedChoiceID,
		Text:         response.ShortAnswerText,
		Points:       response.Points,
		CorrectCount: response.CorrectCount,
		TotalCount:   response.TotalCount,
		SubmittedAt:  response.SubmittedAt,
	}
	if len(response.TrueFalseAnswers) > 0 {
		view.TrueFalse = make(map[string]bool, len(response.TrueFalseAnswers))
		for key, raw := range response.TrueFalseAnswers {
			if value, ok := raw.(bool); ok {
				view.TrueFalse[key] = value
			}
		}
	}

	return view
}
