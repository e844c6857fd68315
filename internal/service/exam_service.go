package service

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/dto"
	"github.com/clhstestify/online-judge/internal/models"
	"github.com/clhstestify/online-judge/internal/repository"
)

// Exam sheet failures surfaced to the handler layer.
var (
	ErrParticipationLocked = errors.New("participation is locked")
	ErrContestFinished     = errors.New("contest has ended")
	ErrNoPapersAvailable   = errors.New("contest has no exam papers")
	ErrQuestionNotFound    = errors.New("question does not belong to the assigned paper")
	ErrAnswerShape         = errors.New("answer payload does not match the question part")
)

// ExamService serves exam sheets and saves contestant answers.
type ExamService interface {
	// Sheet returns the contestant's paper and saved answers, assigning a
	// paper on first access.
	Sheet(ctx context.Context, participationID uint) (dto.ExamSheetResponse, error)
	// SaveSheet saves a batch of answers, regrades each touched response and
	// recomputes the aggregate exactly once at the end.
	SaveSheet(ctx context.Context, participationID uint, req dto.ExamSheetRequest) (dto.ParticipationResultResponse, error)
}

type examService struct {
	participations repository.ParticipationRepository
	papers         repository.PaperRepository
	responses      repository.ResponseRepository
	scoring        ScoringService
	logger         zerolog.Logger
	now            func() time.Time
	rng            *rand.Rand
}

// NewExamService constructs the exam service. The rng picks a paper for
// contestants without one; pass a seeded source in tests for determinism.
func NewExamService(
	participations repository.ParticipationRepository,
	papers repository.PaperRepository,
	responses repository.ResponseRepository,
	scoring ScoringService,
	logger zerolog.Logger,
	rng *rand.Rand,
) ExamService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &examService{
		participations: participations,
		papers:         papers,
		responses:      responses,
		scoring:        scoring,
		logger:         logger.With().Str("component", "exam_service").Logger(),
		now:            time.Now,
		rng:            rng,
	}
}

// ensurePaper returns the participation's paper, drawing a random candidate
// from the contest pool when none is assigned yet. The conditional update in
// the repository keeps the first assignment under concurrent first access.
func (s *examService) ensurePaper(ctx context.Context, participation *models.ContestParticipation) (models.ExamPaper, error) {
	if participation.PaperID == nil {
		candidates, err := s.papers.ListByContest(ctx, participation.ContestID)
		if err != nil {
			return models.ExamPaper{}, err
		}
		if len(candidates) == 0 {
			return models.ExamPaper{}, ErrNoPapersAvailable
		}

		pick := candidates[s.rng.Intn(len(candidates))]
		if err := s.participations.AssignPaper(ctx, participation.ID, pick.ID); err != nil {
			return models.ExamPaper{}, err
		}

		// Re-read: a concurrent request may have won the assignment.
		refreshed, err := s.participations.GetByID(ctx, participation.ID)
		if err != nil {
			return models.ExamPaper{}, err
		}
		*participation = refreshed

		s.logger.Info().
			Uint("participation_id", participation.ID).
			Uint("paper_id", *participation.PaperID).
			Msg("exam paper assigned")
	}

	return s.papers.GetByID(ctx, *participation.PaperID)
}

func (s *examService) Sheet(ctx context.Context, participationID uint) (dto.ExamSheetResponse, error) {
	participation, err := s.participations.GetByID(ctx, participationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamSheetResponse{}, ErrParticipationNotFound
		}
		return dto.ExamSheetResponse{}, err
	}

	paper, err := s.ensurePaper(ctx, &participation)
	if err != nil {
		return dto.ExamSheetResponse{}, err
	}

	responses, err := s.responses.ListByParticipation(ctx, participationID)
	if err != nil {
		return dto.ExamSheetResponse{}, err
	}

	sheet := dto.ExamSheetResponse{
		PaperID:   paper.ID,
		PaperCode: paper.Code,
		Subject:   paper.Subject,
		Questions: make([]dto.ExamQuestionView, 0, len(paper.Questions)),
		Responses: make([]dto.ExamResponseView, 0, len(responses)),
	}
	for _, question := range paper.Questions {
		sheet.Questions = append(sheet.Questions, dto.NewExamQuestionView(question))
	}
	for _, response := range responses {
		sheet.Responses = append(sheet.Responses, dto.NewExamResponseView(response))
	}

	return sheet, nil
}

func (s *examService) SaveSheet(ctx context.Context, participationID uint, req dto.ExamSheetRequest) (dto.ParticipationResultResponse, error) {
	participation, err := s.participations.GetByID(ctx, participationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ParticipationResultResponse{}, ErrParticipationNotFound
		}
		return dto.ParticipationResultResponse{}, err
	}

	if participation.Locked || participation.Finalized {
		return dto.ParticipationResultResponse{}, ErrParticipationLocked
	}
	if !participation.Contest.EndTime.IsZero() && s.now().After(participation.Contest.EndTime) {
		return dto.ParticipationResultResponse{}, ErrContestFinished
	}

	paper, err := s.ensurePaper(ctx, &participation)
	if err != nil {
		return dto.ParticipationResultResponse{}, err
	}

	questions := make(map[uint]models.ExamQuestion, len(paper.Questions))
	for _, question := range paper.Questions {
		questions[question.ID] = question
	}

	submittedAt := s.now()
	for _, answer := range req.Answers {
		question, ok := questions[answer.QuestionID]
		if !ok {
			return dto.ParticipationResultResponse{}, ErrQuestionNotFound
		}

		response, err := s.responses.GetByQuestionAndParticipation(ctx, question.ID, participationID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.ParticipationResultResponse{}, err
			}
			response = models.ExamResponse{
				QuestionID:      question.ID,
				ParticipationID: participationID,
			}
		}

		if err := applyAnswer(&response, question, answer); err != nil {
			return dto.ParticipationResultResponse{}, err
		}
		response.SubmittedAt = submittedAt
		response.ApplyGrade(question)

		if err := s.responses.Save(ctx, &response); err != nil {
			return dto.ParticipationResultResponse{}, err
		}
	}

	// One recompute per sheet save, not one per answer.
	updated, err := s.scoring.Recompute(ctx, participationID)
	if err != nil {
		return dto.ParticipationResultResponse{}, err
	}

	s.logger.Info().
		Uint("participation_id", participationID).
		Int("answers", len(req.Answers)).
		Float64("score", updated.Score).
		Msg("exam sheet saved")

	return dto.NewParticipationResultResponse(updated), nil
}

// choiceIDKey is the JSON map key for one true/false statement.
func choiceIDKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// applyAnswer writes the answer payload onto the response according to the
// question's part, clearing the fields of the other parts.
func applyAnswer(response *models.ExamResponse, question models.ExamQuestion, answer dto.ExamAnswer) error {
	response.SelectedChoiceID = nil
	response.SelectedChoice = nil
	response.TrueFalseAnswers = nil
	response.ShortAnswerText = ""

	switch question.Part {
	case models.PartMultipleChoice:
		if answer.ChoiceID == nil {
			return ErrAnswerShape
		}
		for i := range question.Choices {
			if question.Choices[i].ID == *answer.ChoiceID {
				response.SelectedChoiceID = answer.ChoiceID
				response.SelectedChoice = &question.Choices[i]
				return nil
			}
		}
		return ErrAnswerShape
	case models.PartTrueFalse:
		if len(answer.TrueFalse) == 0 {
			return ErrAnswerShape
		}
		valid := make(map[string]bool, len(question.Choices))
		for _, choice := range question.Choices {
			valid[choiceIDKey(choice.ID)] = true
		}
		answers := make(map[string]interface{}, len(answer.TrueFalse))
		for key, value := range answer.TrueFalse {
			if !valid[key] {
				return ErrAnswerShape
			}
			answers[key] = value
		}
		response.TrueFalseAnswers = answers
		return nil
	case models.PartShortAnswer:
		if answer.Text == nil {
			return ErrAnswerShape
		}
		response.ShortAnswerText = *answer.Text
		return nil
	}

	return ErrAnswerShape
}
