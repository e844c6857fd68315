package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/format"
	"github.com/clhstestify/online-judge/internal/models"
	"github.com/clhstestify/online-judge/internal/observability"
	"github.com/clhstestify/online-judge/internal/repository"
)

// ErrParticipationNotFound indicates the participation was not located.
var ErrParticipationNotFound = errors.New("participation not found")

// ScoringService recomputes participation aggregates. Every recompute is a
// full replay over current stored state: the same inputs always produce the
// same aggregate, and the aggregate is fully overwritten, never patched.
type ScoringService interface {
	Recompute(ctx context.Context, participationID uint) (models.ContestParticipation, error)
	// ValidateConfig checks a contest format configuration without saving it.
	ValidateConfig(formatName string, config map[string]interface{}) error
}

type scoringService struct {
	participations repository.ParticipationRepository
	contests       repository.ContestRepository
	submissions    repository.ContestSubmissionRepository
	papers         repository.PaperRepository
	responses      repository.ResponseRepository
	logger         zerolog.Logger

	// Per-participation serialization: concurrent saves for the same
	// contestant must not race to overwrite the aggregate with stale data.
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewScoringService constructs the scoring service.
func NewScoringService(
	participations repository.ParticipationRepository,
	contests repository.ContestRepository,
	submissions repository.ContestSubmissionRepository,
	papers repository.PaperRepository,
	responses repository.ResponseRepository,
	logger zerolog.Logger,
) ScoringService {
	return &scoringService{
		participations: participations,
		contests:       contests,
		submissions:    submissions,
		papers:         papers,
		responses:      responses,
		logger:         logger.With().Str("component", "scoring_service").Logger(),
		locks:          map[uint]*sync.Mutex{},
	}
}

func (s *scoringService) lockFor(participationID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[participationID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[participationID] = lock
	}

	return lock
}

func (s *scoringService) ValidateConfig(formatName string, config map[string]interface{}) error {
	return format.Validate(formatName, config)
}

func (s *scoringService) Recompute(ctx context.Context, participationID uint) (models.ContestParticipation, error) {
	lock := s.lockFor(participationID)
	lock.Lock()
	defer lock.Unlock()

	tracer := otel.Tracer("github.com/clhstestify/online-judge/internal/service/scoring")
	ctx, span := tracer.Start(ctx, "scoring.recompute")
	span.SetAttributes(attribute.Int64("scoring.participation_id", int64(participationID)))
	defer span.End()

	started := time.Now()

	participation, err := s.participations.GetByID(ctx, participationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "participation_lookup_failed")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ContestParticipation{}, ErrParticipationNotFound
		}
		return models.ContestParticipation{}, err
	}

	contest := participation.Contest
	span.SetAttributes(attribute.String("scoring.format", contest.FormatName))

	scorer, err := format.New(contest.FormatName, contest.ConfigMap())
	if err != nil {
		observability.Recomputes().WithLabelValues(contest.FormatName, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "format_construction_failed")
		return models.ContestParticipation{}, err
	}

	input := format.Input{
		Start:       participation.StartTime,
		FreezeAfter: contest.FreezeAfter(),
		Precision:   contest.PointsPrecision,
	}

	switch contest.FormatName {
	case format.FormatExam:
		if err := s.loadExamInput(ctx, participation, &input); err != nil {
			observability.Recomputes().WithLabelValues(contest.FormatName, "error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "exam_input_load_failed")
			return models.ContestParticipation{}, err
		}
	default:
		if err := s.loadSubmissionInput(ctx, participation, &input); err != nil {
			observability.Recomputes().WithLabelValues(contest.FormatName, "error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "submission_input_load_failed")
			return models.ContestParticipation{}, err
		}
	}

	result := scorer.Score(input)

	if err := s.participations.UpdateAggregate(ctx, participation.ID, result.Score, result.CumTime, result.Tiebreaker, result.Breakdown); err != nil {
		observability.Recomputes().WithLabelValues(contest.FormatName, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate_update_failed")
		return models.ContestParticipation{}, err
	}

	participation.Score = result.Score
	participation.CumTime = result.CumTime
	participation.Tiebreaker = result.Tiebreaker
	participation.FormatData = result.Breakdown

	observability.Recomputes().WithLabelValues(contest.FormatName, "ok").Inc()
	observability.RecomputeLatency().WithLabelValues(contest.FormatName).Observe(time.Since(started).Seconds())
	span.SetAttributes(attribute.Float64("scoring.score", result.Score))

	s.logger.Debug().
		Uint("participation_id", participation.ID).
		Str("format", contest.FormatName).
		Float64("score", result.Score).
		Int64("cumtime", result.CumTime).
		Msg("aggregate recomputed")

	return participation, nil
}

func (s *scoringService) loadSubmissionInput(ctx context.Context, participation models.ContestParticipation, input *format.Input) error {
	problems, err := s.contests.ListProblems(ctx, participation.ContestID)
	if err != nil {
		return err
	}
	input.Problems = make([]format.ProblemSnapshot, 0, len(problems))
	for _, problem := range problems {
		input.Problems = append(input.Problems, format.ProblemSnapshot{
			ID:     problem.ID,
			Points: problem.Points,
		})
	}

	submissions, err := s.submissions.ListByParticipation(ctx, participation.ID)
	if err != nil {
		return err
	}
	input.Submissions = make([]format.SubmissionSnapshot, 0, len(submissions))
	for _, cs := range submissions {
		input.Submissions = append(input.Submissions, format.SubmissionSnapshot{
			ID:        cs.SubmissionID,
			ProblemID: cs.ProblemID,
			Result:    cs.Submission.Result,
			Points:    cs.Points,
			Date:      cs.Submission.Date,
		})
	}

	return nil
}

func (s *scoringService) loadExamInput(ctx context.Context, participation models.ContestParticipation, input *format.Input) error {
	if participation.PaperID == nil {
		// Missing paper degrades to a zeroed aggregate, not an error.
		return nil
	}

	paper, err := s.papers.GetByID(ctx, *participation.PaperID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	snapshot := &format.PaperSnapshot{
		Questions: make([]format.QuestionSnapshot, 0, len(paper.Questions)),
	}
	for _, question := range paper.Questions {
		snapshot.Questions = append(snapshot.Questions, format.QuestionSnapshot{
			ID:         question.ID,
			Part:       question.Part,
			MaxPoints:  question.DefaultMaxPointsOrStored(),
			TotalItems: question.TotalItems(),
		})
	}
	input.Paper = snapshot

	responses, err := s.responses.ListByParticipation(ctx, participation.ID)
	if err != nil {
		return err
	}
	input.Responses = make([]format.ResponseSnapshot, 0, len(responses))
	for _, response := range responses {
		input.Responses = append(input.Responses, format.ResponseSnapshot{
			QuestionID:   response.QuestionID,
			Points:       response.Points,
			CorrectCount: response.CorrectCount,
			TotalCount:   response.TotalCount,
		})
	}

	return nil
}
