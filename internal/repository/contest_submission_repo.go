package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/models"
)

// ContestSubmissionRepository defines data operations for judged contest
// submissions.
type ContestSubmissionRepository interface {
	// ListByParticipation returns the participation's submissions in
	// submission-timestamp order.
	ListByParticipation(ctx context.Context, participationID uint) ([]models.ContestSubmission, error)
	// ListByContest returns every submission of the contest in submission
	// order (date, then submission id).
	ListByContest(ctx context.Context, contestID uint) ([]models.ContestSubmission, error)
	// FirstSolver returns the participation that first fully solved the
	// contest problem, or 0 when nobody has.
	FirstSolver(ctx context.Context, contestProblemID uint, fullPoints float64) (uint, error)
}

type contestSubmissionRepository struct {
	db *gorm.DB
}

// NewContestSubmissionRepository instantiates the repository.
func NewContestSubmissionRepository(db *gorm.DB) ContestSubmissionRepository {
	return &contestSubmissionRepository{db: db}
}

func (r *contestSubmissionRepository) ListByParticipation(ctx context.Context, participationID uint) ([]models.ContestSubmission, error) {
	var submissions []models.ContestSubmission
	err := r.db.WithContext(ctx).
		Preload("Submission").
		Preload("Submission.Language").
		Joins("JOIN submissions ON submissions.id = contest_submissions.submission_id").
		Where("contest_submissions.participation_id = ?", participationID).
		Order("submissions.date, submissions.id").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *contestSubmissionRepository) ListByContest(ctx context.Context, contestID uint) ([]models.ContestSubmission, error) {
	var submissions []models.ContestSubmission
	err := r.db.WithContext(ctx).
		Preload("Submission").
		Preload("Submission.Language").
		Preload("Participation").
		Preload("Problem").
		Preload("Problem.Problem").
		Joins("JOIN contest_participations ON contest_participations.id = contest_submissions.participation_id").
		Joins("JOIN submissions ON submissions.id = contest_submissions.submission_id").
		Where("contest_participations.contest_id = ?", contestID).
		Order("submissions.date, submissions.id").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *contestSubmissionRepository) FirstSolver(ctx context.Context, contestProblemID uint, fullPoints float64) (uint, error) {
	var submission models.ContestSubmission
	err := r.db.WithContext(ctx).
		Joins("JOIN submissions ON submissions.id = contest_submissions.submission_id").
		Where("contest_submissions.problem_id = ?", contestProblemID).
		Where("submissions.result = ?", models.ResultAccepted).
		// Ungraded points on an accepted submission count as full score.
		Where("contest_submissions.points IS NULL OR contest_submissions.points >= ?", fullPoints).
		Order("submissions.date, submissions.id").
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return submission.ParticipationID, nil
}
