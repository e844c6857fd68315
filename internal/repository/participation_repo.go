package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clhstestify/online-judge/internal/models"
)

// ParticipationRepository defines data operations for contest participations.
type ParticipationRepository interface {
	GetByID(ctx context.Context, id uint) (models.ContestParticipation, error)
	GetByContestAndUser(ctx context.Context, contestID, userID uint) (models.ContestParticipation, error)
	// ListRanked returns the contest's participations ordered by descending
	// score, ascending cumulative time, then username as the stable tie-break.
	ListRanked(ctx context.Context, contestID uint) ([]models.ContestParticipation, error)
	// UpdateAggregate fully overwrites the aggregate fields; it never patches
	// them incrementally.
	UpdateAggregate(ctx context.Context, id uint, score float64, cumtime int64, tiebreaker float64, breakdown map[string]interface{}) error
	AssignPaper(ctx context.Context, id, paperID uint) error
	// RecordViolation increments the violation counter and tests the lockout
	// threshold in one critical section under a row-level lock. Finalized or
	// already-locked participations are returned unchanged.
	RecordViolation(ctx context.Context, id uint, threshold int) (models.ContestParticipation, error)
}

type participationRepository struct {
	db *gorm.DB
}

// NewParticipationRepository instantiates the repository.
func NewParticipationRepository(db *gorm.DB) ParticipationRepository {
	return &participationRepository{db: db}
}

func (r *participationRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ContestParticipation{}).
		Preload("Contest").
		Preload("User").
		Preload("User.Organization")
}

func (r *participationRepository) GetByID(ctx context.Context, id uint) (models.ContestParticipation, error) {
	var participation models.ContestParticipation
	if err := r.baseQuery(ctx).First(&participation, id).Error; err != nil {
		return models.ContestParticipation{}, err
	}

	return participation, nil
}

func (r *participationRepository) GetByContestAndUser(ctx context.Context, contestID, userID uint) (models.ContestParticipation, error) {
	var participation models.ContestParticipation
	err := r.baseQuery(ctx).
		Where("contest_id = ?", contestID).
		Where("user_id = ?", userID).
		First(&participation).Error
	if err != nil {
		return models.ContestParticipation{}, err
	}

	return participation, nil
}

func (r *participationRepository) ListRanked(ctx context.Context, contestID uint) ([]models.ContestParticipation, error) {
	var participations []models.ContestParticipation
	err := r.baseQuery(ctx).
		Joins("JOIN users ON users.id = contest_participations.user_id").
		Where("contest_participations.contest_id = ?", contestID).
		Order("contest_participations.score DESC, contest_participations.cum_time ASC, users.username ASC").
		Find(&participations).Error
	if err != nil {
		return nil, err
	}

	return participations, nil
}

func (r *participationRepository) UpdateAggregate(ctx context.Context, id uint, score float64, cumtime int64, tiebreaker float64, breakdown map[string]interface{}) error {
	updates := map[string]interface{}{
		"score":       score,
		"cum_time":    cumtime,
		"tiebreaker":  tiebreaker,
		"format_data": datatypes.JSONMap(breakdown),
	}

	return r.db.WithContext(ctx).
		Model(&models.ContestParticipation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *participationRepository) AssignPaper(ctx context.Context, id, paperID uint) error {
	// Conditional update keeps the first assignment; later calls are no-ops.
	return r.db.WithContext(ctx).
		Model(&models.ContestParticipation{}).
		Where("id = ? AND paper_id IS NULL", id).
		Update("paper_id", paperID).Error
}

func (r *participationRepository) RecordViolation(ctx context.Context, id uint, threshold int) (models.ContestParticipation, error) {
	var participation models.ContestParticipation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&participation, id).Error; err != nil {
			return err
		}

		if participation.Finalized || participation.Locked {
			return nil
		}

		participation.ViolationCount++
		if participation.ViolationCount >= threshold {
			participation.Locked = true
		}

		return tx.Model(&models.ContestParticipation{}).
			Where("id = ?", participation.ID).
			Updates(map[string]interface{}{
				"violation_count": participation.ViolationCount,
				"locked":          participation.Locked,
			}).Error
	})
	if err != nil {
		return models.ContestParticipation{}, err
	}

	return participation, nil
}
