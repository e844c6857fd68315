package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/models"
)

// ContestRepository defines data operations for contests and their problems.
type ContestRepository interface {
	GetByKey(ctx context.Context, key string) (models.Contest, error)
	GetByID(ctx context.Context, id uint) (models.Contest, error)
	ListProblems(ctx context.Context, contestID uint) ([]models.ContestProblem, error)
	ListAllLanguages(ctx context.Context) ([]models.Language, error)
	UpdateFormatConfig(ctx context.Context, contestID uint, formatName string, config map[string]interface{}) error
}

type contestRepository struct {
	db *gorm.DB
}

// NewContestRepository instantiates the repository.
func NewContestRepository(db *gorm.DB) ContestRepository {
	return &contestRepository{db: db}
}

func (r *contestRepository) GetByKey(ctx context.Context, key string) (models.Contest, error) {
	var contest models.Contest
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&contest).Error; err != nil {
		return models.Contest{}, err
	}

	return contest, nil
}

func (r *contestRepository) GetByID(ctx context.Context, id uint) (models.Contest, error) {
	var contest models.Contest
	if err := r.db.WithContext(ctx).First(&contest, id).Error; err != nil {
		return models.Contest{}, err
	}

	return contest, nil
}

func (r *contestRepository) ListProblems(ctx context.Context, contestID uint) ([]models.ContestProblem, error) {
	var problems []models.ContestProblem
	err := r.db.WithContext(ctx).
		Preload("Problem").
		Preload("Problem.AllowedLanguages").
		Where("contest_id = ?", contestID).
		Order("\"order\", id").
		Find(&problems).Error
	if err != nil {
		return nil, err
	}

	return problems, nil
}

func (r *contestRepository) ListAllLanguages(ctx context.Context) ([]models.Language, error) {
	var languages []models.Language
	if err := r.db.WithContext(ctx).Order("key").Find(&languages).Error; err != nil {
		return nil, err
	}

	return languages, nil
}

func (r *contestRepository) UpdateFormatConfig(ctx context.Context, contestID uint, formatName string, config map[string]interface{}) error {
	updates := map[string]interface{}{
		"format_name":   formatName,
		"format_config": datatypes.JSONMap(config),
	}

	return r.db.WithContext(ctx).
		Model(&models.Contest{}).
		Where("id = ?", contestID).
		Updates(updates).Error
}
