package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/models"
)

// PaperRepository defines data operations for exam papers and questions.
type PaperRepository interface {
	GetByID(ctx context.Context, id uint) (models.ExamPaper, error)
	ListByContest(ctx context.Context, contestID uint) ([]models.ExamPaper, error)
	// ReplaceQuestions deletes every question on the paper and inserts the
	// given replacements in one transaction, updating the per-part counts.
	ReplaceQuestions(ctx context.Context, paper *models.ExamPaper, questions []models.ExamQuestion) error
}

type paperRepository struct {
	db *gorm.DB
}

// NewPaperRepository instantiates the repository.
func NewPaperRepository(db *gorm.DB) PaperRepository {
	return &paperRepository{db: db}
}

func (r *paperRepository) GetByID(ctx context.Context, id uint) (models.ExamPaper, error) {
	var paper models.ExamPaper
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("part, number")
		}).
		Preload("Questions.Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("key")
		}).
		First(&paper, id).Error
	if err != nil {
		return models.ExamPaper{}, err
	}

	return paper, nil
}

func (r *paperRepository) ListByContest(ctx context.Context, contestID uint) ([]models.ExamPaper, error) {
	var papers []models.ExamPaper
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Order("id").
		Find(&papers).Error
	if err != nil {
		return nil, err
	}

	return papers, nil
}

func (r *paperRepository) ReplaceQuestions(ctx context.Context, paper *models.ExamPaper, questions []models.ExamQuestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var questionIDs []uint
		if err := tx.Model(&models.ExamQuestion{}).
			Where("paper_id = ?", paper.ID).
			Pluck("id", &questionIDs).Error; err != nil {
			return err
		}

		if len(questionIDs) > 0 {
			if err := tx.Where("question_id IN ?", questionIDs).Delete(&models.ExamChoice{}).Error; err != nil {
				return err
			}
			if err := tx.Where("paper_id = ?", paper.ID).Delete(&models.ExamQuestion{}).Error; err != nil {
				return err
			}
		}

		for i := range questions {
			questions[i].PaperID = &paper.ID
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.ExamPaper{}).
			Where("id = ?", paper.ID).
			Updates(map[string]interface{}{
				"part1_questions": paper.Part1Questions,
				"part2_questions": paper.Part2Questions,
				"part3_questions": paper.Part3Questions,
			}).Error
	})
}

// ResponseRepository defines data operations for exam responses.
type ResponseRepository interface {
	GetByQuestionAndParticipation(ctx context.Context, questionID, participationID uint) (models.ExamResponse, error)
	ListByParticipation(ctx context.Context, participationID uint) ([]models.ExamResponse, error)
	Save(ctx context.Context, response *models.ExamResponse) error
}

type responseRepository struct {
	db *gorm.DB
}

// NewResponseRepository instantiates the repository.
func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) GetByQuestionAndParticipation(ctx context.Context, questionID, participationID uint) (models.ExamResponse, error) {
	var response models.ExamResponse
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Where("participation_id = ?", participationID).
		First(&response).Error
	if err != nil {
		return models.ExamResponse{}, err
	}

	return response, nil
}

func (r *responseRepository) ListByParticipation(ctx context.Context, participationID uint) ([]models.ExamResponse, error) {
	var responses []models.ExamResponse
	err := r.db.WithContext(ctx).
		Where("participation_id = ?", participationID).
		Order("question_id").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}

	return responses, nil
}

func (r *responseRepository) Save(ctx context.Context, response *models.ExamResponse) error {
	return r.db.WithContext(ctx).Save(response).Error
}
