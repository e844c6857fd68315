package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/config"
	"github.com/clhstestify/online-judge/internal/models"
)

// judgeModels is the full migration set, in foreign-key dependency order.
var judgeModels = []interface{}{
	&models.Organization{},
	&models.User{},
	&models.Language{},
	&models.Problem{},
	&models.Contest{},
	&models.ContestProblem{},
	&models.ContestParticipation{},
	&models.Submission{},
	&models.ContestSubmission{},
	&models.ExamPaper{},
	&models.ExamQuestion{},
	&models.ExamChoice{},
	&models.ExamResponse{},
}

// ConnectPostgres opens the judge database and migrates the contest, exam
// and submission tables.
func ConnectPostgres(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("JUDGE_DATABASE_URL must not be empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.AutoMigrate(judgeModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate judge schema: %w", err)
	}

	return db, nil
}
