package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/models"
)

// openTestDB opens an isolated in-memory database per test.
func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
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
	))

	return db
}

func int64Pointer(v int64) *int64 { return &v }

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, FullName: username}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedContest(t *testing.T, db *gorm.DB, key, formatName string, start time.Time) models.Contest {
	t.Helper()
	contest := models.Contest{
		Key:               key,
		Name:              "Contest " + key,
		FormatName:        formatName,
		StartTime:         start,
		EndTime:           start.Add(3 * time.Hour),
		PointsPrecision:   2,
		ScoreboardVisible: true,
	}
	require.NoError(t, db.Create(&contest).Error)
	return contest
}

func seedParticipation(t *testing.T, db *gorm.DB, contest models.Contest, user models.User) models.ContestParticipation {
	t.Helper()
	participation := models.ContestParticipation{
		ContestID: contest.ID,
		UserID:    user.ID,
		StartTime: contest.StartTime,
	}
	require.NoError(t, db.Create(&participation).Error)
	return participation
}

func seedContestProblem(t *testing.T, db *gorm.DB, contest models.Contest, code string, order int, points float64) models.ContestProblem {
	t.Helper()
	problem := models.Problem{Code: code, Name: "Problem " + code, TimeLimit: 1}
	require.NoError(t, db.Create(&problem).Error)
	cp := models.ContestProblem{ContestID: contest.ID, ProblemID: problem.ID, Order: order, Points: points}
	require.NoError(t, db.Create(&cp).Error)
	return cp
}

func seedSubmission(t *testing.T, db *gorm.DB, participation models.ContestParticipation, cp models.ContestProblem, result string, date time.Time) models.ContestSubmission {
	t.Helper()
	judged := date.Add(2 * time.Second)
	submission := models.Submission{
		UserID:     participation.UserID,
		Result:     result,
		Date:       date,
		JudgedDate: &judged,
		RunTime:    0.12,
	}
	require.NoError(t, db.Create(&submission).Error)
	cs := models.ContestSubmission{
		ParticipationID: participation.ID,
		ProblemID:       cp.ID,
		SubmissionID:    submission.ID,
	}
	require.NoError(t, db.Create(&cs).Error)
	return cs
}

// seedExamPaper creates a paper with one question per part and the answer key
// loaded, returning the paper with questions and choices preloaded.
func seedExamPaper(t *testing.T, db *gorm.DB, contest models.Contest, code string) models.ExamPaper {
	t.Helper()
	paper := models.ExamPaper{
		ContestID:      contest.ID,
		Code:           code,
		Subject:        models.SubjectMath,
		Part1Questions: 1,
		Part2Questions: 1,
		Part3Questions: 1,
	}
	require.NoError(t, db.Create(&paper).Error)

	mc := models.ExamQuestion{
		PaperID:   &paper.ID,
		Part:      models.PartMultipleChoice,
		Number:    1,
		MaxPoints: 0.25,
		Choices: []models.ExamChoice{
			{Key: "A", IsCorrect: false},
			{Key: "B", IsCorrect: true},
			{Key: "C", IsCorrect: false},
			{Key: "D", IsCorrect: false},
		},
	}
	require.NoError(t, db.Create(&mc).Error)

	tf := models.ExamQuestion{
		PaperID:   &paper.ID,
		Part:      models.PartTrueFalse,
		Number:    1,
		MaxPoints: 1.0,
		Choices: []models.ExamChoice{
			{Key: "a", IsCorrect: true},
			{Key: "b", IsCorrect: false},
			{Key: "c", IsCorrect: true},
			{Key: "d", IsCorrect: false},
		},
	}
	require.NoError(t, db.Create(&tf).Error)

	sa := models.ExamQuestion{
		PaperID:     &paper.ID,
		Part:        models.PartShortAnswer,
		Number:      1,
		MaxPoints:   0.5,
		ShortAnswer: "42",
	}
	require.NoError(t, db.Create(&sa).Error)

	var loaded models.ExamPaper
	require.NoError(t, db.
		Preload("Questions", func(tx *gorm.DB) *gorm.DB { return tx.Order("part, number") }).
		Preload("Questions.Choices", func(tx *gorm.DB) *gorm.DB { return tx.Order("key") }).
		First(&loaded, paper.ID).Error)

	return loaded
}
