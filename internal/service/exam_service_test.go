package service

import (
	"context"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/dto"
	"github.com/clhstestify/online-judge/internal/models"
	"github.com/clhstestify/online-judge/internal/repository"
)

func newExamService(db *gorm.DB) ExamService {
	return NewExamService(
		repository.NewParticipationRepository(db),
		repository.NewPaperRepository(db),
		repository.NewResponseRepository(db),
		newScoringService(db),
		zerolog.Nop(),
		rand.New(rand.NewSource(1)),
	)
}

func stringPointer(v string) *string { return &v }

func questionByPart(t *testing.T, db *gorm.DB, paperID uint, part string) models.ExamQuestion {
	t.Helper()
	var question models.ExamQuestion
	require.NoError(t, db.Preload("Choices").
		Where("paper_id = ? AND part = ?", paperID, part).
		First(&question).Error)
	return question
}

func TestExamServiceSheetAssignsPaperOnFirstAccess(t *testing.T) {
	db := openTestDB(t, "exam_assign")
	start := time.Now().UTC().Add(-time.Hour)

	contest := seedContest(t, db, "assign-exam", "exam", start)
	user := seedUser(t, db, "erin")
	participation := seedParticipation(t, db, contest, user)
	seedExamPaper(t, db, contest, "101")
	seedExamPaper(t, db, contest, "102")

	svc := newExamService(db)
	sheet, err := svc.Sheet(context.Background(), participation.ID)
	require.NoError(t, err)
	require.NotZero(t, sheet.PaperID)
	require.Len(t, sheet.Questions, 3)
	require.Empty(t, sheet.Responses)

	// Questions never leak choice correctness.
	for _, question := range sheet.Questions {
		for _, choice := range question.Choices {
			require.NotZero(t, choice.ID)
			require.NotEmpty(t, choice.Key)
		}
	}

	// Second access keeps the original assignment.
	again, err := svc.Sheet(context.Background(), participation.ID)
	require.NoError(t, err)
	require.Equal(t, sheet.PaperID, again.PaperID)

	var stored models.ContestParticipation
	require.NoError(t, db.First(&stored, participation.ID).Error)
	require.NotNil(t, stored.PaperID)
	require.Equal(t, sheet.PaperID, *stored.PaperID)
}

func TestExamServiceSheetWithoutPapers(t *testing.T) {
	db := openTestDB(t, "exam_nopapers")
	contest := seedContest(t, db, "empty-exam", "exam", time.Now().UTC().Add(-time.Hour))
	user := seedUser(t, db, "frank")
	participation := seedParticipation(t, db, contest, user)

	svc := newExamService(db)
	_, err := svc.Sheet(context.Background(), participation.ID)
	require.ErrorIs(t, err, ErrNoPapersAvailable)
}

func TestExamServiceSaveSheetGradesAndRecomputes(t *testing.T) {
	db := openTestDB(t, "exam_save")
	start := time.Now().UTC().Add(-time.Hour)

	contest := seedContest(t, db, "save-exam", "exam", start)
	user := seedUser(t, db, "grace")
	participation := seedParticipation(t, db, contest, user)
	paper := seedExamPaper(t, db, contest, "101")

	require.NoError(t, db.Model(&models.ContestParticipation{}).
		Where("id = ?", participation.ID).
		Update("paper_id", paper.ID).Error)

	mc := questionByPart(t, db, paper.ID, models.PartMultipleChoice)
	tf := questionByPart(t, db, paper.ID, models.PartTrueFalse)
	sa := questionByPart(t, db, paper.ID, models.PartShortAnswer)

	var correctChoice models.ExamChoice
	for _, choice := range mc.Choices {
		if choice.IsCorrect {
			correctChoice = choice
		}
	}

	trueFalse := map[string]bool{}
	for _, choice := range tf.Choices {
		trueFalse[strconv.FormatUint(uint64(choice.ID), 10)] = choice.IsCorrect
	}

	svc := newExamService(db)
	result, err := svc.SaveSheet(context.Background(), participation.ID, dto.ExamSheetRequest{
		Answers: []dto.ExamAnswer{
			{QuestionID: mc.ID, ChoiceID: &correctChoice.ID},
			{QuestionID: tf.ID, TrueFalse: trueFalse},
			{QuestionID: sa.ID, Text: stringPointer(" 42 ")},
		},
	})
	require.NoError(t, err)

	// Everything correct: full 1.75 raw of 1.75 scales to 10.
	require.InDelta(t, 10.0, result.Score, 1e-9)
	require.Zero(t, result.CumTime)

	sheet, err := svc.Sheet(context.Background(), participation.ID)
	require.NoError(t, err)
	require.Len(t, sheet.Responses, 3)
}

func TestExamServiceSaveSheetOverwritesPreviousAnswer(t *testing.T) {
	db := openTestDB(t, "exam_overwrite")
	start := time.Now().UTC().Add(-time.Hour)

	contest := seedContest(t, db, "overwrite-exam", "exam", start)
	user := seedUser(t, db, "heidi")
	participation := seedParticipation(t, db, contest, user)
	paper := seedExamPaper(t, db, contest, "101")
	require.NoError(t, db.Model(&models.ContestParticipation{}).
		Where("id = ?", participation.ID).
		Update("paper_id", paper.ID).Error)

	sa := questionByPart(t, db, paper.ID, models.PartShortAnswer)
	svc := newExamService(db)

	first, err := svc.SaveSheet(context.Background(), participation.ID, dto.ExamSheetRequest{
		Answers: []dto.ExamAnswer{{QuestionID: sa.ID, Text: stringPointer("41")}},
	})
	require.NoError(t, err)
	require.Zero(t, first.Score)

	second, err := svc.SaveSheet(context.Background(), participation.ID, dto.ExamSheetRequest{
		Answers: []dto.ExamAnswer{{QuestionID: sa.ID, Text: stringPointer("42")}},
	})
	require.NoError(t, err)
	require.InDelta(t, 2.86, second.Score, 1e-9)

	var count int64
	require.NoError(t, db.Model(&models.ExamResponse{}).
		Where("participation_id = ?", participation.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestExamServiceSaveSheetRejectsLockedParticipation(t *testing.T) {
	db := openTestDB(t, "exam_locked")
	start := time.Now().UTC().Add(-time.Hour)

	contest := seedContest(t, db, "locked-exam", "exam", start)
	user := seedUser(t, db, "ivan")
	participation := seedParticipation(t, db, contest, user)
	require.NoError(t, db.Model(&models.ContestParticipation{}).
		Where("id = ?", participation.ID).
		Update("locked", true).Error)

	svc := newExamService(db)
	_, err := svc.SaveSheet(context.Background(), participation.ID, dto.ExamSheetRequest{
		Answers: []dto.ExamAnswer{{QuestionID: 1, Text: stringPointer("x")}},
	})
	require.ErrorIs(t, err, ErrParticipationLocked)
}

func TestExamServiceSaveSheetRejectsFinishedContest(t *testing.T) {
	db := openTestDB(t, "exam_finished")
	start := time.Now().UTC().Add(-5 * time.Hour)

	contest := seedContest(t, db, "finished-exam", "exam", start)
	user := seedUser(t, db, "judy")
	participation := seedParticipation(t, db, contest, user)

	svc := newExamService(db)
	_, err := svc.SaveSheet(context.Background(), participation.ID, dto.ExamSheetRequest{
		Answers: []dto.ExamAnswer{{QuestionID: 1, Text: stringPointer("x")}},
	})
	require.ErrorIs(t, err, ErrContestFinished)
}

func TestExamServiceSaveSheetRejectsForeignQuestion(t *testing.T) {
	db := openTestDB(t, "exam_foreign")
	start := time.Now().UTC().Add(-time.Hour)

	contest := seedContest(t, db, "foreign-exam", "exam", start)
	user := seedUser(t, db, "kim")
	participation := seedParticipation(t, db, contest, user)
	paper := seedExamPaper(t, db, contest, "101")
	other := seedExamPaper(t, db, contest, "102")

	require.NoError(t, db.Model(&models.ContestParticipation{}).
		Where("id = ?", participation.ID).
		Update("paper_id", paper.ID).Error)

	foreign := questionByPart(t, db, other.ID, models.PartShortAnswer)

	svc := newExamService(db)
	_, err := svc.SaveSheet(context.Background(), participation.ID, dto.ExamSheetRequest{
		Answers: []dto.ExamAnswer{{QuestionID: foreign.ID, Text: stringPointer("42")}},
	})
	require.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestExamServiceSaveSheetRejectsWrongAnswerShape(t *testing.T) {
	db := openTestDB(t, "exam_shape")
	start := time.Now().UTC().Add(-time.Hour)

	contest := seedContest(t, db, "shape-exam", "exam", start)
	user := seedUser(t, db, "leo")
	participation := seedParticipation(t, db, contest, user)
	paper := seedExamPaper(t, db, contest, "101")
	require.NoError(t, db.Model(&models.ContestParticipation{}).
		Where("id = ?", participation.ID).
		Update("paper_id", paper.ID).Error)

	sa := questionByPart(t, db, paper.ID, models.PartShortAnswer)

	svc := newExamService(db)
	_, err := svc.SaveSheet(context.Background(), participation.ID, dto.ExamSheetRequest{
		Answers: []dto.ExamAnswer{{QuestionID: sa.ID, TrueFalse: map[string]bool{"1": true}}},
	})
	require.ErrorIs(t, err, ErrAnswerShape)
}
