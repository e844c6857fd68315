package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/models"
	"github.com/clhstestify/online-judge/internal/repository"
)

func newScoringService(db *gorm.DB) ScoringService {
	return NewScoringService(
		repository.NewParticipationRepository(db),
		repository.NewContestRepository(db),
		repository.NewContestSubmissionRepository(db),
		repository.NewPaperRepository(db),
		repository.NewResponseRepository(db),
		zerolog.Nop(),
	)
}

func TestScoringServiceRecomputeCodeforces(t *testing.T) {
	db := openTestDB(t, "scoring_cf")
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	contest := seedContest(t, db, "spring-round", "codeforces", start)
	user := seedUser(t, db, "alice")
	participation := seedParticipation(t, db, contest, user)
	problemA := seedContestProblem(t, db, contest, "aplusb", 0, 100)
	problemB := seedContestProblem(t, db, contest, "graphs", 1, 100)

	seedSubmission(t, db, participation, problemA, models.ResultWrongAnswer, start.Add(5*time.Minute))
	seedSubmission(t, db, participation, problemA, models.ResultAccepted, start.Add(10*time.Minute))
	seedSubmission(t, db, participation, problemB, models.ResultAccepted, start.Add(50*time.Minute))

	svc := newScoringService(db)
	updated, err := svc.Recompute(context.Background(), participation.ID)
	require.NoError(t, err)

	// A: 100 - 100*10/250 - 50 = 46, B: 100 - 100*50/250 = 80.
	require.InDelta(t, 126.0, updated.Score, 1e-9)
	// (10 + 20) + 50 penalty minutes.
	require.EqualValues(t, 80*60, updated.CumTime)
	require.InDelta(t, (50 * time.Minute).Seconds(), updated.Tiebreaker, 1e-9)

	var stored models.ContestParticipation
	require.NoError(t, db.First(&stored, participation.ID).Error)
	require.InDelta(t, 126.0, stored.Score, 1e-9)
	require.NotEmpty(t, stored.FormatData)
}

func TestScoringServiceRecomputeIsIdempotent(t *testing.T) {
	db := openTestDB(t, "scoring_idem")
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	contest := seedContest(t, db, "rerun-round", "codeforces", start)
	user := seedUser(t, db, "bob")
	participation := seedParticipation(t, db, contest, user)
	problem := seedContestProblem(t, db, contest, "strings", 0, 100)

	seedSubmission(t, db, participation, problem, models.ResultWrongAnswer, start.Add(3*time.Minute))
	seedSubmission(t, db, participation, problem, models.ResultAccepted, start.Add(7*time.Minute))

	svc := newScoringService(db)
	participationRepo := repository.NewParticipationRepository(db)

	snapshot := func() []byte {
		t.Helper()
		stored, err := participationRepo.GetByID(context.Background(), participation.ID)
		require.NoError(t, err)
		payload, err := json.Marshal(stored.FormatData)
		require.NoError(t, err)
		return payload
	}

	_, err := svc.Recompute(context.Background(), participation.ID)
	require.NoError(t, err)
	first := snapshot()

	_, err = svc.Recompute(context.Background(), participation.ID)
	require.NoError(t, err)
	second := snapshot()

	require.Equal(t, string(first), string(second))
}

func TestScoringServiceRecomputeExam(t *testing.T) {
	db := openTestDB(t, "scoring_exam")
	start := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	contest := seedContest(t, db, "mock-exam", "exam", start)
	user := seedUser(t, db, "carol")
	participation := seedParticipation(t, db, contest, user)
	paper := seedExamPaper(t, db, contest, "101")

	require.NoError(t, db.Model(&models.ContestParticipation{}).
		Where("id = ?", participation.ID).
		Update("paper_id", paper.ID).Error)

	// Answer the short answer question correctly; leave the rest blank.
	var saQuestion models.ExamQuestion
	require.NoError(t, db.Where("paper_id = ? AND part = ?", paper.ID, models.PartShortAnswer).First(&saQuestion).Error)

	response := models.ExamResponse{
		QuestionID:      saQuestion.ID,
		ParticipationID: participation.ID,
		ShortAnswerText: "42",
		SubmittedAt:     start.Add(10 * time.Minute),
	}
	response.ApplyGrade(saQuestion)
	require.NoError(t, db.Create(&response).Error)

	svc := newScoringService(db)
	updated, err := svc.Recompute(context.Background(), participation.ID)
	require.NoError(t, err)

	// 0.5 raw of max 1.75 scaled to 10 -> 2.857... -> 2.86 at precision 2.
	require.InDelta(t, 2.86, updated.Score, 1e-9)
	require.Zero(t, updated.CumTime)
	require.Zero(t, updated.Tiebreaker)
}

func TestScoringServiceExamWithoutPaperYieldsEmptyAggregate(t *testing.T) {
	db := openTestDB(t, "scoring_nopaper")
	start := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	contest := seedContest(t, db, "paperless-exam", "exam", start)
	user := seedUser(t, db, "dave")
	participation := seedParticipation(t, db, contest, user)

	svc := newScoringService(db)
	updated, err := svc.Recompute(context.Background(), participation.ID)
	require.NoError(t, err)
	require.Zero(t, updated.Score)
	require.Contains(t, updated.FormatData, "_empty")
}

func TestScoringServiceUnknownParticipation(t *testing.T) {
	db := openTestDB(t, "scoring_missing")

	svc := newScoringService(db)
	_, err := svc.Recompute(context.Background(), 12345)
	require.ErrorIs(t, err, ErrParticipationNotFound)
}

func TestScoringServiceValidateConfig(t *testing.T) {
	db := openTestDB(t, "scoring_validate")
	svc := newScoringService(db)

	require.NoError(t, svc.ValidateConfig("codeforces", nil))
	require.Error(t, svc.ValidateConfig("codeforces", map[string]interface{}{"max_score": 10}))
	require.NoError(t, svc.ValidateConfig("exam", map[string]interface{}{"max_score": 20.0}))
	require.Error(t, svc.ValidateConfig("exam", map[string]interface{}{"bonus": 1}))
	require.Error(t, svc.ValidateConfig("acm", nil))
}
