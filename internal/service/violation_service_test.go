package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/clhstestify/online-judge/internal/models"
	"github.com/clhstestify/online-judge/internal/repository"
)

func TestViolationServiceLocksAtThreshold(t *testing.T) {
	db := openTestDB(t, "violation_lock")
	contest := seedContest(t, db, "guarded-exam", "exam", time.Now().UTC().Add(-time.Hour))
	user := seedUser(t, db, "mallory")
	participation := seedParticipation(t, db, contest, user)

	svc := NewViolationService(repository.NewParticipationRepository(db), zerolog.Nop())
	ctx := context.Background()

	for i := 1; i < models.ViolationLockThreshold; i++ {
		status, err := svc.Report(ctx, participation.ID)
		require.NoError(t, err)
		require.Equal(t, i, status.ViolationCount)
		require.False(t, status.Locked)
	}

	status, err := svc.Report(ctx, participation.ID)
	require.NoError(t, err)
	require.Equal(t, models.ViolationLockThreshold, status.ViolationCount)
	require.True(t, status.Locked)

	// Reports against a locked participation change nothing.
	status, err = svc.Report(ctx, participation.ID)
	require.NoError(t, err)
	require.Equal(t, models.ViolationLockThreshold, status.ViolationCount)
	require.True(t, status.Locked)
}

func TestViolationServiceSkipsFinalizedParticipation(t *testing.T) {
	db := openTestDB(t, "violation_final")
	contest := seedContest(t, db, "final-exam", "exam", time.Now().UTC().Add(-time.Hour))
	user := seedUser(t, db, "nina")
	participation := seedParticipation(t, db, contest, user)
	require.NoError(t, db.Model(&models.ContestParticipation{}).
		Where("id = ?", participation.ID).
		Update("finalized", true).Error)

	svc := NewViolationService(repository.NewParticipationRepository(db), zerolog.Nop())
	status, err := svc.Report(context.Background(), participation.ID)
	require.NoError(t, err)
	require.Zero(t, status.ViolationCount)
	require.False(t, status.Locked)
}

func TestViolationServiceStatus(t *testing.T) {
	db := openTestDB(t, "violation_status")
	contest := seedContest(t, db, "status-exam", "exam", time.Now().UTC().Add(-time.Hour))
	user := seedUser(t, db, "oscar")
	participation := seedParticipation(t, db, contest, user)

	svc := NewViolationService(repository.NewParticipationRepository(db), zerolog.Nop())
	status, err := svc.Status(context.Background(), participation.ID)
	require.NoError(t, err)
	require.Zero(t, status.ViolationCount)
	require.Equal(t, models.ViolationLockThreshold, status.Threshold)

	_, err = svc.Status(context.Background(), 999)
	require.ErrorIs(t, err, ErrParticipationNotFound)
}
