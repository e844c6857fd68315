package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/dto"
	"github.com/clhstestify/online-judge/internal/models"
	"github.com/clhstestify/online-judge/internal/observability"
	"github.com/clhstestify/online-judge/internal/repository"
)

// ViolationService records integrity violations and reports lockout state.
type ViolationService interface {
	// Report registers one violation. Reports against finalized or locked
	// participations are accepted but change nothing.
	Report(ctx context.Context, participationID uint) (dto.ViolationStatusResponse, error)
	Status(ctx context.Context, participationID uint) (dto.ViolationStatusResponse, error)
}

type violationService struct {
	participations repository.ParticipationRepository
	logger         zerolog.Logger
}

// NewViolationService constructs the violation service.
func NewViolationService(participations repository.ParticipationRepository, logger zerolog.Logger) ViolationService {
	return &violationService{
		participations: participations,
		logger:         logger.With().Str("component", "violation_service").Logger(),
	}
}

func (s *violationService) Report(ctx context.Context, participationID uint) (dto.ViolationStatusResponse, error) {
	participation, err := s.participations.RecordViolation(ctx, participationID, models.ViolationLockThreshold)
	if err != nil {
		observability.ViolationReports().WithLabelValues("error").Inc()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ViolationStatusResponse{}, ErrParticipationNotFound
		}
		return dto.ViolationStatusResponse{}, err
	}

	observability.ViolationReports().WithLabelValues("ok").Inc()
	if participation.Locked {
		s.logger.Warn().
			Uint("participation_id", participation.ID).
			Int("violations", participation.ViolationCount).
			Msg("participation locked")
	}

	return statusOf(participation), nil
}

func (s *violationService) Status(ctx context.Context, participationID uint) (dto.ViolationStatusResponse, error) {
	participation, err := s.participations.GetByID(ctx, participationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ViolationStatusResponse{}, ErrParticipationNotFound
		}
		return dto.ViolationStatusResponse{}, err
	}

	return statusOf(participation), nil
}

func statusOf(participation models.ContestParticipation) dto.ViolationStatusResponse {
	return dto.ViolationStatusResponse{
		ViolationCount: participation.ViolationCount,
		Locked:         participation.Locked,
		Threshold:      models.ViolationLockThreshold,
	}
}
