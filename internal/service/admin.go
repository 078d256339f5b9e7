package service

import (
	"context"
	"fmt"

	"cohort-points-bot/internal/model"
	"cohort-points-bot/internal/repository"
)

// AdminService handles manager-initiated point grants and revocations.
// Both go through the ledger like every other point change.
type AdminService struct {
	userRepo   *repository.UserRepository
	ledger     *Ledger
	generation int
}

// NewAdminService creates a new AdminService instance.
func NewAdminService(userRepo *repository.UserRepository, ledger *Ledger, defaultGeneration int) *AdminService {
	return &AdminService{
		userRepo:   userRepo,
		ledger:     ledger,
		generation: defaultGeneration,
	}
}

// Grant credits points to a user. points must be positive.
func (s *AdminService) Grant(ctx context.Context, adminID, targetID, targetUsername string, points int64, note string) (*RecordResult, error) {
	if points <= 0 {
		return nil, ErrZeroPoints
	}
	return s.record(ctx, adminID, targetID, targetUsername, points, model.ReasonAdminGrant, note)
}

// Revoke removes points from a user. points must be positive; the stored
// delta is negative.
func (s *AdminService) Revoke(ctx context.Context, adminID, targetID, targetUsername string, points int64, note string) (*RecordResult, error) {
	if points <= 0 {
		return nil, ErrZeroPoints
	}
	return s.record(ctx, adminID, targetID, targetUsername, -points, model.ReasonAdminRevoke, note)
}

func (s *AdminService) record(ctx context.Context, adminID, targetID, targetUsername string, delta int64, reason, note string) (*RecordResult, error) {
	if _, _, err := s.userRepo.GetOrCreate(ctx, targetID, targetUsername, s.generation, ""); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	tx := &model.Transaction{
		UserID:  targetID,
		Points:  delta,
		Reason:  reason,
		AdminID: &adminID,
	}
	if note != "" {
		tx.Note = &note
	}
	if _, err := s.ledger.Record(ctx, tx); err != nil {
		return nil, err
	}

	total, err := s.ledger.Balance(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return &RecordResult{
		Credited:    true,
		PointsAdded: int(delta),
		TotalPoints: total,
		Message: fmt.Sprintf(
			"✅ 처리 완료: %+d점\n현재 포인트: %s점", delta, formatPoints(total),
		),
	}, nil
}
