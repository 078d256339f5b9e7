package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cohort-points-bot/internal/clock"
	"cohort-points-bot/internal/model"
	"cohort-points-bot/internal/repository"
)

// legacyDay marks legacy session-code check-ins in the attendance table.
// Period-key records always use day >= 1, so the two paths can never
// collide on the composite unique index.
const legacyDay = 0

// LegacyService is the superseded session-code check-in path. Kept as a
// separate path; never merged with period-key approval.
type LegacyService struct {
	userRepo       *repository.UserRepository
	attendanceRepo *repository.AttendanceRepository
	codeRepo       *repository.AttendanceCodeRepository
	ledger         *Ledger
	clk            clock.Clock
	award          int
	generation     int
}

// NewLegacyService creates a new LegacyService instance.
func NewLegacyService(
	userRepo *repository.UserRepository,
	attendanceRepo *repository.AttendanceRepository,
	codeRepo *repository.AttendanceCodeRepository,
	ledger *Ledger,
	clk clock.Clock,
	award, defaultGeneration int,
) *LegacyService {
	return &LegacyService{
		userRepo:       userRepo,
		attendanceRepo: attendanceRepo,
		codeRepo:       codeRepo,
		ledger:         ledger,
		clk:            clk,
		award:          award,
		generation:     defaultGeneration,
	}
}

// CreateCode registers a check-in code for a session.
func (s *LegacyService) CreateCode(ctx context.Context, session int, code, adminID string, expiresAt *time.Time) (*RecordResult, error) {
	_, err := s.codeRepo.Create(ctx, session, code, adminID, expiresAt)
	if err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			return &RecordResult{
				Credited: false,
				Message:  fmt.Sprintf("❌ %d회차에 이미 등록된 코드입니다.", session),
			}, nil
		}
		return nil, err
	}
	return &RecordResult{
		Credited: true,
		Message:  fmt.Sprintf("✅ %d회차 출석 코드가 생성되었습니다.", session),
	}, nil
}

// CheckIn validates a session code and credits attendance once per
// (session, user). Uses the same idempotent try-insert as the period-key
// path, keyed on generation 0 / day 0 so the models stay disjoint.
func (s *LegacyService) CheckIn(ctx context.Context, userID, username string, session int, code string) (*RecordResult, error) {
	rec, err := s.codeRepo.FindActive(ctx, session, code)
	if err != nil {
		return nil, err
	}
	if rec == nil || (rec.ExpiresAt != nil && rec.ExpiresAt.Before(s.clk.Now())) {
		return &RecordResult{
			Credited: false,
			Message:  "❌ 출석 코드가 올바르지 않거나 만료되었습니다.",
		}, nil
	}

	if _, _, err := s.userRepo.GetOrCreate(ctx, userID, username, s.generation, ""); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	attendance := &model.Attendance{
		Generation: 0,
		Week:       session,
		Day:        legacyDay,
		UserID:     userID,
		Date:       s.clk.Today(),
	}
	_, created, err := s.attendanceRepo.TryInsert(ctx, attendance)
	if err != nil {
		return nil, err
	}
	if !created {
		return &RecordResult{
			Credited: false,
			Message:  fmt.Sprintf("✅ %d회차 출석은 이미 처리되어 있어요.", session),
		}, nil
	}

	week := session
	if _, err := s.ledger.Record(ctx, &model.Transaction{
		UserID: userID,
		Points: int64(s.award),
		Reason: model.ReasonAttendance,
		Week:   &week,
	}); err != nil {
		return nil, err
	}

	total, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &RecordResult{
		Credited:    true,
		PointsAdded: s.award,
		TotalPoints: total,
		Message: fmt.Sprintf(
			"✅ %d회차 출석 완료! (+%d 포인트)\n현재 포인트: %s점",
			session, s.award, formatPoints(total),
		),
	}, nil
}
