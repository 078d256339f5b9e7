package service

import (
	"context"
	"fmt"

	"cohort-points-bot/internal/clock"
	"cohort-points-bot/internal/model"
	"cohort-points-bot/internal/repository"
)

// AttendanceService turns an approval signal into at most one credited
// attendance per period key and user.
type AttendanceService struct {
	userRepo       *repository.UserRepository
	attendanceRepo *repository.AttendanceRepository
	ledger         *Ledger
	clk            clock.Clock
	award          int
}

// NewAttendanceService creates a new AttendanceService instance.
func NewAttendanceService(
	userRepo *repository.UserRepository,
	attendanceRepo *repository.AttendanceRepository,
	ledger *Ledger,
	clk clock.Clock,
	award int,
) *AttendanceService {
	return &AttendanceService{
		userRepo:       userRepo,
		attendanceRepo: attendanceRepo,
		ledger:         ledger,
		clk:            clk,
		award:          award,
	}
}

// RecordRequest carries one approval event.
type RecordRequest struct {
	UserID     string
	Username   string
	Nickname   string
	Generation int
	Week       int
	Day        int

	// Provenance, optional.
	ChannelID             *int64
	AnnouncementMessageID *int64
	ReplyMessageID        *int64
}

// RecordResult is the structured outcome of one approval.
type RecordResult struct {
	Credited    bool
	PointsAdded int
	TotalPoints int64
	Message     string
}

// Record credits the user for the period key once. A repeat approval for
// the same key returns Credited=false with an "already recorded" message;
// it is the idempotency contract, not an error, because approvals can be
// redelivered or re-clicked.
func (s *AttendanceService) Record(ctx context.Context, req *RecordRequest) (*RecordResult, error) {
	if _, _, err := s.userRepo.GetOrCreate(ctx, req.UserID, req.Username, req.Generation, req.Nickname); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	rec := &model.Attendance{
		Generation:            req.Generation,
		Week:                  req.Week,
		Day:                   req.Day,
		UserID:                req.UserID,
		ChannelID:             req.ChannelID,
		AnnouncementMessageID: req.AnnouncementMessageID,
		ReplyMessageID:        req.ReplyMessageID,
		Date:                  s.clk.Today(),
	}

	_, created, err := s.attendanceRepo.TryInsert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to record attendance: %w", err)
	}

	if !created {
		total, err := s.ledger.Balance(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		return &RecordResult{
			Credited:    false,
			TotalPoints: total,
			Message: fmt.Sprintf(
				"✅ %d기 %d주차 출석은 이미 처리되어 있어요. (현재 %s점)",
				req.Generation, req.Week, formatPoints(total),
			),
		}, nil
	}

	gen := req.Generation
	week := req.Week
	tx := &model.Transaction{
		UserID:     req.UserID,
		Points:     int64(s.award),
		Reason:     model.ReasonAttendance,
		Generation: &gen,
		Week:       &week,
	}
	if _, err := s.ledger.Record(ctx, tx); err != nil {
		return nil, err
	}

	total, err := s.ledger.Balance(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	return &RecordResult{
		Credited:    true,
		PointsAdded: s.award,
		TotalPoints: total,
		Message: fmt.Sprintf(
			"✅ %d기 %d주차 출석 완료! (+%d 포인트)\n현재 포인트: %s점",
			req.Generation, req.Week, s.award, formatPoints(total),
		),
	}, nil
}

// SummaryResult aggregates one user's attendance history.
type SummaryResult struct {
	TotalAttendance int
	PointsEarned    int
	AttendedToday   bool
	Records         []*model.Attendance
	Message         string
}

// MyAttendance returns a user's attendance history and a ready-to-send
// summary message.
func (s *AttendanceService) MyAttendance(ctx context.Context, userID string) (*SummaryResult, error) {
	records, err := s.attendanceRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	attendedToday, err := s.attendanceRepo.HasOnDate(ctx, userID, s.clk.Today())
	if err != nil {
		return nil, err
	}

	result := &SummaryResult{
		TotalAttendance: len(records),
		PointsEarned:    len(records) * s.award,
		AttendedToday:   attendedToday,
		Records:         records,
	}

	if len(records) == 0 {
		result.Message = "📊 출석 기록이 없습니다."
		return result, nil
	}

	msg := fmt.Sprintf(
		"📊 출석 현황\n총 출석: %d회\n획득 포인트: %s점\n\n최근 출석:\n",
		result.TotalAttendance, formatPoints(int64(result.PointsEarned)),
	)
	recent := records
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	for _, rec := range recent {
		msg += fmt.Sprintf("• %d기 %d주차 (%s)\n", rec.Generation, rec.Week, rec.Date)
	}
	if len(records) > 5 {
		msg += fmt.Sprintf("... 외 %d건\n", len(records)-5)
	}
	result.Message = msg
	return result, nil
}

// WeekSummary returns the unique attendees and per-day counts for one week.
func (s *AttendanceService) WeekSummary(ctx context.Context, generation, week int) (*model.WeekSummary, error) {
	return s.attendanceRepo.WeekSummary(ctx, generation, week)
}

// Overview returns per-week unique attendee counts up to a week.
func (s *AttendanceService) Overview(ctx context.Context, generation, uptoWeek int) ([]*model.WeekCount, error) {
	return s.attendanceRepo.Overview(ctx, generation, uptoWeek)
}

// formatPoints renders a point total with thousands separators.
func formatPoints(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
