package handler

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"cohort-points-bot/internal/service"
)

// PointsHandler handles balance and summary queries.
type PointsHandler struct {
	ledger     *service.Ledger
	attendance *service.AttendanceService
	gratitude  *service.GratitudeService
}

// NewPointsHandler creates a new PointsHandler.
func NewPointsHandler(ledger *service.Ledger, attendance *service.AttendanceService, gratitude *service.GratitudeService) *PointsHandler {
	return &PointsHandler{
		ledger:     ledger,
		attendance: attendance,
		gratitude:  gratitude,
	}
}

// HandlePoints handles the /points command: current balance plus
// attendance and gratitude summaries.
func (h *PointsHandler) HandlePoints(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	userID := platformID(sender)

	balance, err := h.ledger.Balance(ctx, userID)
	if err != nil {
		return c.Reply(errTryAgain)
	}
	attendance, err := h.attendance.MyAttendance(ctx, userID)
	if err != nil {
		return c.Reply(errTryAgain)
	}
	gratitude, err := h.gratitude.Stats(ctx, userID)
	if err != nil {
		return c.Reply(errTryAgain)
	}

	attendedToday := "가능 ○"
	if attendance.AttendedToday {
		attendedToday = "완료 ✓"
	}

	msg := fmt.Sprintf(
		"💰 현재 포인트: %d점\n\n1) 출석 내역:\n• 총 출석: %d회 (+%d점)\n• 오늘 출석: %s\n\n2) 감사 내역:\n• 보낸 감사: %d회 (+%d점)\n• 받은 감사: %d회 (+%d점)",
		balance,
		attendance.TotalAttendance, attendance.PointsEarned, attendedToday,
		gratitude.TotalSent, gratitude.PointsSent,
		gratitude.TotalReceived, gratitude.PointsGotten,
	)
	return c.Reply(msg)
}

// HandleRank handles the /rank command: top balances leaderboard.
func (h *PointsHandler) HandleRank(c tele.Context) error {
	ctx := context.Background()

	users, err := h.ledger.Top(ctx, 10)
	if err != nil {
		return c.Reply(errTryAgain)
	}
	if len(users) == 0 {
		return c.Reply("🏆 아직 포인트 기록이 없어요.")
	}

	msg := "🏆 포인트 랭킹"
	for i, u := range users {
		msg += fmt.Sprintf("\n%d. %s — %d점", i+1, u.DisplayName(), u.TotalPoints)
	}
	return c.Reply(msg)
}

// HandleMyAttendance handles the /my_attendance command.
func (h *PointsHandler) HandleMyAttendance(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	result, err := h.attendance.MyAttendance(ctx, platformID(sender))
	if err != nil {
		return c.Reply(errTryAgain)
	}
	return c.Reply(result.Message)
}
