package service

import (
	"context"
	"fmt"
	"strings"

	"cohort-points-bot/internal/clock"
	"cohort-points-bot/internal/model"
	"cohort-points-bot/internal/repository"
)

// Reject reasons for a gratitude send. These are expected business
// outcomes, returned as structured results rather than errors.
const (
	RejectSelfSend       = "self_send"
	RejectQuotaExhausted = "quota_exhausted"
	RejectSlotConflict   = "slot_conflict"
)

// GratitudeService handles peer-to-peer recognition with self-send
// prevention and a daily quota.
type GratitudeService struct {
	userRepo      *repository.UserRepository
	gratitudeRepo *repository.GratitudeRepository
	ledger        *Ledger
	clk           clock.Clock
	award         int
	dailyLimit    int
	messageMax    int
	generation    int
}

// NewGratitudeService creates a new GratitudeService instance.
func NewGratitudeService(
	userRepo *repository.UserRepository,
	gratitudeRepo *repository.GratitudeRepository,
	ledger *Ledger,
	clk clock.Clock,
	award, dailyLimit, messageMax, defaultGeneration int,
) *GratitudeService {
	return &GratitudeService{
		userRepo:      userRepo,
		gratitudeRepo: gratitudeRepo,
		ledger:        ledger,
		clk:           clk,
		award:         award,
		dailyLimit:    dailyLimit,
		messageMax:    messageMax,
		generation:    defaultGeneration,
	}
}

// SendRequest carries one gratitude send.
type SendRequest struct {
	FromUserID   string
	FromUsername string
	FromNickname string
	ToUserID     string
	ToUsername   string
	ToNickname   string
	Message      string
}

// SendResult is the structured outcome of one send attempt.
type SendResult struct {
	Sent           bool
	Reason         string
	RemainingToday int
	FromTotal      int64
	ToTotal        int64
	Message        string
}

// Send performs one gratitude transfer. The self-send check runs before
// any write; the quota check reads today's count; the slot insert is the
// race arbiter. A slot conflict reports failure distinctly from quota
// exhaustion, and the caller must not auto-retry - the slot went to a
// different concurrent send and retrying could exceed the quota.
func (s *GratitudeService) Send(ctx context.Context, req *SendRequest) (*SendResult, error) {
	if req.FromUserID == req.ToUserID {
		return &SendResult{
			Sent:    false,
			Reason:  RejectSelfSend,
			Message: "❌ 자기 자신에게는 감사를 보낼 수 없습니다.",
		}, nil
	}

	fromUser, _, err := s.userRepo.GetOrCreate(ctx, req.FromUserID, req.FromUsername, s.generation, req.FromNickname)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure sender: %w", err)
	}
	toUser, _, err := s.userRepo.GetOrCreate(ctx, req.ToUserID, req.ToUsername, s.generation, req.ToNickname)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure receiver: %w", err)
	}

	today := s.clk.Today()
	sentToday, err := s.gratitudeRepo.CountSentOnDate(ctx, req.FromUserID, today)
	if err != nil {
		return nil, err
	}
	if sentToday >= s.dailyLimit {
		return &SendResult{
			Sent:   false,
			Reason: RejectQuotaExhausted,
			Message: fmt.Sprintf(
				"❌ 오늘은 감사 전송 한도를 모두 사용했어요.\n감사는 하루에 최대 %d회, 1회당 +%dp/+%dp 적립됩니다.\n내일 다시 따뜻한 마음을 전해 보아요!",
				s.dailyLimit, s.award, s.award,
			),
		}, nil
	}

	message := NormalizeMessage(req.Message, s.messageMax)

	rec := &model.Gratitude{
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Date:       today,
		Slot:       sentToday + 1,
		Points:     s.award,
		Message:    message,
	}
	inserted, err := s.gratitudeRepo.TryInsert(ctx, rec)
	if err != nil {
		return nil, err
	}
	if inserted == nil {
		return &SendResult{
			Sent:    false,
			Reason:  RejectSlotConflict,
			Message: "❌ 감사 전송 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요.",
		}, nil
	}

	from := req.FromUserID
	to := req.ToUserID

	// Both transactions are point gains; the reason differs, not the sign.
	if _, err := s.ledger.Record(ctx, &model.Transaction{
		UserID:     from,
		Points:     int64(s.award),
		Reason:     model.ReasonGratitudeSent,
		FromUserID: &from,
		ToUserID:   &to,
	}); err != nil {
		return nil, err
	}
	if _, err := s.ledger.Record(ctx, &model.Transaction{
		UserID:     to,
		Points:     int64(s.award),
		Reason:     model.ReasonGratitudeReceived,
		FromUserID: &from,
		ToUserID:   &to,
	}); err != nil {
		return nil, err
	}

	fromTotal, err := s.ledger.Balance(ctx, from)
	if err != nil {
		return nil, err
	}
	toTotal, err := s.ledger.Balance(ctx, to)
	if err != nil {
		return nil, err
	}
	remaining := s.dailyLimit - (sentToday + 1)
	if remaining < 0 {
		remaining = 0
	}

	msg := fmt.Sprintf("💝 %s님이 %s님에게 감사를 전했습니다!", fromUser.DisplayName(), toUser.DisplayName())
	if message != nil {
		msg += "\n" + fmt.Sprintf("%q", *message)
	}
	msg += fmt.Sprintf(
		"\n\n감사는 하루 최대 %d회 보낼 수 있어요 (1회당 +%dp/+%dp).\n오늘 남은 가능 횟수: %d회",
		s.dailyLimit, s.award, s.award, remaining,
	)

	return &SendResult{
		Sent:           true,
		RemainingToday: remaining,
		FromTotal:      fromTotal,
		ToTotal:        toTotal,
		Message:        msg,
	}, nil
}

// NormalizeMessage trims whitespace, drops an empty result, and silently
// caps the length at max code points.
func NormalizeMessage(message string, max int) *string {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil
	}
	runes := []rune(trimmed)
	if len(runes) > max {
		trimmed = string(runes[:max])
	}
	return &trimmed
}

// StatsResult aggregates a user's gratitude activity.
type StatsResult struct {
	TotalSent     int
	TotalReceived int
	SentToday     int
	PointsSent    int
	PointsGotten  int
	Message       string
}

// Stats returns send/receive totals and today's usage for one user.
func (s *GratitudeService) Stats(ctx context.Context, userID string) (*StatsResult, error) {
	summary, err := s.gratitudeRepo.SummaryFor(ctx, userID, s.clk.Today())
	if err != nil {
		return nil, err
	}

	result := &StatsResult{
		TotalSent:     summary.TotalSent,
		TotalReceived: summary.TotalReceived,
		SentToday:     summary.SentToday,
		PointsSent:    summary.TotalSent * s.award,
		PointsGotten:  summary.TotalReceived * s.award,
	}
	result.Message = fmt.Sprintf(
		"💝 감사 내역\n• 보낸 감사: %d회 (+%s점)\n• 받은 감사: %d회 (+%s점)\n• 오늘 감사 전송: %d/%d",
		result.TotalSent, formatPoints(int64(result.PointsSent)),
		result.TotalReceived, formatPoints(int64(result.PointsGotten)),
		result.SentToday, s.dailyLimit,
	)
	return result, nil
}

// HistoryResult holds recent sent/received records with resolved names.
type HistoryResult struct {
	Sent     []*model.Gratitude
	Received []*model.Gratitude
	Message  string
}

// History returns the user's recent gratitude activity.
func (s *GratitudeService) History(ctx context.Context, userID string, limit int) (*HistoryResult, error) {
	sent, err := s.gratitudeRepo.ListSent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	received, err := s.gratitudeRepo.ListReceived(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	msg := stats.Message
	if len(sent) > 0 {
		msg += "\n\n최근 보낸 감사:"
		for _, rec := range truncateGratitude(sent, 5) {
			msg += fmt.Sprintf("\n• %s → %s", rec.Date, s.displayNameFor(ctx, rec.ToUserID))
		}
	}
	if len(received) > 0 {
		msg += "\n\n최근 받은 감사:"
		for _, rec := range truncateGratitude(received, 5) {
			msg += fmt.Sprintf("\n• %s ← %s", rec.Date, s.displayNameFor(ctx, rec.FromUserID))
		}
	}

	recipients, err := s.gratitudeRepo.TopRecipients(ctx, userID, 3)
	if err != nil {
		return nil, err
	}
	if len(recipients) > 0 {
		msg += "\n\n자주 감사를 전한 멤버:"
		for _, rc := range recipients {
			msg += fmt.Sprintf("\n• %s (%d회)", s.displayNameFor(ctx, rc.UserID), rc.Count)
		}
	}

	return &HistoryResult{Sent: sent, Received: received, Message: msg}, nil
}

func (s *GratitudeService) displayNameFor(ctx context.Context, userID string) string {
	user, err := s.userRepo.GetByPlatformID(ctx, userID)
	if err != nil {
		return "Unknown"
	}
	return user.DisplayName()
}

func truncateGratitude(records []*model.Gratitude, n int) []*model.Gratitude {
	if len(records) > n {
		return records[:n]
	}
	return records
}
