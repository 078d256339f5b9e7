package handler

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v3"

	"cohort-points-bot/internal/service"
)

// LegacyHandler exposes the superseded session-code check-in path.
type LegacyHandler struct {
	legacy *service.LegacyService
}

// NewLegacyHandler creates a new LegacyHandler.
func NewLegacyHandler(legacy *service.LegacyService) *LegacyHandler {
	return &LegacyHandler{legacy: legacy}
}

// HandleCodeNew handles the /code_new command: /code_new <session> <code>.
// Manager only (enforced by middleware).
func (h *LegacyHandler) HandleCodeNew(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 2 {
		return c.Reply("❌ 사용법: /code_new <회차> <코드>")
	}
	session, err := strconv.Atoi(args[0])
	if err != nil || session < 1 {
		return c.Reply("❌ 회차는 양의 정수로 입력해주세요.")
	}

	result, err := h.legacy.CreateCode(ctx, session, args[1], platformID(sender), nil)
	if err != nil {
		return c.Reply(errTryAgain)
	}
	return c.Reply(result.Message)
}

// HandleCheckIn handles the /checkin command: /checkin <session> <code>.
func (h *LegacyHandler) HandleCheckIn(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 2 {
		return c.Reply("❌ 사용법: /checkin <회차> <코드>")
	}
	session, err := strconv.Atoi(args[0])
	if err != nil || session < 1 {
		return c.Reply("❌ 회차는 양의 정수로 입력해주세요.")
	}

	result, err := h.legacy.CheckIn(ctx, platformID(sender), usernameOf(sender), session, args[1])
	if err != nil {
		return c.Reply(errTryAgain)
	}
	return c.Reply(result.Message)
}
