package handler

import (
	"context"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"cohort-points-bot/internal/service"
)

// AdminHandler handles manager point grants and revocations.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// HandleGrant handles the /grant command: reply to the target with
// /grant <points> [note].
func (h *AdminHandler) HandleGrant(c tele.Context) error {
	return h.handle(c, false)
}

// HandleRevoke handles the /revoke command: reply to the target with
// /revoke <points> [note].
func (h *AdminHandler) HandleRevoke(c tele.Context) error {
	return h.handle(c, true)
}

func (h *AdminHandler) handle(c tele.Context, revoke bool) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	reply := c.Message().ReplyTo
	if reply == nil || reply.Sender == nil {
		return c.Reply("❌ 대상 멤버의 메시지에 답장하면서 사용해주세요.")
	}
	target := reply.Sender

	args := c.Args()
	if len(args) < 1 {
		return c.Reply("❌ 사용법: (답장으로) /grant <포인트> [메모]")
	}
	points, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || points <= 0 {
		return c.Reply("❌ 포인트는 양의 정수로 입력해주세요.")
	}
	note := strings.Join(args[1:], " ")

	adminID := platformID(sender)
	targetID := platformID(target)
	targetUsername := usernameOf(target)

	var result *service.RecordResult
	if revoke {
		result, err = h.admin.Revoke(ctx, adminID, targetID, targetUsername, points, note)
	} else {
		result, err = h.admin.Grant(ctx, adminID, targetID, targetUsername, points, note)
	}
	if err != nil {
		return c.Reply(errTryAgain)
	}
	return c.Reply(result.Message)
}
