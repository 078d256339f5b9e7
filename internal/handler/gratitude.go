package handler

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v3"

	"cohort-points-bot/internal/service"
)

// GratitudeHandler handles peer recognition commands.
type GratitudeHandler struct {
	gratitude *service.GratitudeService
}

// NewGratitudeHandler creates a new GratitudeHandler.
func NewGratitudeHandler(gratitude *service.GratitudeService) *GratitudeHandler {
	return &GratitudeHandler{gratitude: gratitude}
}

// HandleThanks handles the /thanks command. Used as a reply to the
// recipient's message, with an optional free-text note after the command.
func (h *GratitudeHandler) HandleThanks(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	reply := c.Message().ReplyTo
	if reply == nil || reply.Sender == nil {
		return c.Reply("❌ 감사를 전할 멤버의 메시지에 답장하면서 사용해주세요.\n예: (답장으로) /thanks 오늘 발표 최고였어요!")
	}
	target := reply.Sender
	if target.IsBot {
		return c.Reply("❌ 봇에게는 감사를 보낼 수 없어요.")
	}

	result, err := h.gratitude.Send(ctx, &service.SendRequest{
		FromUserID:   platformID(sender),
		FromUsername: usernameOf(sender),
		FromNickname: nicknameOf(sender),
		ToUserID:     platformID(target),
		ToUsername:   usernameOf(target),
		ToNickname:   nicknameOf(target),
		Message:      strings.Join(c.Args(), " "),
	})
	if err != nil {
		return c.Reply(errTryAgain)
	}
	return c.Reply(result.Message)
}

// HandleThanksLog handles the /thanks_log command.
func (h *GratitudeHandler) HandleThanksLog(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	result, err := h.gratitude.History(ctx, platformID(sender), 10)
	if err != nil {
		return c.Reply(errTryAgain)
	}
	return c.Reply(result.Message)
}
