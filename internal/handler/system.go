package handler

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"cohort-points-bot/internal/pkg/db"
)

// SystemHandler handles the help and status commands.
type SystemHandler struct {
	db *db.Pool
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(pool *db.Pool) *SystemHandler {
	return &SystemHandler{db: pool}
}

// helpText lists the available commands.
func helpText() string {
	return "📚 도움말 (명령어 안내)\n" +
		"\n일반\n" +
		"• /ping — 봇 및 DB 상태 확인\n" +
		"• /help — 이 도움말 표시\n" +
		"\n포인트\n" +
		"• /points — 내 포인트와 출석/감사 요약\n" +
		"• /rank — 포인트 랭킹\n" +
		"• /my_attendance — 내 출석 기록\n" +
		"• /thanks — (답장으로) 감사 보내기 (+5p/+5p, 하루 2회)\n" +
		"• /thanks_log — 감사 주고받은 내역\n" +
		"• /week [기수] <주차> — 주차별 출석 현황\n" +
		"• /overview [기수] <주차> — 주차별 출석 개요\n" +
		"• /checkin <회차> <코드> — 코드 출석 체크 (+100p)\n" +
		"\n관리자\n" +
		"• /approve — (답장으로) 출석 인정 (+100p)\n" +
		"• /grant, /revoke — (답장으로) 포인트 지급/회수\n" +
		"• /code_new <회차> <코드> — 출석 코드 생성"
}

// HandleHelp handles the /help command.
func (h *SystemHandler) HandleHelp(c tele.Context) error {
	return c.Reply(helpText())
}

// HandlePing handles the /ping command: bot liveness plus database
// round-trip latency.
func (h *SystemHandler) HandlePing(c tele.Context) error {
	ctx := context.Background()

	dbStatus := "연결됨 ✓"
	start := time.Now()
	if err := h.db.HealthCheck(ctx); err != nil {
		dbStatus = "끊김 ✗"
	}
	latency := time.Since(start)

	return c.Reply(fmt.Sprintf("🏓 퐁!\n• DB: %s (%dms)", dbStatus, latency.Milliseconds()))
}
