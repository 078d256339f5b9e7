package handler

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"cohort-points-bot/internal/config"
	"cohort-points-bot/internal/service"
)

// AttendanceHandler handles approval and attendance summary commands.
type AttendanceHandler struct {
	cfg        *config.Config
	attendance *service.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(cfg *config.Config, attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{cfg: cfg, attendance: attendance}
}

// HandleApprove handles the /approve command. A manager replies to a
// member's message inside a weekly thread; the week comes from the thread
// or chat name (digits followed by 주차), overridable with an explicit
// argument. Redelivered approvals are reported as already recorded, never
// as failures.
func (h *AttendanceHandler) HandleApprove(c tele.Context) error {
	ctx := context.Background()

	reply := c.Message().ReplyTo
	if reply == nil || reply.Sender == nil {
		return c.Reply("❌ 출석으로 인정할 멤버의 메시지에 답장하면서 사용해주세요.")
	}
	member := reply.Sender

	week, ok := h.resolveWeek(c)
	if !ok {
		return c.Reply("❌ 주차를 알 수 없어요. 스레드 이름에 \"N주차\"를 포함하거나 /approve <주차> 형식으로 사용해주세요.")
	}

	day := 1
	if h.cfg.Points.TrackDays {
		day = dayArg(c.Args())
	}

	channelID := c.Chat().ID
	replyMessageID := int64(reply.ID)
	result, err := h.attendance.Record(ctx, &service.RecordRequest{
		UserID:         platformID(member),
		Username:       usernameOf(member),
		Nickname:       nicknameOf(member),
		Generation:     h.cfg.Points.DefaultGeneration,
		Week:           week,
		Day:            day,
		ChannelID:      &channelID,
		ReplyMessageID: &replyMessageID,
	})
	if err != nil {
		return c.Reply(errTryAgain)
	}

	// Best-effort confirmation on the member's message; failure ignored.
	if result.Credited {
		if _, err := c.Bot().Reply(reply, result.Message); err != nil {
			log.Warn().Err(err).Msg("Failed to send approval confirmation")
			return c.Reply(result.Message)
		}
		return nil
	}
	return c.Reply(result.Message)
}

// resolveWeek takes an explicit week argument when present, otherwise
// parses the chat/thread name.
func (h *AttendanceHandler) resolveWeek(c tele.Context) (int, bool) {
	if args := c.Args(); len(args) > 0 {
		if week, err := strconv.Atoi(args[0]); err == nil && week >= 1 {
			return week, true
		}
	}
	return parseWeek(c.Chat().Title)
}

// dayArg reads an optional second argument as the day, defaulting to 1.
func dayArg(args []string) int {
	if len(args) >= 2 {
		if day, err := strconv.Atoi(args[1]); err == nil && day >= 1 {
			return day
		}
	}
	return 1
}

// HandleWeek handles the /week command: /week [generation] <week>.
func (h *AttendanceHandler) HandleWeek(c tele.Context) error {
	ctx := context.Background()
	args := c.Args()

	generation := h.cfg.Points.DefaultGeneration
	var week int
	switch len(args) {
	case 1:
		w, err := strconv.Atoi(args[0])
		if err != nil {
			return c.Reply("❌ 사용법: /week [기수] <주차>")
		}
		week = w
	case 2:
		g, err1 := strconv.Atoi(args[0])
		w, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			return c.Reply("❌ 사용법: /week [기수] <주차>")
		}
		generation, week = g, w
	default:
		return c.Reply("❌ 사용법: /week [기수] <주차>")
	}

	summary, err := h.attendance.WeekSummary(ctx, generation, week)
	if err != nil {
		return c.Reply(errTryAgain)
	}

	msg := fmt.Sprintf("📊 %d기 %d주차 출석\n고유 출석 인원: %d명", generation, week, summary.UniqueAttendees)
	if len(summary.PerDay) > 0 {
		days := make([]int, 0, len(summary.PerDay))
		for day := range summary.PerDay {
			days = append(days, day)
		}
		sort.Ints(days)
		msg += "\n일자별:"
		for _, day := range days {
			msg += fmt.Sprintf("\n• %d일차: %d명", day, summary.PerDay[day])
		}
	}
	return c.Reply(msg)
}

// HandleOverview handles the /overview command: /overview [generation] <uptoWeek>.
func (h *AttendanceHandler) HandleOverview(c tele.Context) error {
	ctx := context.Background()
	args := c.Args()

	generation := h.cfg.Points.DefaultGeneration
	uptoWeek := 12
	switch len(args) {
	case 1:
		w, err := strconv.Atoi(args[0])
		if err != nil {
			return c.Reply("❌ 사용법: /overview [기수] <주차>")
		}
		uptoWeek = w
	case 2:
		g, err1 := strconv.Atoi(args[0])
		w, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			return c.Reply("❌ 사용법: /overview [기수] <주차>")
		}
		generation, uptoWeek = g, w
	}

	weeks, err := h.attendance.Overview(ctx, generation, uptoWeek)
	if err != nil {
		return c.Reply(errTryAgain)
	}
	if len(weeks) == 0 {
		return c.Reply(fmt.Sprintf("📊 %d기 출석 기록이 아직 없어요.", generation))
	}

	msg := fmt.Sprintf("📊 %d기 주차별 출석", generation)
	for _, wc := range weeks {
		msg += fmt.Sprintf("\n• %d주차: %d명", wc.Week, wc.UniqueAttendees)
	}
	return c.Reply(msg)
}
