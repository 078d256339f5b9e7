// Package bot provides the chat bot initialization and handler
// registration.
package bot

import (
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"cohort-points-bot/internal/config"
	"cohort-points-bot/internal/handler"
	"cohort-points-bot/internal/pkg/db"
	"cohort-points-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	pointsHandler     *handler.PointsHandler
	attendanceHandler *handler.AttendanceHandler
	gratitudeHandler  *handler.GratitudeHandler
	adminHandler      *handler.AdminHandler
	legacyHandler     *handler.LegacyHandler
	systemHandler     *handler.SystemHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config            *config.Config
	DB                *db.Pool
	Ledger            *service.Ledger
	AttendanceService *service.AttendanceService
	GratitudeService  *service.GratitudeService
	AdminService      *service.AdminService
	LegacyService     *service.LegacyService
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
	}

	b.pointsHandler = handler.NewPointsHandler(deps.Ledger, deps.AttendanceService, deps.GratitudeService)
	b.attendanceHandler = handler.NewAttendanceHandler(deps.Config, deps.AttendanceService)
	b.gratitudeHandler = handler.NewGratitudeHandler(deps.GratitudeService)
	b.adminHandler = handler.NewAdminHandler(deps.AdminService)
	b.legacyHandler = handler.NewLegacyHandler(deps.LegacyService)
	b.systemHandler = handler.NewSystemHandler(deps.DB)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// Telebot exposes the underlying telebot instance for the announcer.
func (b *Bot) Telebot() *tele.Bot {
	return b.bot
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command handlers.
func (b *Bot) registerHandlers() {
	// Member commands
	b.bot.Handle("/help", b.systemHandler.HandleHelp)
	b.bot.Handle("/ping", b.systemHandler.HandlePing)
	b.bot.Handle("/points", b.pointsHandler.HandlePoints)
	b.bot.Handle("/rank", b.pointsHandler.HandleRank)
	b.bot.Handle("/my_attendance", b.pointsHandler.HandleMyAttendance)
	b.bot.Handle("/thanks", b.gratitudeHandler.HandleThanks)
	b.bot.Handle("/thanks_log", b.gratitudeHandler.HandleThanksLog)
	b.bot.Handle("/week", b.attendanceHandler.HandleWeek)
	b.bot.Handle("/overview", b.attendanceHandler.HandleOverview)
	b.bot.Handle("/checkin", b.legacyHandler.HandleCheckIn)

	// Manager commands
	managerGroup := b.bot.Group()
	managerGroup.Use(ManagerMiddleware(b.cfg))
	managerGroup.Handle("/approve", b.attendanceHandler.HandleApprove)
	managerGroup.Handle("/grant", b.adminHandler.HandleGrant)
	managerGroup.Handle("/revoke", b.adminHandler.HandleRevoke)
	managerGroup.Handle("/code_new", b.legacyHandler.HandleCodeNew)
}

// Start begins polling for updates. Blocks until Stop is called.
func (b *Bot) Start() {
	b.bot.Start()
}

// Stop gracefully stops the bot.
func (b *Bot) Stop() {
	b.bot.Stop()
}
