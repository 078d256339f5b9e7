// Package main is the entry point for the cohort points bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cohort-points-bot/internal/bot"
	"cohort-points-bot/internal/clock"
	"cohort-points-bot/internal/config"
	"cohort-points-bot/internal/pkg/db"
	"cohort-points-bot/internal/publisher"
	"cohort-points-bot/internal/repository"
	"cohort-points-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Info().Msg("Configuration loaded successfully")

	clk, err := clock.New(cfg.Points.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Points.Timezone).Msg("Failed to load time zone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	attendanceRepo := repository.NewAttendanceRepository(dbPool.Pool)
	gratitudeRepo := repository.NewGratitudeRepository(dbPool.Pool)
	codeRepo := repository.NewAttendanceCodeRepository(dbPool.Pool)

	// Services; the ledger is the single append path for all point deltas.
	ledger := service.NewLedger(userRepo, txRepo)
	attendanceService := service.NewAttendanceService(
		userRepo, attendanceRepo, ledger, clk, cfg.Points.AttendanceAward,
	)
	gratitudeService := service.NewGratitudeService(
		userRepo, gratitudeRepo, ledger, clk,
		cfg.Points.GratitudeAward,
		cfg.Points.GratitudeDailyLimit,
		cfg.Points.GratitudeMessageMax,
		cfg.Points.DefaultGeneration,
	)
	adminService := service.NewAdminService(userRepo, ledger, cfg.Points.DefaultGeneration)
	legacyService := service.NewLegacyService(
		userRepo, attendanceRepo, codeRepo, ledger, clk,
		cfg.Points.AttendanceAward, cfg.Points.DefaultGeneration,
	)

	deps := &bot.Dependencies{
		Config:            cfg,
		DB:                dbPool,
		Ledger:            ledger,
		AttendanceService: attendanceService,
		GratitudeService:  gratitudeService,
		AdminService:      adminService,
		LegacyService:     legacyService,
	}

	chatBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Announce transactions to the configured channel, if any.
	if cfg.Bot.AnnounceChatID != 0 {
		announcer := bot.NewAnnouncer(chatBot.Telebot(), cfg.Bot.AnnounceChatID)
		ledger.AddObserver(publisher.New(userRepo, announcer))
		log.Info().Int64("chat_id", cfg.Bot.AnnounceChatID).Msg("Transaction announcements enabled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		chatBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	chatBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}
