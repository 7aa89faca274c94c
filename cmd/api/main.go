package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/bridge"
	"receptionist-platform/internal/business"
	"receptionist-platform/internal/calendar"
	"receptionist-platform/internal/callstore"
	"receptionist-platform/internal/config"
	"receptionist-platform/internal/finalize"
	"receptionist-platform/internal/notify"
	"receptionist-platform/internal/realtime"
	"receptionist-platform/internal/reporting"
	"receptionist-platform/internal/schedule"
	"receptionist-platform/internal/session"
	"receptionist-platform/pkg/logger"
	"receptionist-platform/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		log.Error("timezone load failed", "tz", cfg.Schedule.Timezone, "err", err)
		os.Exit(1)
	}

	var cal calendar.Service
	if cfg.Calendar.CredentialsJSON != "" {
		g, err := calendar.NewGoogle(rootCtx, []byte(cfg.Calendar.CredentialsJSON))
		if err != nil {
			log.Error("calendar init failed", "err", err)
			os.Exit(1)
		}
		cal = g
	} else {
		// Local runs without Google credentials book against an in-memory
		// calendar.
		log.Warn("GOOGLE_CALENDAR_CREDENTIALS not set, using in-memory calendar")
		cal = calendar.NewMemory()
	}

	sessions := session.NewStore()
	store := callstore.SQLRepo{DB: db}
	businesses := &business.Service{Repo: business.SQLRepo{DB: db}}
	if cfg.Fallback.Enabled() {
		businesses.Fallback = &business.Profile{
			ID:           "default",
			Name:         cfg.Fallback.Name,
			AgentName:    cfg.Fallback.AgentName,
			Industry:     cfg.Fallback.Industry,
			OwnerEmail:   cfg.Fallback.OwnerEmail,
			CalendarID:   cfg.Calendar.DefaultID,
			TrialLinkURL: cfg.Fallback.TrialLinkURL,
		}
		log.Info("fallback business profile enabled", "name", cfg.Fallback.Name)
	}

	finder := schedule.Finder{
		Loc: loc,
		Hours: schedule.Hours{
			OpenHour:         cfg.Schedule.OpenHour,
			LastBookableHour: cfg.Schedule.LastBookableHour,
		},
		SlotLen:     time.Hour,
		MorningHour: cfg.Schedule.MorningHour,
	}

	email := notify.SendGrid{
		APIKey:    cfg.SendGrid.APIKey,
		FromEmail: cfg.SendGrid.FromEmail,
		FromName:  cfg.SendGrid.FromName,
	}
	sms := notify.TwilioSMS{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		FromNumber: cfg.Twilio.SMSFrom,
	}
	alerts := notify.NewSlackAlerter(cfg.Slack.BotToken, cfg.Slack.AlertChannel)

	finalizer := &finalize.Workflow{
		Sessions: sessions,
		Calendar: cal,
		Email:    email,
		Alerts:   alerts,
		Store:    store,
		Once:     finalize.RedisOnce{RDB: rdb},
		RDB:      rdb,
		Log:      log,
		SlotLen:  time.Hour,
	}

	mediaStream := &bridge.Handler{
		Sessions: sessions,
		Realtime: realtime.Config{
			APIKey:          cfg.OpenAI.APIKey,
			Model:           cfg.OpenAI.Model,
			DialTimeout:     cfg.OpenAI.DialTimeout,
			ConnectAttempts: cfg.OpenAI.ConnectAttempts,
			ConnectBackoff:  cfg.OpenAI.ConnectBackoff,
			PingInterval:    cfg.OpenAI.PingInterval,
			PongTimeout:     cfg.OpenAI.PongTimeout,
		},
		Calendar:        cal,
		Finder:          finder,
		SMS:             sms,
		Store:           store,
		GraceWindow:     cfg.Call.GraceWindow,
		MaxCallDuration: cfg.Call.MaxCallDuration,
		DaysAhead:       cfg.Schedule.DaysAhead,
		Voice:           cfg.OpenAI.Voice,
		Temperature:     cfg.OpenAI.Temperature,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		cfg:         cfg,
		auth:        authManager,
		sessions:    sessions,
		store:       store,
		businesses:  businesses,
		mediaStream: mediaStream,
		finalizer:   finalizer,
		reports:     reporting.NewService(reporting.SQLRepo{DB: db}),
		rdb:         rdb,
	})

	// Reaper: sessions whose calls never got a status callback are failed
	// and finalized so they don't leak.
	reaper := cron.New()
	if _, err := reaper.AddFunc("@every 1m", func() {
		stale := sessions.Reap(time.Now(), cfg.Call.MaxCallDuration+5*time.Minute)
		for _, call := range stale {
			snap := call.Snapshot()
			log.Warn("reaped stale session", "call_sid", snap.CallSid)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := alerts.Alert(ctx, fmt.Sprintf("Call %s from %s reaped after exceeding max duration", snap.CallSid, snap.CallerPhone)); err != nil {
				log.Error("reap alert failed", "err", err)
			}
			if err := store.UpdateCallStatus(ctx, snap.CallSid, callstore.CallStatusFailed); err != nil {
				log.Warn("reap status update failed", "err", err)
			}
			if snap.Business.ID != "" {
				if err := utils.ReleaseConcurrencyCap(ctx, rdb, finalize.CapKey(snap.Business.ID)); err != nil {
					log.Warn("reap cap release failed", "err", err)
				}
			}
			cancel()
		}
	}); err != nil {
		log.Error("reaper init failed", "err", err)
		os.Exit(1)
	}
	reaper.Start()
	defer reaper.Stop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Media-stream WebSockets are long-lived; no write timeout.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
