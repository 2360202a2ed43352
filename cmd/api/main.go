package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"twilio-integration/internal/audit"
	"twilio-integration/internal/auth"
	"twilio-integration/internal/calls"
	"twilio-integration/internal/config"
	"twilio-integration/internal/contacts"
	"twilio-integration/internal/events"
	"twilio-integration/internal/httpapi"
	"twilio-integration/internal/reporting"
	"twilio-integration/internal/routing"
	"twilio-integration/internal/telephony"
	"twilio-integration/internal/voicesettings"
	"twilio-integration/internal/voip"
	"twilio-integration/internal/whatsapp"
	"twilio-integration/pkg/logger"
	"twilio-integration/pkg/metrics"
	"twilio-integration/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
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

	m := metrics.New()

	// Services
	settings := telephony.NewPostgresSettings(db)
	callRepo := calls.NewPostgresRepo(db)
	callSvc := calls.NewService(callRepo)
	voiceSvc := voicesettings.NewService(voicesettings.NewPostgresRepo(db))
	eventSvc := events.NewService(events.NewPostgresRepo(db))
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))

	voipSvc := voip.NewService(voip.Deps{
		Connector:    telephony.NewTwilioConnector(settings, cfg.App.PublicBaseURL, cfg.Twilio.TokenTTL),
		Settings:     settings,
		Calls:        callSvc,
		Voice:        voiceSvc,
		Router:       routing.NewRoutingEngine(voiceSvc, callSvc),
		WhatsApp:     whatsapp.NewService(whatsapp.NewPostgresRepo(db), telephony.NewStatusTable(nil, cfg.Twilio.WhatsAppStatusMap)),
		Contacts:     contacts.NewService(contacts.NewPostgresRepo(db), cfg.App.DefaultPhoneRegion),
		Events:       eventSvc,
		Audit:        auditSvc,
		CallStatuses: telephony.NewStatusTable(telephony.DefaultCallStatuses, cfg.Twilio.CallStatusMap),
		Metrics:      m,
	})

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(httpapi.ClientIP())

	deps := routeDeps{
		Handlers: httpapi.Handlers{
			VoIP:           voipSvc,
			Reports:        reporting.NewService(callRepo),
			VoiceSettings:  voiceSvc,
			TwilioSettings: settings,
			Events:         eventSvc,
			Audit:          auditSvc,
			Metrics:        m,
		},
		AuthMW:  auth.RequireAccessToken(authManager),
		Metrics: m,
		Health: func(c *gin.Context) error {
			if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
				return err
			}
			return rdb.Ping(c.Request.Context()).Err()
		},
		Redis:         rdb,
		DedupeTTL:     cfg.Twilio.WebhookDedupeTTL,
		PublicBaseURL: cfg.App.PublicBaseURL,
	}
	if cfg.Twilio.ValidateSignature {
		deps.Settings = settings
	} else {
		log.Warn("twilio signature validation disabled")
	}
	registerRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
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
}
