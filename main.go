package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/meeting_agent/internal/config"
	"github.com/omriShneor/meeting_agent/internal/database"
	"github.com/omriShneor/meeting_agent/internal/dialogue"
	"github.com/omriShneor/meeting_agent/internal/extract"
	"github.com/omriShneor/meeting_agent/internal/gcal"
	"github.com/omriShneor/meeting_agent/internal/logging"
	"github.com/omriShneor/meeting_agent/internal/notify"
	"github.com/omriShneor/meeting_agent/internal/server"
	"github.com/omriShneor/meeting_agent/internal/session"
	"github.com/omriShneor/meeting_agent/internal/sse"
	"github.com/omriShneor/meeting_agent/internal/timeutil"
)

const tokenAccount = "calendar"

func main() {
	cfg := config.LoadFromEnv()

	logger, err := logging.New(cfg.DevMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal("creating database", zap.Error(err))
	}
	defer db.Close()

	dates := timeutil.NewParser(true)

	extractor, closeExtractor, err := extract.Build(ctx, extractOptions(cfg), dates, logger)
	if err != nil {
		logger.Fatal("creating extractor", zap.Error(err))
	}
	defer closeExtractor()

	events := sse.NewHub()

	gcalClient := initGCalClient(ctx, cfg, db, logger)
	var gateway dialogue.CalendarGateway = gcal.DryRunGateway{}
	switch {
	case gcalClient == nil:
		logger.Warn("google calendar unavailable, bookings will not reach a calendar")
	case gcalClient.IsAuthenticated():
		events.SetGCalStatus(sse.GCalConnected)
	default:
		events.SetGCalStatus(sse.GCalNeedsAuth)
	}
	if gcalClient != nil {
		gateway = gcal.NewGateway(gcalClient, cfg.CalendarID)
	}

	store := session.NewStore(logger)
	if cfg.SessionIdleTimeout > 0 {
		store.StartJanitor(ctx, cfg.SessionIdleTimeout/2, cfg.SessionIdleTimeout)
	}

	notifyService := notify.NewService(cfg.NotifyEmail, initEmailNotifier(cfg), logger)

	engine := dialogue.NewEngine(store, extractor, dates, gateway,
		dialogue.Config{
			DurationMinutes: cfg.MeetingDuration,
			Timezone:        cfg.CalendarTimezone,
			AllowPastDates:  cfg.AllowPastDates,
		},
		dialogue.WithRecorder(db),
		dialogue.WithNotifier(notifyService),
		dialogue.WithNotifier(events),
		dialogue.WithLogger(logger),
	)

	srvCfg := server.Config{
		Engine:             engine,
		Bookings:           db,
		Sessions:           store,
		Events:             events,
		Logger:             logger,
		Port:               cfg.HTTPPort,
		CORSAllowedOrigin:  cfg.CORSAllowedOrigin,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
	}
	if gcalClient != nil {
		srvCfg.GCal = gcalClient
	}
	srv := server.New(srvCfg)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	logger.Info("meeting agent ready",
		zap.Int("port", cfg.HTTPPort),
		zap.String("extractor", cfg.ExtractorMode),
		zap.String("timezone", cfg.CalendarTimezone),
	)

	waitForShutdown(srv, cancel, logger)
}

func extractOptions(cfg *config.Config) extract.Options {
	return extract.Options{
		Mode:              cfg.ExtractorMode,
		Provider:          cfg.LLMProvider,
		GeminiAPIKey:      cfg.GeminiAPIKey,
		GeminiModel:       cfg.GeminiModel,
		GeminiTemperature: float32(cfg.GeminiTemperature),
		AnthropicAPIKey:   cfg.AnthropicAPIKey,
		ClaudeModel:       cfg.ClaudeModel,
		ClaudeTemperature: cfg.ClaudeTemperature,
	}
}

// initGCalClient returns nil when no OAuth credentials are available
func initGCalClient(ctx context.Context, cfg *config.Config, db *database.DB, logger *zap.Logger) *gcal.Client {
	var tokens gcal.TokenStore = gcal.NewFileTokenStore(cfg.GoogleTokenFile)
	if cfg.TokenEncryptionKey != "" {
		dbTokens, err := database.NewGoogleTokenStore(db, tokenAccount, cfg.TokenEncryptionKey)
		if err != nil {
			logger.Fatal("creating token store", zap.Error(err))
		}
		tokens = dbTokens
	}

	client, err := gcal.NewClient(ctx, cfg.GoogleCredentialsFile, cfg.BaseURL, tokens, logger)
	if err != nil {
		logger.Warn("google calendar client not created", zap.Error(err))
		return nil
	}

	if !client.IsAuthenticated() {
		logger.Info("google calendar not connected", zap.String("connect_url", cfg.BaseURL+"/api/gcal/connect"))
	}
	return client
}

func initEmailNotifier(cfg *config.Config) notify.Notifier {
	n := notify.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailFrom)
	if n == nil {
		return nil
	}
	return n
}

func waitForShutdown(srv *server.Server, cancel context.CancelFunc, logger *zap.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("shutting down")
	cancel()

	ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown", zap.Error(err))
	}
}
