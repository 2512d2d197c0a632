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
	"go.uber.org/zap/zapcore"

	"portfolio/internal/config"
	"portfolio/internal/domain"
	"portfolio/internal/recaptcha"
	"portfolio/internal/repository"
	"portfolio/internal/server"
	"portfolio/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	connectTimeout  = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.App.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.Bool("debug", cfg.App.Debug),
		zap.String("store", cfg.Database.Backend),
		zap.Bool("email_enabled", cfg.Email.Enabled),
		zap.Bool("verification_enabled", cfg.Recaptcha.Enabled()),
	)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	store, closeStore, err := repository.Open(ctx, &cfg.Database, log)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeStore()

	emailSvc := services.NewEmailService(&cfg.Email, log)
	notifier := services.NewNotifier(emailSvc, services.NotifierConfig{
		OwnerEmail: cfg.Notify.OwnerEmail,
		OwnerName:  cfg.Notify.OwnerName,
		Signature:  cfg.Notify.Signature,
		Timeout:    cfg.Pipeline.OutboundTimeout,
	}, log)

	var verifier services.Verifier
	if cfg.Recaptcha.Enabled() {
		verifier = recaptcha.NewClient(cfg.Recaptcha.SecretKey, cfg.Recaptcha.VerifyURL, cfg.Pipeline.OutboundTimeout, log)
	}

	contactSvc := services.NewContactService(store, notifier, verifier, services.PipelineOptions{
		Source:                 domain.SourceContact,
		AntiAbuseEnabled:       true,
		SendAcknowledgment:     true,
		RequireVerification:    cfg.Pipeline.RequireVerification,
		RequireClientTimestamp: cfg.Pipeline.RequireClientTimestamp,
		MinScore:               cfg.Recaptcha.MinScore,
		FreshnessWindow:        cfg.Pipeline.FreshnessWindow,
		OutboundTimeout:        cfg.Pipeline.OutboundTimeout,
	}, log)
	sendEmailSvc := services.NewContactService(store, notifier, nil, services.PipelineOptions{
		Source:          domain.SourceSendEmail,
		OutboundTimeout: cfg.Pipeline.OutboundTimeout,
		SuccessMessage:  services.MessageReceived,
		DegradedMessage: services.MessageReceived,
	}, log)
	healthSvc := services.NewHealthService(store, cfg.Pipeline.OutboundTimeout)

	srv := server.New(cfg, contactSvc, sendEmailSvc, healthSvc, log)

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     zap.NewStdLog(log.Named("http")),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel = context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("graceful shutdown failed, forcing close", zap.Error(err))
		_ = httpServer.Close()
	}
	log.Info("server shutdown complete")
	return nil
}
