package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"videoreach/config"
	"videoreach/outreach"
	"videoreach/pipeline"
	"videoreach/queue"
	"videoreach/script"
	"videoreach/server"
	"videoreach/service"
	"videoreach/speech"
	"videoreach/store"
	"videoreach/upload"
	"videoreach/video"
	"videoreach/visuals"
)

func main() {
	// Load .env (local dev only — production uses real env vars)
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	for _, dir := range cfg.Dirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create dir %s: %v", dir, err)
		}
	}

	logger, closeLog := config.SetupLogger(cfg.Logging)
	defer closeLog()

	secrets := config.SecretsFromEnv()

	st, err := store.OpenSQLite(cfg.Paths.Database)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Collaborators.
	gemini := script.NewClient(secrets.GeminiAPIKey, cfg.Script.Model, cfg.Script.Temperature, logger)
	synth := speech.New(secrets.AzureSpeechKey, cfg.Speech.Region, cfg.Speech.OutputFormat, logger)
	images := visuals.NewFallback(logger,
		visuals.NewUnsplash(secrets.UnsplashKey),
		visuals.NewPixabay(secrets.PixabayKey),
	)
	producer := video.NewProducer(synth, gemini, images, cfg, logger)
	uploader := upload.New(upload.Credentials{
		ClientID:     secrets.YouTubeClientID,
		ClientSecret: secrets.YouTubeClientSecret,
		RefreshToken: secrets.YouTubeRefreshToken,
	}, cfg.Upload, logger)
	mailer := outreach.NewMailer(outreach.SMTPConfig{
		Host:     secrets.SMTPHost,
		Port:     secrets.SMTPPort,
		Username: secrets.SMTPUser,
		Password: secrets.SMTPPass,
		From:     secrets.MailFrom,
	}, cfg.Outreach.Subject, cfg.Outreach.AdText, logger)
	campaign := outreach.NewCampaign(cfg.Audience.DatasetPath, cfg.Paths.Campaigns, uploader, mailer, logger)

	// Pipeline chain.
	chain := pipeline.NewChain(st, logger,
		pipeline.NewScriptStep(gemini, logger),
		pipeline.NewVideoStep(st, producer, logger),
		pipeline.NewOutreachStep(st, campaign, logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q := queue.New(cfg.Queue.Workers, logger)
	q.Start(ctx)
	defer q.Shutdown()

	svc := service.New(st, q, chain, gemini, synth, cfg.Paths.TempAssets, logger)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(svc, cfg.Paths.Uploads, logger),
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	logger.Info("shut down cleanly")
}
