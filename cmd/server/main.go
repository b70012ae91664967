package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"line-checkin/internal/checkin"
	"line-checkin/internal/gsheets"
	"line-checkin/internal/handlers"
	"line-checkin/internal/line"
	"line-checkin/internal/store"
	"line-checkin/internal/version"
	"line-checkin/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("timezone %q: %v", cfg.Timezone, err)
	}

	ctx := context.Background()

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := db.RunMigrations(ctx, "."); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	sheetStore, err := gsheets.NewStore(ctx, cfg.GoogleCredentialsFile, cfg.SpreadsheetID)
	if err != nil {
		log.Fatalf("sheets: %v", err)
	}
	lineClient := &line.Client{ChannelToken: cfg.ChannelAccessToken}

	rec := checkin.NewRecorder(sheetStore, lineClient, checkin.Options{
		Location:       loc,
		SummaryEnabled: cfg.SummaryEnabled,
		PromptCard:     cfg.PromptCard,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Basic server-level timeouts via stdlib server
	srv := &http.Server{
		Addr:              cfg.Address(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	handlers.RegisterRoutes(e, cfg, rec, db)

	log.Printf("line-checkin %s listening on %s", version.Version, cfg.Address())
	if err := e.StartServer(srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
