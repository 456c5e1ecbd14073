package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jask/artview/internal/catalog"
	"github.com/jask/artview/internal/catalog/artic"
	"github.com/jask/artview/internal/config"
	"github.com/jask/artview/internal/database"
	"github.com/jask/artview/internal/database/repository"
	"github.com/jask/artview/internal/logger"
	"github.com/jask/artview/internal/service"
	"github.com/jask/artview/internal/testdata"
	"github.com/jask/artview/internal/tui"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.Log.Level, Path: cfg.Log.Path})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl = zl.With(zap.String("session", uuid.NewString()))

	if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o755); err != nil {
		log.Fatalf("mkdir cache dir: %v", err)
	}

	db, err := database.Open(cfg.Cache.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrationsWithDB(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var upstream catalog.Provider
	source := "artic"
	if cfg.API.Offline {
		upstream = testdata.NewProvider(500, 1)
		source = "offline"
	} else {
		upstream = artic.NewClient(artic.Config{
			BaseURL:           cfg.API.BaseURL,
			Timeout:           cfg.API.Timeout,
			MaxRetries:        cfg.API.MaxRetries,
			RetryBackoff:      cfg.API.RetryBackoff,
			RequestsPerMinute: cfg.API.RequestsPerMinute,
			UserAgent:         cfg.API.UserAgent,
			MaxResults:        cfg.API.MaxResults,
		}, nil, zl.Named("artic"))
	}

	// every attempt and the backoff between them
	retries := max(cfg.API.MaxRetries, 0)
	fetchTimeout := time.Duration(retries+1)*cfg.API.Timeout +
		time.Duration(1<<retries-1)*cfg.API.RetryBackoff

	cached := &service.CachedProvider{
		Upstream:     upstream,
		Pages:        repository.NewPageRepo(db),
		Source:       source,
		TTL:          cfg.Cache.TTL,
		FetchTimeout: fetchTimeout,
		Logger:       zl.Named("cache"),
	}
	maintenance := &service.MaintenanceService{DB: db}

	zl.Info("starting",
		zap.String("source", source),
		zap.Int("rows_per_page", cfg.UI.RowsPerPage),
		zap.Bool("uncheck_removes", cfg.UI.UncheckRemoves))

	p := tea.NewProgram(tui.New(ctx, cfg, cached,
		tui.Services{Maintenance: maintenance, Cache: cached},
		zl.Named("tui"),
	), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		zl.Error("program exited", zap.Error(err))
		fmt.Printf("error: %v\n", err)
	}
}
