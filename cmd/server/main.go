package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgallion1/dragonfly/internal/api"
	"github.com/dgallion1/dragonfly/internal/config"
	"github.com/dgallion1/dragonfly/internal/data"
	"github.com/dgallion1/dragonfly/internal/geonames"
	"github.com/dgallion1/dragonfly/internal/hints"
	"github.com/dgallion1/dragonfly/internal/notes"
	"github.com/dgallion1/dragonfly/internal/pipeline"
	"github.com/dgallion1/dragonfly/internal/recommend"
	"github.com/dgallion1/dragonfly/internal/search"
	"github.com/dgallion1/dragonfly/internal/session"
	"github.com/dgallion1/dragonfly/internal/settings"
	"github.com/dgallion1/dragonfly/internal/store"
	"github.com/dgallion1/dragonfly/internal/tagging"
	"github.com/dgallion1/dragonfly/internal/watcher"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("cannot load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	tags, err := tagging.NewRegistry(cfg.Tags...)
	if err != nil {
		log.Error("invalid tag set", "error", err)
		os.Exit(1)
	}
	lister, err := data.NewFileLister(cfg.DataPath, cfg.FileExt)
	if err != nil {
		log.Error("no documents", "error", err)
		os.Exit(1)
	}

	meta := cfg.MetadataPath()
	st, err := store.Open(filepath.Join(meta, store.DBFile))
	if err != nil {
		log.Error("cannot open store", "error", err)
		os.Exit(1)
	}
	np, err := notes.New(filepath.Join(meta, "notes"))
	if err != nil {
		log.Error("cannot open notes", "error", err)
		os.Exit(1)
	}

	hs := &hints.Set{}
	if cfg.HintsFile != "" {
		var problems []error
		hs, problems, err = hints.LoadFile(cfg.HintsFile)
		if err != nil {
			log.Error("cannot load hints", "error", err)
			os.Exit(1)
		}
		for _, p := range problems {
			log.Warn("skipped hint", "file", cfg.HintsFile, "error", p)
		}
	}

	globalDir := ""
	if dir, err := os.UserConfigDir(); err == nil {
		globalDir = filepath.Join(dir, "dragonfly")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := search.NewLocal(lister.Files, meta, cfg.SearchMaxEntries, log)
	local.Start(ctx)

	refresh := func() {
		if err := lister.Refresh(); err != nil {
			log.Warn("document list refresh failed", "error", err)
		}
		local.Rebuild()
	}

	rec, err := recommend.New(lister.Files, cfg.AnnotationsPath(), filepath.Join(meta, "recommendations"), log)
	if err != nil {
		log.Error("cannot open recommendations", "error", err)
		os.Exit(1)
	}
	freq, err := recommend.NewFrequencies(filepath.Join(meta, "frequencies"))
	if err != nil {
		log.Error("cannot open tag frequencies", "error", err)
		os.Exit(1)
	}

	recordFrequencies := func(p data.SavePayload) {
		if err := freq.Update(p); err != nil {
			log.Warn("tag frequencies not updated", "file", p.Filename, "error", err)
		}
	}

	sessions := session.NewManager(session.Options{
		Tags:                   tags,
		Lister:                 lister,
		Lookup:                 local,
		AnnotationsDir:         cfg.AnnotationsPath(),
		OutputDir:              cfg.OutputDir,
		AdjudicateDirs:         cfg.AdjudicateDirs,
		ForceTerminalBlankLine: cfg.ForceTerminalBlankLine,
		OnSave:                 recordFrequencies,
		UndoCapacity:           cfg.UndoCapacity,
		TTL:                    cfg.SessionTTL,
	}, log)
	sessions.Start(ctx)

	// Initialize import pipeline.
	orch := pipeline.NewOrchestrator(cfg, cfg.DataDir(), func(string) { refresh() }, log)
	orch.Start(ctx)

	var w *watcher.Watcher
	if cfg.WatchData && lister.Dir() == cfg.DataPath {
		w, err = watcher.New(lister.Dir(), cfg.FileExt, watcher.DefaultInterval, func(b watcher.Batch) {
			log.Info("documents changed", "changed", len(b.Changed), "removed", len(b.Removed))
			refresh()
		}, log)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			log.Warn("cannot watch data directory", "error", err)
			w = nil
		}
	}

	geo := geonames.NewClient(cfg.GeonamesURL)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Sessions:     sessions,
		Lister:       lister,
		Search:       local,
		Store:        st,
		Settings:     settings.NewManager(globalDir, meta),
		Notes:        np,
		Hints:        hs,
		Geonames:     geo,
		Orchestrator: orch,
		Recommender:  rec,
		Frequencies:  freq,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		if n := sessions.Len(); n > 0 {
			log.Info("closing open sessions", "count", n)
		}
		// Stop accepting requests before the import queue closes.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if w != nil {
			w.Stop()
		}
		cancel()

		geo.Close()
		st.Close()
	}()

	log.Info("starting dragonfly",
		"port", cfg.Port,
		"data", lister.Dir(),
		"documents", lister.Len(),
		"tags", cfg.Tags,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
