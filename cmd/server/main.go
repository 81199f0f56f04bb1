package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cryptochris8/Hysports-Soccer/internal/config"
	"github.com/cryptochris8/Hysports-Soccer/internal/feed"
	"github.com/cryptochris8/Hysports-Soccer/internal/game"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/match"
	"github.com/cryptochris8/Hysports-Soccer/internal/game/player"
	"github.com/cryptochris8/Hysports-Soccer/internal/repository"
	"github.com/cryptochris8/Hysports-Soccer/internal/sim"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

const summaryInterval = 5 * time.Second

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting Hysports soccer server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	store, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open summary store", zap.Error(err))
	}
	defer store.Close()

	matchMgr := game.NewManager(logger)
	world, err := sim.New(sim.Options{
		Manager:     matchMgr,
		Config:      cfg.Match(),
		Roles:       cfg.Roles(),
		Seed:        cfg.Simulation.Seed,
		Gravity:     cfg.Simulation.Gravity,
		PlayerSpeed: cfg.Simulation.PlayerSpeed,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("failed to create match", zap.Error(err))
	}
	m := world.Match()

	var recorder *game.ReplayRecorder
	if cfg.Replay.Enabled {
		recorder = game.NewReplayRecorder(logger, cfg.Replay.Dir)
		recorder.StartRecording(m)
	}

	// Start the spectator feed
	var hub *feed.Hub
	var httpServer *http.Server
	if cfg.Feed.Enabled {
		hub = feed.NewHub(cfg.Feed, logger)
		detach := hub.Attach(m)
		defer detach()
		go hub.Run(ctx)
		go publishSummaries(ctx, hub, m)

		mux := http.NewServeMux()
		mux.Handle(cfg.Feed.Path, hub)
		mux.HandleFunc("/matches", liveMatches(matchMgr))
		mux.HandleFunc("/summaries", savedSummaries(store, logger))
		httpServer = &http.Server{Addr: cfg.Feed.Address, Handler: mux}

		go func() {
			logger.Info("starting spectator feed",
				zap.String("address", cfg.Feed.Address),
				zap.String("path", cfg.Feed.Path),
			)
			if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error("feed server error", zap.Error(serveErr))
			}
		}()
	}

	// Run the match
	loop := game.NewLoop(world, cfg.Simulation.TickRate, logger)
	loopCtx, stopLoop := context.WithCancel(ctx)
	loopDone := make(chan struct{})
	world.Start()
	go func() {
		defer close(loopDone)
		_ = loop.Run(loopCtx)
	}()

	fullTime := make(chan struct{})
	if cfg.Simulation.MatchDuration > 0 {
		go watchClock(loopCtx, m, cfg.Simulation.MatchDuration, fullTime)
	}

	logger.Info("match started",
		zap.String("match_id", m.ID()),
		zap.Int("tick_rate", cfg.Simulation.TickRate),
		zap.Int("players", len(m.Stats())),
		zap.Duration("match_duration", cfg.Simulation.MatchDuration),
	)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-fullTime:
		logger.Info("full time", zap.Duration("sim_time", m.SimTime()))
	}

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	stopLoop()
	<-loopDone

	m.SetStatus(match.StatusFinished)
	summary := m.Summary()
	if hub != nil {
		hub.PublishSummary(m)
	}

	saveCtx, cancelSave := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.SaveSummary(saveCtx, summary); err != nil {
		logger.Error("failed to save match summary", zap.Error(err))
	}
	cancelSave()

	if recorder != nil {
		if err := recorder.SaveReplay(m.ID()); err != nil {
			logger.Error("failed to save replay", zap.Error(err))
		}
	}

	logger.Info("final score",
		zap.String("match_id", summary.MatchID),
		zap.Int(string(player.TeamRed), summary.Red.Goals),
		zap.Int(string(player.TeamBlue), summary.Blue.Goals),
		zap.Uint64("ticks", loop.Ticks()),
	)

	if httpServer != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("feed server shutdown", zap.Error(err))
		}
		cancelShutdown()
	}
	cancel()
	matchMgr.RemoveMatch(m.ID())

	logger.Info("Hysports soccer server stopped")
}

// watchClock closes done once the match has run for d of simulation time.
func watchClock(ctx context.Context, m *game.Match, d time.Duration, done chan<- struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.SimTime() >= d {
				close(done)
				return
			}
		}
	}
}

func publishSummaries(ctx context.Context, hub *feed.Hub, m *game.Match) {
	ticker := time.NewTicker(summaryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hub.PublishSummary(m)
		}
	}
}

func liveMatches(mgr *game.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches := mgr.GetAllMatches()
		out := make([]game.Summary, 0, len(matches))
		for _, m := range matches {
			out = append(out, m.Summary())
		}
		writeJSON(w, out)
	}
}

func savedSummaries(store repository.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		summaries, err := store.ListSummaries(r.Context(), limit)
		if err != nil {
			logger.Error("failed to list summaries", zap.Error(err))
			http.Error(w, "failed to list summaries", http.StatusInternalServerError)
			return
		}
		if summaries == nil {
			summaries = []game.Summary{}
		}
		writeJSON(w, summaries)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
