package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawnchairsociety/realmcore/internal/announce"
	"github.com/lawnchairsociety/realmcore/internal/config"
	"github.com/lawnchairsociety/realmcore/internal/database"
	"github.com/lawnchairsociety/realmcore/internal/game"
	"github.com/lawnchairsociety/realmcore/internal/gamedata"
	"github.com/lawnchairsociety/realmcore/internal/logger"
)

func main() {
	configFile := flag.String("config", "data/game.yaml", "Path to game config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	hashToken := flag.String("hash-token", "", "Print the bcrypt hash of a feed token and exit")
	createPlayer := flag.String("create-player", "", "Create a player with the given user id and exit")
	nickname := flag.String("nickname", "", "Nickname for -create-player")
	showKills := flag.Bool("kills", false, "Print the recent world-boss kill log and exit")
	flag.Parse()

	if *hashToken != "" {
		handleHashToken(*hashToken)
		return
	}

	// Initialize logger first (before any logging)
	logConfig, _ := logger.LoadConfig(*loggingConfig)
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Warning("Failed to load game config, using defaults", "path", *configFile, "error", err)
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid game config: %v", err)
	}

	templates, err := gamedata.Load(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to load game data: %v", err)
	}
	logger.Info("Game data loaded", "dir", cfg.DataDir, "monsters", len(templates.MonsterIDs()), "bosses", len(templates.BossIDs()))

	db, err := database.OpenWithConfig(database.FromSettings(cfg.Database))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	logger.Info("Player database initialized", "driver", db.Dialect().DriverName())

	ctx := context.Background()

	if *createPlayer != "" {
		handleCreatePlayer(ctx, game.New(db, templates, cfg), *createPlayer, *nickname)
		return
	}
	if *showKills {
		handleKills(ctx, db)
		return
	}

	hub := announce.NewHub(cfg.Announce)
	engine := game.New(db, templates, cfg, game.WithNotifier(announce.Multi(hub, announce.LogNotifier{})))

	if cfg.Announce.TokenHash == "" {
		logger.Warning("Announce feed has no token, any client may subscribe")
	}
	if len(cfg.Announce.AllowedOrigins) == 0 {
		logger.Info("Announce CORS policy", "mode", "same-origin")
	} else if len(cfg.Announce.AllowedOrigins) == 1 && cfg.Announce.AllowedOrigins[0] == "*" {
		logger.Warning("Announce CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("Announce CORS policy", "allowed_origins", cfg.Announce.AllowedOrigins)
	}

	if err := engine.Bosses().EnsureSpawned(ctx); err != nil {
		logger.Error("Initial world boss spawn check failed", "error", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws/announce", hub)
	mux.Handle("/bosses", bossesHandler(engine))

	srv := &http.Server{
		Addr:              cfg.Announce.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	logger.Info("Realm daemon running", "addr", cfg.Announce.ListenAddr)
	logger.Info("Press Ctrl+C to shutdown")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server")
	hub.Close()
	shutdownCtx, stop := context.WithTimeout(ctx, 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

func handleHashToken(token string) {
	hash, err := announce.HashToken(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to hash token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func handleCreatePlayer(ctx context.Context, engine *game.Engine, userID, nickname string) {
	p, err := engine.Register(ctx, userID, nickname)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create player '%s': %v\n", userID, err)
		os.Exit(1)
	}
	fmt.Printf("Player '%s' created (%s).\n", p.UserID, p.DisplayName())
}

func handleKills(ctx context.Context, db *database.Database) {
	kills, err := db.GetBossKills(ctx, 20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load kill log: %v\n", err)
		os.Exit(1)
	}
	if len(kills) == 0 {
		fmt.Println("No world bosses have been killed yet.")
		return
	}
	for _, k := range kills {
		fmt.Printf("%s  %-12s %s\n", k.KilledAt.Format(time.DateTime), k.BossName, k.BossID)
		for i, c := range k.TopContributors {
			fmt.Printf("    %d. %s (%s) %d\n", i+1, c.DisplayName, c.UserID, c.Damage)
		}
	}
}
