package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/initiative-tracker/internal/clients/dnd5e"
	"github.com/KirkDiggler/initiative-tracker/internal/config"
	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	"github.com/KirkDiggler/initiative-tracker/internal/handlers/cli"
	"github.com/KirkDiggler/initiative-tracker/internal/preferences"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories/encounters"
	"github.com/KirkDiggler/initiative-tracker/internal/roster"
	"github.com/KirkDiggler/initiative-tracker/internal/services"
	"github.com/KirkDiggler/initiative-tracker/internal/services/encounter"
)

func main() {
	name := flag.String("name", "Encounter", "name of a new encounter")
	resume := flag.String("encounter", "", "ID of a stored encounter to resume")
	load := flag.String("load", "", "encounter file to load at start")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providerConfig := &services.ProviderConfig{
		Logger:    logger,
		UndoLimit: cfg.Tracker.UndoLimit,
	}
	if cfg.Tracker.UndoLimit == 0 {
		// Zero in the environment turns undo off
		providerConfig.UndoLimit = -1
	}

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient = connectRedis(ctx, cfg.Redis.URL, logger)
	} else {
		logger.Info("no REDIS_URL found, using in-memory encounters")
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("error closing redis connection", zap.Error(err))
			}
		}()
		providerConfig.EncounterRepository = encounters.NewRedis(redisClient)
	}

	library, err := roster.LoadDir(cfg.Storage.RosterDir)
	if err != nil {
		logger.Fatal("failed to load roster", zap.String("dir", cfg.Storage.RosterDir), zap.Error(err))
	}
	providerConfig.Library = library
	providerConfig.RosterFile = roster.CharactersPath(cfg.Storage.RosterDir)

	dndClient, err := dnd5e.New(&dnd5e.Config{Timeout: cfg.DND5E.Timeout})
	if err != nil {
		logger.Warn("D&D 5e client unavailable, monsters cannot be added", zap.Error(err))
	} else {
		providerConfig.DNDClient = dndClient
	}

	provider := services.NewProvider(providerConfig)

	prefsPath := cfg.Preferences
	if prefsPath == "" {
		prefsPath = preferences.DefaultPath()
	}
	prefs, err := preferences.Load(prefsPath)
	if err != nil {
		logger.Warn("ignoring unreadable preferences", zap.String("path", prefsPath), zap.Error(err))
		prefs = preferences.Defaults()
	}

	enc, err := openEncounter(ctx, provider.EncounterService, *resume, *name, cfg.Tracker.SkipUnconscious)
	if err != nil {
		logger.Fatal("failed to open encounter", zap.Error(err))
	}
	encounterID := enc.ID
	if *load != "" {
		if err := provider.EncounterService.ImportFile(ctx, encounterID, *load); err != nil {
			logger.Fatal("failed to load encounter file", zap.String("path", *load), zap.Error(err))
		}
		prefs.LastEncounterPath = *load
	}

	handler := cli.NewHandler(&cli.HandlerConfig{
		Service:         provider.EncounterService,
		Library:         provider.Library,
		EncounterID:     encounterID,
		Preferences:     prefs,
		PreferencesPath: prefsPath,
		DataDir:         cfg.Storage.DataDir,
		Out:             os.Stdout,
		Logger:          logger,
	})
	unsubscribe := handler.Subscribe(provider.EventBus)
	defer unsubscribe()

	fmt.Printf("Tracking %q (%s)\n", enc.Name, encounterID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return handler.Autosave(gctx, prefs.AutosaveInterval())
	})
	g.Go(func() error {
		defer cancel()
		if err := handler.Run(gctx, os.Stdin); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("tracker stopped", zap.Error(err))
	}

	if prefs.AutosaveInterval() > 0 {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer saveCancel()
		if err := provider.EncounterService.ExportFile(saveCtx, encounterID, handler.SavePath()); err != nil {
			logger.Error("final save failed", zap.Error(err))
		}
	}
}

// connectRedis returns nil when Redis is unreachable, in which case
// encounters are kept in memory
func connectRedis(ctx context.Context, url string, logger *zap.Logger) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("failed to parse redis URL, falling back to in-memory encounters", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("failed to connect to redis, falling back to in-memory encounters", zap.Error(err))
		_ = client.Close()
		return nil
	}

	logger.Info("using redis for encounters", zap.String("addr", opts.Addr))
	return client
}

// openEncounter resumes the stored encounter id or creates a new one
func openEncounter(ctx context.Context, svc encounter.Service, id, name string, skipUnconscious bool) (*combat.Encounter, error) {
	if id != "" {
		return svc.GetEncounter(ctx, id)
	}

	return svc.CreateEncounter(ctx, &encounter.CreateEncounterInput{
		Name:            name,
		SkipUnconscious: skipUnconscious,
	})
}
