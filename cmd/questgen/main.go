package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paniker63/the-tale/internal/config"
	"github.com/paniker63/the-tale/internal/database"
	"github.com/paniker63/the-tale/internal/logger"
	"github.com/paniker63/the-tale/internal/narration"
	"github.com/paniker63/the-tale/internal/quest"
	"github.com/paniker63/the-tale/internal/server"
	"github.com/paniker63/the-tale/internal/world"
)

func main() {
	// Parse command-line flags
	serverConfigFile := flag.String("config", "data/questgen.yaml", "Path to server config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	worldPath := flag.String("world", "", "Path to world YAML file or directory (overrides config)")
	lexiconFile := flag.String("lexicon", "", "Path to narration lexicon YAML file (overrides config)")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	dbFile := flag.String("db", "", "Path to SQLite quest database (overrides config)")
	once := flag.Bool("once", false, "Generate one quest, print it and exit")
	seed := flag.Int64("seed", 0, "Generation seed for -once (default: random based on current time)")
	prefMob := flag.Int("pref-mob", 0, "Hero's preferred mob id for -once")
	terrain := flag.String("terrain", "", "Terrain the hero hunts the preferred mob on for -once")
	place := flag.Int("place", 0, "Hero's home place id for -once")
	friend := flag.Int("friend", 0, "Hero's friend person id for -once")
	kind := flag.String("kind", "", "Force a quest kind for -once")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, err := logger.LoadConfig(*loggingConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using default logging\n", err)
		logConfig = logger.DefaultConfig()
	}
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	cfg, err := config.LoadConfig(*serverConfigFile)
	if err != nil {
		log.Fatalf("Failed to load server config: %v", err)
	}
	if *worldPath != "" {
		cfg.Data.World = *worldPath
	}
	if *lexiconFile != "" {
		cfg.Data.Lexicon = *lexiconFile
	}
	if *addr != "" {
		cfg.Address = *addr
	}
	if *dbFile != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.SQLitePath = *dbFile
	}

	worldRegistry, err := world.Load(cfg.Data.World)
	if err != nil {
		log.Fatalf("Failed to load world: %v", err)
	}
	places, mobs, persons := worldRegistry.Counts()
	logger.Info("World loaded", "path", cfg.Data.World, "places", places, "mobs", mobs, "persons", persons)

	lexicon, err := narration.Load(cfg.Data.Lexicon)
	if err != nil {
		log.Fatalf("Failed to load lexicon: %v", err)
	}
	logger.Info("Lexicon loaded", "path", cfg.Data.Lexicon, "entries", lexicon.Len())

	questRegistry := quest.DefaultRegistry()
	if err := questRegistry.LoadFromConfig(&cfg.Selection); err != nil {
		log.Fatalf("Invalid quest selection config: %v", err)
	}
	logger.Info("Quest kinds registered", "count", questRegistry.Count(), "priority", questRegistry.Priority())

	if *once {
		facts := world.HeroFacts{PrefMobID: *prefMob, Terrain: *terrain, PlaceID: *place, FriendID: *friend}
		if err := generateOnce(os.Stdout, worldRegistry, questRegistry, lexicon, facts, *seed, *kind); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	db, err := database.OpenWithConfig(databaseConfig(cfg.Database))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	logger.Info("Quest database initialized", "driver", cfg.Database.Driver)

	if len(cfg.WebSocket.AllowedOrigins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else if len(cfg.WebSocket.AllowedOrigins) == 1 && cfg.WebSocket.AllowedOrigins[0] == "*" {
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", cfg.WebSocket.AllowedOrigins)
	}

	srv := server.New(cfg, worldRegistry, questRegistry, lexicon, db)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	logger.Info("Press Ctrl+C to shutdown")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err)
			db.Close()
			os.Exit(1)
		}
	}

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warning("Shutdown did not complete cleanly", "error", err)
	}
}

// generateOnce builds one quest and writes it to out as JSON followed by its
// narration.
func generateOnce(out io.Writer, w *world.Registry, reg *quest.Registry, lexicon *narration.Lexicon, facts world.HeroFacts, seed int64, kind string) error {
	kb, err := w.Knowledge(facts)
	if err != nil {
		return err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("Generation seed selected", "seed", seed)

	env := world.NewEnvironment(w, kb, seed)
	selector := quest.NewSelector(reg)

	var q *quest.Quest
	if kind != "" {
		k, err := quest.ParseKind(kind)
		if err != nil {
			return err
		}
		q, err = selector.GenerateKind(env, k, nil)
		if err != nil {
			return err
		}
	} else if q, err = selector.Generate(env); err != nil {
		return err
	}

	payload, err := quest.Marshal(q)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		return err
	}
	lines, err := lexicon.RenderAll(q)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, pretty.String())
	fmt.Fprintln(out)
	for i, line := range lines {
		fmt.Fprintf(out, "%2d. %s\n", i+1, line)
	}
	return nil
}

func databaseConfig(c config.DatabaseConfig) database.Config {
	return database.Config{
		Driver:     c.Driver,
		SQLitePath: c.SQLitePath,
		Postgres: database.PostgresConfig{
			Host:            c.PostgresHost,
			Port:            c.PostgresPort,
			User:            c.PostgresUser,
			Password:        c.PostgresPassword,
			Database:        c.PostgresDatabase,
			SSLMode:         c.PostgresSSLMode,
			MaxOpenConns:    c.MaxOpenConns,
			MaxIdleConns:    c.MaxIdleConns,
			ConnMaxLifetime: c.ConnMaxLifetime,
		},
	}
}
