// Frame Art Bridge
//
// This is the main entry point for the Samsung Frame TV art-mode bridge.
// It keeps one art-mode session to the TV and exposes it through:
//   - MQTT state, command, ack and health topics
//   - an HTTP API with a WebSocket state stream
//   - optional InfluxDB telemetry of every poll
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/nerrad567/gray-logic-frameart/migrations"

	"github.com/nerrad567/gray-logic-frameart/internal/api"
	"github.com/nerrad567/gray-logic-frameart/internal/bridges/frame"
	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-frameart/internal/samsungtv"
	"github.com/nerrad567/gray-logic-frameart/internal/samsungtv/art"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// Deferred closes run in reverse order of startup.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting frame art bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("failed to load .env", "error", err)
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	defer log.Close() //nolint:errcheck // nothing left to report to
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	tokens, closeTokens, err := openTokenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeTokens()

	// TV session
	conn := samsungtv.NewConnection(samsungtv.Endpoint{
		Host:         cfg.TV.Host,
		Port:         cfg.TV.Port,
		Secure:       cfg.TV.Secure,
		Name:         cfg.TV.Name,
		AppName:      samsungtv.ArtAppName,
		Timeout:      cfg.GetTVTimeout(),
		CommandDelay: cfg.GetCommandDelay(),
		WaitForReady: true,
	}, tokens, samsungtv.WithLogger(log.With("component", "samsungtv")))

	artClient := art.New(conn, art.Options{
		RequestTimeout: cfg.GetRequestTimeout(),
		Logger:         log.With("component", "art"),
	})
	defer func() {
		log.Info("closing TV session")
		if closeErr := artClient.Close(); closeErr != nil {
			log.Error("error closing TV session", "error", closeErr)
		}
	}()

	startCtx, cancelStart := context.WithTimeout(ctx, cfg.GetTVTimeout())
	if startErr := artClient.Start(startCtx); startErr != nil {
		// The bridge reconnects on its next poll.
		log.Warn("TV not reachable at startup", "host", cfg.TV.Host, "error", startErr)
	} else {
		log.Info("TV session open", "host", cfg.TV.Host)
	}
	cancelStart()

	// MQTT, with a retained offline status as Last Will
	will, err := frame.LWT(mqtt.Protocol)
	if err != nil {
		return err
	}
	mqttClient, err := mqtt.Connect(cfg.MQTT, mqtt.WithWill(will), mqtt.WithLogger(log.With("component", "mqtt")))
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// InfluxDB (optional)
	var metrics frame.MetricsWriter
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		metrics = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	bridge, err := frame.NewBridge(frame.Options{
		TVID:           cfg.TV.ID,
		Host:           cfg.TV.Host,
		Version:        version,
		Art:            artClient,
		MQTT:           mqttClient,
		Metrics:        metrics,
		PollInterval:   cfg.GetPollInterval(),
		HealthInterval: cfg.GetHealthInterval(),
		CommandTimeout: cfg.GetTVTimeout(),
		Logger:         log.With("component", "bridge"),
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer bridge.Stop()

	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.With("component", "api"),
			TV:      bridge,
			TVID:    cfg.TV.ID,
			MQTT:    mqttClient,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if apiErr := server.Start(ctx); apiErr != nil {
			return fmt.Errorf("starting API server: %w", apiErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("frame art bridge started", "tv_id", cfg.TV.ID, "host", cfg.TV.Host)

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// openTokenStore returns the configured token store and its cleanup.
// The sqlite backend opens the database and applies migrations.
func openTokenStore(ctx context.Context, cfg *config.Config, log *logging.Logger) (samsungtv.TokenStore, func(), error) {
	tokenLog := log.With("component", "tokens")

	switch cfg.TV.Token.Backend {
	case config.TokenBackendMemory:
		log.Info("token store", "backend", "memory")
		return samsungtv.NewMemoryTokenStore(""), func() {}, nil

	case config.TokenBackendSQLite:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		closeDB := func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}
		if err := db.Migrate(ctx); err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("token store", "backend", "sqlite", "path", db.Path())
		return samsungtv.NewSQLiteTokenStore(db.DB, cfg.TV.Host, tokenLog), closeDB, nil

	default:
		store := samsungtv.NewFileTokenStore(cfg.TV.Token.Dir, cfg.TV.Host, tokenLog)
		log.Info("token store", "backend", "file", "path", store.Path())
		return store, func() {}, nil
	}
}

// getConfigPath returns the configuration file path.
// Uses FRAMEART_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FRAMEART_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
