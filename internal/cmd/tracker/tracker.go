// Package tracker parses tracker service flags and launches the service.
package tracker

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/MannLester/GovTrackerPH-sub000/internal/platform/cmd"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/logging"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/principal"
	server "github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/app"
)

// Config holds tracker command configuration.
type Config struct {
	Port       int    `env:"PORT" envDefault:"8080"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"0"`
	DBPath     string `env:"DB_PATH" envDefault:"data/tracker.db"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	NATSURL    string `env:"NATS_URL"`
	NATSInit   bool   `env:"NATS_INIT"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The tracker HTTP port")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The gRPC health port (0 disables)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the tracker SQLite database")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server URL for engagement events (empty disables)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// serverConfig maps command configuration onto the server.
func (c Config) serverConfig() server.Config {
	cfg := server.Config{
		Addr:       fmt.Sprintf(":%d", c.Port),
		DBPath:     c.DBPath,
		NATSURL:    c.NATSURL,
		InitStream: c.NATSInit,
	}
	if c.HealthPort > 0 {
		cfg.HealthAddr = fmt.Sprintf(":%d", c.HealthPort)
	}
	return cfg
}

// Run starts the tracker HTTP API.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.Init(cfg.LogLevel)
	if err != nil {
		return err
	}
	auth, err := principal.LoadConfigFromEnv(time.Now)
	if err != nil {
		return err
	}
	if !auth.Enabled() {
		logger.Warn("token verification disabled; every request is anonymous")
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTracker, func(ctx context.Context) error {
		serverCfg := cfg.serverConfig()
		serverCfg.Auth = auth
		serverCfg.Logger = logger
		return server.Run(ctx, serverCfg)
	})
}
