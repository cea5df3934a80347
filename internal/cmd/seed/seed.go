// Package seed parses seed command flags and loads a fixture into the
// tracker store.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	entrypoint "github.com/MannLester/GovTrackerPH-sub000/internal/platform/cmd"
	trackersqlite "github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage/sqlite"
	"github.com/MannLester/GovTrackerPH-sub000/internal/tools/seed"
)

// Config holds seed command configuration.
type Config struct {
	DBPath  string `env:"DB_PATH" envDefault:"data/tracker.db"`
	Fixture string `env:"SEED_FIXTURE"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the tracker SQLite database")
	fs.StringVar(&cfg.Fixture, "fixture", cfg.Fixture, "YAML fixture to load (default: embedded demo data)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run loads the configured fixture and reports what was written to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSeed, func(ctx context.Context) error {
		fixture, err := seed.LoadFile(cfg.Fixture)
		if err != nil {
			return err
		}
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := trackersqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open tracker sqlite store: %w", err)
		}
		defer store.Close()

		summary, err := seed.Apply(ctx, store, fixture, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "seeded %s: %d projects, %d comments (%d existing), %d reactions (%d existing)\n",
			cfg.DBPath, summary.Projects, summary.Comments, summary.SkippedComments,
			summary.Reactions, summary.SkippedReactions)
		return nil
	})
}
