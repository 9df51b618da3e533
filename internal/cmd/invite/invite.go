// Package invite implements the operator command that creates a candidate
// and prints their download link.
package invite

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/louisbranch/takehome/internal/email"
	entrypoint "github.com/louisbranch/takehome/internal/platform/cmd"
	"github.com/louisbranch/takehome/internal/services/distribution/registry"
	"github.com/louisbranch/takehome/internal/services/distribution/storage/sqlite"
)

// Config holds invite command configuration.
type Config struct {
	DBPath  string `env:"TAKEHOME_DB_PATH" envDefault:"data/takehome.db"`
	BaseURL string `env:"TAKEHOME_BASE_URL" envDefault:"http://localhost:8080"`

	// Email is the candidate address, taken from the positional argument.
	Email string
}

// ParseConfig loads environment defaults, applies flags, and takes the
// candidate email from the first positional argument.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the sqlite database file")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Public base URL used for the download link")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if fs.NArg() != 1 {
		return Config{}, errors.New("usage: invite [flags] <email>")
	}
	cfg.Email = fs.Arg(0)
	return cfg, nil
}

// Run creates the candidate and writes the invite details to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open sqlite store: %w", err)
	}
	defer func() { _ = store.Close() }()

	candidate, err := registry.New(store).Create(ctx, cfg.Email)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "invited %s\n", candidate.Email)
	fmt.Fprintf(out, "token: %s\n", candidate.Token)
	fmt.Fprintf(out, "link:  %s\n", email.DownloadLink(cfg.BaseURL, candidate.Token))
	return nil
}
