// Package server configures and runs the distribution HTTP server command.
package server

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/takehome/internal/platform/cmd"
	"github.com/louisbranch/takehome/internal/services/distribution/app"
)

// Config holds server command configuration.
type Config struct {
	Port          int    `env:"TAKEHOME_SERVER_PORT" envDefault:"8080"`
	DBPath        string `env:"TAKEHOME_DB_PATH" envDefault:"data/takehome.db"`
	GitHubOwner   string `env:"TAKEHOME_GITHUB_REPO_OWNER" envDefault:"composio"`
	GitHubRepo    string `env:"TAKEHOME_GITHUB_REPO_NAME" envDefault:"sdk-design-question"`
	GitHubToken   string `env:"TAKEHOME_GITHUB_TOKEN"`
	WebhookSecret string `env:"TAKEHOME_WEBHOOK_SECRET"`
	BaseURL       string `env:"TAKEHOME_BASE_URL" envDefault:"http://localhost:8080"`
	AssetMarker   string `env:"TAKEHOME_ASSET_MARKER" envDefault:"sdk-challenge"`
}

// ParseConfig loads environment defaults and then applies flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.IntVar(&cfg.Port, "port", cfg.Port, "The HTTP server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the sqlite database file")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the distribution server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(context.Context) error {
		return app.Run(ctx, app.Config{
			Port:          cfg.Port,
			DBPath:        cfg.DBPath,
			GitHubOwner:   cfg.GitHubOwner,
			GitHubRepo:    cfg.GitHubRepo,
			GitHubToken:   cfg.GitHubToken,
			WebhookSecret: cfg.WebhookSecret,
			BaseURL:       cfg.BaseURL,
			AssetMarker:   cfg.AssetMarker,
		})
	})
}
