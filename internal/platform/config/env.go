// Package config carries the small helpers every process entry point uses
// to load its environment and to bail out of a failed startup.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target from the process environment using its `env`
// struct tags. Fields without a matching variable keep their envDefault.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
