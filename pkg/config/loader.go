package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg from environment variables declared with `env`
// struct tags. Defaults come from `envDefault`:
//
//	type Config struct {
//	    Port            int           `env:"HTTP_PORT" envDefault:"8080"`
//	    JWTAccessExpiry time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
//	}
//
// cfg must be a pointer to a struct.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse %T from environment: %w", cfg, err)
	}
	return nil
}
