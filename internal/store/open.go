package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	SQLitePath  string
	DatabaseURL string
}

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Driver {
	case "", DriverMemory:
		log.Info().Str("driver", DriverMemory).Msg("opening store")
		return NewMemoryStore(), nil
	case DriverSQLite:
		log.Info().Str("driver", DriverSQLite).Str("path", opts.SQLitePath).Msg("opening store")
		s, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		log.Info().Str("driver", DriverPostgres).Msg("opening store")
		p, err := OpenPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
