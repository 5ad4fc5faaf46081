package database

import (
	"context"
	"database/sql"
	"fmt"

	"procedure-assistant/internal/common/config"

	_ "github.com/lib/pq"
)

// Postgres is the pool behind the postgres procedure store.
type Postgres struct {
	*sql.DB
	host string
}

// OpenPostgres opens the pool and fails if the server cannot be reached.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	lifetime := config.GetDuration(cfg.ConnLifetime)
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(lifetime)
	db.SetConnMaxIdleTime(lifetime)

	pg := &Postgres{DB: db, host: cfg.Host}
	if err := pg.Check(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return pg, nil
}

// Check is the readiness probe for the store.
func (p *Postgres) Check(ctx context.Context) error {
	if err := p.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres %s unreachable: %w", p.host, err)
	}
	return nil
}
