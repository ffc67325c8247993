// Package database holds the Postgres connection pool, schema migrations and
// the repositories behind the pricing engine's interfaces.
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool     *pgxpool.Pool
	poolMu   sync.RWMutex
	poolOnce sync.Once
)

// PoolConfig sizes the shared pool. Zero values keep the pgx defaults.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// ApplicationName shows up in pg_stat_activity, so batch runs from the
	// CLI can be told apart from the API.
	ApplicationName string
}

// parsePoolConfig merges cfg into the settings parsed from connString.
// Pool sizes given in the URL (pool_max_conns=...) win over zero values only.
func parsePoolConfig(connString string, cfg PoolConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("error parsing database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		pc.MinConns = int32(min(cfg.MinConns, int(pc.MaxConns)))
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.HealthCheckPeriod = time.Minute

	if cfg.ApplicationName != "" {
		if _, set := pc.ConnConfig.RuntimeParams["application_name"]; !set {
			pc.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
		}
	}
	return pc, nil
}

// Connect creates the shared connection pool once; later calls are no-ops
// until Close.
func Connect(ctx context.Context, connString string, cfg PoolConfig) error {
	var initErr error
	poolOnce.Do(func() {
		pc, err := parsePoolConfig(connString, cfg)
		if err != nil {
			initErr = err
			return
		}

		newPool, err := pgxpool.NewWithConfig(ctx, pc)
		if err != nil {
			initErr = fmt.Errorf("error creating connection pool: %w", err)
			return
		}
		if err := newPool.Ping(ctx); err != nil {
			newPool.Close()
			initErr = fmt.Errorf("error connecting to database: %w", err)
			return
		}

		poolMu.Lock()
		pool = newPool
		poolMu.Unlock()
	})

	if initErr != nil {
		poolOnce = sync.Once{}
		return initErr
	}
	return nil
}

// Close closes the shared pool and allows a later Connect.
func Close() {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
	poolOnce = sync.Once{}
}

// Pool returns the shared pool, nil before Connect.
func Pool() *pgxpool.Pool {
	poolMu.RLock()
	defer poolMu.RUnlock()
	return pool
}

// PoolStatus is a health snapshot of the shared pool.
type PoolStatus struct {
	TotalConns    int32 `json:"totalConns"`
	IdleConns     int32 `json:"idleConns"`
	AcquiredConns int32 `json:"acquiredConns"`
	MaxConns      int32 `json:"maxConns"`
}

// Status pings the database through the shared pool and reports its usage.
func Status(ctx context.Context) (*PoolStatus, error) {
	p := Pool()
	if p == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if err := p.Ping(ctx); err != nil {
		return nil, err
	}
	st := p.Stat()
	return &PoolStatus{
		TotalConns:    st.TotalConns(),
		IdleConns:     st.IdleConns(),
		AcquiredConns: st.AcquiredConns(),
		MaxConns:      st.MaxConns(),
	}, nil
}
