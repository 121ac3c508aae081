package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthStatus reports reachability and pool utilization for the identity
// database. Error is a plain string so the status encodes cleanly to JSON
// and YAML for machine-readable status output.
type HealthStatus struct {
	Healthy       bool   `json:"healthy" yaml:"healthy"`
	LatencyMs     int64  `json:"latency_ms" yaml:"latency_ms"`
	TotalConns    int32  `json:"total_conns" yaml:"total_conns"`
	IdleConns     int32  `json:"idle_conns" yaml:"idle_conns"`
	AcquiredConns int32  `json:"acquired_conns" yaml:"acquired_conns"`
	MaxConns      int32  `json:"max_conns" yaml:"max_conns"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Check pings the database and snapshots the pool statistics. It never
// returns an error; an unreachable database is reported through the status.
func Check(ctx context.Context, pool *pgxpool.Pool) *HealthStatus {
	status := &HealthStatus{}
	if pool == nil {
		status.Error = "pool is nil"
		return status
	}

	start := time.Now()
	err := pool.Ping(ctx)
	status.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		status.Error = err.Error()
		return status
	}

	stats := pool.Stat()
	status.Healthy = true
	status.TotalConns = stats.TotalConns()
	status.IdleConns = stats.IdleConns()
	status.AcquiredConns = stats.AcquiredConns()
	status.MaxConns = stats.MaxConns()
	return status
}
