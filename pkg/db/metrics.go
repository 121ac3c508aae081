package db

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "playerlink"

// PoolStatsCollector exposes pgx pool statistics as prometheus gauges. Stats
// are read from the pool on each scrape so scraped values are never stale.
type PoolStatsCollector struct {
	pool *pgxpool.Pool

	totalConns    *prometheus.Desc
	idleConns     *prometheus.Desc
	acquiredConns *prometheus.Desc
	maxConns      *prometheus.Desc
}

// NewPoolStatsCollector creates a collector for the given pool. The component
// label distinguishes the CLI from any future long-running consumer sharing
// a registry.
func NewPoolStatsCollector(pool *pgxpool.Pool, component string) *PoolStatsCollector {
	labels := prometheus.Labels{"component": component}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "db_pool", name),
			help, nil, labels)
	}

	return &PoolStatsCollector{
		pool:          pool,
		totalConns:    desc("total_conns", "Connections currently open in the pool"),
		idleConns:     desc("idle_conns", "Idle connections in the pool"),
		acquiredConns: desc("acquired_conns", "Connections currently acquired from the pool"),
		maxConns:      desc("max_conns", "Maximum connections the pool will open"),
	}
}

// Describe sends all metric descriptors to the channel.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalConns
	ch <- c.idleConns
	ch <- c.acquiredConns
	ch <- c.maxConns
}

// Collect gathers current pool statistics and sends them as metrics.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	if c.pool == nil {
		return
	}

	stats := c.pool.Stat()
	gauge := func(d *prometheus.Desc, v float64) prometheus.Metric {
		return prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}

	ch <- gauge(c.totalConns, float64(stats.TotalConns()))
	ch <- gauge(c.idleConns, float64(stats.IdleConns()))
	ch <- gauge(c.acquiredConns, float64(stats.AcquiredConns()))
	ch <- gauge(c.maxConns, float64(stats.MaxConns()))
}

// RegisterPoolStats creates and registers a pool collector. A nil registerer
// means the default registry; re-registering the same collector shape is not
// an error.
func RegisterPoolStats(pool *pgxpool.Pool, component string, reg prometheus.Registerer) (*PoolStatsCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collector := NewPoolStatsCollector(pool, component)
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return nil, err
		}
	}
	return collector, nil
}
