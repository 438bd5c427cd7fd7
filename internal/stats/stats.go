package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alexivanou/placematch-api/internal/config"
)

// Stats is the payload of GET /api/v1/stats and the stats CLI.
type Stats struct {
	Timestamp time.Time      `json:"timestamp"`
	Memory    MemoryStats    `json:"memory"`
	Gazetteer GazetteerStats `json:"gazetteer"`
	Runtime   RuntimeStats   `json:"runtime"`
}

type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"total_alloc"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"num_gc"`
	HeapInuse  uint64 `json:"heap_inuse"`
}

// GazetteerStats describes the offline geocoding fallback store.
type GazetteerStats struct {
	Type             string      `json:"type"`
	TotalRecords     int64       `json:"total_records"`
	SizeBytes        int64       `json:"size_bytes"`
	Tables           []TableStat `json:"tables"`
	CountriesCovered int         `json:"countries_covered"`
	LargestCity      string      `json:"largest_city,omitempty"`
}

type TableStat struct {
	Name      string `json:"name"`
	RowCount  int64  `json:"row_count"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

type RuntimeStats struct {
	NumGoroutines int   `json:"num_goroutines"`
	NumCPU        int   `json:"num_cpu"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

var gazetteerTables = []string{"countries", "cities"}

// Collector gathers process and gazetteer statistics.
type Collector struct {
	db        *sqlx.DB
	config    config.DBConfig
	startTime time.Time

	mu        sync.RWMutex
	cachedMem *MemoryStats
	cacheTime time.Time
}

var memStatsCacheDuration = 5 * time.Second

func NewCollector(db *sqlx.DB, cfg config.DBConfig) *Collector {
	return &Collector{
		db:        db,
		config:    cfg,
		startTime: time.Now(),
	}
}

func (c *Collector) Collect(ctx context.Context) (*Stats, error) {
	gazetteer, err := c.collectGazetteerStats(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Timestamp: time.Now(),
		Memory:    c.collectMemoryStats(),
		Gazetteer: *gazetteer,
		Runtime:   c.collectRuntimeStats(),
	}, nil
}

// collectMemoryStats caches runtime.ReadMemStats, which stops the world.
func (c *Collector) collectMemoryStats() MemoryStats {
	c.mu.RLock()
	if c.cachedMem != nil && time.Since(c.cacheTime) < memStatsCacheDuration {
		mem := *c.cachedMem
		c.mu.RUnlock()
		return mem
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	mem := MemoryStats{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
		HeapInuse:  m.HeapInuse,
	}
	c.cachedMem = &mem
	c.cacheTime = time.Now()
	return mem
}

func (c *Collector) collectGazetteerStats(ctx context.Context) (*GazetteerStats, error) {
	st := &GazetteerStats{Type: string(c.config.Type), Tables: []TableStat{}}

	if size, err := c.databaseSize(ctx); err == nil {
		st.SizeBytes = size
	}

	for _, table := range gazetteerTables {
		ts, err := c.tableStat(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		st.Tables = append(st.Tables, *ts)
		st.TotalRecords += ts.RowCount
	}

	if err := c.db.GetContext(ctx, &st.CountriesCovered,
		"SELECT COUNT(DISTINCT country_code) FROM cities"); err != nil {
		return nil, fmt.Errorf("failed to count covered countries: %w", err)
	}

	var largest string
	err := c.db.GetContext(ctx, &largest, "SELECT name FROM cities ORDER BY population DESC, id LIMIT 1")
	switch {
	case err == nil:
		st.LargestCity = largest
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to find largest city: %w", err)
	}

	return st, nil
}

func (c *Collector) databaseSize(ctx context.Context) (int64, error) {
	query := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
	if c.config.Type == config.DBTypePostgreSQL {
		query = "SELECT pg_database_size(current_database())"
	}
	var size int64
	if err := c.db.GetContext(ctx, &size, query); err != nil {
		return 0, err
	}
	return size, nil
}

func (c *Collector) tableStat(ctx context.Context, table string) (*TableStat, error) {
	ts := &TableStat{Name: table}
	if err := c.db.GetContext(ctx, &ts.RowCount, "SELECT COUNT(*) FROM "+table); err != nil {
		return nil, err
	}

	if c.config.Type == config.DBTypePostgreSQL {
		var size int64
		if err := c.db.GetContext(ctx, &size,
			`SELECT COALESCE(pg_total_relation_size($1::regclass), 0)`, table); err == nil {
			ts.SizeBytes = size
		}
	} else {
		// dbstat is only present when sqlite was built with SQLITE_ENABLE_DBSTAT_VTAB
		var size sql.NullInt64
		_ = c.db.GetContext(ctx, &size, `SELECT SUM(pgsize) FROM dbstat WHERE name = ?`, table)
		ts.SizeBytes = size.Int64
	}
	return ts, nil
}

func (c *Collector) collectRuntimeStats() RuntimeStats {
	return RuntimeStats{
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		UptimeSeconds: int64(time.Since(c.startTime).Seconds()),
	}
}
