package cache

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"MacdView/internal/model"
)

// SQLiteCache stores fetched series in SQLite. Tables are recreated on open,
// so nothing outlives the process even when dbPath is a file.
type SQLiteCache struct {
	db  *sql.DB
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	log *zap.Logger
}

// NewSQLiteCache opens (or creates) the database at dbPath; ":memory:" keeps it in RAM.
func NewSQLiteCache(dbPath string, ttl time.Duration, log *zap.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	c := &SQLiteCache{db: db, ttl: ttl, now: time.Now, log: log}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite cache opened", zap.String("path", dbPath), zap.Duration("ttl", ttl))
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	stmts := []string{
		`DROP TABLE IF EXISTS cached_bars`,
		`DROP TABLE IF EXISTS fetches`,
		`CREATE TABLE fetches (
			symbol        TEXT NOT NULL,
			base_interval TEXT NOT NULL,
			range_from    INTEGER NOT NULL,
			range_to      INTEGER NOT NULL,
			fetched_at    INTEGER NOT NULL,
			tz            TEXT NOT NULL,
			PRIMARY KEY (symbol, base_interval)
		)`,
		`CREATE TABLE cached_bars (
			symbol        TEXT NOT NULL,
			base_interval TEXT NOT NULL,
			ts            INTEGER NOT NULL,
			open          REAL,
			high          REAL,
			low           REAL,
			close         REAL,
			volume        REAL,
			PRIMARY KEY (symbol, base_interval, ts)
		)`,
	}
	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:min(len(s), 40)], err)
		}
	}
	return nil
}

func (c *SQLiteCache) Get(key Key) (*Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var from, to, fetched int64
	var tz string
	err := c.db.QueryRow(`SELECT range_from, range_to, fetched_at, tz FROM fetches
		WHERE symbol = ? AND base_interval = ?`, key.Symbol, string(key.Interval)).
		Scan(&from, &to, &fetched, &tz)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query fetch: %w", err)
	}
	if expired(time.Unix(0, fetched), c.ttl, c.now()) {
		if err := c.delete(key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		c.log.Warn("unknown cached timezone, using UTC", zap.String("tz", tz), zap.Error(err))
		loc = time.UTC
	}

	rows, err := c.db.Query(`SELECT ts, open, high, low, close, volume FROM cached_bars
		WHERE symbol = ? AND base_interval = ? ORDER BY ts`, key.Symbol, string(key.Interval))
	if err != nil {
		return nil, false, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	bars := model.Series{}
	for rows.Next() {
		var ts int64
		var b model.Bar
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, false, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = time.Unix(ts, 0).In(loc)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate bars: %w", err)
	}

	return &Entry{
		Bars:      bars,
		Start:     time.Unix(0, from).In(loc),
		End:       time.Unix(0, to).In(loc),
		FetchedAt: time.Unix(0, fetched),
	}, true, nil
}

func (c *SQLiteCache) Put(key Key, entry *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tz := time.UTC.String()
	if len(entry.Bars) > 0 {
		tz = entry.Bars[0].Time.Location().String()
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cached_bars WHERE symbol = ? AND base_interval = ?`,
		key.Symbol, string(key.Interval)); err != nil {
		return fmt.Errorf("clear bars: %w", err)
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO fetches
		(symbol, base_interval, range_from, range_to, fetched_at, tz) VALUES (?,?,?,?,?,?)`,
		key.Symbol, string(key.Interval),
		entry.Start.UnixNano(), entry.End.UnixNano(), entry.FetchedAt.UnixNano(), tz,
	); err != nil {
		return fmt.Errorf("insert fetch: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO cached_bars
		(symbol, base_interval, ts, open, high, low, close, volume) VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare bars: %w", err)
	}
	defer stmt.Close()
	for _, b := range entry.Bars {
		if _, err := stmt.Exec(key.Symbol, string(key.Interval), b.Time.Unix(),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("insert bar: %w", err)
		}
	}
	return tx.Commit()
}

func (c *SQLiteCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, table := range []string{"cached_bars", "fetches"} {
		if _, err := c.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func (c *SQLiteCache) Close() error {
	c.log.Info("closing sqlite cache")
	return c.db.Close()
}

func (c *SQLiteCache) delete(key Key) error {
	for _, table := range []string{"cached_bars", "fetches"} {
		if _, err := c.db.Exec("DELETE FROM "+table+" WHERE symbol = ? AND base_interval = ?",
			key.Symbol, string(key.Interval)); err != nil {
			return fmt.Errorf("expire %s: %w", table, err)
		}
	}
	return nil
}

var _ Cache = (*SQLiteCache)(nil)
var _ Cache = (*MemoryCache)(nil)
var _ Cache = NoopCache{}
