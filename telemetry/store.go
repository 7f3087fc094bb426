package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store persists page views and vitals in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the telemetry database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("telemetry db %s: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS page_views (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			browser TEXT NOT NULL,
			os TEXT NOT NULL,
			device TEXT NOT NULL,
			path TEXT NOT NULL,
			referrer TEXT NOT NULL DEFAULT '',
			screen_size TEXT NOT NULL DEFAULT '',
			bot TEXT NOT NULL DEFAULT '',
			timestamp DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS vitals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			path TEXT NOT NULL,
			metric TEXT NOT NULL,
			value REAL NOT NULL,
			rating TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_page_views_timestamp ON page_views(timestamp);
		CREATE INDEX IF NOT EXISTS idx_page_views_path ON page_views(path);
		CREATE INDEX IF NOT EXISTS idx_vitals_timestamp ON vitals(timestamp);
		CREATE INDEX IF NOT EXISTS idx_vitals_metric ON vitals(metric);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// GetSetting returns a setting value, or "" when the key is not set.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SavePageView records a page view.
func (s *Store) SavePageView(ctx context.Context, v *PageView) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO page_views (visitor_id, session_id, ip_hash, browser, os, device, path, referrer, screen_size, bot, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VisitorID, v.SessionID, v.IPHash, v.Browser, v.OS, v.Device,
		v.Path, v.Referrer, v.ScreenSize, v.Bot, v.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("insert page view: %w", err)
	}
	v.ID, _ = res.LastInsertId()
	return nil
}

// SaveVital records a performance sample.
func (s *Store) SaveVital(ctx context.Context, v *Vital) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO vitals (visitor_id, path, metric, value, rating, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.VisitorID, v.Path, v.Metric, v.Value, v.Rating, v.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("insert vital: %w", err)
	}
	v.ID, _ = res.LastInsertId()
	return nil
}

// Summary aggregates telemetry over a period.
type Summary struct {
	From           time.Time     `json:"from"`
	To             time.Time     `json:"to"`
	Views          int           `json:"views"`
	UniqueVisitors int           `json:"unique_visitors"`
	BotViews       int           `json:"bot_views"`
	TopPages       []PageStat    `json:"top_pages"`
	Referrers      []PageStat    `json:"referrers"`
	Vitals         []VitalSample `json:"vitals"`
}

// PageStat is a count per key (path or referrer).
type PageStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// VitalSample is the 75th percentile of one metric.
type VitalSample struct {
	Metric  string  `json:"metric"`
	P75     float64 `json:"p75"`
	Rating  string  `json:"rating"`
	Samples int     `json:"samples"`
}

// Summary reports views, top pages and p75 vitals between from and to.
func (s *Store) Summary(ctx context.Context, from, to time.Time, limit int) (*Summary, error) {
	from, to = from.UTC(), to.UTC()
	sum := &Summary{From: from, To: to, TopPages: []PageStat{}, Referrers: []PageStat{}, Vitals: []VitalSample{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN bot = '' THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT CASE WHEN bot = '' THEN visitor_id END),
			COALESCE(SUM(CASE WHEN bot != '' THEN 1 ELSE 0 END), 0)
		FROM page_views WHERE timestamp >= ? AND timestamp < ?`, from, to).
		Scan(&sum.Views, &sum.UniqueVisitors, &sum.BotViews)
	if err != nil {
		return nil, fmt.Errorf("count views: %w", err)
	}

	if sum.TopPages, err = s.countBy(ctx, "path", from, to, limit); err != nil {
		return nil, fmt.Errorf("top pages: %w", err)
	}
	if sum.Referrers, err = s.countBy(ctx, "referrer", from, to, limit); err != nil {
		return nil, fmt.Errorf("referrers: %w", err)
	}
	if sum.Vitals, err = s.vitalPercentiles(ctx, from, to); err != nil {
		return nil, fmt.Errorf("vitals: %w", err)
	}
	return sum, nil
}

// countBy groups human page views by column, which must be a trusted name.
func (s *Store) countBy(ctx context.Context, column string, from, to time.Time, limit int) ([]PageStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+column+`, COUNT(*) AS n FROM page_views
		WHERE bot = '' AND timestamp >= ? AND timestamp < ?
		GROUP BY `+column+` ORDER BY n DESC, `+column+` ASC LIMIT ?`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []PageStat{}
	for rows.Next() {
		var p PageStat
		if err := rows.Scan(&p.Name, &p.Count); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) vitalPercentiles(ctx context.Context, from, to time.Time) ([]VitalSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT metric, value FROM vitals
		WHERE timestamp >= ? AND timestamp < ?`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byMetric := map[string][]float64{}
	for rows.Next() {
		var m string
		var v float64
		if err := rows.Scan(&m, &v); err != nil {
			return nil, err
		}
		byMetric[m] = append(byMetric[m], v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := []VitalSample{}
	for m, vals := range byMetric {
		p := percentile(vals, 0.75)
		out = append(out, VitalSample{Metric: m, P75: p, Rating: RateVital(m, p), Samples: len(vals)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metric < out[j].Metric })
	return out, nil
}

// percentile uses the nearest-rank method.
func percentile(vals []float64, q float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	rank := int(math.Ceil(q*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}

// CleanupOld removes rows older than retentionDays.
func (s *Store) CleanupOld(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM page_views WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup page_views: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM vitals WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup vitals: %w", err)
	}
	return nil
}

// StartCleanupScheduler runs CleanupOld every interval until the returned
// stop function is called.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration, logger *zap.Logger) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.CleanupOld(context.Background(), retentionDays); err != nil {
					logger.Error("telemetry cleanup failed", zap.Error(err))
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}
