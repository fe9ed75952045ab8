package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS makes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS models (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		make_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		year_start INTEGER,
		year_end INTEGER,
		FOREIGN KEY (make_id) REFERENCES makes(id),
		UNIQUE(make_id, name)
	);
	CREATE INDEX IF NOT EXISTS idx_models_make_id ON models(make_id);
`

// Store persists the vehicle catalog in SQLite.
type Store struct {
	conn   *sql.DB
	logger *zap.Logger
	dbPath string
}

// Open opens or creates the catalog database at dbPath.
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	logger.Debug("catalog database ready", zap.String("path", dbPath))
	return &Store{conn: conn, logger: logger, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// ListMakes returns every make ordered by name.
func (s *Store) ListMakes(ctx context.Context) ([]Make, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, name FROM makes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query makes: %w", err)
	}
	defer rows.Close()

	makes := []Make{}
	for rows.Next() {
		var m Make
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("failed to scan make: %w", err)
		}
		makes = append(makes, m)
	}
	return makes, rows.Err()
}

// ListModels returns the models of a make ordered by name. It returns
// ErrNotFound when the make does not exist.
func (s *Store) ListModels(ctx context.Context, makeID int64) ([]Model, error) {
	var exists int
	err := s.conn.QueryRowContext(ctx, `SELECT 1 FROM makes WHERE id = ?`, makeID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("make %d: %w", makeID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query make: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, make_id, name, year_start, year_end FROM models WHERE make_id = ? ORDER BY name`, makeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	models := []Model{}
	for rows.Next() {
		var (
			m          Model
			start, end sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.MakeID, &m.Name, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		m.YearStart = int(start.Int64)
		m.YearEnd = int(end.Int64)
		models = append(models, m)
	}
	return models, rows.Err()
}

// Upsert inserts makes and models that are not stored yet. Existing rows
// are left untouched. All writes happen in one transaction.
func (s *Store) Upsert(ctx context.Context, records []MakeRecord) (UpsertStats, error) {
	var stats UpsertStats

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range records {
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO makes (name) VALUES (?)`, rec.Name)
		if err != nil {
			return stats, fmt.Errorf("failed to insert make %q: %w", rec.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stats.Makes++
		}

		var makeID int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM makes WHERE name = ?`, rec.Name).Scan(&makeID); err != nil {
			return stats, fmt.Errorf("failed to look up make %q: %w", rec.Name, err)
		}

		for _, model := range rec.Models {
			res, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO models (make_id, name, year_start, year_end)
				VALUES (?, ?, ?, ?)
			`, makeID, model.Name, nullYear(model.YearStart), nullYear(model.YearEnd))
			if err != nil {
				return stats, fmt.Errorf("failed to insert model %q of %q: %w", model.Name, rec.Name, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				stats.Models++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit catalog update: %w", err)
	}
	s.logger.Info("catalog updated",
		zap.Int("makes_inserted", stats.Makes),
		zap.Int("models_inserted", stats.Models),
	)
	return stats, nil
}

func nullYear(year int) sql.NullInt64 {
	if year <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(year), Valid: true}
}
