package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Store wraps access to the SQLite database and exposes high level helpers.
type Store struct {
	queries
	db     *sqlx.DB
	logger *slog.Logger
}

// Tx exposes the same helpers bound to a single transaction.
type Tx struct {
	queries
}

// queries carries the statements shared by Store and Tx.
type queries struct {
	ext sqlx.ExtContext
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{queries: queries{ext: conn}, db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Tx{queries: queries{ext: sqlTx}}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_id TEXT NOT NULL,
            name TEXT NOT NULL,
            lat REAL,
            lon REAL,
            created_at DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS plants (
            owner_id TEXT NOT NULL,
            id TEXT NOT NULL,
            name TEXT NOT NULL,
            species TEXT,
            light TEXT,
            water TEXT,
            description TEXT,
            image_url TEXT,
            water_interval_days INTEGER,
            fertilize_interval_days INTEGER,
            water_ml INTEGER,
            pot_size_cm INTEGER,
            soil_type TEXT,
            humidity_pref TEXT,
            temp_min_c INTEGER,
            temp_max_c INTEGER,
            room_id INTEGER REFERENCES rooms(id) ON DELETE SET NULL,
            room TEXT,
            weather_notes TEXT,
            health TEXT,
            last_watered_at DATETIME,
            last_fertilized_at DATETIME,
            archived BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            PRIMARY KEY(owner_id, id)
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_id TEXT NOT NULL,
            plant_id TEXT NOT NULL,
            type TEXT NOT NULL,
            scheduled_for DATETIME NOT NULL,
            completed_at DATETIME,
            created_at DATETIME NOT NULL,
            UNIQUE(owner_id, plant_id, type, scheduled_for),
            FOREIGN KEY(owner_id, plant_id) REFERENCES plants(owner_id, id) ON DELETE CASCADE
        );`,
		`CREATE TABLE IF NOT EXISTS care_events (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_id TEXT NOT NULL,
            plant_id TEXT NOT NULL,
            type TEXT NOT NULL,
            water_ml INTEGER,
            fertilizer_type TEXT,
            minutes INTEGER,
            note TEXT,
            created_at DATETIME NOT NULL,
            FOREIGN KEY(owner_id, plant_id) REFERENCES plants(owner_id, id) ON DELETE CASCADE
        );`,
		`CREATE TABLE IF NOT EXISTS user_settings (
            owner_id TEXT PRIMARY KEY,
            lat REAL,
            lon REAL,
            unit TEXT NOT NULL DEFAULT 'metric',
            updated_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_owner ON rooms(owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_plants_room ON plants(room_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_open ON tasks(owner_id, completed_at, scheduled_for);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_plant ON tasks(owner_id, plant_id, type);`,
		`CREATE INDEX IF NOT EXISTS idx_events_owner ON care_events(owner_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_events_plant ON care_events(owner_id, plant_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// utc normalizes timestamps so stored values compare lexically.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func isUniqueViolation(err error) bool {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	return sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func isForeignKeyViolation(err error) bool {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	return sqlErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
