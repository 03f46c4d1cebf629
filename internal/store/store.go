// Package store archives generated worlds in SQLite or PostgreSQL. The
// binary record is the lossless source of truth; the relational columns
// exist so worlds can be queried by seed, size, and genre without
// decoding.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/oisee/emergent-adventure/internal/world"
	"github.com/oisee/emergent-adventure/internal/world/export"
)

// ErrNotFound is returned when no archived world matches the query.
var ErrNotFound = errors.New("store: world not found")

// ErrCorruptWorld is returned when a world being saved violates the
// archive's structural constraints, such as a plot node appearing twice.
var ErrCorruptWorld = errors.New("store: corrupt world")

// Store wraps the archive database connection.
type Store struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// WorldSummary is one archive row without the decoded payload.
type WorldSummary struct {
	ID        int64
	Seed      int64
	Width     int
	Height    int
	Genre     string
	Goal      int
	Attempt   int
	NodeCount int
	CreatedAt time.Time
}

// Open connects to the configured backend and ensures the schema.
func Open(cfg Config) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)

	dialect := NewDialect(DialectType(cfg.Driver))
	switch cfg.Driver {
	case "postgres":
		connStr := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User,
			cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode,
		)
		db, err = sql.Open(dialect.DriverName(), connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		if cfg.Postgres.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		}
		if cfg.Postgres.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		}
		if cfg.Postgres.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		}
	default:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err = sql.Open(dialect.DriverName(), cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run init statement: %w", err)
		}
	}

	s := &Store{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB for advanced operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate creates the archive schema if it doesn't exist.
func (s *Store) migrate() error {
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS worlds (
			id %s,
			seed BIGINT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			genre TEXT NOT NULL,
			goal INTEGER NOT NULL,
			attempt INTEGER NOT NULL,
			node_count INTEGER NOT NULL,
			record %s NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, s.dialect.AutoIncrementPK(), s.dialect.BlobType()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS plot_nodes (
			id %s,
			world_id BIGINT NOT NULL REFERENCES worlds(id) ON DELETE CASCADE,
			node_id INTEGER NOT NULL,
			function INTEGER NOT NULL,
			anchor TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			UNIQUE(world_id, node_id)
		)`, s.dialect.AutoIncrementPK()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS anchors (
			id %s,
			world_id BIGINT NOT NULL REFERENCES worlds(id) ON DELETE CASCADE,
			node_id INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			UNIQUE(world_id, node_id)
		)`, s.dialect.AutoIncrementPK()),

		`CREATE INDEX IF NOT EXISTS idx_worlds_seed ON worlds(seed)`,
		`CREATE INDEX IF NOT EXISTS idx_plot_nodes_world_id ON plot_nodes(world_id)`,
		`CREATE INDEX IF NOT EXISTS idx_anchors_world_id ON anchors(world_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// SaveWorld archives a finalized world and returns its row id.
func (s *Store) SaveWorld(w *world.WorldState) (int64, error) {
	record := export.Encode(w)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `INSERT INTO worlds (seed, width, height, genre, goal, attempt, node_count, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{
		w.Params.Seed, w.Params.Width, w.Params.Height, w.Params.Genre,
		int(w.Params.Goal), w.Attempt, len(w.Graph.Nodes), record,
	}

	var worldID int64
	if s.dialect.SupportsLastInsertID() {
		res, err := tx.Exec(s.qb.Build(insert), args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert world: %w", err)
		}
		worldID, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read inserted id: %w", err)
		}
	} else {
		query := s.qb.BuildWithReturning(insert, "id")
		if err := tx.QueryRow(query, args...).Scan(&worldID); err != nil {
			return 0, fmt.Errorf("failed to insert world: %w", err)
		}
	}

	nodeInsert := s.qb.Build(`INSERT INTO plot_nodes (world_id, node_id, function, anchor, description)
		VALUES (?, ?, ?, ?, ?)`)
	for _, n := range w.Graph.Nodes {
		if _, err := tx.Exec(nodeInsert, worldID, n.ID, int(n.Function), n.Anchor, n.Description); err != nil {
			if s.dialect.IsDuplicateKeyError(err) {
				return 0, fmt.Errorf("%w: plot node %d repeats in world record", ErrCorruptWorld, n.ID)
			}
			return 0, fmt.Errorf("failed to insert plot node %d: %w", n.ID, err)
		}
	}

	anchorInsert := s.qb.Build(`INSERT INTO anchors (world_id, node_id, x, y) VALUES (?, ?, ?, ?)`)
	for _, id := range w.Graph.Order {
		pos, ok := w.Binding[id]
		if !ok {
			continue
		}
		if _, err := tx.Exec(anchorInsert, worldID, id, pos.X, pos.Y); err != nil {
			if s.dialect.IsDuplicateKeyError(err) {
				return 0, fmt.Errorf("%w: node %d anchored twice in world record", ErrCorruptWorld, id)
			}
			return 0, fmt.Errorf("failed to insert anchor for node %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit world: %w", err)
	}
	return worldID, nil
}

// LoadWorld decodes the archived world with the given row id.
func (s *Store) LoadWorld(id int64) (*world.WorldState, error) {
	var record []byte
	query := s.qb.Build(`SELECT record FROM worlds WHERE id = ?`)
	if err := s.db.QueryRow(query, id).Scan(&record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load world %d: %w", id, err)
	}
	return export.Decode(record)
}

// FindBySeed returns the most recent archived world generated from the
// given seed and dimensions.
func (s *Store) FindBySeed(seed int64, width, height int, genre string) (*world.WorldState, error) {
	var record []byte
	query := s.qb.Build(`SELECT record FROM worlds
		WHERE seed = ? AND width = ? AND height = ? AND genre = ?
		ORDER BY id DESC LIMIT 1`)
	if err := s.db.QueryRow(query, seed, width, height, genre).Scan(&record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find world for seed %d: %w", seed, err)
	}
	return export.Decode(record)
}

// ListWorlds returns archive summaries, newest first.
func (s *Store) ListWorlds(limit int) ([]WorldSummary, error) {
	if limit < 1 {
		limit = 50
	}
	query := s.qb.Build(`SELECT id, seed, width, height, genre, goal, attempt, node_count, created_at
		FROM worlds ORDER BY id DESC LIMIT ?`)

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}
	defer rows.Close()

	var out []WorldSummary
	for rows.Next() {
		var w WorldSummary
		if err := rows.Scan(&w.ID, &w.Seed, &w.Width, &w.Height, &w.Genre,
			&w.Goal, &w.Attempt, &w.NodeCount, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan world row: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// DeleteWorld removes an archived world and its dependent rows.
func (s *Store) DeleteWorld(id int64) error {
	res, err := s.db.Exec(s.qb.Build(`DELETE FROM worlds WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete world %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
