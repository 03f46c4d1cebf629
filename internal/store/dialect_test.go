package store

import (
	"errors"
	"testing"
)

func TestNewDialect(t *testing.T) {
	if _, ok := NewDialect(DialectSQLite).(*SQLiteDialect); !ok {
		t.Error("NewDialect(sqlite) did not return a SQLiteDialect")
	}
	if _, ok := NewDialect(DialectPostgres).(*PostgresDialect); !ok {
		t.Error("NewDialect(postgres) did not return a PostgresDialect")
	}
	if _, ok := NewDialect("unknown").(*SQLiteDialect); !ok {
		t.Error("NewDialect(unknown) did not fall back to SQLiteDialect")
	}
}

func TestPlaceholders(t *testing.T) {
	sqlite := &SQLiteDialect{}
	if got := sqlite.Placeholder(3); got != "?" {
		t.Errorf("sqlite placeholder = %q, want ?", got)
	}

	pg := &PostgresDialect{}
	if got := pg.Placeholder(3); got != "$3" {
		t.Errorf("postgres placeholder = %q, want $3", got)
	}
}

func TestQueryBuilderConversion(t *testing.T) {
	query := "SELECT record FROM worlds WHERE seed = ? AND genre = ?"

	sqliteQB := NewQueryBuilder(&SQLiteDialect{})
	if got := sqliteQB.Build(query); got != query {
		t.Errorf("sqlite Build changed the query: %q", got)
	}

	pgQB := NewQueryBuilder(&PostgresDialect{})
	want := "SELECT record FROM worlds WHERE seed = $1 AND genre = $2"
	if got := pgQB.Build(query); got != want {
		t.Errorf("postgres Build = %q, want %q", got, want)
	}
}

func TestBuildWithReturning(t *testing.T) {
	insert := "INSERT INTO worlds (seed) VALUES (?)"

	sqliteQB := NewQueryBuilder(&SQLiteDialect{})
	if got := sqliteQB.BuildWithReturning(insert, "id"); got != insert {
		t.Errorf("sqlite BuildWithReturning = %q, want unchanged", got)
	}

	pgQB := NewQueryBuilder(&PostgresDialect{})
	want := "INSERT INTO worlds (seed) VALUES ($1) RETURNING id"
	if got := pgQB.BuildWithReturning(insert, "id"); got != want {
		t.Errorf("postgres BuildWithReturning = %q, want %q", got, want)
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	sqlite := &SQLiteDialect{}
	if !sqlite.IsDuplicateKeyError(errors.New("UNIQUE constraint failed: worlds.id")) {
		t.Error("sqlite duplicate key error not detected")
	}
	if sqlite.IsDuplicateKeyError(nil) {
		t.Error("nil treated as duplicate key error")
	}

	pg := &PostgresDialect{}
	if !pg.IsDuplicateKeyError(errors.New(`pq: duplicate key value violates unique constraint "anchors_world_id_node_id_key"`)) {
		t.Error("postgres duplicate key error not detected")
	}
}
