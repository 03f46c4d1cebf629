package store

// Dialect abstracts SQL syntax differences between SQLite and
// PostgreSQL.
type Dialect interface {
	// DriverName returns the driver name for sql.Open().
	DriverName() string

	// Placeholder returns the parameter placeholder for the given
	// position (1-indexed). SQLite: "?", PostgreSQL: "$1", "$2", ...
	Placeholder(position int) string

	// SupportsLastInsertID reports whether the database supports
	// LastInsertId(); PostgreSQL uses RETURNING instead.
	SupportsLastInsertID() bool

	// ReturningClause returns the RETURNING clause for INSERT
	// statements on dialects that need it.
	ReturningClause(column string) string

	// AutoIncrementPK returns the column definition for an
	// auto-incrementing integer primary key.
	AutoIncrementPK() string

	// BlobType returns the column type for binary payloads.
	BlobType() string

	// InitStatements returns dialect-specific session setup statements.
	InitStatements() []string

	// IsDuplicateKeyError reports whether err is a unique constraint
	// violation.
	IsDuplicateKeyError(err error) bool
}

// DialectType identifies the database dialect.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect creates a Dialect for the given type.
func NewDialect(dialectType DialectType) Dialect {
	switch dialectType {
	case DialectPostgres:
		return &PostgresDialect{}
	default:
		return &SQLiteDialect{}
	}
}
