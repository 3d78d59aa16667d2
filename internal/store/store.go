// Package store persists users, projects, inventory, material requests and
// tasks through database/sql. MySQL is the production backend; SQLite serves
// single-node deployments and tests. Both use the same queries with `?`
// placeholders and differ only in their DDL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"buildmatrix/internal/config"
	"buildmatrix/internal/logger"
)

// Dialect selects the SQL driver and schema flavour.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// Store is safe for concurrent use; every call runs in its own statement.
type Store struct {
	db      *sql.DB
	dialect Dialect
	log     *logger.Logger
	now     func() time.Time
}

// Open connects using cfg, verifies the connection and applies the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	dialect := Dialect(cfg.Driver)
	dsn := cfg.DataSourceName()
	if dialect == SQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dialect, err)
	}

	switch dialect {
	case SQLite:
		// One writer at a time; SQLite serialises writes anyway.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: connect to %s: %w", dialect, err)
	}

	s := New(db, dialect, log)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.log.Info("Connected to database", map[string]interface{}{"driver": string(dialect)})
	return s, nil
}

// New wraps an already opened database. The schema is not touched.
func New(db *sql.DB, dialect Dialect, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		db:      db,
		dialect: dialect,
		log:     log.WithComponent("store"),
		now:     time.Now,
	}
}

// sqliteDSN turns on foreign key enforcement and a busy timeout unless the
// DSN already sets pragmas.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

// tables guards the table names interpolated into SQL.
var tables = map[string]bool{
	"users":             true,
	"projects":          true,
	"inventory":         true,
	"material_requests": true,
	"tasks":             true,
}

// timestamp returns the creation time written with new rows.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// timeValue scans DATETIME/TIMESTAMP columns. MySQL with parseTime returns
// time.Time; SQLite may hand back text.
type timeValue struct {
	dst *time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (v timeValue) Scan(src any) error {
	switch t := src.(type) {
	case nil:
		*v.dst = time.Time{}
		return nil
	case time.Time:
		*v.dst = t.UTC()
		return nil
	case string:
		return v.parse(t)
	case []byte:
		return v.parse(string(t))
	}
	return fmt.Errorf("store: cannot scan %T into time", src)
}

func (v timeValue) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*v.dst = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("store: unrecognised time %q", s)
}

// deleteByID removes one row and reports NotFound when nothing matched.
func (s *Store) deleteByID(ctx context.Context, table, resource string, id int64) error {
	if !tables[table] {
		return fmt.Errorf("store: invalid table name: %s", table)
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return deleteError(err, resource)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", table, err)
	}
	if n == 0 {
		return notFound(resource)
	}
	return nil
}
