// Package sqlite provides the SQLite-backed tracker storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/MannLester/GovTrackerPH-sub000/internal/platform/storage/sqlitemigrate"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/query"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

func init() {
	msqlite.MustRegisterDeterministicScalarFunction(query.FoldFunction, 1, casefold)
}

// casefold applies query.Fold to TEXT values and passes everything else through.
func casefold(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch value := args[0].(type) {
	case string:
		return query.Fold(value), nil
	case []byte:
		return query.Fold(string(value)), nil
	default:
		return value, nil
	}
}

// Store persists tracker state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite tracker store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.sqlDB.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// unavailable tags a driver failure so services can classify it.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
}

// liveComment is the single soft-delete filter every comment read path uses.
func liveComment(alias string) query.Predicate {
	return query.IsFalse(query.Column(alias + ".is_deleted"))
}

func exists(ctx context.Context, db *sql.DB, op, stmt string, args ...any) (bool, error) {
	var found int
	err := db.QueryRowContext(ctx, stmt, args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, unavailable(op, err)
	}
	return true, nil
}

func countRows(ctx context.Context, db *sql.DB, op, stmt string, args ...any) (int, error) {
	var total int
	if err := db.QueryRowContext(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, unavailable(op, err)
	}
	return total, nil
}

func requireAffected(op string, result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return unavailable(op, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func constraintCode(err error) (int, bool) {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code(), true
	}
	return 0, false
}

func isUniqueViolation(err error) bool {
	if code, ok := constraintCode(err); ok {
		switch code {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	if code, ok := constraintCode(err); ok && code == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

func isReplyDepthViolation(err error) bool {
	if code, ok := constraintCode(err); ok && code == sqlite3lib.SQLITE_CONSTRAINT_TRIGGER {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "reply parent must be")
}

var (
	_ storage.ReactionStore = (*Store)(nil)
	_ storage.CommentStore  = (*Store)(nil)
	_ storage.ProjectStore  = (*Store)(nil)
	_ storage.SeedStore     = (*Store)(nil)
)
