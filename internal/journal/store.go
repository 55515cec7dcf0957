package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/blindauction/internal/dbx"
	"github.com/dmitrijs2005/blindauction/internal/filex"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Store is an open journal database with the repository matching its
// dialect.
type Store struct {
	Repository
	db      *sql.DB
	newRepo func(dbx.DBTX) Repository
}

var sqlOpen = sql.Open

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Open connects to dsn, applies migrations and returns the store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	driver, source := dbx.ParseDSN(dsn)
	if driver == dbx.DriverSQLite && !strings.HasPrefix(source, "file:") && source != ":memory:" {
		if err := filex.EnsureParentDir(source); err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
	}
	db, err := sqlOpen(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	s, err := newStore(ctx, db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newStore(ctx context.Context, db *sql.DB, driver string) (*Store, error) {
	var (
		dialect string
		dir     string
		newRepo func(dbx.DBTX) Repository
	)
	switch driver {
	case dbx.DriverPostgres:
		dialect, dir = "postgres", "migrations/postgres"
		newRepo = func(tx dbx.DBTX) Repository { return NewPostgresRepository(tx) }
	default:
		// one connection keeps in-memory databases alive and avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
		dialect, dir = "sqlite3", "migrations/sqlite"
		newRepo = func(tx dbx.DBTX) Repository { return NewSQLiteRepository(tx) }
	}

	if err := RunMigrations(ctx, db, dialect, dir); err != nil {
		return nil, err
	}
	return &Store{Repository: newRepo(db), db: db, newRepo: newRepo}, nil
}

// RunMigrations applies the embedded migrations in dir using goose.
func RunMigrations(ctx context.Context, db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect %s: %w", dialect, err)
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	return nil
}

// Update loads entry id, lets fn modify it and saves it, all in one
// transaction. UpdatedAt is set to now unless fn sets it.
func (s *Store) Update(ctx context.Context, id uuid.UUID, fn func(e *Entry) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.newRepo(tx)
		e, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		e.UpdatedAt = time.Now()
		if err := fn(e); err != nil {
			return err
		}
		return repo.Save(ctx, e)
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
