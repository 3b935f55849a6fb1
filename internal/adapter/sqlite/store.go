package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/neomorfeo/assetiq/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Outbox records domain events for asynchronous delivery. InsertTx must
// enqueue within the caller's transaction.
type Outbox interface {
	Insert(ctx context.Context, event domain.DomainEvent) error
	InsertTx(ctx context.Context, tx *sql.Tx, event domain.DomainEvent) error
}

// Option configures a Store.
type Option func(*Store)

// WithOutbox routes published events into outbox. Without it events are
// dropped.
func WithOutbox(outbox Outbox) Option {
	return func(s *Store) { s.outbox = outbox }
}

var _ domain.Store = (*Store)(nil)

// Store implements domain.Store on SQLite.
type Store struct {
	db     *sqlx.DB
	outbox Outbox
	repositories
}

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection keeps ":memory:" databases shared and writers serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db, opts...)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready store.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB, opts ...Option) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	s := &Store{db: sqlx.NewDb(db, "sqlite3")}
	for _, opt := range opts {
		opt(s)
	}
	s.repositories = newRepositories(s.db, &eventPublisher{outbox: s.outbox})
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (s *Store) DB() *sql.DB {
	return s.db.DB
}

// Atomic runs fn in a transaction. Repositories passed to fn write through
// the transaction; fn must not use the store's own repositories.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	repos := newRepositories(tx, &eventPublisher{outbox: s.outbox, tx: tx.Tx})
	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// repositories binds every repository to one queryer, either the pool or a
// transaction.
type repositories struct {
	assets     *AssetRepository
	requests   *RequestRepository
	spareParts *SparePartRepository
	components *ComponentRepository
	events     *eventPublisher
}

func newRepositories(q sqlx.ExtContext, events *eventPublisher) repositories {
	return repositories{
		assets:     &AssetRepository{q: q},
		requests:   &RequestRepository{q: q},
		spareParts: &SparePartRepository{q: q},
		components: &ComponentRepository{q: q},
		events:     events,
	}
}

func (r repositories) Assets() domain.AssetRepository         { return r.assets }
func (r repositories) Requests() domain.RequestRepository     { return r.requests }
func (r repositories) SpareParts() domain.SparePartRepository { return r.spareParts }
func (r repositories) Components() domain.ComponentRepository { return r.components }
func (r repositories) Events() domain.EventPublisher          { return r.events }

// eventPublisher writes events to the outbox, inside tx when set.
type eventPublisher struct {
	outbox Outbox
	tx     *sql.Tx
}

func (p *eventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	if p.outbox == nil {
		return nil
	}
	if p.tx != nil {
		return p.outbox.InsertTx(ctx, p.tx, event)
	}
	return p.outbox.Insert(ctx, event)
}

// timeFormat keeps microseconds so rows created in the same second still
// sort by creation time.
const timeFormat = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

// nullable maps the empty string to SQL NULL for optional references.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// appendNote is the SET clause fragment adding a line to a notes column.
// It takes the note twice.
const appendNote = `notes = CASE WHEN notes = '' THEN ? ELSE notes || char(10) || ? END`

// paginate appends LIMIT/OFFSET. SQLite needs a LIMIT before any OFFSET.
func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 && offset <= 0 {
		return query, args
	}
	if limit <= 0 {
		limit = -1
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if offset > 0 {
		query += ` OFFSET ?`
		args = append(args, offset)
	}
	return query, args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func affected(result sql.Result) (int64, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
