package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"onboarding/internal/store"
	"onboarding/pkg/outbox"
)

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store is the PostgreSQL implementation of store.Store.
type Store struct {
	pool   *pgxpool.Pool
	db     querier
	inTx   bool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{
		pool:   pool,
		db:     pool,
		outbox: outbox.NewRepository(pool),
		logger: logger,
	}
}

func (s *Store) Templates() store.TemplateRepository {
	return &TemplateRepository{db: s.db, logger: s.logger}
}

func (s *Store) Tasks() store.TaskRepository {
	return &TaskRepository{db: s.db, logger: s.logger}
}

func (s *Store) Todos() store.TodoRepository {
	return &TodoRepository{db: s.db, logger: s.logger}
}

func (s *Store) Progress() store.ProgressRepository {
	return &ProgressRepository{db: s.db, logger: s.logger}
}

func (s *Store) Users() store.UserRepository {
	return &UserRepository{db: s.db, logger: s.logger}
}

func (s *Store) Notifications() store.NotificationRepository {
	return &NotificationRepository{db: s.db, logger: s.logger}
}

func (s *Store) Outbox() store.OutboxWriter {
	return &outboxWriter{db: s.db, repo: s.outbox}
}

// InTx runs fn inside one transaction; a nested call joins the outer one.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{
			pool:   s.pool,
			db:     tx,
			inTx:   true,
			outbox: s.outbox,
			logger: s.logger,
		})
	})
}

type outboxWriter struct {
	db   querier
	repo *outbox.Repository
}

func (w *outboxWriter) Append(ctx context.Context, event *outbox.Event) error {
	return w.repo.InsertEvent(ctx, w.db, event)
}

// mapErr converts driver errors into store sentinels.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w: %s", what, store.ErrDuplicate, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", what, err)
}
