package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx, letting the
// same repository code run inside or outside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories plus a transaction runner. Every mutating
// lifecycle operation runs its reads, writes and history appends through a
// single InTx call, so a failure rolls back the ticket row and its audit
// entry together.
type Store interface {
	Tickets() TicketRepository
	History() TicketHistoryRepository
	Users() UserRepository
	Comments() CommentRepository
	Attachments() AttachmentRepository

	InTx(ctx context.Context, fn func(Store) error) error
}

type pgxStore struct {
	db   DB
	pool *pgxpool.Pool
}

// NewStore builds the postgres-backed store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgxStore{db: pool, pool: pool}
}

func (s *pgxStore) Tickets() TicketRepository         { return &ticketRepository{db: s.db} }
func (s *pgxStore) History() TicketHistoryRepository  { return &ticketHistoryRepository{db: s.db} }
func (s *pgxStore) Users() UserRepository             { return &userRepository{db: s.db} }
func (s *pgxStore) Comments() CommentRepository       { return &commentRepository{db: s.db} }
func (s *pgxStore) Attachments() AttachmentRepository { return &attachmentRepository{db: s.db} }

// InTx runs fn against a transaction-bound store. Nested calls reuse the
// surrounding transaction.
func (s *pgxStore) InTx(ctx context.Context, fn func(Store) error) (err error) {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(&pgxStore{db: tx})
	return err
}
