// Package repository implements all database queries for the event service.
// It uses pgx directly (no ORM). Every query runs either on the pool or inside
// a transaction opened with InTx.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update hits a unique constraint,
// such as a second active request by the same requester for one event.
var ErrDuplicate = errors.New("duplicate")

// ErrReferenced is returned when a row cannot be deleted because others point at it.
var ErrReferenced = errors.New("still referenced")

// ErrCounterBound is returned when a change to the confirmed counter would
// leave it negative or above the participant limit.
var ErrCounterBound = errors.New("confirmed counter out of bounds")

// Queries are the reads and writes available to the service layer.
type Queries interface {
	CreateUser(ctx context.Context, name, email string) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	LockUser(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context, ids []int64, page filter.Page) ([]model.User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	ListCategories(ctx context.Context, page filter.Page) ([]model.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CategoryInUse(ctx context.Context, id int64) (bool, error)

	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id int64) (*model.Event, error)
	LockEvent(ctx context.Context, id int64) (*model.Event, error)
	ListEventsByID(ctx context.Context, ids []int64) ([]model.Event, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	SearchEvents(ctx context.Context, f filter.Filter, sort filter.Sort, page filter.Page) ([]model.Event, error)
	AdjustConfirmed(ctx context.Context, eventID int64, delta int) (int, error)

	CreateRequest(ctx context.Context, r *model.Request) error
	GetRequest(ctx context.Context, id int64) (*model.Request, error)
	LockRequests(ctx context.Context, ids []int64) ([]model.Request, error)
	ListRequestsByEvent(ctx context.Context, eventID int64) ([]model.Request, error)
	ListRequestsByRequester(ctx context.Context, requesterID int64) ([]model.Request, error)
	HasActiveRequest(ctx context.Context, eventID, requesterID int64) (bool, error)
	UpdateRequestStatus(ctx context.Context, id int64, status model.RequestStatus) error

	CreateComment(ctx context.Context, c *model.Comment) error
	GetComment(ctx context.Context, id int64) (*model.Comment, error)
	UpdateCommentText(ctx context.Context, id int64, text string) (*model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	ListComments(ctx context.Context, f CommentFilter, page filter.Page) ([]model.Comment, error)

	CreateCompilation(ctx context.Context, c *model.Compilation) error
	GetCompilation(ctx context.Context, id int64) (*model.Compilation, error)
	ListCompilations(ctx context.Context, pinned *bool, page filter.Page) ([]model.Compilation, error)
	UpdateCompilation(ctx context.Context, c *model.Compilation) error
	DeleteCompilation(ctx context.Context, id int64) error
	SetCompilationEvents(ctx context.Context, compID int64, eventIDs []int64) error
	ListCompilationEvents(ctx context.Context, compIDs []int64) (map[int64][]model.Event, error)
}

// Store is Queries plus transactions.
type Store interface {
	Queries
	// InTx runs fn in one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db querier
}

// PgStore is the PostgreSQL Store.
type PgStore struct {
	queries
	pool *pgxpool.Pool
}

// New constructs a PgStore over pool.
func New(pool *pgxpool.Pool) *PgStore {
	return &PgStore{queries: queries{db: pool}, pool: pool}
}

// Ping checks that the database answers.
func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InTx runs fn in one transaction. The transaction commits when fn returns
// nil and rolls back otherwise.
func (s *PgStore) InTx(ctx context.Context, fn func(q Queries) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&queries{db: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translate maps driver errors onto the package sentinels.
func translate(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrDuplicate, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrReferenced, pgErr.ConstraintName)
		case pgCheckViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrCounterBound, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
