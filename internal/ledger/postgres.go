package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/finbot/core/logger"
)

const (
	queryFindUser        = `SELECT id, name, chat_id FROM users WHERE chat_id = $1 ORDER BY id LIMIT 1`
	queryInsertUser      = `INSERT INTO users (name, chat_id) VALUES ($1, $2) RETURNING id`
	queryInsertOperation = `INSERT INTO operations (date, sum, chat_id, type_operation) VALUES ($1, $2, $3, $4)`
	queryListOperations  = `SELECT id, date, sum, chat_id, type_operation FROM operations WHERE chat_id = $1 ORDER BY date, id`
	queryInsertBudget    = `INSERT INTO budget (month, budget, chat_id) VALUES ($1, $2, $3)`
	queryFindBudget      = `SELECT id, month, budget, chat_id FROM budget WHERE chat_id = $1 AND month = $2 ORDER BY id DESC LIMIT 1`
)

// PostgresStore implements Store on the users/operations/budget tables.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindUser returns the user registered for chatID.
func (s *PostgresStore) FindUser(ctx context.Context, chatID int64) (User, error) {
	var u User
	if err := s.db.GetContext(ctx, &u, queryFindUser, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, s.fail(ctx, "user.find", err)
	}
	return u, nil
}

// InsertUser registers a chat under name.
func (s *PostgresStore) InsertUser(ctx context.Context, name string, chatID int64) (User, error) {
	u := User{Name: name, ChatID: chatID}
	if err := s.db.QueryRowxContext(ctx, queryInsertUser, name, chatID).Scan(&u.ID); err != nil {
		return User{}, s.fail(ctx, "user.insert", err)
	}
	logger.DB.LogAttrs(ctx, slog.LevelDebug, "user.insert",
		slog.String("status", "ok"),
		slog.Int64("chat_id", chatID),
	)
	return u, nil
}

// InsertOperation appends an operation.
func (s *PostgresStore) InsertOperation(ctx context.Context, date time.Time, amount float64, chatID int64, kind Kind) error {
	if _, err := s.db.ExecContext(ctx, queryInsertOperation, date, amount, chatID, string(kind)); err != nil {
		return s.fail(ctx, "operation.insert", err)
	}
	return nil
}

// ListOperations returns every operation of chatID ordered by date.
func (s *PostgresStore) ListOperations(ctx context.Context, chatID int64) ([]Operation, error) {
	var ops []Operation
	if err := s.db.SelectContext(ctx, &ops, queryListOperations, chatID); err != nil {
		return nil, s.fail(ctx, "operation.list", err)
	}
	return ops, nil
}

// InsertBudget appends a budget row for month.
func (s *PostgresStore) InsertBudget(ctx context.Context, month int, amount float64, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, queryInsertBudget, month, amount, chatID); err != nil {
		return s.fail(ctx, "budget.insert", err)
	}
	return nil
}

// FindBudget returns the latest budget row of chatID for month.
func (s *PostgresStore) FindBudget(ctx context.Context, chatID int64, month int) (BudgetEntry, error) {
	var b BudgetEntry
	if err := s.db.GetContext(ctx, &b, queryFindBudget, chatID, month); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BudgetEntry{}, ErrNotFound
		}
		return BudgetEntry{}, s.fail(ctx, "budget.find", err)
	}
	return b, nil
}

func (s *PostgresStore) fail(ctx context.Context, op string, err error) error {
	logger.DB.LogAttrs(ctx, slog.LevelError, op,
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	)
	return fmt.Errorf("ledger: %s: %w", op, err)
}
