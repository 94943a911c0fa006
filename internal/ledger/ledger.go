// Package ledger defines the persisted records of the bot (users, operations,
// monthly budgets) and the store interface the conversation core writes through.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by lookups that matched no row.
var ErrNotFound = errors.New("ledger: not found")

// Kind is the direction of an operation, persisted verbatim in operations.type_operation.
type Kind string

const (
	// KindExpense marks money spent.
	KindExpense Kind = "РАСХОД"
	// KindIncome marks money received.
	KindIncome Kind = "ДОХОД"
)

// ParseKind accepts the persisted tokens case-insensitively, plus their English names.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(KindExpense), "EXPENSE":
		return KindExpense, true
	case string(KindIncome), "INCOME":
		return KindIncome, true
	}
	return "", false
}

// User is a registered chat.
type User struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	ChatID int64  `db:"chat_id"`
}

// Operation is a single income or expense in the base currency.
type Operation struct {
	ID     int64     `db:"id"`
	Date   time.Time `db:"date"`
	Amount float64   `db:"sum"`
	ChatID int64     `db:"chat_id"`
	Kind   Kind      `db:"type_operation"`
}

// BudgetEntry is the planned spending for one calendar month.
type BudgetEntry struct {
	ID     int64   `db:"id"`
	Month  int     `db:"month"`
	Amount float64 `db:"budget"`
	ChatID int64   `db:"chat_id"`
}

// Store persists ledger records. Every insert commits on its own.
//
// FindUser and FindBudget return ErrNotFound when nothing matches. When several
// budget rows exist for the same chat and month, FindBudget returns the most
// recently inserted one.
type Store interface {
	FindUser(ctx context.Context, chatID int64) (User, error)
	InsertUser(ctx context.Context, name string, chatID int64) (User, error)
	InsertOperation(ctx context.Context, date time.Time, amount float64, chatID int64, kind Kind) error
	ListOperations(ctx context.Context, chatID int64) ([]Operation, error)
	InsertBudget(ctx context.Context, month int, amount float64, chatID int64) error
	FindBudget(ctx context.Context, chatID int64, month int) (BudgetEntry, error)
}
