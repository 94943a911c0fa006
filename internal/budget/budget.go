// Package budget derives remaining-budget figures and currency-converted
// summaries from ledger records. Amounts are stored in RUB; conversion is
// display-only.
package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/finbot/internal/ledger"
)

// BaseCurrency is the currency every ledger amount is stored in.
const BaseCurrency = "RUB"

// Totals sums operation amounts by kind.
type Totals struct {
	Income  float64
	Expense float64
}

// Sum totals ops by kind. Every operation counts regardless of its date.
func Sum(ops []ledger.Operation) Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, op := range ops {
		amount := decimal.NewFromFloat(op.Amount)
		switch op.Kind {
		case ledger.KindIncome:
			income = income.Add(amount)
		case ledger.KindExpense:
			expense = expense.Add(amount)
		}
	}
	return Totals{Income: income.InexactFloat64(), Expense: expense.InexactFloat64()}
}

// Remaining returns budget - expenses + incomes over all of ops, and false
// when entry is nil.
//
// Operations from other months are included on purpose: the figure is
// lifetime-cumulative against the current month's budget.
func Remaining(entry *ledger.BudgetEntry, ops []ledger.Operation) (float64, bool) {
	if entry == nil {
		return 0, false
	}
	t := Sum(ops)
	remaining := decimal.NewFromFloat(entry.Amount).
		Sub(decimal.NewFromFloat(t.Expense)).
		Add(decimal.NewFromFloat(t.Income))
	return remaining.InexactFloat64(), true
}

// Convert turns a RUB amount into the target currency using rate as divisor.
func Convert(amount, rate float64) float64 {
	return amount / rate
}

// Calculator reads ledger data for derived figures.
type Calculator struct {
	store ledger.Store
	now   func() time.Time
}

// NewCalculator builds a calculator; a nil now defaults to time.Now.
func NewCalculator(store ledger.Store, now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{store: store, now: now}
}

// CurrentBudget returns the authoritative budget entry for the current month, or nil.
func (c *Calculator) CurrentBudget(ctx context.Context, chatID int64) (*ledger.BudgetEntry, error) {
	entry, err := c.store.FindBudget(ctx, chatID, int(c.now().Month()))
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("budget: find current: %w", err)
	}
	return &entry, nil
}

// RemainingBudget returns the remaining budget of chatID, or false when no
// budget is set for the current month.
func (c *Calculator) RemainingBudget(ctx context.Context, chatID int64) (float64, bool, error) {
	entry, err := c.CurrentBudget(ctx, chatID)
	if err != nil || entry == nil {
		return 0, false, err
	}
	ops, err := c.store.ListOperations(ctx, chatID)
	if err != nil {
		return 0, false, fmt.Errorf("budget: list operations: %w", err)
	}
	remaining, ok := Remaining(entry, ops)
	return remaining, ok, nil
}

// Summary loads operations and the current budget of chatID and builds a
// summary in currency. rate is ignored for BaseCurrency.
func (c *Calculator) Summary(ctx context.Context, chatID int64, currency string, rate float64) (Summary, error) {
	entry, err := c.CurrentBudget(ctx, chatID)
	if err != nil {
		return Summary{}, err
	}
	ops, err := c.store.ListOperations(ctx, chatID)
	if err != nil {
		return Summary{}, fmt.Errorf("budget: list operations: %w", err)
	}
	return Build(currency, rate, entry, ops), nil
}
