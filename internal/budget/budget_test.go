package budget

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/finbot/internal/ledger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRemainingWithoutBudget(t *testing.T) {
	ops := []ledger.Operation{{Amount: 10, Kind: ledger.KindExpense}}
	if _, ok := Remaining(nil, ops); ok {
		t.Fatal("expected no remaining without a budget entry")
	}
}

func TestRemainingFormula(t *testing.T) {
	cases := []struct {
		name   string
		budget float64
		ops    []ledger.Operation
		want   float64
	}{
		{"no operations", 1000, nil, 1000},
		{"expense only", 1000, []ledger.Operation{{Amount: 250.5, Kind: ledger.KindExpense}}, 749.5},
		{"income only", 0, []ledger.Operation{{Amount: 0.1, Kind: ledger.KindIncome}, {Amount: 0.2, Kind: ledger.KindIncome}}, 0.3},
		{"mixed", 1000, []ledger.Operation{
			{Amount: 500, Kind: ledger.KindExpense},
			{Amount: 2000, Kind: ledger.KindIncome},
		}, 2500},
		{"overspent", 100, []ledger.Operation{{Amount: 150, Kind: ledger.KindExpense}}, -50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Remaining(&ledger.BudgetEntry{Amount: tc.budget}, tc.ops)
			if !ok || got != tc.want {
				t.Fatalf("Remaining = %v, %v; want %v", got, ok, tc.want)
			}
		})
	}
}

// Operations outside the budget's month still count toward the remainder.
func TestRemainingSumsAllMonths(t *testing.T) {
	entry := &ledger.BudgetEntry{Month: 10, Amount: 1000}
	ops := []ledger.Operation{
		{Date: day(2023, time.March, 1), Amount: 300, Kind: ledger.KindExpense},
		{Date: day(2024, time.October, 5), Amount: 100, Kind: ledger.KindExpense},
	}
	got, _ := Remaining(entry, ops)
	if got != 600 {
		t.Fatalf("Remaining = %v, want 600 (lifetime-cumulative)", got)
	}
}

func TestBuildConvertsUniformlyAndReverts(t *testing.T) {
	entry := &ledger.BudgetEntry{Amount: 1000}
	ops := []ledger.Operation{
		{Date: day(2024, time.January, 10), Amount: 500, Kind: ledger.KindExpense},
		{Date: day(2024, time.January, 15), Amount: 2000, Kind: ledger.KindIncome},
	}
	const rate = 91.37
	s := Build("USD", rate, entry, ops)
	if !s.HasBudget || !s.HasRemaining || len(s.Lines) != 2 {
		t.Fatalf("summary = %+v", s)
	}
	if s.Remaining != Convert(2500, rate) || s.Lines[1].Amount != Convert(2000, rate) {
		t.Fatalf("conversion not uniform: %+v", s)
	}

	rub := s.Revert()
	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
	if !near(rub.Budget, 1000) || !near(rub.Remaining, 2500) || !near(rub.Lines[0].Amount, 500) || !near(rub.Lines[1].Amount, 2000) {
		t.Fatalf("revert mismatch: %+v", rub)
	}
}

func TestBuildBaseCurrencyIgnoresRate(t *testing.T) {
	s := Build(BaseCurrency, 42, &ledger.BudgetEntry{Amount: 10}, nil)
	if s.Rate != 1 || s.Budget != 10 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestSummaryText(t *testing.T) {
	s := Build(BaseCurrency, 0, &ledger.BudgetEntry{Amount: 1000}, []ledger.Operation{
		{Date: day(2024, time.January, 10), Amount: 500, Kind: ledger.KindExpense},
	})
	text := s.Text()
	for _, want := range []string{
		"Бюджет на текущий месяц: 1000.00 RUB",
		"Остаток средств в бюджете: 500.00 RUB",
		"Дата: 2024-01-10, Сумма: 500.00, Тип: РАСХОД",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q:\n%s", want, text)
		}
	}

	noBudget := Build("EUR", 100, nil, nil).Text()
	if strings.Contains(noBudget, "Остаток") || !strings.Contains(noBudget, "0.00 EUR") {
		t.Fatalf("unexpected text:\n%s", noBudget)
	}
}

type failingStore struct {
	ledger.Store
}

func (failingStore) FindBudget(context.Context, int64, int) (ledger.BudgetEntry, error) {
	return ledger.BudgetEntry{}, errors.New("db down")
}

func TestCalculatorRemainingBudget(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	now := func() time.Time { return day(2026, time.March, 20) }
	calc := NewCalculator(store, now)

	if _, ok, err := calc.RemainingBudget(ctx, 1); ok || err != nil {
		t.Fatalf("without budget: ok=%v err=%v", ok, err)
	}

	_ = store.InsertBudget(ctx, 3, 800, 1)
	_ = store.InsertBudget(ctx, 3, 1000, 1)
	_ = store.InsertBudget(ctx, 2, 5000, 1)
	_ = store.InsertOperation(ctx, day(2024, time.January, 10), 500, 1, ledger.KindExpense)
	_ = store.InsertOperation(ctx, day(2024, time.January, 15), 2000, 1, ledger.KindIncome)
	_ = store.InsertOperation(ctx, day(2024, time.January, 15), 999, 2, ledger.KindExpense)

	got, ok, err := calc.RemainingBudget(ctx, 1)
	if err != nil || !ok || got != 2500 {
		t.Fatalf("RemainingBudget = %v, %v, %v; want 2500", got, ok, err)
	}

	if _, _, err := NewCalculator(failingStore{}, now).RemainingBudget(ctx, 1); err == nil {
		t.Fatal("expected store error")
	}
}
