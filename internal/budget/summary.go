package budget

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/finbot/internal/ledger"
)

// Line is one operation as displayed.
type Line struct {
	Date   time.Time
	Amount float64
	Kind   ledger.Kind
}

// Summary is the converted view returned by the view-operations flow.
type Summary struct {
	Currency     string
	Rate         float64
	Budget       float64
	HasBudget    bool
	Remaining    float64
	HasRemaining bool
	Lines        []Line
}

// Build converts every figure with the same rate. For BaseCurrency the rate is 1.
func Build(currency string, rate float64, entry *ledger.BudgetEntry, ops []ledger.Operation) Summary {
	if currency == BaseCurrency || rate <= 0 {
		rate = 1
	}
	s := Summary{Currency: currency, Rate: rate}
	if entry != nil {
		s.Budget = Convert(entry.Amount, rate)
		s.HasBudget = true
	}
	if remaining, ok := Remaining(entry, ops); ok {
		s.Remaining = Convert(remaining, rate)
		s.HasRemaining = true
	}
	s.Lines = make([]Line, 0, len(ops))
	for _, op := range ops {
		s.Lines = append(s.Lines, Line{Date: op.Date, Amount: Convert(op.Amount, rate), Kind: op.Kind})
	}
	return s
}

// Revert multiplies every figure back by the rate, yielding the RUB view.
func (s Summary) Revert() Summary {
	out := s
	out.Currency = BaseCurrency
	out.Budget = s.Budget * s.Rate
	out.Remaining = s.Remaining * s.Rate
	out.Lines = make([]Line, len(s.Lines))
	for i, l := range s.Lines {
		out.Lines[i] = Line{Date: l.Date, Amount: l.Amount * s.Rate, Kind: l.Kind}
	}
	out.Rate = 1
	return out
}

// Text renders the summary as the chat reply.
func (s Summary) Text() string {
	var b strings.Builder
	budget := 0.0
	if s.HasBudget {
		budget = s.Budget
	}
	fmt.Fprintf(&b, "Бюджет на текущий месяц: %s %s\n", formatAmount(budget), s.Currency)
	if s.HasRemaining {
		fmt.Fprintf(&b, "Остаток средств в бюджете: %s %s\n", formatAmount(s.Remaining), s.Currency)
	}
	if s.Currency == BaseCurrency {
		b.WriteString("\nИнформация по операциям:\n")
	} else {
		b.WriteString("\nИнформация по операциям в выбранной валюте:\n")
	}
	if len(s.Lines) == 0 {
		b.WriteString("операций пока нет\n")
	}
	for _, l := range s.Lines {
		fmt.Fprintf(&b, "Дата: %s, Сумма: %s, Тип: %s\n", l.Date.Format(time.DateOnly), formatAmount(l.Amount), l.Kind)
	}
	return b.String()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
