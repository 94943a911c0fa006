package flows

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/finbot/internal/conversation"
	"github.com/m3rciful/finbot/internal/ledger"
)

// StartAddOperation starts the add-operation flow for registered chats.
func (h *Handlers) StartAddOperation(ctx context.Context, chatID int64) []Reply {
	return h.requireUser(ctx, chatID, conversation.FlowAddOperation, Reply{Text: msgAskKind, Keyboard: kindKeyboard})
}

func (h *Handlers) operationType(ctx context.Context, chatID int64, text string) Result {
	kind, ok := ledger.ParseKind(text)
	if !ok {
		return reply(Reply{Text: msgBadKind, Keyboard: kindKeyboard})
	}
	if !h.record(ctx, chatID, conversation.FieldKind, kind) || !h.advance(ctx, chatID, conversation.StepWaitingForAmount) {
		return internalErrorResult
	}
	return reply(Reply{Text: msgAskAmount, RemoveKeyboard: true})
}

func (h *Handlers) operationAmount(ctx context.Context, chatID int64, text string) Result {
	amount, ok := ParseAmount(text)
	if !ok || amount <= 0 {
		return reply(Reply{Text: msgBadAmount})
	}
	if !h.record(ctx, chatID, conversation.FieldAmount, amount) || !h.advance(ctx, chatID, conversation.StepWaitingForDate) {
		return internalErrorResult
	}
	return reply(Reply{Text: msgAskDate})
}

func (h *Handlers) operationDate(ctx context.Context, chatID int64, text string) Result {
	date, ok := ParseDate(text)
	if !ok {
		return reply(Reply{Text: msgBadDate})
	}
	if !h.record(ctx, chatID, conversation.FieldDate, date) {
		return internalErrorResult
	}
	sess, _ := h.machine.Session(chatID)
	fields, ok := sess.Fields.(conversation.OperationFields)
	if !ok || fields.Kind == "" || fields.Amount <= 0 {
		return internalErrorResult
	}
	if err := h.store.InsertOperation(ctx, fields.Date, fields.Amount, chatID, fields.Kind); err != nil {
		return h.persistFailed(ctx, conversation.StepWaitingForDate, err)
	}
	h.completed(ctx, chatID)
	return reply(Reply{Text: msgOperationAdd})
}

// ParseAmount reads a plain decimal number, accepting a comma as the decimal
// separator. Exponent notation is not accepted.
func ParseAmount(text string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if s == "" || strings.ContainsAny(s, "eE") {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	// Digit strings beyond float64 range convert to ±Inf.
	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ParseDate reads a YYYY-MM-DD calendar date.
func ParseDate(text string) (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
