package flows

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/internal/budget"
	"github.com/m3rciful/finbot/internal/conversation"
)

var supportedCurrencies = map[string]struct{}{
	budget.BaseCurrency: {},
	"USD":               {},
	"EUR":               {},
}

// StartViewOperations starts the view-operations flow for registered chats.
func (h *Handlers) StartViewOperations(ctx context.Context, chatID int64) []Reply {
	return h.requireUser(ctx, chatID, conversation.FlowViewOperations, Reply{Text: msgAskCurrency, Keyboard: currencyKeyboard})
}

func (h *Handlers) viewCurrency(ctx context.Context, chatID int64, text string) Result {
	currency := strings.ToUpper(strings.TrimSpace(text))
	if _, ok := supportedCurrencies[currency]; !ok {
		return reply(Reply{Text: msgBadCurrency, Keyboard: currencyKeyboard})
	}
	if !h.record(ctx, chatID, conversation.FieldCurrency, currency) {
		return internalErrorResult
	}
	if currency == budget.BaseCurrency {
		return h.summarize(ctx, chatID, currency, 1)
	}
	if !h.advance(ctx, chatID, conversation.StepWaitingForExchange) {
		return internalErrorResult
	}
	return Result{Chain: true}
}

// viewExchange fetches the rate for the recorded currency. On failure the
// flow returns to currency choice so the user can pick again.
func (h *Handlers) viewExchange(ctx context.Context, chatID int64, _ string) Result {
	sess, _ := h.machine.Session(chatID)
	fields, ok := sess.Fields.(conversation.ViewFields)
	if !ok || fields.Currency == "" {
		return internalErrorResult
	}

	rate, err := h.rates.Rate(ctx, fields.Currency)
	if err != nil {
		logger.Flows.LogAttrs(ctx, slog.LevelWarn, "rate.unavailable",
			slog.String("status", "fail"),
			slog.String("currency", fields.Currency),
			slog.String("err", err.Error()),
		)
		h.advance(ctx, chatID, conversation.StepWaitingForCurrency)
		return reply(
			Reply{Text: fmt.Sprintf(msgRateUnavailable, fields.Currency)},
			Reply{Text: msgAskCurrency, Keyboard: currencyKeyboard},
		)
	}
	return h.summarize(ctx, chatID, fields.Currency, rate)
}

func (h *Handlers) summarize(ctx context.Context, chatID int64, currency string, rate float64) Result {
	summary, err := h.calc.Summary(ctx, chatID, currency, rate)
	if err != nil {
		return h.persistFailed(ctx, h.machine.CurrentStep(chatID), err)
	}
	h.completed(ctx, chatID)
	return reply(Reply{Text: summary.Text(), RemoveKeyboard: true})
}
