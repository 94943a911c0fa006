package flows

import (
	"context"

	"github.com/m3rciful/finbot/internal/conversation"
)

// StartSetBudget starts the set-budget flow for registered chats.
func (h *Handlers) StartSetBudget(ctx context.Context, chatID int64) []Reply {
	return h.requireUser(ctx, chatID, conversation.FlowSetBudget, Reply{Text: msgAskBudget, RemoveKeyboard: true})
}

func (h *Handlers) budgetAmount(ctx context.Context, chatID int64, text string) Result {
	amount, ok := ParseAmount(text)
	if !ok {
		return reply(Reply{Text: msgBadAmount})
	}
	if !h.record(ctx, chatID, conversation.FieldAmount, amount) {
		return internalErrorResult
	}
	if err := h.store.InsertBudget(ctx, int(h.now().Month()), amount, chatID); err != nil {
		return h.persistFailed(ctx, conversation.StepWaitingForBudget, err)
	}
	h.completed(ctx, chatID)
	return reply(Reply{Text: msgBudgetSaved})
}
