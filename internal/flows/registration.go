package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/m3rciful/finbot/internal/conversation"
)

// StartRegistration answers already-registered chats directly; otherwise it
// starts the registration flow.
func (h *Handlers) StartRegistration(ctx context.Context, chatID int64) []Reply {
	ok, failure := h.registered(ctx, chatID)
	if failure != nil {
		return failure
	}
	if ok {
		return []Reply{{Text: msgAlreadyRegistered}}
	}
	return h.begin(ctx, chatID, conversation.FlowRegistration, Reply{Text: msgAskName, RemoveKeyboard: true})
}

func (h *Handlers) registrationName(ctx context.Context, chatID int64, text string) Result {
	name := strings.TrimSpace(text)
	if name == "" {
		return reply(Reply{Text: msgEmptyName})
	}
	if !h.record(ctx, chatID, conversation.FieldName, name) {
		return internalErrorResult
	}
	if _, err := h.store.InsertUser(ctx, name, chatID); err != nil {
		return h.persistFailed(ctx, conversation.StepWaitingForName, err)
	}
	h.completed(ctx, chatID)
	return reply(Reply{Text: fmt.Sprintf(msgRegistered, name)})
}
