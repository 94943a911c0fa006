// Package flows implements the guided dialogues: registration, adding an
// operation, setting the monthly budget and viewing operations. Each flow is a
// table of step functions driven by the conversation machine.
package flows

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/internal/budget"
	"github.com/m3rciful/finbot/internal/conversation"
	"github.com/m3rciful/finbot/internal/ledger"
	"github.com/m3rciful/finbot/internal/rates"
)

// Reply is one outgoing message with an optional reply keyboard.
type Reply struct {
	Text           string
	Keyboard       [][]string
	RemoveKeyboard bool
}

// Result is the effect of one step: replies to send and whether the next
// step runs immediately without waiting for input.
type Result struct {
	Replies []Reply
	Chain   bool
}

// StepFunc consumes one message for the step it is registered under.
type StepFunc func(ctx context.Context, chatID int64, text string) Result

// maxChain bounds consecutive chained steps within one turn.
const maxChain = 4

// Deps are the collaborators of the flow handlers.
type Deps struct {
	Machine *conversation.Machine
	Store   ledger.Store
	Rates   rates.Provider
	// Now defaults to time.Now; the current month scopes budgets.
	Now func() time.Time
}

// Handlers owns the step tables of every flow.
type Handlers struct {
	machine *conversation.Machine
	store   ledger.Store
	rates   rates.Provider
	calc    *budget.Calculator
	now     func() time.Time
	steps   map[conversation.Step]StepFunc
}

// New wires the handlers.
func New(d Deps) *Handlers {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	h := &Handlers{
		machine: d.Machine,
		store:   d.Store,
		rates:   d.Rates,
		calc:    budget.NewCalculator(d.Store, now),
		now:     now,
	}
	h.steps = map[conversation.Step]StepFunc{
		conversation.StepWaitingForName:     h.registrationName,
		conversation.StepWaitingForType:     h.operationType,
		conversation.StepWaitingForAmount:   h.operationAmount,
		conversation.StepWaitingForDate:     h.operationDate,
		conversation.StepWaitingForBudget:   h.budgetAmount,
		conversation.StepWaitingForCurrency: h.viewCurrency,
		conversation.StepWaitingForExchange: h.viewExchange,
	}
	return h
}

// Step feeds text to the step chatID currently waits on. Callers must hold
// the machine's per-chat lock.
func (h *Handlers) Step(ctx context.Context, chatID int64, text string) []Reply {
	var replies []Reply
	for i := 0; i < maxChain; i++ {
		step := h.machine.CurrentStep(chatID)
		fn, ok := h.steps[step]
		if !ok {
			return replies
		}
		res := fn(ctx, chatID, text)
		replies = append(replies, res.Replies...)
		if !res.Chain {
			return replies
		}
	}
	logger.Flows.LogAttrs(ctx, slog.LevelWarn, "step.chain_limit",
		slog.String("status", "fail"),
		slog.Int64("chat_id", chatID),
	)
	return replies
}

// begin starts flow after the caller has checked its guard.
func (h *Handlers) begin(ctx context.Context, chatID int64, flow conversation.Flow, prompt Reply) []Reply {
	if err := h.machine.Start(chatID, flow); err != nil {
		logger.Flows.LogAttrs(ctx, slog.LevelWarn, "flow.start",
			slog.String("status", "fail"),
			slog.String("flow", string(flow)),
			slog.String("err", err.Error()),
		)
		if errors.Is(err, conversation.ErrAlreadyInFlow) {
			return []Reply{{Text: msgFinishCurrent}}
		}
		return []Reply{{Text: msgInternalError}}
	}
	logger.Flows.LogAttrs(ctx, slog.LevelDebug, "flow.start",
		slog.String("status", "ok"),
		slog.String("flow", string(flow)),
		slog.String("step", string(flow.InitialStep())),
	)
	return []Reply{prompt}
}

// registered reports whether chatID has a user row. A lookup failure yields
// a ready-made reply.
func (h *Handlers) registered(ctx context.Context, chatID int64) (bool, []Reply) {
	_, err := h.store.FindUser(ctx, chatID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ledger.ErrNotFound):
		return false, nil
	default:
		return false, []Reply{{Text: msgInternalError}}
	}
}

// requireUser guards flows that need a registered chat.
func (h *Handlers) requireUser(ctx context.Context, chatID int64, flow conversation.Flow, prompt Reply) []Reply {
	ok, failure := h.registered(ctx, chatID)
	if failure != nil {
		return failure
	}
	if !ok {
		logger.Flows.LogAttrs(ctx, slog.LevelDebug, "flow.guard",
			slog.String("status", "skip"),
			slog.String("flow", string(flow)),
			slog.String("cause", "not_registered"),
		)
		return []Reply{{Text: msgRegisterFirst}}
	}
	return h.begin(ctx, chatID, flow, prompt)
}

func (h *Handlers) advance(ctx context.Context, chatID int64, next conversation.Step) bool {
	if err := h.machine.Advance(chatID, next); err != nil {
		logger.Flows.LogAttrs(ctx, slog.LevelError, "step.advance",
			slog.String("status", "fail"),
			slog.String("next_step", string(next)),
			slog.String("err", err.Error()),
		)
		return false
	}
	return true
}

func (h *Handlers) record(ctx context.Context, chatID int64, key conversation.Field, value any) bool {
	if err := h.machine.RecordField(chatID, key, value); err != nil {
		logger.Flows.LogAttrs(ctx, slog.LevelError, "step.record",
			slog.String("status", "fail"),
			slog.String("field", string(key)),
			slog.String("err", err.Error()),
		)
		return false
	}
	return true
}

func (h *Handlers) persistFailed(ctx context.Context, step conversation.Step, err error) Result {
	logger.Flows.LogAttrs(ctx, slog.LevelError, "step.persist",
		slog.String("status", "fail"),
		slog.String("step", string(step)),
		slog.String("err", err.Error()),
	)
	return reply(Reply{Text: msgInternalError})
}

func (h *Handlers) completed(ctx context.Context, chatID int64) conversation.Fields {
	fields := h.machine.Complete(chatID)
	if fields != nil {
		logger.Flows.LogAttrs(ctx, slog.LevelDebug, "flow.complete",
			slog.String("status", "ok"),
			slog.String("flow", string(fields.Flow())),
		)
	}
	return fields
}

func reply(r ...Reply) Result {
	return Result{Replies: r}
}

var internalErrorResult = Result{Replies: []Reply{{Text: msgInternalError}}}
