// Package dialogue routes incoming chat text either to the active flow step
// or to a command that starts a new flow.
package dialogue

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/internal/conversation"
	"github.com/m3rciful/finbot/internal/flows"
)

// Reply is one outgoing message.
type Reply = flows.Reply

// Command describes one entry of the bot vocabulary.
type Command struct {
	Name        string
	Description string
}

var commands = []Command{
	{Name: "reg", Description: "Регистрация"},
	{Name: "add_operation", Description: "Добавить доход или расход"},
	{Name: "setbudget", Description: "Установить бюджет на текущий месяц"},
	{Name: "operations", Description: "Показать операции и остаток бюджета"},
	{Name: "help", Description: "Список команд"},
}

// Commands returns the bot vocabulary in menu order.
func Commands() []Command {
	out := make([]Command, len(commands))
	copy(out, commands)
	return out
}

type starter func(ctx context.Context, chatID int64) []Reply

// Orchestrator serializes the turns of one chat and dispatches them.
type Orchestrator struct {
	machine *conversation.Machine
	flows   *flows.Handlers
	starts  map[string]starter
}

// New builds an orchestrator over machine and the flow handlers bound to it.
func New(machine *conversation.Machine, handlers *flows.Handlers) *Orchestrator {
	o := &Orchestrator{machine: machine, flows: handlers}
	o.starts = map[string]starter{
		"reg":           handlers.StartRegistration,
		"add_operation": handlers.StartAddOperation,
		"setbudget":     handlers.StartSetBudget,
		"operations":    handlers.StartViewOperations,
		"start":         greet,
		"help":          greet,
	}
	return o
}

// Handle processes one message of chatID. While a flow is active every text,
// commands included, is input for the current step. An idle chat only reacts
// to known commands.
func (o *Orchestrator) Handle(ctx context.Context, chatID int64, text string) []Reply {
	unlock := o.machine.Lock(chatID)
	defer unlock()

	start := time.Now()
	step := o.machine.CurrentStep(chatID)
	var (
		replies []Reply
		route   string
	)
	if step != conversation.StepNone {
		route = "step"
		replies = o.flows.Step(ctx, chatID, text)
	} else if name, ok := ParseCommand(text); ok {
		route = "command"
		if fn, known := o.starts[name]; known {
			replies = fn(ctx, chatID)
		} else {
			route = "unknown_command"
		}
	} else {
		route = "ignored"
	}

	logger.Dialogue.LogAttrs(ctx, slog.LevelDebug, "turn",
		slog.String("status", "ok"),
		slog.Int64("chat_id", chatID),
		slog.String("step", string(step)),
		slog.String("next_step", string(o.machine.CurrentStep(chatID))),
		slog.String("outcome", route),
		slog.Int("replies", len(replies)),
		slog.Duration("duration", time.Since(start)),
	)
	return replies
}

// ParseCommand extracts the command name from text such as
// "/add_operation@finbot extra". It reports false for non-command text.
func ParseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.TrimPrefix(text, "/")
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", false
	}
	return strings.ToLower(name), true
}

func greet(context.Context, int64) []Reply {
	var b strings.Builder
	b.WriteString("Привет! Я помогу вести учёт доходов и расходов.\n\n")
	for _, c := range commands {
		b.WriteString("/" + c.Name + " - " + c.Description + "\n")
	}
	return []Reply{{Text: b.String(), RemoveKeyboard: true}}
}
