// Package app wires the finance bot: ledger store, rate client, conversation
// machine, flows and the Telegram text route.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/finbot/core/bootstrap"
	"github.com/m3rciful/finbot/core/cmd"
	"github.com/m3rciful/finbot/core/logger"
	coretelegram "github.com/m3rciful/finbot/core/telegram"
	"github.com/m3rciful/finbot/core/telegram/keyboard"
	"github.com/m3rciful/finbot/core/telegram/middleware"
	"github.com/m3rciful/finbot/internal/conversation"
	"github.com/m3rciful/finbot/internal/dialogue"
	"github.com/m3rciful/finbot/internal/flows"
	"github.com/m3rciful/finbot/internal/ledger"
	"github.com/m3rciful/finbot/internal/rates"

	tele "gopkg.in/telebot.v4"
)

var errConfigType = errors.New("app: unexpected config type")

// App is the bootstrapped bot.
type App struct {
	cfg          *Config
	db           *sqlx.DB
	machine      *conversation.Machine
	orchestrator *dialogue.Orchestrator
}

// Bootstrap runs the infrastructure pipeline and builds the App.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, errConfigType
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	client, err := rates.NewClient(cfg.Rates, nil)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return New(cfg, res.DB, ledger.NewPostgresStore(res.DB), client), nil
}

// New assembles the App from already built collaborators. db may be nil.
func New(cfg *Config, db *sqlx.DB, store ledger.Store, provider rates.Provider) *App {
	machine := conversation.NewMachine()
	handlers := flows.New(flows.Deps{
		Machine: machine,
		Store:   store,
		Rates:   provider,
		Now:     time.Now,
	})
	return &App{
		cfg:          cfg,
		db:           db,
		machine:      machine,
		orchestrator: dialogue.New(machine, handlers),
	}
}

// TelegramRunOptions binds the orchestrator to text updates.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Commands:    BotCommands(),
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, nil),
		Routes: []coretelegram.Route{
			{Endpoint: tele.OnText, Handler: a.HandleText},
		},
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			logger.TG.LogAttrs(ctx, slog.LevelInfo, "sessions.dropped",
				slog.Int("count", a.machine.Active()),
			)
			return nil
		},
	}, nil
}

// HandleText feeds one text message to the orchestrator and sends back its
// replies in order.
func (a *App) HandleText(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := logger.WithHandler(middleware.Context(c), "text")
	for _, r := range a.orchestrator.Handle(ctx, chat.ID, c.Text()) {
		var opts []any
		if markup := Markup(r); markup != nil {
			opts = append(opts, markup)
		}
		if err := c.Send(r.Text, opts...); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Markup converts the keyboard of a reply into telebot markup.
func Markup(r flows.Reply) *tele.ReplyMarkup {
	switch {
	case len(r.Keyboard) > 0:
		return keyboard.ReplyButtons(r.Keyboard...)
	case r.RemoveKeyboard:
		return keyboard.RemoveKeyboard()
	default:
		return nil
	}
}

// BotCommands lists the command menu entries.
func BotCommands() []tele.Command {
	vocab := dialogue.Commands()
	out := make([]tele.Command, 0, len(vocab))
	for _, c := range vocab {
		out = append(out, tele.Command{Text: c.Name, Description: c.Description})
	}
	return out
}
