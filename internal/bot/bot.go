// Package bot is the Telegram transport: routing, middlewares and the
// user-facing handlers.
package bot

import (
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/raditpra/unduh-bot/internal/bot/handlers"
	errors "github.com/raditpra/unduh-bot/internal/errors"
	"github.com/raditpra/unduh-bot/internal/idempotency"
	"github.com/raditpra/unduh-bot/internal/media"
	"github.com/raditpra/unduh-bot/internal/middleware"
	"github.com/raditpra/unduh-bot/internal/store"
	"github.com/raditpra/unduh-bot/internal/vip"
	"github.com/raditpra/unduh-bot/pkg/config"
)

const (
	CommandStart  = "/start"
	CommandHelp   = "/help"
	CommandVip    = "/vip"
	CommandStatus = "/status"
)

// EntitlementController combines the decision surfaces the transport
// needs from the entitlement layer.
type EntitlementController interface {
	handlers.Decider
	handlers.Reviewer
}

// Deps carries the wired application services the bot dispatches to.
type Deps struct {
	Store       store.Store
	Catalog     *vip.Catalog
	Fetcher     media.Fetcher
	Guard       handlers.Admission
	Reconciler  handlers.Syncer
	Controller  EntitlementController
	Idempotency idempotency.Manager
}

// Bot wraps telebot.Bot with routing and application dependencies.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	router     *Router
	errHandler *errors.Handler
}

// New builds the bot on top of an already-created telebot instance.
// The instance is created by the caller because other components, the
// notifier and the membership checker, share it.
func New(cfg config.Config, log *slog.Logger, tb *telebot.Bot, deps Deps) (*Bot, error) {
	if tb == nil {
		return nil, fmt.Errorf("telebot instance is required")
	}
	if log == nil {
		log = slog.Default()
	}

	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		router:     NewRouter(log),
		errHandler: errors.NewHandler(log, cfg.Sentry.DSN != ""),
	}

	b.setupRouter(deps)

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)

	return b, nil
}

// NewTelebot creates the underlying long-polling telebot instance.
func NewTelebot(cfg config.Config) (*telebot.Bot, error) {
	tb, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	return tb, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations
// such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter(deps Deps) {
	isAdmin := b.cfg.Telegram.IsAdmin

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(middleware.Idempotency(deps.Idempotency, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(UserUpsertMiddleware(deps.Store, b.log))
	b.router.Use(middleware.Metrics)

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(deps.Catalog))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler())
	b.router.RegisterCommand(CommandVip, handlers.NewVipHandler(deps.Catalog))
	b.router.RegisterCommand(CommandStatus, handlers.NewStatusHandler(deps.Store, deps.Catalog, b.log))

	admin := handlers.NewAdmin(deps.Store, deps.Reconciler, deps.Controller, isAdmin, b.log)
	b.router.RegisterBangCommand("!cek", admin.SyncPayments())
	b.router.RegisterBangCommand("!cp", admin.SyncPayments())
	b.router.RegisterBangCommand("!pend", admin.PendingPayments())
	b.router.RegisterBangCommand("!pa", admin.PendingPayments())
	b.router.RegisterBangCommand("!listvip", admin.ListVip())
	b.router.RegisterBangCommand("!delvip", admin.DeleteVip())
	b.router.RegisterBangCommand("!debug", admin.Debug())

	b.router.RegisterCallback("vip_", handlers.NewVipSelectionCallback(deps.Catalog, b.cfg.Trakteer.PageName))
	b.router.RegisterCallback("approve_", handlers.NewApproveCallback(deps.Controller, isAdmin))
	b.router.RegisterCallback("reject_", handlers.NewRejectCallback(deps.Controller, isAdmin))
	b.router.RegisterCallback("listvip", admin.ListVipPage())

	b.router.SetDefault(handlers.NewDownloadHandler(deps.Guard, deps.Fetcher, isAdmin, b.log))
}
