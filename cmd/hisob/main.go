package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"hisob/internal/backend"
	"hisob/internal/bot"
	"hisob/internal/cache"
	"hisob/internal/category"
	"hisob/internal/cli"
	"hisob/internal/config"
	apphttp "hisob/internal/http"
	"hisob/internal/ledger"
	"hisob/internal/log"
	"hisob/internal/parser"
	"hisob/internal/telegram"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateBot)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	p, err := newParser(cfg)
	if err != nil {
		logger.Error("Failed to set up parser", log.FieldError, err)
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger.Logger.With(log.FieldComponent, log.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	caches := cache.NewManager()
	if store.Cleaner != nil {
		caches.Register(store.Cleaner)
	}
	caches.StartCleanup(time.Minute)

	book := ledger.New(store.Backend)
	if err := book.Load(ctx); err != nil {
		// Commands answer "no data" and retry the load until storage is back.
		logger.Warn("Starting with an unloaded ledger", log.FieldError, err)
	}

	handler := bot.NewHandler(book, p,
		bot.WithBackendName(store.Type.String()),
		bot.WithLogger(logger))

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to connect to Telegram", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Authorized on Telegram", "bot", api.Self.UserName, "mode", cfg.BotMode)

	transport := telegram.New(api, bot.NewAuthorizer(cfg.OwnerIDs), handler, telegram.WithLogger(logger))
	if err := transport.RegisterCommands(); err != nil {
		logger.Warn("Failed to register command menu", log.FieldError, err)
	}

	opts := apphttp.Options{
		Addr:   ":" + cfg.Port,
		Ready:  book.EnsureLoaded,
		Logger: logger,
	}
	if cfg.BotMode == "webhook" {
		opts.WebhookPath = cfg.WebhookPath
		opts.Webhook = transport.WebhookHandler()
		opts.StrictWebhookSource = cfg.WebhookStrictSource
		if err := transport.SetWebhook(strings.TrimRight(cfg.WebhookURL, "/") + cfg.WebhookPath); err != nil {
			logger.Error("Failed to register webhook", log.FieldError, err)
			os.Exit(1)
		}
	}
	srv := apphttp.NewServer(opts)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting hisob", "port", cfg.Port, "backend", store.Type)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		cli.Shutdown(logger, 30*time.Second, func(ctx context.Context) {
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Server shutdown error", log.FieldError, err)
			}
		})
		return nil
	})
	if cfg.BotMode == "polling" {
		g.Go(func() error { return transport.Poll(gctx, api) })
	}

	err = g.Wait()
	caches.Stop()
	if store.Cleanup != nil {
		if cerr := store.Cleanup(); cerr != nil {
			logger.Error("Backend cleanup failed", log.FieldError, cerr)
		}
	}
	if err != nil {
		logger.Error("hisob stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("hisob stopped")
}

func newParser(cfg *config.Config) (*parser.Parser, error) {
	policy, err := parser.ParseSignPolicy(cfg.SignPolicy)
	if err != nil {
		return nil, err
	}
	classifier := category.Default()
	if cfg.CategoriesFile != "" {
		if classifier, err = category.LoadFile(cfg.CategoriesFile); err != nil {
			return nil, err
		}
	}
	return parser.New(parser.WithSignPolicy(policy), parser.WithClassifier(classifier)), nil
}
