package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/bankmatch/internal/handlers"
	"github.com/nkiryanov/bankmatch/internal/logger"
	"github.com/nkiryanov/bankmatch/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/bankmatch/internal/service/fio"
	"github.com/nkiryanov/bankmatch/internal/service/notify"
	"github.com/nkiryanov/bankmatch/internal/service/ratelimit"
	"github.com/nkiryanov/bankmatch/internal/service/reconcile"
	"github.com/nkiryanov/bankmatch/internal/service/watcher"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	// Optional background donation watcher
	watcher *watcher.Watcher

	logger logger.Logger
	close  func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	var notifier reconcile.Notifier = notify.Nop{}
	if c.TelegramToken != "" {
		if c.TelegramChatID == 0 {
			return nil, errors.New("telegram chat id is required when telegram token is set")
		}
		notifier, err = notify.NewTelegram(c.TelegramToken, c.TelegramChatID)
		if err != nil {
			return nil, err
		}
	}

	var campaigns []watcher.Campaign
	if c.CampaignsFile != "" {
		campaigns, err = watcher.LoadCampaigns(c.CampaignsFile)
		if err != nil {
			return nil, err
		}
	}

	// Connect to the record store, the last step that may fail
	store, closeStore, err := openStore(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if c.FioToken == "" {
		logger.Warn("FIO_TOKEN is not set, verification requests will fail")
	}
	feed := fio.NewClient(c.FioAddr, c.FioToken, logger, fio.WithRetryAfter(c.RateWindow))
	gate := ratelimit.New(store, c.RateWindow)

	svc := reconcile.NewService(
		reconcile.Config{
			QuotaGrant:    c.QuotaGrant,
			Lookback:      c.Lookback,
			Account:       c.AccountIBAN,
			RecipientName: c.RecipientName,
			Message:       c.PaymentMessage,
		},
		store,
		feed,
		gate,
		notifier,
		logger,
	)

	app := &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    handlers.NewRouter(svc, tokenManager, logger),
		logger:     logger,
		close:      closeStore,
	}

	if len(campaigns) > 0 {
		app.watcher = watcher.New(campaigns, c.WatchInterval, svc, logger)
	}

	return app, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	var watcherStopped <-chan struct{}
	if s.watcher != nil {
		watcherStopped = s.watcher.Process(srvCtx)
	} else {
		stopped := make(chan struct{})
		close(stopped)
		watcherStopped = stopped
	}

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-watcherStopped

	return err
}
