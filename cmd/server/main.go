package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mcoot/arcade/internal/api"
	"github.com/mcoot/arcade/internal/config"
	"github.com/mcoot/arcade/internal/factory"
	"github.com/mcoot/arcade/internal/services/audit"
	"github.com/mcoot/arcade/internal/services/login"
	redisstorage "github.com/mcoot/arcade/internal/storage/redis"
	"github.com/mcoot/arcade/internal/web"
	"github.com/mcoot/arcade/internal/web/ws"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
		DatabaseURL: cfg.DatabaseURL,
		AuditConfig: audit.DefaultConfig(),
		WSConfig:    ws.DefaultConfig(),
	}
	factoryCfg.AuditConfig.Workers = cfg.AuditWorkers
	factoryCfg.AuditConfig.MaxAttempts = cfg.AuditMaxAttempts
	factoryCfg.WSConfig.PingInterval = cfg.WSPingInterval
	factoryCfg.WSConfig.PongWait = cfg.WSPongWait

	if cfg.StorageType == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	if cfg.LoginEnabled() {
		provider, err := login.NewGoogleProvider(ctx, login.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
		})
		if err != nil {
			return err
		}
		factoryCfg.LoginProvider = provider
	} else {
		logger.Warn("GOOGLE_CLIENT_ID not set, login routes disabled")
	}

	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
		stats := app.AuditRecorder.Stats()
		logger.Info("audit recorder closed",
			slog.Int64("written", stats.Written),
			slog.Int64("dropped", stats.Dropped),
		)
	}()

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:   logger,
		Resolver: app.AuthService,
		Game:     app.GameController,
		Sessions: app.WSHandler.Registry(),
	})

	webCfg := web.RouterConfig{
		Logger:       logger,
		Auth:         app.AuthService,
		Auditor:      app.AuditRecorder,
		Random:       app.Random,
		Game:         app.WSHandler,
		CookieSecure: cfg.CookieSecure,
	}
	if app.LoginProvider != nil {
		webCfg.Provider = app.LoginProvider
	}
	webRouter := web.NewRouter(webCfg)

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return errors.New("PORT must be a number")
	}
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = port
	server := api.NewServer(mux, serverConfig, logger)
	server.OnShutdown(app.WSHandler.Shutdown)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel}))
}
