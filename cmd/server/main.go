package main

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/auction-marketplace/internal/config"
    "github.com/iliyamo/auction-marketplace/internal/database"
    "github.com/iliyamo/auction-marketplace/internal/handler"
    "github.com/iliyamo/auction-marketplace/internal/logging"
    "github.com/iliyamo/auction-marketplace/internal/middleware"
    "github.com/iliyamo/auction-marketplace/internal/queue"
    "github.com/iliyamo/auction-marketplace/internal/repository"
    "github.com/iliyamo/auction-marketplace/internal/router"
    "github.com/iliyamo/auction-marketplace/internal/service"
    "github.com/iliyamo/auction-marketplace/internal/utils"
)

func main() {
    if err := run(); err != nil {
        os.Stderr.WriteString("server: " + err.Error() + "\n")
        os.Exit(1)
    }
}

func run() error {
    cfg, err := config.Load()
    if err != nil {
        return err
    }
    log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout).With("env", cfg.Env)

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        return err
    }
    defer db.Close()

    migrator := database.NewMigrator(db)
    if cfg.MigrateOnStart {
        applied, err := migrator.Up(ctx)
        if err != nil {
            return err
        }
        log.Info(ctx, "migrations applied at startup", "versions", applied)
    }

    cacheCfg, err := config.LoadCacheConfig()
    if err != nil {
        return err
    }
    redisCfg, err := config.LoadRedisConfig()
    if err != nil {
        return err
    }
    queueCfg, err := config.LoadQueueConfig()
    if err != nil {
        return err
    }

    rdb := config.NewRedisClient(redisCfg)
    if rdb == nil {
        log.Warn(ctx, "redis unreachable; response cache disabled", "addr", redisCfg.Address())
    } else {
        defer rdb.Close()
    }

    var events service.EventPublisher = service.NopPublisher{}
    if queueCfg.Enabled {
        events = service.NewAMQPPublisher(queueCfg.URL)
    }
    if queueCfg.ConsumerEnabled {
        consumer := queue.NewListingConsumer(queueCfg.URL, queueCfg.LogDir, log.With("component", "listing-consumer"))
        go func() {
            if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
                log.Error(ctx, "listing consumer stopped", "error", err)
            }
        }()
    }

    sessions := service.NewSessionManager(repository.NewUserRepo(db), repository.NewSessionRepo(db), cfg.SessionTTL, log)
    listings := service.NewListingEngine(repository.NewItemRepo(db), events, log)

    e := echo.New()
    e.HideBanner = true
    e.HTTPErrorHandler = handler.ErrorHandler(log)
    e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: utils.NewID}))
    e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogStatus:    true,
        LogURI:       true,
        LogMethod:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            args := []any{"method", v.Method, "uri", v.URI, "status", v.Status,
                "latency_ms", v.Latency.Milliseconds(), "request_id", v.RequestID}
            if v.Error != nil {
                log.Error(c.Request().Context(), "request", append(args, "error", v.Error)...)
                return nil
            }
            log.Info(c.Request().Context(), "request", args...)
            return nil
        },
    }))
    e.Use(echomw.Recover())

    router.RegisterRoutes(e, router.Deps{
        Auth:     handler.NewAuthHandler(sessions, log),
        Items:    handler.NewItemHandler(listings, log),
        Session:  middleware.Session(sessions, log),
        Cache:    middleware.ResponseCache(cacheCfg, rdb, log),
        DBHealth: &handler.DBHealth{DB: db},
        Migrate: &handler.MigrateHandler{
            Migrator:       migrator,
            Token:          cfg.MigrationToken,
            AllowAnonymous: cfg.AllowAnonymousMigrate(),
            Log:            log,
        },
    })

    errCh := make(chan error, 1)
    go func() {
        log.Info(ctx, "listening", "addr", ":"+cfg.Port)
        if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errCh <- err
        }
        close(errCh)
    }()

    select {
    case err := <-errCh:
        return err
    case <-ctx.Done():
    }

    log.Info(context.Background(), "shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    return e.Shutdown(shutdownCtx)
}
