package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	applicationhandler "taskhub/internal/application/handler"
	identityhandler "taskhub/internal/identity/handler"
	planhandler "taskhub/internal/plan/handler"
	taskcache "taskhub/internal/task/cache"
	taskhandler "taskhub/internal/task/handler"

	"taskhub/internal/application"
	"taskhub/internal/identity"
	"taskhub/internal/jwttoken"
	"taskhub/internal/notify"
	"taskhub/internal/plan"
	"taskhub/internal/platform/config"
	"taskhub/internal/platform/httpserver"
	"taskhub/internal/platform/logger"
	"taskhub/internal/platform/metrics"
	"taskhub/internal/platform/postgres"
	platformredis "taskhub/internal/platform/redis"
	"taskhub/internal/task"
	httptransport "taskhub/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	rdb, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, board cache disabled", "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Store wiring: Postgres when configured, in-memory otherwise.
	var (
		appStore  application.Store
		planStore plan.Store
		idStore   identity.Store
		taskStore task.Store
		taskTx    task.TxRunner
	)
	if db != nil {
		appStore = application.NewPostgres(db)
		planStore = plan.NewPostgres(db)
		idStore = identity.NewPostgres(db)
		taskStore = task.NewPostgres(db)
		taskTx = newTaskPostgresTx(db)
	} else {
		log.Warn("no DATABASE_URL configured, using in-memory stores")
		memApps := application.NewInMemoryStore()
		memPlans := plan.NewInMemoryStore()
		appStore = memApps
		planStore = memPlans
		idStore = identity.NewInMemoryStore()
		memTasks := task.NewInMemoryStore(memApps, memPlans)
		taskStore = memTasks
		taskTx = task.NewMemoryTx(memTasks)
	}

	users := identity.NewService(idStore, log)
	apps := application.NewService(appStore, log)
	plans := plan.NewService(planStore, apps, log)

	var sender notify.Sender
	if cfg.SMTPAddr != "" {
		sender = notify.NewSMTPSender(cfg.SMTPAddr, cfg.MailFrom, cfg.FallbackRecipient)
	} else {
		log.Warn("no SMTP_ADDR configured, logging notifications instead")
		sender = &notify.LogSender{Log: func(msg notify.Message) {
			log.Info("task completion notice", "task_id", msg.TaskID, "recipient", msg.Recipient)
		}}
	}
	dispatcher := notify.NewDispatcher(sender, 64, m, log)

	taskOpts := []task.ServiceOption{
		task.WithNotifier(dispatcher),
		task.WithEmailLookup(users),
		task.WithMetrics(m),
	}

	var boards taskhandler.Lister
	tasks := task.NewService(taskTx, taskStore, users, log, taskOpts...)
	boards = tasks
	if rdb != nil {
		cache := taskcache.New(tasks, rdb.Client, cfg.BoardCacheTTL, log)
		boards = cache
		tasks = task.NewService(taskTx, taskStore, users, log,
			append(taskOpts, task.WithBoardInvalidator(cache))...)
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "taskhub", cfg.TokenTTL)
	validator := jwttoken.NewMiddlewareAdapter(tokens)

	idHandler := identityhandler.New(users, tokens, cfg.TokenCookie, cfg.TokenTTL, log)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:       log,
		Metrics:      m,
		JWTValidator: validator,
		CookieName:   cfg.TokenCookie,
		Public: []httptransport.Registrar{
			httptransport.RegistrarFunc(idHandler.RegisterPublic),
		},
		Protected: []httptransport.Registrar{
			idHandler,
			applicationhandler.New(apps, users, log),
			planhandler.New(plans, users, log),
			taskhandler.New(tasks, boards, log),
		},
		Health: func() error {
			if db != nil {
				return db.Ping()
			}
			return nil
		},
	})

	srv := httpserver.New(httpserver.Config{
		Addr:         cfg.Addr,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(ctx)
	})
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
