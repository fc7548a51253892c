package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/playtesthq/jobbox/config"
	"github.com/playtesthq/jobbox/internal/controller/restapi"
	"github.com/playtesthq/jobbox/internal/controller/worker/continuation"
	infrarmq "github.com/playtesthq/jobbox/internal/infrastructure/rabbitmq"
	"github.com/playtesthq/jobbox/internal/repo/persistent"
	"github.com/playtesthq/jobbox/internal/usecase/jobs"
	"github.com/playtesthq/jobbox/internal/usecase/publisher"
	"github.com/playtesthq/jobbox/pkg/httpserver"
	"github.com/playtesthq/jobbox/pkg/logger"
	"github.com/playtesthq/jobbox/pkg/postgres"
	"github.com/playtesthq/jobbox/pkg/rabbitmq"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	jobRepo := persistent.NewJobRepo(pg)
	claimRepo := persistent.NewIdempotencyRepo(pg)

	// rabbitmq channel pool
	rmq, err := rabbitmq.New(
		cfg.RMQ.URL,
		rabbitmq.ChannelPoolSize(cfg.RMQ.ChannelPoolSize),
		rabbitmq.ConnAttempts(cfg.RMQ.ConnAttempts),
		rabbitmq.ConnTimeout(cfg.RMQ.ConnTimeout),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - rabbitmq.New: %w", err))
	}

	messagePublisher := infrarmq.NewPublisher(rmq)

	// Use-Case

	jobsUseCase := jobs.New(jobRepo, claimRepo, l)
	publisherUseCase := publisher.New(jobRepo, messagePublisher, l)

	// Continuation Supervisor
	continuationSupervisor := continuation.New(
		jobsUseCase,
		publisherUseCase,
		l,
		cfg.Continuation.WaitTimeout,
	)

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewRouter(httpServer.App, cfg, jobsUseCase, publisherUseCase, continuationSupervisor, l)

	// Start Components
	err = continuationSupervisor.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - continuationSupervisor.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	csShutdownCtx, csShutdownCancel := context.WithTimeout(ctx, cfg.Continuation.ShutdownTimeout)
	defer csShutdownCancel()
	err = continuationSupervisor.Shutdown(csShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - continuationSupervisor.Shutdown: %w", err))
	}

	err = messagePublisher.Close()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - messagePublisher.Close: %w", err))
	}
}
