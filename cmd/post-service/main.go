package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/driftline/driftline/pkg/config"
	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/metrics"
	"github.com/driftline/driftline/pkg/server"
	"github.com/driftline/driftline/pkg/service"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.LoadPostService()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps, err := getServiceDependencies(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize dependencies: %v", err)
	}
	defer deps.Close(logger)

	// A service must not serve traffic with a silently dead event path.
	if err := deps.Broker.Run(ctx); err != nil {
		log.Fatalf("Failed to connect to broker: %v", err)
	}

	posts := service.NewPosts(deps.Storage, deps.Cache, deps.Broker, logger)

	reconciler := service.NewReconciler(
		deps.Storage,
		deps.Broker,
		logger,
		cfg.Reconciler.Interval,
		cfg.Reconciler.Lookback,
		cfg.Reconciler.Retention,
	)
	go reconciler.Run(ctx)

	router := server.NewRouter(logger)
	router.Mount("/api/posts", server.NewPostHandler(posts, logger).Routes())

	if err := server.Serve(ctx, cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout, logger); err != nil {
		logger.Log("Server stopped", "err", err)
	}
}
