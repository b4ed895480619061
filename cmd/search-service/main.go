package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/driftline/driftline/pkg/config"
	"github.com/driftline/driftline/pkg/event"
	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/metrics"
	"github.com/driftline/driftline/pkg/search"
	"github.com/driftline/driftline/pkg/server"
	"github.com/prometheus/client_golang/prometheus"
)

// contentQueue is this service's durable queue on the shared exchange.
const contentQueue = "search-service.content"

func main() {
	cfg, err := config.LoadSearchService()
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

	if err := deps.Broker.Run(ctx); err != nil {
		log.Fatalf("Failed to connect to broker: %v", err)
	}

	dispatcher := event.NewDispatcher()
	projector := search.NewProjector(deps.Index, logger, deps.Tracer)
	projector.Register(dispatcher)

	if err := deps.Broker.Subscribe(ctx, contentQueue, dispatcher); err != nil {
		log.Fatalf("Failed to subscribe to content events: %v", err)
	}

	router := server.NewRouter(logger)
	router.Mount("/api/search", server.NewSearchHandler(deps.Index, logger).Routes())

	if err := server.Serve(ctx, cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout, logger); err != nil {
		logger.Log("Server stopped", "err", err)
	}
}
