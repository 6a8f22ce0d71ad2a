package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"optimus-coordinator/cmd/app"
	"optimus-coordinator/internal/api"
	"optimus-coordinator/internal/api/v1/handler"
	"optimus-coordinator/internal/common"
	"optimus-coordinator/internal/dispatcher"
	"optimus-coordinator/internal/domain"
	"optimus-coordinator/internal/engine"
	"optimus-coordinator/internal/engine/cel"
	"optimus-coordinator/internal/lifecycle"
	"optimus-coordinator/internal/messaging"
	"optimus-coordinator/internal/messaging/inprocess"
	"optimus-coordinator/internal/messaging/pubsub"
	"optimus-coordinator/internal/metricupdater"
	"optimus-coordinator/internal/solver"
	"optimus-coordinator/internal/statuspub"
)

// main wires the five components (spec.md §4) together: a Broker, a
// dispatcher.Manager (C3) fronting a pool of solver.Worker (C2)
// instances, a metricupdater.Updater (C4), and a lifecycle.Controller
// (C5), then serves the HTTP status surface until stopped. Grounded on
// the teacher's internal/server/server.go Run() shape: signal.Notify
// drives a root context, components start in dependency order, and
// shutdown runs in the reverse order.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	cfg, err := app.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := common.NewLogger(common.LoggerConfig{Level: common.LogLevel(cfg.App.LogLevel)})
	ctx = common.ContextWithLogger(ctx, logger)
	common.LoggerFromContext(ctx).Info("starting coordinator",
		"component", cfg.App.Component, "broker", cfg.Broker.Kind, "engine", cfg.Engine.Algorithm)

	broker, err := newBroker(ctx, cfg.Broker)
	if err != nil {
		log.Fatalf("failed to build broker: %v", err)
	}
	defer broker.Close()

	factory := engine.NewFactory()
	cel.Register(factory)

	recorder := statuspub.NewRecorder(broker)
	lifecycleCtl := lifecycle.NewController(broker, recorder)
	if err := lifecycleCtl.Start(ctx); err != nil {
		log.Fatalf("failed to start lifecycle controller: %v", err)
	}

	mgr := dispatcher.NewManager(broker)
	lifecycleCtl.WithPendingCount(func() int {
		_, _, pending := mgr.Snapshot()
		return pending
	})
	for i := 0; i < cfg.WorkerPool.Size; i++ {
		eng, err := factory.New(cfg.Engine.Algorithm)
		if err != nil {
			log.Fatalf("failed to construct engine for worker %d: %v", i, err)
		}
		addr := domain.WorkerAddress(fmt.Sprintf("%s-%d", cfg.WorkerPool.AddressPrefix, i))
		w := solver.NewWorker(addr, eng, mgr.OnSolution)
		mgr.AddWorker(ctx, w)
	}

	updater := metricupdater.NewUpdater(broker, mgr)
	if err := updater.Start(ctx); err != nil {
		log.Fatalf("failed to start metric updater: %v", err)
	}
	defer updater.Stop()

	if err := recorder.Record(ctx, "Running", "coordinator started"); err != nil {
		log.Printf("failed to record startup status: %v", err)
	}

	healthHandler := handler.NewHealthHandler(lifecycleCtl)
	statusHandler := handler.NewStatusHandler(mgr, updater.Registry(), updater)
	server := api.NewServer(cfg.Server.Port, healthHandler, statusHandler)

	go func() {
		if err := server.Run(ctx, cfg.Server.ShutdownTimeout); err != nil {
			log.Printf("http server stopped: %v", err)
		}
	}()

	lifecycleCtl.WaitUntilStopped(ctx)
	log.Println("coordinator shut down")
}

func newBroker(ctx context.Context, cfg app.BrokerConfig) (messaging.Broker, error) {
	switch cfg.Kind {
	case "pubsub":
		return pubsub.NewBroker(ctx, pubsub.Config{Project: cfg.Project, EndpointName: cfg.EndpointName})
	default:
		return inprocess.NewBus(inprocess.WithQueueSize(cfg.QueueSize)), nil
	}
}
