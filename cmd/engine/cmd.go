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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/goalvault/savings-engine/internal/bootstrap"
	"github.com/goalvault/savings-engine/internal/config"
	"github.com/goalvault/savings-engine/internal/crypto"
	"github.com/goalvault/savings-engine/internal/engine"
	"github.com/goalvault/savings-engine/internal/handlers"
	"github.com/goalvault/savings-engine/internal/metrics"
	"github.com/goalvault/savings-engine/internal/notify"
	"github.com/goalvault/savings-engine/internal/response"
	"github.com/goalvault/savings-engine/internal/router"
	"github.com/goalvault/savings-engine/internal/scheduler"
	"github.com/goalvault/savings-engine/internal/store"
)

const shutdownGrace = 2 * time.Minute

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// helpers
	cipher := crypto.NewTokenCipher(bs.KMS, cfg.KMSKeyName)

	// stores
	astore := store.NewAccountStore(bs.Firestore, cipher)
	gstore := store.NewGoalStore(bs.Firestore)
	rstore := store.NewRuleStore(bs.Firestore)
	tstore := store.NewTransactionStore(bs.Firestore)

	// metrics + notifications
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)
	publisher := notify.NewPublisher(bs.NATS)

	// engine
	eval := engine.NewEvaluator(bs.PlaidAdapter)
	exec := engine.NewExecutor(tstore, gstore, astore, bs.PlaidAdapter, publisher, m)
	runner := engine.NewRunner(rstore, gstore, astore, bs.PlaidAdapter, eval, exec, m)
	monitor := engine.NewMonitor(gstore, tstore, publisher, m)

	// scheduler
	sched, err := scheduler.New(bs.Log, runner, monitor, cfg.Schedules)
	exitOnError("scheduler setup failed", err, bs.Log)
	sched.Start()

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = response.New(bs.Log)
	deps.Firebase = bs.Firebase
	deps.Automation = runner

	// router
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.NewRouter(deps, registry),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			bs.Log.Error("server start failed", "error", err)
			stop()
		}
	}()
	bs.Log.Info("engine started", "addr", cfg.HTTPAddr)

	<-ctx.Done()
	bs.Log.Info("shutdown signal received")

	// Let in-flight rule batches finish their transfers before exiting;
	// aborting mid-transfer would strand a pending transaction.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		bs.Log.Error("scheduler drain incomplete", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		bs.Log.Error("server shutdown failed", "error", err)
	}
}
