// Command rtcd runs the Remote Transaction Controller standalone, wired
// against the in-memory reference collaborators in internal/refimpl (spec
// §4.10). It is a demo/integration-test harness, not a production master
// process: the real storage engine, ID generator, and cluster manager are
// out of scope (spec §1).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/luxgraph/rtc/internal/refimpl"
	"github.com/luxgraph/rtc/internal/reltype"
	"github.com/luxgraph/rtc/internal/response"
	"github.com/luxgraph/rtc/internal/rtc"
	"github.com/luxgraph/rtc/internal/rtcclock"
	"github.com/luxgraph/rtc/internal/rtcconfig"
	"github.com/luxgraph/rtc/internal/rtcmetrics"
	"github.com/luxgraph/rtc/internal/session"
	rtclog "github.com/luxgraph/rtc/log"
)

const clientIdentifier = "rtcd"

var app = &cli.App{
	Name:  clientIdentifier,
	Usage: "master-side remote transaction controller for a replicated graph database",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "path to a TOML/YAML config file"},
		&cli.StringFlag{Name: "listen-metrics", Value: ":9090", Usage: "address the /metrics endpoint listens on"},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "log level: trace, debug, info, warn, error, crit"},
	},
}

func init() {
	app.Action = run
	app.Before = func(cctx *cli.Context) error {
		level, err := rtclog.LvlFromString(cctx.String("log-level"))
		if err != nil {
			return fmt.Errorf("rtcd: invalid --log-level: %w", err)
		}
		handler := rtclog.NewGlogHandler(rtclog.NewTerminalHandler(os.Stderr, false))
		handler.Verbosity(level)
		rtclog.SetDefault(rtclog.NewLogger(handler))
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cctx *cli.Context) error {
	cfg, err := rtcconfig.Load(cctx.String("config"), nil)
	if err != nil {
		return err
	}
	if cctx.IsSet("listen-metrics") || cfg.MetricsAddr == "" {
		cfg.MetricsAddr = cctx.String("listen-metrics")
	}

	logger := rtclog.New("component", clientIdentifier)

	sources := refimpl.NewSet(1)
	sources.Register(refimpl.NewSource("neostore"))
	sources.Register(refimpl.NewSource("neostore.propertystore"))
	sources.Register(refimpl.NewSource("neostore.relationshipstore"))

	lockService := refimpl.NewLockService()
	txManager := refimpl.NewTxManager(lockService)

	registry := prometheus.NewRegistry()
	metrics := rtcmetrics.New(registry)

	packer, err := response.NewPacker(sources, 1024)
	if err != nil {
		return fmt.Errorf("rtcd: building response packer: %w", err)
	}

	rtcCtx := &rtc.Context{
		Clock:           rtcclock.System{},
		Registry:        session.NewRegistry(),
		Txn:             txManager,
		Locks:           lockService,
		Tracker:         txManager,
		Sources:         sources,
		Copier:          sources,
		Ids:             refimpl.NewIdAllocator(),
		Types:           reltype.NewRegistry(),
		Packer:          packer,
		Metrics:         metrics,
		Log:             logger,
		ReadLockTimeout: cfg.ReadLockTimeout,
	}
	if err := rtcCtx.Validate(); err != nil {
		return err
	}

	reaper := rtc.NewReaper(rtcCtx, cfg.ReaperTickInterval)
	reaper.Start()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "err", err)
			}
		}()
		logger.Info("metrics endpoint listening", "addr", cfg.MetricsAddr)
	}

	logger.Info("rtcd started", "clusterName", cfg.ClusterName, "readLockTimeout", cfg.ReadLockTimeout)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("rtcd shutting down")
	reaper.Stop()
	if metricsServer != nil {
		_ = metricsServer.Shutdown(context.Background())
	}
	return nil
}
