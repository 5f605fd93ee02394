// Package main provides the entry point for cachemesh-server.
//
// cachemesh-server is the coordinator process for CacheMesh, a
// distributed cache system. It hosts the per-cache cluster rebalance
// policy, joins the gossip mesh, and serves the topology HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/yndnr/cachemesh-go/internal/cluster/broadcast"
	"github.com/yndnr/cachemesh-go/internal/cluster/discovery"
	"github.com/yndnr/cachemesh-go/internal/cluster/hashing"
	"github.com/yndnr/cachemesh-go/internal/cluster/rebalance"
	"github.com/yndnr/cachemesh-go/internal/core/domain"
	"github.com/yndnr/cachemesh-go/internal/infra/buildinfo"
	"github.com/yndnr/cachemesh-go/internal/infra/confloader"
	"github.com/yndnr/cachemesh-go/internal/infra/shutdown"
	"github.com/yndnr/cachemesh-go/internal/server/config"
	"github.com/yndnr/cachemesh-go/internal/server/httpserver"
	"github.com/yndnr/cachemesh-go/internal/telemetry/logger"
	"github.com/yndnr/cachemesh-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("cachemesh-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, slogLogger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	build := buildinfo.Get()
	log.Info("starting cachemesh-server",
		"version", build.Version,
		"commit", build.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", fmt.Sprintf("%+v", config.Sanitize(cfg)))

	// Metrics registry
	metrics := metric.NewRegistry()

	// Rebalance decision executor
	executor := rebalance.NewPool(cfg.Cluster.RebalanceWorkers, cfg.Cluster.RebalanceQueue, slogLogger)

	// In-process topology manager
	manager := broadcast.NewManager(slogLogger)

	// Gossip membership
	discoveryCfg, err := config.ToDiscoveryConfig(cfg, slogLogger)
	if err != nil {
		return fmt.Errorf("build discovery config: %w", err)
	}
	disc, err := discovery.New(discoveryCfg)
	if err != nil {
		return fmt.Errorf("start discovery: %w", err)
	}

	// Rebalance policy
	factory := hashing.NewFactory()
	policy, err := rebalance.New(rebalance.Config{
		Transport:       disc,
		TopologyManager: manager,
		Executor:        executor,
		DefaultFactory:  factory,
		Logger:          slogLogger,
		Metrics:         metrics,
	})
	if err != nil {
		return fmt.Errorf("create rebalance policy: %w", err)
	}
	manager.SetCompleter(policy)
	if err := metrics.Register(metric.NewCollector(policy)); err != nil {
		return fmt.Errorf("register policy collector: %w", err)
	}

	// The local node applies topologies in-process, so it confirms its
	// share of every rebalance immediately. Remote nodes confirm through
	// the HTTP API.
	self := domain.Address(cfg.Cluster.NodeID)
	manager.AddListener(&localApplier{manager: manager, node: self, logger: slogLogger})

	// Membership events drive the policy's member view
	disc.OnJoin(func(node domain.Address, apiAddr string) {
		policy.UpdateMembersList(disc.Members())
	})
	disc.OnLeave(func(node domain.Address) {
		for _, cacheName := range policy.CacheNames() {
			if err := policy.RemoveLeavers(cacheName, []domain.Address{node}); err != nil {
				slogLogger.Error("failed to remove leaver", "cache", cacheName, "node", node, "error", err)
			}
		}
		policy.UpdateMembersList(disc.Members())
	})

	policy.Start()

	// Register the configured caches and join them as this node
	for _, cacheCfg := range cfg.Caches {
		if err := policy.InitCache(cacheCfg.Name, config.BuildJoinInfo(cacheCfg, factory)); err != nil {
			return fmt.Errorf("init cache %s: %w", cacheCfg.Name, err)
		}
		if _, err := policy.AddJoiners(cacheCfg.Name, []domain.Address{self}); err != nil {
			return fmt.Errorf("join cache %s: %w", cacheCfg.Name, err)
		}
	}

	// HTTP API
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Policy:    policy,
		Confirmer: manager,
		Members:   disc,
		Metrics:   metrics,
		Logger:    slogLogger,
		RateLimit: cfg.Server.HTTP.RateLimit,
	})
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router)

	// Reload the log level when the config file changes
	watcher, err := watchConfig(*configFile, slogLogger)
	if err != nil {
		return err
	}

	// Graceful shutdown, reverse order of startup
	shutdownHandler := shutdown.NewHandler(30 * time.Second)
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down executor")
		executor.Close()
		return nil
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down topology manager")
		manager.Close()
		return nil
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("leaving cluster")
		if err := disc.Leave(); err != nil {
			return err
		}
		return disc.Shutdown()
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})
	if watcher != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			return watcher.Stop()
		})
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)

		var err error
		if cfg.Server.HTTP.TLSCertFile != "" && cfg.Server.HTTP.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("server started",
		"node_id", cfg.Cluster.NodeID,
		"caches", len(cfg.Caches))
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger builds the application logger from the config.
func initLogger(cfg *config.ServerConfig) (logger.Logger, *slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.SetDefault(log)
	return log, logger.Slog(log), nil
}

// watchConfig reloads the log level when the config file changes.
func watchConfig(configFile string, slogLogger *slog.Logger) (*confloader.Watcher, error) {
	if configFile == "" {
		return nil, nil
	}

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(slogLogger))
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Watch(configFile); err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}

	watcher.OnChange(func(string) {
		reloaded, err := loadConfig(configFile)
		if err != nil {
			slogLogger.Error("config reload failed", "error", err)
			return
		}
		logger.SetLevel(reloaded.Log.Level)
		slogLogger.Info("log level reloaded", "level", reloaded.Log.Level)
	})
	watcher.StartAsync()
	return watcher, nil
}

// localApplier confirms the local node's application of every announced
// rebalance.
type localApplier struct {
	manager *broadcast.Manager
	node    domain.Address
	logger  *slog.Logger
}

func (a *localApplier) OnTopologyUpdate(cacheName string, top domain.CacheTopology) {
	a.logger.Debug("topology applied locally",
		"cache", cacheName,
		"topology_id", top.TopologyID)
}

func (a *localApplier) OnRebalanceRequested(cacheName string, top domain.CacheTopology) {
	if err := a.manager.Confirm(cacheName, top.TopologyID, a.node); err != nil {
		a.logger.Debug("local rebalance confirmation rejected",
			"cache", cacheName,
			"topology_id", top.TopologyID,
			"error", err)
	}
}
