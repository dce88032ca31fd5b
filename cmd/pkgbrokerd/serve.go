package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/opkgd/pkgbrokerd/internal/backend"
	"github.com/opkgd/pkgbrokerd/internal/backend/memorybackend"
	"github.com/opkgd/pkgbrokerd/internal/config"
	"github.com/opkgd/pkgbrokerd/internal/control"
	"github.com/opkgd/pkgbrokerd/internal/desktopcache"
	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/httpapi"
	"github.com/opkgd/pkgbrokerd/internal/metrics"
	"github.com/opkgd/pkgbrokerd/internal/netstate"
	"github.com/opkgd/pkgbrokerd/internal/policy"
	"github.com/opkgd/pkgbrokerd/internal/scheduler"
	"github.com/opkgd/pkgbrokerd/internal/server"
	"github.com/opkgd/pkgbrokerd/internal/transaction"
	"github.com/opkgd/pkgbrokerd/internal/txndb"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfiguration()
	if err != nil {
		return fmt.Errorf("pkgbrokerd: %w", err)
	}

	logger, err := newLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("pkgbrokerd: logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()
	log := zap.S().Named("pkgbrokerd")
	log.Infow("starting", "config", cfg.DebugMap())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPath := cfg.Broker.DataFolder
	if dbPath == "" {
		dbPath = "pkgbrokerd.db"
	}
	db, err := txndb.Open(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("pkgbrokerd: open transaction db: %w", err)
	}
	defer db.Close()

	var auth transaction.AuthChecker = allowAll{}
	var authorizer control.Authorizer = allowAll{}
	if cfg.Policy.BundlePath != "" {
		checker, err := policy.NewFromBundle(ctx, cfg.Policy.BundlePath)
		if err != nil {
			return fmt.Errorf("pkgbrokerd: load policy bundle: %w", err)
		}
		auth = checker
		authorizer = checker
	}

	if cfg.Broker.DesktopCachePath != "" {
		cache := desktopcache.New(cfg.Broker.DesktopCachePath)
		defer cache.Close()
	}

	prober := netstate.NewProber("1.1.1.1:443", cfg.NetworkProbeInterval, &net.Dialer{})
	go prober.Run(ctx)

	be := selectBackend(cfg.Broker.BackendName)
	list := scheduler.NewList()
	collector := metrics.New(prometheus.DefaultRegisterer)

	ctrl := control.New(control.Descriptor{
		BackendAuthor: "pkgbrokerd",
		DistroID:      cfg.Broker.DistroID,
	}, be, list, auth, db, authorizer, db, collector)
	ctrl.SetNetworkState(prober.State())
	prober.OnChange(ctrl.SetNetworkState)

	quitter := &signalQuitter{cancel: cancel}
	handler := httpapi.New(ctrl, quitter)

	srv, err := server.New(cfg.Server, func(group *gin.RouterGroup) {
		httpapi.Register(group, handler)
	})
	if err != nil {
		return fmt.Errorf("pkgbrokerd: build server: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start(ctx) }()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("pkgbrokerd: serve: %w", err)
		}
	case sig := <-sigs:
		log.Infow("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
		log.Info("daemon quit requested, shutting down")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return srv.Stop(stopCtx)
}

// resolveConfiguration prefers a --config file (and its PKGBROKERD_
// environment overrides) when given, falling back to the flags bound
// by cobrautil.SyncViperPreRunE.
func resolveConfiguration() (*config.Configuration, error) {
	if path := viperString(configFlag.Name); path != "" {
		return config.Load(path)
	}
	return config.NewConfigurationWithOptionsAndDefaults(
		config.WithServer(config.NewServerWithOptionsAndDefaults(
			config.WithServerMode(viperString(serverModeFlag.Name)),
			config.WithHTTPPort(viperInt(httpPortFlag.Name)),
		)),
		config.WithBroker(config.NewBrokerWithOptionsAndDefaults(
			config.WithBackendName(viperString(backendNameFlag.Name)),
			config.WithDesktopCachePath(viperString(desktopCacheFlag.Name)),
			config.WithDataFolder(viperString(txnDBPathFlag.Name)),
		)),
		config.WithPolicy(config.NewPolicyWithOptions(
			config.WithBundlePath(viperString(policyBundleFlag.Name)),
		)),
		config.WithLogFormat(viperString(logFormatFlag.Name)),
		config.WithLogLevel(viperString(logLevelFlag.Name)),
	), nil
}

func newLogger(format, level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.Set(level); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if format != "json" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return zapCfg.Build()
}

// selectBackend loads the memory backend unless a named remote backend
// is configured. A real out-of-process backend needs a concrete
// internal/backendproxy.Dialer (unix socket, gRPC, ...); none ships
// with this module, so any non-"memory" name falls back to the memory
// backend with a warning rather than failing startup outright.
func selectBackend(name string) *backend.Backend {
	if name != "" && name != "memory" {
		zap.S().Named("pkgbrokerd").Warnw("no dialer configured for named backend, using memory backend", "backend-name", name)
	}
	return memorybackend.New()
}

// allowAll is the default AuthChecker/Authorizer when no policy bundle
// is configured: every WRITE role and every action-id is granted,
// matching a PolicyKit install with no rules configured.
type allowAll struct{}

func (allowAll) CheckAuthorization(ctx context.Context, role enums.Role, callerUID uint32) (bool, error) {
	return true, nil
}

func (allowAll) CanAuthorize(ctx context.Context, actionID string) (enums.AuthorizeResult, error) {
	return enums.AuthorizeYes, nil
}

// signalQuitter cancels the daemon's root context once SuggestDaemonQuit
// confirms the transaction list is idle.
type signalQuitter struct {
	cancel context.CancelFunc
}

func (s *signalQuitter) RequestQuit() {
	s.cancel()
}
