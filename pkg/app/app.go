// Package app runs a long lived process with the standard operational
// surface: configuration, logging, New Relic, a gRPC health server, a debug
// HTTP server and graceful shutdown.
package app

import (
	"expvar"
	"flag"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/goosy-labs/goosy-vault/pkg/metrics"
)

// App is a long lived application whose lifecycle is tied to the process.
// It is initialized before the gRPC server runs, and stopped after the gRPC
// server has stopped serving.
type App interface {
	// Init initializes the application in a blocking fashion. The New Relic
	// application is nil when no license key is configured.
	Init(config Config, metricsProvider *newrelic.Application) error

	// RegisterWithGRPC registers the application's gRPC services, if any
	RegisterWithGRPC(server *grpc.Server)

	// ShutdownChan is closed when the application shuts down on its own,
	// which initiates a process shutdown.
	ShutdownChan() <-chan struct{}

	// Stop stops the application and releases its resources. It must be
	// idempotent.
	Stop()
}

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")

	osSigCh = make(chan os.Signal, 1)
)

func init() {
	signal.Notify(osSigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
}

// Run initializes app and blocks until a shutdown condition, then stops it
// within the configured grace period
func Run(app App, options ...Option) error {
	flag.Parse()

	logger := logrus.StandardLogger().WithField("type", "app")

	config, err := loadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Error("failed to configure application")
		os.Exit(1)
	}

	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		metricsProvider, err = newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.WithError(err).Error("error connecting to new relic")
			os.Exit(1)
		}
	}

	configureLogger(config, metricsProvider)

	// pprof and expvar install themselves on the default mux, which must not
	// be exposed
	http.DefaultServeMux = http.NewServeMux()

	if debugMux := newDebugMux(config); debugMux != nil {
		go func() {
			for {
				if err := http.ListenAndServe(config.DebugListenAddress, debugMux); err != nil {
					logger.WithError(err).Warn("debug HTTP server failed, retrying in 5s")
				}
				time.Sleep(5 * time.Second)
			}
		}()
	}

	restartCh := make(chan struct{})
	if config.EnableRestartCron {
		cronJob := cron.New(cron.WithLocation(time.Local))
		_, err = cronJob.AddFunc(config.RestartCronSchedule, func() {
			close(restartCh)
		})
		if err != nil {
			logger.WithError(err).Error("failed to initialize restart cron")
			os.Exit(1)
		}
		cronJob.Start()
	}

	lis, err := net.Listen("tcp", config.ListenAddress)
	if err != nil {
		logger.WithError(err).Errorf("failed to listen on %s", config.ListenAddress)
		os.Exit(1)
	}

	o := opts{}
	o.unaryServerInterceptors, o.streamServerInterceptors = defaultInterceptors(logger, metricsProvider)
	for _, option := range options {
		option(&o)
	}

	if err := app.Init(config.AppConfig, metricsProvider); err != nil {
		logger.WithError(err).Error("failed to initialize application")
		os.Exit(1)
	}

	serv := grpc.NewServer(
		grpc_middleware.WithUnaryServerChain(o.unaryServerInterceptors...),
		grpc_middleware.WithStreamServerChain(o.streamServerInterceptors...),
	)
	app.RegisterWithGRPC(serv)

	healthServer := health.NewServer()
	healthgrpc.RegisterHealthServer(serv, healthServer)

	servShutdownCh := make(chan struct{})
	go func() {
		if err := serv.Serve(lis); err != nil {
			logger.WithError(err).Error("grpc serve stopped")
		} else {
			logger.Info("grpc server stopped")
		}
		close(servShutdownCh)
	}()

	select {
	case <-osSigCh:
		logger.Info("interrupt received, shutting down")
	case <-servShutdownCh:
		logger.Info("grpc server shutdown")
	case <-restartCh:
		logger.Info("scheduled restart")
	case <-app.ShutdownChan():
		logger.Info("app shutdown")
	}

	healthServer.Shutdown()

	shutdownCh := make(chan struct{})
	go func() {
		serv.GracefulStop()
		app.Stop()

		close(shutdownCh)
	}()

	select {
	case <-shutdownCh:
		if metricsProvider != nil {
			metricsProvider.Shutdown(5 * time.Second)
		}
		return nil
	case <-time.After(config.ShutdownGracePeriod):
		return errors.Errorf("failed to stop the application within %v", config.ShutdownGracePeriod)
	}
}

func newDebugMux(config BaseConfig) *http.ServeMux {
	if !config.EnableExpvar && !config.EnablePprof && !config.EnableMetrics {
		return nil
	}

	mux := http.NewServeMux()
	if config.EnableExpvar {
		mux.Handle("/debug/vars", expvar.Handler())
	}
	if config.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	if config.EnableMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	return mux
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewCustomNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stdout)
}
