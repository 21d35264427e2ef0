package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"

	"github.com/coinagedev/coinage/common/keys"
	"github.com/coinagedev/coinage/common/logging"
	"github.com/coinagedev/coinage/issuer"
	"github.com/coinagedev/coinage/issuer/knobs"
	"github.com/coinagedev/coinage/issuer/task"
	"github.com/coinagedev/coinage/ledger"
)

type args struct {
	ConfigFilePath string
	Listen         string
	LogLevel       string
	LogJSON        bool
	DisableTasks   bool
}

func loadArgs() (args, error) {
	a := args{}
	flag.StringVar(&a.ConfigFilePath, "config", "", "Path to the config file. Defaults apply when empty.")
	flag.StringVar(&a.Listen, "listen", "", "Listen address override, e.g. :8080. Takes precedence over the config file.")
	flag.StringVar(&a.LogLevel, "log-level", "", "Log level override (debug, info, warn, error).")
	flag.BoolVar(&a.LogJSON, "log-json", false, "Log in JSON format.")
	flag.BoolVar(&a.DisableTasks, "disable-tasks", false, "Disable all scheduled tasks. Startup tasks still run.")
	flag.Parse()
	if flag.NArg() > 0 {
		return a, fmt.Errorf("unexpected arguments: %s", strings.Join(flag.Args(), " "))
	}
	return a, nil
}

func configureLogging(cfg issuer.LogConfig) error {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func loadIssuerKey(config *issuer.Config) (keys.Public, error) {
	if config.IdentityKey != "" {
		keyBytes, err := hex.DecodeString(config.IdentityKey)
		if err != nil {
			return keys.Public{}, fmt.Errorf("identity_key is not valid hex: %w", err)
		}
		privKey, err := keys.ParsePrivateKey(keyBytes)
		if err != nil {
			return keys.Public{}, fmt.Errorf("identity_key is not a valid private key: %w", err)
		}
		return privKey.Public(), nil
	}
	privKey, err := keys.GeneratePrivateKey()
	if err != nil {
		return keys.Public{}, fmt.Errorf("failed to generate ephemeral identity key: %w", err)
	}
	slog.Warn("No identity key configured, using an ephemeral key; asset identifiers change on restart")
	return privKey.Public(), nil
}

func main() {
	arguments, err := loadArgs()
	if err != nil {
		log.Fatalf("Failed to load args: %v", err)
	}

	config, err := issuer.LoadConfig(arguments.ConfigFilePath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if arguments.Listen != "" {
		config.Listen = arguments.Listen
	}
	if arguments.LogLevel != "" {
		config.Log.Level = arguments.LogLevel
	}
	if arguments.LogJSON {
		config.Log.JSON = true
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := configureLogging(config.Log); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	sigCtx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	errGrp, errCtx := errgroup.WithContext(sigCtx)

	// OBSERVABILITY
	promExporter, err := otelprom.New()
	if err != nil {
		log.Fatalf("Failed to create prometheus exporter: %v", err)
	}
	meterProvider := metric.NewMeterProvider(metric.WithReader(promExporter))
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var knobsService knobs.Knobs
	if config.Knobs.IsEnabled() {
		knobsLogger := slog.Default().With("component", "knobs")
		knobsImpl, err := knobs.New(errCtx, knobsLogger, config.Knobs.File)
		if err != nil {
			// Run on compiled-in defaults rather than refusing to boot.
			slog.Error("Failed to create knobs service", "error", err)
		} else {
			knobsService = knobsImpl
		}
	}

	issuerKey, err := loadIssuerKey(config)
	if err != nil {
		log.Fatalf("Failed to load issuer key: %v", err)
	}
	issuerAddr, err := issuerKey.Address().EncodeBech32m(keys.AddressHRP)
	if err != nil {
		log.Fatalf("Failed to encode issuer address: %v", err)
	}
	slog.Info("Issuer identity loaded", "issuer", issuerKey.ToHex(), "address", issuerAddr)

	metrics, err := issuer.NewMetrics()
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	coreLedger := ledger.New()
	service := issuer.NewService(config, coreLedger, issuerKey, knobsService, metrics)

	env := &task.Env{
		Ledger:        coreLedger,
		Knobs:         knobsService,
		AuditInterval: config.AuditInterval(),
		OnAuditReport: func(report ledger.Report) {
			metrics.RecordAuditReport(context.Background(), report)
		},
		Bootstrap: issuer.StaticAssetBootstrap(config, service),
	}

	slog.Info(
		"Rate limiter config",
		"enabled", config.RateLimit.Enabled,
		"window_seconds", config.RateLimit.WindowSeconds,
		"max_requests", config.RateLimit.MaxRequests,
		"paths", config.RateLimit.Paths,
	)
	server, err := issuer.NewServer(config, service, knobsService)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Scheduled tasks setup
	cronCtx, cronCancel := context.WithCancel(errCtx)
	defer cronCancel()

	taskLogger := slog.Default().With("component", "cron")
	cronCtx = logging.Inject(cronCtx, taskLogger)

	if arguments.DisableTasks {
		taskLogger.Info("Scheduled tasks disabled by flag")
	} else {
		taskLogger.Info("Starting scheduler")
		taskMonitor, err := task.NewMonitor()
		if err != nil {
			log.Fatalf("Failed to create task monitor: %v", err)
		}
		scheduler, err := gocron.NewScheduler(
			gocron.WithGlobalJobOptions(
				gocron.WithContext(cronCtx),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			),
			gocron.WithLogger(taskLogger),
			gocron.WithMonitorStatus(taskMonitor),
		)
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		if err := task.ScheduleAll(scheduler, env); err != nil {
			log.Fatalf("Failed to create job: %v", err)
		}
		scheduler.Start()
		defer scheduler.Shutdown() //nolint:errcheck
	}

	errGrp.Go(func() error {
		return task.RunStartupTasks(cronCtx, env)
	})

	slog.Info("Starting HTTP server", "listen", config.Listen)
	errGrp.Go(func() error {
		if err := server.Start(); err != nil {
			slog.Error("HTTP server failed", "error", err)
			return err
		}
		return nil
	})

	// Now we wait... for something to fail.
	<-errCtx.Done()

	if sigCtx.Err() != nil {
		slog.Info("Received shutdown signal, shutting down gracefully...")
	} else {
		slog.Error("Shutting down due to error...")
	}

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), config.ShutdownGrace())
	defer shutdownRelease()

	slog.Info("Stopping HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server failed to shutdown gracefully", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	if err := errGrp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Shutdown due to error", "error", err)
	}
}
