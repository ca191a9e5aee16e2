package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/common/version"
	"github.com/spf13/cobra"

	"github.com/nok-base/consul-sync/internal/common"
	"github.com/nok-base/consul-sync/internal/config"
	"github.com/nok-base/consul-sync/internal/domain/repo"
	"github.com/nok-base/consul-sync/internal/domain/repo/audit"
	"github.com/nok-base/consul-sync/internal/domain/repo/cursor"
	"github.com/nok-base/consul-sync/internal/domain/repo/deadletter"
	"github.com/nok-base/consul-sync/internal/domain/repo/registry"
	"github.com/nok-base/consul-sync/internal/factory"
	"github.com/nok-base/consul-sync/internal/log"
	"github.com/nok-base/consul-sync/internal/processing"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

const shutdownTimeout = 10 * time.Second

var conf *config.Config

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the configured kinds and sync them to consul",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		conf, err = config.Parse(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to parse config %s: %w", cfgFile, err)
		}

		// Init logger
		err = log.Init(conf.Logs)
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}

		logger := log.Logger()

		// Dump generic information
		logger.Info("Starting consul sync",
			"version", version.Info(),
			"buildContext", version.BuildContext(),
		)
		logger.Info("Using config", "config", fmt.Sprintf("%+v", *conf))

		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		err := run()
		if err != nil {
			log.Logger().Error(err, "Sync stopped")

			os.Exit(1)
		}
	},
}

func run() error {
	logger := log.Logger()

	// Set max procs based on cpu limits
	err := common.SetMaxProcs()
	if err != nil {
		return err
	}

	// Set max memory
	err = common.SetMemLimit()
	if err != nil {
		return err
	}

	// Listen to sigterm and interrupt signals
	ctx := common.SetupSignalHandler(context.Background())

	closers := []common.CloseFunc{}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := common.CloseAll(shutdownCtx, closers...)
		if err != nil {
			logger.Error(err, "Failed to release clients")
		}
	}()

	// Create clients
	kubeClient, err := factory.CreateKubeClient(conf.Kube)
	if err != nil {
		return fmt.Errorf("failed to get cluster credentials: %w", err)
	}

	consulClient, err := factory.CreateConsulClient(conf.Registry)
	if err != nil {
		return err
	}

	var registryRepo repo.Registry = registry.NewConsulRegistry(consulClient, conf.Registry.Timeout).WithLogger(logger)

	if conf.Audit.Kafka.URLs != "" {
		producer, closeProducer, err := factory.CreateKafkaProducer(conf.Audit.Kafka)
		if err != nil {
			return err
		}

		closers = append(closers, closeProducer)

		registryRepo = audit.NewRegistry(registryRepo, audit.NewKafkaWriter(producer, conf.Audit.Kafka.Topic)).WithLogger(logger)
	}

	var cursors repo.CursorStore = cursor.NewMemoryStore()

	if conf.Cursor.Valkey.URL != "" {
		valkeyClient, closeValkey, err := factory.CreateValkeyClient(ctx, conf.Cursor.Valkey)
		if err != nil {
			return err
		}

		closers = append(closers, closeValkey)

		cursors = cursor.NewValkeyStore(valkeyClient)
	}

	var deadLetter pipeline.ErrorProcessing

	if conf.DeadLetter.Bucket != "" {
		s3Client, err := factory.CreateS3Client(ctx, conf.DeadLetter)
		if err != nil {
			return err
		}

		deadLetter = processing.NewDeadLetter(deadletter.NewS3Writer(s3Client, conf.DeadLetter.Bucket, conf.DeadLetter.KeyPrefix))
	}

	// Metrics
	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		versioncollector.NewCollector("consul_sync"),
	)

	// Create pipelines
	supervisors, err := factory.CreateSupervisors(conf, factory.Dependencies{
		Kube:       kubeClient,
		Registry:   registryRepo,
		Cursors:    cursors,
		DeadLetter: deadLetter,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	dispatcher := pipeline.NewDispatcher(supervisors...).WithLogger(logger)

	// Start metrics server
	server := factory.CreatePrometheusServer(conf.Metrics, metrics)

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, "Metrics server stopped")
		}
	}()

	closers = append(closers, server.Shutdown)

	// Start pipelines
	err = dispatcher.Start(ctx)

	logger.V(0).Info("Sync stopped")

	return err
}

func init() {
	rootCmd.AddCommand(runCmd)
}
