package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayurlink/tulsi/config"
	"github.com/ayurlink/tulsi/pkg/aggregator"
	"github.com/ayurlink/tulsi/pkg/events"
	"github.com/ayurlink/tulsi/pkg/httpclient"
	"github.com/ayurlink/tulsi/pkg/kafka"
	"github.com/ayurlink/tulsi/pkg/logging"
	"github.com/ayurlink/tulsi/pkg/matching"
	"github.com/ayurlink/tulsi/pkg/ner"
	"github.com/ayurlink/tulsi/pkg/normalizers"
	"github.com/ayurlink/tulsi/pkg/resolver"
	"github.com/ayurlink/tulsi/pkg/server"
	"github.com/ayurlink/tulsi/pkg/tracing"
	"github.com/ayurlink/tulsi/pkg/tracing/exporters"
	"github.com/ayurlink/tulsi/pkg/umls"
	"github.com/ayurlink/tulsi/pkg/vocabulary"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.PrettyLogs})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		provider := tracing.Init(cfg.AppName, exporter)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = provider.Shutdown(shutdownCtx)
		}()
	}

	pipeline := normalizers.NewPipeline(normalizers.PipelineConfig{
		MinTokenLength: cfg.MinTokenLength,
	})

	store, err := vocabulary.LoadFile(cfg.VocabularyPath, pipeline)
	if err != nil {
		return fmt.Errorf("failed to load vocabulary: %w", err)
	}
	logger.WithField("entries", store.Len()).Infof("Loaded vocabulary with %d entries", store.Len())

	engine := matching.NewEngine(logger, store, pipeline, matching.EngineConfig{
		FuzzyThreshold: cfg.FuzzyThreshold,
		FuzzyAlgorithm: cfg.FuzzyAlgorithm,
	})

	nerHTTP := httpclient.NewClient(httpclient.Config{Timeout: cfg.NERTimeout}, logger)
	filter := ner.NewFilter(ner.FilterConfig{MinLength: cfg.MinEntityLength})
	extractor := ner.NewHTTPExtractor(nerHTTP, logger, filter, cfg.NEREndpoint)

	var codeResolver *resolver.Resolver
	if cfg.ResolverEnabled && cfg.UMLSAPIKey != "" {
		umlsHTTP := httpclient.NewClient(httpclient.Config{Timeout: cfg.ResolverCallTimeout}, logger)
		umlsClient := umls.NewClient(umlsHTTP, logger, umls.Config{
			BaseURL: cfg.UMLSBaseURL,
			APIKey:  cfg.UMLSAPIKey,
		})
		resolverCfg := resolver.DefaultConfig()
		resolverCfg.Concurrency = cfg.ResolverConcurrency
		resolverCfg.CallTimeout = cfg.ResolverCallTimeout
		codeResolver = resolver.NewResolver(logger, umlsClient, store, resolverCfg)
	} else {
		logger.Warn("Code resolution disabled; responses will not carry external codes")
	}

	service := aggregator.NewService(logger, engine, codeResolver, aggregator.Config{
		NarrativeTimeout: cfg.NarrativeTimeout,
	})

	var emitter *events.Emitter
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewEmitter(producer, logger)
	}

	srv, err := server.New(cfg, logger, server.Dependencies{
		Store:     store,
		Engine:    engine,
		Extractor: extractor,
		Service:   service,
		Emitter:   emitter,
	})
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	return srv.Start(ctx)
}
