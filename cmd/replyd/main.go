// cmd/replyd/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"replydesk/internal/accounting"
	"replydesk/internal/common/config"
	"replydesk/internal/common/database"
	"replydesk/internal/common/logger"
	"replydesk/internal/common/observability"
	"replydesk/internal/notify"
	"replydesk/internal/pipeline"
	"replydesk/internal/pipeline/classifier"
	"replydesk/internal/pipeline/facts"
	"replydesk/internal/pipeline/writer"
	"replydesk/internal/profiles"
	"replydesk/internal/rules"
	"replydesk/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting replydesk",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Rules document ---
	ruleSet, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		zapLog.Fatal("rules load failed", zap.Error(err))
	}
	zapLog.Info("rules document loaded", zap.Int("version", ruleSet.Version))

	// --- PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("postgres connected")

	// --- Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("redis connected")

	// --- Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("elasticsearch connected")

	// --- Pipeline wiring ---
	cl := classifier.New(ruleSet)

	provider := facts.NewMarketplaceProvider(facts.MarketplaceConfig{
		BaseURL:  cfg.Marketplace.OrderAPIBaseURL,
		APIKey:   cfg.Marketplace.APIKey,
		Timeout:  time.Duration(cfg.Marketplace.Timeout) * time.Millisecond,
		CacheTTL: time.Duration(cfg.Marketplace.FactsCacheTTL) * time.Second,
	}, rdb.GetClient(), log)

	low := writer.NewHTTPBackend(writer.HTTPBackendConfig{
		BaseURL:     cfg.Backends.Low.BaseURL,
		APIKey:      cfg.Backends.Low.APIKey,
		ModelID:     cfg.Backends.Low.ModelID,
		Timeout:     time.Duration(cfg.Backends.Low.Timeout) * time.Millisecond,
		MaxTokens:   cfg.Backends.Low.MaxTokens,
		Temperature: cfg.Backends.Low.Temperature,
	})
	high := writer.NewHTTPBackend(writer.HTTPBackendConfig{
		BaseURL:     cfg.Backends.High.BaseURL,
		APIKey:      cfg.Backends.High.APIKey,
		ModelID:     cfg.Backends.High.ModelID,
		Timeout:     time.Duration(cfg.Backends.High.Timeout) * time.Millisecond,
		MaxTokens:   cfg.Backends.High.MaxTokens,
		Temperature: cfg.Backends.High.Temperature,
	})
	w := writer.New(low, high, ruleSet, log)

	usageStore := accounting.NewUsageStore(pg.DB)
	auditSink := accounting.NewAuditSink(esClient.Client, cfg.Database.Elasticsearch.ReplyIndex)
	sink := accounting.NewSink(usageStore, auditSink,
		time.Duration(cfg.Accounting.FlushTimeout)*time.Millisecond, log)

	var notifier pipeline.RiskNotifier
	if cfg.Notifications.Enabled {
		n, err := notify.NewHighRiskNotifier(ctx, cfg.Notifications.AWSRegion, cfg.Notifications.SNSTopicARN, log)
		if err != nil {
			zapLog.Fatal("sns notifier init failed", zap.Error(err))
		}
		notifier = n
	}

	pipe := pipeline.New(cl, provider, w, ruleSet, sink, notifier, log)

	resolver := profiles.NewResolver(pg.DB, rdb.GetClient(), log)

	srv := server.New(server.Config{
		Port:            cfg.Server.Port,
		ReadTimeout:     time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout:    time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
		RequestTimeout:  time.Duration(cfg.Server.RequestTimeout) * time.Millisecond,
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Millisecond,
	}, pipe, resolver, usageStore, obs, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		zapLog.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("http server error", zap.Error(err))
		}
	}

	if err := srv.Shutdown(); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}
	zapLog.Info("replydesk stopped")
}
