package main

// MySQL row change publisher
import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"binlog_row_publisher/internal/binlog"
	"binlog_row_publisher/internal/config"
	"binlog_row_publisher/internal/logging"
	"binlog_row_publisher/internal/sink"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	out, closeFn, err := newSink(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("publisher start",
		zap.String("mysql", cfg.Addr),
		zap.String("output", cfg.Output),
		zap.String("channel", cfg.RedisChannel),
		zap.Bool("include_before", cfg.IncludeBefore))

	return binlog.Run(ctx, cfg, out, logger)
}

func newSink(cfg *config.Config, logger *zap.Logger) (sink.Sink, func(), error) {
	if cfg.Output == config.OutputStdout {
		return sink.NewWriter(os.Stdout), func() {}, nil
	}

	msgLog, err := openMessageLog(cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	closeFn := func() {
		_ = client.Close()
		_ = msgLog.Close()
	}
	return sink.NewRedis(client, cfg.RedisChannel, msgLog, logger), closeFn, nil
}

func openMessageLog(path string) (*sink.MessageLog, error) {
	if path == "" {
		return nil, nil
	}
	l, err := sink.OpenMessageLog(path)
	if err != nil {
		return nil, fmt.Errorf("init message logger: %w", err)
	}
	return l, nil
}
