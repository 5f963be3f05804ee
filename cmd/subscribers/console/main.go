package main

// Redis pub/sub subscriber with filters
import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"binlog_row_publisher/internal/logging"
	"binlog_row_publisher/internal/subscriber"
)

func main() {
	logger, err := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := subscriber.Run(ctx, cfg, os.Stdout, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("subscriber exited", zap.Error(err))
	}
}

func loadConfig() (*subscriber.Config, error) {
	files := subscriber.ParseEnvFilesList(os.Getenv("ENV_FILE"))
	if len(files) == 0 {
		return subscriber.LoadConfigFromEnv()
	}
	vals, err := subscriber.LoadEnvFiles(files)
	if err != nil {
		return nil, err
	}
	return subscriber.LoadConfigFromMap(vals)
}
