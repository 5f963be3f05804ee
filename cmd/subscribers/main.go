package main

// Multi-subscriber runner (one binary)
import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
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

	files := envFilesList()
	if len(files) == 0 {
		logger.Fatal("ENV_FILES (or ENV_FILE) is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, f := range files {
		cfg, err := loadConfigFromFile(f)
		if err != nil {
			logger.Fatal("load config", zap.String("file", f), zap.Error(err))
		}
		if strings.TrimSpace(cfg.Name) == "" {
			cfg.Name = strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		}

		wg.Add(1)
		go func(c *subscriber.Config) {
			defer wg.Done()
			if err := subscriber.Run(ctx, c, os.Stdout, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("subscriber exited", zap.String("subscriber", c.Name), zap.Error(err))
			}
		}(cfg)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
	cancel()

	wg.Wait()
}

func envFilesList() []string {
	files := os.Getenv("ENV_FILES")
	if strings.TrimSpace(files) == "" {
		files = os.Getenv("ENV_FILE")
	}
	return subscriber.ParseEnvFilesList(files)
}

func loadConfigFromFile(path string) (*subscriber.Config, error) {
	vals, err := subscriber.LoadEnvFiles([]string{path})
	if err != nil {
		return nil, err
	}
	return subscriber.LoadConfigFromMap(vals)
}
