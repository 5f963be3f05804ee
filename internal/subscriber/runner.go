package subscriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"binlog_row_publisher/internal/event"
)

// Printer writes every matching event to out, one per line.
type Printer struct {
	cfg    *Config
	filter *Filter
	out    io.Writer
	prefix string
}

func NewPrinter(cfg *Config, out io.Writer) *Printer {
	prefix := ""
	if strings.TrimSpace(cfg.Name) != "" {
		prefix = "[" + cfg.Name + "] "
	}
	return &Printer{cfg: cfg, filter: NewFilter(cfg), out: out, prefix: prefix}
}

// Handle decodes one published payload and prints it when it matches.
// It reports whether the event was printed.
func (p *Printer) Handle(raw string) (bool, error) {
	var ev event.RowEvent
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&ev); err != nil {
		return false, fmt.Errorf("json decode: %w", err)
	}
	if !p.filter.Matches(&ev) {
		return false, nil
	}

	body := raw
	if p.cfg.PrettyPrint {
		b, err := json.MarshalIndent(&ev, "", "  ")
		if err != nil {
			return false, fmt.Errorf("json encode: %w", err)
		}
		body = string(b)
	}
	if _, err := fmt.Fprintf(p.out, "%s%s\n", p.prefix, body); err != nil {
		return false, fmt.Errorf("write event %s: %w", ev.ID, err)
	}
	return true, nil
}

// Run subscribes to the configured channel until ctx is cancelled.
func Run(ctx context.Context, cfg *Config, out io.Writer, log *zap.Logger) error {
	log = log.With(zap.String("subscriber", cfg.Name))
	log.Info("subscriber start",
		zap.String("redis", cfg.RedisAddr),
		zap.Int("db", cfg.RedisDB),
		zap.String("channel", cfg.RedisChannel))

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	defer client.Close()

	pubsub := client.Subscribe(ctx, cfg.RedisChannel)
	defer pubsub.Close()

	printer := NewPrinter(cfg, out)
	msgs := pubsub.Channel(redis.WithChannelHealthCheckInterval(10 * time.Second))
	for {
		select {
		case <-ctx.Done():
			if err := pubsub.Close(); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("pubsub close", zap.Error(err))
			}
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("pubsub channel closed")
			}
			if msg == nil || msg.Payload == "" {
				continue
			}
			if _, err := printer.Handle(msg.Payload); err != nil {
				log.Error("handler error", zap.Error(err))
			}
		}
	}
}
