package sink

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"binlog_row_publisher/internal/event"
)

// publisher is the slice of *redis.Client the sink uses.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Redis publishes each event to a pub/sub channel and, when a message log
// is attached, records it there after a successful publish. A message log
// write failure is logged; the event was already delivered.
type Redis struct {
	r       publisher
	channel string
	log     *MessageLog
	logger  *zap.Logger
}

func NewRedis(client *redis.Client, channel string, log *MessageLog, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{r: client, channel: channel, log: log, logger: logger}
}

func (s *Redis) Emit(ctx context.Context, ev *event.RowEvent) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := s.r.Publish(ctx, s.channel, string(data)).Err(); err != nil {
		return fmt.Errorf("publish event %s to %s: %w", ev.ID, s.channel, err)
	}
	if err := s.log.Log(ev.ID, data); err != nil {
		s.logger.Error("message log write failed",
			zap.String("event_id", ev.ID),
			zap.String("ref", ev.Ref()),
			zap.Error(err))
	}
	return nil
}
