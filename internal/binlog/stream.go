package binlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"binlog_row_publisher/internal/config"
	"binlog_row_publisher/internal/projector"
	"binlog_row_publisher/internal/schema"
	"binlog_row_publisher/internal/sink"
)

// Run streams changes until ctx is cancelled, reconnecting after
// ReconnectDelay on replication errors.
func Run(ctx context.Context, cfg *config.Config, out sink.Sink, log *zap.Logger) error {
	for {
		err := stream(ctx, cfg, out, log)
		if err == nil || errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil
		}
		var fatal *sinkHalt
		if errors.As(err, &fatal) {
			return err
		}
		log.Error("replication error; retrying", zap.Error(err), zap.Duration("delay", cfg.ReconnectDelay))
		select {
		case <-time.After(cfg.ReconnectDelay):
		case <-ctx.Done():
			return nil
		}
	}
}

// sinkHalt stops Run when STOP_ON_SINK_ERROR is set.
type sinkHalt struct{ err error }

func (e *sinkHalt) Error() string { return "sink failure: " + e.err.Error() }
func (e *sinkHalt) Unwrap() error { return e.err }

func stream(ctx context.Context, cfg *config.Config, out sink.Sink, log *zap.Logger) error {
	sqlDB, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping mysql: %w", err)
	}

	file, pos, err := schema.ReadMasterFilePos(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read master status: %w", err)
	}

	host, port, err := config.SplitHostPort(cfg.Addr)
	if err != nil {
		return err
	}
	syncer := replication.NewBinlogSyncer(replication.BinlogSyncerConfig{
		ServerID:        cfg.ServerID,
		Flavor:          mysql.MySQLFlavor,
		Host:            host,
		Port:            port,
		User:            cfg.DBUser,
		Password:        cfg.DBPass,
		UseDecimal:      true,
		ParseTime:       true,
		HeartbeatPeriod: 30 * time.Second,
		ReadTimeout:     90 * time.Second,
	})
	defer syncer.Close()

	start := mysql.Position{Name: file, Pos: uint32(pos)}
	streamer, err := syncer.StartSync(start)
	if err != nil {
		return fmt.Errorf("start binlog sync: %w", err)
	}
	log.Info("streaming from master tip", zap.String("file", start.Name), zap.Uint32("pos", start.Pos))

	h := NewHandler(Options{
		Schemas:       schema.NewCache(schema.MySQLLoader{DB: sqlDB}),
		Projector:     projector.New(nil),
		Sink:          out,
		Logger:        log,
		IncludeBefore: cfg.IncludeBefore,
		Start:         start,
	})

	for {
		ev, err := streamer.GetEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("get event: %w", err)
		}
		if err := h.Handle(ctx, ev); err != nil {
			var be *BatchError
			if cfg.StopOnSinkError && errors.As(err, &be) && be.SinkFailures() > 0 {
				return &sinkHalt{err: err}
			}
		}
	}
}
