// Package binlog feeds go-mysql replication events through the row
// projector and into a sink.
package binlog

import (
	"context"
	"sync"
	"time"

	"github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"binlog_row_publisher/internal/event"
	"binlog_row_publisher/internal/projector"
	"binlog_row_publisher/internal/schema"
	"binlog_row_publisher/internal/sink"
)

type Options struct {
	Schemas   *schema.Cache
	Projector *projector.Projector
	Sink      sink.Sink
	Logger    *zap.Logger

	// IncludeBefore adds the projected before-image to update events.
	IncludeBefore bool
	// Start is the position streaming began at; rotate events move it.
	Start mysql.Position
}

type Handler struct {
	schemas       *schema.Cache
	proj          *projector.Projector
	sink          sink.Sink
	log           *zap.Logger
	includeBefore bool
	ddl           *ddlParser

	tables sync.Map // map[uint64]schema.Key

	mu   sync.Mutex
	file string

	now   func() time.Time
	newID func() string
}

func NewHandler(opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	proj := opts.Projector
	if proj == nil {
		proj = projector.New(nil)
	}
	return &Handler{
		schemas:       opts.Schemas,
		proj:          proj,
		sink:          opts.Sink,
		log:           log,
		includeBefore: opts.IncludeBefore,
		ddl:           newDDLParser(),
		file:          opts.Start.Name,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// Handle processes one binlog event. For rows events every row is
// attempted; the returned *BatchError lists the rows that failed.
func (h *Handler) Handle(ctx context.Context, ev *replication.BinlogEvent) error {
	switch e := ev.Event.(type) {
	case *replication.RotateEvent:
		h.mu.Lock()
		h.file = string(e.NextLogName)
		h.mu.Unlock()
		h.log.Info("binlog rotate", zap.String("file", string(e.NextLogName)), zap.Uint64("pos", e.Position))

	case *replication.TableMapEvent:
		key := schema.Key{Schema: string(e.Schema), Table: string(e.Table)}
		h.tables.Store(e.TableID, key)
		if _, err := h.schemas.Get(ctx, key); err != nil {
			h.log.Warn("load schema", zap.Stringer("table", key), zap.Error(err))
		}

	case *replication.QueryEvent:
		h.handleQuery(e)

	case *replication.RowsEvent:
		return h.handleRows(ctx, ev.Header, e)
	}
	return nil
}

func (h *Handler) handleQuery(e *replication.QueryEvent) {
	db := string(e.Schema)
	keys, ok := h.ddl.tables(db, string(e.Query))
	if !ok {
		n := h.schemas.InvalidateSchema(db)
		h.log.Warn("unparsed ddl; schema cache dropped for database",
			zap.String("db", db), zap.Int("tables", n), zap.ByteString("query", e.Query))
		return
	}
	for _, key := range keys {
		h.schemas.Invalidate(key)
		h.log.Info("schema invalidated by ddl", zap.Stringer("table", key))
	}
}

func (h *Handler) tableKey(e *replication.RowsEvent) (schema.Key, bool) {
	if e.Table != nil {
		return schema.Key{Schema: string(e.Table.Schema), Table: string(e.Table.Table)}, true
	}
	v, ok := h.tables.Load(e.TableID)
	if !ok {
		return schema.Key{}, false
	}
	return v.(schema.Key), true
}

// rowsBatch is a rows event split into row changes and the masks that
// select their images.
type rowsBatch struct {
	op         string
	changes    []projector.RowChange
	mask       projector.Mask // selects After for project, Before for deletes
	beforeMask projector.Mask
}

func splitRows(t replication.EventType, e *replication.RowsEvent) (rowsBatch, bool) {
	m1 := bitmapMask(e.ColumnBitmap1, e.ColumnCount)
	switch t {
	case replication.WRITE_ROWS_EVENTv0, replication.WRITE_ROWS_EVENTv1, replication.WRITE_ROWS_EVENTv2:
		b := rowsBatch{op: event.OpCreate, mask: m1}
		for _, row := range e.Rows {
			b.changes = append(b.changes, projector.RowChange{After: row})
		}
		return b, true
	case replication.UPDATE_ROWS_EVENTv0, replication.UPDATE_ROWS_EVENTv1, replication.UPDATE_ROWS_EVENTv2,
		replication.PARTIAL_UPDATE_ROWS_EVENT:
		b := rowsBatch{op: event.OpUpdate, mask: bitmapMask(e.ColumnBitmap2, e.ColumnCount), beforeMask: m1}
		for i := 0; i+1 < len(e.Rows); i += 2 {
			b.changes = append(b.changes, projector.RowChange{Before: e.Rows[i], After: e.Rows[i+1]})
		}
		return b, true
	case replication.DELETE_ROWS_EVENTv0, replication.DELETE_ROWS_EVENTv1, replication.DELETE_ROWS_EVENTv2:
		b := rowsBatch{op: event.OpDelete, mask: m1, beforeMask: m1}
		for _, row := range e.Rows {
			b.changes = append(b.changes, projector.RowChange{Before: row})
		}
		return b, true
	}
	return rowsBatch{}, false
}

func bitmapMask(bitmap []byte, columns uint64) projector.Mask {
	if len(bitmap) == 0 {
		return projector.FullMask(int(columns))
	}
	return projector.MaskFromBitmap(bitmap)
}

func (h *Handler) handleRows(ctx context.Context, hdr *replication.EventHeader, e *replication.RowsEvent) error {
	key, ok := h.tableKey(e)
	if !ok {
		h.log.Warn("missing table map", zap.Uint64("table_id", e.TableID))
		return nil
	}
	b, ok := splitRows(hdr.EventType, e)
	if !ok {
		h.log.Warn("unhandled rows event type",
			zap.Stringer("type", hdr.EventType),
			zap.Stringer("table", key),
			zap.Int("rows", len(e.Rows)))
		return nil
	}

	batchErr := &BatchError{Rows: len(b.changes)}
	fail := func(row int, isSink bool, err error) {
		re := &RowError{Table: key.String(), Op: b.op, Row: row, Sink: isSink, Err: err}
		batchErr.Fails = append(batchErr.Fails, re)
		h.log.Error("row not delivered",
			zap.String("table", re.Table),
			zap.String("op", re.Op),
			zap.Int("row", row),
			zap.Bool("sink", isSink),
			zap.Error(err))
	}

	tbl, err := h.schemas.Get(ctx, key)
	if err != nil {
		for i := range b.changes {
			fail(i, false, err)
		}
		return batchErr
	}

	pos := h.position(hdr)
	ts := h.timestamp(hdr)
	for _, res := range h.proj.ProjectBatch(tbl, b.mask, b.changes) {
		if res.Err != nil {
			fail(res.Index, false, res.Err)
			continue
		}
		ev := &event.RowEvent{
			ID:        h.newID(),
			Op:        b.op,
			Timestamp: ts,
			DB:        key.Schema,
			Table:     key.Table,
			Binlog:    pos,
			Row:       res.Index,
			After:     res.Record,
		}
		var before projector.Record
		if b.op != event.OpCreate {
			before, err = h.proj.ProjectBefore(tbl, b.beforeMask, b.changes[res.Index])
			if err != nil {
				fail(res.Index, false, err)
				continue
			}
		}
		if b.op == event.OpDelete || (b.op == event.OpUpdate && h.includeBefore) {
			ev.Before = &before
		}
		if b.op == event.OpUpdate {
			ev.Changes = event.Diff(before, res.Record)
		}
		ev.RowKey, ev.KeyKind = event.KeyOf(tbl.PrimaryKey(), ev.Image(), before)

		if err := h.sink.Emit(ctx, ev); err != nil {
			fail(res.Index, true, err)
		}
	}

	if len(batchErr.Fails) > 0 {
		return batchErr
	}
	return nil
}

func (h *Handler) position(hdr *replication.EventHeader) event.Position {
	h.mu.Lock()
	defer h.mu.Unlock()
	return event.Position{File: h.file, Pos: hdr.LogPos}
}

func (h *Handler) timestamp(hdr *replication.EventHeader) string {
	t := h.now()
	if hdr.Timestamp != 0 {
		t = time.Unix(int64(hdr.Timestamp), 0)
	}
	return t.UTC().Format(time.RFC3339)
}
