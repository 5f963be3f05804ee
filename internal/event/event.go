package event

import (
	"crypto/sha256"
	"fmt"
	"reflect"

	"binlog_row_publisher/internal/projector"
)

const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// How RowKey was derived.
const (
	KeyPrimary = "primary_key"
	KeyHash    = "hash"
)

type Position struct {
	File string `json:"file"`
	Pos  uint32 `json:"pos"`
}

// RowEvent is the envelope published for every row of a rows event.
type RowEvent struct {
	ID        string            `json:"id"`
	Op        string            `json:"op"`
	Timestamp string            `json:"timestamp"`
	DB        string            `json:"db"`
	Table     string            `json:"table"`
	Binlog    Position          `json:"binlog"`
	Row       int               `json:"row"`
	RowKey    interface{}       `json:"row_key"`
	KeyKind   string            `json:"key_kind,omitempty"`
	After     projector.Record  `json:"after"`
	Before    *projector.Record `json:"before,omitempty"`
	Changes   []ColumnChange    `json:"changes,omitempty"`
}

// ColumnChange is one column of an update's after-image whose value
// differs from the before-image. From is nil when the before-image does
// not carry the column.
type ColumnChange struct {
	Column string      `json:"column"`
	From   interface{} `json:"from"`
	To     interface{} `json:"to"`
}

// Ref identifies the event in logs and the message log.
func (e *RowEvent) Ref() string {
	return fmt.Sprintf("%s.%s:%s:%v", e.DB, e.Table, e.Op, e.RowKey)
}

// Image is the record subscribers filter on: after for creates and
// updates, before for deletes.
func (e *RowEvent) Image() projector.Record {
	if e.Op == OpDelete && e.Before != nil {
		return *e.Before
	}
	return e.After
}

// KeyOf identifies a row. Each primary key column is taken from the first
// image that carries it, so an update logged with a minimal after-image
// still resolves its key from the before-image. A single key column yields
// its value, a composite key a name->value map. Without a primary key, or
// when a key column is in no image, the key is a short hash of the first
// non-empty image.
func KeyOf(pk []string, images ...projector.Record) (interface{}, string) {
	if len(pk) > 0 {
		vals := make(map[string]interface{}, len(pk))
		for _, c := range pk {
			for _, img := range images {
				if v, ok := img.Get(c); ok {
					vals[c] = v
					break
				}
			}
		}
		if len(vals) == len(pk) {
			if len(pk) == 1 {
				return vals[pk[0]], KeyPrimary
			}
			return vals, KeyPrimary
		}
	}
	for _, img := range images {
		if img.Len() == 0 {
			continue
		}
		b, err := img.MarshalJSON()
		if err != nil {
			return nil, ""
		}
		sum := sha256.Sum256(b)
		return fmt.Sprintf("%x", sum[:8]), KeyHash
	}
	return nil, ""
}

// Diff lists the columns of after that changed relative to before, in
// after's order.
func Diff(before, after projector.Record) []ColumnChange {
	var out []ColumnChange
	for _, f := range after.Fields() {
		from, ok := before.Get(f.Name)
		if ok && reflect.DeepEqual(from, f.Value) {
			continue
		}
		out = append(out, ColumnChange{Column: f.Name, From: from, To: f.Value})
	}
	return out
}
