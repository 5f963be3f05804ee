package event

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binlog_row_publisher/internal/projector"
)

func record(kv ...interface{}) projector.Record {
	var r projector.Record
	for i := 0; i+1 < len(kv); i += 2 {
		r.Add(kv[i].(string), kv[i+1])
	}
	return r
}

func TestKeyOf(t *testing.T) {
	rec := record("tenant", "acme", "id", 7, "name", "x")

	tcs := []struct {
		name   string
		pk     []string
		images []projector.Record
		key    interface{}
		kind   string
	}{
		{name: "single", pk: []string{"id"}, images: []projector.Record{rec}, key: 7, kind: KeyPrimary},
		{name: "composite", pk: []string{"tenant", "id"}, images: []projector.Record{rec},
			key: map[string]interface{}{"tenant": "acme", "id": 7}, kind: KeyPrimary},
		{name: "falls back to before image", pk: []string{"id"},
			images: []projector.Record{record("name", "new"), record("id", 9)}, key: 9, kind: KeyPrimary},
		{name: "first image wins", pk: []string{"id"},
			images: []projector.Record{record("id", 10), record("id", 9)}, key: 10, kind: KeyPrimary},
		{name: "composite split across images", pk: []string{"tenant", "id"},
			images: []projector.Record{record("tenant", "acme"), record("id", 9)},
			key:    map[string]interface{}{"tenant": "acme", "id": 9}, kind: KeyPrimary},
		{name: "no images", pk: []string{"id"}, key: nil, kind: ""},
		{name: "empty images", images: []projector.Record{{}, {}}, key: nil, kind: ""},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			key, kind := KeyOf(tc.pk, tc.images...)
			assert.Equal(t, tc.key, key)
			assert.Equal(t, tc.kind, kind)
		})
	}
}

func TestKeyOf_HashWithoutPrimaryKey(t *testing.T) {
	rec := record("tenant", "acme", "id", 7, "name", "x")

	key, kind := KeyOf(nil, rec)
	assert.Equal(t, KeyHash, kind)
	require.IsType(t, "", key)
	assert.Len(t, key, 16)

	again, _ := KeyOf(nil, projector.Record{}, rec)
	assert.Equal(t, key, again, "empty images are skipped")

	missing, kind := KeyOf([]string{"missing"}, rec)
	assert.Equal(t, KeyHash, kind)
	assert.Equal(t, key, missing)

	other, _ := KeyOf(nil, record("tenant", "acme", "id", 8, "name", "x"))
	assert.NotEqual(t, key, other)
}

func TestDiff(t *testing.T) {
	before := record("id", 1, "name", "ann", "age", 29)
	after := record("id", 1, "age", 30, "email", "a@x")

	assert.Equal(t, []ColumnChange{
		{Column: "age", From: 29, To: 30},
		{Column: "email", From: nil, To: "a@x"},
	}, Diff(before, after))

	assert.Nil(t, Diff(before, record("id", 1, "name", "ann")))
	assert.Nil(t, Diff(before, projector.Record{}))
}

func TestImage(t *testing.T) {
	before := record("id", 1)
	del := &RowEvent{Op: OpDelete, Before: &before}
	assert.Equal(t, []string{"id"}, del.Image().Names())

	upd := &RowEvent{Op: OpUpdate, After: record("name", "n"), Before: &before}
	assert.Equal(t, []string{"name"}, upd.Image().Names())
}

func TestRowEvent_JSON(t *testing.T) {
	ev := &RowEvent{
		ID:        "e1",
		Op:        OpUpdate,
		Timestamp: "2024-01-01T00:00:00Z",
		DB:        "app",
		Table:     "people",
		Binlog:    Position{File: "mysql-bin.000003", Pos: 1200},
		Row:       0,
		RowKey:    7,
		After:     record("id", 7, "age", 30),
	}

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":"e1","op":"update","timestamp":"2024-01-01T00:00:00Z","db":"app","table":"people",`+
			`"binlog":{"file":"mysql-bin.000003","pos":1200},"row":0,"row_key":7,"after":{"id":7,"age":30}}`,
		string(b))

	var back RowEvent
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []string{"id", "age"}, back.After.Names())
	assert.Nil(t, back.Before)
	assert.Equal(t, "app.people:update:7", back.Ref())
}
