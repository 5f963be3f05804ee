package sink

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"binlog_row_publisher/internal/event"
	"binlog_row_publisher/internal/projector"
)

func sampleEvent(id string) *event.RowEvent {
	var after projector.Record
	after.Add("id", 1)
	return &event.RowEvent{ID: id, Op: event.OpCreate, DB: "app", Table: "t", RowKey: 1, After: after}
}

func TestWriter_OneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Emit(context.Background(), sampleEvent("a")))
	require.NoError(t, w.Emit(context.Background(), sampleEvent("b")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"id":"a"`)
	assert.Contains(t, lines[1], `"after":{"id":1}`)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriter_ReportsWriteError(t *testing.T) {
	err := NewWriter(failingWriter{}).Emit(context.Background(), sampleEvent("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event x")
}

type badKey struct{}

func (badKey) MarshalJSON() ([]byte, error) { return nil, errors.New("no") }

func TestEncode_ReportsMarshalError(t *testing.T) {
	ev := sampleEvent("bad")
	ev.RowKey = badKey{}
	_, err := Encode(ev)
	assert.Error(t, err)
}

type fakePublisher struct {
	channel string
	message interface{}
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message = message
	return redis.NewIntResult(1, f.err)
}

type bufCloser struct{ bytes.Buffer }

func (*bufCloser) Close() error { return nil }

func TestRedis_PublishesAndLogs(t *testing.T) {
	pub := &fakePublisher{}
	out := &bufCloser{}
	msgLog := &MessageLog{w: out, now: func() time.Time { return time.Unix(0, 0).UTC() }}
	s := &Redis{r: pub, channel: "binlog:all", log: msgLog, logger: zap.NewNop()}

	require.NoError(t, s.Emit(context.Background(), sampleEvent("e1")))

	assert.Equal(t, "binlog:all", pub.channel)
	assert.Contains(t, pub.message, `"id":"e1"`)
	assert.True(t, strings.HasPrefix(out.String(), "1970-01-01T00:00:00Z event_id=e1 payload={"))
}

func TestRedis_PublishErrorIsReturnedAndNotLogged(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	out := &bufCloser{}
	s := &Redis{r: pub, channel: "c", log: &MessageLog{w: out, now: time.Now}, logger: zap.NewNop()}

	err := s.Emit(context.Background(), sampleEvent("e2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, out.String())
}

type failingCloser struct{ failingWriter }

func (failingCloser) Close() error { return nil }

func TestRedis_MessageLogFailureIsNotADeliveryFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	pub := &fakePublisher{}
	s := &Redis{r: pub, channel: "c", log: &MessageLog{w: failingCloser{}, now: time.Now}, logger: zap.New(core)}

	require.NoError(t, s.Emit(context.Background(), sampleEvent("e3")))
	assert.Equal(t, "c", pub.channel, "event was published")

	entries := logs.FilterMessage("message log write failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "e3", entries[0].ContextMap()["event_id"])
	assert.Contains(t, entries[0].ContextMap()["error"], "disk full")
}

func TestMessageLog_NilIsNoop(t *testing.T) {
	var l *MessageLog
	assert.NoError(t, l.Log("id", []byte("{}")))
	assert.NoError(t, l.Close())
}
