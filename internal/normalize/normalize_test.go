package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQL_Normalize(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 10, 30, 0, 123000000, time.FixedZone("IST", 5*3600+1800))

	tcs := []struct {
		name string
		raw  interface{}
		typ  string
		want interface{}
	}{
		{name: "null", raw: nil, typ: "int", want: nil},
		{name: "int passes through", raw: int32(42), typ: "int", want: int32(42)},
		{name: "unsigned", raw: uint64(18446744073709551615), typ: "bigint", want: uint64(18446744073709551615)},
		{name: "bool", raw: true, typ: "tinyint", want: true},
		{name: "float32 widens", raw: float32(1.5), typ: "float", want: float64(1.5)},
		{name: "string text", raw: "hello", typ: "varchar", want: "hello"},
		{name: "bytes text", raw: []byte("héllo"), typ: "text", want: "héllo"},
		{name: "bytes blob", raw: []byte{0x00, 0xff}, typ: "blob", want: "AP8="},
		{name: "string binary", raw: "ab", typ: "VARBINARY", want: "YWI="},
		{name: "vector", raw: []byte{0x00, 0x00, 0x80, 0x3f, 0xff}, typ: "vector", want: "AACAP/8="},
		{name: "decimal", raw: decimal.RequireFromString("12.3400"), typ: "decimal", want: "12.34"},
		{name: "time in utc", raw: ts, typ: "datetime", want: "2024-03-01T05:00:00.123Z"},
		{name: "json", raw: []byte(`{"a":1}`), typ: "json", want: json.RawMessage(`{"a":1}`)},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := MySQL{}.Normalize(tc.raw, tc.typ)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMySQL_NormalizeErrors(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		raw  interface{}
		typ  string
		want error
	}{
		{name: "nan", raw: math.NaN(), typ: "double", want: ErrUnrepresentable},
		{name: "inf", raw: float32(math.Inf(1)), typ: "float", want: ErrUnrepresentable},
		{name: "bad utf8", raw: []byte{0xc3, 0x28}, typ: "varchar", want: ErrInvalidUTF8},
		{name: "bad json", raw: []byte(`{"a":`), typ: "json", want: ErrInvalidJSON},
		{name: "unknown go type", raw: struct{}{}, typ: "int", want: ErrUnsupportedType},
		{name: "partial json diff", raw: &replication.JsonDiff{Path: "$.a", Value: "1"}, typ: "json", want: ErrUnsupportedType},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := MySQL{}.Normalize(tc.raw, tc.typ)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNormalizedValuesMarshal(t *testing.T) {
	v, err := MySQL{}.Normalize([]byte(`[1, "x"]`), "json")
	require.NoError(t, err)

	b, err := json.Marshal(map[string]interface{}{"doc": v})
	require.NoError(t, err)
	assert.JSONEq(t, `{"doc":[1,"x"]}`, string(b))
}
