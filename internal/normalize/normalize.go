// Package normalize converts raw go-mysql row values into JSON-safe
// primitives.
package normalize

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

var (
	ErrUnsupportedType = errors.New("unsupported value type")
	ErrUnrepresentable = errors.New("value has no JSON representation")
	ErrInvalidUTF8     = errors.New("text column holds invalid utf-8")
	ErrInvalidJSON     = errors.New("json column holds invalid json")
)

type Normalizer interface {
	Normalize(raw interface{}, declaredType string) (interface{}, error)
}

// MySQL normalizes values decoded by a BinlogSyncer running with UseDecimal
// and ParseTime. declaredType is information_schema.COLUMNS.DATA_TYPE.
type MySQL struct{}

func (MySQL) Normalize(raw interface{}, declaredType string) (interface{}, error) {
	typ := strings.ToLower(strings.TrimSpace(declaredType))

	switch v := raw.(type) {
	case nil:
		return nil, nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return v, nil
	case float32:
		return finite(float64(v))
	case float64:
		return finite(v)
	case decimal.Decimal:
		return v.String(), nil
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	case string:
		if IsBinary(typ) {
			return base64.StdEncoding.EncodeToString([]byte(v)), nil
		}
		return v, nil
	case []byte:
		return normalizeBytes(v, typ)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, raw)
	}
}

func finite(f float64) (interface{}, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrUnrepresentable, f)
	}
	return f, nil
}

func normalizeBytes(b []byte, typ string) (interface{}, error) {
	switch {
	case IsBinary(typ):
		return base64.StdEncoding.EncodeToString(b), nil
	case typ == "json":
		if !json.Valid(b) {
			return nil, ErrInvalidJSON
		}
		return json.RawMessage(append([]byte(nil), b...)), nil
	default:
		if !utf8.Valid(b) {
			return nil, ErrInvalidUTF8
		}
		return string(b), nil
	}
}

// IsBinary reports whether a MySQL DATA_TYPE stores raw bytes.
func IsBinary(typ string) bool {
	switch typ {
	case "binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob",
		"bit", "vector", "geometry", "point", "linestring", "polygon",
		"multipoint", "multilinestring", "multipolygon", "geometrycollection":
		return true
	}
	return false
}
