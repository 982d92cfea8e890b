package tdsclient

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/joacominatel/tdskit/driver"
)

// NullText is the rendering of a SQL NULL.
const NullText = "NULL"

// DateTimeLayout is how date and time values are rendered.
const DateTimeLayout = "2006-01-02 15:04:05.000"

// minConvertCapacity is the smallest conversion buffer handed out per value.
const minConvertCapacity = 32

// convertCapacity returns the buffer size for a value whose native data
// length is n: the larger of 32 and twice the length, plus two.
func convertCapacity(n int) int {
	return max(minConvertCapacity, 2*n) + 2
}

// dataLength returns the native byte length of v.
func dataLength(v any, col driver.Column) int {
	switch v := v.(type) {
	case []byte:
		return len(v)
	case string:
		return len(v)
	case int8, uint8, bool:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int64, uint64, int, uint, float64, time.Time:
		return 8
	}
	if col.Length > 0 {
		return int(col.Length)
	}
	return 8
}

// convertValue renders one column value as character text, trimmed of
// surrounding spaces.
func convertValue(v any, col driver.Column) (string, error) {
	if v == nil {
		return NullText, nil
	}

	capacity := convertCapacity(dataLength(v, col))
	buf := appendText(make([]byte, 0, capacity), v, col)
	if len(buf) > capacity-1 {
		return "", fmt.Errorf("column %q: %d bytes into %d: %w", col.Name, len(buf), capacity, ErrCapacityExceeded)
	}
	return string(bytes.Trim(buf, " ")), nil
}

func appendText(buf []byte, v any, col driver.Column) []byte {
	switch v := v.(type) {
	case string:
		return append(buf, v...)
	case []byte:
		if col.Type.Binary() {
			return append(buf, driver.EncodeHex(v)...)
		}
		return append(buf, v...)
	case int64:
		return strconv.AppendInt(buf, v, 10)
	case int32:
		return strconv.AppendInt(buf, int64(v), 10)
	case int16:
		return strconv.AppendInt(buf, int64(v), 10)
	case int8:
		return strconv.AppendInt(buf, int64(v), 10)
	case int:
		return strconv.AppendInt(buf, int64(v), 10)
	case uint8:
		return strconv.AppendUint(buf, uint64(v), 10)
	case uint16:
		return strconv.AppendUint(buf, uint64(v), 10)
	case uint32:
		return strconv.AppendUint(buf, uint64(v), 10)
	case uint64:
		return strconv.AppendUint(buf, v, 10)
	case uint:
		return strconv.AppendUint(buf, uint64(v), 10)
	case float64:
		return strconv.AppendFloat(buf, v, 'g', -1, 64)
	case float32:
		return strconv.AppendFloat(buf, float64(v), 'g', -1, 32)
	case bool:
		if v {
			return append(buf, '1')
		}
		return append(buf, '0')
	case time.Time:
		return v.AppendFormat(buf, DateTimeLayout)
	default:
		return fmt.Appendf(buf, "%v", v)
	}
}
