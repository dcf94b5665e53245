package flatten

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// object returns m[key] as an object, or nil when absent or not an object.
func object(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

// list returns m[key] as a list, or nil when absent or not a list.
func list(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]any)
	return v
}

// text returns m[key] as text. Numbers and booleans are rendered in their
// canonical form; anything else is NULL.
func text(m map[string]any, key string) *string {
	if m == nil {
		return nil
	}
	return asText(m[key])
}

// integer returns m[key] as an integer, or NULL when it is not integral.
func integer(m map[string]any, key string) *int64 {
	if m == nil {
		return nil
	}
	n, ok := asInt(m[key])
	if !ok {
		return nil
	}
	return &n
}

// count returns m[key] as an integer, defaulting to zero.
func count(m map[string]any, key string) int64 {
	if m == nil {
		return 0
	}
	n, _ := asInt(m[key])
	return n
}

// textAt returns the i-th element of l as text, or NULL when out of range.
func textAt(l []any, i int) *string {
	if i < 0 || i >= len(l) {
		return nil
	}
	return asText(l[i])
}

func asText(v any) *string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		s = strconv.FormatInt(x, 10)
	case int:
		s = strconv.Itoa(x)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return nil
	}
	return &s
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return integralFloat(f)
	case float64:
		return integralFloat(x)
	case int64:
		return x, true
	case int:
		return int64(x), true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
