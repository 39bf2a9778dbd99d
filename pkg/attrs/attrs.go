// Package attrs reads values back out of slog-style key/value attribute lists.
package attrs

import "fmt"

// ExtractString returns the value stored under key in a [k1, v1, k2, v2, ...]
// slice. Strings are returned as is and fmt.Stringer values (typed ids) via
// String. Returns "" when the key is absent or the value is neither.
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		switch v := attrs[i+1].(type) {
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		}
	}
	return ""
}
