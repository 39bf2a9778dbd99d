// Package strings provides string list helpers for configuration parsing.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
//	DedupeAndTrim([]string{" kafka-1:9092", "kafka-2:9092", "kafka-1:9092", ""})
//	// []string{"kafka-1:9092", "kafka-2:9092"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// SplitList splits a comma separated value and applies DedupeAndTrim.
// An empty input yields nil.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	out := DedupeAndTrim(strings.Split(value, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
