package logging

import (
	"log/slog"
	"sort"
	"strings"
)

// RedactedValue replaces sensitive values in log output.
const RedactedValue = "[REDACTED]"

// sensitiveFragments mark a key as secret when they appear anywhere in it.
var sensitiveFragments = []string{"secret", "token", "pass", "signature", "authorization", "api-key", "apikey", "private"}

// IsSensitive reports whether values logged under key must be masked.
func IsSensitive(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	for _, fragment := range sensitiveFragments {
		if strings.Contains(normalized, fragment) {
			return true
		}
	}
	return false
}

// MaskField returns key=value, or key=[REDACTED] when the key is sensitive.
// Empty values are never masked so that "unset" stays visible.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || !IsSensitive(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// MaskMap logs a string map as a group, masking sensitive entries. Keys are
// emitted in sorted order.
func MaskMap(group string, values map[string]string) slog.Attr {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	attrs := make([]any, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, MaskField(key, values[key]))
	}
	return slog.Group(group, attrs...)
}
