package cache

import (
	"fmt"
	"strings"
)

// GenerateKey creates a cache key with prefix and ID.
func GenerateKey(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// GenerateKeyWithParams joins params onto prefix, lowercasing strings so
// "Dance" and "dance" share an entry.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, param := range params {
		b.WriteByte(':')
		if s, ok := param.(string); ok {
			b.WriteString(strings.ToLower(strings.TrimSpace(s)))
			continue
		}
		fmt.Fprintf(&b, "%v", param)
	}
	return b.String()
}

// BuildPattern creates a glob pattern for key matching.
func BuildPattern(prefix string) string {
	return prefix + "*"
}
