// Package canonical normalizes request payloads into a stable form so that
// semantically identical requests hash identically regardless of key order,
// incidental whitespace, or correlation metadata.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// excludedKeys are correlation fields that never affect the request hash.
// Matching is case-insensitive.
var excludedKeys = map[string]struct{}{
	"idempotency_key":  {},
	"request_id":       {},
	"trace_id":         {},
	"client_timestamp": {},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Canonicalize renders a decoded JSON value as a canonical string:
// object keys sorted, excluded keys dropped, strings whitespace-collapsed,
// array order preserved (line-item order is meaningful).
func Canonicalize(v any) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

// Hash returns the hex-encoded SHA-256 digest of a canonical string.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashPayload canonicalizes a payload and hashes the result.
func HashPayload(v any) string {
	return Hash(Canonicalize(v))
}

// Text normalizes free text for equality comparison: lowercased, punctuation
// stripped, whitespace collapsed. Used for canonical part numbers and for
// deduplicating fuzzy search candidates.
func Text(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return CollapseWhitespace(b.String())
}

// CollapseWhitespace trims a string and collapses interior whitespace runs
// to single spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func writeCanonical(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case string:
		writeJSONString(b, CollapseWhitespace(val))
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		b.WriteString(strconv.Itoa(val))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case json.Number:
		if f, err := val.Float64(); err == nil {
			b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
		} else {
			writeJSONString(b, val.String())
		}
	case []any:
		b.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, elem)
		}
		b.WriteByte(']')
	case map[string]any:
		writeCanonicalObject(b, val)
	default:
		// Structs and other typed values go through a JSON round trip so the
		// walk only ever sees plain JSON shapes.
		raw, err := json.Marshal(val)
		if err != nil {
			writeJSONString(b, "")
			return
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			writeJSONString(b, "")
			return
		}
		writeCanonical(b, decoded)
	}
}

func writeCanonicalObject(b *strings.Builder, obj map[string]any) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if _, excluded := excludedKeys[strings.ToLower(k)]; excluded {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		writeJSONString(b, k)
		b.WriteByte(':')
		writeCanonical(b, obj[k])
	}
	b.WriteByte('}')
}

func writeJSONString(b *strings.Builder, s string) {
	encoded, err := json.Marshal(s)
	if err != nil {
		b.WriteString(`""`)
		return
	}
	b.Write(encoded)
}
