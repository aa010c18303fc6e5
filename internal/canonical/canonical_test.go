package canonical

import "testing"

func TestCanonicalizeKeyOrderInvariance(t *testing.T) {
	a := map[string]any{"a": float64(1), "b": float64(2)}
	b := map[string]any{"b": float64(2), "a": float64(1)}

	if Hash(Canonicalize(a)) != Hash(Canonicalize(b)) {
		t.Error("key order changed the hash")
	}
}

func TestCanonicalizeExcludedKeys(t *testing.T) {
	base := map[string]any{"customer_id": float64(7), "notes": "rush order"}
	withMeta := map[string]any{
		"customer_id":      float64(7),
		"notes":            "rush order",
		"idempotency_key":  "k-123",
		"request_id":       "r-456",
		"trace_id":         "t-789",
		"client_timestamp": "2025-01-01T00:00:00Z",
	}
	withMetaUpper := map[string]any{
		"customer_id": float64(7),
		"notes":       "rush order",
		"Request_ID":  "r-456",
		"TRACE_ID":    "t-789",
	}

	want := HashPayload(base)
	if HashPayload(withMeta) != want {
		t.Error("excluded correlation fields affected the hash")
	}
	if HashPayload(withMetaUpper) != want {
		t.Error("case-insensitive excluded fields affected the hash")
	}
}

func TestCanonicalizeWhitespace(t *testing.T) {
	a := map[string]any{"name": "Acme   Corp "}
	b := map[string]any{"name": " Acme Corp"}

	if HashPayload(a) != HashPayload(b) {
		t.Error("incidental whitespace affected the hash")
	}
}

func TestCanonicalizeArrayOrderPreserved(t *testing.T) {
	a := map[string]any{"lines": []any{"x", "y"}}
	b := map[string]any{"lines": []any{"y", "x"}}

	if HashPayload(a) == HashPayload(b) {
		t.Error("array element order should be meaningful")
	}
}

func TestCanonicalizeNestedObjects(t *testing.T) {
	a := map[string]any{
		"lines": []any{map[string]any{"part": "p1", "qty": float64(2)}},
	}
	b := map[string]any{
		"lines": []any{map[string]any{"qty": float64(2), "part": "p1"}},
	}

	if HashPayload(a) != HashPayload(b) {
		t.Error("nested key order changed the hash")
	}
}

func TestCanonicalizeNumbers(t *testing.T) {
	// 2.0 and 2 decode to the same float64 and must render identically.
	if Canonicalize(float64(2.0)) != "2" {
		t.Errorf("float 2.0 rendered as %q, want \"2\"", Canonicalize(float64(2.0)))
	}
	if Canonicalize(float64(2.5)) != "2.5" {
		t.Errorf("float 2.5 rendered as %q", Canonicalize(float64(2.5)))
	}
}

func TestCanonicalizeNil(t *testing.T) {
	if Canonicalize(nil) != "null" {
		t.Errorf("nil rendered as %q, want null", Canonicalize(nil))
	}
}

func TestHashShape(t *testing.T) {
	digest := Hash("hello")
	if len(digest) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(digest))
	}
}

func TestText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ABC-123/X", "abc 123 x"},
		{"  Acme   Corp. ", "acme corp"},
		{"pn_100", "pn 100"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Text(tc.in); got != tc.want {
			t.Errorf("Text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
