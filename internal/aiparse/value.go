package aiparse

// Accessors for the generic value tree returned by Parse. Model output is
// untrusted and partially shaped, so callers probe field by field and fall
// back to a default instead of asserting types.

// Object returns v as a JSON object, or nil if it is not one.
func Object(v any) map[string]any {
	obj, _ := v.(map[string]any)
	return obj
}

// Array returns v as a JSON array, or nil if it is not one.
func Array(v any) []any {
	arr, _ := v.([]any)
	return arr
}

// String returns v as a string, or "" if it is not one.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Float returns v as a float64. encoding/json decodes every number to
// float64, but int variants are accepted too so hand-built values behave
// the same way in tests and fixtures.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
