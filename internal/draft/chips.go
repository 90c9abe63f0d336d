package draft

import "strings"

// AddChip commits raw as a new chip. Blank input, input containing a comma,
// duplicates and additions past limit (when limit > 0) are rejected.
func AddChip(values []string, raw string, limit int) ([]string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" || strings.Contains(v, ",") {
		return values, false
	}
	if limit > 0 && len(values) >= limit {
		return values, false
	}
	for _, have := range values {
		if have == v {
			return values, false
		}
	}
	out := make([]string, len(values), len(values)+1)
	copy(out, values)
	return append(out, v), true
}

func RemoveChip(values []string, i int) []string {
	if i < 0 || i >= len(values) {
		return values
	}
	out := make([]string, 0, len(values)-1)
	out = append(out, values[:i]...)
	return append(out, values[i+1:]...)
}

// PopChip drops the last chip (backspace on an empty input).
func PopChip(values []string) []string {
	if len(values) == 0 {
		return values
	}
	return RemoveChip(values, len(values)-1)
}
