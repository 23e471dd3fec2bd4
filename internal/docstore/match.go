package docstore

import (
	"fmt"
	"sort"
)

// matchFields reports whether a decoded document body satisfies every
// filter. Used by the memory store and by subscription re-delivery.
func matchFields(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		value, ok := fields[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if !looseEqual(value, f.Value) {
				return false
			}
		case OpContains:
			arr, ok := value.([]any)
			if !ok {
				return false
			}
			found := false
			for _, elem := range arr {
				if looseEqual(elem, f.Value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// looseEqual compares a JSON-decoded value with a caller-supplied filter
// value. JSON numbers always decode to float64, so numeric comparisons go
// through float64; everything else compares by string form.
func looseEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// sortDocuments orders documents by a field of their decoded bodies.
// Timestamps marshal as RFC 3339 strings, so string ordering sorts them
// chronologically.
func sortDocuments(docs []Document, orderBy string, desc bool) {
	if orderBy == "" {
		return
	}
	fields := make([]map[string]any, len(docs))
	for i := range docs {
		f, err := docs[i].Fields()
		if err == nil {
			fields[i] = f
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if desc {
			return lessValue(fields[j][orderBy], fields[i][orderBy])
		}
		return lessValue(fields[i][orderBy], fields[j][orderBy])
	})
}

func lessValue(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
