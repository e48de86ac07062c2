package cache

import (
	"fmt"
	"sort"
	"strings"
)

// CanonicalKey builds a deterministic cache key from a filter field map.
// Fields whose value is nil, an empty string, or a nil pointer are dropped,
// the remaining names are sorted, and the pairs joined as name=value with &.
// Two logically identical filters therefore always share one key, whatever
// the caller's field order.
func CanonicalKey(prefix string, fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for name, value := range fields {
		if isEmpty(value) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, fmt.Sprintf("%s=%s", name, format(fields[name])))
	}
	return prefix + strings.Join(pairs, "&")
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case *bool:
		return v == nil
	case *int:
		return v == nil
	case *string:
		return v == nil || *v == ""
	default:
		return false
	}
}

func format(value any) string {
	switch v := value.(type) {
	case *bool:
		return fmt.Sprintf("%t", *v)
	case *int:
		return fmt.Sprintf("%d", *v)
	case *string:
		return *v
	default:
		return fmt.Sprintf("%v", v)
	}
}
