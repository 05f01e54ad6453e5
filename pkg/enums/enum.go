package enums

import (
	"fmt"
	"slices"
)

// known reports whether v is one of values.
func known[T ~string](values []T, v T) bool {
	return slices.Contains(values, v)
}

// parse maps raw onto one of values; kind names the enum in the error.
func parse[T ~string](values []T, raw, kind string) (T, error) {
	if v := T(raw); known(values, v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
