// Package ptr converts between optional (pointer) fields and plain values.
package ptr

// To creates a pointer to the given value.
func To[T any](v T) *T {
	return &v
}

// ValueOr returns the pointed-to value, or fallback when p is nil.
func ValueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// Value returns the pointed-to value, or the zero value when p is nil.
func Value[T any](p *T) T {
	var zero T
	return ValueOr(p, zero)
}

// Equal reports whether two optional values are both absent or both present and equal.
func Equal[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// NonZero returns a pointer to v, or nil when v is the zero value.
func NonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
