package model

// Optional is a value that may be absent. The optional container extractor
// unwraps any type exposing a Get() (T, bool) method; Optional is the stock one.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an empty Optional
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}
