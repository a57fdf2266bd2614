// Package optional models explicit field presence for partial updates.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value records whether a field was present in the input and, if so, its value.
// A JSON null is present with Null set.
type Value[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Of[T any](v T) Value[T] {
	return Value[T]{Set: true, Value: v}
}

func Null[T any]() Value[T] {
	return Value[T]{Set: true, Null: true}
}

// Get returns the value when it is set and not null.
func (v Value[T]) Get() (T, bool) {
	if !v.Set || v.Null {
		var zero T
		return zero, false
	}
	return v.Value, true
}

func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		v.Null = true
		var zero T
		v.Value = zero
		return nil
	}
	v.Null = false
	return json.Unmarshal(data, &v.Value)
}

func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.Set || v.Null {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}
