package utils

import (
	"bytes"
	"encoding/json"
)

// Opt is a JSON field that distinguishes "absent" from "null" from a value.
// Absent leaves Set false; an explicit null sets Set and Null.
type Opt[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null Opt.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Set: true, Value: v}
}

// Null returns a present, explicitly null Opt.
func Null[T any]() Opt[T] {
	return Opt[T]{Set: true, Null: true}
}

func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Present reports whether the field carries a non-null value.
func (o Opt[T]) Present() bool {
	return o.Set && !o.Null
}

// Ptr returns nil for null, a pointer to the value otherwise. Callers check Set first.
func (o Opt[T]) Ptr() *T {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// ApplyNullable assigns a present field (value or null) to dst.
func ApplyNullable[T any](dst **T, o Opt[T]) {
	if o.Set {
		*dst = o.Ptr()
	}
}

// ApplyValue assigns a present non-null field to dst; null means "do not change".
func ApplyValue[T any](dst *T, o Opt[T]) {
	if o.Present() {
		*dst = o.Value
	}
}
