package types

import (
	"bytes"
	"encoding/json"
)

// Nullable tracks whether a field was explicitly present in JSON. Valid is
// true when the key appeared; Value is nil when it appeared as null.
type Nullable[T any] struct {
	Valid bool
	Value *T
}

// Set builds a present, non-null value.
func Set[T any](v T) Nullable[T] {
	return Nullable[T]{Valid: true, Value: &v}
}

// Null builds a present, explicit null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	if bytes.Equal(trimmed, []byte("null")) {
		n.Valid = true
		n.Value = nil
		return nil
	}

	var parsed T
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Valid = true
	n.Value = &parsed
	return nil
}

// Apply overwrites *dst when the field was present.
func (n Nullable[T]) Apply(dst **T) {
	if !n.Valid {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}
