package types

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// Nullable is a PATCH field with three states: absent, explicit null and a
// value. Plain pointers cannot tell the first two apart.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if bytes.Equal(data, jsonNull) {
		*n = Nullable[T]{Set: true}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Nullable[T]{Set: true, Value: &v}
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return jsonNull, nil
	}
	return json.Marshal(*n.Value)
}

// Cleared reports an explicit null.
func (n Nullable[T]) Cleared() bool {
	return n.Set && n.Value == nil
}
