package style

import (
	"bytes"
	"encoding/json"
)

// Optional is a value that is either Present or left to fall back to a default. A
// zero Optional means "use default", so JSON objects that omit a key (or set it to
// null) decode to an absent value.
type Optional[T any] struct {
	Value   T
	Present bool
}

// Some returns an Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Present: true}
}

// Get returns the held value, if any
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Present
}

// apply overwrites *dst with the held value when present
func (o Optional[T]) apply(dst *T) {
	if o.Present {
		*dst = o.Value
	}
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
