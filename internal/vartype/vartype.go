// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package vartype holds optional values for fields a remote document may omit.
package vartype

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type (
	Int   = Optional[int]
	Float = Optional[float64]
)

// Optional is a value that knows whether it was reported. The zero Optional is unset, and an
// absent field or an explicit null in a JSON document leaves it unset.
type Optional[T any] struct {
	value    T
	reported bool
}

// Of returns a reported Optional holding value.
func Of[T any](value T) Optional[T] {
	return Optional[T]{value: value, reported: true}
}

// Value returns the held value, the zero value of T if unset.
func (o Optional[T]) Value() T {
	return o.value
}

func (o Optional[T]) IsSet() bool {
	return o.reported
}

// Or returns the held value or fallback if unset.
func (o Optional[T]) Or(fallback T) T {
	if !o.reported {
		return fallback
	}
	return o.value
}

func (o Optional[T]) String() string {
	if !o.reported {
		return "not reported"
	}
	return fmt.Sprint(o.value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.reported {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("failed to decode optional value: %w", err)
	}
	*o = Of(value)
	return nil
}
