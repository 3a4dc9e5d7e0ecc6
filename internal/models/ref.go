package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type refIdentifiable interface {
	RefID() string
}

// Ref is a foreign-key reference that is either Unresolved (only the id is known) or Resolved
// (the referenced entity has been loaded). On the wire an unresolved ref is the bare id string and a
// resolved ref is the embedded object.
type Ref[T any] struct {
	id     string
	entity *T
}

// Unresolved returns a reference carrying only an id.
func Unresolved[T any](id string) Ref[T] {
	return Ref[T]{id: id}
}

// Resolved returns a reference carrying the loaded entity.
func Resolved[T any](id string, entity *T) Ref[T] {
	return Ref[T]{id: id, entity: entity}
}

// ID returns the referenced id in both variants.
func (r Ref[T]) ID() string {
	return r.id
}

// Entity returns the loaded entity and true when the ref is resolved.
func (r Ref[T]) Entity() (*T, bool) {
	return r.entity, r.entity != nil
}

// IsResolved reports whether the entity is loaded.
func (r Ref[T]) IsResolved() bool {
	return r.entity != nil
}

// MarshalJSON encodes the id string or the embedded entity.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.entity != nil {
		return json.Marshal(r.entity)
	}
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}

// UnmarshalJSON accepts either an id string or an embedded object.
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = Ref[T]{}
		return nil
	case data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Unresolved[T](id)
		return nil
	case data[0] == '{':
		var entity T
		if err := json.Unmarshal(data, &entity); err != nil {
			return err
		}
		identifiable, ok := any(&entity).(refIdentifiable)
		if !ok {
			return fmt.Errorf("ref: %T has no id", entity)
		}
		*r = Resolved(identifiable.RefID(), &entity)
		return nil
	default:
		return fmt.Errorf("ref: unexpected JSON %q", data)
	}
}
