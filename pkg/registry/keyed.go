package registry

import (
	"fmt"

	"github.com/automerge/automerge-go"
)

// Keyed is a map of entities with no independent order.
type Keyed[T any] struct {
	items *automerge.Map
	codec Codec[T]
	guard Guard
}

func NewKeyed[T any](items *automerge.Map, codec Codec[T], guard Guard) *Keyed[T] {
	return &Keyed[T]{items: items, codec: codec, guard: guard}
}

// OpenKeyed finds the map stored under key in parent.
func OpenKeyed[T any](parent *automerge.Map, key string, codec Codec[T], guard Guard) (*Keyed[T], error) {
	items, err := MapAt(parent, key)
	if err != nil {
		return nil, err
	}
	return NewKeyed(items, codec, guard), nil
}

func (k *Keyed[T]) Has(id string) (bool, error) {
	v, err := k.items.Get(id)
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", id, err)
	}
	return v.Kind() != automerge.KindVoid, nil
}

func (k *Keyed[T]) Get(id string) (T, bool, error) {
	var zero T
	v, err := k.items.Get(id)
	if err != nil {
		return zero, false, fmt.Errorf("failed to get %s: %w", id, err)
	}
	if v.Kind() == automerge.KindVoid {
		return zero, false, nil
	}
	out, err := k.codec.Decode(v)
	if err != nil {
		return zero, false, fmt.Errorf("failed to decode %s: %w", id, err)
	}
	return out, true, nil
}

// Keys returns the keys in sorted order.
func (k *Keyed[T]) Keys() ([]string, error) {
	return sortedKeys(k.items)
}

// Values decodes every entry.
func (k *Keyed[T]) Values() (map[string]T, error) {
	keys, err := k.Keys()
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(keys))
	for _, key := range keys {
		v, ok, err := k.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			out[key] = v
		}
	}
	return out, nil
}

// Put stores v under id, replacing any existing entry.
func (k *Keyed[T]) Put(id string, v T) error {
	if err := k.guard.check(PartItems); err != nil {
		return err
	}
	if err := k.items.Set(id, k.codec.Encode(v)); err != nil {
		return fmt.Errorf("failed to set %s: %w", id, err)
	}
	return nil
}

// Delete removes id. Deleting a missing id is not an error.
func (k *Keyed[T]) Delete(id string) error {
	ok, err := k.Has(id)
	if err != nil || !ok {
		return err
	}
	if err := k.guard.check(PartItems); err != nil {
		return err
	}
	if err := k.items.Delete(id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	return nil
}

// Object returns the automerge map stored under id.
func (k *Keyed[T]) Object(id string) (*automerge.Map, error) {
	v, err := k.items.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", id, err)
	}
	if v.Kind() == automerge.KindVoid {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}
	if v.Kind() != automerge.KindMap {
		return nil, fmt.Errorf("entry %s is a %v, not a map", id, v.Kind())
	}
	return v.Map(), nil
}

// Guard returns the guard writes are checked against.
func (k *Keyed[T]) Guard() Guard {
	return k.guard
}
