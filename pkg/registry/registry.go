// Package registry implements the ordered collections a project is built from, on top of automerge
// objects. A Registry pairs a map of entities with a separate list holding the order of their keys;
// both halves are ordinary automerge objects so concurrent edits on different replicas merge.
//
// Registries do not commit anything themselves. They are opened inside a document transaction and
// every write is first passed through the Guard of that transaction.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/automerge/automerge-go"
)

var (
	ErrAnchorNotFound  = errors.New("anchor not found")
	ErrKeyNotFound     = errors.New("key not found")
	ErrDuplicateKey    = errors.New("key already exists")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrReadOnly        = errors.New("registry is read only")
	ErrBrokenPairing   = errors.New("order and items are out of sync")
)

// Part identifies which half of a registry a write touches.
type Part int

const (
	PartItems Part = iota
	PartOrder
)

// Guard is consulted before every write. A non-nil error aborts the write.
type Guard func(p Part) error

// ReadOnly is a Guard that rejects every write.
func ReadOnly(Part) error {
	return ErrReadOnly
}

func (g Guard) check(p Part) error {
	if g == nil {
		return nil
	}
	return g(p)
}

// Codec converts entities to and from automerge values.
type Codec[T any] interface {
	// Encode returns a value accepted by automerge.Map.Set, usually a map[string]any.
	Encode(v T) any
	Decode(v *automerge.Value) (T, error)
}

// Updater is implemented by codecs that can overwrite an existing object in place instead of
// replacing it with a new one.
type Updater[T any] interface {
	Update(obj *automerge.Map, v T) error
}

// Registry is a keyed collection plus an ordered sequence of its keys.
type Registry[T any] struct {
	items *Keyed[T]
	order *automerge.List
}

func New[T any](items *automerge.Map, order *automerge.List, codec Codec[T], guard Guard) *Registry[T] {
	return &Registry[T]{items: NewKeyed(items, codec, guard), order: order}
}

// Open finds the items map and order list of a registry under parent.
func Open[T any](parent *automerge.Map, itemsKey, orderKey string, codec Codec[T], guard Guard) (*Registry[T], error) {
	items, err := MapAt(parent, itemsKey)
	if err != nil {
		return nil, err
	}
	order, err := ListAt(parent, orderKey)
	if err != nil {
		return nil, err
	}
	return New(items, order, codec, guard), nil
}

func (r *Registry[T]) Has(id string) (bool, error) {
	return r.items.Has(id)
}

func (r *Registry[T]) Get(id string) (T, bool, error) {
	return r.items.Get(id)
}

// Keys returns the keys of the items map in sorted order.
func (r *Registry[T]) Keys() ([]string, error) {
	return r.items.Keys()
}

// Object returns the automerge map stored under id, for entities that own nested collections.
func (r *Registry[T]) Object(id string) (*automerge.Map, error) {
	return r.items.Object(id)
}

// Guard returns the guard writes are checked against, so nested registries can share it.
func (r *Registry[T]) Guard() Guard {
	return r.items.guard
}

// Order returns the order sequence as stored, including any duplicates or dangling ids left by
// concurrent edits.
func (r *Registry[T]) Order() ([]string, error) {
	return listStrings(r.order)
}

func (r *Registry[T]) Append(id string, v T) error {
	if err := r.ensureAbsent(id); err != nil {
		return err
	}
	if err := r.items.Put(id, v); err != nil {
		return err
	}
	if err := r.items.guard.check(PartOrder); err != nil {
		return err
	}
	if err := r.order.Append(id); err != nil {
		return fmt.Errorf("failed to append %s to order: %w", id, err)
	}
	return nil
}

// InsertAdjacent adds the entity and places its id immediately before or after anchor. The anchor
// position is resolved against the order as it is now.
func (r *Registry[T]) InsertAdjacent(id string, v T, anchor string, before bool) error {
	if err := r.ensureAbsent(id); err != nil {
		return err
	}
	order, err := r.Order()
	if err != nil {
		return err
	}
	index := slices.Index(order, anchor)
	if index == -1 {
		return fmt.Errorf("%w: %s", ErrAnchorNotFound, anchor)
	}
	if !before {
		index++
	}
	if err := r.items.Put(id, v); err != nil {
		return err
	}
	if err := r.items.guard.check(PartOrder); err != nil {
		return err
	}
	if err := r.order.Insert(index, id); err != nil {
		return fmt.Errorf("failed to insert %s into order: %w", id, err)
	}
	return nil
}

// Remove deletes the entity and the first occurrence of its id in the order. Ids missing from
// either half are ignored.
func (r *Registry[T]) Remove(id string) error {
	if err := r.items.Delete(id); err != nil {
		return err
	}
	order, err := r.Order()
	if err != nil {
		return err
	}
	index := slices.Index(order, id)
	if index == -1 {
		return nil
	}
	if err := r.items.guard.check(PartOrder); err != nil {
		return err
	}
	if err := r.order.Delete(index); err != nil {
		return fmt.Errorf("failed to remove %s from order: %w", id, err)
	}
	return nil
}

// Reorder swaps the positions of a and b. The swap overwrites the two list elements in place, so
// replicas that concurrently swap the same pair agree on the result.
func (r *Registry[T]) Reorder(a, b string) error {
	order, err := r.Order()
	if err != nil {
		return err
	}
	indexA, indexB := slices.Index(order, a), slices.Index(order, b)
	if indexA == -1 {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, a)
	}
	if indexB == -1 {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, b)
	}
	if indexA == indexB {
		return nil
	}
	if err := r.items.guard.check(PartOrder); err != nil {
		return err
	}
	if err := r.order.Set(indexA, b); err != nil {
		return fmt.Errorf("failed to move %s: %w", b, err)
	}
	if err := r.order.Set(indexB, a); err != nil {
		return fmt.Errorf("failed to move %s: %w", a, err)
	}
	return nil
}

// Canonical returns the order with duplicates and dangling ids dropped and orphaned entities
// appended in key order.
func (r *Registry[T]) Canonical() ([]string, error) {
	order, err := r.Order()
	if err != nil {
		return nil, err
	}
	keys, err := r.Keys()
	if err != nil {
		return nil, err
	}
	return Canonical(order, keys), nil
}

// Verify reports whether order and items pair up exactly.
func (r *Registry[T]) Verify() error {
	order, err := r.Order()
	if err != nil {
		return err
	}
	keys, err := r.Keys()
	if err != nil {
		return err
	}
	return Verify(order, keys)
}

// Repair rewrites the stored order into its canonical form. It reports whether anything changed.
func (r *Registry[T]) Repair() (bool, error) {
	order, err := r.Order()
	if err != nil {
		return false, err
	}
	keys, err := r.Keys()
	if err != nil {
		return false, err
	}
	if Verify(order, keys) == nil {
		return false, nil
	}
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}
	seen := make(map[string]bool, len(order))
	drop := make([]int, 0)
	for i, id := range order {
		if !present[id] || seen[id] {
			drop = append(drop, i)
			continue
		}
		seen[id] = true
	}
	if err := r.items.guard.check(PartOrder); err != nil {
		return false, err
	}
	for i := len(drop) - 1; i >= 0; i-- {
		if err := r.order.Delete(drop[i]); err != nil {
			return false, fmt.Errorf("failed to drop order entry %d: %w", drop[i], err)
		}
	}
	for _, k := range keys {
		if !seen[k] {
			if err := r.order.Append(k); err != nil {
				return false, fmt.Errorf("failed to append orphan %s: %w", k, err)
			}
		}
	}
	return true, nil
}

func (r *Registry[T]) ensureAbsent(id string) error {
	ok, err := r.items.Has(id)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, id)
	}
	return nil
}

// Canonical keeps the first occurrence of every id in order that is also in keys, then appends the
// keys that never appeared. keys must be sorted for the result to be deterministic.
func Canonical(order []string, keys []string) []string {
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, id := range order {
		if present[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, k := range keys {
		if !seen[k] {
			out = append(out, k)
		}
	}
	return out
}

// Verify checks that every id in order has an entry in keys and that every key appears exactly
// once in order.
func Verify(order []string, keys []string) error {
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if !present[id] {
			return fmt.Errorf("%w: dangling id %s", ErrBrokenPairing, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate id %s", ErrBrokenPairing, id)
		}
		seen[id] = true
	}
	for _, k := range keys {
		if !seen[k] {
			return fmt.Errorf("%w: orphaned id %s", ErrBrokenPairing, k)
		}
	}
	return nil
}

func sortedKeys(m *automerge.Map) ([]string, error) {
	keys, err := m.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}
