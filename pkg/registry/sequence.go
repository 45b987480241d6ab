package registry

import (
	"fmt"

	"github.com/automerge/automerge-go"
)

// Sequence is a positional list of entities that have no identity of their own.
type Sequence[T any] struct {
	list  *automerge.List
	codec Codec[T]
	guard Guard
}

func NewSequence[T any](list *automerge.List, codec Codec[T], guard Guard) *Sequence[T] {
	return &Sequence[T]{list: list, codec: codec, guard: guard}
}

// OpenSequence finds the list stored under key in parent.
func OpenSequence[T any](parent *automerge.Map, key string, codec Codec[T], guard Guard) (*Sequence[T], error) {
	list, err := ListAt(parent, key)
	if err != nil {
		return nil, err
	}
	return NewSequence(list, codec, guard), nil
}

func (s *Sequence[T]) Len() int {
	return s.list.Len()
}

func (s *Sequence[T]) Get(index int) (T, error) {
	var zero T
	if err := s.inRange(index); err != nil {
		return zero, err
	}
	v, err := s.list.Get(index)
	if err != nil {
		return zero, fmt.Errorf("failed to get %d: %w", index, err)
	}
	return s.codec.Decode(v)
}

func (s *Sequence[T]) Values() ([]T, error) {
	values, err := s.list.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to list values: %w", err)
	}
	out := make([]T, 0, len(values))
	for i, v := range values {
		decoded, err := s.codec.Decode(v)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %d: %w", i, err)
		}
		out = append(out, decoded)
	}
	return out, nil
}

func (s *Sequence[T]) Append(v T) error {
	if err := s.guard.check(PartItems); err != nil {
		return err
	}
	if err := s.list.Append(s.codec.Encode(v)); err != nil {
		return fmt.Errorf("failed to append: %w", err)
	}
	return nil
}

// InsertAdjacent inserts v immediately before or after the element at anchor.
func (s *Sequence[T]) InsertAdjacent(anchor int, before bool, v T) error {
	if err := s.inRange(anchor); err != nil {
		return err
	}
	index := anchor
	if !before {
		index++
	}
	if err := s.guard.check(PartItems); err != nil {
		return err
	}
	if err := s.list.Insert(index, s.codec.Encode(v)); err != nil {
		return fmt.Errorf("failed to insert at %d: %w", index, err)
	}
	return nil
}

// Set overwrites the element at index. Codecs implementing Updater rewrite the existing object
// field by field.
func (s *Sequence[T]) Set(index int, v T) error {
	if err := s.inRange(index); err != nil {
		return err
	}
	if err := s.guard.check(PartItems); err != nil {
		return err
	}
	if u, ok := s.codec.(Updater[T]); ok {
		current, err := s.list.Get(index)
		if err != nil {
			return fmt.Errorf("failed to get %d: %w", index, err)
		}
		if current.Kind() == automerge.KindMap {
			return u.Update(current.Map(), v)
		}
	}
	if err := s.list.Set(index, s.codec.Encode(v)); err != nil {
		return fmt.Errorf("failed to set %d: %w", index, err)
	}
	return nil
}

func (s *Sequence[T]) Delete(index int) error {
	if err := s.inRange(index); err != nil {
		return err
	}
	if err := s.guard.check(PartItems); err != nil {
		return err
	}
	if err := s.list.Delete(index); err != nil {
		return fmt.Errorf("failed to delete %d: %w", index, err)
	}
	return nil
}

// Swap exchanges the elements at i and j.
func (s *Sequence[T]) Swap(i, j int) error {
	a, err := s.Get(i)
	if err != nil {
		return err
	}
	b, err := s.Get(j)
	if err != nil {
		return err
	}
	if i == j {
		return nil
	}
	if err := s.Set(i, b); err != nil {
		return err
	}
	return s.Set(j, a)
}

func (s *Sequence[T]) inRange(index int) error {
	if index < 0 || index >= s.list.Len() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, s.list.Len())
	}
	return nil
}
