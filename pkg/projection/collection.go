package projection

import (
	"slices"
	"sort"
)

// List is an immutable sequence. Lists are shared between snapshots when their content is unchanged.
type List[T any] struct {
	items []T
}

func newList[T any](items []T) *List[T] {
	return &List[T]{items: slices.Clone(items)}
}

func (l *List[T]) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

func (l *List[T]) At(i int) T {
	return l.items[i]
}

// Slice returns a copy of the elements.
func (l *List[T]) Slice() []T {
	if l == nil {
		return []T{}
	}
	return append(make([]T, 0, len(l.items)), l.items...)
}

// Collection is an immutable keyed set of entities.
type Collection[T any] struct {
	items map[string]T
	keys  []string
}

func newCollection[T any](items map[string]T) *Collection[T] {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Collection[T]{items: items, keys: keys}
}

func (c *Collection[T]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

func (c *Collection[T]) Get(id string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.items[id]
	return v, ok
}

// Keys returns the ids in sorted order.
func (c *Collection[T]) Keys() []string {
	if c == nil {
		return []string{}
	}
	return slices.Clone(c.keys)
}

func sameList[T comparable](prev *List[T], next []T) bool {
	return prev != nil && slices.Equal(prev.items, next)
}

// reuseList returns prev when it already holds next.
func reuseList[T comparable](prev *List[T], next []T) *List[T] {
	if sameList(prev, next) {
		return prev
	}
	return newList(next)
}

// diffCollection builds a collection from decoded entries, reusing the entries of prev that build
// says are unchanged. prev itself is returned when no entry changed and no key came or went.
func diffCollection[M any, T comparable](prev *Collection[T], next map[string]M, build func(m M, prev T, ok bool) T) *Collection[T] {
	out := make(map[string]T, len(next))
	same := prev != nil && prev.Len() == len(next)
	for id, m := range next {
		old, ok := prev.Get(id)
		v := build(m, old, ok)
		if !ok || v != old {
			same = false
		}
		out[id] = v
	}
	if same {
		return prev
	}
	return newCollection(out)
}
