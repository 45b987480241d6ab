package registry

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/automerge/automerge-go"
	"github.com/go-playground/assert/v2"
)

type labelCodec struct{}

func (labelCodec) Encode(v string) any {
	return map[string]any{"label": v}
}

func (labelCodec) Decode(v *automerge.Value) (string, error) {
	m, err := AsMap(v)
	if err != nil {
		return "", err
	}
	return String(m, "label")
}

func newDoc(t *testing.T) *automerge.Doc {
	t.Helper()
	doc := automerge.New()
	if err := doc.RootMap().Set("items", map[string]any{}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := doc.RootMap().Set("order", []any{}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	commit(t, doc)
	return doc
}

func commit(t *testing.T, doc *automerge.Doc) {
	t.Helper()
	if _, err := doc.Commit("test", automerge.CommitOptions{AllowEmpty: true}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
}

func open(t *testing.T, doc *automerge.Doc, guard Guard) *Registry[string] {
	t.Helper()
	r, err := Open[string](doc.RootMap(), "items", "order", labelCodec{}, guard)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return r
}

func order(t *testing.T, r *Registry[string]) []string {
	t.Helper()
	o, err := r.Order()
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	return o
}

func TestAppendAndInsertAdjacent(t *testing.T) {
	r := open(t, newDoc(t), nil)
	assert.Equal(t, r.Append("a", "A"), nil)
	assert.Equal(t, r.Append("c", "C"), nil)
	assert.Equal(t, r.InsertAdjacent("b", "B", "c", true), nil)
	assert.Equal(t, r.InsertAdjacent("d", "D", "c", false), nil)
	assert.Equal(t, order(t, r), []string{"a", "b", "c", "d"})

	v, ok, err := r.Get("b")
	assert.Equal(t, err, nil)
	assert.Equal(t, ok, true)
	assert.Equal(t, v, "B")
	assert.Equal(t, r.Verify(), nil)
}

func TestAppendDuplicate(t *testing.T) {
	r := open(t, newDoc(t), nil)
	assert.Equal(t, r.Append("a", "A"), nil)
	err := r.Append("a", "again")
	assert.Equal(t, errors.Is(err, ErrDuplicateKey), true)
	err = r.InsertAdjacent("a", "again", "a", true)
	assert.Equal(t, errors.Is(err, ErrDuplicateKey), true)
	v, _, _ := r.Get("a")
	assert.Equal(t, v, "A")
	assert.Equal(t, order(t, r), []string{"a"})
}

func TestInsertAdjacentMissingAnchor(t *testing.T) {
	r := open(t, newDoc(t), nil)
	assert.Equal(t, r.Append("a", "A"), nil)
	err := r.InsertAdjacent("b", "B", "zzz", false)
	assert.Equal(t, errors.Is(err, ErrAnchorNotFound), true)
	ok, _ := r.Has("b")
	assert.Equal(t, ok, false)
	assert.Equal(t, order(t, r), []string{"a"})
}

func TestRemove(t *testing.T) {
	r := open(t, newDoc(t), nil)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, r.Append(id, id), nil)
	}
	assert.Equal(t, r.Remove("b"), nil)
	assert.Equal(t, order(t, r), []string{"a", "c"})
	assert.Equal(t, r.Remove("b"), nil)
	assert.Equal(t, r.Remove("never"), nil)
	assert.Equal(t, order(t, r), []string{"a", "c"})
	assert.Equal(t, r.Verify(), nil)
}

func TestRemoveToleratesMissingOrderEntry(t *testing.T) {
	doc := newDoc(t)
	r := open(t, doc, nil)
	assert.Equal(t, r.Append("a", "A"), nil)
	assert.Equal(t, r.order.Delete(0), nil)
	assert.Equal(t, r.Remove("a"), nil)
	ok, _ := r.Has("a")
	assert.Equal(t, ok, false)
}

func TestReorder(t *testing.T) {
	r := open(t, newDoc(t), nil)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, r.Append(id, id), nil)
	}
	assert.Equal(t, r.Reorder("a", "c"), nil)
	assert.Equal(t, order(t, r), []string{"c", "b", "a"})
	assert.Equal(t, r.Reorder("b", "b"), nil)
	assert.Equal(t, order(t, r), []string{"c", "b", "a"})

	err := r.Reorder("a", "missing")
	assert.Equal(t, errors.Is(err, ErrKeyNotFound), true)
	assert.Equal(t, order(t, r), []string{"c", "b", "a"})
}

func TestGuard(t *testing.T) {
	doc := newDoc(t)
	var parts []Part
	r := open(t, doc, func(p Part) error {
		parts = append(parts, p)
		return nil
	})
	assert.Equal(t, r.Append("a", "A"), nil)
	assert.Equal(t, parts, []Part{PartItems, PartOrder})

	ro := open(t, doc, ReadOnly)
	err := ro.Append("b", "B")
	assert.Equal(t, errors.Is(err, ErrReadOnly), true)
	assert.Equal(t, errors.Is(ro.Remove("a"), ErrReadOnly), true)
	ok, _ := ro.Has("a")
	assert.Equal(t, ok, true)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, Canonical([]string{"b", "x", "a", "b"}, []string{"a", "b", "c"}), []string{"b", "a", "c"})
	assert.Equal(t, Canonical(nil, []string{"a"}), []string{"a"})
	assert.Equal(t, Canonical([]string{"x"}, nil), []string{})
}

func TestVerify(t *testing.T) {
	assert.Equal(t, Verify([]string{"a", "b"}, []string{"a", "b"}), nil)
	assert.Equal(t, errors.Is(Verify([]string{"a", "a"}, []string{"a"}), ErrBrokenPairing), true)
	assert.Equal(t, errors.Is(Verify([]string{"a", "x"}, []string{"a"}), ErrBrokenPairing), true)
	assert.Equal(t, errors.Is(Verify([]string{"a"}, []string{"a", "b"}), ErrBrokenPairing), true)
}

func TestConcurrentSwapsRepair(t *testing.T) {
	doc := newDoc(t)
	r := open(t, doc, nil)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, r.Append(id, id), nil)
	}
	commit(t, doc)

	fork, err := doc.Fork()
	if err != nil {
		t.Fatalf("Fork() error = %v", err)
	}
	assert.Equal(t, r.Reorder("a", "b"), nil)
	commit(t, doc)
	assert.Equal(t, open(t, fork, nil).Reorder("a", "c"), nil)
	commit(t, fork)

	if _, err := doc.Merge(fork); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if _, err := fork.Merge(doc); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	merged, other := open(t, doc, nil), open(t, fork, nil)
	assert.Equal(t, order(t, merged), order(t, other))

	canonical, err := merged.Canonical()
	assert.Equal(t, err, nil)
	keys, _ := merged.Keys()
	assert.Equal(t, Verify(canonical, keys), nil)

	_, err = merged.Repair()
	assert.Equal(t, err, nil)
	assert.Equal(t, merged.Verify(), nil)
	assert.Equal(t, order(t, merged), canonical)
}

func TestConcurrentInsertsAtSameAnchorConverge(t *testing.T) {
	doc := newDoc(t)
	r := open(t, doc, nil)
	assert.Equal(t, r.Append("anchor", "x"), nil)
	commit(t, doc)
	fork, err := doc.Fork()
	if err != nil {
		t.Fatalf("Fork() error = %v", err)
	}
	assert.Equal(t, r.InsertAdjacent("left", "l", "anchor", false), nil)
	commit(t, doc)
	assert.Equal(t, open(t, fork, nil).InsertAdjacent("right", "r", "anchor", false), nil)
	commit(t, fork)

	_, _ = doc.Merge(fork)
	_, _ = fork.Merge(doc)
	a, b := order(t, open(t, doc, nil)), order(t, open(t, fork, nil))
	assert.Equal(t, a, b)
	assert.Equal(t, len(a), 3)
	assert.Equal(t, a[0], "anchor")
	assert.Equal(t, open(t, doc, nil).Verify(), nil)
}

func TestRandomOperationsKeepPairing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	r := open(t, newDoc(t), nil)
	next := 0
	for step := 0; step < 300; step++ {
		ids := order(t, r)
		pick := func() string {
			if len(ids) == 0 {
				return "missing"
			}
			return ids[rng.Intn(len(ids))]
		}
		var err error
		switch rng.Intn(4) {
		case 0:
			next++
			err = r.Append(fmt.Sprint(next), "v")
		case 1:
			next++
			err = r.InsertAdjacent(fmt.Sprint(next), "v", pick(), rng.Intn(2) == 0)
		case 2:
			err = r.Remove(pick())
		case 3:
			err = r.Reorder(pick(), pick())
		}
		if err != nil && !errors.Is(err, ErrAnchorNotFound) && !errors.Is(err, ErrKeyNotFound) {
			t.Fatalf("step %d: unexpected error %v", step, err)
		}
		if err := r.Verify(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
	}
	keys, _ := r.Keys()
	assert.Equal(t, slices.IsSorted(keys), true)
}
