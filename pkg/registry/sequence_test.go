package registry

import (
	"errors"
	"testing"

	"github.com/automerge/automerge-go"
	"github.com/go-playground/assert/v2"
)

type cell struct {
	Text string
	N    int64
}

type cellCodec struct{}

func (cellCodec) Encode(c cell) any {
	return map[string]any{"text": c.Text, "n": c.N}
}

func (cellCodec) Decode(v *automerge.Value) (cell, error) {
	var out cell
	m, err := AsMap(v)
	if err != nil {
		return out, err
	}
	if out.Text, err = String(m, "text"); err != nil {
		return out, err
	}
	out.N, err = Int(m, "n")
	return out, err
}

func (cellCodec) Update(obj *automerge.Map, c cell) error {
	if err := obj.Set("text", c.Text); err != nil {
		return err
	}
	return obj.Set("n", c.N)
}

func newSequence(t *testing.T) *Sequence[cell] {
	t.Helper()
	doc := automerge.New()
	if err := doc.RootMap().Set("cells", []any{}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	s, err := OpenSequence[cell](doc.RootMap(), "cells", cellCodec{}, nil)
	if err != nil {
		t.Fatalf("OpenSequence() error = %v", err)
	}
	return s
}

func values(t *testing.T, s *Sequence[cell]) []string {
	t.Helper()
	vs, err := s.Values()
	if err != nil {
		t.Fatalf("Values() error = %v", err)
	}
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Text)
	}
	return out
}

func TestSequenceEdits(t *testing.T) {
	s := newSequence(t)
	assert.Equal(t, s.Append(cell{Text: "a"}), nil)
	assert.Equal(t, s.Append(cell{Text: "c"}), nil)
	assert.Equal(t, s.InsertAdjacent(1, true, cell{Text: "b"}), nil)
	assert.Equal(t, s.InsertAdjacent(2, false, cell{Text: "d"}), nil)
	assert.Equal(t, values(t, s), []string{"a", "b", "c", "d"})

	assert.Equal(t, s.Swap(0, 3), nil)
	assert.Equal(t, values(t, s), []string{"d", "b", "c", "a"})

	assert.Equal(t, s.Set(1, cell{Text: "B", N: 7}), nil)
	got, err := s.Get(1)
	assert.Equal(t, err, nil)
	assert.Equal(t, got, cell{Text: "B", N: 7})

	assert.Equal(t, s.Delete(0), nil)
	assert.Equal(t, values(t, s), []string{"B", "c", "a"})
	assert.Equal(t, s.Len(), 3)
}

func TestSequenceIndexOutOfRange(t *testing.T) {
	s := newSequence(t)
	assert.Equal(t, s.Append(cell{Text: "a"}), nil)
	for name, err := range map[string]error{
		"get":    func() error { _, err := s.Get(1); return err }(),
		"set":    s.Set(-1, cell{}),
		"delete": s.Delete(5),
		"insert": s.InsertAdjacent(1, false, cell{}),
		"swap":   s.Swap(0, 2),
	} {
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("%s: error = %v, want ErrIndexOutOfRange", name, err)
		}
	}
	assert.Equal(t, values(t, s), []string{"a"})
}
