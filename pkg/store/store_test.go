package store

import (
	"context"
	"testing"

	"github.com/go-playground/assert/v2"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, ok, err := s.Get(ctx, "r1")
	assert.Equal(t, err, nil)
	assert.Equal(t, ok, false)

	changed, err := s.Put(ctx, "r1", []byte{1, 2, 3})
	assert.Equal(t, err, nil)
	assert.Equal(t, changed, true)

	changed, err = s.Put(ctx, "r1", []byte{1, 2, 3})
	assert.Equal(t, err, nil)
	assert.Equal(t, changed, false)

	changed, err = s.Put(ctx, "r1", []byte{4})
	assert.Equal(t, err, nil)
	assert.Equal(t, changed, true)

	content, ok, err := s.Get(ctx, "r1")
	assert.Equal(t, err, nil)
	assert.Equal(t, ok, true)
	assert.Equal(t, content, []byte{4})
}

func TestAllAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	for _, room := range []string{"a", "b"} {
		if _, err := s.Put(ctx, room, []byte(room)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}
	all, err := s.All(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, all, map[string][]byte{"a": []byte("a"), "b": []byte("b")})

	assert.Equal(t, s.Delete(ctx, "a"), nil)
	assert.Equal(t, s.Delete(ctx, "missing"), nil)
	all, err = s.All(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(all), 1)
}
