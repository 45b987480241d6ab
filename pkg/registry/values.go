package registry

import (
	"fmt"

	"github.com/automerge/automerge-go"
)

// MapAt returns the map stored under key in parent.
func MapAt(parent *automerge.Map, key string) (*automerge.Map, error) {
	v, err := parent.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if v.Kind() != automerge.KindMap {
		return nil, fmt.Errorf("%w: %s is a %v, not a map", ErrKeyNotFound, key, v.Kind())
	}
	return v.Map(), nil
}

// ListAt returns the list stored under key in parent.
func ListAt(parent *automerge.Map, key string) (*automerge.List, error) {
	v, err := parent.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if v.Kind() != automerge.KindList {
		return nil, fmt.Errorf("%w: %s is a %v, not a list", ErrKeyNotFound, key, v.Kind())
	}
	return v.List(), nil
}

// String reads a string field. Missing fields read as the empty string.
func String(m *automerge.Map, key string) (string, error) {
	v, err := m.Get(key)
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	switch v.Kind() {
	case automerge.KindVoid, automerge.KindNull:
		return "", nil
	case automerge.KindStr:
		return v.Str(), nil
	case automerge.KindText:
		return v.Text().Get()
	}
	return "", fmt.Errorf("%s is a %v, not a string", key, v.Kind())
}

// Float reads a numeric field, accepting any of automerge's number kinds. Missing fields read as 0.
func Float(m *automerge.Map, key string) (float64, error) {
	v, err := m.Get(key)
	if err != nil {
		return 0, fmt.Errorf("failed to get %s: %w", key, err)
	}
	switch v.Kind() {
	case automerge.KindVoid, automerge.KindNull:
		return 0, nil
	case automerge.KindFloat64:
		return v.Float64(), nil
	case automerge.KindInt64:
		return float64(v.Int64()), nil
	case automerge.KindUint64:
		return float64(v.Uint64()), nil
	}
	return 0, fmt.Errorf("%s is a %v, not a number", key, v.Kind())
}

// Int reads an integer field. Missing fields read as 0.
func Int(m *automerge.Map, key string) (int64, error) {
	v, err := m.Get(key)
	if err != nil {
		return 0, fmt.Errorf("failed to get %s: %w", key, err)
	}
	switch v.Kind() {
	case automerge.KindVoid, automerge.KindNull:
		return 0, nil
	case automerge.KindInt64:
		return v.Int64(), nil
	case automerge.KindUint64:
		return int64(v.Uint64()), nil
	case automerge.KindFloat64:
		return int64(v.Float64()), nil
	}
	return 0, fmt.Errorf("%s is a %v, not an integer", key, v.Kind())
}

// Bool reads a boolean field. Missing fields read as false.
func Bool(m *automerge.Map, key string) (bool, error) {
	v, err := m.Get(key)
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	switch v.Kind() {
	case automerge.KindVoid, automerge.KindNull:
		return false, nil
	case automerge.KindBool:
		return v.Bool(), nil
	}
	return false, fmt.Errorf("%s is a %v, not a bool", key, v.Kind())
}

// Strings reads a list of strings. Elements of another kind read as the empty string so positions
// still line up with the list.
func Strings(m *automerge.Map, key string) ([]string, error) {
	list, err := ListAt(m, key)
	if err != nil {
		return nil, err
	}
	return listStrings(list)
}

func listStrings(list *automerge.List) ([]string, error) {
	values, err := list.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to list values: %w", err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v.Kind() == automerge.KindStr {
			out = append(out, v.Str())
		} else {
			out = append(out, "")
		}
	}
	return out, nil
}

// AsMap unwraps a value holding a map.
func AsMap(v *automerge.Value) (*automerge.Map, error) {
	if v.Kind() != automerge.KindMap {
		return nil, fmt.Errorf("value is a %v, not a map", v.Kind())
	}
	return v.Map(), nil
}
