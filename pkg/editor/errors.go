package editor

import (
	"errors"

	"github.com/astromechza/scriptsync/pkg/document"
	"github.com/astromechza/scriptsync/pkg/registry"
)

var (
	ErrDraftAlreadyExists = errors.New("section draft already exists")
	ErrDraftNotFound      = errors.New("section draft not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrInvalidValue       = errors.New("invalid value")

	ErrAnchorNotFound        = registry.ErrAnchorNotFound
	ErrKeyNotFound           = registry.ErrKeyNotFound
	ErrDuplicateKey          = registry.ErrDuplicateKey
	ErrIndexOutOfRange       = registry.ErrIndexOutOfRange
	ErrDocumentUninitialized = document.ErrDocumentUninitialized
)

// IsNotFound reports whether err means that something the operation addressed does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSectionNotFound) ||
		errors.Is(err, ErrDraftNotFound) ||
		errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrAnchorNotFound)
}

// IsConflict reports whether err means the operation clashed with the current state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDraftAlreadyExists) || errors.Is(err, ErrDuplicateKey)
}
