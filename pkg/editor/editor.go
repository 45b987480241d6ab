// Package editor is the write API of a project. Every exported operation of Editor runs as one
// document transaction: it either applies completely or not at all. Batch exposes the same
// operations for callers that need several of them to land as a single change.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/automerge/automerge-go"

	"github.com/astromechza/scriptsync/pkg/document"
	"github.com/astromechza/scriptsync/pkg/ident"
	"github.com/astromechza/scriptsync/pkg/registry"
)

type Editor struct {
	doc    *document.Document
	logger *slog.Logger
	newID  func() string
}

func New(doc *document.Document, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{doc: doc, logger: logger, newID: ident.NewID}
}

func (e *Editor) Document() *document.Document {
	return e.doc
}

// Do runs fn as a single transaction.
func (e *Editor) Do(fn func(b *Batch) error) error {
	return e.run("batch", fn)
}

func (e *Editor) run(op string, fn func(b *Batch) error) error {
	err := e.doc.TransactNamed(op, func(tx *document.Tx) error {
		return fn(&Batch{tx: tx, newID: e.newID})
	})
	if err != nil {
		e.logger.Debug("operation rejected", "op", op, "err", err)
	}
	return err
}

// Anchor positions a new entity next to an existing one.
type Anchor struct {
	ID     string
	Before bool
}

func Before(id string) *Anchor {
	return &Anchor{ID: id, Before: true}
}

func After(id string) *Anchor {
	return &Anchor{ID: id}
}

// Batch performs operations inside an open transaction.
type Batch struct {
	tx    *document.Tx
	newID func() string
}

// Tx returns the underlying transaction.
func (b *Batch) Tx() *document.Tx {
	return b.tx
}

func insert[T any](r *registry.Registry[T], id string, v T, at *Anchor) error {
	if at == nil {
		return r.Append(id, v)
	}
	return r.InsertAdjacent(id, v, at.ID, at.Before)
}

func setFields(obj *automerge.Map, fields map[string]any) error {
	for k, v := range fields {
		if err := obj.Set(k, v); err != nil {
			return fmt.Errorf("failed to set %s: %w", k, err)
		}
	}
	return nil
}

func deleteField(obj *automerge.Map, key string) error {
	v, err := obj.Get(key)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if v.Kind() == automerge.KindVoid {
		return nil
	}
	if err := obj.Delete(key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func notFoundAs(err error, target error, id string) error {
	if errors.Is(err, registry.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", target, id)
	}
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidValue, fmt.Sprintf(format, args...))
}
