package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/astromechza/scriptsync/pkg/document"
	"github.com/astromechza/scriptsync/pkg/editor"
	"github.com/astromechza/scriptsync/pkg/logging"
	"github.com/astromechza/scriptsync/pkg/projection"
	"github.com/astromechza/scriptsync/pkg/store"
)

type room struct {
	id     string
	doc    *document.Document
	editor *editor.Editor
	engine *projection.Engine
}

func newRoom(id string, doc *document.Document, logger *slog.Logger) *room {
	return &room{id: id, doc: doc, editor: editor.New(doc, logger), engine: projection.NewEngine(doc)}
}

// rooms holds one document per room. Rooms are created on first use and live until shutdown.
type rooms struct {
	mu     sync.Mutex
	byID   map[string]*room
	logger *slog.Logger
	store  *store.Store
}

func newRooms(logger *slog.Logger, st *store.Store) *rooms {
	return &rooms{byID: make(map[string]*room), logger: logger, store: st}
}

func (r *rooms) get(id string) (*room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.byID[id]
	return rm, ok
}

func (r *rooms) getOrCreate(id string) (*room, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rm, ok := r.byID[id]; ok {
		return rm, false, nil
	}
	logger := logging.WithRoom(r.logger, id)
	doc, err := document.New(document.WithLogger(logger))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create room %s: %w", id, err)
	}
	rm := newRoom(id, doc, logger)
	r.byID[id] = rm
	logger.Info("created room", "actor", doc.ActorID())
	return rm, true, nil
}

// ids returns the room ids in sorted order.
func (r *rooms) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *rooms) each(fn func(rm *room)) {
	for _, id := range r.ids() {
		if rm, ok := r.get(id); ok {
			fn(rm)
		}
	}
}

// restore loads every room snapshot from the store.
func (r *rooms) restore(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	all, err := r.store.All(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, raw := range all {
		logger := logging.WithRoom(r.logger, id)
		doc, err := document.Load(raw, document.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to restore room %s: %w", id, err)
		}
		r.byID[id] = newRoom(id, doc, logger)
		logger.Info("restored room", "heads", doc.Heads())
	}
	return nil
}

// backup writes the snapshot of every room whose content changed since the last backup.
func (r *rooms) backup(ctx context.Context) {
	if r.store == nil {
		return
	}
	r.each(func(rm *room) {
		changed, err := r.store.Put(ctx, rm.id, rm.doc.Save())
		if err != nil {
			r.logger.Error("failed to back up room", "room", rm.id, "err", err)
		} else if changed {
			r.logger.Info("backed up", "room", rm.id, "heads", rm.doc.Heads())
		}
	})
}
