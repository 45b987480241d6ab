package document

import (
	"fmt"

	"github.com/automerge/automerge-go"
)

// Changes returns every change in the replica's history, dependencies before dependents.
func (d *Document) Changes() ([]*automerge.Change, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	changes, err := d.doc.Changes()
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}
	return changes, nil
}

// At returns a detached replica holding the state as of the given heads.
func (d *Document) At(heads ...automerge.ChangeHash) (*Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, err := d.doc.Fork(heads...)
	if err != nil {
		return nil, fmt.Errorf("failed to check out %v: %w", heads, err)
	}
	return wrap(doc, []Option{WithLogger(d.base)})
}
