package document

import (
	"fmt"
	"slices"

	"github.com/automerge/automerge-go"
)

// Save returns the full replicated state.
func (d *Document) Save() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Save()
}

// SaveIncremental returns the changes made since the previous call to Save or SaveIncremental.
func (d *Document) SaveIncremental() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.SaveIncremental()
}

// LoadIncremental applies the output of another replica's SaveIncremental.
func (d *Document) LoadIncremental(raw []byte) error {
	return d.remote("load incremental", func(doc *automerge.Doc) error {
		return doc.LoadIncremental(raw)
	})
}

// Merge applies every change known to other that d has not seen yet.
func (d *Document) Merge(other *Document) error {
	// Copy the other replica first so the two locks are never held together.
	snapshot, err := Load(other.Save())
	if err != nil {
		return err
	}
	return d.remote("merge", func(doc *automerge.Doc) error {
		_, err := doc.Merge(snapshot.doc)
		return err
	})
}

// Heads returns the hashes of the latest changes in the replica.
func (d *Document) Heads() []automerge.ChangeHash {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.Heads()
}

func (d *Document) remote(op string, fn func(doc *automerge.Doc) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	before := d.doc.Heads()
	if err := fn(d.doc); err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	d.afterRemote(op, before)
	return nil
}

func (d *Document) afterRemote(op string, before []automerge.ChangeHash) {
	after := d.doc.Heads()
	if slices.Equal(before, after) {
		return
	}
	d.advance(AllFields)
	d.logger.Info("applied remote changes", "op", op, "token", Token{seq: d.seq}, "heads", after)
	d.notify(Change{Token: Token{seq: d.seq}, Fields: AllFields, Remote: true})
}

// SyncState tracks what one peer is known to have, and produces and consumes automerge sync
// protocol messages for it.
type SyncState struct {
	d     *Document
	state *automerge.SyncState
}

func (d *Document) NewSyncState() *SyncState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return &SyncState{d: d, state: automerge.NewSyncState(d.doc)}
}

// LoadSyncState restores a SyncState saved with SyncState.Save.
func (d *Document) LoadSyncState(raw []byte) (*SyncState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	state, err := automerge.LoadSyncState(d.doc, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync state: %w", err)
	}
	return &SyncState{d: d, state: state}, nil
}

// GenerateMessage returns the next message to send to the peer, or false when the peer is up to
// date as far as this replica knows.
func (s *SyncState) GenerateMessage() ([]byte, bool) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	msg, valid := s.state.GenerateMessage()
	if !valid || msg == nil {
		return nil, false
	}
	return msg.Bytes(), true
}

// ReceiveMessage applies a message from the peer.
func (s *SyncState) ReceiveMessage(raw []byte) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	before := s.d.doc.Heads()
	if _, err := s.state.ReceiveMessage(raw); err != nil {
		return fmt.Errorf("failed to receive message: %w", err)
	}
	s.d.afterRemote("sync", before)
	return nil
}

// Save encodes the state so a later session with the same peer can resume from it.
func (s *SyncState) Save() []byte {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.state.Save()
}
