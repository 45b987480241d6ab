// Package document holds one replica of a replicated project. All local writes go through
// Transact, which applies the body as a single automerge change; remote state arrives through
// Merge, LoadIncremental or a SyncState.
package document

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/automerge/automerge-go"

	"github.com/astromechza/scriptsync/pkg/ident"
)

var ErrDocumentUninitialized = errors.New("document is not initialized")

// Token marks a point in the local history of a replica. It advances on every committed
// transaction and on every merge that brought in new changes.
type Token struct {
	seq uint64
}

func (t Token) String() string {
	return fmt.Sprintf("t%d", t.seq)
}

// Change is delivered to subscribers after a transaction commits or a merge applies new changes.
type Change struct {
	Token  Token
	Fields FieldSet
	Remote bool
}

type Option func(*options)

type options struct {
	logger  *slog.Logger
	actorID string
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithActorID sets the automerge actor id of the replica. It must be a hex string.
func WithActorID(actorID string) Option {
	return func(o *options) {
		o.actorID = actorID
	}
}

type Document struct {
	mu       sync.RWMutex
	doc      *automerge.Doc
	base     *slog.Logger
	logger   *slog.Logger
	seq      uint64
	versions Versions

	subMu   sync.Mutex
	subs    map[int]chan Change
	nextSub int
}

// New creates a replica holding an empty project.
func New(opts ...Option) (*Document, error) {
	d, err := NewReplica(opts...)
	if err != nil {
		return nil, err
	}
	if err := d.initialize(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewReplica creates a replica with no project. It becomes usable once state from an initialized
// peer has been merged into it.
func NewReplica(opts ...Option) (*Document, error) {
	return wrap(automerge.New(), opts)
}

// Load creates a replica from the output of Save.
func Load(raw []byte, opts ...Option) (*Document, error) {
	doc, err := automerge.Load(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load doc: %w", err)
	}
	return wrap(doc, opts)
}

func wrap(doc *automerge.Doc, opts []Option) (*Document, error) {
	o := options{logger: slog.Default(), actorID: ident.NewActorID()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := doc.SetActorID(o.actorID); err != nil {
		return nil, fmt.Errorf("failed to set actor id: %w", err)
	}
	return &Document{
		doc:    doc,
		base:   o.logger,
		logger: o.logger.With("actor", o.actorID),
		subs:   make(map[int]chan Change),
	}, nil
}

func (d *Document) initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transactLocked("init", false, func(tx *Tx) error {
		root := tx.root
		if err := root.Set(KeyProject, map[string]any{
			KeySections:      map[string]any{},
			KeySectionDrafts: map[string]any{},
			KeyScenes:        map[string]any{},
			KeyMedia:         map[string]any{},
			KeySectionOrder:  []any{},
			KeySceneOrder:    []any{},
			KeyMediaOrder:    []any{},
		}); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		project, err := projectMap(root)
		if err != nil {
			return err
		}
		if err := project.Set(KeyTitle, automerge.NewText("")); err != nil {
			return fmt.Errorf("failed to create title: %w", err)
		}
		tx.project = project
		tx.touched = AllFields
		return nil
	})
}

// Fork returns a new replica at the current state of d with a fresh actor id.
func (d *Document) Fork(opts ...Option) (*Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, err := d.doc.Fork()
	if err != nil {
		return nil, fmt.Errorf("failed to fork: %w", err)
	}
	return wrap(doc, append([]Option{WithLogger(d.base)}, opts...))
}

func (d *Document) ActorID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.ActorID()
}

// Initialized reports whether the project exists in the replica.
func (d *Document) Initialized() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, err := projectMap(d.doc.RootMap())
	return err == nil
}

// Token returns the current token.
func (d *Document) Token() Token {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Token{seq: d.seq}
}

// Transact runs fn against a staging copy of the replica and applies everything it wrote as one
// change. If fn returns an error nothing is applied. Readers never observe a partially applied
// transaction.
func (d *Document) Transact(fn func(tx *Tx) error) error {
	return d.TransactNamed("", fn)
}

// TransactNamed is Transact with a commit message recorded in the change history.
func (d *Document) TransactNamed(message string, fn func(tx *Tx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transactLocked(message, true, fn)
}

func (d *Document) transactLocked(message string, requireInit bool, fn func(tx *Tx) error) error {
	staging, err := d.doc.Fork()
	if err != nil {
		return fmt.Errorf("failed to fork for transaction: %w", err)
	}
	if err := staging.SetActorID(d.doc.ActorID()); err != nil {
		return fmt.Errorf("failed to set actor id: %w", err)
	}
	tx := &Tx{root: staging.RootMap(), message: message}
	tx.View.guard = tx.guard
	if requireInit {
		if tx.project, err = projectMap(tx.root); err != nil {
			return err
		}
	}
	tx.token, tx.versions = Token{seq: d.seq}, d.versions

	if err := fn(tx); err != nil {
		return err
	}
	if tx.touched.Empty() {
		return nil
	}
	if _, err := staging.Commit(tx.message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	if _, err := d.doc.Merge(staging); err != nil {
		return fmt.Errorf("failed to apply transaction: %w", err)
	}
	d.advance(tx.touched)
	d.logger.Debug("committed", "message", tx.message, "token", Token{seq: d.seq}, "fields", tx.touched.String())
	d.notify(Change{Token: Token{seq: d.seq}, Fields: tx.touched})
	return nil
}

// Read runs fn with a read only view of the current state. Any number of readers may run at once.
func (d *Document) Read(fn func(v *View) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	project, err := projectMap(d.doc.RootMap())
	if err != nil {
		return err
	}
	v := &View{project: project, token: Token{seq: d.seq}, versions: d.versions}
	return fn(v)
}

func (d *Document) advance(fields FieldSet) {
	d.seq++
	for _, f := range fields.Fields() {
		d.versions[f] = d.seq
	}
}

// Subscribe returns a channel that receives a Change after every commit or merge, and a function
// that ends the subscription. Changes are coalesced when the receiver falls behind.
func (d *Document) Subscribe() (<-chan Change, func()) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	id := d.nextSub
	d.nextSub++
	ch := make(chan Change, 1)
	d.subs[id] = ch
	return ch, func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		if c, ok := d.subs[id]; ok {
			delete(d.subs, id)
			close(c)
		}
	}
}

func (d *Document) notify(c Change) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for _, ch := range d.subs {
		select {
		case ch <- c:
			continue
		default:
		}
		merged := c
		select {
		case old := <-ch:
			merged.Fields |= old.Fields
			merged.Remote = merged.Remote || old.Remote
		default:
		}
		select {
		case ch <- merged:
		default:
		}
	}
}

func projectMap(root *automerge.Map) (*automerge.Map, error) {
	v, err := root.Get(KeyProject)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if v.Kind() != automerge.KindMap {
		return nil, ErrDocumentUninitialized
	}
	return v.Map(), nil
}
