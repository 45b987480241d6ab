package document

import (
	"fmt"

	"github.com/automerge/automerge-go"

	"github.com/astromechza/scriptsync/pkg/model"
	"github.com/astromechza/scriptsync/pkg/registry"
)

// View gives access to the project's registries. Views handed out by Read reject writes.
type View struct {
	project  *automerge.Map
	guard    func(items, order Field) registry.Guard
	token    Token
	versions Versions
}

// Token is the token of the state the view was opened on.
func (v *View) Token() Token {
	return v.token
}

// Versions returns, per field, the token sequence of its last change.
func (v *View) Versions() Versions {
	return v.versions
}

// Guard returns the guard for nested registries whose writes count as a change to f.
func (v *View) Guard(f Field) registry.Guard {
	if v.guard == nil {
		return registry.ReadOnly
	}
	return v.guard(f, f)
}

func (v *View) guardFor(items, order Field) registry.Guard {
	if v.guard == nil {
		return registry.ReadOnly
	}
	return v.guard(items, order)
}

func (v *View) Title() (string, error) {
	return registry.String(v.project, KeyTitle)
}

func (v *View) Sections() (*registry.Registry[model.Section], error) {
	return registry.Open[model.Section](v.project, KeySections, KeySectionOrder, SectionCodec{}, v.guardFor(FieldSections, FieldSectionOrder))
}

func (v *View) SectionDrafts() (*registry.Keyed[model.SectionDraft], error) {
	return registry.OpenKeyed[model.SectionDraft](v.project, KeySectionDrafts, DraftCodec{}, v.guardFor(FieldSectionDrafts, FieldSectionDrafts))
}

func (v *View) Scenes() (*registry.Registry[model.Scene], error) {
	return registry.Open[model.Scene](v.project, KeyScenes, KeySceneOrder, SceneCodec{}, v.guardFor(FieldScenes, FieldSceneOrder))
}

func (v *View) Media() (*registry.Registry[model.Media], error) {
	return registry.Open[model.Media](v.project, KeyMedia, KeyMediaOrder, MediaCodec{}, v.guardFor(FieldMedia, FieldMediaOrder))
}

// Tx is an open transaction. It is only valid inside the function passed to Transact.
type Tx struct {
	View
	root    *automerge.Map
	message string
	touched FieldSet
}

func (tx *Tx) guard(items, order Field) registry.Guard {
	return func(p registry.Part) error {
		if p == registry.PartOrder {
			tx.touched = tx.touched.With(order)
		} else {
			tx.touched = tx.touched.With(items)
		}
		return nil
	}
}

// Touch records a write to f made directly through an automerge object obtained from the view.
func (tx *Tx) Touch(f Field) {
	tx.touched = tx.touched.With(f)
}

// Touched returns the fields written so far.
func (tx *Tx) Touched() FieldSet {
	return tx.touched
}

// Name sets the commit message, unless one was already given.
func (tx *Tx) Name(message string) {
	if tx.message == "" {
		tx.message = message
	}
}

// Transact runs fn as part of this transaction.
func (tx *Tx) Transact(fn func(tx *Tx) error) error {
	return fn(tx)
}

// SetTitle replaces the title. Setting the current title writes nothing.
func (tx *Tx) SetTitle(title string) error {
	current, err := tx.Title()
	if err != nil {
		return err
	}
	if current == title {
		return nil
	}
	tv, err := tx.project.Get(KeyTitle)
	if err != nil {
		return fmt.Errorf("failed to get title: %w", err)
	}
	tx.Touch(FieldTitle)
	if tv.Kind() != automerge.KindText {
		if err := tx.project.Set(KeyTitle, automerge.NewText(title)); err != nil {
			return fmt.Errorf("failed to set title: %w", err)
		}
		return nil
	}
	text := tv.Text()
	if err := text.Splice(0, text.Len(), title); err != nil {
		return fmt.Errorf("failed to set title: %w", err)
	}
	return nil
}
