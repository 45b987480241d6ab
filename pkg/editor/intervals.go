package editor

import (
	"fmt"

	"github.com/automerge/automerge-go"

	"github.com/astromechza/scriptsync/pkg/document"
	"github.com/astromechza/scriptsync/pkg/model"
	"github.com/astromechza/scriptsync/pkg/registry"
)

// Scope names the owner of a set of intervals: a section, or the draft of a section.
type Scope struct {
	SectionID string
	Draft     bool
}

func InSection(id string) Scope {
	return Scope{SectionID: id}
}

func InDraft(id string) Scope {
	return Scope{SectionID: id, Draft: true}
}

func (s Scope) String() string {
	if s.Draft {
		return "draft " + s.SectionID
	}
	return "section " + s.SectionID
}

func (b *Batch) owner(scope Scope) (*automerge.Map, document.Field, error) {
	if scope.Draft {
		drafts, err := b.tx.SectionDrafts()
		if err != nil {
			return nil, 0, err
		}
		obj, err := drafts.Object(scope.SectionID)
		if err != nil {
			return nil, 0, notFoundAs(err, ErrDraftNotFound, scope.SectionID)
		}
		return obj, document.FieldSectionDrafts, nil
	}
	sections, err := b.tx.Sections()
	if err != nil {
		return nil, 0, err
	}
	obj, err := sections.Object(scope.SectionID)
	if err != nil {
		return nil, 0, notFoundAs(err, ErrSectionNotFound, scope.SectionID)
	}
	return obj, document.FieldSections, nil
}

func (b *Batch) intervals(scope Scope) (*registry.Registry[model.Interval], error) {
	obj, field, err := b.owner(scope)
	if err != nil {
		return nil, err
	}
	return document.OpenIntervals(obj, b.tx.Guard(field))
}

func (b *Batch) words(scope Scope, intervalID string) (*registry.Sequence[model.Word], error) {
	obj, field, err := b.owner(scope)
	if err != nil {
		return nil, err
	}
	intervals, err := document.OpenIntervals(obj, b.tx.Guard(field))
	if err != nil {
		return nil, err
	}
	interval, err := intervals.Object(intervalID)
	if err != nil {
		return nil, fmt.Errorf("interval in %s: %w", scope, err)
	}
	return document.OpenWords(interval, b.tx.Guard(field))
}

// CreateInterval adds an interval holding words at the end of the scope's interval order, or next to at.
func (b *Batch) CreateInterval(scope Scope, words []model.Word, at *Anchor) (string, error) {
	intervals, err := b.intervals(scope)
	if err != nil {
		return "", err
	}
	id := b.newID()
	if err := insert(intervals, id, model.Interval{Words: words}, at); err != nil {
		return "", err
	}
	return id, nil
}

// DeleteInterval removes the interval and its words. Missing intervals are ignored.
func (b *Batch) DeleteInterval(scope Scope, id string) error {
	intervals, err := b.intervals(scope)
	if err != nil {
		return err
	}
	return intervals.Remove(id)
}

func (b *Batch) ReorderIntervals(scope Scope, a, c string) error {
	intervals, err := b.intervals(scope)
	if err != nil {
		return err
	}
	return intervals.Reorder(a, c)
}

func (b *Batch) AppendWord(scope Scope, intervalID string, w model.Word) error {
	words, err := b.words(scope, intervalID)
	if err != nil {
		return err
	}
	return words.Append(w)
}

// InsertWord puts w directly before or after the word at index anchor.
func (b *Batch) InsertWord(scope Scope, intervalID string, anchor int, before bool, w model.Word) error {
	words, err := b.words(scope, intervalID)
	if err != nil {
		return err
	}
	return words.InsertAdjacent(anchor, before, w)
}

func (b *Batch) DeleteWord(scope Scope, intervalID string, index int) error {
	words, err := b.words(scope, intervalID)
	if err != nil {
		return err
	}
	return words.Delete(index)
}

// UpdateWord replaces all four fields of the word at index.
func (b *Batch) UpdateWord(scope Scope, intervalID string, index int, w model.Word) error {
	words, err := b.words(scope, intervalID)
	if err != nil {
		return err
	}
	return words.Set(index, w)
}

func (b *Batch) ReorderWords(scope Scope, intervalID string, i, j int) error {
	words, err := b.words(scope, intervalID)
	if err != nil {
		return err
	}
	return words.Swap(i, j)
}
