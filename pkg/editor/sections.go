package editor

import (
	"fmt"

	"github.com/astromechza/scriptsync/pkg/document"
	"github.com/astromechza/scriptsync/pkg/model"
)

// DraftUpdate holds the draft fields to change. Nil fields are left alone.
type DraftUpdate struct {
	Kind     *model.SectionKind
	Duration *float64
}

// SpeechUpdate is the result of speech generation for a section. Nil fields are left alone.
type SpeechUpdate struct {
	Status   *model.SpeechStatus
	Duration *float64
}

func (b *Batch) SetTitle(title string) error {
	return b.tx.SetTitle(title)
}

// CreateSection adds an empty section at the end of the section order, or next to at.
func (b *Batch) CreateSection(at *Anchor) (string, error) {
	sections, err := b.tx.Sections()
	if err != nil {
		return "", err
	}
	id := b.newID()
	if err := insert(sections, id, model.NewSection(), at); err != nil {
		return "", err
	}
	return id, nil
}

// DeleteSection removes the section with its intervals and any open draft. Missing sections are ignored.
func (b *Batch) DeleteSection(id string) error {
	drafts, err := b.tx.SectionDrafts()
	if err != nil {
		return err
	}
	if err := drafts.Delete(id); err != nil {
		return err
	}
	sections, err := b.tx.Sections()
	if err != nil {
		return err
	}
	return sections.Remove(id)
}

func (b *Batch) ReorderSections(a, c string) error {
	sections, err := b.tx.Sections()
	if err != nil {
		return err
	}
	return sections.Reorder(a, c)
}

// CreateSectionDraft opens a draft holding a copy of the section's editable fields.
func (b *Batch) CreateSectionDraft(id string) error {
	sections, err := b.tx.Sections()
	if err != nil {
		return err
	}
	section, ok, err := sections.Get(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	drafts, err := b.tx.SectionDrafts()
	if err != nil {
		return err
	}
	if ok, err := drafts.Has(id); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", ErrDraftAlreadyExists, id)
	}
	return drafts.Put(id, section.Draft())
}

func (b *Batch) UpdateSectionDraft(id string, u DraftUpdate) error {
	drafts, err := b.tx.SectionDrafts()
	if err != nil {
		return err
	}
	obj, err := drafts.Object(id)
	if err != nil {
		return notFoundAs(err, ErrDraftNotFound, id)
	}
	fields := map[string]any{}
	if u.Kind != nil {
		if !u.Kind.Valid() {
			return invalid("section kind %q", *u.Kind)
		}
		fields[document.KeyKind] = string(*u.Kind)
	}
	if u.Duration != nil {
		if *u.Duration < 0 {
			return invalid("duration %v", *u.Duration)
		}
		fields[document.KeyDuration] = *u.Duration
	}
	if len(fields) == 0 {
		return nil
	}
	b.tx.Touch(document.FieldSectionDrafts)
	return setFields(obj, fields)
}

// DeleteSectionDraft discards the draft. Missing drafts are ignored.
func (b *Batch) DeleteSectionDraft(id string) error {
	drafts, err := b.tx.SectionDrafts()
	if err != nil {
		return err
	}
	return drafts.Delete(id)
}

// PromoteSectionDraft writes the draft over its section and removes the draft. The speech result
// of the section no longer matches its content, so the speech duration is reset and the status cleared.
func (b *Batch) PromoteSectionDraft(id string) error {
	drafts, err := b.tx.SectionDrafts()
	if err != nil {
		return err
	}
	draft, ok, err := drafts.Get(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	sections, err := b.tx.Sections()
	if err != nil {
		return err
	}
	obj, err := sections.Object(id)
	if err != nil {
		return notFoundAs(err, ErrSectionNotFound, id)
	}
	encoded := document.DraftCodec{}.Encode(draft).(map[string]any)
	encoded[document.KeySpeechDuration] = 0.0
	b.tx.Touch(document.FieldSections)
	if err := setFields(obj, encoded); err != nil {
		return err
	}
	if err := deleteField(obj, document.KeySpeechStatus); err != nil {
		return err
	}
	return drafts.Delete(id)
}

func (b *Batch) SetSpeechResult(id string, u SpeechUpdate) error {
	sections, err := b.tx.Sections()
	if err != nil {
		return err
	}
	obj, err := sections.Object(id)
	if err != nil {
		return notFoundAs(err, ErrSectionNotFound, id)
	}
	fields := map[string]any{}
	if u.Duration != nil {
		if *u.Duration < 0 {
			return invalid("speech duration %v", *u.Duration)
		}
		fields[document.KeySpeechDuration] = *u.Duration
	}
	if u.Status != nil && !u.Status.Valid() {
		return invalid("speech status %q", *u.Status)
	}
	if len(fields) == 0 && u.Status == nil {
		return nil
	}
	b.tx.Touch(document.FieldSections)
	if err := setFields(obj, fields); err != nil {
		return err
	}
	if u.Status == nil {
		return nil
	}
	if *u.Status == model.SpeechNone {
		return deleteField(obj, document.KeySpeechStatus)
	}
	return obj.Set(document.KeySpeechStatus, string(*u.Status))
}
