package editor

import (
	"fmt"
	"maps"
	"sort"

	"github.com/astromechza/scriptsync/pkg/model"
	"github.com/astromechza/scriptsync/pkg/registry"
)

// ReplaceProject seeds the document with p, replacing everything it held. p is checked first:
// every order must list exactly the ids of its collection, drafts must belong to a section and
// scenes may only reference media in p.
func (b *Batch) ReplaceProject(p model.Project) error {
	if err := validateProject(&p); err != nil {
		return err
	}
	return b.tx.ReplaceProject(p)
}

func validateProject(p *model.Project) error {
	p.Media = maps.Clone(p.Media)
	if err := pairs("section order", p.SectionOrder, p.Sections); err != nil {
		return err
	}
	if err := pairs("scene order", p.SceneOrder, p.Scenes); err != nil {
		return err
	}
	if err := pairs("media order", p.MediaOrder, p.Media); err != nil {
		return err
	}
	for id, s := range p.Sections {
		if !s.Kind.Valid() {
			return invalid("section %s kind %q", id, s.Kind)
		}
		if s.Duration < 0 || s.SpeechDuration < 0 {
			return invalid("section %s duration", id)
		}
		if !s.SpeechStatus.Valid() {
			return invalid("section %s speech status %q", id, s.SpeechStatus)
		}
		if err := pairs("section "+id+" interval order", s.IntervalOrder, s.Intervals); err != nil {
			return err
		}
	}
	for id, d := range p.SectionDrafts {
		if _, ok := p.Sections[id]; !ok {
			return fmt.Errorf("draft %s: %w", id, ErrSectionNotFound)
		}
		if !d.Kind.Valid() {
			return invalid("draft %s kind %q", id, d.Kind)
		}
		if d.Duration < 0 {
			return invalid("draft %s duration %v", id, d.Duration)
		}
		if err := pairs("draft "+id+" interval order", d.IntervalOrder, d.Intervals); err != nil {
			return err
		}
	}
	for id, m := range p.Media {
		if m.Status == "" {
			m.Status = model.MediaUploading
			p.Media[id] = m
		}
		if !m.Status.Valid() {
			return invalid("media %s status %q", id, m.Status)
		}
		if m.Size < 0 {
			return invalid("media %s size %d", id, m.Size)
		}
	}
	for id, s := range p.Scenes {
		if s.IntervalCount < 0 {
			return invalid("scene %s interval count %d", id, s.IntervalCount)
		}
		if _, ok := p.Media[s.MediaID]; s.MediaID != "" && !ok {
			return fmt.Errorf("scene %s media %s: %w", id, s.MediaID, ErrKeyNotFound)
		}
	}
	return nil
}

func pairs[T any](what string, order []string, items map[string]T) error {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if err := registry.Verify(order, keys); err != nil {
		return invalid("%s: %v", what, err)
	}
	return nil
}
