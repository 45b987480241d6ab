package document

import (
	"fmt"

	"github.com/astromechza/scriptsync/pkg/model"
)

// ReplaceProject overwrites every collection and order of the project with the content of p.
// Callers validate p first; nothing here checks that orders and collections pair up.
func (tx *Tx) ReplaceProject(p model.Project) error {
	if err := tx.SetTitle(p.Title); err != nil {
		return err
	}
	sections := make(map[string]any, len(p.Sections))
	for id, s := range p.Sections {
		sections[id] = SectionCodec{}.Encode(s)
	}
	drafts := make(map[string]any, len(p.SectionDrafts))
	for id, d := range p.SectionDrafts {
		drafts[id] = DraftCodec{}.Encode(d)
	}
	scenes := make(map[string]any, len(p.Scenes))
	for id, s := range p.Scenes {
		scenes[id] = SceneCodec{}.Encode(s)
	}
	media := make(map[string]any, len(p.Media))
	for id, m := range p.Media {
		media[id] = MediaCodec{}.Encode(m)
	}
	for _, f := range []struct {
		key   string
		value any
	}{
		{KeySections, sections},
		{KeySectionDrafts, drafts},
		{KeyScenes, scenes},
		{KeyMedia, media},
		{KeySectionOrder, encodeStrings(p.SectionOrder)},
		{KeySceneOrder, encodeStrings(p.SceneOrder)},
		{KeyMediaOrder, encodeStrings(p.MediaOrder)},
	} {
		if err := tx.project.Set(f.key, f.value); err != nil {
			return fmt.Errorf("failed to replace %s: %w", f.key, err)
		}
	}
	for _, f := range AllFields.Fields() {
		if f != FieldTitle {
			tx.Touch(f)
		}
	}
	return nil
}
