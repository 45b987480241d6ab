package projection

import "github.com/astromechza/scriptsync/pkg/model"

// ToModel copies the snapshot into plain values, for encoding or for handing to code that may modify it.
func (p *Project) ToModel() model.Project {
	out := model.Project{
		Title:         p.Title,
		Sections:      make(map[string]model.Section, p.Sections.Len()),
		SectionDrafts: make(map[string]model.SectionDraft, p.SectionDrafts.Len()),
		Scenes:        make(map[string]model.Scene, p.Scenes.Len()),
		Media:         make(map[string]model.Media, p.Media.Len()),
		SectionOrder:  p.SectionOrder.Slice(),
		SceneOrder:    p.SceneOrder.Slice(),
		MediaOrder:    p.MediaOrder.Slice(),
	}
	for _, id := range p.Sections.Keys() {
		s, _ := p.Sections.Get(id)
		out.Sections[id] = s.ToModel()
	}
	for _, id := range p.SectionDrafts.Keys() {
		d, _ := p.SectionDrafts.Get(id)
		out.SectionDrafts[id] = d.ToModel()
	}
	for _, id := range p.Scenes.Keys() {
		s, _ := p.Scenes.Get(id)
		out.Scenes[id] = model.Scene{MediaID: s.MediaID, IntervalCount: s.IntervalCount}
	}
	for _, id := range p.Media.Keys() {
		m, _ := p.Media.Get(id)
		out.Media[id] = model.Media{Status: m.Status, FileID: m.FileID, Name: m.Name, ContentType: m.ContentType, Size: m.Size}
	}
	return out
}

func (s *Section) ToModel() model.Section {
	return model.Section{
		Kind:           s.Kind,
		Duration:       s.Duration,
		SpeechDuration: s.SpeechDuration,
		SpeechStatus:   s.SpeechStatus,
		IntervalOrder:  s.IntervalOrder.Slice(),
		Intervals:      intervalsToModel(s.Intervals),
	}
}

func (d *SectionDraft) ToModel() model.SectionDraft {
	return model.SectionDraft{
		Kind:          d.Kind,
		Duration:      d.Duration,
		IntervalOrder: d.IntervalOrder.Slice(),
		Intervals:     intervalsToModel(d.Intervals),
	}
}

func intervalsToModel(c *Collection[*Interval]) map[string]model.Interval {
	out := make(map[string]model.Interval, c.Len())
	for _, id := range c.Keys() {
		i, _ := c.Get(id)
		out[id] = model.Interval{Words: i.Words.Slice()}
	}
	return out
}
