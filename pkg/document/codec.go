package document

import (
	"fmt"

	"github.com/automerge/automerge-go"

	"github.com/astromechza/scriptsync/pkg/model"
	"github.com/astromechza/scriptsync/pkg/registry"
)

// Keys of the replicated layout. They match the layout the web editor reads, so documents can be
// exchanged with it.
const (
	KeyProject       = "project"
	KeyTitle         = "title"
	KeySections      = "sections"
	KeySectionDrafts = "sectionDrafts"
	KeyScenes        = "scenes"
	KeyMedia         = "media"
	KeySectionOrder  = "sectionOrder"
	KeySceneOrder    = "sceneOrder"
	KeyMediaOrder    = "mediaOrder"

	KeyKind           = "type"
	KeyDuration       = "duration"
	KeySpeechDuration = "speechDuration"
	KeySpeechStatus   = "speechGeneratedStatus"
	KeyIntervalOrder  = "intervalOrder"
	KeyIntervals      = "intervals"

	KeyWords = "words"

	KeyText           = "text"
	KeyDisplayedText  = "displayedText"
	KeyIsCaptionSplit = "isCaptionSplitted"
	KeyStart          = "start"

	KeyMediaID       = "mediaId"
	KeyIntervalCount = "intervalCount"

	KeyStatus      = "status"
	KeyFileID      = "fileId"
	KeyName        = "name"
	KeyContentType = "contentType"
	KeySize        = "size"
)

type SectionCodec struct{}

func (SectionCodec) Encode(s model.Section) any {
	out := map[string]any{
		KeyKind:           string(s.Kind),
		KeyDuration:       s.Duration,
		KeySpeechDuration: s.SpeechDuration,
		KeyIntervalOrder:  encodeStrings(s.IntervalOrder),
		KeyIntervals:      encodeIntervals(s.Intervals),
	}
	if s.SpeechStatus != model.SpeechNone {
		out[KeySpeechStatus] = string(s.SpeechStatus)
	}
	return out
}

func (SectionCodec) Decode(v *automerge.Value) (model.Section, error) {
	var out model.Section
	m, err := registry.AsMap(v)
	if err != nil {
		return out, err
	}
	kind, err := registry.String(m, KeyKind)
	if err != nil {
		return out, err
	}
	status, err := registry.String(m, KeySpeechStatus)
	if err != nil {
		return out, err
	}
	if out.Duration, err = registry.Float(m, KeyDuration); err != nil {
		return out, err
	}
	if out.SpeechDuration, err = registry.Float(m, KeySpeechDuration); err != nil {
		return out, err
	}
	if out.IntervalOrder, out.Intervals, err = decodeIntervalTree(m); err != nil {
		return out, err
	}
	out.Kind = model.SectionKind(kind)
	out.SpeechStatus = model.SpeechStatus(status)
	return out, nil
}

type DraftCodec struct{}

func (DraftCodec) Encode(d model.SectionDraft) any {
	return map[string]any{
		KeyKind:          string(d.Kind),
		KeyDuration:      d.Duration,
		KeyIntervalOrder: encodeStrings(d.IntervalOrder),
		KeyIntervals:     encodeIntervals(d.Intervals),
	}
}

func (DraftCodec) Decode(v *automerge.Value) (model.SectionDraft, error) {
	var out model.SectionDraft
	m, err := registry.AsMap(v)
	if err != nil {
		return out, err
	}
	kind, err := registry.String(m, KeyKind)
	if err != nil {
		return out, err
	}
	if out.Duration, err = registry.Float(m, KeyDuration); err != nil {
		return out, err
	}
	if out.IntervalOrder, out.Intervals, err = decodeIntervalTree(m); err != nil {
		return out, err
	}
	out.Kind = model.SectionKind(kind)
	return out, nil
}

type IntervalCodec struct{}

func (IntervalCodec) Encode(i model.Interval) any {
	return encodeInterval(i)
}

func (IntervalCodec) Decode(v *automerge.Value) (model.Interval, error) {
	m, err := registry.AsMap(v)
	if err != nil {
		return model.Interval{}, err
	}
	list, err := registry.ListAt(m, KeyWords)
	if err != nil {
		return model.Interval{}, err
	}
	values, err := registry.NewSequence[model.Word](list, WordCodec{}, registry.ReadOnly).Values()
	if err != nil {
		return model.Interval{}, err
	}
	return model.Interval{Words: values}, nil
}

type WordCodec struct{}

func (WordCodec) Encode(w model.Word) any {
	return map[string]any{
		KeyText:           w.Text,
		KeyDisplayedText:  w.DisplayedText,
		KeyIsCaptionSplit: w.IsCaptionSplit,
		KeyStart:          w.Start,
	}
}

func (WordCodec) Decode(v *automerge.Value) (model.Word, error) {
	var out model.Word
	m, err := registry.AsMap(v)
	if err != nil {
		return out, err
	}
	if out.Text, err = registry.String(m, KeyText); err != nil {
		return out, err
	}
	if out.DisplayedText, err = registry.String(m, KeyDisplayedText); err != nil {
		return out, err
	}
	if out.IsCaptionSplit, err = registry.Bool(m, KeyIsCaptionSplit); err != nil {
		return out, err
	}
	if out.Start, err = registry.Float(m, KeyStart); err != nil {
		return out, err
	}
	return out, nil
}

// Update rewrites all four fields of an existing word object.
func (WordCodec) Update(obj *automerge.Map, w model.Word) error {
	fields := []struct {
		key   string
		value any
	}{
		{KeyText, w.Text},
		{KeyDisplayedText, w.DisplayedText},
		{KeyIsCaptionSplit, w.IsCaptionSplit},
		{KeyStart, w.Start},
	}
	for _, f := range fields {
		if err := obj.Set(f.key, f.value); err != nil {
			return fmt.Errorf("failed to set word %s: %w", f.key, err)
		}
	}
	return nil
}

type SceneCodec struct{}

func (SceneCodec) Encode(s model.Scene) any {
	return map[string]any{
		KeyMediaID:       s.MediaID,
		KeyIntervalCount: int64(s.IntervalCount),
	}
}

func (SceneCodec) Decode(v *automerge.Value) (model.Scene, error) {
	var out model.Scene
	m, err := registry.AsMap(v)
	if err != nil {
		return out, err
	}
	if out.MediaID, err = registry.String(m, KeyMediaID); err != nil {
		return out, err
	}
	count, err := registry.Int(m, KeyIntervalCount)
	if err != nil {
		return out, err
	}
	out.IntervalCount = int(count)
	return out, nil
}

type MediaCodec struct{}

func (MediaCodec) Encode(m model.Media) any {
	return map[string]any{
		KeyStatus:      string(m.Status),
		KeyFileID:      m.FileID,
		KeyName:        m.Name,
		KeyContentType: m.ContentType,
		KeySize:        m.Size,
	}
}

func (MediaCodec) Decode(v *automerge.Value) (model.Media, error) {
	var out model.Media
	m, err := registry.AsMap(v)
	if err != nil {
		return out, err
	}
	status, err := registry.String(m, KeyStatus)
	if err != nil {
		return out, err
	}
	if out.FileID, err = registry.String(m, KeyFileID); err != nil {
		return out, err
	}
	if out.Name, err = registry.String(m, KeyName); err != nil {
		return out, err
	}
	if out.ContentType, err = registry.String(m, KeyContentType); err != nil {
		return out, err
	}
	if out.Size, err = registry.Int(m, KeySize); err != nil {
		return out, err
	}
	out.Status = model.MediaStatus(status)
	return out, nil
}

// OpenIntervals opens the interval registry owned by a section or section draft object.
func OpenIntervals(owner *automerge.Map, guard registry.Guard) (*registry.Registry[model.Interval], error) {
	return registry.Open[model.Interval](owner, KeyIntervals, KeyIntervalOrder, IntervalCodec{}, guard)
}

// OpenWords opens the word list of an interval object.
func OpenWords(interval *automerge.Map, guard registry.Guard) (*registry.Sequence[model.Word], error) {
	return registry.OpenSequence[model.Word](interval, KeyWords, WordCodec{}, guard)
}

func decodeIntervalTree(owner *automerge.Map) ([]string, map[string]model.Interval, error) {
	intervals, err := OpenIntervals(owner, registry.ReadOnly)
	if err != nil {
		return nil, nil, err
	}
	order, err := intervals.Order()
	if err != nil {
		return nil, nil, err
	}
	keys, err := intervals.Keys()
	if err != nil {
		return nil, nil, err
	}
	out := make(map[string]model.Interval, len(keys))
	for _, k := range keys {
		v, ok, err := intervals.Get(k)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			out[k] = v
		}
	}
	return order, out, nil
}

func encodeIntervals(in map[string]model.Interval) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = encodeInterval(v)
	}
	return out
}

func encodeInterval(i model.Interval) map[string]any {
	words := make([]any, 0, len(i.Words))
	for _, w := range i.Words {
		words = append(words, WordCodec{}.Encode(w))
	}
	return map[string]any{KeyWords: words}
}

func encodeStrings(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
