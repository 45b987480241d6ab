package document

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/astromechza/scriptsync/pkg/model"
)

func TestSectionStoredLayout(t *testing.T) {
	d := newDocument(t)
	section := model.Section{
		Kind:           model.KindBreak,
		Duration:       2.5,
		SpeechDuration: 1,
		SpeechStatus:   model.SpeechCompleted,
		IntervalOrder:  []string{"i1", "i2"},
		Intervals: map[string]model.Interval{
			"i1": {Words: []model.Word{{Text: "hi", DisplayedText: "Hi", IsCaptionSplit: true, Start: 0.5}}},
			"i2": {Words: []model.Word{}},
		},
	}
	if err := d.Transact(func(tx *Tx) error {
		sections, err := tx.Sections()
		if err != nil {
			return err
		}
		return sections.Append("s", section)
	}); err != nil {
		t.Fatalf("Transact() error = %v", err)
	}

	_ = d.Read(func(v *View) error {
		sections, err := v.Sections()
		assert.Equal(t, err, nil)
		got, ok, err := sections.Get("s")
		assert.Equal(t, err, nil)
		assert.Equal(t, ok, true)
		assert.Equal(t, got, section)

		obj, err := sections.Object("s")
		assert.Equal(t, err, nil)
		keys, err := obj.Keys()
		assert.Equal(t, err, nil)
		assert.Equal(t, len(keys), 6)
		kind, _ := obj.Get(KeyKind)
		assert.Equal(t, kind.Str(), "break")
		return nil
	})
}

func TestSectionWithoutStatusOmitsKey(t *testing.T) {
	encoded := SectionCodec{}.Encode(model.NewSection()).(map[string]any)
	_, ok := encoded[KeySpeechStatus]
	assert.Equal(t, ok, false)
}

func TestSceneAndMediaRoundTrip(t *testing.T) {
	d := newDocument(t)
	scene := model.Scene{IntervalCount: 3}
	media := model.Media{Status: model.MediaUploaded, FileID: "f", Name: "clip.mp4", ContentType: "video/mp4", Size: 1024}
	if err := d.Transact(func(tx *Tx) error {
		scenes, err := tx.Scenes()
		if err != nil {
			return err
		}
		if err := scenes.Append("sc", scene); err != nil {
			return err
		}
		all, err := tx.Media()
		if err != nil {
			return err
		}
		return all.Append("m", media)
	}); err != nil {
		t.Fatalf("Transact() error = %v", err)
	}
	_ = d.Read(func(v *View) error {
		scenes, _ := v.Scenes()
		gotScene, _, err := scenes.Get("sc")
		assert.Equal(t, err, nil)
		assert.Equal(t, gotScene, scene)
		all, _ := v.Media()
		gotMedia, _, err := all.Get("m")
		assert.Equal(t, err, nil)
		assert.Equal(t, gotMedia, media)
		return nil
	})
}
