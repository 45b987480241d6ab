package editor

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/astromechza/scriptsync/pkg/model"
)

func TestMedia(t *testing.T) {
	e := newEditor(t)
	m1, err := e.CreateMedia(model.Media{Name: "a.png", ContentType: "image/png"}, nil)
	assert.Equal(t, err, nil)
	m2, err := e.CreateMedia(model.Media{Name: "b.png"}, Before(m1))
	assert.Equal(t, err, nil)
	p := snapshot(t, e)
	assert.Equal(t, p.MediaOrder, []string{m2, m1})
	assert.Equal(t, p.Media[m1].Status, model.MediaUploading)

	assert.Equal(t, e.UpdateMedia(m1, MediaUpdate{Status: ptr(model.MediaUploaded), FileID: ptr("file-1"), Size: ptr(int64(2048))}), nil)
	got := snapshot(t, e).Media[m1]
	assert.Equal(t, got, model.Media{Status: model.MediaUploaded, FileID: "file-1", Name: "a.png", ContentType: "image/png", Size: 2048})

	assert.Equal(t, e.ReorderMedia(m1, m2), nil)
	assert.Equal(t, snapshot(t, e).MediaOrder, []string{m1, m2})

	assert.Equal(t, errors.Is(e.UpdateMedia("missing", MediaUpdate{Name: ptr("x")}), ErrKeyNotFound), true)
	assert.Equal(t, errors.Is(e.UpdateMedia(m1, MediaUpdate{Status: ptr(model.MediaStatus("lost"))}), ErrInvalidValue), true)
	_, err = e.CreateMedia(model.Media{Size: -1}, nil)
	assert.Equal(t, errors.Is(err, ErrInvalidValue), true)
}

func TestScenes(t *testing.T) {
	e := newEditor(t)
	m, err := e.CreateMedia(model.Media{Name: "clip"}, nil)
	assert.Equal(t, err, nil)
	s1, err := e.CreateScene(model.Scene{MediaID: m, IntervalCount: 2}, nil)
	assert.Equal(t, err, nil)
	s2, err := e.CreateScene(model.Scene{}, After(s1))
	assert.Equal(t, err, nil)
	assert.Equal(t, snapshot(t, e).SceneOrder, []string{s1, s2})

	assert.Equal(t, e.UpdateScene(s2, SceneUpdate{MediaID: ptr(m), IntervalCount: ptr(5)}), nil)
	assert.Equal(t, snapshot(t, e).Scenes[s2], model.Scene{MediaID: m, IntervalCount: 5})
	assert.Equal(t, e.ReorderScenes(s1, s2), nil)
	assert.Equal(t, snapshot(t, e).SceneOrder, []string{s2, s1})

	_, err = e.CreateScene(model.Scene{MediaID: "missing"}, nil)
	assert.Equal(t, errors.Is(err, ErrKeyNotFound), true)
	assert.Equal(t, errors.Is(e.UpdateScene(s1, SceneUpdate{IntervalCount: ptr(-2)}), ErrInvalidValue), true)
	assert.Equal(t, errors.Is(e.UpdateScene("missing", SceneUpdate{}), ErrKeyNotFound), true)

	assert.Equal(t, e.DeleteScene(s1), nil)
	assert.Equal(t, e.DeleteScene(s1), nil)
	assert.Equal(t, snapshot(t, e).SceneOrder, []string{s2})
}

func TestDeleteMediaDetachesScenes(t *testing.T) {
	e := newEditor(t)
	m, err := e.CreateMedia(model.Media{Name: "clip"}, nil)
	assert.Equal(t, err, nil)
	other, err := e.CreateMedia(model.Media{Name: "other"}, nil)
	assert.Equal(t, err, nil)
	s1, _ := e.CreateScene(model.Scene{MediaID: m}, nil)
	s2, _ := e.CreateScene(model.Scene{MediaID: other}, nil)

	assert.Equal(t, e.DeleteMedia(m), nil)
	p := snapshot(t, e)
	assert.Equal(t, p.MediaOrder, []string{other})
	assert.Equal(t, p.Scenes[s1].MediaID, "")
	assert.Equal(t, p.Scenes[s2].MediaID, other)
	assert.Equal(t, e.DeleteMedia(m), nil)
}
