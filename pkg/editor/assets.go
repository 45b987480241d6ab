package editor

import (
	"fmt"

	"github.com/astromechza/scriptsync/pkg/document"
	"github.com/astromechza/scriptsync/pkg/model"
)

// SceneUpdate holds the scene fields to change. Nil fields are left alone; an empty MediaID detaches the media.
type SceneUpdate struct {
	MediaID       *string
	IntervalCount *int
}

// MediaUpdate holds the media fields to change. Nil fields are left alone.
type MediaUpdate struct {
	Status      *model.MediaStatus
	FileID      *string
	Name        *string
	ContentType *string
	Size        *int64
}

func (b *Batch) checkMedia(id string) error {
	if id == "" {
		return nil
	}
	media, err := b.tx.Media()
	if err != nil {
		return err
	}
	if ok, err := media.Has(id); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("media %s: %w", id, ErrKeyNotFound)
	}
	return nil
}

func (b *Batch) CreateScene(s model.Scene, at *Anchor) (string, error) {
	if s.IntervalCount < 0 {
		return "", invalid("interval count %d", s.IntervalCount)
	}
	if err := b.checkMedia(s.MediaID); err != nil {
		return "", err
	}
	scenes, err := b.tx.Scenes()
	if err != nil {
		return "", err
	}
	id := b.newID()
	if err := insert(scenes, id, s, at); err != nil {
		return "", err
	}
	return id, nil
}

func (b *Batch) UpdateScene(id string, u SceneUpdate) error {
	scenes, err := b.tx.Scenes()
	if err != nil {
		return err
	}
	obj, err := scenes.Object(id)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	fields := map[string]any{}
	if u.MediaID != nil {
		if err := b.checkMedia(*u.MediaID); err != nil {
			return err
		}
		fields[document.KeyMediaID] = *u.MediaID
	}
	if u.IntervalCount != nil {
		if *u.IntervalCount < 0 {
			return invalid("interval count %d", *u.IntervalCount)
		}
		fields[document.KeyIntervalCount] = int64(*u.IntervalCount)
	}
	if len(fields) == 0 {
		return nil
	}
	b.tx.Touch(document.FieldScenes)
	return setFields(obj, fields)
}

// DeleteScene removes the scene. Missing scenes are ignored.
func (b *Batch) DeleteScene(id string) error {
	scenes, err := b.tx.Scenes()
	if err != nil {
		return err
	}
	return scenes.Remove(id)
}

func (b *Batch) ReorderScenes(a, c string) error {
	scenes, err := b.tx.Scenes()
	if err != nil {
		return err
	}
	return scenes.Reorder(a, c)
}

// CreateMedia registers a media item. An empty status means the upload has just started.
func (b *Batch) CreateMedia(m model.Media, at *Anchor) (string, error) {
	if m.Status == "" {
		m.Status = model.MediaUploading
	}
	if !m.Status.Valid() {
		return "", invalid("media status %q", m.Status)
	}
	if m.Size < 0 {
		return "", invalid("media size %d", m.Size)
	}
	media, err := b.tx.Media()
	if err != nil {
		return "", err
	}
	id := b.newID()
	if err := insert(media, id, m, at); err != nil {
		return "", err
	}
	return id, nil
}

func (b *Batch) UpdateMedia(id string, u MediaUpdate) error {
	media, err := b.tx.Media()
	if err != nil {
		return err
	}
	obj, err := media.Object(id)
	if err != nil {
		return fmt.Errorf("media: %w", err)
	}
	fields := map[string]any{}
	if u.Status != nil {
		if !u.Status.Valid() {
			return invalid("media status %q", *u.Status)
		}
		fields[document.KeyStatus] = string(*u.Status)
	}
	if u.FileID != nil {
		fields[document.KeyFileID] = *u.FileID
	}
	if u.Name != nil {
		fields[document.KeyName] = *u.Name
	}
	if u.ContentType != nil {
		fields[document.KeyContentType] = *u.ContentType
	}
	if u.Size != nil {
		if *u.Size < 0 {
			return invalid("media size %d", *u.Size)
		}
		fields[document.KeySize] = *u.Size
	}
	if len(fields) == 0 {
		return nil
	}
	b.tx.Touch(document.FieldMedia)
	return setFields(obj, fields)
}

// DeleteMedia removes the media item and detaches it from every scene showing it. Missing media is ignored.
func (b *Batch) DeleteMedia(id string) error {
	if id == "" {
		return nil
	}
	scenes, err := b.tx.Scenes()
	if err != nil {
		return err
	}
	all, err := scenes.Keys()
	if err != nil {
		return err
	}
	for _, sceneID := range all {
		scene, ok, err := scenes.Get(sceneID)
		if err != nil {
			return err
		}
		if !ok || scene.MediaID != id {
			continue
		}
		obj, err := scenes.Object(sceneID)
		if err != nil {
			return err
		}
		b.tx.Touch(document.FieldScenes)
		if err := obj.Set(document.KeyMediaID, ""); err != nil {
			return fmt.Errorf("failed to detach media from scene %s: %w", sceneID, err)
		}
	}
	media, err := b.tx.Media()
	if err != nil {
		return err
	}
	return media.Remove(id)
}

func (b *Batch) ReorderMedia(a, c string) error {
	media, err := b.tx.Media()
	if err != nil {
		return err
	}
	return media.Reorder(a, c)
}
