package editor

import (
	"github.com/astromechza/scriptsync/pkg/model"
)

func (e *Editor) SetTitle(title string) error {
	return e.run("setTitle", func(b *Batch) error { return b.SetTitle(title) })
}

func (e *Editor) CreateSection(at *Anchor) (id string, err error) {
	err = e.run("createSection", func(b *Batch) (err error) {
		id, err = b.CreateSection(at)
		return err
	})
	return id, err
}

func (e *Editor) DeleteSection(id string) error {
	return e.run("deleteSection", func(b *Batch) error { return b.DeleteSection(id) })
}

func (e *Editor) ReorderSections(a, b string) error {
	return e.run("reorderSections", func(batch *Batch) error { return batch.ReorderSections(a, b) })
}

func (e *Editor) CreateSectionDraft(id string) error {
	return e.run("createSectionDraft", func(b *Batch) error { return b.CreateSectionDraft(id) })
}

func (e *Editor) UpdateSectionDraft(id string, u DraftUpdate) error {
	return e.run("updateSectionDraft", func(b *Batch) error { return b.UpdateSectionDraft(id, u) })
}

func (e *Editor) DeleteSectionDraft(id string) error {
	return e.run("deleteSectionDraft", func(b *Batch) error { return b.DeleteSectionDraft(id) })
}

func (e *Editor) PromoteSectionDraft(id string) error {
	return e.run("promoteSectionDraft", func(b *Batch) error { return b.PromoteSectionDraft(id) })
}

func (e *Editor) SetSpeechResult(id string, u SpeechUpdate) error {
	return e.run("setSpeechResult", func(b *Batch) error { return b.SetSpeechResult(id, u) })
}

func (e *Editor) CreateInterval(scope Scope, words []model.Word, at *Anchor) (id string, err error) {
	err = e.run("createInterval", func(b *Batch) (err error) {
		id, err = b.CreateInterval(scope, words, at)
		return err
	})
	return id, err
}

func (e *Editor) DeleteInterval(scope Scope, id string) error {
	return e.run("deleteInterval", func(b *Batch) error { return b.DeleteInterval(scope, id) })
}

func (e *Editor) ReorderIntervals(scope Scope, a, b string) error {
	return e.run("reorderIntervals", func(batch *Batch) error { return batch.ReorderIntervals(scope, a, b) })
}

func (e *Editor) AppendWord(scope Scope, intervalID string, w model.Word) error {
	return e.run("appendWord", func(b *Batch) error { return b.AppendWord(scope, intervalID, w) })
}

func (e *Editor) InsertWord(scope Scope, intervalID string, anchor int, before bool, w model.Word) error {
	return e.run("insertWord", func(b *Batch) error { return b.InsertWord(scope, intervalID, anchor, before, w) })
}

func (e *Editor) DeleteWord(scope Scope, intervalID string, index int) error {
	return e.run("deleteWord", func(b *Batch) error { return b.DeleteWord(scope, intervalID, index) })
}

func (e *Editor) UpdateWord(scope Scope, intervalID string, index int, w model.Word) error {
	return e.run("updateWord", func(b *Batch) error { return b.UpdateWord(scope, intervalID, index, w) })
}

func (e *Editor) ReorderWords(scope Scope, intervalID string, i, j int) error {
	return e.run("reorderWords", func(b *Batch) error { return b.ReorderWords(scope, intervalID, i, j) })
}

func (e *Editor) CreateScene(s model.Scene, at *Anchor) (id string, err error) {
	err = e.run("createScene", func(b *Batch) (err error) {
		id, err = b.CreateScene(s, at)
		return err
	})
	return id, err
}

func (e *Editor) UpdateScene(id string, u SceneUpdate) error {
	return e.run("updateScene", func(b *Batch) error { return b.UpdateScene(id, u) })
}

func (e *Editor) DeleteScene(id string) error {
	return e.run("deleteScene", func(b *Batch) error { return b.DeleteScene(id) })
}

func (e *Editor) ReorderScenes(a, b string) error {
	return e.run("reorderScenes", func(batch *Batch) error { return batch.ReorderScenes(a, b) })
}

func (e *Editor) CreateMedia(m model.Media, at *Anchor) (id string, err error) {
	err = e.run("createMedia", func(b *Batch) (err error) {
		id, err = b.CreateMedia(m, at)
		return err
	})
	return id, err
}

func (e *Editor) UpdateMedia(id string, u MediaUpdate) error {
	return e.run("updateMedia", func(b *Batch) error { return b.UpdateMedia(id, u) })
}

func (e *Editor) DeleteMedia(id string) error {
	return e.run("deleteMedia", func(b *Batch) error { return b.DeleteMedia(id) })
}

func (e *Editor) ReorderMedia(a, b string) error {
	return e.run("reorderMedia", func(batch *Batch) error { return batch.ReorderMedia(a, b) })
}

// Repair canonicalizes every order in one transaction. See Batch.Repair.
func (e *Editor) Repair() (changed bool, err error) {
	err = e.run("repair", func(b *Batch) (err error) {
		changed, err = b.Repair()
		return err
	})
	return changed, err
}

func (e *Editor) ReplaceProject(p model.Project) error {
	return e.run("replaceProject", func(b *Batch) error { return b.ReplaceProject(p) })
}
