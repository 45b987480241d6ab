// Package projection materializes immutable snapshots of a project. Consecutive snapshots share
// every subtree that did not change, so pointer equality is a sufficient change signal.
package projection

import (
	"sort"
	"sync"

	"github.com/astromechza/scriptsync/pkg/document"
	"github.com/astromechza/scriptsync/pkg/model"
	"github.com/astromechza/scriptsync/pkg/registry"
)

// Project is a snapshot. Snapshots and everything reachable from them must not be modified.
type Project struct {
	Title         string
	Sections      *Collection[*Section]
	SectionDrafts *Collection[*SectionDraft]
	Scenes        *Collection[*Scene]
	Media         *Collection[*Media]
	SectionOrder  *List[string]
	SceneOrder    *List[string]
	MediaOrder    *List[string]

	source   *document.Document
	token    document.Token
	versions document.Versions
}

// Token is the document token the snapshot was built at.
func (p *Project) Token() document.Token {
	return p.token
}

type Section struct {
	Kind           model.SectionKind
	Duration       float64
	SpeechDuration float64
	SpeechStatus   model.SpeechStatus
	IntervalOrder  *List[string]
	Intervals      *Collection[*Interval]
}

type SectionDraft struct {
	Kind          model.SectionKind
	Duration      float64
	IntervalOrder *List[string]
	Intervals     *Collection[*Interval]
}

type Interval struct {
	Words *List[model.Word]
}

type Scene struct {
	MediaID       string
	IntervalCount int
}

type Media struct {
	Status      model.MediaStatus
	FileID      string
	Name        string
	ContentType string
	Size        int64
}

// Build returns a snapshot of d. When prev is a snapshot of d, unchanged parts are taken from it,
// and prev itself is returned when nothing changed. It fails with document.ErrDocumentUninitialized
// when d holds no project yet.
func Build(d *document.Document, prev *Project) (*Project, error) {
	var out *Project
	err := d.Read(func(v *document.View) error {
		var err error
		out, err = build(d, v, prev)
		return err
	})
	return out, err
}

func build(d *document.Document, v *document.View, prev *Project) (*Project, error) {
	if prev != nil && prev.source != d {
		prev = nil
	}
	if prev != nil && prev.token == v.Token() {
		return prev, nil
	}
	if prev == nil {
		prev = &Project{}
	}
	versions := v.Versions()
	unchanged := func(f document.Field) bool {
		return prev.source != nil && prev.versions.Of(f) == versions.Of(f)
	}
	next := &Project{source: d, token: v.Token(), versions: versions}
	var err error

	if next.Title, err = v.Title(); err != nil {
		return nil, err
	}

	sections, err := v.Sections()
	if err != nil {
		return nil, err
	}
	next.Sections = prev.Sections
	if !unchanged(document.FieldSections) {
		if next.Sections, err = projectRegistry(sections, prev.Sections, buildSection); err != nil {
			return nil, err
		}
	}
	next.SectionOrder = prev.SectionOrder
	if !unchanged(document.FieldSections) || !unchanged(document.FieldSectionOrder) {
		if next.SectionOrder, err = projectOrder(sections, prev.SectionOrder); err != nil {
			return nil, err
		}
	}

	next.SectionDrafts = prev.SectionDrafts
	if !unchanged(document.FieldSectionDrafts) {
		drafts, err := v.SectionDrafts()
		if err != nil {
			return nil, err
		}
		values, err := drafts.Values()
		if err != nil {
			return nil, err
		}
		next.SectionDrafts = diffCollection(prev.SectionDrafts, values, buildDraft)
	}

	scenes, err := v.Scenes()
	if err != nil {
		return nil, err
	}
	next.Scenes = prev.Scenes
	if !unchanged(document.FieldScenes) {
		if next.Scenes, err = projectRegistry(scenes, prev.Scenes, buildScene); err != nil {
			return nil, err
		}
	}
	next.SceneOrder = prev.SceneOrder
	if !unchanged(document.FieldScenes) || !unchanged(document.FieldSceneOrder) {
		if next.SceneOrder, err = projectOrder(scenes, prev.SceneOrder); err != nil {
			return nil, err
		}
	}

	media, err := v.Media()
	if err != nil {
		return nil, err
	}
	next.Media = prev.Media
	if !unchanged(document.FieldMedia) {
		if next.Media, err = projectRegistry(media, prev.Media, buildMedia); err != nil {
			return nil, err
		}
	}
	next.MediaOrder = prev.MediaOrder
	if !unchanged(document.FieldMedia) || !unchanged(document.FieldMediaOrder) {
		if next.MediaOrder, err = projectOrder(media, prev.MediaOrder); err != nil {
			return nil, err
		}
	}

	if prev.source != nil &&
		next.Title == prev.Title &&
		next.Sections == prev.Sections &&
		next.SectionDrafts == prev.SectionDrafts &&
		next.Scenes == prev.Scenes &&
		next.Media == prev.Media &&
		next.SectionOrder == prev.SectionOrder &&
		next.SceneOrder == prev.SceneOrder &&
		next.MediaOrder == prev.MediaOrder {
		return prev, nil
	}
	return next, nil
}

func projectRegistry[M any, T comparable](r *registry.Registry[M], prev *Collection[T], fn func(m M, prev T, ok bool) T) (*Collection[T], error) {
	keys, err := r.Keys()
	if err != nil {
		return nil, err
	}
	values := make(map[string]M, len(keys))
	for _, k := range keys {
		m, ok, err := r.Get(k)
		if err != nil {
			return nil, err
		}
		if ok {
			values[k] = m
		}
	}
	return diffCollection(prev, values, fn), nil
}

func projectOrder[M any](r *registry.Registry[M], prev *List[string]) (*List[string], error) {
	order, err := r.Canonical()
	if err != nil {
		return nil, err
	}
	return reuseList(prev, order), nil
}

func buildSection(m model.Section, prev *Section, ok bool) *Section {
	var oldOrder *List[string]
	var oldIntervals *Collection[*Interval]
	if ok {
		oldOrder, oldIntervals = prev.IntervalOrder, prev.Intervals
	}
	order, intervals := buildIntervals(m.IntervalOrder, m.Intervals, oldOrder, oldIntervals)
	next := &Section{
		Kind:           m.Kind,
		Duration:       m.Duration,
		SpeechDuration: m.SpeechDuration,
		SpeechStatus:   m.SpeechStatus,
		IntervalOrder:  order,
		Intervals:      intervals,
	}
	if ok && *next == *prev {
		return prev
	}
	return next
}

func buildDraft(m model.SectionDraft, prev *SectionDraft, ok bool) *SectionDraft {
	var oldOrder *List[string]
	var oldIntervals *Collection[*Interval]
	if ok {
		oldOrder, oldIntervals = prev.IntervalOrder, prev.Intervals
	}
	order, intervals := buildIntervals(m.IntervalOrder, m.Intervals, oldOrder, oldIntervals)
	next := &SectionDraft{
		Kind:          m.Kind,
		Duration:      m.Duration,
		IntervalOrder: order,
		Intervals:     intervals,
	}
	if ok && *next == *prev {
		return prev
	}
	return next
}

func buildIntervals(order []string, intervals map[string]model.Interval, prevOrder *List[string], prev *Collection[*Interval]) (*List[string], *Collection[*Interval]) {
	keys := make([]string, 0, len(intervals))
	for k := range intervals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	nextIntervals := diffCollection(prev, intervals, func(m model.Interval, prev *Interval, ok bool) *Interval {
		if ok && sameList(prev.Words, m.Words) {
			return prev
		}
		return &Interval{Words: newList(m.Words)}
	})
	return reuseList(prevOrder, registry.Canonical(order, keys)), nextIntervals
}

func buildScene(m model.Scene, prev *Scene, ok bool) *Scene {
	next := &Scene{MediaID: m.MediaID, IntervalCount: m.IntervalCount}
	if ok && *next == *prev {
		return prev
	}
	return next
}

func buildMedia(m model.Media, prev *Media, ok bool) *Media {
	next := &Media{Status: m.Status, FileID: m.FileID, Name: m.Name, ContentType: m.ContentType, Size: m.Size}
	if ok && *next == *prev {
		return prev
	}
	return next
}

// Engine keeps the latest snapshot of a document.
type Engine struct {
	doc  *document.Document
	mu   sync.Mutex
	last *Project
	// seen is the token last was checked against. It runs ahead of last.token when changes
	// left the snapshot as it was.
	seen document.Token
}

func NewEngine(doc *document.Document) *Engine {
	return &Engine{doc: doc}
}

// Project returns a snapshot of the current state, sharing everything unchanged with the previous one.
func (e *Engine) Project() (*Project, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.doc.Read(func(v *document.View) error {
		if e.last != nil && e.seen == v.Token() {
			return nil
		}
		p, err := build(e.doc, v, e.last)
		if err != nil {
			return err
		}
		e.last, e.seen = p, v.Token()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.last, nil
}
