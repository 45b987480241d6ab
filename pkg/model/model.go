// Package model holds the plain value types of a video script project. They carry no replication
// state and are used both as mutation inputs and as the decoded form of replicated entities.
package model

// SectionKind is the kind of a script section.
type SectionKind string

const (
	KindSpeech SectionKind = "speech"
	KindBreak  SectionKind = "break"
)

func (k SectionKind) Valid() bool {
	return k == KindSpeech || k == KindBreak
}

// SpeechStatus is the state of speech generation for a section. The empty status means generation
// was never requested.
type SpeechStatus string

const (
	SpeechNone      SpeechStatus = ""
	SpeechPending   SpeechStatus = "pending"
	SpeechCompleted SpeechStatus = "completed"
	SpeechFailed    SpeechStatus = "failed"
)

func (s SpeechStatus) Valid() bool {
	switch s {
	case SpeechNone, SpeechPending, SpeechCompleted, SpeechFailed:
		return true
	}
	return false
}

// MediaStatus is the upload state of a media item.
type MediaStatus string

const (
	MediaUploading MediaStatus = "uploading"
	MediaUploaded  MediaStatus = "uploaded"
	MediaFailed    MediaStatus = "failed"
)

func (s MediaStatus) Valid() bool {
	return s == MediaUploading || s == MediaUploaded || s == MediaFailed
}

type Word struct {
	Text           string  `json:"text"`
	DisplayedText  string  `json:"displayedText"`
	IsCaptionSplit bool    `json:"isCaptionSplit"`
	Start          float64 `json:"start"`
}

type Interval struct {
	Words []Word `json:"words"`
}

// Section is a generated section of the script.
type Section struct {
	Kind           SectionKind         `json:"kind"`
	Duration       float64             `json:"duration"`
	SpeechDuration float64             `json:"speechDuration"`
	SpeechStatus   SpeechStatus        `json:"speechStatus,omitempty"`
	IntervalOrder  []string            `json:"intervalOrder"`
	Intervals      map[string]Interval `json:"intervals"`
}

// SectionDraft is a working copy of a Section, keyed by the id of the section it edits.
type SectionDraft struct {
	Kind          SectionKind         `json:"kind"`
	Duration      float64             `json:"duration"`
	IntervalOrder []string            `json:"intervalOrder"`
	Intervals     map[string]Interval `json:"intervals"`
}

type Scene struct {
	// MediaID is empty when no media is attached.
	MediaID       string `json:"mediaId"`
	IntervalCount int    `json:"intervalCount"`
}

type Media struct {
	Status      MediaStatus `json:"status"`
	FileID      string      `json:"fileId"`
	Name        string      `json:"name"`
	ContentType string      `json:"contentType"`
	Size        int64       `json:"size"`
}

// Project is a plain, fully materialized copy of a project.
type Project struct {
	Title         string                  `json:"title"`
	Sections      map[string]Section      `json:"sections"`
	SectionDrafts map[string]SectionDraft `json:"sectionDrafts"`
	Scenes        map[string]Scene        `json:"scenes"`
	Media         map[string]Media        `json:"media"`
	SectionOrder  []string                `json:"sectionOrder"`
	SceneOrder    []string                `json:"sceneOrder"`
	MediaOrder    []string                `json:"mediaOrder"`
}

// NewSection returns the empty section a freshly created section starts as.
func NewSection() Section {
	return Section{
		Kind:          KindSpeech,
		IntervalOrder: []string{},
		Intervals:     map[string]Interval{},
	}
}

// Draft copies the editable fields of the section into a new draft.
func (s Section) Draft() SectionDraft {
	return SectionDraft{
		Kind:          s.Kind,
		Duration:      s.Duration,
		IntervalOrder: append([]string{}, s.IntervalOrder...),
		Intervals:     cloneIntervals(s.Intervals),
	}
}

func cloneIntervals(in map[string]Interval) map[string]Interval {
	out := make(map[string]Interval, len(in))
	for k, v := range in {
		out[k] = Interval{Words: append([]Word{}, v.Words...)}
	}
	return out
}
