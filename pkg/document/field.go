package document

import "strings"

// Field is a top level part of the project that changes are tracked for.
type Field int

const (
	FieldTitle Field = iota
	FieldSections
	FieldSectionDrafts
	FieldScenes
	FieldMedia
	FieldSectionOrder
	FieldSceneOrder
	FieldMediaOrder
	numFields
)

var fieldNames = [numFields]string{"title", "sections", "sectionDrafts", "scenes", "media", "sectionOrder", "sceneOrder", "mediaOrder"}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return "unknown"
	}
	return fieldNames[f]
}

// FieldSet is a set of fields.
type FieldSet uint16

// AllFields contains every field.
const AllFields FieldSet = 1<<numFields - 1

func (s FieldSet) Has(f Field) bool {
	return s&(1<<f) != 0
}

func (s FieldSet) With(f Field) FieldSet {
	return s | 1<<f
}

func (s FieldSet) Empty() bool {
	return s == 0
}

func (s FieldSet) Fields() []Field {
	out := make([]Field, 0, numFields)
	for f := Field(0); f < numFields; f++ {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s FieldSet) String() string {
	names := make([]string, 0, numFields)
	for _, f := range s.Fields() {
		names = append(names, f.String())
	}
	return strings.Join(names, ",")
}

// Versions records, per field, the token sequence of the last transaction or merge that touched it.
type Versions [numFields]uint64

func (v Versions) Of(f Field) uint64 {
	return v[f]
}
