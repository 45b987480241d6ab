package viz

import (
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/astromechza/scriptsync/pkg/document"
	"github.com/astromechza/scriptsync/pkg/editor"
)

func TestSummary(t *testing.T) {
	d, err := document.New()
	assert.Equal(t, err, nil)
	e := editor.New(d, nil)
	assert.Equal(t, e.SetTitle("intro"), nil)
	_, err = e.CreateSection(nil)
	assert.Equal(t, err, nil)
	assert.Equal(t, Summary(d), `"intro" sections=1 scenes=0 media=0`)
}

func TestSummaryUninitialized(t *testing.T) {
	d, err := document.NewReplica()
	assert.Equal(t, err, nil)
	assert.Equal(t, strings.HasPrefix(Summary(d), "("), true)
}

func TestDot(t *testing.T) {
	d, err := document.New()
	assert.Equal(t, err, nil)
	assert.Equal(t, editor.New(d, nil).SetTitle("intro"), nil)

	out, err := Dot(d, Summary)
	assert.Equal(t, err, nil)
	assert.Equal(t, strings.HasPrefix(out, "digraph"), true)
	assert.Equal(t, strings.Contains(out, "init"), true)
	assert.Equal(t, strings.Contains(out, "setTitle"), true)
	assert.Equal(t, strings.Contains(out, "->"), true)
	assert.Equal(t, strings.Contains(out, `\"intro\" sections=0`), true)
}
