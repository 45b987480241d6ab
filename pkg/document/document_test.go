package document

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/astromechza/scriptsync/pkg/model"
	"github.com/astromechza/scriptsync/pkg/registry"
)

func newDocument(t *testing.T) *Document {
	t.Helper()
	d, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func title(t *testing.T, d *Document) string {
	t.Helper()
	var out string
	if err := d.Read(func(v *View) error {
		var err error
		out, err = v.Title()
		return err
	}); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return out
}

func sectionOrder(t *testing.T, d *Document) []string {
	t.Helper()
	var out []string
	if err := d.Read(func(v *View) error {
		sections, err := v.Sections()
		if err != nil {
			return err
		}
		out, err = sections.Order()
		return err
	}); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return out
}

func addSection(t *testing.T, d *Document, id string) {
	t.Helper()
	if err := d.Transact(func(tx *Tx) error {
		sections, err := tx.Sections()
		if err != nil {
			return err
		}
		return sections.Append(id, model.NewSection())
	}); err != nil {
		t.Fatalf("Transact() error = %v", err)
	}
}

func TestNewIsEmptyProject(t *testing.T) {
	d := newDocument(t)
	assert.Equal(t, d.Initialized(), true)
	assert.Equal(t, title(t, d), "")
	assert.Equal(t, sectionOrder(t, d), []string{})
}

func TestReplicaIsUninitialized(t *testing.T) {
	d, err := NewReplica()
	if err != nil {
		t.Fatalf("NewReplica() error = %v", err)
	}
	assert.Equal(t, d.Initialized(), false)
	err = d.Read(func(v *View) error { return nil })
	assert.Equal(t, errors.Is(err, ErrDocumentUninitialized), true)
	err = d.Transact(func(tx *Tx) error { return tx.SetTitle("x") })
	assert.Equal(t, errors.Is(err, ErrDocumentUninitialized), true)
}

func TestTransactAdvancesToken(t *testing.T) {
	d := newDocument(t)
	before := d.Token()
	if err := d.Transact(func(tx *Tx) error { return tx.SetTitle("hello") }); err != nil {
		t.Fatalf("Transact() error = %v", err)
	}
	assert.NotEqual(t, d.Token(), before)
	assert.Equal(t, title(t, d), "hello")

	// writing nothing commits nothing
	after := d.Token()
	if err := d.Transact(func(tx *Tx) error { return tx.SetTitle("hello") }); err != nil {
		t.Fatalf("Transact() error = %v", err)
	}
	assert.Equal(t, d.Token(), after)
}

func TestTransactIsAtomic(t *testing.T) {
	d := newDocument(t)
	addSection(t, d, "a")
	token := d.Token()
	heads := d.Heads()

	boom := errors.New("boom")
	err := d.Transact(func(tx *Tx) error {
		if err := tx.SetTitle("half done"); err != nil {
			return err
		}
		sections, err := tx.Sections()
		if err != nil {
			return err
		}
		if err := sections.Append("b", model.NewSection()); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, errors.Is(err, boom), true)
	assert.Equal(t, title(t, d), "")
	assert.Equal(t, sectionOrder(t, d), []string{"a"})
	assert.Equal(t, d.Token(), token)
	assert.Equal(t, d.Heads(), heads)
}

func TestNestedTransactFlattens(t *testing.T) {
	d := newDocument(t)
	changes, _ := d.Changes()
	before := len(changes)
	err := d.Transact(func(tx *Tx) error {
		if err := tx.SetTitle("outer"); err != nil {
			return err
		}
		return tx.Transact(func(inner *Tx) error {
			sections, err := inner.Sections()
			if err != nil {
				return err
			}
			return sections.Append("a", model.NewSection())
		})
	})
	assert.Equal(t, err, nil)
	changes, _ = d.Changes()
	assert.Equal(t, len(changes), before+1)
}

func TestVersionsTrackTouchedFields(t *testing.T) {
	d := newDocument(t)
	var initial Versions
	_ = d.Read(func(v *View) error {
		initial = v.Versions()
		return nil
	})
	addSection(t, d, "a")
	var next Versions
	_ = d.Read(func(v *View) error {
		next = v.Versions()
		return nil
	})
	assert.NotEqual(t, next.Of(FieldSections), initial.Of(FieldSections))
	assert.NotEqual(t, next.Of(FieldSectionOrder), initial.Of(FieldSectionOrder))
	assert.Equal(t, next.Of(FieldScenes), initial.Of(FieldScenes))
	assert.Equal(t, next.Of(FieldTitle), initial.Of(FieldTitle))
}

func TestReadViewIsReadOnly(t *testing.T) {
	d := newDocument(t)
	err := d.Read(func(v *View) error {
		sections, err := v.Sections()
		if err != nil {
			return err
		}
		return sections.Append("a", model.NewSection())
	})
	assert.Equal(t, errors.Is(err, registry.ErrReadOnly), true)
	assert.Equal(t, sectionOrder(t, d), []string{})
}

func TestSubscribe(t *testing.T) {
	d := newDocument(t)
	changes, cancel := d.Subscribe()
	defer cancel()

	addSection(t, d, "a")
	if err := d.Transact(func(tx *Tx) error { return tx.SetTitle("t") }); err != nil {
		t.Fatalf("Transact() error = %v", err)
	}

	select {
	case c := <-changes:
		// both commits coalesce into one notification
		assert.Equal(t, c.Token, d.Token())
		assert.Equal(t, c.Fields.Has(FieldSections), true)
		assert.Equal(t, c.Fields.Has(FieldTitle), true)
		assert.Equal(t, c.Remote, false)
	case <-time.After(time.Second):
		t.Fatalf("no change delivered")
	}

	cancel()
	_, open := <-changes
	assert.Equal(t, open, false)
}

func TestForkAndMergeConverge(t *testing.T) {
	d := newDocument(t)
	addSection(t, d, "a")
	other, err := d.Fork()
	if err != nil {
		t.Fatalf("Fork() error = %v", err)
	}
	assert.NotEqual(t, other.ActorID(), d.ActorID())

	addSection(t, d, "b")
	addSection(t, other, "c")

	changes, cancel := d.Subscribe()
	defer cancel()
	assert.Equal(t, d.Merge(other), nil)
	assert.Equal(t, other.Merge(d), nil)
	assert.Equal(t, sectionOrder(t, d), sectionOrder(t, other))
	assert.Equal(t, len(sectionOrder(t, d)), 3)

	select {
	case c := <-changes:
		assert.Equal(t, c.Remote, true)
		assert.Equal(t, c.Fields, AllFields)
	default:
		t.Fatalf("merge did not notify")
	}

	// merging again brings nothing new
	token := d.Token()
	assert.Equal(t, d.Merge(other), nil)
	assert.Equal(t, d.Token(), token)
}

func TestSaveLoad(t *testing.T) {
	d := newDocument(t)
	addSection(t, d, "a")
	loaded, err := Load(d.Save())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	assert.Equal(t, sectionOrder(t, loaded), []string{"a"})

	_, err = Load([]byte("not a document"))
	assert.NotEqual(t, err, nil)
}

func TestIncremental(t *testing.T) {
	d := newDocument(t)
	replica, err := Load(d.Save())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	_ = d.SaveIncremental()
	addSection(t, d, "a")
	assert.Equal(t, replica.LoadIncremental(d.SaveIncremental()), nil)
	assert.Equal(t, sectionOrder(t, replica), []string{"a"})
}

func TestSyncMessages(t *testing.T) {
	d := newDocument(t)
	addSection(t, d, "a")
	replica, err := NewReplica()
	if err != nil {
		t.Fatalf("NewReplica() error = %v", err)
	}
	s1, s2 := d.NewSyncState(), replica.NewSyncState()

	exchange := func() {
		for moved := true; moved; {
			moved = false
			for _, dir := range [][2]*SyncState{{s1, s2}, {s2, s1}} {
				for {
					msg, ok := dir[0].GenerateMessage()
					if !ok {
						break
					}
					moved = true
					if err := dir[1].ReceiveMessage(msg); err != nil {
						t.Fatalf("ReceiveMessage() error = %v", err)
					}
				}
			}
		}
	}
	exchange()
	assert.Equal(t, replica.Initialized(), true)
	assert.Equal(t, sectionOrder(t, replica), []string{"a"})

	addSection(t, replica, "b")
	exchange()
	assert.Equal(t, sectionOrder(t, d), []string{"a", "b"})

	restored, err := d.LoadSyncState(s1.Save())
	assert.Equal(t, err, nil)
	assert.NotEqual(t, restored, nil)
}

func TestAtCheckout(t *testing.T) {
	d := newDocument(t)
	if err := d.Transact(func(tx *Tx) error { return tx.SetTitle("first") }); err != nil {
		t.Fatalf("Transact() error = %v", err)
	}
	heads := d.Heads()
	if err := d.Transact(func(tx *Tx) error { return tx.SetTitle("second") }); err != nil {
		t.Fatalf("Transact() error = %v", err)
	}
	at, err := d.At(heads...)
	if err != nil {
		t.Fatalf("At() error = %v", err)
	}
	assert.Equal(t, title(t, at), "first")
	assert.Equal(t, title(t, d), "second")
}

func TestFieldSet(t *testing.T) {
	s := FieldSet(0).With(FieldTitle).With(FieldMediaOrder)
	assert.Equal(t, s.Has(FieldTitle), true)
	assert.Equal(t, s.Has(FieldScenes), false)
	assert.Equal(t, s.String(), "title,mediaOrder")
	assert.Equal(t, len(AllFields.Fields()), int(numFields))
	assert.Equal(t, FieldSet(0).Empty(), true)
}
