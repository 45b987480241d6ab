// Command simulate runs two replicas side by side, lets them make random concurrent edits and
// syncs them in memory after every round, checking that they converge.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"reflect"

	"github.com/astromechza/scriptsync/pkg/document"
	"github.com/astromechza/scriptsync/pkg/editor"
	"github.com/astromechza/scriptsync/pkg/logging"
	"github.com/astromechza/scriptsync/pkg/model"
	"github.com/astromechza/scriptsync/pkg/projection"
	"github.com/astromechza/scriptsync/pkg/syncer"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	roundsVar := flag.Int("rounds", 20, "number of edit rounds")
	seedVar := flag.Int64("seed", 1, "random seed")
	levelVar := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()
	logger := logging.WithComponent(logging.NewLogger(*levelVar, "text"), "simulate")
	slog.SetDefault(logger)

	doc, err := document.New(document.WithLogger(logger))
	if err != nil {
		return err
	}
	doc2, err := document.NewReplica(document.WithLogger(logger))
	if err != nil {
		return err
	}
	ss, ss2 := doc.NewSyncState(), doc2.NewSyncState()

	// get the empty replica up to date first
	if _, err := syncer.Exchange(ss, ss2, logger); err != nil {
		return err
	}
	slog.Info("heads", "h", doc.Heads())
	slog.Info("heads", "h", doc2.Heads())

	r := rand.New(rand.NewSource(*seedVar))
	editors := []*editor.Editor{editor.New(doc, logger), editor.New(doc2, logger)}
	for round := 0; round < *roundsVar; round++ {
		for _, e := range editors {
			p, err := projection.Build(e.Document(), nil)
			if err != nil {
				return err
			}
			op, err := randomEdit(e, p, r)
			logger.Debug("edited", "round", round, "actor", e.Document().ActorID(), "op", op, "err", err)
		}
		n, err := syncer.Exchange(ss, ss2, logger)
		if err != nil {
			return err
		}
		p1, err := projection.Build(doc, nil)
		if err != nil {
			return err
		}
		p2, err := projection.Build(doc2, nil)
		if err != nil {
			return err
		}
		if !reflect.DeepEqual(p1.ToModel(), p2.ToModel()) {
			return fmt.Errorf("replicas diverged after round %d", round)
		}
		slog.Info("converged", "round", round, "messages", n, "sections", p1.Sections.Len(), "heads", doc.Heads())
	}

	final, err := projection.Build(doc, nil)
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(final.ToModel(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func randomEdit(e *editor.Editor, p *projection.Project, r *rand.Rand) (string, error) {
	order := p.SectionOrder.Slice()
	if len(order) == 0 {
		_, err := e.CreateSection(nil)
		return "createSection", err
	}
	pick := func() string { return order[r.Intn(len(order))] }
	switch r.Intn(5) {
	case 0:
		_, err := e.CreateSection(editor.After(pick()))
		return "createSection", err
	case 1:
		return "reorderSections", e.ReorderSections(pick(), pick())
	case 2:
		return "deleteSection", e.DeleteSection(pick())
	case 3:
		_, err := e.CreateInterval(editor.InSection(pick()), []model.Word{{Text: "word"}}, nil)
		return "createInterval", err
	default:
		return "setTitle", e.SetTitle(fmt.Sprintf("title %d", r.Intn(100)))
	}
}
