// Package viz renders the change history of a project document as a graph.
package viz

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/automerge/automerge-go"
	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/astromechza/scriptsync/pkg/document"
)

// Labeler describes the state of a document after one change.
type Labeler func(at *document.Document) string

// Summary labels a state with its title and entity counts.
func Summary(at *document.Document) string {
	var out string
	err := at.Read(func(v *document.View) error {
		title, err := v.Title()
		if err != nil {
			return err
		}
		sections, err := v.Sections()
		if err != nil {
			return err
		}
		scenes, err := v.Scenes()
		if err != nil {
			return err
		}
		media, err := v.Media()
		if err != nil {
			return err
		}
		var counts [3]int
		for i, keys := range []func() ([]string, error){sections.Keys, scenes.Keys, media.Keys} {
			k, err := keys()
			if err != nil {
				return err
			}
			counts[i] = len(k)
		}
		out = fmt.Sprintf("%q sections=%d scenes=%d media=%d", title, counts[0], counts[1], counts[2])
		return nil
	})
	if err != nil {
		return "(" + err.Error() + ")"
	}
	return out
}

// Dot returns the change graph of doc in dot syntax.
func Dot(doc *document.Document, label Labeler) (string, error) {
	changes, err := doc.Changes()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("digraph \"log\" {\n")
	for _, change := range changes {
		at, err := doc.At(change.Hash())
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "    %q [label=%q]\n", change.Hash().String(), nodeLabel(change, label(at)))
		for _, hash := range change.Dependencies() {
			fmt.Fprintf(&b, "    %q -> %q\n", hash.String(), change.Hash().String())
		}
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func nodeLabel(change *automerge.Change, state string) string {
	return fmt.Sprintf("%s %s@%d %s\n%s", change.Hash().String()[:8], change.ActorID(), change.ActorSeq(), change.Message(), state)
}

// RenderToSvg writes the change graph of doc to outputPath.
func RenderToSvg(doc *document.Document, label Labeler, outputPath string) error {
	g := graphviz.New()

	graph, err := g.Graph()
	if err != nil {
		return fmt.Errorf("failed to setup graph: %w", err)
	}

	changes, err := doc.Changes()
	if err != nil {
		return err
	}

	nodeMap := make(map[string]*cgraph.Node)
	var edgeCounter uint64
	for _, change := range changes {
		at, err := doc.At(change.Hash())
		if err != nil {
			return err
		}
		n, err := graph.CreateNode(change.Hash().String())
		if err != nil {
			return fmt.Errorf("failed to create node: %w", err)
		}
		n.SetLabel(nodeLabel(change, label(at)))
		nodeMap[n.Name()] = n

		for _, hash := range change.Dependencies() {
			_, err := graph.CreateEdge(strconv.Itoa(int(atomic.AddUint64(&edgeCounter, 1))), nodeMap[hash.String()], n)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
		}
	}

	var buff bytes.Buffer
	if err := g.Render(graph, graphviz.SVG, &buff); err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}

	if err := os.WriteFile(outputPath, buff.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}

// RenderToTemp renders into a new file in the temp dir and returns its path.
func RenderToTemp(doc *document.Document, label Labeler) (string, error) {
	tf := filepath.Join(os.TempDir(), fmt.Sprintf("%d%d.svg", time.Now().UnixNano(), rand.Int()))
	if err := RenderToSvg(doc, label, tf); err != nil {
		return "", err
	}
	return tf, nil
}
