// Command debug loads a dumped room, prints the projected project and its change history as a
// dot digraph, and optionally renders the history to an SVG.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/astromechza/scriptsync/pkg/document"
	"github.com/astromechza/scriptsync/pkg/logging"
	"github.com/astromechza/scriptsync/pkg/projection"
	"github.com/astromechza/scriptsync/pkg/viz"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	svgVar := flag.String("svg", "", "also render the change graph to this file")
	levelVar := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()
	slog.SetDefault(logging.NewLogger(*levelVar, "text"))

	if flag.NArg() != 1 {
		return fmt.Errorf("expected one position argument: the file to read")
	}
	buff, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	doc, err := document.Load(buff)
	if err != nil {
		return err
	}
	buff = nil
	slog.Info("loaded heads", "heads", doc.Heads())

	changes, err := doc.Changes()
	if err != nil {
		return err
	}
	for i, change := range changes {
		slog.Info("change", "i", fmt.Sprintf("%4d", i), "hash", change.Hash(), "actor", change.ActorID(), "message", change.Message(), "dep", change.Dependencies())
	}

	p, err := projection.Build(doc, nil)
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(p.ToModel(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	slog.Info("loaded project", "project", string(encoded))

	dot, err := viz.Dot(doc, viz.Summary)
	if err != nil {
		return err
	}
	fmt.Print(dot)

	if *svgVar != "" {
		if err := viz.RenderToSvg(doc, viz.Summary, *svgVar); err != nil {
			return err
		}
		slog.Info("rendered", "path", "file://"+*svgVar)
	}
	return nil
}
