// Command peer joins a room on an agent, keeps its replica in sync and makes random edits until
// interrupted. It is used to exercise convergence between several replicas.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/astromechza/scriptsync/pkg/config"
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
	cfg, err := config.Load("peer", os.Args[1:])
	if err != nil {
		return err
	}
	logger := logging.WithRoom(logging.WithComponent(logging.NewLogger(cfg.LogLevel, cfg.LogFormat), "peer"), cfg.Room)
	slog.SetDefault(logger)

	baseUrl, err := url.Parse("http://" + cfg.Addr)
	if err != nil {
		return err
	}
	doc, err := fetch(baseUrl, cfg.Room, logger)
	if err != nil {
		return err
	}
	logger.Info("established base doc", "heads", doc.Heads(), "actor", doc.ActorID())

	c := &client{
		baseUrl:  baseUrl,
		room:     cfg.Room,
		doc:      doc,
		editor:   editor.New(doc, logger),
		logger:   logger,
		interval: cfg.SyncInterval,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := new(sync.WaitGroup)

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.connectAndSyncContinuously(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.editRandomlyContinuously(ctx)
	}()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-exit
	logger.Info("signal caught", "sig", sig)
	cancel()

	wg.Wait()

	tf := cfg.DumpPath(doc.ActorID() + ".automerge")
	if err := os.WriteFile(tf, doc.Save(), 0o644); err != nil {
		return err
	}
	logger.Info("dumped", "dump", tf)
	return nil
}

// fetch makes sure the room exists and loads its latest state into a new replica.
func fetch(baseUrl *url.URL, room string, logger *slog.Logger) (*document.Document, error) {
	resp, err := http.DefaultClient.Post(baseUrl.JoinPath("rooms", room).String(), "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	_ = resp.Body.Close()

	resp, err = http.DefaultClient.Get(baseUrl.JoinPath("rooms", room, "latest").String())
	if err != nil {
		return nil, fmt.Errorf("failed to get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body from get: %w", err)
	}
	return document.Load(raw, document.WithLogger(logger))
}

type client struct {
	baseUrl  *url.URL
	room     string
	doc      *document.Document
	editor   *editor.Editor
	logger   *slog.Logger
	interval time.Duration
	rand     *rand.Rand
}

func (c *client) connectAndSyncContinuously(ctx context.Context) {
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		if err := c.connectAndSync(ctx); err != nil {
			c.logger.Error("failed to sync", "err", err)
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			c.logger.Info("stopping scheduled sync")
			return
		}
	}
}

func (c *client) connectAndSync(ctx context.Context) error {
	u := c.baseUrl.JoinPath("rooms", c.room, "sync")
	u.Scheme = "ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	opts := syncer.Options{Interval: c.interval, Logger: c.logger}
	if err := syncer.Sync(ctx, conn, c.doc, c.doc.NewSyncState(), opts); err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}
	return nil
}

func (c *client) editRandomlyContinuously(ctx context.Context) {
	engine := projection.NewEngine(c.doc)
	for {
		t := time.NewTimer(time.Second + time.Second*time.Duration(c.rand.Intn(5)))
		select {
		case <-t.C:
			p, err := engine.Project()
			if err != nil {
				c.logger.Error("failed to project", "err", err)
				continue
			}
			if op, err := randomEdit(c.editor, p, c.rand); err != nil {
				c.logger.Error("edit failed", "op", op, "err", err)
			} else {
				c.logger.Info("edited", "op", op, "heads", c.doc.Heads())
			}
		case <-ctx.Done():
			t.Stop()
			c.logger.Info("stopping scheduled edits")
			return
		}
	}
}

// randomEdit applies one randomly chosen operation that is valid against p.
func randomEdit(e *editor.Editor, p *projection.Project, r *rand.Rand) (string, error) {
	order := p.SectionOrder.Slice()
	pick := func() string { return order[r.Intn(len(order))] }
	if len(order) == 0 {
		_, err := e.CreateSection(nil)
		return "createSection", err
	}
	switch r.Intn(7) {
	case 0:
		return "setTitle", e.SetTitle(fmt.Sprintf("draft %d", r.Intn(1000)))
	case 1:
		_, err := e.CreateSection(&editor.Anchor{ID: pick(), Before: r.Intn(2) == 0})
		return "createSection", err
	case 2:
		return "reorderSections", e.ReorderSections(pick(), pick())
	case 3:
		if len(order) < 3 {
			_, err := e.CreateSection(nil)
			return "createSection", err
		}
		return "deleteSection", e.DeleteSection(pick())
	case 4:
		id := pick()
		err := e.Do(func(b *editor.Batch) error {
			if _, ok := p.SectionDrafts.Get(id); !ok {
				if err := b.CreateSectionDraft(id); err != nil {
					return err
				}
			}
			d := float64(r.Intn(60))
			if err := b.UpdateSectionDraft(id, editor.DraftUpdate{Duration: &d}); err != nil {
				return err
			}
			return b.PromoteSectionDraft(id)
		})
		return "editSection", err
	case 5:
		_, err := e.CreateInterval(editor.InSection(pick()), []model.Word{{Text: "hello", DisplayedText: "Hello"}}, nil)
		return "createInterval", err
	default:
		_, err := e.Repair()
		return "repair", err
	}
}
