// Package syncer runs the automerge sync protocol for a document over a websocket.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/astromechza/scriptsync/pkg/document"
)

// Options tune a sync session.
type Options struct {
	// Interval is how often pending messages are flushed when no change notification arrives.
	Interval time.Duration
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func readAndReceiveMessage(conn *websocket.Conn, state *document.SyncState) error {
	mt, p, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}
	switch mt {
	case websocket.BinaryMessage:
		if err := state.ReceiveMessage(p); err != nil {
			return err
		}
	default:
	}
	return nil
}

// flush writes messages until the peer is up to date as far as this side knows.
func flush(mu *sync.Mutex, conn *websocket.Conn, state *document.SyncState) error {
	for {
		msg, ok := state.GenerateMessage()
		if !ok {
			return nil
		}
		mu.Lock()
		err := conn.WriteMessage(websocket.BinaryMessage, msg)
		mu.Unlock()
		if err != nil {
			return fmt.Errorf("failed to write message: %w", err)
		}
	}
}

// Sync exchanges sync messages with the peer on conn until ctx is done or the connection fails.
// Local changes are pushed as soon as the document reports them. Sync closes conn on return.
// A clean close by either side returns nil.
func Sync(ctx context.Context, conn *websocket.Conn, doc *document.Document, state *document.SyncState, opts Options) error {
	opts = opts.withDefaults()
	opts.Logger.Info("syncing", "remote", conn.RemoteAddr().String())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	changes, unsubscribe := doc.Subscribe()
	defer unsubscribe()

	writeMu := new(sync.Mutex)
	errs := make(chan error, 2)
	readers, writers := new(sync.WaitGroup), new(sync.WaitGroup)
	// set once this side closes conn; reads failing after that are part of the shutdown
	closing := new(atomic.Bool)

	readers.Add(1)
	go func() {
		defer readers.Done()
		defer cancel()
		for {
			if err := readAndReceiveMessage(conn, state); err != nil {
				if !closing.Load() {
					errs <- err
				}
				return
			}
		}
	}()

	writers.Add(1)
	go func() {
		defer writers.Done()
		defer cancel()
		if err := flush(writeMu, conn, state); err != nil {
			errs <- err
			return
		}
		t := time.NewTicker(opts.Interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
			case _, ok := <-changes:
				if !ok {
					return
				}
			case <-ctx.Done():
				writeMu.Lock()
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second),
				)
				writeMu.Unlock()
				return
			}
			if err := flush(writeMu, conn, state); err != nil {
				errs <- err
				return
			}
		}
	}()

	<-ctx.Done()
	writers.Wait()
	closing.Store(true)
	_ = conn.Close()
	readers.Wait()
	close(errs)

	for err := range errs {
		if isClosed(err) {
			continue
		}
		opts.Logger.Error("sync failed", "err", err)
		return err
	}
	opts.Logger.Info("sync finished")
	return nil
}

func isClosed(err error) bool {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway
	}
	return errors.Is(err, websocket.ErrCloseSent) || errors.Is(err, net.ErrClosed)
}
