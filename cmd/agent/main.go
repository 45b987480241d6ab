// Command agent hosts project rooms. Every room holds one replica that peers sync with over a
// websocket, and exposes the editing operations over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/astromechza/scriptsync/pkg/config"
	"github.com/astromechza/scriptsync/pkg/logging"
	"github.com/astromechza/scriptsync/pkg/store"
	"github.com/astromechza/scriptsync/pkg/viz"
)

const backupInterval = 5 * time.Second

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	cfg, err := config.Load("agent", os.Args[1:])
	if err != nil {
		return err
	}
	logger := logging.WithComponent(logging.NewLogger(cfg.LogLevel, cfg.LogFormat), "agent")
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st *store.Store
	if cfg.Database != "" {
		logger.Info("opening database", "path", cfg.Database)
		if st, err = store.Open(ctx, cfg.Database); err != nil {
			return err
		}
		defer st.Close()
	}
	rs := newRooms(logger, st)
	if err := rs.restore(ctx); err != nil {
		return err
	}

	s := &server{rooms: rs, logger: logger, syncInterval: cfg.SyncInterval}
	httpServer := &http.Server{Addr: cfg.Addr, Handler: s.router()}

	wg := new(sync.WaitGroup)

	if st != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t := time.NewTicker(backupInterval)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					rs.backup(ctx)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen failed", "err", err)
			cancel()
		}
	}()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-exit:
		logger.Info("signal caught", "sig", sig)
	case <-ctx.Done():
	}
	cancel()
	_ = httpServer.Close()

	wg.Wait()

	rs.backup(context.Background())
	rs.each(func(rm *room) {
		dump(logger, cfg, rm)
	})
	return nil
}

func dump(logger *slog.Logger, cfg config.Config, rm *room) {
	tf := cfg.DumpPath(rm.id + ".automerge")
	if err := os.WriteFile(tf, rm.doc.Save(), 0o644); err != nil {
		logger.Error("failed to dump", "room", rm.id, "err", err)
		return
	}
	logger.Info("dumped", "room", rm.id, "path", tf)
	if svgPath, err := viz.RenderToTemp(rm.doc, viz.Summary); err != nil {
		logger.Error("failed to render", "room", rm.id, "err", err)
	} else {
		logger.Info("rendered", "room", rm.id, "path", "file://"+svgPath)
	}
}
