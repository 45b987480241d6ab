// Package config loads command configuration from flags, falling back to environment variables.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	EnvAddr         = "SCRIPTSYNC_ADDR"
	EnvLogLevel     = "SCRIPTSYNC_LOG_LEVEL"
	EnvLogFormat    = "SCRIPTSYNC_LOG_FORMAT"
	EnvDumpDir      = "SCRIPTSYNC_DUMP_DIR"
	EnvSyncInterval = "SCRIPTSYNC_SYNC_INTERVAL"
	EnvRoom         = "SCRIPTSYNC_ROOM"
	EnvDatabase     = "SCRIPTSYNC_DATABASE"

	DefaultAddr         = "localhost:8080"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultSyncInterval = time.Second
	DefaultRoom         = "default"
)

type Config struct {
	// Addr is the listen address of the agent, or the agent address a peer connects to.
	Addr      string
	LogLevel  string
	LogFormat string
	// DumpDir receives the saved documents on shutdown. Empty means the temp dir.
	DumpDir      string
	SyncInterval time.Duration
	Room         string
	// Database is the sqlite file rooms are snapshotted to. Empty disables snapshots.
	Database string

	// Args holds the positional arguments left after flag parsing.
	Args []string
}

// Load parses args for the command called name.
func Load(name string, args []string) (Config, error) {
	var cfg Config
	interval, err := time.ParseDuration(getenv(EnvSyncInterval, DefaultSyncInterval.String()))
	if err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", EnvSyncInterval, err)
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", getenv(EnvAddr, DefaultAddr), "agent address")
	fs.StringVar(&cfg.LogLevel, "log-level", getenv(EnvLogLevel, DefaultLogLevel), "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", getenv(EnvLogFormat, DefaultLogFormat), "text or json")
	fs.StringVar(&cfg.DumpDir, "dump-dir", getenv(EnvDumpDir, ""), "directory for document dumps")
	fs.DurationVar(&cfg.SyncInterval, "sync-interval", interval, "sync fallback interval")
	fs.StringVar(&cfg.Room, "room", getenv(EnvRoom, DefaultRoom), "room to join")
	fs.StringVar(&cfg.Database, "database", getenv(EnvDatabase, ""), "sqlite file for room snapshots")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.SyncInterval <= 0 {
		return cfg, fmt.Errorf("invalid sync interval %v: must be positive", cfg.SyncInterval)
	}
	if cfg.Addr == "" {
		return cfg, fmt.Errorf("addr must not be empty")
	}
	if cfg.Room == "" {
		return cfg, fmt.Errorf("room must not be empty")
	}
	cfg.Args = fs.Args()
	return cfg, nil
}

// DumpPath returns where a dump called file is written.
func (c Config) DumpPath(file string) string {
	dir := c.DumpDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, file)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
