// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

// Package config loads the affinity manager's per-class CPU-range
// configuration from a flat KEY=VALUE file, using the same
// go-envparse grammar used elsewhere for environment-file ingestion.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-envparse"

	"github.com/coreaffinity/numacore/class"
)

// Config maps each thread class to its CPU-range string, or nil if the
// class is disabled.
type Config map[class.Thread]*string

// New returns a Config with every class disabled.
func New() Config {
	cfg := make(Config, len(class.All()))
	for _, c := range class.All() {
		cfg[c] = nil
	}
	return cfg
}

// Set enables c with the given CPU range string.
func (cfg Config) Set(c class.Thread, ranges string) {
	cfg[c] = &ranges
}

// Disable marks c as disabled.
func (cfg Config) Disable(c class.Thread) {
	cfg[c] = nil
}

// Clone returns a deep copy of cfg.
func (cfg Config) Clone() Config {
	out := make(Config, len(cfg))
	for c, v := range cfg {
		if v == nil {
			out[c] = nil
			continue
		}
		ranges := *v
		out[c] = &ranges
	}
	return out
}

var classByName = map[string]class.Thread{
	"FOREGROUND":         class.Foreground,
	"LOG_WRITER":         class.LogWriter,
	"LOG_FLUSHER":        class.LogFlusher,
	"LOG_WRITE_NOTIFIER": class.LogWriteNotifier,
	"LOG_FLUSH_NOTIFIER": class.LogFlushNotifier,
	"LOG_CLOSER":         class.LogCloser,
	"LOG_CHECKPOINTER":   class.LogCheckpointer,
	"PURGE_COORDINATOR":  class.PurgeCoordinator,
}

// Load reads a flat KEY=VALUE configuration from r, one line per thread
// class, e.g.:
//
//	FOREGROUND=0-15
//	LOG_WRITER=16
//	LOG_FLUSHER=
//
// A class whose key is absent, or whose value is the empty string, is
// disabled. An unrecognized key is an error.
func Load(r io.Reader) (Config, error) {
	raw, err := envparse.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := New()
	for key, value := range raw {
		c, ok := classByName[key]
		if !ok {
			return nil, fmt.Errorf("config: unknown thread class %q", key)
		}
		if value == "" {
			continue
		}
		v := value
		cfg[c] = &v
	}
	return cfg, nil
}

// LoadFile reads a configuration from the named file.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Load(f)
}
