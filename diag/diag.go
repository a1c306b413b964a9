// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

// Package diag carries the fixed set of diagnostic codes the affinity
// manager emits to an external log sink, kept decoupled from any one
// logging library so the manager itself never imports a concrete
// logger.
package diag

import (
	"github.com/hashicorp/go-hclog"
)

// Code identifies one of the manager's fixed diagnostic events.
type Code int

const (
	// CodeParseError: a CPU range string failed to parse.
	CodeParseError Code = iota
	// CodeThreadProcessConflict: a class's mask is not a subset of the
	// process mask.
	CodeThreadProcessConflict
	// CodeForegroundBackgroundConflict: a background class's mask
	// overlaps the foreground mask. Non-fatal.
	CodeForegroundBackgroundConflict
	// CodeNUMAUnavailable: the kernel reports NUMA as unavailable.
	CodeNUMAUnavailable
	// CodeUsingDummyManager: the no-op fallback manager was selected.
	CodeUsingDummyManager
)

func (c Code) String() string {
	switch c {
	case CodeParseError:
		return "cant_parse_cpu_string"
	case CodeThreadProcessConflict:
		return "thread_process_conflict"
	case CodeForegroundBackgroundConflict:
		return "foreground_background_conflict"
	case CodeNUMAUnavailable:
		return "numa_unavailable"
	case CodeUsingDummyManager:
		return "using_dummy_manager"
	default:
		return "unknown"
	}
}

// Sink receives the manager's diagnostic events. Error and Warn carry
// hard and soft configuration failures respectively; Info is used
// only for one-time startup notices.
type Sink interface {
	Error(code Code, msg string, args ...any)
	Warn(code Code, msg string, args ...any)
	Info(code Code, msg string, args ...any)
}

// hclogSink adapts an hclog.Logger to Sink, tagging every line with the
// code's name the way the manager's diagnostic taxonomy expects callers
// to be able to filter on.
type hclogSink struct {
	log hclog.Logger
}

// NewHCLogSink wraps logger as a Sink.
func NewHCLogSink(logger hclog.Logger) Sink {
	return &hclogSink{log: logger}
}

func (s *hclogSink) Error(code Code, msg string, args ...any) {
	s.log.Error(msg, append([]any{"code", code.String()}, args...)...)
}

func (s *hclogSink) Warn(code Code, msg string, args ...any) {
	s.log.Warn(msg, append([]any{"code", code.String()}, args...)...)
}

func (s *hclogSink) Info(code Code, msg string, args ...any) {
	s.log.Info(msg, append([]any{"code", code.String()}, args...)...)
}

// discardSink drops every event; useful for tests and embedders that
// don't want manager diagnostics surfaced.
type discardSink struct{}

// Discard is a Sink that drops every event.
var Discard Sink = discardSink{}

func (discardSink) Error(Code, string, ...any) {}
func (discardSink) Warn(Code, string, ...any)  {}
func (discardSink) Info(Code, string, ...any)  {}
