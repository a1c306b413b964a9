// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

// Package affinity implements the NUMA-aware CPU affinity manager:
// foreground worker threads are placed dynamically across per-node
// groups by load, while a fixed set of background roles are pinned
// statically to administrator-configured masks. A single instance is
// created per process via CreateInstance and retrieved thereafter
// with GetInstance, and discarded with FreeInstance.
package affinity

import (
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/coreaffinity/numacore/class"
	"github.com/coreaffinity/numacore/config"
	"github.com/coreaffinity/numacore/cpuset"
	"github.com/coreaffinity/numacore/diag"
	"github.com/coreaffinity/numacore/hw"
	"github.com/coreaffinity/numacore/idset"
	"github.com/coreaffinity/numacore/topology"
)

// Manager is the affinity manager's public surface. All methods are
// safe for concurrent use.
type Manager interface {
	// BindToGroup places tid into the least-loaded foreground group.
	BindToGroup(tid hw.ThreadID) bool
	// UnbindFromGroup drops tid's foreground group registration.
	UnbindFromGroup(tid hw.ThreadID) bool
	// BindToTarget statically pins tid to class c's configured mask.
	BindToTarget(c class.Thread, tid hw.ThreadID) bool
	// Reschedule applies cfg's setting for changed and migrates any
	// already-placed threads to match.
	Reschedule(cfg config.Config, changed class.Thread) bool
	// TakeSnapshot appends a human-readable per-group load summary to
	// buf, never writing past len(buf), and returns the written
	// prefix. A nil or zero-length buf is a no-op.
	TakeSnapshot(buf []byte) []byte
	// TotalNodeNumber returns the number of NUMA nodes, or -1 if the
	// manager is the no-op fallback.
	TotalNodeNumber() int
	// CPUNumberPerNode returns the number of CPUs per node, or -1 if
	// the manager is the no-op fallback.
	CPUNumberPerNode() int
}

// numaManager is the real, NUMA-backed Manager implementation.
type numaManager struct {
	mu      sync.Mutex
	sink    diag.Sink
	topo    topology.Snapshot
	classes map[class.Thread]*classEntry
	groups  []*group
}

var (
	instanceMu sync.Mutex
	instance   Manager
)

// CreateInstance builds the process-wide affinity manager from cfg,
// replacing any prior instance. On a platform or kernel without NUMA
// support it falls back to the no-op dummy manager rather than
// failing. A nil sink discards all diagnostics.
func CreateInstance(cfg config.Config, sink diag.Sink) (Manager, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if sink == nil {
		sink = diag.Discard
	}

	if !platformAvailable() {
		sink.Warn(diag.CodeNUMAUnavailable, "NUMA is not available on this platform")
		sink.Info(diag.CodeUsingDummyManager, "falling back to the no-op affinity manager")
		instance = newDummyManager()
		return instance, nil
	}

	probe := topology.NewProbe()
	snap, err := probe.Scan()
	if err != nil {
		return nil, &TopologyError{Err: err}
	}

	mgr, err := newNUMAManager(*snap, cfg, sink)
	if err != nil {
		return nil, err
	}
	instance = mgr
	return instance, nil
}

// GetInstance returns the process-wide manager created by
// CreateInstance, or (nil, false) if none has been created yet.
func GetInstance() (Manager, bool) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance, instance != nil
}

// FreeInstance discards the process-wide manager. A subsequent
// GetInstance reports false until CreateInstance is called again.
func FreeInstance() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instance = nil
}

// newNUMAManager parses and validates cfg against topo, builds the
// foreground group table if foreground starts out enabled, and
// returns the ready-to-serve manager. Every class is validated before
// any failure is reported, so an administrator fixing a bad config
// file sees every offending class in one pass instead of one at a
// time; the collected failures are combined with go-multierror, the
// teacher's own convention for reporting more than one independent
// failure from a single call.
func newNUMAManager(topo topology.Snapshot, cfg config.Config, sink diag.Sink) (*numaManager, error) {
	m := &numaManager{
		sink:    sink,
		topo:    topo,
		classes: make(map[class.Thread]*classEntry, len(class.All())),
	}
	for _, c := range class.All() {
		m.classes[c] = &classEntry{tids: idset.Empty[hw.ThreadID]()}
	}

	var result *multierror.Error
	for _, c := range class.All() {
		ranges := cfg[c]
		if ranges == nil {
			continue
		}
		mask, err := cpuset.Parse(*ranges, topo.TotalCPUs)
		if err != nil {
			result = multierror.Append(result, &ParseError{Class: c, Input: *ranges, Err: err})
			continue
		}
		if err := validateSubset(mask, topo.ProcessMask, c); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		m.classes[c].enabled = true
		m.classes[c].mask = mask
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	fg := m.classes[class.Foreground]
	if fg.enabled {
		warnOverlaps(sink, m.classes, fg.mask)
		groups, err := buildGroups(topo, fg.mask)
		if err != nil {
			return nil, err
		}
		m.groups = groups
	}

	return m, nil
}

func (m *numaManager) TotalNodeNumber() int {
	return m.topo.TotalNodes
}

func (m *numaManager) CPUNumberPerNode() int {
	return m.topo.CPUsPerNode
}
