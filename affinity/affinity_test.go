// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

package affinity

import (
	"fmt"
	"testing"

	"github.com/shoenig/test/must"

	"github.com/coreaffinity/numacore/class"
	"github.com/coreaffinity/numacore/config"
	"github.com/coreaffinity/numacore/cpuset"
	"github.com/coreaffinity/numacore/diag"
	"github.com/coreaffinity/numacore/hw"
	"github.com/coreaffinity/numacore/topology"
)

// fakeSyscall replaces affinitySyscall for the duration of a test,
// recording every (tid, mask) pair applied instead of issuing a real
// sched_setaffinity call against a fabricated thread id. failOn, if
// set, makes every call for that tid fail.
type fakeSyscall struct {
	calls  []fakeCall
	failOn map[hw.ThreadID]bool
}

type fakeCall struct {
	tid  hw.ThreadID
	mask cpuset.Mask
}

func installFakeSyscall(t *testing.T) *fakeSyscall {
	t.Helper()
	f := &fakeSyscall{failOn: map[hw.ThreadID]bool{}}
	prev := affinitySyscall
	affinitySyscall = func(tid hw.ThreadID, mask cpuset.Mask) error {
		if f.failOn[tid] {
			return &SyscallError{Tid: tid, Err: fmt.Errorf("injected failure")}
		}
		f.calls = append(f.calls, fakeCall{tid: tid, mask: mask})
		return nil
	}
	t.Cleanup(func() { affinitySyscall = prev })
	return f
}

func twoNodeTopology() topology.Snapshot {
	process, _ := cpuset.Parse("0-7", 8)
	return topology.Snapshot{TotalCPUs: 8, TotalNodes: 2, CPUsPerNode: 4, ProcessMask: process}
}

func newTestManager(t *testing.T, cfg config.Config) *numaManager {
	t.Helper()
	m, err := newNUMAManager(twoNodeTopology(), cfg, diag.Discard)
	must.NoError(t, err)
	return m
}

func cfgWithForeground(ranges string) config.Config {
	cfg := config.New()
	cfg.Set(class.Foreground, ranges)
	return cfg
}

func TestNewNUMAManager_rejectsNonSubsetMask(t *testing.T) {
	topo := twoNodeTopology()
	topo.ProcessMask, _ = cpuset.Parse("0-3", 8)
	cfg := config.New()
	cfg.Set(class.LogWriter, "5")
	_, err := newNUMAManager(topo, cfg, diag.Discard)
	must.Error(t, err)
	var policyErr *PolicyError
	must.ErrorAs(t, err, &policyErr)
}

func TestNewNUMAManager_rejectsUnparsableMask(t *testing.T) {
	cfg := config.New()
	cfg.Set(class.LogWriter, "3-1")
	_, err := newNUMAManager(twoNodeTopology(), cfg, diag.Discard)
	must.Error(t, err)
	var parseErr *ParseError
	must.ErrorAs(t, err, &parseErr)
}

func TestNewNUMAManager_buildsGroupsFromForegroundMask(t *testing.T) {
	m := newTestManager(t, cfgWithForeground("0-7"))
	must.Eq(t, 2, len(m.groups))
	must.Eq(t, 4, m.groups[0].availCPUs)
	must.Eq(t, 4, m.groups[1].availCPUs)
}

func TestBindToGroup_disabledForeground_registersOnly(t *testing.T) {
	installFakeSyscall(t)
	m := newTestManager(t, config.New())

	must.True(t, m.BindToGroup(42))
	must.True(t, m.classes[class.Foreground].tids.Contains(42))
}

func TestBindToGroup_picksLeastLoaded(t *testing.T) {
	fake := installFakeSyscall(t)
	m := newTestManager(t, cfgWithForeground("0-7"))

	must.True(t, m.BindToGroup(1))
	must.Eq(t, 1, m.groups[0].assigned)
	must.Eq(t, 0, m.groups[1].assigned)

	must.True(t, m.BindToGroup(2))
	must.Eq(t, 1, m.groups[0].assigned)
	must.Eq(t, 1, m.groups[1].assigned)

	must.Eq(t, 2, len(fake.calls))
}

func TestBindThenUnbind_restoresGroupState(t *testing.T) {
	installFakeSyscall(t)
	m := newTestManager(t, cfgWithForeground("0-7"))

	must.True(t, m.BindToGroup(7))
	must.Eq(t, 1, m.groups[0].assigned)

	must.True(t, m.UnbindFromGroup(7))
	must.Eq(t, 0, m.groups[0].assigned)
	must.False(t, m.groups[0].tids.Contains(7))
}

func TestUnbind_doesNotRestoreAffinity(t *testing.T) {
	fake := installFakeSyscall(t)
	m := newTestManager(t, cfgWithForeground("0-7"))

	must.True(t, m.BindToGroup(9))
	must.Eq(t, 1, len(fake.calls))

	must.True(t, m.UnbindFromGroup(9))
	// UnbindFromGroup performs no syscall of its own; the thread's OS
	// affinity is left exactly where BindToGroup last set it.
	must.Eq(t, 1, len(fake.calls))
}

func TestUnbind_unknownTid_fails(t *testing.T) {
	installFakeSyscall(t)
	m := newTestManager(t, cfgWithForeground("0-7"))
	must.False(t, m.UnbindFromGroup(999))
}

func TestBindToTarget_alwaysRegisters(t *testing.T) {
	installFakeSyscall(t)
	m := newTestManager(t, config.New())

	must.True(t, m.BindToTarget(class.LogWriter, 5))
	must.True(t, m.classes[class.LogWriter].tids.Contains(5))
}

func TestBindToTarget_enabledClass_appliesSyscall(t *testing.T) {
	fake := installFakeSyscall(t)
	cfg := config.New()
	cfg.Set(class.LogWriter, "1")
	m := newTestManager(t, cfg)

	must.True(t, m.BindToTarget(class.LogWriter, 5))
	must.Eq(t, 1, len(fake.calls))
	must.Eq(t, hw.ThreadID(0), fake.calls[0].tid)
}

func TestReschedule_foregroundDisable_restoresProcessMask(t *testing.T) {
	fake := installFakeSyscall(t)
	m := newTestManager(t, cfgWithForeground("0-7"))

	must.True(t, m.BindToGroup(1))
	must.True(t, m.BindToGroup(2))

	cfg := config.New()
	ok := m.Reschedule(cfg, class.Foreground)
	must.True(t, ok)

	must.False(t, m.classes[class.Foreground].enabled)
	for _, g := range m.groups {
		must.Eq(t, 0, g.assigned)
		must.Eq(t, 0, g.tids.Size())
	}
	// Two binds plus two restores.
	must.Eq(t, 4, len(fake.calls))
}

func TestReschedule_foregroundEnable_placesAccumulatedTids(t *testing.T) {
	installFakeSyscall(t)
	m := newTestManager(t, config.New())

	must.True(t, m.BindToGroup(1))
	must.True(t, m.BindToGroup(2))
	must.True(t, m.BindToGroup(3))

	cfg := cfgWithForeground("0-7")
	ok := m.Reschedule(cfg, class.Foreground)
	must.True(t, ok)

	must.True(t, m.classes[class.Foreground].enabled)
	total := 0
	for _, g := range m.groups {
		total += g.assigned
		must.Eq(t, g.assigned, g.tids.Size())
	}
	must.Eq(t, 3, total)
}

func TestReschedule_surplusStaysPut(t *testing.T) {
	installFakeSyscall(t)
	m := newTestManager(t, cfgWithForeground("0-7"))

	// Three threads on node 0, one on node 1: 3/4, 1/4.
	must.True(t, m.groups[0].tids.Insert(1))
	m.groups[0].tids.Insert(2)
	m.groups[0].tids.Insert(3)
	m.groups[0].assigned = 3
	m.groups[1].tids.Insert(4)
	m.groups[1].assigned = 1

	// Shrink node 0 down to a single CPU: T=4, C=1+4=5.
	// target[0] = floor(4*1/5) = 0, target[1] = floor(4*4/5) = 3.
	// Node 0 must shed 3 threads but node 1 can only receive 2
	// (1 -> 3, capped by its own target), leaving one thread behind.
	cfg := config.New()
	cfg.Set(class.Foreground, "0,4-7")
	ok := m.Reschedule(cfg, class.Foreground)
	must.True(t, ok)

	must.Eq(t, m.groups[0].assigned, m.groups[0].tids.Size())
	must.Eq(t, m.groups[1].assigned, m.groups[1].tids.Size())
	must.Eq(t, 4, m.groups[0].assigned+m.groups[1].assigned)
}

func TestReschedule_foregroundRebalance_migratesUsingReceiverMask(t *testing.T) {
	fake := installFakeSyscall(t)
	m := newTestManager(t, cfgWithForeground("0-7"))

	m.groups[0].tids.Insert(1)
	m.groups[0].tids.Insert(2)
	m.groups[0].assigned = 2

	// Evacuate node 0 entirely: its new mask is empty, node 1 keeps
	// its full 4 CPUs, so every thread on node 0 must migrate to node
	// 1, and the syscall must carry node 1's (the receiver's) mask.
	cfg := config.New()
	cfg.Set(class.Foreground, "4-7")
	ok := m.Reschedule(cfg, class.Foreground)
	must.True(t, ok)

	must.Eq(t, 0, m.groups[0].tids.Size())
	must.Eq(t, 2, m.groups[1].tids.Size())
	for _, c := range fake.calls {
		must.Eq(t, m.groups[1].availMask, c.mask)
	}
}

func TestReschedule_backgroundDisable_clearsTids(t *testing.T) {
	installFakeSyscall(t)
	cfg := config.New()
	cfg.Set(class.LogWriter, "1")
	m := newTestManager(t, cfg)
	m.BindToTarget(class.LogWriter, 10)
	m.BindToTarget(class.LogWriter, 11)

	ok := m.Reschedule(config.New(), class.LogWriter)
	must.True(t, ok)
	must.False(t, m.classes[class.LogWriter].enabled)
	must.Eq(t, 0, m.classes[class.LogWriter].tids.Size())
}

func TestReschedule_backgroundReconfigure_reappliesMask(t *testing.T) {
	fake := installFakeSyscall(t)
	cfg := config.New()
	cfg.Set(class.LogWriter, "1")
	m := newTestManager(t, cfg)
	m.BindToTarget(class.LogWriter, 10)

	cfg2 := config.New()
	cfg2.Set(class.LogWriter, "2")
	ok := m.Reschedule(cfg2, class.LogWriter)
	must.True(t, ok)

	last := fake.calls[len(fake.calls)-1]
	must.Eq(t, hw.ThreadID(10), last.tid)
	must.Eq(t, m.classes[class.LogWriter].mask, last.mask)
}

func TestReschedule_parseFailure_leavesStateUnchanged(t *testing.T) {
	installFakeSyscall(t)
	m := newTestManager(t, cfgWithForeground("0-7"))
	before := m.classes[class.Foreground].mask

	cfg := config.New()
	cfg.Set(class.Foreground, "7-0")
	ok := m.Reschedule(cfg, class.Foreground)
	must.False(t, ok)
	must.Eq(t, before, m.classes[class.Foreground].mask)
}

func TestReschedule_syscallFailure_keepsCountersConsistent(t *testing.T) {
	fake := installFakeSyscall(t)
	m := newTestManager(t, cfgWithForeground("0-7"))
	must.True(t, m.BindToGroup(1))
	must.True(t, m.BindToGroup(2))
	fake.failOn[2] = true

	ok := m.Reschedule(config.New(), class.Foreground)
	must.False(t, ok)
	for _, g := range m.groups {
		must.Eq(t, g.assigned, g.tids.Size())
	}
}

func TestTakeSnapshot_formatsPerGroupLoad(t *testing.T) {
	installFakeSyscall(t)
	m := newTestManager(t, cfgWithForeground("0-7"))
	must.True(t, m.BindToGroup(1))

	buf := make([]byte, 64)
	out := m.TakeSnapshot(buf)
	must.Eq(t, "1/4; 0/4; ", string(out))
}

func TestTakeSnapshot_truncatesToBuffer(t *testing.T) {
	installFakeSyscall(t)
	m := newTestManager(t, cfgWithForeground("0-7"))

	buf := make([]byte, 5)
	out := m.TakeSnapshot(buf)
	must.Eq(t, "0/4; ", string(out))
}

func TestTakeSnapshot_nilBuffer_isNoop(t *testing.T) {
	installFakeSyscall(t)
	m := newTestManager(t, cfgWithForeground("0-7"))
	must.Nil(t, m.TakeSnapshot(nil))
}

func TestDummyManager_everyOperationSucceeds(t *testing.T) {
	d := newDummyManager()
	must.True(t, d.BindToGroup(1))
	must.True(t, d.UnbindFromGroup(1))
	must.True(t, d.BindToTarget(class.LogWriter, 1))
	must.True(t, d.Reschedule(config.New(), class.Foreground))
	must.Eq(t, -1, d.TotalNodeNumber())
	must.Eq(t, -1, d.CPUNumberPerNode())
	must.Eq(t, "", string(d.TakeSnapshot(make([]byte, 16))))
}

func TestCreateGetFreeInstance_lifecycle(t *testing.T) {
	FreeInstance()
	_, ok := GetInstance()
	must.False(t, ok)

	_, err := CreateInstance(config.New(), nil)
	must.NoError(t, err)

	mgr, ok := GetInstance()
	must.True(t, ok)
	must.NotNil(t, mgr)

	FreeInstance()
	_, ok = GetInstance()
	must.False(t, ok)
}
