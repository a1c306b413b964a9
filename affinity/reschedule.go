// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

package affinity

import (
	"github.com/coreaffinity/numacore/class"
	"github.com/coreaffinity/numacore/config"
	"github.com/coreaffinity/numacore/cpuset"
	"github.com/coreaffinity/numacore/diag"
	"github.com/coreaffinity/numacore/hw"
	"github.com/coreaffinity/numacore/idset"
)

// Reschedule applies a new configuration for a single class and
// migrates already-running threads to match. It covers four cases: a foreground class being disabled (A), enabled
// (B), or reconfigured while staying enabled (C); and any background
// class changing (D). A parse, policy, or topology failure leaves the
// manager's state entirely unchanged and returns false; a syscall
// failure during migration may leave state partially migrated, with
// the invariant that every group's assigned counter always equals the
// size of its tid set.
func (m *numaManager) Reschedule(cfg config.Config, changed class.Thread) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.classes[changed]
	ranges := cfg[changed]

	if ranges == nil {
		entry.enabled = false
		entry.mask = cpuset.Zero()
		if changed == class.Foreground {
			return m.migrateForegroundDisable()
		}
		return m.migrateBackgroundDisable(changed)
	}

	mask, err := cpuset.Parse(*ranges, m.topo.TotalCPUs)
	if err != nil {
		m.sink.Error(diag.CodeParseError, "failed to parse CPU range", "class", changed.String())
		return false
	}
	if err := validateSubset(mask, m.topo.ProcessMask, changed); err != nil {
		m.sink.Error(diag.CodeThreadProcessConflict, "class mask is not a subset of the process mask", "class", changed.String())
		return false
	}

	var newAvail []groupAvailability
	if changed == class.Foreground {
		newAvail, err = computeAvailability(m.topo, mask)
		if err != nil {
			return false
		}
	}

	wasEnabled := entry.enabled
	if changed == class.Foreground {
		warnOverlaps(m.sink, m.classes, mask)
	} else {
		warnBackgroundOverlap(m.sink, changed, mask, m.classes[class.Foreground])
	}

	entry.enabled = true
	entry.mask = mask

	if changed == class.Foreground {
		if !wasEnabled {
			return m.migrateForegroundEnable(newAvail)
		}
		return m.migrateForegroundRebalance(newAvail)
	}
	return m.migrateBackgroundEnable(changed)
}

// migrateForegroundDisable is reschedule case A: every placed
// foreground thread has its affinity restored to the full process
// mask, and its group registration dropped. Migration proceeds group
// by group, tid by tid; on the first syscall failure it stops, so
// every tid already processed is correctly unregistered and every tid
// not yet reached remains correctly accounted to its original group.
func (m *numaManager) migrateForegroundDisable() bool {
	for _, g := range m.groups {
		for _, tid := range g.tids.Slice() {
			if err := affinitySyscall(tid, m.topo.ProcessMask); err != nil {
				return false
			}
			g.tids.Remove(tid)
			g.assigned--
		}
	}
	return true
}

// migrateForegroundEnable is reschedule case B: the group table is
// rebuilt from newAvail, and every tid that accumulated in the
// foreground class's tid set while it was disabled is run back
// through the placement policy. The first placement failure stops the
// migration and reports false; tids placed before it stay registered
// in their groups.
func (m *numaManager) migrateForegroundEnable(newAvail []groupAvailability) bool {
	groups := make([]*group, len(newAvail))
	for i, av := range newAvail {
		groups[i] = &group{availMask: av.mask, availCPUs: av.cpus, tids: idset.Empty[hw.ThreadID]()}
	}
	m.groups = groups

	fg := m.classes[class.Foreground]
	for _, tid := range fg.tids.Slice() {
		if !m.placeLocked(tid) {
			return false
		}
	}
	return true
}

// migrateForegroundRebalance is reschedule case C: the foreground
// class stays enabled but its mask (and so each group's available CPU
// count) changed. Each group's target thread count is
// floor(T*avail_g/C) of the total currently-placed thread count T
// across the new total capacity C. Threads migrate from
// over-target donor groups to under-target receiver groups, one at a
// time, tie-breaking the lowest-index receiver, until either the
// donor reaches its target or no receiver has remaining capacity. If
// flooring causes the targets to sum to less than T, the surplus
// threads that found no receiver stay on their original group; this
// is documented behavior, not a bug (see the design notes on the
// floor-distribution open question).
func (m *numaManager) migrateForegroundRebalance(newAvail []groupAvailability) bool {
	for i, av := range newAvail {
		m.groups[i].availMask = av.mask
		m.groups[i].availCPUs = av.cpus
	}

	total, capacity := 0, 0
	for _, g := range m.groups {
		total += g.tids.Size()
		capacity += g.availCPUs
	}

	delta := make([]int, len(m.groups))
	for i, g := range m.groups {
		target := 0
		if capacity > 0 {
			target = total * g.availCPUs / capacity
		}
		delta[i] = target - g.tids.Size()
	}

	for donor := range m.groups {
		for delta[donor] < 0 {
			tids := m.groups[donor].tids.Slice()
			if len(tids) == 0 {
				break
			}
			receiver := -1
			for j := range m.groups {
				if delta[j] > 0 {
					receiver = j
					break
				}
			}
			if receiver == -1 {
				break
			}

			tid := tids[0]
			if err := affinitySyscall(tid, m.groups[receiver].availMask); err != nil {
				return false
			}
			m.groups[donor].tids.Remove(tid)
			m.groups[receiver].tids.Insert(tid)
			m.groups[donor].assigned = m.groups[donor].tids.Size()
			m.groups[receiver].assigned = m.groups[receiver].tids.Size()
			delta[donor]++
			delta[receiver]--
		}
	}
	return true
}

// migrateBackgroundDisable is reschedule case D for a class being
// disabled: every registered tid has its affinity restored to the
// process mask. The class's tid set is cleared only once every tid
// has been successfully migrated; a syscall failure aborts with the
// set left holding exactly the tids not yet processed.
func (m *numaManager) migrateBackgroundDisable(c class.Thread) bool {
	entry := m.classes[c]
	tids := entry.tids.Slice()
	for _, tid := range tids {
		if err := affinitySyscall(tid, m.topo.ProcessMask); err != nil {
			return false
		}
		entry.tids.Remove(tid)
	}
	return true
}

// migrateBackgroundEnable is reschedule case D for a class being
// (re)enabled or reconfigured while already enabled: every registered
// tid has its affinity re-applied with the new mask.
func (m *numaManager) migrateBackgroundEnable(c class.Thread) bool {
	entry := m.classes[c]
	for _, tid := range entry.tids.Slice() {
		if err := affinitySyscall(tid, entry.mask); err != nil {
			return false
		}
	}
	return true
}
