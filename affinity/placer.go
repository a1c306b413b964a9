// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

package affinity

import (
	"github.com/coreaffinity/numacore/class"
	"github.com/coreaffinity/numacore/hw"
)

// BindToGroup places tid into the least-loaded foreground group (spec
// section 4.4). When the foreground class is disabled the call is a
// no-op success that only registers tid in the foreground class's tid
// set, so it can be placed later if foreground is subsequently
// enabled (see migrateForegroundEnable).
func (m *numaManager) BindToGroup(tid hw.ThreadID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	fg := m.classes[class.Foreground]
	if !fg.enabled {
		fg.tids.Insert(tid)
		return true
	}
	return m.placeLocked(tid)
}

// placeLocked runs the least-loaded selection and applies the
// resulting affinity syscall for tid. Callers must hold m.mu and have
// already verified the foreground class is enabled.
func (m *numaManager) placeLocked(tid hw.ThreadID) bool {
	best := -1
	for i, g := range m.groups {
		if g.availCPUs == 0 {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		// Cross-multiply to compare assigned/avail ratios without
		// floating point: g is less loaded than groups[best] when
		// g.assigned/g.avail < best.assigned/best.avail.
		if g.assigned*m.groups[best].availCPUs < m.groups[best].assigned*g.availCPUs {
			best = i
		}
	}
	if best == -1 {
		return false
	}

	if err := affinitySyscall(0, m.groups[best].availMask); err != nil {
		return false
	}
	m.groups[best].assigned++
	m.groups[best].tids.Insert(tid)
	return true
}

// UnbindFromGroup removes tid's group registration. It never restores
// the thread's OS-level affinity; the thread
// keeps running wherever the kernel last scheduled it until something
// else (process exit, a future BindToGroup, or a Reschedule) changes
// its affinity. Restoration to the full process mask happens only as
// part of Reschedule's foreground-disable migration.
func (m *numaManager) UnbindFromGroup(tid hw.ThreadID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	fg := m.classes[class.Foreground]
	if !fg.enabled {
		return fg.tids.Remove(tid)
	}

	for _, g := range m.groups {
		if !g.tids.Contains(tid) {
			continue
		}
		g.tids.Remove(tid)
		if g.assigned > 0 {
			g.assigned--
		}
		return true
	}
	return false
}
