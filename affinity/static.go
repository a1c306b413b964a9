// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

package affinity

import (
	"github.com/coreaffinity/numacore/class"
	"github.com/coreaffinity/numacore/hw"
)

// BindToTarget statically pins tid to class c's configured mask (spec
// section 4.6). tid is always registered into the class's tid set,
// even when the class is currently disabled, so a later Reschedule
// that enables it can apply the syscall retroactively. The affinity
// syscall itself runs with tid zero, since BindToTarget is called
// from the thread being pinned.
func (m *numaManager) BindToTarget(c class.Thread, tid hw.ThreadID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.classes[c]
	entry.tids.Insert(tid)
	if !entry.enabled {
		return true
	}
	return affinitySyscall(0, entry.mask) == nil
}
