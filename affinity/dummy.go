// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

package affinity

import (
	"github.com/coreaffinity/numacore/class"
	"github.com/coreaffinity/numacore/config"
	"github.com/coreaffinity/numacore/hw"
)

// dummyManager is the no-op fallback Manager, selected by
// CreateInstance when the kernel or platform does not expose NUMA
// information. Every placement and reschedule operation
// reports success without touching any thread's affinity; node and
// per-node CPU counts report the -1 sentinel to signal "not
// applicable" to callers that branch on them.
type dummyManager struct{}

func newDummyManager() Manager {
	return dummyManager{}
}

func (dummyManager) BindToGroup(hw.ThreadID) bool               { return true }
func (dummyManager) UnbindFromGroup(hw.ThreadID) bool            { return true }
func (dummyManager) BindToTarget(class.Thread, hw.ThreadID) bool { return true }
func (dummyManager) Reschedule(config.Config, class.Thread) bool { return true }
func (dummyManager) TakeSnapshot(buf []byte) []byte              { return buf[:0] }
func (dummyManager) TotalNodeNumber() int                        { return -1 }
func (dummyManager) CPUNumberPerNode() int                       { return -1 }
