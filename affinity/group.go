// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

package affinity

import (
	"fmt"

	"github.com/coreaffinity/numacore/cpuset"
	"github.com/coreaffinity/numacore/hw"
	"github.com/coreaffinity/numacore/idset"
	"github.com/coreaffinity/numacore/topology"
)

// group is one NUMA node's share of the foreground placement pool:
// the CPUs the foreground class is permitted to use on that node, and
// the threads currently placed there.
type group struct {
	availMask cpuset.Mask
	availCPUs int
	assigned  int
	tids      *idset.Set[hw.ThreadID]
}

// classEntry is one thread class's configuration and registered tids.
type classEntry struct {
	enabled bool
	mask    cpuset.Mask
	tids    *idset.Set[hw.ThreadID]
}

// groupAvailability is the per-node CPU availability implied by a
// foreground mask, computed without disturbing any group's existing
// tid bookkeeping. buildGroups uses it to construct a fresh group
// table; the rescheduler uses it to re-derive availability in place
// when the foreground mask changes but stays enabled.
type groupAvailability struct {
	mask cpuset.Mask
	cpus int
}

// computeAvailability intersects fgMask against each node's CPU range,
// per the contiguous node layout topology.Snapshot documents.
func computeAvailability(topo topology.Snapshot, fgMask cpuset.Mask) ([]groupAvailability, error) {
	avail := make([]groupAvailability, topo.TotalNodes)
	any := false
	for i := 0; i < topo.TotalNodes; i++ {
		lo, hi := topo.NodeRange(i)
		var mask cpuset.Mask
		cpus := 0
		for cpu := lo; cpu < hi; cpu++ {
			if fgMask.IsSet(cpu) {
				mask.Set(cpu)
				cpus++
				any = true
			}
		}
		avail[i] = groupAvailability{mask: mask, cpus: cpus}
	}
	if !any {
		return nil, fmt.Errorf("no CPU available for any foreground group")
	}
	return avail, nil
}

// buildGroups constructs a brand new, empty group table from a
// foreground mask. It fails if every group would end up with zero
// available CPUs.
func buildGroups(topo topology.Snapshot, fgMask cpuset.Mask) ([]*group, error) {
	avail, err := computeAvailability(topo, fgMask)
	if err != nil {
		return nil, &TopologyError{Err: err}
	}
	groups := make([]*group, len(avail))
	for i, av := range avail {
		groups[i] = &group{
			availMask: av.mask,
			availCPUs: av.cpus,
			tids:      idset.Empty[hw.ThreadID](),
		}
	}
	return groups, nil
}
