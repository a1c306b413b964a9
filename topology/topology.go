// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

// Package topology probes the operating system for the facts the
// affinity manager needs before it can build its group table: how many
// CPUs and NUMA nodes the kernel has configured, and which CPUs the
// process itself is permitted to run on.
package topology

import (
	"fmt"

	"github.com/coreaffinity/numacore/cpuset"
)

// Snapshot is the topology captured once at manager initialization.
// CPUs are assumed to be distributed to nodes as contiguous blocks of
// CPUsPerNode ids: node i owns ids [i*CPUsPerNode, (i+1)*CPUsPerNode).
type Snapshot struct {
	TotalCPUs   int
	TotalNodes  int
	CPUsPerNode int
	ProcessMask cpuset.Mask
}

// NodeRange returns the [lo, hi) half-open CPU id range owned by node i.
func (s *Snapshot) NodeRange(i int) (lo, hi int) {
	lo = i * s.CPUsPerNode
	hi = lo + s.CPUsPerNode
	return lo, hi
}

// pathReaderFn abstracts reading a sysfs file, so probes can be driven
// by fixed test fixtures instead of the real filesystem.
type pathReaderFn func(path string) ([]byte, error)

// Probe discovers a topology Snapshot.
type Probe interface {
	Scan() (*Snapshot, error)
}

// cpusPerNode validates that total CPUs divide evenly across the node
// count; initialization fails when it does not hold.
func cpusPerNode(totalCPUs, totalNodes int) (int, error) {
	if totalNodes == 0 {
		return 0, fmt.Errorf("topology: zero NUMA nodes detected")
	}
	if totalCPUs%totalNodes != 0 {
		return 0, fmt.Errorf("topology: %d cpus do not divide evenly across %d nodes", totalCPUs, totalNodes)
	}
	return totalCPUs / totalNodes, nil
}
