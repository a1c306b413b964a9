// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

//go:build linux

package topology

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/coreaffinity/numacore/cpuset"
	"github.com/coreaffinity/numacore/hw"
	"github.com/coreaffinity/numacore/idset"
)

const (
	cpuPossiblePath = "/sys/devices/system/cpu/possible"
	nodeOnlinePath  = "/sys/devices/system/node/online"
	nodeDir         = "/sys/devices/system/node"
)

// Sysfs probes Linux's sysfs tree for CPU and NUMA node counts, and asks
// the kernel directly (sched_getaffinity) for the process mask.
type Sysfs struct{}

// NewProbe returns the Linux sysfs-backed Probe.
func NewProbe() Probe {
	return &Sysfs{}
}

// Available reports whether this kernel exposes NUMA node information
// at all. When it does not, the caller should fall back to the no-op
// manager rather than treat it as a topology error.
func Available() bool {
	info, err := os.Stat(nodeDir)
	return err == nil && info.IsDir()
}

// Scan reads the live system topology.
func (s *Sysfs) Scan() (*Snapshot, error) {
	return s.scan(os.ReadFile)
}

func (s *Sysfs) scan(read pathReaderFn) (*Snapshot, error) {
	totalCPUs, err := s.discoverCPUCount(read)
	if err != nil {
		return nil, err
	}
	totalNodes, err := s.discoverNodeCount(read)
	if err != nil {
		return nil, err
	}
	perNode, err := cpusPerNode(totalCPUs, totalNodes)
	if err != nil {
		return nil, err
	}
	mask, err := s.discoverProcessMask()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		TotalCPUs:   totalCPUs,
		TotalNodes:  totalNodes,
		CPUsPerNode: perNode,
		ProcessMask: mask,
	}, nil
}

// discoverCPUCount counts the CPUs the kernel has configured, from the
// "possible" cpu list (the kernel-imposed upper bound, independent of
// which CPUs happen to be online right now).
func (s *Sysfs) discoverCPUCount(read pathReaderFn) (int, error) {
	raw, err := read(cpuPossiblePath)
	if err != nil {
		return 0, fmt.Errorf("topology: reading %s: %w", cpuPossiblePath, err)
	}
	ids := idset.Parse[hw.CPUID](string(raw))
	if ids.Size() == 0 {
		return 0, fmt.Errorf("topology: no cpus found in %s", cpuPossiblePath)
	}
	return ids.Size(), nil
}

// discoverNodeCount counts the online NUMA nodes. A kernel built
// without NUMA support has no node directory at all; that is reported
// through Available, not here, so a missing file here degrades to a
// single node rather than an error.
func (s *Sysfs) discoverNodeCount(read pathReaderFn) (int, error) {
	raw, err := read(nodeOnlinePath)
	if err != nil {
		return 1, nil
	}
	ids := idset.Parse[hw.NodeID](string(raw))
	if ids.Size() == 0 {
		return 1, nil
	}
	return ids.Size(), nil
}

func (s *Sysfs) discoverProcessMask() (cpuset.Mask, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return cpuset.Mask{}, fmt.Errorf("topology: sched_getaffinity: %w", err)
	}
	return cpuset.FromCPUSet(set), nil
}
