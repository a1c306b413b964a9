// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

//go:build linux

package affinity

import (
	"golang.org/x/sys/unix"

	"github.com/coreaffinity/numacore/cpuset"
	"github.com/coreaffinity/numacore/hw"
	"github.com/coreaffinity/numacore/topology"
)

// platformAvailable reports whether this kernel exposes NUMA
// information at all; CreateInstance falls back to the dummy manager
// when it does not.
func platformAvailable() bool {
	return topology.Available()
}

// setAffinity applies mask as tid's scheduling affinity. tid zero
// means the calling thread, the same convention
// unix.SchedSetaffinity and the kernel's sched_setaffinity(2) use.
func setAffinity(tid hw.ThreadID, mask cpuset.Mask) error {
	if err := unix.SchedSetaffinity(int(tid), mask.ToCPUSet()); err != nil {
		return &SyscallError{Tid: tid, Err: err}
	}
	return nil
}
