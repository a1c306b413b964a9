// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package affinity

import (
	"fmt"

	"github.com/coreaffinity/numacore/cpuset"
	"github.com/coreaffinity/numacore/hw"
)

func platformAvailable() bool {
	return false
}

func setAffinity(tid hw.ThreadID, _ cpuset.Mask) error {
	return &SyscallError{Tid: tid, Err: fmt.Errorf("affinity: sched_setaffinity is not supported on this platform")}
}
