// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

package affinity

import (
	"github.com/coreaffinity/numacore/cpuset"
	"github.com/coreaffinity/numacore/hw"
)

// affinitySyscall is the seam between the manager and the platform's
// sched_setaffinity wrapper (affinity_linux.go / affinity_fallback.go).
// Tests override it with a fake that records calls instead of issuing
// real syscalls against fabricated thread ids.
var affinitySyscall func(tid hw.ThreadID, mask cpuset.Mask) error = setAffinity
