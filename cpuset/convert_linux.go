// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

//go:build linux

package cpuset

import "golang.org/x/sys/unix"

// ToCPUSet converts m to the unix.CPUSet the sched affinity syscalls
// expect, the same conversion aktau-perflock's cpuset package performs
// before calling unix.SchedSetaffinity.
func (m Mask) ToCPUSet() *unix.CPUSet {
	var set unix.CPUSet
	limit := len(set) * wordBits
	if limit > MaxCPUs {
		limit = MaxCPUs
	}
	for cpu := 0; cpu < limit; cpu++ {
		if m.IsSet(cpu) {
			set.Set(cpu)
		}
	}
	return &set
}

// FromCPUSet builds a Mask from a unix.CPUSet, as returned by
// unix.SchedGetaffinity.
func FromCPUSet(set unix.CPUSet) Mask {
	var m Mask
	limit := len(set) * wordBits
	if limit > MaxCPUs {
		limit = MaxCPUs
	}
	for cpu := 0; cpu < limit; cpu++ {
		if set.IsSet(cpu) {
			m.Set(cpu)
		}
	}
	return m
}
