// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

package affinity

import (
	"fmt"

	"github.com/coreaffinity/numacore/class"
	"github.com/coreaffinity/numacore/hw"
)

// ParseError reports a CPU-range string that failed cpuset.Parse.
type ParseError struct {
	Class class.Thread
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("affinity: class %s: parsing %q: %v", e.Class, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TopologyError reports a failure probing or reasoning about the
// machine's NUMA topology: an unreadable sysfs file, a CPU count that
// does not divide evenly across nodes, or a foreground mask that
// leaves every group without an available CPU.
type TopologyError struct {
	Err error
}

func (e *TopologyError) Error() string { return e.Err.Error() }
func (e *TopologyError) Unwrap() error { return e.Err }

// PolicyError reports a class whose mask violates a placement
// invariant, most commonly not being a subset of the process mask.
type PolicyError struct {
	Class  class.Thread
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("affinity: class %s: %s", e.Class, e.Reason)
}

// SyscallError reports a failed kernel affinity syscall against a
// specific thread.
type SyscallError struct {
	Tid hw.ThreadID
	Err error
}

func (e *SyscallError) Error() string {
	return fmt.Sprintf("affinity: tid %d: %v", e.Tid, e.Err)
}

func (e *SyscallError) Unwrap() error { return e.Err }

// StateError reports an operation requested against a manager in a
// state that cannot service it, e.g. calling into a manager after
// FreeInstance.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return "affinity: " + e.Reason }
