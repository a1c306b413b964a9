// Package hw holds the small set of hardware identifier types shared by
// the topology probe and the affinity manager. They are defined as
// aliases rather than distinct types so that callers can pass plain
// integer literals and slices without a wrapping conversion at every
// call site.
package hw

// NodeID identifies a NUMA node.
type NodeID = uint8

// CPUID identifies a logical CPU.
type CPUID = uint16

// ThreadID is the OS-level identifier of a thread (what the kernel
// affinity syscalls operate on). Linux thread ids fit in an int32.
type ThreadID = int32
