// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

// Package cpuset implements the CPU mask type and strict CPU-range
// parser used throughout numacore. Mask is a portable fixed-width bit
// vector; platform-specific code (affinity_linux.go, convert_linux.go)
// converts it to and from golang.org/x/sys/unix's CPUSet, the type the
// kernel affinity syscalls operate on directly, the same way
// aktau-perflock's internal/cpuset package wraps unix.CPUSet for its
// own affinity calls.
package cpuset

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// MaxCPUs bounds the largest logical CPU id a Mask can represent.
const MaxCPUs = 1024

const wordBits = 64
const words = MaxCPUs / wordBits

// Mask is a fixed-width bit vector indexed by logical CPU id.
type Mask struct {
	bits [words]uint64
}

// Zero returns the empty mask (no bits set).
func Zero() Mask {
	return Mask{}
}

// FromSlice builds a Mask with exactly the given CPU ids set.
func FromSlice(cpus []int) Mask {
	var m Mask
	for _, c := range cpus {
		m.Set(c)
	}
	return m
}

// Set sets the bit for cpu.
func (m *Mask) Set(cpu int) {
	if cpu < 0 || cpu >= MaxCPUs {
		return
	}
	m.bits[cpu/wordBits] |= 1 << uint(cpu%wordBits)
}

// Clear clears the bit for cpu.
func (m *Mask) Clear(cpu int) {
	if cpu < 0 || cpu >= MaxCPUs {
		return
	}
	m.bits[cpu/wordBits] &^= 1 << uint(cpu%wordBits)
}

// IsSet reports whether the bit for cpu is set.
func (m Mask) IsSet(cpu int) bool {
	if cpu < 0 || cpu >= MaxCPUs {
		return false
	}
	return m.bits[cpu/wordBits]&(1<<uint(cpu%wordBits)) != 0
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	n := 0
	for _, w := range m.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

// Empty reports whether no bit is set.
func (m Mask) Empty() bool {
	return m.Count() == 0
}

// Subset reports whether every bit set in m is also set in of.
func (m Mask) Subset(of Mask) bool {
	for i := range m.bits {
		if m.bits[i]&^of.bits[i] != 0 {
			return false
		}
	}
	return true
}

// Intersects reports whether m and o share at least one set bit.
func (m Mask) Intersects(o Mask) bool {
	for i := range m.bits {
		if m.bits[i]&o.bits[i] != 0 {
			return true
		}
	}
	return false
}

// Intersect returns the bitwise AND of m and o.
func (m Mask) Intersect(o Mask) Mask {
	var out Mask
	for i := range m.bits {
		out.bits[i] = m.bits[i] & o.bits[i]
	}
	return out
}

// Union returns the bitwise OR of m and o.
func (m Mask) Union(o Mask) Mask {
	var out Mask
	for i := range m.bits {
		out.bits[i] = m.bits[i] | o.bits[i]
	}
	return out
}

// Equal reports whether m and o have identical bits set.
func (m Mask) Equal(o Mask) bool {
	return m.bits == o.bits
}

// Slice returns the set CPU ids in ascending order.
func (m Mask) Slice() []int {
	out := make([]int, 0, m.Count())
	for cpu := 0; cpu < MaxCPUs; cpu++ {
		if m.IsSet(cpu) {
			out = append(out, cpu)
		}
	}
	return out
}

// String renders the mask in the same range notation Parse accepts.
func (m Mask) String() string {
	cpus := m.Slice()
	if len(cpus) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < len(cpus); {
		j := i
		for j+1 < len(cpus) && cpus[j+1] == cpus[j]+1 {
			j++
		}
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		if j == i {
			fmt.Fprintf(&sb, "%d", cpus[i])
		} else {
			fmt.Fprintf(&sb, "%d-%d", cpus[i], cpus[j])
		}
		i = j + 1
	}
	return sb.String()
}

// Parse parses a CPU range string of the grammar
//
//	list  := range (',' range)*
//	range := int | int '-' int
//
// under a strict reading: whitespace anywhere (leading, trailing, or
// interior) is a parse error, as is an empty token, a reversed range,
// or an id outside [0, totalCPUs).
func Parse(s string, totalCPUs int) (Mask, error) {
	if s == "" {
		return Mask{}, fmt.Errorf("cpuset: empty CPU string")
	}
	var m Mask
	for _, token := range strings.Split(s, ",") {
		lo, hi, err := parseRange(token, totalCPUs)
		if err != nil {
			return Mask{}, fmt.Errorf("cpuset: %q: %w", s, err)
		}
		for cpu := lo; cpu <= hi; cpu++ {
			m.Set(cpu)
		}
	}
	return m, nil
}

func parseRange(token string, totalCPUs int) (lo, hi int, err error) {
	if token == "" {
		return 0, 0, fmt.Errorf("empty range token")
	}
	if strings.ContainsAny(token, " \t\n\r\v\f") {
		return 0, 0, fmt.Errorf("whitespace not allowed in %q", token)
	}
	parts := strings.SplitN(token, "-", 2)
	lo, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cpu id %q", parts[0])
	}
	hi = lo
	if len(parts) == 2 {
		hi, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid cpu id %q", parts[1])
		}
		if hi < lo {
			return 0, 0, fmt.Errorf("reversed range %q", token)
		}
	}
	if lo < 0 || hi >= totalCPUs {
		return 0, 0, fmt.Errorf("cpu id out of range [0,%d) in %q", totalCPUs, token)
	}
	return lo, hi, nil
}
