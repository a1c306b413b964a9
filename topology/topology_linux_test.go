// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

//go:build linux

package topology

import (
	"fmt"
	"testing"

	"github.com/shoenig/test/must"
)

// fixture mimics the sysfs layout of a 2-node, 8-cpu machine.
func fixture(path string) ([]byte, error) {
	data := map[string][]byte{
		cpuPossiblePath: []byte("0-7"),
		nodeOnlinePath:  []byte("0-1"),
	}
	raw, ok := data[path]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", path)
	}
	return raw, nil
}

// lxcFixture mimics a container with a NUMA-less view: node directory
// present but reporting a single node, narrower cpu list.
func lxcFixture(path string) ([]byte, error) {
	data := map[string][]byte{
		cpuPossiblePath: []byte("0-3"),
		nodeOnlinePath:  []byte("0"),
	}
	raw, ok := data[path]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", path)
	}
	return raw, nil
}

func TestSysfs_discoverCPUCount(t *testing.T) {
	s := &Sysfs{}
	n, err := s.discoverCPUCount(fixture)
	must.NoError(t, err)
	must.Eq(t, 8, n)
}

func TestSysfs_discoverCPUCount_missing(t *testing.T) {
	s := &Sysfs{}
	_, err := s.discoverCPUCount(func(string) ([]byte, error) {
		return nil, fmt.Errorf("enoent")
	})
	must.Error(t, err)
}

func TestSysfs_discoverNodeCount(t *testing.T) {
	s := &Sysfs{}
	n, err := s.discoverNodeCount(fixture)
	must.NoError(t, err)
	must.Eq(t, 2, n)

	n, err = s.discoverNodeCount(lxcFixture)
	must.NoError(t, err)
	must.Eq(t, 1, n)
}

func TestSysfs_discoverNodeCount_noNumaKernel(t *testing.T) {
	s := &Sysfs{}
	n, err := s.discoverNodeCount(func(string) ([]byte, error) {
		return nil, fmt.Errorf("enoent")
	})
	must.NoError(t, err)
	must.Eq(t, 1, n)
}

func TestSysfs_scan(t *testing.T) {
	s := &Sysfs{}
	top, err := s.scan(fixture)
	must.NoError(t, err)
	must.Eq(t, 8, top.TotalCPUs)
	must.Eq(t, 2, top.TotalNodes)
	must.Eq(t, 4, top.CPUsPerNode)
	must.True(t, top.ProcessMask.Count() > 0)
}

func TestCpusPerNode_indivisible(t *testing.T) {
	_, err := cpusPerNode(10, 3)
	must.Error(t, err)
}

func TestCpusPerNode_zeroNodes(t *testing.T) {
	_, err := cpusPerNode(10, 0)
	must.Error(t, err)
}

func TestSnapshot_NodeRange(t *testing.T) {
	top := &Snapshot{TotalCPUs: 8, TotalNodes: 2, CPUsPerNode: 4}
	lo, hi := top.NodeRange(0)
	must.Eq(t, 0, lo)
	must.Eq(t, 4, hi)
	lo, hi = top.NodeRange(1)
	must.Eq(t, 4, lo)
	must.Eq(t, 8, hi)
}
