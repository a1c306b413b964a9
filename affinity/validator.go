// Copyright (c) The numacore Authors
// SPDX-License-Identifier: MPL-2.0

package affinity

import (
	"github.com/coreaffinity/numacore/class"
	"github.com/coreaffinity/numacore/cpuset"
	"github.com/coreaffinity/numacore/diag"
)

// validateSubset enforces that every enabled class's mask is a subset
// of the process mask. An empty class mask is vacuously a subset of
// any process mask; an empty process mask rejects every non-empty one.
func validateSubset(mask, process cpuset.Mask, c class.Thread) error {
	if !mask.Subset(process) {
		return &PolicyError{Class: c, Reason: "mask is not a subset of the process mask"}
	}
	return nil
}

// warnOverlaps emits a non-fatal diagnostic for every enabled
// background class whose mask intersects the foreground mask, a soft
// configuration smell rather than a hard error.
func warnOverlaps(sink diag.Sink, classes map[class.Thread]*classEntry, fgMask cpuset.Mask) {
	for _, c := range class.All() {
		if c == class.Foreground {
			continue
		}
		entry := classes[c]
		if entry == nil || !entry.enabled {
			continue
		}
		if fgMask.Intersects(entry.mask) {
			sink.Warn(diag.CodeForegroundBackgroundConflict,
				"background class mask overlaps foreground mask", "class", c.String())
		}
	}
}

// warnBackgroundOverlap is warnOverlaps specialized to the reverse
// direction: a single background class being (re)configured against
// whatever the foreground mask currently is.
func warnBackgroundOverlap(sink diag.Sink, c class.Thread, mask cpuset.Mask, fg *classEntry) {
	if fg.enabled && mask.Intersects(fg.mask) {
		sink.Warn(diag.CodeForegroundBackgroundConflict,
			"background class mask overlaps foreground mask", "class", c.String())
	}
}
