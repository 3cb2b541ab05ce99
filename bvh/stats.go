package bvh

import (
	"fmt"
	"reflect"
)

// Stats summarizes the shape of a built BVH.
type Stats struct {
	Triangles int
	Nodes     int
	Leaves    int
	MaxDepth  int

	// Approximate memory used by the node and triangle slices.
	MemoryBytes int
}

// Get build statistics.
func (bvh *BVH) Stats() Stats {
	return bvh.stats
}

// Get formatted memory usage.
func (s Stats) FmtMemory() string {
	return FmtSize(s.MemoryBytes)
}

// Format a byte count with the appropriate byte/kb/mb unit.
func FmtSize(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}

// Sum the total space used by a set of slices.
func sizeOf(items ...interface{}) int {
	total := 0
	for _, item := range items {
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}
		total += int(v.Type().Elem().Size()) * v.Len()
	}
	return total
}
