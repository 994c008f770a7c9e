package chunkwin

import "math"

// NoSlot marks a list entry that carries no chunk.
const NoSlot = math.MaxUint32

type Entry struct {
	Coord Coord
	Slot  uint32
}

func (e Entry) Empty() bool {
	return e.Slot == NoSlot
}

var sentinel = Entry{Slot: NoSlot}

// VisibleList is the per-frame output of the selector: always Capacity
// entries long, visible chunks first, sentinels after.
type VisibleList struct {
	Entries []Entry
}

func (v *VisibleList) reset(n int) {
	if len(v.Entries) != n {
		v.Entries = make([]Entry, n)
	}
	for i := range v.Entries {
		v.Entries[i] = sentinel
	}
}

// Count returns the number of non-sentinel entries.
func (v *VisibleList) Count() int {
	n := 0
	for _, e := range v.Entries {
		if !e.Empty() {
			n++
		}
	}
	return n
}

// Extract copies the main-phase list into the render-side snapshot. It is
// the only hand-over point between selection and upload.
func Extract(dst *VisibleList, src *VisibleList) {
	if len(dst.Entries) != len(src.Entries) {
		dst.Entries = make([]Entry, len(src.Entries))
	}
	copy(dst.Entries, src.Entries)
}
