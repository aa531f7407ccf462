// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package slotalloc allocates and recycles entity slots with
// generation counters, so a despawned slot can be handed back out
// without a stale ID ever reading as live again.
package slotalloc

import "github.com/latticeworks/ecsrt/ecs"

// Allocator hands out ecs.ID values backed by a LIFO free list, the
// same reuse policy the storage layer's paged buffers use for their
// own freed pages: prefer the most recently vacated slot so hot
// regions stay packed.
type Allocator struct {
	generation []uint32 // per-slot generation; odd means live
	free       []uint32
}

// New returns an empty Allocator.
func New() *Allocator {
	return &Allocator{}
}

// Alloc reserves a slot (reusing the most recently freed one if any)
// and returns the live ID naming it.
func (a *Allocator) Alloc() ecs.ID {
	var slot uint32
	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		slot = uint32(len(a.generation))
		a.generation = append(a.generation, 0)
	}
	a.generation[slot]++
	return ecs.ID{Slot: slot, Generation: a.generation[slot]}
}

// Free retires id, bumping its slot's generation so any other copy of
// id immediately reads as stale. It reports false (and has no effect)
// if id was already stale.
func (a *Allocator) Free(id ecs.ID) bool {
	if !a.IsAlive(id) {
		return false
	}
	a.generation[id.Slot]++
	a.free = append(a.free, id.Slot)
	return true
}

// IsAlive reports whether id names the current occupant of its slot.
func (a *Allocator) IsAlive(id ecs.ID) bool {
	if int(id.Slot) >= len(a.generation) {
		return false
	}
	return a.generation[id.Slot] == id.Generation && id.Generation%2 == 1
}

// Len returns the number of slots ever allocated (including currently
// freed ones); it is not the live entity count.
func (a *Allocator) Len() int {
	return len(a.generation)
}

// IsSlotLive reports whether slot currently holds a live entity,
// regardless of which generation. Used by iteration that only has a
// bare slot (e.g. from a dense column key) and needs to skip slots a
// despawn has since vacated.
func (a *Allocator) IsSlotLive(slot uint32) bool {
	if int(slot) >= len(a.generation) {
		return false
	}
	return a.generation[slot]%2 == 1
}

// GenerationOf returns slot's current generation counter, used to
// reconstruct a full ecs.ID from a bare slot.
func (a *Allocator) GenerationOf(slot uint32) uint32 {
	if int(slot) >= len(a.generation) {
		return 0
	}
	return a.generation[slot]
}
