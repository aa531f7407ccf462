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

// Package column implements per-component-type storage: a sparse set
// of dense values keyed by entity slot, with a parallel change-tick
// column. It is the generic, typed layer built on top of the
// page-table primitives in internal/paged, the way sneller's vm
// package builds typed column operators on top of ion's untyped byte
// storage.
package column

import (
	"github.com/latticeworks/ecsrt/ecs"
	"github.com/latticeworks/ecsrt/internal/paged"
)

// NotFound is the slot_to_dense sentinel for "this slot has no cell
// in this column."
const NotFound int32 = -1

// DenseShift and SparseShift are the default page-size exponents from
// the storage layout: 1024-entry dense pages, 4096-entry sparse
// slot-map pages.
const (
	DenseShift  uint = 10
	SparseShift uint = 12
)

// AnyColumn is the type-erased view of a Column[T] that code without
// access to T needs: despawn, the group engine, and driver-column
// selection all touch columns generically.
type AnyColumn interface {
	Tag() ecs.Tag
	Len() int
	Contains(slot uint32) bool
	DenseIndex(slot uint32) int32
	KeyAt(i int) uint32
	Swap(i, j int)
	RemoveSlot(slot uint32, tick ecs.Tick) bool
	TicksAt(i int) *ecs.CellTicks
}

// Column is the per-component-type store: dense values, a parallel
// dense->slot key array, a sparse slot->dense index, and a parallel
// dense tick column.
type Column[T any] struct {
	tag         ecs.Tag
	dense       *paged.Buffer[T]
	keys        *paged.Buffer[uint32]
	ticks       *paged.Buffer[ecs.CellTicks]
	slotToDense *paged.SlotMap[int32]
}

// New constructs an empty Column for component type T tagged tag,
// using the default page sizes.
func New[T any](tag ecs.Tag) *Column[T] {
	return NewSized[T](tag, DenseShift, SparseShift)
}

// NewSized is New with explicit page-size exponents, mainly for tests
// that want to exercise page-boundary behavior without allocating
// thousands of entities.
func NewSized[T any](tag ecs.Tag, denseShift, sparseShift uint) *Column[T] {
	return &Column[T]{
		tag:         tag,
		dense:       paged.NewBuffer[T](denseShift),
		keys:        paged.NewBuffer[uint32](denseShift),
		ticks:       paged.NewBuffer[ecs.CellTicks](denseShift),
		slotToDense: paged.NewSlotMap[int32](sparseShift, NotFound),
	}
}

// Tag returns the component tag this column stores.
func (c *Column[T]) Tag() ecs.Tag { return c.tag }

// Len returns the number of live cells (== the dense array length).
func (c *Column[T]) Len() int { return c.dense.Len() }

// Contains reports whether slot currently has a cell in this column.
func (c *Column[T]) Contains(slot uint32) bool {
	return c.slotToDense.Get(slot) != NotFound
}

// DenseIndex returns the dense index for slot, or NotFound.
func (c *Column[T]) DenseIndex(slot uint32) int32 {
	return c.slotToDense.Get(slot)
}

// KeyAt returns the slot stored at dense position i.
func (c *Column[T]) KeyAt(i int) uint32 {
	return *c.keys.Get(i)
}

// ValueAt returns a pointer to the value stored at dense position i.
// The pointer is valid only until the next structural mutation of c.
func (c *Column[T]) ValueAt(i int) *T {
	return c.dense.Get(i)
}

// TicksAt returns a pointer to the change-tick cell at dense position i.
func (c *Column[T]) TicksAt(i int) *ecs.CellTicks {
	return c.ticks.Get(i)
}

// Get returns a pointer to slot's value and true, or (nil, false) if
// slot has no cell in this column.
func (c *Column[T]) Get(slot uint32) (*T, bool) {
	d := c.slotToDense.Get(slot)
	if d == NotFound {
		return nil, false
	}
	return c.dense.Get(int(d)), true
}

// Insert writes value for slot, overwriting (and marking Changed) if
// a cell already exists, or appending a fresh cell with Added ==
// Changed == tick otherwise. It reports whether a new cell was
// created.
func (c *Column[T]) Insert(slot uint32, value T, tick ecs.Tick) bool {
	if d := c.slotToDense.Get(slot); d != NotFound {
		*c.dense.Get(int(d)) = value
		c.ticks.Get(int(d)).Changed = tick
		return false
	}
	idx := c.dense.Append(value)
	c.keys.Append(slot)
	c.ticks.Append(ecs.CellTicks{Added: tick, Changed: tick})
	c.slotToDense.Set(slot, int32(idx))
	return true
}

// Remove deletes slot's cell via swap-with-last, reporting the
// removed value and whether a cell existed. tick is accepted for
// symmetry with Insert/MarkChanged; removal does not itself produce
// change-tick metadata.
func (c *Column[T]) Remove(slot uint32, tick ecs.Tick) (T, bool) {
	var zero T
	d := c.slotToDense.Get(slot)
	if d == NotFound {
		return zero, false
	}
	last := c.dense.Len() - 1
	removed := *c.dense.Get(int(d))
	if int(d) != last {
		c.dense.Swap(int(d), last)
		c.keys.Swap(int(d), last)
		c.ticks.Swap(int(d), last)
		moved := *c.keys.Get(int(d))
		c.slotToDense.Set(moved, d)
	}
	c.dense.RemoveLast()
	c.keys.RemoveLast()
	c.ticks.RemoveLast()
	c.slotToDense.Set(slot, NotFound)
	return removed, true
}

// RemoveSlot is Remove without the typed return value, satisfying
// AnyColumn.
func (c *Column[T]) RemoveSlot(slot uint32, tick ecs.Tick) bool {
	_, ok := c.Remove(slot, tick)
	return ok
}

// MarkChanged stamps slot's Changed tick, e.g. when a write-capable
// query reference for it is released.
func (c *Column[T]) MarkChanged(slot uint32, tick ecs.Tick) bool {
	d := c.slotToDense.Get(slot)
	if d == NotFound {
		return false
	}
	c.ticks.Get(int(d)).Changed = tick
	return true
}

// Swap exchanges the dense rows at i and j (values, keys and ticks
// together) and repairs slot_to_dense for both moved slots. The group
// engine uses this to maintain a packed membership prefix.
func (c *Column[T]) Swap(i, j int) {
	if i == j {
		return
	}
	c.dense.Swap(i, j)
	c.keys.Swap(i, j)
	c.ticks.Swap(i, j)
	ki := *c.keys.Get(i)
	kj := *c.keys.Get(j)
	c.slotToDense.Set(ki, int32(i))
	c.slotToDense.Set(kj, int32(j))
}

// PageCounts exposes the dense and sparse page counts, mainly for
// tests of page-release boundary behavior.
func (c *Column[T]) PageCounts() (dense, sparse int) {
	return c.dense.PageCount(), c.slotToDense.PageCount()
}
