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

package query

import (
	"github.com/latticeworks/ecsrt/column"
	"github.com/latticeworks/ecsrt/ecs"
)

// Go methods cannot introduce their own type parameters, so the typed
// fetch surface for each arity has to live as free functions rather
// than methods on Plan (the same constraint the goecs reference
// implementation works around with package-level generic helpers).

func typedColumn[C any](w World) (*column.Column[C], bool) {
	col, ok := w.TryColumn(ecs.TagFor[C]())
	if !ok {
		return nil, false
	}
	return col.(*column.Column[C]), true
}

// ForEach1 drives plan, fetching component A (by reference, so the
// callback may mutate it) for every matching slot. The reference is a
// write-capability handle: once fn returns and drops it, A's Changed
// tick is stamped for this run, the same auto-stamp-on-release
// behavior column.Column.MarkChanged exists for.
func ForEach1[A any](w World, plan *Plan, fn func(id ecs.ID, a *A)) {
	colA, ok := typedColumn[A](w)
	if !ok {
		return
	}
	now := w.Ticks().ThisRun
	plan.ForEachSlot(w, func(slot uint32) {
		a, ok := colA.Get(slot)
		if !ok {
			return
		}
		fn(entityOf(w, slot), a)
		colA.MarkChanged(slot, now)
	})
}

// ForEach2 is ForEach1 generalized to two components.
func ForEach2[A, B any](w World, plan *Plan, fn func(id ecs.ID, a *A, b *B)) {
	colA, ok := typedColumn[A](w)
	if !ok {
		return
	}
	colB, ok := typedColumn[B](w)
	if !ok {
		return
	}
	now := w.Ticks().ThisRun
	plan.ForEachSlot(w, func(slot uint32) {
		a, ok := colA.Get(slot)
		if !ok {
			return
		}
		b, ok := colB.Get(slot)
		if !ok {
			return
		}
		fn(entityOf(w, slot), a, b)
		colA.MarkChanged(slot, now)
		colB.MarkChanged(slot, now)
	})
}

// ForEach3 is ForEach1 generalized to three components.
func ForEach3[A, B, C any](w World, plan *Plan, fn func(id ecs.ID, a *A, b *B, c *C)) {
	colA, ok := typedColumn[A](w)
	if !ok {
		return
	}
	colB, ok := typedColumn[B](w)
	if !ok {
		return
	}
	colC, ok := typedColumn[C](w)
	if !ok {
		return
	}
	now := w.Ticks().ThisRun
	plan.ForEachSlot(w, func(slot uint32) {
		a, ok := colA.Get(slot)
		if !ok {
			return
		}
		b, ok := colB.Get(slot)
		if !ok {
			return
		}
		c, ok := colC.Get(slot)
		if !ok {
			return
		}
		fn(entityOf(w, slot), a, b, c)
		colA.MarkChanged(slot, now)
		colB.MarkChanged(slot, now)
		colC.MarkChanged(slot, now)
	})
}

// ForEach4 is ForEach1 generalized to four components.
func ForEach4[A, B, C, D any](w World, plan *Plan, fn func(id ecs.ID, a *A, b *B, c *C, d *D)) {
	colA, ok := typedColumn[A](w)
	if !ok {
		return
	}
	colB, ok := typedColumn[B](w)
	if !ok {
		return
	}
	colC, ok := typedColumn[C](w)
	if !ok {
		return
	}
	colD, ok := typedColumn[D](w)
	if !ok {
		return
	}
	now := w.Ticks().ThisRun
	plan.ForEachSlot(w, func(slot uint32) {
		a, ok := colA.Get(slot)
		if !ok {
			return
		}
		b, ok := colB.Get(slot)
		if !ok {
			return
		}
		c, ok := colC.Get(slot)
		if !ok {
			return
		}
		d, ok := colD.Get(slot)
		if !ok {
			return
		}
		fn(entityOf(w, slot), a, b, c, d)
		colA.MarkChanged(slot, now)
		colB.MarkChanged(slot, now)
		colC.MarkChanged(slot, now)
		colD.MarkChanged(slot, now)
	})
}

// entityGenerations is narrow World behavior needed only to recover a
// full ecs.ID (slot+generation) from a bare slot during iteration.
type entityGenerations interface {
	GenerationOf(slot uint32) uint32
}

func entityOf(w World, slot uint32) ecs.ID {
	if g, ok := w.(entityGenerations); ok {
		return ecs.ID{Slot: slot, Generation: g.GenerationOf(slot)}
	}
	return ecs.ID{Slot: slot}
}

// Combinations resolves every matching slot once, then calls fn for
// each ordered pair (i<j) of distinct matches: a nested self-join over
// one match set without double-counting or reversed duplicates, the
// access pattern proximity and pairwise-interaction systems need.
func Combinations(w World, plan *Plan, fn func(a, b uint32)) {
	slots := plan.FetchAll(w)
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			fn(slots[i], slots[j])
		}
	}
}

// UnsafeFetchAllWritable drives plan exactly like ForEach1 but returns
// every matching value pointer up front instead of invoking a callback
// per slot, skipping the implicit aliasing guarantee ForEach1 gives by
// scoping each pointer to one callback invocation. Callers take on the
// obligation the name implies: the returned pointers may alias the
// same column and remain valid only until the next structural mutation
// of it, so this is only safe when no concurrent system can observe or
// mutate the same column while the caller holds them.
func UnsafeFetchAllWritable[C any](w World, plan *Plan) []*C {
	col, ok := typedColumn[C](w)
	if !ok {
		return nil
	}
	var out []*C
	plan.ForEachSlot(w, func(slot uint32) {
		if v, ok := col.Get(slot); ok {
			out = append(out, v)
		}
	})
	return out
}
