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

// Package group maintains precomputed, incrementally updated packed
// prefixes of storage rows that mirror a query signature's
// membership -- the way plan.PartGroups buckets a list once by a set
// of constant fields, generalized here from "partition once" to
// "partition, then keep the partition correct across every structural
// mutation the world makes."
package group

import (
	"github.com/latticeworks/ecsrt/column"
	"github.com/latticeworks/ecsrt/ecs"
	"github.com/latticeworks/ecsrt/internal/paged"
)

const notFound int32 = -1

// World is the slice of world behavior the group engine needs: enough
// to read signatures and columns without importing the root package
// (which in turn depends on group).
type World interface {
	Signature(slot uint32) (ecs.Signature, bool)
	TryColumn(tag ecs.Tag) (column.AnyColumn, bool)
	EachLiveSlot(fn func(slot uint32))
}

// Group is one registered (signature, excluded, owned) triple and its
// current packed-prefix membership.
type Group struct {
	Signature ecs.Signature
	Excluded  ecs.Signature
	Owned     ecs.Signature

	ownedCols []column.AnyColumn // present iff Owned.Count() > 0
	size      int

	// non-owning bookkeeping: a dense list of member slots plus a
	// slot->position index, maintained the same way a column
	// maintains keys/slot_to_dense but with no associated value.
	members    *paged.Buffer[uint32]
	memberIdx  *paged.SlotMap[int32]
}

func newGroup(sig, excluded, owned ecs.Signature) *Group {
	g := &Group{Signature: sig, Excluded: excluded, Owned: owned}
	if owned.Count() == 0 {
		g.members = paged.NewBuffer[uint32](column.DenseShift)
		g.memberIdx = paged.NewSlotMap[int32](column.SparseShift, notFound)
	}
	return g
}

// Owning reports whether this group physically reorders its owned
// columns (as opposed to tracking membership in a side list).
func (g *Group) Owning() bool { return g.Owned.Count() > 0 }

// Size returns the current packed-prefix length.
func (g *Group) Size() int { return g.size }

// SlotAt returns the slot at packed position i (0 <= i < Size()).
func (g *Group) SlotAt(i int) uint32 {
	if g.Owning() {
		return g.ownedCols[0].KeyAt(i)
	}
	return *g.members.Get(i)
}

func (g *Group) satisfies(sig ecs.Signature) bool {
	return sig.IsSupersetOf(g.Signature) && sig.IsDisjointWith(g.Excluded)
}

func (g *Group) admit(slot uint32) {
	if g.Owning() {
		for _, col := range g.ownedCols {
			d := col.DenseIndex(slot)
			col.Swap(int(d), g.size)
		}
		g.size++
		return
	}
	idx := g.members.Append(slot)
	g.memberIdx.Set(slot, int32(idx))
	g.size++
}

func (g *Group) evict(slot uint32) {
	if g.Owning() {
		for _, col := range g.ownedCols {
			d := col.DenseIndex(slot)
			col.Swap(int(d), g.size-1)
		}
		g.size--
		return
	}
	idx := g.memberIdx.Get(slot)
	last := g.size - 1
	if int(idx) != last {
		lastSlot := *g.members.Get(last)
		g.members.Swap(int(idx), last)
		g.memberIdx.Set(lastSlot, idx)
	}
	g.members.RemoveLast()
	g.memberIdx.Set(slot, notFound)
	g.size--
}

func (g *Group) rebuild(w World) {
	g.size = 0
	if !g.Owning() {
		g.members.Reset()
	}
	w.EachLiveSlot(func(slot uint32) {
		sig, ok := w.Signature(slot)
		if ok && g.satisfies(sig) {
			g.admit(slot)
		}
	})
}
