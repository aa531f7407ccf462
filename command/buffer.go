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

// Package command implements the deferred mutation log that system
// bodies write to instead of touching the world directly, grounded on
// the append-then-replay-later shape of sneller's db package (an
// index's pending entries are appended to a log and only applied to
// the committed state during a later merge) -- generalized from
// "merge object-storage index entries" to "replay world-mutation
// entries against a live *World".
package command

import (
	"github.com/latticeworks/ecsrt/column"
	"github.com/latticeworks/ecsrt/ecs"
)

// Applier is the surface a world must expose so a Buffer[W] can
// replay its log against it. It is deliberately narrow (no
// query/schedule methods) so the command package never needs to
// import the root package.
type Applier interface {
	// IsAlive reports whether id still names a live entity.
	IsAlive(id ecs.ID) bool
	// Tick returns the current change tick to stamp new/modified cells with.
	Tick() ecs.Tick
	// Column returns (creating via ctor on first use) the column for tag.
	Column(tag ecs.Tag, ctor func() any) any
	// PageShifts returns the dense and sparse page-size exponents a
	// freshly constructed column should use, so the first writer to a
	// tag (whichever op races there first) builds it consistently with
	// the world's configuration rather than column's hardcoded default.
	PageShifts() (dense, sparse uint)
	// AfterInsert updates bookkeeping (entity signature, groups) once
	// tag's column has already been written for id.
	AfterInsert(id ecs.ID, tag ecs.Tag)
	// AfterRemove is AfterInsert's remove-side counterpart.
	AfterRemove(id ecs.ID, tag ecs.Tag)
	// SpawnEntity allocates a new, componentless live entity.
	SpawnEntity() ecs.ID
	// DespawnEntity retires id. Called only for ids known live.
	DespawnEntity(id ecs.ID)
}

// ComponentSetter applies one component to a freshly spawned entity;
// see With.
type ComponentSetter[W Applier] func(w W, id ecs.ID)

// Buffer is an ordered log of deferred mutations: add, remove, spawn,
// destroy, run. Integrate replays the log against a world in record
// order. Two buffers merge by concatenating their logs.
type Buffer[W Applier] struct {
	ops []func(W)
}

// NewBuffer returns an empty command buffer for world type W.
func NewBuffer[W Applier]() *Buffer[W] {
	return &Buffer[W]{}
}

// Len returns the number of pending operations.
func (b *Buffer[W]) Len() int { return len(b.ops) }

// Add generically defers an (id, value) insert; a dead id at
// integrate time is silently skipped.
func Add[T any, W Applier](b *Buffer[W], id ecs.ID, value T) {
	tag := ecs.TagFor[T]()
	b.ops = append(b.ops, func(w W) {
		if !w.IsAlive(id) {
			return
		}
		dense, sparse := w.PageShifts()
		col := w.Column(tag, func() any { return column.NewSized[T](tag, dense, sparse) })
		col.(*column.Column[T]).Insert(id.Slot, value, w.Tick())
		w.AfterInsert(id, tag)
	})
}

// Remove generically defers a component removal; a dead id at
// integrate time is silently skipped, as is a missing cell.
func Remove[T any, W Applier](b *Buffer[W], id ecs.ID) {
	tag := ecs.TagFor[T]()
	b.ops = append(b.ops, func(w W) {
		if !w.IsAlive(id) {
			return
		}
		dense, sparse := w.PageShifts()
		col := w.Column(tag, func() any { return column.NewSized[T](tag, dense, sparse) })
		col.(*column.Column[T]).RemoveSlot(id.Slot, w.Tick())
		w.AfterRemove(id, tag)
	})
}

// With returns a ComponentSetter for use with Spawn, deferring the
// creation of a typed column the same way Add does.
func With[T any, W Applier](value T) ComponentSetter[W] {
	tag := ecs.TagFor[T]()
	return func(w W, id ecs.ID) {
		dense, sparse := w.PageShifts()
		col := w.Column(tag, func() any { return column.NewSized[T](tag, dense, sparse) })
		col.(*column.Column[T]).Insert(id.Slot, value, w.Tick())
		w.AfterInsert(id, tag)
	}
}

// Spawn defers creating a new entity with the given components, then
// (if after is non-nil) invoking after with the world and the new id.
func (b *Buffer[W]) Spawn(setters []ComponentSetter[W], after func(w W, id ecs.ID)) {
	b.ops = append(b.ops, func(w W) {
		id := w.SpawnEntity()
		for _, s := range setters {
			s(w, id)
		}
		if after != nil {
			after(w, id)
		}
	})
}

// SpawnEmpty is Spawn with no components.
func (b *Buffer[W]) SpawnEmpty(after func(w W, id ecs.ID)) {
	b.Spawn(nil, after)
}

// Destroy defers despawning id; a dead id at integrate time is a no-op.
func (b *Buffer[W]) Destroy(id ecs.ID) {
	b.ops = append(b.ops, func(w W) {
		if !w.IsAlive(id) {
			return
		}
		w.DespawnEntity(id)
	})
}

// Run defers an arbitrary callback over the world.
func (b *Buffer[W]) Run(fn func(w W)) {
	b.ops = append(b.ops, fn)
}

// Integrate applies every logged operation, in order, against w.
func (b *Buffer[W]) Integrate(w W) {
	for _, op := range b.ops {
		op(w)
	}
}

// Merge appends other's log onto b's, leaving other usable but
// logically already replayed by whatever replays b next.
func (b *Buffer[W]) Merge(other *Buffer[W]) {
	b.ops = append(b.ops, other.ops...)
}
