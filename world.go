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

// Package ecsrt assembles the storage, group, query, command and
// schedule layers into a single World, the way sneller's db package is
// the one place that wires a table's index, cache and executor
// together even though each of those lives in its own package.
package ecsrt

import (
	"github.com/latticeworks/ecsrt/column"
	"github.com/latticeworks/ecsrt/command"
	"github.com/latticeworks/ecsrt/ecs"
	"github.com/latticeworks/ecsrt/ecsconfig"
	"github.com/latticeworks/ecsrt/event"
	"github.com/latticeworks/ecsrt/group"
	"github.com/latticeworks/ecsrt/internal/paged"
	"github.com/latticeworks/ecsrt/internal/slotalloc"
	"github.com/latticeworks/ecsrt/query"
	"github.com/latticeworks/ecsrt/schedule"
)

// World owns every entity, component column, resource, event queue,
// group and schedule in one simulation.
type World struct {
	cfg ecsconfig.Config

	alloc *slotalloc.Allocator
	sigs  *paged.Buffer[ecs.Signature]

	columns map[ecs.Tag]column.AnyColumn
	groups  *group.Engine

	resources       map[ecs.ResourceKey]*resourceEntry
	resourceVersion uint64
	events          *event.Bus

	schedules map[string]*schedule.Schedule[*World]

	tick     ecs.Tick
	lastTick ecs.Tick
}

// New returns an empty world configured by cfg.
func New(cfg ecsconfig.Config) *World {
	return &World{
		cfg:       cfg,
		alloc:     slotalloc.New(),
		sigs:      paged.NewBuffer[ecs.Signature](cfg.PageShiftDense),
		columns:   make(map[ecs.Tag]column.AnyColumn),
		groups:    group.NewEngine(),
		resources: make(map[ecs.ResourceKey]*resourceEntry),
		events:    event.NewBus(),
		schedules: make(map[string]*schedule.Schedule[*World]),
		tick:      1,
	}
}

func (w *World) ensureSigSlot(slot uint32) {
	for w.sigs.Len() <= int(slot) {
		w.sigs.Append(ecs.Signature{})
	}
}

// --- command.Applier ---

// IsAlive reports whether id still names a live entity.
func (w *World) IsAlive(id ecs.ID) bool { return w.alloc.IsAlive(id) }

// Tick returns the world's current change tick.
func (w *World) Tick() ecs.Tick { return w.tick }

// Column returns the column registered for tag, creating it via ctor
// on first use.
func (w *World) Column(tag ecs.Tag, ctor func() any) any {
	if col, ok := w.columns[tag]; ok {
		return col
	}
	created := ctor()
	anyCol := created.(column.AnyColumn)
	w.columns[tag] = anyCol
	return created
}

// TryColumn returns the column registered for tag without creating
// one, satisfying group.World and query.World.
func (w *World) TryColumn(tag ecs.Tag) (column.AnyColumn, bool) {
	col, ok := w.columns[tag]
	return col, ok
}

// PageShifts returns the dense and sparse page-size exponents this
// world was configured with, satisfying command.Applier so a freshly
// constructed column honors ecsconfig.Config rather than column's
// hardcoded default.
func (w *World) PageShifts() (dense, sparse uint) {
	return w.cfg.PageShiftDense, w.cfg.PageShiftSparse
}

// AfterInsert updates the entity's signature and group membership once
// tag's column already holds a fresh or overwritten cell for id.
func (w *World) AfterInsert(id ecs.ID, tag ecs.Tag) {
	w.ensureSigSlot(id.Slot)
	before := w.sigs.Get(int(id.Slot))
	after := before.Clone()
	after.Set(tag)
	w.groups.OnMutation(id.Slot, *before, after)
	*before = after
}

// AfterRemove is AfterInsert's removal-side counterpart.
func (w *World) AfterRemove(id ecs.ID, tag ecs.Tag) {
	w.ensureSigSlot(id.Slot)
	before := w.sigs.Get(int(id.Slot))
	after := before.Clone()
	after.Clear(tag)
	w.groups.OnMutation(id.Slot, *before, after)
	*before = after
}

// SpawnEntity allocates a new, componentless live entity.
func (w *World) SpawnEntity() ecs.ID {
	id := w.alloc.Alloc()
	w.ensureSigSlot(id.Slot)
	*w.sigs.Get(int(id.Slot)) = ecs.Signature{}
	return id
}

// DespawnEntity retires id: every column's cell for its slot is
// removed, the group engine evicts it from any group it belongs to,
// and the slot is returned to the allocator's free list.
func (w *World) DespawnEntity(id ecs.ID) {
	w.ensureSigSlot(id.Slot)
	sig := *w.sigs.Get(int(id.Slot))
	w.groups.OnDespawn(id.Slot, sig)
	sig.Each(func(t ecs.Tag) {
		if col, ok := w.columns[t]; ok {
			col.RemoveSlot(id.Slot, w.tick)
		}
	})
	*w.sigs.Get(int(id.Slot)) = ecs.Signature{}
	w.alloc.Free(id)
}

// --- group.World / query.World ---

// Signature returns slot's current component signature. ok is false
// if slot has never been allocated.
func (w *World) Signature(slot uint32) (ecs.Signature, bool) {
	if int(slot) >= w.sigs.Len() {
		return ecs.Signature{}, false
	}
	return *w.sigs.Get(int(slot)), true
}

// EachLiveSlot calls fn for every currently live entity slot, in slot
// order. Used by group rebuilds and tests; not on any per-frame path.
func (w *World) EachLiveSlot(fn func(slot uint32)) {
	for slot := 0; slot < w.alloc.Len(); slot++ {
		if w.alloc.IsSlotLive(uint32(slot)) {
			fn(uint32(slot))
		}
	}
}

// GenerationOf exposes the allocator's per-slot generation counter so
// the query package can reconstruct a full ecs.ID from a bare slot.
func (w *World) GenerationOf(slot uint32) uint32 { return w.alloc.GenerationOf(slot) }

// BestGroup satisfies query.GroupLookup: it lets a query skip driver-
// column selection in favor of a registered group's packed prefix when
// one covers (required, excluded).
func (w *World) BestGroup(required, excluded ecs.Signature) (query.GroupView, bool) {
	g, _, ok := w.groups.Best(required, excluded)
	if !ok {
		return nil, false
	}
	return g, true
}

// resourceEntry pairs a singleton resource value with the world-global
// version it was last written at, powering UpdatedResourcesSince.
type resourceEntry struct {
	value   any
	version uint64
}

// bumpResourceVersion advances and returns the world's monotonic
// resource-version counter, called by api.go's InsertResource and
// ResourceMut.
func (w *World) bumpResourceVersion() uint64 {
	w.resourceVersion++
	return w.resourceVersion
}

// MakeResourceVersionSnapshot returns the world's current resource-
// version counter, for later comparison with UpdatedResourcesSince.
func (w *World) MakeResourceVersionSnapshot() uint64 { return w.resourceVersion }

// UpdatedResourcesSince returns every resource key written after
// snapshot was taken (version greater than snapshot), in no particular
// order.
func (w *World) UpdatedResourcesSince(snapshot uint64) []ecs.ResourceKey {
	var out []ecs.ResourceKey
	for k, e := range w.resources {
		if e.version > snapshot {
			out = append(out, k)
		}
	}
	return out
}

// Ticks returns the snapshot {last_run, this_run} pair used by
// Added/Changed query filters.
func (w *World) Ticks() ecs.Snapshot {
	return ecs.Snapshot{LastRun: w.lastTick, ThisRun: w.tick}
}

// --- schedule.RunnableWorld ---

// Events returns the world's event bus.
func (w *World) Events() *event.Bus { return w.events }

// AdvanceTick closes out the current change tick, clamping the
// previous tick per ecs.ClampLastRun so long-idle snapshots stay
// correct under wraparound.
func (w *World) AdvanceTick() {
	w.lastTick = ecs.ClampLastRun(w.tick, w.tick+1, ecs.Tick(w.cfg.MaxTickDelta))
	w.tick++
}

// IsAliveID is a package-level convenience mirroring World.IsAlive,
// exported for callers that only have a *World and an ecs.ID.
func IsAliveID(w *World, id ecs.ID) bool { return w.IsAlive(id) }

// newCommandBuffer is a small helper shared by the direct mutation API
// in api.go: build a one-shot buffer, run a single op, integrate it.
func newCommandBuffer() *command.Buffer[*World] {
	return command.NewBuffer[*World]()
}
