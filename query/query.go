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

// Package query resolves a tuple of component/filter parts against a
// world's columns: picking the cheapest driver column to iterate, then
// testing and fetching the rest per candidate slot. The plan-then-scan
// split mirrors sneller's query planner/executor boundary (plan/exec.go
// builds a plan once, then executor.run walks input according to it)
// generalized from "plan a SQL scan" to "plan an ECS component scan."
package query

import (
	"github.com/dchest/siphash"

	"github.com/latticeworks/ecsrt/column"
	"github.com/latticeworks/ecsrt/ecs"
)

// World is the slice of world behavior a query needs to resolve and
// run a scan, kept minimal so this package never has to import root.
type World interface {
	TryColumn(tag ecs.Tag) (column.AnyColumn, bool)
	Signature(slot uint32) (ecs.Signature, bool)
	Ticks() ecs.Snapshot
}

// GroupView is the packed-prefix surface a registered group exposes to
// the planner: its current size and the slot occupying each packed
// position. group.Group satisfies this directly.
type GroupView interface {
	Size() int
	SlotAt(i int) uint32
}

// GroupLookup is implemented by worlds that maintain groups. A query
// consults it before falling back to driver-column selection: when a
// registered group's packed prefix covers this query's required and
// excluded tags, enumerating it is cheaper than scanning a sparse-set
// driver column.
type GroupLookup interface {
	BestGroup(required, excluded ecs.Signature) (GroupView, bool)
}

// Part describes one element of a query tuple: a read, write, optional
// read/write, filter-only With/Without, or a change-detection probe.
// kind values are the partKind constants below.
type Part struct {
	tag      ecs.Tag
	kind     partKind
	optional bool
}

type partKind int

const (
	kindRead partKind = iota
	kindWrite
	kindWith
	kindWithout
	kindAdded
	kindChanged
	kindEntityID
)

// T declares a read-only component part.
func T[C any]() Part { return Part{tag: ecs.TagFor[C](), kind: kindRead} }

// Write declares a mutable component part.
func Write[C any]() Part { return Part{tag: ecs.TagFor[C](), kind: kindWrite} }

// Optional wraps a read part so a missing cell does not exclude the
// entity from the plan's matches (ForEachSlot, FetchAll). The typed
// ForEach1..ForEach4 helpers still skip a slot whose cell is missing;
// they never pass a nil pointer.
func Optional(p Part) Part { p.optional = true; return p }

// With declares a filter-only presence requirement with no fetched value.
func With[C any]() Part { return Part{tag: ecs.TagFor[C](), kind: kindWith} }

// Without declares a filter-only absence requirement.
func Without[C any]() Part { return Part{tag: ecs.TagFor[C](), kind: kindWithout} }

// Added declares a change-detection filter: the cell must have been
// inserted since the query's last run.
func Added[C any]() Part { return Part{tag: ecs.TagFor[C](), kind: kindAdded} }

// Changed declares a change-detection filter: the cell must have been
// inserted or overwritten since the query's last run.
func Changed[C any]() Part { return Part{tag: ecs.TagFor[C](), kind: kindChanged} }

// EntityID declares the synthetic entity-id part (ecs.EntityIDTag).
func EntityID() Part { return Part{tag: ecs.EntityIDTag, kind: kindEntityID} }

// Plan is a resolved, reusable query: its required/excluded signatures,
// its read/write sets, and Hash, a siphash of the required and excluded
// signatures. Stage conflict analysis uses ReadSet/WriteSet, not Hash.
type Plan struct {
	Parts    []Part
	Required ecs.Signature
	Excluded ecs.Signature
	ReadSet  ecs.Signature
	WriteSet ecs.Signature
	Hash     uint64
}

// siphash key used for every query hash; fixed and unexported since
// only relative equality/distinctness of hashes within one process
// matters, not cross-process stability.
var hashKey0, hashKey1 uint64 = 0x646e616d6f636573, 0x6c6c6572 // "dnamoces" "ller"

// NewPlan resolves parts into a Plan. Parts naming ecs.EntityIDTag
// contribute to neither Required nor Excluded. It panics if the same
// component tag is resolved by more than one read/write part -- two
// roles over the same tag is a query construction bug, not a
// recoverable runtime condition.
func NewPlan(parts ...Part) *Plan {
	p := &Plan{Parts: parts}
	seenResolved := make(map[ecs.Tag]bool)
	for _, part := range parts {
		switch part.kind {
		case kindRead, kindWrite:
			if seenResolved[part.tag] {
				panic(ecs.ErrDuplicateRole)
			}
			seenResolved[part.tag] = true
		}
		switch part.kind {
		case kindRead, kindAdded, kindChanged:
			p.ReadSet.Set(part.tag)
			if !part.optional {
				p.Required.Set(part.tag)
			}
		case kindWrite:
			p.ReadSet.Set(part.tag)
			p.WriteSet.Set(part.tag)
			if !part.optional {
				p.Required.Set(part.tag)
			}
		case kindWith:
			p.Required.Set(part.tag)
		case kindWithout:
			p.Excluded.Set(part.tag)
		case kindEntityID:
			// no signature contribution
		}
	}
	p.Hash = siphash.Hash(hashKey0, hashKey1, signatureBytes(p.Required, p.Excluded))
	return p
}

func signatureBytes(req, exc ecs.Signature) []byte {
	out := append([]byte{}, req.Bytes()...)
	out = append(out, 0xff)
	out = append(out, exc.Bytes()...)
	return out
}

// ConflictsWith reports whether two plans cannot safely run
// concurrently: one writes a tag the other reads or writes.
func (p *Plan) ConflictsWith(other *Plan) bool {
	if !p.WriteSet.IsDisjointWith(other.ReadSet) {
		return true
	}
	if !other.WriteSet.IsDisjointWith(p.ReadSet) {
		return true
	}
	return false
}

// candidates returns the slot-enumeration source ForEachSlot and
// ParForEachSlot both drive: a registered group's packed prefix when
// one covers (p.Required, p.Excluded), else the smallest required
// column (the driver column).
func (p *Plan) candidates(w World) (length int, at func(int) uint32, ok bool) {
	if gl, isGL := w.(GroupLookup); isGL {
		if gv, found := gl.BestGroup(p.Required, p.Excluded); found {
			return gv.Size(), gv.SlotAt, true
		}
	}
	_, driver, found := p.driverTag(w)
	if !found {
		return 0, nil, false
	}
	return driver.Len(), driver.KeyAt, true
}

// driverTag picks the smallest-cardinality required, non-optional
// component column to drive iteration, mirroring a SQL planner
// choosing the most selective index to seek first.
func (p *Plan) driverTag(w World) (ecs.Tag, column.AnyColumn, bool) {
	var bestTag ecs.Tag
	var best column.AnyColumn
	found := false
	for _, part := range p.Parts {
		if part.optional {
			continue
		}
		switch part.kind {
		case kindRead, kindWrite, kindWith, kindAdded, kindChanged:
			col, ok := w.TryColumn(part.tag)
			if !ok {
				return 0, nil, false
			}
			if !found || col.Len() < best.Len() {
				bestTag, best, found = part.tag, col, true
			}
		}
	}
	return bestTag, best, found
}

// matches reports whether slot satisfies the plan given the world's
// current entity signature and ticks.Snapshot: the signature must
// contain Required (read, write and With parts) and be disjoint from
// Excluded, and every Added/Changed part must pass its tick test.
func (p *Plan) matches(w World, slot uint32, snap ecs.Snapshot) bool {
	sig, ok := w.Signature(slot)
	if !ok {
		return false
	}
	if !sig.IsSupersetOf(p.Required) {
		return false
	}
	if !sig.IsDisjointWith(p.Excluded) {
		return false
	}
	for _, part := range p.Parts {
		switch part.kind {
		case kindAdded, kindChanged:
			col, ok := w.TryColumn(part.tag)
			if !ok {
				return false
			}
			d := col.DenseIndex(slot)
			if d == column.NotFound {
				if !part.optional {
					return false
				}
				continue
			}
			ticks := col.TicksAt(int(d))
			ref := ticks.Added
			if part.kind == kindChanged {
				ref = ticks.Changed
			}
			if !isNewerSince(ref, snap) {
				return false
			}
		}
	}
	return true
}

// isNewerSince reports whether cellTick falls in the open-below,
// closed-above window (snap.LastRun, snap.ThisRun]: newer than the
// query's last run and no newer than the tick this run started at, so
// a cell stamped after the scan began by a system running later in
// the same stage is not mistaken for having changed before it.
func isNewerSince(cellTick ecs.Tick, snap ecs.Snapshot) bool {
	if ecs.IsNewer(cellTick, snap.ThisRun) {
		return false
	}
	return ecs.IsNewer(cellTick, snap.LastRun)
}

// ForEachSlot drives the plan over w, invoking fn for every slot that
// passes every filter. It always re-evaluates filters against the
// current signature and ticks, even when a group supplies the
// candidate set, since a covering-but-not-exact group still needs its
// uncovered tags checked per entity.
func (p *Plan) ForEachSlot(w World, fn func(slot uint32)) {
	snap := w.Ticks()
	n, at, ok := p.candidates(w)
	if !ok {
		return
	}
	for i := 0; i < n; i++ {
		slot := at(i)
		if p.matches(w, slot, snap) {
			fn(slot)
		}
	}
}

// FetchOne scans for exactly one matching slot. It always performs a
// full bounded scan rather than returning a cached result, so it
// reflects the latest structural state.
func (p *Plan) FetchOne(w World) (uint32, bool) {
	var found uint32
	ok := false
	p.ForEachSlot(w, func(slot uint32) {
		if !ok {
			found, ok = slot, true
		}
	})
	return found, ok
}

// FetchAll returns every matching slot.
func (p *Plan) FetchAll(w World) []uint32 {
	var out []uint32
	p.ForEachSlot(w, func(slot uint32) { out = append(out, slot) })
	return out
}
