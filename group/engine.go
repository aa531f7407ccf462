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

package group

import (
	"fmt"

	"github.com/latticeworks/ecsrt/ecs"
)

// Engine owns every registered group and enforces the one-owner-per-
// tag conflict rule.
type Engine struct {
	groups  []*Group
	ownerOf map[ecs.Tag]*Group
}

// NewEngine returns an empty group engine.
func NewEngine() *Engine {
	return &Engine{ownerOf: make(map[ecs.Tag]*Group)}
}

// Register creates a group for (signature, excluded, owned) and does
// a full rebuild over the world's current live entities. It fails if
// owned names a tag already owned by another group.
func (e *Engine) Register(w World, sig, excluded, owned ecs.Signature) (*Group, error) {
	var conflict error
	owned.Each(func(t ecs.Tag) {
		if conflict != nil {
			return
		}
		if existing, ok := e.ownerOf[t]; ok {
			conflict = fmt.Errorf("ecs: component tag %d already owned by another group", t)
			_ = existing
		}
	})
	if conflict != nil {
		return nil, conflict
	}

	g := newGroup(sig, excluded, owned)
	if g.Owning() {
		owned.Each(func(t ecs.Tag) {
			col, ok := w.TryColumn(t)
			if !ok {
				panic(fmt.Sprintf("ecs: cannot own unregistered component tag %d", t))
			}
			g.ownedCols = append(g.ownedCols, col)
		})
	}
	g.rebuild(w)

	owned.Each(func(t ecs.Tag) { e.ownerOf[t] = g })
	e.groups = append(e.groups, g)
	return g, nil
}

// Remove unregisters g, releasing the tags it owned.
func (e *Engine) Remove(g *Group) {
	g.Owned.Each(func(t ecs.Tag) {
		if e.ownerOf[t] == g {
			delete(e.ownerOf, t)
		}
	})
	for i, existing := range e.groups {
		if existing == g {
			e.groups = append(e.groups[:i], e.groups[i+1:]...)
			break
		}
	}
}

// Groups returns every registered group.
func (e *Engine) Groups() []*Group {
	return e.groups
}

// OnMutation is called after a structural insert or remove touching
// a single slot, with the entity's signature before and after the
// mutation. It admits or evicts the slot from every group whose
// predicate newly started or stopped matching.
func (e *Engine) OnMutation(slot uint32, before, after ecs.Signature) {
	for _, g := range e.groups {
		was := g.satisfies(before)
		is := g.satisfies(after)
		if !was && is {
			g.admit(slot)
		} else if was && !is {
			g.evict(slot)
		}
	}
}

// OnDespawn removes slot from every group it currently belongs to,
// called before an entity's columns are torn down.
func (e *Engine) OnDespawn(slot uint32, sig ecs.Signature) {
	for _, g := range e.groups {
		if g.satisfies(sig) {
			g.evict(slot)
		}
	}
}

// Best returns the group that most tightly covers (sig, excluded):
// an exact match if one exists, else the smallest covering group, or
// (nil, false, false) if no registered group covers the query at all.
func (e *Engine) Best(sig, excluded ecs.Signature) (g *Group, exact bool, ok bool) {
	var best *Group
	for _, cand := range e.groups {
		if cand.Signature.Equal(sig) && cand.Excluded.Equal(excluded) {
			return cand, true, true
		}
		if sig.IsSupersetOf(cand.Signature) && excluded.IsSupersetOf(cand.Excluded) {
			if best == nil || cand.Size() < best.Size() {
				best = cand
			}
		}
	}
	if best == nil {
		return nil, false, false
	}
	return best, false, true
}
