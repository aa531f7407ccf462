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

// Package schedule packs registered systems into conflict-free stages
// and runs each stage to completion before starting the next, the way
// plan/exec.go's executor walks a fixed plan rather than re-deriving
// it on every call. Stage membership is cached per ordered system-ID
// list and only recomputed when that list changes.
package schedule

import (
	"golang.org/x/exp/slices"

	"github.com/latticeworks/ecsrt/ecs"
	"github.com/latticeworks/ecsrt/event"
	"github.com/latticeworks/ecsrt/query"
)

// Metadata declares everything about a system's data access that the
// stage packer needs to know to tell it apart from a conflicting
// system: which queries it runs, which resources and event types it
// touches and how, and which other systems must finish first.
type Metadata struct {
	Queries         []*query.Plan
	ResourceReads   []ecs.ResourceKey
	ResourceWrites  []ecs.ResourceKey
	EventReads      []event.Key
	EventWrites     []event.Key
	EventDrains     []event.Key
	RunAfter        []string
}

func keyIn(k ecs.ResourceKey, set []ecs.ResourceKey) bool {
	return slices.Contains(set, k)
}

func eventKeyIn(k event.Key, set []event.Key) bool {
	return slices.Contains(set, k)
}

// conflicts reports whether two systems' declared access patterns
// forbid running them in the same stage.
func conflicts(a, b Metadata) bool {
	for _, pa := range a.Queries {
		for _, pb := range b.Queries {
			if pa.ConflictsWith(pb) {
				return true
			}
		}
	}
	for _, w := range a.ResourceWrites {
		if keyIn(w, b.ResourceReads) || keyIn(w, b.ResourceWrites) {
			return true
		}
	}
	for _, w := range b.ResourceWrites {
		if keyIn(w, a.ResourceReads) {
			return true
		}
	}
	// Drain is exclusive: conflicts with any other access to the same
	// event type, including another drain.
	for _, d := range a.EventDrains {
		if eventKeyIn(d, b.EventReads) || eventKeyIn(d, b.EventWrites) || eventKeyIn(d, b.EventDrains) {
			return true
		}
	}
	for _, d := range b.EventDrains {
		if eventKeyIn(d, a.EventReads) || eventKeyIn(d, a.EventWrites) {
			return true
		}
	}
	// Write conflicts with Read (and with Drain, above); concurrent MPMC
	// writers are fine, a write only conflicts with something that consumes.
	for _, w := range a.EventWrites {
		if eventKeyIn(w, b.EventReads) {
			return true
		}
	}
	for _, w := range b.EventWrites {
		if eventKeyIn(w, a.EventReads) {
			return true
		}
	}
	return false
}
