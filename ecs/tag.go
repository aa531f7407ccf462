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

package ecs

import (
	"reflect"
	"sync"
)

// Tag is a small dense integer assigned to a component type at
// first use. Two values are reserved and never handed out by
// TagFor: EntityIDTag and NeverTag.
type Tag int32

const (
	// NeverTag marks a component role that is never actually stored
	// (used internally by the query planner for parts that resolve
	// without touching a column).
	NeverTag Tag = -2
	// EntityIDTag is a synthetic tag: resolving it yields the entity
	// ID itself rather than a stored value.
	EntityIDTag Tag = -1
)

var tagRegistry struct {
	mu   sync.Mutex
	next int32
	byType map[reflect.Type]Tag
}

func init() {
	tagRegistry.byType = make(map[reflect.Type]Tag)
}

// TagFor returns the process-wide tag for component type T, assigning
// one from a monotonic counter on first use. The mapping is stable
// for the lifetime of the process, matching the "global component-tag
// allocation" design note: a single mutex-guarded counter seeds tags,
// and the reserved negative tags stand outside of it.
func TagFor[T any]() Tag {
	tagRegistry.mu.Lock()
	defer tagRegistry.mu.Unlock()
	var zero T
	rt := reflect.TypeOf(zero)
	if t, ok := tagRegistry.byType[rt]; ok {
		return t
	}
	t := Tag(tagRegistry.next)
	tagRegistry.next++
	tagRegistry.byType[rt] = t
	return t
}

// RegisteredTags returns the number of component types that have had
// a tag assigned so far. It exists mainly for sizing signatures in
// tests and for diagnostics.
func RegisteredTags() int {
	tagRegistry.mu.Lock()
	defer tagRegistry.mu.Unlock()
	return int(tagRegistry.next)
}
