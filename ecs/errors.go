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

import "errors"

// ErrMissingResource is the value MustResource and MustResourceMut
// panic with when code reads a resource that was never inserted.
var ErrMissingResource = errors.New("ecs: resource was never inserted")

// ErrDuplicateRole is the value query construction panics with when the same
// underlying component tag is resolved by more than one read/write
// part of the query.
var ErrDuplicateRole = errors.New("ecs: query resolves the same component tag more than once")

// ErrCyclicRunAfter is returned by the scheduler's stage builder when
// a system's run-after dependencies form a cycle.
var ErrCyclicRunAfter = errors.New("ecs: cyclic run-after dependency between systems")

// ErrStaleEntity is returned by a checked mutation when the target id
// no longer names a live entity (despawned, or a recycled slot's
// generation moved past it).
var ErrStaleEntity = errors.New("ecs: id does not name a live entity")
