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

// Package ecs holds the types shared by every layer of the runtime:
// entity identifiers, component tags, signatures and ticks. It has no
// dependencies on the storage, query, group, command or schedule
// packages so that all of them can depend on it without a cycle.
package ecs

import "fmt"

// ID identifies an entity. Slot indexes the dense per-entity arrays;
// Generation disambiguates slot reuse after despawn. An ID is live
// iff its Generation matches the registry's current generation for
// Slot.
type ID struct {
	Slot       uint32
	Generation uint32
}

// Invalid is the zero ID; it never names a live entity because slot 0
// is only ever live with a nonzero (odd) generation.
var Invalid = ID{}

func (id ID) String() string {
	return fmt.Sprintf("entity(%d#%d)", id.Slot, id.Generation)
}

// IsNil reports whether id is the zero value.
func (id ID) IsNil() bool {
	return id == ID{}
}
