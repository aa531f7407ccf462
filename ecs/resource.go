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

import "reflect"

// ResourceKey stably identifies a singleton resource type.
type ResourceKey struct {
	rt reflect.Type
}

// ResourceKeyFor returns the stable key for resource type R.
func ResourceKeyFor[R any]() ResourceKey {
	var zero R
	return ResourceKey{rt: reflect.TypeOf(zero)}
}

func (k ResourceKey) String() string {
	if k.rt == nil {
		return "<nil resource key>"
	}
	return k.rt.String()
}
