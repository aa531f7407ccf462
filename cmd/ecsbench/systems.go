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

package main

import (
	"context"

	"github.com/latticeworks/ecsrt"
	"github.com/latticeworks/ecsrt/command"
	"github.com/latticeworks/ecsrt/schedule"
)

// funcSystem adapts a plain function to schedule.System[*ecsrt.World]
// so scenarios below can declare systems inline instead of naming a
// type per system.
type funcSystem struct {
	id   string
	meta schedule.Metadata
	fn   func(ctx context.Context, w *ecsrt.World, cmd *command.Buffer[*ecsrt.World]) error
}

func (s funcSystem) ID() string                  { return s.id }
func (s funcSystem) Metadata() schedule.Metadata { return s.meta }
func (s funcSystem) Run(ctx context.Context, w *ecsrt.World, cmd *command.Buffer[*ecsrt.World]) error {
	return s.fn(ctx, w, cmd)
}
