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

package query

import (
	"golang.org/x/sync/errgroup"
)

// ParForEachSlot partitions the driver column into chunkCount
// contiguous ranges and scans each on its own goroutine, collected
// behind an errgroup barrier the way sneller's executor.run fans work
// out across a thread pool and waits for every worker before
// returning. fn must be safe to call concurrently from multiple
// goroutines; callers writing components must partition their own
// writes by slot to avoid racing -- the caller, not this function,
// owns the aliasing contract for parallel writes.
func (p *Plan) ParForEachSlot(w World, chunkCount int, fn func(slot uint32)) error {
	snap := w.Ticks()
	n, at, ok := p.candidates(w)
	if !ok || n == 0 {
		return nil
	}
	if chunkCount < 1 {
		chunkCount = 1
	}
	if chunkCount > n {
		chunkCount = n
	}
	chunk := (n + chunkCount - 1) / chunkCount

	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		start := start
		end := start + chunk
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				slot := at(i)
				if p.matches(w, slot, snap) {
					fn(slot)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
