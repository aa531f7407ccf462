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

package schedule

import (
	"github.com/dchest/siphash"

	"github.com/latticeworks/ecsrt/ecs"
)

// idAndMeta is the minimal surface Stagehand needs from a system: its
// identity and its declared data access. It is intentionally separate
// from the executable System[W] interface in executor.go, since
// conflict analysis does not need to know how to run the thing.
type idAndMeta interface {
	ID() string
	Metadata() Metadata
}

// stagehand packs a system list into the fewest ordered stages such
// that no two systems sharing a stage conflict, and every RunAfter
// dependency lands in a strictly earlier stage than its dependent. It
// is a greedy packer, not an optimal one: first-fit into the earliest
// stage that admits a system, scanning systems in declaration order.
type stagehand struct {
	ids    []string
	hash   uint64
	stages [][]int
}

var stageHashKey0, stageHashKey1 uint64 = 0x6168676573, 0x646e61646e

func hashIDs(ids []string) uint64 {
	var buf []byte
	for _, id := range ids {
		buf = append(buf, []byte(id)...)
		buf = append(buf, 0)
	}
	return siphash.Hash(stageHashKey0, stageHashKey1, buf)
}

// buildStages computes the stage assignment for systems, returning
// ecs.ErrCyclicRunAfter if the RunAfter graph has a cycle.
func buildStages(systems []idAndMeta) ([][]int, error) {
	n := len(systems)
	meta := make([]Metadata, n)
	idIndex := make(map[string]int, n)
	for i, s := range systems {
		meta[i] = s.Metadata()
		idIndex[s.ID()] = i
	}
	deps := make([][]int, n)
	for i, m := range meta {
		for _, dep := range m.RunAfter {
			if j, ok := idIndex[dep]; ok {
				deps[i] = append(deps[i], j)
			}
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, n)
	var visit func(i int) error
	visit = func(i int) error {
		switch color[i] {
		case black:
			return nil
		case gray:
			return ecs.ErrCyclicRunAfter
		}
		color[i] = gray
		for _, j := range deps[i] {
			if err := visit(j); err != nil {
				return err
			}
		}
		color[i] = black
		return nil
	}
	for i := range systems {
		if err := visit(i); err != nil {
			return nil, err
		}
	}

	placed := make([]int, n)
	for i := range placed {
		placed[i] = -1
	}
	var stages [][]int
	remaining := n
	for remaining > 0 {
		stageIdx := len(stages)
		var stage []int
		for i := 0; i < n; i++ {
			if placed[i] != -1 {
				continue
			}
			ready := true
			for _, dep := range deps[i] {
				if placed[dep] == -1 {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			conflict := false
			for _, j := range stage {
				if conflicts(meta[i], meta[j]) {
					conflict = true
					break
				}
			}
			if conflict {
				continue
			}
			stage = append(stage, i)
		}
		for _, i := range stage {
			placed[i] = stageIdx
		}
		stages = append(stages, stage)
		remaining -= len(stage)
	}
	return stages, nil
}

// stagesFor returns sh's cached stages, recomputing (and re-caching)
// only if systems' ordered ID list differs from the list the cache was
// built from.
func (sh *stagehand) stagesFor(systems []idAndMeta) ([][]int, error) {
	ids := make([]string, len(systems))
	for i, s := range systems {
		ids[i] = s.ID()
	}
	h := hashIDs(ids)
	if sh.stages != nil && h == sh.hash && len(ids) == len(sh.ids) {
		return sh.stages, nil
	}
	stages, err := buildStages(systems)
	if err != nil {
		return nil, err
	}
	sh.ids, sh.hash, sh.stages = ids, h, stages
	return stages, nil
}
