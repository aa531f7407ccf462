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
	"testing"

	"github.com/latticeworks/ecsrt/ecs"
)

func TestUnsafeFetchAllWritableHonorsPlanFilters(t *testing.T) {
	w := newFakeWorld()
	col := setupColumn[posC](w, []uint32{0, 1, 2}, 1)
	setupColumn[velC](w, []uint32{1}, 1)

	plan := NewPlan(Write[posC](), Without[velC]())
	got := UnsafeFetchAllWritable[posC](w, plan)
	if len(got) != 2 {
		t.Fatalf("expected 2 positions excluding the velC-bearing slot, got %d", len(got))
	}

	for _, p := range got {
		p.x = 9
	}
	for _, slot := range []uint32{0, 2} {
		v, ok := col.Get(slot)
		if !ok || v.x != 9 {
			t.Fatalf("writes through returned pointers should be visible via the column, slot=%d v=%v ok=%v", slot, v, ok)
		}
	}
}

func TestForEach1StampsChangedOnRelease(t *testing.T) {
	w := newFakeWorld()
	col := setupColumn[posC](w, []uint32{0}, 1)
	w.snap = ecs.Snapshot{LastRun: 4, ThisRun: 10}

	plan := NewPlan(Write[posC]())
	ForEach1(w, plan, func(id ecs.ID, p *posC) {
		p.x = 5
	})

	idx := col.DenseIndex(0)
	if idx == -1 {
		t.Fatal("expected slot 0 to still have a cell")
	}
	if got := col.TicksAt(int(idx)).Changed; got != 10 {
		t.Fatalf("Changed tick = %d, want 10 (this_run) after the write-capable callback returned", got)
	}

	// A second run where this_run falls within the Changed-detection
	// window the first run's stamp should make visible.
	changedPlan := NewPlan(Changed[posC]())
	w.snap = ecs.Snapshot{LastRun: 9, ThisRun: 11}
	matches := changedPlan.FetchAll(w)
	if len(matches) != 1 || matches[0] != 0 {
		t.Fatalf("expected slot 0 to match Changed after ForEach1 stamped it, got %v", matches)
	}
}
