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
	"sort"
	"sync"
	"testing"
)

func TestParForEachSlotVisitsEveryMatchExactlyOnce(t *testing.T) {
	w := newFakeWorld()
	slots := make([]uint32, 0, 97)
	for i := uint32(0); i < 97; i++ {
		slots = append(slots, i)
	}
	setupColumn[posC](w, slots, 1)
	plan := NewPlan(T[posC]())

	var mu sync.Mutex
	var got []uint32
	err := plan.ParForEachSlot(w, 8, func(slot uint32) {
		mu.Lock()
		got = append(got, slot)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("ParForEachSlot returned error: %v", err)
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if len(got) != len(slots) {
		t.Fatalf("expected %d visits, got %d", len(slots), len(got))
	}
	for i, s := range got {
		if s != slots[i] {
			t.Fatalf("visit set mismatch at %d: got %d want %d", i, s, slots[i])
		}
	}
}

func TestParForEachSlotEmptyIsNoOp(t *testing.T) {
	w := newFakeWorld()
	setupColumn[posC](w, nil, 1)
	plan := NewPlan(T[posC]())

	called := false
	err := plan.ParForEachSlot(w, 4, func(uint32) { called = true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatal("no candidates should mean the callback never runs")
	}
}
