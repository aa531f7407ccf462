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

package paged

import "testing"

func TestBufferAppendGetSet(t *testing.T) {
	b := NewBuffer[int](2) // 4-entry pages
	for i := 0; i < 6; i++ {
		if idx := b.Append(i * 10); idx != i {
			t.Fatalf("Append returned index %d, want %d", idx, i)
		}
	}
	if b.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", b.Len())
	}
	if *b.Get(5) != 50 {
		t.Fatalf("Get(5) = %d, want 50", *b.Get(5))
	}
	b.Set(5, 500)
	if *b.Get(5) != 500 {
		t.Fatalf("Get(5) after Set = %d, want 500", *b.Get(5))
	}
}

func TestBufferSpansMultiplePages(t *testing.T) {
	b := NewBuffer[int](2) // 4-entry pages
	for i := 0; i < 9; i++ {
		b.Append(i)
	}
	if got := b.PageCount(); got != 3 {
		t.Fatalf("PageCount() = %d, want 3 for 9 entries at shift 2", got)
	}
	for i := 0; i < 9; i++ {
		if *b.Get(i) != i {
			t.Fatalf("Get(%d) = %d, want %d", i, *b.Get(i), i)
		}
	}
}

func TestBufferRemoveLastReleasesEmptiedPage(t *testing.T) {
	b := NewBuffer[int](2) // 4-entry pages
	for i := 0; i < 5; i++ {
		b.Append(i)
	}
	if got := b.PageCount(); got != 2 {
		t.Fatalf("PageCount() before removal = %d, want 2", got)
	}
	if v := b.RemoveLast(); v != 4 {
		t.Fatalf("RemoveLast() = %d, want 4", v)
	}
	if got := b.PageCount(); got != 1 {
		t.Fatalf("PageCount() after draining the second page's only entry = %d, want 1", got)
	}
	if b.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", b.Len())
	}
}

func TestBufferSwap(t *testing.T) {
	b := NewBuffer[string](2)
	b.Append("a")
	b.Append("b")
	b.Append("c")
	b.Swap(0, 2)
	if *b.Get(0) != "c" || *b.Get(2) != "a" {
		t.Fatalf("Swap(0,2) = (%s, %s), want (c, a)", *b.Get(0), *b.Get(2))
	}
	b.Swap(1, 1) // no-op
	if *b.Get(1) != "b" {
		t.Fatalf("Swap(1,1) should be a no-op, got %s", *b.Get(1))
	}
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer[int](2)
	for i := 0; i < 10; i++ {
		b.Append(i)
	}
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", b.Len())
	}
	if got := b.PageCount(); got != 0 {
		t.Fatalf("PageCount() after Reset = %d, want 0", got)
	}
	if idx := b.Append(42); idx != 0 {
		t.Fatalf("Append after Reset returned index %d, want 0", idx)
	}
}
