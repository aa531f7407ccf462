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

import "testing"

func TestSignatureSetClearContains(t *testing.T) {
	var s Signature
	if s.Contains(3) {
		t.Fatal("empty signature should not contain tag 3")
	}
	s.Set(3)
	s.Set(130) // forces growth past one word
	if !s.Contains(3) || !s.Contains(130) {
		t.Fatal("signature should contain both set tags")
	}
	s.Clear(3)
	if s.Contains(3) {
		t.Fatal("cleared tag should no longer be contained")
	}
	if !s.Contains(130) {
		t.Fatal("clearing one tag should not disturb another")
	}
}

func TestSignatureSupersetAndDisjoint(t *testing.T) {
	var a, b Signature
	a.Set(1)
	a.Set(2)
	b.Set(1)

	if !a.IsSupersetOf(b) {
		t.Fatal("a should be a superset of b")
	}
	if b.IsSupersetOf(a) {
		t.Fatal("b should not be a superset of a")
	}

	var c Signature
	c.Set(5)
	if !a.IsDisjointWith(c) {
		t.Fatal("a and c share no tags, should be disjoint")
	}
	if a.IsDisjointWith(b) {
		t.Fatal("a and b share tag 1, should not be disjoint")
	}
}

func TestSignatureEqualAndClone(t *testing.T) {
	var a Signature
	a.Set(4)
	a.Set(64)
	clone := a.Clone()
	if !a.Equal(clone) {
		t.Fatal("clone should equal original")
	}
	clone.Set(200)
	if a.Equal(clone) {
		t.Fatal("mutating clone should not affect original")
	}
	if a.Contains(200) {
		t.Fatal("original should be unaffected by clone mutation")
	}
}

func TestSignatureUnionAndCount(t *testing.T) {
	var a, b Signature
	a.Set(1)
	b.Set(2)
	b.Set(65)
	u := a.Union(b)
	if u.Count() != 3 {
		t.Fatalf("union count = %d, want 3", u.Count())
	}
	if !u.Contains(1) || !u.Contains(2) || !u.Contains(65) {
		t.Fatal("union missing an expected tag")
	}
}

func TestSignatureEach(t *testing.T) {
	var s Signature
	want := []Tag{0, 5, 70}
	for _, t := range want {
		s.Set(t)
	}
	var got []Tag
	s.Each(func(t Tag) { got = append(got, t) })
	if len(got) != len(want) {
		t.Fatalf("Each produced %d tags, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Each order/value mismatch at %d: got %d want %d", i, got[i], want[i])
		}
	}
}
