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

// SlotMap is a sparse, page-backed slot->value map. Every page that
// has never been written shares one zero-initialized sentinel page;
// writing into a sentinel page clones it first. When a page's live
// (non-empty) entry count falls back to zero, its pointer is reset to
// the sentinel and the clone is released -- the same copy-on-write
// idea ion.Symtab uses for its "clone the starting map once, mutate
// the clone" reset path, generalized from one map to many independent
// pages so a write to slot 9000 doesn't force-allocate slots 0-8999.
type SlotMap[T comparable] struct {
	shift    uint
	mask     int
	empty    T
	sentinel []T
	pages    [][]T
	live     []int32 // live count per page index; 0 or absent means sentinel
}

// NewSlotMap constructs a SlotMap whose pages hold 1<<shift entries,
// all initially reading as empty.
func NewSlotMap[T comparable](shift uint, empty T) *SlotMap[T] {
	size := 1 << shift
	sentinel := make([]T, size)
	for i := range sentinel {
		sentinel[i] = empty
	}
	return &SlotMap[T]{
		shift:    shift,
		mask:     size - 1,
		empty:    empty,
		sentinel: sentinel,
	}
}

func (m *SlotMap[T]) split(i uint32) (page, off int) {
	return int(i) >> m.shift, int(i) & m.mask
}

func (m *SlotMap[T]) ensureLength(page int) {
	for len(m.pages) <= page {
		m.pages = append(m.pages, nil)
		m.live = append(m.live, 0)
	}
}

// Get returns the value stored at slot i, or the map's empty value if
// slot i has never been written (or was cleared back to empty).
func (m *SlotMap[T]) Get(i uint32) T {
	page, off := m.split(i)
	if page >= len(m.pages) || m.pages[page] == nil {
		return m.empty
	}
	return m.pages[page][off]
}

// Set writes v at slot i, cloning the page off the shared sentinel on
// first write and releasing the page back to the sentinel if v is the
// empty value and it was the page's last live entry.
func (m *SlotMap[T]) Set(i uint32, v T) {
	page, off := m.split(i)
	m.ensureLength(page)
	if m.pages[page] == nil {
		if v == m.empty {
			return // writing empty into an already-sentinel page is a no-op
		}
		cloned := make([]T, len(m.sentinel))
		copy(cloned, m.sentinel)
		m.pages[page] = cloned
	}
	prev := m.pages[page][off]
	if prev == v {
		return
	}
	m.pages[page][off] = v
	switch {
	case prev == m.empty && v != m.empty:
		m.live[page]++
	case prev != m.empty && v == m.empty:
		m.live[page]--
		if m.live[page] == 0 {
			m.pages[page] = nil
		}
	}
}

// PageCount returns the number of currently cloned (non-sentinel)
// pages.
func (m *SlotMap[T]) PageCount() int {
	c := 0
	for _, p := range m.pages {
		if p != nil {
			c++
		}
	}
	return c
}
