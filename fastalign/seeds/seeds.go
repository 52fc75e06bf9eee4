// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package seeds defines exact-match seeds between a probe sequence and
// the indexed collection, and the table holding them for all probes.
package seeds

import (
	"fmt"
	"sort"
	"sync"
)

// Seed is an exact match between a probe sequence and an indexed sequence.
type Seed struct {
	IdxSeq   int // index of the indexed sequence
	IdxOff   int // offset in the indexed sequence
	ProbeOff int // offset in the probe sequence
	Len      int // match length
}

func (s Seed) String() string {
	return fmt.Sprintf("%d\t%d\t%d\t%d", s.IdxSeq, s.IdxOff, s.ProbeOff, s.Len)
}

// IdxEnd returns the end offset (exclusive) in the indexed sequence.
func (s Seed) IdxEnd() int { return s.IdxOff + s.Len }

// ProbeEnd returns the end offset (exclusive) in the probe sequence.
func (s Seed) ProbeEnd() int { return s.ProbeOff + s.Len }

// Less orders seeds by indexed sequence, indexed offset, and probe offset.
func (s Seed) Less(b Seed) bool {
	if s.IdxSeq != b.IdxSeq {
		return s.IdxSeq < b.IdxSeq
	}
	if s.IdxOff != b.IdxOff {
		return s.IdxOff < b.IdxOff
	}
	return s.ProbeOff < b.ProbeOff
}

// Seeds is the list of seeds of one probe sequence.
type Seeds []Seed

func (s Seeds) Len() int           { return len(s) }
func (s Seeds) Less(i, j int) bool { return s[i].Less(s[j]) }
func (s Seeds) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// Sort sorts seeds in place.
func (s Seeds) Sort() { sort.Sort(s) }

// Sorted tells whether the seeds are sorted.
func (s Seeds) Sorted() bool { return sort.IsSorted(s) }

// Groups splits sorted seeds into runs sharing the same indexed sequence.
// Every seed belongs to exactly one group.
func (s Seeds) Groups() []Seeds {
	if len(s) == 0 {
		return nil
	}
	groups := make([]Seeds, 0, 8)
	var start int
	for i := 1; i < len(s); i++ {
		if s[i].IdxSeq != s[start].IdxSeq {
			groups = append(groups, s[start:i])
			start = i
		}
	}
	return append(groups, s[start:])
}

// Table holds the seeds of all probe sequences, one slot per probe.
//
// During seeding every slot is written by exactly one worker via Slot,
// which needs no lock. Set and Add take the table lock and can be called
// from any goroutine.
type Table struct {
	mu    sync.Mutex
	slots []Seeds
}

// NewTable creates a table with n slots.
func NewTable(n int) *Table {
	return &Table{slots: make([]Seeds, n)}
}

// Len returns the number of slots.
func (t *Table) Len() int { return len(t.slots) }

// Slot returns the i-th slot for exclusive use by the caller.
func (t *Table) Slot(i int) *Seeds { return &t.slots[i] }

// Get returns the seeds of the i-th probe.
func (t *Table) Get(i int) Seeds { return t.slots[i] }

// Set replaces the seeds of the i-th probe.
func (t *Table) Set(i int, s Seeds) {
	t.mu.Lock()
	t.slots[i] = s
	t.mu.Unlock()
}

// Add appends a seed to the i-th probe, growing the table if needed.
func (t *Table) Add(i int, s Seed) {
	t.mu.Lock()
	if i >= len(t.slots) {
		slots := make([]Seeds, i+1)
		copy(slots, t.slots)
		t.slots = slots
	}
	t.slots[i] = append(t.slots[i], s)
	t.mu.Unlock()
}

// Sort sorts every slot.
func (t *Table) Sort() {
	for _, s := range t.slots {
		s.Sort()
	}
}

// NumSeeds returns the total number of seeds.
func (t *Table) NumSeeds() (n int) {
	for _, s := range t.slots {
		n += len(s)
	}
	return n
}

// Counts returns the number of seeds of every probe.
func (t *Table) Counts() []int {
	counts := make([]int, len(t.slots))
	for i, s := range t.slots {
		counts[i] = len(s)
	}
	return counts
}
