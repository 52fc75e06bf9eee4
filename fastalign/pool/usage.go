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

package pool

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrUsageSizeMismatch means a local usage vector does not have the size
// of the global list. It is raised as a panic.
var ErrUsageSizeMismatch = errors.New("pool: global usage size mismatch")

// UsageVec is a local list of marks owned by one worker. Changes are
// recorded until the next Usage.Sync.
type UsageVec struct {
	vals []int
	mods []int // indexes modified since the last sync
	from int   // number of global marks already received
}

// NewUsageVec creates a vector of n zero marks.
func NewUsageVec(n int) *UsageVec {
	return &UsageVec{
		vals: make([]int, n),
		mods: make([]int, 0, 64),
	}
}

// Len returns the size.
func (v *UsageVec) Len() int { return len(v.vals) }

// Used tells whether i is marked.
func (v *UsageVec) Used(i int) bool { return v.vals[i] != 0 }

// Set marks i with a value.
func (v *UsageVec) Set(i, val int) {
	if v.vals[i] == val {
		return
	}
	v.vals[i] = val
	v.mods = append(v.mods, i)
}

// Usage is the global list of marks shared by all workers, e.g., which
// probe sequences have been processed.
type Usage struct {
	mu   sync.Mutex
	vals []int
	log  []int // indexes in the order they were first marked
}

// NewUsage creates a global list of n marks, n could be 0 and the size is
// then taken from the first synced vector.
func NewUsage(n int) *Usage {
	return &Usage{
		vals: make([]int, n),
		log:  make([]int, 0, n),
	}
}

// Total returns the number of marked indexes.
func (u *Usage) Total() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.log)
}

// Sync absorbs the local changes of v into the global list, copies
// marks made by other workers since the last sync of v back to v, and
// returns the number of marked indexes.
//
// It panics with ErrUsageSizeMismatch if the sizes differ.
func (u *Usage) Sync(v *UsageVec) int {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(u.vals) == 0 {
		u.vals = make([]int, v.Len())
	}
	if v.Len() != len(u.vals) {
		panic(errors.Wrapf(ErrUsageSizeMismatch, "%d != %d", v.Len(), len(u.vals)))
	}

	curr := len(u.log)

	for _, i := range v.mods {
		if u.vals[i] == 0 && v.vals[i] != 0 {
			u.log = append(u.log, i)
		}
		u.vals[i] = v.vals[i]
	}

	for _, i := range u.log[v.from:curr] {
		v.vals[i] = u.vals[i]
	}

	v.mods = v.mods[:0]
	v.from = len(u.log)

	return len(u.log)
}
