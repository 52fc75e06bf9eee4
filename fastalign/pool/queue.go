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

// Package pool distributes indexed tasks over a fixed number of workers.
package pool

import "sync"

// Done is returned by Queue.Next when all indexes are handed out.
const Done = -1

// Queue hands out the indexes 0, 1, ..., n-1, each exactly once.
type Queue struct {
	mu   sync.Mutex
	n    int
	next int
}

// NewQueue creates a queue of n indexes.
func NewQueue(n int) *Queue {
	return &Queue{n: n}
}

// Len returns the number of indexes.
func (q *Queue) Len() int { return q.n }

// Next returns the next unclaimed index, or Done.
func (q *Queue) Next() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= q.n {
		return Done
	}
	i := q.next
	q.next++
	return i
}

// Reset makes all indexes available again.
func (q *Queue) Reset() {
	q.mu.Lock()
	q.next = 0
	q.mu.Unlock()
}
