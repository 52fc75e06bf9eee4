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

package synteny

import (
	"github.com/shenwei356/fastalign/fastalign/seeds"
	"github.com/shenwei356/fastalign/fastalign/util"
)

// Chainer finds the heaviest chain of seeds with dynamic programming.
// It reuses its buffers and is not safe for concurrent use.
type Chainer struct {
	scores []int // best chain score ending at each seed
	preds  []int // best predecessor of each seed, -1 for none
	path   []int
}

// NewChainer creates a new chainer.
func NewChainer() *Chainer {
	return &Chainer{
		scores: make([]int, 0, 128),
		preds:  make([]int, 0, 128),
		path:   make([]int, 0, 32),
	}
}

// Chain fills c with the chain of seeds maximizing the total length,
// and returns the score, i.e., c.TotalLen.
//
// ss must be the sorted seeds of one probe against one indexed sequence.
// Seed j may precede seed i if i starts after the end of j in both
// sequences. Since seeds are sorted by indexed offset, predecessors always
// come first, and score(i) = len(i) + max(0, score(j) of any predecessor j).
// The pairwise scan is quadratic in the number of seeds.
func (ce *Chainer) Chain(ss seeds.Seeds, c *Chain) int {
	c.Reset()
	n := len(ss)
	if n == 0 {
		return 0
	}

	scores := ce.scores[:0]
	preds := ce.preds[:0]

	var i, j, m, mj int
	var a, b seeds.Seed
	best, bestScore := 0, -1
	for i = 0; i < n; i++ {
		a = ss[i]
		m, mj = 0, -1
		for j = 0; j < i; j++ {
			b = ss[j]
			if a.ProbeOff < b.ProbeEnd() || a.IdxOff < b.IdxEnd() {
				continue
			}
			if scores[j] > m {
				m = scores[j]
				mj = j
			}
		}
		scores = append(scores, a.Len+m)
		preds = append(preds, mj)

		if scores[i] > bestScore {
			bestScore = scores[i]
			best = i
		}
	}

	// backtrack
	path := ce.path[:0]
	for i = best; i >= 0; i = preds[i] {
		path = append(path, i)
	}
	util.ReverseInts(path)

	for _, i = range path {
		c.AddOrdered(ss[i])
	}

	ce.scores, ce.preds, ce.path = scores, preds, path
	return bestScore
}
