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

package index

import (
	"github.com/shenwei356/fastalign/fastalign/seeds"
	"github.com/shenwei356/fastalign/fastalign/util"
	"github.com/shenwei356/lexichash/iterator"
)

// Finder finds seeds between probe sequences and an index.
// A Finder is not safe for concurrent use, create one per worker.
type Finder struct {
	idx    *Index
	minLen int

	// indexed sequence -> probe offset covered by the latest seed
	claims map[int]int

	codes []int64 // prefix code of each probe offset, -1 for none
}

// NewFinder creates a Finder reporting seeds of at least minLen bases.
func NewFinder(idx *Index, minLen int) *Finder {
	return &Finder{
		idx:    idx,
		minLen: minLen,
		claims: make(map[int]int, 64),
		codes:  make([]int64, 0, 1024),
	}
}

// MinLen returns the minimum seed length.
func (f *Finder) MinLen() int { return f.minLen }

// Find appends to dst the seeds of a probe sequence, and returns the
// number of seeds found.
//
// For each probe offset, suffixes around the lower bound are visited in
// both directions. A direction stops at the first suffix matching fewer
// than minLen bases, since farther suffixes can not match longer.
// A suffix of an indexed sequence already covered by a previous seed at
// this offset is skipped.
func (f *Finder) Find(probe []byte, dst *seeds.Seeds) int {
	idx := f.idx
	if len(probe) < f.minLen || len(idx.entries) == 0 {
		return 0
	}
	clear(f.claims)
	f.computeCodes(probe)

	n0 := len(*dst)
	entries := idx.entries
	var b, i int
	for off := 0; off <= len(probe)-f.minLen; off++ {
		if f.codes[off] >= 0 {
			b = idx.lowerBoundWithCode(probe[off:], f.codes[off])
		} else {
			b = idx.lowerBound(probe[off:], 0, len(entries))
		}

		for i = b; i < len(entries); i++ {
			if !f.visit(entries[i], probe, off, dst) {
				break
			}
		}
		for i = b - 1; i >= 0; i-- {
			if !f.visit(entries[i], probe, off, dst) {
				break
			}
		}
	}
	return len(*dst) - n0
}

// visit handles one candidate and tells whether to keep scanning.
func (f *Finder) visit(e Entry, probe []byte, off int, dst *seeds.Seeds) bool {
	seq := int(e.Seq)
	if covered, ok := f.claims[seq]; ok && covered > off {
		return true
	}

	l := f.idx.MatchLen(e, probe, off)
	if l < f.minLen {
		return false
	}

	*dst = append(*dst, seeds.Seed{
		IdxSeq:   seq,
		IdxOff:   int(e.Offset),
		ProbeOff: off,
		Len:      l,
	})
	f.claims[seq] = off + l
	return true
}

// computeCodes fills the prefix code of every probe offset whose first
// PrefixLen bases are all A/C/G/T.
func (f *Finder) computeCodes(probe []byte) {
	codes := f.codes[:0]
	for range probe {
		codes = append(codes, -1)
	}
	f.codes = codes

	p := f.idx.opt.PrefixLen
	if p == 0 || f.idx.bStarts == nil || len(probe) < p {
		return
	}

	// clean[j] is true if probe[j:j+p] has no other bases.
	clean := make([]bool, len(probe)-p+1)
	var bad int
	for j, b := range probe {
		if !util.IsACGT(b) {
			bad++
		}
		if j >= p && !util.IsACGT(probe[j-p]) {
			bad--
		}
		if j >= p-1 {
			clean[j-p+1] = bad == 0
		}
	}

	iter, err := iterator.NewKmerIterator(probe, p)
	if err != nil {
		return
	}
	var code uint64
	var ok bool
	var j int
	nCodes := uint64(len(f.idx.bStarts))
	for {
		code, ok, _ = iter.NextPositiveKmer()
		if !ok {
			break
		}
		j = iter.Index()
		if j >= 0 && j < len(clean) && clean[j] && code < nCodes {
			codes[j] = int64(code)
		}
	}
}
