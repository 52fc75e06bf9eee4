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

// Package index implements a sampled suffix array over a sequence
// collection and the seed finder probing it.
package index

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rdleal/intervalst/interval"
	"github.com/shenwei356/fastalign/fastalign/seqs"
	"github.com/shenwei356/fastalign/fastalign/util"
	"github.com/shenwei356/kmers"
	"github.com/twotwotwo/sorts"
)

// Strands could be used to output strand for a reverse complement flag
var Strands = [2]byte{'+', '-'}

// Strand of an indexed suffix.
type Strand uint8

const (
	// Forward strand. The reverse strand is searched by probing with
	// reverse-complemented sequences instead.
	Forward Strand = iota
	Reverse
)

// ErrInvalidStep means the sampling step is < 1.
var ErrInvalidStep = errors.New("index: sampling step should be >= 1")

// ErrPrefixOverflow means the prefix length is out of range.
var ErrPrefixOverflow = fmt.Errorf("index: prefix length should be in range of [0, %d]", MaxPrefixLen)

// MaxPrefixLen is the maximum length of prefixes for bucketing suffixes.
const MaxPrefixLen = 12

// Entry is an element of the suffix array: the suffix of sequence Seq
// starting at Offset.
type Entry struct {
	Seq    uint32
	Offset uint32
	Strand Strand
}

func (e Entry) String() string {
	return fmt.Sprintf("%d:%d%c", e.Seq, e.Offset, Strands[e.Strand])
}

// Options contains the options for building an index.
type Options struct {
	Step int // sampling step, suffixes start at multiples of Step

	// a window [j, j+Step) is skipped if the longest run of repeats takes
	// more than MaxRepeatFrac of Step, or more than MaxUnknownFrac of Step
	// are not A/C/G/T.
	MaxRepeatFrac  float64
	MaxUnknownFrac float64

	// length of the prefix for bucketing suffixes, 0 for disabling.
	PrefixLen int
}

// DefaultOptions is the default Options.
var DefaultOptions = Options{
	Step:           2,
	MaxRepeatFrac:  0.9,
	MaxUnknownFrac: 0.5,
	PrefixLen:      8,
}

// Index is a sampled suffix array over a sequence collection.
// It is read-only after Build and safe for concurrent searching.
type Index struct {
	opt     Options
	store   *seqs.Store
	entries []Entry

	// bucket c covers entries[bStarts[c]:bEnds[c]], where c is the
	// 2-bit code of the first PrefixLen bases.
	bStarts []int32
	bEnds   []int32

	// low-complexity regions of each sequence
	masked   []*interval.SearchTree[int, int]
	regions  [][][2]int
	nSkipped int
}

// Build creates an index for all sequences of a store.
// The sorting step runs in parallel with sorts.MaxProcs goroutines.
func Build(store *seqs.Store, opt *Options) (*Index, error) {
	if opt == nil {
		opt = &DefaultOptions
	}
	if opt.Step < 1 {
		return nil, ErrInvalidStep
	}
	if opt.PrefixLen < 0 || opt.PrefixLen > MaxPrefixLen {
		return nil, ErrPrefixOverflow
	}
	if store == nil || store.Size() == 0 {
		return nil, errors.Wrap(seqs.ErrEmptyStore, "building index")
	}

	idx := &Index{
		opt:     *opt,
		store:   store,
		entries: make([]Entry, 0, store.TotalLen()/opt.Step+store.Size()),
		masked:  make([]*interval.SearchTree[int, int], store.Size()),
		regions: make([][][2]int, store.Size()),
	}

	step := opt.Step
	var s []byte
	var end int
	for i := 0; i < store.Size(); i++ {
		s = store.Bases(i)
		for j := 0; j < len(s); j += step {
			end = min(j+step, len(s))
			if IsLowComplexity(s[j:end], step, opt.MaxRepeatFrac, opt.MaxUnknownFrac) {
				idx.addMasked(i, j, end)
				idx.nSkipped++
				continue
			}
			idx.entries = append(idx.entries, Entry{Seq: uint32(i), Offset: uint32(j), Strand: Forward})
		}
	}

	if err := idx.buildMaskTrees(); err != nil {
		return nil, err
	}

	sorts.Quicksort(entrySorter{idx})

	if opt.PrefixLen > 0 {
		idx.buildBuckets()
	}

	return idx, nil
}

// IsLowComplexity checks a window of a suffix starting position.
// Repeats are counted as the extra copies in the longest run of one symbol,
// e.g., AAAA has 3 repeats. Both fractions use step as the denominator.
func IsLowComplexity(window []byte, step int, maxRepeatFrac, maxUnknownFrac float64) bool {
	_, run := util.LongestRun(window)
	if run > 0 && float64(run-1)/float64(step) > maxRepeatFrac {
		return true
	}

	var n int
	for _, b := range window {
		if !util.IsACGT(b) {
			n++
		}
	}
	return float64(n) > maxUnknownFrac*float64(step)
}

// Options returns the building options.
func (idx *Index) Options() Options { return idx.opt }

// Store returns the indexed sequences.
func (idx *Index) Store() *seqs.Store { return idx.store }

// Len returns the number of suffixes.
func (idx *Index) Len() int { return len(idx.entries) }

// Entry returns the i-th suffix in sorted order.
func (idx *Index) Entry(i int) Entry { return idx.entries[i] }

// Skipped returns the number of low-complexity windows skipped.
func (idx *Index) Skipped() int { return idx.nSkipped }

// Suffix returns the bases of the suffix of an entry.
func (idx *Index) Suffix(e Entry) []byte {
	return idx.store.Bases(int(e.Seq))[e.Offset:]
}

// Compare compares two suffixes over the length of the shorter one,
// it returns 0 if one is a prefix of the other.
func (idx *Index) Compare(a, b Entry) int {
	sa, sb := idx.Suffix(a), idx.Suffix(b)
	l := min(len(sa), len(sb))
	return bytes.Compare(sa[:l], sb[:l])
}

// less is the sorting order: lexicographic order of the suffixes, a prefix
// goes first, and identical suffixes are ordered by sequence and offset.
func (idx *Index) less(a, b Entry) bool {
	c := bytes.Compare(idx.Suffix(a), idx.Suffix(b))
	if c != 0 {
		return c < 0
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	return a.Offset < b.Offset
}

type entrySorter struct {
	idx *Index
}

func (s entrySorter) Len() int { return len(s.idx.entries) }
func (s entrySorter) Less(i, j int) bool {
	return s.idx.less(s.idx.entries[i], s.idx.entries[j])
}
func (s entrySorter) Swap(i, j int) {
	s.idx.entries[i], s.idx.entries[j] = s.idx.entries[j], s.idx.entries[i]
}

// LowerBound returns the position of the first suffix not less than the
// probe suffix starting at offset off. It returns Len() if all are less.
func (idx *Index) LowerBound(probe []byte, off int) int {
	return idx.lowerBound(probe[off:], 0, len(idx.entries))
}

// lowerBound searches in entries[lo:hi].
func (idx *Index) lowerBound(q []byte, lo, hi int) int {
	var m int
	for lo < hi {
		m = int(uint(lo+hi) >> 1)
		if bytes.Compare(idx.Suffix(idx.entries[m]), q) < 0 {
			lo = m + 1
		} else {
			hi = m
		}
	}
	return lo
}

// lowerBoundWithCode narrows the search to the bucket of the probe prefix,
// code is the 2-bit code of q[:PrefixLen] or -1 if it is unknown.
func (idx *Index) lowerBoundWithCode(q []byte, code int64) int {
	if code < 0 || idx.bStarts == nil {
		return idx.lowerBound(q, 0, len(idx.entries))
	}
	s, e := int(idx.bStarts[code]), int(idx.bEnds[code])
	p := idx.opt.PrefixLen
	if s >= e || !bytes.HasPrefix(idx.Suffix(idx.entries[s]), q[:p]) {
		return idx.lowerBound(q, 0, len(idx.entries))
	}
	// suffixes sharing a prefix are contiguous, so the bound is in [s, e].
	return idx.lowerBound(q, s, e)
}

// MatchLen returns the length of the common prefix of a suffix and the
// probe suffix starting at off.
func (idx *Index) MatchLen(e Entry, probe []byte, off int) int {
	s := idx.Suffix(e)
	q := probe[off:]
	l := min(len(s), len(q))
	var i int
	for i = 0; i < l; i++ {
		if s[i] != q[i] {
			break
		}
	}
	return i
}

func (idx *Index) buildBuckets() {
	p := idx.opt.PrefixLen
	n := 1 << (uint(p) << 1)
	idx.bStarts = make([]int32, n)
	idx.bEnds = make([]int32, n)

	var s []byte
	var code uint64
	var err error
	for i, e := range idx.entries {
		s = idx.Suffix(e)
		if len(s) < p {
			continue
		}
		if !cleanPrefix(s, p) {
			continue
		}
		code, err = kmers.Encode(s[:p])
		if err != nil {
			continue
		}
		if idx.bEnds[code] == 0 {
			idx.bStarts[code] = int32(i)
		}
		idx.bEnds[code] = int32(i + 1)
	}
}

func cleanPrefix(s []byte, p int) bool {
	for _, b := range s[:p] {
		if !util.IsACGT(b) {
			return false
		}
	}
	return true
}

func (idx *Index) addMasked(i, start, end int) {
	rs := idx.regions[i]
	if len(rs) > 0 && rs[len(rs)-1][1] == start {
		rs[len(rs)-1][1] = end
		return
	}
	idx.regions[i] = append(rs, [2]int{start, end})
}

func (idx *Index) buildMaskTrees() error {
	cmpFn := func(x, y int) int { return x - y }
	for i, rs := range idx.regions {
		if len(rs) == 0 {
			continue
		}
		t := interval.NewSearchTree[int, int](cmpFn)
		for j, r := range rs {
			if err := t.Insert(r[0], r[1], j); err != nil {
				return errors.Wrapf(err, "masking %s:%d-%d", idx.store.Name(i), r[0], r[1])
			}
		}
		idx.masked[i] = t
	}
	return nil
}

// MaskedRegions returns the low-complexity regions of the i-th sequence,
// as half-open intervals.
func (idx *Index) MaskedRegions(i int) [][2]int {
	return idx.regions[i]
}

// Masked tells whether [start, end) of the i-th sequence overlaps with
// a low-complexity region.
func (idx *Index) Masked(i, start, end int) bool {
	t := idx.masked[i]
	if t == nil || start >= end {
		return false
	}
	hits, ok := t.AllIntersections(start, end)
	if !ok {
		return false
	}
	var r [2]int
	for _, j := range hits {
		r = idx.regions[i][j]
		if r[0] < end && start < r[1] {
			return true
		}
	}
	return false
}
