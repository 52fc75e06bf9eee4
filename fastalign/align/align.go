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

// Package align provides pairwise alignment engines for syntenic blocks.
package align

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Engine aligns a probe sub-sequence against an indexed sub-sequence.
// band is a hint of the maximum indel size, engines might ignore it.
// An Engine is not safe for concurrent use.
type Engine interface {
	Align(probe, indexed []byte, band int) (*Alignment, error)
}

// Names of supported engines.
const (
	EngineNW  = "nw"
	EngineWFA = "wfa"
)

// Engines lists the supported engines.
var Engines = []string{EngineNW, EngineWFA}

// ErrUnknownEngine means the engine name is not supported.
var ErrUnknownEngine = errors.New("align: unknown alignment engine")

// New creates an engine by name.
func New(name string, options *AlignOptions) (Engine, error) {
	if options == nil {
		options = &DefaultAlignOptions
	}
	switch name {
	case EngineNW:
		return NewAligner(options), nil
	case EngineWFA:
		return NewWFA(), nil
	}
	return nil, errors.Wrapf(ErrUnknownEngine, "%s (available: %s, %s)", name, EngineNW, EngineWFA)
}

// Alignment holds the details of an alignment.
type Alignment struct {
	Score   int // simply the score
	Len     int // length of alignment
	Matches int // number of matches
	Gaps    int // number of gaps

	Identity float64 // Matches / Len

	AlignP []byte // alignment string of the probe
	AlignM []byte // matching symbols, "|" for match, " " for others
	AlignI []byte // alignment string of the indexed sequence
}

// Reset resets all the values.
func (r *Alignment) Reset() {
	r.Score = 0
	r.Len = 0
	r.Matches = 0
	r.Gaps = 0
	r.Identity = 0

	r.AlignP = r.AlignP[:0]
	r.AlignM = r.AlignM[:0]
	r.AlignI = r.AlignI[:0]
}

var poolAlignment = &sync.Pool{New: func() interface{} {
	return &Alignment{
		AlignP: make([]byte, 0, 1024),
		AlignM: make([]byte, 0, 1024),
		AlignI: make([]byte, 0, 1024),
	}
}}

func newAlignment() *Alignment {
	r := poolAlignment.Get().(*Alignment)
	r.Reset()
	return r
}

// RecycleAlignment recycles an alignment returned by an Engine.
func RecycleAlignment(r *Alignment) {
	poolAlignment.Put(r)
}

func (r *Alignment) computeIdentity() {
	if r.Len > 0 {
		r.Identity = float64(r.Matches) / float64(r.Len)
	}
}

// Render writes the alignment, wrapped to width columns.
// Starts are 0-based offsets of the aligned regions, and positions are
// printed 1-based.
//
//	probe:1-100 vs indexed:11-110, identity: 0.9900 (99/100), gaps: 0
//
//	P          1 ACGT...A 100
//	             |||| ...|
//	I         11 ACGT...A 110
func (r *Alignment) Render(w io.Writer, probeName, idxName string, probeStart, idxStart, width int) error {
	if width <= 0 {
		width = 100
	}
	bw := bufio.NewWriter(w)

	pEnd := probeStart + r.Len - countGaps(r.AlignP)
	iEnd := idxStart + r.Len - countGaps(r.AlignI)
	fmt.Fprintf(bw, "%s:%d-%d vs %s:%d-%d, identity: %.4f (%d/%d), gaps: %d\n",
		probeName, probeStart+1, pEnd, idxName, idxStart+1, iEnd,
		r.Identity, r.Matches, r.Len, r.Gaps)

	pPos, iPos := probeStart, idxStart
	var end, np, ni int
	for i := 0; i < r.Len; i += width {
		end = min(i+width, r.Len)
		np = end - i - countGaps(r.AlignP[i:end])
		ni = end - i - countGaps(r.AlignI[i:end])

		fmt.Fprintf(bw, "\nP %10d %s %d\n", pPos+1, r.AlignP[i:end], pPos+np)
		fmt.Fprintf(bw, "  %10s %s\n", "", r.AlignM[i:end])
		fmt.Fprintf(bw, "I %10d %s %d\n", iPos+1, r.AlignI[i:end], iPos+ni)

		pPos += np
		iPos += ni
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

func countGaps(s []byte) (n int) {
	for _, b := range s {
		if b == '-' {
			n++
		}
	}
	return n
}

func reverse(s []byte) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
