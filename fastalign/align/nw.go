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

package align

import "math"

// Pointer is for saving where the maximum score of current position comes from.
type Pointer uint8

const (
	None Pointer = iota // No data, the topleft corner.
	Top
	Left
	Mismatch
	Match
)

func (p Pointer) String() string {
	switch p {
	case Match:
		return "↘︎"
	case Mismatch:
		return "⇘"
	case Top:
		return "↓"
	case Left:
		return "→"
	case None:
		return "×"
	}
	return "■"
}

const negInf = math.MinInt32 >> 1

// AlignOptions contains the scores of the banded Needleman-Wunsch aligner.
type AlignOptions struct {
	MatchScore    int // score for a match
	MisMatchScore int // score for a mismatch
	GapScore      int // score for a gap
}

// DefaultAlignOptions is the default AlignOptions.
var DefaultAlignOptions = AlignOptions{
	MatchScore:    1,
	MisMatchScore: -1,
	GapScore:      -1,
}

// Aligner implements a banded Needleman-Wunsch global alignment.
type Aligner struct {
	Options *AlignOptions

	// reusable matrices, one row of the band per row of the full matrix
	scores   []int
	pointers []Pointer
}

// NewAligner returns an aligner.
func NewAligner(options *AlignOptions) *Aligner {
	return &Aligner{
		Options:  options,
		scores:   make([]int, 1<<16),
		pointers: make([]Pointer, 1<<16),
	}
}

// Align aligns the whole probe against the whole indexed sequence.
func (alg *Aligner) Align(probe, indexed []byte, band int) (*Alignment, error) {
	return alg.Global(probe, indexed, band), nil
}

// Global aligns two sequences with global alignment, only cells with
// diagonal offset j-i in [-band, band] are computed. The band is widened
// by the length difference so that the bottom-right corner is reachable.
// Please remember to recycle the result after using by calling
// RecycleAlignment.
func (alg *Aligner) Global(a, b []byte, band int) *Alignment {
	if band < 0 {
		band = 0
	}
	h := len(a) + 1 // height of the matrix
	w := len(b) + 1 // width of the matrix

	dw := len(b) - len(a)
	dlo := -band + min(0, dw)
	dhi := band + max(0, dw)
	W := dhi - dlo + 1 // width of the band

	// ---------------------------------------------------
	// initialize

	n := h * W
	if n > len(alg.scores) {
		alg.scores = make([]int, n)
		alg.pointers = make([]Pointer, n)
	}
	scores := alg.scores[:n]
	pointers := alg.pointers[:n]

	// k returns the position of cell (i, j) in the band, or -1 if it's outside.
	k := func(i, j int) int {
		if i < 0 || j < 0 || j >= w {
			return -1
		}
		d := j - i
		if d < dlo || d > dhi {
			return -1
		}
		return i*W + d - dlo
	}

	match := alg.Options.MatchScore
	mismatch := alg.Options.MisMatchScore
	gap := alg.Options.GapScore

	// ---------------------------------------------------
	// compute

	var i, j, c, kk, jlo, jhi int
	var m, s int
	var p Pointer
	for i = 0; i < h; i++ {
		jlo = max(0, i+dlo)
		jhi = min(w-1, i+dhi)
		for j = jlo; j <= jhi; j++ {
			c = k(i, j)
			if i == 0 && j == 0 {
				scores[c] = 0
				pointers[c] = None
				continue
			}

			m, p = negInf, None
			if i > 0 && j > 0 {
				kk = k(i-1, j-1)
				if a[i-1] == b[j-1] {
					m, p = scores[kk]+match, Match
				} else {
					m, p = scores[kk]+mismatch, Mismatch
				}
			}
			if kk = k(i-1, j); kk >= 0 {
				if s = scores[kk] + gap; s > m {
					m, p = s, Top
				}
			}
			if kk = k(i, j-1); kk >= 0 {
				if s = scores[kk] + gap; s > m {
					m, p = s, Left
				}
			}

			scores[c] = m
			pointers[c] = p
		}
	}

	// ---------------------------------------------------
	// traceback

	r := newAlignment()

	i = h - 1
	j = w - 1
	r.Score = scores[k(i, j)]

	for p = pointers[k(i, j)]; p != None; p = pointers[k(i, j)] {
		r.Len++

		switch p {
		case Mismatch:
			r.AlignP = append(r.AlignP, a[i-1])
			r.AlignI = append(r.AlignI, b[j-1])
			r.AlignM = append(r.AlignM, ' ')

			i--
			j--
		case Match:
			r.AlignP = append(r.AlignP, a[i-1])
			r.AlignI = append(r.AlignI, b[j-1])
			r.AlignM = append(r.AlignM, '|')

			r.Matches++
			i--
			j--
		case Top:
			r.AlignP = append(r.AlignP, a[i-1])
			r.AlignI = append(r.AlignI, '-')
			r.AlignM = append(r.AlignM, ' ')

			r.Gaps++
			i--
		case Left:
			r.AlignP = append(r.AlignP, '-')
			r.AlignI = append(r.AlignI, b[j-1])
			r.AlignM = append(r.AlignM, ' ')

			r.Gaps++
			j--
		}
	}

	reverse(r.AlignP)
	reverse(r.AlignI)
	reverse(r.AlignM)

	r.computeIdentity()
	return r
}
