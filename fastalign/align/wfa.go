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

import (
	"github.com/pkg/errors"
	"github.com/shenwei356/wfa"
)

// CIGAR operations in wfa.AlignmentResult.Ops.
const (
	OpM byte = 'M'
	OpD byte = 'D'
	OpI byte = 'I'
	OpX byte = 'X'
	OpH byte = 'H'
)

// ErrInvalidCIGAR means the CIGAR operations do not fit the sequences.
var ErrInvalidCIGAR = errors.New("align: CIGAR does not match the sequences")

// WFA is an Engine using the wavefront alignment algorithm in global mode.
type WFA struct {
	algn *wfa.Aligner
}

// NewWFA creates a WFA engine with the default penalties.
func NewWFA() *WFA {
	return &WFA{
		algn: wfa.New(wfa.DefaultPenalties, &wfa.Options{GlobalAlignment: true}),
	}
}

// Align aligns the probe (query) against the indexed sequence (target).
// The band is not used as wavefronts grow only where needed.
func (e *WFA) Align(probe, indexed []byte, band int) (*Alignment, error) {
	result, err := e.algn.Align(probe, indexed)
	if err != nil {
		return nil, errors.Wrap(err, "wfa")
	}
	defer wfa.RecycleAlignmentResult(result)

	r := newAlignment()
	if err = r.fromOps(result.Ops, probe, indexed); err != nil {
		RecycleAlignment(r)
		return nil, err
	}
	return r, nil
}

// fromOps fills alignment strings from CIGAR operations of aligning
// a (query) against b (target), where an I consumes the target only,
// and a D or H consumes the query only.
func (r *Alignment) fromOps(ops []*wfa.CIGARRecord, a, b []byte) error {
	var i, j, x, n int
	for _, op := range ops {
		n = int(op.N)
		for x = 0; x < n; x++ {
			switch op.Op {
			case OpM, OpX:
				if i >= len(a) || j >= len(b) {
					return ErrInvalidCIGAR
				}
				r.AlignP = append(r.AlignP, a[i])
				r.AlignI = append(r.AlignI, b[j])
				if a[i] == b[j] {
					r.AlignM = append(r.AlignM, '|')
					r.Matches++
				} else {
					r.AlignM = append(r.AlignM, ' ')
				}
				i++
				j++
			case OpI:
				if j >= len(b) {
					return ErrInvalidCIGAR
				}
				r.AlignP = append(r.AlignP, '-')
				r.AlignI = append(r.AlignI, b[j])
				r.AlignM = append(r.AlignM, ' ')
				r.Gaps++
				j++
			case OpD, OpH:
				if i >= len(a) {
					return ErrInvalidCIGAR
				}
				r.AlignP = append(r.AlignP, a[i])
				r.AlignI = append(r.AlignI, '-')
				r.AlignM = append(r.AlignM, ' ')
				r.Gaps++
				i++
			default:
				continue
			}
			r.Len++
		}
	}
	if i != len(a) || j != len(b) {
		return ErrInvalidCIGAR
	}

	// score with the default scoring of the NW aligner
	o := &DefaultAlignOptions
	r.Score = r.Matches*o.MatchScore + (r.Len-r.Matches-r.Gaps)*o.MisMatchScore + r.Gaps*o.GapScore

	r.computeIdentity()
	return nil
}
