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
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/shenwei356/wfa"
)

func randSeq(r *rand.Rand, n int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = "ACGT"[r.Intn(4)]
	}
	return s
}

func TestGlobal(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	a := randSeq(r, 50)
	alg := NewAligner(&DefaultAlignOptions)

	// identical
	res := alg.Global(a, a, 3)
	if res.Len != 50 || res.Matches != 50 || res.Gaps != 0 || res.Identity != 1 {
		t.Errorf("identical: unexpected result: len %d, matches %d, gaps %d, identity %f",
			res.Len, res.Matches, res.Gaps, res.Identity)
	}
	RecycleAlignment(res)

	// one substitution
	b := append([]byte{}, a...)
	b[25] = "ACGT"[(strings.IndexByte("ACGT", b[25])+1)%4]
	res = alg.Global(a, b, 3)
	if res.Len != 50 || res.Matches != 49 || res.Gaps != 0 {
		t.Errorf("substitution: unexpected result: len %d, matches %d, gaps %d",
			res.Len, res.Matches, res.Gaps)
	}
	if res.Identity != 0.98 {
		t.Errorf("substitution: expected identity 0.98, returned %f", res.Identity)
	}
	RecycleAlignment(res)

	// one insertion in the indexed sequence, the band is widened by the
	// length difference
	c := append(append(append([]byte{}, a[:20]...), 'A'), a[20:]...)
	for _, band := range []int{0, 3} {
		res = alg.Global(a, c, band)
		if res.Len != 51 || res.Matches != 50 || res.Gaps != 1 {
			t.Errorf("insertion (band %d): unexpected result: len %d, matches %d, gaps %d",
				band, res.Len, res.Matches, res.Gaps)
		}
		if !bytes.Equal(bytes.ReplaceAll(res.AlignP, []byte{'-'}, nil), a) ||
			!bytes.Equal(bytes.ReplaceAll(res.AlignI, []byte{'-'}, nil), c) {
			t.Errorf("insertion (band %d): alignment strings do not match the sequences", band)
		}
		RecycleAlignment(res)
	}

	// empty
	res = alg.Global(nil, nil, 3)
	if res.Len != 0 || res.Identity != 0 {
		t.Errorf("empty: unexpected result: len %d", res.Len)
	}
	RecycleAlignment(res)
}

func TestRender(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	a := randSeq(r, 250)
	eng, err := New(EngineNW, nil)
	if err != nil {
		t.Errorf("%s", err)
		return
	}
	res, err := eng.Align(a, a, 3)
	if err != nil {
		t.Errorf("%s", err)
		return
	}
	defer RecycleAlignment(res)

	var buf bytes.Buffer
	if err = res.Render(&buf, "p1", "i1", 0, 10, 100); err != nil {
		t.Errorf("%s", err)
		return
	}
	out := buf.String()
	if !strings.HasPrefix(out, "p1:1-250 vs i1:11-260, identity: 1.0000 (250/250), gaps: 0\n") {
		t.Errorf("unexpected header: %s", out)
	}
	if n := strings.Count(out, "\nP "); n != 3 {
		t.Errorf("expected 3 blocks, returned %d", n)
	}
	if !strings.Contains(out, "I        211 "+string(a[200:])+" 260\n") {
		t.Errorf("unexpected last block: %s", out)
	}
}

func TestFromOps(t *testing.T) {
	// the query has an extra base, which is a D.
	a, b := []byte("ACGTA"), []byte("ACTA")
	ops := []*wfa.CIGARRecord{{N: 2, Op: OpM}, {N: 1, Op: OpD}, {N: 2, Op: OpM}}

	r := newAlignment()
	defer RecycleAlignment(r)
	if err := r.fromOps(ops, a, b); err != nil {
		t.Errorf("%s", err)
		return
	}
	if string(r.AlignP) != "ACGTA" || string(r.AlignI) != "AC-TA" || string(r.AlignM) != "|| ||" {
		t.Errorf("unexpected alignment:\n%s\n%s\n%s", r.AlignP, r.AlignM, r.AlignI)
	}
	if r.Len != 5 || r.Matches != 4 || r.Gaps != 1 || r.Identity != 0.8 {
		t.Errorf("unexpected result: len %d, matches %d, gaps %d", r.Len, r.Matches, r.Gaps)
	}

	// the target has an extra base, which is an I.
	r1 := newAlignment()
	defer RecycleAlignment(r1)
	ops = []*wfa.CIGARRecord{{N: 2, Op: OpM}, {N: 1, Op: OpI}, {N: 2, Op: OpM}}
	if err := r1.fromOps(ops, b, a); err != nil {
		t.Errorf("%s", err)
		return
	}
	if string(r1.AlignP) != "AC-TA" || string(r1.AlignI) != "ACGTA" {
		t.Errorf("unexpected alignment:\n%s\n%s\n%s", r1.AlignP, r1.AlignM, r1.AlignI)
	}

	for _, ops := range [][]*wfa.CIGARRecord{
		{{N: 10, Op: OpM}},
		{{N: 4, Op: OpM}},
		{{N: 2, Op: OpM}, {N: 1, Op: OpI}, {N: 2, Op: OpM}},
	} {
		r2 := newAlignment()
		if err := r2.fromOps(ops, a, b); err != ErrInvalidCIGAR {
			t.Errorf("expected ErrInvalidCIGAR, returned %v", err)
		}
		RecycleAlignment(r2)
	}
}

func TestWFAIndel(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	a := randSeq(r, 60)
	// one base inserted into the indexed sequence
	b := append(append(append([]byte{}, a[:30]...), 'A'), a[30:]...)

	eng, err := New(EngineWFA, nil)
	if err != nil {
		t.Errorf("%s", err)
		return
	}
	for _, test := range []struct {
		probe, indexed []byte
	}{
		{a, b},
		{b, a},
	} {
		res, err := eng.Align(test.probe, test.indexed, 0)
		if err != nil {
			t.Errorf("%s", err)
			return
		}
		if res.Len != 61 || res.Matches != 60 || res.Gaps != 1 {
			t.Errorf("unexpected result: len %d, matches %d, gaps %d, identity %f",
				res.Len, res.Matches, res.Gaps, res.Identity)
		}
		if !bytes.Equal(bytes.ReplaceAll(res.AlignP, []byte{'-'}, nil), test.probe) ||
			!bytes.Equal(bytes.ReplaceAll(res.AlignI, []byte{'-'}, nil), test.indexed) {
			t.Errorf("alignment strings do not match the sequences:\n%s\n%s", res.AlignP, res.AlignI)
		}
		RecycleAlignment(res)
	}
}

func TestWFAIdentical(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	a := randSeq(r, 120)
	eng, err := New(EngineWFA, nil)
	if err != nil {
		t.Errorf("%s", err)
		return
	}
	res, err := eng.Align(a, a, 0)
	if err != nil {
		t.Errorf("%s", err)
		return
	}
	defer RecycleAlignment(res)
	if res.Len != 120 || res.Identity != 1 {
		t.Errorf("unexpected result: len %d, identity %f", res.Len, res.Identity)
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New("blast", nil); err == nil {
		t.Errorf("expected an error for an unknown engine")
	}
}
