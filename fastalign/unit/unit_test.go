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

package unit

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/shenwei356/fastalign/fastalign/index"
	"github.com/shenwei356/fastalign/fastalign/seeds"
	"github.com/shenwei356/fastalign/fastalign/seqs"
	"github.com/shenwei356/fastalign/fastalign/synteny"
)

func randSeq(r *rand.Rand, n int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = "ACGT"[r.Intn(4)]
	}
	return s
}

func clone(s []byte) []byte {
	return append([]byte{}, s...)
}

var comp = [256]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N'}

func revComp(s []byte) []byte {
	rc := make([]byte, len(s))
	for i, b := range s {
		rc[len(s)-1-i] = comp[b]
	}
	return rc
}

func newUnit(t *testing.T, indexed, probes *seqs.Store, params *Params) *Unit {
	if params == nil {
		params = &DefaultParams
	}
	idx, err := index.Build(indexed, params.IndexOptions())
	if err != nil {
		t.Fatalf("%s", err)
	}
	u, err := New(idx, probes, params, 2)
	if err != nil {
		t.Fatalf("%s", err)
	}
	return u
}

func run(t *testing.T, u *Unit) string {
	var buf bytes.Buffer
	if err := u.FindAllSeeds(context.Background()); err != nil {
		t.Fatalf("%s", err)
	}
	if err := u.AlignAll(context.Background(), &buf); err != nil {
		t.Fatalf("%s", err)
	}
	return buf.String()
}

func TestEndToEnd(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	s := randSeq(r, 100)
	indexed := seqs.NewStore(&seqs.Seq{Name: "a", Seq: clone(s)})
	probes := seqs.NewStore(&seqs.Seq{Name: "b", Seq: clone(s)})

	u := newUnit(t, indexed, probes, nil)
	out := run(t, u)

	var best seeds.Seed
	for _, sd := range u.Seeds().Get(0) {
		if sd.Len > best.Len {
			best = sd
		}
	}
	if best.Len < 90 {
		t.Errorf("expected a near full-length seed, returned %s", best)
	}

	if n := strings.Count(out, "b vs a\n"); n != 1 {
		t.Errorf("expected 1 alignment, returned %d:\n%s", n, out)
	}
	if !strings.Contains(out, "identity: 1.0000") {
		t.Errorf("expected identity 1:\n%s", out)
	}
	sum := u.Summary()
	if sum.Aligned != 1 || sum.MeanIdentity != 1 || sum.MaskedChains != 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestMaskedChains(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	s := append(append(randSeq(r, 60), bytes.Repeat([]byte{'N'}, 20)...), randSeq(r, 60)...)
	indexed := seqs.NewStore(&seqs.Seq{Name: "a", Seq: clone(s)})
	probes := seqs.NewStore(&seqs.Seq{Name: "b", Seq: clone(s)})

	u := newUnit(t, indexed, probes, nil)
	if regions := u.idx.MaskedRegions(0); len(regions) != 1 || regions[0] != [2]int{60, 80} {
		t.Errorf("unexpected masked regions: %v", regions)
	}
	out := run(t, u)
	sum := u.Summary()
	if sum.Chains != 1 || sum.MaskedChains != 1 || sum.Aligned != 1 {
		t.Errorf("unexpected summary: %+v\n%s", sum, out)
	}
}

func TestRunTwice(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	indexed := seqs.NewStore(
		&seqs.Seq{Name: "a", Seq: randSeq(r, 150)},
		&seqs.Seq{Name: "b", Seq: randSeq(r, 150)},
	)
	probes := seqs.NewStore(
		&seqs.Seq{Name: "p", Seq: clone(indexed.Bases(0)[20:120])},
		&seqs.Seq{Name: "q", Seq: clone(indexed.Bases(1)[30:140])},
		&seqs.Seq{Name: "r", Seq: randSeq(r, 80)},
	)

	u := newUnit(t, indexed, probes, nil)
	out1 := run(t, u)
	seeds1 := u.Seeds()
	out2 := run(t, u)

	if u.Seeds().NumSeeds() != seeds1.NumSeeds() {
		t.Errorf("seeds differ between runs: %d vs %d", seeds1.NumSeeds(), u.Seeds().NumSeeds())
	}
	if len(out1) != len(out2) || strings.Count(out2, " vs ") != strings.Count(out1, " vs ") {
		t.Errorf("outputs differ between runs:\n%s\n%s", out1, out2)
	}
	if n := strings.Count(out2, "p vs a\n") + strings.Count(out2, "q vs b\n"); n != 2 {
		t.Errorf("expected 2 alignments in the second run, returned %d:\n%s", n, out2)
	}
	if sum := u.Summary(); sum.Aligned != 4 {
		t.Errorf("expected 4 alignments in total, returned %d", sum.Aligned)
	}
}

func TestSelfMatch(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	s := randSeq(r, 100)
	indexed := seqs.NewStore(&seqs.Seq{Name: "a", Seq: clone(s)})
	probes := seqs.NewStore(&seqs.Seq{Name: "a", Seq: clone(s)})

	u := newUnit(t, indexed, probes, nil)
	if out := run(t, u); out != "" {
		t.Errorf("self matches should be skipped:\n%s", out)
	}
	if sum := u.Summary(); sum.SelfMatches != 1 || sum.Aligned != 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestMinIdentity(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	s := randSeq(r, 300)
	p := clone(s)
	for _, i := range []int{50, 150, 250} {
		p[i] = "ACGT"[(strings.IndexByte("ACGT", p[i])+2)%4]
	}

	for _, test := range []struct {
		minIdent float64
		aligned  int
	}{
		{1, 0},
		{0.9, 1},
	} {
		params := DefaultParams
		params.MinIdentity = test.minIdent
		u := newUnit(t,
			seqs.NewStore(&seqs.Seq{Name: "t", Seq: clone(s)}),
			seqs.NewStore(&seqs.Seq{Name: "q", Seq: clone(p)}),
			&params)
		out := run(t, u)
		sum := u.Summary()
		if sum.Chains != 1 || sum.Aligned != test.aligned || sum.LowIdentity != 1-test.aligned {
			t.Errorf("min identity %v: unexpected summary: %+v", test.minIdent, sum)
		}
		if test.aligned == 1 && !strings.Contains(out, "identity: 0.9900 (297/300)") {
			t.Errorf("min identity %v: unexpected output:\n%s", test.minIdent, out)
		}
	}
}

func TestRevCompPass(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	target := randSeq(r, 400)
	query := revComp(target[100:300])

	indexed := seqs.NewStore(&seqs.Seq{Name: "t", Seq: clone(target)})
	probes := seqs.NewStore(&seqs.Seq{Name: "q", Seq: clone(query)})
	idx, err := index.Build(indexed, DefaultParams.IndexOptions())
	if err != nil {
		t.Fatalf("%s", err)
	}

	fwd, err := New(idx, probes, nil, 2)
	if err != nil {
		t.Fatalf("%s", err)
	}
	if out := run(t, fwd); out != "" {
		t.Errorf("unexpected forward alignments:\n%s", out)
	}

	rcProbes, err := probes.RevComp()
	if err != nil {
		t.Fatalf("%s", err)
	}
	rc, err := New(idx, rcProbes, nil, 2)
	if err != nil {
		t.Fatalf("%s", err)
	}
	if !rc.RevComp() || fwd.RevComp() {
		t.Errorf("unexpected reverse complement flags")
	}
	out := run(t, rc)

	var found bool
	q := probes.Bases(0)
	for _, s := range rc.Seeds().Get(0) {
		if s == (seeds.Seed{IdxSeq: 0, IdxOff: 100, ProbeOff: 0, Len: 200}) {
			found = true
		}
		// the seed mirrored on the forward probe matches the complement strand
		fwdPart := q[len(q)-s.ProbeEnd() : len(q)-s.ProbeOff]
		if !bytes.Equal(revComp(fwdPart), target[s.IdxOff:s.IdxEnd()]) {
			t.Errorf("seed %s does not mirror the forward probe", s)
		}
	}
	if !found {
		t.Errorf("full-length seed not found: %v", rc.Seeds().Get(0))
	}
	if n := strings.Count(out, "q_RC vs t\n"); n != 1 {
		t.Errorf("expected 1 reverse complement alignment, returned %d:\n%s", n, out)
	}
}

func TestRevCompPalindrome(t *testing.T) {
	s := bytes.Repeat([]byte("ACGT"), 10)
	indexed := seqs.NewStore(&seqs.Seq{Name: "t", Seq: clone(s)})
	probes := seqs.NewStore(&seqs.Seq{Name: "p", Seq: clone(s)})
	rcProbes, err := probes.RevComp()
	if err != nil {
		t.Fatalf("%s", err)
	}

	fwd := newUnit(t, indexed, probes, nil)
	rc := newUnit(t, indexed, rcProbes, nil)
	for _, u := range []*Unit{fwd, rc} {
		if err = u.FindAllSeeds(context.Background()); err != nil {
			t.Fatalf("%s", err)
		}
	}

	a, b := fwd.Seeds().Get(0), rc.Seeds().Get(0)
	if len(a) == 0 || len(a) != len(b) {
		t.Errorf("seeds of the two strands differ: %v vs %v", a, b)
		return
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("seeds of the two strands differ: %s vs %s", a[i], b[i])
		}
	}
}

func TestParams(t *testing.T) {
	p := DefaultParams
	if err := p.Validate(); err != nil {
		t.Errorf("default params should be valid: %s", err)
	}

	bads := []func(p *Params){
		func(p *Params) { p.Step = 0 },
		func(p *Params) { p.SeedSize = 0 },
		func(p *Params) { p.MinIdentity = 1.5 },
		func(p *Params) { p.BandCap = 1 },
		func(p *Params) { p.SingleSeedFactor = 3 },
		func(p *Params) { p.PrefixLen = 13 },
		func(p *Params) { p.Engine = "blast" },
	}
	for i, f := range bads {
		p := DefaultParams
		f(&p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("case %d: expected ErrInvalidParams, returned %v", i, err)
		}
	}

	c := synteny.NewChain()
	defer synteny.RecycleChain(c)
	c.AddOrdered(seeds.Seed{IdxOff: 0, ProbeOff: 0, Len: 20})
	if b := p.Band(c); b != p.Bandwidth {
		t.Errorf("expected bandwidth %d, returned %d", p.Bandwidth, b)
	}
	c.AddOrdered(seeds.Seed{IdxOff: 2000, ProbeOff: 30, Len: 20})
	if b := p.Band(c); b != p.BandCap {
		t.Errorf("expected bandwidth %d, returned %d", p.BandCap, b)
	}
}
