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
	"math"
	"math/rand"
	"testing"

	"github.com/shenwei356/fastalign/fastalign/seeds"
)

func TestAddOrdered(t *testing.T) {
	c := NewChain()
	defer RecycleChain(c)

	if !c.AddOrdered(seeds.Seed{IdxOff: 0, ProbeOff: 0, Len: 10}) {
		t.Errorf("the first seed should always be added")
	}
	if !c.AddOrdered(seeds.Seed{IdxOff: 20, ProbeOff: 15, Len: 10}) {
		t.Errorf("ordered seed rejected")
	}
	if c.AddOrdered(seeds.Seed{IdxOff: 30, ProbeOff: 15, Len: 10}) {
		t.Errorf("seed with the same probe offset accepted")
	}
	if c.AddOrdered(seeds.Seed{IdxOff: 10, ProbeOff: 30, Len: 10}) {
		t.Errorf("seed with a smaller indexed offset accepted")
	}
	if !c.AddOrdered(seeds.Seed{IdxOff: 40, ProbeOff: 40, Len: 10}) {
		t.Errorf("ordered seed rejected")
	}

	if c.Len() != 3 || c.TotalLen != 30 {
		t.Errorf("expected 3 seeds with total length 30, returned %d and %d", c.Len(), c.TotalLen)
	}
	// indels: 20-15=5, 20-25=-5
	if c.MaxIndel != 5 || c.CumIndel != 0 || c.MaxCumIndel() != 5 {
		t.Errorf("unexpected indels: max %d, cumulative %d", c.MaxIndel, c.CumIndel)
	}
	if c.IdxRange() != 40 || c.ProbeRange() != 40 {
		t.Errorf("unexpected ranges: %d, %d", c.IdxRange(), c.ProbeRange())
	}
}

func TestCoverage(t *testing.T) {
	p := &Policy{SeedSize: 20, SingleSeedFactor: 2, MinSeedCover: 0.25}
	c := NewChain()
	defer RecycleChain(c)

	if cov := c.Coverage(p); cov != 0 || p.Accept(c) {
		t.Errorf("empty chain: expected coverage 0, returned %f", cov)
	}

	c.AddOrdered(seeds.Seed{IdxOff: 0, ProbeOff: 0, Len: 25})
	c.AddOrdered(seeds.Seed{IdxOff: 30, ProbeOff: 30, Len: 25})
	cov := c.Coverage(p)
	if math.Abs(cov-50.0/55.0) > 1e-9 {
		t.Errorf("expected coverage %f, returned %f", 50.0/55.0, cov)
	}
	if !p.Accept(c) {
		t.Errorf("chain with coverage %f should be accepted", cov)
	}

	p2 := *p
	p2.RejectShortPair = true
	if cov = c.Coverage(&p2); cov != 0 {
		t.Errorf("short pair: expected coverage 0, returned %f", cov)
	}

	tests := []struct {
		factor int
		len    int
		cover  float64
	}{
		{2, 40, 0},
		{2, 41, 1},
		{1, 20, 0},
		{1, 21, 1},
	}
	for _, test := range tests {
		p3 := *p
		p3.SingleSeedFactor = test.factor
		c.Reset()
		c.AddOrdered(seeds.Seed{IdxOff: 5, ProbeOff: 7, Len: test.len})
		if cov = c.Coverage(&p3); cov != test.cover {
			t.Errorf("single seed of %d with factor %d: expected %f, returned %f",
				test.len, test.factor, test.cover, cov)
		}
	}
}

func randSeeds(r *rand.Rand, n int) seeds.Seeds {
	ss := make(seeds.Seeds, n)
	for i := range ss {
		ss[i] = seeds.Seed{
			IdxSeq:   3,
			IdxOff:   r.Intn(300),
			ProbeOff: r.Intn(300),
			Len:      10 + r.Intn(40),
		}
	}
	ss.Sort()
	return ss
}

// bruteForce returns the best total length of all valid chains.
func bruteForce(ss seeds.Seeds) int {
	var best, sum int
	var prev seeds.Seed
	var first, ok bool
	for mask := 1; mask < 1<<len(ss); mask++ {
		sum, first, ok = 0, true, true
		for i, s := range ss {
			if mask&(1<<i) == 0 {
				continue
			}
			if !first && (s.IdxOff < prev.IdxEnd() || s.ProbeOff < prev.ProbeEnd()) {
				ok = false
				break
			}
			first = false
			prev = s
			sum += s.Len
		}
		if ok && sum > best {
			best = sum
		}
	}
	return best
}

func TestChainer(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	ce := NewChainer()
	c := NewChain()
	defer RecycleChain(c)

	for round := 0; round < 200; round++ {
		ss := randSeeds(r, 1+r.Intn(12))
		score := ce.Chain(ss, c)

		if score != c.TotalLen {
			t.Errorf("round %d: score %d != total length %d", round, score, c.TotalLen)
		}
		var sum int
		for i, s := range c.Seeds {
			sum += s.Len
			if i == 0 {
				continue
			}
			p := c.Seeds[i-1]
			if s.IdxOff <= p.IdxOff || s.ProbeOff <= p.ProbeOff {
				t.Errorf("round %d: seeds %d and %d are not ordered", round, i-1, i)
			}
			if s.IdxOff < p.IdxEnd() || s.ProbeOff < p.ProbeEnd() {
				t.Errorf("round %d: seeds %d and %d overlap", round, i-1, i)
			}
		}
		if sum != c.TotalLen {
			t.Errorf("round %d: sum of lengths %d != total length %d", round, sum, c.TotalLen)
		}
		if b := bruteForce(ss); b != score {
			t.Errorf("round %d: best score %d, returned %d", round, b, score)
		}

		// deterministic
		c2 := NewChain()
		ce.Chain(ss, c2)
		if c2.Len() != c.Len() {
			t.Errorf("round %d: different chains for the same seeds", round)
		} else {
			for i := range c.Seeds {
				if c.Seeds[i] != c2.Seeds[i] {
					t.Errorf("round %d: different chains for the same seeds", round)
					break
				}
			}
		}
		RecycleChain(c2)
	}

	if score := ce.Chain(nil, c); score != 0 || c.Len() != 0 {
		t.Errorf("empty input: expected an empty chain")
	}
}

func TestChainerCollinear(t *testing.T) {
	ss := seeds.Seeds{
		{IdxOff: 0, ProbeOff: 0, Len: 25},
		{IdxOff: 10, ProbeOff: 200, Len: 22}, // off-diagonal
		{IdxOff: 30, ProbeOff: 30, Len: 25},
		{IdxOff: 60, ProbeOff: 62, Len: 30},
	}
	c := NewChain()
	defer RecycleChain(c)
	score := NewChainer().Chain(ss, c)
	if score != 80 || c.Len() != 3 {
		t.Errorf("expected 3 seeds with score 80, returned %d seeds with score %d", c.Len(), score)
	}
	if c.MaxIndel != 2 || c.CumIndel != -2 {
		t.Errorf("unexpected indels: %s", c)
	}
}
