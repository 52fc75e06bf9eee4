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

// Package synteny chains seeds between a probe sequence and one indexed
// sequence into ordered, non-overlapping syntenic blocks.
package synteny

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shenwei356/fastalign/fastalign/seeds"
)

// Chain is an ordered list of seeds where both the indexed offset and
// the probe offset strictly increase.
type Chain struct {
	Seeds []seeds.Seed

	TotalLen int // sum of seed lengths
	MaxIndel int // maximum |indel| between two consecutive seeds
	CumIndel int // sum of signed indels
}

var poolChain = &sync.Pool{New: func() interface{} {
	return &Chain{Seeds: make([]seeds.Seed, 0, 32)}
}}

// NewChain returns an empty chain from the object pool.
// Please remember to call RecycleChain after using it.
func NewChain() *Chain {
	c := poolChain.Get().(*Chain)
	c.Reset()
	return c
}

// RecycleChain recycles a chain.
func RecycleChain(c *Chain) {
	poolChain.Put(c)
}

// Reset empties the chain.
func (c *Chain) Reset() {
	c.Seeds = c.Seeds[:0]
	c.TotalLen = 0
	c.MaxIndel = 0
	c.CumIndel = 0
}

// Len returns the number of seeds.
func (c *Chain) Len() int { return len(c.Seeds) }

// First returns the first seed, the chain must not be empty.
func (c *Chain) First() seeds.Seed { return c.Seeds[0] }

// Last returns the last seed, the chain must not be empty.
func (c *Chain) Last() seeds.Seed { return c.Seeds[len(c.Seeds)-1] }

// AddOrdered appends a seed if both of its offsets are greater than
// those of the last seed. It returns false and leaves the chain
// unchanged otherwise.
func (c *Chain) AddOrdered(s seeds.Seed) bool {
	if len(c.Seeds) == 0 {
		c.Seeds = append(c.Seeds, s)
		c.TotalLen = s.Len
		return true
	}

	last := c.Seeds[len(c.Seeds)-1]
	if s.IdxOff <= last.IdxOff || s.ProbeOff <= last.ProbeOff {
		return false
	}

	indel := (s.IdxOff - last.IdxOff) - (s.ProbeOff - last.ProbeOff)
	c.CumIndel += indel
	if indel < 0 {
		indel = -indel
	}
	if indel > c.MaxIndel {
		c.MaxIndel = indel
	}

	c.Seeds = append(c.Seeds, s)
	c.TotalLen += s.Len
	return true
}

// MaxCumIndel returns the larger one of MaxIndel and |CumIndel|,
// used as a bandwidth hint for alignment.
func (c *Chain) MaxCumIndel() int {
	cum := c.CumIndel
	if cum < 0 {
		cum = -cum
	}
	return max(c.MaxIndel, cum)
}

// IdxRange returns the span of seed starts in the indexed sequence.
func (c *Chain) IdxRange() int {
	if len(c.Seeds) == 0 {
		return 0
	}
	return c.Last().IdxOff - c.First().IdxOff
}

// ProbeRange returns the span of seed starts in the probe sequence.
func (c *Chain) ProbeRange() int {
	if len(c.Seeds) == 0 {
		return 0
	}
	return c.Last().ProbeOff - c.First().ProbeOff
}

// Coverage returns the fraction of the chained region explained by seeds:
//
//	TotalLen / (max(IdxRange, ProbeRange) + length of the last seed)
//
// Short chains are scored 0 following the policy.
func (c *Chain) Coverage(p *Policy) float64 {
	switch len(c.Seeds) {
	case 0:
		return 0
	case 1:
		if c.Seeds[0].Len <= p.SingleSeedMin() {
			return 0
		}
	case 2:
		if p.RejectShortPair && c.Seeds[0].Len < p.SeedSize<<1 {
			return 0
		}
	}

	span := max(c.IdxRange(), c.ProbeRange()) + c.Last().Len
	return float64(c.TotalLen) / float64(span)
}

func (c *Chain) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "chain: %d seeds, total length: %d, max indel: %d, cumulative indel: %d\n",
		len(c.Seeds), c.TotalLen, c.MaxIndel, c.CumIndel)
	for _, s := range c.Seeds {
		fmt.Fprintf(&buf, "  %s\n", s)
	}
	return buf.String()
}

// Policy decides which chains are kept.
type Policy struct {
	SeedSize int // minimum seed length

	// a chain of one seed is kept only if the seed is longer than
	// SingleSeedFactor * SeedSize.
	SingleSeedFactor int

	// reject chains of two seeds whose first seed is shorter than 2 * SeedSize.
	RejectShortPair bool

	MinSeedCover float64 // minimum coverage, exclusive
}

// DefaultPolicy is the default Policy.
var DefaultPolicy = Policy{
	SeedSize:         20,
	SingleSeedFactor: 2,
	RejectShortPair:  false,
	MinSeedCover:     0.05,
}

// SingleSeedMin returns the length a lone seed has to exceed.
func (p *Policy) SingleSeedMin() int {
	return p.SingleSeedFactor * p.SeedSize
}

// Accept tells whether the coverage of a chain is above MinSeedCover.
func (p *Policy) Accept(c *Chain) bool {
	return c.Coverage(p) > p.MinSeedCover
}
