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
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/fastalign/fastalign/align"
	"github.com/shenwei356/fastalign/fastalign/index"
	"github.com/shenwei356/fastalign/fastalign/synteny"
)

// ErrInvalidParams means some parameters are out of range.
var ErrInvalidParams = errors.New("unit: invalid parameters")

// Params contains the parameters of seeding, chaining and alignment.
// The toml keys are the same as the command line flags.
type Params struct {
	Step         int     `toml:"step"`           // sampling step of the suffix index
	SeedSize     int     `toml:"seed-size"`      // minimum seed length
	MinIdentity  float64 `toml:"min-identity"`   // minimum identity of alignments
	Bandwidth    int     `toml:"bandwidth"`      // minimum alignment bandwidth
	MinSeedCover float64 `toml:"min-seed-cover"` // minimum seed coverage of chains

	SingleSeedFactor int  `toml:"single-seed-factor"`
	RejectShortPair  bool `toml:"reject-short-pair"`

	BandCap   int    `toml:"band-cap"` // maximum alignment bandwidth
	Engine    string `toml:"engine"`
	PrefixLen int    `toml:"prefix"`

	MaxRepeatFrac  float64 `toml:"max-repeat-frac"`
	MaxUnknownFrac float64 `toml:"max-unknown-frac"`
}

// DefaultParams is the default Params.
var DefaultParams = Params{
	Step:         2,
	SeedSize:     20,
	MinIdentity:  0.4,
	Bandwidth:    3,
	MinSeedCover: 0.05,

	SingleSeedFactor: 2,
	RejectShortPair:  false,

	BandCap:   500,
	Engine:    align.EngineNW,
	PrefixLen: 8,

	MaxRepeatFrac:  0.9,
	MaxUnknownFrac: 0.5,
}

// Validate checks the parameters.
func (p *Params) Validate() error {
	var msgs []string
	if p.Step < 1 {
		msgs = append(msgs, fmt.Sprintf("step (%d) should be >= 1", p.Step))
	}
	if p.SeedSize < 1 {
		msgs = append(msgs, fmt.Sprintf("seed size (%d) should be >= 1", p.SeedSize))
	}
	if p.MinIdentity < 0 || p.MinIdentity > 1 {
		msgs = append(msgs, fmt.Sprintf("minimum identity (%v) should be in range of [0, 1]", p.MinIdentity))
	}
	if p.Bandwidth < 0 {
		msgs = append(msgs, fmt.Sprintf("bandwidth (%d) should be >= 0", p.Bandwidth))
	}
	if p.BandCap < p.Bandwidth {
		msgs = append(msgs, fmt.Sprintf("bandwidth cap (%d) should be >= bandwidth (%d)", p.BandCap, p.Bandwidth))
	}
	if p.MinSeedCover < 0 || p.MinSeedCover > 1 {
		msgs = append(msgs, fmt.Sprintf("minimum seed coverage (%v) should be in range of [0, 1]", p.MinSeedCover))
	}
	if p.SingleSeedFactor != 1 && p.SingleSeedFactor != 2 {
		msgs = append(msgs, fmt.Sprintf("single seed factor (%d) should be 1 or 2", p.SingleSeedFactor))
	}
	if p.PrefixLen < 0 || p.PrefixLen > index.MaxPrefixLen {
		msgs = append(msgs, fmt.Sprintf("prefix length (%d) should be in range of [0, %d]", p.PrefixLen, index.MaxPrefixLen))
	}
	if p.MaxRepeatFrac <= 0 || p.MaxUnknownFrac <= 0 {
		msgs = append(msgs, "fractions of low-complexity windows should be positive")
	}
	var knownEngine bool
	for _, e := range align.Engines {
		if p.Engine == e {
			knownEngine = true
			break
		}
	}
	if !knownEngine {
		msgs = append(msgs, fmt.Sprintf("unknown alignment engine: %s, available: %s",
			p.Engine, strings.Join(align.Engines, ", ")))
	}

	if len(msgs) > 0 {
		return errors.Wrap(ErrInvalidParams, strings.Join(msgs, "; "))
	}
	return nil
}

// IndexOptions returns the options for building the suffix index.
func (p *Params) IndexOptions() *index.Options {
	return &index.Options{
		Step:           p.Step,
		MaxRepeatFrac:  p.MaxRepeatFrac,
		MaxUnknownFrac: p.MaxUnknownFrac,
		PrefixLen:      p.PrefixLen,
	}
}

// Policy returns the chain acceptance policy.
func (p *Params) Policy() *synteny.Policy {
	return &synteny.Policy{
		SeedSize:         p.SeedSize,
		SingleSeedFactor: p.SingleSeedFactor,
		RejectShortPair:  p.RejectShortPair,
		MinSeedCover:     p.MinSeedCover,
	}
}

// Band returns the alignment bandwidth of a chain: its indel hint capped
// at BandCap, and no less than Bandwidth.
func (p *Params) Band(c *synteny.Chain) int {
	return max(min(c.MaxCumIndel(), p.BandCap), p.Bandwidth)
}
