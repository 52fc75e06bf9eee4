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

package cmd

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shenwei356/fastalign/fastalign/unit"
	"github.com/spf13/cobra"
)

// readParams reads parameters from a TOML file. Missing keys keep the default values.
func readParams(file string) (*unit.Params, error) {
	p := unit.DefaultParams
	data, err := os.ReadFile(expandPath(file))
	if err != nil {
		return nil, errors.Wrapf(err, "reading params file: %s", file)
	}
	if err = toml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrapf(err, "parsing params file: %s", file)
	}
	return &p, nil
}

// writeParams writes parameters to a TOML file.
func writeParams(file string, p *unit.Params) error {
	data, err := toml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encoding params")
	}
	return errors.Wrapf(os.WriteFile(expandPath(file), data, 0644), "writing params file: %s", file)
}

// addParamsFlags adds flags of seeding, chaining and alignment parameters.
// Flag names are the same as the keys of params files.
func addParamsFlags(cmd *cobra.Command, alignment bool) {
	d := unit.DefaultParams

	cmd.Flags().StringP("config", "", "",
		formatFlagUsage(`Params file in TOML format, with the same keys as the flags. Flags given in the command line have a higher priority.`))

	cmd.Flags().IntP("step", "b", d.Step,
		formatFlagUsage(`Sampling step of the suffix index of indexed sequences.`))
	cmd.Flags().IntP("seed-size", "S", d.SeedSize,
		formatFlagUsage(`Minimum length of seeds.`))
	cmd.Flags().IntP("prefix", "p", d.PrefixLen,
		formatFlagUsage(`Length of prefixes for the bucket table of the suffix index (0 for not using it).`))
	cmd.Flags().Float64P("max-repeat-frac", "", d.MaxRepeatFrac,
		formatFlagUsage(`Suffix windows with a homopolymer longer than this fraction of the step are not indexed.`))
	cmd.Flags().Float64P("max-unknown-frac", "", d.MaxUnknownFrac,
		formatFlagUsage(`Suffix windows with more non-ACGT bases than this fraction of the step are not indexed.`))

	if !alignment {
		return
	}

	cmd.Flags().Float64P("min-identity", "i", d.MinIdentity,
		formatFlagUsage(`Minimum identity of alignments to output.`))
	cmd.Flags().IntP("bandwidth", "B", d.Bandwidth,
		formatFlagUsage(`Minimum bandwidth of banded alignment.`))
	cmd.Flags().IntP("band-cap", "", d.BandCap,
		formatFlagUsage(`Maximum bandwidth of banded alignment.`))
	cmd.Flags().Float64P("min-seed-cover", "c", d.MinSeedCover,
		formatFlagUsage(`Minimum seed coverage of chains to align.`))
	cmd.Flags().IntP("single-seed-factor", "", d.SingleSeedFactor,
		formatFlagUsage(`A chain with a single seed is accepted only when the seed is longer than this times the seed size (1 or 2).`))
	cmd.Flags().BoolP("reject-short-pair", "", d.RejectShortPair,
		formatFlagUsage(`Reject chains of two seeds where the first one is shorter than twice the seed size.`))
	cmd.Flags().StringP("engine", "e", d.Engine,
		formatFlagUsage(`Alignment engine, available: nw (banded Needleman-Wunsch), wfa (wavefront alignment).`))
	cmd.Flags().StringP("save-params", "", "",
		formatFlagUsage(`Save the effective params to a TOML file.`))
}

// getParams returns the parameters from the params file (if given) and flags.
// Without a params file, all flag values are used, otherwise only the changed ones.
func getParams(cmd *cobra.Command, alignment bool) *unit.Params {
	var p *unit.Params
	file := getFlagString(cmd, "config")
	if file != "" {
		var err error
		p, err = readParams(file)
		checkError(err)
	} else {
		_p := unit.DefaultParams
		p = &_p
	}

	use := func(flag string) bool {
		return file == "" || cmd.Flags().Changed(flag)
	}

	if use("step") {
		p.Step = getFlagPositiveInt(cmd, "step")
	}
	if use("seed-size") {
		p.SeedSize = getFlagPositiveInt(cmd, "seed-size")
	}
	if use("prefix") {
		p.PrefixLen = getFlagNonNegativeInt(cmd, "prefix")
	}
	if use("max-repeat-frac") {
		p.MaxRepeatFrac = getFlagNonNegativeFloat64(cmd, "max-repeat-frac")
	}
	if use("max-unknown-frac") {
		p.MaxUnknownFrac = getFlagNonNegativeFloat64(cmd, "max-unknown-frac")
	}

	if alignment {
		if use("min-identity") {
			p.MinIdentity = getFlagNonNegativeFloat64(cmd, "min-identity")
		}
		if use("bandwidth") {
			p.Bandwidth = getFlagNonNegativeInt(cmd, "bandwidth")
		}
		if use("band-cap") {
			p.BandCap = getFlagNonNegativeInt(cmd, "band-cap")
		}
		if use("min-seed-cover") {
			p.MinSeedCover = getFlagNonNegativeFloat64(cmd, "min-seed-cover")
		}
		if use("single-seed-factor") {
			p.SingleSeedFactor = getFlagPositiveInt(cmd, "single-seed-factor")
		}
		if use("reject-short-pair") {
			p.RejectShortPair = getFlagBool(cmd, "reject-short-pair")
		}
		if use("engine") {
			p.Engine = getFlagString(cmd, "engine")
		}
	}

	checkError(p.Validate())
	return p
}
