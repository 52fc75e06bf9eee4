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
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/fastalign/fastalign/index"
	"github.com/shenwei356/fastalign/fastalign/seeds"
	"github.com/shenwei356/fastalign/fastalign/seqs"
	"github.com/shenwei356/fastalign/fastalign/unit"
	"github.com/spf13/cobra"
)

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align query sequences against target sequences",
	Long: `Align query sequences against target sequences

Steps:
  1. Target sequences are indexed with a sampled suffix array,
     where suffixes starting in low-complexity windows are skipped.
  2. Each query sequence is seeded with exact maximal matches no shorter
     than -S/--seed-size.
  3. Seeds of each query and target pair are chained into a collinear block,
     which is aligned when it covers enough of the sequences (-c/--min-seed-cover).
  4. Alignments with identity >= -i/--min-identity are written.
  5. The same is done for the reverse complement of query sequences,
     whose names are marked with a suffix "_RC".

Input:
  Plain or gzipped FASTA/Q files can be given via -q/--query and -t/--target,
  or directories via --query-dir and --target-dir, with multiple-level
  sub-directories allowed. A regular expression for matching sequencing files
  is available via the flag -r/--file-regexp.

Attention:
  1. Pairs of sequences with the same name are not aligned.
  2. Use --swap to index the query sequences and probe with the targets,
     which saves memory when query sequences are much shorter.
  3. Parameters can be given in a TOML file via --config, and the effective
     ones can be saved with --save-params.

Output format, one record per alignment:
  <query>[_RC] vs <target>
  <query>:<start>-<end> vs <target>:<start>-<end>, identity: <x> (<matches>/<len>), gaps: <n>

  P <offset> <aligned query> <end>
             <match line>
  I <offset> <aligned target> <end>

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}
		verbose := opt.Verbose || opt.Log2File
		timeStart := time.Now()
		defer func() {
			if verbose {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		// ---------------------------------------------------------------
		// flags

		params := getParams(cmd, true)

		outFile := getFlagString(cmd, "out-file")
		swap := getFlagBool(cmd, "swap")
		noRC := getFlagBool(cmd, "no-rc")
		seedsFile := getFlagString(cmd, "seeds-out")
		seedsMode := getSeedsMode(cmd)
		reFile := compileFileRegexp(getFlagString(cmd, "file-regexp"))
		ropt := &seqs.ReadOptions{
			MinLen:       getFlagNonNegativeInt(cmd, "min-seq-len"),
			ReSeqExclude: compileNameFilters(getFlagStringSlice(cmd, "seq-name-filter")),
		}

		if file := getFlagString(cmd, "save-params"); file != "" {
			checkError(writeParams(file, params))
			if verbose {
				log.Infof("params saved to %s", file)
			}
		}

		if verbose {
			log.Infof("fastalign v%s", VERSION)
			log.Info("  https://github.com/shenwei356/fastalign")
			log.Info()
			log.Info("checking input files ...")
		}

		qFiles := seqFiles(cmd, "query", "query-dir", reFile, opt.NumCPUs)
		tFiles := seqFiles(cmd, "target", "target-dir", reFile, opt.NumCPUs)
		if len(qFiles) == 0 {
			checkError(fmt.Errorf("query files needed, via -q/--query or --query-dir"))
		}
		if len(tFiles) == 0 {
			checkError(fmt.Errorf("target files needed, via -t/--target or --target-dir"))
		}

		if verbose {
			log.Infof("  %d query file(s) and %d target file(s) given", len(qFiles), len(tFiles))
			log.Info()
			log.Infof("-------------------- [main parameters] --------------------")
			logParams(params)
			log.Infof("swap query and target: %v", swap)
			log.Infof("reverse complement pass: %v", !noRC)
			log.Infof("-------------------- [main parameters] --------------------")
			log.Info()
			log.Info("loading sequences ...")
		}

		queries := loadSeqs(qFiles, ropt, "query", verbose)
		targets := loadSeqs(tFiles, ropt, "target", verbose)

		indexed, probes := targets, queries
		if swap {
			indexed, probes = queries, targets
		}

		// ---------------------------------------------------------------
		// index

		idx := buildIndex(indexed, params, verbose)

		// ---------------------------------------------------------------
		// passes

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		ctx := context.Background()

		runPass(ctx, idx, probes, params, opt, outfh, seedsFile, seedsMode)

		if !noRC {
			rcProbes, err := probes.RevComp()
			checkError(err)
			var rcSeedsFile string
			if seedsFile != "" {
				name, e1, e2 := filepathTrimExtension(seedsFile, nil)
				rcSeedsFile = name + unit.RCSuffix + e1 + e2
			}
			runPass(ctx, idx, rcProbes, params, opt, outfh, rcSeedsFile, seedsMode)
		}

		if verbose {
			log.Info()
			log.Infof("alignments saved to %s", outFile)
		}
	},
}

func logParams(p *unit.Params) {
	log.Infof("sampling step: %d", p.Step)
	log.Infof("seed size: %d", p.SeedSize)
	log.Infof("prefix length of bucket table: %d", p.PrefixLen)
	log.Infof("min seed coverage of chains: %v", p.MinSeedCover)
	log.Infof("single seed factor: %d, reject short pairs: %v", p.SingleSeedFactor, p.RejectShortPair)
	log.Infof("alignment engine: %s", p.Engine)
	log.Infof("bandwidth: [%d, %d]", p.Bandwidth, p.BandCap)
	log.Infof("min identity: %v", p.MinIdentity)
}

func buildIndex(store *seqs.Store, params *unit.Params, verbose bool) *index.Index {
	if verbose {
		log.Info()
		log.Infof("building index for %d sequences ...", store.Size())
	}
	timeStart := time.Now()
	idx, err := index.Build(store, params.IndexOptions())
	checkError(errors.Wrap(err, "building index"))
	if verbose {
		log.Infof("  %d suffixes indexed, %d in low-complexity windows skipped, in %s",
			idx.Len(), idx.Skipped(), time.Since(timeStart))
	}
	return idx
}

// findSeeds runs the seeding phase of a unit, with a progress bar in verbose mode.
func findSeeds(ctx context.Context, u *unit.Unit, n int, opt *Options) {
	verbose := opt.Verbose || opt.Log2File
	var pb *progressBar
	if opt.Verbose {
		pb = newProgressBar("seeded sequences: ", n)
		u.Progress = pb.Incr
	}
	timeStart := time.Now()
	err := u.FindAllSeeds(ctx)
	if pb != nil {
		pb.Wait()
	}
	checkError(err)
	u.Progress = nil

	if verbose {
		log.Infof("  %d seeds found in %s", u.Seeds().NumSeeds(), time.Since(timeStart))
	}
}

func runPass(ctx context.Context, idx *index.Index, probes *seqs.Store, params *unit.Params,
	opt *Options, outfh io.Writer, seedsFile string, seedsMode seeds.Mode) {
	verbose := opt.Verbose || opt.Log2File

	u, err := unit.New(idx, probes, params, opt.NumCPUs)
	checkError(err)

	if verbose {
		log.Info()
		if u.RevComp() {
			log.Infof("aligning reverse complement of %d sequences ...", probes.Size())
		} else {
			log.Infof("aligning %d sequences ...", probes.Size())
		}
	}

	findSeeds(ctx, u, probes.Size(), opt)

	if seedsFile != "" {
		_, err = u.Seeds().WriteToFile(seedsFile, seedsMode)
		checkError(errors.Wrapf(err, "writing seeds to %s", seedsFile))
		if verbose {
			log.Infof("  seeds saved to %s (mode: %s)", seedsFile, seedsMode)
		}
	}

	var pb *progressBar
	if opt.Verbose {
		pb = newProgressBar("aligned sequences: ", probes.Size())
		u.Progress = pb.Incr
	}
	err = u.AlignAll(ctx, outfh)
	if pb != nil {
		pb.Wait()
	}
	checkError(err)

	if verbose {
		s := u.Summary()
		log.Infof("  %d chains accepted (%d spanning low-complexity regions), %d self matches skipped, %d alignments with low identity",
			s.Chains, s.MaskedChains, s.SelfMatches, s.LowIdentity)
		log.Infof("  %d alignments written, identity: %.4f ± %.4f", s.Aligned, s.MeanIdentity, s.StdIdentity)
	}
}

func getSeedsMode(cmd *cobra.Command) seeds.Mode {
	mode := getFlagNonNegativeInt(cmd, "seeds-mode")
	if mode > int(seeds.Stats) {
		checkError(fmt.Errorf("value of --seeds-mode should be 0 (binary), 1 (ascii) or 2 (stats)"))
	}
	return seeds.Mode(mode)
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("query", "q", []string{},
		formatFlagUsage(`Query sequence files in FASTA/Q format, plain or compressed.`))
	cmd.Flags().StringSliceP("target", "t", []string{},
		formatFlagUsage(`Target sequence files in FASTA/Q format, plain or compressed.`))
	cmd.Flags().StringP("query-dir", "", "",
		formatFlagUsage(`Directory containing query FASTA/Q files. Directory symlinks are followed.`))
	cmd.Flags().StringP("target-dir", "", "",
		formatFlagUsage(`Directory containing target FASTA/Q files. Directory symlinks are followed.`))
	cmd.Flags().StringP("file-regexp", "r", defaultFileRegexp,
		formatFlagUsage(`Regular expression for matching sequence files in --query-dir and --target-dir, case ignored.`))
	cmd.Flags().StringSliceP("seq-name-filter", "", []string{},
		formatFlagUsage(`List of regular expressions for filtering out sequences by header/name, case ignored.`))
	cmd.Flags().IntP("min-seq-len", "", 0,
		formatFlagUsage(`Sequences shorter than this are skipped.`))
	cmd.Flags().BoolP("swap", "", false,
		formatFlagUsage(`Index query sequences and probe with target sequences.`))
}

func init() {
	RootCmd.AddCommand(alignCmd)

	addInputFlags(alignCmd)

	alignCmd.Flags().StringP("out-file", "o", "alignments.out",
		formatFlagUsage(`Output file, supporting the ".gz" suffix ("-" for stdout).`))
	alignCmd.Flags().BoolP("no-rc", "", false,
		formatFlagUsage(`Do not align the reverse complement of query sequences.`))
	alignCmd.Flags().StringP("seeds-out", "", "",
		formatFlagUsage(`Save seeds to this file, and those of the reverse complement pass to <name>_RC<ext>.`))
	alignCmd.Flags().IntP("seeds-mode", "", int(seeds.Binary),
		formatFlagUsage(`Format of the seeds file: 0 (binary), 1 (ascii), 2 (seed counts).`))

	addParamsFlags(alignCmd, true)

	alignCmd.SetUsageTemplate(usageTemplate("{-q <query files> | --query-dir <dir>} {-t <target files> | --target-dir <dir>} [-o <out file>]"))
}
