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
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/fastalign/fastalign/seqs"
	"github.com/shenwei356/fastalign/fastalign/unit"
	"github.com/spf13/cobra"
)

var seedsCmd = &cobra.Command{
	Use:   "seeds",
	Short: "Find seeds of query sequences in target sequences",
	Long: `Find seeds of query sequences in target sequences

Seeds are exact maximal matches no shorter than -S/--seed-size, found with
a sampled suffix index of target sequences. No chaining or alignment is performed.

Output formats (-m/--seeds-mode):
  0. binary, which can be converted with "fastalign utils seeds-view".
  1. ascii, the number of query sequences in the first line, then one line per seed:
       query id, target id, target offset, query offset, length
     where ids are 0-based indexes of sequences in input files.
  2. stats, the number of seeds of each query sequence, one per line.

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

		params := getParams(cmd, false)

		outFile := getFlagString(cmd, "out-file")
		rc := getFlagBool(cmd, "rc")
		swap := getFlagBool(cmd, "swap")
		mode := getSeedsMode(cmd)
		reFile := compileFileRegexp(getFlagString(cmd, "file-regexp"))
		ropt := &seqs.ReadOptions{
			MinLen:       getFlagNonNegativeInt(cmd, "min-seq-len"),
			ReSeqExclude: compileNameFilters(getFlagStringSlice(cmd, "seq-name-filter")),
		}

		qFiles := seqFiles(cmd, "query", "query-dir", reFile, opt.NumCPUs)
		tFiles := seqFiles(cmd, "target", "target-dir", reFile, opt.NumCPUs)
		if len(qFiles) == 0 || len(tFiles) == 0 {
			checkError(fmt.Errorf("both query and target files are needed"))
		}

		if verbose {
			log.Infof("fastalign v%s", VERSION)
			log.Info()
			log.Info("loading sequences ...")
		}
		queries := loadSeqs(qFiles, ropt, "query", verbose)
		targets := loadSeqs(tFiles, ropt, "target", verbose)
		indexed, probes := targets, queries
		if swap {
			indexed, probes = queries, targets
		}

		idx := buildIndex(indexed, params, verbose)

		if rc {
			var err error
			probes, err = probes.RevComp()
			checkError(err)
		}

		u, err := unit.New(idx, probes, params, opt.NumCPUs)
		checkError(err)

		if verbose {
			log.Info()
			log.Infof("finding seeds of %d sequences ...", probes.Size())
		}
		findSeeds(context.Background(), u, probes.Size(), opt)

		_, err = u.Seeds().WriteToFile(expandPath(outFile), mode)
		checkError(errors.Wrapf(err, "writing seeds to %s", outFile))
		if verbose {
			log.Infof("seeds saved to %s (mode: %s)", outFile, mode)
		}
	},
}

func init() {
	RootCmd.AddCommand(seedsCmd)

	addInputFlags(seedsCmd)

	seedsCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Output file, supporting the ".gz" suffix ("-" for stdout).`))
	seedsCmd.Flags().IntP("seeds-mode", "m", 1,
		formatFlagUsage(`Output format: 0 (binary), 1 (ascii), 2 (seed counts).`))
	seedsCmd.Flags().BoolP("rc", "", false,
		formatFlagUsage(`Use the reverse complement of query sequences.`))

	addParamsFlags(seedsCmd, false)

	seedsCmd.SetUsageTemplate(usageTemplate("{-q <query files> | --query-dir <dir>} {-t <target files> | --target-dir <dir>} [-o <out file>]"))
}
