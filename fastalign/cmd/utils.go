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
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/fastalign/fastalign/seeds"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var utilsCmd = &cobra.Command{
	Use:   "utils",
	Short: "Some utilities",
	Long: `Some utilities

`,
}

func init() {
	RootCmd.AddCommand(utilsCmd)
}

var seedsViewCmd = &cobra.Command{
	Use:   "seeds-view",
	Short: "Convert a seeds file to the ascii format",
	Long: `Convert a seeds file to the ascii format

Input files can be in the binary or ascii format, and malformed
ascii records are skipped with an error message.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		outFile := getFlagString(cmd, "out-file")
		stats := getFlagBool(cmd, "stats")
		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)

		mode := seeds.ASCII
		if stats {
			mode = seeds.Stats
		}

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		for _, file := range files {
			t, err := seeds.NewFromFile(file, log)
			checkError(errors.Wrapf(err, "reading seeds file: %s", file))
			_, err = t.Write(outfh, mode)
			checkError(err)
		}
	},
}

var seedsPlotCmd = &cobra.Command{
	Use:   "seeds-plot",
	Short: "Plot the histogram of seed counts of probe sequences",
	Long: `Plot the histogram of seed counts of probe sequences

The output format is decided by the file extension, e.g., .png, .pdf, .svg, .jpg.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		timeStart := time.Now()

		outFile := getFlagString(cmd, "out-file")
		bins := getFlagPositiveInt(cmd, "bins")
		width := getFlagNonNegativeFloat64(cmd, "width")
		height := getFlagNonNegativeFloat64(cmd, "height")
		statsInput := getFlagBool(cmd, "stats")
		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)

		if isStdin(outFile) {
			checkError(fmt.Errorf("flag -o/--out-file should be a file with an image extension"))
		}

		values := make(plotter.Values, 0, 1024)
		var counts []int
		for _, file := range files {
			if statsInput {
				counts = readSeedCounts(file)
			} else {
				t, err := seeds.NewFromFile(file, log)
				checkError(errors.Wrapf(err, "reading seeds file: %s", file))
				counts = t.Counts()
			}
			for _, n := range counts {
				values = append(values, float64(n))
			}
		}
		if len(values) == 0 {
			checkError(fmt.Errorf("no probe sequences found in the input"))
		}

		p := plot.New()
		p.Title.Text = "Seeds of probe sequences"
		p.X.Label.Text = "Number of seeds"
		p.Y.Label.Text = "Number of probe sequences"

		hist, err := plotter.NewHist(values, bins)
		checkError(err)
		p.Add(hist)

		checkError(p.Save(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, expandPath(outFile)))

		if opt.Verbose {
			log.Infof("histogram of %d probe sequences saved to %s in %s", len(values), outFile, time.Since(timeStart))
		}
	},
}

func readSeedCounts(file string) []int {
	fh, err := xopen.Ropen(file)
	checkError(errors.Wrapf(err, "reading seed counts: %s", file))
	defer fh.Close()

	counts, err := seeds.ReadStats(fh)
	checkError(errors.Wrapf(err, "reading seed counts: %s", file))
	return counts
}

var maskedCmd = &cobra.Command{
	Use:   "masked",
	Short: "List low-complexity regions not indexed",
	Long: `List low-complexity regions not indexed

Suffixes starting in windows of -b/--step bases are not indexed when
the longest homopolymer or the non-ACGT bases take too much of the window.
Adjacent windows are merged.

Output format (tab-delimited, 0-based, half-open intervals):
  sequence, start, end

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		verbose := opt.Verbose

		params := getParams(cmd, false)
		outFile := getFlagString(cmd, "out-file")
		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)

		store := loadSeqs(files, nil, "input", verbose)
		idx := buildIndex(store, params, verbose)

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		var name string
		for i := 0; i < store.Size(); i++ {
			name = store.Name(i)
			for _, r := range idx.MaskedRegions(i) {
				fmt.Fprintf(outfh, "%s\t%d\t%d\n", name, r[0], r[1])
			}
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{seedsViewCmd, seedsPlotCmd, maskedCmd} {
		utilsCmd.AddCommand(c)
		c.Flags().StringP("infile-list", "X", "",
			formatFlagUsage(`File of input file list (one file per line). If given, they are appended to files from CLI arguments.`))
	}

	seedsViewCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))
	seedsViewCmd.Flags().BoolP("stats", "s", false,
		formatFlagUsage(`Only output the number of seeds of each probe sequence.`))
	seedsViewCmd.SetUsageTemplate(usageTemplate("<seeds files>"))

	seedsPlotCmd.Flags().StringP("out-file", "o", "seeds.png",
		formatFlagUsage(`Out image file, e.g., .png, .pdf, .svg.`))
	seedsPlotCmd.Flags().BoolP("stats", "s", false,
		formatFlagUsage(`Input files are seed counts, i.e., written with --seeds-mode 2.`))
	seedsPlotCmd.Flags().IntP("bins", "", 50,
		formatFlagUsage(`Number of bins.`))
	seedsPlotCmd.Flags().Float64P("width", "W", 6,
		formatFlagUsage(`Figure width in inches.`))
	seedsPlotCmd.Flags().Float64P("height", "H", 4,
		formatFlagUsage(`Figure height in inches.`))
	seedsPlotCmd.SetUsageTemplate(usageTemplate("<seeds files> -o <image file>"))

	maskedCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))
	addParamsFlags(maskedCmd, false)
	maskedCmd.SetUsageTemplate(usageTemplate("<seq files>"))
}
