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
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/iafan/cwalk"
	"github.com/pkg/errors"
	"github.com/shenwei356/fastalign/fastalign/seqs"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
	"github.com/twotwotwo/sorts"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Options contains the global flags
type Options struct {
	NumCPUs int
	Verbose bool

	LogFile  string
	Log2File bool

	CompressionLevel int
}

func getOptions(cmd *cobra.Command) *Options {
	threads := getFlagNonNegativeInt(cmd, "threads")
	if threads == 0 {
		threads = runtime.NumCPU()
	}

	sorts.MaxProcs = threads
	runtime.GOMAXPROCS(threads)

	logfile := getFlagString(cmd, "log")
	return &Options{
		NumCPUs: threads,
		Verbose: !getFlagBool(cmd, "quiet"),

		LogFile:  logfile,
		Log2File: logfile != "",

		CompressionLevel: -1,
	}
}

var reIgnoreCaseStr = "(?i)"
var reIgnoreCase = regexp.MustCompile(`\(\?i\)`)

var defaultFileRegexp = `\.(f[aq](st[aq])?|fna)(.gz)?$`

func compileFileRegexp(s string) *regexp.Regexp {
	if !reIgnoreCase.MatchString(s) {
		s = reIgnoreCaseStr + s
	}
	re, err := regexp.Compile(s)
	checkError(errors.Wrapf(err, "failed to parse regular expression for matching file: %s", s))
	return re
}

func compileNameFilters(exprs []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, kw := range exprs {
		if !reIgnoreCase.MatchString(kw) {
			kw = reIgnoreCaseStr + kw
		}
		re, err := regexp.Compile(kw)
		checkError(errors.Wrapf(err, "failed to parse regular expression for matching sequence header: %s", kw))
		res = append(res, re)
	}
	return res
}

func getFileListFromDir(path string, pattern *regexp.Regexp, threads int) ([]string, error) {
	files := make([]string, 0, 512)
	ch := make(chan string, threads)
	done := make(chan int)
	go func() {
		for file := range ch {
			files = append(files, file)
		}
		done <- 1
	}()

	cwalk.NumWorkers = threads
	err := cwalk.WalkWithSymlinks(path, func(_path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && pattern.MatchString(info.Name()) {
			ch <- filepath.Join(path, _path)
		}
		return nil
	})
	close(ch)
	<-done
	if err != nil {
		return nil, err
	}
	return files, nil
}

// seqFiles collects sequence files from a list flag and a directory flag.
func seqFiles(cmd *cobra.Command, flagFiles, flagDir string, reFile *regexp.Regexp, threads int) []string {
	files := make([]string, 0, 8)
	for _, file := range getFlagStringSlice(cmd, flagFiles) {
		file = expandPath(file)
		checkFileExists(file)
		files = append(files, file)
	}

	inDir := getFlagString(cmd, flagDir)
	if inDir == "" {
		return files
	}
	inDir = expandPath(inDir)
	isDir, err := pathutil.IsDir(inDir)
	if err != nil {
		checkError(errors.Wrapf(err, "checking --%s", flagDir))
	}
	if !isDir {
		checkError(fmt.Errorf("value of --%s should be a directory: %s", flagDir, inDir))
	}
	_files, err := getFileListFromDir(inDir, reFile, threads)
	if err != nil {
		checkError(errors.Wrapf(err, "walking dir: %s", inDir))
	}
	if len(_files) == 0 {
		log.Warningf("  no files matching regular expression in %s: %s", inDir, reFile)
	}
	return append(files, _files...)
}

// loadSeqs reads sequences and warns about duplicated names.
func loadSeqs(files []string, ropt *seqs.ReadOptions, what string, verbose bool) *seqs.Store {
	timeStart := time.Now()
	store, err := seqs.ReadFiles(files, ropt)
	checkError(errors.Wrapf(err, "reading %s sequences", what))

	if verbose {
		log.Infof("  %d %s sequences (%d bp) loaded from %d file(s) in %s",
			store.Size(), what, store.TotalLen(), len(files), time.Since(timeStart))
		if dups := store.DuplicateNames(); len(dups) > 0 {
			if len(dups) > 5 {
				log.Warningf("  %d duplicated %s sequence names, e.g., %s", len(dups), what, strings.Join(dups[:5], ", "))
			} else {
				log.Warningf("  duplicated %s sequence names: %s", what, strings.Join(dups, ", "))
			}
		}
	}
	return store
}

var defaultExts = []string{".gz", ".xz", ".zst", ".bz2"}

func filepathTrimExtension(file string, suffixes []string) (string, string, string) {
	if suffixes == nil {
		suffixes = defaultExts
	}

	var e1, e2 string
	f := strings.ToLower(file)
	for _, s := range suffixes {
		if strings.HasSuffix(f, s) {
			e2 = s
			file = file[0 : len(file)-len(s)]
			break
		}
	}

	e1 = filepath.Ext(file)
	name := file[0 : len(file)-len(e1)]

	return name, e1, e2
}

// progressBar shows the number of processed sequences of a phase.
type progressBar struct {
	pbs  *mpb.Progress
	bar  *mpb.Bar
	ch   chan time.Duration
	done chan int
}

func newProgressBar(title string, n int) *progressBar {
	pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	bar := pbs.AddBar(int64(n),
		mpb.PrependDecorators(
			decor.Name(title, decor.WC{W: len(title), C: decor.DindentRight}),
			decor.Name("", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.EwmaETA(decor.ET_STYLE_GO, 10),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)

	pb := &progressBar{
		pbs:  pbs,
		bar:  bar,
		ch:   make(chan time.Duration, 64),
		done: make(chan int),
	}
	go func() {
		for t := range pb.ch {
			pb.bar.EwmaIncrBy(1, t)
		}
		pb.done <- 1
	}()
	return pb
}

// Incr is safe for concurrent use.
func (pb *progressBar) Incr(t time.Duration) {
	pb.ch <- t
}

// Wait stops the bar and waits for it to be rendered.
func (pb *progressBar) Wait() {
	close(pb.ch)
	<-pb.done
	if !pb.bar.Completed() {
		pb.bar.Abort(false)
	}
	pb.pbs.Wait()
}
