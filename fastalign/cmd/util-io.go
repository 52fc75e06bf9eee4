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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gzip "github.com/klauspost/pgzip"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
)

var bufferSize = 65536

func isStdin(file string) bool {
	return file == "-"
}

// outStream creates a buffered output stream, optional with gzip compression.
// Remember to flush the buffer, and close the gzip writer (if not nil) and the file.
func outStream(file string, gzipped bool, level int) (*bufio.Writer, io.WriteCloser, *os.File, error) {
	var w *os.File
	if isStdin(file) {
		w = os.Stdout
	} else {
		var err error
		file, err = homedir.Expand(file)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, file)
		}

		dir := filepath.Dir(file)
		fi, err := os.Stat(dir)
		if err == nil && !fi.IsDir() {
			return nil, nil, nil, fmt.Errorf("can not write file into a non-directory path: %s", dir)
		}
		if os.IsNotExist(err) {
			if err = os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, nil, errors.Wrapf(err, "creating directory: %s", dir)
			}
		}

		w, err = os.Create(file)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "failed to write %s", file)
		}
	}

	if gzipped {
		gw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "failed to create gzip writer for %s", file)
		}
		return bufio.NewWriterSize(gw, bufferSize), gw, w, nil
	}
	return bufio.NewWriterSize(w, bufferSize), nil, w, nil
}

// getFileListFromArgsAndFile merges files given as positional arguments and
// those listed in the file of the flag.
func getFileListFromArgsAndFile(cmd *cobra.Command, args []string, checkFileFromArgs bool,
	flag string, checkFileFromFile bool) []string {
	infileList := getFlagString(cmd, flag)
	files := getFileList(args, checkFileFromArgs)
	if infileList == "" {
		return files
	}

	_files, err := getListFromFile(infileList, checkFileFromFile)
	checkError(err)
	if len(_files) == 0 {
		log.Warningf("no files found in file list: %s", infileList)
		return files
	}

	if len(files) == 1 && isStdin(files[0]) {
		return _files
	}
	return append(files, _files...)
}

func getFileList(args []string, checkFile bool) []string {
	if len(args) == 0 {
		return []string{"-"}
	}

	files := make([]string, 0, len(args))
	for _, file := range args {
		if !isStdin(file) {
			file = expandPath(file)
			if checkFile {
				checkFileExists(file)
			}
		}
		files = append(files, file)
	}
	return files
}

func getListFromFile(file string, checkFile bool) ([]string, error) {
	fh, err := xopen.Ropen(expandPath(file))
	if err != nil {
		return nil, errors.Wrapf(err, "read file list from '%s'", file)
	}
	defer fh.Close()

	var _file string
	lists := make([]string, 0, 1024)
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		_file = strings.TrimSpace(scanner.Text())
		if _file == "" {
			continue
		}
		_file = expandPath(_file)
		if checkFile && !isStdin(_file) {
			checkFileExists(_file)
		}
		lists = append(lists, _file)
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read file list from '%s'", file)
	}
	return lists, nil
}

func checkFileExists(file string) {
	if _, err := os.Stat(file); err != nil {
		checkError(errors.Wrap(err, file))
	}
}

func expandPath(file string) string {
	_file, err := homedir.Expand(file)
	checkError(errors.Wrap(err, file))
	return _file
}
