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

package seeds

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/fastalign/fastalign/util"
	"github.com/shenwei356/xopen"
)

var be = binary.BigEndian

// Magic number for checking file format
var Magic = [8]byte{'.', 'f', 'a', 's', 'e', 'e', 'd', 's'}

// MainVersion is use for checking compatibility
var MainVersion uint8 = 1

// MinorVersion is less important
var MinorVersion uint8 = 0

// ErrInvalidFileFormat means invalid file format.
var ErrInvalidFileFormat = errors.New("seeds: invalid file format")

// ErrBrokenFile means the file is not complete.
var ErrBrokenFile = errors.New("seeds: broken file")

// ErrVersionMismatch means version mismatch between files and program
var ErrVersionMismatch = errors.New("seeds: version mismatch")

// ErrInvalidMode means an unknown output mode.
var ErrInvalidMode = errors.New("seeds: invalid output mode")

// Mode is the output format of a seed table.
type Mode int

const (
	// Binary writes a header and one compact record per seed.
	Binary Mode = iota
	// ASCII writes the number of probes, then one tab-delimited line per seed:
	// probe id, indexed id, indexed offset, probe offset, length.
	ASCII
	// Stats writes the seed count of every probe, one per line.
	Stats
)

func (m Mode) String() string {
	switch m {
	case Binary:
		return "binary"
	case ASCII:
		return "ascii"
	case Stats:
		return "stats"
	}
	return "unknown"
}

// Logger receives messages about skipped records.
type Logger interface {
	Errorf(format string, args ...interface{})
}

// WriteToFile writes a table to a file, optional with file extension of .gz, .xz, .zst, .bz2.
func (t *Table) WriteToFile(file string, mode Mode) (int, error) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return 0, err
	}
	defer outfh.Close()

	return t.Write(outfh, mode)
}

// Write writes the table in the given mode, and returns the number of bytes.
//
// Binary format, header (24 bytes):
//
//	Magic number, 8 bytes, ".faseeds"
//	Main and minor versions, 2 bytes
//	Blank, 6 bytes
//	Number of probe sequences, 8 bytes
//
// Data, one record per seed:
//
//	Probe sequence id, 4 bytes
//	Control byte for the next 4 numbers, 1 byte
//	Indexed sequence id, indexed offset, probe offset, length, 4-16 bytes
func (t *Table) Write(w io.Writer, mode Mode) (int, error) {
	switch mode {
	case Binary:
		return t.writeBinary(w)
	case ASCII:
		return t.writeASCII(w)
	case Stats:
		return t.writeStats(w)
	}
	return 0, ErrInvalidMode
}

func (t *Table) writeBinary(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	var N int
	var err error

	// header

	err = binary.Write(bw, be, Magic)
	if err != nil {
		return N, err
	}
	err = binary.Write(bw, be, [8]uint8{MainVersion, MinorVersion})
	if err != nil {
		return N, err
	}
	err = binary.Write(bw, be, uint64(len(t.slots)))
	if err != nil {
		return N, err
	}
	N += 24

	// records

	buf := make([]byte, 5+util.MaxBytesUint32s)
	var ctrl byte
	var n int
	for i, ss := range t.slots {
		be.PutUint32(buf[:4], uint32(i))
		for _, s := range ss {
			ctrl, n = util.PutUint32s(buf[5:], uint32(s.IdxSeq), uint32(s.IdxOff), uint32(s.ProbeOff), uint32(s.Len))
			buf[4] = ctrl
			_, err = bw.Write(buf[:5+n])
			if err != nil {
				return N, err
			}
			N += 5 + n
		}
	}

	return N, bw.Flush()
}

func (t *Table) writeASCII(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	N, err := fmt.Fprintf(bw, "%d\n", len(t.slots))
	if err != nil {
		return N, err
	}
	var n int
	for i, ss := range t.slots {
		for _, s := range ss {
			n, err = fmt.Fprintf(bw, "%d\t%s\n", i, s)
			N += n
			if err != nil {
				return N, err
			}
		}
	}
	return N, bw.Flush()
}

func (t *Table) writeStats(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	var N, n int
	var err error
	for _, ss := range t.slots {
		n, err = fmt.Fprintf(bw, "%d\n", len(ss))
		N += n
		if err != nil {
			return N, err
		}
	}
	return N, bw.Flush()
}

// NewFromFile reads a table written in Binary or ASCII mode,
// the format is detected from the magic number.
func NewFromFile(file string, log Logger) (*Table, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return Read(fh, log)
}

// Read reads a table written in Binary or ASCII mode.
func Read(r io.Reader, log Logger) (*Table, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(8)
	if err == nil && bytes.Equal(head, Magic[:]) {
		return ReadBinary(br)
	}
	return ReadASCII(br, log)
}

// ReadBinary reads a table in Binary mode.
func ReadBinary(r io.Reader) (*Table, error) {
	buf := make([]byte, 24)

	n, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, ErrBrokenFile
	}
	if n < 24 {
		return nil, ErrBrokenFile
	}

	if !bytes.Equal(buf[:8], Magic[:]) {
		return nil, ErrInvalidFileFormat
	}
	if MainVersion != buf[8] {
		return nil, ErrVersionMismatch
	}
	t := NewTable(int(be.Uint64(buf[16:24])))

	var probe int
	var v1, v2, v3, v4 uint32
	var nBytes int
	for {
		_, err = io.ReadFull(r, buf[:5])
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, ErrBrokenFile
		}
		probe = int(be.Uint32(buf[:4]))
		if probe >= len(t.slots) {
			return nil, errors.Wrapf(ErrBrokenFile, "probe id %d out of range", probe)
		}

		nBytes = util.CtrlByte2ByteLengthsUint32(buf[4])
		_, err = io.ReadFull(r, buf[5:5+nBytes])
		if err != nil {
			return nil, ErrBrokenFile
		}
		v1, v2, v3, v4, _ = util.Uint32s(buf[4], buf[5:5+nBytes])

		t.slots[probe] = append(t.slots[probe], Seed{
			IdxSeq:   int(v1),
			IdxOff:   int(v2),
			ProbeOff: int(v3),
			Len:      int(v4),
		})
	}

	return t, nil
}

// ReadASCII reads a table in ASCII mode. Records with fewer than five
// fields, non-numeric fields, or probe ids not less than the number of
// probe sequences in the header are reported to log and skipped.
func ReadASCII(r io.Reader, log Logger) (*Table, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, ErrBrokenFile
	}
	nProbes, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || nProbes < 0 {
		return nil, errors.Wrapf(ErrInvalidFileFormat, "invalid number of probe sequences: %s", scanner.Text())
	}
	t := NewTable(nProbes)

	var items []string
	var vals [5]int
	var line string
	lineNum := 1
	var ok bool
	for scanner.Scan() {
		lineNum++
		line = strings.TrimRight(scanner.Text(), "\r\n\t ")
		if line == "" {
			continue
		}

		items = strings.SplitN(line, "\t", 6)
		if len(items) < 5 {
			if log != nil {
				log.Errorf("wrong seed record format at line %d, five columns required: %s", lineNum, line)
			}
			continue
		}

		ok = true
		for i := 0; i < 5; i++ {
			vals[i], err = strconv.Atoi(items[i])
			if err != nil || vals[i] < 0 {
				ok = false
				break
			}
		}
		if !ok {
			if log != nil {
				log.Errorf("invalid number in seed record at line %d: %s", lineNum, line)
			}
			continue
		}

		if vals[0] >= nProbes {
			if log != nil {
				log.Errorf("probe id out of range [0, %d) in seed record at line %d: %s", nProbes, lineNum, line)
			}
			continue
		}

		t.Add(vals[0], Seed{IdxSeq: vals[1], IdxOff: vals[2], ProbeOff: vals[3], Len: vals[4]})
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}

	return t, nil
}

// ReadStats reads per-probe seed counts written in Stats mode.
func ReadStats(r io.Reader) ([]int, error) {
	scanner := bufio.NewScanner(r)
	counts := make([]int, 0, 1024)
	var line string
	for scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidFileFormat, "invalid seed count: %s", line)
		}
		counts = append(counts, n)
	}
	return counts, scanner.Err()
}
