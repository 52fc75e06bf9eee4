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

// Package seqs holds collections of nucleotide sequences.
package seqs

import (
	"fmt"
	"io"
	"regexp"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/fastalign/fastalign/util"
	"github.com/zeebo/wyhash"
)

// ErrEmptyStore means no sequences were loaded.
var ErrEmptyStore = errors.New("seqs: no sequences")

// Seq is a named nucleotide sequence.
type Seq struct {
	Name string
	Seq  []byte
}

// Len returns the sequence length.
func (s *Seq) Len() int { return len(s.Seq) }

// Store is a list of sequences with random access.
// It is read-only after loading, except for RevComp which returns a copy.
type Store struct {
	seqs    []*Seq
	total   int
	revComp bool
}

// NewStore creates a store from sequences. Sequences are upper-cased in place.
func NewStore(seqs ...*Seq) *Store {
	s := &Store{seqs: make([]*Seq, 0, len(seqs))}
	for _, sq := range seqs {
		s.Add(sq)
	}
	return s
}

// Add appends a sequence.
func (s *Store) Add(sq *Seq) {
	util.ToUpper(sq.Seq)
	s.seqs = append(s.seqs, sq)
	s.total += len(sq.Seq)
}

// Size returns the number of sequences.
func (s *Store) Size() int { return len(s.seqs) }

// TotalLen returns the sum of all sequence lengths.
func (s *Store) TotalLen() int { return s.total }

// Seq returns the i-th sequence.
func (s *Store) Seq(i int) *Seq { return s.seqs[i] }

// Bases returns the bases of the i-th sequence.
func (s *Store) Bases(i int) []byte { return s.seqs[i].Seq }

// Len returns the length of the i-th sequence.
func (s *Store) Len(i int) int { return len(s.seqs[i].Seq) }

// Name returns the name of the i-th sequence.
func (s *Store) Name(i int) string { return s.seqs[i].Name }

// IsRevComp tells whether the store was created by RevComp.
func (s *Store) IsRevComp() bool { return s.revComp }

// RevComp returns a new store with every sequence reverse complemented.
// Names are kept. The receiver is not modified.
func (s *Store) RevComp() (*Store, error) {
	rc := &Store{seqs: make([]*Seq, len(s.seqs)), total: s.total, revComp: !s.revComp}
	for i, sq := range s.seqs {
		b := make([]byte, len(sq.Seq))
		copy(b, sq.Seq)
		bs, err := seq.NewSeq(seq.DNAredundant, b)
		if err != nil {
			return nil, errors.Wrapf(err, "reverse complementing %s", sq.Name)
		}
		bs.RevComInplace()
		rc.seqs[i] = &Seq{Name: sq.Name, Seq: bs.Seq}
	}
	return rc, nil
}

var hashName = func(name string) uint64 {
	return wyhash.Hash([]byte(name), 1)
}

// DuplicateNames returns names that appear more than once, in first-seen order.
// Names are bucketed by hash values and compared within a bucket.
func (s *Store) DuplicateNames() []string {
	buckets := make(map[uint64][]int, len(s.seqs)) // hash -> indexes of distinct names
	counts := make([]int, len(s.seqs))
	dups := make([]string, 0, 8)
	var h uint64
	var found bool
	for i, sq := range s.seqs {
		h = hashName(sq.Name)
		found = false
		for _, j := range buckets[h] {
			if s.seqs[j].Name != sq.Name {
				continue
			}
			found = true
			counts[j]++
			if counts[j] == 2 {
				dups = append(dups, sq.Name)
			}
			break
		}
		if !found {
			buckets[h] = append(buckets[h], i)
			counts[i] = 1
		}
	}
	return dups
}

// ReadOptions contains the options for loading sequences.
type ReadOptions struct {
	MinLen       int              // sequences shorter than this are skipped
	ReSeqExclude []*regexp.Regexp // sequences with matched names are skipped
}

// DefaultReadOptions keeps all sequences.
var DefaultReadOptions = ReadOptions{}

// ReadFiles loads FASTA/Q sequences from files. Only the sequence ID
// (the first word of the header) is kept as the name.
func ReadFiles(files []string, opt *ReadOptions) (*Store, error) {
	if opt == nil {
		opt = &DefaultReadOptions
	}
	seq.ValidateSeq = false

	s := &Store{seqs: make([]*Seq, 0, 1024)}
	filterNames := len(opt.ReSeqExclude) > 0

	var record *fastx.Record
	for _, file := range files {
		fastxReader, err := fastx.NewReader(nil, file, "")
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", file)
		}

		for {
			record, err = fastxReader.Read()
			if err != nil {
				if err == io.EOF {
					break
				}
				fastxReader.Close()
				return nil, errors.Wrapf(err, "reading %s", file)
			}

			if len(record.Seq.Seq) < opt.MinLen {
				continue
			}
			if filterNames && excluded(opt.ReSeqExclude, record.Name) {
				continue
			}

			// records are reused by the reader
			b := make([]byte, len(record.Seq.Seq))
			copy(b, record.Seq.Seq)
			s.Add(&Seq{Name: string(record.ID), Seq: b})
		}
		fastxReader.Close()
	}

	if len(s.seqs) == 0 {
		return nil, errors.Wrap(ErrEmptyStore, fmt.Sprintf("%d file(s)", len(files)))
	}
	return s, nil
}

func excluded(res []*regexp.Regexp, name []byte) bool {
	for _, re := range res {
		if re.Match(name) {
			return true
		}
	}
	return false
}
