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

package util

// ReverseInts reverses a list of ints
func ReverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// ToUpper converts lower-case letters of a sequence in place.
func ToUpper(s []byte) {
	for i, b := range s {
		if 'a' <= b && b <= 'z' {
			s[i] = b - 32
		}
	}
}

// IsACGT tells whether a byte is one of the four upper-case nucleotides.
func IsACGT(b byte) bool {
	return acgt[b]
}

var acgt = [256]bool{'A': true, 'C': true, 'G': true, 'T': true}

// LongestRun returns the symbol and the length of the longest run of
// identical symbols in s.
func LongestRun(s []byte) (byte, int) {
	if len(s) == 0 {
		return 0, 0
	}
	var best, run int
	var c, bestC byte
	for i, b := range s {
		if i > 0 && b == c {
			run++
		} else {
			c = b
			run = 1
		}
		if run > best {
			best = run
			bestC = c
		}
	}
	return bestC, best
}
