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

// Group varint encoding of four uint32 values. A control byte stores the
// byte length (1-4) of each value in two bits, from high to low bits.

var shiftsUint32 = [4]uint8{24, 16, 8, 0}

// MaxBytesUint32s is the maximum encoded size of four uint32s.
const MaxBytesUint32s = 16

// PutUint32s encodes four uint32s into 4-16 bytes, and returns control byte
// and encoded byte length. buf must have room for MaxBytesUint32s bytes.
func PutUint32s(buf []byte, v1, v2, v3, v4 uint32) (ctrl byte, n int) {
	for _, v := range [4]uint32{v1, v2, v3, v4} {
		blen := ByteLengthUint32(v)
		ctrl = ctrl<<2 | byte(blen-1)
		for _, s := range shiftsUint32[4-blen:] {
			buf[n] = byte(v >> s)
			n++
		}
	}
	return
}

// Uint32s decodes encoded bytes. n is 0 if buf is too short.
func Uint32s(ctrl byte, buf []byte) (v1, v2, v3, v4 uint32, n int) {
	if len(buf) < CtrlByte2ByteLengthsUint32(ctrl) {
		return 0, 0, 0, 0, 0
	}

	var vs [4]uint32
	for i := range vs {
		blen := int(ctrl>>(6-2*i)&3) + 1
		for j := 0; j < blen; j++ {
			vs[i] = vs[i]<<8 | uint32(buf[n])
			n++
		}
	}
	return vs[0], vs[1], vs[2], vs[3], n
}

// ByteLengthUint32 returns the minimum number of bytes to store a integer.
func ByteLengthUint32(n uint32) uint8 {
	switch {
	case n < 1<<8:
		return 1
	case n < 1<<16:
		return 2
	case n < 1<<24:
		return 3
	}
	return 4
}

// CtrlByte2ByteLengthsUint32 returns the byte length for a given control byte.
func CtrlByte2ByteLengthsUint32(ctrl byte) int {
	return int(ctrl>>6&3+ctrl>>4&3+ctrl>>2&3+ctrl&3) + 4
}
