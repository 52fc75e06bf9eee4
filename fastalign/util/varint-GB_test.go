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

import (
	"math/rand"
	"testing"
)

var testsUint32 [][4]uint32

func init() {
	ntests := 10000
	testsUint32 = make([][4]uint32, ntests)
	var i int
	for ; i < ntests/2; i++ {
		testsUint32[i] = [4]uint32{rand.Uint32(), rand.Uint32(), rand.Uint32(), rand.Uint32()}
	}
	for ; i < ntests*3/4; i++ {
		testsUint32[i] = [4]uint32{uint32(rand.Intn(65536)), uint32(rand.Intn(256)), uint32(rand.Intn(1 << 24)), uint32(rand.Intn(256))}
	}
	for ; i < ntests; i++ {
		testsUint32[i] = [4]uint32{uint32(rand.Intn(256)), uint32(rand.Intn(256)), uint32(rand.Intn(256)), uint32(rand.Intn(256))}
	}
}

func TestStreamVByte32(t *testing.T) {
	buf := make([]byte, MaxBytesUint32s)
	var ctrl byte
	var n, n2 int
	var v1, v2, v3, v4 uint32
	for i, test := range testsUint32 {
		ctrl, n = PutUint32s(buf, test[0], test[1], test[2], test[3])
		if CtrlByte2ByteLengthsUint32(ctrl) != n {
			t.Errorf("#%d, wrong byte length", i)
		}

		v1, v2, v3, v4, n2 = Uint32s(ctrl, buf[0:n])
		if n2 != n {
			t.Errorf("#%d, wrong decoded length: %d, answer: %d", i, n2, n)
		}

		if v1 != test[0] || v2 != test[1] || v3 != test[2] || v4 != test[3] {
			t.Errorf("#%d, wrong decoded result: %d, %d, %d, %d, answer: %d, %d, %d, %d",
				i, v1, v2, v3, v4, test[0], test[1], test[2], test[3])
		}
	}
}

func TestUint32sShortBuffer(t *testing.T) {
	buf := make([]byte, MaxBytesUint32s)
	ctrl, n := PutUint32s(buf, 1<<30, 1, 2, 3)
	if _, _, _, _, n2 := Uint32s(ctrl, buf[:n-1]); n2 != 0 {
		t.Errorf("short buffer should not be decoded, got n=%d", n2)
	}
}
