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

package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
)

func TestQueue(t *testing.T) {
	q := NewQueue(1000)
	seen := make([]int32, 1000)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := q.Next(); i != Done; i = q.Next() {
				atomic.AddInt32(&seen[i], 1)
			}
		}()
	}
	wg.Wait()

	for i, n := range seen {
		if n != 1 {
			t.Errorf("index %d handed out %d times", i, n)
		}
	}
	if q.Next() != Done {
		t.Errorf("exhausted queue should return Done")
	}
	q.Reset()
	if q.Next() != 0 {
		t.Errorf("reset queue should start from 0")
	}
}

func TestRun(t *testing.T) {
	for _, workers := range []int{0, 1, 4, 64} {
		n := 500
		results := make([]int, n)
		var maxWorker int32
		err := Run(context.Background(), workers, NewQueue(n), func(ctx context.Context, w, i int) error {
			results[i] = i * i
			for {
				m := atomic.LoadInt32(&maxWorker)
				if int32(w) <= m || atomic.CompareAndSwapInt32(&maxWorker, m, int32(w)) {
					break
				}
			}
			return nil
		})
		if err != nil {
			t.Errorf("workers %d: %s", workers, err)
		}
		for i, v := range results {
			if v != i*i {
				t.Errorf("workers %d: task %d not done", workers, i)
				break
			}
		}
		if int(maxWorker) >= Workers(workers, n) {
			t.Errorf("workers %d: unexpected worker id %d", workers, maxWorker)
		}
	}

	if err := Run(context.Background(), 4, NewQueue(0), nil); err != nil {
		t.Errorf("empty queue: %s", err)
	}
}

func TestRunError(t *testing.T) {
	errBad := errors.New("bad item")
	var done int32
	err := Run(context.Background(), 4, NewQueue(10000), func(ctx context.Context, w, i int) error {
		if i == 10 {
			return errBad
		}
		atomic.AddInt32(&done, 1)
		return nil
	})
	if err != errBad {
		t.Errorf("expected the task error, returned %v", err)
	}
	t.Logf("%d tasks done before stopping", done)
}

func TestRunPanic(t *testing.T) {
	err := Run(context.Background(), 2, NewQueue(100), func(ctx context.Context, w, i int) error {
		if i == 50 {
			NewUsage(3).Sync(NewUsageVec(4))
		}
		return nil
	})
	if err == nil || !errors.Is(err, ErrUsageSizeMismatch) {
		t.Errorf("expected ErrUsageSizeMismatch, returned %v", err)
	}

	err = Run(context.Background(), 2, NewQueue(100), func(ctx context.Context, w, i int) error {
		if i == 3 {
			panic(fmt.Sprintf("item %d", i))
		}
		return nil
	})
	if err == nil {
		t.Errorf("expected an error from a panicking task")
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var n int32
	err := Run(ctx, 4, NewQueue(100), func(ctx context.Context, w, i int) error {
		atomic.AddInt32(&n, 1)
		return nil
	})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, returned %v", err)
	}
	if n != 0 {
		t.Errorf("no task should run with a canceled context, %d did", n)
	}
}

func TestUsage(t *testing.T) {
	u := NewUsage(10)
	a, b := NewUsageVec(10), NewUsageVec(10)

	a.Set(1, 1)
	a.Set(2, 1)
	if n := u.Sync(a); n != 2 {
		t.Errorf("expected 2 marks, returned %d", n)
	}

	b.Set(2, 1)
	b.Set(7, 1)
	if n := u.Sync(b); n != 3 {
		t.Errorf("expected 3 marks, returned %d", n)
	}
	if !b.Used(1) || !b.Used(2) || !b.Used(7) {
		t.Errorf("marks of other workers not propagated")
	}

	if n := u.Sync(a); n != 3 {
		t.Errorf("expected 3 marks, returned %d", n)
	}
	if !a.Used(7) || a.Used(0) {
		t.Errorf("unexpected marks after sync")
	}
	if u.Total() != 3 {
		t.Errorf("expected 3 marks in total, returned %d", u.Total())
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Errorf("expected a panic for a size mismatch")
			return
		}
		if e, ok := r.(error); !ok || !errors.Is(e, ErrUsageSizeMismatch) {
			t.Errorf("unexpected panic: %v", r)
		}
	}()
	u.Sync(NewUsageVec(11))
}

func TestUsageConcurrent(t *testing.T) {
	n := 1000
	u := NewUsage(n)
	err := Run(context.Background(), 4, NewQueue(n), func(ctx context.Context, w, i int) error {
		v := NewUsageVec(n)
		v.Set(i, 1)
		u.Sync(v)
		return nil
	})
	if err != nil {
		t.Errorf("%s", err)
	}
	if u.Total() != n {
		t.Errorf("expected %d marks, returned %d", n, u.Total())
	}
}
