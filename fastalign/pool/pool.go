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
	"sync"

	"github.com/pkg/errors"
)

// Task handles the i-th item. worker is the id of the calling worker,
// in [0, workers), for accessing per-worker resources.
type Task func(ctx context.Context, worker, i int) error

// Workers returns the number of goroutines Run starts for n items.
func Workers(workers, n int) int {
	return max(0, min(max(workers, 1), n))
}

// Run starts Workers(workers, q.Len()) goroutines, each pulling indexes
// from q and calling fn until the queue is exhausted.
//
// The first error returned by a task, or recovered from a panicking task,
// cancels the context passed to the other tasks. Workers stop pulling new
// indexes once the context is done. Run waits for all workers to exit and
// returns the first error, or the error of the parent context.
func Run(ctx context.Context, workers int, q *Queue, fn Task) error {
	workers = Workers(workers, q.Len())
	if workers == 0 {
		return ctx.Err()
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var i int
			var err error
			for {
				if ctx.Err() != nil {
					return
				}
				i = q.Next()
				if i == Done {
					return
				}
				if err = call(ctx, fn, w, i); err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return parent.Err()
}

func call(ctx context.Context, fn Task, w, i int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrapf(e, "task %d panicked", i)
			} else {
				err = errors.Errorf("task %d panicked: %v", i, r)
			}
		}
	}()
	return fn(ctx, w, i)
}
