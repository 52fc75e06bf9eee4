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

// Package unit drives seeding, chaining and alignment of a probe
// collection against an indexed collection with a pool of workers.
package unit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/fastalign/fastalign/align"
	"github.com/shenwei356/fastalign/fastalign/index"
	"github.com/shenwei356/fastalign/fastalign/pool"
	"github.com/shenwei356/fastalign/fastalign/seeds"
	"github.com/shenwei356/fastalign/fastalign/seqs"
	"github.com/shenwei356/fastalign/fastalign/synteny"
	"gonum.org/v1/gonum/stat"
)

// RCSuffix is appended to probe names in the output of a unit built on
// reverse-complemented probes.
const RCSuffix = "_RC"

// RenderWidth is the number of alignment columns per line.
var RenderWidth = 100

// Unit aligns every probe sequence against an indexed collection.
// Which of the query and target collections is indexed is up to the caller.
type Unit struct {
	params  *Params
	policy  *synteny.Policy
	idx     *index.Index
	indexed *seqs.Store
	probes  *seqs.Store
	threads int

	table *seeds.Table
	queue *pool.Queue // shared by the two phases

	// Progress, if not nil, is called after each probe sequence is
	// processed in either phase, with the time it took.
	Progress func(elapsed time.Duration)

	outMu sync.Mutex

	statMu     sync.Mutex
	identities []float64
	nChains    int
	nMasked    int
	nSelf      int
	nLowIdent  int
}

// New creates a unit. params is validated.
func New(idx *index.Index, probes *seqs.Store, params *Params, threads int) (*Unit, error) {
	if params == nil {
		params = &DefaultParams
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, errors.New("unit: nil index")
	}
	if probes == nil || probes.Size() == 0 {
		return nil, errors.Wrap(seqs.ErrEmptyStore, "probe sequences")
	}
	return &Unit{
		params:     params,
		policy:     params.Policy(),
		idx:        idx,
		indexed:    idx.Store(),
		probes:     probes,
		threads:    max(threads, 1),
		queue:      pool.NewQueue(probes.Size()),
		identities: make([]float64, 0, 1024),
	}, nil
}

// RevComp tells whether the probes are reverse-complemented.
func (u *Unit) RevComp() bool { return u.probes.IsRevComp() }

// Seeds returns the seed table, nil before FindAllSeeds.
func (u *Unit) Seeds() *seeds.Table { return u.table }

// ProbeName returns the name of the i-th probe used in the output.
func (u *Unit) ProbeName(i int) string {
	if u.RevComp() {
		return u.probes.Name(i) + RCSuffix
	}
	return u.probes.Name(i)
}

// FindAllSeeds finds the seeds of all probes in parallel. Each worker
// owns a Finder and writes only the slots of the probes it pulls,
// which are sorted right after seeding.
func (u *Unit) FindAllSeeds(ctx context.Context) error {
	n := u.probes.Size()
	u.table = seeds.NewTable(n)

	nw := pool.Workers(u.threads, n)
	finders := make([]*index.Finder, nw)
	for w := range finders {
		finders[w] = index.NewFinder(u.idx, u.params.SeedSize)
	}

	usage := pool.NewUsage(n)
	vecs := make([]*pool.UsageVec, nw)
	for w := range vecs {
		vecs[w] = pool.NewUsageVec(n)
	}

	u.queue.Reset()
	err := pool.Run(ctx, u.threads, u.queue, func(ctx context.Context, w, i int) error {
		if vecs[w].Used(i) {
			return errors.Errorf("probe sequence %d seeded twice", i)
		}
		t := time.Now()

		slot := u.table.Slot(i)
		finders[w].Find(u.probes.Bases(i), slot)
		slot.Sort()

		vecs[w].Set(i, 1)
		usage.Sync(vecs[w])
		if u.Progress != nil {
			u.Progress(time.Since(t))
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "finding seeds")
	}
	if usage.Total() != n {
		return errors.Errorf("finding seeds: %d of %d probe sequences processed", usage.Total(), n)
	}
	return nil
}

// SyntenicBlocks chains the seeds of the i-th probe against every indexed
// sequence they hit, and returns the accepted chains.
// Please remember to call synteny.RecycleChain for each chain.
func (u *Unit) SyntenicBlocks(i int, ce *synteny.Chainer) []*synteny.Chain {
	groups := u.table.Get(i).Groups()
	chains := make([]*synteny.Chain, 0, len(groups))
	var c *synteny.Chain
	for _, g := range groups {
		c = synteny.NewChain()
		ce.Chain(g, c)
		if !u.policy.Accept(c) {
			synteny.RecycleChain(c)
			continue
		}
		chains = append(chains, c)
	}
	return chains
}

type worker struct {
	chainer *synteny.Chainer
	engine  align.Engine
	usage   *pool.UsageVec
	buf     bytes.Buffer
}

// AlignAll chains and aligns all probes in parallel, writing accepted
// alignments to w. Alignments of different probes are written in the
// order they finish.
func (u *Unit) AlignAll(ctx context.Context, w io.Writer) error {
	if u.table == nil {
		return errors.New("unit: seeds not found yet")
	}
	n := u.probes.Size()

	nw := pool.Workers(u.threads, n)
	workers := make([]*worker, nw)
	var err error
	for i := range workers {
		workers[i] = &worker{
			chainer: synteny.NewChainer(),
			usage:   pool.NewUsageVec(n),
		}
		workers[i].engine, err = align.New(u.params.Engine, nil)
		if err != nil {
			return err
		}
	}
	usage := pool.NewUsage(n)

	u.queue.Reset()
	err = pool.Run(ctx, u.threads, u.queue, func(ctx context.Context, wid, i int) error {
		t := time.Now()
		wk := workers[wid]
		if wk.usage.Used(i) {
			return errors.Errorf("probe sequence %d aligned twice", i)
		}

		if err := u.alignSequence(i, wk, w); err != nil {
			return err
		}

		wk.usage.Set(i, 1)
		usage.Sync(wk.usage)
		if u.Progress != nil {
			u.Progress(time.Since(t))
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "aligning")
	}
	if usage.Total() != n {
		return errors.Errorf("aligning: %d of %d probe sequences processed", usage.Total(), n)
	}
	return nil
}

// alignSequence aligns the accepted chains of the i-th probe.
func (u *Unit) alignSequence(i int, wk *worker, w io.Writer) error {
	chains := u.SyntenicBlocks(i, wk.chainer)
	defer func() {
		for _, c := range chains {
			synteny.RecycleChain(c)
		}
	}()

	u.statMu.Lock()
	u.nChains += len(chains)
	u.statMu.Unlock()

	probeName := u.ProbeName(i)
	probe := u.probes.Bases(i)

	var first, last seeds.Seed
	var idxName string
	var r *align.Alignment
	var err error
	for _, c := range chains {
		first, last = c.First(), c.Last()
		idxName = u.indexed.Name(first.IdxSeq)

		if u.idx.Masked(first.IdxSeq, first.IdxOff, last.IdxEnd()) {
			u.statMu.Lock()
			u.nMasked++
			u.statMu.Unlock()
		}

		if u.probes.Name(i) == idxName {
			u.statMu.Lock()
			u.nSelf++
			u.statMu.Unlock()
			continue
		}

		r, err = wk.engine.Align(
			probe[first.ProbeOff:last.ProbeEnd()],
			u.indexed.Bases(first.IdxSeq)[first.IdxOff:last.IdxEnd()],
			u.params.Band(c),
		)
		if err != nil {
			return errors.Wrapf(err, "aligning %s vs %s", probeName, idxName)
		}

		if r.Identity < u.params.MinIdentity {
			align.RecycleAlignment(r)
			u.statMu.Lock()
			u.nLowIdent++
			u.statMu.Unlock()
			continue
		}

		wk.buf.Reset()
		fmt.Fprintf(&wk.buf, "%s vs %s\n", probeName, idxName)
		err = r.Render(&wk.buf, probeName, idxName, first.ProbeOff, first.IdxOff, RenderWidth)
		identity := r.Identity
		align.RecycleAlignment(r)
		if err != nil {
			return err
		}

		u.outMu.Lock()
		_, err = w.Write(wk.buf.Bytes())
		u.outMu.Unlock()
		if err != nil {
			return errors.Wrap(err, "writing alignment")
		}

		u.statMu.Lock()
		u.identities = append(u.identities, identity)
		u.statMu.Unlock()
	}
	return nil
}

// Summary describes the alignments of a unit.
type Summary struct {
	Chains       int // accepted chains
	MaskedChains int // accepted chains spanning low-complexity regions of indexed sequences
	SelfMatches  int // chains skipped as the two sequences share the name
	LowIdentity  int // alignments under the identity threshold
	Aligned      int // alignments written

	MeanIdentity float64
	StdIdentity  float64
}

// Summary returns the statistics of alignments written so far.
func (u *Unit) Summary() Summary {
	u.statMu.Lock()
	defer u.statMu.Unlock()

	s := Summary{
		Chains:       u.nChains,
		MaskedChains: u.nMasked,
		SelfMatches:  u.nSelf,
		LowIdentity:  u.nLowIdent,
		Aligned:      len(u.identities),
	}
	switch len(u.identities) {
	case 0:
	case 1:
		s.MeanIdentity = u.identities[0]
	default:
		s.MeanIdentity, s.StdIdentity = stat.MeanStdDev(u.identities, nil)
	}
	return s
}
