package ioruntime

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/chwellgo/netcore/cmn/nlog"
)

// Pool is a fixed-size worker pool draining a WorkQueue, joined with
// errgroup.Group the way the teacher's own worker coordination does rather
// than a hand-rolled sync.WaitGroup.
type Pool struct {
	q  *WorkQueue
	eg *errgroup.Group
}

// NewPool starts workerCount goroutines, each calling q.Run.
func NewPool(q *WorkQueue, workerCount int) *Pool {
	eg, _ := errgroup.WithContext(context.Background())
	p := &Pool{q: q, eg: eg}
	for i := 0; i < workerCount; i++ {
		eg.Go(func() error {
			q.Run()
			return nil
		})
	}
	nlog.Infof("ioruntime: worker pool started, workers=%d", workerCount)
	return p
}

// Wait blocks until every worker has returned, i.e. until the underlying
// WorkQueue has been Stop()-ed and drained.
func (p *Pool) Wait() { _ = p.eg.Wait() }
