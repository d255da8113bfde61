////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package search runs one worker's share of a key search. Workers agree on
// the job through a broadcast, search their own partition and stop when they
// find the key, hear from a peer that found it, run out of time, run out of
// keys or are interrupted. Every worker then takes part in the same
// reductions so they all finish with the same outcome.
package search

import (
	"context"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/keysearch/internal/comms"
	"gitlab.com/elixxir/keysearch/internal/measure"
	"gitlab.com/elixxir/keysearch/internal/partition"
	"gitlab.com/elixxir/keysearch/internal/state"
	"gitlab.com/elixxir/keysearch/internal/verify"
)

// Root is the rank that owns the job and emits progress.
const Root = 0

// Worker searches one member's partition.
type Worker struct {
	member   *comms.Member
	machine  *state.Machine
	metrics  *measure.Metrics
	progress func(measure.Progress)
}

// Option configures a Worker.
type Option func(*Worker)

// WithProgress replaces the default progress sink, which logs at info.
func WithProgress(fn func(measure.Progress)) Option {
	return func(w *Worker) {
		w.progress = fn
	}
}

// NewWorker builds the worker for member.
func NewWorker(member *comms.Member, opts ...Option) *Worker {
	w := &Worker{
		member:   member,
		machine:  state.NewMachine(),
		metrics:  &measure.Metrics{Rank: member.Rank()},
		progress: measure.LogProgress,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the worker's state machine.
func (w *Worker) State() *state.Machine {
	return w.machine
}

// loop holds the per worker search variables
type loop struct {
	found       int64
	timedOut    bool
	interrupted bool
	attempts    uint64
	start       time.Time
	stop        time.Time
}

// Run receives the job from the root, searches and reduces the results. job
// is only read on the root and may be nil elsewhere. Every member of the
// group must call Run.
func (w *Worker) Run(ctx context.Context, job *Job) (*Report, error) {
	rank, size := w.member.Rank(), w.member.Size()

	received := &Job{}
	if err := w.member.Bcast(Root, job, received); err != nil {
		return nil, errors.WithMessagef(err, "worker %d failed to receive job", rank)
	}

	v, err := verify.NewVerifier(received.Ciphertext, received.Phrase, received.Layout)
	if err != nil {
		return nil, errors.WithMessagef(err, "worker %d", rank)
	}
	part, err := partition.New(received.Policy, received.bounds(rank, size))
	if err != nil {
		return nil, errors.WithMessagef(err, "worker %d", rank)
	}
	interval := received.checkInterval(size)

	wm := measure.NewWorkerMetrics(rank, size)
	wm.Policy = part.Policy().String()
	wm.PartitionSize = part.Len()

	jww.DEBUG.Printf("Worker %d/%d: %s partition of %d keys, polling "+
		"every %d attempts", rank, size, part.Policy(), part.Len(), interval)

	if err = w.member.Barrier(); err != nil {
		return nil, errors.WithMessagef(err, "worker %d failed at start barrier", rank)
	}
	if _, err = w.machine.Update(state.Searching); err != nil {
		return nil, err
	}

	l := &loop{found: NotFound, start: w.metrics.Measure(measure.TagStartBarrier)}
	req := w.member.Irecv()

	w.search(ctx, received, v, part, req, interval, l)

	// a notification may have completed the request after the last poll
	if n, ok := req.Cancel(); ok && l.found == NotFound {
		w.adopt(n, l)
	}
	if drained := w.member.Drain(); drained > 0 {
		jww.DEBUG.Printf("Worker %d: drained %d notifications", rank, drained)
	}
	wm.Stop(l.attempts)

	r, err := w.reduce(l)
	if err != nil {
		return nil, err
	}
	w.metrics.Measure(measure.TagReduced)

	// every send happened before its sender entered the reductions
	w.member.Drain()

	if err = w.reconcile(r.Outcome); err != nil {
		return nil, err
	}

	r.Rank = rank
	r.Attempts = l.attempts
	r.LocalElapsed = l.stop.Sub(l.start)
	r.PartitionSize = part.Len()
	if rr, ok := part.(partition.RadiusReporter); ok {
		r.Radius = rr.Radius()
	}
	wm.SetEvents(w.metrics)
	wm.SetResourceMetrics(measure.Sample(wm.StartTime))
	r.Metrics = wm

	jww.DEBUG.Printf("Worker %d: %s after %d local attempts in %s, %.2f%% "+
		"of its partition", rank, r.Outcome, l.attempts, r.LocalElapsed,
		part.Progress()*100)
	return r, nil
}

// search runs the loop until the worker has a reason to stop.
func (w *Worker) search(ctx context.Context, job *Job, v *verify.Verifier,
	part partition.Partition, req *comms.Request, interval uint64, l *loop) {
	rank, size := w.member.Rank(), w.member.Size()
	throttle := measure.NewThrottle(job.ProgressInterval, l.start)
	radial, _ := part.(partition.RadiusReporter)

	defer func() {
		l.stop = time.Now()
	}()

	if job.expired(0) {
		l.timedOut = true
		w.metrics.Measure(measure.TagDeadline)
		return
	}
	if ctx.Err() != nil {
		l.interrupted = true
		w.metrics.Measure(measure.TagInterrupted)
		return
	}

	for {
		key, ok := part.Next()
		if !ok {
			w.metrics.Measure(measure.TagExhausted)
			return
		}
		l.attempts++

		if v.TryKey(key) {
			l.found = int64(key)
			w.metrics.Measure(measure.TagKeyFound)
			if _, err := w.machine.Update(state.Found); err != nil {
				jww.ERROR.Printf("Worker %d: %+v", rank, err)
			}
			jww.INFO.Printf("Worker %d found key %d after %d attempts",
				rank, key, l.attempts)
			w.publish(key)
			return
		}

		if l.attempts%interval != 0 {
			continue
		}

		if n, ok := req.Test(); ok {
			w.adopt(n, l)
			return
		}

		now := time.Now()
		if job.expired(now.Sub(l.start)) {
			l.timedOut = true
			w.metrics.Measure(measure.TagDeadline)
			jww.DEBUG.Printf("Worker %d: deadline reached after %d attempts",
				rank, l.attempts)
			return
		}
		if ctx.Err() != nil {
			l.interrupted = true
			w.metrics.Measure(measure.TagInterrupted)
			return
		}

		if rank == Root && throttle.Ready(now) {
			elapsed := now.Sub(l.start)
			p := measure.Progress{
				Rank:          rank,
				Attempts:      l.attempts,
				Elapsed:       elapsed,
				EstimatedRate: measure.EstimateRate(l.attempts, size, elapsed),
				Percent:       measure.EstimateCoverage(l.attempts, size, job.KeySpace),
			}
			if radial != nil {
				p.Radial = true
				p.Radius = radial.Radius()
				p.Percent = measure.RadiusCoverage(p.Radius, job.Radius)
			}
			w.progress(p)
		}
	}
}

// publish pushes the found key to every peer. A failed send is not retried;
// the final reduction still carries the key.
func (w *Worker) publish(key uint64) {
	for dest := 0; dest < w.member.Size(); dest++ {
		if dest == w.member.Rank() {
			continue
		}
		if err := w.member.Send(dest, int64(key)); err != nil {
			jww.WARN.Printf("Worker %d: could not notify %d: %s",
				w.member.Rank(), dest, err)
		}
	}
	w.metrics.Measure(measure.TagPeersNotified)
}

// adopt takes a key announced by a peer.
func (w *Worker) adopt(n comms.Notification, l *loop) {
	l.found = n.Value
	w.metrics.Measure(measure.TagNotified)
	if _, err := w.machine.Update(state.Found); err != nil {
		jww.ERROR.Printf("Worker %d: %+v", w.member.Rank(), err)
	}
	jww.DEBUG.Printf("Worker %d: worker %d found key %d, stopping after %d "+
		"attempts", w.member.Rank(), n.Source, n.Value, l.attempts)
}

// reduce combines the loop results over the group and waits for every
// worker at a closing barrier.
func (w *Worker) reduce(l *loop) (*Report, error) {
	found, err := w.member.Allreduce(l.found, comms.Max)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to reduce found key")
	}
	timedOut, err := w.member.Allreduce(flag(l.timedOut), comms.Max)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to reduce timeout")
	}
	attempts, err := w.member.Allreduce(int64(l.attempts), comms.Sum)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to reduce attempts")
	}
	elapsed, err := w.member.Allreduce(int64(l.stop.Sub(l.start)), comms.Max)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to reduce elapsed time")
	}
	interrupted, err := w.member.Allreduce(flag(l.interrupted), comms.Max)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to reduce interruption")
	}
	if err = w.member.Barrier(); err != nil {
		return nil, errors.WithMessage(err, "failed at closing barrier")
	}

	r := &Report{
		Outcome:       state.Resolve(found != NotFound, timedOut > 0),
		TotalAttempts: uint64(attempts),
		Elapsed:       time.Duration(elapsed),
		Interrupted:   interrupted > 0,
	}
	if r.Outcome == state.Found {
		r.Key = uint64(found)
	}
	return r, nil
}

// reconcile moves the machine to the reduced outcome unless the loop already
// got it there.
func (w *Worker) reconcile(outcome state.Outcome) error {
	current := w.machine.Get()
	if current == outcome {
		return nil
	}
	if current.Terminal() {
		return errors.Errorf("worker %d ended %s but the group ended %s",
			w.member.Rank(), current, outcome)
	}
	_, err := w.machine.Update(outcome)
	return errors.WithMessagef(err, "worker %d", w.member.Rank())
}

func flag(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
