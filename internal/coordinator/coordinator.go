////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package coordinator sets up a key search, runs one worker per member of an
// in-process group and turns their reports into a Summary.
package coordinator

import (
	"context"
	"encoding/hex"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/keysearch/cmd/conf"
	"gitlab.com/elixxir/keysearch/internal/comms"
	"gitlab.com/elixxir/keysearch/internal/cryptops"
	"gitlab.com/elixxir/keysearch/internal/partition"
	"gitlab.com/elixxir/keysearch/internal/search"
	"gitlab.com/elixxir/keysearch/internal/state"
	"gitlab.com/elixxir/keysearch/storage"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
)

// Coordinator runs one search.
type Coordinator struct {
	params conf.Search
	store  *storage.Storage
	label  string

	groupOpts  []comms.Option
	workerOpts []search.Option
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLabel names the run in its record, used by the battery.
func WithLabel(label string) Option {
	return func(c *Coordinator) {
		c.label = label
	}
}

// WithGroupOptions passes options to the process group.
func WithGroupOptions(opts ...comms.Option) Option {
	return func(c *Coordinator) {
		c.groupOpts = append(c.groupOpts, opts...)
	}
}

// WithWorkerOptions passes options to every worker.
func WithWorkerOptions(opts ...search.Option) Option {
	return func(c *Coordinator) {
		c.workerOpts = append(c.workerOpts, opts...)
	}
}

// New builds a Coordinator. store may be nil, in which case the run is not
// recorded.
func New(params conf.Search, store *storage.Storage, opts ...Option) *Coordinator {
	c := &Coordinator{
		params: params,
		store:  store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the search. On interruption it returns the summary of what
// was searched together with an error wrapping the context's error.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	p := c.params
	started := time.Now()

	ciphertext, err := c.ciphertext()
	if err != nil {
		return nil, err
	}
	digest := blake2b.Sum256(ciphertext)

	job := &search.Job{
		Ciphertext:       ciphertext,
		Phrase:           p.Phrase,
		Layout:           p.Layout,
		Policy:           p.Policy,
		KeySpace:         p.KeySpace,
		Hint:             p.Hint,
		Radius:           p.Radius,
		Timeout:          p.Timeout,
		TimeoutEnabled:   p.TimeoutEnabled,
		CheckInterval:    p.CheckInterval,
		ProgressInterval: p.ProgressInterval,
	}

	s := &Summary{
		RunID:      uuid.New().String(),
		Label:      c.label,
		StartedAt:  started,
		Workers:    p.Workers,
		Policy:     p.Policy,
		Layout:     p.Layout,
		KeySpace:   p.KeySpace,
		Phrase:     p.Phrase,
		Digest:     hex.EncodeToString(digest[:]),
		RealKey:    p.Key,
		RealKeySet: p.KeySet,
	}
	c.preflight(s)

	jww.INFO.Printf("Run %s: searching %d keys with %d %s workers for %q",
		s.RunID, p.KeySpace, p.Workers, p.Policy, p.Phrase)

	reports, err := c.search(ctx, job)
	if err != nil {
		return nil, err
	}

	if err = s.collect(reports, ciphertext, &p); err != nil {
		return nil, err
	}
	s.log()
	c.record(s, digest[:])

	if s.Interrupted {
		return s, errors.Wrap(ctx.Err(), "search interrupted")
	}
	return s, nil
}

// ciphertext decodes or builds the ciphertext of the job.
func (c *Coordinator) ciphertext() ([]byte, error) {
	p := c.params
	if len(p.Ciphertext) > 0 {
		return append([]byte(nil), p.Ciphertext...), nil
	}

	if !p.KeySet {
		return nil, errors.New("a real key is required to encrypt the input file")
	}
	plaintext, err := os.ReadFile(p.File)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", p.File)
	}
	if len(plaintext) == 0 {
		return nil, errors.Errorf("input file %s is empty", p.File)
	}

	buf := cryptops.Pad(plaintext)
	if err = cryptops.Encrypt(p.Key, p.Layout, buf); err != nil {
		return nil, errors.WithMessagef(err, "failed to encrypt %s", p.File)
	}
	jww.DEBUG.Printf("Encrypted %d bytes of %s under key %d", len(plaintext),
		p.File, p.Key)
	return buf, nil
}

// preflight warns about searches which cannot succeed.
func (c *Coordinator) preflight(s *Summary) {
	p := c.params
	if !p.KeySet {
		return
	}
	if !partition.NewRange(0, p.KeySpace).Contains(p.Key) {
		s.warn("the real key %d is outside the searched space of %d keys",
			p.Key, p.KeySpace)
	}
	if p.Policy == partition.Radial {
		if dist := distance(p.Key, p.Hint); dist > p.Radius {
			s.warn("the real key is %d away from the hint, outside the "+
				"search radius of %d", dist, p.Radius)
		}
	}
}

// search runs one worker per member and returns their reports by rank.
func (c *Coordinator) search(ctx context.Context, job *search.Job) ([]*search.Report, error) {
	group, err := comms.NewGroup(c.params.Workers, c.groupOpts...)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to build process group")
	}

	reports := make([]*search.Report, group.Size())
	workers := make([]*search.Worker, group.Size())
	var eg errgroup.Group
	for rank := 0; rank < group.Size(); rank++ {
		member, err := group.Member(rank)
		if err != nil {
			return nil, err
		}

		var j *search.Job
		if rank == search.Root {
			j = job
		}
		rank := rank
		worker := search.NewWorker(member, c.workerOpts...)
		workers[rank] = worker
		eg.Go(func() error {
			r, err := worker.Run(ctx, j)
			if err != nil {
				group.Abort(err)
				return err
			}
			reports[rank] = r
			return nil
		})
	}

	if err = eg.Wait(); err != nil {
		return nil, errors.WithMessage(err, "search failed")
	}
	if err = agree(workers, reports[search.Root].Outcome); err != nil {
		return nil, err
	}
	if dropped := group.Dropped(); dropped > 0 {
		jww.DEBUG.Printf("%d found key notifications were not delivered", dropped)
	}
	return reports, nil
}

// agreementTimeout bounds the wait for a worker still settling its outcome.
const agreementTimeout = time.Second

// agree checks that every worker's machine ended in the group outcome.
func agree(workers []*search.Worker, outcome state.Outcome) error {
	for rank, w := range workers {
		if _, err := w.State().WaitFor(agreementTimeout, outcome); err != nil {
			return errors.WithMessagef(err, "worker %d disagrees with the "+
				"group outcome %s", rank, outcome)
		}
	}
	return nil
}

// record saves the run to the ledger. A failure only costs the record.
func (c *Coordinator) record(s *Summary, digest []byte) {
	if c.store == nil {
		return
	}
	run := &storage.Run{
		Id:        s.RunID,
		StartedAt: s.StartedAt,
		Label:     s.Label,
		Phrase:    s.Phrase,
		Digest:    digest,
		Workers:   s.Workers,
		Policy:    s.Policy.String(),
		Layout:    s.Layout.String(),
		KeySpace:  s.KeySpace,
		Hint:      c.params.Hint,
		Radius:    c.params.Radius,
		Timeout:   c.params.Timeout,
		Outcome:   s.Outcome.String(),
		Key:       s.Key,
		Attempts:  s.Attempts,
		Elapsed:   s.Elapsed,
	}
	if err := c.store.InsertRun(run); err != nil {
		jww.WARN.Printf("Run %s was not recorded: %+v", s.RunID, err)
	}
}

func distance(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
