////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package comms is the in-process message passing layer the search workers
// coordinate over. A Group holds a fixed number of Members; each Member is
// used by exactly one goroutine and owns its inboxes. Members share no
// memory: broadcast payloads are deep copied on receipt.
//
// Collective operations (Bcast, Barrier, Reduce, Allreduce) must be called by
// every member of the group in the same order.
package comms

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

var (
	// ErrAborted is returned by blocking operations once the group has been
	// aborted.
	ErrAborted = errors.New("process group aborted")
	// ErrRank is returned for ranks outside of the group.
	ErrRank = errors.New("rank out of range")
)

// inboxDepth is the per member buffer, in messages per group member.
const inboxDepth = 4

type message struct {
	source  int
	seq     uint64
	value   int64
	payload interface{}
}

// Group is a fixed size set of members.
type Group struct {
	size    int
	members []*Member

	abort     chan struct{}
	abortOnce sync.Once
	abortErr  error

	dropNotifications bool
	dropped           *uint64
}

// Option configures a Group.
type Option func(*Group)

// DropNotifications makes every point to point Send succeed without
// delivering anything. It exists to exercise recovery from lost
// notifications.
func DropNotifications() Option {
	return func(g *Group) {
		g.dropNotifications = true
	}
}

// NewGroup builds a group of size members.
func NewGroup(size int, opts ...Option) (*Group, error) {
	if size <= 0 {
		return nil, errors.Errorf("group size must be positive, received %d", size)
	}

	var dropped uint64
	g := &Group{
		size:    size,
		members: make([]*Member, size),
		abort:   make(chan struct{}),
		dropped: &dropped,
	}
	for _, opt := range opts {
		opt(g)
	}

	for rank := range g.members {
		g.members[rank] = &Member{
			group:      g,
			rank:       rank,
			notify:     make(chan message, size*inboxDepth),
			collective: make(chan message, size*inboxDepth),
			pending:    make(map[uint64][]message),
		}
	}

	return g, nil
}

// Size returns the number of members.
func (g *Group) Size() int {
	return g.size
}

// Member returns the member with the given rank.
func (g *Group) Member(rank int) (*Member, error) {
	if rank < 0 || rank >= g.size {
		return nil, errors.WithMessagef(ErrRank, "rank %d, group size %d", rank, g.size)
	}
	return g.members[rank], nil
}

// Abort unblocks every pending and future blocking operation with an error
// wrapping ErrAborted. Only the first call has an effect.
func (g *Group) Abort(reason error) {
	g.abortOnce.Do(func() {
		g.abortErr = errors.Wrap(ErrAborted, reason.Error())
		jww.WARN.Printf("Aborting process group of %d: %s", g.size, reason)
		close(g.abort)
	})
}

// Dropped returns how many notifications were discarded.
func (g *Group) Dropped() uint64 {
	return atomic.LoadUint64(g.dropped)
}

func (g *Group) aborted() error {
	if g.abortErr != nil {
		return g.abortErr
	}
	return ErrAborted
}
