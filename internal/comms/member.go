////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package comms

import (
	"reflect"
	"sync/atomic"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// Op combines two values in a reduction.
type Op uint8

const (
	Sum Op = iota
	Max
)

func (o Op) apply(a, b int64) int64 {
	switch o {
	case Max:
		if b > a {
			return b
		}
		return a
	default:
		return a + b
	}
}

func (o Op) String() string {
	switch o {
	case Sum:
		return "SUM"
	case Max:
		return "MAX"
	default:
		return "UNKNOWN"
	}
}

// Member is one participant of a Group. It is not safe for concurrent use.
type Member struct {
	group *Group
	rank  int

	notify     chan message
	collective chan message

	// seq numbers collective calls, pending holds collective messages that
	// arrived ahead of their call
	seq     uint64
	pending map[uint64][]message
}

// Rank returns the member's index in the group.
func (m *Member) Rank() int {
	return m.rank
}

// Size returns the size of the member's group.
func (m *Member) Size() int {
	return m.group.size
}

/*///Point to Point//////////////////////////////////////////////////////////*/

// Send delivers value to the notification inbox of dest without blocking.
// A full inbox is reported as an error; the message is not retried.
func (m *Member) Send(dest int, value int64) error {
	if dest < 0 || dest >= m.group.size {
		return errors.WithMessagef(ErrRank, "send to %d", dest)
	}

	if m.group.dropNotifications {
		atomic.AddUint64(m.group.dropped, 1)
		jww.DEBUG.Printf("Member %d: dropped notification to %d", m.rank, dest)
		return nil
	}

	select {
	case m.group.members[dest].notify <- message{source: m.rank, value: value}:
		return nil
	default:
		atomic.AddUint64(m.group.dropped, 1)
		return errors.Errorf("notification inbox of member %d is full", dest)
	}
}

// Notification is a value received point to point.
type Notification struct {
	Source int
	Value  int64
}

// Drain discards every notification waiting in the member's inbox and returns
// how many there were. Outstanding requests must be cancelled first.
func (m *Member) Drain() int {
	n := 0
	for {
		select {
		case <-m.notify:
			n++
		default:
			return n
		}
	}
}

/*///Collectives/////////////////////////////////////////////////////////////*/

// Bcast copies payload from root into out on every member, root included.
// payload and out must be pointers to structs of the same type. Every
// destination receives its own deep copy taken before Bcast returns on root.
func (m *Member) Bcast(root int, payload interface{}, out interface{}) error {
	if root < 0 || root >= m.group.size {
		return errors.WithMessagef(ErrRank, "broadcast root %d", root)
	}
	seq := m.nextSeq()

	src := payload
	if m.rank == root {
		for dest := range m.group.members {
			if dest == root {
				continue
			}
			snapshot, err := clone(payload)
			if err != nil {
				return err
			}
			err = m.sendCollective(dest, message{source: root, seq: seq, payload: snapshot})
			if err != nil {
				return err
			}
		}
	} else {
		msg, err := m.recvCollective(seq)
		if err != nil {
			return err
		}
		src = msg.payload
	}

	err := copier.CopyWithOption(out, src, copier.Option{DeepCopy: true})
	return errors.Wrap(err, "failed to copy broadcast payload")
}

// Reduce combines value over all members with op. The result is only
// meaningful on root; other members get their own value back.
func (m *Member) Reduce(root int, value int64, op Op) (int64, error) {
	if root < 0 || root >= m.group.size {
		return 0, errors.WithMessagef(ErrRank, "reduce root %d", root)
	}
	seq := m.nextSeq()

	if m.rank != root {
		return value, m.sendCollective(root, message{source: m.rank, seq: seq, value: value})
	}

	result := value
	for i := 1; i < m.group.size; i++ {
		msg, err := m.recvCollective(seq)
		if err != nil {
			return 0, err
		}
		result = op.apply(result, msg.value)
	}
	return result, nil
}

// Allreduce combines value over all members with op and returns the result
// on every member.
func (m *Member) Allreduce(value int64, op Op) (int64, error) {
	result, err := m.Reduce(0, value, op)
	if err != nil {
		return 0, err
	}
	return m.bcastValue(0, result)
}

// Barrier returns once every member has entered it.
func (m *Member) Barrier() error {
	_, err := m.Allreduce(0, Sum)
	return err
}

func (m *Member) bcastValue(root int, value int64) (int64, error) {
	seq := m.nextSeq()
	if m.rank != root {
		msg, err := m.recvCollective(seq)
		if err != nil {
			return 0, err
		}
		return msg.value, nil
	}

	for dest := range m.group.members {
		if dest == root {
			continue
		}
		err := m.sendCollective(dest, message{source: root, seq: seq, value: value})
		if err != nil {
			return 0, err
		}
	}
	return value, nil
}

// clone deep copies a pointer to a struct.
func clone(payload interface{}) (interface{}, error) {
	t := reflect.TypeOf(payload)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return nil, errors.Errorf("broadcast payload must be a pointer to a "+
			"struct, received %T", payload)
	}
	snapshot := reflect.New(t.Elem()).Interface()
	err := copier.CopyWithOption(snapshot, payload, copier.Option{DeepCopy: true})
	return snapshot, errors.Wrap(err, "failed to copy broadcast payload")
}

func (m *Member) nextSeq() uint64 {
	m.seq++
	return m.seq
}

func (m *Member) sendCollective(dest int, msg message) error {
	select {
	case m.group.members[dest].collective <- msg:
		return nil
	case <-m.group.abort:
		return m.group.aborted()
	}
}

// recvCollective returns the next message belonging to collective call seq,
// parking messages from later calls.
func (m *Member) recvCollective(seq uint64) (message, error) {
	if queued := m.pending[seq]; len(queued) > 0 {
		msg := queued[0]
		if len(queued) == 1 {
			delete(m.pending, seq)
		} else {
			m.pending[seq] = queued[1:]
		}
		return msg, nil
	}

	for {
		select {
		case msg := <-m.collective:
			if msg.seq == seq {
				return msg, nil
			}
			if msg.seq < seq {
				return message{}, errors.Errorf("member %d: collective message "+
					"from %d for call %d arrived during call %d", m.rank,
					msg.source, msg.seq, seq)
			}
			m.pending[msg.seq] = append(m.pending[msg.seq], msg)
		case <-m.group.abort:
			return message{}, m.group.aborted()
		}
	}
}
