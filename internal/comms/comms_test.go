////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package comms

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// runGroup runs fn once per member of a new group of size n, each on its own
// goroutine, and fails the test on any error.
func runGroup(t *testing.T, n int, fn func(m *Member) error) *Group {
	g, err := NewGroup(n)
	if err != nil {
		t.Fatalf("NewGroup(%d) returned an error: %+v", n, err)
	}
	runMembers(t, g, fn)
	return g
}

func runMembers(t *testing.T, g *Group, fn func(m *Member) error) {
	var wg sync.WaitGroup
	errs := make([]error, g.Size())
	for rank := 0; rank < g.Size(); rank++ {
		m, err := g.Member(rank)
		if err != nil {
			t.Fatalf("Member(%d) returned an error: %+v", rank, err)
		}
		wg.Add(1)
		go func(m *Member) {
			defer wg.Done()
			errs[m.Rank()] = fn(m)
		}(m)
	}
	wg.Wait()

	for rank, err := range errs {
		if err != nil {
			t.Errorf("Member %d returned an error: %+v", rank, err)
		}
	}
}

func TestNewGroup_Invalid(t *testing.T) {
	if _, err := NewGroup(0); err == nil {
		t.Errorf("Expected an error for an empty group")
	}

	g, _ := NewGroup(2)
	if _, err := g.Member(2); errors.Cause(err) != ErrRank {
		t.Errorf("Expected ErrRank, received %v", err)
	}
}

type job struct {
	Data  []byte
	Name  string
	Limit uint64
}

// Tests that every member receives an equal but independent copy.
func TestMember_Bcast(t *testing.T) {
	const n = 5
	original := &job{Data: []byte("ciphertext"), Name: "test", Limit: 1 << 20}
	received := make([]job, n)

	runGroup(t, n, func(m *Member) error {
		var payload *job
		if m.Rank() == 2 {
			payload = original
		}
		return m.Bcast(2, payload, &received[m.Rank()])
	})

	for rank := range received {
		if !reflect.DeepEqual(received[rank], *original) {
			t.Errorf("Member %d received %+v, expected %+v", rank, received[rank], *original)
		}
	}

	received[0].Data[0] = 'X'
	for rank := 1; rank < n; rank++ {
		if received[rank].Data[0] != 'c' {
			t.Errorf("Member %d shares memory with member 0", rank)
		}
	}
	if original.Data[0] != 'c' {
		t.Errorf("Broadcast copy shares memory with the root payload")
	}
}

func TestMember_Allreduce(t *testing.T) {
	const n = 7
	sums := make([]int64, n)
	maxes := make([]int64, n)

	runGroup(t, n, func(m *Member) error {
		var err error
		v := int64(m.Rank() + 1)
		if sums[m.Rank()], err = m.Allreduce(v, Sum); err != nil {
			return err
		}
		maxes[m.Rank()], err = m.Allreduce(v, Max)
		return err
	})

	for rank := 0; rank < n; rank++ {
		if sums[rank] != 28 || maxes[rank] != 7 {
			t.Errorf("Member %d: sum %d max %d", rank, sums[rank], maxes[rank])
		}
	}
}

// Tests that back to back reductions do not mix values when non-root
// members run ahead of the root.
func TestMember_Reduce_RunAhead(t *testing.T) {
	const n = 4
	const rounds = 10
	results := make([][]int64, n)

	runGroup(t, n, func(m *Member) error {
		if m.Rank() == 0 {
			// let the others queue every round first
			time.Sleep(20 * time.Millisecond)
		}
		for i := 0; i < rounds; i++ {
			v, err := m.Reduce(0, int64(i*100+m.Rank()), Sum)
			if err != nil {
				return err
			}
			results[m.Rank()] = append(results[m.Rank()], v)
		}
		return nil
	})

	for i, v := range results[0] {
		expected := int64(i*100*n + 0 + 1 + 2 + 3)
		if v != expected {
			t.Errorf("Round %d: expected %d, received %d", i, expected, v)
		}
	}
	for i, v := range results[1] {
		if v != int64(i*100+1) {
			t.Errorf("Non-root reduce should return its own value, received %d", v)
		}
	}
}

func TestMember_Barrier(t *testing.T) {
	const n = 6
	var mux sync.Mutex
	arrived := 0
	observed := make([]int, n)

	runGroup(t, n, func(m *Member) error {
		mux.Lock()
		arrived++
		mux.Unlock()

		if err := m.Barrier(); err != nil {
			return err
		}

		mux.Lock()
		observed[m.Rank()] = arrived
		mux.Unlock()
		return nil
	})

	for rank, seen := range observed {
		if seen != n {
			t.Errorf("Member %d left the barrier after %d arrivals", rank, seen)
		}
	}
}

// Happy path
func TestRequest_Test(t *testing.T) {
	g, _ := NewGroup(3)
	sender, _ := g.Member(1)
	receiver, _ := g.Member(2)

	req := receiver.Irecv()
	if _, ok := req.Test(); ok {
		t.Errorf("Request completed before anything was sent")
	}

	if err := sender.Send(2, 123456); err != nil {
		t.Fatalf("Send returned an error: %+v", err)
	}

	var n Notification
	var ok bool
	deadline := time.After(time.Second)
	for !ok {
		select {
		case <-deadline:
			t.Fatalf("Request never completed")
		default:
		}
		n, ok = req.Test()
	}

	expected := Notification{Source: 1, Value: 123456}
	if n != expected {
		t.Errorf("Received %+v, expected %+v", n, expected)
	}

	// completed requests keep their value
	if again, ok := req.Test(); !ok || again != expected {
		t.Errorf("Second Test returned %+v %v", again, ok)
	}
	if again, ok := req.Cancel(); !ok || again != expected {
		t.Errorf("Cancel after completion returned %+v %v", again, ok)
	}
}

// Tests that cancelling an idle request releases its goroutine and leaves
// later notifications in the inbox.
func TestRequest_Cancel(t *testing.T) {
	g, _ := NewGroup(2)
	a, _ := g.Member(0)
	b, _ := g.Member(1)

	req := b.Irecv()
	if _, ok := req.Cancel(); ok {
		t.Errorf("Cancelled request reported a notification")
	}
	// cancel twice is fine
	req.Cancel()

	if err := a.Send(1, 9); err != nil {
		t.Fatalf("Send returned an error: %+v", err)
	}
	if drained := b.Drain(); drained != 1 {
		t.Errorf("Expected one drained notification, received %d", drained)
	}
}

func TestMember_Send_Drop(t *testing.T) {
	g, _ := NewGroup(2, DropNotifications())
	a, _ := g.Member(0)
	b, _ := g.Member(1)

	if err := a.Send(1, 5); err != nil {
		t.Fatalf("Send returned an error: %+v", err)
	}
	if b.Drain() != 0 {
		t.Errorf("A dropped notification was delivered")
	}
	if g.Dropped() != 1 {
		t.Errorf("Expected one dropped notification, received %d", g.Dropped())
	}
	if err := a.Send(5, 1); errors.Cause(err) != ErrRank {
		t.Errorf("Expected ErrRank, received %v", err)
	}
}

// Tests that aborting the group unblocks members waiting in a collective.
func TestGroup_Abort(t *testing.T) {
	g, _ := NewGroup(3)
	m0, _ := g.Member(0)
	m1, _ := g.Member(1)

	errs := make(chan error, 2)
	go func() { errs <- m0.Barrier() }()
	go func() { errs <- m1.Barrier() }()

	time.Sleep(10 * time.Millisecond)
	g.Abort(errors.New("member 2 failed"))

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			if errors.Cause(err) != ErrAborted {
				t.Errorf("Expected ErrAborted, received %v", err)
			}
		case <-time.After(time.Second):
			t.Fatalf("Barrier did not return after abort")
		}
	}
}
