////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package comms

// request.go contains the non-blocking receive

import (
	"sync"
)

// Request is a posted receive on a member's notification inbox. It completes
// at most once. Test polls it; Cancel must be called before the member is
// torn down.
type Request struct {
	done     chan message
	cancel   chan struct{}
	exited   chan struct{}
	once     sync.Once
	received *Notification
}

// Irecv posts a receive for the next point to point notification.
func (m *Member) Irecv() *Request {
	r := &Request{
		done:   make(chan message, 1),
		cancel: make(chan struct{}),
		exited: make(chan struct{}),
	}

	go func() {
		defer close(r.exited)
		select {
		case msg := <-m.notify:
			r.done <- msg
		case <-r.cancel:
		}
	}()

	return r
}

// Test reports whether the request has completed without blocking.
func (r *Request) Test() (Notification, bool) {
	if r.received != nil {
		return *r.received, true
	}

	select {
	case msg := <-r.done:
		r.received = &Notification{Source: msg.source, Value: msg.value}
		return *r.received, true
	default:
		return Notification{}, false
	}
}

// Cancel withdraws the receive and waits for it to unwind. A notification
// that completed the request before the cancellation is still returned.
func (r *Request) Cancel() (Notification, bool) {
	r.once.Do(func() {
		close(r.cancel)
	})
	<-r.exited
	return r.Test()
}
