// Package notify fans out change events to observers registered against
// resource identifiers. Events carry no row data; observers re-query.
package notify

import (
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/starford/notepad/internal/resource"
)

// Kind names the mutation that produced a change.
type Kind string

const (
	Inserted Kind = "inserted"
	Updated  Kind = "updated"
	Deleted  Kind = "deleted"
)

// Change is published once per successful mutation.
type Change struct {
	// URI is the identifier the mutation addressed, e.g. "notes/5" or "notes".
	URI   string         `json:"uri"`
	Kind  Kind           `json:"kind"`
	Scope resource.Scope `json:"-"`
	// IDs lists the notes the mutation touched.
	IDs []int64 `json:"ids"`
}

// Notifier routes changes to subscriptions.
//
// A single event loop owns the subscription table; the public methods talk
// to it over channels. Each subscription has its own unbounded mailbox, so
// Publish never waits on a slow observer and nothing is dropped while the
// subscription is open.
type Notifier struct {
	router *resource.Router
	logger *slog.Logger

	subscribeCh   chan *Subscription
	unsubscribeCh chan *Subscription
	publishCh     chan Change
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewNotifier starts the notifier loop. Resource identifiers passed to
// Subscribe are resolved with router.
func NewNotifier(router *resource.Router, logger *slog.Logger) *Notifier {
	n := &Notifier{
		router:        router,
		logger:        logger,
		subscribeCh:   make(chan *Subscription),
		unsubscribeCh: make(chan *Subscription),
		publishCh:     make(chan Change, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *Notifier) run() {
	defer close(n.stopped)

	subs := make(map[uuid.UUID]*Subscription)

	for {
		select {
		case <-n.stopCh:
			for _, s := range subs {
				s.box.close()
			}
			return

		case s := <-n.subscribeCh:
			// Changes published before Subscribe was called are not delivered.
			n.drain(subs)
			subs[s.ID] = s

		case s := <-n.unsubscribeCh:
			if _, ok := subs[s.ID]; ok {
				delete(subs, s.ID)
				s.box.close()
			}

		case c := <-n.publishCh:
			n.dispatch(subs, c)

		case resp := <-n.countReqCh:
			resp <- len(subs)
		}
	}
}

func (n *Notifier) dispatch(subs map[uuid.UUID]*Subscription, c Change) {
	delivered := 0
	for _, s := range subs {
		if s.matches(c) {
			s.box.push(c)
			delivered++
		}
	}
	n.logger.Debug("notify: published",
		slog.String("uri", c.URI),
		slog.String("kind", string(c.Kind)),
		slog.Int("observers", delivered))
}

// drain dispatches every change already queued on publishCh.
func (n *Notifier) drain(subs map[uuid.UUID]*Subscription) {
	for {
		select {
		case c := <-n.publishCh:
			n.dispatch(subs, c)
		default:
			return
		}
	}
}

// Subscribe registers an observer for the resource identifier uri. With
// descendants set, an observer on the collection also receives changes
// addressed to single notes.
func (n *Notifier) Subscribe(uri string, descendants bool) (*Subscription, error) {
	scope, err := n.router.Resolve(uri)
	if err != nil {
		return nil, fmt.Errorf("notify: subscribe: %w", err)
	}
	return n.SubscribeScope(scope, descendants), nil
}

// SubscribeScope registers an observer for an already resolved scope.
// Subscribing to a closed notifier returns a subscription whose channel is
// already closed.
func (n *Notifier) SubscribeScope(scope resource.Scope, descendants bool) *Subscription {
	s := &Subscription{
		ID:          uuid.New(),
		Scope:       scope,
		Descendants: descendants,
		box:         newMailbox(),
		n:           n,
	}
	s.C = s.box.out

	if n.closed.Load() {
		s.box.close()
		return s
	}
	select {
	case n.subscribeCh <- s:
	case <-n.stopped:
		s.box.close()
	}
	return s
}

// Publish queues c for every matching observer and returns without waiting
// for delivery.
func (n *Notifier) Publish(c Change) {
	if n.closed.Load() {
		return
	}
	select {
	case n.publishCh <- c:
	case <-n.stopped:
	}
}

// Count returns the number of open subscriptions.
func (n *Notifier) Count() int {
	if n.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case n.countReqCh <- resp:
	case <-n.stopped:
		return 0
	}
	select {
	case c := <-resp:
		return c
	case <-n.stopped:
		return 0
	}
}

// Close stops the loop and closes every subscription channel.
func (n *Notifier) Close() {
	if n.closed.CompareAndSwap(false, true) {
		close(n.stopCh)
	}
	<-n.stopped
}

// Subscription is one registered observer.
type Subscription struct {
	ID          uuid.UUID
	Scope       resource.Scope
	Descendants bool
	// C receives one Change per matching mutation and is closed on Close.
	C <-chan Change

	box *mailbox
	n   *Notifier
}

// Close unregisters the observer and closes C.
func (s *Subscription) Close() {
	if s.n.closed.Load() {
		return
	}
	select {
	case s.n.unsubscribeCh <- s:
	case <-s.n.stopped:
	}
}

func (s *Subscription) matches(c Change) bool {
	switch s.Scope.Kind {
	case resource.KindItem:
		// A mutation addressed to this item counts even when it matched no rows.
		if c.Scope.Kind == resource.KindItem && c.Scope.ID == s.Scope.ID {
			return true
		}
		return slices.Contains(c.IDs, s.Scope.ID)
	case resource.KindCollection:
		return c.Scope.Kind == resource.KindCollection || s.Descendants
	case resource.KindLiveFolder:
		// Derived view over the whole table.
		return true
	default:
		return false
	}
}
