package authsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kinboost-api/internal/client/auth"
	"github.com/kinboost-api/internal/domain"
)

// ErrStopped is returned by calls made after Stop.
var ErrStopped = errors.New("authsync: stopped")

// Auth is the client session handle. *auth.Client satisfies it.
type Auth interface {
	OnAuthStateChange(l auth.Listener) (unsubscribe func())
	GetSession(ctx context.Context) (*domain.AuthSession, error)
	SignOut(ctx context.Context) error
}

// ShopLookup resolves the shop owned by userID, nil when there is none.
type ShopLookup interface {
	LookupShop(ctx context.Context, userID string) (*domain.Shop, error)
}

// Synchronizer owns the session-state tuple. All state transitions happen on a
// single goroutine; network calls run on their own goroutines and post their
// results back.
type Synchronizer struct {
	auth  Auth
	shops ShopLookup

	cmds chan func()
	done chan struct{}
	wg   sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
	unsub   func()

	snapshot atomic.Pointer[State]

	// owner goroutine only
	state   State
	authGen uint64
	seq     uint64
	waiters map[uint64][]chan error
	subs    map[int]*pump
	nextSub int
}

func New(a Auth, shops ShopLookup) *Synchronizer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Synchronizer{
		auth:    a,
		shops:   shops,
		cmds:    make(chan func()),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		state:   State{Loading: true},
		waiters: make(map[uint64][]chan error),
		subs:    make(map[int]*pump),
	}
	st := s.state
	s.snapshot.Store(&st)
	return s
}

// Start subscribes to session events and fetches the current session once.
func (s *Synchronizer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	s.wg.Add(1)
	go s.run()

	s.unsub = s.auth.OnAuthStateChange(func(_ auth.Event, sess *domain.AuthSession) {
		// Runs under the auth client's lock: hand off and return.
		s.post(func() { s.onSession(sess) })
	})
	s.post(s.fetchInitial)
}

// Stop ends the owner goroutine and cancels in-flight lookups. Subscriber
// channels are closed.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.done)
		s.cancel()
		if s.unsub != nil {
			s.unsub()
		}
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Snapshot returns the latest published state.
func (s *Synchronizer) Snapshot() State {
	return *s.snapshot.Load()
}

// Subscribe delivers the current state followed by every new one, in order.
// The channel is closed by cancel or Stop.
func (s *Synchronizer) Subscribe() (<-chan State, func()) {
	out := make(chan State)
	p := newPump(out)
	var id int
	registered := make(chan struct{})
	ok := s.post(func() {
		id = s.nextSub
		s.nextSub++
		s.subs[id] = p
		p.in <- s.state
		close(registered)
	})
	if !ok {
		close(p.in)
		return out, func() {}
	}
	<-registered

	var once sync.Once
	return out, func() {
		once.Do(func() {
			s.post(func() {
				if q, ok := s.subs[id]; ok {
					delete(s.subs, id)
					close(q.in)
				}
			})
		})
	}
}

// SignOut signs out through the auth client and clears the tuple even when the
// provider call fails. The provider error is returned.
func (s *Synchronizer) SignOut(ctx context.Context) error {
	err := s.auth.SignOut(ctx)

	ack := make(chan struct{})
	if s.post(func() {
		s.authGen++
		s.seq++
		s.set(State{})
		close(ack)
	}) {
		select {
		case <-ack:
		case <-s.done:
		}
	}
	return err
}

// RefreshShop re-runs the shop lookup for the current user and waits until its
// result has been applied or superseded.
func (s *Synchronizer) RefreshShop(ctx context.Context) error {
	ack := make(chan error, 1)
	if !s.post(func() {
		if s.state.User == nil {
			ack <- nil
			return
		}
		id := s.lookup(s.state.User.AccountID)
		s.waiters[id] = append(s.waiters[id], ack)
	}) {
		return ErrStopped
	}

	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
}

func (s *Synchronizer) post(fn func()) bool {
	select {
	case s.cmds <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Synchronizer) run() {
	defer s.wg.Done()
	defer func() {
		for id, p := range s.subs {
			close(p.in)
			delete(s.subs, id)
		}
	}()
	for {
		select {
		case fn := <-s.cmds:
			fn()
		case <-s.done:
			return
		}
	}
}

func (s *Synchronizer) onSession(sess *domain.AuthSession) {
	s.authGen++
	s.applySession(sess)
}

func (s *Synchronizer) applySession(sess *domain.AuthSession) {
	next := s.state
	next.Session = sess
	if sess == nil || sess.User == nil {
		s.seq++
		s.set(State{Session: sess})
		return
	}

	// Token refreshes and repeated sign-ins for the same user keep the shop.
	changed := next.User == nil || next.User.AccountID != sess.User.AccountID
	if changed {
		next.Shop = nil
		next.Loading = true
	}
	next.User = sess.User
	s.set(next)
	if changed {
		s.lookup(sess.User.AccountID)
	}
}

func (s *Synchronizer) fetchInitial() {
	gen := s.authGen
	go func() {
		sess, err := s.auth.GetSession(s.ctx)
		if err != nil {
			slog.Warn("initial session fetch failed", "err", err)
		}
		s.post(func() {
			if gen != s.authGen {
				return
			}
			s.applySession(sess)
		})
	}()
}

// lookup starts a shop lookup for userID and returns its sequence number.
func (s *Synchronizer) lookup(userID string) uint64 {
	s.seq++
	id := s.seq
	go func() {
		shop, err := s.shops.LookupShop(s.ctx, userID)
		s.post(func() { s.applyShop(id, userID, shop, err) })
	}()
	return id
}

func (s *Synchronizer) applyShop(id uint64, userID string, shop *domain.Shop, err error) {
	waiters := s.waiters[id]
	delete(s.waiters, id)
	defer func() {
		for _, w := range waiters {
			w <- err
		}
	}()

	if id != s.seq || s.state.User == nil || s.state.User.AccountID != userID {
		err = nil
		return
	}

	next := s.state
	next.Loading = false
	if err != nil {
		slog.Warn("shop lookup failed", "user_id", userID, "err", err)
	} else {
		next.Shop = shop
	}
	s.set(next)
}

func (s *Synchronizer) set(st State) {
	s.state = st
	cp := st
	s.snapshot.Store(&cp)
	for _, p := range s.subs {
		p.in <- st
	}
}

// pump buffers states for one subscriber so the owner never waits on a slow
// reader.
type pump struct {
	in  chan State
	out chan State
}

func newPump(out chan State) *pump {
	p := &pump{in: make(chan State), out: out}
	go p.run()
	return p
}

func (p *pump) run() {
	defer close(p.out)
	var queue []State
	for {
		var out chan State
		var next State
		if len(queue) > 0 {
			out = p.out
			next = queue[0]
		}
		select {
		case st, ok := <-p.in:
			if !ok {
				return
			}
			queue = append(queue, st)
		case out <- next:
			queue = queue[1:]
		}
	}
}
