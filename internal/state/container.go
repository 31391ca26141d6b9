package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/idilsaglam/tada/internal/gateway"
	"github.com/idilsaglam/tada/internal/model"
)

// Container is the single mutation point for State. Views read snapshots
// through selectors and change state only by dispatching actions.
type Container struct {
	gw  gateway.Gateway
	log *slog.Logger

	mu       sync.Mutex
	state    State
	version  uint64
	watchers map[int]notifier
	nextID   int

	// delivery hands out turns in version order; delivered is the last
	// version whose callbacks have all run.
	delivery  sync.Mutex
	turn      *sync.Cond
	delivered uint64
}

type notifier interface {
	notify(s State, version uint64)
}

// New returns an empty container backed by gw.
func New(gw gateway.Gateway, log *slog.Logger) *Container {
	if log == nil {
		log = slog.Default()
	}
	c := &Container{
		gw:       gw,
		log:      log.With("component", "state"),
		state:    State{Items: []model.Item{}},
		watchers: map[int]notifier{},
	}
	c.turn = sync.NewCond(&c.delivery)
	return c
}

// Snapshot returns a copy of the current state.
func (c *Container) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Dispatch applies a. Gateway-backed actions block until the gateway
// resolves; the visible state changes only afterwards. A gateway failure
// is recorded as the Failure slice and returned.
func (c *Container) Dispatch(ctx context.Context, a Action) error {
	switch {
	case a.Kind == KindSelect:
		c.commit(func(s State) State { return Reduce(s, a, Outcome{}) })
		return nil
	case !a.Kind.remote():
		return fmt.Errorf("dispatch: unknown action %v", a.Kind)
	}

	if a.Kind == KindCreate || a.Kind == KindUpdate {
		if err := a.Draft.Validate(); err != nil {
			return fmt.Errorf("%s: %w", a.Kind, err)
		}
	}

	if err := c.begin(a); err != nil {
		return err
	}
	c.log.Debug("dispatch", "action", a.Kind.String(), "id", a.ID)

	o, err := c.call(ctx, a)
	if err != nil {
		c.log.Warn("action failed", "action", a.Kind.String(), "id", a.ID, "error", err)
		c.commit(func(s State) State {
			s.Pending = KindNone
			s.Failure = &Failure{Kind: a.Kind, Err: err}
			return s
		})
		return err
	}
	c.commit(func(s State) State {
		s = Reduce(s, a, o)
		s.Pending = KindNone
		return s
	})
	return nil
}

// begin marks a as in flight, or refuses it.
func (c *Container) begin(a Action) error {
	c.mu.Lock()
	if c.state.Pending != KindNone {
		pending := c.state.Pending
		c.mu.Unlock()
		return fmt.Errorf("%s: %w (%s)", a.Kind, ErrBusy, pending)
	}
	if a.Kind == KindUpdate && model.IndexOf(c.state.Items, a.ID) < 0 {
		err := fmt.Errorf("update %d: %w", a.ID, ErrNotFound)
		next := c.state
		next.Failure = &Failure{Kind: a.Kind, Err: err}
		c.publishLocked(next)
		return err
	}
	next := c.state
	next.Pending = a.Kind
	next.Failure = nil
	c.publishLocked(next)
	return nil
}

func (c *Container) call(ctx context.Context, a Action) (Outcome, error) {
	switch a.Kind {
	case KindFetchAll:
		items, err := c.gw.FetchAll(ctx)
		return Outcome{Items: items}, err
	case KindCreate:
		it, err := c.gw.Create(ctx, a.Draft)
		return Outcome{Item: it}, err
	case KindUpdate:
		it, err := c.gw.Update(ctx, a.Draft, a.ID)
		return Outcome{Item: it}, err
	case KindDelete:
		return Outcome{}, c.gw.Delete(ctx, a.ID)
	}
	return Outcome{}, fmt.Errorf("dispatch: unknown action %v", a.Kind)
}

func (c *Container) commit(f func(State) State) {
	c.mu.Lock()
	c.publishLocked(f(c.state))
}

// publishLocked stores next, releases the lock and notifies watchers.
// Notifications run one version at a time in the order the versions were
// published, so a watcher never sees an older value after a newer one.
func (c *Container) publishLocked(next State) {
	c.state = next
	c.version++
	version := c.version
	snap := next.clone()
	ws := make([]notifier, 0, len(c.watchers))
	for _, w := range c.watchers {
		ws = append(ws, w)
	}
	c.mu.Unlock()

	c.delivery.Lock()
	for c.delivered != version-1 {
		c.turn.Wait()
	}
	for _, w := range ws {
		w.notify(snap, version)
	}
	c.delivered = version
	c.turn.Broadcast()
	c.delivery.Unlock()
}

// ------- subscriptions -------

var equalOpts = []cmp.Option{
	cmpopts.EquateEmpty(),
	cmp.Comparer(func(a, b Failure) bool { return a.Kind == b.Kind && a.Err == b.Err }),
}

type watcher[T any] struct {
	sel func(State) T
	fn  func(T)

	mu       sync.Mutex
	last     T
	seen     uint64
	fired    bool
	canceled bool
}

func (w *watcher[T]) notify(s State, version uint64) {
	w.mu.Lock()
	if w.canceled || version <= w.seen {
		w.mu.Unlock()
		return
	}
	w.seen = version
	v := w.sel(s)
	if cmp.Equal(w.last, v, equalOpts...) {
		w.mu.Unlock()
		return
	}
	w.last = v
	w.fired = true
	w.mu.Unlock()
	w.fn(v)
}

// Watch calls fn with the current projection of sel, then again each time
// the projection changes. The returned cancel releases the subscription;
// changes published after cancel returns are not delivered.
//
// Callbacks run in publish order on the dispatching goroutine. They may read
// Snapshot but must not Dispatch or Watch on the same container.
func Watch[T any](c *Container, sel func(State) T, fn func(T)) (cancel func()) {
	w := &watcher[T]{sel: sel, fn: fn}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = w
	snap := c.state.clone()
	version := c.version
	w.mu.Lock()
	w.seen = version
	w.last = sel(snap)
	initial := w.last
	w.mu.Unlock()
	c.mu.Unlock()

	// Take the turn after every version up to ours; a newer version that got
	// there first has already delivered something fresher than initial.
	c.delivery.Lock()
	for c.delivered < version {
		c.turn.Wait()
	}
	w.mu.Lock()
	stale := w.fired
	w.mu.Unlock()
	if !stale {
		fn(initial)
	}
	c.delivery.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
		w.mu.Lock()
		w.canceled = true
		w.mu.Unlock()
	}
}
