package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hostel_booking/internal/domain"
)

type FetchStatus string

const (
	StatusIdle    FetchStatus = "idle"
	StatusLoading FetchStatus = "loading"
	StatusSuccess FetchStatus = "success"
	StatusError   FetchStatus = "error"
)

type ErrorKind string

const (
	KindTransport    ErrorKind = "transport"
	KindTimeout      ErrorKind = "timeout"
	KindNotFound     ErrorKind = "not-found"
	KindUnauthorized ErrorKind = "unauthorized"
)

type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// FetchState is a value snapshot of a Resource.
type FetchState[T any] struct {
	Status              FetchStatus `json:"status"`
	Data                T           `json:"data"`
	HasData             bool        `json:"hasData"`
	Error               *ErrorInfo  `json:"error"`
	Generation          uint64      `json:"generation"`
	CommittedGeneration uint64      `json:"committedGeneration"`
	Refreshing          bool        `json:"refreshing"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

// Stale reports whether the state shows kept data next to a failed fetch.
func (s FetchState[T]) Stale() bool { return s.Status == StatusError && s.HasData }

type Fetcher[T any] func(ctx context.Context) (T, error)

type Trigger int

const (
	TriggerRefetch Trigger = iota
	TriggerRefresh
)

// Fetch outcomes passed to FetchObserver.
const (
	OutcomeSuccess    = "success"
	OutcomeError      = "error"
	OutcomeTimeout    = "timeout"
	OutcomeSuperseded = "superseded"
)

type FetchObserver func(resource, outcome string)

type ResourceConfig struct {
	Timeout time.Duration // per fetch; 0 means 20s
	IdleTTL time.Duration // Registry entries unused this long are dropped; 0 means 30m
	Observe FetchObserver
	Now     func() time.Time
}

const (
	defaultFetchTimeout = 20 * time.Second
	defaultIdleTTL      = 30 * time.Minute
)

var errFetchTimeout = errors.New("fetch timed out")

type generationKey struct{}

// GenerationFrom returns the generation a fetch was dispatched for, 0 outside a fetch.
func GenerationFrom(ctx context.Context) uint64 {
	g, _ := ctx.Value(generationKey{}).(uint64)
	return g
}

// Resource owns the load/refresh/retry lifecycle of one remote value.
// Every dispatch gets a new generation; only the result of the latest
// generation is committed, older ones are dropped. In-flight work is never
// cancelled by a newer trigger.
type Resource[T any] struct {
	name    string
	fetch   Fetcher[T]
	timeout time.Duration
	observe FetchObserver
	now     func() time.Time

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	state      FetchState[T]
	refreshGen uint64 // in-flight refresh, 0 when none
	subs       map[int]chan FetchState[T]
	nextSub    int
	closed     bool
}

func NewResource[T any](name string, fetch Fetcher[T], cfg ResourceConfig) *Resource[T] {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Observe == nil {
		cfg.Observe = func(string, string) {}
	}
	base, cancel := context.WithCancel(context.Background())
	return &Resource[T]{
		name:    name,
		fetch:   fetch,
		timeout: cfg.Timeout,
		observe: cfg.Observe,
		now:     cfg.Now,
		base:    base,
		cancel:  cancel,
		state:   FetchState[T]{Status: StatusIdle},
		subs:    map[int]chan FetchState[T]{},
	}
}

func (r *Resource[T]) Name() string { return r.name }

func (r *Resource[T]) State() FetchState[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Ensure starts the first load of an idle resource and is a no-op otherwise.
func (r *Resource[T]) Ensure() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Status == StatusIdle {
		return r.dispatchLocked()
	}
	return r.state.Generation
}

// Refetch always issues a new generation, superseding anything in flight.
func (r *Resource[T]) Refetch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshGen = 0
	return r.dispatchLocked()
}

// Refresh is pull-to-refresh. While a refresh is still the latest in-flight
// generation, further calls join it instead of dispatching.
func (r *Resource[T]) Refresh() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refreshGen != 0 && r.refreshGen == r.state.Generation {
		return r.refreshGen
	}
	r.state.Refreshing = true
	r.refreshGen = r.dispatchLocked()
	return r.refreshGen
}

// Watch turns trigger messages into Refetch/Refresh calls until ctx is done
// or the channel is closed.
func (r *Resource[T]) Watch(ctx context.Context, triggers <-chan Trigger) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-triggers:
			if !ok {
				return
			}
			switch t {
			case TriggerRefresh:
				r.Refresh()
			default:
				r.Refetch()
			}
		}
	}
}

// Subscribe delivers state snapshots, starting with the current one. A slow
// reader only ever sees the latest snapshot; the controller never blocks on it.
func (r *Resource[T]) Subscribe() (<-chan FetchState[T], func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan FetchState[T], 1)
	if r.closed {
		close(ch)
		return ch, func() {}
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	ch <- r.snapshot()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if c, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(c)
			}
		})
	}
}

// Drain blocks until every dispatched fetch, superseded ones included, has settled.
func (r *Resource[T]) Drain() { r.wg.Wait() }

// Close aborts in-flight fetches and closes subscriber channels.
func (r *Resource[T]) Close() {
	r.cancel()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

func (r *Resource[T]) dispatchLocked() uint64 {
	r.state.Generation++
	gen := r.state.Generation
	r.state.Status = StatusLoading
	r.notifyLocked()

	r.wg.Add(1)
	go r.run(gen)
	return gen
}

func (r *Resource[T]) run(gen uint64) {
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(context.WithValue(r.base, generationKey{}, gen), r.timeout)
	defer cancel()

	type result struct {
		data T
		err  error
	}
	done := make(chan result, 1)
	go func() {
		var res result
		defer func() {
			if p := recover(); p != nil {
				res.err = fmt.Errorf("fetch panicked: %v", p)
			}
			done <- res
		}()
		res.data, res.err = r.fetch(ctx)
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res.err = errFetchTimeout
		}
		r.settle(gen, res.data, res.err)
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = errFetchTimeout
		}
		var zero T
		r.settle(gen, zero, err)
	}
}

func (r *Resource[T]) settle(gen uint64, data T, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.state.Generation {
		r.observe(r.name, OutcomeSuperseded)
		return
	}

	r.state.CommittedGeneration = gen
	r.state.Refreshing = false
	r.refreshGen = 0

	if err != nil {
		info := classify(err)
		r.state.Status = StatusError
		r.state.Error = &info
		outcome := OutcomeError
		if info.Kind == KindTimeout {
			outcome = OutcomeTimeout
		}
		r.observe(r.name, outcome)
		log.Warn().Str("resource", r.name).Uint64("generation", gen).
			Str("kind", string(info.Kind)).Bool("stale_data", r.state.HasData).Err(err).Msg("fetch failed")
	} else {
		r.state.Status = StatusSuccess
		r.state.Data = data
		r.state.HasData = true
		r.state.Error = nil
		r.state.UpdatedAt = r.now()
		r.observe(r.name, OutcomeSuccess)
	}
	r.notifyLocked()
}

func (r *Resource[T]) snapshot() FetchState[T] {
	s := r.state
	if s.Error != nil {
		e := *s.Error
		s.Error = &e
	}
	return s
}

func (r *Resource[T]) notifyLocked() {
	if len(r.subs) == 0 {
		return
	}
	snap := r.snapshot()
	for _, ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Await waits until generation gen (or a later one) has been committed and
// returns that state.
func (r *Resource[T]) Await(ctx context.Context, gen uint64) (FetchState[T], error) {
	ch, stop := r.Subscribe()
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return r.State(), ctx.Err()
		case s, ok := <-ch:
			if !ok {
				return r.State(), context.Canceled
			}
			if s.CommittedGeneration >= gen {
				return s, nil
			}
		}
	}
}

// FetchError carries a committed ErrorInfo back into the error world.
type FetchError struct {
	Info ErrorInfo
}

func (e *FetchError) Error() string { return string(e.Info.Kind) + ": " + e.Info.Message }

func (e *FetchError) Unwrap() error {
	switch e.Info.Kind {
	case KindNotFound:
		return domain.ErrNotFound
	case KindUnauthorized:
		return domain.ErrUnauthorized
	}
	return nil
}

func classify(err error) ErrorInfo {
	switch {
	case errors.Is(err, errFetchTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorInfo{Kind: KindTimeout, Message: errFetchTimeout.Error()}
	case domain.IsNotFound(err):
		return ErrorInfo{Kind: KindNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		return ErrorInfo{Kind: KindUnauthorized, Message: err.Error()}
	}
	return ErrorInfo{Kind: KindTransport, Message: err.Error()}
}

// Registry lazily keeps one Resource per key (a hostel id, a user id).
// Entries not asked for within IdleTTL are closed and dropped.
type Registry[T any] struct {
	name string
	load func(key string) Fetcher[T]
	cfg  ResourceConfig
	idle time.Duration
	now  func() time.Time

	mu        sync.Mutex
	items     map[string]*registryEntry[T]
	lastSweep time.Time
}

type registryEntry[T any] struct {
	res  *Resource[T]
	used time.Time
}

func NewRegistry[T any](name string, load func(key string) Fetcher[T], cfg ResourceConfig) *Registry[T] {
	g := &Registry[T]{name: name, load: load, cfg: cfg, idle: cfg.IdleTTL, now: cfg.Now, items: map[string]*registryEntry[T]{}}
	if g.idle <= 0 {
		g.idle = defaultIdleTTL
	}
	if g.now == nil {
		g.now = time.Now
	}
	g.lastSweep = g.now()
	return g
}

func (g *Registry[T]) Get(key string) *Resource[T] {
	now := g.now()
	g.mu.Lock()
	evicted := g.sweepLocked(now)
	e, ok := g.items[key]
	if !ok {
		e = &registryEntry[T]{res: NewResource(g.name, g.load(key), g.cfg)}
		g.items[key] = e
	}
	e.used = now
	g.mu.Unlock()

	for _, r := range evicted {
		r.Close()
	}
	return e.res
}

// sweepLocked removes idle entries at most once per idle period. Entries with
// a fetch still in flight are kept.
func (g *Registry[T]) sweepLocked(now time.Time) []*Resource[T] {
	if now.Sub(g.lastSweep) < g.idle {
		return nil
	}
	g.lastSweep = now
	var out []*Resource[T]
	for key, e := range g.items {
		if now.Sub(e.used) < g.idle || e.res.State().Status == StatusLoading {
			continue
		}
		delete(g.items, key)
		out = append(out, e.res)
	}
	if len(out) > 0 {
		log.Debug().Str("resource", g.name).Int("evicted", len(out)).Int("kept", len(g.items)).Msg("registry sweep")
	}
	return out
}

// Forget drops the resource for key; in-flight fetches still settle into it.
func (g *Registry[T]) Forget(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.items, key)
}

func (g *Registry[T]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}

func (g *Registry[T]) Close() {
	g.mu.Lock()
	items := make([]*Resource[T], 0, len(g.items))
	for _, e := range g.items {
		items = append(items, e.res)
	}
	g.mu.Unlock()
	for _, r := range items {
		r.Close()
		r.Drain()
	}
}
