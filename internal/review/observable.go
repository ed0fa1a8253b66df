package review

import (
	"slices"
	"sync"
)

// Watchable is the read side of an Observable.
//
// Subscribers run synchronously on a publishing goroutine, one value at a
// time and in publish order. A subscriber may call back into the API that
// owns the state: values published from inside a callback are queued and
// delivered once the current delivery returns.
type Watchable[T any] interface {
	// Current returns the latest value; ok is false until the first publish.
	Current() (T, bool)
	// Subscribe registers fn for every later publish and returns an unsubscribe func.
	Subscribe(fn func(T)) (unsubscribe func())
}

// Observable holds the most recent value and notifies subscribers on change.
// At most one goroutine delivers at a time. A Publish that arrives while a
// delivery is running stores the value, queues it for that deliverer and
// returns without waiting.
type Observable[T any] struct {
	mu         sync.RWMutex
	value      T
	set        bool
	nextID     int
	subs       map[int]func(T)
	pending    []T
	delivering bool
}

var _ Watchable[int] = (*Observable[int])(nil)

// NewObservable returns an Observable with no value yet.
func NewObservable[T any]() *Observable[T] {
	return &Observable[T]{subs: make(map[int]func(T))}
}

// NewObservableWith returns an Observable already holding v.
func NewObservableWith[T any](v T) *Observable[T] {
	o := NewObservable[T]()
	o.value = v
	o.set = true
	return o
}

func (o *Observable[T]) Current() (T, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value, o.set
}

func (o *Observable[T]) Subscribe(fn func(T)) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

// Publish stores v and delivers it to every subscriber. When no delivery is
// running it returns after v and everything queued behind it was delivered.
func (o *Observable[T]) Publish(v T) {
	o.mu.Lock()
	o.value = v
	o.set = true
	o.pending = append(o.pending, v)
	if o.delivering {
		o.mu.Unlock()
		return
	}
	o.delivering = true
	o.mu.Unlock()

	o.drain()
}

// drain delivers queued values until none are left. A panicking subscriber
// drops the rest of the queue and releases delivery.
func (o *Observable[T]) drain() {
	finished := false
	defer func() {
		if !finished {
			o.mu.Lock()
			o.pending = nil
			o.delivering = false
			o.mu.Unlock()
		}
	}()

	for {
		o.mu.Lock()
		if len(o.pending) == 0 {
			o.delivering = false
			o.mu.Unlock()
			finished = true
			return
		}
		next := o.pending[0]
		var zero T
		o.pending[0] = zero
		o.pending = o.pending[1:]
		fns := o.subscribersLocked()
		o.mu.Unlock()

		for _, fn := range fns {
			fn(next)
		}
	}
}

func (o *Observable[T]) subscribersLocked() []func(T) {
	ids := make([]int, 0, len(o.subs))
	for id := range o.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, o.subs[id])
	}
	return fns
}
