package engine

import (
	"sync"

	"go.uber.org/zap"
)

// Observer receives every generation the engine emits. Calls happen on a
// goroutine owned by the subscription, in generation order.
type Observer interface {
	OnGeneration(Generation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Generation)

func (f ObserverFunc) OnGeneration(g Generation) { f(g) }

type subscriber struct {
	ch   chan Generation
	done chan struct{}
}

// Subscribe registers o and returns a function that unsubscribes it and
// waits for queued generations to be delivered. Advance never blocks on
// observers: when a subscriber's queue is full the generation is dropped
// for that subscriber and counted in Dropped.
func (e *Engine) Subscribe(o Observer) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return func() {}
	}

	id := e.nextSub
	e.nextSub++
	s := &subscriber{
		ch:   make(chan Generation, e.cfg.ObserverBuffer),
		done: make(chan struct{}),
	}
	e.subscribers[id] = s

	go func() {
		defer close(s.done)
		for g := range s.ch {
			o.OnGeneration(g)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			if _, ok := e.subscribers[id]; ok {
				delete(e.subscribers, id)
				close(s.ch)
			}
			e.mu.Unlock()
			<-s.done
		})
	}
}

func (e *Engine) publish(g Generation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.subscribers {
		select {
		case s.ch <- g:
		default:
			e.dropped.Add(1)
			e.logger.Debug("observer queue full, generation dropped", zap.Int("generation", g.Index))
		}
	}
}

// Dropped returns how many deliveries were skipped because a queue was full.
func (e *Engine) Dropped() int64 { return e.dropped.Load() }

// Close stops all observers after they drain their queues. The engine must
// not be advanced afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	subs := make([]*subscriber, 0, len(e.subscribers))
	for id, s := range e.subscribers {
		close(s.ch)
		subs = append(subs, s)
		delete(e.subscribers, id)
	}
	e.mu.Unlock()

	for _, s := range subs {
		<-s.done
	}
	return nil
}

// LogObserver logs a summary line every `every` generations.
func LogObserver(logger *zap.Logger, every int) Observer {
	if every < 1 {
		every = 1
	}
	return ObserverFunc(func(g Generation) {
		if g.Index%every != 0 {
			return
		}
		logger.Info("generation",
			zap.Int("index", g.Index),
			zap.Float64("best", g.Stats.Best),
			zap.Float64("mean", g.Stats.Mean),
			zap.Float64("stddev", g.Stats.StdDev),
			zap.Int("distinct", g.Stats.Distinct),
			zap.Int("pool_size", g.PoolSize),
			zap.Stringer("elite", g.Elite))
	})
}
