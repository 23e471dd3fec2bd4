package docstore

import (
	"context"
	"sync"
)

// Subscription is a live view over one query. Every committed write to the
// subscribed collection re-delivers the full current result set on
// Updates. Delivery is latest-wins: a slow consumer only ever misses
// intermediate snapshots, never the newest one. Subscriptions are advisory
// only; writes always re-read authoritative state.
type Subscription struct {
	collection string
	query      Query
	updates    chan []Document
	cancelOnce sync.Once
	unregister func(*Subscription)
}

// Updates returns the snapshot channel. It is closed by Cancel.
func (s *Subscription) Updates() <-chan []Document {
	return s.updates
}

// Cancel tears the subscription down and closes the snapshot channel.
// Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(func() {
		s.unregister(s)
	})
}

// push replaces any undelivered snapshot with the newest one without ever
// blocking the writer.
func (s *Subscription) push(docs []Document) {
	select {
	case s.updates <- docs:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- docs:
		default:
		}
	}
}

// queryFunc re-runs a subscription's query against its store.
type queryFunc func(ctx context.Context, collection string, q Query) ([]Document, error)

// notifier owns the subscription registry shared by both store
// implementations.
type notifier struct {
	mu    sync.Mutex
	subs  map[*Subscription]struct{}
	query queryFunc
}

func newNotifier(query queryFunc) *notifier {
	return &notifier{
		subs:  make(map[*Subscription]struct{}),
		query: query,
	}
}

// subscribe registers a new subscription and delivers the initial
// snapshot before returning.
func (n *notifier) subscribe(ctx context.Context, collection string, q Query) (*Subscription, error) {
	initial, err := n.query(ctx, collection, q)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		collection: collection,
		query:      q,
		updates:    make(chan []Document, 1),
		unregister: n.remove,
	}
	sub.push(initial)

	n.mu.Lock()
	n.subs[sub] = struct{}{}
	n.mu.Unlock()

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			sub.Cancel()
		}()
	}

	return sub, nil
}

func (n *notifier) remove(sub *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.subs[sub]; ok {
		delete(n.subs, sub)
		close(sub.updates)
	}
}

// notify re-runs and re-delivers every subscription watching one of the
// touched collections. Called after a commit, outside any store lock.
func (n *notifier) notify(ctx context.Context, collections map[string]struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for sub := range n.subs {
		if _, touched := collections[sub.collection]; !touched {
			continue
		}
		docs, err := n.query(ctx, sub.collection, sub.query)
		if err != nil {
			continue
		}
		sub.push(docs)
	}
}

// closeAll cancels every remaining subscription. Called on store shutdown.
func (n *notifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for sub := range n.subs {
		delete(n.subs, sub)
		close(sub.updates)
	}
}
