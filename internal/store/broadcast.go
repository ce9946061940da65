package store

import (
	"context"
	"sync"
)

// Broadcaster fans change notifications out to any number of watchers.
// Implementations embed one and call Notify after each confirmed write.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

// Watch implements Watcher. The channel is buffered; a watcher that falls
// behind loses intermediate notifications, which is safe because every
// recomputation reads a full snapshot.
func (b *Broadcaster) Watch(ctx context.Context) <-chan Change {
	ch := make(chan Change, 16)

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[int]chan Change)
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Notify delivers c to every live watcher without blocking the writer.
func (b *Broadcaster) Notify(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
}
