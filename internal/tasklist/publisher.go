package tasklist

import (
	"sync"

	"github.com/dukaforge/cadence/pkg/types"
)

// Publisher is a replace-on-publish subscription registry. Each publish
// hands every subscriber the complete new list; there is no diffing and no
// buffering of missed publications.
type Publisher struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]func([]types.TaskListItem)
	current     []types.TaskListItem
}

// NewPublisher returns an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{subscribers: make(map[int]func([]types.TaskListItem))}
}

// Subscribe registers fn and returns its removal function. A new subscriber
// does not receive the current list retroactively; it sees the next publish.
func (p *Publisher) Subscribe(fn func([]types.TaskListItem)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subscribers[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

// Publish replaces the current list and notifies every subscriber.
func (p *Publisher) Publish(items []types.TaskListItem) {
	p.mu.Lock()
	p.current = items
	fns := make([]func([]types.TaskListItem), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(items)
	}
}

// Current returns the most recently published list.
func (p *Publisher) Current() []types.TaskListItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}
