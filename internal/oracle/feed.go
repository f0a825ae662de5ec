package oracle

import (
	"context"
	"sync"
	"time"

	"trustbind/pkg/domain"
)

// EventKind discriminates credential lifecycle events.
type EventKind string

const (
	// EventClaimed is emitted when a credential is claimed or renewed.
	EventClaimed EventKind = "claimed"
	// EventRevoked is emitted when a credential is revoked.
	EventRevoked EventKind = "revoked"
)

// Event is one credential lifecycle notification from the oracle.
type Event struct {
	Kind         EventKind
	CredentialID domain.CredentialID
	EmittedAt    time.Time
}

// Feed is a live subscription to oracle lifecycle events. The returned channel
// is closed when the subscription ends, either because ctx was cancelled or
// because the transport was lost; callers resubscribe by calling Events again.
type Feed interface {
	Events(ctx context.Context) (<-chan Event, error)
}

// ChannelFeed is an in-process Feed for development mode and tests.
type ChannelFeed struct {
	mu   sync.Mutex
	subs []chan Event
}

func NewChannelFeed() *ChannelFeed {
	return &ChannelFeed{}
}

func (f *ChannelFeed) Events(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 16)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		for i, sub := range f.subs {
			if sub == ch {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				close(ch)
				break
			}
		}
		f.mu.Unlock()
	}()
	return ch, nil
}

// Subscribers reports the live subscription count. Tests use it to wait for a
// consumer before publishing.
func (f *ChannelFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Publish fans the event out to all live subscribers.
func (f *ChannelFeed) Publish(ev Event) {
	if ev.EmittedAt.IsZero() {
		ev.EmittedAt = time.Now()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		sub <- ev
	}
}
