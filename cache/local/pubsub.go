package local

import (
	"context"
	"sync"
)

const defaultPubSubBuf = 256

// LocalMessage is an in-process pub/sub message.
type LocalMessage struct {
	Channel string
	Payload string
}

type subscription struct {
	out chan *LocalMessage
}

// LocalPubSub fans published messages out to in-process subscribers. It
// backs the world event feed when no Redis is configured.
type LocalPubSub struct {
	mu      sync.RWMutex
	subs    map[string][]*subscription
	bufSize int
}

// NewPubSub creates a LocalPubSub. bufSize is the per-subscriber buffer; a
// subscriber that falls that far behind starts losing messages.
func NewPubSub(bufSize int) *LocalPubSub {
	if bufSize <= 0 {
		bufSize = defaultPubSubBuf
	}
	return &LocalPubSub{
		subs:    make(map[string][]*subscription),
		bufSize: bufSize,
	}
}

// Publish delivers message to every current subscriber of channel. Delivery
// is non-blocking; full subscriber buffers drop the message.
func (ps *LocalPubSub) Publish(_ context.Context, channel, message string) error {
	msg := &LocalMessage{Channel: channel, Payload: message}

	ps.mu.RLock()
	targets := ps.subs[channel]
	ps.mu.RUnlock()

	for _, s := range targets {
		select {
		case s.out <- msg:
		default:
		}
	}
	return nil
}

// Subscribe registers for the given channels. The returned cancel removes
// the registrations and closes the message channel.
func (ps *LocalPubSub) Subscribe(_ context.Context, channels ...string) (<-chan *LocalMessage, func(), error) {
	out := make(chan *LocalMessage, ps.bufSize)
	added := make([]*subscription, len(channels))

	ps.mu.Lock()
	for i, name := range channels {
		s := &subscription{out: out}
		ps.subs[name] = append(ps.subs[name], s)
		added[i] = s
	}
	ps.mu.Unlock()

	cancel := func() {
		ps.mu.Lock()
		defer ps.mu.Unlock()
		for i, name := range channels {
			list := ps.subs[name]
			for j, s := range list {
				if s == added[i] {
					ps.subs[name] = append(list[:j], list[j+1:]...)
					break
				}
			}
		}
		close(out)
	}
	return out, cancel, nil
}
