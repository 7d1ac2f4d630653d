package world

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// EventChannel is the pub/sub channel world events are published on.
const EventChannel = "world:events"

// Publisher is the slice of a pub/sub bus the engine publishes on.
type Publisher interface {
	Publish(ctx context.Context, channel, message string) error
}

// Event is one externally observable world happening, serialized as JSON on
// EventChannel. Zero fields are omitted.
type Event struct {
	Type  string    `json:"type"`
	Actor uint64    `json:"actor,omitempty"`
	Room  uint64    `json:"room,omitempty"`
	Dir   string    `json:"dir,omitempty"`
	Text  string    `json:"text,omitempty"`
	At    time.Time `json:"at"`
}

// SetEvents attaches a pub/sub bus. Movement, speech, and extraction then
// publish an Event each. Call before Run.
func (e *Engine) SetEvents(ps Publisher) { e.events = ps }

func (e *Engine) publish(ev Event) {
	if e.events == nil {
		return
	}
	ev.At = time.Now()
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := e.events.Publish(context.Background(), EventChannel, string(payload)); err != nil {
		e.logger.Debug("event publish failed",
			zap.String("type", ev.Type), zap.Error(err))
	}
}
