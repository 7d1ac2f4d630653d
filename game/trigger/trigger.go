// Package trigger resolves trigger keys to script sources and dispatches
// game events to the scripts attached to an entity.
package trigger

import (
	"time"

	"go.uber.org/zap"

	"github.com/driftmud/driftmud/game/bind"
	"github.com/driftmud/driftmud/game/script"
)

// Common trigger type names. World content may dispatch others; the set is
// a convention, not a closed enum.
const (
	TypeSpeech = "speech"
	TypeEnter  = "enter"
	TypeExit   = "exit"
	TypeGet    = "get"
	TypeDrop   = "drop"
	TypeWear   = "wear"
	TypeRemove = "remove"
	TypeOpen   = "open"
	TypeClose  = "close"
	TypeInit   = "init"
	TypeHeart  = "heartbeat"
)

// Source is one trigger script: a key it is attached by, the event type it
// listens for, a human name and the script source.
type Source struct {
	Key  string
	Type string
	Name string
	Code string
}

// Recorder receives the outcome of every script invocation the dispatcher
// makes. The audit service implements it.
type Recorder interface {
	RecordScript(key, trigType string, ownerUID uint64, duration time.Duration, err error)
}

// Registry maps trigger keys to sources and dispatches events.
type Registry struct {
	sources  map[string]*Source
	binder   *bind.Binder
	runner   *script.Runner
	recorder Recorder
	logger   *zap.Logger
}

// NewRegistry creates an empty trigger registry.
func NewRegistry(binder *bind.Binder, runner *script.Runner, logger *zap.Logger) *Registry {
	return &Registry{
		sources: make(map[string]*Source),
		binder:  binder,
		runner:  runner,
		logger:  logger,
	}
}

// SetRecorder installs the invocation recorder. Nil disables recording.
func (r *Registry) SetRecorder(rec Recorder) { r.recorder = rec }

// Register adds or replaces a trigger source under its key.
func (r *Registry) Register(src Source) {
	cp := src
	r.sources[src.Key] = &cp
}

// Unregister removes a trigger source. Entities may still carry the key;
// dispatch skips keys that no longer resolve.
func (r *Registry) Unregister(key string) bool {
	if _, ok := r.sources[key]; !ok {
		return false
	}
	delete(r.sources, key)
	return true
}

// Resolve returns the source for a key.
func (r *Registry) Resolve(key string) (Source, bool) {
	src, ok := r.sources[key]
	if !ok {
		return Source{}, false
	}
	return *src, true
}

// Keys returns all registered trigger keys in unspecified order.
func (r *Registry) Keys() []string {
	out := make([]string, 0, len(r.sources))
	for k := range r.sources {
		out = append(out, k)
	}
	return out
}

// triggerCarrier is satisfied by every entity kind through the shared base.
type triggerCarrier interface {
	Triggers() []string
}

// Dispatch runs every trigger of the given type attached to the owner, in
// attachment order, binding "me" to the owner plus every context key. One
// script failing never stops the rest; failures are logged and recorded
// but never propagate to the caller.
func (r *Registry) Dispatch(trigType string, owner bind.Handle, ctx map[string]any) {
	e, ok := r.binder.Registry().Resolve(owner.UID)
	if !ok {
		return
	}
	carrier, ok := e.(triggerCarrier)
	if !ok {
		return
	}
	for _, key := range carrier.Triggers() {
		src, found := r.sources[key]
		if !found {
			r.logger.Warn("attached trigger key has no source",
				zap.String("key", key),
				zap.String("owner", owner.String()))
			continue
		}
		if src.Type != trigType {
			continue
		}
		bindings := make(map[string]any, len(ctx)+1)
		for k, v := range ctx {
			bindings[k] = v
		}
		bindings["me"] = r.binder.Ref(owner)

		start := time.Now()
		err := r.runner.Run(src.Code, src.Key, bindings)
		if err != nil {
			r.logger.Warn("trigger script failed",
				zap.String("key", src.Key),
				zap.String("type", trigType),
				zap.String("owner", owner.String()),
				zap.Error(err))
		}
		if r.recorder != nil {
			r.recorder.RecordScript(src.Key, trigType, owner.UID, time.Since(start), err)
		}
	}
}
