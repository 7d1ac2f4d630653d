package world

import (
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/driftmud/driftmud/game/bind"
	"github.com/driftmud/driftmud/game/entity"
)

// mudModule builds the host "mud" module for one runtime. Scripts reach it
// through require("mud"); a fresh object is built per invocation so nothing
// leaks between namespaces.
func (e *Engine) mudModule(vm *goja.Runtime) goja.Value {
	wrap := func(h bind.Handle) goja.Value { return e.wrapper.Value(vm, h) }
	throw := func(err error) { panic(vm.NewGoError(err)) }

	obj := vm.NewObject()

	_ = obj.Set("create_char", func(name, raceName string) goja.Value {
		h, err := e.binder.NewChar(name, raceName)
		if err != nil {
			throw(err)
		}
		return wrap(h)
	})
	_ = obj.Set("create_obj", func(name string) goja.Value {
		return wrap(e.binder.NewObject(name))
	})
	_ = obj.Set("create_room", func(name string) goja.Value {
		return wrap(e.binder.NewRoom(name))
	})
	_ = obj.Set("extract", func(uid uint64) bool {
		return e.binder.Extract(e.handleOf(uid))
	})
	_ = obj.Set("char", func(uid uint64) goja.Value {
		return wrap(e.kindHandle(uid, entity.KindChar))
	})
	_ = obj.Set("obj", func(uid uint64) goja.Value {
		return wrap(e.kindHandle(uid, entity.KindObject))
	})
	_ = obj.Set("room", func(uid uint64) goja.Value {
		return wrap(e.kindHandle(uid, entity.KindRoom))
	})
	_ = obj.Set("start_room", func() goja.Value {
		return wrap(e.StartRoom())
	})
	_ = obj.Set("dispatch", func(trigType string, uid uint64, ctx map[string]any) {
		e.triggers.Dispatch(trigType, e.handleOf(uid), ctx)
	})
	_ = obj.Set("delay", func(ms int64, src string) string {
		return e.Delay(time.Duration(ms)*time.Millisecond, src, "delayed", nil)
	})
	_ = obj.Set("cancel", func(id string) bool {
		return e.sched.Cancel(id)
	})
	_ = obj.Set("log", func(msg string) {
		e.logger.Info("script log", zap.String("msg", msg))
	})
	return obj
}

// handleOf rebuilds a handle from a bare uid, none when the uid is dead.
func (e *Engine) handleOf(uid uint64) bind.Handle {
	ent, ok := e.reg.Resolve(uid)
	if !ok {
		return bind.None
	}
	return bind.Handle{Kind: ent.Kind(), UID: uid}
}

// kindHandle is handleOf restricted to one kind.
func (e *Engine) kindHandle(uid uint64, k entity.Kind) bind.Handle {
	h := e.handleOf(uid)
	if h.Kind != k {
		return bind.None
	}
	return h
}
