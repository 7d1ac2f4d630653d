package script

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/driftmud/driftmud/game/bind"
	"github.com/driftmud/driftmud/game/entity"
)

// Wrapper turns bind refs and handles into goja objects. Scripts only ever
// see these wrappers; native pointers never cross into a runtime.
type Wrapper struct {
	b *bind.Binder
}

// NewWrapper creates a Wrapper over a binder.
func NewWrapper(b *bind.Binder) *Wrapper {
	return &Wrapper{b: b}
}

// Value converts a binding value for injection into a runtime. Handles and
// refs become entity wrappers, nil and None become null, everything else
// passes through goja's own conversion.
func (w *Wrapper) Value(vm *goja.Runtime, v any) goja.Value {
	switch t := v.(type) {
	case nil:
		return goja.Null()
	case bind.Handle:
		return w.wrapHandle(vm, t)
	case bind.CharRef:
		return w.wrapChar(vm, t)
	case bind.ObjRef:
		return w.wrapObj(vm, t)
	case bind.RoomRef:
		return w.wrapRoom(vm, t)
	case bind.ExitRef:
		return w.wrapExit(vm, t)
	case bind.AccountRef:
		return w.wrapAccount(vm, t)
	case bind.SocketRef:
		return w.wrapSocket(vm, t)
	}
	return vm.ToValue(v)
}

func (w *Wrapper) wrapHandle(vm *goja.Runtime, h bind.Handle) goja.Value {
	if h.IsNone() {
		return goja.Null()
	}
	switch h.Kind {
	case entity.KindChar:
		return w.wrapChar(vm, w.b.Char(h.UID))
	case entity.KindObject:
		return w.wrapObj(vm, w.b.Object(h.UID))
	case entity.KindRoom:
		return w.wrapRoom(vm, w.b.Room(h.UID))
	case entity.KindExit:
		return w.wrapExit(vm, w.b.Exit(h.UID))
	case entity.KindAccount:
		return w.wrapAccount(vm, w.b.Account(h.UID))
	case entity.KindSocket:
		return w.wrapSocket(vm, w.b.Socket(h.UID))
	}
	return goja.Null()
}

func (w *Wrapper) wrapHandles(vm *goja.Runtime, hs []bind.Handle) goja.Value {
	out := make([]goja.Value, 0, len(hs))
	for _, h := range hs {
		out = append(out, w.wrapHandle(vm, h))
	}
	return vm.ToValue(out)
}

func throw(vm *goja.Runtime, err error) {
	panic(vm.NewGoError(err))
}

func check(vm *goja.Runtime, err error) {
	if err != nil {
		throw(vm, err)
	}
}

func stringArg(vm *goja.Runtime, call goja.FunctionCall, i int, what string) string {
	s, ok := call.Argument(i).Export().(string)
	if !ok {
		throw(vm, fmt.Errorf("%s must be a string", what))
	}
	return s
}

func optStringArg(call goja.FunctionCall, i int) string {
	v := call.Argument(i)
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	s, _ := v.Export().(string)
	return s
}

func optBoolArg(call goja.FunctionCall, i int) bool {
	v := call.Argument(i)
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return false
	}
	return v.ToBoolean()
}

func intArg(vm *goja.Runtime, call goja.FunctionCall, i int, what string) int {
	v := call.Argument(i)
	switch n := v.Export().(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	throw(vm, fmt.Errorf("%s must be a number", what))
	return 0
}

// accessor installs a property with a getter and optional setter.
func accessor(vm *goja.Runtime, obj *goja.Object, name string, get, set any) {
	var setter goja.Value
	if set != nil {
		setter = vm.ToValue(set)
	}
	_ = obj.DefineAccessorProperty(name, vm.ToValue(get), setter, goja.FLAG_FALSE, goja.FLAG_TRUE)
}

// varMethods installs the ad hoc variable store surface shared by every
// entity kind.
type varSurface interface {
	SetVar(name string, val any) error
	GetVar(name string) (any, error)
	HasVar(name string) (bool, error)
	DeleteVar(name string) error
}

func varMethods(vm *goja.Runtime, obj *goja.Object, s varSurface) {
	_ = obj.Set("setVar", func(call goja.FunctionCall) goja.Value {
		name := stringArg(vm, call, 0, "variable name")
		check(vm, s.SetVar(name, call.Argument(1).Export()))
		return goja.Undefined()
	})
	_ = obj.Set("getVar", func(call goja.FunctionCall) goja.Value {
		v, err := s.GetVar(stringArg(vm, call, 0, "variable name"))
		check(vm, err)
		return vm.ToValue(v)
	})
	_ = obj.Set("hasVar", func(call goja.FunctionCall) goja.Value {
		ok, err := s.HasVar(stringArg(vm, call, 0, "variable name"))
		check(vm, err)
		return vm.ToValue(ok)
	})
	_ = obj.Set("deleteVar", func(call goja.FunctionCall) goja.Value {
		check(vm, s.DeleteVar(stringArg(vm, call, 0, "variable name")))
		return goja.Undefined()
	})
}

type triggerSurface interface {
	AttachTrigger(key string) error
	DetachTrigger(key string) (bool, error)
}

func triggerMethods(vm *goja.Runtime, obj *goja.Object, s triggerSurface) {
	_ = obj.Set("attach", func(call goja.FunctionCall) goja.Value {
		check(vm, s.AttachTrigger(stringArg(vm, call, 0, "trigger key")))
		return goja.Undefined()
	})
	_ = obj.Set("detach", func(call goja.FunctionCall) goja.Value {
		ok, err := s.DetachTrigger(stringArg(vm, call, 0, "trigger key"))
		check(vm, err)
		return vm.ToValue(ok)
	})
}

func (w *Wrapper) wrapChar(vm *goja.Runtime, ref bind.CharRef) *goja.Object {
	obj := vm.NewObject()
	accessor(vm, obj, "uid", func() uint64 { return ref.UID() }, nil)
	accessor(vm, obj, "name",
		func() string { s, err := ref.Name(); check(vm, err); return s },
		func(call goja.FunctionCall) goja.Value {
			check(vm, ref.SetName(stringArg(vm, call, 0, "name")))
			return goja.Undefined()
		})
	accessor(vm, obj, "desc",
		func() string { s, err := ref.Desc(); check(vm, err); return s },
		func(call goja.FunctionCall) goja.Value {
			check(vm, ref.SetDesc(stringArg(vm, call, 0, "desc")))
			return goja.Undefined()
		})
	accessor(vm, obj, "race",
		func() string { s, err := ref.Race(); check(vm, err); return s },
		func(call goja.FunctionCall) goja.Value {
			check(vm, ref.SetRace(stringArg(vm, call, 0, "race")))
			return goja.Undefined()
		})
	accessor(vm, obj, "sex",
		func() string { s, err := ref.Sex(); check(vm, err); return s },
		func(call goja.FunctionCall) goja.Value {
			check(vm, ref.SetSex(stringArg(vm, call, 0, "sex")))
			return goja.Undefined()
		})
	accessor(vm, obj, "posture",
		func() string { s, err := ref.Posture(); check(vm, err); return s },
		func(call goja.FunctionCall) goja.Value {
			check(vm, ref.SetPosture(stringArg(vm, call, 0, "posture")))
			return goja.Undefined()
		})
	accessor(vm, obj, "room", func() goja.Value {
		h, err := ref.Room()
		check(vm, err)
		return w.wrapHandle(vm, h)
	}, nil)

	_ = obj.Set("inv", func(goja.FunctionCall) goja.Value {
		hs, err := ref.Inventory()
		check(vm, err)
		return w.wrapHandles(vm, hs)
	})
	_ = obj.Set("equipment", func(goja.FunctionCall) goja.Value {
		hs, err := ref.Equipment()
		check(vm, err)
		return w.wrapHandles(vm, hs)
	})

	_ = obj.Set("addBodypart", func(call goja.FunctionCall) goja.Value {
		name := stringArg(vm, call, 0, "bodypart name")
		ptype := stringArg(vm, call, 1, "bodypart type")
		weight := intArg(vm, call, 2, "bodypart weight")
		check(vm, ref.AddBodypart(name, ptype, weight))
		return goja.Undefined()
	})
	_ = obj.Set("removeBodypart", func(call goja.FunctionCall) goja.Value {
		ok, err := ref.RemoveBodypart(stringArg(vm, call, 0, "bodypart name"))
		check(vm, err)
		return vm.ToValue(ok)
	})
	_ = obj.Set("bodypartType", func(call goja.FunctionCall) goja.Value {
		t, err := ref.BodypartType(stringArg(vm, call, 0, "bodypart name"))
		check(vm, err)
		return vm.ToValue(t)
	})
	_ = obj.Set("randomBodypart", func(call goja.FunctionCall) goja.Value {
		name, err := ref.RandomBodypart(optStringArg(call, 0))
		check(vm, err)
		return vm.ToValue(name)
	})
	_ = obj.Set("bodyparts", func(goja.FunctionCall) goja.Value {
		names, err := ref.Bodyparts()
		check(vm, err)
		return vm.ToValue(names)
	})
	_ = obj.Set("resetBody", func(goja.FunctionCall) goja.Value {
		check(vm, ref.ResetBody())
		return goja.Undefined()
	})

	_ = obj.Set("equip", func(call goja.FunctionCall) goja.Value {
		item := w.objRefArg(vm, call, 0)
		requested := optStringArg(call, 1)
		forced := optBoolArg(call, 2)
		equipType := optStringArg(call, 3)
		res, err := ref.Equip(item, requested, forced, equipType)
		check(vm, err)
		return vm.ToValue(map[string]any{
			"ok":        res.OK,
			"message":   res.Reason.Message(),
			"positions": res.Positions,
		})
	})
	_ = obj.Set("unequip", func(call goja.FunctionCall) goja.Value {
		ok, err := ref.Unequip(w.objRefArg(vm, call, 0))
		check(vm, err)
		return vm.ToValue(ok)
	})
	_ = obj.Set("getEquip", func(call goja.FunctionCall) goja.Value {
		hs, err := ref.EquipAt(stringArg(vm, call, 0, "position name"))
		check(vm, err)
		return w.wrapHandles(vm, hs)
	})
	_ = obj.Set("getSlotTypes", func(goja.FunctionCall) goja.Value {
		types, err := ref.SlotTypes()
		check(vm, err)
		return vm.ToValue(types)
	})

	_ = obj.Set("aux", func(call goja.FunctionCall) goja.Value {
		data, err := ref.Aux(stringArg(vm, call, 0, "aux name"))
		check(vm, err)
		if data == nil {
			return goja.Null()
		}
		return vm.ToValue(data)
	})
	_ = obj.Set("isinstance", func(call goja.FunctionCall) goja.Value {
		ok, err := ref.Isinstance(stringArg(vm, call, 0, "prototype key"))
		check(vm, err)
		return vm.ToValue(ok)
	})
	_ = obj.Set("store", func(goja.FunctionCall) goja.Value {
		set, err := ref.Store()
		check(vm, err)
		return vm.ToValue(map[string]any(set))
	})
	_ = obj.Set("copy", func(goja.FunctionCall) goja.Value {
		h, err := ref.Copy()
		check(vm, err)
		return w.wrapHandle(vm, h)
	})
	varMethods(vm, obj, ref)
	triggerMethods(vm, obj, ref)
	return obj
}

// objRefArg recovers the ObjRef behind a wrapped object argument via its
// uid property.
func (w *Wrapper) objRefArg(vm *goja.Runtime, call goja.FunctionCall, i int) bind.ObjRef {
	arg := call.Argument(i)
	o, ok := arg.(*goja.Object)
	if !ok {
		throw(vm, fmt.Errorf("argument must be an object entity"))
	}
	uidVal := o.Get("uid")
	if uidVal == nil {
		throw(vm, fmt.Errorf("argument must be an object entity"))
	}
	return w.b.Object(uint64(uidVal.ToInteger()))
}

func (w *Wrapper) roomRefArg(vm *goja.Runtime, call goja.FunctionCall, i int) bind.RoomRef {
	arg := call.Argument(i)
	o, ok := arg.(*goja.Object)
	if !ok {
		throw(vm, fmt.Errorf("argument must be a room entity"))
	}
	uidVal := o.Get("uid")
	if uidVal == nil {
		throw(vm, fmt.Errorf("argument must be a room entity"))
	}
	return w.b.Room(uint64(uidVal.ToInteger()))
}

func (w *Wrapper) charRefArg(vm *goja.Runtime, call goja.FunctionCall, i int) bind.CharRef {
	arg := call.Argument(i)
	o, ok := arg.(*goja.Object)
	if !ok {
		throw(vm, fmt.Errorf("argument must be a character entity"))
	}
	uidVal := o.Get("uid")
	if uidVal == nil {
		throw(vm, fmt.Errorf("argument must be a character entity"))
	}
	return w.b.Char(uint64(uidVal.ToInteger()))
}

func (w *Wrapper) wrapObj(vm *goja.Runtime, ref bind.ObjRef) *goja.Object {
	obj := vm.NewObject()
	accessor(vm, obj, "uid", func() uint64 { return ref.UID() }, nil)
	accessor(vm, obj, "name",
		func() string { s, err := ref.Name(); check(vm, err); return s },
		func(call goja.FunctionCall) goja.Value {
			check(vm, ref.SetName(stringArg(vm, call, 0, "name")))
			return goja.Undefined()
		})
	accessor(vm, obj, "desc",
		func() string { s, err := ref.Desc(); check(vm, err); return s },
		func(call goja.FunctionCall) goja.Value {
			check(vm, ref.SetDesc(stringArg(vm, call, 0, "desc")))
			return goja.Undefined()
		})
	accessor(vm, obj, "weight",
		func() float64 { f, err := ref.Weight(); check(vm, err); return f },
		func(call goja.FunctionCall) goja.Value {
			f, ok := call.Argument(0).Export().(float64)
			if !ok {
				if n, isInt := call.Argument(0).Export().(int64); isInt {
					f, ok = float64(n), true
				}
			}
			if !ok {
				throw(vm, fmt.Errorf("weight must be a number"))
			}
			check(vm, ref.SetWeight(f))
			return goja.Undefined()
		})
	accessor(vm, obj, "wearable",
		func() bool { b, err := ref.IsWearable(); check(vm, err); return b }, nil)
	accessor(vm, obj, "carrier", func() goja.Value {
		h, err := ref.Carrier()
		check(vm, err)
		return w.wrapHandle(vm, h)
	}, nil)
	_ = obj.Set("getSlots", func(goja.FunctionCall) goja.Value {
		s, err := ref.Slots()
		check(vm, err)
		return vm.ToValue(s)
	})

	_ = obj.Set("contents", func(goja.FunctionCall) goja.Value {
		hs, err := ref.Contents()
		check(vm, err)
		return w.wrapHandles(vm, hs)
	})
	_ = obj.Set("toRoom", func(call goja.FunctionCall) goja.Value {
		check(vm, ref.MoveToRoom(w.roomRefArg(vm, call, 0)))
		return goja.Undefined()
	})
	_ = obj.Set("toChar", func(call goja.FunctionCall) goja.Value {
		check(vm, ref.MoveToChar(w.charRefArg(vm, call, 0)))
		return goja.Undefined()
	})
	_ = obj.Set("toContainer", func(call goja.FunctionCall) goja.Value {
		check(vm, ref.MoveToContainer(w.objRefArg(vm, call, 0)))
		return goja.Undefined()
	})
	_ = obj.Set("aux", func(call goja.FunctionCall) goja.Value {
		data, err := ref.Aux(stringArg(vm, call, 0, "aux name"))
		check(vm, err)
		if data == nil {
			return goja.Null()
		}
		return vm.ToValue(data)
	})
	_ = obj.Set("isinstance", func(call goja.FunctionCall) goja.Value {
		ok, err := ref.Isinstance(stringArg(vm, call, 0, "prototype key"))
		check(vm, err)
		return vm.ToValue(ok)
	})
	_ = obj.Set("store", func(goja.FunctionCall) goja.Value {
		set, err := ref.Store()
		check(vm, err)
		return vm.ToValue(map[string]any(set))
	})
	_ = obj.Set("copy", func(goja.FunctionCall) goja.Value {
		h, err := ref.Copy()
		check(vm, err)
		return w.wrapHandle(vm, h)
	})
	varMethods(vm, obj, ref)
	triggerMethods(vm, obj, ref)
	return obj
}

func (w *Wrapper) wrapRoom(vm *goja.Runtime, ref bind.RoomRef) *goja.Object {
	obj := vm.NewObject()
	accessor(vm, obj, "uid", func() uint64 { return ref.UID() }, nil)
	accessor(vm, obj, "name",
		func() string { s, err := ref.Name(); check(vm, err); return s },
		func(call goja.FunctionCall) goja.Value {
			check(vm, ref.SetName(stringArg(vm, call, 0, "name")))
			return goja.Undefined()
		})
	accessor(vm, obj, "desc",
		func() string { s, err := ref.Desc(); check(vm, err); return s },
		func(call goja.FunctionCall) goja.Value {
			check(vm, ref.SetDesc(stringArg(vm, call, 0, "desc")))
			return goja.Undefined()
		})

	_ = obj.Set("exits", func(goja.FunctionCall) goja.Value {
		dirs, err := ref.ExitDirs()
		check(vm, err)
		return vm.ToValue(dirs)
	})
	_ = obj.Set("exit", func(call goja.FunctionCall) goja.Value {
		h, err := ref.Exit(stringArg(vm, call, 0, "direction"))
		check(vm, err)
		return w.wrapHandle(vm, h)
	})
	_ = obj.Set("dig", func(call goja.FunctionCall) goja.Value {
		dir := stringArg(vm, call, 0, "direction")
		h, err := ref.Dig(dir, w.roomRefArg(vm, call, 1))
		check(vm, err)
		return w.wrapHandle(vm, h)
	})
	_ = obj.Set("contents", func(goja.FunctionCall) goja.Value {
		hs, err := ref.Contents()
		check(vm, err)
		return w.wrapHandles(vm, hs)
	})
	_ = obj.Set("chars", func(goja.FunctionCall) goja.Value {
		hs, err := ref.Chars()
		check(vm, err)
		return w.wrapHandles(vm, hs)
	})
	_ = obj.Set("aux", func(call goja.FunctionCall) goja.Value {
		data, err := ref.Aux(stringArg(vm, call, 0, "aux name"))
		check(vm, err)
		if data == nil {
			return goja.Null()
		}
		return vm.ToValue(data)
	})
	_ = obj.Set("isinstance", func(call goja.FunctionCall) goja.Value {
		ok, err := ref.Isinstance(stringArg(vm, call, 0, "prototype key"))
		check(vm, err)
		return vm.ToValue(ok)
	})
	_ = obj.Set("store", func(goja.FunctionCall) goja.Value {
		set, err := ref.Store()
		check(vm, err)
		return vm.ToValue(map[string]any(set))
	})
	varMethods(vm, obj, ref)
	triggerMethods(vm, obj, ref)
	return obj
}

func (w *Wrapper) wrapExit(vm *goja.Runtime, ref bind.ExitRef) *goja.Object {
	obj := vm.NewObject()
	accessor(vm, obj, "uid", func() uint64 { return ref.UID() }, nil)
	accessor(vm, obj, "dest", func() goja.Value {
		h, err := ref.Dest()
		check(vm, err)
		return w.wrapHandle(vm, h)
	}, nil)
	accessor(vm, obj, "keywords",
		func() string { s, err := ref.Keywords(); check(vm, err); return s },
		func(call goja.FunctionCall) goja.Value {
			check(vm, ref.SetKeywords(stringArg(vm, call, 0, "keywords")))
			return goja.Undefined()
		})
	accessor(vm, obj, "closed",
		func() bool { b, err := ref.IsClosed(); check(vm, err); return b },
		func(call goja.FunctionCall) goja.Value {
			check(vm, ref.SetClosed(call.Argument(0).ToBoolean()))
			return goja.Undefined()
		})
	accessor(vm, obj, "locked",
		func() bool { b, err := ref.IsLocked(); check(vm, err); return b },
		func(call goja.FunctionCall) goja.Value {
			check(vm, ref.SetLocked(call.Argument(0).ToBoolean()))
			return goja.Undefined()
		})
	varMethods(vm, obj, ref)
	triggerMethods(vm, obj, ref)
	return obj
}

func (w *Wrapper) wrapAccount(vm *goja.Runtime, ref bind.AccountRef) *goja.Object {
	obj := vm.NewObject()
	accessor(vm, obj, "uid", func() uint64 { return ref.UID() }, nil)
	accessor(vm, obj, "username",
		func() string { s, err := ref.Username(); check(vm, err); return s }, nil)
	_ = obj.Set("characters", func(goja.FunctionCall) goja.Value {
		names, err := ref.Characters()
		check(vm, err)
		return vm.ToValue(names)
	})
	varMethods(vm, obj, ref)
	return obj
}

func (w *Wrapper) wrapSocket(vm *goja.Runtime, ref bind.SocketRef) *goja.Object {
	obj := vm.NewObject()
	accessor(vm, obj, "uid", func() uint64 { return ref.UID() }, nil)
	accessor(vm, obj, "account", func() goja.Value {
		h, err := ref.Account()
		check(vm, err)
		return w.wrapHandle(vm, h)
	}, nil)
	accessor(vm, obj, "char", func() goja.Value {
		h, err := ref.Char()
		check(vm, err)
		return w.wrapHandle(vm, h)
	}, nil)
	return obj
}
