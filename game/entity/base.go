package entity

import "strings"

// base carries the state shared by every scriptable entity kind: identity,
// prototype tags, ad hoc script variables, auxiliary data blobs, and the
// ordered list of attached trigger keys.
type base struct {
	uid      uint64
	kind     Kind
	protos   []string
	vars     map[string]any
	aux      map[string]AuxData
	triggers []string
}

func newBase(kind Kind, ar *AuxRegistry) base {
	b := base{kind: kind, vars: make(map[string]any)}
	if ar != nil {
		b.aux = ar.newSet()
	} else {
		b.aux = make(map[string]AuxData)
	}
	return b
}

func (b *base) UID() uint64     { return b.uid }
func (b *base) Kind() Kind      { return b.kind }
func (b *base) setUID(u uint64) { b.uid = u }

// SetVar stores an ad hoc scalar under name. Scripts use this for state that
// has no dedicated field.
func (b *base) SetVar(name string, val any) { b.vars[name] = val }

// GetVar returns the stored scalar, if any.
func (b *base) GetVar(name string) (any, bool) {
	v, ok := b.vars[name]
	return v, ok
}

// HasVar reports whether a scalar is stored under name.
func (b *base) HasVar(name string) bool {
	_, ok := b.vars[name]
	return ok
}

// DeleteVar removes the scalar stored under name.
func (b *base) DeleteVar(name string) { delete(b.vars, name) }

// Vars returns a snapshot of all stored scalars.
func (b *base) Vars() map[string]any {
	out := make(map[string]any, len(b.vars))
	for k, v := range b.vars {
		out[k] = v
	}
	return out
}

// Aux returns the auxiliary data blob installed under name, or nil.
func (b *base) Aux(name string) AuxData { return b.aux[name] }

// SetAux attaches an auxiliary data blob under name (used by deserialization
// and entity copy).
func (b *base) SetAux(name string, data AuxData) { b.aux[name] = data }

// AuxNames returns the names of all attached auxiliary data blobs.
func (b *base) AuxNames() []string {
	out := make([]string, 0, len(b.aux))
	for name := range b.aux {
		out = append(out, name)
	}
	return out
}

// AddPrototype appends a prototype key to the entity's inheritance list.
func (b *base) AddPrototype(key string) {
	if !b.Isinstance(key) {
		b.protos = append(b.protos, key)
	}
}

// Isinstance reports whether the entity inherits from the given prototype
// key.
func (b *base) Isinstance(key string) bool {
	for _, p := range b.protos {
		if strings.EqualFold(p, key) {
			return true
		}
	}
	return false
}

// Prototypes returns a snapshot of the entity's prototype keys.
func (b *base) Prototypes() []string {
	out := make([]string, len(b.protos))
	copy(out, b.protos)
	return out
}

// AttachTrigger appends a trigger key to the entity's attachment list.
// Triggers fire in attachment order. Attaching an already attached key is a
// no-op.
func (b *base) AttachTrigger(key string) {
	for _, k := range b.triggers {
		if k == key {
			return
		}
	}
	b.triggers = append(b.triggers, key)
}

// DetachTrigger removes a trigger key from the attachment list. Returns
// whether it was attached.
func (b *base) DetachTrigger(key string) bool {
	for i, k := range b.triggers {
		if k == key {
			b.triggers = append(b.triggers[:i], b.triggers[i+1:]...)
			return true
		}
	}
	return false
}

// Triggers returns the attached trigger keys in attachment order.
func (b *base) Triggers() []string {
	out := make([]string, len(b.triggers))
	copy(out, b.triggers)
	return out
}

// copyBase duplicates the shared state into a new, unregistered base.
func (b *base) copyBase() base {
	nb := base{kind: b.kind, vars: make(map[string]any, len(b.vars)), aux: make(map[string]AuxData, len(b.aux))}
	for k, v := range b.vars {
		nb.vars[k] = v
	}
	for k, v := range b.aux {
		nb.aux[k] = v.Copy()
	}
	nb.protos = append(nb.protos, b.protos...)
	nb.triggers = append(nb.triggers, b.triggers...)
	return nb
}
