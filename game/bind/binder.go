package bind

import (
	"fmt"
	"math/rand"

	"github.com/driftmud/driftmud/game/body"
	"github.com/driftmud/driftmud/game/entity"
	"github.com/driftmud/driftmud/game/gear"
	"github.com/driftmud/driftmud/game/race"
)

// Binder constructs entity refs bound to one game instance's identity table
// and domain services. Refs are cheap values; make them freely and discard
// them.
type Binder struct {
	reg   *entity.Registry
	aux   *entity.AuxRegistry
	vocab *body.Vocab
	races *race.Table
	gear  *gear.Engine
	rng   *rand.Rand
}

// New creates a Binder.
func New(reg *entity.Registry, aux *entity.AuxRegistry, vocab *body.Vocab, races *race.Table, g *gear.Engine, rng *rand.Rand) *Binder {
	return &Binder{reg: reg, aux: aux, vocab: vocab, races: races, gear: g, rng: rng}
}

// Registry returns the identity table the binder resolves against.
func (b *Binder) Registry() *entity.Registry { return b.reg }

// NewChar creates a live character of the given race and returns its
// handle. The body is built from the race template.
func (b *Binder) NewChar(name, raceName string) (Handle, error) {
	rc, ok := b.races.Get(raceName)
	if !ok {
		return None, fmt.Errorf("unknown race %q", raceName)
	}
	ch := entity.NewCharacter(b.aux, name)
	ch.Race = rc.Name
	ch.SetBody(rc.Template())
	uid := b.reg.Register(ch)
	return Handle{Kind: entity.KindChar, UID: uid}, nil
}

// NewObject creates a live nowhere object and returns its handle.
func (b *Binder) NewObject(name string) Handle {
	obj := entity.NewObject(b.aux, name)
	uid := b.reg.Register(obj)
	return Handle{Kind: entity.KindObject, UID: uid}
}

// NewRoom creates a live room and returns its handle.
func (b *Binder) NewRoom(name string) Handle {
	rm := entity.NewRoom(b.aux, name)
	uid := b.reg.Register(rm)
	return Handle{Kind: entity.KindRoom, UID: uid}
}

// Extract destroys an entity. Objects spill their contents to the prior
// location; characters drop inventory and worn gear into their room.
func (b *Binder) Extract(h Handle) bool {
	switch h.Kind {
	case entity.KindChar:
		ch, ok := b.reg.Char(h.UID)
		if !ok {
			return false
		}
		entity.ExtractChar(b.reg, ch)
	case entity.KindObject:
		obj, ok := b.reg.Object(h.UID)
		if !ok {
			return false
		}
		entity.ExtractObject(b.reg, obj)
	default:
		if _, ok := b.reg.Resolve(h.UID); !ok {
			return false
		}
		b.reg.Unregister(h.UID)
	}
	return true
}

// Ref turns a handle back into the matching typed ref wrapped as any.
// Callers that know the kind should use the typed constructors instead.
func (b *Binder) Ref(h Handle) any {
	switch h.Kind {
	case entity.KindChar:
		return b.Char(h.UID)
	case entity.KindObject:
		return b.Object(h.UID)
	case entity.KindRoom:
		return b.Room(h.UID)
	case entity.KindExit:
		return b.Exit(h.UID)
	case entity.KindAccount:
		return b.Account(h.UID)
	case entity.KindSocket:
		return b.Socket(h.UID)
	}
	return nil
}

// Char returns a ref for a character uid. The uid is not checked here;
// every ref operation re-resolves it.
func (b *Binder) Char(uid uint64) CharRef { return CharRef{b: b, uid: uid} }

// Object returns a ref for an object uid.
func (b *Binder) Object(uid uint64) ObjRef { return ObjRef{b: b, uid: uid} }

// Room returns a ref for a room uid.
func (b *Binder) Room(uid uint64) RoomRef { return RoomRef{b: b, uid: uid} }

// Exit returns a ref for an exit uid.
func (b *Binder) Exit(uid uint64) ExitRef { return ExitRef{b: b, uid: uid} }

// Account returns a ref for an account uid.
func (b *Binder) Account(uid uint64) AccountRef { return AccountRef{b: b, uid: uid} }

// Socket returns a ref for a socket uid.
func (b *Binder) Socket(uid uint64) SocketRef { return SocketRef{b: b, uid: uid} }
