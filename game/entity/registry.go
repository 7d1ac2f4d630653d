package entity

// Entity is implemented by every record kind tracked by the Registry.
type Entity interface {
	UID() uint64
	Kind() Kind
	setUID(uint64)
}

// Registry is the identity table mapping uids to live entity records. UIDs
// are assigned from a single monotonically increasing counter and never
// reused for the life of the process, so a stale uid held by a script can
// never accidentally resolve to a different entity.
//
// The Registry is not safe for concurrent mutation; all access is funneled
// through the single-writer engine loop.
type Registry struct {
	next    uint64
	entries map[uint64]Entity
}

// NewRegistry creates an empty Registry. UID 0 is reserved as the
// distinguished "no entity" value.
func NewRegistry() *Registry {
	return &Registry{next: 1, entries: make(map[uint64]Entity)}
}

// Register assigns the entity a fresh uid and adds it to the table.
func (r *Registry) Register(e Entity) uint64 {
	uid := r.next
	r.next++
	e.setUID(uid)
	r.entries[uid] = e
	return uid
}

// Resolve looks up a live entity by uid. A false result is a routine
// outcome, not an error: the entity may have been destroyed while a script
// still held its uid.
func (r *Registry) Resolve(uid uint64) (Entity, bool) {
	e, ok := r.entries[uid]
	return e, ok
}

// Unregister removes the entity from the table. The uid is retired, never
// recycled.
func (r *Registry) Unregister(uid uint64) {
	delete(r.entries, uid)
}

// Count returns the number of live entities.
func (r *Registry) Count() int { return len(r.entries) }

// CountKind returns the number of live entities of the given kind.
func (r *Registry) CountKind(k Kind) int {
	n := 0
	for _, e := range r.entries {
		if e.Kind() == k {
			n++
		}
	}
	return n
}

// UIDsOfKind returns the uids of all live entities of the given kind, in
// unspecified order.
func (r *Registry) UIDsOfKind(k Kind) []uint64 {
	var out []uint64
	for uid, e := range r.entries {
		if e.Kind() == k {
			out = append(out, uid)
		}
	}
	return out
}

// Char resolves uid to a live character.
func (r *Registry) Char(uid uint64) (*Character, bool) {
	e, ok := r.entries[uid]
	if !ok {
		return nil, false
	}
	ch, ok := e.(*Character)
	return ch, ok
}

// Object resolves uid to a live object.
func (r *Registry) Object(uid uint64) (*Object, bool) {
	e, ok := r.entries[uid]
	if !ok {
		return nil, false
	}
	obj, ok := e.(*Object)
	return obj, ok
}

// Room resolves uid to a live room.
func (r *Registry) Room(uid uint64) (*Room, bool) {
	e, ok := r.entries[uid]
	if !ok {
		return nil, false
	}
	rm, ok := e.(*Room)
	return rm, ok
}

// Exit resolves uid to a live exit.
func (r *Registry) Exit(uid uint64) (*Exit, bool) {
	e, ok := r.entries[uid]
	if !ok {
		return nil, false
	}
	ex, ok := e.(*Exit)
	return ex, ok
}

// Account resolves uid to a live account.
func (r *Registry) Account(uid uint64) (*Account, bool) {
	e, ok := r.entries[uid]
	if !ok {
		return nil, false
	}
	acc, ok := e.(*Account)
	return acc, ok
}

// Socket resolves uid to a live socket.
func (r *Registry) Socket(uid uint64) (*Socket, bool) {
	e, ok := r.entries[uid]
	if !ok {
		return nil, false
	}
	sk, ok := e.(*Socket)
	return sk, ok
}
