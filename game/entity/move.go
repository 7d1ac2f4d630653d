package entity

// Move helpers keep the object-location relation and its back-references
// (room contents, container contents, carried inventory, body occupancy)
// consistent. An object is in at most one of these relations at a time.

// RemoveFromLocation detaches the object from wherever it currently is and
// returns the prior location so a failed operation can be rolled back. Worn
// objects are also released from the wearer's body; callers that need to
// restore a worn placement must capture the occupied slots first.
func RemoveFromLocation(reg *Registry, obj *Object) Location {
	prior := obj.loc
	switch prior.Kind {
	case LocRoom:
		if rm, ok := reg.Room(prior.UID); ok {
			rm.RemoveContent(obj.uid)
		}
	case LocContainer:
		if cont, ok := reg.Object(prior.UID); ok {
			cont.RemoveContent(obj.uid)
		}
	case LocCarrier:
		if ch, ok := reg.Char(prior.UID); ok {
			ch.RemoveFromInventory(obj.uid)
		}
	case LocWearer:
		if ch, ok := reg.Char(prior.UID); ok {
			ch.Body().Release(obj.uid)
		}
	}
	obj.loc = Location{}
	return prior
}

// ObjToRoom places the object on the room floor.
func ObjToRoom(reg *Registry, obj *Object, rm *Room) {
	RemoveFromLocation(reg, obj)
	rm.AddContent(obj.uid)
	obj.loc = Location{Kind: LocRoom, UID: rm.uid}
}

// ObjToContainer places the object inside a container object.
func ObjToContainer(reg *Registry, obj *Object, cont *Object) {
	RemoveFromLocation(reg, obj)
	cont.AddContent(obj.uid)
	obj.loc = Location{Kind: LocContainer, UID: cont.uid}
}

// ObjToChar places the object in a character's carried inventory.
func ObjToChar(reg *Registry, obj *Object, ch *Character) {
	RemoveFromLocation(reg, obj)
	ch.AddToInventory(obj.uid)
	obj.loc = Location{Kind: LocCarrier, UID: ch.uid}
}

// MarkWorn records the object's location as worn by the character. The
// caller (the equipment engine) has already established body occupancy.
func MarkWorn(obj *Object, ch *Character) {
	obj.loc = Location{Kind: LocWearer, UID: ch.uid}
}

// RestoreLocation places the object back at a previously captured location.
// Worn placements cannot be restored here; the equipment engine re-occupies
// the recorded slots itself and then calls MarkWorn.
func RestoreLocation(reg *Registry, obj *Object, prior Location) {
	switch prior.Kind {
	case LocRoom:
		if rm, ok := reg.Room(prior.UID); ok {
			ObjToRoom(reg, obj, rm)
		}
	case LocContainer:
		if cont, ok := reg.Object(prior.UID); ok {
			ObjToContainer(reg, obj, cont)
		}
	case LocCarrier:
		if ch, ok := reg.Char(prior.UID); ok {
			ObjToChar(reg, obj, ch)
		}
	}
}

// CharToRoom moves a character into a room, removing it from any previous
// room first.
func CharToRoom(reg *Registry, ch *Character, rm *Room) {
	CharFromRoom(reg, ch)
	rm.AddChar(ch.uid)
	ch.RoomUID = rm.uid
}

// CharFromRoom removes a character from its current room, if any.
func CharFromRoom(reg *Registry, ch *Character) {
	if ch.RoomUID == 0 {
		return
	}
	if rm, ok := reg.Room(ch.RoomUID); ok {
		rm.RemoveChar(ch.uid)
	}
	ch.RoomUID = 0
	ch.FurnitureUID = 0
}

// ExtractObject removes an object from the world: its contents fall to the
// place the container occupied (or vanish with it), the object leaves its
// location, and its uid is retired. Handles held by scripts go stale and
// report "entity no longer exists" on next access.
func ExtractObject(reg *Registry, obj *Object) {
	prior := RemoveFromLocation(reg, obj)
	for _, uid := range obj.Contents() {
		inner, ok := reg.Object(uid)
		if !ok {
			continue
		}
		obj.RemoveContent(uid)
		inner.loc = Location{}
		if prior.Kind != LocNone {
			RestoreLocation(reg, inner, prior)
		}
	}
	reg.Unregister(obj.uid)
}

// ExtractChar removes a character from the world. Worn equipment and carried
// inventory fall to the character's room when it has one, otherwise they are
// extracted along with the character.
func ExtractChar(reg *Registry, ch *Character) {
	rm, hasRoom := reg.Room(ch.RoomUID)

	drop := func(uid uint64) {
		obj, ok := reg.Object(uid)
		if !ok {
			return
		}
		if hasRoom {
			ObjToRoom(reg, obj, rm)
		} else {
			ExtractObject(reg, obj)
		}
	}
	for _, uid := range ch.Body().WornEverywhere() {
		drop(uid)
	}
	for _, uid := range ch.Inventory() {
		drop(uid)
	}
	CharFromRoom(reg, ch)
	reg.Unregister(ch.uid)
}
