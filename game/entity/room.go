package entity

// Room is a location in the world holding characters, objects, and named
// exits.
type Room struct {
	base
	Name string
	Desc string

	exits    map[string]uint64
	contents []uint64
	chars    []uint64
}

// NewRoom creates an unregistered room.
func NewRoom(ar *AuxRegistry, name string) *Room {
	return &Room{base: newBase(KindRoom, ar), Name: name, exits: make(map[string]uint64)}
}

// SetExit binds an exit uid to a direction name. A zero uid removes the
// binding.
func (rm *Room) SetExit(dir string, exitUID uint64) {
	if exitUID == 0 {
		delete(rm.exits, dir)
		return
	}
	rm.exits[dir] = exitUID
}

// ExitUID returns the exit uid bound to a direction name.
func (rm *Room) ExitUID(dir string) (uint64, bool) {
	uid, ok := rm.exits[dir]
	return uid, ok
}

// ExitDirs returns a snapshot of the room's exit direction names.
func (rm *Room) ExitDirs() []string {
	out := make([]string, 0, len(rm.exits))
	for dir := range rm.exits {
		out = append(out, dir)
	}
	return out
}

// AddContent appends an object uid to the room floor.
func (rm *Room) AddContent(uid uint64) {
	for _, u := range rm.contents {
		if u == uid {
			return
		}
	}
	rm.contents = append(rm.contents, uid)
}

// RemoveContent removes an object uid from the room floor.
func (rm *Room) RemoveContent(uid uint64) bool {
	for i, u := range rm.contents {
		if u == uid {
			rm.contents = append(rm.contents[:i], rm.contents[i+1:]...)
			return true
		}
	}
	return false
}

// Contents returns a snapshot of object uids on the room floor.
func (rm *Room) Contents() []uint64 {
	out := make([]uint64, len(rm.contents))
	copy(out, rm.contents)
	return out
}

// AddChar appends a character uid to the room.
func (rm *Room) AddChar(uid uint64) {
	for _, u := range rm.chars {
		if u == uid {
			return
		}
	}
	rm.chars = append(rm.chars, uid)
}

// RemoveChar removes a character uid from the room.
func (rm *Room) RemoveChar(uid uint64) bool {
	for i, u := range rm.chars {
		if u == uid {
			rm.chars = append(rm.chars[:i], rm.chars[i+1:]...)
			return true
		}
	}
	return false
}

// Chars returns a snapshot of character uids in the room.
func (rm *Room) Chars() []uint64 {
	out := make([]uint64, len(rm.chars))
	copy(out, rm.chars)
	return out
}

// Exit connects one room to another in a single direction.
type Exit struct {
	base
	Dest     uint64
	Keywords string
	Closable bool
	Closed   bool
	Locked   bool
}

// NewExit creates an unregistered exit leading to the given room uid.
func NewExit(ar *AuxRegistry, dest uint64) *Exit {
	return &Exit{base: newBase(KindExit, ar), Dest: dest}
}
