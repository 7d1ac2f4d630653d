package bind

import (
	"fmt"
	"sort"

	"github.com/driftmud/driftmud/game/entity"
)

// RoomRef is the binding surface for one room uid.
type RoomRef struct {
	b   *Binder
	uid uint64
}

func (r RoomRef) Handle() Handle { return Handle{Kind: entity.KindRoom, UID: r.uid} }

func (r RoomRef) UID() uint64 { return r.uid }

func (r RoomRef) resolve() (*entity.Room, error) {
	rm, ok := r.b.reg.Room(r.uid)
	if !ok {
		return nil, gone(r.Handle())
	}
	return rm, nil
}

func (r RoomRef) Exists() bool {
	_, ok := r.b.reg.Room(r.uid)
	return ok
}

func (r RoomRef) Name() (string, error) {
	rm, err := r.resolve()
	if err != nil {
		return "", err
	}
	return rm.Name, nil
}

func (r RoomRef) SetName(name string) error {
	rm, err := r.resolve()
	if err != nil {
		return err
	}
	rm.Name = name
	return nil
}

func (r RoomRef) Desc() (string, error) {
	rm, err := r.resolve()
	if err != nil {
		return "", err
	}
	return rm.Desc, nil
}

func (r RoomRef) SetDesc(desc string) error {
	rm, err := r.resolve()
	if err != nil {
		return err
	}
	rm.Desc = desc
	return nil
}

// ExitDirs returns the room's exit directions sorted for stable iteration.
func (r RoomRef) ExitDirs() ([]string, error) {
	rm, err := r.resolve()
	if err != nil {
		return nil, err
	}
	dirs := rm.ExitDirs()
	sort.Strings(dirs)
	return dirs, nil
}

// Exit returns a handle to the exit in a direction, or None when the
// direction is unlinked.
func (r RoomRef) Exit(dir string) (Handle, error) {
	rm, err := r.resolve()
	if err != nil {
		return None, err
	}
	uid, ok := rm.ExitUID(dir)
	if !ok {
		return None, nil
	}
	return Handle{Kind: entity.KindExit, UID: uid}, nil
}

// Dig creates a new exit leading to dest and links it in the given
// direction, replacing any existing link.
func (r RoomRef) Dig(dir string, dest RoomRef) (Handle, error) {
	rm, err := r.resolve()
	if err != nil {
		return None, err
	}
	if _, err := dest.resolve(); err != nil {
		return None, err
	}
	if dir == "" {
		return None, fmt.Errorf("exit direction must be a non-empty string")
	}
	// Replacing a link orphans its exit entity; unregister it.
	if old, ok := rm.ExitUID(dir); ok {
		r.b.reg.Unregister(old)
	}
	ex := entity.NewExit(r.b.aux, dest.uid)
	uid := r.b.reg.Register(ex)
	rm.SetExit(dir, uid)
	return Handle{Kind: entity.KindExit, UID: ex.UID()}, nil
}

// Contents returns a snapshot of handles to objects on the room floor.
func (r RoomRef) Contents() ([]Handle, error) {
	rm, err := r.resolve()
	if err != nil {
		return nil, err
	}
	uids := rm.Contents()
	out := make([]Handle, 0, len(uids))
	for _, uid := range uids {
		out = append(out, Handle{Kind: entity.KindObject, UID: uid})
	}
	return out, nil
}

// Chars returns a snapshot of handles to characters in the room.
func (r RoomRef) Chars() ([]Handle, error) {
	rm, err := r.resolve()
	if err != nil {
		return nil, err
	}
	uids := rm.Chars()
	out := make([]Handle, 0, len(uids))
	for _, uid := range uids {
		out = append(out, Handle{Kind: entity.KindChar, UID: uid})
	}
	return out, nil
}

func (r RoomRef) SetVar(name string, val any) error {
	rm, err := r.resolve()
	if err != nil {
		return err
	}
	rm.SetVar(name, val)
	return nil
}

func (r RoomRef) GetVar(name string) (any, error) {
	rm, err := r.resolve()
	if err != nil {
		return nil, err
	}
	v, _ := rm.GetVar(name)
	return v, nil
}

func (r RoomRef) HasVar(name string) (bool, error) {
	rm, err := r.resolve()
	if err != nil {
		return false, err
	}
	return rm.HasVar(name), nil
}

func (r RoomRef) DeleteVar(name string) error {
	rm, err := r.resolve()
	if err != nil {
		return err
	}
	rm.DeleteVar(name)
	return nil
}

func (r RoomRef) Aux(name string) (entity.AuxData, error) {
	rm, err := r.resolve()
	if err != nil {
		return nil, err
	}
	return rm.Aux(name), nil
}

func (r RoomRef) AttachTrigger(key string) error {
	rm, err := r.resolve()
	if err != nil {
		return err
	}
	rm.AttachTrigger(key)
	return nil
}

func (r RoomRef) DetachTrigger(key string) (bool, error) {
	rm, err := r.resolve()
	if err != nil {
		return false, err
	}
	return rm.DetachTrigger(key), nil
}

func (r RoomRef) Isinstance(protoKey string) (bool, error) {
	rm, err := r.resolve()
	if err != nil {
		return false, err
	}
	return rm.Isinstance(protoKey), nil
}

func (r RoomRef) Store() (entity.StoreSet, error) {
	rm, err := r.resolve()
	if err != nil {
		return nil, err
	}
	return rm.Store(r.b.reg), nil
}

// ExitRef is the binding surface for one exit uid.
type ExitRef struct {
	b   *Binder
	uid uint64
}

func (r ExitRef) Handle() Handle { return Handle{Kind: entity.KindExit, UID: r.uid} }

func (r ExitRef) UID() uint64 { return r.uid }

func (r ExitRef) resolve() (*entity.Exit, error) {
	ex, ok := r.b.reg.Exit(r.uid)
	if !ok {
		return nil, gone(r.Handle())
	}
	return ex, nil
}

func (r ExitRef) Exists() bool {
	_, ok := r.b.reg.Exit(r.uid)
	return ok
}

// Dest returns a handle to the destination room.
func (r ExitRef) Dest() (Handle, error) {
	ex, err := r.resolve()
	if err != nil {
		return None, err
	}
	if ex.Dest == 0 {
		return None, nil
	}
	return Handle{Kind: entity.KindRoom, UID: ex.Dest}, nil
}

func (r ExitRef) SetDest(dest RoomRef) error {
	ex, err := r.resolve()
	if err != nil {
		return err
	}
	if _, err := dest.resolve(); err != nil {
		return err
	}
	ex.Dest = dest.uid
	return nil
}

func (r ExitRef) Keywords() (string, error) {
	ex, err := r.resolve()
	if err != nil {
		return "", err
	}
	return ex.Keywords, nil
}

func (r ExitRef) SetKeywords(kw string) error {
	ex, err := r.resolve()
	if err != nil {
		return err
	}
	ex.Keywords = kw
	return nil
}

func (r ExitRef) IsClosed() (bool, error) {
	ex, err := r.resolve()
	if err != nil {
		return false, err
	}
	return ex.Closed, nil
}

func (r ExitRef) SetClosed(closed bool) error {
	ex, err := r.resolve()
	if err != nil {
		return err
	}
	if closed && !ex.Closable {
		return fmt.Errorf("exit cannot be closed")
	}
	ex.Closed = closed
	if !closed {
		ex.Locked = false
	}
	return nil
}

func (r ExitRef) IsLocked() (bool, error) {
	ex, err := r.resolve()
	if err != nil {
		return false, err
	}
	return ex.Locked, nil
}

func (r ExitRef) SetLocked(locked bool) error {
	ex, err := r.resolve()
	if err != nil {
		return err
	}
	if locked && !ex.Closed {
		return fmt.Errorf("exit must be closed before locking")
	}
	ex.Locked = locked
	return nil
}

func (r ExitRef) SetVar(name string, val any) error {
	ex, err := r.resolve()
	if err != nil {
		return err
	}
	ex.SetVar(name, val)
	return nil
}

func (r ExitRef) GetVar(name string) (any, error) {
	ex, err := r.resolve()
	if err != nil {
		return nil, err
	}
	v, _ := ex.GetVar(name)
	return v, nil
}

func (r ExitRef) HasVar(name string) (bool, error) {
	ex, err := r.resolve()
	if err != nil {
		return false, err
	}
	return ex.HasVar(name), nil
}

func (r ExitRef) DeleteVar(name string) error {
	ex, err := r.resolve()
	if err != nil {
		return err
	}
	ex.DeleteVar(name)
	return nil
}

func (r ExitRef) AttachTrigger(key string) error {
	ex, err := r.resolve()
	if err != nil {
		return err
	}
	ex.AttachTrigger(key)
	return nil
}

func (r ExitRef) DetachTrigger(key string) (bool, error) {
	ex, err := r.resolve()
	if err != nil {
		return false, err
	}
	return ex.DetachTrigger(key), nil
}
