package world

import (
	"errors"

	"github.com/driftmud/driftmud/game/bind"
	"github.com/driftmud/driftmud/game/entity"
	"github.com/driftmud/driftmud/game/gear"
	"github.com/driftmud/driftmud/game/trigger"
)

var (
	// ErrNoExit means the direction has no exit or the exit's destination
	// is gone.
	ErrNoExit = errors.New("no exit that way")
	// ErrExitClosed means the exit exists but is closed.
	ErrExitClosed = errors.New("the way is closed")
	// ErrNotHere means the object is not where the operation needs it.
	ErrNotHere = errors.New("not here")
)

// Movement and interaction helpers. These run entity mutations and fire the
// matching triggers; call them on the loop goroutine.

func (e *Engine) char(h bind.Handle) (*entity.Character, error) {
	if h.Kind != entity.KindChar {
		return nil, bind.ErrGone
	}
	ch, ok := e.reg.Char(h.UID)
	if !ok {
		return nil, bind.ErrGone
	}
	return ch, nil
}

func (e *Engine) object(h bind.Handle) (*entity.Object, error) {
	if h.Kind != entity.KindObject {
		return nil, bind.ErrGone
	}
	o, ok := e.reg.Object(h.UID)
	if !ok {
		return nil, bind.ErrGone
	}
	return o, nil
}

func (e *Engine) room(h bind.Handle) (*entity.Room, error) {
	if h.Kind != entity.KindRoom {
		return nil, bind.ErrGone
	}
	rm, ok := e.reg.Room(h.UID)
	if !ok {
		return nil, bind.ErrGone
	}
	return rm, nil
}

// MoveChar walks a character through the exit in the given direction. The
// old room's exit triggers and the new room's enter triggers fire around
// the move.
func (e *Engine) MoveChar(chH bind.Handle, dir string) error {
	ch, err := e.char(chH)
	if err != nil {
		return err
	}
	from, ok := e.reg.Room(ch.RoomUID)
	if !ok {
		return ErrNoExit
	}
	exitUID, ok := from.ExitUID(dir)
	if !ok {
		return ErrNoExit
	}
	ex, ok := e.reg.Exit(exitUID)
	if !ok {
		return ErrNoExit
	}
	if ex.Closed {
		return ErrExitClosed
	}
	dest, ok := e.reg.Room(ex.Dest)
	if !ok {
		return ErrNoExit
	}

	ctx := map[string]any{"actor": e.binder.Ref(chH), "dir": dir}
	e.triggers.Dispatch(trigger.TypeExit, e.handleOf(from.UID()), ctx)
	entity.CharToRoom(e.reg, ch, dest)
	e.triggers.Dispatch(trigger.TypeEnter, e.handleOf(dest.UID()), ctx)
	e.triggers.Dispatch(trigger.TypeEnter, chH, ctx)
	e.publish(Event{Type: "move", Actor: chH.UID, Room: dest.UID(), Dir: dir})
	return nil
}

// TransferChar teleports a character into a room without using exits. Only
// the destination's enter triggers fire.
func (e *Engine) TransferChar(chH, roomH bind.Handle) error {
	ch, err := e.char(chH)
	if err != nil {
		return err
	}
	rm, err := e.room(roomH)
	if err != nil {
		return err
	}
	entity.CharToRoom(e.reg, ch, rm)
	e.triggers.Dispatch(trigger.TypeEnter, roomH,
		map[string]any{"actor": e.binder.Ref(chH)})
	e.publish(Event{Type: "transfer", Actor: chH.UID, Room: roomH.UID})
	return nil
}

// Say fires the speech triggers of the speaker's room and every other
// character in it.
func (e *Engine) Say(chH bind.Handle, text string) error {
	ch, err := e.char(chH)
	if err != nil {
		return err
	}
	rm, ok := e.reg.Room(ch.RoomUID)
	if !ok {
		return ErrNotHere
	}
	ctx := map[string]any{"actor": e.binder.Ref(chH), "text": text}
	e.triggers.Dispatch(trigger.TypeSpeech, e.handleOf(rm.UID()), ctx)
	for _, uid := range rm.Chars() {
		if uid == chH.UID {
			continue
		}
		e.triggers.Dispatch(trigger.TypeSpeech, e.handleOf(uid), ctx)
	}
	e.publish(Event{Type: "say", Actor: chH.UID, Room: rm.UID(), Text: text})
	return nil
}

// GetObj picks an object up off the character's room floor.
func (e *Engine) GetObj(chH, objH bind.Handle) error {
	ch, err := e.char(chH)
	if err != nil {
		return err
	}
	o, err := e.object(objH)
	if err != nil {
		return err
	}
	loc := o.Loc()
	if loc.Kind != entity.LocRoom || loc.UID != ch.RoomUID || ch.RoomUID == 0 {
		return ErrNotHere
	}
	entity.ObjToChar(e.reg, o, ch)
	e.triggers.Dispatch(trigger.TypeGet, objH,
		map[string]any{"actor": e.binder.Ref(chH)})
	return nil
}

// DropObj drops a carried object onto the room floor.
func (e *Engine) DropObj(chH, objH bind.Handle) error {
	ch, err := e.char(chH)
	if err != nil {
		return err
	}
	o, err := e.object(objH)
	if err != nil {
		return err
	}
	if loc := o.Loc(); loc.Kind != entity.LocCarrier || loc.UID != chH.UID {
		return ErrNotHere
	}
	rm, ok := e.reg.Room(ch.RoomUID)
	if !ok {
		return ErrNotHere
	}
	entity.ObjToRoom(e.reg, o, rm)
	e.triggers.Dispatch(trigger.TypeDrop, objH,
		map[string]any{"actor": e.binder.Ref(chH)})
	return nil
}

// WearObj equips an object on a character and fires the object's wear
// triggers on success.
func (e *Engine) WearObj(chH, objH bind.Handle, requested string) (gear.Result, error) {
	ch, err := e.char(chH)
	if err != nil {
		return gear.Result{}, err
	}
	o, err := e.object(objH)
	if err != nil {
		return gear.Result{}, err
	}
	res := e.gear.Equip(ch, o, requested, false, "")
	if res.OK {
		e.triggers.Dispatch(trigger.TypeWear, objH, map[string]any{
			"actor":     e.binder.Ref(chH),
			"positions": res.Positions,
		})
	}
	return res, nil
}

// RemoveObj unequips a worn object back into the wearer's inventory.
func (e *Engine) RemoveObj(chH, objH bind.Handle) error {
	ch, err := e.char(chH)
	if err != nil {
		return err
	}
	o, err := e.object(objH)
	if err != nil {
		return err
	}
	if !e.gear.Unequip(ch, o) {
		return ErrNotHere
	}
	e.triggers.Dispatch(trigger.TypeRemove, objH,
		map[string]any{"actor": e.binder.Ref(chH)})
	return nil
}

// SetExitClosed opens or closes an exit and fires its open/close triggers.
func (e *Engine) SetExitClosed(roomH bind.Handle, dir string, closed bool) error {
	rm, err := e.room(roomH)
	if err != nil {
		return err
	}
	exitUID, ok := rm.ExitUID(dir)
	if !ok {
		return ErrNoExit
	}
	ex, ok := e.reg.Exit(exitUID)
	if !ok {
		return ErrNoExit
	}
	if !ex.Closable {
		return ErrNotHere
	}
	if ex.Closed == closed {
		return nil
	}
	ex.Closed = closed
	if !closed {
		ex.Locked = false
	}
	trigType := trigger.TypeClose
	if !closed {
		trigType = trigger.TypeOpen
	}
	e.triggers.Dispatch(trigType,
		bind.Handle{Kind: entity.KindExit, UID: exitUID},
		map[string]any{"dir": dir})
	return nil
}

// Extract destroys an entity and retires its uid.
func (e *Engine) Extract(h bind.Handle) bool {
	if !e.binder.Extract(h) {
		return false
	}
	e.publish(Event{Type: "extract", Actor: h.UID})
	return true
}
