package bind

import (
	"fmt"

	"github.com/driftmud/driftmud/game/entity"
)

// ObjRef is the binding surface for one object uid.
type ObjRef struct {
	b   *Binder
	uid uint64
}

func (r ObjRef) Handle() Handle { return Handle{Kind: entity.KindObject, UID: r.uid} }

func (r ObjRef) UID() uint64 { return r.uid }

func (r ObjRef) resolve() (*entity.Object, error) {
	o, ok := r.b.reg.Object(r.uid)
	if !ok {
		return nil, gone(r.Handle())
	}
	return o, nil
}

func (r ObjRef) Exists() bool {
	_, ok := r.b.reg.Object(r.uid)
	return ok
}

func (r ObjRef) Name() (string, error) {
	o, err := r.resolve()
	if err != nil {
		return "", err
	}
	return o.Name, nil
}

func (r ObjRef) SetName(name string) error {
	o, err := r.resolve()
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("object name must be a non-empty string")
	}
	o.Name = name
	return nil
}

func (r ObjRef) Desc() (string, error) {
	o, err := r.resolve()
	if err != nil {
		return "", err
	}
	return o.Desc, nil
}

func (r ObjRef) SetDesc(desc string) error {
	o, err := r.resolve()
	if err != nil {
		return err
	}
	o.Desc = desc
	return nil
}

func (r ObjRef) Weight() (float64, error) {
	o, err := r.resolve()
	if err != nil {
		return 0, err
	}
	return o.Weight, nil
}

func (r ObjRef) SetWeight(w float64) error {
	o, err := r.resolve()
	if err != nil {
		return err
	}
	if w < 0 {
		return fmt.Errorf("object weight must not be negative")
	}
	o.Weight = w
	return nil
}

func (r ObjRef) IsWearable() (bool, error) {
	o, err := r.resolve()
	if err != nil {
		return false, err
	}
	return o.Wearable != nil, nil
}

// WornPositions returns the wear descriptor's position lists. Both slices
// are empty for non-wearable objects.
func (r ObjRef) WornPositions() (types, names []string, err error) {
	o, err := r.resolve()
	if err != nil {
		return nil, nil, err
	}
	if o.Wearable == nil {
		return nil, nil, nil
	}
	types = append(types, o.Wearable.PosTypes...)
	names = append(names, o.Wearable.PosNames...)
	return types, names, nil
}

// Slots returns a comma-separated list of the body positions the object
// occupies on its wearer, or "" when it is not worn.
func (r ObjRef) Slots() (string, error) {
	o, err := r.resolve()
	if err != nil {
		return "", err
	}
	return r.b.gear.Slots(o), nil
}

// Location describes where the object currently is. The handle is None for
// a nowhere object.
func (r ObjRef) Location() (entity.LocKind, Handle, error) {
	o, err := r.resolve()
	if err != nil {
		return entity.LocNone, None, err
	}
	loc := o.Loc()
	switch loc.Kind {
	case entity.LocRoom:
		return loc.Kind, Handle{Kind: entity.KindRoom, UID: loc.UID}, nil
	case entity.LocContainer:
		return loc.Kind, Handle{Kind: entity.KindObject, UID: loc.UID}, nil
	case entity.LocCarrier, entity.LocWearer:
		return loc.Kind, Handle{Kind: entity.KindChar, UID: loc.UID}, nil
	}
	return entity.LocNone, None, nil
}

// Carrier returns the character carrying or wearing the object, or None.
func (r ObjRef) Carrier() (Handle, error) {
	o, err := r.resolve()
	if err != nil {
		return None, err
	}
	loc := o.Loc()
	if loc.Kind == entity.LocCarrier || loc.Kind == entity.LocWearer {
		return Handle{Kind: entity.KindChar, UID: loc.UID}, nil
	}
	return None, nil
}

// Contents returns a snapshot of handles to contained objects.
func (r ObjRef) Contents() ([]Handle, error) {
	o, err := r.resolve()
	if err != nil {
		return nil, err
	}
	uids := o.Contents()
	out := make([]Handle, 0, len(uids))
	for _, uid := range uids {
		out = append(out, Handle{Kind: entity.KindObject, UID: uid})
	}
	return out, nil
}

// MoveToRoom relocates the object into a room.
func (r ObjRef) MoveToRoom(room RoomRef) error {
	o, err := r.resolve()
	if err != nil {
		return err
	}
	rm, err2 := room.resolve()
	if err2 != nil {
		return err2
	}
	entity.ObjToRoom(r.b.reg, o, rm)
	return nil
}

// MoveToChar relocates the object into a character's carried inventory.
func (r ObjRef) MoveToChar(ch CharRef) error {
	o, err := r.resolve()
	if err != nil {
		return err
	}
	c, err2 := ch.resolve()
	if err2 != nil {
		return err2
	}
	entity.ObjToChar(r.b.reg, o, c)
	return nil
}

// MoveToContainer relocates the object into another object.
func (r ObjRef) MoveToContainer(dest ObjRef) error {
	o, err := r.resolve()
	if err != nil {
		return err
	}
	d, err2 := dest.resolve()
	if err2 != nil {
		return err2
	}
	if !d.Container {
		return fmt.Errorf("%s is not a container", d.Name)
	}
	if d.UID() == o.UID() {
		return fmt.Errorf("an object cannot contain itself")
	}
	entity.ObjToContainer(r.b.reg, o, d)
	return nil
}

func (r ObjRef) SetVar(name string, val any) error {
	o, err := r.resolve()
	if err != nil {
		return err
	}
	o.SetVar(name, val)
	return nil
}

func (r ObjRef) GetVar(name string) (any, error) {
	o, err := r.resolve()
	if err != nil {
		return nil, err
	}
	v, _ := o.GetVar(name)
	return v, nil
}

func (r ObjRef) HasVar(name string) (bool, error) {
	o, err := r.resolve()
	if err != nil {
		return false, err
	}
	return o.HasVar(name), nil
}

func (r ObjRef) DeleteVar(name string) error {
	o, err := r.resolve()
	if err != nil {
		return err
	}
	o.DeleteVar(name)
	return nil
}

func (r ObjRef) Aux(name string) (entity.AuxData, error) {
	o, err := r.resolve()
	if err != nil {
		return nil, err
	}
	return o.Aux(name), nil
}

func (r ObjRef) AttachTrigger(key string) error {
	o, err := r.resolve()
	if err != nil {
		return err
	}
	o.AttachTrigger(key)
	return nil
}

func (r ObjRef) DetachTrigger(key string) (bool, error) {
	o, err := r.resolve()
	if err != nil {
		return false, err
	}
	return o.DetachTrigger(key), nil
}

func (r ObjRef) Isinstance(protoKey string) (bool, error) {
	o, err := r.resolve()
	if err != nil {
		return false, err
	}
	return o.Isinstance(protoKey), nil
}

func (r ObjRef) Store() (entity.StoreSet, error) {
	o, err := r.resolve()
	if err != nil {
		return nil, err
	}
	return o.Store(), nil
}

// Copy duplicates the object as a fresh nowhere entity and returns its
// handle.
func (r ObjRef) Copy() (Handle, error) {
	o, err := r.resolve()
	if err != nil {
		return None, err
	}
	no := o.Copy(r.b.reg)
	return Handle{Kind: entity.KindObject, UID: no.UID()}, nil
}
