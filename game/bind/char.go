package bind

import (
	"fmt"

	"github.com/driftmud/driftmud/game/entity"
	"github.com/driftmud/driftmud/game/gear"
)

// CharRef is the binding surface for one character uid. Every method
// re-resolves the uid; none caches a native pointer.
type CharRef struct {
	b   *Binder
	uid uint64
}

// Handle returns the value-equality handle for this ref.
func (r CharRef) Handle() Handle { return Handle{Kind: entity.KindChar, UID: r.uid} }

// UID returns the referenced uid.
func (r CharRef) UID() uint64 { return r.uid }

func (r CharRef) resolve() (*entity.Character, error) {
	ch, ok := r.b.reg.Char(r.uid)
	if !ok {
		return nil, gone(r.Handle())
	}
	return ch, nil
}

// Exists reports whether the character is still live.
func (r CharRef) Exists() bool {
	_, ok := r.b.reg.Char(r.uid)
	return ok
}

func (r CharRef) Name() (string, error) {
	ch, err := r.resolve()
	if err != nil {
		return "", err
	}
	return ch.Name, nil
}

func (r CharRef) SetName(name string) error {
	ch, err := r.resolve()
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("char name must be a non-empty string")
	}
	ch.Name = name
	return nil
}

func (r CharRef) Desc() (string, error) {
	ch, err := r.resolve()
	if err != nil {
		return "", err
	}
	return ch.Desc, nil
}

func (r CharRef) SetDesc(desc string) error {
	ch, err := r.resolve()
	if err != nil {
		return err
	}
	ch.Desc = desc
	return nil
}

func (r CharRef) Race() (string, error) {
	ch, err := r.resolve()
	if err != nil {
		return "", err
	}
	return ch.Race, nil
}

// SetRace changes the character's race. The race must be registered; the
// body is not rebuilt until ResetBody is called.
func (r CharRef) SetRace(name string) error {
	ch, err := r.resolve()
	if err != nil {
		return err
	}
	if _, ok := r.b.races.Get(name); !ok {
		return fmt.Errorf("unknown race %q", name)
	}
	ch.Race = name
	return nil
}

func (r CharRef) Sex() (string, error) {
	ch, err := r.resolve()
	if err != nil {
		return "", err
	}
	return ch.Sex, nil
}

func (r CharRef) SetSex(sex string) error {
	ch, err := r.resolve()
	if err != nil {
		return err
	}
	if !entity.ValidSex(sex) {
		return fmt.Errorf("unknown sex %q", sex)
	}
	ch.Sex = sex
	return nil
}

func (r CharRef) Posture() (string, error) {
	ch, err := r.resolve()
	if err != nil {
		return "", err
	}
	return ch.Posture().String(), nil
}

func (r CharRef) SetPosture(name string) error {
	ch, err := r.resolve()
	if err != nil {
		return err
	}
	p := entity.ParsePosture(name)
	if p == entity.PostureNone {
		return fmt.Errorf("unknown posture %q", name)
	}
	ch.SetPosture(p)
	return nil
}

// Room returns a handle to the character's room, or None when roomless.
func (r CharRef) Room() (Handle, error) {
	ch, err := r.resolve()
	if err != nil {
		return None, err
	}
	if ch.RoomUID == 0 {
		return None, nil
	}
	return Handle{Kind: entity.KindRoom, UID: ch.RoomUID}, nil
}

// Inventory returns a snapshot of handles to carried objects. Mutating the
// native inventory afterwards does not affect the returned slice.
func (r CharRef) Inventory() ([]Handle, error) {
	ch, err := r.resolve()
	if err != nil {
		return nil, err
	}
	uids := ch.Inventory()
	out := make([]Handle, 0, len(uids))
	for _, uid := range uids {
		out = append(out, Handle{Kind: entity.KindObject, UID: uid})
	}
	return out, nil
}

// Equipment returns a snapshot of handles to every item worn anywhere on
// the body.
func (r CharRef) Equipment() ([]Handle, error) {
	ch, err := r.resolve()
	if err != nil {
		return nil, err
	}
	uids := ch.Body().WornEverywhere()
	out := make([]Handle, 0, len(uids))
	for _, uid := range uids {
		out = append(out, Handle{Kind: entity.KindObject, UID: uid})
	}
	return out, nil
}

// ---- body mutation ----

func (r CharRef) AddBodypart(name, posType string, weight int) error {
	ch, err := r.resolve()
	if err != nil {
		return err
	}
	return ch.Body().AddPosition(r.b.vocab, name, posType, weight)
}

// RemoveBodypart removes the named position; anything equipped there falls
// to the carried inventory.
func (r CharRef) RemoveBodypart(name string) (bool, error) {
	ch, err := r.resolve()
	if err != nil {
		return false, err
	}
	displaced, ok := ch.Body().RemovePosition(name)
	if !ok {
		return false, nil
	}
	for _, w := range displaced {
		if obj, found := r.b.reg.Object(w.UID); found {
			entity.ObjToChar(r.b.reg, obj, ch)
		}
	}
	return true, nil
}

func (r CharRef) BodypartType(name string) (string, error) {
	ch, err := r.resolve()
	if err != nil {
		return "", err
	}
	t, _ := ch.Body().PartType(name)
	return t, nil
}

// RandomBodypart returns a weighted-random position name, optionally
// filtered by a comma-separated list of position types. Returns "" when
// nothing matches.
func (r CharRef) RandomBodypart(filter string) (string, error) {
	ch, err := r.resolve()
	if err != nil {
		return "", err
	}
	name, _ := ch.Body().RandomPart(r.b.rng, filter)
	return name, nil
}

// Bodyparts returns a snapshot of the body's position names in declaration
// order.
func (r CharRef) Bodyparts() ([]string, error) {
	ch, err := r.resolve()
	if err != nil {
		return nil, err
	}
	return ch.Body().PartNames(), nil
}

// MassRatio returns the weight fraction of the named positions.
func (r CharRef) MassRatio(names string) (float64, error) {
	ch, err := r.resolve()
	if err != nil {
		return 0, err
	}
	return ch.Body().MassRatio(names), nil
}

// ResetBody rebuilds the body from the character's race template.
func (r CharRef) ResetBody() error {
	ch, err := r.resolve()
	if err != nil {
		return err
	}
	if !r.b.races.ResetBody(r.b.reg, ch) {
		return fmt.Errorf("unknown race %q", ch.Race)
	}
	return nil
}

// ---- equipment ----

// Equip attempts to equip the object, returning the gear result. Routine
// failures arrive in the result; only stale handles produce an error.
func (r CharRef) Equip(obj ObjRef, requested string, forced bool, equipType string) (gear.Result, error) {
	ch, err := r.resolve()
	if err != nil {
		return gear.Result{}, err
	}
	o, err2 := obj.resolve()
	if err2 != nil {
		return gear.Result{}, err2
	}
	return r.b.gear.Equip(ch, o, requested, forced, equipType), nil
}

// Unequip removes a worn object into the carried inventory.
func (r CharRef) Unequip(obj ObjRef) (bool, error) {
	ch, err := r.resolve()
	if err != nil {
		return false, err
	}
	o, err2 := obj.resolve()
	if err2 != nil {
		return false, err2
	}
	return r.b.gear.Unequip(ch, o), nil
}

// EquipAt returns a snapshot of handles worn at the named position.
func (r CharRef) EquipAt(pos string) ([]Handle, error) {
	ch, err := r.resolve()
	if err != nil {
		return nil, err
	}
	uids := r.b.gear.EquipAt(ch, pos)
	out := make([]Handle, 0, len(uids))
	for _, uid := range uids {
		out = append(out, Handle{Kind: entity.KindObject, UID: uid})
	}
	return out, nil
}

// SlotTypes returns the distinct position types on the character's body.
func (r CharRef) SlotTypes() ([]string, error) {
	ch, err := r.resolve()
	if err != nil {
		return nil, err
	}
	return r.b.gear.SlotTypes(ch), nil
}

// ---- shared entity surface ----

func (r CharRef) SetVar(name string, val any) error {
	ch, err := r.resolve()
	if err != nil {
		return err
	}
	ch.SetVar(name, val)
	return nil
}

func (r CharRef) GetVar(name string) (any, error) {
	ch, err := r.resolve()
	if err != nil {
		return nil, err
	}
	v, _ := ch.GetVar(name)
	return v, nil
}

func (r CharRef) HasVar(name string) (bool, error) {
	ch, err := r.resolve()
	if err != nil {
		return false, err
	}
	return ch.HasVar(name), nil
}

func (r CharRef) DeleteVar(name string) error {
	ch, err := r.resolve()
	if err != nil {
		return err
	}
	ch.DeleteVar(name)
	return nil
}

// Aux returns the named auxiliary data blob, or nil when not installed.
func (r CharRef) Aux(name string) (entity.AuxData, error) {
	ch, err := r.resolve()
	if err != nil {
		return nil, err
	}
	return ch.Aux(name), nil
}

func (r CharRef) AttachTrigger(key string) error {
	ch, err := r.resolve()
	if err != nil {
		return err
	}
	ch.AttachTrigger(key)
	return nil
}

func (r CharRef) DetachTrigger(key string) (bool, error) {
	ch, err := r.resolve()
	if err != nil {
		return false, err
	}
	return ch.DetachTrigger(key), nil
}

func (r CharRef) Isinstance(protoKey string) (bool, error) {
	ch, err := r.resolve()
	if err != nil {
		return false, err
	}
	return ch.Isinstance(protoKey), nil
}

// Store serializes the character to a storage set.
func (r CharRef) Store() (entity.StoreSet, error) {
	ch, err := r.resolve()
	if err != nil {
		return nil, err
	}
	return ch.Store(), nil
}

// Copy creates a new live character duplicating this one and returns its
// handle.
func (r CharRef) Copy() (Handle, error) {
	ch, err := r.resolve()
	if err != nil {
		return None, err
	}
	nc := ch.Copy(r.b.reg)
	return Handle{Kind: entity.KindChar, UID: nc.UID()}, nil
}
