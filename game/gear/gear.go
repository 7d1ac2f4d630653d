// Package gear implements equipment resolution: matching an item's declared
// position requirements against a character's variable-shape body, layering
// by equipment type, pre-empting same-type occupants, and rolling the world
// back when a placement cannot complete.
package gear

import (
	"strings"

	"github.com/driftmud/driftmud/game/body"
	"github.com/driftmud/driftmud/game/entity"
	"go.uber.org/zap"
)

// Reason classifies why an equip attempt did not succeed. These are routine
// outcomes surfaced to content authors, so each carries a distinct
// human-readable message.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotWearable
	ReasonNoSuchPosition
	ReasonWrongPosition
	ReasonAlreadyEquipped
	ReasonNoCoverage
	ReasonBlocked
)

var reasonMessages = map[Reason]string{
	ReasonNone:            "",
	ReasonNotWearable:     "it cannot be equipped",
	ReasonNoSuchPosition:  "could not equip at specified position",
	ReasonWrongPosition:   "it cannot be equipped there",
	ReasonAlreadyEquipped: "already equipped in all possible positions",
	ReasonNoCoverage:      "could not equip",
	ReasonBlocked:         "could not equip at specified position",
}

// Message returns the author-facing failure message.
func (r Reason) Message() string { return reasonMessages[r] }

// Result is the outcome of an equip attempt.
type Result struct {
	OK        bool
	Reason    Reason
	Positions []string
	Displaced []uint64
}

func fail(r Reason) Result { return Result{Reason: r} }

// Engine resolves equip and unequip operations against the identity table.
type Engine struct {
	reg    *entity.Registry
	logger *zap.Logger
}

// New creates an equipment Engine.
func New(reg *entity.Registry, logger *zap.Logger) *Engine {
	return &Engine{reg: reg, logger: logger}
}

// typeAllowed reports whether the descriptor permits occupying a position of
// the given type or name.
func typeAllowed(d *entity.WornDescriptor, posName, posType string) bool {
	if d == nil {
		return false
	}
	for _, n := range d.PosNames {
		if strings.EqualFold(n, posName) {
			return true
		}
	}
	for _, t := range d.PosTypes {
		if strings.EqualFold(t, posType) {
			return true
		}
	}
	return false
}

// Equip attempts to place obj on ch's body. requested is an optional
// comma-separated list of explicit position names; when empty the
// candidate positions are derived from the item's worn descriptor.
// equipType overrides the item's layering tag when non-empty. forced
// bypasses category validation for explicit positions and permits
// displacing same-type occupants during automatic placement.
//
// On failure the world is left exactly as it was: the item keeps its prior
// location and no prior occupant has moved.
func (e *Engine) Equip(ch *entity.Character, obj *entity.Object, requested string, forced bool, equipType string) Result {
	if equipType == "" {
		equipType = obj.EquipType()
	}
	b := ch.Body()

	var names []string
	var preempt []uint64

	if requested != "" {
		req := dedupeFold(body.ParseKeywords(requested))
		if len(req) == 0 {
			return fail(ReasonNoSuchPosition)
		}
		for _, name := range req {
			ptype, ok := b.PartType(name)
			if !ok {
				return fail(ReasonNoSuchPosition)
			}
			if !forced && !typeAllowed(obj.Wearable, name, ptype) {
				return fail(ReasonWrongPosition)
			}
		}
		names = req
		// Explicitly requested positions pre-empt their same-type occupants.
		preempt = b.SameTypeOccupants(names, equipType)
	} else {
		d := obj.Wearable
		if d == nil {
			return fail(ReasonNotWearable)
		}
		if len(d.PosNames) > 0 {
			res, pre, ok := e.coverNames(b, obj, d.PosNames, equipType, forced)
			if !ok {
				return res
			}
			names, preempt = res.Positions, pre
		} else {
			res, pre, ok := e.coverTypes(b, obj, d.PosTypes, equipType, forced)
			if !ok {
				return res
			}
			names, preempt = res.Positions, pre
		}
	}

	// Pre-emption: same-type occupants fall to the wearer's carried
	// inventory. Capture enough state to put them back if placement fails.
	type displacedItem struct {
		obj       *entity.Object
		slots     []string
		equipType string
	}
	var displaced []displacedItem
	for _, uid := range preempt {
		prior, ok := e.reg.Object(uid)
		if !ok {
			continue
		}
		displaced = append(displaced, displacedItem{
			obj:       prior,
			slots:     b.SlotsOf(uid),
			equipType: wornTypeOf(b, uid),
		})
		entity.ObjToChar(e.reg, prior, ch)
		e.logger.Debug("equipment displaced",
			zap.String("char", ch.Name),
			zap.String("item", prior.Name),
			zap.Uint64("uid", uid))
	}

	// Capture the item's own prior placement for rollback, then detach it.
	var prevSlots []string
	var prevType string
	var prevWearer *entity.Character
	if loc := obj.Loc(); loc.Kind == entity.LocWearer {
		if w, ok := e.reg.Char(loc.UID); ok {
			prevWearer = w
			prevSlots = w.Body().SlotsOf(obj.UID())
			prevType = wornTypeOf(w.Body(), obj.UID())
		}
	}
	prior := entity.RemoveFromLocation(e.reg, obj)

	if !b.Occupy(obj.UID(), equipType, names) {
		// Roll back: the item returns to its prior placement and every
		// pre-empted occupant returns to its slots.
		if prior.Kind == entity.LocWearer && prevWearer != nil {
			prevWearer.Body().Occupy(obj.UID(), prevType, prevSlots)
			entity.MarkWorn(obj, prevWearer)
		} else {
			entity.RestoreLocation(e.reg, obj, prior)
		}
		for _, d := range displaced {
			entity.RemoveFromLocation(e.reg, d.obj)
			b.Occupy(d.obj.UID(), d.equipType, d.slots)
			entity.MarkWorn(d.obj, ch)
		}
		return fail(ReasonBlocked)
	}
	entity.MarkWorn(obj, ch)

	out := Result{OK: true, Positions: names}
	for _, d := range displaced {
		out.Displaced = append(out.Displaced, d.obj.UID())
	}
	return out
}

// coverTypes finds one free position per required type, first-declared
// first. forced may claim occupied positions, displacing their same-type
// occupants.
func (e *Engine) coverTypes(b *body.Body, obj *entity.Object, types []string, equipType string, forced bool) (Result, []uint64, bool) {
	var names []string
	var preempt []uint64
	for _, posType := range types {
		part := b.FreePartOfType(posType, equipType, names)
		if part == nil {
			if len(b.SlotsOf(obj.UID())) > 0 {
				return fail(ReasonAlreadyEquipped), nil, false
			}
			if !forced {
				return fail(ReasonNoCoverage), nil, false
			}
			part = b.AnyPartOfType(posType, names)
			if part == nil {
				return fail(ReasonNoCoverage), nil, false
			}
			preempt = append(preempt, b.SameTypeOccupants([]string{part.Name}, equipType)...)
		}
		names = append(names, part.Name)
	}
	if len(names) == 0 {
		return fail(ReasonNoCoverage), nil, false
	}
	return Result{Positions: names}, preempt, true
}

// coverNames validates a descriptor's explicit position override list.
func (e *Engine) coverNames(b *body.Body, obj *entity.Object, posNames []string, equipType string, forced bool) (Result, []uint64, bool) {
	names := dedupeFold(posNames)
	for _, name := range names {
		if !b.HasPosition(name) {
			return fail(ReasonNoSuchPosition), nil, false
		}
	}
	occupied := b.SameTypeOccupants(names, equipType)
	if len(occupied) > 0 && !forced {
		if len(b.SlotsOf(obj.UID())) > 0 {
			return fail(ReasonAlreadyEquipped), nil, false
		}
		return fail(ReasonNoCoverage), nil, false
	}
	return Result{Positions: names}, occupied, true
}

// Unequip removes a worn item from whoever wears it and places it in that
// wearer's carried inventory. It succeeds unconditionally whenever the item
// is actually worn by ch.
func (e *Engine) Unequip(ch *entity.Character, obj *entity.Object) bool {
	loc := obj.Loc()
	if loc.Kind != entity.LocWearer || loc.UID != ch.UID() {
		return false
	}
	entity.ObjToChar(e.reg, obj, ch)
	return true
}

// EquipAt returns the uids of every item worn at the named position.
func (e *Engine) EquipAt(ch *entity.Character, pos string) []uint64 {
	var out []uint64
	seen := make(map[uint64]bool)
	for _, w := range ch.Body().WornAt(pos) {
		if !seen[w.UID] {
			seen[w.UID] = true
			out = append(out, w.UID)
		}
	}
	return out
}

// Slots returns a comma-separated list of the positions obj occupies on its
// wearer, or "" when it is not worn.
func (e *Engine) Slots(obj *entity.Object) string {
	loc := obj.Loc()
	if loc.Kind != entity.LocWearer {
		return ""
	}
	ch, ok := e.reg.Char(loc.UID)
	if !ok {
		return ""
	}
	return strings.Join(ch.Body().SlotsOf(obj.UID()), ", ")
}

// SlotTypes returns the distinct position types present on the character's
// body, in declaration order.
func (e *Engine) SlotTypes(ch *entity.Character) []string {
	var out []string
	for _, p := range ch.Body().Parts() {
		if !containsFold(out, p.Type) {
			out = append(out, p.Type)
		}
	}
	return out
}

// wornTypeOf returns the equipment type the item is currently worn under.
func wornTypeOf(b *body.Body, uid uint64) string {
	for _, name := range b.SlotsOf(uid) {
		for _, w := range b.WornAt(name) {
			if w.UID == uid {
				return w.EquipType
			}
		}
	}
	return "worn"
}

func dedupeFold(in []string) []string {
	var out []string
	for _, s := range in {
		if !containsFold(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, e := range list {
		if strings.EqualFold(e, s) {
			return true
		}
	}
	return false
}
