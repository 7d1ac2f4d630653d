package entity

import (
	"strings"

	"github.com/driftmud/driftmud/game/body"
)

// Posture is a character's bodily position, ordered from least to most
// upright. The ordering matters: postures at or above standing dismount
// furniture.
type Posture int

const (
	PostureNone Posture = iota - 1
	PostureUnconscious
	PostureSleeping
	PostureSitting
	PostureStanding
	PostureFlying
)

var postureNames = []string{"unconscious", "sleeping", "sitting", "standing", "flying"}

func (p Posture) String() string {
	if p < 0 || int(p) >= len(postureNames) {
		return "none"
	}
	return postureNames[p]
}

// ParsePosture returns the Posture for a name, or PostureNone if unknown.
func ParsePosture(name string) Posture {
	for i, n := range postureNames {
		if strings.EqualFold(n, name) {
			return Posture(i)
		}
	}
	return PostureNone
}

// Sex vocabulary carried over from the stock character data.
var sexNames = []string{"male", "female", "non-binary", "other", "neutral"}

// ValidSex reports whether name is a recognized sex value.
func ValidSex(name string) bool {
	for _, n := range sexNames {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// Character is a player character or NPC. Its body is owned by the character
// and destroyed with it; worn equipment occupancy lives on the body.
type Character struct {
	base
	Name string
	Desc string
	Race string
	Sex  string

	posture      Posture
	body         *body.Body
	RoomUID      uint64
	FurnitureUID uint64
	inventory    []uint64
}

// NewCharacter creates an unregistered character with an empty medium body.
func NewCharacter(ar *AuxRegistry, name string) *Character {
	return &Character{
		base:    newBase(KindChar, ar),
		Name:    name,
		Sex:     "neutral",
		posture: PostureStanding,
		body:    body.New("medium"),
	}
}

// Body returns the character's body.
func (ch *Character) Body() *body.Body { return ch.body }

// SetBody replaces the character's body. The caller is responsible for
// relocating any equipment worn on the old body first.
func (ch *Character) SetBody(b *body.Body) { ch.body = b }

// Posture returns the character's current posture.
func (ch *Character) Posture() Posture { return ch.posture }

// SetPosture changes the character's posture. Moving to standing or higher
// dismounts any furniture, since an upright character cannot occupy it.
func (ch *Character) SetPosture(p Posture) {
	ch.posture = p
	if p >= PostureStanding {
		ch.FurnitureUID = 0
	}
}

// AddToInventory appends an object uid to the carried inventory.
func (ch *Character) AddToInventory(uid uint64) {
	for _, u := range ch.inventory {
		if u == uid {
			return
		}
	}
	ch.inventory = append(ch.inventory, uid)
}

// RemoveFromInventory removes an object uid from the carried inventory.
// Returns whether it was carried.
func (ch *Character) RemoveFromInventory(uid uint64) bool {
	for i, u := range ch.inventory {
		if u == uid {
			ch.inventory = append(ch.inventory[:i], ch.inventory[i+1:]...)
			return true
		}
	}
	return false
}

// Carries reports whether the object uid is in the carried inventory.
func (ch *Character) Carries(uid uint64) bool {
	for _, u := range ch.inventory {
		if u == uid {
			return true
		}
	}
	return false
}

// Inventory returns a snapshot of carried object uids.
func (ch *Character) Inventory() []uint64 {
	out := make([]uint64, len(ch.inventory))
	copy(out, ch.inventory)
	return out
}

// Copy creates and registers a new character duplicating this one: fields,
// body shape, vars, aux data, prototypes, and trigger attachments. Inventory
// and worn equipment are not duplicated, and the copy starts outside any
// room.
func (ch *Character) Copy(reg *Registry) *Character {
	nc := &Character{
		base:    ch.copyBase(),
		Name:    ch.Name,
		Desc:    ch.Desc,
		Race:    ch.Race,
		Sex:     ch.Sex,
		posture: ch.posture,
		body:    ch.body.Copy(),
	}
	reg.Register(nc)
	return nc
}
