// Package body implements the variable-shape body model: a character's body
// is a bag of named, typed, weighted positions rather than a fixed set of
// limbs, so races and scripted transformations can reshape it at runtime.
package body

import (
	"errors"
	"math/rand"
	"strings"
)

var (
	// ErrDuplicatePosition is returned when adding a position whose name
	// already exists on the body.
	ErrDuplicatePosition = errors.New("body: position already exists")
	// ErrUnknownType is returned when adding a position with an unregistered
	// position type.
	ErrUnknownType = errors.New("body: unknown position type")
)

// Worn records one item occupying a position, together with the layering
// equipment type it was equipped under. Items of different equipment types
// stack on the same position; items of the same type conflict.
type Worn struct {
	UID       uint64
	EquipType string
}

// Bodypart is a single named position on a body.
type Bodypart struct {
	Name   string
	Type   string
	Weight int
	worn   []Worn
}

// Body is an ordered collection of bodyparts. Declaration order is
// significant: automatic equipment placement picks the first eligible
// position in declaration order, which keeps placement deterministic.
type Body struct {
	parts []*Bodypart
	size  string
}

// New creates an empty Body with the given size classification.
func New(size string) *Body {
	return &Body{size: size}
}

// Copy returns a deep copy of the body without any equipment occupancy.
func (b *Body) Copy() *Body {
	nb := &Body{size: b.size, parts: make([]*Bodypart, 0, len(b.parts))}
	for _, p := range b.parts {
		nb.parts = append(nb.parts, &Bodypart{Name: p.Name, Type: p.Type, Weight: p.Weight})
	}
	return nb
}

// Size returns the body's size classification name.
func (b *Body) Size() string { return b.size }

// SetSize sets the body's size classification name.
func (b *Body) SetSize(size string) { b.size = size }

func (b *Body) find(name string) *Bodypart {
	for _, p := range b.parts {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// AddPosition adds a named position of the given type and weight. It fails
// if the name is already taken on this body or the type is not registered in
// the vocabulary. Weights below zero are clamped to zero; zero-weight parts
// exist but can never be selected as a random hit location.
func (b *Body) AddPosition(v *Vocab, name, posType string, weight int) error {
	if b.find(name) != nil {
		return ErrDuplicatePosition
	}
	if !v.HasPositionType(posType) {
		return ErrUnknownType
	}
	if weight < 0 {
		weight = 0
	}
	b.parts = append(b.parts, &Bodypart{Name: name, Type: posType, Weight: weight})
	return nil
}

// RemovePosition removes the named position. It returns the worn entries
// that were occupying the position so the caller can relocate the items, and
// whether the position existed at all.
func (b *Body) RemovePosition(name string) ([]Worn, bool) {
	for i, p := range b.parts {
		if strings.EqualFold(p.Name, name) {
			displaced := p.worn
			b.parts = append(b.parts[:i], b.parts[i+1:]...)
			return displaced, true
		}
	}
	return nil, false
}

// PartType returns the position type of the named position.
func (b *Body) PartType(name string) (string, bool) {
	if p := b.find(name); p != nil {
		return p.Type, true
	}
	return "", false
}

// HasPosition reports whether the named position exists on the body.
func (b *Body) HasPosition(name string) bool { return b.find(name) != nil }

// NumParts returns the number of positions on the body.
func (b *Body) NumParts() int { return len(b.parts) }

// PartNames returns all position names in declaration order.
func (b *Body) PartNames() []string {
	names := make([]string, len(b.parts))
	for i, p := range b.parts {
		names[i] = p.Name
	}
	return names
}

// Parts returns a snapshot of the body's positions, without occupancy.
func (b *Body) Parts() []Bodypart {
	out := make([]Bodypart, len(b.parts))
	for i, p := range b.parts {
		out[i] = Bodypart{Name: p.Name, Type: p.Type, Weight: p.Weight}
	}
	return out
}

// RandomPart selects a position name with probability proportional to part
// weight. filter is an optional comma-separated list of position types to
// draw from; empty means the whole body. Returns false when no position with
// positive weight matches.
func (b *Body) RandomPart(r *rand.Rand, filter string) (string, bool) {
	types := ParseKeywords(filter)
	match := func(p *Bodypart) bool {
		return len(types) == 0 || containsFold(types, p.Type)
	}

	sum := 0
	for _, p := range b.parts {
		if match(p) {
			sum += p.Weight
		}
	}
	if sum <= 0 {
		return "", false
	}

	roll := r.Intn(sum) + 1
	for _, p := range b.parts {
		if !match(p) {
			continue
		}
		roll -= p.Weight
		if roll <= 0 {
			return p.Name, true
		}
	}
	// Unreachable while weights are non-negative.
	return "", false
}

// MassRatio returns the summed weight of the named positions divided by the
// body's total weight, in [0, 1]. names is a comma-separated list of
// position names.
func (b *Body) MassRatio(names string) float64 {
	wanted := ParseKeywords(names)
	var part, total float64
	for _, p := range b.parts {
		total += float64(p.Weight)
		if containsFold(wanted, p.Name) {
			part += float64(p.Weight)
		}
	}
	if total == 0 {
		return 0
	}
	return part / total
}

// WornAt returns a snapshot of the worn entries at the named position.
func (b *Body) WornAt(name string) []Worn {
	p := b.find(name)
	if p == nil {
		return nil
	}
	out := make([]Worn, len(p.worn))
	copy(out, p.worn)
	return out
}

// WornEverywhere returns every distinct item uid worn anywhere on the body.
func (b *Body) WornEverywhere() []uint64 {
	var out []uint64
	seen := make(map[uint64]bool)
	for _, p := range b.parts {
		for _, w := range p.worn {
			if !seen[w.UID] {
				seen[w.UID] = true
				out = append(out, w.UID)
			}
		}
	}
	return out
}

// SlotsOf returns the names of every position the item occupies, in
// declaration order.
func (b *Body) SlotsOf(uid uint64) []string {
	var out []string
	for _, p := range b.parts {
		for _, w := range p.worn {
			if w.UID == uid {
				out = append(out, p.Name)
				break
			}
		}
	}
	return out
}

// hasEquipType reports whether the part already carries an item of the given
// equipment type.
func (p *Bodypart) hasEquipType(equipType string) bool {
	for _, w := range p.worn {
		if strings.EqualFold(w.EquipType, equipType) {
			return true
		}
	}
	return false
}

// sameTypeOccupants returns the uids of items of the given equipment type on
// the part.
func (p *Bodypart) sameTypeOccupants(equipType string) []uint64 {
	var out []uint64
	for _, w := range p.worn {
		if strings.EqualFold(w.EquipType, equipType) {
			out = append(out, w.UID)
		}
	}
	return out
}

// FreePartOfType returns the first position (declaration order) of the given
// type with no occupant of the given equipment type, skipping positions
// named in exclude. Returns nil when none is free.
func (b *Body) FreePartOfType(posType, equipType string, exclude []string) *Bodypart {
	for _, p := range b.parts {
		if !strings.EqualFold(p.Type, posType) {
			continue
		}
		if containsFold(exclude, p.Name) {
			continue
		}
		if p.hasEquipType(equipType) {
			continue
		}
		return p
	}
	return nil
}

// AnyPartOfType returns the first position of the given type, occupied or
// not, skipping positions named in exclude.
func (b *Body) AnyPartOfType(posType string, exclude []string) *Bodypart {
	for _, p := range b.parts {
		if !strings.EqualFold(p.Type, posType) {
			continue
		}
		if containsFold(exclude, p.Name) {
			continue
		}
		return p
	}
	return nil
}

// SameTypeOccupants returns the distinct uids of items of the given
// equipment type occupying any of the named positions.
func (b *Body) SameTypeOccupants(names []string, equipType string) []uint64 {
	var out []uint64
	seen := make(map[uint64]bool)
	for _, name := range names {
		p := b.find(name)
		if p == nil {
			continue
		}
		for _, uid := range p.sameTypeOccupants(equipType) {
			if !seen[uid] {
				seen[uid] = true
				out = append(out, uid)
			}
		}
	}
	return out
}

// Occupy records the item as worn at each of the named positions. Every name
// must exist and must not already carry an item of the same equipment type;
// on any violation nothing is recorded and false is returned.
func (b *Body) Occupy(uid uint64, equipType string, names []string) bool {
	parts := make([]*Bodypart, 0, len(names))
	for _, name := range names {
		p := b.find(name)
		if p == nil || p.hasEquipType(equipType) {
			return false
		}
		parts = append(parts, p)
	}
	for _, p := range parts {
		p.worn = append(p.worn, Worn{UID: uid, EquipType: equipType})
	}
	return true
}

// Release removes the item from every position it occupies. Returns whether
// it was worn anywhere.
func (b *Body) Release(uid uint64) bool {
	found := false
	for _, p := range b.parts {
		n := 0
		for _, w := range p.worn {
			if w.UID != uid {
				p.worn[n] = w
				n++
			} else {
				found = true
			}
		}
		p.worn = p.worn[:n]
	}
	return found
}
