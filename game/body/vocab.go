package body

import "strings"

// Default body sizes, ordered smallest to largest. The index of a size in the
// vocabulary is its ordering for game-mechanical comparisons.
var defaultSizes = []string{
	"diminutive",
	"tiny",
	"small",
	"medium",
	"large",
	"huge",
	"gargantuan",
	"colossal",
}

// Default position types. World configuration may register more.
var defaultPosTypes = []string{
	"floating about head", "about body", "head", "face", "eyes", "ear", "neck",
	"torso", "arm", "wing", "wrist", "left hand", "right hand", "hand",
	"finger", "waist", "leg", "left foot", "right foot", "foot", "hoof",
	"claw", "tail", "held", "hands", "legs", "feet", "wings", "hooves",
}

// Vocab holds the extensible vocabularies of body position types and body
// sizes. One Vocab is shared per game instance; it is not safe for concurrent
// mutation, which is fine under the single-writer engine loop.
type Vocab struct {
	posTypes []string
	sizes    []string
}

// NewVocab creates a Vocab seeded with the stock position types and sizes.
func NewVocab() *Vocab {
	v := &Vocab{
		posTypes: make([]string, len(defaultPosTypes)),
		sizes:    make([]string, len(defaultSizes)),
	}
	copy(v.posTypes, defaultPosTypes)
	copy(v.sizes, defaultSizes)
	return v
}

func indexFold(list []string, name string) int {
	for i, s := range list {
		if strings.EqualFold(s, name) {
			return i
		}
	}
	return -1
}

// HasPositionType reports whether name is a registered position type.
func (v *Vocab) HasPositionType(name string) bool {
	return indexFold(v.posTypes, name) >= 0
}

// AddPositionType registers a new position type. Returns false if it already
// exists.
func (v *Vocab) AddPositionType(name string) bool {
	if indexFold(v.posTypes, name) >= 0 {
		return false
	}
	v.posTypes = append(v.posTypes, name)
	return true
}

// RemovePositionType unregisters a position type. Returns false if not found.
func (v *Vocab) RemovePositionType(name string) bool {
	i := indexFold(v.posTypes, name)
	if i < 0 {
		return false
	}
	v.posTypes = append(v.posTypes[:i], v.posTypes[i+1:]...)
	return true
}

// PositionTypes returns a snapshot of all registered position types.
func (v *Vocab) PositionTypes() []string {
	out := make([]string, len(v.posTypes))
	copy(out, v.posTypes)
	return out
}

// SizeIndex returns the ordering index of a size name, or -1 if unknown.
func (v *Vocab) SizeIndex(name string) int {
	return indexFold(v.sizes, name)
}

// SizeName returns the size name at the given ordering index, or "" if the
// index is out of range.
func (v *Vocab) SizeName(i int) string {
	if i < 0 || i >= len(v.sizes) {
		return ""
	}
	return v.sizes[i]
}

// AddSize registers a new body size at the large end of the ordering.
// Returns false if it already exists.
func (v *Vocab) AddSize(name string) bool {
	if indexFold(v.sizes, name) >= 0 {
		return false
	}
	v.sizes = append(v.sizes, name)
	return true
}

// RemoveSize unregisters a body size. Returns false if not found.
func (v *Vocab) RemoveSize(name string) bool {
	i := indexFold(v.sizes, name)
	if i < 0 {
		return false
	}
	v.sizes = append(v.sizes[:i], v.sizes[i+1:]...)
	return true
}

// Sizes returns a snapshot of all registered sizes, smallest first.
func (v *Vocab) Sizes() []string {
	out := make([]string, len(v.sizes))
	copy(out, v.sizes)
	return out
}

// ParseKeywords splits a comma-separated keyword list ("left hand, right
// hand") into trimmed, non-empty entries.
func ParseKeywords(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		k = strings.TrimSpace(k)
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// containsFold reports whether name appears in the keyword list.
func containsFold(list []string, name string) bool {
	return indexFold(list, name) >= 0
}
