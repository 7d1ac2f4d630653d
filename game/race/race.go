// Package race holds the race table: each race carries a body template that
// new characters of that race are stamped from. World configuration can add
// races beyond the stock set.
package race

import (
	"strings"

	"github.com/driftmud/driftmud/game/body"
	"github.com/driftmud/driftmud/game/entity"
)

// Race is one entry in the race table.
type Race struct {
	Name   string
	Abbrev string
	PCOk   bool

	template *body.Body
}

// Template returns a copy of the race's body template.
func (r *Race) Template() *body.Body { return r.template.Copy() }

// Table maps race names to race data.
type Table struct {
	races map[string]*Race
	order []string
}

// NewTable creates a race table seeded with the stock human race.
func NewTable(v *body.Vocab) *Table {
	t := &Table{races: make(map[string]*Race)}
	t.Add("human", "hum", humanBody(v), true)
	return t
}

// Add registers a race. The body template is copied, so the caller's body
// can be reused or mutated freely afterwards.
func (t *Table) Add(name, abbrev string, template *body.Body, pcOK bool) {
	key := strings.ToLower(name)
	if _, ok := t.races[key]; !ok {
		t.order = append(t.order, key)
	}
	t.races[key] = &Race{Name: name, Abbrev: abbrev, PCOk: pcOK, template: template.Copy()}
}

// Remove unregisters a race. Returns whether it existed.
func (t *Table) Remove(name string) bool {
	key := strings.ToLower(name)
	if _, ok := t.races[key]; !ok {
		return false
	}
	delete(t.races, key)
	for i, n := range t.order {
		if n == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the race data for a name.
func (t *Table) Get(name string) (*Race, bool) {
	r, ok := t.races[strings.ToLower(name)]
	return r, ok
}

// Names returns all registered race names in registration order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// ResetBody discards the character's current body and rebuilds it from the
// character's race template. Anything worn on the old body is forced into
// carried inventory first, since the new body may not have the positions the
// gear occupied. Returns false when the character's race is not registered.
func (t *Table) ResetBody(reg *entity.Registry, ch *entity.Character) bool {
	r, ok := t.Get(ch.Race)
	if !ok {
		return false
	}
	for _, uid := range ch.Body().WornEverywhere() {
		if obj, ok := reg.Object(uid); ok {
			entity.ObjToChar(reg, obj, ch)
		}
	}
	ch.SetBody(r.Template())
	return true
}

// humanBody builds the stock human body template. Weights sum to 100 so
// mass-ratio queries over the whole body read directly as percentages.
func humanBody(v *body.Vocab) *body.Body {
	b := body.New("medium")
	parts := []struct {
		name   string
		ptype  string
		weight int
	}{
		{"right grip", "held", 0},
		{"left grip", "held", 0},
		{"right foot", "right foot", 2},
		{"left foot", "left foot", 2},
		{"right leg", "leg", 9},
		{"left leg", "leg", 9},
		{"waist", "waist", 1},
		{"right ring finger", "finger", 1},
		{"left ring finger", "finger", 1},
		{"left middle finger", "finger", 0},
		{"right middle finger", "finger", 0},
		{"right hand", "right hand", 2},
		{"left hand", "left hand", 2},
		{"right wrist", "wrist", 1},
		{"left wrist", "wrist", 1},
		{"right arm", "arm", 7},
		{"left arm", "arm", 7},
		{"about body", "about body", 0},
		{"torso", "torso", 50},
		{"neck", "neck", 1},
		{"right ear", "ear", 0},
		{"left ear", "ear", 0},
		{"eyes", "eyes", 0},
		{"face", "face", 2},
		{"head", "head", 2},
		{"floating about head", "floating about head", 0},
	}
	for _, p := range parts {
		// Stock parts use stock types; AddPosition cannot fail here.
		_ = b.AddPosition(v, p.name, p.ptype, p.weight)
	}
	return b
}
