package entity

// Storage sets are generic nested key-value maps: the serialized form every
// entity reduces to and is rebuilt from. They survive a JSON round-trip, so
// loaders must tolerate numbers coming back as float64.

import "github.com/driftmud/driftmud/game/body"

// StoreSet is one serialized entity or sub-record.
type StoreSet = map[string]any

func setString(set StoreSet, key string) string {
	if v, ok := set[key].(string); ok {
		return v
	}
	return ""
}

func setBool(set StoreSet, key string) bool {
	if v, ok := set[key].(bool); ok {
		return v
	}
	return false
}

// SetUint64 coerces a numeric storage value to uint64. JSON decoding yields
// float64; native sets may hold uint64 or int.
func SetUint64(set StoreSet, key string) uint64 {
	switch v := set[key].(type) {
	case uint64:
		return v
	case int64:
		return uint64(v)
	case int:
		return uint64(v)
	case float64:
		return uint64(v)
	}
	return 0
}

// SetFloat coerces a numeric storage value to float64.
func SetFloat(set StoreSet, key string) float64 {
	switch v := set[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	}
	return 0
}

// SetInt coerces a numeric storage value to int.
func SetInt(set StoreSet, key string) int {
	switch v := set[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func setStrings(set StoreSet, key string) []string {
	var out []string
	switch v := set[key].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func setUints(set StoreSet, key string) []uint64 {
	var out []uint64
	switch v := set[key].(type) {
	case []uint64:
		out = append(out, v...)
	case []any:
		for _, e := range v {
			out = append(out, SetUint64(map[string]any{"v": e}, "v"))
		}
	}
	return out
}

func setSub(set StoreSet, key string) StoreSet {
	if v, ok := set[key].(map[string]any); ok {
		return v
	}
	return nil
}

func setSubs(set StoreSet, key string) []StoreSet {
	var out []StoreSet
	switch v := set[key].(type) {
	case []map[string]any:
		out = append(out, v...)
	case []any:
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// storeBase serializes the shared entity state into the set.
func (b *base) storeBase(set StoreSet) {
	set["uid"] = b.uid
	set["prototypes"] = b.Prototypes()
	set["triggers"] = b.Triggers()
	set["vars"] = b.Vars()
	aux := make(map[string]any, len(b.aux))
	for name, data := range b.aux {
		aux[name] = data.Store()
	}
	set["aux"] = aux
}

// loadBase restores the shared entity state. Aux blobs are rebuilt through
// the registry's installed factories; blobs of uninstalled types are
// dropped.
func (b *base) loadBase(ar *AuxRegistry, set StoreSet) {
	b.protos = setStrings(set, "prototypes")
	b.triggers = setStrings(set, "triggers")
	if vars := setSub(set, "vars"); vars != nil {
		for k, v := range vars {
			b.vars[k] = v
		}
	}
	for name, blob := range setSub(set, "aux") {
		data, ok := b.aux[name]
		if !ok {
			continue
		}
		if sub, ok := blob.(map[string]any); ok {
			data.Load(sub)
		}
	}
}

// Store serializes the character, including body shape and equipment-slot
// occupancy, to a storage set. Entity references (room, inventory, worn
// items) are recorded as uids; the world loader remaps them when the save is
// read back.
func (ch *Character) Store() StoreSet {
	set := StoreSet{}
	ch.storeBase(set)
	set["name"] = ch.Name
	set["desc"] = ch.Desc
	set["race"] = ch.Race
	set["sex"] = ch.Sex
	set["posture"] = ch.posture.String()
	set["room"] = ch.RoomUID
	set["furniture"] = ch.FurnitureUID
	set["inventory"] = ch.Inventory()

	b := ch.body
	parts := make([]any, 0, b.NumParts())
	for _, p := range b.Parts() {
		parts = append(parts, StoreSet{"name": p.Name, "type": p.Type, "weight": p.Weight})
	}
	set["body"] = StoreSet{"size": b.Size(), "parts": parts}

	var worn []any
	for _, uid := range b.WornEverywhere() {
		slots := b.SlotsOf(uid)
		equipType := ""
		if len(slots) > 0 {
			for _, w := range b.WornAt(slots[0]) {
				if w.UID == uid {
					equipType = w.EquipType
					break
				}
			}
		}
		worn = append(worn, StoreSet{"uid": uid, "equip_type": equipType, "positions": slots})
	}
	set["worn"] = worn
	return set
}

// WornPlacement is one deserialized equipment occupancy entry.
type WornPlacement struct {
	UID       uint64
	EquipType string
	Positions []string
}

// LoadCharacter rebuilds a character from a storage set. The character is
// not registered and its stored uid references (room, inventory, worn) are
// returned as-is for the loader to remap.
func LoadCharacter(ar *AuxRegistry, vocab *body.Vocab, set StoreSet) (*Character, []WornPlacement) {
	ch := NewCharacter(ar, setString(set, "name"))
	ch.loadBase(ar, set)
	ch.Desc = setString(set, "desc")
	ch.Race = setString(set, "race")
	ch.Sex = setString(set, "sex")
	if p := ParsePosture(setString(set, "posture")); p != PostureNone {
		ch.posture = p
	}
	ch.RoomUID = SetUint64(set, "room")
	ch.FurnitureUID = SetUint64(set, "furniture")
	ch.inventory = setUints(set, "inventory")

	if bodySet := setSub(set, "body"); bodySet != nil {
		ch.body.SetSize(setString(bodySet, "size"))
		for _, part := range setSubs(bodySet, "parts") {
			// Stored bodies may predate the current vocabulary; unknown types
			// are re-registered rather than dropped.
			ptype := setString(part, "type")
			if !vocab.HasPositionType(ptype) {
				vocab.AddPositionType(ptype)
			}
			_ = ch.body.AddPosition(vocab, setString(part, "name"), ptype, SetInt(part, "weight"))
		}
	}

	var placements []WornPlacement
	for _, w := range setSubs(set, "worn") {
		placements = append(placements, WornPlacement{
			UID:       SetUint64(w, "uid"),
			EquipType: setString(w, "equip_type"),
			Positions: setStrings(w, "positions"),
		})
	}
	return ch, placements
}

// Store serializes the object to a storage set.
func (o *Object) Store() StoreSet {
	set := StoreSet{}
	o.storeBase(set)
	set["name"] = o.Name
	set["desc"] = o.Desc
	set["weight"] = o.Weight
	set["container"] = o.Container
	set["furniture"] = o.Furniture
	set["contents"] = o.Contents()
	set["loc"] = StoreSet{"kind": int(o.loc.Kind), "uid": o.loc.UID}
	if o.Wearable != nil {
		set["wearable"] = StoreSet{
			"pos_types":  o.Wearable.PosTypes,
			"pos_names":  o.Wearable.PosNames,
			"equip_type": o.Wearable.EquipType,
		}
	}
	return set
}

// LoadObject rebuilds an object from a storage set, unregistered, with uid
// references unmapped.
func LoadObject(ar *AuxRegistry, set StoreSet) *Object {
	o := NewObject(ar, setString(set, "name"))
	o.loadBase(ar, set)
	o.Desc = setString(set, "desc")
	o.Weight = SetFloat(set, "weight")
	o.Container = setBool(set, "container")
	o.Furniture = setBool(set, "furniture")
	o.contents = setUints(set, "contents")
	if loc := setSub(set, "loc"); loc != nil {
		o.loc = Location{Kind: LocKind(SetInt(loc, "kind")), UID: SetUint64(loc, "uid")}
	}
	if w := setSub(set, "wearable"); w != nil {
		o.Wearable = &WornDescriptor{
			PosTypes:  setStrings(w, "pos_types"),
			PosNames:  setStrings(w, "pos_names"),
			EquipType: setString(w, "equip_type"),
		}
	}
	return o
}

// Store serializes the room and its exits (inline) to a storage set.
func (rm *Room) Store(reg *Registry) StoreSet {
	set := StoreSet{}
	rm.storeBase(set)
	set["name"] = rm.Name
	set["desc"] = rm.Desc
	set["contents"] = rm.Contents()
	set["chars"] = rm.Chars()
	exits := StoreSet{}
	for dir, exitUID := range rm.exits {
		ex, ok := reg.Exit(exitUID)
		if !ok {
			continue
		}
		exSet := StoreSet{
			"dest":     ex.Dest,
			"keywords": ex.Keywords,
			"closable": ex.Closable,
			"closed":   ex.Closed,
			"locked":   ex.Locked,
		}
		ex.storeBase(exSet)
		exits[dir] = exSet
	}
	set["exits"] = exits
	return set
}

// LoadRoom rebuilds a room from a storage set. Exits are created and
// registered immediately since they belong to the room; their dest uids
// remain unmapped.
func LoadRoom(ar *AuxRegistry, reg *Registry, set StoreSet) *Room {
	rm := NewRoom(ar, setString(set, "name"))
	rm.loadBase(ar, set)
	rm.Desc = setString(set, "desc")
	rm.contents = setUints(set, "contents")
	rm.chars = setUints(set, "chars")
	for dir, raw := range setSub(set, "exits") {
		exSet, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		ex := NewExit(ar, SetUint64(exSet, "dest"))
		ex.loadBase(ar, exSet)
		ex.Keywords = setString(exSet, "keywords")
		ex.Closable = setBool(exSet, "closable")
		ex.Closed = setBool(exSet, "closed")
		ex.Locked = setBool(exSet, "locked")
		reg.Register(ex)
		rm.exits[dir] = ex.UID()
	}
	return rm
}

// RemapRefs rewrites the character's stored uid references through the
// given old-to-new mapping. References with no mapping are cleared.
func (ch *Character) RemapRefs(m map[uint64]uint64) {
	ch.RoomUID = m[ch.RoomUID]
	ch.FurnitureUID = m[ch.FurnitureUID]
	inv := ch.inventory[:0]
	for _, uid := range ch.inventory {
		if nu, ok := m[uid]; ok {
			inv = append(inv, nu)
		}
	}
	ch.inventory = inv
}

// RemapRefs rewrites the object's stored uid references through the mapping.
func (o *Object) RemapRefs(m map[uint64]uint64) {
	o.loc.UID = m[o.loc.UID]
	if o.loc.UID == 0 {
		o.loc.Kind = LocNone
	}
	contents := o.contents[:0]
	for _, uid := range o.contents {
		if nu, ok := m[uid]; ok {
			contents = append(contents, nu)
		}
	}
	o.contents = contents
}

// RemapRefs rewrites the room's stored uid references through the mapping.
// Exit uids are already live; only their destinations are remapped.
func (rm *Room) RemapRefs(reg *Registry, m map[uint64]uint64) {
	contents := rm.contents[:0]
	for _, uid := range rm.contents {
		if nu, ok := m[uid]; ok {
			contents = append(contents, nu)
		}
	}
	rm.contents = contents
	chars := rm.chars[:0]
	for _, uid := range rm.chars {
		if nu, ok := m[uid]; ok {
			chars = append(chars, nu)
		}
	}
	rm.chars = chars
	for _, exitUID := range rm.exits {
		if ex, ok := reg.Exit(exitUID); ok {
			ex.Dest = m[ex.Dest]
		}
	}
}
