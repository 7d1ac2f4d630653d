package entity

// LocKind tags where an object currently is. An object occupies exactly one
// location at a time; the move helpers in this package keep the relation and
// its back-references consistent.
type LocKind int

const (
	LocNone LocKind = iota
	LocRoom
	LocContainer
	LocCarrier
	LocWearer
)

var locNames = map[LocKind]string{
	LocNone:      "nowhere",
	LocRoom:      "room",
	LocContainer: "container",
	LocCarrier:   "carrier",
	LocWearer:    "wearer",
}

func (l LocKind) String() string { return locNames[l] }

// Location is an object's current placement: the relation kind plus the uid
// of the room, container, or character on the other end.
type Location struct {
	Kind LocKind
	UID  uint64
}

// WornDescriptor declares how an object may be equipped. Either PosTypes
// requires coverage of one body position per listed type (repeats allowed:
// a two-handed weapon lists "hand" twice), or PosNames overrides with
// explicit position names. EquipType is the layering tag; items of the same
// tag conflict on a position, different tags coexist.
type WornDescriptor struct {
	PosTypes  []string
	PosNames  []string
	EquipType string
}

// Object is an item: wearable gear, furniture, a container, or scenery.
type Object struct {
	base
	Name      string
	Desc      string
	Weight    float64
	Container bool
	Furniture bool
	Wearable  *WornDescriptor

	loc      Location
	contents []uint64
}

// NewObject creates an unregistered object.
func NewObject(ar *AuxRegistry, name string) *Object {
	return &Object{base: newBase(KindObject, ar), Name: name}
}

// Loc returns the object's current location.
func (o *Object) Loc() Location { return o.loc }

// setLoc is only called by the move helpers, which maintain the
// back-references.
func (o *Object) setLoc(l Location) { o.loc = l }

// AddContent appends an object uid to this container's contents.
func (o *Object) AddContent(uid uint64) {
	for _, u := range o.contents {
		if u == uid {
			return
		}
	}
	o.contents = append(o.contents, uid)
}

// RemoveContent removes an object uid from the container's contents.
func (o *Object) RemoveContent(uid uint64) bool {
	for i, u := range o.contents {
		if u == uid {
			o.contents = append(o.contents[:i], o.contents[i+1:]...)
			return true
		}
	}
	return false
}

// Contents returns a snapshot of contained object uids.
func (o *Object) Contents() []uint64 {
	out := make([]uint64, len(o.contents))
	copy(out, o.contents)
	return out
}

// EquipType returns the object's layering tag, defaulting to "worn" when the
// descriptor leaves it empty.
func (o *Object) EquipType() string {
	if o.Wearable == nil || o.Wearable.EquipType == "" {
		return "worn"
	}
	return o.Wearable.EquipType
}

// Copy creates and registers a new object duplicating this one. Contents are
// not duplicated and the copy starts nowhere.
func (o *Object) Copy(reg *Registry) *Object {
	no := &Object{
		base:      o.copyBase(),
		Name:      o.Name,
		Desc:      o.Desc,
		Weight:    o.Weight,
		Container: o.Container,
		Furniture: o.Furniture,
	}
	if o.Wearable != nil {
		d := *o.Wearable
		d.PosTypes = append([]string(nil), o.Wearable.PosTypes...)
		d.PosNames = append([]string(nil), o.Wearable.PosNames...)
		no.Wearable = &d
	}
	reg.Register(no)
	return no
}
