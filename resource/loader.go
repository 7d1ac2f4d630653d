// Package resource loads a world data directory: vocabulary extensions,
// race definitions, trigger scripts, and entity prototypes. The on-disk
// layout is plain JSON plus a scripts/ directory of JavaScript sources.
package resource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/driftmud/driftmud/game/bind"
	"github.com/driftmud/driftmud/game/body"
	"github.com/driftmud/driftmud/game/entity"
	"github.com/driftmud/driftmud/game/race"
	"github.com/driftmud/driftmud/game/trigger"
)

// VocabData extends the stock body vocabularies.
type VocabData struct {
	PositionTypes []string `json:"position_types"`
	Sizes         []string `json:"sizes"`
}

// BodypartDef is one position of a race's body template.
type BodypartDef struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Weight int    `json:"weight"`
}

// RaceDef defines a playable or non-playable race and its body layout.
type RaceDef struct {
	Name   string        `json:"name"`
	Abbrev string        `json:"abbrev"`
	PCOK   bool          `json:"pc_ok"`
	Size   string        `json:"size"`
	Parts  []BodypartDef `json:"parts"`
}

// WearableDef declares how a prototype object can be equipped.
type WearableDef struct {
	PosTypes  []string `json:"pos_types"`
	PosNames  []string `json:"pos_names"`
	EquipType string   `json:"equip_type"`
}

// PrototypeDef is one entity prototype. Kind selects which fields apply.
type PrototypeDef struct {
	Key       string            `json:"key"`
	Kind      string            `json:"kind"` // "char", "obj", "room"
	Name      string            `json:"name"`
	Desc      string            `json:"desc"`
	Race      string            `json:"race"`
	Room      string            `json:"room"` // prototype key of the containing room
	Weight    float64           `json:"weight"`
	Container bool              `json:"container"`
	Wearable  *WearableDef      `json:"wearable"`
	Triggers  []string          `json:"triggers"`
	Vars      map[string]any    `json:"vars"`
	Exits     map[string]string `json:"exits"` // direction -> room prototype key
}

// Loader reads a world data directory.
type Loader struct {
	DataPath string
	logger   *zap.Logger

	Vocab      VocabData
	Races      []RaceDef
	Prototypes []PrototypeDef
	Scripts    []trigger.Source
}

// NewLoader creates a Loader for the given data directory.
func NewLoader(dataPath string, logger *zap.Logger) *Loader {
	return &Loader{DataPath: dataPath, logger: logger}
}

// Load reads every data file. Missing optional files are skipped; malformed
// ones fail the load.
func (l *Loader) Load() error {
	loaders := []func() error{
		l.loadVocab,
		l.loadRaces,
		l.loadPrototypes,
		l.loadScripts,
	}
	for _, fn := range loaders {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) path(file string) string {
	return filepath.Join(l.DataPath, file)
}

func loadJSON[T any](path string, out *T) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("resource: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("resource: parse %s: %w", path, err)
	}
	return true, nil
}

func (l *Loader) loadVocab() error {
	_, err := loadJSON(l.path("vocab.json"), &l.Vocab)
	return err
}

func (l *Loader) loadRaces() error {
	_, err := loadJSON(l.path("races.json"), &l.Races)
	return err
}

func (l *Loader) loadPrototypes() error {
	_, err := loadJSON(l.path("prototypes.json"), &l.Prototypes)
	return err
}

// loadScripts reads scripts/<key>.<type>.js files into trigger sources.
// The trigger key is the first filename segment, the event type the second.
func (l *Loader) loadScripts() error {
	dir := l.path("scripts")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resource: read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".js") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		parts := strings.Split(strings.TrimSuffix(name, ".js"), ".")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("resource: script %s: want <key>.<type>.js", name)
		}
		code, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("resource: read %s: %w", name, err)
		}
		l.Scripts = append(l.Scripts, trigger.Source{
			Key:  parts[0],
			Type: parts[1],
			Name: name,
			Code: string(code),
		})
	}
	return nil
}

// World is the slice of a running engine the loader populates. The world
// package's engine satisfies it.
type World interface {
	Registry() *entity.Registry
	AuxRegistry() *entity.AuxRegistry
	Vocab() *body.Vocab
	Races() *race.Table
	Triggers() *trigger.Registry
	ResolveStartRoom()
}

// Apply installs the loaded data into a world: vocabulary first, then
// races, trigger sources, and finally prototype instantiation. Rooms are
// built before their occupants so placement keys resolve. Every
// instantiated entity fires its init triggers.
//
// On a world restored from a save, use ApplyDefs instead: the saved
// entities already exist and only the definitions need re-installing.
func (l *Loader) Apply(w World) error {
	if err := l.ApplyDefs(w); err != nil {
		return err
	}
	return l.instantiate(w)
}

// ApplyDefs installs vocabulary, races, and trigger sources without
// instantiating any prototypes.
func (l *Loader) ApplyDefs(w World) error {
	vocab := w.Vocab()
	for _, t := range l.Vocab.PositionTypes {
		vocab.AddPositionType(t)
	}
	for _, s := range l.Vocab.Sizes {
		vocab.AddSize(s)
	}

	for _, rd := range l.Races {
		tmpl, err := buildTemplate(vocab, rd)
		if err != nil {
			return err
		}
		w.Races().Add(rd.Name, rd.Abbrev, tmpl, rd.PCOK)
	}

	for _, src := range l.Scripts {
		w.Triggers().Register(src)
	}
	return nil
}

func buildTemplate(vocab *body.Vocab, rd RaceDef) (*body.Body, error) {
	size := rd.Size
	if size == "" {
		size = "medium"
	}
	b := body.New(size)
	for _, p := range rd.Parts {
		if !vocab.HasPositionType(p.Type) {
			vocab.AddPositionType(p.Type)
		}
		if err := b.AddPosition(vocab, p.Name, p.Type, p.Weight); err != nil {
			return nil, fmt.Errorf("resource: race %s part %s: %w", rd.Name, p.Name, err)
		}
	}
	return b, nil
}

// instantiate builds live entities from the prototype list.
func (l *Loader) instantiate(w World) error {
	reg := w.Registry()
	aux := w.AuxRegistry()

	roomByKey := make(map[string]*entity.Room)
	var created []uint64

	// Rooms first.
	for _, p := range l.Prototypes {
		if p.Kind != "room" {
			continue
		}
		rm := entity.NewRoom(aux, p.Name)
		rm.Desc = p.Desc
		applyCommon(&p, rm.AddPrototype, rm.AttachTrigger, rm.SetVar)
		uid := reg.Register(rm)
		roomByKey[p.Key] = rm
		created = append(created, uid)
	}

	// Exits once every room exists.
	for _, p := range l.Prototypes {
		if p.Kind != "room" || len(p.Exits) == 0 {
			continue
		}
		rm := roomByKey[p.Key]
		dirs := make([]string, 0, len(p.Exits))
		for dir := range p.Exits {
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs)
		for _, dir := range dirs {
			dest, ok := roomByKey[p.Exits[dir]]
			if !ok {
				return fmt.Errorf("resource: room %s exit %s: unknown room %q", p.Key, dir, p.Exits[dir])
			}
			ex := entity.NewExit(aux, dest.UID())
			reg.Register(ex)
			rm.SetExit(dir, ex.UID())
		}
	}

	// Chars and objects into their rooms.
	for _, p := range l.Prototypes {
		switch p.Kind {
		case "room":
		case "char":
			raceName := p.Race
			if raceName == "" {
				raceName = "human"
			}
			rc, ok := w.Races().Get(raceName)
			if !ok {
				return fmt.Errorf("resource: char %s: unknown race %q", p.Key, raceName)
			}
			ch := entity.NewCharacter(aux, p.Name)
			ch.Desc = p.Desc
			ch.Race = rc.Name
			ch.SetBody(rc.Template())
			applyCommon(&p, ch.AddPrototype, ch.AttachTrigger, ch.SetVar)
			uid := reg.Register(ch)
			if p.Room != "" {
				rm, ok := roomByKey[p.Room]
				if !ok {
					return fmt.Errorf("resource: char %s: unknown room %q", p.Key, p.Room)
				}
				entity.CharToRoom(reg, ch, rm)
			}
			created = append(created, uid)
		case "obj":
			o := entity.NewObject(aux, p.Name)
			o.Desc = p.Desc
			o.Weight = p.Weight
			o.Container = p.Container
			if p.Wearable != nil {
				o.Wearable = &entity.WornDescriptor{
					PosTypes:  p.Wearable.PosTypes,
					PosNames:  p.Wearable.PosNames,
					EquipType: p.Wearable.EquipType,
				}
			}
			applyCommon(&p, o.AddPrototype, o.AttachTrigger, o.SetVar)
			uid := reg.Register(o)
			if p.Room != "" {
				rm, ok := roomByKey[p.Room]
				if !ok {
					return fmt.Errorf("resource: obj %s: unknown room %q", p.Key, p.Room)
				}
				entity.ObjToRoom(reg, o, rm)
			}
			created = append(created, uid)
		default:
			return fmt.Errorf("resource: prototype %s: unknown kind %q", p.Key, p.Kind)
		}
	}

	// The configured start room usually comes from these prototypes, so
	// resolve it now that they exist.
	w.ResolveStartRoom()

	for _, uid := range created {
		if ent, ok := reg.Resolve(uid); ok {
			w.Triggers().Dispatch(trigger.TypeInit,
				handleOf(ent), nil)
		}
	}
	if l.logger != nil {
		l.logger.Info("world data applied",
			zap.Int("races", len(l.Races)),
			zap.Int("scripts", len(l.Scripts)),
			zap.Int("prototypes", len(l.Prototypes)))
	}
	return nil
}

func handleOf(ent entity.Entity) bind.Handle {
	return bind.Handle{Kind: ent.Kind(), UID: ent.UID()}
}

func applyCommon(p *PrototypeDef, addProto func(string), attach func(string), setVar func(string, any)) {
	addProto(p.Key)
	for _, key := range p.Triggers {
		attach(key)
	}
	for k, v := range p.Vars {
		setVar(k, v)
	}
}
