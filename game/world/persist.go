package world

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/driftmud/driftmud/game/entity"
	"github.com/driftmud/driftmud/model"
)

// Save writes the whole world to the database. Call from the loop (wrap in
// Call from outside); the write itself is one transaction.
func (e *Engine) Save() error {
	return e.save()
}

func (e *Engine) save() error {
	if e.db == nil {
		return nil
	}
	var chars []*model.CharacterRecord
	for _, uid := range e.reg.UIDsOfKind(entity.KindChar) {
		ch, ok := e.reg.Char(uid)
		if !ok {
			continue
		}
		data, err := json.Marshal(ch.Store())
		if err != nil {
			return fmt.Errorf("store char %d: %w", uid, err)
		}
		chars = append(chars, &model.CharacterRecord{
			UID:     uid,
			Name:    ch.Name,
			Race:    ch.Race,
			RoomUID: ch.RoomUID,
			Data:    data,
		})
	}
	var objs []*model.ObjectRecord
	for _, uid := range e.reg.UIDsOfKind(entity.KindObject) {
		o, ok := e.reg.Object(uid)
		if !ok {
			continue
		}
		data, err := json.Marshal(o.Store())
		if err != nil {
			return fmt.Errorf("store object %d: %w", uid, err)
		}
		objs = append(objs, &model.ObjectRecord{UID: uid, Name: o.Name, Data: data})
	}
	var rooms []*model.RoomRecord
	for _, uid := range e.reg.UIDsOfKind(entity.KindRoom) {
		rm, ok := e.reg.Room(uid)
		if !ok {
			continue
		}
		data, err := json.Marshal(rm.Store(e.reg))
		if err != nil {
			return fmt.Errorf("store room %d: %w", uid, err)
		}
		rooms = append(rooms, &model.RoomRecord{UID: uid, Name: rm.Name, Data: data})
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&model.CharacterRecord{}, &model.ObjectRecord{}, &model.RoomRecord{}} {
			if err := tx.Where("1 = 1").Delete(m).Error; err != nil {
				return err
			}
		}
		if len(chars) > 0 {
			if err := tx.CreateInBatches(chars, 100).Error; err != nil {
				return err
			}
		}
		if len(objs) > 0 {
			if err := tx.CreateInBatches(objs, 100).Error; err != nil {
				return err
			}
		}
		if len(rooms) > 0 {
			if err := tx.CreateInBatches(rooms, 100).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.logger.Info("world saved",
		zap.Int("chars", len(chars)),
		zap.Int("objects", len(objs)),
		zap.Int("rooms", len(rooms)))
	return nil
}

// Load reads the saved world back. Saved uids are never reused: every
// entity gets a fresh uid on registration and all stored cross-references
// are rewritten through the old-to-new mapping. Call before the loop starts
// or from the loop.
func (e *Engine) Load() error {
	if e.db == nil {
		return nil
	}
	var charRecs []model.CharacterRecord
	if err := e.db.Find(&charRecs).Error; err != nil {
		return err
	}
	var objRecs []model.ObjectRecord
	if err := e.db.Find(&objRecs).Error; err != nil {
		return err
	}
	var roomRecs []model.RoomRecord
	if err := e.db.Find(&roomRecs).Error; err != nil {
		return err
	}

	remap := make(map[uint64]uint64)

	type loadedChar struct {
		ch         *entity.Character
		placements []entity.WornPlacement
	}
	var chars []loadedChar
	for _, rec := range charRecs {
		set := entity.StoreSet{}
		if err := json.Unmarshal(rec.Data, &set); err != nil {
			return fmt.Errorf("load char %d: %w", rec.UID, err)
		}
		ch, placements := entity.LoadCharacter(e.aux, e.vocab, set)
		old := entity.SetUint64(set, "uid")
		remap[old] = e.reg.Register(ch)
		chars = append(chars, loadedChar{ch: ch, placements: placements})
	}
	var objects []*entity.Object
	for _, rec := range objRecs {
		set := entity.StoreSet{}
		if err := json.Unmarshal(rec.Data, &set); err != nil {
			return fmt.Errorf("load object %d: %w", rec.UID, err)
		}
		o := entity.LoadObject(e.aux, set)
		old := entity.SetUint64(set, "uid")
		remap[old] = e.reg.Register(o)
		objects = append(objects, o)
	}
	var rooms []*entity.Room
	for _, rec := range roomRecs {
		set := entity.StoreSet{}
		if err := json.Unmarshal(rec.Data, &set); err != nil {
			return fmt.Errorf("load room %d: %w", rec.UID, err)
		}
		rm := entity.LoadRoom(e.aux, e.reg, set)
		old := entity.SetUint64(set, "uid")
		remap[old] = e.reg.Register(rm)
		rooms = append(rooms, rm)
	}

	for _, lc := range chars {
		lc.ch.RemapRefs(remap)
	}
	for _, o := range objects {
		o.RemapRefs(remap)
	}
	for _, rm := range rooms {
		rm.RemapRefs(e.reg, remap)
	}

	// Re-establish body occupancy for worn items. Positions are stored by
	// name, so a forced explicit equip restores the exact placement.
	for _, lc := range chars {
		for _, p := range lc.placements {
			uid, ok := remap[p.UID]
			if !ok {
				continue
			}
			o, ok := e.reg.Object(uid)
			if !ok {
				continue
			}
			res := e.gear.Equip(lc.ch, o, strings.Join(p.Positions, ", "), true, p.EquipType)
			if !res.OK {
				e.logger.Warn("could not restore worn item",
					zap.String("char", lc.ch.Name),
					zap.String("item", o.Name),
					zap.Strings("positions", p.Positions))
				entity.ObjToChar(e.reg, o, lc.ch)
			}
		}
	}

	e.ResolveStartRoom()
	e.logger.Info("world loaded",
		zap.Int("chars", len(chars)),
		zap.Int("objects", len(objects)),
		zap.Int("rooms", len(rooms)))
	return nil
}

// ResolveStartRoom finds the configured starting room by name. It runs
// after a save is restored and again after prototypes instantiate, since
// on a fresh world the room does not exist until then.
func (e *Engine) ResolveStartRoom() {
	e.startRoomUID = 0
	if e.startRoom == "" {
		return
	}
	for _, uid := range e.reg.UIDsOfKind(entity.KindRoom) {
		rm, ok := e.reg.Room(uid)
		if !ok {
			continue
		}
		if strings.EqualFold(rm.Name, e.startRoom) {
			e.startRoomUID = uid
			return
		}
	}
}
