package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/driftmud/driftmud/game/bind"
	"github.com/driftmud/driftmud/game/entity"
	"github.com/driftmud/driftmud/game/trigger"
	"github.com/driftmud/driftmud/scheduler"
	"github.com/driftmud/driftmud/testutil"
)

func newTestEngine(t *testing.T, db *gorm.DB) *Engine {
	t.Helper()
	sched := scheduler.New(zap.NewNop())
	t.Cleanup(sched.Stop)
	return New(db, sched, Options{
		ScriptTimeout: time.Second,
		StartRoom:     "square",
		Seed:          1,
	}, zap.NewNop())
}

// twoRooms digs east from a to b and returns both handles.
func twoRooms(t *testing.T, e *Engine) (bind.Handle, bind.Handle) {
	t.Helper()
	a := e.binder.NewRoom("square")
	b := e.binder.NewRoom("alley")
	_, err := e.binder.Room(a.UID).Dig("east", e.binder.Room(b.UID))
	require.NoError(t, err)
	return a, b
}

func TestPostAndCall(t *testing.T) {
	e := newTestEngine(t, nil)
	go e.Run()
	defer e.Stop()

	var n int
	e.Call(func() { n = 41 })
	e.Call(func() { n++ })
	assert.Equal(t, 42, n)
}

func TestCallAfterStopDoesNotHang(t *testing.T) {
	e := newTestEngine(t, nil)
	go e.Run()
	e.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Call(func() {})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Call blocked after Stop")
	}
}

func TestMoveCharThroughExit(t *testing.T) {
	e := newTestEngine(t, nil)
	a, b := twoRooms(t, e)
	chH, err := e.binder.NewChar("alice", "human")
	require.NoError(t, err)
	require.NoError(t, e.TransferChar(chH, a))

	require.NoError(t, e.MoveChar(chH, "east"))
	ch, _ := e.reg.Char(chH.UID)
	assert.Equal(t, b.UID, ch.RoomUID)

	assert.ErrorIs(t, e.MoveChar(chH, "north"), ErrNoExit)
}

func TestMoveCharFiresRoomTriggers(t *testing.T) {
	e := newTestEngine(t, nil)
	a, b := twoRooms(t, e)
	chH, err := e.binder.NewChar("alice", "human")
	require.NoError(t, err)
	require.NoError(t, e.TransferChar(chH, a))

	e.triggers.Register(trigger.Source{
		Key: "farewell", Type: trigger.TypeExit, Name: "farewell",
		Code: `me.setVar("left", actor.name)`,
	})
	e.triggers.Register(trigger.Source{
		Key: "greeting", Type: trigger.TypeEnter, Name: "greeting",
		Code: `me.setVar("came", actor.name + " from " + dir)`,
	})
	require.NoError(t, e.binder.Room(a.UID).AttachTrigger("farewell"))
	require.NoError(t, e.binder.Room(b.UID).AttachTrigger("greeting"))

	require.NoError(t, e.MoveChar(chH, "east"))

	v, err := e.binder.Room(a.UID).GetVar("left")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
	v, err = e.binder.Room(b.UID).GetVar("came")
	require.NoError(t, err)
	assert.Equal(t, "alice from east", v)
}

func TestClosedExitBlocksMovement(t *testing.T) {
	e := newTestEngine(t, nil)
	a, _ := twoRooms(t, e)
	chH, err := e.binder.NewChar("alice", "human")
	require.NoError(t, err)
	require.NoError(t, e.TransferChar(chH, a))

	rm, _ := e.reg.Room(a.UID)
	exitUID, _ := rm.ExitUID("east")
	ex, _ := e.reg.Exit(exitUID)
	ex.Closable = true
	ex.Closed = true

	assert.ErrorIs(t, e.MoveChar(chH, "east"), ErrExitClosed)

	require.NoError(t, e.SetExitClosed(a, "east", false))
	require.NoError(t, e.MoveChar(chH, "east"))
}

func TestSayReachesRoomAndListeners(t *testing.T) {
	e := newTestEngine(t, nil)
	a, _ := twoRooms(t, e)
	alice, err := e.binder.NewChar("alice", "human")
	require.NoError(t, err)
	bob, err := e.binder.NewChar("bob", "human")
	require.NoError(t, err)
	require.NoError(t, e.TransferChar(alice, a))
	require.NoError(t, e.TransferChar(bob, a))

	e.triggers.Register(trigger.Source{
		Key: "echo", Type: trigger.TypeSpeech, Name: "echo",
		Code: `me.setVar("heard", actor.name + ": " + text)`,
	})
	require.NoError(t, e.binder.Char(bob.UID).AttachTrigger("echo"))

	require.NoError(t, e.Say(alice, "hello"))

	v, err := e.binder.Char(bob.UID).GetVar("heard")
	require.NoError(t, err)
	assert.Equal(t, "alice: hello", v)

	// The speaker's own speech triggers do not fire.
	require.NoError(t, e.binder.Char(alice.UID).AttachTrigger("echo"))
	require.NoError(t, e.Say(alice, "again"))
	has, err := e.binder.Char(alice.UID).HasVar("heard")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestGetAndDropObj(t *testing.T) {
	e := newTestEngine(t, nil)
	a, _ := twoRooms(t, e)
	chH, err := e.binder.NewChar("alice", "human")
	require.NoError(t, err)
	require.NoError(t, e.TransferChar(chH, a))

	objH := e.binder.NewObject("coin")
	o, _ := e.reg.Object(objH.UID)
	rm, _ := e.reg.Room(a.UID)
	entity.ObjToRoom(e.reg, o, rm)

	e.triggers.Register(trigger.Source{
		Key: "sticky", Type: trigger.TypeGet, Name: "sticky",
		Code: `me.setVar("taken_by", actor.name)`,
	})
	require.NoError(t, e.binder.Object(objH.UID).AttachTrigger("sticky"))

	require.NoError(t, e.GetObj(chH, objH))
	assert.Equal(t, entity.LocCarrier, o.Loc().Kind)
	v, err := e.binder.Object(objH.UID).GetVar("taken_by")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)

	require.NoError(t, e.DropObj(chH, objH))
	assert.Equal(t, entity.LocRoom, o.Loc().Kind)

	// Cannot drop what is not carried.
	assert.ErrorIs(t, e.DropObj(chH, objH), ErrNotHere)
}

func TestWearAndRemoveObj(t *testing.T) {
	e := newTestEngine(t, nil)
	a, _ := twoRooms(t, e)
	chH, err := e.binder.NewChar("alice", "human")
	require.NoError(t, err)
	require.NoError(t, e.TransferChar(chH, a))

	objH := e.binder.NewObject("gloves")
	o, _ := e.reg.Object(objH.UID)
	o.Wearable = &entity.WornDescriptor{PosTypes: []string{"right hand", "left hand"}, EquipType: "worn"}
	ch, _ := e.reg.Char(chH.UID)
	entity.ObjToChar(e.reg, o, ch)

	res, err := e.WearObj(chH, objH, "")
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Len(t, res.Positions, 2)
	assert.Equal(t, entity.LocWearer, o.Loc().Kind)

	require.NoError(t, e.RemoveObj(chH, objH))
	assert.Equal(t, entity.LocCarrier, o.Loc().Kind)
	assert.ErrorIs(t, e.RemoveObj(chH, objH), ErrNotHere)
}

func TestHeartbeatDispatch(t *testing.T) {
	e := newTestEngine(t, nil)
	chH, err := e.binder.NewChar("alice", "human")
	require.NoError(t, err)

	e.triggers.Register(trigger.Source{
		Key: "pulse", Type: trigger.TypeHeart, Name: "pulse",
		Code: `me.setVar("beats", (me.getVar("beats") || 0) + 1)`,
	})
	require.NoError(t, e.binder.Char(chH.UID).AttachTrigger("pulse"))

	e.tickHeartbeat()
	e.tickHeartbeat()

	v, err := e.binder.Char(chH.UID).GetVar("beats")
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
}

func TestMudModuleFromScript(t *testing.T) {
	e := newTestEngine(t, nil)
	err := e.runner.Run(`
		var mud = require("mud");
		var room = mud.create_room("cellar");
		var ch = mud.create_char("zed", "human");
	`, "setup", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, e.reg.CountKind(entity.KindRoom))
	assert.Equal(t, 1, e.reg.CountKind(entity.KindChar))
}

func TestDelayRunsScriptOnLoop(t *testing.T) {
	e := newTestEngine(t, nil)
	go e.Run()
	defer e.Stop()

	e.Delay(10*time.Millisecond, `require("mud").create_room("later")`, "later", nil)

	require.Eventually(t, func() bool {
		var n int
		e.Call(func() { n = e.reg.CountKind(entity.KindRoom) })
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)

	e := newTestEngine(t, db)
	a, b := twoRooms(t, e)
	chH, err := e.binder.NewChar("alice", "human")
	require.NoError(t, err)
	require.NoError(t, e.TransferChar(chH, a))

	sword := e.binder.NewObject("sword")
	so, _ := e.reg.Object(sword.UID)
	so.Wearable = &entity.WornDescriptor{PosTypes: []string{"held"}, EquipType: "wield"}
	ch, _ := e.reg.Char(chH.UID)
	entity.ObjToChar(e.reg, so, ch)
	res, err := e.WearObj(chH, sword, "")
	require.NoError(t, err)
	require.True(t, res.OK)

	coin := e.binder.NewObject("coin")
	co, _ := e.reg.Object(coin.UID)
	rm, _ := e.reg.Room(b.UID)
	entity.ObjToRoom(e.reg, co, rm)

	require.NoError(t, e.binder.Char(chH.UID).SetVar("karma", 3))
	require.NoError(t, e.Save())

	// A fresh engine over the same database rebuilds the world with new
	// uids and intact relations.
	e2 := newTestEngine(t, db)
	require.NoError(t, e2.Load())

	assert.Equal(t, 2, e2.reg.CountKind(entity.KindRoom))
	assert.Equal(t, 1, e2.reg.CountKind(entity.KindChar))
	assert.Equal(t, 2, e2.reg.CountKind(entity.KindObject))

	chars := e2.reg.UIDsOfKind(entity.KindChar)
	require.Len(t, chars, 1)
	ch2, _ := e2.reg.Char(chars[0])
	assert.Equal(t, "alice", ch2.Name)
	assert.NotZero(t, ch2.RoomUID)

	room2, ok := e2.reg.Room(ch2.RoomUID)
	require.True(t, ok)
	assert.Equal(t, "square", room2.Name)
	assert.Contains(t, room2.Chars(), ch2.UID())

	// The exit still leads somewhere real.
	exitUID, ok := room2.ExitUID("east")
	require.True(t, ok)
	ex, ok := e2.reg.Exit(exitUID)
	require.True(t, ok)
	dest, ok := e2.reg.Room(ex.Dest)
	require.True(t, ok)
	assert.Equal(t, "alley", dest.Name)

	// Worn placement survived.
	worn := ch2.Body().WornEverywhere()
	require.Len(t, worn, 1)
	so2, ok := e2.reg.Object(worn[0])
	require.True(t, ok)
	assert.Equal(t, "sword", so2.Name)
	assert.Equal(t, entity.LocWearer, so2.Loc().Kind)

	v, ok := ch2.GetVar("karma")
	require.True(t, ok)
	assert.EqualValues(t, 3, v)

	// The start room resolves by name after load.
	assert.Equal(t, room2.UID(), e2.StartRoom().UID)
}

func TestStartRoomNoneWhenMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	e := newTestEngine(t, db)
	require.NoError(t, e.Load())
	assert.True(t, e.StartRoom().IsNone())
}
