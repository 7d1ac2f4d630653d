package bind

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/driftmud/driftmud/game/body"
	"github.com/driftmud/driftmud/game/entity"
	"github.com/driftmud/driftmud/game/gear"
	"github.com/driftmud/driftmud/game/race"
)

func newTestBinder() *Binder {
	reg := entity.NewRegistry()
	aux := entity.NewAuxRegistry()
	vocab := body.NewVocab()
	races := race.NewTable(vocab)
	g := gear.New(reg, zap.NewNop())
	rng := rand.New(rand.NewSource(7))
	return New(reg, aux, vocab, races, g, rng)
}

func TestHandleEquality(t *testing.T) {
	b := newTestBinder()

	h1, err := b.NewChar("alice", "human")
	require.NoError(t, err)
	h2, err := b.NewChar("alice", "human")
	require.NoError(t, err)

	// Same uid compares equal regardless of how the handle was made.
	again := b.Char(h1.UID).Handle()
	assert.Equal(t, h1, again)
	assert.NotEqual(t, h1, h2)
	assert.True(t, None.IsNone())
	assert.False(t, h1.IsNone())
	assert.Equal(t, "char#1", h1.String())
}

func TestStaleHandleErrGone(t *testing.T) {
	b := newTestBinder()

	h, err := b.NewChar("bob", "human")
	require.NoError(t, err)
	ref := b.Char(h.UID)

	name, err := ref.Name()
	require.NoError(t, err)
	assert.Equal(t, "bob", name)

	require.True(t, b.Extract(h))

	_, err = ref.Name()
	require.ErrorIs(t, err, ErrGone)
	err = ref.SetName("robert")
	require.ErrorIs(t, err, ErrGone)
	assert.False(t, ref.Exists())

	// Extracting again reports the handle as already dead.
	assert.False(t, b.Extract(h))
}

func TestUIDNotRecycledAcrossRefs(t *testing.T) {
	b := newTestBinder()

	h1, err := b.NewChar("first", "human")
	require.NoError(t, err)
	ref := b.Char(h1.UID)
	require.True(t, b.Extract(h1))

	h2, err := b.NewChar("second", "human")
	require.NoError(t, err)
	require.NotEqual(t, h1.UID, h2.UID)

	// The stale ref stays stale even after new entities appear.
	_, err = ref.Name()
	assert.ErrorIs(t, err, ErrGone)
}

func TestCharSettersValidate(t *testing.T) {
	b := newTestBinder()

	h, err := b.NewChar("carol", "human")
	require.NoError(t, err)
	ref := b.Char(h.UID)

	require.Error(t, ref.SetName(""))
	require.Error(t, ref.SetSex("plasma"))
	require.NoError(t, ref.SetSex("female"))
	require.Error(t, ref.SetPosture("hovering"))
	require.NoError(t, ref.SetPosture("sitting"))
	pos, err := ref.Posture()
	require.NoError(t, err)
	assert.Equal(t, "sitting", pos)

	require.Error(t, ref.SetRace("gelatinous cube"))
	require.NoError(t, ref.SetRace("human"))
}

func TestCharBodyOps(t *testing.T) {
	b := newTestBinder()

	h, err := b.NewChar("dave", "human")
	require.NoError(t, err)
	ref := b.Char(h.UID)

	parts, err := ref.Bodyparts()
	require.NoError(t, err)
	assert.Contains(t, parts, "torso")

	typ, err := ref.BodypartType("left grip")
	require.NoError(t, err)
	assert.Equal(t, "held", typ)

	ratio, err := ref.MassRatio("torso")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ratio, 1e-9)

	require.NoError(t, ref.AddBodypart("tail", "tail", 10))
	typ, err = ref.BodypartType("tail")
	require.NoError(t, err)
	assert.Equal(t, "tail", typ)

	name, err := ref.RandomBodypart("tail")
	require.NoError(t, err)
	assert.Equal(t, "tail", name)

	ok, err := ref.RemoveBodypart("tail")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = ref.RemoveBodypart("tail")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEquipThroughRefs(t *testing.T) {
	b := newTestBinder()

	ch, err := b.NewChar("erin", "human")
	require.NoError(t, err)
	oh := b.NewObject("iron helm")
	obj, ok := b.Registry().Object(oh.UID)
	require.True(t, ok)
	obj.Wearable = &entity.WornDescriptor{PosNames: []string{"head"}}

	cref := b.Char(ch.UID)
	oref := b.Object(oh.UID)

	res, err := cref.Equip(oref, "", false, "")
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, []string{"head"}, res.Positions)

	worn, err := cref.EquipAt("head")
	require.NoError(t, err)
	require.Len(t, worn, 1)
	assert.Equal(t, oh, worn[0])

	kind, holder, err := oref.Location()
	require.NoError(t, err)
	assert.Equal(t, entity.LocWearer, kind)
	assert.Equal(t, ch, holder)

	slots, err := oref.Slots()
	require.NoError(t, err)
	assert.Equal(t, "head", slots)

	removed, err := cref.Unequip(oref)
	require.NoError(t, err)
	assert.True(t, removed)

	slots, err = oref.Slots()
	require.NoError(t, err)
	assert.Empty(t, slots)
	inv, err := cref.Inventory()
	require.NoError(t, err)
	assert.Contains(t, inv, oh)
}

func TestRoomRefDigAndSnapshots(t *testing.T) {
	b := newTestBinder()

	r1 := b.NewRoom("tavern")
	r2 := b.NewRoom("cellar")
	rref := b.Room(r1.UID)

	eh, err := rref.Dig("down", b.Room(r2.UID))
	require.NoError(t, err)
	assert.Equal(t, entity.KindExit, eh.Kind)

	got, err := rref.Exit("down")
	require.NoError(t, err)
	assert.Equal(t, eh, got)

	dest, err := b.Exit(eh.UID).Dest()
	require.NoError(t, err)
	assert.Equal(t, r2, dest)

	missing, err := rref.Exit("up")
	require.NoError(t, err)
	assert.True(t, missing.IsNone())

	_, err = rref.Dig("up", b.Room(r2.UID))
	require.NoError(t, err)
	dirs, err := rref.ExitDirs()
	require.NoError(t, err)
	assert.Equal(t, []string{"down", "up"}, dirs)

	// Re-digging a direction unregisters the replaced exit.
	replaced, err := rref.Dig("down", b.Room(r2.UID))
	require.NoError(t, err)
	assert.NotEqual(t, eh, replaced)
	assert.False(t, b.Exit(eh.UID).Exists())

	ch, err := b.NewChar("frank", "human")
	require.NoError(t, err)
	native, ok := b.Registry().Char(ch.UID)
	require.True(t, ok)
	rm, ok := b.Registry().Room(r1.UID)
	require.True(t, ok)
	entity.CharToRoom(b.Registry(), native, rm)

	chars, err := rref.Chars()
	require.NoError(t, err)
	assert.Equal(t, []Handle{ch}, chars)

	// Snapshots are detached from live state.
	entity.CharFromRoom(b.Registry(), native)
	assert.Len(t, chars, 1)
}

func TestExitClosedLockedRules(t *testing.T) {
	b := newTestBinder()

	r1 := b.NewRoom("hall")
	r2 := b.NewRoom("vault")
	eh, err := b.Room(r1.UID).Dig("north", b.Room(r2.UID))
	require.NoError(t, err)
	eref := b.Exit(eh.UID)

	// Not closable yet.
	require.Error(t, eref.SetClosed(true))

	ex, ok := b.Registry().Exit(eh.UID)
	require.True(t, ok)
	ex.Closable = true

	// Locking requires the exit to be closed first.
	require.Error(t, eref.SetLocked(true))
	require.NoError(t, eref.SetClosed(true))
	require.NoError(t, eref.SetLocked(true))

	// Opening clears the lock.
	require.NoError(t, eref.SetClosed(false))
	locked, err := eref.IsLocked()
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestSocketBinding(t *testing.T) {
	b := newTestBinder()

	acc := entity.NewAccount(entity.NewAuxRegistry(), "gm")
	b.Registry().Register(acc)
	sk := entity.NewSocket(entity.NewAuxRegistry(), acc.UID())
	b.Registry().Register(sk)

	sref := b.Socket(sk.UID())
	ah, err := sref.Account()
	require.NoError(t, err)
	assert.Equal(t, Handle{Kind: entity.KindAccount, UID: acc.UID()}, ah)

	chh, err := sref.Char()
	require.NoError(t, err)
	assert.True(t, chh.IsNone())

	ch, err := b.NewChar("grace", "human")
	require.NoError(t, err)
	require.NoError(t, sref.SetChar(b.Char(ch.UID)))
	chh, err = sref.Char()
	require.NoError(t, err)
	assert.Equal(t, ch, chh)
}

func TestVarsSurviveOnlyWhileLive(t *testing.T) {
	b := newTestBinder()

	oh := b.NewObject("orb")
	oref := b.Object(oh.UID)
	require.NoError(t, oref.SetVar("charges", 3))
	v, err := oref.GetVar("charges")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	require.True(t, b.Extract(oh))
	_, err = oref.GetVar("charges")
	assert.ErrorIs(t, err, ErrGone)
}

func TestObjectWeightRoundTrip(t *testing.T) {
	b := newTestBinder()

	oh := b.NewObject("anvil")
	oref := b.Object(oh.UID)
	require.NoError(t, oref.SetWeight(12.5))
	w, err := oref.Weight()
	require.NoError(t, err)
	assert.Equal(t, 12.5, w)

	assert.Error(t, oref.SetWeight(-1))

	require.True(t, b.Extract(oh))
	_, err = oref.Weight()
	assert.ErrorIs(t, err, ErrGone)
}
