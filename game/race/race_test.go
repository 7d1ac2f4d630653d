package race

import (
	"testing"

	"github.com/driftmud/driftmud/game/body"
	"github.com/driftmud/driftmud/game/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_StockHuman(t *testing.T) {
	v := body.NewVocab()
	tbl := NewTable(v)

	r, ok := tbl.Get("human")
	require.True(t, ok)
	assert.Equal(t, "hum", r.Abbrev)
	assert.True(t, r.PCOk)

	b := r.Template()
	assert.Equal(t, "medium", b.Size())
	assert.Len(t, b.PartNames(), 26)
	for _, finger := range []string{
		"right ring finger", "left ring finger",
		"left middle finger", "right middle finger",
	} {
		ptype, ok := b.PartType(finger)
		require.True(t, ok, finger)
		assert.Equal(t, "finger", ptype)
	}
	// Whole-body mass ratio must be exactly 1; the stock weights sum to 100.
	assert.InDelta(t, 1.0, b.MassRatio(joinNames(b)), 1e-9)
	assert.InDelta(t, 0.5, b.MassRatio("torso"), 1e-9)
}

func joinNames(b *body.Body) string {
	names := ""
	for i, n := range b.PartNames() {
		if i > 0 {
			names += ", "
		}
		names += n
	}
	return names
}

func TestTable_AddRemove(t *testing.T) {
	v := body.NewVocab()
	tbl := NewTable(v)

	quad := body.New("large")
	require.NoError(t, quad.AddPosition(v, "torso", "torso", 60))
	require.NoError(t, quad.AddPosition(v, "head", "head", 40))
	tbl.Add("bear", "bea", quad, false)

	r, ok := tbl.Get("Bear")
	require.True(t, ok)
	assert.False(t, r.PCOk)
	assert.Equal(t, []string{"human", "bear"}, tbl.Names())

	// The table holds its own copy of the template.
	quad.SetSize("huge")
	assert.Equal(t, "large", r.Template().Size())

	assert.True(t, tbl.Remove("bear"))
	assert.False(t, tbl.Remove("bear"))
}

func TestResetBody_DisplacesWornGear(t *testing.T) {
	v := body.NewVocab()
	tbl := NewTable(v)
	reg := entity.NewRegistry()

	ch := entity.NewCharacter(nil, "bob")
	ch.Race = "human"
	reg.Register(ch)
	require.NoError(t, ch.Body().AddPosition(v, "tail", "tail", 10))

	hat := entity.NewObject(nil, "hat")
	reg.Register(hat)
	require.True(t, ch.Body().Occupy(hat.UID(), "worn", []string{"tail"}))
	entity.MarkWorn(hat, ch)

	require.True(t, tbl.ResetBody(reg, ch))
	assert.False(t, ch.Body().HasPosition("tail"), "body rebuilt from template")
	assert.True(t, ch.Body().HasPosition("torso"))
	assert.True(t, ch.Carries(hat.UID()), "displaced gear falls to inventory")
	assert.Equal(t, entity.LocCarrier, hat.Loc().Kind)
}

func TestResetBody_UnknownRace(t *testing.T) {
	v := body.NewVocab()
	tbl := NewTable(v)
	reg := entity.NewRegistry()
	ch := entity.NewCharacter(nil, "bob")
	ch.Race = "dragon"
	reg.Register(ch)
	assert.False(t, tbl.ResetBody(reg, ch))
}
