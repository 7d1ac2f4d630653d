package trigger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/driftmud/driftmud/game/bind"
	"github.com/driftmud/driftmud/game/body"
	"github.com/driftmud/driftmud/game/entity"
	"github.com/driftmud/driftmud/game/gear"
	"github.com/driftmud/driftmud/game/race"
	"github.com/driftmud/driftmud/game/script"
)

type recorded struct {
	key      string
	trigType string
	ownerUID uint64
	err      error
}

type captureRecorder struct {
	calls []recorded
}

func (c *captureRecorder) RecordScript(key, trigType string, ownerUID uint64, _ time.Duration, err error) {
	c.calls = append(c.calls, recorded{key: key, trigType: trigType, ownerUID: ownerUID, err: err})
}

type fixture struct {
	binder   *bind.Binder
	runner   *script.Runner
	registry *Registry
	recorder *captureRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := entity.NewRegistry()
	aux := entity.NewAuxRegistry()
	vocab := body.NewVocab()
	races := race.NewTable(vocab)
	g := gear.New(reg, zap.NewNop())
	binder := bind.New(reg, aux, vocab, races, g, rand.New(rand.NewSource(11)))

	runner := script.NewRunner(200*time.Millisecond, 6, zap.NewNop())
	wrapper := script.NewWrapper(binder)
	runner.SetConverter(wrapper.Value)

	registry := NewRegistry(binder, runner, zap.NewNop())
	rec := &captureRecorder{}
	registry.SetRecorder(rec)
	return &fixture{binder: binder, runner: runner, registry: registry, recorder: rec}
}

func (f *fixture) char(t *testing.T, name string) bind.Handle {
	t.Helper()
	h, err := f.binder.NewChar(name, "human")
	require.NoError(t, err)
	return h
}

func TestDispatch_RunsMatchingTriggers(t *testing.T) {
	f := newFixture(t)
	h := f.char(t, "greeter")
	cref := f.binder.Char(h.UID)

	f.registry.Register(Source{
		Key:  "greet",
		Type: TypeEnter,
		Name: "greet on entry",
		Code: `me.setVar("greeted", actor.name)`,
	})
	require.NoError(t, cref.AttachTrigger("greet"))

	visitor := f.char(t, "visitor")
	f.registry.Dispatch(TypeEnter, h, map[string]any{"actor": visitor})

	v, err := cref.GetVar("greeted")
	require.NoError(t, err)
	assert.Equal(t, "visitor", v)
}

func TestDispatch_SkipsOtherTypes(t *testing.T) {
	f := newFixture(t)
	h := f.char(t, "quiet")
	cref := f.binder.Char(h.UID)

	f.registry.Register(Source{Key: "onspeech", Type: TypeSpeech, Code: `me.setVar("heard", true)`})
	require.NoError(t, cref.AttachTrigger("onspeech"))

	f.registry.Dispatch(TypeEnter, h, nil)
	has, err := cref.HasVar("heard")
	require.NoError(t, err)
	assert.False(t, has)

	f.registry.Dispatch(TypeSpeech, h, nil)
	has, err = cref.HasVar("heard")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestDispatch_AttachmentOrder(t *testing.T) {
	f := newFixture(t)
	h := f.char(t, "ordered")
	cref := f.binder.Char(h.UID)

	f.registry.Register(Source{Key: "first", Type: TypeInit,
		Code: `me.setVar("trail", (me.getVar("trail") || "") + "a")`})
	f.registry.Register(Source{Key: "second", Type: TypeInit,
		Code: `me.setVar("trail", (me.getVar("trail") || "") + "b")`})
	require.NoError(t, cref.AttachTrigger("second"))
	require.NoError(t, cref.AttachTrigger("first"))

	f.registry.Dispatch(TypeInit, h, nil)
	v, err := cref.GetVar("trail")
	require.NoError(t, err)
	assert.Equal(t, "ba", v)
}

func TestDispatch_FailureDoesNotStopRest(t *testing.T) {
	f := newFixture(t)
	h := f.char(t, "resilient")
	cref := f.binder.Char(h.UID)

	f.registry.Register(Source{Key: "bad", Type: TypeInit, Code: `throw new Error("broken")`})
	f.registry.Register(Source{Key: "good", Type: TypeInit, Code: `me.setVar("ran", true)`})
	require.NoError(t, cref.AttachTrigger("bad"))
	require.NoError(t, cref.AttachTrigger("good"))

	f.registry.Dispatch(TypeInit, h, nil)

	has, err := cref.HasVar("ran")
	require.NoError(t, err)
	assert.True(t, has)

	require.Len(t, f.recorder.calls, 2)
	assert.Error(t, f.recorder.calls[0].err)
	assert.NoError(t, f.recorder.calls[1].err)
	assert.Equal(t, h.UID, f.recorder.calls[0].ownerUID)
}

func TestDispatch_PartialMutationStands(t *testing.T) {
	f := newFixture(t)
	h := f.char(t, "partial")
	cref := f.binder.Char(h.UID)

	f.registry.Register(Source{Key: "halffail", Type: TypeInit,
		Code: `me.setVar("before", 1); throw new Error("late"); me.setVar("after", 1)`})
	require.NoError(t, cref.AttachTrigger("halffail"))

	f.registry.Dispatch(TypeInit, h, nil)

	has, err := cref.HasVar("before")
	require.NoError(t, err)
	assert.True(t, has, "mutations before the fault remain in effect")
	has, err = cref.HasVar("after")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDispatch_MissingSourceSkipped(t *testing.T) {
	f := newFixture(t)
	h := f.char(t, "dangling")
	cref := f.binder.Char(h.UID)

	f.registry.Register(Source{Key: "real", Type: TypeInit, Code: `me.setVar("ok", true)`})
	require.NoError(t, cref.AttachTrigger("ghost-key"))
	require.NoError(t, cref.AttachTrigger("real"))

	f.registry.Dispatch(TypeInit, h, nil)
	has, err := cref.HasVar("ok")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestDispatch_GoneOwnerIsNoop(t *testing.T) {
	f := newFixture(t)
	h := f.char(t, "doomed")
	require.True(t, f.binder.Extract(h))
	f.registry.Dispatch(TypeInit, h, nil)
	assert.Empty(t, f.recorder.calls)
}

func TestDispatch_SelfRetriggerHaltsAtDepthCeiling(t *testing.T) {
	f := newFixture(t)
	h := f.char(t, "loop")
	cref := f.binder.Char(h.UID)

	// The world module re-dispatches the same event from inside the
	// script, modelling a trigger that fires itself.
	f.runner.RegisterModule("mud", func(vm *goja.Runtime) goja.Value {
		mod := vm.NewObject()
		_ = mod.Set("dispatch", func(trigType string) {
			f.registry.Dispatch(trigType, h, nil)
		})
		return mod
	})

	f.registry.Register(Source{Key: "recurse", Type: TypeInit,
		Code: `me.setVar("n", (me.getVar("n") || 0) + 1); require("mud").dispatch("init")`})
	require.NoError(t, cref.AttachTrigger("recurse"))

	f.registry.Dispatch(TypeInit, h, nil)

	v, err := cref.GetVar("n")
	require.NoError(t, err)
	n, ok := v.(int64)
	require.True(t, ok)
	assert.LessOrEqual(t, n, int64(6), "recursion bounded by the depth ceiling")
	assert.Positive(t, n)
	assert.Equal(t, 0, f.runner.Depth())
}

func TestRegistry_ResolveAndUnregister(t *testing.T) {
	f := newFixture(t)
	f.registry.Register(Source{Key: "k", Type: TypeSpeech, Name: "n", Code: "1"})

	src, ok := f.registry.Resolve("k")
	require.True(t, ok)
	assert.Equal(t, TypeSpeech, src.Type)

	assert.True(t, f.registry.Unregister("k"))
	assert.False(t, f.registry.Unregister("k"))
	_, ok = f.registry.Resolve("k")
	assert.False(t, ok)
}
