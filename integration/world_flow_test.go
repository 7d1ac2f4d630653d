package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftmud/driftmud/game/bind"
	"github.com/driftmud/driftmud/game/entity"
	"github.com/driftmud/driftmud/game/world"
	"github.com/driftmud/driftmud/model"
)

func (h *Harness) request(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.Router.ServeHTTP(w, req)
	return w
}

func (h *Harness) decode(w *httptest.ResponseRecorder) map[string]any {
	h.T.Helper()
	var out map[string]any
	require.NoError(h.T, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestLoginThenAdminMetrics(t *testing.T) {
	h := NewHarness(t, WriteWorldData(t))

	w := h.request(http.MethodPost, "/api/auth/login",
		map[string]string{"username": "alice", "password": "pass1234"})
	require.Equal(t, http.StatusOK, w.Code)
	token := h.decode(w)["token"].(string)
	require.NotEmpty(t, token)

	w = h.request(http.MethodGet, "/api/admin/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := h.decode(w)
	stats := resp["world"].(map[string]any)
	assert.EqualValues(t, 2, stats["rooms"])
	assert.EqualValues(t, 1, stats["chars"])

	w = h.request(http.MethodPost, "/api/auth/logout", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMovementFiresWorldDataTriggers(t *testing.T) {
	h := NewHarness(t, WriteWorldData(t))

	var chH bind.Handle
	h.Engine.Call(func() {
		var err error
		chH, err = h.Engine.Binder().NewChar("alice", "human")
		require.NoError(t, err)
		require.NoError(t, h.Engine.TransferChar(chH, h.Engine.StartRoom()))
		require.NoError(t, h.Engine.MoveChar(chH, "east"))
		require.NoError(t, h.Engine.MoveChar(chH, "west"))
	})

	h.Engine.Call(func() {
		v, err := h.Engine.Binder().Room(h.Engine.StartRoom().UID).GetVar("last_visitor")
		require.NoError(t, err)
		assert.Equal(t, "alice", v)
	})
}

func TestSpeechReachesNPCAndAuditRecordsScripts(t *testing.T) {
	h := NewHarness(t, WriteWorldData(t))

	h.Engine.Call(func() {
		chH, err := h.Engine.Binder().NewChar("alice", "human")
		require.NoError(t, err)
		require.NoError(t, h.Engine.TransferChar(chH, h.Engine.StartRoom()))
		require.NoError(t, h.Engine.MoveChar(chH, "east"))
		require.NoError(t, h.Engine.Say(chH, "a pint, please"))
	})

	var heard any
	h.Engine.Call(func() {
		reg := h.Engine.Registry()
		for _, uid := range reg.UIDsOfKind(entity.KindChar) {
			ch, _ := reg.Char(uid)
			if ch.Name == "barkeep" {
				heard, _ = ch.GetVar("heard")
			}
		}
	})
	assert.Equal(t, "a pint, please", heard)

	// Every script invocation lands in the audit log.
	h.Audit.Stop(nil)
	var count int64
	h.DB.Model(&model.ScriptLog{}).Count(&count)
	assert.Greater(t, count, int64(0))
}

func TestAdminScriptDrivesWorldAndSaves(t *testing.T) {
	h := NewHarness(t, WriteWorldData(t))

	w := h.request(http.MethodPost, "/api/admin/scripts/run", map[string]string{
		"source": `
			var mud = require("mud");
			var cellar = mud.create_room("cellar");
			var rat = mud.create_char("cellar rat", "human");
		`,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, h.decode(w)["ok"])

	w = h.request(http.MethodPost, "/api/admin/save", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rooms int64
	h.DB.Model(&model.RoomRecord{}).Count(&rooms)
	assert.EqualValues(t, 3, rooms)
}

func TestSaveReloadKeepsWiring(t *testing.T) {
	dataDir := WriteWorldData(t)
	h := NewHarness(t, dataDir)

	h.Engine.Call(func() {
		chH, err := h.Engine.Binder().NewChar("alice", "human")
		require.NoError(t, err)
		require.NoError(t, h.Engine.TransferChar(chH, h.Engine.StartRoom()))
		require.NoError(t, h.Engine.Save())
	})

	// Second stack over the same database, no fresh world data.
	h2 := NewHarnessOverDB(t, h.DB, dataDir)
	h2.Engine.Call(func() {
		reg := h2.Engine.Registry()
		assert.Equal(t, 2, reg.CountKind(entity.KindRoom))
		assert.Equal(t, 2, reg.CountKind(entity.KindChar))
		require.False(t, h2.Engine.StartRoom().IsNone())

		// The reloaded world still runs its triggers.
		chH, err := h2.Engine.Binder().NewChar("bob", "human")
		require.NoError(t, err)
		require.NoError(t, h2.Engine.TransferChar(chH, h2.Engine.StartRoom()))
		v, err := h2.Engine.Binder().Room(h2.Engine.StartRoom().UID).GetVar("last_visitor")
		require.NoError(t, err)
		assert.Equal(t, "bob", v)
	})
}

func TestAdminInspectAfterExtract(t *testing.T) {
	h := NewHarness(t, WriteWorldData(t))

	var uid uint64
	h.Engine.Call(func() { uid = h.Engine.Binder().NewObject("ephemeral").UID })

	w := h.request(http.MethodGet, fmt.Sprintf("/api/admin/entities/%d", uid), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.request(http.MethodDelete, fmt.Sprintf("/api/admin/entities/%d", uid), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.request(http.MethodGet, fmt.Sprintf("/api/admin/entities/%d", uid), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorldEventFeed(t *testing.T) {
	h := NewHarness(t, WriteWorldData(t))

	msgs, cancel, err := h.PubSub.Subscribe(context.Background(), world.EventChannel)
	require.NoError(t, err)
	defer cancel()

	h.Engine.Call(func() {
		chH, err := h.Engine.Binder().NewChar("alice", "human")
		require.NoError(t, err)
		require.NoError(t, h.Engine.TransferChar(chH, h.Engine.StartRoom()))
		require.NoError(t, h.Engine.Say(chH, "hello"))
	})

	seen := map[string]world.Event{}
	deadline := time.After(2 * time.Second)
	for len(seen) < 2 {
		select {
		case m := <-msgs:
			var ev world.Event
			require.NoError(t, json.Unmarshal([]byte(m.Payload), &ev))
			seen[ev.Type] = ev
		case <-deadline:
			t.Fatalf("timed out, events so far: %v", seen)
		}
	}
	assert.Equal(t, "hello", seen["say"].Text)
	assert.NotZero(t, seen["transfer"].Actor)
	assert.Equal(t, seen["transfer"].Actor, seen["say"].Actor)
}
