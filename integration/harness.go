// Package integration spins the full stack (database, cache, engine, world
// data, HTTP router) and exercises it end to end.
package integration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/driftmud/driftmud/api/rest"
	"github.com/driftmud/driftmud/audit"
	"github.com/driftmud/driftmud/cache"
	"github.com/driftmud/driftmud/config"
	"github.com/driftmud/driftmud/game/world"
	"github.com/driftmud/driftmud/resource"
	"github.com/driftmud/driftmud/scheduler"
	"github.com/driftmud/driftmud/testutil"
)

// Harness is one running server instance backed by in-memory storage.
type Harness struct {
	T      *testing.T
	DB     *gorm.DB
	Cache  cache.Cache
	PubSub cache.PubSub
	Sched  *scheduler.Scheduler
	Engine *world.Engine
	Audit  *audit.Service
	Router *gin.Engine
	Config *config.Config
}

// NewHarness builds and starts a full stack over a fresh in-memory database.
// The engine loop runs until the test finishes.
func NewHarness(t *testing.T, dataDir string) *Harness {
	t.Helper()
	return newHarness(t, testutil.SetupTestDB(t), dataDir, false)
}

// NewHarnessOverDB builds a stack over an existing database, reloading the
// saved world. World data definitions install; prototypes do not
// re-instantiate.
func NewHarnessOverDB(t *testing.T, db *gorm.DB, dataDir string) *Harness {
	t.Helper()
	return newHarness(t, db, dataDir, true)
}

func newHarness(t *testing.T, db *gorm.DB, dataDir string, defsOnly bool) *Harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, ps := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(nil) })

	cfg := &config.Config{}
	cfg.Server.Debug = true
	cfg.Security.JWTSecret = "integration-secret"
	cfg.Security.JWTTTLH = time.Hour
	cfg.World.StartRoom = "square"

	engine := world.New(db, sched, world.Options{
		ScriptTimeout: time.Second,
		StartRoom:     cfg.World.StartRoom,
		Seed:          1,
	}, logger)
	engine.SetRecorder(auditSvc)
	engine.SetEvents(ps)
	require.NoError(t, engine.Load())

	if dataDir != "" {
		res := resource.NewLoader(dataDir, logger)
		require.NoError(t, res.Load())
		if defsOnly {
			require.NoError(t, res.ApplyDefs(engine))
		} else {
			require.NoError(t, res.Apply(engine))
		}
	}

	go engine.Run()
	t.Cleanup(engine.Stop)

	router := rest.NewRouter(cfg, db, c, engine, sched, logger)
	return &Harness{
		T: t, DB: db, Cache: c, PubSub: ps, Sched: sched,
		Engine: engine, Audit: auditSvc, Router: router, Config: cfg,
	}
}

// WriteWorldData lays out a small test world on disk and returns its path.
func WriteWorldData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("prototypes.json", `[
		{"key": "square", "kind": "room", "name": "square",
		 "desc": "The town square.",
		 "exits": {"east": "tavern"},
		 "triggers": ["welcome"]},
		{"key": "tavern", "kind": "room", "name": "tavern",
		 "exits": {"west": "square"}},
		{"key": "barkeep", "kind": "char", "name": "barkeep",
		 "room": "tavern", "triggers": ["banter"]},
		{"key": "cloak", "kind": "obj", "name": "dusty cloak",
		 "room": "tavern",
		 "wearable": {"pos_types": ["about body"], "equip_type": "worn"}}
	]`)
	write("scripts/welcome.enter.js", `me.setVar("last_visitor", actor.name)`)
	write("scripts/banter.speech.js", `me.setVar("heard", text)`)
	return dir
}
