package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/driftmud/driftmud/game/bind"
	"github.com/driftmud/driftmud/game/entity"
	"github.com/driftmud/driftmud/game/trigger"
	"github.com/driftmud/driftmud/game/world"
	"github.com/driftmud/driftmud/scheduler"
)

// AdminHandler is the operator surface over a running world. Routes should
// sit behind the admin IP whitelist. Every world access goes through
// Engine.Call so handlers never touch entities off the loop.
type AdminHandler struct {
	db     *gorm.DB
	engine *world.Engine
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, e *world.Engine, sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, engine: e, sched: sched, logger: logger}
}

// Metrics returns world occupancy and scheduler state.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	var stats world.Stats
	h.engine.Call(func() { stats = h.engine.Snapshot() })
	c.JSON(http.StatusOK, gin.H{
		"world":   stats,
		"tickers": h.sched.ListTickers(),
	})
}

// storable is what every inspectable ref exposes.
type storable interface {
	Store() (entity.StoreSet, error)
}

// InspectEntity dumps an entity's full storage set.
// GET /api/admin/entities/:uid
func (h *AdminHandler) InspectEntity(c *gin.Context) {
	uid, err := strconv.ParseUint(c.Param("uid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uid"})
		return
	}
	var (
		set  entity.StoreSet
		kind string
	)
	h.engine.Call(func() {
		ent, ok := h.engine.Registry().Resolve(uid)
		if !ok {
			return
		}
		kind = ent.Kind().String()
		ref := h.engine.Binder().Ref(bind.Handle{Kind: ent.Kind(), UID: uid})
		if s, ok := ref.(storable); ok {
			set, _ = s.Store()
		}
	})
	if kind == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such entity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": uid, "kind": kind, "data": set})
}

// ExtractEntity destroys an entity.
// DELETE /api/admin/entities/:uid
func (h *AdminHandler) ExtractEntity(c *gin.Context) {
	uid, err := strconv.ParseUint(c.Param("uid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uid"})
		return
	}
	var ok bool
	h.engine.Call(func() {
		ent, found := h.engine.Registry().Resolve(uid)
		if !found {
			return
		}
		ok = h.engine.Extract(bind.Handle{Kind: ent.Kind(), UID: uid})
	})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such entity"})
		return
	}
	h.logger.Info("admin extracted entity", zap.Uint64("uid", uid))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type runScriptRequest struct {
	Source string `json:"source" binding:"required"`
}

// RunScript executes an arbitrary script on the loop and reports its error,
// if any. The sandbox timeout and depth ceiling still apply.
// POST /api/admin/scripts/run
func (h *AdminHandler) RunScript(c *gin.Context) {
	var req runScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var runErr error
	h.engine.Call(func() {
		runErr = h.engine.Runner().Run(req.Source, "admin", nil)
	})
	if runErr != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": runErr.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type triggerRequest struct {
	Key  string `json:"key" binding:"required"`
	Type string `json:"type"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// RegisterTrigger adds or replaces a trigger source.
// POST /api/admin/triggers
func (h *AdminHandler) RegisterTrigger(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type and code are required"})
		return
	}
	if req.Name == "" {
		req.Name = req.Key
	}
	h.engine.Call(func() {
		h.engine.Triggers().Register(trigger.Source{
			Key: req.Key, Type: req.Type, Name: req.Name, Code: req.Code,
		})
	})
	h.logger.Info("admin registered trigger", zap.String("key", req.Key))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListTriggers returns every registered trigger key.
// GET /api/admin/triggers
func (h *AdminHandler) ListTriggers(c *gin.Context) {
	var keys []string
	h.engine.Call(func() { keys = h.engine.Triggers().Keys() })
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// AttachTrigger attaches a registered trigger to an entity.
// POST /api/admin/entities/:uid/triggers
func (h *AdminHandler) AttachTrigger(c *gin.Context) {
	uid, err := strconv.ParseUint(c.Param("uid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uid"})
		return
	}
	var req struct {
		Key string `json:"key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var (
		found  bool
		exists bool
	)
	h.engine.Call(func() {
		if _, ok := h.engine.Triggers().Resolve(req.Key); !ok {
			return
		}
		exists = true
		ent, ok := h.engine.Registry().Resolve(uid)
		if !ok {
			return
		}
		ref := h.engine.Binder().Ref(bind.Handle{Kind: ent.Kind(), UID: uid})
		if a, ok := ref.(interface{ AttachTrigger(string) error }); ok {
			found = a.AttachTrigger(req.Key) == nil
		}
	})
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such trigger"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such entity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DetachTrigger removes a trigger attachment from an entity.
// DELETE /api/admin/entities/:uid/triggers/:key
func (h *AdminHandler) DetachTrigger(c *gin.Context) {
	uid, err := strconv.ParseUint(c.Param("uid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uid"})
		return
	}
	key := c.Param("key")
	var detached bool
	h.engine.Call(func() {
		ent, ok := h.engine.Registry().Resolve(uid)
		if !ok {
			return
		}
		ref := h.engine.Binder().Ref(bind.Handle{Kind: ent.Kind(), UID: uid})
		if d, ok := ref.(interface{ DetachTrigger(string) (bool, error) }); ok {
			detached, _ = d.DetachTrigger(key)
		}
	})
	if !detached {
		c.JSON(http.StatusNotFound, gin.H{"error": "not attached"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SaveWorld persists the whole world immediately.
// POST /api/admin/save
func (h *AdminHandler) SaveWorld(c *gin.Context) {
	var err error
	h.engine.Call(func() { err = h.engine.Save() })
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// CancelDelay cancels a pending scheduled invocation by id.
// DELETE /api/admin/tasks/:id
func (h *AdminHandler) CancelDelay(c *gin.Context) {
	if !h.sched.Cancel(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
