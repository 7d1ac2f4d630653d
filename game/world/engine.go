package world

import (
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/driftmud/driftmud/game/bind"
	"github.com/driftmud/driftmud/game/body"
	"github.com/driftmud/driftmud/game/entity"
	"github.com/driftmud/driftmud/game/gear"
	"github.com/driftmud/driftmud/game/race"
	"github.com/driftmud/driftmud/game/script"
	"github.com/driftmud/driftmud/game/trigger"
	"github.com/driftmud/driftmud/scheduler"
)

// Options tunes the engine loop and its sandbox.
type Options struct {
	ScriptTimeout  time.Duration
	ScriptMaxDepth int
	Heartbeat      time.Duration
	SaveInterval   time.Duration
	StartRoom      string
	Seed           int64
}

// Engine owns the live world: the identity table, vocabularies, race table,
// equipment engine, trigger registry, and the sandbox runner. A single loop
// goroutine owns all entity mutation; everything else funnels work in
// through Post or Call. Domain packages below the engine carry no locks.
type Engine struct {
	reg      *entity.Registry
	aux      *entity.AuxRegistry
	vocab    *body.Vocab
	races    *race.Table
	gear     *gear.Engine
	binder   *bind.Binder
	runner   *script.Runner
	wrapper  *script.Wrapper
	triggers *trigger.Registry
	sched    *scheduler.Scheduler
	db       *gorm.DB
	events   Publisher
	logger   *zap.Logger

	startRoom    string
	startRoomUID uint64
	heartbeat    time.Duration
	saveInterval time.Duration

	cmdCh  chan func()
	stopCh chan struct{}
	doneCh chan struct{}
}

// New assembles an engine over the given database. db may be nil for a
// purely in-memory world (tests).
func New(db *gorm.DB, sched *scheduler.Scheduler, opts Options, logger *zap.Logger) *Engine {
	if opts.ScriptTimeout <= 0 {
		opts.ScriptTimeout = 500 * time.Millisecond
	}
	if opts.ScriptMaxDepth <= 0 {
		opts.ScriptMaxDepth = 30
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	reg := entity.NewRegistry()
	aux := entity.NewAuxRegistry()
	vocab := body.NewVocab()
	races := race.NewTable(vocab)
	gearEng := gear.New(reg, logger)
	rng := rand.New(rand.NewSource(opts.Seed))
	binder := bind.New(reg, aux, vocab, races, gearEng, rng)
	runner := script.NewRunner(opts.ScriptTimeout, opts.ScriptMaxDepth, logger)
	wrapper := script.NewWrapper(binder)
	runner.SetConverter(wrapper.Value)

	e := &Engine{
		reg:          reg,
		aux:          aux,
		vocab:        vocab,
		races:        races,
		gear:         gearEng,
		binder:       binder,
		runner:       runner,
		wrapper:      wrapper,
		sched:        sched,
		db:           db,
		logger:       logger,
		startRoom:    opts.StartRoom,
		heartbeat:    opts.Heartbeat,
		saveInterval: opts.SaveInterval,
		cmdCh:        make(chan func(), 256),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	e.triggers = trigger.NewRegistry(binder, runner, logger)
	runner.RegisterModule("mud", e.mudModule)
	return e
}

func (e *Engine) Binder() *bind.Binder            { return e.binder }
func (e *Engine) Registry() *entity.Registry      { return e.reg }
func (e *Engine) AuxRegistry() *entity.AuxRegistry { return e.aux }
func (e *Engine) Vocab() *body.Vocab              { return e.vocab }
func (e *Engine) Races() *race.Table              { return e.races }
func (e *Engine) Gear() *gear.Engine              { return e.gear }
func (e *Engine) Runner() *script.Runner          { return e.runner }
func (e *Engine) Triggers() *trigger.Registry     { return e.triggers }

// SetRecorder forwards a script invocation recorder to the dispatcher.
func (e *Engine) SetRecorder(rec trigger.Recorder) { e.triggers.SetRecorder(rec) }

// StartRoom returns the handle of the configured starting room, or the none
// handle when the world has no room by that name.
func (e *Engine) StartRoom() bind.Handle {
	if e.startRoomUID == 0 {
		return bind.None
	}
	return bind.Handle{Kind: entity.KindRoom, UID: e.startRoomUID}
}

// Run starts the loop. Call in a goroutine; Stop shuts it down.
func (e *Engine) Run() {
	defer close(e.doneCh)
	if e.heartbeat > 0 {
		e.sched.AddTicker("heartbeat", e.heartbeat, func() {
			e.Post(e.tickHeartbeat)
		})
	}
	if e.saveInterval > 0 && e.db != nil {
		e.sched.AddTicker("autosave", e.saveInterval, func() {
			e.Post(func() {
				if err := e.save(); err != nil {
					e.logger.Error("autosave failed", zap.Error(err))
				}
			})
		})
	}
	for {
		select {
		case fn := <-e.cmdCh:
			e.runCmd(fn)
		case <-e.stopCh:
			// Drain whatever was posted before the stop.
			for {
				select {
				case fn := <-e.cmdCh:
					e.runCmd(fn)
				default:
					return
				}
			}
		}
	}
}

// Stop signals the loop to exit and waits for it to drain.
func (e *Engine) Stop() {
	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
	<-e.doneCh
	e.sched.RemoveTicker("heartbeat")
	e.sched.RemoveTicker("autosave")
}

// Post enqueues fn to run on the loop goroutine. It never blocks; when the
// queue is full the command is dropped with a warning.
func (e *Engine) Post(fn func()) {
	select {
	case e.cmdCh <- fn:
	default:
		e.logger.Warn("engine command queue full, dropping command")
	}
}

// Call runs fn on the loop goroutine and waits for it to finish. Safe to
// call from any goroutine except the loop itself.
func (e *Engine) Call(fn func()) {
	done := make(chan struct{})
	e.cmdCh <- func() {
		defer close(done)
		fn()
	}
	select {
	case <-done:
	case <-e.doneCh:
	}
}

func (e *Engine) runCmd(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("engine command panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

// tickHeartbeat fires the heartbeat trigger on every char that carries one.
func (e *Engine) tickHeartbeat() {
	for _, uid := range e.reg.UIDsOfKind(entity.KindChar) {
		e.triggers.Dispatch(trigger.TypeHeart,
			bind.Handle{Kind: entity.KindChar, UID: uid}, nil)
	}
}

// Delay schedules a script source to run on the loop after d. The returned
// id cancels it through the scheduler; a cancelled delay runs nothing.
func (e *Engine) Delay(d time.Duration, src, name string, bindings map[string]any) string {
	return e.sched.Delay(d, func() {
		e.Post(func() {
			if err := e.runner.Run(src, name, bindings); err != nil {
				e.logger.Warn("delayed script failed",
					zap.String("script", name), zap.Error(err))
			}
		})
	}, nil)
}

// Stats is a point-in-time snapshot of world occupancy.
type Stats struct {
	Chars    int `json:"chars"`
	Objects  int `json:"objects"`
	Rooms    int `json:"rooms"`
	Exits    int `json:"exits"`
	Entities int `json:"entities"`
	Triggers int `json:"triggers"`
	Pending  int `json:"pending_delays"`
}

// Snapshot gathers world stats. Call from the loop (wrap in Call from
// outside).
func (e *Engine) Snapshot() Stats {
	return Stats{
		Chars:    e.reg.CountKind(entity.KindChar),
		Objects:  e.reg.CountKind(entity.KindObject),
		Rooms:    e.reg.CountKind(entity.KindRoom),
		Exits:    e.reg.CountKind(entity.KindExit),
		Entities: e.reg.Count(),
		Triggers: len(e.triggers.Keys()),
		Pending:  e.sched.Pending(),
	}
}
