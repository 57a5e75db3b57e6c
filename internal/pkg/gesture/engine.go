package gesture

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gethiox/middleclick/internal/pkg/config"
	"github.com/gethiox/middleclick/internal/pkg/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// IgnoreChecker tells whether input should be left alone, e.g. because of focused application.
// Must not block.
type IgnoreChecker interface {
	Ignored() bool
}

type never struct{}

func (never) Ignored() bool { return false }

type mouseMessage struct {
	ev   MouseEvent
	sink MouseSink
}

// message carries either a frame or a mouse event, both share one queue to keep their order
type message struct {
	frame *Frame
	mouse *mouseMessage
}

// Snapshot is a consistent copy of engine internals, published after every processed message
type Snapshot struct {
	State       State
	Mode        config.Mode
	Fingers     int
	SwipeArmed  bool
	SwipeFired  bool
	MiddleTap   TapState
	FourTap     TapState
	Frames      uint64
	MouseEvents uint64
	Actions     uint64

	DroppedFrames uint64
	DroppedMouse  uint64
	DroppedActs   uint64
}

// Engine is the only owner of gesture State. Touch and mouse readers only enqueue messages,
// all decisions are made on the goroutine running Run.
type Engine struct {
	store   *config.Store
	ignore  IgnoreChecker
	emitter Emitter

	state     State
	settings  *config.Settings
	processor *Processor
	filter    *Filter

	inbox    chan message
	reload   chan struct{}
	actions  chan Action
	snapshot atomic.Pointer[Snapshot]

	frameCount, mouseCount, actionCount      uint64
	droppedFrames, droppedMouse, droppedActs atomic.Uint64
}

func NewEngine(store *config.Store, ignore IgnoreChecker, emitter Emitter, queueSize int) (*Engine, error) {
	if queueSize < 1 {
		queueSize = 1
	}
	if ignore == nil {
		ignore = never{}
	}

	settings := store.Get()
	mode, err := NewMode(settings.Mode)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:    store,
		ignore:   ignore,
		emitter:  emitter,
		settings: settings,
		inbox:    make(chan message, queueSize),
		reload:   make(chan struct{}, 1),
		actions:  make(chan Action, queueSize),
	}
	e.processor = NewProcessor(&e.state, mode)
	e.filter = NewFilter(&e.state)
	e.publish()

	store.OnChange(func(config.Change) {
		select {
		case e.reload <- struct{}{}:
		default: // already pending, engine reads latest settings anyway
		}
	})

	return e, nil
}

// SubmitFrame enqueues touch frame, returns false when the frame was dropped because of full queue
func (e *Engine) SubmitFrame(f Frame) bool {
	select {
	case e.inbox <- message{frame: &f}:
		return true
	default:
		e.droppedFrames.Add(1)
		return false
	}
}

// SubmitMouseEvent enqueues physical button event, decision is delivered to sink.
// When queue is full the event is passed through untouched.
func (e *Engine) SubmitMouseEvent(ev MouseEvent, sink MouseSink) bool {
	select {
	case e.inbox <- message{mouse: &mouseMessage{ev: ev, sink: sink}}:
		return true
	default:
		e.droppedMouse.Add(1)
		if sink != nil {
			sink.Deliver(ev, Pass)
		}
		return false
	}
}

// Actions returns channel of fired actions, intended for observers only.
// Actions are dropped when nobody keeps up with reading.
func (e *Engine) Actions() <-chan Action {
	return e.actions
}

func (e *Engine) Snapshot() Snapshot {
	return *e.snapshot.Load()
}

// Run processes messages until ctx is cancelled. Actions channel is closed on return.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.actions)
	log.Info("gesture engine started", zap.String("mode", string(e.settings.Mode)), logger.Debug)

root:
	for {
		select {
		case <-ctx.Done():
			break root
		case <-e.reload:
			e.applySettings()
		case m := <-e.inbox:
			e.pendingSettings()
			switch {
			case m.frame != nil:
				e.handleFrame(*m.frame)
			case m.mouse != nil:
				e.handleMouse(*m.mouse)
			}
		}
		e.publish()
	}

	log.Info("gesture engine stopped", logger.Debug)
	return nil
}

// pendingSettings makes sure settings published before a message are applied before handling it
func (e *Engine) pendingSettings() {
	select {
	case <-e.reload:
		e.applySettings()
	default:
	}
}

func (e *Engine) applySettings() {
	s := e.store.Get()
	if s == e.settings {
		return
	}
	old := e.settings
	e.settings = s

	if s.Mode != old.Mode {
		mode, err := NewMode(s.Mode)
		if err != nil {
			log.Info(fmt.Sprintf("cannot switch mode: %v", err), logger.Error)
			return
		}
		e.processor.SetMode(mode)
		log.Info("gesture mode changed", zap.String("mode", string(s.Mode)), logger.Info)
	}
	if s.Fingers != old.Fingers || s.AllowMoreFingers != old.AllowMoreFingers || s.FourFingerAction != old.FourFingerAction {
		e.processor.Reclassify(s)
	}
}

func (e *Engine) handleFrame(f Frame) {
	e.frameCount++
	ignored := e.ignore.Ignored()
	log.Info("frame",
		zap.Int("fingers", f.FingerCount),
		zap.Int("positions", len(f.Positions)),
		zap.Bool("ignored", ignored),
		logger.Frames,
	)
	for _, a := range e.processor.Process(f, e.settings, ignored) {
		e.fire(a)
	}
}

func (e *Engine) handleMouse(m mouseMessage) {
	e.mouseCount++
	out, verdict, actions := e.filter.Handle(m.ev, e.ignore.Ignored())
	if verdict != Pass {
		log.Info(fmt.Sprintf("%s: %s", m.ev, verdict), zap.String("result", out.String()), logger.Buttons)
	}
	if m.sink != nil {
		m.sink.Deliver(out, verdict)
	}
	for _, a := range actions {
		e.fire(a)
	}
}

func (e *Engine) fire(a Action) {
	e.actionCount++
	log.Info(fmt.Sprintf("gesture: %s", a), logger.Action)
	if e.emitter != nil {
		err := e.emitter.Emit(a)
		if err != nil {
			log.Info(fmt.Sprintf("emitting %s failed: %v", a, err), logger.Warning)
		}
	}
	select {
	case e.actions <- a:
	default:
		e.droppedActs.Add(1)
	}
}

func (e *Engine) publish() {
	swipe := e.processor.Swipe()
	s := &Snapshot{
		State:       e.state,
		Mode:        e.processor.Mode().Name(),
		Fingers:     e.settings.Fingers,
		SwipeArmed:  swipe.Armed(),
		SwipeFired:  swipe.Triggered(),
		Frames:      e.frameCount,
		MouseEvents: e.mouseCount,
		Actions:     e.actionCount,

		DroppedFrames: e.droppedFrames.Load(),
		DroppedMouse:  e.droppedMouse.Load(),
		DroppedActs:   e.droppedActs.Load(),
	}
	if th, ok := e.processor.Mode().(*tapHoldMode); ok {
		s.MiddleTap, s.FourTap = th.Trackers()
	}
	if s.State.LastFingerCount < 0 {
		s.State.LastFingerCount = 0
	}
	e.snapshot.Store(s)
}
