package logger

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Messages carries encoded JSON log lines to whoever prints them (console or debug ui).
var Messages = make(chan []byte, 512)

// dropped counts lines discarded because Messages was full
var dropped atomic.Uint64

const (
	ErrorLvl   = 0
	WarningLvl = 1
	InfoLvl    = 2
	ActionLvl  = 3
	ButtonsLvl = 4
	FramesLvl  = 5

	DebugLvl = 378
)

var (
	Error   = zap.Int("level", ErrorLvl)
	Warning = zap.Int("level", WarningLvl)
	Info    = zap.Int("level", InfoLvl)
	Action  = zap.Int("level", ActionLvl)
	Buttons = zap.Int("level", ButtonsLvl)
	Frames  = zap.Int("level", FramesLvl)

	Debug = zap.Int("level", DebugLvl)
)

// chanWriter never blocks: log calls are made from input reading goroutines and the gesture engine,
// a stalled consumer must not stall input processing.
type chanWriter struct {
	sync.Mutex
}

func (w *chanWriter) Write(p []byte) (n int, err error) {
	w.Lock()
	var newSlice = make([]byte, len(p))
	copy(newSlice, p)
	select {
	case Messages <- newSlice:
	default:
		dropped.Add(1)
	}
	w.Unlock()
	return len(p), nil
}

func (w *chanWriter) Sync() error {
	return nil
}

// Dropped returns number of log lines lost due to full Messages channel
func Dropped() uint64 {
	return dropped.Load()
}

var (
	shared     *zap.Logger
	sharedOnce sync.Once
)

func GetLogger() *zap.Logger {
	sharedOnce.Do(func() {
		writer := &chanWriter{}
		cfg := zap.NewProductionEncoderConfig()
		cfg.SkipLineEnding = true
		cfg.EncodeTime = zapcore.EpochNanosTimeEncoder
		cfg.LevelKey = ""
		encoder := zapcore.NewJSONEncoder(cfg)
		shared = zap.New(
			zapcore.NewCore(encoder, zapcore.Lock(writer), zap.DebugLevel),
			zap.AddCaller(),
		)
	})
	return shared
}
