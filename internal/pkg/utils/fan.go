package utils

import (
	"fmt"
	"math"
	"sync"
)

// DynamicFanOut copies every input value to all currently spawned outputs.
// Slow outputs lose values instead of stalling the others.
type DynamicFanOut[T any] struct {
	input    <-chan T
	inputCap int

	closed  bool
	mutex   sync.Mutex
	outputs map[int64]chan T
	dropped uint64
}

func NewDynamicFanOut[T any](input <-chan T) *DynamicFanOut[T] {
	f := DynamicFanOut[T]{
		input:    input,
		inputCap: cap(input),
		outputs:  make(map[int64]chan T),
	}
	go f.run()
	return &f
}

func (f *DynamicFanOut[T]) run() {
	for e := range f.input {
		f.mutex.Lock()
		for _, o := range f.outputs {
			select {
			case o <- e:
			default:
				f.dropped++
			}
		}
		f.mutex.Unlock()
	}

	f.mutex.Lock()
	f.closed = true
	for id, o := range f.outputs {
		close(o)
		delete(f.outputs, id)
	}
	f.mutex.Unlock()
}

// SpawnOutput creates new output channel and its ID for later despawning.
// Output channel has size of input channel, it will always be buffered with at least size 1.
// Outputs are closed when input is closed.
func (f *DynamicFanOut[T]) SpawnOutput() (int64, <-chan T, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return 0, nil, fmt.Errorf("input channel is closed")
	}

	ocap := f.inputCap
	if ocap == 0 {
		ocap = 1
	}

	var id int64
	for id = 0; id < math.MaxInt64; id++ {
		if _, ok := f.outputs[id]; !ok {
			break
		}
	}
	if id == math.MaxInt64 {
		return 0, nil, fmt.Errorf("no space available")
	}

	newChan := make(chan T, ocap)
	f.outputs[id] = newChan
	return id, newChan, nil
}

// DespawnOutput removes output channel with given ID
func (f *DynamicFanOut[T]) DespawnOutput(id int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	c, ok := f.outputs[id]
	if !ok {
		return fmt.Errorf("output id %d not found", id)
	}
	close(c)
	delete(f.outputs, id)

	return nil
}

// Dropped returns number of values lost on full outputs
func (f *DynamicFanOut[T]) Dropped() uint64 {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.dropped
}
