package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gethiox/middleclick/internal/pkg/gesture"
	"github.com/gethiox/middleclick/internal/pkg/input"
	"github.com/gethiox/middleclick/internal/pkg/logger"
	"github.com/gethiox/middleclick/internal/pkg/output"
	"github.com/gethiox/middleclick/internal/pkg/touch"
	"github.com/holoplot/go-evdev"
	"go.uber.org/zap"
)

const openTimeout = time.Second * 5

// handler is per event-node processing state of a connected device
type handler struct {
	assembler   *touch.Assembler    // nil for non-touchpad handlers
	passthrough *output.Passthrough // nil when devices are not grabbed
}

// runManager is the main program process, before exiting from that function it needs to ensure that
// all goroutine execution has completed
func runManager(ctx context.Context, cfg MiddleClickConfig, grab bool, engine *gesture.Engine, pointer *output.Pointer, devices *registry) {
	wg := sync.WaitGroup{}

	log.Info("Run manager", logger.Debug)
	if !grab {
		log.Info("devices are not grabbed, clicks cannot be remapped (tap gestures only)", logger.Warning)
	}

device:
	for d := range input.MonitorNewDevices(ctx, cfg.MiddleClick.StabilizationPeriod, cfg.MiddleClick.DiscoveryRate) {
		var inputEvents <-chan input.InputEvent
		var err error

		appearedAt := time.Now()

		log.Info("Opening device...", zap.String("device_name", d.Name), logger.Debug)
		for {
			inputEvents, err = d.ProcessEvents(ctx, grab)
			if err != nil {
				if time.Since(appearedAt) > openTimeout {
					log.Info(fmt.Sprintf("failed to open device on time, giving up: %v", err), zap.String("device_name", d.Name), logger.Warning)
					continue device
				}
				time.Sleep(time.Millisecond * 100)
				continue
			}
			break
		}

		handlers := prepareHandlers(&d, grab, pointer)

		c := &connected{device: d, since: time.Now()}
		for _, h := range handlers {
			if h.assembler != nil {
				c.touchpads++
			}
			if h.passthrough != nil {
				c.passthroughs = append(c.passthroughs, h.passthrough)
			}
		}
		devices.add(c)

		wg.Add(1)
		go func(dev input.Device) {
			defer wg.Done()
			log.Info("Device connected",
				zap.String("device_name", dev.Name),
				zap.String("device_type", dev.DeviceType.String()),
				logger.Info,
			)
			processEvents(engine, inputEvents, handlers)
			for _, h := range handlers {
				if h.passthrough == nil {
					continue
				}
				err := h.passthrough.Close()
				if err != nil {
					log.Info(fmt.Sprintf("closing virtual device failed: %v", err), zap.String("device_name", dev.Name), logger.Debug)
				}
			}
			devices.remove(dev.PhysicalUUID())
			log.Info("Device disconnected", zap.String("device_name", dev.Name), logger.Info)
		}(d)
	}
	wg.Wait()
	log.Info("Exit manager", logger.Debug)
}

// prepareHandlers creates frame assemblers for touchpad handlers and, for grabbed devices,
// virtual clones that carry the traffic the system no longer sees directly.
// Rewritten buttons missing on a clone are emitted by pointer.
func prepareHandlers(d *input.Device, grab bool, pointer *output.Pointer) map[string]*handler {
	var handlers = make(map[string]*handler)

	for _, info := range d.PointerHandlers() {
		path := info.EventPath()
		dev, ok := d.Evdevs[path]
		if !ok {
			continue
		}
		h := &handler{}

		if info.IsTouchpad() {
			absInfos, err := dev.AbsInfos()
			if err != nil {
				log.Info(fmt.Sprintf("reading axis information failed: %v", err), zap.String("handler_event", info.Event()), logger.Warning)
			} else {
				h.assembler = touch.NewAssembler(absInfos)
			}
		}

		if grab {
			p, err := output.NewPassthrough(dev, info.Name, pointer)
			if err != nil {
				log.Info(fmt.Sprintf("creating virtual device failed, input of this handler is lost: %v", err),
					zap.String("handler_event", info.Event()), zap.String("handler_name", info.Name),
					logger.Error,
				)
			} else {
				h.passthrough = p
			}
		}
		handlers[path] = h
	}
	return handlers
}

// processEvents feeds touch frames and button events of one device into the engine until events channel is closed
func processEvents(engine *gesture.Engine, events <-chan input.InputEvent, handlers map[string]*handler) {
	for ev := range events {
		h, ok := handlers[ev.Source.EventPath()]
		if !ok {
			continue
		}

		if h.assembler != nil {
			if ev.Event.Type == evdev.EV_SYN && ev.Event.Code == evdev.SYN_DROPPED {
				log.Info("touch events dropped by kernel, waiting for next report", zap.String("handler_event", ev.Source.Event()), logger.Debug)
			}
			frame, ok := h.assembler.Feed(ev.Event)
			if ok {
				engine.SubmitFrame(frame)
			}
		}

		if h.passthrough == nil {
			continue
		}
		if me, ok := output.ButtonEvent(ev.Event, time.Now()); ok {
			engine.SubmitMouseEvent(me, h.passthrough)
			continue
		}
		err := h.passthrough.Forward(ev.Event)
		if err != nil {
			log.Info(fmt.Sprintf("forwarding event failed: %v", err), zap.String("handler_event", ev.Source.Event()), logger.Debug)
		}
	}
}
