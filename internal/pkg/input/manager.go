package input

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gethiox/middleclick/internal/pkg/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// VirtualNamePrefix marks devices created by this program, they are never picked up by monitor
const VirtualNamePrefix = "middleclick"

func fetchDevices() ([]Device, error) {
	infos, err := GetHandlers()
	if err != nil {
		return nil, err
	}

	return Normalize(infos), nil
}

// tracker remembers devices seen so far, a device is reported once it is present
// long enough for all of its handlers to get registered.
type tracker struct {
	stabilization time.Duration
	firstSeen     map[PhysicalID]time.Time
	reported      map[PhysicalID]Device
}

func newTracker(stabilization time.Duration) *tracker {
	return &tracker{
		stabilization: stabilization,
		firstSeen:     make(map[PhysicalID]time.Time),
		reported:      make(map[PhysicalID]Device),
	}
}

func (t *tracker) update(current []Device, now time.Time) (ready, removed []Device) {
	present := make(map[PhysicalID]bool, len(current))

	for _, d := range current {
		if d.IsVirtual() || len(d.PointerHandlers()) == 0 {
			continue
		}
		id := d.PhysicalUUID()
		present[id] = true

		if _, ok := t.reported[id]; ok {
			continue
		}
		seen, ok := t.firstSeen[id]
		if !ok {
			t.firstSeen[id] = now
			seen = now
		}
		if now.Sub(seen) >= t.stabilization {
			t.reported[id] = d
			delete(t.firstSeen, id)
			ready = append(ready, d)
		}
	}

	for id, d := range t.reported {
		if !present[id] {
			removed = append(removed, d)
			delete(t.reported, id)
		}
	}
	for id := range t.firstSeen {
		if !present[id] {
			delete(t.firstSeen, id)
		}
	}

	return ready, removed
}

// inputChanges signals /dev/input changes, nil channel when watching is not possible
func inputChanges(ctx context.Context) <-chan fsnotify.Event {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Info(fmt.Sprintf("creating /dev/input watcher failed: %v", err), logger.Warning)
		return nil
	}
	err = watcher.Add("/dev/input")
	if err != nil {
		log.Info(fmt.Sprintf("watching /dev/input failed: %v", err), logger.Warning)
		_ = watcher.Close()
		return nil
	}

	go func() {
		<-ctx.Done()
		err := watcher.Close()
		if err != nil {
			log.Info(fmt.Sprintf("closing watcher failed: %v", err), logger.Debug)
		}
	}()

	return watcher.Events
}

// MonitorNewDevices reports touchpads and mice as they appear.
// The list is polled every discoveryRate, /dev/input changes trigger an earlier rescan.
func MonitorNewDevices(ctx context.Context, stabilizationPeriod, discoveryRate time.Duration) <-chan Device {
	var devChan = make(chan Device)

	go func() {
		defer close(devChan)
		log.Info("Monitor new devices engaged", logger.Debug)

		t := newTracker(stabilizationPeriod)
		changes := inputChanges(ctx)
		ticker := time.NewTicker(discoveryRate)
		defer ticker.Stop()

	root:
		for {
			current, err := fetchDevices()
			if err != nil {
				log.Info(fmt.Sprintf("fetching devices failed: %v", err), logger.Error)
			}

			ready, removed := t.update(current, time.Now())
			for _, d := range removed {
				log.Info("Device removed", zap.String("device", d.String()), logger.Debug)
			}
			for _, d := range ready {
				log.Info("New device", zap.String("device", d.String()), logger.Debug)
				select {
				case devChan <- d:
				case <-ctx.Done():
					break root
				}
			}

			select {
			case <-ctx.Done():
				break root
			case <-ticker.C:
			case _, ok := <-changes:
				if !ok {
					changes = nil
				}
			}
		}
		log.Info("Monitor new devices disengaged", logger.Debug)
	}()

	return devChan
}
