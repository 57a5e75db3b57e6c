package main

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/middleclick/internal/pkg/gesture"
	"github.com/gethiox/middleclick/internal/pkg/input"
	"github.com/gethiox/middleclick/internal/pkg/logger"
	"github.com/gethiox/middleclick/internal/pkg/output"
	"github.com/logrusorgru/aurora"
)

// connected is a device currently read by manager
type connected struct {
	device       input.Device
	touchpads    int
	passthroughs []*output.Passthrough
	since        time.Time
}

// registry tracks connected devices for the overview
type registry struct {
	mutex   sync.Mutex
	devices map[input.PhysicalID]*connected
}

func newRegistry() *registry {
	return &registry{devices: make(map[input.PhysicalID]*connected)}
}

func (r *registry) add(c *connected) {
	r.mutex.Lock()
	r.devices[c.device.PhysicalUUID()] = c
	r.mutex.Unlock()
}

func (r *registry) remove(id input.PhysicalID) {
	r.mutex.Lock()
	delete(r.devices, id)
	r.mutex.Unlock()
}

// lines renders device list, ordered by physical path
func (r *registry) lines(au aurora.Aurora) []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var ids []input.PhysicalID
	for id := range r.devices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var lines []string
	for _, id := range ids {
		c := r.devices[id]
		dtype := c.device.DeviceType.String()
		typeSep := 8 - len(dtype)
		if typeSep < 0 {
			typeSep = 0
		}
		lines = append(lines, fmt.Sprintf(
			"%s: %s, handlers: %2d",
			strings.Repeat(" ", typeSep)+colorForString(au, dtype).String(),
			colorForString(au, c.device.Name).String(),
			len(c.device.Handlers),
		))

		var delivered, rewritten, suppressed uint64
		for _, p := range c.passthroughs {
			d, rw, s := p.Stats()
			delivered += d
			rewritten += rw
			suppressed += s
		}
		lines = append(lines, fmt.Sprintf(
			"└ touchpads: %d, clicks: %d, rewritten: %d, suppressed: %d, uptime: %s",
			c.touchpads, delivered, rewritten, suppressed, time.Since(c.since).Truncate(time.Second),
		))
	}
	return lines
}

func fill(view *gocui.View, lines []string) {
	x, y := view.Size()
	view.Rewind()
	for i := 0; i < y; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		free := x - rawStringLen(line)
		if free < 0 {
			free = 0
		}
		view.Write([]byte(line + strings.Repeat(" ", free)))
		view.Write([]byte{'\n'})
	}
}

func overviewView(g *gocui.Gui, colors bool, devices *registry, done <-chan struct{}) {
	view, err := g.View(ViewOverview)
	if err != nil {
		panic(err)
	}
	au := aurora.NewAurora(colors)

	for {
		select {
		case <-done:
			return
		case <-time.After(time.Millisecond * 500):
		}
		lines := devices.lines(au)
		g.Update(func(*gocui.Gui) error {
			fill(view, lines)
			return nil
		})
	}
}

func engineLines(au aurora.Aurora, s gesture.Snapshot, last []gesture.Action) []string {
	flag := func(b bool) string {
		if b {
			return au.Green("yes").String()
		}
		return au.Gray(12, "no").String()
	}

	var recent []string
	for _, a := range last {
		recent = append(recent, colorForString(au, a.String()).String())
	}

	return []string{
		fmt.Sprintf("mode: %s, fingers: %d", colorForString(au, string(s.Mode)), s.Fingers),
		fmt.Sprintf("touching: %d, qualifying: %s, four: %s", s.State.LastFingerCount, flag(s.State.QualifyingDown), flag(s.State.FourDown)),
		fmt.Sprintf("swipe armed: %s, fired: %s", flag(s.SwipeArmed), flag(s.SwipeFired)),
		fmt.Sprintf("tap: %s, four tap: %s", s.MiddleTap, s.FourTap),
		fmt.Sprintf("frames: %d, clicks: %d, gestures: %d", s.Frames, s.MouseEvents, s.Actions),
		fmt.Sprintf("dropped: %d/%d/%d, logs: %d", s.DroppedFrames, s.DroppedMouse, s.DroppedActs, logger.Dropped()),
		fmt.Sprintf("last: %s", strings.Join(recent, " ")),
	}
}

// engineView shows engine snapshot and recently fired gestures
func engineView(g *gocui.Gui, colors bool, engine *gesture.Engine, actions <-chan gesture.Action) {
	view, err := g.View(ViewEngine)
	if err != nil {
		panic(err)
	}
	au := aurora.NewAurora(colors)

	var last []gesture.Action
	ticker := time.NewTicker(time.Millisecond * 100)
	defer ticker.Stop()

	for {
		select {
		case a, ok := <-actions:
			if !ok {
				return
			}
			last = append(last, a)
			if len(last) > 3 {
				last = last[len(last)-3:]
			}
			continue
		case <-ticker.C:
		}
		lines := engineLines(au, engine.Snapshot(), last)
		g.Update(func(*gocui.Gui) error {
			fill(view, lines)
			return nil
		})
	}
}

func logView(g *gocui.Gui, color bool, logLevel, bufSize int, rate time.Duration) {
	feeder, err := NewFeeder(g, ViewLogs, logLevel, aurora.NewAurora(color))
	if err != nil {
		panic(err)
	}

	buf := newLogBuffer(bufSize)
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	var changed bool
	for {
		select {
		case msg, ok := <-logger.Messages:
			if !ok {
				return
			}
			buf.WriteMessage(msg)
			changed = true
			continue
		case <-ticker.C:
		}
		if !changed {
			continue
		}
		changed = false

		g.Update(func(*gocui.Gui) error {
			feeder.view.Rewind()
			_, y := feeder.view.Size()
			for _, msg := range buf.ReadLastMessages(y) {
				feeder.Write(msg)
			}
			return nil
		})
	}
}
