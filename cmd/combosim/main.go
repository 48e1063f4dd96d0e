// Command combosim replays a scripted trace of key press/release events
// through a combo.Engine and prints the resulting downstream event order.
// It exists to exercise the engine's exported API outside of its own test
// files, and to let combo scenarios be driven interactively:
//
//	combosim -combos combos.json -trace trace.json
//
// combos.json is a JSON array of combo definitions; trace.json is a JSON
// array of timestamped key events. Both formats are documented by the
// comboDef and traceEvent structs below.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/zmkfw/combos/combo"
)

type comboDef struct {
	Name            string `json:"name"`
	Positions       []int  `json:"positions"`
	TimeoutMillis   int    `json:"timeout_ms"`
	VirtualPosition int    `json:"virtual_position"`
	SlowRelease     bool   `json:"slow_release"`
	Layers          []int  `json:"layers"`
}

type traceEvent struct {
	Position int  `json:"position"`
	Pressed  bool `json:"pressed"`
	Millis   int  `json:"t_ms"`
}

// printingBehavior is a stand-in for the layer-aware, device-tree-configured
// behavior binding a real keyboard firmware would invoke; combosim only
// needs to observe press/release, not execute anything.
type printingBehavior struct {
	name string
}

func (b *printingBehavior) Press(ev combo.BindingEvent) {
	fmt.Printf("%6dms  behavior(%d=%s).press\n", ev.Timestamp.UnixMilli(), ev.VirtualPosition, b.name)
}

func (b *printingBehavior) Release(ev combo.BindingEvent) {
	fmt.Printf("%6dms  behavior(%d=%s).release\n", ev.Timestamp.UnixMilli(), ev.VirtualPosition, b.name)
}

// printingBus is a stand-in event bus: Raise re-enters the engine
// synchronously (the re-entrancy contract every real Bus must honor),
// Release and Free just print what happened to the raw key event.
type printingBus struct {
	engine *combo.Engine
}

func (b *printingBus) Raise(ev combo.KeyEvent) {
	fmt.Printf("%6dms  re-raise position=%d pressed=%v\n", ev.Timestamp.UnixMilli(), ev.Position, ev.Pressed)
	b.engine.HandleKeyEvent(ev)
}

func (b *printingBus) Release(ev combo.KeyEvent) {
	fmt.Printf("%6dms  pass-through position=%d pressed=%v\n", ev.Timestamp.UnixMilli(), ev.Position, ev.Pressed)
}

func (b *printingBus) Free(ev combo.KeyEvent) {
	fmt.Printf("%6dms  free position=%d pressed=%v\n", ev.Timestamp.UnixMilli(), ev.Position, ev.Pressed)
}

// simClock is the virtual wall clock combosim drives directly from the
// trace file, instead of sleeping in real time.
type simClock struct {
	now time.Time
}

// simTimer is a Timer backed by simClock: Schedule records an absolute fire
// instant, and combosim's dispatch loop invokes callbacks itself once the
// clock reaches that instant (no goroutines, matching the engine's
// single-threaded cooperative dispatch model).
type simTimer struct {
	clock    *simClock
	callback func()
	fireAt   time.Time
	pending  bool
}

func (t *simTimer) Schedule(delay time.Duration) {
	t.fireAt = t.clock.now.Add(delay)
	t.pending = true
}

func (t *simTimer) Cancel() bool {
	was := t.pending
	t.pending = false
	return was
}

func (t *simTimer) BusyGet() bool { return t.pending }

func main() {
	combosPath := flag.String("combos", "", "path to a JSON combo-definition list")
	tracePath := flag.String("trace", "", "path to a JSON trace of key events (default: stdin)")
	layer := flag.Int("layer", 0, "active layer reported to the engine")
	flag.Parse()

	if *combosPath == "" {
		log.Fatal("combosim: -combos is required")
	}

	defs, err := readCombos(*combosPath)
	if err != nil {
		log.Fatalf("combosim: %v", err)
	}
	trace, err := readTrace(*tracePath)
	if err != nil {
		log.Fatalf("combosim: %v", err)
	}

	clock := &simClock{now: time.UnixMilli(0)}
	var timers []*simTimer

	combos := make([]combo.Combo, len(defs))
	for i, d := range defs {
		combos[i] = combo.Combo{
			Name:            d.Name,
			Positions:       d.Positions,
			Behavior:        &printingBehavior{name: d.Name},
			Timeout:         time.Duration(d.TimeoutMillis) * time.Millisecond,
			SlowRelease:     d.SlowRelease,
			VirtualPosition: d.VirtualPosition,
			Layers:          d.Layers,
		}
	}

	bus := &printingBus{}
	factory := func(cb func()) combo.Timer {
		t := &simTimer{clock: clock, callback: cb}
		timers = append(timers, t)
		return t
	}

	engine, err := combo.New(combos, combo.DefaultLimits, bus, func() int { return *layer }, factory)
	if err != nil {
		log.Fatalf("combosim: building engine: %v", err)
	}
	bus.engine = engine

	sort.Slice(trace, func(i, j int) bool { return trace[i].Millis < trace[j].Millis })

	for _, ev := range trace {
		target := time.UnixMilli(int64(ev.Millis))
		fireDueTimers(timers, clock, target)
		clock.now = target
		disp := engine.HandleKeyEvent(combo.KeyEvent{
			Position:  ev.Position,
			Pressed:   ev.Pressed,
			Timestamp: clock.now,
		})
		fmt.Printf("%6dms  press=%d pressed=%v -> %s\n", ev.Millis, ev.Position, ev.Pressed, disp)
	}
	fireDueTimers(timers, clock, clock.now.Add(24*time.Hour))
}

// fireDueTimers advances the simulated clock through every pending timer
// whose deadline falls at or before until, in deadline order, invoking each
// callback exactly once the clock reaches it.
func fireDueTimers(timers []*simTimer, clock *simClock, until time.Time) {
	for {
		var next *simTimer
		for _, t := range timers {
			if !t.pending || t.fireAt.After(until) {
				continue
			}
			if next == nil || t.fireAt.Before(next.fireAt) {
				next = t
			}
		}
		if next == nil {
			return
		}
		clock.now = next.fireAt
		next.pending = false
		next.callback()
	}
}

func readCombos(path string) ([]comboDef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading combo defs: %w", err)
	}
	defer f.Close()

	var defs []comboDef
	if err := json.NewDecoder(f).Decode(&defs); err != nil {
		return nil, fmt.Errorf("decoding combo defs: %w", err)
	}
	return defs, nil
}

func readTrace(path string) ([]traceEvent, error) {
	r := os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reading trace: %w", err)
		}
		defer f.Close()
		r = f
	}

	var events []traceEvent
	if err := json.NewDecoder(r).Decode(&events); err != nil {
		return nil, fmt.Errorf("decoding trace: %w", err)
	}
	return events, nil
}
