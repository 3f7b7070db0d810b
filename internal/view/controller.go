package view

import (
	"fmt"
	"sync"

	"github.com/jengzang/webgis-dashboard/internal/colorscale"
)

// EventKind names a controller transition
type EventKind string

const (
	EventCamera EventKind = "camera"
	EventFilter EventKind = "filter"
	EventLayers EventKind = "layers"

	// EventSync reports state adopted from another instance
	EventSync EventKind = "sync"

	// EventSnapshot is never emitted by a transition; streams send it first
	EventSnapshot EventKind = "snapshot"
)

// Event is delivered to subscribers after every transition
type Event struct {
	Seq   uint64    `json:"seq"`
	Kind  EventKind `json:"kind"`
	State State     `json:"state"`
}

// Listener receives controller events. It runs on the goroutine that made the
// transition, before that transition returns. Concurrent transitions may
// deliver out of order; Seq orders them.
type Listener func(Event)

// Controller owns one session's view, filter and layer state
type Controller struct {
	mu        sync.Mutex
	state     State
	initial   ViewState
	palette   colorscale.BrandPalette
	seq       uint64
	nextID    int
	listeners map[int]Listener
}

// NewController creates a controller at the initial pose with every brand selected
func NewController(initial ViewState, palette colorscale.BrandPalette) *Controller {
	return &Controller{
		state: State{
			View:   initial,
			Filter: FilterState{Brand: AllBrands},
			Layers: LayerVisibility{Grid: true, Points: true},
		},
		initial:   initial,
		palette:   palette,
		listeners: make(map[int]Listener),
	}
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Seq returns the number of transitions applied so far
func (c *Controller) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Subscribe registers l and returns a function that removes it
func (c *Controller) Subscribe(l Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// MoveCamera replaces the shared pose
func (c *Controller) MoveCamera(v ViewState) (State, error) {
	if err := v.Validate(); err != nil {
		return c.State(), err
	}
	return c.apply(EventCamera, func(s *State) { s.View = v }), nil
}

// ResetCamera returns to the initial pose
func (c *Controller) ResetCamera() State {
	return c.apply(EventCamera, func(s *State) { s.View = c.initial })
}

// SelectBrand filters points to one brand; AllBrands clears the filter
func (c *Controller) SelectBrand(brand string) (State, error) {
	if brand != AllBrands && !c.palette.Has(brand) {
		return c.State(), fmt.Errorf("%w: %q", ErrUnknownBrand, brand)
	}
	return c.apply(EventFilter, func(s *State) { s.Filter = FilterState{Brand: brand} }), nil
}

// ResetFilter selects every brand
func (c *Controller) ResetFilter() State {
	return c.apply(EventFilter, func(s *State) { s.Filter = FilterState{Brand: AllBrands} })
}

// SetLayers sets the layer toggles
func (c *Controller) SetLayers(v LayerVisibility) State {
	return c.apply(EventLayers, func(s *State) { s.Layers = v })
}

// Restore replaces the state and sequence number without notifying listeners.
// Used when a session is rehydrated from a shared store.
func (c *Controller) Restore(s State, seq uint64) {
	c.mu.Lock()
	c.state = s
	c.seq = seq
	c.mu.Unlock()
}

// Sync adopts s when seq is newer than the local sequence, or equal to it
// with a different state; the shared copy wins ties. Listeners receive an
// EventSync. It reports whether the state changed.
func (c *Controller) Sync(s State, seq uint64) bool {
	c.mu.Lock()
	if seq < c.seq || (seq == c.seq && s == c.state) {
		c.mu.Unlock()
		return false
	}
	c.state = s
	c.seq = seq
	ev := Event{Seq: seq, Kind: EventSync, State: s}
	listeners := c.listenersLocked()
	c.mu.Unlock()

	notify(listeners, ev)
	return true
}

// apply mutates the state and notifies every listener before returning
func (c *Controller) apply(kind EventKind, mutate func(*State)) State {
	c.mu.Lock()
	mutate(&c.state)
	c.seq++
	ev := Event{Seq: c.seq, Kind: kind, State: c.state}
	listeners := c.listenersLocked()
	c.mu.Unlock()

	notify(listeners, ev)
	return ev.State
}

func (c *Controller) listenersLocked() []Listener {
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	return listeners
}

func notify(listeners []Listener, ev Event) {
	for _, l := range listeners {
		l(ev)
	}
}
