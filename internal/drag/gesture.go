package drag

import (
	"errors"
	"fmt"
)

type State int

const (
	Idle State = iota
	Dragging
	Dropped
	Settled
	// Reverted is never entered: a failed persist keeps the optimistic layout
	// until the next poll.
	Reverted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case Settled:
		return "settled"
	case Reverted:
		return "reverted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var ErrNotDragging = errors.New("no drag in progress")

// Gesture tracks one drag from pick-up to settle. The zero value is Idle.
// It is owned by the UI loop and not safe for concurrent use.
type Gesture struct {
	state  State
	item   Draggable
	source Location
	over   *Location
}

func (g *Gesture) State() State { return g.state }

func (g *Gesture) Active() bool { return g.state == Dragging }

func (g *Gesture) Item() Draggable { return g.item }

func (g *Gesture) Source() Location { return g.source }

// Over returns the current hover destination, if any.
func (g *Gesture) Over() (Location, bool) {
	if g.over == nil {
		return Location{}, false
	}
	return *g.over, true
}

// Begin picks item up at src. A previous drop may still be persisting; only a
// drag already in progress blocks a new one.
func (g *Gesture) Begin(item Draggable, src Location) error {
	if g.state == Dragging {
		return fmt.Errorf("begin %s: already dragging %s", item.Key(), g.item.Key())
	}
	g.state = Dragging
	g.item = item
	g.source = src
	loc := src
	g.over = &loc
	return nil
}

// MoveTo updates the hover destination.
func (g *Gesture) MoveTo(dst Location) {
	if g.state != Dragging {
		return
	}
	g.over = &dst
}

// Leave clears the hover destination so the drop lands nowhere.
func (g *Gesture) Leave() {
	if g.state == Dragging {
		g.over = nil
	}
}

// Drop ends the drag and returns the result to hand to the coordinator.
func (g *Gesture) Drop() (DropResult, error) {
	if g.state != Dragging {
		return DropResult{}, ErrNotDragging
	}
	g.state = Dropped
	r := DropResult{Source: g.source, Draggable: g.item}
	if g.over != nil {
		dst := *g.over
		r.Destination = &dst
	}
	return r, nil
}

// Cancel ends the drag with no destination.
func (g *Gesture) Cancel() (DropResult, error) {
	g.Leave()
	return g.Drop()
}

// Settle records that the persist finished, successfully or not.
func (g *Gesture) Settle() {
	if g.state == Dropped {
		g.state = Settled
	}
}
