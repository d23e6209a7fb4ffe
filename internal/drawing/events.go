package drawing

// EventType is the kind of pointer input.
type EventType int

const (
	Down EventType = iota
	Move
	Up
	Leave
)

// Source distinguishes the device that produced an event. Both feed the same
// state machine.
type Source int

const (
	Mouse Source = iota
	Touch
)

// PointerEvent is a device-neutral pointer input.
type PointerEvent struct {
	Type   EventType
	Point  Point
	Source Source
}

// Handle dispatches ev to the matching state transition.
func (s *Surface) Handle(ev PointerEvent) {
	switch ev.Type {
	case Down:
		s.PointerDown(ev.Point)
	case Move:
		s.PointerMove(ev.Point)
	case Up:
		s.PointerUp()
	case Leave:
		s.PointerLeave()
	}
}
