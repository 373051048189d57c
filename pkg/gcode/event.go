package gcode

// EventKind identifies an Event.
type EventKind int

// Kinds of events.
const (
	// EventConnect is emitted when a host connects.
	EventConnect EventKind = iota
	// EventDisconnect is emitted when the host goes away.
	EventDisconnect
	// EventLine carries a parsed line.
	EventLine
	// EventError carries a line which could not be framed or parsed.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventLine:
		return "line"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is produced by a host link and consumed by the dispatcher.
type Event struct {
	Kind EventKind
	Line Line
	Err  error
	// Handled, if not nil, is closed by the consumer after processing.
	Handled chan struct{}
}

// MarkHandled closes Handled if present.
func (e Event) MarkHandled() {
	if e.Handled != nil {
		close(e.Handled)
	}
}

// ConnectEvent creates an EventConnect.
func ConnectEvent() Event { return Event{Kind: EventConnect} }

// DisconnectEvent creates an EventDisconnect.
func DisconnectEvent() Event { return Event{Kind: EventDisconnect} }

// LineEvent creates an EventLine.
func LineEvent(line Line) Event { return Event{Kind: EventLine, Line: line} }

// ErrorEvent creates an EventError.
func ErrorEvent(err error) Event { return Event{Kind: EventError, Err: err} }
