package session

import "github.com/google/uuid"

// EventType names an engine event delivered to the rendering client.
type EventType string

const (
	EventState         EventType = "state"
	EventStarted       EventType = "started"
	EventTick          EventType = "tick"
	EventAnswered      EventType = "answered"
	EventTerminated    EventType = "terminated"
	EventEmpty         EventType = "empty"
	EventGuardArmed    EventType = "guard_armed"
	EventGuardDisarmed EventType = "guard_disarmed"
	EventConfirm       EventType = "confirm"
	EventNavigate      EventType = "navigate"
	EventPage          EventType = "page"
	EventCursor        EventType = "cursor"
	EventMode          EventType = "mode"
)

// Event is one engine notification. Data holds one of the payload types below,
// a View (EventState) or a Summary (EventTerminated).
type Event struct {
	Type EventType
	Data any
}

// Sink receives host events. Publish must not call back into the Host.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

type StartedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	TimeLeft  int       `json:"time_left"`
}

type TickPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	TimeLeft  int       `json:"time_left"`
}

// AnsweredPayload reports a recorded selection. The correct answer stays
// hidden until the session ends.
type AnsweredPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	Question  string    `json:"question"`
	Selected  string    `json:"selected"`
	IsCorrect bool      `json:"is_correct"`
}

type ConfirmPayload struct {
	Target string `json:"target"`
}

type NavigatePayload struct {
	Target string `json:"target"`
}

type PagePayload struct {
	Page int `json:"page"`
}

type CursorPayload struct {
	Index int `json:"index"`
	Total int `json:"total"`
}

type ModePayload struct {
	ExamMode bool `json:"exam_mode"`
}
