package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer       Action = "answer"
	ActionFinish       Action = "finish"
	ActionRetry        Action = "retry"
	ActionContinue     Action = "continue"
	ActionPage         Action = "page"
	ActionNextPage     Action = "next_page"
	ActionPrevPage     Action = "prev_page"
	ActionNextQuestion Action = "next_question"
	ActionPrevQuestion Action = "prev_question"
	ActionNavigate     Action = "navigate"
	ActionLeave        Action = "leave"
	ActionStay         Action = "stay"
	ActionSetExamMode  Action = "set_exam_mode"
	ActionUnload       Action = "unload"
	ActionSync         Action = "sync"
	ActionPing         Action = "ping"
)

// Request is every client message. Only the fields of its action are set.
type Request struct {
	Action   Action `json:"action"`
	Question string `json:"question,omitempty"` // answer
	Selected string `json:"selected,omitempty"` // answer
	Page     int    `json:"page,omitempty"`     // page
	Target   string `json:"target,omitempty"`   // navigate
	Enabled  *bool  `json:"enabled,omitempty"`  // set_exam_mode
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState         Event = "state"
	EventStarted       Event = "started"
	EventTick          Event = "tick"
	EventAnswered      Event = "answered"
	EventTerminated    Event = "terminated"
	EventEmpty         Event = "empty"
	EventGuardArmed    Event = "guard_armed"
	EventGuardDisarmed Event = "guard_disarmed"
	EventConfirm       Event = "confirm"
	EventNavigate      Event = "navigate"
	EventPage          Event = "page"
	EventCursor        Event = "cursor"
	EventMode          Event = "mode"
	EventUnload        Event = "unload"
	EventError         Event = "error"
	EventPong          Event = "pong"
)

// Message is the envelope of every server event except errors.
type Message struct {
	Event Event `json:"event"`
	Data  any   `json:"data,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// UnloadResponse answers ActionUnload: Prompt tells the browser to raise its
// native leave confirmation.
type UnloadResponse struct {
	Prompt bool `json:"prompt"`
}
