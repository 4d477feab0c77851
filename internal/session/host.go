package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/countdown"
	"github.com/stemsi/exstem-practice/internal/model"
)

// Position is where the current question set sits inside its bank.
type Position struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	PageSize   int `json:"page_size"`
}

// QuestionSet is what the question supply hands to the host: the questions of
// one page (or of a whole mock test) and their position.
type QuestionSet struct {
	Questions []model.Question
	Position  Position
}

// Navigator performs position changes the host asks for. Both methods are
// requests: the page arrives later through Host.Load.
type Navigator interface {
	ShowPage(page int)
	Navigate(target string)
}

// Preferences persists the exam-mode toggle.
type Preferences interface {
	SetExamMode(ctx context.Context, enabled bool) error
}

// Options select the variant.
type Options struct {
	Kind     model.SetKind
	Duration time.Duration // zero picks the default for Kind
	ExamMode bool
	Clock    clockwork.Clock
}

// Deps are the host's collaborators. Sink is required; the rest may be nil.
type Deps struct {
	Navigator   Navigator
	Hooks       Hooks
	Preferences Preferences
	Sink        Sink
	Log         zerolog.Logger
}

// Host runs one session at a time over the question set it was last given.
//
// Subject practice and topic quizzes get one session per page. Mock tests get
// one session over the whole test with a question cursor instead of pages.
// With exam mode off the set is rendered read-only, untimed and unscored.
type Host struct {
	mu sync.Mutex

	kind     model.SetKind
	examMode bool
	set      QuestionSet
	byText   map[string]model.Question
	cursor   int
	// pendingPage is the page asked for while the session had answers; Continue goes there.
	pendingPage int
	closed      bool

	// canContinue is read from timer callbacks, which do not hold mu.
	canContinue atomic.Bool

	ctrl  *Controller
	guard *Guard

	nav   Navigator
	prefs Preferences
	sink  Sink
	log   zerolog.Logger
}

// NewHost creates a host with no questions. Call Load to mount the first set.
func NewHost(opts Options, deps Deps) *Host {
	duration := opts.Duration
	if duration <= 0 {
		duration = countdown.DefaultPageDuration
		if !opts.Kind.Paged() {
			duration = countdown.DefaultMockTestDuration
		}
	}

	sink := deps.Sink
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}

	h := &Host{
		kind:     opts.Kind,
		examMode: opts.ExamMode,
		byText:   map[string]model.Question{},
		guard:    NewGuard(deps.Hooks),
		nav:      deps.Navigator,
		prefs:    deps.Preferences,
		sink:     sink,
		log:      deps.Log.With().Str("component", "session_host").Str("kind", string(opts.Kind)).Logger(),
	}
	h.ctrl = NewController(nil, duration, countdown.New(opts.Clock), h.relay, deps.Log)
	return h
}

// Load mounts a new question set. Any current session is dropped unscored.
func (h *Host) Load(set QuestionSet) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.guard.Disarm()
	h.set = set
	h.byText = make(map[string]model.Question, len(set.Questions))
	for _, q := range set.Questions {
		if _, dup := h.byText[q.Text]; !dup {
			h.byText[q.Text] = q
		}
	}
	h.cursor = 0
	h.pendingPage = 0
	h.updateContinueLocked()

	s := h.ctrl.Reset(set.Questions)
	h.log.Debug().
		Str("session_id", s.ID.String()).
		Int("page", set.Position.Page).
		Int("questions", len(set.Questions)).
		Msg("Question set loaded")

	if len(set.Questions) == 0 {
		h.publish(EventEmpty, PagePayload{Page: set.Position.Page})
	}
	h.publishStateLocked()
}

// Answer records selected for the question with text questionText. The correct
// answer comes from the loaded set, never from the caller.
func (h *Host) Answer(questionText, selected string) (Answer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.examLocked(); err != nil {
		return Answer{}, err
	}
	q, ok := h.byText[questionText]
	if !ok {
		if len(h.set.Questions) == 0 {
			return Answer{}, ErrNoQuestions
		}
		return Answer{}, ErrUnknownQuestion
	}
	return h.ctrl.RecordAnswer(q.Text, selected, q.CorrectAnswer)
}

// Finish ends the session now with reason manual.
func (h *Host) Finish() (Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.examLocked(); err != nil {
		return Result{}, err
	}
	return h.ctrl.Finish()
}

// Retry re-arms the same questions after termination.
func (h *Host) Retry() (Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.examLocked(); err != nil {
		return Session{}, err
	}
	s, err := h.ctrl.Retry()
	if err != nil {
		return Session{}, err
	}
	h.guard.Disarm()

	h.cursor = 0
	h.pendingPage = 0
	h.updateContinueLocked()
	h.publishStateLocked()
	return s, nil
}

// Continue asks for the next page after termination, or for the page that was
// requested while the session still had answers. It returns false when there
// is nowhere to go.
func (h *Host) Continue() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false, ErrSessionClosed
	}
	if !h.kind.Paged() {
		return false, ErrNotPaged
	}
	if _, done := h.ctrl.Result(); !done {
		return false, ErrNotTerminated
	}

	target := h.set.Position.Page + 1
	if h.pendingPage > 0 {
		target = h.pendingPage
	}
	if target < 1 || target > h.set.Position.TotalPages {
		return false, nil
	}

	h.requestPageLocked(target)
	return true, nil
}

// GoToPage moves to page, clamped to the bank. If the session has answers it is
// terminated as manual first and the move waits for Continue. It returns true
// when the page was requested right away.
func (h *Host) GoToPage(page int) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.goToPageLocked(page)
}

// NextPage is GoToPage(current+1).
func (h *Host) NextPage() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.goToPageLocked(h.set.Position.Page + 1)
}

// PrevPage is GoToPage(current-1).
func (h *Host) PrevPage() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.goToPageLocked(h.set.Position.Page - 1)
}

// NextQuestion moves the question cursor forward, stopping at the last question.
func (h *Host) NextQuestion() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.moveCursorLocked(1)
}

// PrevQuestion moves the question cursor back, stopping at the first question.
func (h *Host) PrevQuestion() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.moveCursorLocked(-1)
}

// Navigate handles activation of a link to target. With unsaved progress the
// navigation is held and a confirm event is published; otherwise it is handed
// to the Navigator.
func (h *Host) Navigate(target string) Decision {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return DecisionProceed
	}

	decision := h.guard.Intercept(target, h.ctrl.HasUnsavedProgress())
	if decision == DecisionPrompt {
		h.log.Debug().Str("target", target).Msg("Navigation held for confirmation")
		h.publish(EventConfirm, ConfirmPayload{Target: target})
		return decision
	}

	h.navigateLocked(target)
	return decision
}

// Leave confirms the held navigation and replays it once. A running session is
// discarded without a result; a session that already terminated keeps it.
func (h *Host) Leave(ctx context.Context) (NavigationIntent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return NavigationIntent{}, ErrSessionClosed
	}

	intent, ok := h.guard.Resolve(true)
	if !ok {
		return NavigationIntent{}, ErrNoPendingNavigation
	}
	if h.ctrl.Snapshot().Status == StatusRunning {
		h.ctrl.Discard()
	}

	if intent.Target == TargetToggleOff {
		h.applyExamModeLocked(ctx, false)
		return intent, nil
	}

	h.publishStateLocked()
	h.navigateLocked(intent.Target)
	return intent, nil
}

// Stay drops the held navigation and leaves the session untouched.
func (h *Host) Stay() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.guard.Resolve(false); !ok {
		return ErrNoPendingNavigation
	}
	return nil
}

// SetExamMode switches between the timed session and the read-only browse
// view. Turning it off with unsaved progress is held for confirmation like a
// navigation to TargetToggleOff.
func (h *Host) SetExamMode(ctx context.Context, enabled bool) (Decision, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return DecisionProceed, ErrSessionClosed
	}
	if enabled == h.examMode {
		h.publish(EventMode, ModePayload{ExamMode: enabled})
		return DecisionProceed, nil
	}

	if !enabled {
		if h.guard.Intercept(TargetToggleOff, h.ctrl.HasUnsavedProgress()) == DecisionPrompt {
			h.publish(EventConfirm, ConfirmPayload{Target: TargetToggleOff})
			return DecisionPrompt, nil
		}
	}

	h.applyExamModeLocked(ctx, enabled)
	return DecisionProceed, nil
}

// BeforeUnload reports whether the client should raise its native leave prompt.
func (h *Host) BeforeUnload() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.guard.BeforeUnload(h.ctrl.HasUnsavedProgress())
}

// ExamMode reports the current mode.
func (h *Host) ExamMode() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.examMode
}

// Position returns the current position.
func (h *Host) Position() Position {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.set.Position
}

// View renders the current state.
func (h *Host) View() View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewLocked()
}

// Close stops the countdown and removes the guard. Safe to call more than once.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.ctrl.Close()
	h.guard.Disarm()
}

// ─── Internal ───────────────────────────────────────────────────────

func (h *Host) examLocked() error {
	if h.closed {
		return ErrSessionClosed
	}
	if !h.examMode {
		return ErrBrowseMode
	}
	return nil
}

func (h *Host) goToPageLocked(page int) (bool, error) {
	if h.closed {
		return false, ErrSessionClosed
	}
	if !h.kind.Paged() {
		return false, ErrNotPaged
	}

	pos := h.set.Position
	if pos.TotalPages < 1 {
		return false, nil
	}
	if page < 1 {
		page = 1
	}
	if page > pos.TotalPages {
		page = pos.TotalPages
	}
	if page == pos.Page {
		return false, nil
	}

	if h.examMode && h.ctrl.HasUnsavedProgress() {
		h.pendingPage = page
		h.updateContinueLocked()
		if _, err := h.ctrl.Finish(); err != nil {
			return false, err
		}
		return false, nil
	}

	h.requestPageLocked(page)
	return true, nil
}

func (h *Host) requestPageLocked(page int) {
	h.guard.Disarm()
	h.log.Debug().Int("from", h.set.Position.Page).Int("to", page).Msg("Page requested")
	h.publish(EventPage, PagePayload{Page: page})
	if h.nav != nil {
		h.nav.ShowPage(page)
	}
}

func (h *Host) navigateLocked(target string) {
	h.publish(EventNavigate, NavigatePayload{Target: target})
	if h.nav != nil {
		h.nav.Navigate(target)
	}
}

func (h *Host) moveCursorLocked(delta int) int {
	n := len(h.set.Questions)
	if n == 0 {
		return 0
	}
	next := h.cursor + delta
	if next < 0 {
		next = 0
	}
	if next > n-1 {
		next = n - 1
	}
	if next != h.cursor {
		h.cursor = next
		h.publish(EventCursor, CursorPayload{Index: next, Total: n})
	}
	return h.cursor
}

func (h *Host) applyExamModeLocked(ctx context.Context, enabled bool) {
	h.examMode = enabled
	if enabled {
		h.ctrl.Reset(h.set.Questions)
	} else {
		h.guard.Disarm()
		h.ctrl.Discard()
	}
	h.pendingPage = 0
	h.updateContinueLocked()

	if h.kind.Paged() && h.prefs != nil {
		if err := h.prefs.SetExamMode(ctx, enabled); err != nil {
			h.log.Warn().Err(err).Bool("exam_mode", enabled).Msg("Failed to persist exam mode")
		}
	}

	h.log.Debug().Bool("exam_mode", enabled).Msg("Exam mode changed")
	h.publish(EventMode, ModePayload{ExamMode: enabled})
	h.publishStateLocked()
}

func (h *Host) updateContinueLocked() {
	pos := h.set.Position
	h.canContinue.Store(h.kind.Paged() && (h.pendingPage > 0 || pos.Page < pos.TotalPages))
}

func (h *Host) publishStateLocked() {
	h.publish(EventState, h.viewLocked())
}

func (h *Host) publish(t EventType, data any) {
	h.sink.Publish(Event{Type: t, Data: data})
}

// relay receives controller events. It runs with the controller lock held,
// possibly on the timer goroutine, so it only touches the guard, the sink and
// atomics.
func (h *Host) relay(e Event) {
	switch e.Type {
	case EventStarted:
		h.guard.Arm()
		h.sink.Publish(e)
	case EventTerminated:
		h.guard.Release()
		if r, ok := e.Data.(Result); ok {
			h.sink.Publish(Event{Type: EventTerminated, Data: NewSummary(r, h.canContinue.Load())})
			return
		}
		h.sink.Publish(e)
	default:
		h.sink.Publish(e)
	}
}
