package session

import (
	"strings"
	"sync"
)

// TargetToggleOff is the reserved intent target for disabling exam mode.
const TargetToggleOff = "toggle-off"

// Decision is the guard's answer to an attempted navigation.
type Decision int

const (
	// DecisionProceed lets the navigation happen right away.
	DecisionProceed Decision = iota
	// DecisionPrompt holds the navigation until the user chooses leave or stay.
	DecisionPrompt
)

// NavigationIntent is a navigation held back while a session has unsaved progress.
type NavigationIntent struct {
	Target  string `json:"target"`
	Pending bool   `json:"pending"`
}

// Hooks registers and removes the client-side listeners for link clicks and
// page unload. Implementations must not call back into the Guard.
type Hooks interface {
	Install()
	Remove()
}

// Guard holds back navigation away from a session with unsaved progress.
//
// The owner arms it when a session starts running and disarms it on
// termination, discard and teardown. Hooks are installed once per armed window
// and removed exactly once.
type Guard struct {
	mu        sync.Mutex
	hooks     Hooks
	installed bool
	intent    NavigationIntent
}

// NewGuard creates a disarmed guard. hooks may be nil.
func NewGuard(hooks Hooks) *Guard {
	return &Guard{hooks: hooks}
}

// Arm installs the hooks unless they are already installed. A fresh window
// starts with no held intent.
func (g *Guard) Arm() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.installed {
		return false
	}
	g.installed = true
	g.intent = NavigationIntent{}
	if g.hooks != nil {
		g.hooks.Install()
	}
	return true
}

// Disarm removes the hooks and drops any pending intent. Safe to call repeatedly.
func (g *Guard) Disarm() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.intent = NavigationIntent{}
	return g.removeLocked()
}

// Release removes the hooks but keeps a held intent resolvable. Used when the
// session ends on its own while a prompt is open.
func (g *Guard) Release() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.removeLocked()
}

// Armed reports whether the hooks are installed.
func (g *Guard) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.installed
}

// Intercept decides what to do with an attempted navigation to target.
// Internal paths and the toggle-off target are held when unsaved is true and
// the guard is armed; everything else proceeds.
func (g *Guard) Intercept(target string, unsaved bool) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.installed || !unsaved || !Interceptable(target) {
		return DecisionProceed
	}

	g.intent = NavigationIntent{Target: target, Pending: true}
	return DecisionPrompt
}

// Pending returns the held intent, if any.
func (g *Guard) Pending() (NavigationIntent, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.intent, g.intent.Pending
}

// Resolve settles the held intent. On leave the hooks are removed before the
// intent is returned, so replaying it is not intercepted again. On stay the
// intent is dropped and nothing else changes. ok is false when nothing was held.
func (g *Guard) Resolve(leave bool) (intent NavigationIntent, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.intent.Pending {
		return NavigationIntent{}, false
	}

	intent = g.intent
	g.intent = NavigationIntent{}
	if leave {
		g.removeLocked()
	}
	intent.Pending = false
	return intent, true
}

// BeforeUnload reports whether the browser should show its native leave prompt.
func (g *Guard) BeforeUnload(unsaved bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.installed && unsaved
}

func (g *Guard) removeLocked() bool {
	if !g.installed {
		return false
	}
	g.installed = false
	if g.hooks != nil {
		g.hooks.Remove()
	}
	return true
}

// Interceptable reports whether target is an in-site path or the toggle-off
// marker. Absolute and protocol-relative URLs leave the site and are handled
// by the unload prompt instead.
func Interceptable(target string) bool {
	if target == TargetToggleOff {
		return true
	}
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//")
}
