package session

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingHooks may be called from the countdown goroutine.
type countingHooks struct {
	installs atomic.Int32
	removes  atomic.Int32
}

func (h *countingHooks) Install() { h.installs.Add(1) }
func (h *countingHooks) Remove()  { h.removes.Add(1) }

func TestGuard_ArmInstallsOnce(t *testing.T) {
	hooks := &countingHooks{}
	g := NewGuard(hooks)

	assert.True(t, g.Arm())
	assert.False(t, g.Arm())
	assert.True(t, g.Armed())

	assert.True(t, g.Disarm())
	assert.False(t, g.Disarm())
	assert.False(t, g.Armed())

	assert.EqualValues(t, 1, hooks.installs.Load())
	assert.EqualValues(t, 1, hooks.removes.Load())
}

func TestGuard_InterceptOnlyUnsavedInternalNavigation(t *testing.T) {
	tests := []struct {
		name    string
		armed   bool
		unsaved bool
		target  string
		want    Decision
	}{
		{"no answers yet", true, false, "/subjects/physics", DecisionProceed},
		{"unsaved internal path", true, true, "/subjects/physics", DecisionPrompt},
		{"unsaved toggle off", true, true, TargetToggleOff, DecisionPrompt},
		{"guard not armed", false, true, "/subjects/physics", DecisionProceed},
		{"external url", true, true, "https://example.com/", DecisionProceed},
		{"protocol relative", true, true, "//example.com/a", DecisionProceed},
		{"fragment only", true, true, "#question-3", DecisionProceed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(nil)
			if tt.armed {
				g.Arm()
			}

			assert.Equal(t, tt.want, g.Intercept(tt.target, tt.unsaved))

			intent, pending := g.Pending()
			assert.Equal(t, tt.want == DecisionPrompt, pending)
			if pending {
				assert.Equal(t, NavigationIntent{Target: tt.target, Pending: true}, intent)
			}
		})
	}
}

func TestGuard_LeaveRemovesHooksBeforeReplay(t *testing.T) {
	hooks := &countingHooks{}
	g := NewGuard(hooks)
	g.Arm()

	require.Equal(t, DecisionPrompt, g.Intercept("/topics/optics", true))

	intent, ok := g.Resolve(true)
	require.True(t, ok)
	assert.Equal(t, "/topics/optics", intent.Target)
	assert.False(t, intent.Pending)
	assert.EqualValues(t, 1, hooks.removes.Load())
	assert.False(t, g.Armed())

	// The replayed navigation passes straight through.
	assert.Equal(t, DecisionProceed, g.Intercept(intent.Target, true))

	_, ok = g.Resolve(true)
	assert.False(t, ok)
	assert.EqualValues(t, 1, hooks.removes.Load())
}

func TestGuard_StayKeepsHooks(t *testing.T) {
	hooks := &countingHooks{}
	g := NewGuard(hooks)
	g.Arm()

	require.Equal(t, DecisionPrompt, g.Intercept("/topics/optics", true))

	_, ok := g.Resolve(false)
	require.True(t, ok)
	assert.True(t, g.Armed())
	assert.Zero(t, hooks.removes.Load())

	_, pending := g.Pending()
	assert.False(t, pending)

	_, ok = g.Resolve(false)
	assert.False(t, ok)
}

func TestGuard_DisarmDropsPendingIntent(t *testing.T) {
	g := NewGuard(nil)
	g.Arm()
	g.Intercept("/a", true)

	g.Disarm()

	_, pending := g.Pending()
	assert.False(t, pending)
}

func TestGuard_ReleaseKeepsPendingIntent(t *testing.T) {
	hooks := &countingHooks{}
	g := NewGuard(hooks)
	g.Arm()
	g.Intercept("/a", true)

	assert.True(t, g.Release())
	assert.False(t, g.Release())
	assert.False(t, g.Armed())
	assert.EqualValues(t, 1, hooks.removes.Load())

	intent, ok := g.Resolve(true)
	require.True(t, ok)
	assert.Equal(t, "/a", intent.Target)
	assert.EqualValues(t, 1, hooks.removes.Load())
}

func TestGuard_ArmStartsWithoutIntent(t *testing.T) {
	g := NewGuard(nil)
	g.Arm()
	g.Intercept("/a", true)
	g.Release()

	g.Arm()
	_, pending := g.Pending()
	assert.False(t, pending)
}

func TestGuard_BeforeUnload(t *testing.T) {
	g := NewGuard(nil)
	assert.False(t, g.BeforeUnload(true))

	g.Arm()
	assert.True(t, g.BeforeUnload(true))
	assert.False(t, g.BeforeUnload(false))
}
