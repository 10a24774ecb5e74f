package commentary

import (
	"sync"
	"time"

	"github.com/talgya/slaycast/internal/battle"
)

// DefaultCooldown is the minimum gap between two narration dispatches.
const DefaultCooldown = 3000 * time.Millisecond

// Gate decides whether a candidate event may trigger narration. All five
// base checks must pass: global enable, upstream AI configured, cooldown
// elapsed, frequency sampling, and a valid room context. Card-play and
// turn-end events additionally pass the mode-specific checks.
//
// Gating is stateful (cooldown stamp, sampling counter); callers
// serialize access through the session.
type Gate struct {
	Enabled      bool
	Mode         Mode
	Frequency    int           // narrate every Nth candidate, min 1
	Cooldown     time.Duration // min gap between dispatches
	AIConfigured func() bool   // upstream key/URL present
	HasRoom      func() bool   // a room/encounter context exists

	mu          sync.Mutex
	lastTrigger time.Time
	counter     int

	now func() time.Time
}

// NewGate creates a gate with the given mode and sampling frequency.
// Frequencies below 1 normalize to 1 (narrate every candidate).
func NewGate(enabled bool, mode Mode, frequency int, cooldown time.Duration, aiConfigured, hasRoom func() bool) *Gate {
	if frequency < 1 {
		frequency = 1
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Gate{
		Enabled:      enabled,
		Mode:         mode,
		Frequency:    frequency,
		Cooldown:     cooldown,
		AIConfigured: aiConfigured,
		HasRoom:      hasRoom,
		now:          time.Now,
	}
}

// ShouldTrigger runs every check for one candidate event. On success it
// stamps the cooldown clock as a side effect.
func (g *Gate) ShouldTrigger(action Action, tracker *battle.Tracker) bool {
	if g == nil || !g.Enabled {
		return false
	}
	if g.AIConfigured == nil || !g.AIConfigured() {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if !g.lastTrigger.IsZero() && now.Sub(g.lastTrigger) < g.Cooldown {
		return false
	}

	// Sampling counts every candidate that got past the cooldown.
	g.counter++
	if g.counter%g.Frequency != 0 {
		return false
	}

	if g.HasRoom == nil || !g.HasRoom() {
		return false
	}

	if !g.modeAllows(action, tracker) {
		return false
	}

	g.lastTrigger = now
	return true
}

// modeAllows applies the mode-specific checks. Events outside the two
// moded actions (selections, map moves, intros) pass unconditionally.
func (g *Gate) modeAllows(action Action, tracker *battle.Tracker) bool {
	switch action {
	case ActionPlayCard:
		if g.Mode != ModeByCards {
			return false
		}
		return tracker != nil && tracker.ShouldTriggerByCardThreshold()
	case ActionEndTurn:
		if g.Mode != ModeByTurnEnd {
			return false
		}
		// The event label alone is not enough; an open combat turn must
		// exist for the summary prompt.
		return tracker != nil && tracker.InBattle() && tracker.CurrentTurn() != nil
	}
	return true
}

// Counter returns the number of candidates seen past the cooldown, for
// the stats surface.
func (g *Gate) Counter() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// Reset clears the cooldown stamp and sampling counter.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastTrigger = time.Time{}
	g.counter = 0
}
