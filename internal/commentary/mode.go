// Package commentary decides whether an in-game event deserves live
// narration, requests it, and serializes its on-screen and spoken
// delivery: gating, a result cache, a FIFO display queue with timed
// hand-off, and fire-and-forget voice synthesis.
package commentary

// Mode selects the commentary trigger style. The two modes are mutually
// exclusive.
type Mode int

const (
	// ModeByCards narrates after every N card plays within a turn.
	ModeByCards Mode = iota
	// ModeByTurnEnd narrates only when a turn ends.
	ModeByTurnEnd
)

// ModeFromValue maps a stored config value onto a Mode, defaulting to
// ModeByCards for anything unknown.
func ModeFromValue(v int) Mode {
	if v == int(ModeByTurnEnd) {
		return ModeByTurnEnd
	}
	return ModeByCards
}

// String returns the config-file spelling of the mode.
func (m Mode) String() string {
	if m == ModeByTurnEnd {
		return "by_turn_end"
	}
	return "by_cards"
}

// ParseMode maps a config-file spelling onto a Mode, defaulting to
// ModeByCards.
func ParseMode(s string) Mode {
	if s == "by_turn_end" {
		return ModeByTurnEnd
	}
	return ModeByCards
}
