package commentary

import (
	"testing"
	"time"

	"github.com/talgya/slaycast/internal/battle"
	"github.com/talgya/slaycast/internal/game"
)

func alwaysTrue() bool { return true }

func testGate(mode Mode, frequency int) *Gate {
	return NewGate(true, mode, frequency, DefaultCooldown, alwaysTrue, alwaysTrue)
}

func TestGateCooldown(t *testing.T) {
	g := testGate(ModeByCards, 1)
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	clock := base
	g.now = func() time.Time { return clock }

	// t=0: first candidate passes.
	if !g.ShouldTrigger(ActionSelect, nil) {
		t.Fatal("first candidate rejected")
	}
	// t=1000ms: inside the cooldown window.
	clock = base.Add(1000 * time.Millisecond)
	if g.ShouldTrigger(ActionSelect, nil) {
		t.Error("candidate inside cooldown window passed")
	}
	// t=3100ms: cooldown elapsed.
	clock = base.Add(3100 * time.Millisecond)
	if !g.ShouldTrigger(ActionSelect, nil) {
		t.Error("candidate after cooldown rejected")
	}
}

func TestGateFrequencySampling(t *testing.T) {
	g := NewGate(true, ModeByCards, 2, time.Nanosecond, alwaysTrue, alwaysTrue)
	clock := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	g.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	var fired []int
	for i := 1; i <= 4; i++ {
		if g.ShouldTrigger(ActionSelect, nil) {
			fired = append(fired, i)
		}
	}
	if len(fired) != 2 || fired[0] != 2 || fired[1] != 4 {
		t.Errorf("frequency=2 fired on calls %v, want [2 4]", fired)
	}
}

func TestGateDisabledAndUnconfigured(t *testing.T) {
	tests := []struct {
		name string
		gate *Gate
	}{
		{"disabled", NewGate(false, ModeByCards, 1, time.Nanosecond, alwaysTrue, alwaysTrue)},
		{"ai not configured", NewGate(true, ModeByCards, 1, time.Nanosecond, func() bool { return false }, alwaysTrue)},
		{"no room context", NewGate(true, ModeByCards, 1, time.Nanosecond, alwaysTrue, func() bool { return false })},
		{"nil gate", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.gate.ShouldTrigger(ActionSelect, nil) {
				t.Error("gate passed, want rejection")
			}
		})
	}
}

func TestGateModeChecks(t *testing.T) {
	player := game.PlayerInfo{Energy: 3, CurrentHealth: 70, MaxHealth: 80}
	monsters := []game.MonsterInfo{{ID: "Cultist", Name: "Cultist", CurrentHealth: 40, MaxHealth: 48}}

	inTurn := battle.NewTracker()
	inTurn.StartBattle(monsters)
	inTurn.StartNewTurn(player, monsters)

	armed := battle.NewTracker()
	armed.SetCardThreshold(1)
	armed.StartBattle(monsters)
	armed.StartNewTurn(player, monsters)
	armed.RecordCardPlay(game.CardInfo{Name: "Strike", Type: "Attack"}, nil)

	idle := battle.NewTracker()

	tests := []struct {
		name    string
		mode    Mode
		action  Action
		tracker *battle.Tracker
		want    bool
	}{
		{"card play below threshold", ModeByCards, ActionPlayCard, inTurn, false},
		{"card play at threshold", ModeByCards, ActionPlayCard, armed, true},
		{"card play in turn-end mode", ModeByTurnEnd, ActionPlayCard, armed, false},
		{"turn end in turn-end mode", ModeByTurnEnd, ActionEndTurn, inTurn, true},
		{"turn end in card mode", ModeByCards, ActionEndTurn, inTurn, false},
		{"turn end outside combat", ModeByTurnEnd, ActionEndTurn, idle, false},
		{"selection ignores mode", ModeByTurnEnd, ActionSelect, idle, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(true, tt.mode, 1, time.Nanosecond, alwaysTrue, alwaysTrue)
			if got := g.ShouldTrigger(tt.action, tt.tracker); got != tt.want {
				t.Errorf("ShouldTrigger = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModeFromValue(t *testing.T) {
	if ModeFromValue(1) != ModeByTurnEnd {
		t.Error("value 1 did not map to turn-end mode")
	}
	for _, v := range []int{0, -1, 7} {
		if ModeFromValue(v) != ModeByCards {
			t.Errorf("value %d did not default to by-cards mode", v)
		}
	}
	if ParseMode("by_turn_end") != ModeByTurnEnd || ParseMode("junk") != ModeByCards {
		t.Error("ParseMode mapping wrong")
	}
}
