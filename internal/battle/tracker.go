package battle

import (
	"time"

	"github.com/talgya/slaycast/internal/game"
)

// Tracker is the battle state machine: Idle → InBattle(turn 0..n) → Idle.
// It never returns errors; calls that make no sense in the current state
// are silent no-ops so commentary can never block or crash gameplay.
//
// A Tracker is owned by one session and is not safe for concurrent use;
// the session serializes access from the game loop.
type Tracker struct {
	inBattle      bool
	turnNumber    int
	currentTurn   *TurnRecord
	turnHistory   []*TurnRecord
	monsterStates map[string]MonsterSnapshot
	startedAt     time.Time
	endedAt       time.Time

	cardThreshold int

	now func() time.Time // injected for tests
}

// DefaultCardThreshold is how many card plays in one turn arm the
// by-card-count commentary trigger.
const DefaultCardThreshold = 3

// NewTracker creates an idle tracker with the default card threshold.
func NewTracker() *Tracker {
	return &Tracker{
		monsterStates: make(map[string]MonsterSnapshot),
		cardThreshold: DefaultCardThreshold,
		now:           time.Now,
	}
}

// SetCardThreshold updates the by-card-count trigger threshold. Values
// below 1 are ignored.
func (t *Tracker) SetCardThreshold(n int) {
	if n >= 1 {
		t.cardThreshold = n
	}
}

// StartBattle transitions Idle → InBattle, clearing history and
// snapshotting the currently alive hostiles. No-op if already in battle.
func (t *Tracker) StartBattle(monsters []game.MonsterInfo) {
	if t.inBattle {
		return
	}
	t.inBattle = true
	t.turnNumber = 0
	t.currentTurn = nil
	t.turnHistory = t.turnHistory[:0]
	t.monsterStates = make(map[string]MonsterSnapshot)
	t.startedAt = t.now()
	t.endedAt = time.Time{}
	t.refreshMonsters(monsters)
}

// StartNewTurn finalizes any open turn into history, then opens the next
// one with the player's current energy/health as its start values. No-op
// outside battle.
func (t *Tracker) StartNewTurn(player game.PlayerInfo, monsters []game.MonsterInfo) {
	if !t.inBattle {
		return
	}
	t.closeCurrentTurn()
	t.turnNumber++
	t.currentTurn = newTurnRecord(t.turnNumber, player, t.now())
	t.refreshMonsters(monsters)
}

// EndCurrentTurn records the player's end-of-turn resources and moves the
// open turn into history. No-op if no turn is open.
func (t *Tracker) EndCurrentTurn(player game.PlayerInfo) {
	if !t.inBattle || t.currentTurn == nil {
		return
	}
	t.currentTurn.EnergyEnd = player.Energy
	t.currentTurn.HealthEnd = player.CurrentHealth
	t.closeCurrentTurn()
}

// RecordCardPlay appends a card play to the open turn. No-op if no turn
// is open.
func (t *Tracker) RecordCardPlay(card game.CardInfo, target *game.MonsterInfo) {
	if !t.inBattle || t.currentTurn == nil {
		return
	}
	ev := CardPlayEvent{
		CardID:   card.ID,
		CardName: card.Name,
		CardType: card.Type,
		Cost:     card.Cost,
		At:       t.now(),
	}
	if target != nil {
		ev.TargetID = target.ID
		ev.TargetName = target.Name
	}
	t.currentTurn.CardPlays = append(t.currentTurn.CardPlays, ev)
}

// RecordMonsterIntents appends intent snapshots for every alive monster
// to the open turn. No-op if no turn is open.
func (t *Tracker) RecordMonsterIntents(monsters []game.MonsterInfo) {
	if !t.inBattle || t.currentTurn == nil {
		return
	}
	now := t.now()
	for _, m := range monsters {
		if !m.Alive() {
			continue
		}
		t.currentTurn.MonsterIntents = append(t.currentTurn.MonsterIntents, IntentSnapshot{
			MonsterID:   m.ID,
			MonsterName: m.Name,
			Intent:      m.Intent,
			Damage:      m.IntentDamage,
			At:          now,
		})
	}
}

// EndBattle finalizes any open turn, stamps the end time, and returns to
// Idle. No-op when already idle.
func (t *Tracker) EndBattle() {
	if !t.inBattle {
		return
	}
	t.closeCurrentTurn()
	t.inBattle = false
	t.endedAt = t.now()
}

// ShouldTriggerByCardThreshold reports whether the open turn has reached
// the configured card-play count. False outside battle.
func (t *Tracker) ShouldTriggerByCardThreshold() bool {
	if !t.inBattle || t.currentTurn == nil {
		return false
	}
	return t.currentTurn.CardsPlayed() >= t.cardThreshold
}

// InBattle reports whether an encounter is active.
func (t *Tracker) InBattle() bool { return t.inBattle }

// TurnNumber returns the current turn counter (0 before the first turn).
func (t *Tracker) TurnNumber() int { return t.turnNumber }

// CurrentTurn returns the open turn record, or nil if none is open.
func (t *Tracker) CurrentTurn() *TurnRecord { return t.currentTurn }

// TurnHistory returns a copy of the finalized turn records, oldest first.
func (t *Tracker) TurnHistory() []*TurnRecord {
	out := make([]*TurnRecord, len(t.turnHistory))
	copy(out, t.turnHistory)
	return out
}

// MonsterStates returns a copy of the latest monster snapshots keyed by
// monster ID.
func (t *Tracker) MonsterStates() map[string]MonsterSnapshot {
	out := make(map[string]MonsterSnapshot, len(t.monsterStates))
	for k, v := range t.monsterStates {
		out[k] = v
	}
	return out
}

// BattleDuration returns the encounter length, or time since its start if
// the battle is still running. Zero when no battle has been tracked.
func (t *Tracker) BattleDuration() time.Duration {
	if t.startedAt.IsZero() {
		return 0
	}
	if t.endedAt.IsZero() {
		return t.now().Sub(t.startedAt)
	}
	return t.endedAt.Sub(t.startedAt)
}

func (t *Tracker) closeCurrentTurn() {
	if t.currentTurn == nil {
		return
	}
	t.currentTurn.finalize(t.now())
	t.turnHistory = append(t.turnHistory, t.currentTurn)
	t.currentTurn = nil
}

func (t *Tracker) refreshMonsters(monsters []game.MonsterInfo) {
	for _, m := range monsters {
		if m.Alive() {
			t.monsterStates[m.ID] = snapshotMonster(m)
		}
	}
}
