// Package battle tracks per-encounter combat state used to build
// commentary prompts: turn-by-turn card plays, monster intents, and
// player resource levels. It is a pure in-memory state machine with no
// I/O; every accessor is safe to call outside combat.
package battle

import (
	"time"

	"github.com/talgya/slaycast/internal/game"
)

// CardPlayEvent records one card play at the moment it happened.
type CardPlayEvent struct {
	CardID     string
	CardName   string
	CardType   string
	Cost       int
	TargetID   string
	TargetName string
	At         time.Time
}

// IntentSnapshot records one monster's telegraphed intent.
type IntentSnapshot struct {
	MonsterID   string
	MonsterName string
	Intent      string
	Damage      int
	At          time.Time
}

// MonsterSnapshot captures a monster's observable stats at a moment in
// time.
type MonsterSnapshot struct {
	ID            string
	Name          string
	CurrentHealth int
	MaxHealth     int
	Block         int
	Intent        string
	IntentDamage  int
	Alive         bool
}

// TurnRecord holds everything observed during one player turn. Records
// are mutated only by the owning Tracker and are immutable once appended
// to the turn history.
type TurnRecord struct {
	Number         int
	CardPlays      []CardPlayEvent
	MonsterIntents []IntentSnapshot
	EnergyStart    int
	EnergyEnd      int
	HealthStart    int
	HealthEnd      int
	Ended          bool
	StartedAt      time.Time
	EndedAt        time.Time
}

func newTurnRecord(number int, player game.PlayerInfo, now time.Time) *TurnRecord {
	return &TurnRecord{
		Number:      number,
		EnergyStart: player.Energy,
		HealthStart: player.CurrentHealth,
		StartedAt:   now,
	}
}

// CardsPlayed returns the number of cards played this turn.
func (t *TurnRecord) CardsPlayed() int {
	return len(t.CardPlays)
}

// Duration returns how long the turn lasted, or time since its start if
// it is still open.
func (t *TurnRecord) Duration(now time.Time) time.Duration {
	if t.EndedAt.IsZero() {
		return now.Sub(t.StartedAt)
	}
	return t.EndedAt.Sub(t.StartedAt)
}

func (t *TurnRecord) finalize(now time.Time) {
	t.Ended = true
	t.EndedAt = now
}

func snapshotMonster(m game.MonsterInfo) MonsterSnapshot {
	return MonsterSnapshot{
		ID:            m.ID,
		Name:          m.Name,
		CurrentHealth: m.CurrentHealth,
		MaxHealth:     m.MaxHealth,
		Block:         m.Block,
		Intent:        m.Intent,
		IntentDamage:  m.IntentDamage,
		Alive:         m.Alive(),
	}
}
