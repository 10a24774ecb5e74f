package game

import (
	"fmt"
	"log/slog"
	"sync"
)

// DemoHost is a scripted stand-in for the real game, used by the demo
// binaries and tests. It models a single combat with a fixed hand and two
// monsters and executes commands against that toy state.
type DemoHost struct {
	mu       sync.Mutex
	player   PlayerInfo
	monsters []MonsterInfo
	screen   Screen
	log      []Command // executed commands, oldest first
	ended    bool
}

// NewDemoHost creates a demo encounter: Cultist and Jaw Worm versus a
// 75 HP player holding a starter hand.
func NewDemoHost() *DemoHost {
	h := &DemoHost{
		player: PlayerInfo{
			CurrentHealth: 75,
			MaxHealth:     80,
			Energy:        3,
			Hand: []CardInfo{
				{ID: "Strike_R", Name: "Strike", Type: "Attack", Description: "Deal 6 damage.", Cost: 1},
				{ID: "Strike_R", Name: "Strike", Type: "Attack", Description: "Deal 6 damage.", Cost: 1},
				{ID: "Defend_R", Name: "Defend", Type: "Skill", Description: "Gain 5 Block.", Cost: 1},
				{ID: "Bash", Name: "Bash", Type: "Attack", Description: "Deal 8 damage. Apply 2 Vulnerable.", Cost: 2},
			},
			Potions: []PotionInfo{
				{ID: "Fire Potion", Name: "Fire Potion", Description: "Deal 20 damage.", Targeted: true},
			},
			Relics: []RelicInfo{
				{Name: "Burning Blood", Description: "At the end of combat, heal 6 HP."},
			},
		},
		monsters: []MonsterInfo{
			{ID: "Cultist", Name: "Cultist", CurrentHealth: 48, MaxHealth: 48, Intent: "BUFF"},
			{ID: "JawWorm", Name: "Jaw Worm", CurrentHealth: 42, MaxHealth: 42, Intent: "ATTACK", IntentDamage: 11},
		},
	}
	h.screen = Screen{Kind: ScreenNone, Room: RoomCombat}
	return h
}

func (h *DemoHost) Player() PlayerInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.player
}

func (h *DemoHost) Monsters() []MonsterInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]MonsterInfo, len(h.monsters))
	copy(out, h.monsters)
	return out
}

func (h *DemoHost) Screen() Screen {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.screen
}

// SetScreen swaps the active screen, simulating the host opening an
// overlay.
func (h *DemoHost) SetScreen(s Screen) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.screen = s
}

// Executed returns the commands executed so far, oldest first.
func (h *DemoHost) Executed() []Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Command, len(h.log))
	copy(out, h.log)
	return out
}

// StartTurn opens a fresh turn: the end-turn flag clears and energy
// refills.
func (h *DemoHost) StartTurn() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ended = false
	h.player.Energy = 3
}

// TurnEnded reports whether an EndTurn command has been executed.
func (h *DemoHost) TurnEnded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ended
}

// Execute applies a command to the toy simulation.
func (h *DemoHost) Execute(cmd Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.log = append(h.log, cmd)

	switch c := cmd.(type) {
	case PlayCard:
		if c.HandIndex < 0 || c.HandIndex >= len(h.player.Hand) {
			return fmt.Errorf("play card: hand index %d out of range", c.HandIndex)
		}
		card := h.player.Hand[c.HandIndex]
		if card.Cost > h.player.Energy {
			return fmt.Errorf("play card: not enough energy for %s", card.Name)
		}
		h.player.Energy -= card.Cost
		h.player.Hand = append(h.player.Hand[:c.HandIndex], h.player.Hand[c.HandIndex+1:]...)
		if card.Offensive() {
			h.damageMonster(c.TargetID, 6+2*(card.Cost-1))
		}
	case UsePotion:
		if c.SlotIndex < 0 || c.SlotIndex >= len(h.player.Potions) {
			return fmt.Errorf("use potion: slot %d out of range", c.SlotIndex)
		}
		h.player.Potions = append(h.player.Potions[:c.SlotIndex], h.player.Potions[c.SlotIndex+1:]...)
		if c.TargetID != "" {
			h.damageMonster(c.TargetID, 20)
		}
	case EndTurn:
		h.ended = true
	case SelfDamage:
		h.player.CurrentHealth -= c.Amount
		if h.player.CurrentHealth < 0 {
			h.player.CurrentHealth = 0
		}
	case SelectChoice, CommitSelection, Proceed, OpenChest:
		// Selection surfaces have no simulated effect beyond the log.
	case Speak:
		slog.Info("demo host speech", "text", c.Text)
	}
	return nil
}

func (h *DemoHost) damageMonster(id string, amount int) {
	for i := range h.monsters {
		if h.monsters[i].ID != id {
			continue
		}
		h.monsters[i].CurrentHealth -= amount
		if h.monsters[i].CurrentHealth <= 0 {
			h.monsters[i].CurrentHealth = 0
			h.monsters[i].Dead = true
		}
		return
	}
}
