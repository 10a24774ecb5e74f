package game

import "fmt"

// Command is one primitive the host executes against its own simulation.
// The set is closed; the sealed marker keeps dispatch exhaustive.
type Command interface {
	fmt.Stringer
	sealedCommand()
}

// PlayCard plays the card at HandIndex against TargetID.
type PlayCard struct {
	HandIndex int
	TargetID  string
}

// UsePotion drinks the potion at SlotIndex, optionally at TargetID.
type UsePotion struct {
	SlotIndex int
	TargetID  string
}

// EndTurn ends the player's turn.
type EndTurn struct{}

// SelfDamage deals Amount of HP loss to the player.
type SelfDamage struct {
	Amount int
}

// SelectChoice marks the selectable entity at Index on the current screen.
type SelectChoice struct {
	Index int
}

// CommitSelection presses the current screen's confirm button.
type CommitSelection struct{}

// Proceed presses the proceed/overlay button, closing the current surface.
type Proceed struct{}

// OpenChest opens the treasure chest in the current room.
type OpenChest struct{}

// Speak shows Text in the player's speech bubble.
type Speak struct {
	Text string
}

func (c PlayCard) String() string  { return fmt.Sprintf("play_card[%d]->%s", c.HandIndex, c.TargetID) }
func (c UsePotion) String() string { return fmt.Sprintf("use_potion[%d]->%s", c.SlotIndex, c.TargetID) }
func (EndTurn) String() string     { return "end_turn" }
func (c SelfDamage) String() string {
	return fmt.Sprintf("self_damage(%d)", c.Amount)
}
func (c SelectChoice) String() string { return fmt.Sprintf("select[%d]", c.Index) }
func (CommitSelection) String() string {
	return "commit_selection"
}
func (Proceed) String() string   { return "proceed" }
func (OpenChest) String() string { return "open_chest" }
func (c Speak) String() string   { return fmt.Sprintf("speak(%q)", c.Text) }

func (PlayCard) sealedCommand()        {}
func (UsePotion) sealedCommand()       {}
func (EndTurn) sealedCommand()         {}
func (SelfDamage) sealedCommand()      {}
func (SelectChoice) sealedCommand()    {}
func (CommitSelection) sealedCommand() {}
func (Proceed) sealedCommand()         {}
func (OpenChest) sealedCommand()       {}
func (Speak) sealedCommand()           {}

// Host is the surface the core drives. Snapshots are read-only inputs;
// Execute hands a command primitive to the host's simulation.
type Host interface {
	Player() PlayerInfo
	Monsters() []MonsterInfo
	Screen() Screen
	Execute(cmd Command) error
}
