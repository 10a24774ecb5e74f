// Package dispatch translates a model-chosen tool call into concrete
// command primitives for the host, interpreted against the current
// screen. Indexes outside the screen's valid range are contract
// violations by the upstream model and degrade to logged no-ops; nothing
// here may crash the game.
package dispatch

import (
	"log/slog"

	"github.com/talgya/slaycast/internal/ai"
	"github.com/talgya/slaycast/internal/game"
)

// SuicideDamage is the self-damage dealt when the model gives up. Large
// enough to end any run; the host has no literal surrender primitive.
const SuicideDamage = 99999

// Execute maps a tool call onto command primitives for the host. An
// empty slice means the call could not be applied to the current screen
// and the turn should simply continue.
func Execute(call *ai.ToolCall, snap game.Snapshot) []game.Command {
	if call == nil {
		return nil
	}
	switch call.Name {
	case ai.ToolPlayCard:
		return playCard(call.Args, snap)
	case ai.ToolEndTurn:
		return endTurn(call.Args)
	case ai.ToolUsePotion:
		return usePotion(call.Args, snap)
	case ai.ToolSelect:
		return selectItems(call.Args, snap.Screen)
	case ai.ToolBoolean:
		return answerBoolean(call.Args, snap.Screen)
	}
	slog.Warn("unknown tool from model, skipping", "tool", call.Name)
	return nil
}

// playCard resolves hand and target indexes. Target index 0 denotes the
// player; offensive cards aimed at the player are remapped to the first
// alive hostile, since attacks cannot legally target the caster.
func playCard(args ai.Arguments, snap game.Snapshot) []game.Command {
	if args.Index < 0 || args.Index >= len(snap.Player.Hand) {
		slog.Warn("playCard index out of range, skipping", "index", args.Index, "hand", len(snap.Player.Hand))
		return nil
	}
	card := snap.Player.Hand[args.Index]

	targetID, ok := resolveTarget(args.Target, snap)
	if !ok {
		slog.Warn("playCard target out of range, skipping", "target", args.Target)
		return nil
	}
	if targetID == "" && card.Offensive() {
		hostiles := snap.Hostiles()
		if len(hostiles) == 0 {
			slog.Warn("offensive card with no hostiles, skipping", "card", card.Name)
			return nil
		}
		targetID = hostiles[0].ID
	}
	return []game.Command{game.PlayCard{HandIndex: args.Index, TargetID: targetID}}
}

func endTurn(args ai.Arguments) []game.Command {
	if args.Suicide {
		return []game.Command{game.SelfDamage{Amount: SuicideDamage}}
	}
	return []game.Command{game.EndTurn{}}
}

func usePotion(args ai.Arguments, snap game.Snapshot) []game.Command {
	if args.Index < 0 || args.Index >= len(snap.Player.Potions) {
		slog.Warn("usePotion slot out of range, skipping", "index", args.Index, "slots", len(snap.Player.Potions))
		return nil
	}
	targetID, ok := resolveTarget(args.Target, snap)
	if !ok {
		slog.Warn("usePotion target out of range, skipping", "target", args.Target)
		return nil
	}
	return []game.Command{game.UsePotion{SlotIndex: args.Index, TargetID: targetID}}
}

// resolveTarget maps a model target index onto a creature: 0 is the
// player (empty ID), 1..n are the alive hostiles in display order.
func resolveTarget(index int, snap game.Snapshot) (string, bool) {
	if index == 0 {
		return "", true
	}
	hostiles := snap.Hostiles()
	if index < 0 || index > len(hostiles) {
		return "", false
	}
	return hostiles[index-1].ID, true
}

// selectItems applies the select tool per screen variant. Each variant
// owns its mapping from indexes to selectable entities and the action
// that commits the selection.
func selectItems(args ai.Arguments, screen game.Screen) []game.Command {
	switch screen.Kind {
	case game.ScreenGridSelect, game.ScreenHandSelect:
		cmds := pickValid(args.Indexes, screen)
		if len(cmds) == 0 {
			return nil
		}
		return append(cmds, game.CommitSelection{})

	case game.ScreenCardReward:
		return pickFirst(args.Indexes, screen, nil)

	case game.ScreenBossReward:
		// Choosing no relic is allowed; proceed either way.
		cmds := pickFirst(args.Indexes, screen, nil)
		return append(cmds, game.Proceed{})

	case game.ScreenCombatReward:
		cmds := pickValid(args.Indexes, screen)
		return append(cmds, game.Proceed{})

	case game.ScreenMap:
		return pickFirst(args.Indexes, screen, game.CommitSelection{})

	case game.ScreenNone:
		if screen.Room == game.RoomRest {
			cmds := pickFirst(args.Indexes, screen, nil)
			return append(cmds, game.Proceed{})
		}
	}
	slog.Warn("select tool on non-selection screen, skipping", "screen", screen.Kind.String())
	return nil
}

// answerBoolean handles the yes/no tool: currently only the treasure
// rooms ask one (open the chest or walk away).
func answerBoolean(args ai.Arguments, screen game.Screen) []game.Command {
	if screen.Kind != game.ScreenNone {
		slog.Warn("boolean tool with an overlay open, skipping", "screen", screen.Kind.String())
		return nil
	}
	switch screen.Room {
	case game.RoomTreasure, game.RoomBossTreasure:
		if args.Boolean {
			return []game.Command{game.OpenChest{}}
		}
		return []game.Command{game.Proceed{}}
	}
	slog.Warn("boolean tool in a room with no question, skipping", "room", int(screen.Room))
	return nil
}

// pickValid selects every in-range index, skipping violations
// individually.
func pickValid(indexes []int, screen game.Screen) []game.Command {
	var cmds []game.Command
	for _, i := range indexes {
		if !screen.ValidIndex(i) {
			slog.Warn("selection index out of range, skipping", "index", i, "choices", len(screen.Choices))
			continue
		}
		cmds = append(cmds, game.SelectChoice{Index: i})
	}
	return cmds
}

// pickFirst selects only the first valid index, optionally followed by a
// commit command.
func pickFirst(indexes []int, screen game.Screen, commit game.Command) []game.Command {
	for _, i := range indexes {
		if !screen.ValidIndex(i) {
			slog.Warn("selection index out of range, skipping", "index", i, "choices", len(screen.Choices))
			continue
		}
		cmds := []game.Command{game.SelectChoice{Index: i}}
		if commit != nil {
			cmds = append(cmds, commit)
		}
		return cmds
	}
	return nil
}
