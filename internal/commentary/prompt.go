package commentary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/talgya/slaycast/internal/battle"
	"github.com/talgya/slaycast/internal/game"
)

// Persona is the system prompt for every narration request: a live
// streamer calling the fight in one breath.
const Persona = "You are a game streamer doing live commentary on a card battle. " +
	"React in roughly 30 words, streamer voice, with real substance. " +
	"For example: \"Chat, look at that Strike, straight-up lethal!\""

// BuildPrompt turns an event plus the current battle state into the
// narration user prompt. params are free-form descriptors in event order
// (card name, card description, target name, ...).
func BuildPrompt(action Action, params []string, tracker *battle.Tracker, player game.PlayerInfo) string {
	var b strings.Builder

	switch action {
	case ActionMonsterIntro:
		b.WriteString("The battle begins! Ahead of us: ")
		if len(params) > 0 {
			b.WriteString(strings.Join(params, ", "))
		} else {
			b.WriteString(monsterRoster(tracker))
		}
		b.WriteString(". Chat, brace yourselves! Introduce this enemy in streamer voice:")

	case ActionPlayCard:
		b.WriteString("I just played ")
		if len(params) > 0 {
			b.WriteString(params[0])
		}
		if len(params) > 1 && params[1] != "" {
			fmt.Fprintf(&b, " (%s)", params[1])
		}
		if len(params) > 2 && params[2] != "" {
			fmt.Fprintf(&b, " against %s", params[2])
		}
		b.WriteString(". ")
		if turn := currentTurn(tracker); turn != nil {
			fmt.Fprintf(&b, "That's card number %d this turn. ", turn.CardsPlayed())
			if intents := intentSummary(turn); intents != "" {
				fmt.Fprintf(&b, "Enemy intent: %s. ", intents)
			}
		}
		fmt.Fprintf(&b, "I still have %d energy and %d/%d HP. ",
			player.Energy, player.CurrentHealth, player.MaxHealth)
		b.WriteString("Chat, look at this line! Call out why I played it this way, streamer voice:")

	case ActionEndTurn:
		b.WriteString("Turn over! ")
		if turn := currentTurn(tracker); turn != nil {
			fmt.Fprintf(&b, "I played %d cards this turn. ", turn.CardsPlayed())
		}
		fmt.Fprintf(&b, "Current state: %d/%d HP, %d energy. ",
			player.CurrentHealth, player.MaxHealth, player.Energy)
		if roster := monsterRoster(tracker); roster != "" {
			fmt.Fprintf(&b, "Enemies: %s. ", roster)
		}
		b.WriteString("Chat, how did that turn go? Sum it up in streamer voice:")

	default:
		fmt.Fprintf(&b, "Chat, look at this %s move! Call it in streamer voice:", describeAction(action))
	}

	return b.String()
}

func describeAction(action Action) string {
	switch action {
	case ActionUsePotion:
		return "potion"
	case ActionSelect:
		return "pick"
	case ActionCampfire:
		return "campfire"
	case ActionMap:
		return "route"
	}
	return string(action)
}

func currentTurn(tracker *battle.Tracker) *battle.TurnRecord {
	if tracker == nil {
		return nil
	}
	return tracker.CurrentTurn()
}

// monsterRoster lists the still-standing enemies as "Name (hp/max HP)".
func monsterRoster(tracker *battle.Tracker) string {
	if tracker == nil {
		return ""
	}
	var parts []string
	for _, m := range tracker.MonsterStates() {
		if !m.Alive {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%d/%d HP)", m.Name, m.CurrentHealth, m.MaxHealth))
	}
	sort.Strings(parts) // map order is random
	return strings.Join(parts, ", ")
}

// intentSummary lists the latest recorded intent per monster this turn.
func intentSummary(turn *battle.TurnRecord) string {
	latest := make(map[string]battle.IntentSnapshot)
	var order []string
	for _, in := range turn.MonsterIntents {
		if _, seen := latest[in.MonsterID]; !seen {
			order = append(order, in.MonsterID)
		}
		latest[in.MonsterID] = in
	}
	var parts []string
	for _, id := range order {
		in := latest[id]
		if in.Damage > 0 {
			parts = append(parts, fmt.Sprintf("%s intends %s for %d", in.MonsterName, in.Intent, in.Damage))
		} else {
			parts = append(parts, fmt.Sprintf("%s intends %s", in.MonsterName, in.Intent))
		}
	}
	return strings.Join(parts, "; ")
}
