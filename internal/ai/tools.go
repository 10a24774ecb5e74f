package ai

import (
	"encoding/json"
	"fmt"
)

// Tool names the model may pick from. The set is fixed; anything else in
// a response is a contract violation handled as a no-op downstream.
const (
	ToolPlayCard  = "playCard"
	ToolEndTurn   = "endTurn"
	ToolUsePotion = "usePotion"
	ToolSelect    = "select"
	ToolBoolean   = "boolean"
)

// Tool is one function schema advertised with a decision request.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function describes a callable in JSON-Schema-like form.
type Function struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Arguments is the union of argument fields across the five tools; each
// tool reads only its own fields.
type Arguments struct {
	Index   int    `json:"index"`
	Target  int    `json:"target"`
	Suicide bool   `json:"suicide"`
	Indexes []int  `json:"indexes"`
	Boolean bool   `json:"boolean"`
	Reason  string `json:"reason"`
}

// ToolCall is the parsed decision returned by the model.
type ToolCall struct {
	ID   string
	Name string
	Args Arguments
	Raw  string // arguments as received, echoed into the transcript
}

func parseToolCall(msg ToolCallMessage) (*ToolCall, error) {
	var args Arguments
	if err := json.Unmarshal([]byte(msg.Function.Arguments), &args); err != nil {
		return nil, fmt.Errorf("parse tool arguments: %w", err)
	}
	return &ToolCall{
		ID:   msg.ID,
		Name: msg.Function.Name,
		Args: args,
		Raw:  msg.Function.Arguments,
	}, nil
}

// DefaultTools returns the five tool schemas sent with every decision
// request.
func DefaultTools() []Tool {
	return []Tool{
		function(ToolPlayCard,
			"Play one card from your hand. Combat only. Costs energy; never play a card whose cost exceeds your current energy. Its effect may be modified by powers on either side.",
			properties{
				"index":  param("integer", "Index of the card in your hand, starting at 0."),
				"target": param("integer", "Index of the target creature. For cards hitting all enemies, pick any enemy."),
				"reason": param("string", "Why this card and target, one short witty sentence."),
			},
			"index", "target", "reason"),
		function(ToolEndTurn,
			"End the current turn. Combat only. Unplayed cards are discarded and unspent energy is lost.",
			properties{
				"suicide": param("boolean", "Set true only if the fight is hopeless and you choose to give up."),
				"reason":  param("string", "Why you are ending the turn, one short witty sentence."),
			},
			"suicide", "reason"),
		function(ToolUsePotion,
			"Drink one potion. The potion is consumed.",
			properties{
				"index":  param("integer", "Index of the potion slot, starting at 0."),
				"target": param("integer", "Index of the target creature. For potions hitting all enemies, pick any enemy."),
				"reason": param("string", "Why this potion and target, one short witty sentence."),
			},
			"index", "target", "reason"),
		function(ToolSelect,
			"Select a group of items (cards, relics, rewards, paths...) from the presented list, for discarding, upgrading, taking, and so on.",
			properties{
				"indexes": param("array", "Indexes of the chosen items in the presented list, starting at 0."),
				"reason":  param("string", "Why this selection, one short witty sentence."),
			},
			"indexes", "reason"),
		function(ToolBoolean,
			"Answer yes or no. Use only when explicitly asked a yes/no question, e.g. whether to open a chest.",
			properties{
				"boolean": param("boolean", "Your answer."),
				"reason":  param("string", "Why this answer, one short witty sentence."),
			},
			"boolean", "reason"),
	}
}

type properties map[string]any

func function(name, description string, props properties, required ...string) Tool {
	return Tool{
		Type: "function",
		Function: Function{
			Name:        name,
			Description: description,
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any(props),
				"required":   required,
			},
		},
	}
}

func param(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}
