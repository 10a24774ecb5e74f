package ai

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/talgya/slaycast/internal/game"
)

// KnownEntities tracks which cards, potions, relics, and keywords have
// already been introduced to the model in this run. Each entity is
// described to the model exactly once, as a system tip appended before
// the decision's user turn.
//
// The sets are process-wide for one run; a new encounter does not reset
// them.
type KnownEntities struct {
	mu       sync.Mutex
	cards    map[string]bool
	potions  map[string]bool
	relics   map[string]bool
	keywords map[string]bool

	// Glossary maps keyword → explanation, fed from the host's
	// localization data. Keywords are tipped when they first appear in a
	// visible description.
	glossary map[string]string
}

// DefaultGlossary covers the common card-battle keywords for hosts that
// do not supply their own dictionary.
func DefaultGlossary() map[string]string {
	return map[string]string{
		"Block":      "absorbs that much damage this turn, then expires",
		"Vulnerable": "takes 50% more damage from attacks",
		"Weak":       "deals 25% less damage with attacks",
		"Strength":   "adds that much damage to each attack",
		"Exhaust":    "the card is removed from play for the rest of the battle",
		"Ethereal":   "the card exhausts if still in hand at end of turn",
		"Innate":     "the card starts in the opening hand",
		"Retain":     "the card is not discarded at end of turn",
		"Poison":     "loses that much health at the start of its turn, then shrinks by 1",
	}
}

// NewKnownEntities creates empty tracking sets. glossary may be nil.
func NewKnownEntities(glossary map[string]string) *KnownEntities {
	return &KnownEntities{
		cards:    make(map[string]bool),
		potions:  make(map[string]bool),
		relics:   make(map[string]bool),
		keywords: make(map[string]bool),
		glossary: glossary,
	}
}

// Reset forgets everything, forcing re-introduction on the next request.
func (k *KnownEntities) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.cards = make(map[string]bool)
	k.potions = make(map[string]bool)
	k.relics = make(map[string]bool)
	k.keywords = make(map[string]bool)
}

// Tips returns the system tips for entities in the snapshot the model has
// not seen yet, marking them seen. Order is stable: cards, potions,
// relics, keywords.
func (k *KnownEntities) Tips(snap game.Snapshot) []tip {
	k.mu.Lock()
	defer k.mu.Unlock()

	var tips []tip
	var descriptions []string

	var cardLines []string
	for _, c := range snap.Player.Hand {
		descriptions = append(descriptions, c.Description)
		if k.cards[c.Name] {
			continue
		}
		k.cards[c.Name] = true
		cardLines = append(cardLines, fmt.Sprintf("%s (cost %d, %s): %s", c.Name, c.Cost, c.Type, c.Description))
	}
	if len(cardLines) > 0 {
		tips = append(tips, tip{kind: "card", content: strings.Join(cardLines, "; ")})
	}

	var potionLines []string
	for _, p := range snap.Player.Potions {
		descriptions = append(descriptions, p.Description)
		if k.potions[p.Name] {
			continue
		}
		k.potions[p.Name] = true
		potionLines = append(potionLines, fmt.Sprintf("%s: %s", p.Name, p.Description))
	}
	if len(potionLines) > 0 {
		tips = append(tips, tip{kind: "potion", content: strings.Join(potionLines, "; ")})
	}

	var relicLines []string
	for _, r := range snap.Player.Relics {
		descriptions = append(descriptions, r.Description)
		if k.relics[r.Name] {
			continue
		}
		k.relics[r.Name] = true
		relicLines = append(relicLines, fmt.Sprintf("%s: %s", r.Name, r.Description))
	}
	if len(relicLines) > 0 {
		tips = append(tips, tip{kind: "relic", content: strings.Join(relicLines, "; ")})
	}

	if kw := k.unseenKeywords(descriptions); len(kw) > 0 {
		tips = append(tips, tip{kind: "keyword", content: strings.Join(kw, "; ")})
	}
	return tips
}

// unseenKeywords scans visible descriptions for glossary keywords not yet
// introduced. Caller holds the lock.
func (k *KnownEntities) unseenKeywords(descriptions []string) []string {
	if len(k.glossary) == 0 {
		return nil
	}
	joined := strings.ToLower(strings.Join(descriptions, "\n"))

	var lines []string
	for keyword, meaning := range k.glossary {
		if k.keywords[keyword] {
			continue
		}
		if strings.Contains(joined, strings.ToLower(keyword)) {
			k.keywords[keyword] = true
			lines = append(lines, fmt.Sprintf("%s: %s", keyword, meaning))
		}
	}
	sort.Strings(lines) // map iteration order is random
	return lines
}

type tip struct {
	kind    string
	content string
}
