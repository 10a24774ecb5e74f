// Package game defines the boundary between the commentary core and the
// host card-battle game: read-only snapshots flowing in, command
// primitives flowing out. The core never touches host internals directly.
package game

// CardInfo describes one card as observed at a moment in time.
type CardInfo struct {
	ID          string
	Name        string
	Type        string // "Attack", "Skill", "Power", ...
	Description string
	Cost        int // energy cost for this turn
}

// Offensive reports whether playing this card at the player would be
// illegal; attacks must land on a hostile target.
func (c CardInfo) Offensive() bool {
	return c.Type == "Attack"
}

// PotionInfo describes one potion slot.
type PotionInfo struct {
	ID          string
	Name        string
	Description string
	Targeted    bool // true if the potion requires a target creature
}

// RelicInfo describes one owned relic.
type RelicInfo struct {
	Name        string
	Description string
}

// MonsterInfo is a snapshot of one hostile entity.
type MonsterInfo struct {
	ID            string
	Name          string
	CurrentHealth int
	MaxHealth     int
	Block         int
	Intent        string // categorical intent tag ("ATTACK", "BUFF", ...)
	IntentDamage  int
	Dead          bool
	Dying         bool
	Escaping      bool
}

// Alive reports whether the monster is still a valid target.
func (m MonsterInfo) Alive() bool {
	return !m.Dead && !m.Dying && !m.Escaping
}

// PlayerInfo is a snapshot of the player's resources and holdings.
type PlayerInfo struct {
	CurrentHealth int
	MaxHealth     int
	Energy        int
	Hand          []CardInfo
	Potions       []PotionInfo
	Relics        []RelicInfo
}

// HasRelic reports whether the player owns a relic by name.
func (p PlayerInfo) HasRelic(name string) bool {
	for _, r := range p.Relics {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Snapshot bundles everything the dispatcher needs to interpret a model
// decision against the current game state.
type Snapshot struct {
	Player   PlayerInfo
	Monsters []MonsterInfo
	Screen   Screen
}

// Hostiles returns the monsters that are still valid targets, in the
// host's display order.
func (s Snapshot) Hostiles() []MonsterInfo {
	out := make([]MonsterInfo, 0, len(s.Monsters))
	for _, m := range s.Monsters {
		if m.Alive() {
			out = append(out, m)
		}
	}
	return out
}
