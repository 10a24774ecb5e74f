package game

// ScreenKind identifies which selection surface the host is currently
// showing. The set is closed: every kind has exactly one dispatch handler.
type ScreenKind int

const (
	// ScreenNone means no overlay screen is up; the room itself may still
	// offer choices (rest site options, treasure chest).
	ScreenNone ScreenKind = iota
	ScreenHandSelect
	ScreenGridSelect
	ScreenCardReward
	ScreenBossReward
	ScreenCombatReward
	ScreenMap
)

// String returns the screen kind name for logs.
func (k ScreenKind) String() string {
	switch k {
	case ScreenNone:
		return "none"
	case ScreenHandSelect:
		return "hand_select"
	case ScreenGridSelect:
		return "grid_select"
	case ScreenCardReward:
		return "card_reward"
	case ScreenBossReward:
		return "boss_reward"
	case ScreenCombatReward:
		return "combat_reward"
	case ScreenMap:
		return "map"
	}
	return "unknown"
}

// RoomKind identifies the current room when no overlay screen is up.
// RoomNone is the zero value: the host has not entered a room yet, so
// there is no room context to comment on.
type RoomKind int

const (
	RoomNone RoomKind = iota
	RoomCombat
	RoomRest
	RoomTreasure
	RoomBossTreasure
	RoomEvent
	RoomShop
)

// Screen is the current screen/context snapshot consumed by the
// dispatcher. Choices lists the selectable entities for the active kind in
// host display order; an index is valid iff it is within Choices.
type Screen struct {
	Kind    ScreenKind
	Room    RoomKind // meaningful when Kind == ScreenNone
	Choices []string // labels of selectable entities, index order
}

// ValidIndex reports whether i addresses a selectable entity on this
// screen.
func (s Screen) ValidIndex(i int) bool {
	return i >= 0 && i < len(s.Choices)
}
