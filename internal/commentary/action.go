package commentary

// Action classifies the in-game event a commentary request describes.
type Action string

const (
	ActionPlayCard     Action = "play_card"
	ActionUsePotion    Action = "use_potion"
	ActionEndTurn      Action = "end_turn"
	ActionSelect       Action = "select"
	ActionCampfire     Action = "campfire"
	ActionMap          Action = "map"
	ActionMonsterIntro Action = "monster_intro"
)

// FallbackLine returns the canned phrase shown when narration generation
// fails, so the player never gets silence mid-run.
func FallbackLine(action Action) string {
	switch action {
	case ActionPlayCard:
		return "What a play!"
	case ActionUsePotion:
		return "Smart potion timing!"
	case ActionEndTurn:
		return "Turn's over, on to the next one!"
	case ActionSelect:
		return "Interesting pick!"
	case ActionCampfire:
		return "A well-earned rest!"
	case ActionMap:
		return "A new path opens up!"
	case ActionMonsterIntro:
		return "Look what just showed up!"
	default:
		return "What a move!"
	}
}
