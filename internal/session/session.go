// Package session ties the commentary and autopilot machinery to one
// play-through: a Session owns the battle tracker, trigger gate, display
// pipeline, completion client, and voice synthesizer, and exposes the
// event entry points the host game calls. Nothing here is global; a new
// run gets a new Session.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/slaycast/internal/ai"
	"github.com/talgya/slaycast/internal/battle"
	"github.com/talgya/slaycast/internal/commentary"
	"github.com/talgya/slaycast/internal/config"
	"github.com/talgya/slaycast/internal/dispatch"
	"github.com/talgya/slaycast/internal/game"
	"github.com/talgya/slaycast/internal/store"
	"github.com/talgya/slaycast/internal/voice"
)

// energyRelic lets the player keep unspent energy between turns; with it
// the end-of-turn energy tip is wrong and must be suppressed.
const energyRelic = "Ice Cream"

// Options configures a Session. Host is required; Store and Synth are
// optional, as are the display callbacks.
type Options struct {
	Config config.Config
	Host   game.Host
	Store  *store.DB
	Synth  *voice.Synth

	Present func(text string)
	Hide    func()
}

// Session is one play-through's worth of state.
type Session struct {
	id         string
	host       game.Host
	cfg        config.Config
	tracker    *battle.Tracker
	gate       *commentary.Gate
	pipeline   *commentary.Pipeline
	client     *ai.Client
	transcript *ai.Transcript
	synth      *voice.Synth
	db         *store.DB
}

// New builds a Session from configuration. The returned session is live
// until Close.
func New(opts Options) *Session {
	id := uuid.NewString()

	var sink ai.Sink
	if opts.Store != nil {
		sink = opts.Store.Transcript(id)
	}
	transcript := ai.NewTranscript(sink)
	known := ai.NewKnownEntities(ai.DefaultGlossary())
	client := ai.NewClient(
		opts.Config.AI.APIKey, opts.Config.AI.APIURL, opts.Config.AI.Model,
		ai.DefaultTimeout, transcript, known)

	tracker := battle.NewTracker()
	tracker.SetCardThreshold(opts.Config.Commentary.CardThreshold)

	s := &Session{
		id:         id,
		host:       opts.Host,
		cfg:        opts.Config,
		tracker:    tracker,
		client:     client,
		transcript: transcript,
		synth:      opts.Synth,
		db:         opts.Store,
	}

	s.gate = commentary.NewGate(
		opts.Config.Commentary.Enabled,
		commentary.ParseMode(opts.Config.Commentary.Mode),
		opts.Config.Commentary.Frequency,
		time.Duration(opts.Config.Commentary.CooldownMillis)*time.Millisecond,
		client.Enabled,
		s.hasRoomContext,
	)

	var speaker commentary.Speaker
	if opts.Synth.Enabled() {
		speaker = opts.Synth
	}
	var cacheStore commentary.CacheStore
	if opts.Store != nil {
		cacheStore = opts.Store
	}
	s.pipeline = commentary.NewPipeline(commentary.Options{
		Gate:            s.gate,
		Tracker:         tracker,
		Narrator:        client,
		Speaker:         speaker,
		Present:         opts.Present,
		Hide:            opts.Hide,
		Player:          s.playerSnapshot,
		CacheStore:      cacheStore,
		DisplayDuration: time.Duration(opts.Config.Commentary.DisplaySeconds) * time.Second,
		KeepHistory:     opts.Config.Commentary.KeepHistory,
	})

	slog.Info("session started", "id", id, "ai", client.Enabled(), "voice", opts.Synth.Enabled())
	return s
}

// ID returns the session identifier used in persisted transcripts.
func (s *Session) ID() string { return s.id }

// Close stops background work. The host may discard the session after.
func (s *Session) Close() {
	s.pipeline.Close()
}

// guard keeps host-loop callbacks panic-free; a commentary bug must
// never take the game down with it.
func (s *Session) guard(event string) {
	if r := recover(); r != nil {
		slog.Error("session event panicked", "event", event, "panic", r)
	}
}

// OnBattleStart begins tracking a new encounter. An encounter still open
// from a missed end event is finalized first, so at most one is ever
// active.
func (s *Session) OnBattleStart() {
	defer s.guard("battle_start")

	if s.tracker.InBattle() {
		slog.Warn("battle start with open encounter, finalizing previous")
		s.OnBattleEnd()
	}

	monsters := s.host.Monsters()
	s.tracker.StartBattle(monsters)
	s.pipeline.OnBattleStart()

	if s.cfg.Commentary.IntroduceMonsters {
		s.pipeline.Trigger(commentary.ActionMonsterIntro, s.introParams(monsters)...)
	}
}

// introParams renders the encounter roster for the intro narration; the
// detailed form adds health and intent.
func (s *Session) introParams(monsters []game.MonsterInfo) []string {
	var params []string
	for _, m := range monsters {
		if !m.Alive() {
			continue
		}
		if s.cfg.Commentary.DetailedIntro {
			desc := fmt.Sprintf("%s (%d/%d HP", m.Name, m.CurrentHealth, m.MaxHealth)
			if m.Intent != "" {
				desc += ", intent " + m.Intent
			}
			params = append(params, desc+")")
		} else {
			params = append(params, m.Name)
		}
	}
	return params
}

// OnTurnStart opens a new tracked turn and records the enemies' declared
// intents.
func (s *Session) OnTurnStart() {
	defer s.guard("turn_start")
	monsters := s.host.Monsters()
	s.tracker.StartNewTurn(s.host.Player(), monsters)
	s.tracker.RecordMonsterIntents(monsters)
}

// OnCardPlayed records the play and offers it to the commentary gate.
func (s *Session) OnCardPlayed(card game.CardInfo, target *game.MonsterInfo) {
	defer s.guard("card_played")
	s.tracker.RecordCardPlay(card, target)

	targetName := ""
	if target != nil {
		targetName = target.Name
	}
	s.pipeline.Trigger(commentary.ActionPlayCard, card.Name, card.Description, targetName)
}

// OnPotionUsed offers the potion use to the commentary gate.
func (s *Session) OnPotionUsed(potion game.PotionInfo, target *game.MonsterInfo) {
	defer s.guard("potion_used")
	params := []string{potion.Name}
	if target != nil {
		params = append(params, target.Name)
	}
	s.pipeline.Trigger(commentary.ActionUsePotion, params...)
}

// OnTurnEnd offers the turn summary to the gate, then finalizes the
// tracked turn. The order matters: the prompt builder and the turn-end
// mode check both need the turn still open.
func (s *Session) OnTurnEnd() {
	defer s.guard("turn_end")
	s.pipeline.Trigger(commentary.ActionEndTurn)
	s.tracker.EndCurrentTurn(s.host.Player())
}

// OnBattleEnd closes the encounter and resets delivery state.
func (s *Session) OnBattleEnd() {
	defer s.guard("battle_end")
	s.tracker.EndBattle()
	s.pipeline.OnBattleEnd()
}

// OnRestSite offers a campfire choice to the gate.
func (s *Session) OnRestSite(option string) {
	defer s.guard("rest_site")
	s.pipeline.Trigger(commentary.ActionCampfire, option)
}

// OnMapChoice offers a map-path pick to the gate.
func (s *Session) OnMapChoice(node string) {
	defer s.guard("map_choice")
	s.pipeline.Trigger(commentary.ActionMap, node)
}

// DecideNextAction runs one autopilot step: snapshot the host, ask the
// model for a tool call, voice its stated reason, and apply the
// resulting commands. A failed decision is skipped, never retried here.
func (s *Session) DecideNextAction(ctx context.Context) error {
	if !s.client.Enabled() {
		return ai.ErrNotConfigured
	}

	snap := s.snapshot()
	call, err := s.client.Decide(ctx, describeState(snap, s.tracker.TurnNumber()), snap)
	if err != nil {
		return fmt.Errorf("decide: %w", err)
	}

	if call.Args.Reason != "" {
		if err := s.host.Execute(game.Speak{Text: call.Args.Reason}); err != nil {
			slog.Warn("speak failed", "error", err)
		}
	}

	for _, cmd := range dispatch.Execute(call, snap) {
		if err := s.host.Execute(cmd); err != nil {
			slog.Warn("command failed", "command", cmd.String(), "error", err)
		}
	}

	if call.Name == ai.ToolEndTurn && !call.Args.Suicide {
		if snap.Player.Energy > 0 && !snap.Player.HasRelic(energyRelic) {
			s.transcript.AddSystemTip("game",
				"energy and hand cards do not carry over to the next turn unless a relic or effect says otherwise")
		}
	}
	return nil
}

// hasRoomContext reports whether the host is inside a room commentary
// can describe. Before the first room, or with no host wired at all,
// triggers have nothing to narrate and the gate rejects them.
func (s *Session) hasRoomContext() bool {
	if s.host == nil {
		return false
	}
	return s.host.Screen().Room != game.RoomNone
}

func (s *Session) snapshot() game.Snapshot {
	return game.Snapshot{
		Player:   s.host.Player(),
		Monsters: s.host.Monsters(),
		Screen:   s.host.Screen(),
	}
}

func (s *Session) playerSnapshot() game.PlayerInfo {
	return s.host.Player()
}

// describeState renders the snapshot as the decision prompt's state
// block. Indexes match what the tools expect: hand and potion slots are
// zero-based, targets are 0 for self and 1..n for the live enemies.
func describeState(snap game.Snapshot, turn int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Turn %d. HP %d/%d, energy %d.",
		turn, snap.Player.CurrentHealth, snap.Player.MaxHealth, snap.Player.Energy)

	if len(snap.Player.Hand) > 0 {
		b.WriteString(" Hand:")
		for i, c := range snap.Player.Hand {
			fmt.Fprintf(&b, " [%d] %s (%s, cost %d) %s;", i, c.Name, c.Type, c.Cost, c.Description)
		}
	}
	if len(snap.Player.Potions) > 0 {
		b.WriteString(" Potions:")
		for i, p := range snap.Player.Potions {
			fmt.Fprintf(&b, " [%d] %s;", i, p.Name)
		}
	}

	hostiles := snap.Hostiles()
	if len(hostiles) > 0 {
		b.WriteString(" Enemies (target 0 is me):")
		for i, m := range hostiles {
			fmt.Fprintf(&b, " [%d] %s %d/%d HP", i+1, m.Name, m.CurrentHealth, m.MaxHealth)
			if m.Block > 0 {
				fmt.Fprintf(&b, " block %d", m.Block)
			}
			if m.Intent != "" {
				fmt.Fprintf(&b, " intends %s", m.Intent)
				if m.IntentDamage > 0 {
					fmt.Fprintf(&b, " for %d", m.IntentDamage)
				}
			}
			b.WriteString(";")
		}
	}

	if snap.Screen.Kind != game.ScreenNone {
		fmt.Fprintf(&b, " Screen: %s", snap.Screen.Kind)
		if len(snap.Screen.Choices) > 0 {
			b.WriteString(" with choices:")
			for i, choice := range snap.Screen.Choices {
				fmt.Fprintf(&b, " [%d] %s;", i, choice)
			}
		}
	}
	return b.String()
}

// Stats is a point-in-time snapshot of session internals for the status
// server.
type Stats struct {
	SessionID      string           `json:"session_id"`
	InBattle       bool             `json:"in_battle"`
	TurnNumber     int              `json:"turn_number"`
	Live           string           `json:"live"`
	QueueLen       int              `json:"queue_len"`
	HistoryLen     int              `json:"history_len"`
	TriggerCounter int              `json:"trigger_counter"`
	CacheSize      int              `json:"cache_size"`
	TranscriptLen  int              `json:"transcript_len"`
	AIEnabled      bool             `json:"ai_enabled"`
	VoiceEnabled   bool             `json:"voice_enabled"`
	VoiceCache     voice.CacheStats `json:"voice_cache"`
}

// Stats reports the current counters.
func (s *Session) Stats() Stats {
	return Stats{
		SessionID:      s.id,
		InBattle:       s.tracker.InBattle(),
		TurnNumber:     s.tracker.TurnNumber(),
		Live:           s.pipeline.Live(),
		QueueLen:       s.pipeline.QueueLen(),
		HistoryLen:     len(s.pipeline.History()),
		TriggerCounter: s.gate.Counter(),
		CacheSize:      s.pipeline.CacheSize(),
		TranscriptLen:  s.transcript.Len(),
		AIEnabled:      s.client.Enabled(),
		VoiceEnabled:   s.synth.Enabled(),
		VoiceCache:     s.synth.CacheStats(),
	}
}

// History returns delivered commentary lines, most recent first.
func (s *Session) History() []string {
	return s.pipeline.History()
}

// ClearCaches drops the commentary cache (memory and store) and the
// voice file cache.
func (s *Session) ClearCaches() error {
	s.pipeline.ClearCache()

	var firstErr error
	if s.db != nil {
		if err := s.db.ClearCommentary(); err != nil {
			firstErr = err
		}
	}
	if err := s.synth.ClearCache(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
