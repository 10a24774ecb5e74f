// Command slaycast replays a scripted card-battle encounter through the
// live commentary core. It is the demo and smoke-test harness: the demo
// host stands in for the real game, commentary lines print to stdout,
// and the status API exposes the session counters.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/slaycast/internal/api"
	"github.com/talgya/slaycast/internal/config"
	"github.com/talgya/slaycast/internal/game"
	"github.com/talgya/slaycast/internal/session"
	"github.com/talgya/slaycast/internal/store"
	"github.com/talgya/slaycast/internal/voice"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfgPath := envOrDefault("SLAYCAST_CONFIG", "slaycast.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Store.Path)

	synth := buildSynth(cfg, db)

	host := game.NewDemoHost()
	sess := session.New(session.Options{
		Config:  cfg,
		Host:    host,
		Store:   db,
		Synth:   synth,
		Present: func(text string) { fmt.Printf("\n  >> %s\n\n", text) },
	})
	defer sess.Close()

	server := &api.Server{Session: sess, Listen: cfg.API.Listen, AdminKey: cfg.API.AdminKey}
	server.Start()

	go replayEncounter(sess, host)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
}

// buildSynth wires voice output when configured; returns nil otherwise.
func buildSynth(cfg config.Config, db *store.DB) *voice.Synth {
	if !cfg.Voice.Enabled {
		return nil
	}
	cache, err := voice.NewCache(cfg.Voice.CacheDir, db)
	if err != nil {
		slog.Error("voice cache unavailable, disabling voice", "error", err)
		return nil
	}
	synth := voice.NewSynth(voice.NewClient(cfg.Voice.Endpoint), cache, voice.NewDevicePlayer())
	synth.SetVolume(cfg.Voice.Volume)
	return synth
}

// replayEncounter walks the demo host through a short fight, feeding
// each game event into the session the way a live host would.
func replayEncounter(sess *session.Session, host *game.DemoHost) {
	pause := func() { time.Sleep(2 * time.Second) }

	sess.OnBattleStart()
	pause()

	sess.OnTurnStart()
	for turn := 1; !host.TurnEnded(); turn++ {
		player := host.Player()
		if len(player.Hand) == 0 || player.Energy == 0 {
			host.Execute(game.EndTurn{})
			sess.OnTurnEnd()
			break
		}

		card := player.Hand[0]
		target := firstHostile(host)
		cmd := game.PlayCard{HandIndex: 0}
		if target != nil {
			cmd.TargetID = target.ID
		}
		if err := host.Execute(cmd); err != nil {
			slog.Warn("demo play failed", "error", err)
			break
		}
		sess.OnCardPlayed(card, target)
		pause()
	}

	pause()
	sess.OnBattleEnd()
	slog.Info("demo encounter finished", "history", len(sess.History()))
}

func firstHostile(host *game.DemoHost) *game.MonsterInfo {
	for _, m := range host.Monsters() {
		if m.Alive() {
			monster := m
			return &monster
		}
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
