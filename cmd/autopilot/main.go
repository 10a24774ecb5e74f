// Command autopilot lets the model play the demo encounter by itself.
// It observes the host, asks for a tool-call decision, and applies the
// resulting commands, looping until the fight resolves or a signal
// arrives.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/slaycast/internal/ai"
	"github.com/talgya/slaycast/internal/config"
	"github.com/talgya/slaycast/internal/game"
	"github.com/talgya/slaycast/internal/session"
	"github.com/talgya/slaycast/internal/store"
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
	if cfg.AI.APIKey == "" {
		slog.Error("SLAYCAST_API_KEY is required for autopilot")
		os.Exit(1)
	}

	intervalSec := envIntOrDefault("AUTOPILOT_INTERVAL", 5)
	interval := time.Duration(intervalSec) * time.Second

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	host := game.NewDemoHost()
	sess := session.New(session.Options{Config: cfg, Host: host, Store: db})
	defer sess.Close()

	slog.Info("autopilot starting", "interval", interval, "session", sess.ID())

	sess.OnBattleStart()
	sess.OnTurnStart()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if done := runStep(sess, host); done {
				sess.OnBattleEnd()
				slog.Info("encounter resolved, autopilot done")
				return
			}
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			sess.OnBattleEnd()
			return
		}
	}
}

// runStep executes one observe → decide → act cycle and reports whether
// the encounter is over.
func runStep(sess *session.Session, host *game.DemoHost) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sess.DecideNextAction(ctx); err != nil {
		// A skipped decision is not fatal; the next tick tries again
		// from fresh state.
		if errors.Is(err, ai.ErrNoToolCall) {
			slog.Warn("model declined to act, skipping step")
		} else {
			slog.Error("decision step failed", "error", err)
		}
		return false
	}

	if host.TurnEnded() {
		sess.OnTurnEnd()
		host.StartTurn()
		sess.OnTurnStart()
	}

	for _, m := range host.Monsters() {
		if m.Alive() {
			return false
		}
	}
	return true
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
