package voice

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
)

// DefaultVolume matches a comfortable narration level.
const DefaultVolume = 0.7

// Synth turns narration text into played audio: fetch from the
// synthesis service (or the file cache), decode, and play. It satisfies
// the commentary pipeline's Speaker interface.
//
// At most one clip plays at a time; requests arriving while audio is
// playing are dropped rather than queued, since stale narration is
// worse than silence.
type Synth struct {
	client *Client
	cache  *Cache
	player Player

	mu      sync.Mutex
	volume  float64
	playing bool
}

// NewSynth wires the synthesizer. A nil client disables it; cache and
// player must be non-nil when the client is enabled.
func NewSynth(client *Client, cache *Cache, player Player) *Synth {
	return &Synth{
		client: client,
		cache:  cache,
		player: player,
		volume: DefaultVolume,
	}
}

// Enabled reports whether the synthesizer can produce audio.
func (s *Synth) Enabled() bool {
	return s != nil && s.client.Enabled()
}

// SetVolume clamps the playback volume into [0,1].
func (s *Synth) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
}

// Volume returns the current playback volume.
func (s *Synth) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// GainDB converts the current volume to the decibel gain a mixer would
// apply for it.
func (s *Synth) GainDB() float64 {
	v := s.Volume()
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

// Playing reports whether a clip is currently on the device.
func (s *Synth) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// SynthesizeAndPlay renders text and plays it. All failures are logged
// and swallowed; speech is best-effort and never disturbs the caller.
func (s *Synth) SynthesizeAndPlay(ctx context.Context, text string) {
	if !s.Enabled() {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	path, err := s.audioFile(ctx, text)
	if err != nil {
		slog.Warn("voice synthesis failed", "error", err)
		return
	}

	if !s.tryAcquire() {
		slog.Debug("audio busy, dropping narration clip")
		return
	}
	defer s.release()

	clip, err := DecodeFile(path)
	if err != nil {
		slog.Warn("audio decode failed", "file", path, "error", err)
		return
	}
	clip.scale(s.Volume())

	slog.Debug("playing narration clip", "file", path, "duration", clip.Duration())
	if err := s.player.Play(ctx, clip); err != nil {
		slog.Warn("audio playback failed", "error", err)
	}
}

func (s *Synth) audioFile(ctx context.Context, text string) (string, error) {
	if path, ok := s.cache.Lookup(text); ok {
		return path, nil
	}
	data, ext, err := s.client.Fetch(ctx, text)
	if err != nil {
		return "", err
	}
	return s.cache.Store(text, data, ext)
}

func (s *Synth) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return false
	}
	s.playing = true
	return true
}

func (s *Synth) release() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

// ClearCache drops the on-disk audio cache.
func (s *Synth) ClearCache() error {
	if s == nil || s.cache == nil {
		return nil
	}
	return s.cache.Clear()
}

// CacheStats reports the on-disk audio cache footprint.
func (s *Synth) CacheStats() CacheStats {
	if s == nil || s.cache == nil {
		return CacheStats{}
	}
	return s.cache.Stats()
}
