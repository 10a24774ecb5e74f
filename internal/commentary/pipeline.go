package commentary

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/talgya/slaycast/internal/battle"
	"github.com/talgya/slaycast/internal/game"
)

// DefaultDisplayDuration is how long each commentary stays on screen
// before the queue hands off to the next one.
const DefaultDisplayDuration = 4 * time.Second

// maxHistory bounds the most-recent-first commentary history.
const maxHistory = 20

// Narrator generates narration text for an event prompt.
type Narrator interface {
	Narrate(ctx context.Context, system, prompt string) (string, error)
}

// Speaker synthesizes and plays narration audio. Implementations swallow
// their own failures; speech is best-effort.
type Speaker interface {
	SynthesizeAndPlay(ctx context.Context, text string)
}

// Options wires a Pipeline to its collaborators. Gate, Tracker, and
// Narrator are required; everything else is optional.
type Options struct {
	Gate     *Gate
	Tracker  *battle.Tracker
	Narrator Narrator
	Speaker  Speaker

	// Present shows a commentary line on the host's surface; Hide clears
	// it. Nil callbacks are ignored.
	Present func(text string)
	Hide    func()

	// Player supplies the current player snapshot for prompt building.
	Player func() game.PlayerInfo

	CacheStore      CacheStore
	DisplayDuration time.Duration
	KeepHistory     bool // retain history across encounters
}

// Pipeline owns the commentary flow from candidate event to delivered
// line: gating, caching, async narration, strict-FIFO display with timed
// hand-off, and fire-and-forget voice.
//
// FIFO is by trigger order, not completion order: each trigger reserves
// a queue slot immediately and the slot's text fills in when its
// narration resolves, so a fast-resolving later event can never jump an
// earlier one.
type Pipeline struct {
	gate     *Gate
	tracker  *battle.Tracker
	narrator Narrator
	speaker  Speaker
	present  func(string)
	hide     func()
	player   func() game.PlayerInfo

	cache           *cache
	displayDuration time.Duration
	keepHistory     bool

	mu      sync.Mutex
	queue   []*slot
	live    string
	history []string // most recent first, capped
	resetCh chan struct{}
	gen     uint64

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
}

// slot is one reserved position in the display queue. gen records the
// pipeline generation at reservation time; a reset bumps the generation
// and strands older slots.
type slot struct {
	text  string
	gen   uint64
	ready chan struct{}
}

// NewPipeline creates the pipeline and starts its drain worker. Close
// releases it.
func NewPipeline(opts Options) *Pipeline {
	dur := opts.DisplayDuration
	if dur <= 0 {
		dur = DefaultDisplayDuration
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		gate:            opts.Gate,
		tracker:         opts.Tracker,
		narrator:        opts.Narrator,
		speaker:         opts.Speaker,
		present:         opts.Present,
		hide:            opts.Hide,
		player:          opts.Player,
		cache:           newCache(opts.CacheStore),
		displayDuration: dur,
		keepHistory:     opts.KeepHistory,
		resetCh:         make(chan struct{}),
		ctx:             ctx,
		cancel:          cancel,
		wake:            make(chan struct{}, 1),
	}
	go p.run()
	return p
}

// Close stops the drain worker. In-flight narrations resolve into a
// cancelled queue and go nowhere.
func (p *Pipeline) Close() {
	p.cancel()
}

// Trigger considers one candidate event for narration. If the gate
// rejects it, nothing happens. On a cache hit the cached line is shown
// synchronously; on a miss a narration request is issued in the
// background and the caller returns immediately.
func (p *Pipeline) Trigger(action Action, params ...string) {
	if p.gate == nil || !p.gate.ShouldTrigger(action, p.tracker) {
		return
	}

	key := cacheKey(action, params)
	if text, ok := p.cache.get(key); ok {
		slog.Debug("commentary cache hit", "action", string(action))
		p.Show(text)
		return
	}

	// Reserve the display slot now so results keep trigger order.
	s := p.enqueue()
	prompt := BuildPrompt(action, params, p.tracker, p.playerSnapshot())
	go p.generate(s, action, key, prompt)
}

// Show delivers an already-generated line: trims it, records history,
// queues it for display, and kicks off voice synthesis.
func (p *Pipeline) Show(text string) {
	s := p.enqueue()
	p.resolve(s, text)
}

// generate runs one background narration request and resolves the
// reserved slot with the result or the action's canned fallback.
func (p *Pipeline) generate(s *slot, action Action, key, prompt string) {
	text, err := p.narrator.Narrate(p.ctx, Persona, prompt)
	if err != nil {
		slog.Warn("narration failed, using fallback", "action", string(action), "error", err)
		text = FallbackLine(action)
	} else {
		p.cache.put(key, text)
	}
	p.resolve(s, text)
}

// resolve fills a reserved slot. Empty text marks the slot skippable. A
// slot from before a reset resolves inert: its text goes nowhere, not
// into history and not to the speaker.
func (p *Pipeline) resolve(s *slot, text string) {
	text = strings.TrimSpace(text)
	s.text = text
	close(s.ready)

	if text == "" {
		return
	}

	p.mu.Lock()
	if s.gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.history = append([]string{text}, p.history...)
	if len(p.history) > maxHistory {
		p.history = p.history[:maxHistory]
	}
	p.mu.Unlock()

	if p.speaker != nil {
		go p.speaker.SynthesizeAndPlay(p.ctx, text)
	}
}

func (p *Pipeline) enqueue() *slot {
	s := &slot{ready: make(chan struct{})}
	p.mu.Lock()
	s.gen = p.gen
	p.queue = append(p.queue, s)
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return s
}

// run drains the display queue: wait for the head to resolve, show it
// for the display duration, hand off to the next.
func (p *Pipeline) run() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.wake:
		}
		p.drain()
	}
}

func (p *Pipeline) drain() {
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.live = ""
			p.mu.Unlock()
			p.callHide()
			return
		}
		head := p.queue[0]
		gen := p.gen
		reset := p.resetCh
		p.mu.Unlock()

		select {
		case <-p.ctx.Done():
			return
		case <-reset:
			continue
		case <-head.ready:
		}

		p.mu.Lock()
		if p.gen != gen || len(p.queue) == 0 || p.queue[0] != head {
			p.mu.Unlock()
			continue
		}
		if head.text == "" {
			p.queue = p.queue[1:]
			p.mu.Unlock()
			continue
		}
		p.live = head.text
		p.mu.Unlock()

		if p.present != nil {
			p.present(head.text)
		}

		select {
		case <-p.ctx.Done():
			return
		case <-reset:
			continue
		case <-time.After(p.displayDuration):
		}

		p.mu.Lock()
		if p.gen == gen && len(p.queue) > 0 && p.queue[0] == head {
			p.queue = p.queue[1:]
		}
		p.live = ""
		p.mu.Unlock()
	}
}

func (p *Pipeline) callHide() {
	if p.hide != nil {
		p.hide()
	}
}

// OnBattleStart resets delivery state for a fresh encounter: the queue
// is cleared, the live line hidden, and pending results made inert.
func (p *Pipeline) OnBattleStart() {
	p.reset()
}

// OnBattleEnd clears the queue and, unless history retention is
// configured, the commentary history too.
func (p *Pipeline) OnBattleEnd() {
	p.reset()
	if !p.keepHistory {
		p.mu.Lock()
		p.history = nil
		p.mu.Unlock()
	}
}

func (p *Pipeline) reset() {
	p.mu.Lock()
	p.queue = nil
	p.live = ""
	p.gen++
	close(p.resetCh)
	p.resetCh = make(chan struct{})
	p.mu.Unlock()
	p.callHide()
}

func (p *Pipeline) playerSnapshot() game.PlayerInfo {
	if p.player == nil {
		return game.PlayerInfo{}
	}
	return p.player()
}

// Live returns the currently displayed line, empty when none.
func (p *Pipeline) Live() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// QueueLen returns the number of queued slots, including the live one.
func (p *Pipeline) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// History returns a copy of the delivered lines, most recent first.
func (p *Pipeline) History() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.history))
	copy(out, p.history)
	return out
}

// CacheSize returns the in-memory narration cache entry count.
func (p *Pipeline) CacheSize() int { return p.cache.size() }

// ClearCache drops every in-memory narration cache entry.
func (p *Pipeline) ClearCache() { p.cache.clear() }
