package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// ttsServer serves the two-step synthesis exchange: a JSON envelope
// pointing at the audio, then the audio bytes themselves.
func ttsServer(t *testing.T, audio []byte) (*httptest.Server, *int) {
	t.Helper()
	var fetches int
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/synthesize", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("User-Agent = %q, want %q", got, userAgent)
		}
		if r.URL.Query().Get("format") != DefaultFormat {
			t.Errorf("format = %q, want %q", r.URL.Query().Get("format"), DefaultFormat)
		}
		fetches++
		json.NewEncoder(w).Encode(map[string]any{
			"code": 200, "msg": "ok", "url": srv.URL + "/audio",
		})
	})
	mux.HandleFunc("/audio", func(w http.ResponseWriter, r *http.Request) {
		w.Write(audio)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &fetches
}

func TestClientFetch(t *testing.T) {
	audio := []byte("fake-audio-bytes")
	srv, _ := ttsServer(t, audio)

	client := NewClient(srv.URL + "/synthesize")
	data, ext, err := client.Fetch(context.Background(), "hello chat")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != string(audio) {
		t.Error("downloaded audio differs from served audio")
	}
	if ext != DefaultFormat {
		t.Errorf("ext = %q, want %q", ext, DefaultFormat)
	}
}

func TestClientFetchServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 500, "msg": "quota exceeded"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, _, err := client.Fetch(context.Background(), "hi"); err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("err = %v, want service error with message", err)
	}
}

func TestClientDisabled(t *testing.T) {
	var client *Client
	if client.Enabled() {
		t.Error("nil client reports enabled")
	}
	if NewClient("") != nil {
		t.Error("empty endpoint should yield a nil client")
	}
}

func TestCacheStoreAndLookup(t *testing.T) {
	cache, err := NewCache(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	text := "Chat, that Strike was straight-up lethal!"
	path, err := cache.Store(text, []byte("audio"), "wav")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	name := filepath.Base(path)
	base := strings.TrimSuffix(name, ".wav")
	stem := base[:strings.LastIndex(base, "_")] // trailing _millis suffix
	if len(stem) > maxNameStem {
		t.Errorf("filename stem %q longer than %d chars", stem, maxNameStem)
	}
	if strings.ContainsAny(name, " ,!'") {
		t.Errorf("filename %q contains unsanitized characters", name)
	}
	if !strings.HasSuffix(name, ".wav") {
		t.Errorf("filename %q missing extension", name)
	}

	got, ok := cache.Lookup(text)
	if !ok || got != path {
		t.Fatalf("Lookup = %q, %v; want stored path", got, ok)
	}
	if _, ok := cache.Lookup("never stored"); ok {
		t.Error("unknown text reported as cached")
	}

	stats := cache.Stats()
	if stats.Files != 1 || stats.TotalBytes != int64(len("audio")) {
		t.Errorf("Stats = %+v, want 1 file of 5 bytes", stats)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := cache.Lookup(text); ok {
		t.Error("entry survived Clear")
	}
	if cache.Stats().Files != 0 {
		t.Error("files survived Clear")
	}
}

func TestCacheLookupDropsVanishedFile(t *testing.T) {
	cache, err := NewCache(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	path, err := cache.Store("gone soon", []byte("x"), "wav")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	os.Remove(path)
	if _, ok := cache.Lookup("gone soon"); ok {
		t.Error("deleted file still reported as cached")
	}
}

type fakePlayer struct {
	mu    sync.Mutex
	plays int
	block chan struct{} // optional: hold playback open
}

func (f *fakePlayer) Play(ctx context.Context, clip Clip) error {
	f.mu.Lock()
	f.plays++
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *fakePlayer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

func newTestSynth(t *testing.T, player Player) (*Synth, *int) {
	t.Helper()
	audio := wavBytes(t, 8000, 1, []int16{100, 200, 300})
	srv, fetches := ttsServer(t, audio)
	cache, err := NewCache(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return NewSynth(NewClient(srv.URL+"/synthesize"), cache, player), fetches
}

func TestSynthPlaysAndCaches(t *testing.T) {
	player := &fakePlayer{}
	synth, fetches := newTestSynth(t, player)

	synth.SynthesizeAndPlay(context.Background(), "go go go")
	synth.SynthesizeAndPlay(context.Background(), "go go go")

	if player.count() != 2 {
		t.Errorf("plays = %d, want 2", player.count())
	}
	if *fetches != 1 {
		t.Errorf("service fetches = %d, want 1 (second play from cache)", *fetches)
	}
}

func TestSynthDropsWhileBusy(t *testing.T) {
	player := &fakePlayer{block: make(chan struct{})}
	synth, _ := newTestSynth(t, player)

	go synth.SynthesizeAndPlay(context.Background(), "long clip")
	deadline := time.Now().Add(2 * time.Second)
	for !synth.Playing() {
		if time.Now().After(deadline) {
			t.Fatal("first clip never started")
		}
		time.Sleep(2 * time.Millisecond)
	}

	synth.SynthesizeAndPlay(context.Background(), "talked over")
	if player.count() != 1 {
		t.Errorf("plays = %d, want 1 (second clip dropped)", player.count())
	}
	close(player.block)
}

func TestSynthVolumeClamp(t *testing.T) {
	synth, _ := newTestSynth(t, &fakePlayer{})

	synth.SetVolume(-0.3)
	if synth.Volume() != 0 {
		t.Errorf("volume = %v, want clamp to 0", synth.Volume())
	}
	synth.SetVolume(1.7)
	if synth.Volume() != 1 {
		t.Errorf("volume = %v, want clamp to 1", synth.Volume())
	}
	if synth.GainDB() != 0 {
		t.Errorf("gain at full volume = %v dB, want 0", synth.GainDB())
	}
	synth.SetVolume(0.1)
	if got := synth.GainDB(); got > -19.9 || got < -20.1 {
		t.Errorf("gain at volume 0.1 = %v dB, want -20", got)
	}
}

func TestSynthDisabled(t *testing.T) {
	var synth *Synth
	if synth.Enabled() {
		t.Error("nil synth reports enabled")
	}
	synth.SynthesizeAndPlay(context.Background(), "silence") // must not panic

	disabled := NewSynth(nil, nil, nil)
	if disabled.Enabled() {
		t.Error("synth without client reports enabled")
	}
	disabled.SynthesizeAndPlay(context.Background(), "still silence")
}

func TestSynthSurvivesServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	cache, err := NewCache(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	player := &fakePlayer{}
	synth := NewSynth(NewClient(srv.URL), cache, player)

	synth.SynthesizeAndPlay(context.Background(), "no audio today")
	if player.count() != 0 {
		t.Error("failed synthesis still reached the player")
	}
}
