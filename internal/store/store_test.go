package store

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "slaycast.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCommentaryRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if _, ok, err := db.GetCommentary("play_card_Strike"); err != nil || ok {
		t.Fatalf("empty cache returned ok=%v err=%v", ok, err)
	}

	if err := db.PutCommentary("play_card_Strike", "Chat, that Strike hit hard!"); err != nil {
		t.Fatalf("PutCommentary: %v", err)
	}
	text, ok, err := db.GetCommentary("play_card_Strike")
	if err != nil || !ok || text != "Chat, that Strike hit hard!" {
		t.Fatalf("GetCommentary = %q, %v, %v", text, ok, err)
	}

	// Replacing an entry keeps a single row.
	if err := db.PutCommentary("play_card_Strike", "rewritten"); err != nil {
		t.Fatalf("PutCommentary replace: %v", err)
	}
	if n, _ := db.CommentaryCount(); n != 1 {
		t.Errorf("count after replace = %d, want 1", n)
	}

	if err := db.ClearCommentary(); err != nil {
		t.Fatalf("ClearCommentary: %v", err)
	}
	if n, _ := db.CommentaryCount(); n != 0 {
		t.Errorf("count after clear = %d, want 0", n)
	}
}

func TestVoiceIndexRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if err := db.PutVoice("abc123", "Chat_look_at_that_171.wav"); err != nil {
		t.Fatalf("PutVoice: %v", err)
	}
	name, ok, err := db.GetVoice("abc123")
	if err != nil || !ok || name != "Chat_look_at_that_171.wav" {
		t.Fatalf("GetVoice = %q, %v, %v", name, ok, err)
	}
	if _, ok, _ := db.GetVoice("missing"); ok {
		t.Error("unknown key reported present")
	}

	if err := db.ClearVoice(); err != nil {
		t.Fatalf("ClearVoice: %v", err)
	}
	if _, ok, _ := db.GetVoice("abc123"); ok {
		t.Error("entry survived ClearVoice")
	}
}

func TestTranscriptLogIsolatedBySession(t *testing.T) {
	db := openTestDB(t)

	logA := db.Transcript("session-a")
	logB := db.Transcript("session-b")

	entries := []struct{ role, name, content string }{
		{"user", "", "[current state]: turn 1"},
		{"assistant", "", "playCard {\"index\":1}"},
		{"tool", "playCard", "{\"index\":1}"},
	}
	for _, e := range entries {
		if err := logA.AppendMessage(e.role, e.name, e.content); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}
	if err := logB.AppendMessage("user", "", "other session"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	got, err := db.SessionMessages("session-a")
	if err != nil {
		t.Fatalf("SessionMessages: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("loaded %d entries, want %d", len(got), len(entries))
	}
	for i, e := range entries {
		if got[i].Role != e.role || got[i].Name != e.name || got[i].Content != e.content {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], e)
		}
	}

	if n, _ := db.TranscriptCount("session-b"); n != 1 {
		t.Errorf("session-b count = %d, want 1", n)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slaycast.db")
	db1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := db1.PutCommentary("k", "v"); err != nil {
		t.Fatalf("PutCommentary: %v", err)
	}
	db1.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db2.Close()
	if text, ok, _ := db2.GetCommentary("k"); !ok || text != "v" {
		t.Error("data did not survive reopen")
	}
}
