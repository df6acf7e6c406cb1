package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFileStore(t *testing.T, passphrase string) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	s, err := NewFileStore(path, passphrase)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s, path
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestFileStore(t, "")

	if err := s.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "token")
	if err != nil || got != "abc" {
		t.Fatalf("get: %q, %v", got, err)
	}

	// Absent keys read as empty without error.
	got, err = s.Get(ctx, "missing")
	if err != nil || got != "" {
		t.Fatalf("absent key: %q, %v", got, err)
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestFileStore(t, "")
	if err := s.SetMany(ctx, map[string]string{"token": "abc", "actor_role": "user"}); err != nil {
		t.Fatalf("setmany: %v", err)
	}

	reopened, err := NewFileStore(path, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got, _ := reopened.Get(ctx, "actor_role"); got != "user" {
		t.Fatalf("value lost across reopen: %q", got)
	}
}

func TestFileStore_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestFileStore(t, "")
	_ = s.SetMany(ctx, map[string]string{"a": "1", "b": "2"})

	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got, _ := s.Get(ctx, "a"); got != "" {
		t.Fatalf("removed key still present: %q", got)
	}
	// Removing an absent key is a no-op.
	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatalf("remove absent: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := s.Get(ctx, "b"); got != "" {
		t.Fatalf("clear left key behind: %q", got)
	}
}

func TestFileStore_EncryptedRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, path := newTestFileStore(t, "hunter2")
	if err := s.Set(ctx, "token", "very-secret"); err != nil {
		t.Fatalf("set: %v", err)
	}

	// The token must not appear in the file on disk.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if strings.Contains(string(raw), "very-secret") {
		t.Fatalf("token stored in plaintext")
	}

	reopened, err := NewFileStore(path, "hunter2")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got, _ := reopened.Get(ctx, "token"); got != "very-secret" {
		t.Fatalf("encrypted round-trip failed: %q", got)
	}
}

func TestFileStore_WrongPassphraseFails(t *testing.T) {
	ctx := context.Background()
	s, path := newTestFileStore(t, "correct")
	_ = s.Set(ctx, "token", "x")

	wrong, err := NewFileStore(path, "incorrect")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := wrong.Get(ctx, "token"); err == nil {
		t.Fatalf("expected decryption failure with wrong passphrase")
	}
}

func TestFileStore_NoTempFileLeftBehind(t *testing.T) {
	ctx := context.Background()
	s, path := newTestFileStore(t, "")
	_ = s.Set(ctx, "token", "abc")

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind after write")
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	sealed, err := seal([]byte(`{"token":"abc"}`), "pw")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	plain, err := open(sealed, "pw")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if string(plain) != `{"token":"abc"}` {
		t.Fatalf("round-trip mismatch: %s", plain)
	}

	if _, err := open(sealed[:10], "pw"); err == nil {
		t.Fatalf("truncated input must fail")
	}
	if _, err := open([]byte("XXXXX"+string(sealed[5:])), "pw"); err == nil {
		t.Fatalf("bad magic must fail")
	}
}
