package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photodrop-backend/internal/models"
)

func newTestStore(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestPutNamesUniqueAndOrdered(t *testing.T) {
	s := newTestStore(t)
	token := models.NewSessionToken()

	// Rapid successive puts land within the same clock tick; names must
	// still be unique and strictly creation-ordered.
	const n = 50
	seen := make(map[string]bool, n)
	var order []string
	for i := 0; i < n; i++ {
		a, err := s.Put(token, ".jpg", strings.NewReader("x"))
		if err != nil {
			t.Fatal(err)
		}
		if seen[a.Name] {
			t.Fatalf("duplicate artifact name %s", a.Name)
		}
		seen[a.Name] = true
		order = append(order, a.Name)
	}

	listed, err := s.List(token)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != n {
		t.Fatalf("expected %d artifacts, got %d", n, len(listed))
	}
	// Newest-first: listed is the reverse of insertion order.
	for i, a := range listed {
		if want := order[n-1-i]; a.Name != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, a.Name)
		}
	}
}

func TestListEmptySession(t *testing.T) {
	s := newTestStore(t)

	artifacts, err := s.List(models.NewSessionToken())
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(artifacts))
	}
}

func TestListScopedToSession(t *testing.T) {
	s := newTestStore(t)
	mine := models.SessionToken("session-a")
	other := models.SessionToken("session-b")

	if _, err := s.Put(mine, ".jpg", strings.NewReader("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(other, ".jpg", strings.NewReader("b")); err != nil {
		t.Fatal(err)
	}

	artifacts, err := s.List(mine)
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(artifacts))
	}
	if artifacts[0].Session() != mine {
		t.Fatalf("artifact %s does not belong to %s", artifacts[0].Name, mine)
	}
}

func TestOpenRoundTrip(t *testing.T) {
	s := newTestStore(t)
	content := []byte{0xff, 0xd8, 0x00, 0x42}

	a, err := s.Put(models.NewSessionToken(), ".jpg", bytes.NewReader(content))
	if err != nil {
		t.Fatal(err)
	}

	rc, err := s.Open(a.Name)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content mismatch: got %v", got)
	}
}

func TestOpenMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Open("nope.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	// A real file one level above the store root that must stay unreachable.
	if err := os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewLocalStorage(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{
		"../secret.txt",
		"..\\secret.txt",
		"sub/../../secret.txt",
		"/etc/passwd",
		"",
		".",
		"..",
	} {
		if _, err := s.Open(name); !errors.Is(err, ErrNotFound) {
			t.Errorf("Open(%q): expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestPutExtensionFallback(t *testing.T) {
	s := newTestStore(t)
	token := models.SessionToken("ext-session")

	cases := []struct {
		hint string
		want string
	}{
		{".png", ".png"},
		{".PNG", ".png"},
		{"", ".jpg"},
		{".", ".jpg"},
		{".way-too/odd", ".jpg"},
	}
	for _, c := range cases {
		a, err := s.Put(token, c.hint, strings.NewReader("x"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasSuffix(a.Name, c.want) {
			t.Errorf("hint %q: expected suffix %s, got %s", c.hint, c.want, a.Name)
		}
	}
}

func TestReap(t *testing.T) {
	s := newTestStore(t)
	token := models.SessionToken("old-session")

	old, err := s.Put(token, ".jpg", strings.NewReader("old"))
	if err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(s.root, old.Name), stale, stale); err != nil {
		t.Fatal(err)
	}
	fresh, err := s.Put(token, ".jpg", strings.NewReader("fresh"))
	if err != nil {
		t.Fatal(err)
	}

	// Zero window means reclamation is disabled.
	if n, err := s.Reap(0); err != nil || n != 0 {
		t.Fatalf("Reap(0) = %d, %v; expected 0, nil", n, err)
	}

	n, err := s.Reap(time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reaped, got %d", n)
	}
	if _, err := s.Open(old.Name); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale artifact still present")
	}
	if _, err := s.Open(fresh.Name); err != nil {
		t.Errorf("fresh artifact reaped: %v", err)
	}
}
