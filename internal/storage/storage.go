// internal/storage/storage.go
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"photodrop-backend/internal/models"
)

// ErrNotFound indicates the requested artifact could not be located. Path
// traversal attempts resolve to the same error so nothing about the
// filesystem outside the store leaks to the caller.
var ErrNotFound = errors.New("storage: artifact not found")

// Storage is the only interface the service layer depends on. Swap the
// implementation in main.go — ingest and query code never changes.
type Storage interface {
	// Put persists the reader's bytes under a session-prefixed, time-ordered
	// unique name. extHint is applied when recognized, ".jpg" otherwise.
	Put(token models.SessionToken, extHint string, r io.Reader) (models.Artifact, error)
	// List returns the session's artifacts newest-first. Unknown sessions
	// yield an empty slice, not an error.
	List(token models.SessionToken) ([]models.Artifact, error)
	// Open streams a stored artifact by name.
	Open(name string) (io.ReadCloser, error)
}

// extPattern is what we accept as a file extension; anything else falls back
// to the default so uploader-controlled names cannot smuggle path segments.
var extPattern = regexp.MustCompile(`^\.[a-zA-Z0-9]{1,8}$`)

const defaultExt = ".jpg"

// LocalStorage stores artifacts as flat files under one directory. The name
// embeds the session token and a fixed-width monotonic nanosecond stamp, so
// lexicographic order over names is creation order and no two writes ever
// collide, even within the same clock tick.
type LocalStorage struct {
	root string

	mu   sync.Mutex
	last int64 // last stamp handed out, for monotonicity
}

// NewLocalStorage creates the upload directory if needed and returns a store
// rooted there.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	return &LocalStorage{root: abs}, nil
}

// stamp returns a strictly increasing nanosecond value.
func (s *LocalStorage) stamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UnixNano()
	if now <= s.last {
		now = s.last + 1
	}
	s.last = now
	return now
}

func (s *LocalStorage) Put(token models.SessionToken, extHint string, r io.Reader) (models.Artifact, error) {
	ext := strings.ToLower(extHint)
	if !extPattern.MatchString(ext) {
		ext = defaultExt
	}

	// %019d keeps the stamp fixed-width, preserving lexicographic order.
	name := fmt.Sprintf("%s_%019d%s", token, s.stamp(), ext)
	if name != filepath.Base(name) {
		return models.Artifact{}, fmt.Errorf("invalid session token %q", token)
	}

	// Atomic write via temp file + rename: a reader never observes a
	// half-written artifact.
	target := filepath.Join(s.root, name)
	tmp := target + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("create artifact: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return models.Artifact{}, fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return models.Artifact{}, fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return models.Artifact{}, fmt.Errorf("rename artifact: %w", err)
	}

	return models.Artifact{Name: name}, nil
}

func (s *LocalStorage) List(token models.SessionToken) ([]models.Artifact, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}

	prefix := string(token) + "_"
	artifacts := make([]models.Artifact, 0)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		artifacts = append(artifacts, models.Artifact{Name: e.Name()})
	}

	// Reverse lexicographic is reverse chronological given the fixed-width
	// monotonic stamp in the name.
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Name > artifacts[j].Name
	})
	return artifacts, nil
}

func (s *LocalStorage) Open(name string) (io.ReadCloser, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

// resolve canonicalizes name against the store root and rejects anything that
// escapes it. Rejections look exactly like missing artifacts.
func (s *LocalStorage) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", ErrNotFound
	}
	p := filepath.Join(s.root, name)
	if !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", ErrNotFound
	}
	return p, nil
}

// Reap deletes artifacts whose modification time is older than the window and
// reports how many were removed. This is the reclamation policy for sessions
// nobody will ever revisit; a zero or negative window removes nothing.
func (s *LocalStorage) Reap(olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.root, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
