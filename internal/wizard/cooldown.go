package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CooldownStore persists the time of the last accepted submission.
type CooldownStore interface {
	LastSubmit() (time.Time, bool, error)
	SetLastSubmit(t time.Time) error
}

type cooldownRecord struct {
	LastSubmitMs int64 `json:"lastSubmitMs"`
}

// FileCooldownStore keeps the timestamp in a small JSON file.
type FileCooldownStore struct {
	path string
	mu   sync.Mutex
}

func NewFileCooldownStore(path string) *FileCooldownStore {
	return &FileCooldownStore{path: path}
}

// DefaultCooldownPath is under the user's configuration directory.
func DefaultCooldownPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "attorney-visit", "last_submit.json"), nil
}

func (s *FileCooldownStore) LastSubmit() (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read cooldown file: %w", err)
	}

	var rec cooldownRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return time.Time{}, false, fmt.Errorf("decode cooldown file: %w", err)
	}
	if rec.LastSubmitMs <= 0 {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(rec.LastSubmitMs), true, nil
}

func (s *FileCooldownStore) SetLastSubmit(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(cooldownRecord{LastSubmitMs: t.UnixMilli()})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create cooldown dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cooldown file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

type MemoryCooldownStore struct {
	mu   sync.Mutex
	last time.Time
	set  bool
}

func (s *MemoryCooldownStore) LastSubmit() (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.set, nil
}

func (s *MemoryCooldownStore) SetLastSubmit(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = t
	s.set = true
	return nil
}
