// Package router implements the Router (C3): semantic + LLM-assisted intent
// classification with grace-period state, manual fallback, and telemetry
// (spec §4.3). State is a single process-wide JSON file; writers serialize
// with an exclusive lock around read-modify-write (spec §5).
package router

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/antigravity-dev/triads-runtime/internal/fsutil"
)

// PendingIntent is a manual-selection candidate awaiting a user choice
// (spec §3 "Router State" pending_intents).
type PendingIntent struct {
	TriadID    string  `json:"triad_id"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// State is the Router's process-wide persisted record (spec §3, §6
// "<home>/.claude/router_state.json").
type State struct {
	SessionID               string          `json:"session_id"`
	ActiveTriad             string          `json:"active_triad,omitempty"`
	ConversationStart       *time.Time      `json:"conversation_start,omitempty"`
	TurnCount               int             `json:"turn_count"`
	LastActivity            *time.Time      `json:"last_activity,omitempty"`
	PendingIntents          []PendingIntent `json:"pending_intents,omitempty"`
	TrainingModeConfirmations int           `json:"training_mode_confirmations"`
}

// StateStore loads and saves Router State at Path, serializing
// read-modify-write cycles with an exclusive file lock.
type StateStore struct {
	Path string
}

// NewStateStore constructs a StateStore rooted at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{Path: path}
}

// Load reads the state file, returning a fresh zero-value State (with the
// given session id) if the file does not yet exist.
func (s *StateStore) Load(sessionID string) (*State, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{SessionID: sessionID}, nil
		}
		return nil, fmt.Errorf("router: reading state %s: %w", s.Path, err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		// Corrupt state is not fatal to the Router: start fresh rather than
		// block every routing decision on a recoverable file (spec §7 "Router
		// always produces a decision").
		return &State{SessionID: sessionID}, nil
	}
	return &st, nil
}

// Save atomically writes st to Path under an exclusive lock.
func (s *StateStore) Save(st *State) error {
	if err := fsutil.EnsureDir(filepath.Dir(s.Path)); err != nil {
		return fmt.Errorf("router: %w", err)
	}
	lock, err := fsutil.LockExclusive(s.Path)
	if err != nil {
		return fmt.Errorf("router: locking state: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("router: marshal state: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("router: %w", err)
	}
	return nil
}

// WithLock loads the current state, runs mutate, and saves the result, all
// under a single exclusive lock — the read-modify-write unit spec §5 requires.
func (s *StateStore) WithLock(sessionID string, mutate func(*State)) (*State, error) {
	if err := fsutil.EnsureDir(filepath.Dir(s.Path)); err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	lock, err := fsutil.LockExclusive(s.Path)
	if err != nil {
		return nil, fmt.Errorf("router: locking state: %w", err)
	}
	defer lock.Unlock()

	st, err := s.loadLocked(sessionID)
	if err != nil {
		return nil, err
	}
	mutate(st)

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("router: marshal state: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.Path, data, 0o644); err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	return st, nil
}

func (s *StateStore) loadLocked(sessionID string) (*State, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{SessionID: sessionID}, nil
		}
		return nil, fmt.Errorf("router: reading state %s: %w", s.Path, err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return &State{SessionID: sessionID}, nil
	}
	return &st, nil
}
