package graphstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/antigravity-dev/triads-runtime/internal/fsutil"
)

// Store is the Graph Store (C1): one JSON file per triad, under Root,
// named "<triad>_graph.json" (spec §6). It exclusively owns graph files and
// their backups (spec §3 "Ownership").
type Store struct {
	Root      string
	Retention int // max backups retained per triad, spec §3 default 5
	Now       func() time.Time
}

// New constructs a Store rooted at dir. retention <= 0 uses the spec default of 5.
func New(dir string, retention int) *Store {
	if retention <= 0 {
		retention = 5
	}
	return &Store{Root: dir, Retention: retention, Now: time.Now}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) path(triad string) (string, error) {
	if err := validateTriadName(triad); err != nil {
		return "", err
	}
	return filepath.Join(s.Root, triad+"_graph.json"), nil
}

func validateTriadName(triad string) error {
	if triad == "" {
		return fmt.Errorf("%w: triad name is empty", ErrSecurity)
	}
	for _, r := range triad {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
		if !ok {
			return fmt.Errorf("%w: triad name %q contains an invalid character", ErrSecurity, triad)
		}
	}
	return nil
}

// Load reads the graph for triad. On invalid JSON, if autoRestore is true the
// newest backup is restored and returned instead; otherwise (or when no
// backup can be restored) an ErrCorruption error is returned. When there is
// no file at all the default empty graph is returned without writing it
// (spec §4.1).
func (s *Store) Load(triad string, autoRestore bool) (*Graph, error) {
	path, err := s.path(triad)
	if err != nil {
		return nil, err
	}

	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}

	lock, err := fsutil.LockShared(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewGraph(triad, s.now()), nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrTransientIO, path, err)
	}

	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		if autoRestore {
			if restored, rerr := s.restoreNewest(triad); rerr == nil {
				return restored, nil
			}
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruption, path, err)
	}
	return &g, nil
}

// Save validates g, takes an exclusive lock, backs up the existing file (if
// any), and atomically replaces it, then prunes old backups (spec §4.1).
func (s *Store) Save(triad string, g *Graph) error {
	path, err := s.path(triad)
	if err != nil {
		return err
	}

	g.syncMeta(s.now())
	if vr := Validate(g); !vr.Valid {
		return fmt.Errorf("%w: %v", ErrValidation, vr.Violations)
	}

	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}

	lock, err := fsutil.LockExclusive(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	defer lock.Unlock()

	if _, err := os.Stat(path); err == nil {
		if err := s.backupLocked(triad, path); err != nil {
			return fmt.Errorf("%w: backup before save: %v", ErrTransientIO, err)
		}
	}

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal graph: %v", ErrValidation, err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}

	return s.pruneBackupsLocked(triad)
}

// backupTimestamp is the ISO-like format used in the ".backup.<ts>" suffix
// (spec §6); microsecond resolution keeps rapid-succession backups distinct.
const backupTimestamp = "20060102T150405.000000Z"

func (s *Store) backupLocked(triad, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	backupPath := path + ".backup." + s.now().UTC().Format(backupTimestamp)
	return fsutil.WriteFileAtomic(backupPath, data, 0o644)
}

// ListBackups returns backup file names for triad, oldest first by the
// timestamp embedded in the filename (spec §3 "monotonically timestamped").
func (s *Store) ListBackups(triad string) ([]string, error) {
	path, err := s.path(triad)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}

	prefix := filepath.Base(path) + ".backup."
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names) // timestamp suffix sorts lexicographically == chronologically
	return names, nil
}

func (s *Store) pruneBackupsLocked(triad string) error {
	names, err := s.ListBackups(triad)
	if err != nil {
		return err
	}
	if len(names) <= s.Retention {
		return nil
	}
	dir := filepath.Join(s.Root)
	toRemove := names[:len(names)-s.Retention]
	for _, n := range toRemove {
		if err := os.Remove(filepath.Join(dir, n)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Restore replaces the triad's graph file with the contents of backup (a
// name previously returned by ListBackups) and returns the restored graph.
func (s *Store) Restore(triad, backup string) (*Graph, error) {
	path, err := s.path(triad)
	if err != nil {
		return nil, err
	}
	if strings.ContainsAny(backup, "/\\") {
		return nil, fmt.Errorf("%w: backup name must not contain path separators", ErrSecurity)
	}
	backupPath := filepath.Join(filepath.Dir(path), backup)

	data, err := os.ReadFile(backupPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading backup %s: %v", ErrNotFound, backup, err)
	}
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: backup %s: %v", ErrCorruption, backup, err)
	}

	lock, err := fsutil.LockExclusive(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	defer lock.Unlock()

	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	return &g, nil
}

func (s *Store) restoreNewest(triad string) (*Graph, error) {
	names, err := s.ListBackups(triad)
	if err != nil || len(names) == 0 {
		return nil, fmt.Errorf("no backups available for %s", triad)
	}
	return s.Restore(triad, names[len(names)-1])
}

// Check validates the on-disk graph for triad without auto-restoring.
func (s *Store) Check(triad string) (ValidationResult, error) {
	g, err := s.Load(triad, false)
	if err != nil {
		return ValidationResult{}, err
	}
	return Validate(g), nil
}

// CheckAll validates every triad graph file found under Root.
func (s *Store) CheckAll() (map[string]ValidationResult, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ValidationResult{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}

	results := make(map[string]ValidationResult)
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, "_graph.json") || strings.Contains(name, ".backup.") {
			continue
		}
		triad := strings.TrimSuffix(name, "_graph.json")
		vr, err := s.Check(triad)
		if err != nil {
			results[triad] = ValidationResult{Valid: false, Violations: []Violation{{Field: "load", Message: err.Error()}}}
			continue
		}
		results[triad] = vr
	}
	return results, nil
}

// RepairTriad loads the graph for triad, applies Repair, and saves the
// result (spec §4.1 "repair(triad) -> RepairResult").
func (s *Store) RepairTriad(triad string) (RepairResult, error) {
	g, err := s.Load(triad, true)
	if err != nil {
		return RepairResult{}, err
	}
	result := Repair(g, s.now())
	if err := s.Save(triad, g); err != nil {
		return result, fmt.Errorf("%w: saving repaired graph: %v", ErrTransientIO, err)
	}
	return result, nil
}
