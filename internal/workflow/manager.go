package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/antigravity-dev/triads-runtime/internal/fsutil"
)

// Manager is the Instance Manager (spec §4.4): file-backed lifecycle
// operations over <root>/{instances,completed,abandoned}/<id>.json.
type Manager struct {
	Root string
	Now  func() time.Time
}

// NewManager constructs a Manager rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{Root: dir, Now: time.Now}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) dir(status Status) string {
	switch status {
	case StatusCompleted:
		return filepath.Join(m.Root, "completed")
	case StatusAbandoned:
		return filepath.Join(m.Root, "abandoned")
	default:
		return filepath.Join(m.Root, "instances")
	}
}

func (m *Manager) path(status Status, id string) string {
	return filepath.Join(m.dir(status), id+".json")
}

// Create starts a new instance and writes its initial file under
// instances/ (spec §4.4 "create").
func (m *Manager) Create(workflowType, title, user string, metadata map[string]interface{}) (string, error) {
	now := m.now()
	id := NewInstanceID(title, now)

	inst := &Instance{
		ID:           id,
		WorkflowType: workflowType,
		Title:        title,
		User:         user,
		Status:       StatusActive,
		Metadata:     metadata,
		StartedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.write(StatusActive, inst); err != nil {
		return "", err
	}
	return id, nil
}

// Load searches instances/, completed/, and abandoned/ for id (spec §4.4 "load").
func (m *Manager) Load(id string) (*Instance, error) {
	if err := ValidateInstanceID(id); err != nil {
		return nil, err
	}
	for _, status := range []Status{StatusActive, StatusCompleted, StatusAbandoned} {
		inst, err := m.readFile(m.path(status, id))
		if err == nil {
			return inst, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: reading instance %s: %v", ErrTransientIO, id, err)
		}
	}
	return nil, fmt.Errorf("%w: instance %q", ErrNotFound, id)
}

func (m *Manager) readFile(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var inst Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrValidation, path, err)
	}
	return &inst, nil
}

func (m *Manager) write(status Status, inst *Instance) error {
	dir := m.dir(status)
	if err := fsutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	lock, err := fsutil.LockExclusive(m.path(status, inst.ID))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal instance: %v", ErrValidation, err)
	}
	if err := fsutil.WriteFileAtomic(m.path(status, inst.ID), data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	return nil
}

// Update deep-merges patch into the instance's Metadata (dict-valued keys
// merge recursively; scalars replace) and rewrites the file (spec §4.4 "update").
func (m *Manager) Update(id string, patch map[string]interface{}) error {
	inst, err := m.Load(id)
	if err != nil {
		return err
	}
	if inst.Metadata == nil {
		inst.Metadata = make(map[string]interface{})
	}
	deepMerge(inst.Metadata, patch)
	inst.UpdatedAt = m.now()
	return m.write(inst.Status, inst)
}

func deepMerge(dst, src map[string]interface{}) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]interface{}); ok {
			if dstMap, ok := dst[k].(map[string]interface{}); ok {
				deepMerge(dstMap, srcMap)
				continue
			}
		}
		dst[k] = v
	}
}

// MarkTriadCompleted appends a CompletedTriad and rewrites the instance
// (spec §4.4). duration may be zero if not measured.
func (m *Manager) MarkTriadCompleted(id, triad string, duration time.Duration) error {
	inst, err := m.Load(id)
	if err != nil {
		return err
	}
	now := m.now()
	inst.Completed = append(inst.Completed, CompletedTriad{Triad: triad, Duration: duration, CompletedAt: now})
	inst.UpdatedAt = now
	return m.write(inst.Status, inst)
}

// MarkTriadSkipped appends a SkippedTriad with reason and rewrites the instance.
func (m *Manager) MarkTriadSkipped(id, triad, reason string) error {
	inst, err := m.Load(id)
	if err != nil {
		return err
	}
	now := m.now()
	inst.Skipped = append(inst.Skipped, SkippedTriad{Triad: triad, Reason: reason, SkippedAt: now})
	inst.UpdatedAt = now
	return m.write(inst.Status, inst)
}

// AddDeviation appends a Deviation, stamping At with the manager clock if unset.
func (m *Manager) AddDeviation(id string, dev Deviation) error {
	inst, err := m.Load(id)
	if err != nil {
		return err
	}
	if dev.At.IsZero() {
		dev.At = m.now()
	}
	inst.Deviations = append(inst.Deviations, dev)
	inst.UpdatedAt = m.now()
	return m.write(inst.Status, inst)
}

// Complete marks the instance completed and atomically moves its file from
// instances/ to completed/ (spec §4.4 "complete").
func (m *Manager) Complete(id string) error {
	return m.transition(id, StatusCompleted, func(inst *Instance) {
		now := m.now()
		inst.CompletedAt = &now
	})
}

// Abandon marks the instance abandoned with reason and moves its file to
// abandoned/ (spec §4.4 "abandon").
func (m *Manager) Abandon(id, reason string) error {
	return m.transition(id, StatusAbandoned, func(inst *Instance) {
		now := m.now()
		inst.AbandonedAt = &now
		inst.AbandonReason = reason
	})
}

func (m *Manager) transition(id string, newStatus Status, mutate func(*Instance)) error {
	inst, err := m.Load(id)
	if err != nil {
		return err
	}
	oldPath := m.path(inst.Status, id)
	oldStatus := inst.Status

	inst.Status = newStatus
	inst.UpdatedAt = m.now()
	mutate(inst)

	if err := fsutil.EnsureDir(m.dir(newStatus)); err != nil {
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	lock, err := fsutil.LockExclusive(oldPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal instance: %v", ErrValidation, err)
	}
	newPath := m.path(newStatus, id)
	if err := fsutil.WriteFileAtomic(newPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	if oldStatus != newStatus {
		if err := os.Remove(oldPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: removing old instance file %s: %v", ErrTransientIO, oldPath, err)
		}
	}
	return nil
}

// Summary is the aggregate view List returns for each instance.
type Summary struct {
	ID           string `json:"id"`
	WorkflowType string `json:"workflow_type"`
	Title        string `json:"title"`
	Status       Status `json:"status"`
	StartedAt    time.Time `json:"started_at"`
}

// List returns a summary of every instance, optionally filtered by status,
// sorted by started_at descending (spec §4.4 "list").
func (m *Manager) List(status Status) ([]Summary, error) {
	var statuses []Status
	if status == "" {
		statuses = []Status{StatusActive, StatusCompleted, StatusAbandoned}
	} else {
		statuses = []Status{status}
	}

	var summaries []Summary
	for _, st := range statuses {
		entries, err := os.ReadDir(m.dir(st))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			inst, err := m.readFile(filepath.Join(m.dir(st), e.Name()))
			if err != nil {
				continue
			}
			summaries = append(summaries, Summary{
				ID:           inst.ID,
				WorkflowType: inst.WorkflowType,
				Title:        inst.Title,
				Status:       inst.Status,
				StartedAt:    inst.StartedAt,
			})
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})
	return summaries, nil
}
