package graphstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStore_LoadMissingReturnsEmptyGraph(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 5)

	g, err := s.Load("alpha", false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(g.Nodes) != 0 || len(g.Links) != 0 {
		t.Fatalf("expected empty graph, got %+v", g)
	}
	if g.Meta.TriadName != "alpha" {
		t.Fatalf("expected triad name alpha, got %q", g.Meta.TriadName)
	}
}

func TestStore_SaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 5)

	g := NewGraph("alpha", time.Now())
	g.Nodes = append(g.Nodes, Node{ID: "n1", Type: NodeEntity, Label: "thing"})

	if err := s.Save("alpha", g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load("alpha", false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Nodes) != 1 || loaded.Nodes[0].ID != "n1" {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	if loaded.Meta.NodeCount != 1 {
		t.Fatalf("expected node_count 1, got %d", loaded.Meta.NodeCount)
	}
}

func TestStore_SaveRejectsInvalidGraph(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 5)

	g := NewGraph("alpha", time.Now())
	g.Links = append(g.Links, Link{Source: "missing", Target: "also-missing", Key: "rel"})

	err := s.Save("alpha", g)
	if err == nil {
		t.Fatal("expected Save to reject a graph with a dangling edge")
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestStore_RejectsUnsafeTriadName(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 5)

	_, err := s.Load("../../etc/passwd", false)
	if !errors.Is(err, ErrSecurity) {
		t.Fatalf("expected ErrSecurity, got %v", err)
	}
}

func TestStore_BackupRotationRetainsMostRecentN(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(dir, 2)

	for i := 0; i < 5; i++ {
		tick := base.Add(time.Duration(i) * time.Minute)
		s.Now = fixedClock(tick)
		g := NewGraph("alpha", tick)
		g.Nodes = append(g.Nodes, Node{ID: "n", Type: NodeEntity, Label: "x"})
		if err := s.Save("alpha", g); err != nil {
			t.Fatalf("Save iteration %d: %v", i, err)
		}
	}

	backups, err := s.ListBackups("alpha")
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 retained backups, got %d: %v", len(backups), backups)
	}
}

func TestStore_RestoreFromBackup(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 5)

	first := NewGraph("alpha", time.Now())
	first.Nodes = append(first.Nodes, Node{ID: "v1", Type: NodeEntity, Label: "first"})
	if err := s.Save("alpha", first); err != nil {
		t.Fatalf("Save first: %v", err)
	}

	second := NewGraph("alpha", time.Now())
	second.Nodes = append(second.Nodes, Node{ID: "v2", Type: NodeEntity, Label: "second"})
	if err := s.Save("alpha", second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	backups, err := s.ListBackups("alpha")
	if err != nil || len(backups) == 0 {
		t.Fatalf("expected at least one backup, got %v, err=%v", backups, err)
	}

	restored, err := s.Restore("alpha", backups[0])
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(restored.Nodes) != 1 || restored.Nodes[0].ID != "v1" {
		t.Fatalf("expected restored graph to contain v1, got %+v", restored)
	}

	loaded, err := s.Load("alpha", false)
	if err != nil {
		t.Fatalf("Load after restore: %v", err)
	}
	if len(loaded.Nodes) != 1 || loaded.Nodes[0].ID != "v1" {
		t.Fatalf("expected restore to replace the live file, got %+v", loaded)
	}
}

func TestStore_LoadCorruptFileAutoRestores(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 5)

	g := NewGraph("alpha", time.Now())
	g.Nodes = append(g.Nodes, Node{ID: "v1", Type: NodeEntity, Label: "good"})
	if err := s.Save("alpha", g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, "alpha_graph.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o644); err != nil {
		t.Fatalf("corrupting file: %v", err)
	}

	restored, err := s.Load("alpha", true)
	if err != nil {
		t.Fatalf("Load with autoRestore: %v", err)
	}
	if len(restored.Nodes) != 1 || restored.Nodes[0].ID != "v1" {
		t.Fatalf("expected auto-restored graph to contain v1, got %+v", restored)
	}
}

func TestStore_LoadCorruptFileWithoutAutoRestoreFails(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 5)

	path := filepath.Join(dir, "alpha_graph.json")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not valid json"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	_, err := s.Load("alpha", false)
	if !errors.Is(err, ErrCorruption) {
		t.Fatalf("expected ErrCorruption, got %v", err)
	}
}

func TestStore_CheckAllCoversEveryTriad(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 5)

	good := NewGraph("alpha", time.Now())
	good.Nodes = append(good.Nodes, Node{ID: "n", Type: NodeEntity, Label: "ok"})
	if err := s.Save("alpha", good); err != nil {
		t.Fatalf("Save alpha: %v", err)
	}

	other := NewGraph("beta", time.Now())
	other.Nodes = append(other.Nodes, Node{ID: "m", Type: NodeEntity, Label: "ok"})
	if err := s.Save("beta", other); err != nil {
		t.Fatalf("Save beta: %v", err)
	}

	results, err := s.CheckAll()
	if err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d: %v", len(results), results)
	}
	for triad, vr := range results {
		if !vr.Valid {
			t.Fatalf("expected %s to be valid, violations: %v", triad, vr.Violations)
		}
	}
}

func TestStore_RepairTriadFixesDanglingEdgeAndSaves(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 5)
	path := filepath.Join(dir, "alpha_graph.json")

	g := NewGraph("alpha", time.Now())
	g.Nodes = append(g.Nodes, Node{ID: "n1", Type: NodeEntity, Label: "ok"})
	g.Links = append(g.Links, Link{Source: "n1", Target: "ghost", Key: "rel"})
	g.Meta.NodeCount = len(g.Nodes)
	g.Meta.EdgeCount = len(g.Links)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeRawGraph(t, path, g)

	result, err := s.RepairTriad("alpha")
	if err != nil {
		t.Fatalf("RepairTriad: %v", err)
	}
	if len(result.Actions) == 0 {
		t.Fatal("expected repair to report at least one action")
	}

	vr, err := s.Check("alpha")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !vr.Valid {
		t.Fatalf("expected repaired graph to validate, violations: %v", vr.Violations)
	}
}
