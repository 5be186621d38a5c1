package graphstore

import (
	"encoding/json"
	"os"
	"testing"
)

// writeRawGraph serializes g directly to path, bypassing Store.Save's
// validation — used to set up fixtures that Repair is meant to fix.
func writeRawGraph(t *testing.T, path string, g *Graph) {
	t.Helper()
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		t.Fatalf("marshal fixture graph: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture graph: %v", err)
	}
}
