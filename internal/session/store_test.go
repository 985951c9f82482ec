package session_test

import (
	"testing"

	"github.com/notexe/xcode-mcp/internal/session"
)

func TestStore_SetMergesAndNewValuesWin(t *testing.T) {
	store := session.NewStore()
	store.Set(map[string]any{"scheme": "App", "simulatorId": "UUID-1"})
	store.Set(map[string]any{"scheme": "Other"})

	got := store.Snapshot()
	if got["scheme"] != "Other" {
		t.Errorf("scheme: got %v want Other", got["scheme"])
	}
	if got["simulatorId"] != "UUID-1" {
		t.Errorf("simulatorId: got %v want UUID-1", got["simulatorId"])
	}
}

func TestStore_SnapshotNeverNilAndIsolated(t *testing.T) {
	store := session.NewStore()
	snap := store.Snapshot()
	if snap == nil {
		t.Fatal("snapshot must never be nil")
	}

	snap["scheme"] = "mutated"
	if _, ok := store.Snapshot()["scheme"]; ok {
		t.Error("mutating a snapshot must not affect the store")
	}
}

func TestStore_Clear(t *testing.T) {
	store := session.NewStore()
	store.Set(map[string]any{"scheme": "App"})
	store.Clear()
	if len(store.Snapshot()) != 0 {
		t.Error("clear must reset the store to empty")
	}
}
