package exporter

import (
	"encoding/json"
	"os"
	"time"
)

// SyncState records when the last incremental sync completed, so the sync
// command only fetches activities recorded since.
type SyncState struct {
	LastSync time.Time `json:"last_sync"`
}

// LoadSyncState reads the sync state file. Missing or malformed files read
// as the zero state.
func LoadSyncState(path string) SyncState {
	data, err := os.ReadFile(path)
	if err != nil {
		return SyncState{}
	}
	var state SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		return SyncState{}
	}
	return state
}

// SaveSyncState writes the sync state atomically.
func SaveSyncState(path string, state SyncState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
