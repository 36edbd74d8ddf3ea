package repository

import (
	"encoding/json"
	"fmt"

	"github.com/Kerhoff/GroceryboT/internal/models"
)

// SnapshotVersion is the only snapshot layout understood by DecodeSnapshot.
const SnapshotVersion = 1

// Snapshot is the exported form of a list.
type Snapshot struct {
	Version int           `json:"version"`
	Items   []models.Item `json:"items"`
}

// EncodeSnapshot serializes items in order.
func EncodeSnapshot(items []models.Item) ([]byte, error) {
	if items == nil {
		items = []models.Item{}
	}
	data, err := json.Marshal(Snapshot{Version: SnapshotVersion, Items: items})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses data produced by EncodeSnapshot. It does not
// validate the items; ListStore.Restore does that.
func DecodeSnapshot(data []byte) ([]models.Item, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &ValidationError{Field: "snapshot", Message: fmt.Sprintf("invalid JSON: %v", err), Err: err}
	}
	if snap.Version != SnapshotVersion {
		return nil, Invalid("snapshot", fmt.Sprintf("unsupported version %d", snap.Version))
	}
	if snap.Items == nil {
		snap.Items = []models.Item{}
	}
	return snap.Items, nil
}
