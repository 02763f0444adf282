package commit

import (
	"encoding/json"

	"fintrack/internal/core"
)

// SplitPayload is the journaled snapshot of a split commit: the patched
// parent and the children still to create. The worker replays the children
// from it when phase 2 failed.
type SplitPayload struct {
	Parent   core.Transaction   `json:"parent"`
	Children []core.Transaction `json:"children"`
}

// ToJSON converts the payload to JSON bytes
func (p *SplitPayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// SplitPayloadFromJSON creates a payload from JSON bytes
func SplitPayloadFromJSON(data []byte) (*SplitPayload, error) {
	var p SplitPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
