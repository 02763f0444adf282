// Package metadata round-trips the apportionment representation through the
// opaque shareMetadata string persisted on a transaction.
//
// The blob only records how the user expressed the split (unit plus scratch
// input); the money values themselves live in the transaction's personal and
// owed share fields and are never recomputed on decode.
package metadata

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

// Representation is the persisted form of a share decision. Scratch fields
// keep the user's raw input so a re-edit shows exactly what was typed.
type Representation struct {
	SplitType   core.SplitType `json:"splitType"`
	Percentage  string         `json:"percentage,omitempty"`
	YourShares  string         `json:"yourShares,omitempty"`
	TotalShares string         `json:"totalShares,omitempty"`
}

// Default is the representation used when nothing has been persisted yet or
// the stored blob cannot be read.
func Default() Representation {
	return Representation{SplitType: core.SplitAmount}
}

// Encode serializes a representation to the opaque string stored on the
// transaction.
func Encode(rep Representation) (string, error) {
	if !rep.SplitType.IsValid() {
		return "", fmt.Errorf("encode share metadata: %w", core.ErrInvalidSplitType)
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("encode share metadata: %w", err)
	}
	return string(b), nil
}

// Decode parses a stored blob. A missing or malformed blob is logged and
// falls back to the AMOUNT default; decode never fails past this package.
func Decode(blob string) Representation {
	if blob == "" {
		return Default()
	}
	var rep Representation
	if err := json.Unmarshal([]byte(blob), &rep); err != nil {
		slog.Warn("Malformed share metadata, falling back to default",
			"error", err, "blob_len", len(blob))
		return Default()
	}
	if !rep.SplitType.IsValid() {
		slog.Warn("Unknown split type in share metadata, falling back to default",
			"split_type", string(rep.SplitType))
		return Default()
	}
	return rep
}
