package style

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// StorageKeyPrefix identifies persisted style snapshots in a store
const StorageKeyPrefix = "chatStyles"

// StorageKey returns the key under which the local snapshot for a channel is kept
func StorageKey(channel string) string {
	return StorageKeyPrefix + "/" + strings.ToLower(channel)
}

var ErrMalformedSnapshot = errors.New("configuration is not a valid JSON object")
var ErrMissingRequiredFields = errors.New("Invalid configuration. Missing required fields.")

// ParseImport decodes a user-supplied configuration file. An import is accepted only
// if it carries the marker fields fontFamily, textColor and msgBgMode; otherwise it is
// rejected in full and nothing should be applied.
func ParseImport(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if !s.FontFamily.Present || !s.TextColor.Present || !s.MsgBgMode.Present {
		return Snapshot{}, ErrMissingRequiredFields
	}
	return s, nil
}

// ParsePersisted decodes a snapshot previously written to a store. Decoding is
// lenient, since stored snapshots may predate (or postdate) the current set of
// fields: unknown keys are ignored, and a key whose value has the wrong type is left
// absent. The returned slice names any keys that were skipped.
func ParsePersisted(data []byte) (Snapshot, []string, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Snapshot{}, nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	s = Snapshot{}
	skipped := make([]string, 0)
	for key, value := range fields {
		single, err := json.Marshal(map[string]json.RawMessage{key: value})
		if err != nil {
			skipped = append(skipped, key)
			continue
		}
		var field Snapshot
		if err := json.Unmarshal(single, &field); err != nil {
			skipped = append(skipped, key)
			continue
		}
		if err := json.Unmarshal(single, &s); err != nil {
			skipped = append(skipped, key)
		}
	}
	slices.Sort(skipped)
	return s, skipped, nil
}
