package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/diary/internal/ir"
)

// marshalJSON encodes v as compact JSON TEXT with HTML escaping disabled,
// so stored payloads match what the query surface prints.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// marshalCommand converts a command payload to JSON TEXT for storage.
func marshalCommand(cmd ir.Command) (string, error) {
	s, err := marshalJSON(cmd)
	if err != nil {
		return "", fmt.Errorf("marshal command: %w", err)
	}
	return s, nil
}

// unmarshalCommand parses a stored command payload.
func unmarshalCommand(data string) (ir.Command, error) {
	var cmd ir.Command
	if err := json.Unmarshal([]byte(data), &cmd); err != nil {
		return ir.Command{}, fmt.Errorf("unmarshal command: %w", err)
	}
	return cmd, nil
}

// marshalChanges converts a change list to JSON TEXT for storage.
// A nil list is stored as [].
func marshalChanges(changes []ir.Change) (string, error) {
	if changes == nil {
		changes = []ir.Change{}
	}
	s, err := marshalJSON(changes)
	if err != nil {
		return "", fmt.Errorf("marshal changes: %w", err)
	}
	return s, nil
}

// unmarshalChanges parses a stored change list.
// Always returns a non-nil slice.
func unmarshalChanges(data string) ([]ir.Change, error) {
	changes := []ir.Change{}
	if data == "" {
		return changes, nil
	}
	if err := json.Unmarshal([]byte(data), &changes); err != nil {
		return nil, fmt.Errorf("unmarshal changes: %w", err)
	}
	if changes == nil {
		changes = []ir.Change{}
	}
	return changes, nil
}
