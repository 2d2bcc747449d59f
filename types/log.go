package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EntryKind discriminates LogEntry variants.
type EntryKind string

const (
	EntryCommand       EntryKind = "command"
	EntryFinalResponse EntryKind = "final_response"
)

// LogEntry is the record emitted by the driver for each event of a run.
// The wire shape is either {"command": [...], "output": "..."} or
// {"type": "final_response", "response": "..."}.
type LogEntry struct {
	Kind     EntryKind
	Command  []string
	Output   string
	Response string
}

// NewCommandEntry builds the entry for one executed shell call.
func NewCommandEntry(command []string, output string) LogEntry {
	return LogEntry{Kind: EntryCommand, Command: command, Output: output}
}

// NewFinalResponseEntry builds the terminal entry of a run.
func NewFinalResponseEntry(response string) LogEntry {
	return LogEntry{Kind: EntryFinalResponse, Response: response}
}

type commandEntryJSON struct {
	Command []string `json:"command"`
	Output  string   `json:"output"`
}

type finalEntryJSON struct {
	Type     EntryKind `json:"type"`
	Response string    `json:"response"`
}

func (e LogEntry) shape() (any, error) {
	switch e.Kind {
	case EntryCommand:
		cmd := e.Command
		if cmd == nil {
			cmd = []string{}
		}
		return commandEntryJSON{Command: cmd, Output: e.Output}, nil
	case EntryFinalResponse:
		return finalEntryJSON{Type: EntryFinalResponse, Response: e.Response}, nil
	default:
		return nil, fmt.Errorf("unknown log entry kind %q", e.Kind)
	}
}

// MarshalJSON implements json.Marshaler.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	v, err := e.shape()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// Encode returns the entry as a single JSON line without the trailing
// newline. Unlike json.Marshal it leaves <, > and & unescaped so log files
// keep the command output readable.
func (e LogEntry) Encode() ([]byte, error) {
	v, err := e.shape()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *LogEntry) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type     EntryKind       `json:"type"`
		Response string          `json:"response"`
		Command  json.RawMessage `json:"command"`
		Output   string          `json:"output"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if probe.Type == EntryFinalResponse {
		*e = NewFinalResponseEntry(probe.Response)
		return nil
	}
	if probe.Command == nil {
		return fmt.Errorf("log entry has neither type nor command")
	}

	var cmd []string
	if err := json.Unmarshal(probe.Command, &cmd); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	*e = NewCommandEntry(cmd, probe.Output)
	return nil
}
