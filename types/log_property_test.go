package types

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// 任意文本编码后仍是单行，且解码回原条目
func TestProperty_LogEntryEncodeIsOneLine(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var entry LogEntry
		if rapid.Bool().Draw(rt, "final") {
			entry = NewFinalResponseEntry(rapid.String().Draw(rt, "response"))
		} else {
			command := rapid.SliceOfN(rapid.String(), 1, 5).Draw(rt, "command")
			entry = NewCommandEntry(command, rapid.String().Draw(rt, "output"))
		}

		line, err := entry.Encode()
		require.NoError(rt, err)
		require.False(rt, bytes.ContainsRune(line, '\n'))

		var decoded LogEntry
		require.NoError(rt, json.Unmarshal(line, &decoded))
		require.Equal(rt, entry, decoded)
	})
}
