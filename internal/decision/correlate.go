package decision

import (
	"github.com/arbiterhq/arbiter/internal/logs"
)

// findToolUse scans the conversation log from most recent to oldest and
// returns the first tool-use entry whose metadata call id matches and which
// is still in the created state. Scanning newest-first with the created
// filter means a reused call id correlates to the most recent unclaimed
// invocation, and a given entry is claimed by at most one decision.
func findToolUse(store *logs.Store, toolCallID string) (int, logs.Entry, bool) {
	if toolCallID == "" {
		return -1, logs.Entry{}, false
	}

	foundIndex := -1
	var found logs.Entry
	store.ScanNewestFirst(func(i int, e logs.Entry) bool {
		if e.Type != logs.EntryToolUse {
			return true
		}
		if e.Status == nil || e.Status.State != logs.ToolCreated {
			return true
		}
		if e.ToolCallID() != toolCallID {
			return true
		}
		foundIndex = i
		found = e
		return false
	})

	return foundIndex, found, foundIndex >= 0
}
