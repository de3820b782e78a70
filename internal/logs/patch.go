package logs

// Patch is a positional replace patch against the conversation log.
type Patch struct {
	Index int   `json:"index"`
	Entry Entry `json:"entry"`
}

// Replace builds a patch replacing the entry at index.
func Replace(index int, e Entry) Patch {
	return Patch{Index: index, Entry: e}
}
