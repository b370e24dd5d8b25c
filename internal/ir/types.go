package ir

// Entry is a single diary entry.
type Entry struct {
	ID        uint64 `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp uint64 `json:"timestamp"` // microseconds, creation or last update
}

// Status is the diary header served by the query surface.
//
// EntryCount is the number of live entries and drops on delete.
// NextID is the entry counter and never drops.
type Status struct {
	Initialized bool   `json:"isInitialized"`
	Owner       string `json:"owner"`
	EntryCount  uint64 `json:"entryCount"`
	NextID      uint64 `json:"nextId"`
}

// Meta holds the three scalar fields of the persisted state.
type Meta struct {
	SecretDigest string `json:"secretDigest"`
	Owner        string `json:"owner"`
	EntryCounter uint64 `json:"entryCounter"`
}

// ChangeKind identifies one kind of state delta.
type ChangeKind string

const (
	// ChangeMeta replaces the meta row (secret digest, owner, counter).
	ChangeMeta ChangeKind = "meta"
	// ChangePut inserts or replaces an entry.
	ChangePut ChangeKind = "put"
	// ChangeRemove deletes an entry by id.
	ChangeRemove ChangeKind = "remove"
)

// Change is one state delta produced while executing a command.
// A command's changes are persisted in a single transaction.
type Change struct {
	Kind  ChangeKind `json:"kind"`
	Meta  *Meta      `json:"meta,omitempty"`
	Entry *Entry     `json:"entry,omitempty"`
	ID    uint64     `json:"id,omitempty"`
}

// Outcome is the result of one successfully executed command.
// EntryID is set for AddEntry only.
type Outcome struct {
	EntryID uint64 `json:"entryId,omitempty"`
}
