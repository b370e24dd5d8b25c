package ir

// CommandKind names one of the four state-changing commands.
type CommandKind string

const (
	KindInitialize  CommandKind = "initialize"
	KindAddEntry    CommandKind = "add_entry"
	KindUpdateEntry CommandKind = "update_entry"
	KindDeleteEntry CommandKind = "delete_entry"
)

// Initialize sets the secret digest and owner of an empty diary.
type Initialize struct {
	SecretDigest string `json:"secretDigest"`
}

// AddEntry creates an entry with the next id.
type AddEntry struct {
	Secret  string `json:"secret"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateEntry replaces the supplied fields of an entry.
// Nil fields keep their previous value.
type UpdateEntry struct {
	Secret  string  `json:"secret"`
	ID      uint64  `json:"id"`
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// DeleteEntry removes an entry.
type DeleteEntry struct {
	Secret string `json:"secret"`
	ID     uint64 `json:"id"`
}

// Command is a tagged union of the four commands. Exactly one payload,
// the one matching Kind, is set.
type Command struct {
	Kind        CommandKind  `json:"kind"`
	Initialize  *Initialize  `json:"initialize,omitempty"`
	AddEntry    *AddEntry    `json:"addEntry,omitempty"`
	UpdateEntry *UpdateEntry `json:"updateEntry,omitempty"`
	DeleteEntry *DeleteEntry `json:"deleteEntry,omitempty"`
}

// NewInitialize builds an Initialize command.
func NewInitialize(secretDigest string) Command {
	return Command{Kind: KindInitialize, Initialize: &Initialize{SecretDigest: secretDigest}}
}

// NewAddEntry builds an AddEntry command.
func NewAddEntry(secret, title, content string) Command {
	return Command{Kind: KindAddEntry, AddEntry: &AddEntry{Secret: secret, Title: title, Content: content}}
}

// NewUpdateEntry builds an UpdateEntry command.
func NewUpdateEntry(secret string, id uint64, title, content *string) Command {
	return Command{Kind: KindUpdateEntry, UpdateEntry: &UpdateEntry{Secret: secret, ID: id, Title: title, Content: content}}
}

// NewDeleteEntry builds a DeleteEntry command.
func NewDeleteEntry(secret string, id uint64) Command {
	return Command{Kind: KindDeleteEntry, DeleteEntry: &DeleteEntry{Secret: secret, ID: id}}
}

// Validate checks that the payload matches the kind.
func (c Command) Validate() error {
	set := 0
	for _, present := range []bool{c.Initialize != nil, c.AddEntry != nil, c.UpdateEntry != nil, c.DeleteEntry != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return NewError(CodeInvalidArgument, "command %q must carry exactly one payload, got %d", c.Kind, set)
	}

	var ok bool
	switch c.Kind {
	case KindInitialize:
		ok = c.Initialize != nil
	case KindAddEntry:
		ok = c.AddEntry != nil
	case KindUpdateEntry:
		ok = c.UpdateEntry != nil
	case KindDeleteEntry:
		ok = c.DeleteEntry != nil
	default:
		return NewError(CodeInvalidArgument, "unknown command kind %q", c.Kind)
	}
	if !ok {
		return NewError(CodeInvalidArgument, "command %q carries the wrong payload", c.Kind)
	}
	return nil
}

// Scrubbed returns a copy with the plaintext secret cleared.
// The log keeps only scrubbed payloads once a command is final.
func (c Command) Scrubbed() Command {
	out := Command{Kind: c.Kind}
	if c.Initialize != nil {
		p := *c.Initialize
		out.Initialize = &p
	}
	if c.AddEntry != nil {
		p := *c.AddEntry
		p.Secret = ""
		out.AddEntry = &p
	}
	if c.UpdateEntry != nil {
		p := *c.UpdateEntry
		p.Secret = ""
		out.UpdateEntry = &p
	}
	if c.DeleteEntry != nil {
		p := *c.DeleteEntry
		p.Secret = ""
		out.DeleteEntry = &p
	}
	return out
}

// CommandStatus is the lifecycle state of a logged command.
type CommandStatus string

const (
	// StatusPending marks a scheduled command not yet executed.
	StatusPending CommandStatus = "pending"
	// StatusApplied marks a command whose changes were committed.
	StatusApplied CommandStatus = "applied"
	// StatusRejected marks a command that failed a business rule.
	StatusRejected CommandStatus = "rejected"
)

// CommandRecord is one row of the append-only command log.
//
// Seq orders execution. DeliveredAt is the engine clock reading used as
// "now" while executing; it is zero while the command is pending.
type CommandRecord struct {
	Seq          int64         `json:"seq"`
	ID           string        `json:"id"`
	Caller       string        `json:"caller"`
	Command      Command       `json:"command"`
	SubmittedAt  uint64        `json:"submittedAt"`
	DeliveredAt  uint64        `json:"deliveredAt,omitempty"`
	Status       CommandStatus `json:"status"`
	ErrorCode    Code          `json:"errorCode,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	Changes      []Change      `json:"changes,omitempty"`
}
