package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/diary/internal/frontend"
	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/queryir"
)

// DefaultStart is the wall clock reading, in microseconds, of a scenario
// that does not set start.
const DefaultStart uint64 = 1_000_000

// Request names accepted in flow steps.
const (
	RequestInitialize  = "initialize"
	RequestAddEntry    = "add_entry"
	RequestUpdateEntry = "update_entry"
	RequestDeleteEntry = "delete_entry"
	RequestAddEntries  = "add_entries"
)

// Scenario describes one end-to-end diary run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the initial wall clock reading in microseconds.
	Start uint64 `yaml:"start,omitempty"`

	// Caller is the default identity for steps that do not name one.
	Caller string `yaml:"caller,omitempty"`

	// Flow contains the requests, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final state and command log.
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep is one request to the front end.
type FlowStep struct {
	// Request is one of the Request* constants.
	Request string `yaml:"request"`

	// Caller overrides the scenario caller.
	Caller string `yaml:"caller,omitempty"`

	// Secret is the secret phrase sent with the request.
	Secret string `yaml:"secret"`

	// ID targets update_entry and delete_entry.
	ID uint64 `yaml:"id,omitempty"`

	Title   *string               `yaml:"title,omitempty"`
	Content *string               `yaml:"content,omitempty"`
	Entries []frontend.BatchEntry `yaml:"entries,omitempty"`

	// Advance moves the wall clock forward, in microseconds, before the
	// request is made.
	Advance uint64 `yaml:"advance,omitempty"`

	// Hold leaves the scheduled commands pending until a later step.
	Hold bool `yaml:"hold,omitempty"`

	// Expect is checked once the step's commands have been applied.
	// If nil, nothing is checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies how a step should end.
type ExpectClause struct {
	// ShapeError is the message of a request refused by the front end.
	// Nothing is scheduled in that case.
	ShapeError string `yaml:"shape_error,omitempty"`

	// Status is the final status of every command the step scheduled.
	Status ir.CommandStatus `yaml:"status,omitempty"`

	// Code is the rejection code of every command the step scheduled.
	Code ir.Code `yaml:"code,omitempty"`
}

// ViewSpec selects a query view. At most one selector may be set; none
// selects every entry.
type ViewSpec struct {
	Latest  *int    `yaml:"latest,omitempty"`
	Start   *uint64 `yaml:"start,omitempty"`
	End     *uint64 `yaml:"end,omitempty"`
	Title   *string `yaml:"title,omitempty"`
	Content *string `yaml:"content,omitempty"`
}

// Assertion validates final state or the command log.
type Assertion struct {
	// Type specifies the assertion type:
	// - "status": compare the diary header (subset match)
	// - "entry": compare one entry, or check it is absent
	// - "view": evaluate a view and compare the returned ids in order
	// - "log_count": count log records by kind and/or status
	// - "log_order": check kinds appear in the log in this order
	Type string `yaml:"type"`

	// status
	Initialized *bool   `yaml:"initialized,omitempty"`
	Owner       *string `yaml:"owner,omitempty"`
	EntryCount  *uint64 `yaml:"entry_count,omitempty"`
	NextID      *uint64 `yaml:"next_id,omitempty"`

	// entry
	ID        *uint64 `yaml:"id,omitempty"`
	Absent    bool    `yaml:"absent,omitempty"`
	Title     *string `yaml:"title,omitempty"`
	Content   *string `yaml:"content,omitempty"`
	Timestamp *uint64 `yaml:"timestamp,omitempty"`

	// view
	View *ViewSpec `yaml:"view,omitempty"`
	IDs  []uint64  `yaml:"ids,omitempty"`

	// log_count, log_order
	Kind   ir.CommandKind   `yaml:"kind,omitempty"`
	Status ir.CommandStatus `yaml:"status,omitempty"`
	Count  int              `yaml:"count,omitempty"`
	Kinds  []ir.CommandKind `yaml:"kinds,omitempty"`
}

// Assertion type constants.
const (
	AssertStatus   = "status"
	AssertEntry    = "entry"
	AssertView     = "view"
	AssertLogCount = "log_count"
	AssertLogOrder = "log_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.Start == 0 {
		scenario.Start = DefaultStart
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		switch step.Request {
		case RequestInitialize, RequestAddEntry, RequestUpdateEntry, RequestDeleteEntry, RequestAddEntries:
		case "":
			return fmt.Errorf("flow[%d]: request is required", i)
		default:
			return fmt.Errorf("flow[%d]: unknown request %q", i, step.Request)
		}
		if step.Caller == "" && s.Caller == "" {
			return fmt.Errorf("flow[%d]: caller is required when the scenario has no default caller", i)
		}
		if step.Expect != nil && step.Expect.ShapeError != "" &&
			(step.Expect.Status != "" || step.Expect.Code != "") {
			return fmt.Errorf("flow[%d].expect: shape_error excludes status and code", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertStatus:
		if a.Initialized == nil && a.Owner == nil && a.EntryCount == nil && a.NextID == nil {
			return fmt.Errorf("assertions[%d]: status needs at least one expected field", index)
		}
	case AssertEntry:
		if a.ID == nil {
			return fmt.Errorf("assertions[%d]: id is required for entry", index)
		}
		if a.Absent && (a.Title != nil || a.Content != nil || a.Timestamp != nil) {
			return fmt.Errorf("assertions[%d]: absent excludes expected fields", index)
		}
	case AssertView:
		if _, err := a.View.toView(); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.IDs == nil {
			return fmt.Errorf("assertions[%d]: ids is required for view (use [] for none)", index)
		}
	case AssertLogCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for log_count", index)
		}
	case AssertLogOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for log_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// toView converts the YAML view into a query view. A nil ViewSpec selects
// all entries.
func (v *ViewSpec) toView() (queryir.View, error) {
	if v == nil {
		return queryir.All{}, nil
	}

	var views []queryir.View
	if v.Latest != nil {
		views = append(views, queryir.Latest{Limit: *v.Latest})
	}
	if v.Start != nil || v.End != nil {
		if v.Start == nil || v.End == nil {
			return nil, fmt.Errorf("view: start and end must be given together")
		}
		views = append(views, queryir.Range{Start: *v.Start, End: *v.End})
	}
	if v.Title != nil {
		views = append(views, queryir.TitleSearch{Query: *v.Title})
	}
	if v.Content != nil {
		views = append(views, queryir.ContentSearch{Query: *v.Content})
	}

	switch len(views) {
	case 0:
		return queryir.All{}, nil
	case 1:
		return views[0], nil
	default:
		return nil, fmt.Errorf("view: choose one of latest, start/end, title or content")
	}
}
