// Package harness runs diary scenarios end to end.
//
// A scenario is a YAML file that drives requests through the front end,
// lets the engine apply them against a fresh in-memory store, and then
// asserts on the committed state and the command log.
//
// # Scenario Format
//
//	name: owner_lifecycle
//	description: "What this scenario validates"
//	start: 1000000          # wall clock in microseconds
//	caller: alice           # default caller for every step
//	flow:
//	  - request: initialize
//	    secret: "correct horse battery"
//	  - request: add_entry
//	    advance: 1000       # move the wall clock before the request
//	    secret: "correct horse battery"
//	    title: Morning
//	    content: Coffee on the porch
//	    expect:
//	      status: applied
//	  - request: add_entry
//	    caller: mallory
//	    secret: "correct horse battery"
//	    title: Intrusion
//	    content: nope
//	    expect:
//	      status: rejected
//	      code: NOT_OWNER
//	assertions:
//	  - type: status
//	    owner: alice
//	    entry_count: 1
//	  - type: entry
//	    id: 0
//	    title: Morning
//	  - type: view
//	    view: { latest: 5 }
//	    ids: [0]
//	  - type: log_count
//	    kind: add_entry
//	    status: rejected
//	    count: 1
//
// Steps are applied as soon as they are scheduled unless they set
// hold: true, in which case they wait for the next step that does not.
// Anything still pending after the flow is applied before assertions run.
//
// # Deterministic Testing
//
// Scenarios run with a manually advanced wall clock
// (testutil.DeterministicClock), sequential command ids
// (testutil.SequentialIDGenerator) and an in-memory SQLite database, so
// the command log of a scenario is byte-identical across runs and can be
// compared against a golden file.
//
// After the flow, the store replays its command log; a replay that
// disagrees with the persisted tables fails the scenario.
package harness
