// Package harness provides a conformance testing framework for the session
// turn processor.
//
// A scenario is a YAML file describing a form catalog, a sequence of turn
// events, and assertions on the final session state. The harness runs each
// scenario against a real Service backed by a fresh in-memory SQLite store,
// records the full event/reply trace, and compares it against a golden
// transcript.
//
// Determinism comes from two places: the fixed session id generator (no
// UUIDs in traces) and the processor itself, which is a pure function of
// session state and event. The external extractor and localizer are left
// unset, so replies use the built-in templates only.
//
// Golden files live in testdata/golden/{scenario.Name}.golden; regenerate
// them with:
//
//	go test ./internal/harness -update
package harness
