// Package turn implements the session-driven turn processor: the
// deterministic state machine that owns field sequencing, value collection,
// confirmation detection and session advancement.
//
// ARCHITECTURE:
//
// Per-Session Single Writer:
// Service.HandleTurn serializes turns per session_id with a keyed mutex held
// across load -> decide -> persist. Transitions for one session are applied
// in request-arrival order and never interleave; different sessions proceed
// fully in parallel.
//
// Turn Processing Flow:
//  1. Lock the session_id, load the session
//  2. Resolve the sticky language (first detection wins)
//  3. Reinterpret confirmation keywords, then dispatch on phase
//  4. Persist the mutated clone (optimistic revision check)
//  5. Compose the spoken instruction plus the optional draw-guide action
//
// Failure policy:
// The processor decides against a clone of the loaded session, so a failed
// save leaves the stored state exactly as loaded. External extraction and
// localization are best-effort: on failure the turn completes with the
// literal/untranslated text. Only unknown sessions and missing user text
// surface as errors; everything else degrades to a corrective prompt.
package turn
