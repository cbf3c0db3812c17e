// Package form provides the canonical domain types for form-filling sessions.
//
// This package contains type definitions and validation only. All other
// internal packages import form; form imports nothing internal. This keeps
// the domain model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Fields are immutable once a session is created (insertion order = fill order)
//   - current_field_index is always in [0, len(fields)]; len(fields) means complete
//   - collected_values entries are written once and never overwritten
//   - detected_language is set at most once (first-writer-wins)
//   - All JSON tags use snake_case
package form
