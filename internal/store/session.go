package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/speak2fill/speak2fill/internal/form"
)

// ErrNotFound is returned when a session_id does not exist.
var ErrNotFound = errors.New("session not found")

// ErrConflict is returned when Save loses an optimistic revision race.
var ErrConflict = errors.New("session revision conflict")

// timeLayout is the text representation for stored timestamps.
// RFC 3339 with nanoseconds round-trips time.Time values exactly.
const timeLayout = time.RFC3339Nano

// Create persists a new session with a fresh unique id.
//
// The session starts at field 0 in ASK_INPUT with no collected values.
// The field catalog is fixed here and never mutated afterwards.
func (s *Store) Create(ctx context.Context, fields []form.FormField, imageWidth, imageHeight int) (*form.Session, error) {
	sess := &form.Session{
		SessionID:         s.ids.Generate(),
		Fields:            fields,
		CurrentFieldIndex: 0,
		Phase:             form.PhaseAskInput,
		CollectedValues:   map[string]string{},
		ImageWidth:        imageWidth,
		ImageHeight:       imageHeight,
		CreatedAt:         time.Now().UTC(),
		Revision:          1,
	}

	fieldsJSON, err := marshalFields(sess.Fields)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	valuesJSON, err := marshalValues(sess.CollectedValues)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(session_id, created_at, fields_json, current_field_index, phase,
		 collected_json, detected_language, image_width, image_height, revision)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sess.SessionID,
		sess.CreatedAt.Format(timeLayout),
		fieldsJSON,
		sess.CurrentFieldIndex,
		string(sess.Phase),
		valuesJSON,
		sess.DetectedLanguage,
		sess.ImageWidth,
		sess.ImageHeight,
		sess.Revision,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return sess, nil
}

// Load reads the full session value for a session_id.
// Returns ErrNotFound for unknown ids.
func (s *Store) Load(ctx context.Context, sessionID string) (*form.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, created_at, fields_json, current_field_index, phase,
		       collected_json, detected_language, image_width, image_height, revision
		FROM sessions
		WHERE session_id = ?
	`, sessionID)

	var (
		sess       form.Session
		createdAt  string
		fieldsJSON string
		valuesJSON string
		phase      string
	)
	err := row.Scan(
		&sess.SessionID,
		&createdAt,
		&fieldsJSON,
		&sess.CurrentFieldIndex,
		&phase,
		&valuesJSON,
		&sess.DetectedLanguage,
		&sess.ImageWidth,
		&sess.ImageHeight,
		&sess.Revision,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess.Phase = form.Phase(phase)
	sess.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("load session: parse created_at: %w", err)
	}
	sess.Fields, err = unmarshalFields(fieldsJSON)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess.CollectedValues, err = unmarshalValues(valuesJSON)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	return &sess, nil
}

// Save writes the mutable session state back under an optimistic revision
// check. On success the session's Revision is incremented in place.
//
// Returns ErrConflict when the stored revision no longer matches (an
// out-of-band writer got there first) and ErrNotFound for unknown ids.
//
// The field catalog and created_at are intentionally NOT updated: fields are
// immutable after creation.
func (s *Store) Save(ctx context.Context, sess *form.Session) error {
	valuesJSON, err := marshalValues(sess.CollectedValues)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET current_field_index = ?,
		    phase = ?,
		    collected_json = ?,
		    detected_language = ?,
		    revision = revision + 1
		WHERE session_id = ? AND revision = ?
	`,
		sess.CurrentFieldIndex,
		string(sess.Phase),
		valuesJSON,
		sess.DetectedLanguage,
		sess.SessionID,
		sess.Revision,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save session: rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish a lost race from a deleted session.
		var one int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM sessions WHERE session_id = ?`, sess.SessionID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return ErrConflict
	}

	sess.Revision++
	return nil
}

// Delete removes a session and its message log.
// Deleting an unknown id returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage adds one entry to a session's message log.
// The log is append-only and never read by the turn processor.
func (s *Store) AppendMessage(ctx context.Context, sessionID, role, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (session_id, ts, role, text)
		VALUES (?, ?, ?, ?)
	`, sessionID, time.Now().UTC().Format(timeLayout), role, text)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// ReadMessages returns a session's message log in insertion order.
// Returns an empty slice (not nil) when the log is empty.
func (s *Store) ReadMessages(ctx context.Context, sessionID string) ([]form.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, role, text
		FROM messages
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	defer rows.Close()

	messages := []form.Message{}
	for rows.Next() {
		var (
			msg form.Message
			ts  string
		)
		if err := rows.Scan(&ts, &msg.Role, &msg.Text); err != nil {
			return nil, fmt.Errorf("read messages: scan: %w", err)
		}
		msg.Timestamp, err = time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("read messages: parse ts: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read messages: iterate: %w", err)
	}

	return messages, nil
}

// SessionSummary is a lightweight row for listing sessions.
type SessionSummary struct {
	SessionID         string    `json:"session_id"`
	CreatedAt         time.Time `json:"created_at"`
	FieldCount        int       `json:"field_count"`
	CurrentFieldIndex int       `json:"current_field_index"`
	Phase             string    `json:"phase"`
	Complete          bool      `json:"complete"`
}

// List returns summaries for all sessions, newest first.
func (s *Store) List(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, created_at, fields_json, current_field_index, phase
		FROM sessions
		ORDER BY created_at DESC, session_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	summaries := []SessionSummary{}
	for rows.Next() {
		var (
			sum        SessionSummary
			createdAt  string
			fieldsJSON string
		)
		if err := rows.Scan(&sum.SessionID, &createdAt, &fieldsJSON, &sum.CurrentFieldIndex, &sum.Phase); err != nil {
			return nil, fmt.Errorf("list sessions: scan: %w", err)
		}
		sum.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("list sessions: parse created_at: %w", err)
		}
		fields, err := unmarshalFields(fieldsJSON)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sum.FieldCount = len(fields)
		sum.Complete = sum.CurrentFieldIndex >= len(fields)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: iterate: %w", err)
	}

	return summaries, nil
}
