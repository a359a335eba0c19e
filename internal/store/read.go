package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned by GetSession for unknown tokens.
var ErrSessionNotFound = errors.New("session not found")

// GetSession returns the session record for a token.
func (s *Store) GetSession(ctx context.Context, token string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT token, manifest, doc, sel_anchor, sel_head, snapshot_hash
		FROM sessions
		WHERE token = ?
	`, token).Scan(
		&sess.Token,
		&sess.Manifest,
		&sess.Doc,
		&sess.SelAnchor,
		&sess.SelHead,
		&sess.SnapshotHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, token)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// ListTransitions returns a session's transitions ordered by seq ASC.
// Returns an empty slice (not nil) when the log is empty.
func (s *Store) ListTransitions(ctx context.Context, token string) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_token, seq, doc_changed, selection_set, doc, sel_anchor, sel_head, snapshot_hash
		FROM transitions
		WHERE session_token = ?
		ORDER BY seq ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	transitions := []Transition{}
	for rows.Next() {
		var tr Transition
		var docChanged, selectionSet int
		if err := rows.Scan(
			&tr.SessionToken,
			&tr.Seq,
			&docChanged,
			&selectionSet,
			&tr.Doc,
			&tr.SelAnchor,
			&tr.SelHead,
			&tr.SnapshotHash,
		); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		tr.DocChanged = docChanged != 0
		tr.SelectionSet = selectionSet != 0
		transitions = append(transitions, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return transitions, nil
}

// LastSeq returns the highest logged seq for a session, or 0 when the log
// is empty.
func (s *Store) LastSeq(ctx context.Context, token string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM transitions WHERE session_token = ?
	`, token).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}
