package store

import (
	"context"
	"fmt"
)

// Session is one editing timeline: the manifest it was built from and the
// starting document, selection, and snapshot hash.
type Session struct {
	Token        string
	Manifest     string
	Doc          string
	SelAnchor    int64
	SelHead      int64
	SnapshotHash string
}

// Transition is one logged transaction. Doc, SelAnchor, and SelHead record
// the post-transition values; the flags record what the transaction set, so
// replay can rebuild the exact TransactionSpec.
type Transition struct {
	SessionToken string
	Seq          int64
	DocChanged   bool
	SelectionSet bool
	Doc          string
	SelAnchor    int64
	SelHead      int64
	SnapshotHash string
}

// CreateSession inserts a session record. Uses ON CONFLICT(token) DO
// NOTHING for idempotency - re-creating an existing session is a no-op.
func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(token, manifest, doc, sel_anchor, sel_head, snapshot_hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		sess.Token,
		sess.Manifest,
		sess.Doc,
		sess.SelAnchor,
		sess.SelHead,
		sess.SnapshotHash,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// AppendTransition inserts a transition record. Uses ON CONFLICT DO NOTHING
// on (session_token, seq) for idempotency - a writer that crashed after the
// insert can safely re-append the same transition.
//
// The session referenced by SessionToken must exist (foreign key).
func (s *Store) AppendTransition(ctx context.Context, tr Transition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transitions
		(session_token, seq, doc_changed, selection_set, doc, sel_anchor, sel_head, snapshot_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_token, seq) DO NOTHING
	`,
		tr.SessionToken,
		tr.Seq,
		boolInt(tr.DocChanged),
		boolInt(tr.SelectionSet),
		tr.Doc,
		tr.SelAnchor,
		tr.SelHead,
		tr.SnapshotHash,
	)
	if err != nil {
		return fmt.Errorf("append transition: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
