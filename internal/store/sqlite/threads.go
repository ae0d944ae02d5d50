package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lu-zhengda/msgthread/internal/domain"
	"github.com/lu-zhengda/msgthread/internal/store"
)

// SaveThread writes the thread and its derived per-participant state in one
// transaction. It fails with store.ErrConflict if the stored version is not
// the one t was loaded at. On success t.Version is advanced.
func (s *DB) SaveThread(ctx context.Context, t *domain.Thread) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx, `SELECT version FROM threads WHERE id = ?`, t.ID).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if t.Version != 0 {
			return fmt.Errorf("thread %s no longer exists: %w", t.ID, store.ErrConflict)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO threads (id, subject, keywords, created_at, version) VALUES (?, ?, ?, ?, 1)`,
			t.ID, t.Subject, t.Keywords(), t.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("failed to insert thread: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read thread version: %w", err)
	case current != t.Version:
		return fmt.Errorf("thread %s is at version %d, loaded at %d: %w", t.ID, current, t.Version, store.ErrConflict)
	default:
		res, err := tx.ExecContext(ctx,
			`UPDATE threads SET subject = ?, keywords = ?, version = version + 1 WHERE id = ? AND version = ?`,
			t.Subject, t.Keywords(), t.ID, t.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update thread: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to check thread update: %w", err)
		} else if n == 0 {
			return fmt.Errorf("thread %s changed during save: %w", t.ID, store.ErrConflict)
		}
	}

	for i, p := range t.Participants() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO participants (id, name, email) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
			string(p.ID), p.Name, p.Email,
		); err != nil {
			return fmt.Errorf("failed to ensure participant %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO thread_participants (thread_id, participant_id, position, is_deleted,
				last_written, last_written_by_other)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(thread_id, participant_id) DO UPDATE SET
				position              = excluded.position,
				is_deleted            = excluded.is_deleted,
				last_written          = excluded.last_written,
				last_written_by_other = excluded.last_written_by_other`,
			t.ID, string(p.ID), i, t.IsDeletedByParticipant(p),
			t.DateOfLastMessageWrittenByParticipant(p),
			t.DateOfLastMessageWrittenByOtherParticipant(p),
		); err != nil {
			return fmt.Errorf("failed to upsert thread participant %s: %w", p.ID, err)
		}
	}

	// Messages are immutable once stored; only their read flags move.
	for i, m := range t.Messages() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, thread_id, position, sender_id, body, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			m.ID, t.ID, i, string(m.Sender.ID), m.Body, m.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("failed to insert message %s: %w", m.ID, err)
		}
		for pid, read := range m.ReadFlags() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO message_reads (message_id, participant_id, is_read) VALUES (?, ?, ?)
				ON CONFLICT(message_id, participant_id) DO UPDATE SET is_read = excluded.is_read`,
				m.ID, string(pid), read,
			); err != nil {
				return fmt.Errorf("failed to upsert read flag for message %s: %w", m.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit thread save: %w", err)
	}
	t.Version++
	return nil
}

// GetThread loads a thread with all its messages in append order.
func (s *DB) GetThread(ctx context.Context, id string) (*domain.Thread, error) {
	rec := domain.ThreadRecord{ID: id, IsDeleted: make(map[domain.ParticipantID]bool)}

	var createdStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT subject, created_at, version FROM threads WHERE id = ?`, id,
	).Scan(&rec.Subject, &createdStr, &rec.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("thread %s %w: %w", id, store.ErrNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query thread %s: %w", id, err)
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse thread date: %w", err)
	}

	if err := s.loadThreadParticipants(ctx, &rec); err != nil {
		return nil, err
	}
	if err := s.loadThreadMessages(ctx, &rec); err != nil {
		return nil, err
	}
	if err := s.loadReadFlags(ctx, &rec); err != nil {
		return nil, err
	}

	return domain.RestoreThread(rec), nil
}

func (s *DB) loadThreadParticipants(ctx context.Context, rec *domain.ThreadRecord) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.email, p.created_at, tp.is_deleted
		FROM thread_participants tp
		JOIN participants p ON p.id = tp.participant_id
		WHERE tp.thread_id = ?
		ORDER BY tp.position`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to query thread participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Participant
		var deleted bool
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &deleted); err != nil {
			return fmt.Errorf("failed to scan thread participant: %w", err)
		}
		rec.Participants = append(rec.Participants, p)
		rec.IsDeleted[p.ID] = deleted
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate thread participants: %w", err)
	}
	return nil
}

func (s *DB) loadThreadMessages(ctx context.Context, rec *domain.ThreadRecord) error {
	byID := make(map[domain.ParticipantID]domain.Participant, len(rec.Participants))
	for _, p := range rec.Participants {
		byID[p.ID] = p
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, body, created_at
		FROM messages
		WHERE thread_id = ?
		ORDER BY position`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to query thread messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, body, dateStr string
		var senderID domain.ParticipantID
		if err := rows.Scan(&id, &senderID, &body, &dateStr); err != nil {
			return fmt.Errorf("failed to scan thread message: %w", err)
		}
		date, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return fmt.Errorf("failed to parse message date: %w", err)
		}
		sender, ok := byID[senderID]
		if !ok {
			sender = domain.Participant{ID: senderID}
		}
		rec.Messages = append(rec.Messages, domain.NewMessage(id, sender, body, date))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate thread messages: %w", err)
	}
	return nil
}

func (s *DB) loadReadFlags(ctx context.Context, rec *domain.ThreadRecord) error {
	byID := make(map[string]*domain.Message, len(rec.Messages))
	for _, m := range rec.Messages {
		byID[m.ID] = m
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.message_id, r.participant_id, r.is_read
		FROM message_reads r
		JOIN messages m ON m.id = r.message_id
		WHERE m.thread_id = ?`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to query read flags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID string
		var pid domain.ParticipantID
		var read bool
		if err := rows.Scan(&messageID, &pid, &read); err != nil {
			return fmt.Errorf("failed to scan read flag: %w", err)
		}
		if m, ok := byID[messageID]; ok {
			m.SetIsReadByParticipant(domain.Participant{ID: pid}, read)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate read flags: %w", err)
	}
	return nil
}

const summarySelect = `
	SELECT t.id, t.subject, %s AS activity, tp.is_deleted,
		(SELECT COUNT(*) FROM messages m WHERE m.thread_id = t.id) AS msg_count,
		EXISTS (
			SELECT 1 FROM message_reads r
			JOIN messages m ON m.id = r.message_id
			WHERE m.thread_id = t.id AND r.participant_id = tp.participant_id AND r.is_read = 0
		) AS has_unread
	FROM threads t
	JOIN thread_participants tp ON tp.thread_id = t.id
	WHERE tp.participant_id = ?`

const anyActivity = `MAX(tp.last_written, tp.last_written_by_other)`

// ListThreads returns one participant's threads in the requested box, newest
// activity first.
func (s *DB) ListThreads(ctx context.Context, opts store.ListThreadOptions) ([]store.ThreadSummary, error) {
	var activity, filter string
	switch opts.Box {
	case store.BoxInbox, "":
		activity = "tp.last_written_by_other"
		filter = " AND tp.is_deleted = 0 AND tp.last_written_by_other > 0"
	case store.BoxSent:
		activity = "tp.last_written"
		filter = " AND tp.is_deleted = 0 AND tp.last_written > 0"
	case store.BoxDeleted:
		activity = anyActivity
		filter = " AND tp.is_deleted = 1"
	default:
		return nil, fmt.Errorf("unknown box %q", opts.Box)
	}

	query := fmt.Sprintf(summarySelect, activity) + filter + " ORDER BY activity DESC, t.id"
	args := []any{string(opts.ParticipantID)}

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	summaries, err := s.querySummaries(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return summaries, nil
}

func (s *DB) querySummaries(ctx context.Context, query string, args ...any) ([]store.ThreadSummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []store.ThreadSummary
	for rows.Next() {
		var ts store.ThreadSummary
		if err := rows.Scan(&ts.ID, &ts.Subject, &ts.LastActivity, &ts.IsDeleted, &ts.MessageCount, &ts.HasUnread); err != nil {
			return nil, fmt.Errorf("failed to scan thread row: %w", err)
		}
		summaries = append(summaries, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate threads: %w", err)
	}
	return summaries, nil
}
