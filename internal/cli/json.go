package cli

import (
	"time"

	"github.com/lu-zhengda/msgthread/internal/domain"
	"github.com/lu-zhengda/msgthread/internal/store"
)

// ---------------------------------------------------------------------------
// Participant JSON types (participant list)
// ---------------------------------------------------------------------------

type jsonParticipant struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func toJSONParticipant(p domain.Participant) jsonParticipant {
	jp := jsonParticipant{ID: string(p.ID), Name: p.Name, Email: p.Email}
	if !p.CreatedAt.IsZero() {
		jp.CreatedAt = p.CreatedAt.Format(time.DateOnly)
	}
	return jp
}

func toJSONParticipants(participants []domain.Participant) []jsonParticipant {
	out := make([]jsonParticipant, 0, len(participants))
	for _, p := range participants {
		out = append(out, toJSONParticipant(p))
	}
	return out
}

// ---------------------------------------------------------------------------
// Thread summary JSON types (list, search)
// ---------------------------------------------------------------------------

type jsonThreadSummary struct {
	ID           string `json:"id"`
	Subject      string `json:"subject"`
	LastActivity string `json:"last_activity,omitempty"`
	MessageCount int    `json:"message_count"`
	HasUnread    bool   `json:"has_unread"`
	IsDeleted    bool   `json:"is_deleted,omitempty"`
}

func toJSONThreadSummaries(summaries []store.ThreadSummary) []jsonThreadSummary {
	out := make([]jsonThreadSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, jsonThreadSummary{
			ID:           s.ID,
			Subject:      s.Subject,
			LastActivity: unixString(s.LastActivity),
			MessageCount: s.MessageCount,
			HasUnread:    s.HasUnread,
			IsDeleted:    s.IsDeleted,
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Thread detail JSON types (read)
// ---------------------------------------------------------------------------

type jsonThreadDetail struct {
	ID           string        `json:"id"`
	Subject      string        `json:"subject"`
	Version      int64         `json:"version"`
	Keywords     string        `json:"keywords"`
	Participants []jsonMember  `json:"participants"`
	Messages     []jsonMessage `json:"messages"`
}

type jsonMember struct {
	jsonParticipant
	IsDeleted          bool   `json:"is_deleted"`
	LastWritten        string `json:"last_written,omitempty"`
	LastWrittenByOther string `json:"last_written_by_other,omitempty"`
}

type jsonMessage struct {
	ID     string          `json:"id"`
	From   jsonParticipant `json:"from"`
	Date   string          `json:"date"`
	Body   string          `json:"body"`
	ReadBy map[string]bool `json:"read_by"`
}

func unixString(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func toJSONThreadDetail(t *domain.Thread) jsonThreadDetail {
	detail := jsonThreadDetail{
		ID:           t.ID,
		Subject:      t.Subject,
		Version:      t.Version,
		Keywords:     t.Keywords(),
		Participants: make([]jsonMember, 0),
		Messages:     make([]jsonMessage, 0, t.MessageCount()),
	}
	for _, p := range t.Participants() {
		detail.Participants = append(detail.Participants, jsonMember{
			jsonParticipant:    toJSONParticipant(p),
			IsDeleted:          t.IsDeletedByParticipant(p),
			LastWritten:        unixString(t.DateOfLastMessageWrittenByParticipant(p)),
			LastWrittenByOther: unixString(t.DateOfLastMessageWrittenByOtherParticipant(p)),
		})
	}
	for _, m := range t.Messages() {
		readBy := make(map[string]bool)
		for pid, read := range m.ReadFlags() {
			readBy[string(pid)] = read
		}
		detail.Messages = append(detail.Messages, jsonMessage{
			ID:     m.ID,
			From:   toJSONParticipant(m.Sender),
			Date:   m.CreatedAt.UTC().Format(time.RFC3339),
			Body:   m.Body,
			ReadBy: readBy,
		})
	}
	return detail
}

// ---------------------------------------------------------------------------
// Action result JSON type (start, reply, invite, delete, mark-read, ...)
// ---------------------------------------------------------------------------

type jsonAction struct {
	OK            bool   `json:"ok"`
	Action        string `json:"action"`
	ThreadID      string `json:"thread_id,omitempty"`
	ParticipantID string `json:"participant_id,omitempty"`
	Version       int64  `json:"version,omitempty"`
}
