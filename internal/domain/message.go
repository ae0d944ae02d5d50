package domain

import "time"

// Message is an immutable entry in a thread. Only its per-participant read
// flags change after creation.
type Message struct {
	ID        string
	ThreadID  string
	Sender    Participant
	Body      string
	CreatedAt time.Time

	readBy map[ParticipantID]bool
}

func NewMessage(id string, sender Participant, body string, createdAt time.Time) *Message {
	return &Message{
		ID:        id,
		Sender:    sender,
		Body:      body,
		CreatedAt: createdAt,
		readBy:    make(map[ParticipantID]bool),
	}
}

// Timestamp returns the creation time in Unix seconds.
func (m *Message) Timestamp() int64 {
	return m.CreatedAt.Unix()
}

func (m *Message) SetIsReadByParticipant(p Participant, read bool) {
	if m.readBy == nil {
		m.readBy = make(map[ParticipantID]bool)
	}
	m.readBy[p.ID] = read
}

// EnsureIsReadByParticipant records an unread flag for every participant that
// has no flag yet. Existing flags are left alone.
func (m *Message) EnsureIsReadByParticipant(participants []Participant) {
	if m.readBy == nil {
		m.readBy = make(map[ParticipantID]bool)
	}
	for _, p := range participants {
		if _, ok := m.readBy[p.ID]; !ok {
			m.readBy[p.ID] = false
		}
	}
}

// IsReadByParticipant reports the stored flag. A missing flag reads as unread.
func (m *Message) IsReadByParticipant(p Participant) bool {
	return m.readBy[p.ID]
}

func (m *Message) HasReadFlag(id ParticipantID) bool {
	_, ok := m.readBy[id]
	return ok
}

// ReadFlags returns a copy of the per-participant read flags.
func (m *Message) ReadFlags() map[ParticipantID]bool {
	out := make(map[ParticipantID]bool, len(m.readBy))
	for id, read := range m.readBy {
		out[id] = read
	}
	return out
}
