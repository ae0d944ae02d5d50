package domain

import (
	"time"
	"unicode/utf8"
)

// Thread is a conversation: an append-only message log plus the per-participant
// state derived from it. Derived state is rebuilt by Denormalize after every
// AddMessage, so callers never maintain it by hand.
//
// A Thread is not safe for concurrent mutation. Serializing writers is the job
// of the storage layer (see Version).
type Thread struct {
	ID        string
	Subject   string
	CreatedAt time.Time

	// Version is the persisted revision this aggregate was loaded at. The
	// domain never changes it.
	Version int64

	messages     []*Message
	participants []Participant
	members      map[ParticipantID]int

	isDeleted          map[ParticipantID]bool
	lastWrittenBy      map[ParticipantID]int64
	lastWrittenByOther map[ParticipantID]int64
	keywords           string
}

func NewThread(id, subject string, createdAt time.Time) *Thread {
	return &Thread{
		ID:                 id,
		Subject:            subject,
		CreatedAt:          createdAt,
		members:            make(map[ParticipantID]int),
		isDeleted:          make(map[ParticipantID]bool),
		lastWrittenBy:      make(map[ParticipantID]int64),
		lastWrittenByOther: make(map[ParticipantID]int64),
	}
}

// ThreadRecord is the persisted shape of a thread. Only raw state is carried;
// timestamps and keywords are recomputed on restore.
type ThreadRecord struct {
	ID           string
	Subject      string
	CreatedAt    time.Time
	Version      int64
	Participants []Participant
	Messages     []*Message
	IsDeleted    map[ParticipantID]bool
}

// RestoreThread rebuilds a thread from storage and denormalizes it.
func RestoreThread(rec ThreadRecord) *Thread {
	t := NewThread(rec.ID, rec.Subject, rec.CreatedAt)
	t.Version = rec.Version
	for _, p := range rec.Participants {
		t.AddParticipant(p)
	}
	for id, deleted := range rec.IsDeleted {
		t.isDeleted[id] = deleted
	}
	for _, m := range rec.Messages {
		m.ThreadID = t.ID
		t.messages = append(t.messages, m)
	}
	t.Denormalize()
	return t
}

// AddMessage appends m and runs the denormalization pipeline. m must be
// non-nil and carry a sender.
func (t *Thread) AddMessage(m *Message) {
	if m == nil {
		panic("domain: AddMessage called with nil message")
	}
	m.ThreadID = t.ID
	t.messages = append(t.messages, m)
	t.Denormalize()
}

// AddParticipant adds p unless a participant with the same ID is present.
func (t *Thread) AddParticipant(p Participant) {
	if t.members == nil {
		t.members = make(map[ParticipantID]int)
	}
	if _, ok := t.members[p.ID]; ok {
		return
	}
	t.members[p.ID] = len(t.participants)
	t.participants = append(t.participants, p)
}

func (t *Thread) IsParticipant(p Participant) bool {
	_, ok := t.members[p.ID]
	return ok
}

func (t *Thread) SetIsDeletedByParticipant(p Participant, deleted bool) {
	if t.isDeleted == nil {
		t.isDeleted = make(map[ParticipantID]bool)
	}
	t.isDeleted[p.ID] = deleted
}

// IsDeletedByParticipant returns false for participants the thread has no
// flag for.
func (t *Thread) IsDeletedByParticipant(p Participant) bool {
	return t.isDeleted[p.ID]
}

// Messages returns the log in append order. The slice is a copy.
func (t *Thread) Messages() []*Message {
	out := make([]*Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Participants returns members in the order they joined. The slice is a copy.
func (t *Thread) Participants() []Participant {
	out := make([]Participant, len(t.participants))
	copy(out, t.participants)
	return out
}

// OtherParticipants returns every member except p.
func (t *Thread) OtherParticipants(p Participant) []Participant {
	var out []Participant
	for _, q := range t.participants {
		if q.ID != p.ID {
			out = append(out, q)
		}
	}
	return out
}

func (t *Thread) Keywords() string {
	return t.keywords
}

func (t *Thread) MessageCount() int {
	return len(t.messages)
}

func (t *Thread) FirstMessage() *Message {
	if len(t.messages) == 0 {
		return nil
	}
	return t.messages[0]
}

func (t *Thread) LastMessage() *Message {
	if len(t.messages) == 0 {
		return nil
	}
	return t.messages[len(t.messages)-1]
}

// DateOfLastMessageWrittenByParticipant is the newest timestamp among p's own
// messages, or 0.
func (t *Thread) DateOfLastMessageWrittenByParticipant(p Participant) int64 {
	return t.lastWrittenBy[p.ID]
}

// DateOfLastMessageWrittenByOtherParticipant is the newest timestamp among
// messages sent by anyone but p, or 0.
func (t *Thread) DateOfLastMessageWrittenByOtherParticipant(p Participant) int64 {
	return t.lastWrittenByOther[p.ID]
}

// IsReadByParticipant reports whether p has read every message.
func (t *Thread) IsReadByParticipant(p Participant) bool {
	for _, m := range t.messages {
		if !m.IsReadByParticipant(p) {
			return false
		}
	}
	return true
}

// SetIsReadByParticipant sets p's read flag on every message. Messages sent
// by p stay read.
func (t *Thread) SetIsReadByParticipant(p Participant, read bool) {
	for _, m := range t.messages {
		if !read && m.Sender.ID == p.ID {
			continue
		}
		m.SetIsReadByParticipant(p, read)
	}
}

// Snippet returns at most n runes of the newest message body.
func (t *Thread) Snippet(n int) string {
	last := t.LastMessage()
	if last == nil {
		return ""
	}
	if utf8.RuneCountInString(last.Body) <= n {
		return last.Body
	}
	runes := []rune(last.Body)
	return string(runes[:n])
}
