package domain

import "strings"

// Denormalize recomputes every derived view from the message log and the
// participant set. Running it twice in a row changes nothing.
//
// Order matters: later passes rely on the participant set being closed over
// all senders.
func (t *Thread) Denormalize() {
	t.denormalizeParticipants()
	t.denormalizeKeywords()
	t.denormalizeReadFlags()
	t.denormalizeDates()
	t.denormalizeDeletion()
}

func (t *Thread) denormalizeParticipants() {
	for _, m := range t.messages {
		t.AddParticipant(m.Sender)
	}
}

func (t *Thread) denormalizeKeywords() {
	var b strings.Builder
	b.WriteString(t.Subject)
	for _, m := range t.messages {
		b.WriteByte(' ')
		b.WriteString(m.Body)
	}
	t.keywords = strings.Join(ExtractKeywords(b.String()), " ")
}

func (t *Thread) denormalizeReadFlags() {
	for _, m := range t.messages {
		m.SetIsReadByParticipant(m.Sender, true)
		m.EnsureIsReadByParticipant(t.participants)
	}
}

// denormalizeDates fills both activity maps in a single scan of the log. The
// previous value of each entry is the starting floor.
func (t *Thread) denormalizeDates() {
	own := make(map[ParticipantID]int64, len(t.participants))
	other := make(map[ParticipantID]int64, len(t.participants))
	for _, p := range t.participants {
		own[p.ID] = t.lastWrittenBy[p.ID]
		other[p.ID] = t.lastWrittenByOther[p.ID]
	}

	for _, m := range t.messages {
		ts := m.Timestamp()
		for _, p := range t.participants {
			if m.Sender.ID == p.ID {
				own[p.ID] = max(own[p.ID], ts)
			} else {
				other[p.ID] = max(other[p.ID], ts)
			}
		}
	}

	t.lastWrittenBy = own
	t.lastWrittenByOther = other
}

func (t *Thread) denormalizeDeletion() {
	if t.isDeleted == nil {
		t.isDeleted = make(map[ParticipantID]bool, len(t.participants))
	}
	for _, p := range t.participants {
		if _, ok := t.isDeleted[p.ID]; !ok {
			t.isDeleted[p.ID] = false
		}
	}
}
