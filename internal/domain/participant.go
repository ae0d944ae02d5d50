package domain

import "time"

// ParticipantID identifies a participant across threads. Two Participant
// values with the same ID are the same participant.
type ParticipantID string

type Participant struct {
	ID        ParticipantID
	Name      string
	Email     string
	CreatedAt time.Time
}

func (p Participant) String() string {
	switch {
	case p.Name != "" && p.Email != "":
		return p.Name + " <" + p.Email + ">"
	case p.Email != "":
		return p.Email
	case p.Name != "":
		return p.Name
	}
	return string(p.ID)
}
