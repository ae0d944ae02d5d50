package store

import (
	"context"
	"errors"

	"github.com/lu-zhengda/msgthread/internal/domain"
)

var (
	// ErrNotFound is returned when a participant or thread does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by SaveThread when the stored thread changed
	// since it was loaded.
	ErrConflict = errors.New("version conflict")
)

// Store defines the persistence interface for the application.
type Store interface {
	// Participants
	CreateParticipant(ctx context.Context, p *domain.Participant) error
	GetParticipant(ctx context.Context, id domain.ParticipantID) (*domain.Participant, error)
	ListParticipants(ctx context.Context) ([]domain.Participant, error)

	// Threads
	SaveThread(ctx context.Context, t *domain.Thread) error
	GetThread(ctx context.Context, id string) (*domain.Thread, error)
	ListThreads(ctx context.Context, opts ListThreadOptions) ([]ThreadSummary, error)

	// Search
	SearchThreads(ctx context.Context, query string, participantID domain.ParticipantID) ([]ThreadSummary, error)

	// Lifecycle
	Close() error
}

// Box selects a per-participant thread listing.
type Box string

const (
	BoxInbox   Box = "inbox"
	BoxSent    Box = "sent"
	BoxDeleted Box = "deleted"
)

// ParseBox validates a box name. The empty string means inbox.
func ParseBox(s string) (Box, error) {
	switch Box(s) {
	case "", BoxInbox:
		return BoxInbox, nil
	case BoxSent, BoxDeleted:
		return Box(s), nil
	}
	return "", errors.New("unknown box " + s + " (use inbox, sent, or deleted)")
}

// ListThreadOptions configures thread listing queries.
type ListThreadOptions struct {
	ParticipantID domain.ParticipantID
	Box           Box
	Limit         int
	Offset        int
}

// ThreadSummary is a thread row as seen by one participant.
type ThreadSummary struct {
	ID           string
	Subject      string
	LastActivity int64 // Unix timestamp
	MessageCount int
	HasUnread    bool
	IsDeleted    bool
}
