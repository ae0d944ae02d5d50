package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lu-zhengda/msgthread/internal/domain"
	"github.com/lu-zhengda/msgthread/internal/store"
)

// ThreadService applies user actions to threads: load the aggregate, mutate
// it, save it back. A save that loses a version race is replayed on a fresh
// copy up to maxRetries times.
type ThreadService struct {
	store      store.Store
	maxRetries int

	now   func() time.Time
	newID func() string
}

// NewThreadService creates a ThreadService backed by s.
func NewThreadService(s store.Store, maxRetries int) *ThreadService {
	return &ThreadService{
		store:      s,
		maxRetries: maxRetries,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// StartThread creates a thread between from and the given recipients, with
// body as its first message.
func (s *ThreadService) StartThread(ctx context.Context, from domain.ParticipantID, to []domain.ParticipantID, subject, body string) (*domain.Thread, error) {
	sender, err := s.store.GetParticipant(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sender: %w", err)
	}
	recipients := make([]domain.Participant, 0, len(to))
	for _, id := range to {
		p, err := s.store.GetParticipant(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve recipient: %w", err)
		}
		recipients = append(recipients, *p)
	}

	now := s.now()
	thread := domain.NewThread(s.newID(), subject, now)
	thread.AddParticipant(*sender)
	for _, p := range recipients {
		thread.AddParticipant(p)
	}
	thread.AddMessage(domain.NewMessage(s.newID(), *sender, body, now))

	if err := s.store.SaveThread(ctx, thread); err != nil {
		return nil, fmt.Errorf("failed to save thread: %w", err)
	}
	log.Printf("[thread] %s started by %s with %d participants", thread.ID, sender.ID, len(thread.Participants()))
	return thread, nil
}

// Reply appends a message from the given participant. Replying marks the
// whole thread read for the sender.
func (s *ThreadService) Reply(ctx context.Context, threadID string, from domain.ParticipantID, body string) (*domain.Thread, error) {
	sender, err := s.store.GetParticipant(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sender: %w", err)
	}

	// The message ID is fixed across retries so a replay appends the same
	// message.
	msgID := s.newID()
	thread, err := s.mutate(ctx, threadID, func(t *domain.Thread) error {
		t.AddMessage(domain.NewMessage(msgID, *sender, body, s.now()))
		t.SetIsReadByParticipant(*sender, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[thread] %s: reply %s from %s", threadID, msgID, sender.ID)
	return thread, nil
}

// Invite adds a participant to an existing thread. Old messages start out
// unread for them.
func (s *ThreadService) Invite(ctx context.Context, threadID string, participantID domain.ParticipantID) (*domain.Thread, error) {
	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve participant: %w", err)
	}
	thread, err := s.mutate(ctx, threadID, func(t *domain.Thread) error {
		t.AddParticipant(*p)
		t.Denormalize()
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[thread] %s: invited %s", threadID, p.ID)
	return thread, nil
}

// MarkRead sets the participant's read flag on every message of the thread.
func (s *ThreadService) MarkRead(ctx context.Context, threadID string, participantID domain.ParticipantID, read bool) (*domain.Thread, error) {
	thread, err := s.mutate(ctx, threadID, func(t *domain.Thread) error {
		p, err := member(t, participantID)
		if err != nil {
			return err
		}
		t.SetIsReadByParticipant(p, read)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[thread] %s: read=%t for %s", threadID, read, participantID)
	return thread, nil
}

// SetDeleted soft-deletes (or restores) the thread for one participant.
func (s *ThreadService) SetDeleted(ctx context.Context, threadID string, participantID domain.ParticipantID, deleted bool) (*domain.Thread, error) {
	thread, err := s.mutate(ctx, threadID, func(t *domain.Thread) error {
		p, err := member(t, participantID)
		if err != nil {
			return err
		}
		t.SetIsDeletedByParticipant(p, deleted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[thread] %s: deleted=%t for %s", threadID, deleted, participantID)
	return thread, nil
}

// Read loads a thread without modifying it.
func (s *ThreadService) Read(ctx context.Context, threadID string) (*domain.Thread, error) {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	return thread, nil
}

func (s *ThreadService) mutate(ctx context.Context, threadID string, fn func(*domain.Thread) error) (*domain.Thread, error) {
	for attempt := 0; ; attempt++ {
		thread, err := s.store.GetThread(ctx, threadID)
		if err != nil {
			return nil, fmt.Errorf("failed to load thread: %w", err)
		}
		if err := fn(thread); err != nil {
			return nil, err
		}

		err = s.store.SaveThread(ctx, thread)
		if err == nil {
			return thread, nil
		}
		if !errors.Is(err, store.ErrConflict) || attempt >= s.maxRetries {
			return nil, fmt.Errorf("failed to save thread: %w", err)
		}
		log.Printf("[thread] %s: version conflict, retrying (%d/%d)", threadID, attempt+1, s.maxRetries)
	}
}

func member(t *domain.Thread, id domain.ParticipantID) (domain.Participant, error) {
	for _, p := range t.Participants() {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Participant{}, fmt.Errorf("%s is not a participant of thread %s: %w", id, t.ID, store.ErrNotFound)
}
