package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lu-zhengda/msgthread/internal/domain"
	"github.com/lu-zhengda/msgthread/internal/store"
	"github.com/lu-zhengda/msgthread/internal/store/sqlite"
)

// conflictStore fails the next n saves with store.ErrConflict.
type conflictStore struct {
	store.Store
	n     int
	saves int
}

func (c *conflictStore) SaveThread(ctx context.Context, t *domain.Thread) error {
	c.saves++
	if c.n > 0 {
		c.n--
		return fmt.Errorf("simulated: %w", store.ErrConflict)
	}
	return c.Store.SaveThread(ctx, t)
}

func newTestService(t *testing.T) (*ThreadService, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, p := range []domain.Participant{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob"},
		{ID: "carol", Name: "Carol"},
	} {
		if err := db.CreateParticipant(ctx, &p); err != nil {
			t.Fatalf("CreateParticipant(%s) error: %v", p.ID, err)
		}
	}

	svc := NewThreadService(db, 3)
	clock := time.Unix(1000, 0)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	var seq int
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return svc, db
}

func TestStartThreadAndReply(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	thread, err := svc.StartThread(ctx, "alice", []domain.ParticipantID{"bob"}, "Hello World", "Hi there")
	if err != nil {
		t.Fatalf("StartThread() error: %v", err)
	}
	if len(thread.Participants()) != 2 {
		t.Fatalf("participants = %d, want 2", len(thread.Participants()))
	}

	thread, err = svc.Reply(ctx, thread.ID, "bob", "Hi Alice")
	if err != nil {
		t.Fatalf("Reply() error: %v", err)
	}

	got, err := svc.Read(ctx, thread.ID)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got.Keywords() != "hello world hi there alice" {
		t.Errorf("Keywords() = %q", got.Keywords())
	}
	if got.MessageCount() != 2 {
		t.Errorf("MessageCount() = %d, want 2", got.MessageCount())
	}
	alice := domain.Participant{ID: "alice"}
	bob := domain.Participant{ID: "bob"}
	if got.DateOfLastMessageWrittenByParticipant(bob) <= got.DateOfLastMessageWrittenByParticipant(alice) {
		t.Error("reply should be newer than the opening message")
	}
	if got.IsReadByParticipant(alice) {
		t.Error("alice has not read bob's reply")
	}
	if !got.IsReadByParticipant(bob) {
		t.Error("bob should have read the whole thread after replying")
	}
}

func TestStartThread_UnknownParticipant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartThread(ctx, "nobody", nil, "x", "y"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown sender error = %v, want ErrNotFound", err)
	}
	if _, err := svc.StartThread(ctx, "alice", []domain.ParticipantID{"nobody"}, "x", "y"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown recipient error = %v, want ErrNotFound", err)
	}
}

func TestReply_NewSenderJoins(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	thread, err := svc.StartThread(ctx, "alice", []domain.ParticipantID{"bob"}, "Plans", "lunch?")
	if err != nil {
		t.Fatalf("StartThread() error: %v", err)
	}
	thread, err = svc.Reply(ctx, thread.ID, "carol", "count me in")
	if err != nil {
		t.Fatalf("Reply() error: %v", err)
	}
	if !thread.IsParticipant(domain.Participant{ID: "carol"}) {
		t.Error("carol should join the thread by replying")
	}
}

func TestInvite(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	thread, err := svc.StartThread(ctx, "alice", []domain.ParticipantID{"bob"}, "Plans", "lunch?")
	if err != nil {
		t.Fatalf("StartThread() error: %v", err)
	}
	thread, err = svc.Invite(ctx, thread.ID, "carol")
	if err != nil {
		t.Fatalf("Invite() error: %v", err)
	}

	got, err := svc.Read(ctx, thread.ID)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	carol := domain.Participant{ID: "carol"}
	if !got.IsParticipant(carol) {
		t.Fatal("carol not a participant after Invite")
	}
	if got.IsReadByParticipant(carol) {
		t.Error("invited participant should start unread")
	}
	if got.DateOfLastMessageWrittenByOtherParticipant(carol) == 0 {
		t.Error("invited participant should see others' activity")
	}
}

func TestMarkReadAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	thread, err := svc.StartThread(ctx, "alice", []domain.ParticipantID{"bob"}, "Plans", "lunch?")
	if err != nil {
		t.Fatalf("StartThread() error: %v", err)
	}

	if _, err := svc.MarkRead(ctx, thread.ID, "bob", true); err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	if _, err := svc.SetDeleted(ctx, thread.ID, "bob", true); err != nil {
		t.Fatalf("SetDeleted() error: %v", err)
	}

	got, err := svc.Read(ctx, thread.ID)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	bob := domain.Participant{ID: "bob"}
	if !got.IsReadByParticipant(bob) {
		t.Error("bob read flag not saved")
	}
	if !got.IsDeletedByParticipant(bob) {
		t.Error("bob deletion flag not saved")
	}
	if got.IsDeletedByParticipant(domain.Participant{ID: "alice"}) {
		t.Error("deleting for bob must not delete for alice")
	}

	if _, err := svc.SetDeleted(ctx, thread.ID, "bob", false); err != nil {
		t.Fatalf("SetDeleted(false) error: %v", err)
	}
	got, _ = svc.Read(ctx, thread.ID)
	if got.IsDeletedByParticipant(bob) {
		t.Error("undelete not saved")
	}
}

func TestMarkUnread_ListingMatchesThread(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	alice := domain.Participant{ID: "alice"}

	thread, err := svc.StartThread(ctx, "alice", []domain.ParticipantID{"bob"}, "Plans", "lunch?")
	if err != nil {
		t.Fatalf("StartThread() error: %v", err)
	}

	check := func(wantUnread bool) {
		t.Helper()
		summaries, err := db.ListThreads(ctx, store.ListThreadOptions{ParticipantID: "alice", Box: store.BoxSent})
		if err != nil {
			t.Fatalf("ListThreads() error: %v", err)
		}
		if len(summaries) != 1 {
			t.Fatalf("ListThreads() returned %d threads, want 1", len(summaries))
		}
		got, err := db.GetThread(ctx, thread.ID)
		if err != nil {
			t.Fatalf("GetThread() error: %v", err)
		}
		if summaries[0].HasUnread != wantUnread {
			t.Errorf("HasUnread = %t, want %t", summaries[0].HasUnread, wantUnread)
		}
		if read := got.IsReadByParticipant(alice); read == wantUnread {
			t.Errorf("IsReadByParticipant(alice) = %t, want %t", read, !wantUnread)
		}
	}

	if _, err := svc.MarkRead(ctx, thread.ID, "alice", false); err != nil {
		t.Fatalf("MarkRead(false) error: %v", err)
	}
	check(false)

	if _, err := svc.Reply(ctx, thread.ID, "bob", "sure"); err != nil {
		t.Fatalf("Reply() error: %v", err)
	}
	if _, err := svc.MarkRead(ctx, thread.ID, "alice", true); err != nil {
		t.Fatalf("MarkRead(true) error: %v", err)
	}
	check(false)

	if _, err := svc.MarkRead(ctx, thread.ID, "alice", false); err != nil {
		t.Fatalf("MarkRead(false) error: %v", err)
	}
	check(true)
}

func TestMarkRead_NotParticipant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	thread, err := svc.StartThread(ctx, "alice", []domain.ParticipantID{"bob"}, "Plans", "lunch?")
	if err != nil {
		t.Fatalf("StartThread() error: %v", err)
	}
	if _, err := svc.MarkRead(ctx, thread.ID, "carol", true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("MarkRead() error = %v, want ErrNotFound", err)
	}
}

func TestRead_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Read(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Read() error = %v, want ErrNotFound", err)
	}
}

func TestMutate_RetriesOnConflict(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	thread, err := svc.StartThread(ctx, "alice", []domain.ParticipantID{"bob"}, "Race", "first")
	if err != nil {
		t.Fatalf("StartThread() error: %v", err)
	}

	cs := &conflictStore{Store: db, n: 2}
	svc.store = cs
	if _, err := svc.Reply(ctx, thread.ID, "bob", "second"); err != nil {
		t.Fatalf("Reply() error: %v", err)
	}
	if cs.saves != 3 {
		t.Errorf("saves = %d, want 3", cs.saves)
	}

	got, err := db.GetThread(ctx, thread.ID)
	if err != nil {
		t.Fatalf("GetThread() error: %v", err)
	}
	if got.MessageCount() != 2 {
		t.Errorf("MessageCount() = %d, want 2 (replays must not duplicate)", got.MessageCount())
	}
}

func TestMutate_GivesUp(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	thread, err := svc.StartThread(ctx, "alice", []domain.ParticipantID{"bob"}, "Race", "first")
	if err != nil {
		t.Fatalf("StartThread() error: %v", err)
	}

	cs := &conflictStore{Store: db, n: 10}
	svc.store = cs
	_, err = svc.Reply(ctx, thread.ID, "bob", "second")
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("Reply() error = %v, want ErrConflict", err)
	}
	if cs.saves != 4 {
		t.Errorf("saves = %d, want 4 (1 try + 3 retries)", cs.saves)
	}
}
