package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lu-zhengda/msgthread/internal/domain"
	"github.com/lu-zhengda/msgthread/internal/store"
)

var (
	alice = domain.Participant{ID: "alice", Name: "Alice", Email: "alice@example.com"}
	bob   = domain.Participant{ID: "bob", Name: "Bob", Email: "bob@example.com"}
	carol = domain.Participant{ID: "carol", Name: "Carol", Email: "carol@example.com"}
)

func seedParticipants(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()
	for _, p := range []domain.Participant{alice, bob, carol} {
		if err := db.CreateParticipant(ctx, &p); err != nil {
			t.Fatalf("seedParticipants: %v", err)
		}
	}
}

func saveNewThread(t *testing.T, db *DB, id, subject string, members []domain.Participant, msgs ...*domain.Message) *domain.Thread {
	t.Helper()
	thread := domain.NewThread(id, subject, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	for _, p := range members {
		thread.AddParticipant(p)
	}
	for _, m := range msgs {
		thread.AddMessage(m)
	}
	if err := db.SaveThread(context.Background(), thread); err != nil {
		t.Fatalf("SaveThread(%s) error: %v", id, err)
	}
	return thread
}

var pair = []domain.Participant{alice, bob}

func at(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

func TestSaveAndGetThread(t *testing.T) {
	db := newTestDB(t)
	seedParticipants(t, db)
	ctx := context.Background()

	saved := saveNewThread(t, db, "t1", "Hello World", pair,
		domain.NewMessage("m1", alice, "Hi there", at(100)),
		domain.NewMessage("m2", bob, "Hi Alice", at(200)),
	)
	if saved.Version != 1 {
		t.Errorf("Version after first save = %d, want 1", saved.Version)
	}

	got, err := db.GetThread(ctx, "t1")
	if err != nil {
		t.Fatalf("GetThread() error: %v", err)
	}
	if got.Subject != "Hello World" {
		t.Errorf("Subject = %q, want %q", got.Subject, "Hello World")
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
	if got.Keywords() != "hello world hi there alice" {
		t.Errorf("Keywords() = %q", got.Keywords())
	}

	msgs := got.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len(Messages()) = %d, want 2", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("message order = [%s %s], want [m1 m2]", msgs[0].ID, msgs[1].ID)
	}
	if msgs[0].Sender.Name != "Alice" {
		t.Errorf("sender name = %q, want %q", msgs[0].Sender.Name, "Alice")
	}
	if !msgs[0].CreatedAt.Equal(at(100)) {
		t.Errorf("CreatedAt = %v, want %v", msgs[0].CreatedAt, at(100))
	}
	if !msgs[0].IsReadByParticipant(alice) || msgs[0].IsReadByParticipant(bob) {
		t.Error("read flags for m1 not restored")
	}
	if got.DateOfLastMessageWrittenByOtherParticipant(alice) != 200 {
		t.Errorf("other(alice) = %d, want 200", got.DateOfLastMessageWrittenByOtherParticipant(alice))
	}
}

func TestGetThread_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetThread(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetThread() error = %v, want ErrNotFound", err)
	}
}

func TestSaveThread_UpdatesReadAndDeletion(t *testing.T) {
	db := newTestDB(t)
	seedParticipants(t, db)
	ctx := context.Background()

	saveNewThread(t, db, "t1", "Plans", pair, domain.NewMessage("m1", alice, "lunch?", at(100)))

	thread, err := db.GetThread(ctx, "t1")
	if err != nil {
		t.Fatalf("GetThread() error: %v", err)
	}
	thread.AddMessage(domain.NewMessage("m2", bob, "sure", at(200)))
	thread.SetIsReadByParticipant(alice, true)
	thread.SetIsDeletedByParticipant(bob, true)
	if err := db.SaveThread(ctx, thread); err != nil {
		t.Fatalf("SaveThread() error: %v", err)
	}
	if thread.Version != 2 {
		t.Errorf("Version = %d, want 2", thread.Version)
	}

	got, err := db.GetThread(ctx, "t1")
	if err != nil {
		t.Fatalf("GetThread() error: %v", err)
	}
	if got.MessageCount() != 2 {
		t.Errorf("MessageCount() = %d, want 2", got.MessageCount())
	}
	if !got.IsReadByParticipant(alice) {
		t.Error("alice read state not persisted")
	}
	if !got.IsDeletedByParticipant(bob) {
		t.Error("bob deletion not persisted")
	}
	if got.Keywords() != "plans lunch sure" {
		t.Errorf("Keywords() = %q, want %q", got.Keywords(), "plans lunch sure")
	}
}

func TestSaveThread_Conflict(t *testing.T) {
	db := newTestDB(t)
	seedParticipants(t, db)
	ctx := context.Background()

	saveNewThread(t, db, "t1", "Race", pair, domain.NewMessage("m1", alice, "first", at(100)))

	a, err := db.GetThread(ctx, "t1")
	if err != nil {
		t.Fatalf("GetThread() error: %v", err)
	}
	b, err := db.GetThread(ctx, "t1")
	if err != nil {
		t.Fatalf("GetThread() error: %v", err)
	}

	a.AddMessage(domain.NewMessage("m2", bob, "from a", at(200)))
	if err := db.SaveThread(ctx, a); err != nil {
		t.Fatalf("SaveThread(a) error: %v", err)
	}

	b.AddMessage(domain.NewMessage("m3", carol, "from b", at(300)))
	if err := db.SaveThread(ctx, b); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("SaveThread(b) error = %v, want ErrConflict", err)
	}

	got, err := db.GetThread(ctx, "t1")
	if err != nil {
		t.Fatalf("GetThread() error: %v", err)
	}
	if got.MessageCount() != 2 {
		t.Errorf("MessageCount() = %d, want 2 (stale write must not land)", got.MessageCount())
	}
	if got.IsParticipant(carol) {
		t.Error("carol joined through a rejected save")
	}
}

func TestSaveThread_NewThreadWithStaleVersion(t *testing.T) {
	db := newTestDB(t)
	seedParticipants(t, db)

	thread := domain.NewThread("ghost", "x", at(1))
	thread.Version = 3
	if err := db.SaveThread(context.Background(), thread); !errors.Is(err, store.ErrConflict) {
		t.Errorf("SaveThread() error = %v, want ErrConflict", err)
	}
}

func TestSaveThread_UnregisteredSender(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	dave := domain.Participant{ID: "dave", Name: "Dave"}
	saveNewThread(t, db, "t1", "Walk-in", pair, domain.NewMessage("m1", dave, "hello", at(10)))

	p, err := db.GetParticipant(ctx, "dave")
	if err != nil {
		t.Fatalf("GetParticipant() error: %v", err)
	}
	if p.Name != "Dave" {
		t.Errorf("name = %q, want %q", p.Name, "Dave")
	}
}

func TestListThreads(t *testing.T) {
	db := newTestDB(t)
	seedParticipants(t, db)
	ctx := context.Background()

	saveNewThread(t, db, "t1", "From Bob", pair, domain.NewMessage("m1", bob, "hey alice", at(100)))
	saveNewThread(t, db, "t2", "From Alice", pair, domain.NewMessage("m2", alice, "hey bob", at(200)))
	t3 := saveNewThread(t, db, "t3", "Back and forth", pair,
		domain.NewMessage("m3", alice, "ping", at(300)),
		domain.NewMessage("m4", bob, "pong", at(400)),
	)
	t3.SetIsDeletedByParticipant(bob, true)
	if err := db.SaveThread(ctx, t3); err != nil {
		t.Fatalf("SaveThread(t3) error: %v", err)
	}

	tests := []struct {
		name string
		opts store.ListThreadOptions
		want []string
	}{
		{"alice inbox", store.ListThreadOptions{ParticipantID: "alice", Box: store.BoxInbox}, []string{"t3", "t1"}},
		{"alice sent", store.ListThreadOptions{ParticipantID: "alice", Box: store.BoxSent}, []string{"t3", "t2"}},
		{"bob inbox", store.ListThreadOptions{ParticipantID: "bob", Box: store.BoxInbox}, []string{"t2"}},
		{"bob sent", store.ListThreadOptions{ParticipantID: "bob", Box: store.BoxSent}, []string{"t1"}},
		{"bob deleted", store.ListThreadOptions{ParticipantID: "bob", Box: store.BoxDeleted}, []string{"t3"}},
		{"default box is inbox", store.ListThreadOptions{ParticipantID: "alice"}, []string{"t3", "t1"}},
		{"limit", store.ListThreadOptions{ParticipantID: "alice", Box: store.BoxSent, Limit: 1}, []string{"t3"}},
		{"offset", store.ListThreadOptions{ParticipantID: "alice", Box: store.BoxSent, Offset: 1}, []string{"t2"}},
		{"stranger", store.ListThreadOptions{ParticipantID: "carol"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListThreads(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListThreads() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListThreads() returned %d threads, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("thread[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestListThreads_SummaryFields(t *testing.T) {
	db := newTestDB(t)
	seedParticipants(t, db)
	ctx := context.Background()

	saveNewThread(t, db, "t1", "Status", pair,
		domain.NewMessage("m1", bob, "done?", at(100)),
		domain.NewMessage("m2", alice, "yes", at(150)),
		domain.NewMessage("m3", bob, "great", at(180)),
	)

	got, err := db.ListThreads(ctx, store.ListThreadOptions{ParticipantID: "alice"})
	if err != nil {
		t.Fatalf("ListThreads() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	s := got[0]
	if s.Subject != "Status" {
		t.Errorf("Subject = %q, want %q", s.Subject, "Status")
	}
	if s.LastActivity != 180 {
		t.Errorf("LastActivity = %d, want 180", s.LastActivity)
	}
	if s.MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", s.MessageCount)
	}
	if !s.HasUnread {
		t.Error("HasUnread = false, want true")
	}
	if s.IsDeleted {
		t.Error("IsDeleted = true, want false")
	}
}

func TestListThreads_UnknownBox(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.ListThreads(context.Background(), store.ListThreadOptions{ParticipantID: "a", Box: "spam"}); err == nil {
		t.Error("expected error for unknown box")
	}
}
