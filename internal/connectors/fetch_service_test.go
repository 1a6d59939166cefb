package connectors

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"plano/internal"
	"plano/internal/storage"
)

type fakeConnector struct {
	messages []internal.FetchedMailMessage
	err      error
	sinces   []time.Time
}

func (f *fakeConnector) FetchInbox(_ context.Context, _ string, _ int, since time.Time) ([]internal.FetchedMailMessage, error) {
	f.sinces = append(f.sinces, since)
	return f.messages, f.err
}

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "plano.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestFetchAndStore(t *testing.T) {
	db := openTestDB(t)
	conn := &fakeConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<1@x>", Subject: "Plano 1", Raw: []byte("Subject: Plano 1\r\n\r\nA")},
		{Provider: "imap", MessageID: "<2@x>", Subject: "Plano 2", Raw: []byte("Subject: Plano 2\r\n\r\nB")},
	}}
	svc := NewFetchService(db, filepath.Join(t.TempDir(), "raw"), "imap", conn, nil)
	first := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	res, err := svc.FetchAndStore(context.Background(), "INBOX", 10)
	if err != nil {
		t.Fatal(err)
	}
	if res != (FetchResult{Fetched: 2, Stored: 2, New: 2}) {
		t.Fatalf("first fetch=%+v", res)
	}

	row, err := db.MustEmailByProviderMessageID("imap", "<1@x>")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateEmailStatus(row.ID, internal.EmailProcessed); err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return first.Add(time.Hour) }
	res, err = svc.FetchAndStore(context.Background(), "INBOX", 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.New != 0 || res.Stored != 2 {
		t.Fatalf("second fetch=%+v", res)
	}
	if !conn.sinces[0].IsZero() || !conn.sinces[1].Equal(first) {
		t.Fatalf("watermark not passed: %v", conn.sinces)
	}
	again, _ := db.GetEmailByID(row.ID)
	if again.Status != internal.EmailProcessed {
		t.Fatalf("refetch reset status to %s", again.Status)
	}
	last, _ := db.GetMetadata(lastFetchKey("imap"))
	if last == nil || *last != "2024-08-01T11:00:00Z" {
		t.Fatalf("lastFetchAt=%v", last)
	}
}

func TestFetchAndStoreKeepsWatermarkOnError(t *testing.T) {
	db := openTestDB(t)
	conn := &fakeConnector{err: errors.New("imap down")}
	svc := NewFetchService(db, t.TempDir(), "imap", conn, nil)

	if _, err := svc.FetchAndStore(context.Background(), "INBOX", 10); err == nil {
		t.Fatal("expected error")
	}
	if last, _ := db.GetMetadata(lastFetchKey("imap")); last != nil {
		t.Fatalf("watermark moved: %s", *last)
	}
}

func TestMailStoreDeduplicatesRawFiles(t *testing.T) {
	db := openTestDB(t)
	dir := filepath.Join(t.TempDir(), "raw")
	store := NewMailStoreService(db, dir)
	raw := []byte("Subject: x\r\n\r\ny")

	a, created, err := store.Store(internal.FetchedMailMessage{Provider: "gmail", MessageID: "a", Raw: raw})
	if err != nil || !created {
		t.Fatalf("created=%v err=%v", created, err)
	}
	b, created, err := store.Store(internal.FetchedMailMessage{Provider: "gmail", MessageID: "b", Raw: raw})
	if err != nil || !created {
		t.Fatalf("created=%v err=%v", created, err)
	}
	if a.RawRef != b.RawRef || a.Hash != b.Hash {
		t.Fatalf("same payload should share a raw file: %s %s", a.RawRef, b.RawRef)
	}
	if filepath.Dir(a.RawRef) != dir || a.Status != internal.EmailFetched {
		t.Fatalf("unexpected row: %+v", a)
	}
}
