package storage

import (
	"testing"

	"plano/internal"
)

func TestEmailLifecycle(t *testing.T) {
	db := openTestDB(t)

	row, err := db.UpsertEmail("imap", "<1@x>", "Plano", "a@x", "2024-08-01T10:00:00Z", "h1", "/raw/h1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	again, err := db.UpsertEmail("imap", "<1@x>", "Plano v2", "a@x", "2024-08-01T10:00:00Z", "h1", "/raw/h1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != row.ID || again.Subject != "Plano v2" {
		t.Fatalf("upsert should update in place: %+v", again)
	}

	pending, err := db.ListEmailsByStatus("fetched", 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending=%v err=%v", pending, err)
	}

	plan, err := db.CreatePlan(newPlan("Email"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.LinkEmailPlan(row.ID, plan.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateEmailStatus(row.ID, "processed"); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetEmailByID(row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "processed" || got.PlanID == nil || *got.PlanID != plan.ID {
		t.Fatalf("unexpected email: %+v", got)
	}

	if _, err := db.MustEmailByProviderMessageID("imap", "<nope>"); err == nil {
		t.Fatal("expected error")
	}
}

func TestImportRunsAndMetadata(t *testing.T) {
	db := openTestDB(t)
	planID := 1
	if err := db.InsertImportRun(internal.ImportRun{TraceID: "t1", PlanID: &planID, FileName: "a.xlsx", Source: "xlsx", Status: "success", Message: "ok", Records: 3, Skipped: 1, DurationMs: 12}); err != nil {
		t.Fatal(err)
	}
	runs, err := db.ListImportRuns(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].PlanID == nil || *runs[0].PlanID != 1 || runs[0].EmailID != nil || runs[0].Records != 3 {
		t.Fatalf("runs=%+v", runs)
	}

	if v, err := db.GetMetadata("mail:lastFetchAt"); err != nil || v != nil {
		t.Fatalf("v=%v err=%v", v, err)
	}
	if err := db.SetMetadata("mail:lastFetchAt", "2024-08-01"); err != nil {
		t.Fatal(err)
	}
	if v, _ := db.GetMetadata("mail:lastFetchAt"); v == nil || *v != "2024-08-01" {
		t.Fatalf("v=%v", v)
	}
}
