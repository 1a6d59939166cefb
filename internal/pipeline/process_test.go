package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"plano/internal"
	"plano/internal/config"
	"plano/internal/storage"
)

func mimeMessage(subject, html string, attachments map[string]string) string {
	raw := "From: \"Alufran Qualidade\" <qualidade@alufran.example>\r\n" +
		"To: planos@example.com\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
		"\r\n"
	if html != "" {
		raw += "--XYZ\r\nContent-Type: text/html; charset=utf-8\r\n\r\n" + html + "\r\n"
	} else {
		raw += "--XYZ\r\nContent-Type: text/plain; charset=utf-8\r\n\r\nSegue.\r\n"
	}
	for name, body := range attachments {
		raw += "--XYZ\r\n" +
			"Content-Type: application/octet-stream; name=\"" + name + "\"\r\n" +
			"Content-Disposition: attachment; filename=\"" + name + "\"\r\n" +
			"\r\n" + body + "\r\n"
	}
	return raw + "--XYZ--\r\n"
}

func storeEmail(t *testing.T, db *storage.DB, messageID, raw string) internal.EmailRow {
	t.Helper()
	path := filepath.Join(t.TempDir(), "msg.eml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	row, err := db.UpsertEmail("imap", messageID, "", "", "2024-08-01T10:00:00Z", messageID, path, internal.EmailFetched)
	if err != nil {
		t.Fatal(err)
	}
	return row
}

func newTestProcessor(t *testing.T) (*ProcessingService, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "plano.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	im := newTestImporter(nil, nil)
	svc := NewProcessingService(db, config.Config{MailDefaultOwner: "Coordenador"}, im, nil)
	svc.now = func() time.Time { return time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC) }
	return svc, db
}

const mailCSV = "Desvio;Ação corretiva;Departamentos;Responsável;Prazo\n" +
	"Vazamento;Reparar junta;Manutenção;Técnico;15/08/2024\n" +
	"Ruído;Isolar compressor;SHE;Engenheiro;30/09/2024\n"

func TestProcessEmailCreatesPlan(t *testing.T) {
	svc, db := newTestProcessor(t)
	email := storeEmail(t, db, "<1@x>", mimeMessage("Auditoria linha 2", "", map[string]string{
		"plano.csv":  mailCSV,
		"leiame.txt": "ignorado",
	}))

	res, err := svc.ProcessEmail(context.Background(), email)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != internal.EmailProcessed || res.Records != 2 || res.PlanID == nil {
		t.Fatalf("unexpected result: %+v", res)
	}

	plan, err := db.GetPlan(*res.PlanID)
	if err != nil {
		t.Fatal(err)
	}
	if plan.PlanName != "Auditoria linha 2" || plan.ClientName != "Alufran Qualidade" || plan.EmissionDate != "2024-08-01" {
		t.Fatalf("unexpected plan header: %+v", plan)
	}
	if plan.OwnerName != "Coordenador" || len(plan.ActionItems) != 2 {
		t.Fatalf("unexpected plan: owner=%s items=%d", plan.OwnerName, len(plan.ActionItems))
	}

	stored, _ := db.GetEmailByID(email.ID)
	if stored.Status != internal.EmailProcessed || stored.PlanID == nil || *stored.PlanID != plan.ID {
		t.Fatalf("email not linked: %+v", stored)
	}
	runs, err := db.ListImportRuns(10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs=%+v err=%v", runs, err)
	}
	if runs[0].FileName != "plano.csv" || runs[0].Records != 2 || runs[0].PlanID == nil {
		t.Fatalf("unexpected run: %+v", runs[0])
	}
}

func TestProcessEmailFallsBackToHTML(t *testing.T) {
	svc, db := newTestProcessor(t)
	html := `<table><tr><td>Desvio</td><td>Ação corretiva</td><td>Setor</td><td>Responsável</td><td>Prazo</td></tr>` +
		`<tr><td>Ruído</td><td>Isolar</td><td>SHE</td><td>Engenheiro</td><td>30/09/2024</td></tr></table>`
	email := storeEmail(t, db, "<2@x>", mimeMessage("Plano HTML", html, nil))

	res, err := svc.ProcessEmail(context.Background(), email)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != internal.EmailProcessed || res.Records != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestProcessPendingSkipsEmailsWithoutPlans(t *testing.T) {
	svc, db := newTestProcessor(t)
	storeEmail(t, db, "<3@x>", mimeMessage("Bom dia", "", nil))
	storeEmail(t, db, "<4@x>", mimeMessage("Plano", "", map[string]string{"plano.csv": mailCSV}))

	emails, records, err := svc.ProcessPending(context.Background(), 10, "imap")
	if err != nil {
		t.Fatal(err)
	}
	if emails != 2 || records != 2 {
		t.Fatalf("emails=%d records=%d", emails, records)
	}
	skipped, _ := db.ListEmailsByStatus(internal.EmailSkipped, 10)
	if len(skipped) != 1 {
		t.Fatalf("expected one skipped email, got %d", len(skipped))
	}

	emails, _, err = svc.ProcessPending(context.Background(), 10, "gmail")
	if err != nil || emails != 0 {
		t.Fatalf("other provider emails=%d err=%v", emails, err)
	}
}

func TestProcessEmailMissingRaw(t *testing.T) {
	svc, db := newTestProcessor(t)
	email, err := db.UpsertEmail("imap", "<5@x>", "", "", "", "h5", filepath.Join(t.TempDir(), "gone.eml"), internal.EmailFetched)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ProcessEmail(context.Background(), email); err == nil {
		t.Fatal("expected error")
	}
	stored, _ := db.GetEmailByID(email.ID)
	if stored.Status != internal.EmailFailed {
		t.Fatalf("status=%s", stored.Status)
	}
}
