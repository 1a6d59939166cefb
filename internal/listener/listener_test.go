package listener

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"plano/internal"
	"plano/internal/catalog"
	"plano/internal/config"
	"plano/internal/pipeline"
	"plano/internal/storage"
)

type staticConnector struct {
	messages []internal.FetchedMailMessage
}

func (c staticConnector) FetchInbox(context.Context, string, int, time.Time) ([]internal.FetchedMailMessage, error) {
	return c.messages, nil
}

const planMail = "From: Cliente <cliente@example.com>\r\n" +
	"Subject: Auditoria externa\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Segue.\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/csv; name=\"plano.csv\"\r\n" +
	"Content-Disposition: attachment; filename=\"plano.csv\"\r\n" +
	"\r\n" +
	"Desvio;Ação corretiva;Setor;Responsável;Prazo\r\n" +
	"Ruído;Isolar compressor;SHE;Engenheiro;30/09/2024\r\n" +
	"--XYZ--\r\n"

func TestRunCycleFetchesProcessesAndExports(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		RawMailDir:               filepath.Join(dir, "raw"),
		OutputDir:                filepath.Join(dir, "out"),
		ImportReason:             string(internal.ReasonAuditoriaExterna),
		MailListenerProvider:     "IMAP",
		MailListenerLabel:        "INBOX",
		MailListenerFetchMax:     10,
		MailListenerProcessBatch: 10,
		MailListenerAutoExport:   true,
		MailDefaultOwner:         "Coordenador",
	}
	db, err := storage.Open(filepath.Join(dir, "plano.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	importer := pipeline.NewImporter(cfg, catalog.Default(), nil, nil)
	processor := pipeline.NewProcessingService(db, cfg, importer, nil)
	svc := NewService(db, cfg, processor, nil).WithConnector(staticConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<plan@x>", Subject: "Auditoria externa", Raw: []byte(planMail)},
	}})

	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	email, err := db.MustEmailByProviderMessageID("imap", "<plan@x>")
	if err != nil {
		t.Fatal(err)
	}
	if email.Status != internal.EmailExported || email.PlanID == nil {
		t.Fatalf("unexpected email: %+v", email)
	}
	plan, err := db.GetPlan(*email.PlanID)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Reason != internal.ReasonAuditoriaExterna || len(plan.ActionItems) != 1 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	out := filepath.Join(cfg.OutputDir, "listener", plan.PlanCode+"__plan_x_.xlsx")
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("export missing: %v", err)
	}

	// a second cycle sees the same message again and leaves it alone
	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	plans, _ := db.ListPlans()
	if len(plans) != 1 {
		t.Fatalf("plans=%d", len(plans))
	}
}

func TestNewConnectorRejectsUnknownProvider(t *testing.T) {
	if _, err := NewConnector(context.Background(), "pop3", config.Config{}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewConnector(context.Background(), "imap", config.Config{}); err == nil {
		t.Fatal("expected missing IMAP_HOST error")
	}
}

func TestSanitizeMessageID(t *testing.T) {
	if got := sanitizeMessageID("<a/b@c d>"); got != "_a_b_c_d_" {
		t.Fatalf("got %s", got)
	}
}
