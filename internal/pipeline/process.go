package pipeline

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plano/internal"
	"plano/internal/config"
	"plano/internal/logging"
	"plano/internal/storage"
	"plano/internal/util"
)

const defaultMailPlanName = "Plano recebido por e-mail"

// ProcessingService turns stored emails into plans. Every supported
// attachment is imported; when none yields records the HTML body tables are
// tried instead.
type ProcessingService struct {
	db       *storage.DB
	cfg      config.Config
	importer *Importer
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewProcessingService(db *storage.DB, cfg config.Config, importer *Importer, log *zap.SugaredLogger) *ProcessingService {
	if log == nil {
		log = logging.Nop()
	}
	return &ProcessingService{db: db, cfg: cfg, importer: importer, log: log, now: time.Now}
}

type ProcessResult struct {
	EmailID int
	PlanID  *int
	Status  string
	Records int
}

func (s *ProcessingService) ProcessByProviderMessageID(ctx context.Context, provider, messageID string) (ProcessResult, error) {
	email, err := s.db.MustEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessEmail(ctx, email)
}

// ProcessPending handles up to limit fetched emails, optionally for a single
// provider. It returns the number of emails handled and records imported.
func (s *ProcessingService) ProcessPending(ctx context.Context, limit int, provider string) (int, int, error) {
	pending, err := s.db.ListEmailsByStatus(internal.EmailFetched, limit)
	if err != nil {
		return 0, 0, err
	}
	processedEmails := 0
	processedRecords := 0
	for _, email := range pending {
		if err := ctx.Err(); err != nil {
			return processedEmails, processedRecords, err
		}
		if provider != "" && email.Provider != provider {
			continue
		}
		res, err := s.ProcessEmail(ctx, email)
		if err != nil {
			return processedEmails, processedRecords, err
		}
		processedEmails++
		processedRecords += res.Records
	}
	return processedEmails, processedRecords, nil
}

func (s *ProcessingService) ProcessEmail(ctx context.Context, email internal.EmailRow) (ProcessResult, error) {
	traceID := uuid.NewString()
	log := s.log.With("traceId", traceID, "emailId", email.ID)

	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		_ = s.db.UpdateEmailStatus(email.ID, internal.EmailFailed)
		return ProcessResult{}, err
	}
	msg, err := ReadEmail(raw)
	if err != nil {
		_ = s.db.UpdateEmailStatus(email.ID, internal.EmailFailed)
		return ProcessResult{}, fmt.Errorf("parse email %d: %w", email.ID, err)
	}

	subject := util.FirstNonEmpty(msg.Subject, email.Subject)
	planName := util.FirstNonEmpty(subject, defaultMailPlanName)
	opts := Options{
		PlanName:     planName,
		Reason:       s.importer.reason,
		EmissionDate: s.now().Format("2006-01-02"),
	}

	var (
		runs    []internal.ImportRun
		records []internal.ActionRecord
	)
	for _, att := range msg.Attachments {
		if !Supported(att.FileName) {
			continue
		}
		start := time.Now()
		res := s.importer.Import(ctx, att.FileName, att.Content, opts)
		runs = append(runs, runFor(traceID, email.ID, att.FileName, res, start))
		records = append(records, res.Records...)
	}
	if len(records) == 0 && strings.TrimSpace(msg.HTML) != "" {
		start := time.Now()
		res := s.importer.ImportHTML(msg.HTML, opts)
		if len(res.Records) > 0 || len(runs) == 0 {
			runs = append(runs, runFor(traceID, email.ID, "body.html", res, start))
		}
		records = append(records, res.Records...)
	}

	out := ProcessResult{EmailID: email.ID, Status: internal.EmailSkipped}
	if len(records) > 0 {
		plan, err := s.db.CreatePlan(internal.NewPlan{
			ClientName:   clientName(util.FirstNonEmpty(msg.From, email.Sender)),
			PlanName:     planName,
			EmissionDate: opts.EmissionDate,
			Reason:       opts.Reason,
			OwnerName:    s.cfg.MailDefaultOwner,
		}, records)
		if err != nil {
			_ = s.db.UpdateEmailStatus(email.ID, internal.EmailFailed)
			return ProcessResult{}, err
		}
		if err := s.db.LinkEmailPlan(email.ID, plan.ID); err != nil {
			return ProcessResult{}, err
		}
		out.PlanID = &plan.ID
		out.Status = internal.EmailProcessed
		out.Records = len(records)
	}

	for _, run := range runs {
		run.PlanID = out.PlanID
		if err := s.db.InsertImportRun(run); err != nil {
			log.Warnw("failed to record import run", "file", run.FileName, "error", err)
		}
	}
	if err := s.db.UpdateEmailStatus(email.ID, out.Status); err != nil {
		return ProcessResult{}, err
	}
	log.Infow("email processed", "status", out.Status, "records", out.Records, "sources", len(runs))
	return out, nil
}

func runFor(traceID string, emailID int, fileName string, res Result, start time.Time) internal.ImportRun {
	id := emailID
	return internal.ImportRun{
		TraceID:    traceID,
		EmailID:    &id,
		FileName:   fileName,
		Source:     res.Source,
		Status:     string(res.Status),
		Message:    res.Message,
		Records:    len(res.Records),
		Skipped:    res.Skipped,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// clientName prefers the display name of a From header.
func clientName(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return util.FirstNonEmpty(strings.TrimSpace(from), "Cliente")
	}
	return util.FirstNonEmpty(addr.Name, addr.Address)
}
