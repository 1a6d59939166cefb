package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"plano/internal"
	"plano/internal/config"
	"plano/internal/connectors"
	gmailconnector "plano/internal/connectors/gmail"
	imapconnector "plano/internal/connectors/imap"
	"plano/internal/logging"
	"plano/internal/pipeline"
	"plano/internal/storage"
)

// Service polls a mailbox, turns new emails into plans and optionally
// exports every plan it created.
type Service struct {
	db        *storage.DB
	cfg       config.Config
	processor *pipeline.ProcessingService
	connector connectors.MailConnector
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewService(db *storage.DB, cfg config.Config, processor *pipeline.ProcessingService, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{db: db, cfg: cfg, processor: processor, log: log, now: time.Now}
}

// WithConnector fixes the connector instead of building one per cycle from
// MAIL_LISTENER_PROVIDER.
func (s *Service) WithConnector(c connectors.MailConnector) *Service {
	s.connector = c
	return s
}

// Run loops until ctx is done. Cycle errors are logged and the loop goes on.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	s.log.Infow("mail listener started", "provider", s.provider(), "label", s.cfg.MailListenerLabel, "interval", interval)
	for {
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Errorw("listener cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.log.Infow("mail listener stopped")
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) error {
	provider := s.provider()
	mailConnector := s.connector
	if mailConnector == nil {
		c, err := NewConnector(ctx, provider, s.cfg)
		if err != nil {
			return err
		}
		mailConnector = c
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, provider, mailConnector, s.log)
	fetchResult, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	processedEmails, records, err := s.processor.ProcessPending(ctx, s.cfg.MailListenerProcessBatch, provider)
	if err != nil {
		return err
	}

	exported := 0
	if s.cfg.MailListenerAutoExport {
		if exported, err = s.exportProcessed(provider); err != nil {
			return err
		}
	}

	s.log.Infow("listener cycle done", "provider", provider, "fetched", fetchResult.Fetched, "new", fetchResult.New,
		"processed", processedEmails, "records", records, "exported", exported)
	return nil
}

// exportProcessed writes one xlsx per processed email that produced a plan
// and moves the email to exported.
func (s *Service) exportProcessed(provider string) (int, error) {
	emails, err := s.db.ListEmailsByStatus(internal.EmailProcessed, 200)
	if err != nil {
		return 0, err
	}

	exported := 0
	for _, email := range emails {
		if email.Provider != provider || email.PlanID == nil {
			continue
		}
		plan, err := s.db.GetPlan(*email.PlanID)
		if err != nil {
			return exported, err
		}
		filename := fmt.Sprintf("%s_%s.xlsx", plan.PlanCode, sanitizeMessageID(email.MessageID))
		outputPath := filepath.Join(s.cfg.OutputDir, "listener", filename)
		if err := pipeline.ExportPlanToXLSX(plan, outputPath, s.now()); err != nil {
			return exported, err
		}
		if err := s.db.UpdateEmailStatus(email.ID, internal.EmailExported); err != nil {
			return exported, err
		}
		exported++
	}
	return exported, nil
}

func (s *Service) provider() string {
	return strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
}

// NewConnector builds the connector for a provider name.
func NewConnector(ctx context.Context, provider string, cfg config.Config) (connectors.MailConnector, error) {
	switch provider {
	case gmailconnector.Provider:
		return gmailconnector.NewConnector(ctx, cfg)
	case imapconnector.Provider:
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}

func sanitizeMessageID(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_", "@", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
