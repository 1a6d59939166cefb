package connectors

import (
	"context"
	"time"

	"go.uber.org/zap"

	"plano/internal/logging"
	"plano/internal/storage"
)

// lastFetchKey is the metadata key holding the RFC3339 time of the last
// successful fetch for a provider.
func lastFetchKey(provider string) string {
	return "mail.lastFetchAt." + provider
}

type FetchService struct {
	db        *storage.DB
	provider  string
	connector MailConnector
	store     *MailStoreService
	log       *zap.SugaredLogger
	now       func() time.Time
}

type FetchResult struct {
	Fetched int
	Stored  int
	New     int
}

func NewFetchService(db *storage.DB, rawMailDir, provider string, connector MailConnector, log *zap.SugaredLogger) *FetchService {
	if log == nil {
		log = logging.Nop()
	}
	return &FetchService{
		db:        db,
		provider:  provider,
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
		log:       log,
		now:       time.Now,
	}
}

// FetchAndStore pulls up to max messages received since the previous run and
// stores each one. The watermark only moves after every message is stored.
func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	started := s.now().UTC()
	var since time.Time
	if last, err := s.db.GetMetadata(lastFetchKey(s.provider)); err != nil {
		return FetchResult{}, err
	} else if last != nil {
		since, _ = time.Parse(time.RFC3339, *last)
	}

	messages, err := s.connector.FetchInbox(ctx, label, max, since)
	if err != nil {
		return FetchResult{}, err
	}

	res := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		_, created, err := s.store.Store(msg)
		if err != nil {
			return res, err
		}
		res.Stored++
		if created {
			res.New++
		}
	}

	if err := s.db.SetMetadata(lastFetchKey(s.provider), started.Format(time.RFC3339)); err != nil {
		return res, err
	}
	s.log.Infow("mail fetched", "provider", s.provider, "label", label, "fetched", res.Fetched, "new", res.New)
	return res, nil
}
