package connectors

import (
	"context"
	"time"

	"plano/internal"
)

// MailConnector fetches raw messages from a mailbox. A non-zero since limits
// the fetch to messages received on or after it, at the provider's
// granularity.
type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int, since time.Time) ([]internal.FetchedMailMessage, error)
}
