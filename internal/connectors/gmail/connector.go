package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"plano/internal"
	"plano/internal/config"
)

const Provider = "gmail"

type Connector struct {
	service *gmail.Service
	now     func() time.Time
}

func NewConnector(ctx context.Context, cfg config.Config) (*Connector, error) {
	if err := cfg.Require("GMAIL_CLIENT_ID", cfg.GmailClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_CLIENT_SECRET", cfg.GmailClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}

	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &Connector{service: svc, now: time.Now}, nil
}

// FetchInbox lists the label and downloads each message in raw form. Headers
// are read from the raw payload, so one request per message is enough.
func (c *Connector) FetchInbox(ctx context.Context, label string, max int, since time.Time) ([]internal.FetchedMailMessage, error) {
	listCall := c.service.Users.Messages.List("me").LabelIds(label).Context(ctx)
	if max > 0 {
		listCall = listCall.MaxResults(int64(max))
	}
	if q := searchQuery(since); q != "" {
		listCall = listCall.Q(q)
	}
	listResp, err := listCall.Do()
	if err != nil {
		return nil, err
	}

	out := make([]internal.FetchedMailMessage, 0, len(listResp.Messages))
	for _, ref := range listResp.Messages {
		if ref.Id == "" {
			continue
		}
		rawResp, err := c.service.Users.Messages.Get("me", ref.Id).Format("raw").Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		if rawResp.Raw == "" {
			continue
		}
		raw, err := decodeBase64URL(rawResp.Raw)
		if err != nil {
			return nil, err
		}
		out = append(out, messageFromRaw(ref.Id, raw, c.now()))
	}
	return out, nil
}

// searchQuery limits the listing to messages after since. Gmail takes epoch
// seconds in after:.
func searchQuery(since time.Time) string {
	if since.IsZero() {
		return ""
	}
	return fmt.Sprintf("after:%d", since.Unix())
}

func messageFromRaw(gmailID string, raw []byte, fetchedAt time.Time) internal.FetchedMailMessage {
	msg := internal.FetchedMailMessage{
		Provider:   Provider,
		MessageID:  gmailID,
		ReceivedAt: fetchedAt.UTC().Format(time.RFC3339),
		Raw:        raw,
	}
	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return msg
	}
	dec := new(mime.WordDecoder)
	header := func(name string) string {
		value := parsed.Header.Get(name)
		if decoded, err := dec.DecodeHeader(value); err == nil {
			return decoded
		}
		return value
	}

	if id := strings.TrimSpace(parsed.Header.Get("Message-ID")); id != "" {
		msg.MessageID = id
	}
	msg.Subject = header("Subject")
	msg.From = header("From")
	if date := parsed.Header.Get("Date"); date != "" {
		if t, err := dateparse.ParseAny(date); err == nil {
			msg.ReceivedAt = t.UTC().Format(time.RFC3339)
		}
	}
	return msg
}

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("decode gmail raw payload: %w", err)
}
