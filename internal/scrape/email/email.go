// internal/scrape/email/email.go
package email_scrape

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rs/zerolog"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/types"
)

var errNoMessage = errors.New("no matching message")

// Mailbox is the slice of an IMAP session the fetcher needs.
type Mailbox interface {
	// Newest returns the raw RFC822 bytes of the newest message in mailbox
	// whose Subject contains subject and that arrived on or after since.
	Newest(ctx context.Context, mailbox, subject string, since time.Time) ([]byte, error)
	Close()
}

type Config struct {
	Addr         string // host:port
	Username     string
	Password     string
	LookbackDays int
	TLS          *tls.Config
}

// Fetcher reads newsletter-style listings out of a mailbox. Source.Target
// is the mailbox name, Source.Subject the subject filter.
type Fetcher struct {
	cfg  Config
	open func(ctx context.Context) (Mailbox, error)
	now  func() time.Time
	log  zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) *Fetcher {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 90
	}
	f := &Fetcher{cfg: cfg, now: time.Now, log: log}
	f.open = func(ctx context.Context) (Mailbox, error) {
		c, err := DialAndLoginIMAP(ctx, cfg.Addr, cfg.Username, cfg.Password, cfg.TLS)
		if err != nil {
			return nil, err
		}
		return &imapMailbox{c: c, log: log}, nil
	}
	return f
}

func (f *Fetcher) Name() string { return domain.SourceIMAP }

func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) (types.Document, error) {
	mailbox := src.Target
	if mailbox == "" {
		mailbox = "INBOX"
	}

	mb, err := f.open(ctx)
	if err != nil {
		return types.Document{}, fmt.Errorf("%s: %v: %w", src.Name(), err, types.ErrUnavailable)
	}
	defer mb.Close()

	since := f.now().AddDate(0, 0, -f.cfg.LookbackDays)
	raw, err := mb.Newest(ctx, mailbox, src.Subject, since)
	if err != nil {
		return types.Document{}, fmt.Errorf("%s: %v: %w", src.Name(), err, types.ErrUnavailable)
	}

	body, ct, err := messageBody(raw)
	if err != nil {
		return types.Document{}, fmt.Errorf("%s: parse message: %v: %w", src.Name(), err, types.ErrUnavailable)
	}
	f.log.Debug().Str("source", src.Name()).Str("mailbox", mailbox).Str("content_type", ct).Int("bytes", len(body)).Msg("newsletter fetched")

	return types.Document{
		SourceID:    src.Name(),
		URL:         "imap://" + mailbox,
		ContentType: ct,
		Body:        body,
		FetchedAt:   f.now(),
	}, nil
}

// DialAndLoginIMAP connects over TLS and logs in.
func DialAndLoginIMAP(ctx context.Context, addr, username, password string, tlsCfg *tls.Config) (*imapclient.Client, error) {
	if addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}
	if tlsCfg == nil {
		host, _, _ := net.SplitHostPort(addr)
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: tlsCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	// Best-effort close on context cancel.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })

	if err := c.Login(username, password).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}

	return c, nil
}

type imapMailbox struct {
	c   *imapclient.Client
	log zerolog.Logger
}

func (m *imapMailbox) Newest(ctx context.Context, mailbox, subject string, since time.Time) ([]byte, error) {
	// Read-only so nothing gets marked \Seen.
	if _, err := m.c.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", mailbox, err)
	}

	criteria := &imap.SearchCriteria{Since: since}
	if subject != "" {
		criteria.Header = []imap.SearchCriteriaHeaderField{{Key: "Subject", Value: subject}}
	}
	searchData, err := m.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, errNoMessage
	}
	newest := uids[0]
	for _, u := range uids[1:] {
		if u > newest {
			newest = u
		}
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := m.c.Fetch(imap.UIDSetNum(newest), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	var raw []byte
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			raw = append([]byte(nil), b...)
		}
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	if len(raw) == 0 {
		return nil, errNoMessage
	}
	return raw, nil
}

// Close logs out then closes the connection.
func (m *imapMailbox) Close() {
	if m.c == nil {
		return
	}
	if err := m.c.Logout().Wait(); err != nil {
		m.log.Debug().Err(err).Msg("imap logout")
	}
	_ = m.c.Close()
}
