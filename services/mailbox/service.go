package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/supportos/complaintstack/config"
	"github.com/supportos/complaintstack/interfaces"
	er "github.com/supportos/complaintstack/internal/errors"
	"github.com/supportos/complaintstack/internal/logger"
	"github.com/supportos/complaintstack/internal/models"
	"github.com/supportos/complaintstack/internal/tracing"
)

const (
	connectRetries = 3
	connectBackoff = 2 * time.Second
)

type mailboxService struct {
	cfg *config.MailboxConfig
	log logger.Logger

	mu     sync.Mutex
	client *client.Client
}

func NewMailboxService(cfg *config.MailboxConfig, log logger.Logger) interfaces.MailboxService {
	return &mailboxService{
		cfg: cfg,
		log: log,
	}
}

// ensureConnected returns a logged-in client with the configured folder
// selected, dialing lazily and retrying with backoff. Callers must hold mu.
func (s *mailboxService) ensureConnected(ctx context.Context) (*client.Client, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxService.ensureConnected")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", s.cfg.ImapServer)

	if s.client != nil {
		// Cheap liveness probe. A dead connection forces a redial.
		if err := s.client.Noop(); err == nil {
			return s.client, nil
		}
		s.client.Logout()
		s.client = nil
	}

	var lastErr error
	for attempt := 0; attempt < connectRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(connectBackoff * time.Duration(attempt)):
			}
		}

		c, err := s.dial(ctx)
		if err != nil {
			lastErr = err
			s.log.Warnf("imap connect attempt %d to %s failed: %v", attempt+1, s.cfg.ImapServer, err)
			continue
		}
		s.client = c
		return c, nil
	}

	tracing.TraceErr(span, lastErr)
	return nil, errors.Wrap(er.ErrConnectionTimeout, lastErr.Error())
}

func (s *mailboxService) dial(ctx context.Context) (*client.Client, error) {
	serverAddr := fmt.Sprintf("%s:%d", s.cfg.ImapServer, s.cfg.ImapPort)

	dialer := &net.Dialer{
		Timeout:   s.cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	var c *client.Client
	var err error
	if s.cfg.ImapTLS {
		tlsConfig := &tls.Config{
			ServerName: s.cfg.ImapServer,
		}
		c, err = client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	} else {
		c, err = client.DialWithDialer(dialer, serverAddr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
	}

	c.Timeout = s.cfg.DialTimeout
	if err = c.Login(s.cfg.ImapUsername, s.cfg.ImapPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login as %s: %w", s.cfg.ImapUsername, err)
	}
	c.Timeout = 0

	if _, err = c.Select(s.cfg.Folder, false); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to select folder %s: %w", s.cfg.Folder, err)
	}

	s.log.Infof("connected to imap server %s, folder %s", serverAddr, s.cfg.Folder)
	return c, nil
}

func (s *mailboxService) FetchUnseen(ctx context.Context) ([]models.RawMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxService.FetchUnseen")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.ensureConnected(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := c.UidSearch(criteria)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to search unseen messages")
	}
	span.LogKV("unseen.count", len(uids))
	if len(uids) == 0 {
		return nil, nil
	}

	if s.cfg.FetchBatch > 0 && len(uids) > s.cfg.FetchBatch {
		uids = uids[:s.cfg.FetchBatch]
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	items := []imap.FetchItem{
		imap.FetchEnvelope,
		imap.FetchFlags,
		imap.FetchUid,
		"BODY.PEEK[]",
	}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)

	c.Timeout = 60 * time.Second
	go func() {
		done <- c.UidFetch(seqSet, items, messages)
	}()

	var result []models.RawMessage
	for msg := range messages {
		raw, parseErr := parseMessage(msg)
		if parseErr != nil {
			// A malformed message is logged and skipped, not fatal for
			// the rest of the batch. It stays unseen on the server.
			s.log.Errorf("failed to parse message uid %d: %v", msg.Uid, parseErr)
			continue
		}
		result = append(result, *raw)
	}

	if err = <-done; err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to fetch messages")
	}
	c.Timeout = 0

	span.LogKV("fetched.count", len(result))
	return result, nil
}

func (s *mailboxService) MarkSeen(ctx context.Context, uid uint32) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxService.MarkSeen")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("uid", uid)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.ensureConnected(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	flagsItem := imap.FormatFlagsOp(imap.AddFlags, true)
	if err = c.UidStore(seqSet, flagsItem, []interface{}{imap.SeenFlag}, nil); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to mark message seen")
	}
	return nil
}

func (s *mailboxService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Logout()
	s.client = nil
	return err
}
