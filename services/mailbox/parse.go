package mailbox

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"

	"github.com/emersion/go-imap"
	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"

	"github.com/supportos/complaintstack/internal/models"
	"github.com/supportos/complaintstack/internal/utils"
)

// parseMessage converts a fetched IMAP message into the internal raw
// representation. The full RFC822 body is taken from the PEEK section so
// fetching never flips the \Seen flag.
func parseMessage(msg *imap.Message) (*models.RawMessage, error) {
	if msg == nil {
		return nil, errors.New("nil message")
	}

	var raw []byte
	for section, literal := range msg.Body {
		if len(section.Path) == 0 && section.Specifier == imap.EntireSpecifier {
			data, err := io.ReadAll(literal)
			if err != nil {
				return nil, errors.Wrap(err, "failed to read message body")
			}
			raw = data
			break
		}
	}
	if len(raw) == 0 {
		return nil, errors.New("message has no body section")
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse mime envelope")
	}

	result := &models.RawMessage{
		UID:      msg.Uid,
		Subject:  env.GetHeader("Subject"),
		BodyText: env.Text,
		BodyHTML: env.HTML,
	}

	result.MessageID = utils.NormalizeMessageID(env.GetHeader("Message-ID"))
	if result.MessageID == "" {
		result.MessageID = synthesizeMessageID(env)
	}

	if addrs, addrErr := env.AddressList("From"); addrErr == nil && len(addrs) > 0 {
		result.FromAddress = addrs[0].Address
		result.FromName = addrs[0].Name
	}

	if date, dateErr := env.Date(); dateErr == nil {
		result.ReceivedAt = date.UTC()
	} else if msg.Envelope != nil && !msg.Envelope.Date.IsZero() {
		result.ReceivedAt = msg.Envelope.Date.UTC()
	} else {
		result.ReceivedAt = utils.Now()
	}

	for _, part := range append(env.Attachments, env.Inlines...) {
		if len(part.Content) == 0 {
			continue
		}
		filename := part.FileName
		if filename == "" {
			exts, _ := mime.ExtensionsByType(part.ContentType)
			ext := ""
			if len(exts) > 0 {
				ext = exts[0]
			}
			filename = fmt.Sprintf("unnamed-%d%s", len(result.Attachments)+1, ext)
		}
		result.Attachments = append(result.Attachments, models.RawAttachment{
			Filename:    filename,
			ContentType: part.ContentType,
			Content:     part.Content,
		})
	}

	return result, nil
}

// synthesizeMessageID builds a deterministic identifier for messages that
// arrive without a Message-ID header, so duplicate detection by message id
// still works on re-fetch.
func synthesizeMessageID(env *enmime.Envelope) string {
	h := sha256.New()
	h.Write([]byte(env.GetHeader("From")))
	h.Write([]byte(env.GetHeader("Subject")))
	h.Write([]byte(env.GetHeader("Date")))
	return "synthetic-" + hex.EncodeToString(h.Sum(nil))[:32]
}
