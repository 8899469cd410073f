package mailbox

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imapMessage(t *testing.T, uid uint32, raw string) *imap.Message {
	t.Helper()
	section, err := imap.ParseBodySectionName("BODY[]")
	require.NoError(t, err)

	msg := imap.NewMessage(1, []imap.FetchItem{imap.FetchUid, section.FetchItem()})
	msg.Uid = uid
	msg.Body[section] = bytes.NewBufferString(raw)
	return msg
}

const plainMessage = "From: Jane Doe <jane@example.com>\r\n" +
	"To: support@shop.example\r\n" +
	"Subject: Missing item in order\r\n" +
	"Message-ID: <order-123@mail.example.com>\r\n" +
	"Date: Tue, 10 Mar 2026 09:30:00 +0000\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"My order arrived without the charging cable.\r\n"

func TestParseMessage_PlainText(t *testing.T) {
	// Act
	parsed, err := parseMessage(imapMessage(t, 42, plainMessage))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint32(42), parsed.UID)
	assert.Equal(t, "order-123@mail.example.com", parsed.MessageID)
	assert.Equal(t, "jane@example.com", parsed.FromAddress)
	assert.Equal(t, "Jane Doe", parsed.FromName)
	assert.Equal(t, "Missing item in order", parsed.Subject)
	assert.Contains(t, parsed.BodyText, "without the charging cable")
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC), parsed.ReceivedAt)
	assert.Empty(t, parsed.Attachments)
}

func TestParseMessage_WithAttachment(t *testing.T) {
	// Arrange
	content := base64.StdEncoding.EncodeToString([]byte("order,amount\nORD-9,42.00\n"))
	raw := "From: jane@example.com\r\n" +
		"Subject: Refund request\r\n" +
		"Message-ID: <refund-9@mail.example.com>\r\n" +
		"Date: Tue, 10 Mar 2026 10:00:00 +0000\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"frontier\"\r\n" +
		"\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Please refund order ORD-9, details attached.\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/csv\r\n" +
		"Content-Disposition: attachment; filename=\"order.csv\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		content + "\r\n" +
		"--frontier--\r\n"

	// Act
	parsed, err := parseMessage(imapMessage(t, 43, raw))

	// Assert
	require.NoError(t, err)
	assert.Contains(t, parsed.BodyText, "Please refund order ORD-9")
	require.Len(t, parsed.Attachments, 1)
	assert.Equal(t, "order.csv", parsed.Attachments[0].Filename)
	assert.Equal(t, "text/csv", parsed.Attachments[0].ContentType)
	assert.Equal(t, "order,amount\nORD-9,42.00\n", string(parsed.Attachments[0].Content))
}

func TestParseMessage_HTMLOnlyBody(t *testing.T) {
	// Arrange
	raw := "From: jane@example.com\r\n" +
		"Subject: Broken screen\r\n" +
		"Message-ID: <html-1@mail.example.com>\r\n" +
		"Date: Tue, 10 Mar 2026 11:00:00 +0000\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><body><p>The screen cracked on day one.</p></body></html>\r\n"

	// Act
	parsed, err := parseMessage(imapMessage(t, 44, raw))

	// Assert
	require.NoError(t, err)
	assert.Empty(t, parsed.BodyText)
	assert.Contains(t, parsed.BodyHTML, "The screen cracked on day one.")
}

func TestParseMessage_MissingMessageIDIsSynthesized(t *testing.T) {
	// Arrange
	raw := "From: jane@example.com\r\n" +
		"Subject: No message id\r\n" +
		"Date: Tue, 10 Mar 2026 12:00:00 +0000\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"body\r\n"

	// Act
	first, err := parseMessage(imapMessage(t, 45, raw))
	require.NoError(t, err)
	second, err := parseMessage(imapMessage(t, 46, raw))
	require.NoError(t, err)

	// Assert
	assert.True(t, strings.HasPrefix(first.MessageID, "synthetic-"))
	assert.Equal(t, first.MessageID, second.MessageID, "synthetic ids must be stable across re-fetches")
}

func TestParseMessage_UnnamedAttachmentGetsFallbackName(t *testing.T) {
	// Arrange
	content := base64.StdEncoding.EncodeToString([]byte("raw bytes"))
	raw := "From: jane@example.com\r\n" +
		"Subject: Unnamed attachment\r\n" +
		"Message-ID: <unnamed-1@mail.example.com>\r\n" +
		"Date: Tue, 10 Mar 2026 13:00:00 +0000\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"frontier\"\r\n" +
		"\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"see attachment\r\n" +
		"--frontier\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"Content-Disposition: attachment\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		content + "\r\n" +
		"--frontier--\r\n"

	// Act
	parsed, err := parseMessage(imapMessage(t, 47, raw))

	// Assert
	require.NoError(t, err)
	require.Len(t, parsed.Attachments, 1)
	assert.True(t, strings.HasPrefix(parsed.Attachments[0].Filename, "unnamed-1"))
}

func TestParseMessage_NilAndEmpty(t *testing.T) {
	_, err := parseMessage(nil)
	assert.Error(t, err)

	section, err := imap.ParseBodySectionName("BODY[]")
	require.NoError(t, err)
	empty := imap.NewMessage(1, []imap.FetchItem{section.FetchItem()})
	_, err = parseMessage(empty)
	assert.Error(t, err)
}
