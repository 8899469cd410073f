package interfaces

import (
	"context"

	"github.com/supportos/complaintstack/internal/models"
)

// MailboxService is the boundary to the IMAP mailbox. FetchUnseen must be
// idempotent: a message stays unseen until MarkSeen is called, so work
// abandoned during shutdown is re-fetched on the next poll.
type MailboxService interface {
	FetchUnseen(ctx context.Context) ([]models.RawMessage, error)
	MarkSeen(ctx context.Context, uid uint32) error
	Close() error
}
