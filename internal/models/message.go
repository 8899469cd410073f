package models

import (
	"time"

	"github.com/supportos/complaintstack/internal/enum"
)

// RawMessage is one fetched mailbox item. It is immutable once parsed and
// discarded after a Complaint is derived or a terminal failure is logged.
type RawMessage struct {
	UID         uint32
	MessageID   string
	FromAddress string
	FromName    string
	Subject     string
	BodyText    string
	BodyHTML    string
	Attachments []RawAttachment
	ReceivedAt  time.Time
}

// RawAttachment carries the undecoded bytes of one attachment
type RawAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// AttachmentResult is the per-attachment outcome of extraction plus the
// durable-storage handle. The handle is kept even when extraction failed so
// the original file stays retrievable.
type AttachmentResult struct {
	Filename      string
	Format        enum.AttachmentFormat
	ExtractedText string
	Status        enum.ExtractionStatus
	StatusDetail  string
	StorageBucket string
	StorageKey    string
	Size          int
}

// Fingerprint identifies message content for dedup purposes: a sha256 over
// the normalized text plus a minhash signature tolerant to minor edits.
type Fingerprint struct {
	ExactHash string
	Signature []uint64
}

// ClassificationResult is the validated output of the AI analyzer
type ClassificationResult struct {
	Category   enum.Category   `json:"category"`
	Priority   enum.Priority   `json:"priority"`
	Sentiment  enum.Sentiment  `json:"sentiment"`
	Confidence float64         `json:"confidence"`
	Entities   []Entity        `json:"entities"`
	Department enum.Department `json:"department"`
}
