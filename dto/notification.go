package dto

import "time"

// ComplaintNotification is the escalation event published to the message
// broker for high and medium priority complaints.
type ComplaintNotification struct {
	ComplaintID   string    `json:"complaintId"`
	MessageID     string    `json:"messageId"`
	CustomerEmail string    `json:"customerEmail"`
	Subject       string    `json:"subject"`
	Category      string    `json:"category"`
	Priority      string    `json:"priority"`
	Sentiment     string    `json:"sentiment"`
	Department    string    `json:"department"`
	ReceivedAt    time.Time `json:"receivedAt"`
	EscalatedAt   time.Time `json:"escalatedAt"`
}
