package interfaces

import "github.com/supportos/complaintstack/internal/models"

// FingerprintService computes content fingerprints. Pure computation, no
// network or disk I/O.
type FingerprintService interface {
	Compute(subject, body string, attachmentTexts []string) models.Fingerprint
	Similarity(a, b []uint64) float64
}
