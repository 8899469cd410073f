package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
	"strings"

	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/models"
	"github.com/supportos/complaintstack/internal/utils"
)

const (
	signatureSize = 64
	shingleSize   = 3
)

// seeds are fixed so signatures stay comparable across deployments and
// restarts. Changing them invalidates every cached signature.
var seeds = buildSeeds()

func buildSeeds() [signatureSize]uint64 {
	var s [signatureSize]uint64
	// Splitmix64 expansion of a fixed seed.
	state := uint64(0x9e3779b97f4a7c15)
	for i := 0; i < signatureSize; i++ {
		state += 0x9e3779b97f4a7c15
		z := state
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		s[i] = z ^ (z >> 31)
	}
	return s
}

type fingerprintService struct{}

func NewFingerprintService() interfaces.FingerprintService {
	return &fingerprintService{}
}

// Compute normalizes the message text and derives both fingerprints: an
// exact sha256 content hash and a minhash signature over word shingles.
func (s *fingerprintService) Compute(subject, body string, attachmentTexts []string) models.Fingerprint {
	parts := []string{
		utils.NormalizeEmailSubject(subject),
		body,
	}
	parts = append(parts, attachmentTexts...)
	normalized := utils.NormalizeText(strings.Join(parts, "\n"))

	sum := sha256.Sum256([]byte(normalized))

	return models.Fingerprint{
		ExactHash: hex.EncodeToString(sum[:]),
		Signature: minhash(utils.Tokenize(normalized)),
	}
}

// Similarity estimates Jaccard similarity of the underlying shingle sets as
// the fraction of matching signature positions.
func (s *fingerprintService) Similarity(a, b []uint64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(a))
}

func minhash(tokens []string) []uint64 {
	signature := make([]uint64, signatureSize)
	for i := range signature {
		signature[i] = ^uint64(0)
	}

	shingles := shingle(tokens)
	if len(shingles) == 0 {
		return signature
	}

	for _, sh := range shingles {
		base := hash64(sh)
		for i, seed := range seeds {
			// xor-mix the base hash with each permutation seed instead
			// of hashing the shingle once per permutation.
			h := mix(base ^ seed)
			if h < signature[i] {
				signature[i] = h
			}
		}
	}
	return signature
}

func shingle(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) < shingleSize {
		return []string{strings.Join(tokens, " ")}
	}
	shingles := make([]string, 0, len(tokens)-shingleSize+1)
	for i := 0; i+shingleSize <= len(tokens); i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+shingleSize], " "))
	}
	return shingles
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
