package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportos/complaintstack/config"
	"github.com/supportos/complaintstack/internal/enum"
	er "github.com/supportos/complaintstack/internal/errors"
	"github.com/supportos/complaintstack/internal/models"
	"github.com/supportos/complaintstack/services/fingerprint"
)

func setupDedup(t *testing.T) (*dedupService, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewDedupService(client, fingerprint.NewFingerprintService(), &config.PipelineConfig{
		CacheTTL:            time.Hour,
		SimilarityThreshold: 0.85,
	}).(*dedupService)

	return svc, mr
}

func testFingerprint(hash string) models.Fingerprint {
	signature := make([]uint64, 64)
	for i := range signature {
		signature[i] = uint64(i) * 7919
	}
	return models.Fingerprint{ExactHash: hash, Signature: signature}
}

// perturb returns a copy of the signature with the first n entries changed.
func perturb(signature []uint64, n int) []uint64 {
	out := make([]uint64, len(signature))
	copy(out, signature)
	for i := 0; i < n; i++ {
		out[i] = out[i] + 1
	}
	return out
}

func TestLookup_ExactDuplicate(t *testing.T) {
	// Arrange
	svc, _ := setupDedup(t)
	ctx := context.Background()
	fp := testFingerprint("aaa111")
	require.NoError(t, svc.Record(ctx, fp, "cmp_first"))

	// Act
	match, err := svc.Lookup(ctx, fp)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "cmp_first", match.ComplaintID)
	assert.Equal(t, enum.DuplicateExact, match.Kind)
	assert.Equal(t, 1.0, match.Score)
}

func TestLookup_MissReturnsNil(t *testing.T) {
	// Arrange
	svc, _ := setupDedup(t)

	// Act
	match, err := svc.Lookup(context.Background(), testFingerprint("never-seen"))

	// Assert
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestRecord_FirstComplaintKeepsOwnership(t *testing.T) {
	// Arrange
	svc, _ := setupDedup(t)
	ctx := context.Background()
	fp := testFingerprint("bbb222")

	// Act
	require.NoError(t, svc.Record(ctx, fp, "cmp_first"))
	require.NoError(t, svc.Record(ctx, fp, "cmp_second"))
	match, err := svc.Lookup(ctx, fp)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "cmp_first", match.ComplaintID, "SETNX must keep the first owner")
}

func TestLookup_LikelyDuplicateBySignature(t *testing.T) {
	// Arrange
	svc, _ := setupDedup(t)
	ctx := context.Background()
	fp := testFingerprint("ccc333")
	require.NoError(t, svc.Record(ctx, fp, "cmp_original"))

	// Different hash, 5 of 64 signature positions changed -> score 0.92
	similar := models.Fingerprint{
		ExactHash: "ccc334",
		Signature: perturb(fp.Signature, 5),
	}

	// Act
	match, err := svc.Lookup(ctx, similar)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "cmp_original", match.ComplaintID)
	assert.Equal(t, enum.DuplicateLikely, match.Kind)
	assert.InDelta(t, 59.0/64.0, match.Score, 0.001)
}

func TestLookup_BelowThresholdIsNotDuplicate(t *testing.T) {
	// Arrange
	svc, _ := setupDedup(t)
	ctx := context.Background()
	fp := testFingerprint("ddd444")
	require.NoError(t, svc.Record(ctx, fp, "cmp_original"))

	// 20 of 64 positions changed -> score 0.69, under the 0.85 threshold
	dissimilar := models.Fingerprint{
		ExactHash: "ddd445",
		Signature: perturb(fp.Signature, 20),
	}

	// Act
	match, err := svc.Lookup(ctx, dissimilar)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestLookup_WithinCacheWindow(t *testing.T) {
	// Arrange
	svc, mr := setupDedup(t)
	ctx := context.Background()
	t0 := time.Now()
	svc.nowFn = func() time.Time { return t0 }
	fp := testFingerprint("eee555")
	require.NoError(t, svc.Record(ctx, fp, "cmp_recent"))

	// Act - 59 minutes later, still inside the window
	mr.FastForward(59 * time.Minute)
	svc.nowFn = func() time.Time { return t0.Add(59 * time.Minute) }
	match, err := svc.Lookup(ctx, fp)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, enum.DuplicateExact, match.Kind)
}

func TestLookup_ExpiredAfterCacheWindow(t *testing.T) {
	// Arrange
	svc, mr := setupDedup(t)
	ctx := context.Background()
	t0 := time.Now()
	svc.nowFn = func() time.Time { return t0 }
	fp := testFingerprint("fff666")
	require.NoError(t, svc.Record(ctx, fp, "cmp_old"))

	// Act - 61 minutes later, both the hash key and the signature expired
	mr.FastForward(61 * time.Minute)
	svc.nowFn = func() time.Time { return t0.Add(61 * time.Minute) }
	match, err := svc.Lookup(ctx, fp)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, match, "entries older than the cache window must not match")
}

func TestClassificationCache_RoundTrip(t *testing.T) {
	// Arrange
	svc, _ := setupDedup(t)
	ctx := context.Background()
	result := &models.ClassificationResult{
		Category:   enum.CategoryBilling,
		Priority:   enum.PriorityHigh,
		Sentiment:  enum.SentimentNegative,
		Confidence: 0.93,
		Entities: []models.Entity{
			{Type: enum.EntityAmount, Value: "59.99"},
		},
	}

	// Act
	require.NoError(t, svc.PutClassification(ctx, "hash777", result))
	cached, err := svc.GetClassification(ctx, "hash777")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, result, cached)
}

func TestClassificationCache_MissReturnsNil(t *testing.T) {
	// Arrange
	svc, _ := setupDedup(t)

	// Act
	cached, err := svc.GetClassification(context.Background(), "no-such-hash")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestClassificationCache_CorruptEntryIsAMiss(t *testing.T) {
	// Arrange
	svc, mr := setupDedup(t)
	require.NoError(t, mr.Set(classifyKeyPrefix+"hash888", "{not json"))

	// Act
	cached, err := svc.GetClassification(context.Background(), "hash888")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestLookup_CacheUnavailable(t *testing.T) {
	// Arrange
	svc, mr := setupDedup(t)
	mr.Close()

	// Act
	match, err := svc.Lookup(context.Background(), testFingerprint("ggg999"))

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, er.ErrDuplicateCacheUnavailable))
	assert.Nil(t, match)
}

func TestRecord_CacheUnavailable(t *testing.T) {
	// Arrange
	svc, mr := setupDedup(t)
	mr.Close()

	// Act
	err := svc.Record(context.Background(), testFingerprint("hhh000"), "cmp_x")

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, er.ErrDuplicateCacheUnavailable))
}
