package dedup

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/supportos/complaintstack/config"
	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/enum"
	er "github.com/supportos/complaintstack/internal/errors"
	"github.com/supportos/complaintstack/internal/models"
	"github.com/supportos/complaintstack/internal/tracing"
)

const (
	exactHashKeyPrefix    = "complaint:hash:"
	classifyKeyPrefix     = "complaint:classify:"
	signatureZSetKey      = "complaint:signatures"
	signatureMemberFields = 2
)

type dedupService struct {
	redis     redis.UniversalClient
	fingerp   interfaces.FingerprintService
	ttl       time.Duration
	threshold float64

	// nowFn is replaceable in tests to control the cache window.
	nowFn func() time.Time
}

func NewDedupService(redisClient redis.UniversalClient, fingerp interfaces.FingerprintService, cfg *config.PipelineConfig) interfaces.DedupService {
	return &dedupService{
		redis:     redisClient,
		fingerp:   fingerp,
		ttl:       cfg.CacheTTL,
		threshold: cfg.SimilarityThreshold,
		nowFn:     time.Now,
	}
}

// Lookup checks the exact content hash first, then scans recent similarity
// signatures. An exact hit wins over any similarity score.
func (s *dedupService) Lookup(ctx context.Context, fp models.Fingerprint) (*interfaces.DuplicateMatch, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DedupService.Lookup")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	complaintID, err := s.redis.Get(ctx, exactHashKeyPrefix+fp.ExactHash).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(er.ErrDuplicateCacheUnavailable, err.Error())
	}
	if err == nil {
		span.LogKV("match.kind", "exact", "match.complaintId", complaintID)
		return &interfaces.DuplicateMatch{
			ComplaintID: complaintID,
			Kind:        enum.DuplicateExact,
			Score:       1.0,
		}, nil
	}

	match, err := s.scanSignatures(ctx, fp.Signature)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if match != nil {
		span.LogKV("match.kind", "likely", "match.complaintId", match.ComplaintID, "match.score", match.Score)
	}
	return match, nil
}

func (s *dedupService) scanSignatures(ctx context.Context, signature []uint64) (*interfaces.DuplicateMatch, error) {
	now := s.nowFn()
	cutoff := now.Add(-s.ttl)

	// Expired signatures are pruned on every scan so the set never grows
	// past one cache window.
	err := s.redis.ZRemRangeByScore(ctx, signatureZSetKey,
		"-inf", strconv.FormatInt(cutoff.UnixNano(), 10)).Err()
	if err != nil {
		return nil, errors.Wrap(er.ErrDuplicateCacheUnavailable, err.Error())
	}

	members, err := s.redis.ZRangeByScore(ctx, signatureZSetKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff.UnixNano(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, errors.Wrap(er.ErrDuplicateCacheUnavailable, err.Error())
	}

	var best *interfaces.DuplicateMatch
	for _, member := range members {
		complaintID, candidate, decodeErr := decodeSignatureMember(member)
		if decodeErr != nil {
			continue
		}
		score := s.fingerp.Similarity(signature, candidate)
		if score < s.threshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &interfaces.DuplicateMatch{
				ComplaintID: complaintID,
				Kind:        enum.DuplicateLikely,
				Score:       score,
			}
		}
	}
	return best, nil
}

// Record registers the fingerprint for the cache window. SETNX keeps the
// first complaint as the canonical owner of a content hash, so recording
// the same hash twice is a no-op rather than an ownership change.
func (s *dedupService) Record(ctx context.Context, fp models.Fingerprint, complaintID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DedupService.Record")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag(tracing.SpanTagComplaintId, complaintID)

	if err := s.redis.SetNX(ctx, exactHashKeyPrefix+fp.ExactHash, complaintID, s.ttl).Err(); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(er.ErrDuplicateCacheUnavailable, err.Error())
	}

	member := encodeSignatureMember(complaintID, fp.Signature)
	err := s.redis.ZAdd(ctx, signatureZSetKey, redis.Z{
		Score:  float64(s.nowFn().UnixNano()),
		Member: member,
	}).Err()
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(er.ErrDuplicateCacheUnavailable, err.Error())
	}
	return nil
}

func (s *dedupService) GetClassification(ctx context.Context, exactHash string) (*models.ClassificationResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DedupService.GetClassification")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	payload, err := s.redis.Get(ctx, classifyKeyPrefix+exactHash).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(er.ErrDuplicateCacheUnavailable, err.Error())
	}

	var result models.ClassificationResult
	if err = json.Unmarshal([]byte(payload), &result); err != nil {
		// A corrupt cache entry is treated as a miss.
		tracing.TraceErr(span, err)
		return nil, nil
	}
	return &result, nil
}

func (s *dedupService) PutClassification(ctx context.Context, exactHash string, result *models.ClassificationResult) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DedupService.PutClassification")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	payload, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "failed to marshal classification")
	}
	if err = s.redis.Set(ctx, classifyKeyPrefix+exactHash, payload, s.ttl).Err(); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(er.ErrDuplicateCacheUnavailable, err.Error())
	}
	return nil
}

func encodeSignatureMember(complaintID string, signature []uint64) string {
	buf := make([]byte, 8*len(signature))
	for i, v := range signature {
		binary.BigEndian.PutUint64(buf[i*8:], v)
	}
	return complaintID + "|" + hex.EncodeToString(buf)
}

func decodeSignatureMember(member string) (string, []uint64, error) {
	parts := strings.SplitN(member, "|", signatureMemberFields)
	if len(parts) != signatureMemberFields {
		return "", nil, fmt.Errorf("malformed signature member")
	}
	buf, err := hex.DecodeString(parts[1])
	if err != nil || len(buf)%8 != 0 {
		return "", nil, fmt.Errorf("malformed signature payload")
	}
	signature := make([]uint64, len(buf)/8)
	for i := range signature {
		signature[i] = binary.BigEndian.Uint64(buf[i*8:])
	}
	return parts[0], signature, nil
}
