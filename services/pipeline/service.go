package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/supportos/complaintstack/config"
	"github.com/supportos/complaintstack/dto"
	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/enum"
	er "github.com/supportos/complaintstack/internal/errors"
	"github.com/supportos/complaintstack/internal/logger"
	"github.com/supportos/complaintstack/internal/models"
	"github.com/supportos/complaintstack/internal/repository"
	"github.com/supportos/complaintstack/internal/tracing"
	"github.com/supportos/complaintstack/internal/utils"
)

type pipelineService struct {
	cfg        *config.PipelineConfig
	log        logger.Logger
	repos      *repository.Repositories
	mailbox    interfaces.MailboxService
	extractor  interfaces.ExtractorService
	fingerp    interfaces.FingerprintService
	dedup      interfaces.DedupService
	analyzer   interfaces.AnalyzerService
	escalation interfaces.EscalationService
	notifier   interfaces.NotifierService

	wg       sync.WaitGroup
	inFlight atomic.Int32
	running  atomic.Bool
	stopped  atomic.Bool

	mu             sync.Mutex
	lastCycleAt    *time.Time
	lastCycleCount int
}

func NewPipelineService(
	cfg *config.PipelineConfig,
	log logger.Logger,
	repos *repository.Repositories,
	mailbox interfaces.MailboxService,
	extractor interfaces.ExtractorService,
	fingerp interfaces.FingerprintService,
	dedup interfaces.DedupService,
	analyzer interfaces.AnalyzerService,
	escalation interfaces.EscalationService,
	notifier interfaces.NotifierService,
) interfaces.PipelineService {
	return &pipelineService{
		cfg:        cfg,
		log:        log,
		repos:      repos,
		mailbox:    mailbox,
		extractor:  extractor,
		fingerp:    fingerp,
		dedup:      dedup,
		analyzer:   analyzer,
		escalation: escalation,
		notifier:   notifier,
	}
}

// RunCycle fetches the unseen batch and processes each message on the
// bounded worker pool. It returns once the whole batch is drained so cycles
// never overlap.
func (s *pipelineService) RunCycle(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PipelineService.RunCycle")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagComponentPipeline(span)

	if s.stopped.Load() {
		return nil
	}
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("pipeline cycle already running, skipping")
		return nil
	}
	defer s.running.Store(false)

	messages, err := s.mailbox.FetchUnseen(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.LogKV("batch.size", len(messages))

	now := utils.Now()
	s.mu.Lock()
	s.lastCycleAt = &now
	s.lastCycleCount = len(messages)
	s.mu.Unlock()

	if len(messages) == 0 {
		return nil
	}

	sem := make(chan struct{}, s.cfg.WorkerPoolSize)
	var batch sync.WaitGroup
	for i := range messages {
		if s.stopped.Load() {
			break
		}
		msg := messages[i]

		sem <- struct{}{}
		batch.Add(1)
		s.wg.Add(1)
		s.inFlight.Add(1)
		go func() {
			defer func() {
				<-sem
				batch.Done()
				s.wg.Done()
				s.inFlight.Add(-1)
			}()
			defer tracing.RecoverAndLogToJaeger(s.log)

			s.processMessage(ctx, msg)
		}()
	}
	batch.Wait()

	return nil
}

// failureOutcome carries the stage that broke and its cause.
type failureOutcome struct {
	stage enum.PipelineStage
	cause error
}

func (s *pipelineService) processMessage(ctx context.Context, msg models.RawMessage) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PipelineService.processMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagComponentPipeline(span)
	span.SetTag(tracing.SpanTagMessageId, msg.MessageID)
	span.LogKV("stage", enum.StageFetched.String())

	// Idempotency: a message already persisted keeps its record; only the
	// mailbox flag needs fixing.
	existing, err := s.repos.ComplaintRepository.GetByMessageID(ctx, msg.MessageID)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("failed to check existing complaint for %s: %v", msg.MessageID, err)
		return
	}
	if existing != nil {
		s.markSeen(ctx, msg.UID)
		return
	}

	complaint, failure := s.runStages(ctx, &msg)
	if failure != nil {
		tracing.TraceErr(span, failure.cause)
		span.LogKV("stage", enum.StageFailed.String())
		if !s.recordFailure(ctx, complaint, &msg, failure) {
			// No terminal record exists anywhere. Leaving the message
			// unseen gets it re-fetched on the next poll.
			s.log.Warnf("message %s left unseen, no record persisted: %v", msg.MessageID, failure.cause)
			return
		}
	} else {
		span.LogKV("stage", enum.StagePersisted.String())
	}
	// Seen is flipped last: a crash before this point re-fetches the
	// message, a crash after it is covered by the message-id check above.
	s.markSeen(ctx, msg.UID)
}

func (s *pipelineService) runStages(ctx context.Context, msg *models.RawMessage) (*models.Complaint, *failureOutcome) {
	// parsing
	bodyText := msg.BodyText
	if bodyText == "" && msg.BodyHTML != "" {
		bodyText = utils.HTMLToText(msg.BodyHTML)
	}

	complaint := &models.Complaint{
		MessageID:     msg.MessageID,
		CustomerEmail: msg.FromAddress,
		CustomerName:  msg.FromName,
		Subject:       msg.Subject,
		BodyText:      bodyText,
		Status:        enum.ComplaintStatusProcessing,
		ReceivedAt:    msg.ReceivedAt,
	}

	// attachment_processing
	results := s.processAttachments(ctx, msg)
	var attachmentTexts []string
	for i, res := range results {
		complaint.Attachments = append(complaint.Attachments, models.ComplaintAttachment{
			Filename:         res.Filename,
			ContentType:      msg.Attachments[i].ContentType,
			Size:             res.Size,
			Format:           res.Format,
			ExtractionStatus: res.Status,
			ExtractionDetail: res.StatusDetail,
			ExtractedText:    res.ExtractedText,
			StorageBucket:    res.StorageBucket,
			StorageKey:       res.StorageKey,
		})
		if res.Status == enum.ExtractionSuccess && res.ExtractedText != "" {
			attachmentTexts = append(attachmentTexts, res.ExtractedText)
		}
	}

	// fingerprinting
	fp := s.fingerp.Compute(msg.Subject, bodyText, attachmentTexts)
	complaint.ContentHash = fp.ExactHash
	complaint.SimilaritySignature = utils.EncodeSignature(fp.Signature)

	if err := s.repos.ComplaintRepository.Create(ctx, complaint); err != nil {
		return nil, &failureOutcome{stage: enum.StageParsing, cause: err}
	}

	// duplicate_check
	match, err := s.dedup.Lookup(ctx, fp)
	if err != nil {
		// Degraded mode: the cache being down must not stop intake, the
		// message is treated as new.
		s.log.Warnf("duplicate cache unavailable, processing %s as new: %v", msg.MessageID, err)
		match = nil
	}
	if match != nil {
		complaint.DuplicateOfID = utils.StringPtr(match.ComplaintID)
		complaint.DuplicateKind = match.Kind

		if match.Kind == enum.DuplicateExact {
			// Exact duplicates skip the analyzer; the canonical complaint
			// already went through, so its classification is reused.
			s.applyPriorClassification(ctx, complaint, fp.ExactHash, match.ComplaintID)
			complaint.Status = enum.ComplaintStatusCompleted
			if err = s.repos.ComplaintRepository.Update(ctx, complaint); err != nil {
				return complaint, &failureOutcome{stage: enum.StageDuplicateCheck, cause: err}
			}
			return complaint, nil
		}
	}

	// classifying
	classification, err := s.analyzer.Classify(ctx, dto.AnalyzeRequest{
		Subject:         msg.Subject,
		Body:            bodyText,
		AttachmentTexts: attachmentTexts,
		ContentHash:     fp.ExactHash,
	})
	if err != nil {
		return complaint, &failureOutcome{stage: enum.StageClassifying, cause: err}
	}
	complaint.Category = classification.Category
	complaint.Priority = classification.Priority
	complaint.Sentiment = classification.Sentiment
	complaint.Confidence = classification.Confidence
	complaint.Entities = classification.Entities

	// routing
	complaint.Department = s.escalation.AssignDepartment(classification.Category)
	complaint.RouteDecision = s.escalation.Route(*classification)
	if complaint.RouteDecision == enum.RouteStoreAndNotify {
		if notifyErr := s.notifier.NotifyEscalation(ctx, complaint); notifyErr != nil {
			// Notification is best-effort, the complaint still persists.
			s.log.Errorf("failed to notify escalation for %s: %v", complaint.ID, notifyErr)
		} else {
			complaint.Notified = true
		}
	}

	// persisted
	complaint.Status = enum.ComplaintStatusCompleted
	if err = s.repos.ComplaintRepository.Update(ctx, complaint); err != nil {
		return complaint, &failureOutcome{stage: enum.StageRouting, cause: err}
	}

	if err = s.dedup.Record(ctx, fp, complaint.ID); err != nil {
		s.log.Warnf("failed to record fingerprint for %s: %v", complaint.ID, err)
	}

	return complaint, nil
}

// applyPriorClassification copies the canonical complaint's classification
// onto an exact duplicate, preferring the shared cache and falling back to
// the stored record. Finding neither leaves the duplicate unclassified but
// never fails it.
func (s *pipelineService) applyPriorClassification(ctx context.Context, complaint *models.Complaint, exactHash, canonicalID string) {
	if cached, err := s.dedup.GetClassification(ctx, exactHash); err == nil && cached != nil {
		complaint.Category = cached.Category
		complaint.Priority = cached.Priority
		complaint.Sentiment = cached.Sentiment
		complaint.Confidence = cached.Confidence
		complaint.Entities = cached.Entities
		complaint.Department = s.escalation.AssignDepartment(cached.Category)
		return
	}

	canonical, err := s.repos.ComplaintRepository.GetByID(ctx, canonicalID)
	if err != nil {
		s.log.Warnf("no prior classification found for duplicate of %s: %v", canonicalID, err)
		return
	}
	complaint.Category = canonical.Category
	complaint.Priority = canonical.Priority
	complaint.Sentiment = canonical.Sentiment
	complaint.Confidence = canonical.Confidence
	complaint.Entities = canonical.Entities
	complaint.Department = canonical.Department
}

// processAttachments runs extraction with its own parallelism bound, below
// the message-level worker pool. Results keep input order.
func (s *pipelineService) processAttachments(ctx context.Context, msg *models.RawMessage) []models.AttachmentResult {
	if len(msg.Attachments) == 0 {
		return nil
	}

	results := make([]models.AttachmentResult, len(msg.Attachments))
	sem := make(chan struct{}, s.cfg.AttachmentParallelism)
	var wg sync.WaitGroup
	for i := range msg.Attachments {
		sem <- struct{}{}
		wg.Add(1)
		go func(idx int) {
			defer func() {
				<-sem
				wg.Done()
			}()
			defer tracing.RecoverAndLogToJaeger(s.log)

			results[idx] = s.extractor.Process(ctx, attachmentKeyPrefix(msg.MessageID), msg.Attachments[idx])
		}(i)
	}
	wg.Wait()
	return results
}

// recordFailure persists the terminal failed record and reports whether a
// record actually exists, so the caller can decide the mailbox flag.
func (s *pipelineService) recordFailure(ctx context.Context, complaint *models.Complaint, msg *models.RawMessage, failure *failureOutcome) bool {
	if complaint == nil {
		complaint = &models.Complaint{
			MessageID:     msg.MessageID,
			CustomerEmail: msg.FromAddress,
			CustomerName:  msg.FromName,
			Subject:       msg.Subject,
			BodyText:      msg.BodyText,
			ReceivedAt:    msg.ReceivedAt,
		}
		complaint.Status = enum.ComplaintStatusFailed
		complaint.FailureStage = failure.stage
		complaint.FailureReason = failure.cause.Error()
		if err := s.repos.ComplaintRepository.Create(ctx, complaint); err != nil {
			s.log.Errorf("failed to record failed complaint for %s: %v", msg.MessageID, err)
			return false
		}
		return true
	}

	complaint.Status = enum.ComplaintStatusFailed
	complaint.FailureStage = failure.stage
	complaint.FailureReason = failure.cause.Error()
	if err := s.repos.ComplaintRepository.Update(ctx, complaint); err != nil {
		s.log.Errorf("failed to record failure for complaint %s: %v", complaint.ID, err)
		// The row from the earlier Create still exists in processing
		// state, so the message-id check covers a re-fetch.
		return true
	}
	return true
}

func (s *pipelineService) markSeen(ctx context.Context, uid uint32) {
	if err := s.mailbox.MarkSeen(ctx, uid); err != nil {
		s.log.Errorf("failed to mark message uid %d seen: %v", uid, err)
	}
}

// Reprocess re-runs classification and routing for a failed complaint using
// the persisted content. Extraction is not repeated, the stored attachment
// texts are reused.
func (s *pipelineService) Reprocess(ctx context.Context, complaintID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PipelineService.Reprocess")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagComponentPipeline(span)
	span.SetTag(tracing.SpanTagComplaintId, complaintID)

	complaint, err := s.repos.ComplaintRepository.GetByID(ctx, complaintID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if complaint.Status != enum.ComplaintStatusFailed {
		return er.ErrComplaintNotFailed
	}

	var attachmentTexts []string
	for _, att := range complaint.Attachments {
		if att.ExtractionStatus == enum.ExtractionSuccess && att.ExtractedText != "" {
			attachmentTexts = append(attachmentTexts, att.ExtractedText)
		}
	}

	classification, err := s.analyzer.Classify(ctx, dto.AnalyzeRequest{
		Subject:         complaint.Subject,
		Body:            complaint.BodyText,
		AttachmentTexts: attachmentTexts,
		ContentHash:     complaint.ContentHash,
	})
	if err != nil {
		tracing.TraceErr(span, err)
		complaint.FailureStage = enum.StageClassifying
		complaint.FailureReason = err.Error()
		if updateErr := s.repos.ComplaintRepository.Update(ctx, complaint); updateErr != nil {
			s.log.Errorf("failed to update complaint %s after reprocess failure: %v", complaint.ID, updateErr)
		}
		return err
	}

	complaint.Category = classification.Category
	complaint.Priority = classification.Priority
	complaint.Sentiment = classification.Sentiment
	complaint.Confidence = classification.Confidence
	complaint.Entities = classification.Entities
	complaint.Department = s.escalation.AssignDepartment(classification.Category)
	complaint.RouteDecision = s.escalation.Route(*classification)

	if complaint.RouteDecision == enum.RouteStoreAndNotify && !complaint.Notified {
		if notifyErr := s.notifier.NotifyEscalation(ctx, complaint); notifyErr != nil {
			s.log.Errorf("failed to notify escalation for %s: %v", complaint.ID, notifyErr)
		} else {
			complaint.Notified = true
		}
	}

	complaint.Status = enum.ComplaintStatusCompleted
	complaint.FailureStage = ""
	complaint.FailureReason = ""
	if err = s.repos.ComplaintRepository.Update(ctx, complaint); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (s *pipelineService) Status(ctx context.Context) (*dto.PipelineStatus, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "PipelineService.Status")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	counts, err := s.repos.ComplaintRepository.CountByStatus(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	statusCounts := make(map[string]int64, len(counts))
	for status, count := range counts {
		statusCounts[status.String()] = count
	}

	s.mu.Lock()
	lastCycleAt := s.lastCycleAt
	lastCycleCount := s.lastCycleCount
	s.mu.Unlock()

	return &dto.PipelineStatus{
		Running:        s.running.Load(),
		InFlight:       int(s.inFlight.Load()),
		LastCycleAt:    lastCycleAt,
		LastCycleCount: lastCycleCount,
		Counts:         statusCounts,
	}, nil
}

// Stop blocks new cycles and waits for in-flight messages up to the drain
// grace period. Messages still unfinished after that stay unseen on the
// server and are re-fetched on restart.
func (s *pipelineService) Stop(ctx context.Context) {
	s.stopped.Store(true)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("pipeline drained cleanly")
	case <-time.After(s.cfg.DrainGracePeriod):
		s.log.Warnf("pipeline drain grace period of %s elapsed with %d messages in flight",
			s.cfg.DrainGracePeriod, s.inFlight.Load())
	case <-ctx.Done():
		s.log.Warn("pipeline stop cancelled by context")
	}
}

func attachmentKeyPrefix(messageID string) string {
	return "attachments/" + utils.NormalizeMessageID(messageID)
}
