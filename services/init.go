package services

import (
	"github.com/redis/go-redis/v9"

	"github.com/supportos/complaintstack/config"
	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/logger"
	"github.com/supportos/complaintstack/internal/repository"
	"github.com/supportos/complaintstack/services/analyzer"
	"github.com/supportos/complaintstack/services/dedup"
	"github.com/supportos/complaintstack/services/escalation"
	"github.com/supportos/complaintstack/services/extractor"
	"github.com/supportos/complaintstack/services/fingerprint"
	"github.com/supportos/complaintstack/services/mailbox"
	"github.com/supportos/complaintstack/services/notifier"
	"github.com/supportos/complaintstack/services/pipeline"
	"github.com/supportos/complaintstack/services/storage"
)

type Services struct {
	MailboxService     interfaces.MailboxService
	StorageService     interfaces.StorageService
	ExtractorService   interfaces.ExtractorService
	FingerprintService interfaces.FingerprintService
	DedupService       interfaces.DedupService
	AnalyzerService    interfaces.AnalyzerService
	EscalationService  interfaces.EscalationService
	NotifierService    interfaces.NotifierService
	PipelineService    interfaces.PipelineService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})

	notifierService, err := notifier.NewRabbitMQNotifier(cfg.NotificationConfig, log)
	if err != nil {
		return nil, err
	}

	storageService := storage.NewStorageService(cfg.StorageConfig)
	fingerprintService := fingerprint.NewFingerprintService()
	dedupService := dedup.NewDedupService(redisClient, fingerprintService, cfg.PipelineConfig)

	services := Services{
		MailboxService:     mailbox.NewMailboxService(cfg.MailboxConfig, log),
		StorageService:     storageService,
		ExtractorService:   extractor.NewExtractorService(cfg.PipelineConfig, storageService, log),
		FingerprintService: fingerprintService,
		DedupService:       dedupService,
		AnalyzerService:    analyzer.NewAnalyzerService(cfg.AnalyzerConfig, dedupService, log),
		EscalationService:  escalation.NewEscalationService(),
		NotifierService:    notifierService,
	}

	return &services, nil
}

// InitPipeline wires the pipeline last since it depends on every other
// service plus the repositories.
func (s *Services) InitPipeline(cfg *config.Config, log logger.Logger, repos *repository.Repositories) {
	s.PipelineService = pipeline.NewPipelineService(
		cfg.PipelineConfig,
		log,
		repos,
		s.MailboxService,
		s.ExtractorService,
		s.FingerprintService,
		s.DedupService,
		s.AnalyzerService,
		s.EscalationService,
		s.NotifierService,
	)
}
