package extractor

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/opentracing/opentracing-go"

	"github.com/supportos/complaintstack/config"
	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/enum"
	"github.com/supportos/complaintstack/internal/logger"
	"github.com/supportos/complaintstack/internal/models"
	"github.com/supportos/complaintstack/internal/tracing"
)

type extractorService struct {
	cfg       *config.PipelineConfig
	storage   interfaces.StorageService
	log       logger.Logger
	supported map[enum.AttachmentFormat]bool
}

func NewExtractorService(cfg *config.PipelineConfig, storage interfaces.StorageService, log logger.Logger) interfaces.ExtractorService {
	supported := make(map[enum.AttachmentFormat]bool, len(cfg.SupportedFormats))
	for _, f := range cfg.SupportedFormats {
		supported[enum.AttachmentFormat(strings.ToLower(strings.TrimSpace(f)))] = true
	}
	return &extractorService{
		cfg:       cfg,
		storage:   storage,
		log:       log,
		supported: supported,
	}
}

// Process uploads the attachment to object storage and extracts its text.
// The original bytes are stored before extraction is attempted so a failed
// extraction never loses the attachment itself.
func (s *extractorService) Process(ctx context.Context, keyPrefix string, attachment models.RawAttachment) models.AttachmentResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ExtractorService.Process")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("filename", attachment.Filename, "size", len(attachment.Content))

	result := models.AttachmentResult{
		Filename: attachment.Filename,
		Size:     len(attachment.Content),
	}

	detected := mimetype.Detect(attachment.Content)
	result.Format = detectFormat(detected, attachment.Filename)
	span.LogKV("format", result.Format.String(), "mime", detected.String())

	storageKey := fmt.Sprintf("%s/%s", keyPrefix, sanitizeFilename(attachment.Filename))
	if err := s.storage.Upload(ctx, storageKey, attachment.Content, detected.String()); err != nil {
		// Keep going: extraction can still succeed, the upload failure
		// just means no stored copy to presign later.
		tracing.TraceErr(span, err)
		s.log.Errorf("failed to store attachment %s: %v", attachment.Filename, err)
	} else {
		result.StorageBucket = s.storage.Bucket()
		result.StorageKey = storageKey
	}

	if !s.supported[result.Format] || result.Format == enum.FormatUnknown {
		result.Status = enum.ExtractionUnsupportedFormat
		result.StatusDetail = fmt.Sprintf("unsupported format %s (%s)", result.Format, detected.String())
		return result
	}

	text, err := s.extract(ctx, result.Format, attachment.Content)
	if err != nil {
		tracing.TraceErr(span, err)
		result.Status = enum.ExtractionFailed
		result.StatusDetail = err.Error()
		return result
	}

	result.Status = enum.ExtractionSuccess
	result.ExtractedText = text
	return result
}

func (s *extractorService) extract(ctx context.Context, format enum.AttachmentFormat, content []byte) (string, error) {
	switch format {
	case enum.FormatPDF:
		return extractPDF(content)
	case enum.FormatWord:
		return extractDocx(content)
	case enum.FormatImage:
		return extractImage(ctx, content)
	case enum.FormatSpreadsheet:
		return extractSpreadsheet(content)
	case enum.FormatCSV:
		return extractCSV(content)
	case enum.FormatText:
		return extractPlainText(content)
	case enum.FormatHTML:
		return extractHTML(content)
	default:
		return "", fmt.Errorf("no extractor for format %s", format)
	}
}

// detectFormat maps a sniffed mime type to the internal format enum, falling
// back to the filename extension when sniffing is inconclusive.
func detectFormat(detected *mimetype.MIME, filename string) enum.AttachmentFormat {
	switch {
	case detected.Is("application/pdf"):
		return enum.FormatPDF
	case detected.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"),
		detected.Is("application/msword"):
		return enum.FormatWord
	case detected.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
		detected.Is("application/vnd.ms-excel"):
		return enum.FormatSpreadsheet
	case detected.Is("text/csv"):
		return enum.FormatCSV
	case detected.Is("text/html"):
		return enum.FormatHTML
	case strings.HasPrefix(detected.String(), "image/"):
		return enum.FormatImage
	case strings.HasPrefix(detected.String(), "text/"):
		return formatFromExtension(filename, enum.FormatText)
	default:
		return formatFromExtension(filename, enum.FormatUnknown)
	}
}

func formatFromExtension(filename string, fallback enum.AttachmentFormat) enum.AttachmentFormat {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return enum.FormatPDF
	case ".doc", ".docx":
		return enum.FormatWord
	case ".xls", ".xlsx":
		return enum.FormatSpreadsheet
	case ".csv":
		return enum.FormatCSV
	case ".html", ".htm":
		return enum.FormatHTML
	case ".txt", ".log", ".md", ".rtf":
		return enum.FormatText
	case ".png", ".jpg", ".jpeg", ".gif", ".tiff", ".bmp":
		return enum.FormatImage
	default:
		return fallback
	}
}

func sanitizeFilename(filename string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", "..", "_")
	cleaned := replacer.Replace(filename)
	if cleaned == "" {
		cleaned = "attachment"
	}
	return cleaned
}
