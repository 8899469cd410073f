package enum

type AttachmentFormat string

const (
	FormatPDF         AttachmentFormat = "pdf"
	FormatWord        AttachmentFormat = "word"
	FormatImage       AttachmentFormat = "image"
	FormatSpreadsheet AttachmentFormat = "spreadsheet"
	FormatCSV         AttachmentFormat = "csv"
	FormatText        AttachmentFormat = "text"
	FormatHTML        AttachmentFormat = "html"
	FormatUnknown     AttachmentFormat = "unknown"
)

func (t AttachmentFormat) String() string {
	return string(t)
}

type ExtractionStatus string

const (
	ExtractionSuccess           ExtractionStatus = "success"
	ExtractionUnsupportedFormat ExtractionStatus = "unsupported_format"
	ExtractionFailed            ExtractionStatus = "extraction_failed"
)

func (t ExtractionStatus) String() string {
	return string(t)
}
