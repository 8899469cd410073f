package dto

// AnalyzeRequest carries the text handed to the classification model.
// ContentHash, when set, keys the classification cache so identical content
// is billed once per cache window.
type AnalyzeRequest struct {
	Subject         string
	Body            string
	AttachmentTexts []string
	ContentHash     string
}

// analyzerResponse mirrors the JSON object the model is instructed to
// return. Fields are validated against the known enums before use.
type AnalyzerResponse struct {
	Category   string                 `json:"category"`
	Priority   string                 `json:"priority"`
	Sentiment  string                 `json:"sentiment"`
	Confidence float64                `json:"confidence"`
	Entities   AnalyzerEntityResponse `json:"entities"`
}

type AnalyzerEntityResponse struct {
	OrderNumbers []string `json:"orderNumbers"`
	Amounts      []string `json:"amounts"`
	Dates        []string `json:"dates"`
	Products     []string `json:"products"`
}
