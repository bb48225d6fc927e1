package models

// AnswerResponse is the terminal payload returned to the caller. Sources
// always reflects exactly what the search stage contributed for this
// request (empty when search failed or found nothing); DocumentURL is nil
// when document generation or upload failed.
type AnswerResponse struct {
	AIResponse       string   `json:"ai_response"`
	DocumentURL      *string  `json:"document_url"`
	Sources          []string `json:"sources"`
	RequestID        string   `json:"request_id"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}
